package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/marmos91/linefs/internal/cli/output"
	"github.com/marmos91/linefs/pkg/config"
	"github.com/marmos91/linefs/pkg/traffic"
)

var (
	statusOutput string
	statusAPIURL string
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show server status",
	Long: `Display the traffic statistics of a running linefs server.

This command queries the control API (GET /api/v1/stats) and renders the
counters and the active sessions.

Examples:
  # Check status using the API port from the configuration
  linefs status

  # Check a remote server
  linefs status --api-url http://10.0.0.5:8080

  # Output as JSON
  linefs status --output json`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusAPIURL, "api-url", "", "Control API base URL (default: http://127.0.0.1:<api.port>)")
	statusCmd.Flags().StringVarP(&statusOutput, "output", "o", "table", "Output format (table|json|yaml)")
}

// statsResponse mirrors the control API envelope for GET /api/v1/stats.
type statsResponse struct {
	Status string           `json:"status"`
	Data   traffic.Snapshot `json:"data"`
	Error  string           `json:"error,omitempty"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(statusOutput)
	if err != nil {
		return err
	}

	baseURL := statusAPIURL
	if baseURL == "" {
		cfg, err := config.Load(GetConfigFile())
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		baseURL = fmt.Sprintf("http://127.0.0.1:%d", cfg.API.Port)
	}

	snapshot, err := fetchStats(&http.Client{Timeout: 2 * time.Second}, baseURL)
	if err != nil {
		return err
	}

	if format == output.FormatTable {
		return printStatusTable(cmd.OutOrStdout(), snapshot)
	}
	return output.Print(cmd.OutOrStdout(), format, snapshot)
}

func fetchStats(client *http.Client, baseURL string) (traffic.Snapshot, error) {
	url := strings.TrimRight(baseURL, "/") + "/api/v1/stats"

	resp, err := client.Get(url)
	if err != nil {
		return traffic.Snapshot{}, fmt.Errorf("server is not reachable at %s: %w", baseURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	var body statsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return traffic.Snapshot{}, fmt.Errorf("invalid stats response (HTTP %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK || body.Status != "ok" {
		return traffic.Snapshot{}, fmt.Errorf("stats unavailable (HTTP %d): %s", resp.StatusCode, body.Error)
	}
	return body.Data, nil
}

// sessionTable renders active clients for output.PrintTable.
type sessionTable []traffic.ClientStats

func (t sessionTable) Headers() []string {
	return []string{"Session", "IP", "Messages", "Received", "Sent", "Connected", "Last activity"}
}

func (t sessionTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, c := range t {
		rows = append(rows, []string{
			c.ID,
			c.IP,
			strconv.FormatUint(c.Messages, 10),
			humanize.IBytes(c.BytesReceived),
			humanize.IBytes(c.BytesSent),
			humanize.Time(c.ConnectedSince),
			humanize.Time(c.LastActivity),
		})
	}
	return rows
}

func printStatusTable(w io.Writer, s traffic.Snapshot) error {
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "linefs Server Status")
	_, _ = fmt.Fprintln(w, "====================")
	_, _ = fmt.Fprintln(w)

	if err := output.KeyValueTable(w, [][2]string{
		{"Started", s.StartTime.Local().Format(time.RFC1123)},
		{"Uptime", s.Uptime},
		{"Active connections", strconv.Itoa(s.ActiveConnections)},
		{"Total connections", humanize.Comma(int64(s.TotalConnections))},
		{"Total messages", humanize.Comma(int64(s.TotalMessages))},
		{"Received", humanize.IBytes(s.Traffic.Received)},
		{"Sent", humanize.IBytes(s.Traffic.Sent)},
	}); err != nil {
		return err
	}

	if len(s.ActiveClients) == 0 {
		_, _ = fmt.Fprintln(w, "\nNo active sessions")
		return nil
	}

	_, _ = fmt.Fprintln(w)
	return output.PrintTable(w, sessionTable(s.ActiveClients))
}
