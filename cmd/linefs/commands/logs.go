package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/marmos91/linefs/pkg/config"
)

// textTimeLayout is the stamp written by the text log handler.
const textTimeLayout = "2006-01-02 15:04:05"

var (
	logsFollow bool
	logsLines  int
	logsSince  string
	logsSource string
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Tail server, audit or traffic logs",
	Long: `Display and optionally follow one of the files linefs writes.

Sources:
  server  the structured server log (logging.output must be a file)
  audit   the MESSAGE audit log (audit.path)
  stats   the traffic snapshots (monitoring.stats_log)

Examples:
  # Show last 100 lines of the server log (default)
  linefs logs

  # Follow the audit log
  linefs logs --source audit -f

  # Last 5 traffic snapshots
  linefs logs --source stats -n 5

  # Show entries since a specific time
  linefs logs --since "2024-01-15T10:00:00Z"`,
	RunE: runLogs,
}

func init() {
	logsCmd.Flags().BoolVarP(&logsFollow, "follow", "f", false, "Follow log output")
	logsCmd.Flags().IntVarP(&logsLines, "lines", "n", 100, "Number of lines to show")
	logsCmd.Flags().StringVar(&logsSince, "since", "", "Show logs since timestamp (RFC3339 format)")
	logsCmd.Flags().StringVar(&logsSource, "source", "server", "Log to read (server|audit|stats)")
}

func runLogs(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logFile, err := logPath(cfg, logsSource)
	if err != nil {
		return err
	}

	if _, err := os.Stat(logFile); os.IsNotExist(err) {
		return fmt.Errorf("log file not found: %s\nThe server may not have started yet or is logging elsewhere", logFile)
	}

	var sinceTime time.Time
	if logsSince != "" {
		sinceTime, err = time.Parse(time.RFC3339, logsSince)
		if err != nil {
			return fmt.Errorf("invalid --since format (use RFC3339): %w", err)
		}
	}

	out := cmd.OutOrStdout()
	if logsFollow {
		return followLogs(out, logFile, logsLines, sinceTime)
	}
	return showLogs(out, logFile, logsLines, sinceTime)
}

// logPath resolves a --source name to the file configured for it.
func logPath(cfg *config.Config, source string) (string, error) {
	switch strings.ToLower(source) {
	case "server", "":
		switch cfg.Logging.Output {
		case "stdout", "stderr":
			return "", fmt.Errorf("server is configured to log to %s, not a file\nConfigure 'logging.output' in config to a file path to use this command", cfg.Logging.Output)
		}
		return cfg.Logging.Output, nil
	case "audit":
		if cfg.Audit.Path == "" {
			return "", fmt.Errorf("audit log is disabled\nConfigure 'audit.path' in config to enable it")
		}
		return cfg.Audit.Path, nil
	case "stats":
		return cfg.Monitoring.StatsLog, nil
	default:
		return "", fmt.Errorf("unknown log source %q (valid: server, audit, stats)", source)
	}
}

// showLogs writes the last N lines of logFile, skipping lines older than since.
func showLogs(w io.Writer, logFile string, lines int, since time.Time) error {
	file, err := os.Open(logFile)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = file.Close() }()

	tail, err := tailLines(file, lines, since)
	if err != nil {
		return fmt.Errorf("error reading log file: %w", err)
	}
	for _, line := range tail {
		_, _ = fmt.Fprintln(w, line)
	}
	return nil
}

// tailLines keeps a ring of the last n matching lines.
func tailLines(r io.Reader, n int, since time.Time) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}

	scanner := bufio.NewScanner(r)
	// Traffic snapshots and uploaded-file audit lines can be long
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	ring := make([]string, 0, n)
	for scanner.Scan() {
		line := scanner.Text()
		if !since.IsZero() {
			if ts := extractTimestamp(line); !ts.IsZero() && ts.Before(since) {
				continue
			}
		}
		if len(ring) == n {
			ring = append(ring[:0], ring[1:]...)
		}
		ring = append(ring, line)
	}
	return ring, scanner.Err()
}

// followLogs prints the tail of logFile, then any lines appended to it.
func followLogs(w io.Writer, logFile string, initialLines int, since time.Time) error {
	if err := showLogs(w, logFile, initialLines, since); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(logFile); err != nil {
		return fmt.Errorf("failed to watch log file: %w", err)
	}

	file, err := os.Open(logFile)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = file.Close() }()

	if _, err := file.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("failed to seek to end of log file: %w", err)
	}

	reader := bufio.NewReader(file)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(os.Stderr, "Following %s (Ctrl+C to stop)...\n", logFile)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Write) {
				for {
					line, err := reader.ReadString('\n')
					if err != nil {
						break
					}
					_, _ = fmt.Fprint(w, line)
				}
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watcher error: %w", err)
		}
	}
}

// extractTimestamp finds the time of a log line. It understands the
// bracketed stamp of text log and audit lines, the JSON handler's "time"
// field, and the "timestamp" field of traffic snapshots.
func extractTimestamp(line string) time.Time {
	if strings.HasPrefix(line, "[") {
		if end := strings.IndexByte(line, ']'); end > 0 {
			stamp := line[1:end]
			if t, err := time.Parse(time.RFC3339Nano, stamp); err == nil {
				return t
			}
			if t, err := time.ParseInLocation(textTimeLayout, stamp, time.Local); err == nil {
				return t
			}
		}
	}

	for _, key := range []string{`"time":"`, `"timestamp":"`} {
		idx := strings.Index(line, key)
		if idx < 0 {
			continue
		}
		start := idx + len(key)
		end := strings.IndexByte(line[start:], '"')
		if end < 0 || end > 40 {
			continue
		}
		if t, err := time.Parse(time.RFC3339Nano, line[start:start+end]); err == nil {
			return t
		}
	}

	return time.Time{}
}
