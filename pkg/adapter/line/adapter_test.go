package line

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/linefs/pkg/filestore"
	"github.com/marmos91/linefs/pkg/policy"
	"github.com/marmos91/linefs/pkg/traffic"
)

type tcpClient struct {
	conn   net.Conn
	reader *bufio.Reader
}

func dialClient(t *testing.T, addr string) *tcpClient {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return &tcpClient{conn: conn, reader: bufio.NewReader(conn)}
}

func (c *tcpClient) roundTrip(t *testing.T, line string) testResponse {
	t.Helper()
	_, err := io.WriteString(c.conn, line+"\n")
	require.NoError(t, err)
	return c.read(t)
}

func (c *tcpClient) read(t *testing.T) testResponse {
	t.Helper()
	require.NoError(t, c.conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	raw, err := c.reader.ReadBytes('\n')
	require.NoError(t, err)

	var resp testResponse
	require.NoError(t, json.Unmarshal(raw, &resp))
	return resp
}

func startServer(t *testing.T, cfg Config, allow []string) *Adapter {
	t.Helper()

	store, err := filestore.New(t.TempDir())
	require.NoError(t, err)
	allowList, err := policy.NewAllowList(allow)
	require.NoError(t, err)

	cfg.BindAddress = "127.0.0.1"
	a := New(cfg, Options{
		Policy:  allowList,
		Monitor: traffic.NewMonitor(nil),
		Store:   store,
	})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- a.Serve(ctx) }()

	t.Cleanup(func() {
		cancel()
		select {
		case <-errCh:
		case <-time.After(5 * time.Second):
			t.Error("server did not stop")
		}
	})

	require.NotEmpty(t, a.GetListenerAddr())
	return a
}

func TestAdapter_PrivilegeFromAllowList(t *testing.T) {
	t.Run("Loopback allow-listed", func(t *testing.T) {
		a := startServer(t, Config{}, []string{"127.0.0.1"})
		c := dialClient(t, a.GetListenerAddr())

		resp := c.roundTrip(t, "/upload a.txt data")
		assert.Equal(t, "UPLOAD_RESPONSE", resp.Type)
		assert.True(t, resp.IsAdmin)
	})

	t.Run("Not allow-listed", func(t *testing.T) {
		a := startServer(t, Config{}, []string{"10.0.0.0/8"})
		c := dialClient(t, a.GetListenerAddr())

		resp := c.roundTrip(t, "/upload a.txt data")
		assert.Equal(t, "ERROR", resp.Type)
		assert.False(t, resp.IsAdmin)
	})
}

func TestAdapter_RejectsAtCapacity(t *testing.T) {
	a := startServer(t, Config{MaxConnections: 1}, nil)
	addr := a.GetListenerAddr()

	first := dialClient(t, addr)
	assert.Equal(t, "STATS_RESPONSE", first.roundTrip(t, "STATS").Type)

	second := dialClient(t, addr)
	resp := second.read(t)
	require.Equal(t, "ERROR", resp.Type)

	var data testErrorData
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Equal(t, "Server is at maximum capacity. Please try again later.", data.Message)
	assert.Equal(t, "ConnectionLimitReached", data.Code)

	_, err := second.reader.ReadByte()
	assert.Error(t, err)

	// The admitted session is unaffected and the monitor never saw the rejected one
	assert.Equal(t, "STATS_RESPONSE", first.roundTrip(t, "STATS").Type)
	assert.Equal(t, 1, a.Monitor().ActiveConnections())
	assert.Equal(t, uint64(1), a.Monitor().Stats().TotalConnections)
}

func TestAdapter_SlotReleasedOnClose(t *testing.T) {
	a := startServer(t, Config{MaxConnections: 1}, nil)
	addr := a.GetListenerAddr()

	first := dialClient(t, addr)
	assert.Equal(t, "STATS_RESPONSE", first.roundTrip(t, "STATS").Type)
	_, _ = io.WriteString(first.conn, "/quit\n")

	require.Eventually(t, func() bool {
		return a.GetActiveConnections() == 0
	}, 2*time.Second, 10*time.Millisecond)

	second := dialClient(t, addr)
	assert.Equal(t, "STATS_RESPONSE", second.roundTrip(t, "STATS").Type)
}

func TestAdapter_StopDrainsSessions(t *testing.T) {
	store, err := filestore.New(t.TempDir())
	require.NoError(t, err)

	a := New(Config{BindAddress: "127.0.0.1"}, Options{
		Monitor: traffic.NewMonitor(nil),
		Store:   store,
	})

	errCh := make(chan error, 1)
	go func() { errCh <- a.Serve(context.Background()) }()

	c := dialClient(t, a.GetListenerAddr())
	assert.Equal(t, "STATS_RESPONSE", c.roundTrip(t, "STATS").Type)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, a.Stop(ctx))

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return")
	}
	assert.Equal(t, 0, a.Monitor().ActiveConnections())
}

func TestNew_PanicsWithoutCollaborators(t *testing.T) {
	assert.Panics(t, func() { New(Config{}, Options{}) })
	assert.Panics(t, func() {
		New(Config{MaxConnections: -1}, Options{Monitor: traffic.NewMonitor(nil)})
	})
}

func TestConfig_Defaults(t *testing.T) {
	cfg := Config{}
	cfg.applyDefaults()
	require.NoError(t, cfg.validate())

	assert.Equal(t, DefaultMaxConnections, cfg.MaxConnections)
	assert.Equal(t, DefaultPrivilegedTimeout, cfg.idleTimeout(true))
	assert.Equal(t, DefaultRestrictedTimeout, cfg.idleTimeout(false))
	assert.Equal(t, DefaultWriteTimeout, cfg.Timeouts.Write)
}
