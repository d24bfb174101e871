package commands

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/linefs/pkg/api"
	"github.com/marmos91/linefs/pkg/traffic"
)

func TestFetchStats(t *testing.T) {
	mon := traffic.NewMonitor(nil)
	mon.ConnectionEstablished("s1", "10.0.0.1")
	mon.MessageReceived("s1", 2048)

	srv := httptest.NewServer(api.NewRouter(api.Options{Stats: mon}))
	defer srv.Close()

	snap, err := fetchStats(srv.Client(), srv.URL+"/")
	require.NoError(t, err)
	assert.Equal(t, 1, snap.ActiveConnections)
	assert.Equal(t, uint64(2048), snap.Traffic.Received)
	require.Len(t, snap.ActiveClients, 1)
	assert.Equal(t, "s1", snap.ActiveClients[0].ID)
}

func TestFetchStats_Unavailable(t *testing.T) {
	srv := httptest.NewServer(api.NewRouter(api.Options{}))
	defer srv.Close()

	_, err := fetchStats(srv.Client(), srv.URL)
	assert.ErrorContains(t, err, "HTTP 503")
}

func TestFetchStats_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := fetchStats(&http.Client{Timeout: time.Second}, url)
	assert.ErrorContains(t, err, "not reachable")
}

func TestPrintStatusTable(t *testing.T) {
	now := time.Now()
	snap := traffic.Snapshot{
		ActiveConnections: 1,
		TotalConnections:  3,
		TotalMessages:     1200,
		Traffic:           traffic.Traffic{Received: 2048, Sent: 1 << 20},
		StartTime:         now.Add(-time.Hour),
		Uptime:            "0d 1h 0m 0s",
		ActiveClients: []traffic.ClientStats{{
			ID: "s1", IP: "10.0.0.1", Messages: 4, ConnectedSince: now, LastActivity: now,
		}},
	}

	var buf bytes.Buffer
	require.NoError(t, printStatusTable(&buf, snap))

	out := buf.String()
	assert.Contains(t, out, "0d 1h 0m 0s")
	assert.Contains(t, out, "1,200")
	assert.Contains(t, out, "2.0 KiB")
	assert.Contains(t, out, "1.0 MiB")
	assert.Contains(t, out, "10.0.0.1")
	assert.Contains(t, out, "SESSION")
}

func TestPrintStatusTable_NoSessions(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printStatusTable(&buf, traffic.Snapshot{Uptime: "0d 0h 0m 1s"}))
	assert.Contains(t, buf.String(), "No active sessions")
}
