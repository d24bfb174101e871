package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/linefs/pkg/traffic"
)

func TestStats_NilSource(t *testing.T) {
	h := NewStatsHandler(nil)

	w := httptest.NewRecorder()
	h.Get(w, httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "error", decode(t, w).Status)
}

func TestStats_Snapshot(t *testing.T) {
	mon := traffic.NewMonitor(nil)
	mon.ConnectionEstablished("s1", "10.0.0.1")
	mon.MessageReceived("s1", 12)
	mon.MessageSent("s1", 30)

	h := NewStatsHandler(mon)

	w := httptest.NewRecorder()
	h.Get(w, httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Status string           `json:"status"`
		Data   traffic.Snapshot `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))

	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 1, resp.Data.ActiveConnections)
	assert.Equal(t, uint64(1), resp.Data.TotalConnections)
	assert.Equal(t, uint64(1), resp.Data.TotalMessages)
	require.Len(t, resp.Data.ActiveClients, 1)
	assert.Equal(t, "10.0.0.1", resp.Data.ActiveClients[0].IP)
}
