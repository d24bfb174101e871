package handlers

import (
	"net/http"

	"github.com/marmos91/linefs/pkg/traffic"
)

// StatsSource provides traffic snapshots. *traffic.Monitor satisfies it.
type StatsSource interface {
	Stats() traffic.Snapshot
}

// StatsHandler serves the traffic monitor over HTTP.
type StatsHandler struct {
	source StatsSource
}

// NewStatsHandler creates a stats handler. source may be nil, in which case
// every request returns 503.
func NewStatsHandler(source StatsSource) *StatsHandler {
	return &StatsHandler{source: source}
}

// Get handles GET /api/v1/stats - the same snapshot STATS returns on the
// line protocol.
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.source == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse("traffic monitor not initialized"))
		return
	}
	writeJSON(w, http.StatusOK, okResponse(h.source.Stats()))
}
