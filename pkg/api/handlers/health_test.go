package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, w *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}

func TestLiveness(t *testing.T) {
	h := NewHealthHandler()

	w := httptest.NewRecorder()
	h.Liveness(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	resp := decode(t, w)
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, map[string]any{"service": "linefs"}, resp.Data)
}

func TestReadiness(t *testing.T) {
	ok := ReadinessCheck{Name: "store", Check: func() error { return nil }}
	failing := ReadinessCheck{Name: "listener", Check: func() error { return errors.New("not listening") }}

	tests := []struct {
		name       string
		checks     []ReadinessCheck
		wantStatus int
		wantBody   string
	}{
		{"NoChecks", nil, http.StatusServiceUnavailable, "unhealthy"},
		{"AllHealthy", []ReadinessCheck{ok}, http.StatusOK, "healthy"},
		{"OneFailing", []ReadinessCheck{ok, failing}, http.StatusServiceUnavailable, "unhealthy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(tt.checks...)

			w := httptest.NewRecorder()
			h.Readiness(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantBody, decode(t, w).Status)
		})
	}
}

func TestReadiness_ReportsFailingCheck(t *testing.T) {
	h := NewHealthHandler(ReadinessCheck{Name: "store", Check: func() error {
		return errors.New("base path missing")
	}})

	w := httptest.NewRecorder()
	h.Readiness(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	var resp struct {
		Data []CheckResult `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "store", resp.Data[0].Name)
	assert.Equal(t, "unhealthy", resp.Data[0].Status)
	assert.Equal(t, "base path missing", resp.Data[0].Error)
}
