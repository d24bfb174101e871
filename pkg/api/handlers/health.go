package handlers

import (
	"net/http"
	"time"
)

// ReadinessCheck is one named readiness condition. Check returns nil when
// the component is ready.
type ReadinessCheck struct {
	Name  string
	Check func() error
}

// CheckResult is the outcome of one readiness check.
type CheckResult struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
	Latency string `json:"latency"`
}

// HealthHandler handles health check endpoints.
//
// Health endpoints are unauthenticated and provide:
//   - Liveness probe: Is the server process running?
//   - Readiness probe: Are the file store and the listener usable?
type HealthHandler struct {
	checks []ReadinessCheck
}

// NewHealthHandler creates a new health handler. With no checks the server
// is never ready.
func NewHealthHandler(checks ...ReadinessCheck) *HealthHandler {
	return &HealthHandler{checks: checks}
}

// Liveness handles GET /health - simple liveness probe.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthyResponse(map[string]string{
		"service": "linefs",
	}))
}

// Readiness handles GET /health/ready - readiness probe.
//
// Returns 200 OK when every check passes, 503 Service Unavailable otherwise.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if len(h.checks) == 0 {
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponse("no readiness checks registered"))
		return
	}

	results := make([]CheckResult, 0, len(h.checks))
	allHealthy := true

	for _, c := range h.checks {
		start := time.Now()
		err := c.Check()

		result := CheckResult{Name: c.Name, Status: "healthy", Latency: time.Since(start).String()}
		if err != nil {
			result.Status = "unhealthy"
			result.Error = err.Error()
			allHealthy = false
		}
		results = append(results, result)
	}

	if allHealthy {
		writeJSON(w, http.StatusOK, healthyResponse(results))
	} else {
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponseWithData(results))
	}
}
