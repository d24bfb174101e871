package prometheus

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/linefs/pkg/metrics"
)

func TestPrometheusMetricsExposed(t *testing.T) {
	metrics.InitRegistry()

	lm := metrics.NewLineMetrics()
	require.NotNil(t, lm)
	tm := metrics.NewTrafficMetrics()
	require.NotNil(t, tm)

	lm.RecordCommand("LIST", false, 2*time.Millisecond, "")
	lm.RecordCommand("DELETE", false, time.Millisecond, "PermissionDenied")
	lm.RecordConnectionAccepted()
	lm.RecordConnectionRejected()
	lm.SetActiveConnections(3)
	tm.RecordReceived(10)
	tm.RecordSent(25)
	tm.SetActiveSessions(1)

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()

	assert.Contains(t, body, `linefs_commands_total{role="restricted",status="PermissionDenied",verb="DELETE"} 1`)
	assert.Contains(t, body, `linefs_connections_rejected_total 1`)
	assert.Contains(t, body, `linefs_active_connections 3`)
	assert.Contains(t, body, `linefs_traffic_bytes_total{direction="sent"} 25`)
}
