// Package prometheus provides the Prometheus implementations of the
// interfaces declared in pkg/metrics. Importing it for side effects links the
// implementations into the metrics constructors.
package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/linefs/pkg/metrics"
)

func init() {
	metrics.RegisterLineMetricsConstructor(NewLineMetrics)
	metrics.RegisterTrafficMetricsConstructor(NewTrafficMetrics)
}

// lineMetrics is the Prometheus implementation of metrics.LineMetrics.
type lineMetrics struct {
	commandsTotal          *prometheus.CounterVec
	commandDuration        *prometheus.HistogramVec
	connectionsAccepted    prometheus.Counter
	connectionsClosed      prometheus.Counter
	connectionsForceClosed prometheus.Counter
	connectionsRejected    prometheus.Counter
	sessionTimeouts        prometheus.Counter
	activeConnections      prometheus.Gauge
}

// NewLineMetrics creates a new Prometheus-backed LineMetrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewLineMetrics() metrics.LineMetrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &lineMetrics{
		commandsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "linefs_commands_total",
				Help: "Total number of line protocol commands by verb, role and status",
			},
			[]string{"verb", "role", "status"},
		),
		commandDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "linefs_command_duration_milliseconds",
				Help: "Duration of line protocol commands in milliseconds",
				Buckets: []float64{
					0.1, // 100us - echo, stats
					0.5,
					1,
					5,
					10,
					50,
					100,
					500,  // large reads
					1000, // recursive searches
					5000,
				},
			},
			[]string{"verb"},
		),
		connectionsAccepted: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "linefs_connections_accepted_total",
			Help: "Total number of accepted connections",
		}),
		connectionsClosed: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "linefs_connections_closed_total",
			Help: "Total number of closed connections",
		}),
		connectionsForceClosed: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "linefs_connections_force_closed_total",
			Help: "Total number of connections force-closed during shutdown",
		}),
		connectionsRejected: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "linefs_connections_rejected_total",
			Help: "Total number of connections rejected at the admission ceiling",
		}),
		sessionTimeouts: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "linefs_session_timeouts_total",
			Help: "Total number of sessions closed by the idle deadline",
		}),
		activeConnections: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "linefs_active_connections",
			Help: "Current number of active connections",
		}),
	}
}

func (m *lineMetrics) RecordCommand(verb string, privileged bool, duration time.Duration, errorCode string) {
	status := "ok"
	if errorCode != "" {
		status = errorCode
	}
	m.commandsTotal.WithLabelValues(verb, role(privileged), status).Inc()
	m.commandDuration.WithLabelValues(verb).Observe(float64(duration.Microseconds()) / 1000.0)
}

func (m *lineMetrics) RecordConnectionRejected() {
	m.connectionsRejected.Inc()
}

func (m *lineMetrics) RecordSessionTimeout() {
	m.sessionTimeouts.Inc()
}

func (m *lineMetrics) RecordConnectionAccepted() {
	m.connectionsAccepted.Inc()
}

func (m *lineMetrics) RecordConnectionClosed() {
	m.connectionsClosed.Inc()
}

func (m *lineMetrics) RecordConnectionForceClosed() {
	m.connectionsForceClosed.Inc()
}

func (m *lineMetrics) SetActiveConnections(count int32) {
	m.activeConnections.Set(float64(count))
}

func role(privileged bool) string {
	if privileged {
		return "privileged"
	}
	return "restricted"
}
