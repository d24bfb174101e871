package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/linefs/pkg/metrics"
)

type trafficMetrics struct {
	bytes          *prometheus.CounterVec
	frames         *prometheus.CounterVec
	activeSessions prometheus.Gauge
}

// NewTrafficMetrics creates a new Prometheus-backed TrafficMetrics instance.
//
// Returns nil if metrics are not enabled.
func NewTrafficMetrics() metrics.TrafficMetrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &trafficMetrics{
		bytes: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "linefs_traffic_bytes_total",
				Help: "Total bytes exchanged with clients by direction",
			},
			[]string{"direction"}, // "received", "sent"
		),
		frames: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "linefs_traffic_frames_total",
				Help: "Total frames exchanged with clients by direction",
			},
			[]string{"direction"},
		),
		activeSessions: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "linefs_traffic_active_sessions",
			Help: "Sessions currently tracked by the traffic monitor",
		}),
	}
}

func (m *trafficMetrics) RecordReceived(n int) {
	m.bytes.WithLabelValues("received").Add(float64(n))
	m.frames.WithLabelValues("received").Inc()
}

func (m *trafficMetrics) RecordSent(n int) {
	m.bytes.WithLabelValues("sent").Add(float64(n))
	m.frames.WithLabelValues("sent").Inc()
}

func (m *trafficMetrics) SetActiveSessions(count int) {
	m.activeSessions.Set(float64(count))
}
