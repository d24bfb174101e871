package metrics

// TrafficMetrics mirrors the traffic monitor counters into Prometheus.
type TrafficMetrics interface {
	// RecordReceived records one inbound frame of n bytes.
	RecordReceived(n int)

	// RecordSent records one outbound frame of n bytes.
	RecordSent(n int)

	// SetActiveSessions updates the number of sessions known to the monitor.
	SetActiveSessions(count int)
}

// NewTrafficMetrics creates a Prometheus-backed TrafficMetrics instance.
//
// Returns nil if metrics are not enabled.
func NewTrafficMetrics() TrafficMetrics {
	if !IsEnabled() || newPrometheusTrafficMetrics == nil {
		return nil
	}
	return newPrometheusTrafficMetrics()
}

var newPrometheusTrafficMetrics func() TrafficMetrics

// RegisterTrafficMetricsConstructor registers the Prometheus traffic metrics constructor.
func RegisterTrafficMetricsConstructor(constructor func() TrafficMetrics) {
	newPrometheusTrafficMetrics = constructor
}
