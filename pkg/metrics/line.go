package metrics

import (
	"time"
)

// LineMetrics provides observability for the line protocol adapter.
//
// It is a superset of adapter.MetricsRecorder, so the same value can be set
// on the BaseAdapter for connection lifecycle metrics. Pass nil to disable
// metrics collection with zero overhead.
type LineMetrics interface {
	// RecordCommand records a dispatched command.
	//
	// Parameters:
	//   - verb: Command verb (e.g., "LIST", "READ", "UPLOAD")
	//   - privileged: Whether the session is privileged
	//   - duration: Time taken to execute the command
	//   - errorCode: Error code name if the command failed, empty on success
	RecordCommand(verb string, privileged bool, duration time.Duration, errorCode string)

	// RecordConnectionRejected increments the counter of connections refused
	// because the admission ceiling was reached.
	RecordConnectionRejected()

	// RecordSessionTimeout increments the idle timeout counter.
	RecordSessionTimeout()

	RecordConnectionAccepted()
	RecordConnectionClosed()
	RecordConnectionForceClosed()
	SetActiveConnections(count int32)
}

// NewLineMetrics creates a Prometheus-backed LineMetrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called) or the
// Prometheus implementation has not been linked in.
func NewLineMetrics() LineMetrics {
	if !IsEnabled() || newPrometheusLineMetrics == nil {
		return nil
	}
	return newPrometheusLineMetrics()
}

// newPrometheusLineMetrics is implemented in pkg/metrics/prometheus/line.go.
var newPrometheusLineMetrics func() LineMetrics

// RegisterLineMetricsConstructor registers the Prometheus line metrics constructor.
// Called by pkg/metrics/prometheus during package initialization.
func RegisterLineMetricsConstructor(constructor func() LineMetrics) {
	newPrometheusLineMetrics = constructor
}
