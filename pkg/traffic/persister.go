package traffic

import (
	"context"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/marmos91/linefs/internal/logger"
)

// Sink receives persisted snapshots. *journal.Journal satisfies it.
type Sink interface {
	AppendJSON(v any) error
}

// Record is one persisted line: the snapshot plus the time it was taken.
type Record struct {
	Timestamp time.Time `json:"timestamp"`
	Snapshot
}

// PersisterConfig configures a Persister.
type PersisterConfig struct {
	// Interval between persisted snapshots. 0 disables persistence.
	Interval time.Duration

	// SummaryInterval between human-readable log summaries. 0 disables them.
	SummaryInterval time.Duration
}

// Persister periodically appends snapshots of a Monitor to a Sink.
type Persister struct {
	monitor *Monitor
	sink    Sink
	config  PersisterConfig
}

// NewPersister creates a Persister. sink may be nil to only log summaries.
func NewPersister(monitor *Monitor, sink Sink, config PersisterConfig) *Persister {
	return &Persister{monitor: monitor, sink: sink, config: config}
}

// Run blocks until ctx is cancelled. Persistence failures are logged and the
// loop continues. A final snapshot is written on shutdown.
func (p *Persister) Run(ctx context.Context) {
	persistC, stopPersist := tickerChan(p.config.Interval, p.sink != nil)
	defer stopPersist()
	summaryC, stopSummary := tickerChan(p.config.SummaryInterval, true)
	defer stopSummary()

	for {
		select {
		case <-ctx.Done():
			if p.sink != nil {
				p.Persist()
			}
			return
		case <-persistC:
			p.Persist()
		case <-summaryC:
			p.LogSummary()
		}
	}
}

// Persist appends one snapshot to the sink.
func (p *Persister) Persist() {
	if p.sink == nil {
		return
	}
	rec := Record{Timestamp: time.Now().UTC(), Snapshot: p.monitor.Stats()}
	if err := p.sink.AppendJSON(rec); err != nil {
		logger.Error("Failed to persist traffic statistics", logger.KeyError, err)
	}
}

// LogSummary logs a human-readable summary of the current snapshot.
func (p *Persister) LogSummary() {
	s := p.monitor.Stats()
	logger.Info("Traffic summary",
		"uptime", s.Uptime,
		"active_connections", s.ActiveConnections,
		"total_connections", s.TotalConnections,
		"total_messages", s.TotalMessages,
		"received", humanize.IBytes(s.Traffic.Received),
		"sent", humanize.IBytes(s.Traffic.Sent))
}

// tickerChan returns a ticker channel, or a nil channel when disabled.
func tickerChan(d time.Duration, enabled bool) (<-chan time.Time, func()) {
	if d <= 0 || !enabled {
		return nil, func() {}
	}
	t := time.NewTicker(d)
	return t.C, t.Stop
}
