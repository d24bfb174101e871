// Package line implements the line protocol server: a newline-delimited JSON
// file-access service whose sessions are privileged or restricted depending on
// the peer address.
package line

import (
	"context"
	"fmt"
	"net"
	"time"

	dispatch "github.com/marmos91/linefs/internal/adapter/line"
	"github.com/marmos91/linefs/internal/logger"
	wire "github.com/marmos91/linefs/internal/protocol/line"
	"github.com/marmos91/linefs/pkg/adapter"
	"github.com/marmos91/linefs/pkg/errors"
	"github.com/marmos91/linefs/pkg/metrics"
	"github.com/marmos91/linefs/pkg/policy"
	"github.com/marmos91/linefs/pkg/traffic"
)

// Options carries the collaborators shared by every session.
type Options struct {
	// Policy classifies peers. nil treats every session as restricted.
	Policy policy.Policy

	// Monitor receives connection and traffic events. Required.
	Monitor *traffic.Monitor

	// Store serves file commands. Required.
	Store dispatch.FileStore

	// Audit records MESSAGE commands. Optional.
	Audit dispatch.AuditLog

	// Metrics records command and connection metrics. Optional.
	Metrics metrics.LineMetrics
}

// Adapter is the line protocol server.
//
// Thread safety:
// All methods are safe for concurrent use. Shutdown is idempotent.
type Adapter struct {
	*adapter.BaseAdapter

	config  Config
	policy  policy.Policy
	monitor *traffic.Monitor
	deps    *dispatch.Deps
}

var _ adapter.Adapter = (*Adapter)(nil)

// New creates a new Adapter in a stopped state. Call Serve to start
// accepting connections.
//
// Panics if config validation fails or a required collaborator is missing.
func New(config Config, opts Options) *Adapter {
	config.applyDefaults()

	if err := config.validate(); err != nil {
		panic(fmt.Sprintf("invalid line config: %v", err))
	}
	if opts.Monitor == nil || opts.Store == nil {
		panic("line adapter requires a monitor and a store")
	}

	pol := opts.Policy
	if pol == nil {
		pol = policy.Func(func(net.Addr) bool { return false })
	}

	baseConfig := adapter.BaseConfig{
		BindAddress:        config.BindAddress,
		Port:               config.Port,
		MaxConnections:     config.MaxConnections,
		ShutdownTimeout:    config.Timeouts.Shutdown,
		MetricsLogInterval: config.MetricsLogInterval,
	}

	base := adapter.NewBaseAdapter(baseConfig, "LINE")
	if opts.Metrics != nil {
		base.Metrics = opts.Metrics
	}

	logger.Debug("LINE session configuration",
		"privileged_timeout", config.Timeouts.Privileged,
		"restricted_timeout", config.Timeouts.Restricted,
		"restricted_delay", config.RestrictedDelay,
		"max_line_size", config.MaxLineSize)

	return &Adapter{
		BaseAdapter: base,
		config:      config,
		policy:      pol,
		monitor:     opts.Monitor,
		deps: &dispatch.Deps{
			Store:   opts.Store,
			Stats:   opts.Monitor,
			Audit:   opts.Audit,
			Metrics: opts.Metrics,
		},
	}
}

// Serve starts the listener and blocks until ctx is cancelled or Stop is
// called. Returns nil on graceful shutdown.
func (s *Adapter) Serve(ctx context.Context) error {
	return s.ServeWithFactory(ctx, s, nil, nil)
}

// NewConnection implements adapter.ConnectionFactory.
func (s *Adapter) NewConnection(conn net.Conn) adapter.ConnectionHandler {
	return NewConnection(s, conn)
}

// RejectConnection implements adapter.ConnectionRejecter: it sends the
// capacity notice. The caller closes conn.
func (s *Adapter) RejectConnection(conn net.Conn) {
	resp := wire.NewErrorResponse(errors.NewConnectionLimitError(), s.policy.IsPrivileged(conn.RemoteAddr()))
	frame, err := wire.Encode(resp)
	if err != nil {
		return
	}

	if s.config.Timeouts.Write > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(s.config.Timeouts.Write))
	}
	if _, err := conn.Write(frame); err != nil {
		logger.Debug("Failed to send capacity notice", "address", conn.RemoteAddr(), "error", err)
	}
}

// Monitor returns the traffic monitor the adapter reports to.
func (s *Adapter) Monitor() *traffic.Monitor {
	return s.monitor
}
