package line

import (
	"fmt"
	"time"

	wire "github.com/marmos91/linefs/internal/protocol/line"
)

// TimeoutsConfig groups the per-session timeouts.
type TimeoutsConfig struct {
	// Privileged is the idle timeout of sessions from allow-listed addresses.
	Privileged time.Duration

	// Restricted is the idle timeout of all other sessions.
	Restricted time.Duration

	// Write bounds a single response write. 0 means no deadline.
	Write time.Duration

	// Shutdown is the maximum duration to wait for sessions to drain.
	Shutdown time.Duration
}

// Config holds configuration parameters for the line protocol server.
//
// Port 0 asks the OS for an ephemeral port. Other default values (applied by
// New if zero):
//   - MaxConnections: 100
//   - MaxLineSize: 16MiB
//   - Timeouts.Privileged: 5m
//   - Timeouts.Restricted: 60s
//   - Timeouts.Write: 10s
//   - Timeouts.Shutdown: 30s
type Config struct {
	BindAddress string
	Port        int

	// MaxConnections is the admission ceiling. Connections beyond it receive
	// a capacity notice and are closed.
	MaxConnections int

	// MaxLineSize bounds one inbound frame, delimiter included.
	MaxLineSize int

	// RestrictedDelay is slept before each restricted command. 0 disables it.
	RestrictedDelay time.Duration

	Timeouts TimeoutsConfig

	// MetricsLogInterval is the interval for logging active connections.
	// 0 disables periodic logging.
	MetricsLogInterval time.Duration
}

const (
	DefaultMaxConnections    = 100
	DefaultPrivilegedTimeout = 5 * time.Minute
	DefaultRestrictedTimeout = 60 * time.Second
	DefaultWriteTimeout      = 10 * time.Second
	DefaultShutdownTimeout   = 30 * time.Second
)

func (c *Config) applyDefaults() {
	if c.MaxConnections == 0 {
		c.MaxConnections = DefaultMaxConnections
	}
	if c.MaxLineSize == 0 {
		c.MaxLineSize = wire.DefaultMaxFrameSize
	}
	if c.Timeouts.Privileged == 0 {
		c.Timeouts.Privileged = DefaultPrivilegedTimeout
	}
	if c.Timeouts.Restricted == 0 {
		c.Timeouts.Restricted = DefaultRestrictedTimeout
	}
	if c.Timeouts.Write == 0 {
		c.Timeouts.Write = DefaultWriteTimeout
	}
	if c.Timeouts.Shutdown == 0 {
		c.Timeouts.Shutdown = DefaultShutdownTimeout
	}
}

// validate checks the configuration after defaults are applied.
func (c *Config) validate() error {
	// Port 0 is valid: OS-assigned, used by tests
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d: must be 0-65535", c.Port)
	}
	if c.MaxConnections < 0 {
		return fmt.Errorf("invalid max_connections %d: must be >= 0", c.MaxConnections)
	}
	if c.MaxLineSize < 0 {
		return fmt.Errorf("invalid max_line_size %d: must be >= 0", c.MaxLineSize)
	}
	if c.RestrictedDelay < 0 {
		return fmt.Errorf("invalid restricted_delay %v: must be >= 0", c.RestrictedDelay)
	}
	if c.Timeouts.Privileged < 0 || c.Timeouts.Restricted < 0 || c.Timeouts.Write < 0 {
		return fmt.Errorf("invalid timeouts: must be >= 0")
	}
	if c.Timeouts.Shutdown <= 0 {
		return fmt.Errorf("invalid timeouts.shutdown %v: must be > 0", c.Timeouts.Shutdown)
	}
	return nil
}

// idleTimeout returns the idle timeout for the given role.
func (c *Config) idleTimeout(privileged bool) time.Duration {
	if privileged {
		return c.Timeouts.Privileged
	}
	return c.Timeouts.Restricted
}
