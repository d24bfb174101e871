// Package adapter provides the protocol adapter abstraction and the shared
// TCP lifecycle (accept loop, admission ceiling, graceful shutdown) that
// concrete adapters embed.
package adapter

import (
	"context"
)

// Adapter is a protocol server managed by the start command.
//
// Lifecycle:
//  1. Creation with protocol-specific configuration and collaborators
//  2. Serve() starts the listener and blocks until shutdown
//  3. Stop() initiates graceful shutdown, bounded by its context
//
// Implementations must be safe for concurrent use; Stop may be called
// concurrently with Serve and more than once.
type Adapter interface {
	// Serve blocks until ctx is cancelled or the listener fails. Returns nil
	// on graceful shutdown.
	Serve(ctx context.Context) error

	// Stop initiates graceful shutdown and waits for sessions to drain.
	Stop(ctx context.Context) error

	// Protocol returns the protocol name for logs and metrics.
	Protocol() string

	// Port returns the configured TCP port.
	Port() int
}
