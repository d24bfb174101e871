package line

import (
	"context"
	stderrors "errors"
	"io"
	"net"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	dispatch "github.com/marmos91/linefs/internal/adapter/line"
	"github.com/marmos91/linefs/internal/logger"
	wire "github.com/marmos91/linefs/internal/protocol/line"
	"github.com/marmos91/linefs/pkg/errors"
	"github.com/marmos91/linefs/pkg/policy"
)

// State is the lifecycle state of a session.
type State int32

const (
	StateActive State = iota
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Connection is one client session.
//
// Its privilege is fixed at creation from the peer address. Commands are
// processed strictly in arrival order and responses are written in the same
// order.
type Connection struct {
	server *Adapter
	conn   net.Conn

	id         string
	clientIP   string
	privileged bool

	state     atomic.Int32
	closeOnce sync.Once
	writeMu   sync.Mutex
}

// NewConnection creates a session for conn.
func NewConnection(server *Adapter, conn net.Conn) *Connection {
	addr := conn.RemoteAddr()

	clientIP := ""
	if ip, ok := policy.AddrIP(addr); ok {
		clientIP = ip.String()
	}

	return &Connection{
		server:     server,
		conn:       conn,
		id:         addr.String(),
		clientIP:   clientIP,
		privileged: server.policy.IsPrivileged(addr),
	}
}

// ID returns the session id ("ip:port" of the peer).
func (c *Connection) ID() string { return c.id }

// Privileged reports whether the session may run write-class commands.
func (c *Connection) Privileged() bool { return c.privileged }

// State returns the current lifecycle state.
func (c *Connection) State() State { return State(c.state.Load()) }

// Serve processes frames until the peer disconnects, the session idles out,
// QUIT is received, or the server shuts down.
func (c *Connection) Serve(ctx context.Context) {
	defer c.handleConnectionClose()

	c.server.monitor.ConnectionEstablished(c.id, c.clientIP)

	ctx = logger.WithContext(ctx, logger.NewLogContext(c.id, c.clientIP, c.privileged))
	logger.InfoCtx(ctx, "Client connected", "active", c.server.monitor.ActiveConnections())

	caller := dispatch.Caller{ID: c.id, ClientIP: c.clientIP, Privileged: c.privileged}
	reader := wire.NewReader(&idleReader{ctx: ctx, c: c}, c.server.config.MaxLineSize)

	for {
		select {
		case <-ctx.Done():
			logger.DebugCtx(ctx, "LINE session closed due to context cancellation")
			return
		case <-c.server.Shutdown:
			logger.DebugCtx(ctx, "LINE session closed due to server shutdown")
			return
		default:
		}

		c.resetIdleDeadline(ctx)

		raw, n, err := reader.ReadFrame()
		if err != nil {
			c.handleReadError(ctx, err)
			return
		}

		c.server.monitor.MessageReceived(c.id, n)

		if raw == "" {
			continue
		}

		if !c.privileged && c.server.config.RestrictedDelay > 0 {
			if !c.sleep(ctx, c.server.config.RestrictedDelay) {
				return
			}
		}

		result := dispatch.Dispatch(ctx, wire.Parse(raw), caller, c.server.deps)
		if result.Response != nil {
			if err := c.send(*result.Response); err != nil {
				logger.DebugCtx(ctx, "Failed to write response", logger.KeyError, err)
				return
			}
		}
		if result.Close {
			logger.DebugCtx(ctx, "LINE session closed by client request")
			return
		}
	}
}

func (c *Connection) handleReadError(ctx context.Context, err error) {
	var netErr net.Error

	switch {
	case err == io.EOF:
		logger.DebugCtx(ctx, "LINE session closed by client")

	case stderrors.Is(err, wire.ErrFrameTooLarge):
		logger.WarnCtx(ctx, "LINE frame exceeds limit", "max_line_size", c.server.config.MaxLineSize)
		c.sendError(ctx, err)

	case stderrors.As(err, &netErr) && netErr.Timeout():
		// Shutdown interrupts reads with a short deadline
		select {
		case <-c.server.Shutdown:
			return
		default:
		}
		logger.InfoCtx(ctx, "LINE session idle timeout", "timeout", c.server.config.idleTimeout(c.privileged))
		if m := c.server.deps.Metrics; m != nil {
			m.RecordSessionTimeout()
		}
		c.sendError(ctx, errors.NewTimeoutError())

	default:
		logger.DebugCtx(ctx, "Error reading LINE frame", logger.KeyError, err)
	}
}

func (c *Connection) sendError(ctx context.Context, err error) {
	if sendErr := c.send(wire.NewErrorResponse(err, c.privileged)); sendErr != nil {
		logger.DebugCtx(ctx, "Failed to send error notice", logger.KeyError, sendErr)
	}
}

// send writes one response frame and accounts for it.
func (c *Connection) send(resp wire.Response) error {
	frame, err := wire.Encode(resp)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.State() != StateActive {
		return net.ErrClosed
	}
	if t := c.server.config.Timeouts.Write; t > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(t)); err != nil {
			return err
		}
	}
	if _, err := c.conn.Write(frame); err != nil {
		return err
	}

	c.server.monitor.MessageSent(c.id, len(frame))
	return nil
}

// resetIdleDeadline re-arms the idle timer. A shutdown that lands while the
// deadline is being set must not be masked by the longer idle timeout.
func (c *Connection) resetIdleDeadline(ctx context.Context) {
	timeout := c.server.config.idleTimeout(c.privileged)
	if timeout <= 0 {
		return
	}
	if err := c.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		logger.DebugCtx(ctx, "Failed to set read deadline", logger.KeyError, err)
		return
	}

	select {
	case <-c.server.Shutdown:
		_ = c.conn.SetReadDeadline(time.Now())
	default:
	}
}

// idleReader re-arms the idle timer whenever bytes arrive, so a line typed
// slowly is not cut off while it is still being received.
type idleReader struct {
	ctx context.Context
	c   *Connection
}

func (r *idleReader) Read(p []byte) (int, error) {
	n, err := r.c.conn.Read(p)
	if n > 0 {
		r.c.resetIdleDeadline(r.ctx)
	}
	return n, err
}

// sleep waits for d or until the session must stop. Returns false when the
// session must stop.
func (c *Connection) sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	case <-c.server.Shutdown:
		return false
	}
}

// Close ends the session. The monitor is notified exactly once no matter how
// many times or from where Close is called.
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.writeMu.Lock()
		c.state.Store(int32(StateClosing))
		c.writeMu.Unlock()

		err = c.conn.Close()
		c.server.monitor.ConnectionClosed(c.id)
		c.state.Store(int32(StateClosed))
	})
	return err
}

// handleConnectionClose handles cleanup and panic recovery for the session.
func (c *Connection) handleConnectionClose() {
	if r := recover(); r != nil {
		logger.Error("Panic in LINE connection handler",
			"address", c.id,
			"error", r,
			"stack", string(debug.Stack()))
	}

	_ = c.Close()
	logger.Info("Client disconnected", logger.KeySessionID, c.id, "active", c.server.monitor.ActiveConnections())
}
