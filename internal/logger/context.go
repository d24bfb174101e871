package logger

import (
	"context"
	"time"
)

type contextKey struct{}

var logContextKey = contextKey{}

// LogContext holds session- and request-scoped logging fields.
type LogContext struct {
	TraceID    string
	SpanID     string
	RequestID  string // per-command correlation id
	SessionID  string // remote address of the session (ip:port)
	ClientIP   string // without port
	Verb       string // LIST, READ, UPLOAD, ...
	Privileged bool
	StartTime  time.Time
}

// WithContext returns a context carrying lc.
func WithContext(ctx context.Context, lc *LogContext) context.Context {
	return context.WithValue(ctx, logContextKey, lc)
}

// FromContext returns the LogContext of ctx, or nil.
func FromContext(ctx context.Context) *LogContext {
	if ctx == nil {
		return nil
	}
	lc, _ := ctx.Value(logContextKey).(*LogContext)
	return lc
}

// NewLogContext creates a session LogContext.
func NewLogContext(sessionID, clientIP string, privileged bool) *LogContext {
	return &LogContext{
		SessionID:  sessionID,
		ClientIP:   clientIP,
		Privileged: privileged,
		StartTime:  time.Now(),
	}
}

// Clone returns a copy of lc.
func (lc *LogContext) Clone() *LogContext {
	if lc == nil {
		return nil
	}
	c := *lc
	return &c
}

// ForCommand returns a copy scoped to one command.
func (lc *LogContext) ForCommand(verb, requestID string) *LogContext {
	c := lc.Clone()
	if c != nil {
		c.Verb = verb
		c.RequestID = requestID
		c.StartTime = time.Now()
	}
	return c
}

// WithTrace returns a copy with trace info set.
func (lc *LogContext) WithTrace(traceID, spanID string) *LogContext {
	c := lc.Clone()
	if c != nil {
		c.TraceID = traceID
		c.SpanID = spanID
	}
	return c
}

// DurationMs returns the time since StartTime in milliseconds.
func (lc *LogContext) DurationMs() float64 {
	if lc == nil || lc.StartTime.IsZero() {
		return 0
	}
	return float64(time.Since(lc.StartTime).Microseconds()) / 1000.0
}
