// Package line routes parsed line protocol commands to the file store, the
// traffic monitor and the audit log, enforcing the session privilege first.
package line

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/marmos91/linefs/internal/logger"
	wire "github.com/marmos91/linefs/internal/protocol/line"
	"github.com/marmos91/linefs/internal/telemetry"
	"github.com/marmos91/linefs/pkg/errors"
	"github.com/marmos91/linefs/pkg/filestore"
	"github.com/marmos91/linefs/pkg/metrics"
	"github.com/marmos91/linefs/pkg/traffic"
)

// FileStore is the subset of *filestore.Store used by the handlers.
type FileStore interface {
	ListDirectory(ctx context.Context, dir string) ([]filestore.FileEntry, error)
	ReadFile(ctx context.Context, name string) (*filestore.File, error)
	WriteFile(ctx context.Context, name string, content []byte) (*filestore.FileEntry, error)
	DeleteFile(ctx context.Context, name string) error
	SearchFiles(ctx context.Context, keyword string) ([]filestore.FileEntry, error)
	GetFileInfo(ctx context.Context, name string) (*filestore.FileEntry, error)
}

// StatsSource provides traffic snapshots.
type StatsSource interface {
	Stats() traffic.Snapshot
}

// AuditLog records free-text messages. *journal.Journal satisfies it.
type AuditLog interface {
	AppendMessage(id, text string) error
}

// Deps holds the collaborators shared by every session.
type Deps struct {
	Store   FileStore
	Stats   StatsSource
	Audit   AuditLog            // optional
	Metrics metrics.LineMetrics // optional
}

// Caller identifies the session issuing a command.
type Caller struct {
	// ID is the session id (remote "ip:port").
	ID         string
	ClientIP   string
	Privileged bool
}

// Result is the outcome of one dispatched command.
type Result struct {
	// Response is nil when nothing must be sent (quit).
	Response *wire.Response

	// Close requests the session to end after Response is written.
	Close bool

	// Err is the command failure reported in Response, for observability.
	Err error
}

// ============================================================================
// Dispatch
// ============================================================================

// Authorize applies the privilege gate. Restricted sessions may not run
// write-class or unrecognized commands.
func Authorize(cmd wire.Command, privileged bool) error {
	if privileged {
		return nil
	}
	proc, ok := DispatchTable[cmd.Verb]
	if !ok || cmd.Verb == wire.VerbUnknown || proc.RequiresPrivilege {
		return errors.NewPermissionDeniedError()
	}
	return nil
}

// Dispatch authorizes and executes cmd. Command failures become an ERROR
// response; Dispatch itself never fails.
func Dispatch(ctx context.Context, cmd wire.Command, caller Caller, deps *Deps) Result {
	start := time.Now()
	verb := cmd.Verb.String()

	ctx, span := telemetry.StartCommandSpan(ctx, verb, caller.ID, caller.Privileged)
	defer span.End()

	lc := logger.FromContext(ctx)
	if lc == nil {
		lc = logger.NewLogContext(caller.ID, caller.ClientIP, caller.Privileged)
	}
	lc = lc.ForCommand(verb, uuid.NewString()).WithTrace(telemetry.TraceID(ctx), telemetry.SpanID(ctx))
	ctx = logger.WithContext(ctx, lc)

	data, err := execute(ctx, cmd, caller, deps)

	status := "ok"
	if err != nil {
		status = errors.CodeOf(err).String()
		telemetry.RecordError(ctx, err)
	}
	span.SetAttributes(telemetry.LineStatus(status))

	if deps.Metrics != nil {
		code := ""
		if err != nil {
			code = status
		}
		deps.Metrics.RecordCommand(verb, caller.Privileged, time.Since(start), code)
	}

	switch {
	case err == nil:
		logger.DebugCtx(ctx, "Command completed", logger.KeyDurationMs, logger.Duration(start))
	case errors.CodeOf(err) == errors.ErrIOError:
		logger.WarnCtx(ctx, "Command failed", logger.KeyErrorCode, status, logger.KeyError, err)
	case errors.IsCode(err, errors.ErrPermissionDenied):
		logger.InfoCtx(ctx, "Command denied for restricted session")
	default:
		logger.DebugCtx(ctx, "Command rejected", logger.KeyErrorCode, status, "reason", errors.MessageOf(err))
	}

	if err != nil {
		resp := wire.NewErrorResponse(err, caller.Privileged)
		return Result{Response: &resp, Err: err}
	}
	if cmd.Verb == wire.VerbQuit {
		return Result{Close: true}
	}

	resp := wire.NewResponse(cmd.Verb.ResponseType(), data, caller.Privileged)
	return Result{Response: &resp}
}

func execute(ctx context.Context, cmd wire.Command, caller Caller, deps *Deps) (any, error) {
	if err := Authorize(cmd, caller.Privileged); err != nil {
		return nil, err
	}
	if cmd.Err != nil {
		return nil, cmd.Err
	}

	proc, ok := DispatchTable[cmd.Verb]
	if !ok {
		return nil, errors.NewUnknownCommandError()
	}
	return proc.Handler(ctx, cmd, caller, deps)
}
