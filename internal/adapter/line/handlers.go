package line

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/marmos91/linefs/internal/logger"
	wire "github.com/marmos91/linefs/internal/protocol/line"
	"github.com/marmos91/linefs/internal/telemetry"
	"github.com/marmos91/linefs/pkg/errors"
	"github.com/marmos91/linefs/pkg/filestore"
	"go.opentelemetry.io/otel/trace"
)

// Content encodings reported in ReadPayload.
const (
	ContentUTF8   = "utf8"
	ContentBase64 = "base64"
)

// ReadPayload is the data of READ_RESPONSE and DOWNLOAD_RESPONSE.
type ReadPayload struct {
	Content  string              `json:"content"`
	Encoding string              `json:"encoding"`
	Stats    filestore.FileEntry `json:"stats"`
}

// UploadPayload is the data of UPLOAD_RESPONSE.
type UploadPayload struct {
	Success  bool                `json:"success"`
	Message  string              `json:"message"`
	Filename string              `json:"filename"`
	Stats    filestore.FileEntry `json:"stats"`
}

// DeletePayload is the data of DELETE_RESPONSE.
type DeletePayload struct {
	Success  bool   `json:"success"`
	Filename string `json:"filename"`
}

// MessagePayload is the data of MESSAGE_RESPONSE.
type MessagePayload struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
	Client    string    `json:"client"`
}

func handleList(ctx context.Context, cmd wire.Command, _ Caller, deps *Deps) (any, error) {
	entries, err := deps.Store.ListDirectory(ctx, cmd.Name)
	if err != nil {
		return nil, err
	}
	trace.SpanFromContext(ctx).SetAttributes(telemetry.Count(len(entries)))
	return entries, nil
}

func handleRead(ctx context.Context, cmd wire.Command, _ Caller, deps *Deps) (any, error) {
	file, err := deps.Store.ReadFile(ctx, cmd.Name)
	if err != nil {
		return nil, err
	}
	trace.SpanFromContext(ctx).SetAttributes(telemetry.Filename(cmd.Name), telemetry.Size(file.Entry.Size))

	payload := ReadPayload{Stats: file.Entry}
	if utf8.Valid(file.Content) {
		payload.Content, payload.Encoding = string(file.Content), ContentUTF8
	} else {
		payload.Content, payload.Encoding = base64.StdEncoding.EncodeToString(file.Content), ContentBase64
	}
	return payload, nil
}

func handleWrite(ctx context.Context, cmd wire.Command, _ Caller, deps *Deps) (any, error) {
	entry, err := deps.Store.WriteFile(ctx, cmd.Name, cmd.Content)
	if err != nil {
		return nil, err
	}
	trace.SpanFromContext(ctx).SetAttributes(
		telemetry.Filename(cmd.Name),
		telemetry.Size(entry.Size),
		telemetry.LineEncoding(cmd.Encoding.String()))

	logger.InfoCtx(ctx, "File uploaded",
		logger.KeyFilename, cmd.Name,
		logger.KeySize, entry.Size,
		logger.KeyEncoding, cmd.Encoding.String())

	return UploadPayload{
		Success:  true,
		Message:  fmt.Sprintf("File '%s' uploaded successfully.", cmd.Name),
		Filename: cmd.Name,
		Stats:    *entry,
	}, nil
}

func handleDelete(ctx context.Context, cmd wire.Command, _ Caller, deps *Deps) (any, error) {
	if err := deps.Store.DeleteFile(ctx, cmd.Name); err != nil {
		return nil, err
	}
	trace.SpanFromContext(ctx).SetAttributes(telemetry.Filename(cmd.Name))
	logger.InfoCtx(ctx, "File deleted", logger.KeyFilename, cmd.Name)
	return DeletePayload{Success: true, Filename: cmd.Name}, nil
}

func handleSearch(ctx context.Context, cmd wire.Command, _ Caller, deps *Deps) (any, error) {
	results, err := deps.Store.SearchFiles(ctx, cmd.Name)
	if err != nil {
		return nil, err
	}
	trace.SpanFromContext(ctx).SetAttributes(telemetry.Count(len(results)))
	return results, nil
}

func handleInfo(ctx context.Context, cmd wire.Command, _ Caller, deps *Deps) (any, error) {
	entry, err := deps.Store.GetFileInfo(ctx, cmd.Name)
	if err != nil {
		return nil, err
	}
	return *entry, nil
}

func handleStats(_ context.Context, _ wire.Command, _ Caller, deps *Deps) (any, error) {
	return deps.Stats.Stats(), nil
}

// handleMessage echoes free text and appends it to the audit log. Audit
// failures are logged and never reach the peer.
func handleMessage(ctx context.Context, cmd wire.Command, caller Caller, deps *Deps) (any, error) {
	if deps.Audit != nil {
		if err := deps.Audit.AppendMessage(caller.ID, cmd.Raw); err != nil {
			logger.WarnCtx(ctx, "Failed to append message to audit log", logger.KeyError, err)
		}
	}

	return MessagePayload{
		Timestamp: time.Now().UTC(),
		Message:   "Echo: " + cmd.Raw,
		Client:    caller.ID,
	}, nil
}

func handleQuit(ctx context.Context, _ wire.Command, _ Caller, _ *Deps) (any, error) {
	logger.DebugCtx(ctx, "Client requested quit")
	return nil, nil
}

func handleUnknown(_ context.Context, _ wire.Command, _ Caller, _ *Deps) (any, error) {
	return nil, errors.NewUnknownCommandError()
}
