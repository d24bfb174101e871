package logger

import (
	"log/slog"
)

// Standard field keys. Use these consistently so logs can be queried.
const (
	KeyTraceID = "trace_id"
	KeySpanID  = "span_id"

	KeyProtocol = "protocol"
	KeyVerb     = "verb"
	KeyStatus   = "status"

	KeyPath     = "path"
	KeyFilename = "filename"
	KeySize     = "size"
	KeyCount    = "count"
	KeyEncoding = "encoding"

	KeyClientIP   = "client_ip"
	KeyAddress    = "address"
	KeyPrivileged = "privileged"

	KeySessionID = "session_id"
	KeyRequestID = "request_id"

	KeyDurationMs = "duration_ms"
	KeyError      = "error"
	KeyErrorCode  = "error_code"
	KeyBytes      = "bytes"
	KeyActive     = "active"
)

func Verb(name string) slog.Attr {
	return slog.String(KeyVerb, name)
}

func Filename(name string) slog.Attr {
	return slog.String(KeyFilename, name)
}

func SessionID(id string) slog.Attr {
	return slog.String(KeySessionID, id)
}

// Err returns an error attribute, or an empty attribute for nil.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}
