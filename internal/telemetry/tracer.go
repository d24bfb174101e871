package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys for line protocol spans.
const (
	AttrClientAddr = "client.address"
	AttrClientIP   = "client.ip"

	AttrLineVerb       = "line.verb"
	AttrLinePrivileged = "line.privileged"
	AttrLineStatus     = "line.status"
	AttrLineEncoding   = "line.encoding"

	AttrFilename = "fs.filename"
	AttrSize     = "fs.size"
	AttrCount    = "fs.count"
)

// SpanCommand is the name of the span wrapping one dispatched command.
const SpanCommand = "line.command"

func ClientAddr(addr string) attribute.KeyValue {
	return attribute.String(AttrClientAddr, addr)
}

func ClientIP(ip string) attribute.KeyValue {
	return attribute.String(AttrClientIP, ip)
}

func LineVerb(verb string) attribute.KeyValue {
	return attribute.String(AttrLineVerb, verb)
}

func LinePrivileged(privileged bool) attribute.KeyValue {
	return attribute.Bool(AttrLinePrivileged, privileged)
}

// LineStatus is "ok" or the error code name.
func LineStatus(status string) attribute.KeyValue {
	return attribute.String(AttrLineStatus, status)
}

func LineEncoding(encoding string) attribute.KeyValue {
	return attribute.String(AttrLineEncoding, encoding)
}

func Filename(name string) attribute.KeyValue {
	return attribute.String(AttrFilename, name)
}

func Size(size int64) attribute.KeyValue {
	return attribute.Int64(AttrSize, size)
}

// Count is the number of entries returned by list and search.
func Count(n int) attribute.KeyValue {
	return attribute.Int(AttrCount, n)
}

// StartCommandSpan starts the span for one line command.
func StartCommandSpan(ctx context.Context, verb, clientAddr string, privileged bool, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	all := make([]attribute.KeyValue, 0, len(attrs)+3)
	all = append(all, LineVerb(verb), ClientAddr(clientAddr), LinePrivileged(privileged))
	all = append(all, attrs...)
	return StartSpan(ctx, SpanCommand, trace.WithAttributes(all...), trace.WithSpanKind(trace.SpanKindServer))
}
