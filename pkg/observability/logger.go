package observability

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"go.opentelemetry.io/otel/trace"
)

const (
	attrTraceID = "trace_id"
	attrSpanID  = "span_id"
	attrService = "service"
	attrVersion = "version"
	attrEnv     = "env"
)

// TracingHandler is an [slog.Handler] that adds trace_id and span_id from
// the record's context. Groups and attributes added through WithGroup and
// WithAttrs are applied at Handle time, so the service and trace
// attributes always stay at the top level.
type TracingHandler struct {
	inner slog.Handler
	scope []scopeEntry
}

// scopeEntry is either a group name or attributes bound inside the
// groups before it.
type scopeEntry struct {
	group string
	attrs []slog.Attr
}

// NewTracingHandler wraps inner. Empty version and env are omitted.
func NewTracingHandler(inner slog.Handler, service, version, env string) *TracingHandler {
	attrs := []slog.Attr{slog.String(attrService, service)}

	if version != "" {
		attrs = append(attrs, slog.String(attrVersion, version))
	}

	if env != "" {
		attrs = append(attrs, slog.String(attrEnv, env))
	}

	return &TracingHandler{inner: inner.WithAttrs(attrs)}
}

// Enabled delegates to the inner handler.
func (th *TracingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return th.inner.Enabled(ctx, level)
}

// Handle nests the record under the bound groups, adds the span context
// at the top level, then delegates.
func (th *TracingHandler) Handle(ctx context.Context, record slog.Record) error {
	var out slog.Record

	if len(th.scope) == 0 {
		out = record.Clone()
	} else {
		out = slog.NewRecord(record.Time, record.Level, record.Message, record.PC)
		out.AddAttrs(th.nest(record)...)
	}

	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		out.AddAttrs(
			slog.String(attrTraceID, sc.TraceID().String()),
			slog.String(attrSpanID, sc.SpanID().String()),
		)
	}

	if err := th.inner.Handle(ctx, out); err != nil {
		return fmt.Errorf("tracing handler: %w", err)
	}

	return nil
}

func (th *TracingHandler) nest(record slog.Record) []slog.Attr {
	attrs := make([]slog.Attr, 0, record.NumAttrs())
	record.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, a)

		return true
	})

	for i := len(th.scope) - 1; i >= 0; i-- {
		entry := th.scope[i]

		if entry.group == "" {
			attrs = append(slices.Clone(entry.attrs), attrs...)

			continue
		}

		if len(attrs) > 0 {
			attrs = []slog.Attr{{Key: entry.group, Value: slog.GroupValue(attrs...)}}
		}
	}

	return attrs
}

// WithAttrs implements slog.Handler.
func (th *TracingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return th
	}

	return th.with(scopeEntry{attrs: slices.Clone(attrs)})
}

// WithGroup implements slog.Handler.
func (th *TracingHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return th
	}

	return th.with(scopeEntry{group: name})
}

func (th *TracingHandler) with(entry scopeEntry) *TracingHandler {
	scope := make([]scopeEntry, 0, len(th.scope)+1)
	scope = append(scope, th.scope...)

	return &TracingHandler{inner: th.inner, scope: append(scope, entry)}
}
