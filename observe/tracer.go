package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// InvokeMeta carries metadata about a tool invocation for telemetry.
type InvokeMeta struct {
	Tool      string // Tool name (required)
	Caller    string // Caller identity (optional)
	Tier      string // Cache tier label (optional)
	RequestID string // Per-invocation request ID (optional)
}

// SpanName returns the deterministic span name for this invocation.
// Format: tool.invoke.<tool>
func (m InvokeMeta) SpanName() string {
	return "tool.invoke." + m.Tool
}

// Tracer wraps OpenTelemetry tracing with invocation-specific span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: StartSpan must honor cancellation/deadlines.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a new span for a tool invocation.
	StartSpan(ctx context.Context, meta InvokeMeta) (context.Context, trace.Span)

	// EndSpan ends the span, recording any error.
	EndSpan(span trace.Span, err error)
}

// tracerImpl is the concrete implementation of Tracer.
type tracerImpl struct {
	tracer trace.Tracer
}

var _ Tracer = (*tracerImpl)(nil)

// NewTracer creates a Tracer wrapping the given OpenTelemetry tracer.
func NewTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

// StartSpan starts a new span with invocation metadata as attributes.
func (t *tracerImpl) StartSpan(ctx context.Context, meta InvokeMeta) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("tool.name", meta.Tool),
		attribute.Bool("tool.error", false), // Updated in EndSpan if error
	}
	if meta.Caller != "" {
		attrs = append(attrs, attribute.String("tool.caller", meta.Caller))
	}
	if meta.Tier != "" {
		attrs = append(attrs, attribute.String("tool.cache_tier", meta.Tier))
	}
	if meta.RequestID != "" {
		attrs = append(attrs, attribute.String("tool.request_id", meta.RequestID))
	}

	ctx, span := t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)

	return ctx, span
}

// EndSpan ends the span and records the error status if present.
func (t *tracerImpl) EndSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Bool("tool.error", true))
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// noopTracer is a tracer that does nothing.
type noopTracer struct {
	noop trace.Tracer
}

// NewNoopTracer creates a no-op tracer.
func NewNoopTracer() Tracer {
	return &noopTracer{
		noop: tracenoop.NewTracerProvider().Tracer("noop"),
	}
}

func (t *noopTracer) StartSpan(ctx context.Context, meta InvokeMeta) (context.Context, trace.Span) {
	return t.noop.Start(ctx, meta.SpanName())
}

func (t *noopTracer) EndSpan(span trace.Span, err error) {
	span.End()
}
