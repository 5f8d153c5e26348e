package oteladapters

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/trainmining/delaystats/delaystats"
)

// TracingCollector implements delaystats.TracingCollector with an OpenTelemetry tracer.
type TracingCollector struct {
	tracer trace.Tracer
}

// NewTracingCollector creates a collector that starts spans on tracer.
func NewTracingCollector(tracer trace.Tracer) *TracingCollector {
	return &TracingCollector{tracer: tracer}
}

// StartSpan starts a client span carrying attrs and returns the context that holds it.
func (t *TracingCollector) StartSpan(
	ctx context.Context,
	name string,
	attrs map[string]string,
) (context.Context, delaystats.SpanContext) {
	spanCtx, span := t.tracer.Start(
		ctx,
		name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(toAttributes(attrs)...),
	)

	return spanCtx, &OTelSpanContext{span: span}
}

// FinishSpan sets the final attributes and status and ends the span.
// Span contexts from other implementations are ignored.
func (t *TracingCollector) FinishSpan(spanCtx delaystats.SpanContext, status string, attrs map[string]string) {
	otelSpanCtx, ok := spanCtx.(*OTelSpanContext)
	if !ok {
		return
	}

	otelSpanCtx.span.SetAttributes(toAttributes(attrs)...)
	otelSpanCtx.SetStatus(status)
	otelSpanCtx.span.End()
}

var _ delaystats.TracingCollector = (*TracingCollector)(nil)

// OTelSpanContext wraps an OpenTelemetry span.
type OTelSpanContext struct {
	span trace.Span
}

// SetStatus maps status strings to OpenTelemetry status codes.
// Unknown strings are recorded as a "status" attribute and leave the code unset.
func (s *OTelSpanContext) SetStatus(status string) {
	switch status {
	case "ok", "success":
		s.span.SetStatus(codes.Ok, "")
	case "error", "failed":
		s.span.SetStatus(codes.Error, "query failed")
	case "canceled", "cancelled":
		s.span.SetStatus(codes.Error, "query canceled")
	case "timeout":
		s.span.SetStatus(codes.Error, "query timed out")
	default:
		s.span.SetAttributes(attribute.String("status", status))
	}
}

// AddAttribute adds a string attribute to the span.
func (s *OTelSpanContext) AddAttribute(key, value string) {
	s.span.SetAttributes(attribute.String(key, value))
}

var _ delaystats.SpanContext = (*OTelSpanContext)(nil)
