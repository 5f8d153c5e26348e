package oteladapters_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/trainmining/delaystats/delaystats/oteladapters"
)

func newTestTracing() (*oteladapters.TracingCollector, *tracetest.InMemoryExporter) {
	exporter := tracetest.NewInMemoryExporter()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	return oteladapters.NewTracingCollector(provider.Tracer("delaystats-test")), exporter
}

func spanAttribute(span tracetest.SpanStub, key string) (string, bool) {
	for _, attr := range span.Attributes {
		if attr.Key == attribute.Key(key) {
			return attr.Value.AsString(), true
		}
	}

	return "", false
}

func Test_TracingCollector_StartAndFinishSpan(t *testing.T) {
	// arrange
	collector, exporter := newTestTracing()

	// act
	ctx, spanCtx := collector.StartSpan(context.Background(), "delaystats.query", map[string]string{
		"template": "station_delays_prime",
		"filter":   "prime",
	})
	spanCtx.AddAttribute("pool_capacity", "8")
	collector.FinishSpan(spanCtx, "success", map[string]string{"row_count": "12"})

	// assert
	assert.True(t, trace.SpanContextFromContext(ctx).IsValid())

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)

	span := spans[0]
	assert.Equal(t, "delaystats.query", span.Name)
	assert.Equal(t, trace.SpanKindClient, span.SpanKind)
	assert.Equal(t, codes.Ok, span.Status.Code)

	for key, expected := range map[string]string{
		"template":      "station_delays_prime",
		"filter":        "prime",
		"pool_capacity": "8",
		"row_count":     "12",
	} {
		value, found := spanAttribute(span, key)
		assert.True(t, found, key)
		assert.Equal(t, expected, value, key)
	}
}

func Test_TracingCollector_StatusMapping(t *testing.T) {
	tests := []struct {
		status       string
		expectedCode codes.Code
	}{
		{status: "success", expectedCode: codes.Ok},
		{status: "ok", expectedCode: codes.Ok},
		{status: "error", expectedCode: codes.Error},
		{status: "canceled", expectedCode: codes.Error},
		{status: "timeout", expectedCode: codes.Error},
		{status: "draining", expectedCode: codes.Unset},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			// arrange
			collector, exporter := newTestTracing()

			// act
			_, spanCtx := collector.StartSpan(context.Background(), "delaystats.query", nil)
			collector.FinishSpan(spanCtx, tt.status, nil)

			// assert
			spans := exporter.GetSpans()
			require.Len(t, spans, 1)
			assert.Equal(t, tt.expectedCode, spans[0].Status.Code)
		})
	}
}

func Test_TracingCollector_UnknownStatusBecomesAttribute(t *testing.T) {
	// arrange
	collector, exporter := newTestTracing()

	// act
	_, spanCtx := collector.StartSpan(context.Background(), "delaystats.query", nil)
	collector.FinishSpan(spanCtx, "draining", nil)

	// assert
	spans := exporter.GetSpans()
	require.Len(t, spans, 1)

	value, found := spanAttribute(spans[0], "status")
	assert.True(t, found)
	assert.Equal(t, "draining", value)
}

type foreignSpanContext struct{}

func (foreignSpanContext) SetStatus(string)            {}
func (foreignSpanContext) AddAttribute(string, string) {}

func Test_TracingCollector_FinishSpan_IgnoresForeignSpanContext(t *testing.T) {
	// arrange
	collector, exporter := newTestTracing()

	// act
	assert.NotPanics(t, func() {
		collector.FinishSpan(foreignSpanContext{}, "success", map[string]string{"row_count": "1"})
	})

	// assert
	assert.Empty(t, exporter.GetSpans())
}
