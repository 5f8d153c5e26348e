package oteladapters_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/log/noop"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/trainmining/delaystats/delaystats/oteladapters"
)

func Test_SlogBridgeLoggerWithHandler_AllLevels(t *testing.T) {
	// arrange
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	logger := oteladapters.NewSlogBridgeLoggerWithHandler("delaystats", handler)
	ctx := context.Background()

	// act
	logger.DebugContext(ctx, "executed sql for: line_delays_none", "duration_ms", 1.5)
	logger.InfoContext(ctx, "delaystats operation: query completed", "row_count", 3)
	logger.WarnContext(ctx, "releasing connection failed")
	logger.ErrorContext(ctx, "database query execution failed", "error", "boom")

	// assert
	output := buf.String()
	assert.Contains(t, output, `"level":"DEBUG"`)
	assert.Contains(t, output, `"level":"INFO"`)
	assert.Contains(t, output, `"level":"WARN"`)
	assert.Contains(t, output, `"level":"ERROR"`)
	assert.Contains(t, output, `"logger":"delaystats"`)
	assert.Contains(t, output, `"duration_ms":1.5`)
	assert.Contains(t, output, `"row_count":3`)
	assert.Contains(t, output, `"error":"boom"`)
}

func Test_SlogBridgeLogger_WithActiveSpan(t *testing.T) {
	// arrange
	provider := sdktrace.NewTracerProvider()
	defer func() { _ = provider.Shutdown(context.Background()) }()

	ctx, span := provider.Tracer("delaystats-test").Start(context.Background(), "delaystats.query")
	defer span.End()

	logger := oteladapters.NewSlogBridgeLogger("delaystats")

	// act / assert
	assert.NotPanics(t, func() {
		logger.InfoContext(ctx, "delaystats operation: query completed", "row_count", 1)
	})
}

func Test_OTelLogger_ArgumentHandling(t *testing.T) {
	logger := oteladapters.NewOTelLogger(noop.NewLoggerProvider().Logger("delaystats"))
	ctx := context.Background()

	assert.NotPanics(t, func() {
		logger.DebugContext(ctx, "debug", "template", "line_delays_none")
		logger.InfoContext(ctx, "info", "row_count", 3, "duration_ms", 1.25, "draining", false, "rows", int64(4))
		logger.WarnContext(ctx, "odd args", "key1", "value1", "key2")
		logger.ErrorContext(ctx, "non-string key", 42, "value")
	})
}
