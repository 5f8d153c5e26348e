package config

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// ObservabilityProviders holds the OpenTelemetry providers installed as globals.
// LoggerProvider is nil unless log export is enabled.
type ObservabilityProviders struct {
	TracerProvider *trace.TracerProvider
	MeterProvider  *metric.MeterProvider
	LoggerProvider *sdklog.LoggerProvider
	Resource       *resource.Resource
}

// NewObservabilityProviders creates OTLP/gRPC exporting providers and sets them as the global providers.
// The exporters read their endpoint and headers from the OTEL_EXPORTER_OTLP_* environment variables.
func NewObservabilityProviders(ctx context.Context, t TelemetryConfig, version string) (*ObservabilityProviders, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(t.ServiceName),
			semconv.ServiceVersionKey.String(version),
		),
	)
	if err != nil {
		return nil, err
	}

	traceExporter, err := otlptracegrpc.New(ctx)
	if err != nil {
		return nil, err
	}

	metricExporter, err := otlpmetricgrpc.New(ctx)
	if err != nil {
		return nil, err
	}

	providers := &ObservabilityProviders{
		TracerProvider: trace.NewTracerProvider(
			trace.WithBatcher(traceExporter),
			trace.WithResource(res),
		),
		MeterProvider: metric.NewMeterProvider(
			metric.WithReader(metric.NewPeriodicReader(metricExporter)),
			metric.WithResource(res),
		),
		Resource: res,
	}

	if t.Logs {
		logExporter, logErr := otlploggrpc.New(ctx)
		if logErr != nil {
			return nil, errors.Join(logErr, providers.Shutdown(ctx))
		}

		providers.LoggerProvider = sdklog.NewLoggerProvider(
			sdklog.WithProcessor(sdklog.NewBatchProcessor(logExporter)),
			sdklog.WithResource(res),
		)
		global.SetLoggerProvider(providers.LoggerProvider)
	}

	otel.SetTracerProvider(providers.TracerProvider)
	otel.SetMeterProvider(providers.MeterProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	return providers, nil
}

// Shutdown flushes and stops every provider and returns all failures joined.
func (p *ObservabilityProviders) Shutdown(ctx context.Context) error {
	var errs []error

	if p.TracerProvider != nil {
		errs = append(errs, p.TracerProvider.Shutdown(ctx))
	}

	if p.MeterProvider != nil {
		errs = append(errs, p.MeterProvider.Shutdown(ctx))
	}

	if p.LoggerProvider != nil {
		errs = append(errs, p.LoggerProvider.Shutdown(ctx))
	}

	return errors.Join(errs...)
}
