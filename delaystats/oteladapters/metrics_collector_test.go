package oteladapters_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/trainmining/delaystats/delaystats/oteladapters"
)

func newTestMeter() (metric.Meter, *sdkmetric.ManualReader) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	return provider.Meter("delaystats-test"), reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()

	var resourceMetrics metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &resourceMetrics))

	return resourceMetrics
}

func Test_MetricsCollector_RecordDuration(t *testing.T) {
	// arrange
	meter, reader := newTestMeter()
	collector := oteladapters.NewMetricsCollector(meter)

	// act
	collector.RecordDuration("delaystats_query_duration_seconds", 150*time.Millisecond, map[string]string{
		"template": "line_delays_none",
		"status":   "success",
	})

	// assert
	histogram := findHistogramMetric(t, collect(t, reader), "delaystats_query_duration_seconds")
	require.Len(t, histogram.DataPoints, 1)

	dataPoint := histogram.DataPoints[0]
	assert.Equal(t, uint64(1), dataPoint.Count)
	assert.InDelta(t, 0.15, dataPoint.Sum, 0.001)

	expectedAttrs := attribute.NewSet(
		attribute.String("template", "line_delays_none"),
		attribute.String("status", "success"),
	)
	assert.True(t, dataPoint.Attributes.Equals(&expectedAttrs))
}

func Test_MetricsCollector_IncrementCounter(t *testing.T) {
	// arrange
	meter, reader := newTestMeter()
	collector := oteladapters.NewMetricsCollector(meter)
	labels := map[string]string{"error_type": "database_query"}

	// act
	collector.IncrementCounter("delaystats_query_errors_total", labels)
	collector.IncrementCounterContext(context.Background(), "delaystats_query_errors_total", labels)

	// assert
	counter := findCounterMetric(t, collect(t, reader), "delaystats_query_errors_total")
	require.Len(t, counter.DataPoints, 1)
	assert.Equal(t, int64(2), counter.DataPoints[0].Value)
}

func Test_MetricsCollector_RecordValue_KeepsLastValue(t *testing.T) {
	// arrange
	meter, reader := newTestMeter()
	collector := oteladapters.NewMetricsCollector(meter)

	// act
	collector.RecordValue("delaystats_pool_leased", 3, nil)
	collector.RecordValueContext(context.Background(), "delaystats_pool_leased", 1, nil)

	// assert
	gauge := findGaugeMetric(t, collect(t, reader), "delaystats_pool_leased")
	require.Len(t, gauge.DataPoints, 1)
	assert.InDelta(t, 1.0, gauge.DataPoints[0].Value, 1e-9)
}

func Test_MetricsCollector_ConcurrentUse(t *testing.T) {
	// arrange
	meter, reader := newTestMeter()
	collector := oteladapters.NewMetricsCollector(meter)

	// act
	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			collector.IncrementCounter("delaystats_queries_total", nil)
			collector.RecordDuration("delaystats_query_duration_seconds", time.Millisecond, nil)
		}()
	}
	wg.Wait()

	// assert
	counter := findCounterMetric(t, collect(t, reader), "delaystats_queries_total")
	require.Len(t, counter.DataPoints, 1)
	assert.Equal(t, int64(20), counter.DataPoints[0].Value)
}

func Test_MetricsCollector_When_InstrumentCreationFails(t *testing.T) {
	// arrange
	meter, reader := newTestMeter()
	collector := oteladapters.NewMetricsCollector(&failingMeter{Meter: meter})
	ctx := context.Background()

	// act
	assert.NotPanics(t, func() {
		collector.RecordDuration("broken", time.Millisecond, nil)
		collector.RecordDurationContext(ctx, "broken", time.Millisecond, nil)
		collector.IncrementCounter("broken", nil)
		collector.IncrementCounterContext(ctx, "broken", nil)
		collector.RecordValue("broken", 1, nil)
		collector.RecordValueContext(ctx, "broken", 1, nil)
	})

	// assert
	for _, scopeMetrics := range collect(t, reader).ScopeMetrics {
		assert.Empty(t, scopeMetrics.Metrics)
	}
}

// failingMeter refuses every instrument named "broken".
type failingMeter struct {
	metric.Meter
}

func (m *failingMeter) Float64Histogram(name string, options ...metric.Float64HistogramOption) (metric.Float64Histogram, error) {
	if name == "broken" {
		return nil, errors.New("histogram creation failed")
	}

	return m.Meter.Float64Histogram(name, options...)
}

func (m *failingMeter) Int64Counter(name string, options ...metric.Int64CounterOption) (metric.Int64Counter, error) {
	if name == "broken" {
		return nil, errors.New("counter creation failed")
	}

	return m.Meter.Int64Counter(name, options...)
}

func (m *failingMeter) Float64Gauge(name string, options ...metric.Float64GaugeOption) (metric.Float64Gauge, error) {
	if name == "broken" {
		return nil, errors.New("gauge creation failed")
	}

	return m.Meter.Float64Gauge(name, options...)
}

func findMetricData(t *testing.T, resourceMetrics metricdata.ResourceMetrics, name string) metricdata.Aggregation {
	t.Helper()

	for _, scopeMetrics := range resourceMetrics.ScopeMetrics {
		for _, m := range scopeMetrics.Metrics {
			if m.Name == name {
				return m.Data
			}
		}
	}

	t.Fatalf("metric %s not found", name)

	return nil
}

func findHistogramMetric(t *testing.T, resourceMetrics metricdata.ResourceMetrics, name string) metricdata.Histogram[float64] {
	t.Helper()

	histogram, ok := findMetricData(t, resourceMetrics, name).(metricdata.Histogram[float64])
	require.True(t, ok, "metric %s is not a float64 histogram", name)

	return histogram
}

func findCounterMetric(t *testing.T, resourceMetrics metricdata.ResourceMetrics, name string) metricdata.Sum[int64] {
	t.Helper()

	counter, ok := findMetricData(t, resourceMetrics, name).(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is not an int64 sum", name)

	return counter
}

func findGaugeMetric(t *testing.T, resourceMetrics metricdata.ResourceMetrics, name string) metricdata.Gauge[float64] {
	t.Helper()

	gauge, ok := findMetricData(t, resourceMetrics, name).(metricdata.Gauge[float64])
	require.True(t, ok, "metric %s is not a float64 gauge", name)

	return gauge
}
