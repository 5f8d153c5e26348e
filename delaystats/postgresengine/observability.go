package postgresengine

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/trainmining/delaystats/delaystats"
)

const (
	metricQueryDuration       = "delaystats_query_duration_seconds"
	metricQueryRows           = "delaystats_query_rows"
	metricQueryErrors         = "delaystats_query_errors_total"
	metricPoolAcquireDuration = "delaystats_pool_acquire_duration_seconds"
	metricPoolLeased          = "delaystats_pool_leased"
	spanNameQuery             = "delaystats.query"
	spanAttrOperation         = "operation"
	spanAttrTemplate          = "template"
	spanAttrFilter            = "filter"
	spanAttrRowCount          = "row_count"
	spanAttrErrorType         = "error_type"
	spanAttrDurationMS        = "duration_ms"
	labelStatus               = "status"
	operationQuery            = "query"
	operationAcquire          = "acquire"
	statusSuccess             = "success"
	statusError               = "error"
	errorTypeBuildQuery       = "build_query"
	errorTypeAcquireLease     = "acquire_lease"
	errorTypeDatabaseQuery    = "database_query"
	errorTypeRowMapping       = "row_mapping"
	durationAttrFormat        = "%.2f"
)

// === Logging ===

// logQueryWithDuration logs SQL queries with execution time at debug level.
func (ds *DelayStore) logQueryWithDuration(
	ctx context.Context,
	sqlQuery string,
	action string,
	duration time.Duration,
	argCount int,
) {
	args := []any{logAttrDurationMS, ds.toMilliseconds(duration), logAttrQuery, sqlQuery, logAttrArgCount, argCount}

	if ds.logger != nil {
		ds.logger.Debug(logMsgSQLExecuted+action, args...)
	}

	if ds.contextualLogger != nil {
		ds.contextualLogger.DebugContext(ctx, logMsgSQLExecuted+action, args...)
	}
}

// logOperation logs operational information at info level.
func (ds *DelayStore) logOperation(ctx context.Context, action string, args ...any) {
	if ds.logger != nil {
		ds.logger.Info(logMsgOperation+action, args...)
	}

	if ds.contextualLogger != nil {
		ds.contextualLogger.InfoContext(ctx, logMsgOperation+action, args...)
	}
}

func (ds *DelayStore) logWarn(ctx context.Context, message string, args ...any) {
	if ds.logger != nil {
		ds.logger.Warn(message, args...)
	}

	if ds.contextualLogger != nil {
		ds.contextualLogger.WarnContext(ctx, message, args...)
	}
}

// logError logs error information at the error level.
func (ds *DelayStore) logError(
	ctx context.Context,
	message string,
	err error,
	args ...any,
) {

	allArgs := []any{logAttrError, err.Error()}
	allArgs = append(allArgs, args...)

	if ds.logger != nil {
		ds.logger.Error(message, allArgs...)
	}

	if ds.contextualLogger != nil {
		ds.contextualLogger.ErrorContext(ctx, message, allArgs...)
	}
}

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func (ds *DelayStore) toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}

// === Metrics Observer Pattern ===

// queryMetricsObserver encapsulates the metrics collection for one query.
type queryMetricsObserver struct {
	ds       *DelayStore
	ctx      context.Context
	template string
}

func (ds *DelayStore) startQueryMetrics(ctx context.Context, template delaystats.Template) *queryMetricsObserver {
	return &queryMetricsObserver{ds: ds, ctx: ctx, template: template.Name()}
}

func (qmo *queryMetricsObserver) labels(operation, status string) map[string]string {
	return map[string]string{
		spanAttrOperation: operation,
		spanAttrTemplate:  qmo.template,
		labelStatus:       status,
	}
}

// recordSuccess records the duration and row count of a successful query.
func (qmo *queryMetricsObserver) recordSuccess(rowCount int, duration time.Duration) {
	labels := qmo.labels(operationQuery, statusSuccess)
	qmo.recordDuration(metricQueryDuration, duration, labels)
	qmo.recordValue(metricQueryRows, float64(rowCount), labels)
}

// recordError records the duration and the error of a failed query.
func (qmo *queryMetricsObserver) recordError(errorType string, duration time.Duration) {
	qmo.recordDuration(metricQueryDuration, duration, qmo.labels(operationQuery, statusError))

	labels := qmo.labels(operationQuery, statusError)
	labels[spanAttrErrorType] = errorType
	qmo.incrementCounter(metricQueryErrors, labels)
}

// recordAcquire records how long acquiring a lease took.
func (qmo *queryMetricsObserver) recordAcquire(duration time.Duration, err error) {
	status := statusSuccess
	if err != nil {
		status = statusError
	}

	qmo.recordDuration(metricPoolAcquireDuration, duration, qmo.labels(operationAcquire, status))
}

// recordLeased records the number of outstanding leases.
func (qmo *queryMetricsObserver) recordLeased(leased int) {
	qmo.recordValue(metricPoolLeased, float64(leased), qmo.labels(operationAcquire, statusSuccess))
}

func (qmo *queryMetricsObserver) recordDuration(metric string, duration time.Duration, labels map[string]string) {
	collector := qmo.ds.metricsCollector
	if collector == nil {
		return
	}

	// Use context-aware method if available
	if contextual, ok := collector.(delaystats.ContextualMetricsCollector); ok {
		contextual.RecordDurationContext(qmo.ctx, metric, duration, labels)
		return
	}

	collector.RecordDuration(metric, duration, labels)
}

func (qmo *queryMetricsObserver) recordValue(metric string, value float64, labels map[string]string) {
	collector := qmo.ds.metricsCollector
	if collector == nil {
		return
	}

	if contextual, ok := collector.(delaystats.ContextualMetricsCollector); ok {
		contextual.RecordValueContext(qmo.ctx, metric, value, labels)
		return
	}

	collector.RecordValue(metric, value, labels)
}

func (qmo *queryMetricsObserver) incrementCounter(metric string, labels map[string]string) {
	collector := qmo.ds.metricsCollector
	if collector == nil {
		return
	}

	if contextual, ok := collector.(delaystats.ContextualMetricsCollector); ok {
		contextual.IncrementCounterContext(qmo.ctx, metric, labels)
		return
	}

	collector.IncrementCounter(metric, labels)
}

// === Tracing Observer Pattern ===

// queryTracingObserver encapsulates the span lifecycle of one query.
type queryTracingObserver struct {
	ds   *DelayStore
	span SpanContext
}

func (ds *DelayStore) startQueryTracing(
	ctx context.Context,
	template delaystats.Template,
) (*queryTracingObserver, context.Context) {

	if ds.tracingCollector == nil {
		return &queryTracingObserver{ds: ds}, ctx
	}

	newCtx, span := ds.tracingCollector.StartSpan(ctx, spanNameQuery, map[string]string{
		spanAttrOperation: operationQuery,
		spanAttrTemplate:  template.Name(),
		spanAttrFilter:    template.FilterKind().String(),
	})

	return &queryTracingObserver{ds: ds, span: span}, newCtx
}

// finishSuccess completes the span with the row count.
func (qto *queryTracingObserver) finishSuccess(rowCount int, duration time.Duration) {
	if qto.span == nil {
		return
	}

	qto.span.SetStatus(statusSuccess)
	qto.span.AddAttribute(spanAttrRowCount, fmt.Sprintf("%d", rowCount))
	qto.span.AddAttribute(spanAttrDurationMS, fmt.Sprintf(durationAttrFormat, qto.ds.toMilliseconds(duration)))

	qto.ds.tracingCollector.FinishSpan(qto.span, statusSuccess, map[string]string{
		spanAttrRowCount: fmt.Sprintf("%d", rowCount),
	})
}

// finishError completes the span with error details.
func (qto *queryTracingObserver) finishError(errorType string, duration time.Duration) {
	if qto.span == nil {
		return
	}

	qto.span.SetStatus(statusError)
	qto.span.AddAttribute(spanAttrErrorType, errorType)

	if duration > 0 {
		qto.span.AddAttribute(spanAttrDurationMS, fmt.Sprintf(durationAttrFormat, qto.ds.toMilliseconds(duration)))
	}

	qto.ds.tracingCollector.FinishSpan(qto.span, statusError, map[string]string{spanAttrErrorType: errorType})
}
