package postgresengine

import (
	"context"
	"errors"
	"time"

	"github.com/trainmining/delaystats/delaystats"
)

const (
	logMsgBuildSelectQueryFailed = "failed to build select query"
	logMsgAcquireLeaseFailed     = "failed to acquire pooled connection"
	logMsgDBQueryFailed          = "database query execution failed"
	logMsgCloseRowsFailed        = "failed to close database rows"
	logMsgScanRowsFailed         = "failed to scan database rows"
	logMsgQueryCompleted         = "query completed"
	logMsgSQLExecuted            = "executed sql for: "
	logMsgOperation              = "delaystats operation: "
	logAttrError                 = "error"
	logAttrQuery                 = "query"
	logAttrArgCount              = "arg_count"
	logAttrTemplate              = "template"
	logAttrRowCount              = "row_count"
	logAttrDurationMS            = "duration_ms"
)

// DelayStore executes delaystats templates against PostgreSQL through a ConnectionPool.
// It is safe for concurrent use; each Query runs on its own lease.
type DelayStore struct {
	pool             *ConnectionPool
	schema           schema
	queryTimeout     time.Duration
	logger           Logger
	contextualLogger ContextualLogger
	metricsCollector MetricsCollector
	tracingCollector TracingCollector
}

// NewDelayStore creates a new DelayStore on top of pool with optional configuration.
func NewDelayStore(pool *ConnectionPool, options ...Option) (*DelayStore, error) {
	if pool == nil {
		return nil, delaystats.ErrNilDatabaseConnection
	}

	ds := &DelayStore{
		pool:   pool,
		schema: defaultSchema(),
	}

	for _, option := range options {
		if err := option(ds); err != nil {
			return nil, err
		}
	}

	return ds, nil
}

// Pool returns the ConnectionPool the store leases its connections from.
func (ds *DelayStore) Pool() *ConnectionPool {
	return ds.pool
}

// Query builds the template's query for filter, executes it on a leased connection, and returns the
// converted rows in store order. The lease is released before Query returns.
//
// Errors are joined with one of delaystats.ErrBuildingQueryFailed, delaystats.ErrPoolAcquisitionFailed,
// delaystats.ErrQueryExecutionFailed, or delaystats.ErrResultMappingFailed.
func (ds *DelayStore) Query(
	ctx context.Context,
	template delaystats.Template,
	filter delaystats.Filter,
) ([]delaystats.Row, error) {

	tracer, ctx := ds.startQueryTracing(ctx, template)
	metrics := ds.startQueryMetrics(ctx, template)
	start := time.Now()

	sqlQuery, args, buildQueryErr := ds.schema.buildSelectQuery(template, filter)
	if buildQueryErr != nil {
		ds.logError(ctx, logMsgBuildSelectQueryFailed, buildQueryErr, logAttrTemplate, template.Name())
		tracer.finishError(errorTypeBuildQuery, 0)
		metrics.recordError(errorTypeBuildQuery, time.Since(start))

		return nil, buildQueryErr
	}

	acquireStart := time.Now()
	lease, acquireErr := ds.pool.Acquire(ctx)
	metrics.recordAcquire(time.Since(acquireStart), acquireErr)
	if acquireErr != nil {
		ds.logError(ctx, logMsgAcquireLeaseFailed, acquireErr, logAttrTemplate, template.Name())
		tracer.finishError(errorTypeAcquireLease, time.Since(start))
		metrics.recordError(errorTypeAcquireLease, time.Since(start))

		return nil, acquireErr
	}
	defer lease.Release()

	metrics.recordLeased(ds.pool.Stats().Leased)

	if ds.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ds.queryTimeout)
		defer cancel()
	}

	rows, queryErr := ds.executeQuery(ctx, lease, template, sqlQuery, args)
	if queryErr != nil {
		tracer.finishError(errorTypeDatabaseQuery, time.Since(start))
		metrics.recordError(errorTypeDatabaseQuery, time.Since(start))

		return nil, queryErr
	}
	defer ds.closeRows(ctx, rows)

	result, scanErr := scanRows(rows, template.Fields())
	if scanErr != nil {
		errorType := errorTypeDatabaseQuery
		if errors.Is(scanErr, delaystats.ErrResultMappingFailed) {
			errorType = errorTypeRowMapping
		}

		ds.logError(ctx, logMsgScanRowsFailed, scanErr, logAttrTemplate, template.Name())
		tracer.finishError(errorType, time.Since(start))
		metrics.recordError(errorType, time.Since(start))

		return nil, scanErr
	}

	duration := time.Since(start)

	ds.logOperation(
		ctx,
		logMsgQueryCompleted,
		logAttrTemplate, template.Name(),
		logAttrRowCount, len(result),
		logAttrDurationMS, ds.toMilliseconds(duration),
	)
	tracer.finishSuccess(len(result), duration)
	metrics.recordSuccess(len(result), duration)

	return result, nil
}

// executeQuery executes the SQL query on the lease and logs it with its timing.
func (ds *DelayStore) executeQuery(
	ctx context.Context,
	lease *Lease,
	template delaystats.Template,
	sqlQuery string,
	args []any,
) (Rows, error) {

	start := time.Now()
	rows, queryErr := lease.Query(ctx, sqlQuery, args...)
	ds.logQueryWithDuration(ctx, sqlQuery, template.Name(), time.Since(start), len(args))

	if queryErr != nil {
		ds.logError(ctx, logMsgDBQueryFailed, queryErr, logAttrQuery, sqlQuery)

		return nil, errors.Join(delaystats.ErrQueryExecutionFailed, queryErr)
	}

	return rows, nil
}

// closeRows safely closes database rows and logs any errors.
func (ds *DelayStore) closeRows(ctx context.Context, rows Rows) {
	if closeErr := rows.Close(); closeErr != nil {
		ds.logWarn(ctx, logMsgCloseRowsFailed, logAttrError, closeErr.Error())
	}
}
