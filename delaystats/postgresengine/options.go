package postgresengine

import (
	"errors"
	"time"

	"github.com/trainmining/delaystats/delaystats"
)

type (
	// Logger is used for SQL query logging, operational info, warnings, and error reporting.
	Logger = delaystats.Logger

	// ContextualLogger is the context-aware logger variant with trace correlation.
	ContextualLogger = delaystats.ContextualLogger

	// MetricsCollector receives query and pool metrics.
	MetricsCollector = delaystats.MetricsCollector

	// TracingCollector receives one span per query.
	TracingCollector = delaystats.TracingCollector

	// SpanContext is an active span handed out by a TracingCollector.
	SpanContext = delaystats.SpanContext
)

// Option defines a functional option for configuring DelayStore.
type Option func(*DelayStore) error

// WithDelayTableName sets the name of the delay observation table.
func WithDelayTableName(tableName string) Option {
	return func(ds *DelayStore) error {
		if tableName == "" {
			return delaystats.ErrEmptyTableNameSupplied
		}

		ds.schema.delayTable = tableName

		return nil
	}
}

// WithInfoTableName sets the name of the station info table.
func WithInfoTableName(tableName string) Option {
	return func(ds *DelayStore) error {
		if tableName == "" {
			return delaystats.ErrEmptyTableNameSupplied
		}

		ds.schema.infoTable = tableName

		return nil
	}
}

// WithIncidentTableName sets the name of the incident table.
func WithIncidentTableName(tableName string) Option {
	return func(ds *DelayStore) error {
		if tableName == "" {
			return delaystats.ErrEmptyTableNameSupplied
		}

		ds.schema.incidentTable = tableName

		return nil
	}
}

// WithQueryTimeout bounds the execution of each query, including reading its rows.
// Zero disables the bound, so only the caller's context applies.
func WithQueryTimeout(timeout time.Duration) Option {
	return func(ds *DelayStore) error {
		if timeout < 0 {
			return errors.New("query timeout must not be negative")
		}

		ds.queryTimeout = timeout

		return nil
	}
}

// WithLogger sets the logger for the DelayStore.
// The logger will receive messages at different levels based on the logger's configured level:
//
// Debug level: SQL queries with execution timing (development use)
// Info level: Row counts and durations (production-safe)
// Warn level: Non-critical issues like cleanup failures
// Error level: Critical failures that cause query failures.
func WithLogger(logger Logger) Option {
	return func(ds *DelayStore) error {
		ds.logger = logger
		return nil
	}
}

// WithContextualLogger sets the contextual logger for the DelayStore.
// It receives the same messages as the Logger, with the request context for trace correlation.
func WithContextualLogger(logger ContextualLogger) Option {
	return func(ds *DelayStore) error {
		ds.contextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the DelayStore.
// It receives query durations, row counts, error counts, lease acquisition durations and leased counts.
func WithMetrics(collector MetricsCollector) Option {
	return func(ds *DelayStore) error {
		ds.metricsCollector = collector
		return nil
	}
}

// WithTracing sets the tracing collector for the DelayStore.
func WithTracing(collector TracingCollector) Option {
	return func(ds *DelayStore) error {
		ds.tracingCollector = collector
		return nil
	}
}

// PoolOption defines a functional option for configuring ConnectionPool.
type PoolOption func(*ConnectionPool) error

// WithMaxLeases bounds the number of leases held at the same time.
// Without it the bound is the driver pool's size.
func WithMaxLeases(maxLeases int) PoolOption {
	return func(p *ConnectionPool) error {
		if maxLeases <= 0 {
			return errors.New("max leases must be positive")
		}

		p.capacity = int64(maxLeases)

		return nil
	}
}

// WithAcquireTimeout bounds how long Acquire waits for a free connection.
func WithAcquireTimeout(timeout time.Duration) PoolOption {
	return func(p *ConnectionPool) error {
		if timeout <= 0 {
			return errors.New("acquire timeout must be positive")
		}

		p.acquireTimeout = timeout

		return nil
	}
}

// WithPoolLogger sets the logger the pool reports lease release failures and shutdown to.
func WithPoolLogger(logger Logger) PoolOption {
	return func(p *ConnectionPool) error {
		p.logger = logger
		return nil
	}
}
