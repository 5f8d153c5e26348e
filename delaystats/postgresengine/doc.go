// Package postgresengine provides a PostgreSQL implementation of the delaystats query layer.
//
// It renders delaystats templates and filters into parameterized SQL with goqu, executes them
// on connections leased from a bounded ConnectionPool, and converts the result columns
// positionally into delaystats.Row values.
//
// Key features:
//   - Multiple database adapter support (PGX, SQL, SQLX)
//   - Bounded leases with an acquire timeout and graceful draining on shutdown
//   - All filter values bound as query parameters
//   - Configurable table names, query timeout, and dual-logger support
//   - Optional metrics and tracing collectors
//
// Usage examples:
//
//	db, _ := pgxpool.New(context.Background(), dsn)
//	pool, _ := postgresengine.NewConnectionPoolFromPGXPool(db, postgresengine.WithAcquireTimeout(5*time.Second))
//
//	store, _ := postgresengine.NewDelayStore(
//		pool,
//		postgresengine.WithDelayTableName("station_delay"),
//		postgresengine.WithLogger(logger),
//	)
//
//	rows, err := store.Query(ctx, delaystats.LineDelayTemplate(delaystats.FilterPrimeTime), delaystats.PrimeTime())
//
//	_ = pool.Shutdown(ctx)
package postgresengine
