package config

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/trainmining/delaystats/delaystats/postgresengine"
)

// OpenPool connects to the configured database with the configured driver library
// and wraps the result in a lease pool. The connection is verified with a ping before it is returned.
func OpenPool(ctx context.Context, d DatabaseConfig, options ...postgresengine.PoolOption) (*postgresengine.ConnectionPool, error) {
	options = append([]postgresengine.PoolOption{
		postgresengine.WithMaxLeases(d.MaxConns),
		postgresengine.WithAcquireTimeout(d.AcquireTimeout),
	}, options...)

	pool, err := newPool(ctx, d, options)
	if err != nil {
		return nil, err
	}

	if pingErr := pool.Ping(ctx); pingErr != nil {
		_ = pool.Shutdown(ctx)
		return nil, fmt.Errorf("pinging %s:%d/%s: %w", d.Host, d.Port, d.Name, pingErr)
	}

	return pool, nil
}

func newPool(ctx context.Context, d DatabaseConfig, options []postgresengine.PoolOption) (*postgresengine.ConnectionPool, error) {
	switch d.Adapter {
	case AdapterSQLDB:
		db, err := PostgresSQLDBConfig(d)
		if err != nil {
			return nil, err
		}

		pool, err := postgresengine.NewConnectionPoolFromSQLDB(db, options...)

		return closeOnError(pool, err, func() { _ = db.Close() })

	case AdapterSQLX:
		db, err := PostgresSQLXConfig(d)
		if err != nil {
			return nil, err
		}

		pool, err := postgresengine.NewConnectionPoolFromSQLX(db, options...)

		return closeOnError(pool, err, func() { _ = db.Close() })

	default:
		dbConfig, err := PostgresPGXPoolConfig(d)
		if err != nil {
			return nil, err
		}

		db, err := pgxpool.NewWithConfig(ctx, dbConfig)
		if err != nil {
			return nil, err
		}

		pool, err := postgresengine.NewConnectionPoolFromPGXPool(db, options...)

		return closeOnError(pool, err, db.Close)
	}
}

// closeOnError closes the driver pool when wrapping it failed, since nothing else owns it then.
func closeOnError(
	pool *postgresengine.ConnectionPool,
	err error,
	closeDB func(),
) (*postgresengine.ConnectionPool, error) {
	if err != nil {
		closeDB()
		return nil, err
	}

	return pool, nil
}
