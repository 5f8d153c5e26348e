package adapters

import "context"

// DBAdapter defines the interface for the database pool operations needed by the engine.
type DBAdapter interface {
	Acquire(ctx context.Context) (DBConn, error)
	Ping(ctx context.Context) error
	MaxConns() int
	Close() error
}

// DBConn is one dedicated connection checked out of the driver pool.
type DBConn interface {
	Query(ctx context.Context, query string, args ...any) (DBRows, error)
	Release() error
}

// DBRows defines the interface for query result rows
type DBRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}
