package adapters

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGXAdapter implements DBAdapter for pgxpool.Pool.
type PGXAdapter struct {
	pool *pgxpool.Pool
}

// NewPGXAdapter creates a new PGX adapter.
func NewPGXAdapter(pool *pgxpool.Pool) *PGXAdapter {
	return &PGXAdapter{pool: pool}
}

// Acquire checks out a dedicated connection, blocking until one is free or ctx is done.
func (p *PGXAdapter) Acquire(ctx context.Context) (DBConn, error) {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	return &pgxConn{conn: conn}, nil
}

// Ping checks that a connection to the database can be established.
func (p *PGXAdapter) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// MaxConns returns the configured size of the pgx pool.
func (p *PGXAdapter) MaxConns() int {
	return int(p.pool.Config().MaxConns)
}

// Close closes all connections of the pgx pool.
func (p *PGXAdapter) Close() error {
	p.pool.Close()
	return nil
}

// pgxConn wraps pgxpool.Conn to implement the DBConn interface.
type pgxConn struct {
	conn *pgxpool.Conn
}

// Query executes a parameterized query on the dedicated connection.
func (p *pgxConn) Query(ctx context.Context, query string, args ...any) (DBRows, error) {
	rows, err := p.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	return &pgxRows{rows: rows}, nil
}

// Release returns the connection to the pgx pool.
func (p *pgxConn) Release() error {
	p.conn.Release()
	return nil
}

// pgxRows wraps pgx.Rows to implement the DBRows interface.
type pgxRows struct {
	rows pgx.Rows
}

// Next advances to the next row.
func (p *pgxRows) Next() bool {
	return p.rows.Next()
}

// Scan copies row values into provided destinations.
func (p *pgxRows) Scan(dest ...any) error {
	return p.rows.Scan(dest...)
}

// Err returns the error, if any, that was encountered during iteration.
func (p *pgxRows) Err() error {
	return p.rows.Err()
}

// Close closes the rows iterator.
func (p *pgxRows) Close() error {
	p.rows.Close()
	return nil
}
