package adapters

import (
	"context"
	"database/sql"
)

// SQLAdapter implements DBAdapter for sql.DB
type SQLAdapter struct {
	db *sql.DB
}

// NewSQLAdapter creates a new SQL adapter
func NewSQLAdapter(db *sql.DB) *SQLAdapter {
	return &SQLAdapter{db: db}
}

func (s *SQLAdapter) Acquire(ctx context.Context) (DBConn, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	return &sqlConn{conn: conn}, nil
}

func (s *SQLAdapter) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// MaxConns returns the sql.DB open connection limit, 0 means unlimited.
func (s *SQLAdapter) MaxConns() int {
	return s.db.Stats().MaxOpenConnections
}

func (s *SQLAdapter) Close() error {
	return s.db.Close()
}

type sqlConn struct {
	conn *sql.Conn
}

func (s *sqlConn) Query(ctx context.Context, query string, args ...any) (DBRows, error) {
	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return &stdRows{rows: rows}, nil
}

// Release returns the connection to the sql.DB pool.
func (s *sqlConn) Release() error {
	return s.conn.Close()
}
