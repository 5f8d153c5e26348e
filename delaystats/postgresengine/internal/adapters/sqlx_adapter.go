package adapters

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// SQLXAdapter implements DBAdapter for sqlx.DB
type SQLXAdapter struct {
	db *sqlx.DB
}

// NewSQLXAdapter creates a new SQLX adapter
func NewSQLXAdapter(db *sqlx.DB) *SQLXAdapter {
	return &SQLXAdapter{db: db}
}

// Acquire checks out a dedicated sqlx.Conn.
func (s *SQLXAdapter) Acquire(ctx context.Context) (DBConn, error) {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return nil, err
	}
	return &sqlxConn{conn: conn}, nil
}

func (s *SQLXAdapter) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// MaxConns returns the sql.DB open connection limit, 0 means unlimited.
func (s *SQLXAdapter) MaxConns() int {
	return s.db.Stats().MaxOpenConnections
}

func (s *SQLXAdapter) Close() error {
	return s.db.Close()
}

type sqlxConn struct {
	conn *sqlx.Conn
}

// Query executes a query using the sqlx.Conn and returns wrapped rows.
func (s *sqlxConn) Query(ctx context.Context, query string, args ...any) (DBRows, error) {
	rows, err := s.conn.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return &stdRows{rows: rows.Rows}, nil
}

func (s *sqlxConn) Release() error {
	return s.conn.Close()
}
