package postgresengine

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/trainmining/delaystats/delaystats/postgresengine/internal/adapters"
)

// fakeAdapter is an in-memory adapters.DBAdapter that serves canned rows.
type fakeAdapter struct {
	mu         sync.Mutex
	maxConns   int
	acquireErr error
	queryErr   error
	rowsErr    error
	data       [][]any
	acquired   int
	released   int
	maxOpen    int
	open       int
	closed     bool
	queries    []string
	args       [][]any
	onQuery    func(ctx context.Context) error
}

func (f *fakeAdapter) Acquire(ctx context.Context) (adapters.DBConn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.acquireErr != nil {
		return nil, f.acquireErr
	}

	f.acquired++
	f.open++
	if f.open > f.maxOpen {
		f.maxOpen = f.open
	}

	return &fakeConn{adapter: f}, nil
}

func (f *fakeAdapter) Ping(context.Context) error {
	return nil
}

func (f *fakeAdapter) MaxConns() int {
	return f.maxConns
}

func (f *fakeAdapter) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true

	return nil
}

func (f *fakeAdapter) snapshot() (acquired, released, maxOpen int, closed bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.acquired, f.released, f.maxOpen, f.closed
}

type fakeConn struct {
	adapter *fakeAdapter
}

func (c *fakeConn) Query(ctx context.Context, query string, args ...any) (adapters.DBRows, error) {
	f := c.adapter

	if f.onQuery != nil {
		if err := f.onQuery(ctx); err != nil {
			return nil, err
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.queries = append(f.queries, query)
	f.args = append(f.args, args)

	if f.queryErr != nil {
		return nil, f.queryErr
	}

	return &fakeRows{data: f.data, err: f.rowsErr, pos: -1}, nil
}

func (c *fakeConn) Release() error {
	c.adapter.mu.Lock()
	defer c.adapter.mu.Unlock()

	c.adapter.released++
	c.adapter.open--

	return nil
}

// fakeRows hands each value to sql.Scanner destinations and wraps scan errors like the drivers do.
type fakeRows struct {
	data   [][]any
	err    error
	pos    int
	closed bool
}

func (r *fakeRows) Next() bool {
	r.pos++
	return r.pos < len(r.data)
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.data[r.pos]
	if len(row) != len(dest) {
		return fmt.Errorf("expected %d destination arguments in Scan, not %d", len(row), len(dest))
	}

	for i, value := range row {
		scanner, ok := dest[i].(sql.Scanner)
		if !ok {
			return fmt.Errorf("destination %d is not a sql.Scanner", i)
		}

		if err := scanner.Scan(value); err != nil {
			return fmt.Errorf("can't scan into dest[%d]: %w", i, err)
		}
	}

	return nil
}

func (r *fakeRows) Err() error {
	return r.err
}

func (r *fakeRows) Close() error {
	r.closed = true
	return nil
}
