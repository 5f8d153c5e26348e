package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/semaphore"

	"github.com/trainmining/delaystats/delaystats"
	"github.com/trainmining/delaystats/delaystats/postgresengine/internal/adapters"
)

const (
	defaultMaxLeases      = 8
	defaultAcquireTimeout = 5 * time.Second

	logMsgReleaseFailed     = "failed to release pooled connection"
	logMsgPoolDrained       = "connection pool drained"
	logMsgPoolCloseFailed   = "failed to close connection pool"
	logAttrLeased           = "leased"
	logAttrCapacity         = "capacity"
	errMsgAcquireTimeoutFmt = "no connection available within %s"
)

// Rows is the result set of a query executed on a Lease.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// PoolStats is a snapshot of the pool's lease bookkeeping.
type PoolStats struct {
	Capacity int  `json:"capacity"`
	Leased   int  `json:"leased"`
	Draining bool `json:"draining"`
}

// ConnectionPool hands out leases on dedicated connections of a driver pool.
//
// The number of outstanding leases is bounded by the pool's capacity and every Acquire
// waits at most the acquire timeout. After Shutdown has started, no new leases are granted.
type ConnectionPool struct {
	db             adapters.DBAdapter
	capacity       int64
	acquireTimeout time.Duration
	logger         Logger

	sem      *semaphore.Weighted
	leased   atomic.Int64
	inFlight sync.WaitGroup

	mu       sync.Mutex
	draining bool

	closeOnce sync.Once
	closeErr  error
}

// NewConnectionPoolFromPGXPool creates a ConnectionPool on top of a pgx Pool.
func NewConnectionPoolFromPGXPool(db *pgxpool.Pool, options ...PoolOption) (*ConnectionPool, error) {
	if db == nil {
		return nil, delaystats.ErrNilDatabaseConnection
	}

	return newConnectionPool(adapters.NewPGXAdapter(db), options...)
}

// NewConnectionPoolFromSQLDB creates a ConnectionPool on top of a sql.DB.
func NewConnectionPoolFromSQLDB(db *sql.DB, options ...PoolOption) (*ConnectionPool, error) {
	if db == nil {
		return nil, delaystats.ErrNilDatabaseConnection
	}

	return newConnectionPool(adapters.NewSQLAdapter(db), options...)
}

// NewConnectionPoolFromSQLX creates a ConnectionPool on top of a sqlx.DB.
func NewConnectionPoolFromSQLX(db *sqlx.DB, options ...PoolOption) (*ConnectionPool, error) {
	if db == nil {
		return nil, delaystats.ErrNilDatabaseConnection
	}

	return newConnectionPool(adapters.NewSQLXAdapter(db), options...)
}

func newConnectionPool(db adapters.DBAdapter, options ...PoolOption) (*ConnectionPool, error) {
	p := &ConnectionPool{
		db:             db,
		acquireTimeout: defaultAcquireTimeout,
	}

	for _, option := range options {
		if err := option(p); err != nil {
			return nil, err
		}
	}

	if p.capacity == 0 {
		p.capacity = int64(db.MaxConns())
	}

	if p.capacity <= 0 {
		p.capacity = defaultMaxLeases
	}

	p.sem = semaphore.NewWeighted(p.capacity)

	return p, nil
}

// Acquire leases a dedicated connection. It fails with ErrPoolAcquisitionFailed when no connection
// becomes available within the acquire timeout, when ctx is done first, when connecting fails,
// or when the pool is draining.
func (p *ConnectionPool) Acquire(ctx context.Context) (*Lease, error) {
	p.mu.Lock()
	if p.draining {
		p.mu.Unlock()
		return nil, errors.Join(delaystats.ErrPoolAcquisitionFailed, delaystats.ErrPoolDraining)
	}
	p.inFlight.Add(1)
	p.mu.Unlock()

	acquireCtx, cancel := context.WithTimeout(ctx, p.acquireTimeout)
	defer cancel()

	if err := p.sem.Acquire(acquireCtx, 1); err != nil {
		p.inFlight.Done()
		return nil, errors.Join(delaystats.ErrPoolAcquisitionFailed, p.acquireCause(ctx, err))
	}

	conn, err := p.db.Acquire(acquireCtx)
	if err != nil {
		p.sem.Release(1)
		p.inFlight.Done()
		return nil, errors.Join(delaystats.ErrPoolAcquisitionFailed, p.acquireCause(ctx, err))
	}

	p.leased.Add(1)

	return &Lease{pool: p, conn: conn}, nil
}

// acquireCause names the acquire timeout when it, and not the caller's context, ended the wait.
func (p *ConnectionPool) acquireCause(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return fmt.Errorf(errMsgAcquireTimeoutFmt+": %w", p.acquireTimeout, err)
	}

	return err
}

// WithLease runs fn with a leased connection and releases the lease on every exit path of fn.
func (p *ConnectionPool) WithLease(ctx context.Context, fn func(lease *Lease) error) error {
	lease, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	defer lease.Release()

	return fn(lease)
}

// Ping checks that the database is reachable.
func (p *ConnectionPool) Ping(ctx context.Context) error {
	return p.db.Ping(ctx)
}

// Stats returns a snapshot of the lease bookkeeping.
func (p *ConnectionPool) Stats() PoolStats {
	p.mu.Lock()
	draining := p.draining
	p.mu.Unlock()

	return PoolStats{
		Capacity: int(p.capacity),
		Leased:   int(p.leased.Load()),
		Draining: draining,
	}
}

// Shutdown stops granting leases, waits until all outstanding leases are released, and closes the
// driver pool. If ctx is done first, Shutdown returns ctx's error and can be called again.
func (p *ConnectionPool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	p.draining = true
	p.mu.Unlock()

	drained := make(chan struct{})
	go func() {
		p.inFlight.Wait()
		close(drained)
	}()

	select {
	case <-drained:
	case <-ctx.Done():
		return fmt.Errorf("waiting for %d leases: %w", p.leased.Load(), ctx.Err())
	}

	p.closeOnce.Do(func() {
		p.closeErr = p.db.Close()

		if p.closeErr != nil {
			p.logWarn(logMsgPoolCloseFailed, logAttrError, p.closeErr.Error())
			return
		}

		if p.logger != nil {
			p.logger.Info(logMsgPoolDrained, logAttrCapacity, p.capacity)
		}
	})

	return p.closeErr
}

func (p *ConnectionPool) logWarn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}

/***** Lease *****/

// Lease is exclusive use of one pooled connection until Release.
// A Lease must not be used from multiple goroutines at the same time.
type Lease struct {
	pool     *ConnectionPool
	conn     adapters.DBConn
	once     sync.Once
	released atomic.Bool
}

// Query executes a parameterized query on the leased connection.
func (l *Lease) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	if l.released.Load() {
		return nil, delaystats.ErrLeaseReleased
	}

	return l.conn.Query(ctx, query, args...)
}

// Release returns the connection to the pool. Calling it more than once has no effect.
func (l *Lease) Release() {
	l.once.Do(func() {
		l.released.Store(true)

		if err := l.conn.Release(); err != nil {
			l.pool.logWarn(logMsgReleaseFailed, logAttrError, err.Error(), logAttrLeased, l.pool.leased.Load())
		}

		l.pool.leased.Add(-1)
		l.pool.sem.Release(1)
		l.pool.inFlight.Done()
	})
}
