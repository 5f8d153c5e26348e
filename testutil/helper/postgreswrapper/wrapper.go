// Package postgreswrapper opens a delaystats ConnectionPool against a real PostgreSQL test database
// for each supported driver library and seeds it with a small, known data set.
package postgreswrapper

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver
	"github.com/stretchr/testify/require"

	"github.com/trainmining/delaystats/delaystats/postgresengine"
	. "github.com/trainmining/delaystats/testutil/helper" //nolint:revive
)

// TestDSNEnv names the variable holding the test database DSN. Tests using a Wrapper skip without it.
const TestDSNEnv = "DELAYSTATS_TEST_DSN"

// Adapter type constants
const (
	TypePGXPool = "pgx"
	TypeSQLDB   = "sqldb"
	TypeSQLX    = "sqlx"
)

// AllTypes lists every adapter type a Wrapper can be created for.
var AllTypes = []string{TypePGXPool, TypeSQLDB, TypeSQLX}

// Wrapper abstracts over the driver library behind a ConnectionPool.
type Wrapper interface {
	Pool() *postgresengine.ConnectionPool
	Exec(t testing.TB, query string)
	Close()
}

type wrapper struct {
	pool *postgresengine.ConnectionPool
	exec func(ctx context.Context, query string) error
}

func (w *wrapper) Pool() *postgresengine.ConnectionPool {
	return w.pool
}

func (w *wrapper) Exec(t testing.TB, query string) {
	t.Helper()
	require.NoError(t, w.exec(context.Background(), query), "error in arranging test data")
}

func (w *wrapper) Close() {
	_ = w.pool.Shutdown(context.Background())
}

// TestDSN returns the test database DSN or skips the test.
func TestDSN(t testing.TB) string {
	t.Helper()

	dsn := os.Getenv(TestDSNEnv)
	if dsn == "" {
		t.Skipf("%s not set, skipping PostgreSQL integration test", TestDSNEnv)
	}

	return dsn
}

// CreateWrapperWithTestConfig creates a Wrapper for the adapter type named by ADAPTER_TYPE (default pgx).
func CreateWrapperWithTestConfig(t testing.TB, options ...postgresengine.PoolOption) Wrapper {
	t.Helper()

	return CreateWrapper(t, strings.ToLower(os.Getenv("ADAPTER_TYPE")), options...)
}

// CreateWrapper creates a Wrapper for adapterType. It is closed when the test ends.
func CreateWrapper(t testing.TB, adapterType string, options ...postgresengine.PoolOption) Wrapper {
	t.Helper()

	dsn := TestDSN(t)
	w := &wrapper{}

	switch adapterType {
	case TypePGXPool, "":
		db, err := pgxpool.New(context.Background(), dsn)
		require.NoError(t, err, "error connecting to DB pool in test setup")

		w.pool, err = postgresengine.NewConnectionPoolFromPGXPool(db, options...)
		require.NoError(t, err)

		w.exec = func(ctx context.Context, query string) error {
			_, execErr := db.Exec(ctx, query)
			return execErr
		}

	case TypeSQLDB:
		db, err := sql.Open("postgres", dsn)
		require.NoError(t, err, "error opening DB in test setup")

		w.pool, err = postgresengine.NewConnectionPoolFromSQLDB(db, options...)
		require.NoError(t, err)

		w.exec = func(ctx context.Context, query string) error {
			_, execErr := db.ExecContext(ctx, query)
			return execErr
		}

	case TypeSQLX:
		db, err := sqlx.Open("postgres", dsn)
		require.NoError(t, err, "error opening DB in test setup")

		w.pool, err = postgresengine.NewConnectionPoolFromSQLX(db, options...)
		require.NoError(t, err)

		w.exec = func(ctx context.Context, query string) error {
			_, execErr := db.ExecContext(ctx, query)
			return execErr
		}

	default: // neither one of the known types nor empty
		panic(fmt.Sprintf("unsupported wrapper type: %s", adapterType))
	}

	t.Cleanup(w.Close)

	return w
}

// Tables names the uniquely named tables created by GivenSeededTables.
type Tables struct {
	Delays    string
	Infos     string
	Incidents string
}

// StoreOptions points a DelayStore at the tables.
func (tt Tables) StoreOptions() []postgresengine.Option {
	return []postgresengine.Option{
		postgresengine.WithDelayTableName(tt.Delays),
		postgresengine.WithInfoTableName(tt.Infos),
		postgresengine.WithIncidentTableName(tt.Incidents),
	}
}

// GivenEmptyTables creates fresh, empty tables and drops them when the test ends.
func GivenEmptyTables(t testing.TB, w Wrapper) Tables {
	t.Helper()

	suffix := GivenUniqueTableSuffix(t)
	tables := Tables{
		Delays:    "station_delay_" + suffix,
		Infos:     "station_info_" + suffix,
		Incidents: "incident_" + suffix,
	}

	t.Cleanup(func() {
		for _, table := range []string{tables.Delays, tables.Infos, tables.Incidents} {
			_ = w.(*wrapper).exec(context.Background(), "DROP TABLE IF EXISTS "+table)
		}
	})

	w.Exec(t, fmt.Sprintf(`CREATE TABLE %s (name TEXT, transportation_name TEXT, delay INTEGER, departuretimeplanned TIMESTAMP)`, tables.Delays))
	w.Exec(t, fmt.Sprintf(`CREATE TABLE %s (name TEXT, short TEXT, long TEXT, date DATE)`, tables.Infos))
	w.Exec(t, fmt.Sprintf(`CREATE TABLE %s (station TEXT, transportation_name TEXT, train_number INTEGER, incident TEXT, date DATE)`, tables.Incidents))

	return tables
}

// DelayObservation is one row of the delay table.
type DelayObservation struct {
	Station            string
	TransportationName string
	Delay              int
	Planned            string // YYYY-MM-DD hh:mm:ss
}

// GivenDelayObservations inserts observations into the delay table.
func GivenDelayObservations(t testing.TB, w Wrapper, tables Tables, observations ...DelayObservation) {
	t.Helper()

	values := make([]string, 0, len(observations))
	for _, o := range observations {
		values = append(values, fmt.Sprintf("(%s, %s, %d, %s)",
			quote(o.Station), quote(o.TransportationName), o.Delay, quote(o.Planned)))
	}

	w.Exec(t, fmt.Sprintf("INSERT INTO %s VALUES %s", tables.Delays, strings.Join(values, ", ")))
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// GivenSeededTables creates fresh tables holding the fixture data below and drops them when the test ends.
//
// Delays (2024-03-04 is a Monday, 2024-03-09 a Saturday):
//
//	Nord  S 1   2  2024-03-04 07:15:00
//	Nord  S 1   4  2024-03-04 12:00:00
//	Süd   S 1   6  2024-03-04 17:30:00
//	Süd   U 4  10  2024-03-05 08:59:59
//	Süd   U 4  20  2024-03-09 08:00:00
//	Nord  IC   30  2024-03-04 19:00:00
func GivenSeededTables(t testing.TB, w Wrapper) Tables {
	t.Helper()

	tables := GivenEmptyTables(t, w)

	w.Exec(t, fmt.Sprintf(`INSERT INTO %s VALUES
		('Nord', 'S 1', 2, '2024-03-04 07:15:00'),
		('Nord', 'S 1', 4, '2024-03-04 12:00:00'),
		('Süd',  'S 1', 6, '2024-03-04 17:30:00'),
		('Süd',  'U 4', 10, '2024-03-05 08:59:59'),
		('Süd',  'U 4', 20, '2024-03-09 08:00:00'),
		('Nord', 'IC', 30, '2024-03-04 19:00:00')`, tables.Delays))
	w.Exec(t, fmt.Sprintf(`INSERT INTO %s VALUES
		('Nord', 'lift', 'lift out of order', '2024-03-04'),
		('Süd', NULL, NULL, '2024-03-05')`, tables.Infos))
	w.Exec(t, fmt.Sprintf(`INSERT INTO %s VALUES
		('Nord', 'S 1', 4711, 'signal failure', '2024-03-04'),
		('Süd', 'S 1', 4712, NULL, '2024-03-04'),
		('Süd', 'U 4', 815, 'door fault', '2024-03-04')`, tables.Incidents))

	return tables
}
