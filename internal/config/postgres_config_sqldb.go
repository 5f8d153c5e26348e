package config

import (
	"database/sql"
	"time"

	_ "github.com/lib/pq" // postgres driver
)

const postgresDriverName = "postgres"

// PostgresSQLDBConfig opens a configured *sql.DB for the configured database.
// Opening does not connect; OpenPool pings once the lease pool is built.
func PostgresSQLDBConfig(d DatabaseConfig) (*sql.DB, error) {
	const defaultMaxConnLifetime = time.Hour
	const defaultMaxConnIdleTime = time.Minute * 5

	db, err := sql.Open(postgresDriverName, d.PostgresDSN())
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(d.MaxConns)
	db.SetMaxIdleConns(d.MaxConns)
	db.SetConnMaxLifetime(defaultMaxConnLifetime)
	db.SetConnMaxIdleTime(defaultMaxConnIdleTime)

	return db, nil
}
