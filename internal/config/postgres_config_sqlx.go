package config

import (
	"time"

	"github.com/jmoiron/sqlx"
)

// PostgresSQLXConfig opens a configured *sqlx.DB for the configured database.
func PostgresSQLXConfig(d DatabaseConfig) (*sqlx.DB, error) {
	const defaultMaxConnLifetime = time.Hour
	const defaultMaxConnIdleTime = time.Minute * 5

	db, err := sqlx.Open(postgresDriverName, d.PostgresDSN())
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(d.MaxConns)
	db.SetMaxIdleConns(d.MaxConns)
	db.SetConnMaxLifetime(defaultMaxConnLifetime)
	db.SetConnMaxIdleTime(defaultMaxConnIdleTime)

	return db, nil
}
