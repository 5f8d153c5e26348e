package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/trainmining/delaystats/delaystats"
	"github.com/trainmining/delaystats/internal/config"
)

const fixtureDir = "testutil/fixtures"

type table struct {
	name      string
	csvFile   string
	ddl       string
	columns   []string
	parseLine func(record []string) ([]any, error)
}

var tables = []table{
	{
		name:    "station_delay",
		csvFile: "station_delay.csv",
		ddl: `CREATE TABLE IF NOT EXISTS station_delay (
			name TEXT, transportation_name TEXT, delay INTEGER, departuretimeplanned TIMESTAMP)`,
		columns: []string{"name", "transportation_name", "delay", "departuretimeplanned"},
		parseLine: func(r []string) ([]any, error) {
			delay, err := strconv.Atoi(r[2])
			if err != nil {
				return nil, err
			}

			planned, err := delaystats.ParseTimestamp(r[3])
			if err != nil {
				return nil, err
			}

			return []any{r[0], r[1], delay, planned}, nil
		},
	},
	{
		name:    "station_info",
		csvFile: "station_info.csv",
		ddl:     `CREATE TABLE IF NOT EXISTS station_info (name TEXT, short TEXT, long TEXT, date DATE)`,
		columns: []string{"name", "short", "long", "date"},
		parseLine: func(r []string) ([]any, error) {
			date, err := delaystats.ParseDate(r[3])
			if err != nil {
				return nil, err
			}

			return []any{r[0], nullable(r[1]), nullable(r[2]), date.Time()}, nil
		},
	},
	{
		name:    "incident",
		csvFile: "incident.csv",
		ddl: `CREATE TABLE IF NOT EXISTS incident (
			station TEXT, transportation_name TEXT, train_number INTEGER, incident TEXT, date DATE)`,
		columns: []string{"station", "transportation_name", "train_number", "incident", "date"},
		parseLine: func(r []string) ([]any, error) {
			trainNumber, err := strconv.Atoi(r[2])
			if err != nil {
				return nil, err
			}

			date, err := delaystats.ParseDate(r[4])
			if err != nil {
				return nil, err
			}

			return []any{r[0], r[1], trainNumber, nullable(r[3]), date.Time()}, nil
		},
	},
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	if err := ImportCSVData(context.Background(), logger); err != nil {
		logger.Error("importing CSV data failed", "error", err)
		os.Exit(1)
	}
}

// ImportCSVData replaces the content of the delay tables with the generated fixtures.
func ImportCSVData(ctx context.Context, logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	poolConfig, err := config.PostgresPGXPoolConfig(cfg.Database)
	if err != nil {
		return err
	}

	connPool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}
	defer connPool.Close()

	for _, t := range tables {
		count, importErr := importTable(ctx, connPool, t)
		if importErr != nil {
			return fmt.Errorf("importing %s: %w", t.name, importErr)
		}

		logger.Info("imported fixtures", "table", t.name, "row_count", count)
	}

	return nil
}

func importTable(ctx context.Context, connPool *pgxpool.Pool, t table) (int64, error) {
	rows, err := readCSV(filepath.Join(fixtureDir, t.csvFile), t.parseLine)
	if err != nil {
		return 0, err
	}

	tx, err := connPool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }() // no-op after commit

	if _, err = tx.Exec(ctx, t.ddl); err != nil {
		return 0, err
	}

	if _, err = tx.Exec(ctx, "TRUNCATE TABLE "+pgx.Identifier{t.name}.Sanitize()); err != nil {
		return 0, err
	}

	count, err := tx.CopyFrom(ctx, pgx.Identifier{t.name}, t.columns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, err
	}

	if _, err = tx.Exec(ctx, "ANALYZE "+pgx.Identifier{t.name}.Sanitize()); err != nil {
		return 0, err
	}

	return count, tx.Commit(ctx)
}

func readCSV(path string, parseLine func([]string) ([]any, error)) ([][]any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening fixtures (run the generator first): %w", err)
	}
	defer func() { _ = f.Close() }()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}

	rows := make([][]any, 0, len(records))
	for i, record := range records {
		row, parseErr := parseLine(record)
		if parseErr != nil {
			return nil, errors.Join(fmt.Errorf("%s line %d", path, i+1), parseErr)
		}

		rows = append(rows, row)
	}

	return rows, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}
