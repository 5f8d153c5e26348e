package helper

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/trainmining/delaystats/delaystats"
)

func GivenUniqueID(t testing.TB) uuid.UUID {
	id, err := uuid.NewV7()
	require.NoError(t, err, "error in arranging test data")

	return id
}

// GivenUniqueTableSuffix returns a suffix that makes table names unique per test run.
// UUIDv7s share their leading timestamp bits, so the random tail is used.
func GivenUniqueTableSuffix(t testing.TB) string {
	id := strings.ReplaceAll(GivenUniqueID(t).String(), "-", "")

	return id[len(id)-12:]
}

func GivenDate(t testing.TB, s string) delaystats.Date {
	date, err := delaystats.ParseDate(s)
	require.NoError(t, err, "error in arranging test data")

	return date
}

func GivenTimestamp(t testing.TB, s string) time.Time {
	ts, err := delaystats.ParseTimestamp(s)
	require.NoError(t, err, "error in arranging test data")

	return ts
}

func GivenTimeRange(t testing.TB, lower, upper time.Time) delaystats.Filter {
	filter, err := delaystats.TimeRange(lower, upper)
	require.NoError(t, err, "error in arranging test data")

	return filter
}

func GivenLineAndDate(t testing.TB, line string, date delaystats.Date) delaystats.Filter {
	filter, err := delaystats.LineAndDate(line, date)
	require.NoError(t, err, "error in arranging test data")

	return filter
}
