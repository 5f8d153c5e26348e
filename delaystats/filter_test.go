package delaystats_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trainmining/delaystats/delaystats"
)

func Test_Filter_ValidConstructions(t *testing.T) {
	lower := time.Date(2024, 3, 4, 6, 0, 0, 0, time.UTC)
	upper := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	day := delaystats.Date{Year: 2024, Month: time.March, Day: 4}

	tests := []struct {
		name     string
		build    func() (delaystats.Filter, error)
		validate func(t *testing.T, f delaystats.Filter)
	}{
		{
			name:  "no_filter",
			build: func() (delaystats.Filter, error) { return delaystats.NoFilter(), nil },
			validate: func(t *testing.T, f delaystats.Filter) {
				assert.Equal(t, delaystats.FilterNone, f.Kind())
				assert.True(t, f.Date().IsZero())
				assert.Empty(t, f.Line())
			},
		},
		{
			name:  "exact_date",
			build: func() (delaystats.Filter, error) { return delaystats.ExactDate(day), nil },
			validate: func(t *testing.T, f delaystats.Filter) {
				assert.Equal(t, delaystats.FilterExactDate, f.Kind())
				assert.Equal(t, day, f.Date())
			},
		},
		{
			name:  "time_range",
			build: func() (delaystats.Filter, error) { return delaystats.TimeRange(lower, upper) },
			validate: func(t *testing.T, f delaystats.Filter) {
				assert.Equal(t, delaystats.FilterTimeRange, f.Kind())
				assert.Equal(t, lower, f.Lower())
				assert.Equal(t, upper, f.Upper())
			},
		},
		{
			name:  "prime_time",
			build: func() (delaystats.Filter, error) { return delaystats.PrimeTime(), nil },
			validate: func(t *testing.T, f delaystats.Filter) {
				assert.Equal(t, delaystats.FilterPrimeTime, f.Kind())
			},
		},
		{
			name:  "line_and_date",
			build: func() (delaystats.Filter, error) { return delaystats.LineAndDate("S1", day) },
			validate: func(t *testing.T, f delaystats.Filter) {
				assert.Equal(t, delaystats.FilterLineAndDate, f.Kind())
				assert.Equal(t, "S1", f.Line())
				assert.Equal(t, day, f.Date())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := tt.build()
			require.NoError(t, err)
			tt.validate(t, f)
		})
	}
}

func Test_TimeRange_When_UpperIsNotAfterLower(t *testing.T) {
	// arrange
	at := time.Date(2024, 3, 4, 6, 0, 0, 0, time.UTC)

	// act
	_, errEqual := delaystats.TimeRange(at, at)
	_, errReversed := delaystats.TimeRange(at, at.Add(-time.Second))

	// assert
	assert.ErrorIs(t, errEqual, delaystats.ErrInputValidationFailed)
	assert.ErrorIs(t, errReversed, delaystats.ErrInputValidationFailed)

	var validationErr *delaystats.ValidationError
	require.ErrorAs(t, errReversed, &validationErr)
	assert.Equal(t, "upper_limit", validationErr.Param)
}

func Test_LineAndDate_When_LineIsEmpty(t *testing.T) {
	// act
	_, err := delaystats.LineAndDate("", delaystats.Date{Year: 2024, Month: time.January, Day: 1})

	// assert
	assert.ErrorIs(t, err, delaystats.ErrInputValidationFailed)
}

func Test_DeriveLine(t *testing.T) {
	tests := map[string]string{
		"S 1":         "1",
		"IC":          "",
		"":            "",
		"Bus 62 X":    "62",
		"  U   4  ":   "4",
		"RE\t10":      "10",
		"Tram":        "",
		"S 1 Express": "1",
	}

	for raw, want := range tests {
		assert.Equal(t, want, delaystats.DeriveLine(raw), "raw %q", raw)
	}
}

func Test_ParseDate(t *testing.T) {
	d, err := delaystats.ParseDate("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, delaystats.Date{Year: 2024, Month: time.February, Day: 29}, d)
	assert.Equal(t, "2024-02-29", d.String())
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), d.Time())

	for _, bad := range []string{"2023-02-29", "2024-13-01", "01.02.2024", "2024-1-1", "", "2024-01-01 10:00:00"} {
		_, err := delaystats.ParseDate(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func Test_ParseTimestamp_When_Valid(t *testing.T) {
	ts, err := delaystats.ParseTimestamp("2024-03-04 17:30:05")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 4, 17, 30, 5, 0, time.UTC), ts)

	_, err = delaystats.ParseTimestamp("2024-03-04T17:30:05")
	assert.Error(t, err)
}

func Test_Date_TextRoundTrip(t *testing.T) {
	var d delaystats.Date
	require.NoError(t, d.UnmarshalText([]byte("2023-12-31")))

	text, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "2023-12-31", string(text))
	assert.Equal(t, d, delaystats.DateOf(time.Date(2023, 12, 31, 23, 59, 0, 0, time.UTC)))
}
