package delaystats

import (
	"time"
)

const (
	// DateLayout is the wire format of calendar dates.
	DateLayout = "2006-01-02"

	// TimestampLayout is the wire format of time range limits.
	TimestampLayout = "2006-01-02 15:04:05"
)

// Date is a calendar day without time of day or zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar day of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()

	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses a date in DateLayout.
func ParseDate(s string) (Date, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return Date{}, err
	}

	return DateOf(t), nil
}

// ParseTimestamp parses a timestamp in TimestampLayout as wall-clock time.
// Observations are stored without zone, so the result is pinned to UTC and never shifted.
func ParseTimestamp(s string) (time.Time, error) {
	return time.ParseInLocation(TimestampLayout, s, time.UTC)
}

// Time returns midnight UTC of the day.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool {
	return d == Date{}
}

func (d Date) String() string {
	return d.Time().Format(DateLayout)
}

// MarshalText renders the date in DateLayout.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText parses the date from DateLayout.
func (d *Date) UnmarshalText(text []byte) error {
	parsed, err := ParseDate(string(text))
	if err != nil {
		return err
	}

	*d = parsed

	return nil
}
