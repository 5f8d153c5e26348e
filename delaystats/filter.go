package delaystats

import (
	"time"
)

// FilterKind tells which variant of the Filter sum type a value holds.
type FilterKind uint8

const (
	FilterNone FilterKind = iota
	FilterExactDate
	FilterTimeRange
	FilterPrimeTime
	FilterLineAndDate
)

func (k FilterKind) String() string {
	switch k {
	case FilterNone:
		return "none"
	case FilterExactDate:
		return "date"
	case FilterTimeRange:
		return "timeframe"
	case FilterPrimeTime:
		return "prime"
	case FilterLineAndDate:
		return "line_and_date"
	default:
		return "unknown"
	}
}

/***** Filter *****/

// Filter restricts the observations a query covers. It is one of:
//
//   - none:          no restriction
//   - exact date:    the observation's timestamp truncated to a date equals the date
//   - time range:    lower < timestamp <= upper
//   - prime time:    weekday (Mon..Fri) and time of day in [06:00,09:00) or [16:00,19:00)
//   - line and date: the derived line equals the line and the timestamp's date equals the date
//
// Filters are only created through the constructors below, so a Filter value is always valid.
type Filter struct {
	kind  FilterKind
	date  Date
	lower time.Time
	upper time.Time
	line  string
}

// NoFilter creates a Filter without restriction.
func NoFilter() Filter {
	return Filter{kind: FilterNone}
}

// ExactDate creates a Filter matching observations on the given calendar day.
func ExactDate(date Date) Filter {
	return Filter{kind: FilterExactDate, date: date}
}

// TimeRange creates a Filter matching observations with lower < timestamp <= upper.
// The upper limit must be after the lower limit.
func TimeRange(lower, upper time.Time) (Filter, error) {
	if !upper.After(lower) {
		return Filter{}, NewValidationError("upper_limit", "must be after lower_limit")
	}

	return Filter{kind: FilterTimeRange, lower: lower, upper: upper}, nil
}

// PrimeTime creates the fixed weekday peak-hours Filter.
func PrimeTime() Filter {
	return Filter{kind: FilterPrimeTime}
}

// LineAndDate creates a Filter matching observations of one derived line on one calendar day.
func LineAndDate(line string, date Date) (Filter, error) {
	if line == "" {
		return Filter{}, NewValidationError("line", "must not be empty")
	}

	return Filter{kind: FilterLineAndDate, line: line, date: date}, nil
}

func (f Filter) Kind() FilterKind {
	return f.kind
}

func (f Filter) Date() Date {
	return f.date
}

func (f Filter) Lower() time.Time {
	return f.lower
}

func (f Filter) Upper() time.Time {
	return f.upper
}

func (f Filter) Line() string {
	return f.line
}
