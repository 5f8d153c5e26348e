package delaystats

import (
	"fmt"
)

// Row is one result row whose values were already converted into the template's column types.
// Values are addressed positionally:
//
//   - ColumnText    -> string
//   - ColumnFloat   -> float64
//   - ColumnInteger -> int64
//   - ColumnDate    -> Date
//
// The typed accessors panic on a mismatch, as that is a programming error between a Template
// and the RecordMapper used with it, not a data error.
type Row struct {
	values []any
}

// NewRow creates a Row from already converted values.
func NewRow(values ...any) Row {
	return Row{values: values}
}

func (r Row) Len() int {
	return len(r.values)
}

// Value returns the raw converted value at position i.
func (r Row) Value(i int) any {
	return r.values[i]
}

func (r Row) Text(i int) string {
	return mustBe[string](r, i)
}

func (r Row) Float(i int) float64 {
	return mustBe[float64](r, i)
}

func (r Row) Integer(i int) int64 {
	return mustBe[int64](r, i)
}

func (r Row) Date(i int) Date {
	return mustBe[Date](r, i)
}

func mustBe[T any](r Row, i int) T {
	v, ok := r.values[i].(T)
	if !ok {
		var zero T
		panic(fmt.Sprintf("delaystats: row column %d holds %T, not %T", i, r.values[i], zero))
	}

	return v
}
