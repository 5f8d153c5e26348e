package postgresengine

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/trainmining/delaystats/delaystats"
)

var errUnexpectedNull = errors.New("unexpected NULL")

// columnScanner converts one result column into the Go type of its delaystats.ColumnType.
// It implements sql.Scanner, which both pgx and database/sql accept as a scan destination,
// and both wrap its errors so that errors.As still finds the *delaystats.ColumnMappingError.
type columnScanner struct {
	index    int
	column   delaystats.ColumnType
	nullable bool
	value    any
}

func newColumnScanners(fields []delaystats.Field) ([]*columnScanner, []any) {
	scanners := make([]*columnScanner, len(fields))
	dest := make([]any, len(fields))

	for i, field := range fields {
		scanners[i] = &columnScanner{index: i, column: field.ColumnType(), nullable: field.Nullable()}
		dest[i] = scanners[i]
	}

	return scanners, dest
}

// Scan implements sql.Scanner.
func (c *columnScanner) Scan(src any) error {
	if src == nil {
		if !c.nullable {
			return c.fail(errUnexpectedNull)
		}

		c.value = c.zero()

		return nil
	}

	var converted any
	var err error

	switch c.column {
	case delaystats.ColumnText:
		converted, err = toText(src)
	case delaystats.ColumnFloat:
		converted, err = toFloat(src)
	case delaystats.ColumnInteger:
		converted, err = toInteger(src)
	case delaystats.ColumnDate:
		converted, err = toDate(src)
	default:
		err = fmt.Errorf("unsupported column type %d", c.column)
	}

	if err != nil {
		return c.fail(err)
	}

	c.value = converted

	return nil
}

func (c *columnScanner) fail(err error) error {
	return &delaystats.ColumnMappingError{Column: c.index, Expected: c.column, Err: err}
}

func (c *columnScanner) zero() any {
	switch c.column {
	case delaystats.ColumnFloat:
		return float64(0)
	case delaystats.ColumnInteger:
		return int64(0)
	case delaystats.ColumnDate:
		return delaystats.Date{}
	default:
		return ""
	}
}

func toText(src any) (string, error) {
	switch v := src.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return "", fmt.Errorf("cannot convert %T to text", src)
	}
}

func toFloat(src any) (float64, error) {
	switch v := src.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case string:
		return strconv.ParseFloat(v, 64)
	case []byte:
		return strconv.ParseFloat(string(v), 64)
	default:
		return 0, fmt.Errorf("cannot convert %T to float", src)
	}
}

func toInteger(src any) (int64, error) {
	switch v := src.(type) {
	case int64:
		return v, nil
	case int32:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("%v is not an integer", v)
		}
		return int64(v), nil
	case string:
		return strconv.ParseInt(v, 10, 64)
	case []byte:
		return strconv.ParseInt(string(v), 10, 64)
	default:
		return 0, fmt.Errorf("cannot convert %T to integer", src)
	}
}

func toDate(src any) (delaystats.Date, error) {
	switch v := src.(type) {
	case time.Time:
		return delaystats.DateOf(v), nil
	case string:
		return delaystats.ParseDate(v)
	case []byte:
		return delaystats.ParseDate(string(v))
	default:
		return delaystats.Date{}, fmt.Errorf("cannot convert %T to date", src)
	}
}

// scanRows reads all remaining rows positionally into delaystats.Row values, in store order.
func scanRows(rows Rows, fields []delaystats.Field) ([]delaystats.Row, error) {
	result := make([]delaystats.Row, 0)

	for rows.Next() {
		scanners, dest := newColumnScanners(fields)

		if scanErr := rows.Scan(dest...); scanErr != nil {
			var mappingErr *delaystats.ColumnMappingError
			if errors.As(scanErr, &mappingErr) {
				return nil, errors.Join(delaystats.ErrResultMappingFailed, scanErr)
			}

			return nil, errors.Join(delaystats.ErrQueryExecutionFailed, scanErr)
		}

		values := make([]any, len(scanners))
		for i, scanner := range scanners {
			values[i] = scanner.value
		}

		result = append(result, delaystats.NewRow(values...))
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, errors.Join(delaystats.ErrQueryExecutionFailed, rowsErr)
	}

	return result, nil
}
