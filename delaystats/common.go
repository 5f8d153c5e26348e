package delaystats

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInputValidationFailed = errors.New("input validation failed")
var ErrPoolAcquisitionFailed = errors.New("acquiring a pooled connection failed")
var ErrPoolDraining = errors.New("connection pool is draining")
var ErrLeaseReleased = errors.New("lease was already released")
var ErrQueryExecutionFailed = errors.New("query execution failed")
var ErrResultMappingFailed = errors.New("result mapping failed")
var ErrBuildingQueryFailed = errors.New("building the query failed")
var ErrFilterNotSupported = errors.New("filter kind not supported by template")
var ErrConfigMissing = errors.New("required configuration missing")
var ErrNilDatabaseConnection = errors.New("nil database connection supplied")
var ErrEmptyTableNameSupplied = errors.New("empty table name supplied")

// ValidationError describes one rejected request parameter.
type ValidationError struct {
	Param  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid parameter %q: %s", e.Param, e.Reason)
}

// Is makes every ValidationError match ErrInputValidationFailed.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInputValidationFailed
}

// NewValidationError creates a ValidationError for the given parameter.
func NewValidationError(param, reason string) error {
	return &ValidationError{Param: param, Reason: reason}
}

// ColumnMappingError describes a result column that could not be converted into its record field.
type ColumnMappingError struct {
	Column   int
	Expected ColumnType
	Err      error
}

func (e *ColumnMappingError) Error() string {
	return fmt.Sprintf("column %d: expected %s: %v", e.Column, e.Expected, e.Err)
}

func (e *ColumnMappingError) Unwrap() error {
	return e.Err
}

// Is makes every ColumnMappingError match ErrResultMappingFailed.
func (e *ColumnMappingError) Is(target error) bool {
	return target == ErrResultMappingFailed
}

// MissingConfigError lists the configuration keys that were required but absent.
type MissingConfigError struct {
	Keys []string
}

func (e *MissingConfigError) Error() string {
	return fmt.Sprintf("missing required configuration: %s", strings.Join(e.Keys, ", "))
}

// Is makes every MissingConfigError match ErrConfigMissing.
func (e *MissingConfigError) Is(target error) bool {
	return target == ErrConfigMissing
}
