package httpapi

import (
	"errors"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/trainmining/delaystats/delaystats"
)

const (
	paramDate       = "date"
	paramLowerLimit = "lower_limit"
	paramUpperLimit = "upper_limit"
	paramLine       = "line"
)

// filterParser turns the query parameters of one route into its Filter.
// Every failure matches delaystats.ErrInputValidationFailed.
type filterParser func(validate *validator.Validate, query url.Values) (delaystats.Filter, error)

type dateParams struct {
	Date string `query:"date" validate:"required,datetime=2006-01-02"`
}

type timeRangeParams struct {
	LowerLimit string `query:"lower_limit" validate:"required,datetime=2006-01-02 15:04:05"`
	UpperLimit string `query:"upper_limit" validate:"required,datetime=2006-01-02 15:04:05"`
}

type lineAndDateParams struct {
	Line string `query:"line" validate:"required,alphanum,max=16"`
	Date string `query:"date" validate:"required,datetime=2006-01-02"`
}

func newParamValidator() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		return field.Tag.Get("query")
	})

	return validate
}

func parseNoFilter(*validator.Validate, url.Values) (delaystats.Filter, error) {
	return delaystats.NoFilter(), nil
}

func parsePrimeTime(*validator.Validate, url.Values) (delaystats.Filter, error) {
	return delaystats.PrimeTime(), nil
}

func parseExactDate(validate *validator.Validate, query url.Values) (delaystats.Filter, error) {
	params := dateParams{Date: strings.TrimSpace(query.Get(paramDate))}
	if err := validateParams(validate, params); err != nil {
		return delaystats.Filter{}, err
	}

	date, err := delaystats.ParseDate(params.Date)
	if err != nil {
		return delaystats.Filter{}, delaystats.NewValidationError(paramDate, err.Error())
	}

	return delaystats.ExactDate(date), nil
}

func parseTimeRange(validate *validator.Validate, query url.Values) (delaystats.Filter, error) {
	params := timeRangeParams{
		LowerLimit: strings.TrimSpace(query.Get(paramLowerLimit)),
		UpperLimit: strings.TrimSpace(query.Get(paramUpperLimit)),
	}
	if err := validateParams(validate, params); err != nil {
		return delaystats.Filter{}, err
	}

	lower, err := delaystats.ParseTimestamp(params.LowerLimit)
	if err != nil {
		return delaystats.Filter{}, delaystats.NewValidationError(paramLowerLimit, err.Error())
	}

	upper, err := delaystats.ParseTimestamp(params.UpperLimit)
	if err != nil {
		return delaystats.Filter{}, delaystats.NewValidationError(paramUpperLimit, err.Error())
	}

	return delaystats.TimeRange(lower, upper)
}

func parseLineAndDate(validate *validator.Validate, query url.Values) (delaystats.Filter, error) {
	params := lineAndDateParams{
		Line: normalizeLine(query.Get(paramLine)),
		Date: strings.TrimSpace(query.Get(paramDate)),
	}
	if err := validateParams(validate, params); err != nil {
		return delaystats.Filter{}, err
	}

	date, err := delaystats.ParseDate(params.Date)
	if err != nil {
		return delaystats.Filter{}, delaystats.NewValidationError(paramDate, err.Error())
	}

	return delaystats.LineAndDate(params.Line, date)
}

// normalizeLine accepts a full transportation name ("S 1") as well as the bare line code ("1").
func normalizeLine(raw string) string {
	if len(strings.Fields(raw)) > 1 {
		return delaystats.DeriveLine(raw)
	}

	return strings.TrimSpace(raw)
}

// validateParams converts validator failures into one ValidationError per offending parameter.
func validateParams(validate *validator.Validate, params any) error {
	err := validate.Struct(params)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return errors.Join(delaystats.ErrInputValidationFailed, err)
	}

	errs := make([]error, 0, len(fieldErrs))
	for _, fieldErr := range fieldErrs {
		errs = append(errs, delaystats.NewValidationError(fieldErr.Field(), reason(fieldErr)))
	}

	return errors.Join(errs...)
}

func reason(fieldErr validator.FieldError) string {
	switch fieldErr.Tag() {
	case "required":
		return "is required"
	case "datetime":
		return "must have the format " + layoutHint(fieldErr.Param())
	case "alphanum":
		return "must be alphanumeric"
	case "max":
		return "must be at most " + fieldErr.Param() + " characters long"
	default:
		return "failed the " + fieldErr.Tag() + " check"
	}
}

func layoutHint(layout string) string {
	return strings.NewReplacer("2006", "YYYY", "01", "MM", "02", "DD", "15", "hh", "04", "mm", "05", "ss").Replace(layout)
}
