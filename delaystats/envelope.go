package delaystats

import (
	"errors"
	"net/http"
	"strings"
)

// ErrorEnvelope is the single shape every failure is reported in.
type ErrorEnvelope struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// StatusFor classifies a failure into an HTTP status code:
//
//   - ErrInputValidationFailed -> 400
//   - ErrPoolAcquisitionFailed -> 503
//   - anything else            -> 500
func StatusFor(err error) int {
	switch {
	case errors.Is(err, ErrInputValidationFailed):
		return http.StatusBadRequest
	case errors.Is(err, ErrPoolAcquisitionFailed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// NormalizeError converts any failure into an ErrorEnvelope. The message reuses the failure's text,
// with the lines of joined errors flattened into "a: b".
func NormalizeError(err error) ErrorEnvelope {
	if err == nil {
		return ErrorEnvelope{Status: http.StatusInternalServerError, Message: "unknown error"}
	}

	return ErrorEnvelope{
		Status:  StatusFor(err),
		Message: strings.ReplaceAll(err.Error(), "\n", ": "),
	}
}
