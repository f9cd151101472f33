// internal/errors/mapper.go
package errors

import (
	"context"
	"errors"
	"net/http"

	"gorm.io/gorm"
)

// Sentinel errors shared across the service.
var (
	// ErrInvalidInput indicates malformed input: gender string, birthday,
	// or goal key. Not retried; the caller re-prompts or rejects.
	ErrInvalidInput = errors.New("invalid input")

	// ErrProfileNotFound indicates the requested profile does not exist.
	ErrProfileNotFound = errors.New("profile not found")

	// ErrRecordNotFound indicates the requested record does not exist.
	ErrRecordNotFound = errors.New("record not found")

	// ErrMissingProfile indicates a record insert referenced a profile id
	// that does not exist. The insert is rejected with no partial write.
	ErrMissingProfile = errors.New("record references a missing profile")
)

// HTTPStatus converts repo/infra errors into an HTTP status code.
// Keeps handlers clean by centralizing error mapping.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK

	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest

	case errors.Is(err, ErrProfileNotFound),
		errors.Is(err, ErrRecordNotFound),
		errors.Is(err, ErrMissingProfile),
		errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound

	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout

	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout

	default:
		// storage or other infrastructure failure
		return http.StatusInternalServerError
	}
}
