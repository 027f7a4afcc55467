// Package errors defines the error taxonomy of the backend.
// Two kinds matter to callers: validation failures (rejected before any
// persistence attempt) and storage failures (the persistence layer is
// unreachable or a write failed). A delivery miss is not an error.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// Chat protocol / message store.
	ErrEmptyParticipant = fmt.Errorf("sender and recipient must be non-empty")
	ErrSamePair         = fmt.Errorf("sender and recipient must differ")
	ErrEmptyText        = fmt.Errorf("message text must be non-empty")
	ErrNotJoined        = fmt.Errorf("connection has not joined")
	ErrSessionClosed    = fmt.Errorf("session is closed")
	ErrSlowConsumer     = fmt.Errorf("connection send buffer is full")

	// Identity bootstrap.
	ErrUserAlreadyExists  = fmt.Errorf("a profile with this email already exists")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrInvalidPassword    = fmt.Errorf("password does not meet complexity requirements")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")

	// Lookups.
	ErrProfileNotFound = fmt.Errorf("profile not found")

	// Media upload.
	ErrUnsupportedMedia = fmt.Errorf("payload is not a video")

	// Supervision.
	ErrWorkerPanic = fmt.Errorf("worker panic")
)

// ValidationError wraps a constraint violation detected before persistence.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return fmt.Sprintf("validation: %v", e.Err) }
func (e *ValidationError) Unwrap() error { return e.Err }

// StorageError wraps a failure of the durable persistence layer.
type StorageError struct {
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("storage: %v", e.Err) }
func (e *StorageError) Unwrap() error { return e.Err }

func Validation(err error) error {
	return &ValidationError{Err: err}
}

func Storage(err error) error {
	return &StorageError{Err: err}
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsStorage(err error) bool {
	var s *StorageError
	return errors.As(err, &s)
}

// HTTPStatus maps an error to the status code the HTTP surface should answer
// with. Unknown errors are treated as internal.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrUserAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, ErrProfileNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnsupportedMedia):
		return http.StatusUnsupportedMediaType
	case IsValidation(err), errors.Is(err, ErrInvalidPassword):
		return http.StatusBadRequest
	case IsStorage(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
