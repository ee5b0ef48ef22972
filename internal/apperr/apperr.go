// Package apperr defines the application error taxonomy. Constructors return
// rich go-errors values that still match the sentinels through errors.Is.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	goerrors "github.com/goliatone/go-errors"
)

var (
	// ErrValidation marks missing or invalid input; nothing was persisted.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks a failed lookup by id or matricula.
	ErrNotFound = errors.New("not found")
	// ErrConflict marks a duplicate unique key or a stale version token.
	ErrConflict = errors.New("already exists")
	// ErrStorageUnavailable marks an unreachable storage collaborator.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrPartialData marks a referenced image that could not be embedded.
	ErrPartialData = errors.New("partial data")
)

const (
	textCodeValidation  = "VALIDATION_FAILED"
	textCodeNotFound    = "NOT_FOUND"
	textCodeConflict    = "CONFLICT"
	textCodeUnavailable = "STORAGE_UNAVAILABLE"
	textCodePartial     = "PARTIAL_DATA"
)

// Validation builds a ValidationError.
func Validation(format string, args ...any) error {
	return build(ErrValidation, goerrors.CategoryValidation, http.StatusBadRequest, textCodeValidation, format, args...)
}

// NotFound builds a NotFoundError.
func NotFound(format string, args ...any) error {
	return build(ErrNotFound, goerrors.CategoryNotFound, http.StatusNotFound, textCodeNotFound, format, args...)
}

// Conflict builds a ConflictError.
func Conflict(format string, args ...any) error {
	return build(ErrConflict, goerrors.CategoryValidation, http.StatusConflict, textCodeConflict, format, args...)
}

// Unavailable wraps a storage failure.
func Unavailable(err error, op string) error {
	if err == nil {
		return nil
	}
	rich := goerrors.Wrap(err, goerrors.CategoryInternal, op).
		WithCode(http.StatusServiceUnavailable).
		WithTextCode(textCodeUnavailable)
	return &Error{sentinel: ErrStorageUnavailable, msg: op + ": " + err.Error(), rich: rich}
}

// PartialData builds a PartialDataError for a resource that was skipped.
func PartialData(resource string, cause error) error {
	msg := "skipped " + resource
	rich := goerrors.Wrap(cause, goerrors.CategoryInternal, msg).
		WithCode(http.StatusInternalServerError).
		WithTextCode(textCodePartial)
	return &Error{sentinel: ErrPartialData, msg: msg + ": " + cause.Error(), rich: rich}
}

func build(sentinel error, category goerrors.Category, code int, textCode, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	rich := goerrors.New(msg, category).
		WithCode(code).
		WithTextCode(textCode)
	return &Error{sentinel: sentinel, msg: msg, rich: rich}
}

// Error ties a message to a taxonomy sentinel and carries the rich go-errors
// value for callers that want category and text code.
type Error struct {
	sentinel error
	msg      string
	rich     *goerrors.Error
}

func (e *Error) Error() string { return e.msg }

// Is matches the taxonomy sentinel.
func (e *Error) Is(target error) bool { return target == e.sentinel }

// Unwrap exposes the rich error to errors.As.
func (e *Error) Unwrap() error { return e.rich }

// TextCode returns the machine readable code, e.g. "NOT_FOUND".
func (e *Error) TextCode() string { return e.rich.TextCode }

// HTTPStatus maps an error to a response status.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// Message returns the user-facing message for err. Server-side failures
// answer with a generic text; the detail stays in Error for logging.
func Message(err error) string {
	switch status := HTTPStatus(err); {
	case status == http.StatusServiceUnavailable:
		return ErrStorageUnavailable.Error()
	case status >= http.StatusInternalServerError:
		return "internal error"
	}
	var e *Error
	if errors.As(err, &e) {
		return e.msg
	}
	return err.Error()
}
