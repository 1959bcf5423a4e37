package apierror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an API error. Handlers map kinds to HTTP statuses 1:1.
type Kind string

const (
	KindBadRequest       Kind = "BadRequest"
	KindUnauthorized     Kind = "Unauthorized"
	KindForbidden        Kind = "Forbidden"
	KindNotFound         Kind = "NotFound"
	KindConflict         Kind = "Conflict"
	KindOperatorMismatch Kind = "OperatorMismatch"
	KindValidationError  Kind = "ValidationError"
	KindDatabaseError    Kind = "DatabaseError"
	KindInternal         Kind = "InternalServerError"
)

// Error is the typed error carried across the core packages. All core
// functions return these; no panics for control flow.
type Error struct {
	Kind    Kind   `json:"error"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Status returns the HTTP status code the kind maps to.
func (e *Error) Status() int {
	switch e.Kind {
	case KindBadRequest, KindOperatorMismatch, KindValidationError:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func BadRequest(format string, args ...any) *Error {
	return &Error{Kind: KindBadRequest, Message: fmt.Sprintf(format, args...)}
}

func Unauthorized() *Error {
	// Always the same message, whatever failed during authentication.
	return &Error{Kind: KindUnauthorized, Message: "Authentication failure"}
}

func Forbidden(format string, args ...any) *Error {
	return &Error{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func OperatorMismatch(format string, args ...any) *Error {
	return &Error{Kind: KindOperatorMismatch, Message: fmt.Sprintf(format, args...)}
}

func Database(err error) *Error {
	return &Error{Kind: KindDatabaseError, Message: err.Error()}
}

func Internal(format string, args ...any) *Error {
	return &Error{Kind: KindInternal, Message: fmt.Sprintf(format, args...)}
}

// From returns err as an *Error, wrapping anything else as a DatabaseError.
func From(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return Database(err)
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, k Kind) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == k
}
