// Package apperr defines the error kinds surfaced by the ledger and how they
// map onto HTTP responses.
package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies an error for the caller.
type Kind string

const (
	// KindInternal is any failure the caller cannot act on.
	KindInternal Kind = "INTERNAL"
	// KindConflict is a duplicate unique key on create.
	KindConflict Kind = "CONFLICT"
	// KindAuthentication covers bad credentials and every token failure.
	KindAuthentication Kind = "AUTHENTICATION"
	// KindValidation is a field that violates a domain constraint.
	KindValidation Kind = "VALIDATION"
	// KindNotFound is a lookup or filtered mutation that matched nothing.
	KindNotFound Kind = "NOT_FOUND"
)

// HTTPStatus maps a kind to its response status.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindConflict:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified error. Message is safe to show to clients.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

// Sentinels for errors.Is checks.
var (
	ErrConflict       = &Error{Kind: KindConflict}
	ErrAuthentication = &Error{Kind: KindAuthentication}
	ErrValidation     = &Error{Kind: KindValidation}
	ErrNotFound       = &Error{Kind: KindNotFound}
)

// New creates an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an error of the given kind around a cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Conflict reports a duplicate unique key.
func Conflict(message string) *Error { return New(KindConflict, message) }

// Authentication reports a failed authentication check.
func Authentication(message string) *Error { return New(KindAuthentication, message) }

// Validation reports an invalid field.
func Validation(message string) *Error { return New(KindValidation, message) }

// NotFound reports a missing record.
func NotFound(message string) *Error { return New(KindNotFound, message) }

// KindOf returns the kind of the first *Error in err's chain, or
// KindInternal when there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// PublicMessage returns the message a client may see. Internal errors are
// never described.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return e.Message
	}
	return "Internal server error"
}
