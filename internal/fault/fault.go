// Package fault defines the typed error conditions of the lifecycle
// controller and their mapping to HTTP status codes. Operations return these
// instead of raising ad hoc errors so the HTTP boundary can map outcomes to
// status codes deterministically.
package fault

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error condition.
type Kind int

const (
	// KindInternal is any unexpected store or queue failure. Detail is
	// logged server-side and never echoed to the caller.
	KindInternal Kind = iota
	// KindValidation is malformed input or an out-of-range field.
	KindValidation
	// KindConflict is a wrong lifecycle state or a lost lock race.
	KindConflict
	// KindPreconditionFailed is a stale concurrency token.
	KindPreconditionFailed
	// KindNotFound is an absent record.
	KindNotFound
)

// Code is the machine-readable error identifier used in response bodies.
func (k Kind) Code() string {
	switch k {
	case KindValidation:
		return "VALIDATION_ERROR"
	case KindConflict:
		return "CONFLICT"
	case KindPreconditionFailed:
		return "PRECONDITION_FAILED"
	case KindNotFound:
		return "NOT_FOUND"
	default:
		return "INTERNAL_ERROR"
	}
}

// HTTPStatus maps the kind to its response status code.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindPreconditionFailed:
		return http.StatusPreconditionFailed
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Error is a condition tagged with its Kind. The message is safe to return
// to callers for every kind except KindInternal.
type Error struct {
	kind  Kind
	msg   string
	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.cause)
	}
	return e.msg
}

func (e *Error) Unwrap() error { return e.cause }

// Kind returns the classification of the error.
func (e *Error) Kind() Kind { return e.kind }

// Message returns the caller-safe message without wrapped cause detail.
func (e *Error) Message() string { return e.msg }

// New builds a tagged error.
func New(kind Kind, format string, args ...any) error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...)}
}

// Wrap tags an underlying error with a kind and a caller-safe message.
func Wrap(kind Kind, cause error, format string, args ...any) error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...), cause: cause}
}

// Validation builds a KindValidation error.
func Validation(format string, args ...any) error {
	return New(KindValidation, format, args...)
}

// Conflict builds a KindConflict error.
func Conflict(format string, args ...any) error {
	return New(KindConflict, format, args...)
}

// PreconditionFailed builds a KindPreconditionFailed error.
func PreconditionFailed(format string, args ...any) error {
	return New(KindPreconditionFailed, format, args...)
}

// NotFound builds a KindNotFound error.
func NotFound(format string, args ...any) error {
	return New(KindNotFound, format, args...)
}

// Internal wraps an unexpected failure.
func Internal(cause error, format string, args ...any) error {
	return &Error{kind: KindInternal, msg: fmt.Sprintf(format, args...), cause: cause}
}

// IsTagged reports whether err (or anything it wraps) carries an explicit
// fault kind.
func IsTagged(err error) bool {
	var fe *Error
	return errors.As(err, &fe)
}

// KindOf walks the wrap chain and returns the kind of the first tagged
// error, or KindInternal if none is found.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.kind
	}
	return KindInternal
}

// MessageOf returns the caller-safe message of a tagged error, or a generic
// message for untagged (internal) errors.
func MessageOf(err error) string {
	var fe *Error
	if errors.As(err, &fe) && fe.kind != KindInternal {
		return fe.msg
	}
	return "internal server error"
}
