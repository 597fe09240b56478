// Package dErrors defines coded domain errors.
//
// Services return these so handlers can map failures onto HTTP statuses
// without inspecting store internals. Stores return sentinel errors
// (pkg/platform/sentinel); services translate them into coded errors here.
package dErrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error.
type Code string

const (
	// CodeUnauthorized means no authenticated caller.
	CodeUnauthorized Code = "unauthorized"
	// CodeForbidden means the caller is authenticated but not entitled to
	// act on this entity.
	CodeForbidden Code = "forbidden"
	// CodeNotFound means the entity is absent, or deliberately masked as
	// absent to prevent enumeration.
	CodeNotFound Code = "not_found"
	// CodeInvalidState means the entity exists but is not in a state that
	// accepts the requested transition.
	CodeInvalidState Code = "invalid_state"
	// CodeExpired means a time-based terminal transition fired lazily at
	// access time.
	CodeExpired Code = "expired"

	CodeBadRequest   Code = "bad_request"
	CodeInvalidInput Code = "invalid_input"
	CodeConflict     Code = "conflict"
	CodeTimeout      Code = "timeout"
	CodeInternal     Code = "internal_error"
)

// Error carries a classification plus a human-readable message. The wrapped
// cause, if any, is for logs only and never reaches API responses.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New constructs a coded error with no underlying cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return New(code, message)
	}
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// Is is a readability alias for HasCode used at call sites that read like
// errors.Is checks.
func Is(err error, code Code) bool { return HasCode(err, code) }

// CodeOf extracts the code from err, defaulting to CodeInternal for
// unclassified errors so unexpected store failures never leak details.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf extracts the human-readable message from err. Unclassified
// errors get a generic message.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return "internal error"
}
