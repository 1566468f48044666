// Package domainerrors defines the coded error type returned by certitrack
// services. Codes classify failures for transport mapping and for callers
// that need to branch on the failure class (a lost transition race reads
// differently from a missing precondition).
package domainerrors

import (
	"errors"
	"fmt"
)

type Code string

const (
	// CodeNotFound: the request id does not exist.
	CodeNotFound Code = "not_found"
	// CodeIllegalTransition: target state unreachable from the current state.
	CodeIllegalTransition Code = "illegal_transition"
	// CodeUnauthorizedRole: the acting role may not perform this transition.
	CodeUnauthorizedRole Code = "unauthorized_role"
	// CodePreconditionUnmet: a target-state invariant failed.
	CodePreconditionUnmet Code = "precondition_unmet"
	// CodeStorageUnavailable: the atomic write could not be attempted or
	// committed. Retryable, unlike the business-rule codes above.
	CodeStorageUnavailable Code = "storage_unavailable"
	CodeBadRequest         Code = "bad_request"
	CodeUnauthorized       Code = "unauthorized"
	CodeInternal           Code = "internal_error"
)

// Error carries a machine-readable code alongside a human-readable message.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return string(e.Code) + ": " + e.Message
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Is reports whether err (or anything it wraps) carries the given code.
func Is(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal for
// errors that did not originate in a service.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf extracts the message from err, or the raw error text otherwise.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return err.Error()
}
