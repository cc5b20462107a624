// Package domainerrors provides coded errors for domain-level failures.
//
// Stores return sentinel errors (pkg/platform/sentinel) for infrastructure
// facts; services translate those into coded domain errors so transport
// layers can map them to responses without inspecting error strings.
package domainerrors

import "fmt"

// Code classifies a domain error.
type Code string

const (
	CodeInvalidInput Code = "invalid_input"
	CodeNotFound     Code = "not_found"
	CodeUnauthorized Code = "unauthorized"
	CodeConflict     Code = "conflict"
	CodeInternal     Code = "internal"
)

// Error is a coded domain error. It optionally wraps a cause.
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

// New creates a coded domain error.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates a coded domain error wrapping a cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// CodeOf extracts the code from an error, defaulting to CodeInternal.
func CodeOf(err error) Code {
	if de, ok := err.(*Error); ok {
		return de.Code
	}
	return CodeInternal
}
