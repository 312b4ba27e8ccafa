// Package ferr defines the closed error taxonomy shared by all connectors.
// Every failure a connector can surface carries exactly one Code so callers
// can classify without string matching.
package ferr

import (
	"errors"
	"fmt"
)

// Code represents a stable error category that callers can switch on.
type Code string

const (
	CodeUnknown Code = "unknown"
	// CodeAuth is a rejected login exchange. Fatal for the current
	// operation and never auto-retried.
	CodeAuth Code = "auth_failed"
	// CodeInvocation is a non-zero exit or non-2xx response from the
	// backend, with diagnostic output attached.
	CodeInvocation Code = "backend_invocation"
	// CodeDecode means the call succeeded at the transport level but the
	// payload could not be decoded.
	CodeDecode Code = "decode_failed"
	// CodeMissingField means a well-formed payload lacked an expected
	// field, which usually indicates a backend contract change.
	CodeMissingField Code = "missing_field"
	// CodeResource is a failure preparing a local resource (e.g. the
	// temporary job script) before any backend call was attempted.
	CodeResource Code = "resource_prep"
)

// Error is a simple value type that carries a Code plus the underlying error.
type Error struct {
	Code Code
	err  error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.err == nil {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %v", e.Code, e.err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.err
}

// New wraps an error with the provided code. If err is nil a nil is returned.
func New(code Code, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, err: err}
}

// Newf is shorthand for New(code, fmt.Errorf(...)).
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, err: fmt.Errorf(format, args...)}
}

// IsCode helps callers compare codes without type assertions. It looks
// through wrapped errors.
func IsCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// CodeOf returns the code of err, or CodeUnknown when err carries none.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}
