// Package apperr defines the error taxonomy shared by all membank layers.
//
// Gateways and operations propagate these errors upward without catching;
// the MCP dispatcher is the single point that translates them into the
// protocol's error envelope.
package apperr

import (
	"context"
	"errors"
	"fmt"
)

// Code classifies an error for the dispatcher and for callers that branch
// on failure kind.
type Code string

const (
	CodeSessionUnbound  Code = "SESSION_UNBOUND"
	CodeSessionMismatch Code = "SESSION_MISMATCH"
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeNotFound        Code = "NOT_FOUND"
	CodeConflict        Code = "CONFLICT"
	CodeEngineError     Code = "ENGINE_ERROR"
	CodeIoError         Code = "IO_ERROR"
	CodeCancelled       Code = "CANCELLED"
	CodeInternal        Code = "INTERNAL"
)

// Error is a coded error with an optional wrapped cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is an *Error with the same code. This makes
// errors.Is(err, apperr.New(CodeNotFound, "")) work for code matching.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// New creates a coded error.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying cause. If cause is
// already a coded error its code wins unless it is CodeInternal; context
// cancellation surfaces as CodeCancelled regardless of the suggested code.
func Wrap(cause error, code Code, format string, args ...any) *Error {
	if cause == nil {
		return nil
	}
	var prior *Error
	switch {
	case errors.As(cause, &prior) && prior.Code != CodeInternal:
		code = prior.Code
	case errors.Is(cause, context.Canceled) || errors.Is(cause, context.DeadlineExceeded):
		code = CodeCancelled
	}
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// CodeOf extracts the code from err, defaulting to CodeInternal for
// uncoded errors and CodeCancelled for context cancellation.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return CodeCancelled
	}
	return CodeInternal
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}
