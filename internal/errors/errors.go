package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes for categorizing errors
const (
	ErrConfig    = "CONFIG"
	ErrTransport = "TRANSPORT"
	ErrNotFound  = "NOT_FOUND"
	ErrMalformed = "MALFORMED"
	ErrTUI       = "TUI"
)

// Error represents a structured error with code, message, suggestion, and optional cause.
// Rendered as:
//
//	✗ <What failed>
//
//	  <Why it failed - technical details>
//
//	  <How to fix it - actionable steps>
type Error struct {
	Code       string
	Message    string
	Suggestion string
	Cause      error
}

// New creates a new structured error with the given code, message, and suggestion.
func New(code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
	}
}

// Wrap wraps an existing error with a message, defaulting to ErrTransport code.
func Wrap(err error, message string) *Error {
	return &Error{
		Code:    ErrTransport,
		Message: message,
		Cause:   err,
	}
}

// WrapWithCode wraps an existing error with a specific code, message, and suggestion.
func WrapWithCode(err error, code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
		Cause:      err,
	}
}

// NotFound reports an absent resource such as a missing stream or the end of one.
func NotFound(resource string) *Error {
	return &Error{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

// Malformed reports a payload whose shape the dashboard cannot interpret.
func Malformed(err error, what string) *Error {
	return &Error{
		Code:       ErrMalformed,
		Message:    fmt.Sprintf("Unexpected %s payload", what),
		Suggestion: "The server returned data in a format this version does not understand",
		Cause:      err,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("✗ %s\n", e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Cause.Error()))
	}

	if e.Suggestion != "" {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Suggestion))
	}

	return b.String()
}

// Unwrap returns the underlying cause for use with errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsCode checks if an error is a structured Error with the given code.
func IsCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var esErr *Error
	if errors.As(err, &esErr) {
		return esErr.Code == code
	}
	return false
}

// IsNotFound reports whether err marks a missing resource.
func IsNotFound(err error) bool {
	return IsCode(err, ErrNotFound)
}

// IsTransport reports whether err is a failed or unreachable remote call.
func IsTransport(err error) bool {
	return IsCode(err, ErrTransport)
}

// IsMalformed reports whether err is an unexpected payload shape.
func IsMalformed(err error) bool {
	return IsCode(err, ErrMalformed)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}
