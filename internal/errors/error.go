package errors

import (
	stderrors "errors"
	"fmt"
)

// Category represents the type of error.
type Category string

const (
	CategoryRender   Category = "render"
	CategoryHost     Category = "host"
	CategorySchedule Category = "schedule"
	CategoryConfig   Category = "config"
	CategoryCLI      Category = "cli"
)

// LeyError is a structured error with a stable code, a component path and a hint.
type LeyError struct {
	// Code is a unique error identifier (e.g., "E101").
	Code string

	// Category is the error type (render, host, ...).
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Component is the name of the component being rendered or committed, if any.
	Component string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *LeyError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	if e.Component != "" {
		msg += " in <" + e.Component + ">"
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *LeyError) Unwrap() error {
	return e.Wrapped
}

// WithComponent records the component the error occurred in.
func (e *LeyError) WithComponent(name string) *LeyError {
	e.Component = name
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *LeyError) WithSuggestion(s string) *LeyError {
	e.Suggestion = s
	return e
}

// WithDetail replaces the registered explanation.
func (e *LeyError) WithDetail(d string) *LeyError {
	e.Detail = d
	return e
}

// Wrap wraps another error.
func (e *LeyError) Wrap(err error) *LeyError {
	e.Wrapped = err
	return e
}

// New creates a LeyError from a registered error code.
func New(code string) *LeyError {
	template, ok := registry[code]
	if !ok {
		return &LeyError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &LeyError{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
		Detail:   template.Detail,
	}
}

// Newf creates a new LeyError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *LeyError {
	return &LeyError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in a LeyError.
// Errors that already are LeyErrors are returned unchanged.
func FromError(err error, code string) *LeyError {
	if err == nil {
		return nil
	}
	var le *LeyError
	if stderrors.As(err, &le) {
		return le
	}
	return New(code).Wrap(err)
}

// HasCode reports whether any LeyError in err's chain carries code.
func HasCode(err error, code string) bool {
	for err != nil {
		if le, ok := err.(*LeyError); ok && le.Code == code {
			return true
		}
		err = stderrors.Unwrap(err)
	}
	return false
}

// CodeOf returns the code of the first LeyError in err's chain, or "" if
// there is none.
func CodeOf(err error) string {
	var le *LeyError
	if stderrors.As(err, &le) {
		return le.Code
	}
	return ""
}
