// Package errors provides the structured error type used on rake's
// configuration and CLI surfaces: a stable code, a category, a short
// message and an optional fix suggestion, with standard wrapping so
// errors.Is/As keep working.
package errors

import "fmt"

// Category classifies an error by the surface it belongs to.
type Category string

const (
	CategoryConfig  Category = "config"
	CategoryServer  Category = "server"
	CategoryStatic  Category = "static"
	CategorySession Category = "session"
	CategoryCLI     Category = "cli"
)

// Error is a structured rake error.
type Error struct {
	// Code is a stable identifier (e.g. "E101"), empty for ad-hoc
	// errors created with Newf.
	Code string

	// Category is the error surface.
	Category Category

	// Message is a short description.
	Message string

	// Detail is a longer explanation.
	Detail string

	// Suggestion is a hint on how to fix the problem.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Wrapped
}

// WithDetail adds a detailed explanation.
func (e *Error) WithDetail(d string) *Error {
	e.Detail = d
	return e
}

// WithSuggestion adds a fix suggestion.
func (e *Error) WithSuggestion(s string) *Error {
	e.Suggestion = s
	return e
}

// Wrap attaches an underlying error.
func (e *Error) Wrap(err error) *Error {
	e.Wrapped = err
	return e
}

// Format returns a multi-line rendering for terminal display.
func (e *Error) Format() string {
	out := "error"
	if e.Code != "" {
		out += " " + e.Code
	}
	out += ": " + e.Message
	if e.Detail != "" {
		out += "\n  " + e.Detail
	}
	if e.Wrapped != nil {
		out += "\n  cause: " + e.Wrapped.Error()
	}
	if e.Suggestion != "" {
		out += "\n  hint: " + e.Suggestion
	}
	return out
}

// New creates an Error from a registered code. Unknown codes still
// produce a usable error rather than panicking.
func New(code string) *Error {
	tmpl, ok := registry[code]
	if !ok {
		return &Error{Code: code, Message: "unknown error"}
	}
	return &Error{
		Code:     code,
		Category: tmpl.Category,
		Message:  tmpl.Message,
		Detail:   tmpl.Detail,
	}
}

// Newf creates an ad-hoc Error with a formatted message and no code.
func Newf(category Category, format string, args ...any) *Error {
	return &Error{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}
