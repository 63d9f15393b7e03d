// Package domain defines core types, interfaces, and errors for the Druid connector.
package domain

import "fmt"

// NotFoundError indicates a datasource or column was not found.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// ValidationError indicates invalid input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// UnsupportedError indicates a query that cannot be correctly computed by
// push-down, as opposed to one that is merely not expressible. Callers must
// surface it instead of silently falling back to a different evaluation path.
type UnsupportedError struct {
	Message string
}

func (e *UnsupportedError) Error() string { return e.Message }

// ErrNotFound creates a NotFoundError with a formatted message.
func ErrNotFound(format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ErrUnsupported creates an UnsupportedError with a formatted message.
func ErrUnsupported(format string, args ...interface{}) *UnsupportedError {
	return &UnsupportedError{Message: fmt.Sprintf(format, args...)}
}
