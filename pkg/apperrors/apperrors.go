// Package apperrors defines the error categories the API surfaces:
// not-found, validation, and wrapped persistence failures. Handlers map
// them onto HTTP status codes; anything else is treated as an internal
// error.
package apperrors

import (
	"errors"
	"fmt"
)

// NotFoundError indicates a referenced resource does not exist. Operations
// detect it before performing any write.
type NotFoundError struct {
	Resource string
	ID       any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s #%v not found", e.Resource, e.ID)
}

// NewNotFound builds a NotFoundError for the named resource.
func NewNotFound(resource string, id any) error {
	return &NotFoundError{Resource: resource, ID: id}
}

// ValidationError indicates a violated precondition: wrong source type,
// empty item list, non-positive quantity. Never retried.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidation builds a ValidationError with a formatted message.
func NewValidation(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
