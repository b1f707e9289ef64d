package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound covers both a truly absent conversation and one owned by
	// another user; callers must not be able to tell the two apart.
	ErrNotFound = errors.New("conversation not found")

	// ErrInvalidID marks a conversation id that fails format validation
	// before any store lookup happens.
	ErrInvalidID = errors.New("invalid conversation id")

	// ErrUserNotFound is returned by user lookups.
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailTaken is returned on registration with a duplicate email.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials covers both unknown email and wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// ValidationError reports malformed or out-of-range input. It maps to a
// 400 response and is never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

// NewValidationError builds a ValidationError for one field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
