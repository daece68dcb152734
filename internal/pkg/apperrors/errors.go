package apperrors

import (
	"errors"
	"fmt"
)

// Validation errors. The specific variants wrap ErrValidationFailed so a
// single errors.Is check maps all of them to a 400.
var (
	ErrValidationFailed     = errors.New("validation failed")
	ErrMissingFields        = fmt.Errorf("%w: missing required fields", ErrValidationFailed)
	ErrInvalidEmailFormat   = fmt.Errorf("%w: invalid email format", ErrValidationFailed)
	ErrWeakPassword         = fmt.Errorf("%w: password too short", ErrValidationFailed)
	ErrInvalidStudentFields = fmt.Errorf("%w: invalid student fields", ErrValidationFailed)
)

// Resource errors
var (
	ErrNotFound       = errors.New("resource not found")
	ErrInvalidID      = errors.New("invalid resource id")
	ErrDuplicateEmail = errors.New("duplicate email")
)

// Authentication and authorization errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("not authorized")
	ErrForbidden          = errors.New("forbidden")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("invalid token")
)

// CustomError represents application-specific errors with additional context
type CustomError struct {
	Err     error
	Message string
	// Fields holds per-field messages for validation failures.
	Fields []string
}

// Error implements error interface
func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements errors.Unwrap interface
func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewCustomError creates a CustomError with underlying error
func NewCustomError(err error, message string) *CustomError {
	return &CustomError{
		Err:     err,
		Message: message,
	}
}

// WithFields attaches field level messages
func (e *CustomError) WithFields(fields ...string) *CustomError {
	e.Fields = append(e.Fields, fields...)
	return e
}

// NewValidationError wraps ErrValidationFailed with field messages.
func NewValidationError(message string, fields ...string) error {
	return NewCustomError(ErrValidationFailed, message).WithFields(fields...)
}

// NewNotFoundError reports a missing record by its id.
func NewNotFoundError(id string) error {
	return NewCustomError(ErrNotFound, fmt.Sprintf("Resource not found with id of %s", id))
}

// NewForbiddenError creates a new custom error for permission denied with a message
func NewForbiddenError(message string) error {
	return NewCustomError(ErrForbidden, message)
}

// Is returns whether err matches target or any of errList
func Is(err, target error, errList ...error) bool {
	if errors.Is(err, target) {
		return true
	}
	for _, e := range errList {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}

// Message returns the user facing message carried by err, or fallback.
func Message(err error, fallback string) string {
	var ce *CustomError
	if errors.As(err, &ce) && ce.Message != "" {
		return ce.Message
	}
	return fallback
}

// Fields returns the field messages carried by err, if any.
func Fields(err error) []string {
	var ce *CustomError
	if errors.As(err, &ce) {
		return ce.Fields
	}
	return nil
}
