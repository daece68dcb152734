package dto

import (
	"time"
)

// ErrorCode represents standardized error codes
type ErrorCode string

// Standard error codes for the application
const (
	// Authentication errors
	ErrorCodeInvalidCredentials ErrorCode = "AUTH_001"
	ErrorCodeInvalidToken       ErrorCode = "AUTH_005"
	ErrorCodeExpiredToken       ErrorCode = "AUTH_006"
	ErrorCodeUnauthorized       ErrorCode = "AUTH_008"
	ErrorCodeForbidden          ErrorCode = "AUTH_009"

	// Resource errors
	ErrorCodeResourceNotFound      ErrorCode = "RES_001"
	ErrorCodeResourceAlreadyExists ErrorCode = "RES_002"

	// Validation errors
	ErrorCodeValidationFailed ErrorCode = "VAL_001"

	// Server errors
	ErrorCodeInternalServer ErrorCode = "SRV_001"
)

// ErrorResponse represents the standard error response structure
type ErrorResponse struct {
	Success bool      `json:"success" example:"false"`
	Error   string    `json:"error" example:"Resource not found with id of 42"`
	Code    ErrorCode `json:"code" example:"RES_001"`
	// Errors lists per-field messages for validation failures.
	Errors []string `json:"errors,omitempty"`
	// Stack is only populated in development mode.
	Stack     string    `json:"stack,omitempty"`
	Timestamp time.Time `json:"timestamp" example:"2025-04-23T12:01:05.123Z"`
}

// NewErrorResponse creates a standard error response
func NewErrorResponse(code ErrorCode, message string) *ErrorResponse {
	return &ErrorResponse{
		Success:   false,
		Error:     message,
		Code:      code,
		Timestamp: time.Now(),
	}
}

// WithErrors attaches field messages
func (e *ErrorResponse) WithErrors(errs []string) *ErrorResponse {
	e.Errors = errs
	return e
}

// WithStack attaches a stack trace
func (e *ErrorResponse) WithStack(stack string) *ErrorResponse {
	e.Stack = stack
	return e
}
