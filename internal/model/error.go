package model

import (
	"errors"
	"fmt"
)

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON       = "INVALID_JSON"
	ErrCodeValidation        = "VALIDATION_FAILED"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeCategoryNotEmpty  = "CATEGORY_NOT_EMPTY"
	ErrCodeInvalidStatus     = "INVALID_ORDER_STATUS"
	ErrCodeInvalidQuantity   = "INVALID_QUANTITY"
	ErrCodeInvalidCredential = "INVALID_CREDENTIALS"
	ErrCodeUnauthorised      = "UNAUTHORIZED"
	ErrCodeInternalError     = "INTERNAL_ERROR"
)

// Domain errors for business logic
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound           = NewDomainError(ErrCodeNotFound, "resource not found")
	ErrCategoryNotEmpty   = NewDomainError(ErrCodeCategoryNotEmpty, "category still has products")
	ErrInvalidStatus      = NewDomainError(ErrCodeInvalidStatus, "status must be one of 1, 2, 3 or 4")
	ErrInvalidQuantity    = NewDomainError(ErrCodeInvalidQuantity, "quantity must be greater than zero")
	ErrInvalidCredentials = NewDomainError(ErrCodeInvalidCredential, "invalid username or password")
	ErrUnauthorised       = NewDomainError(ErrCodeUnauthorised, "authentication required")
)

// ValidationError is a client-side input failure. It is reported against a
// single field and never leaves the form that produced it.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError creates a new field validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// IsValidation reports whether err is or wraps a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
