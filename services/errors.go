package services

import (
	"context"
	"errors"
	"fmt"
)

// ErrorType represents the type/category of error
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeUpstream   ErrorType = "upstream"
	ErrorTypeTimeout    ErrorType = "timeout"
	ErrorTypeInternal   ErrorType = "internal"
)

// Client-facing messages. These are part of the public API contract and must
// not change without a frontend release.
const (
	MsgInvalidBody        = `Invalid request body. "messages" must be an array.`
	MsgLastMessageNotUser = "Last message must be from user."
	MsgMethodNotAllowed   = "Method not allowed. Use POST."
	MsgGenerationFailed   = "Failed to generate response"
	MsgUpstreamTimeout    = "Upstream service timed out"
)

// DomainError represents a structured error with additional context
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
	Details map[string]interface{}
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is. Two domain errors match when they share a type and message.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type && (t.Message == "" || e.Message == t.Message)
}

// WithDetail adds a detail to the error
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewDomainError creates a new domain error
func NewDomainError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
		Details: make(map[string]interface{}),
	}
}

var (
	// Validation errors surfaced verbatim to the caller
	ErrInvalidBody        = NewDomainError(ErrorTypeValidation, MsgInvalidBody, nil)
	ErrLastMessageNotUser = NewDomainError(ErrorTypeValidation, MsgLastMessageNotUser, nil)
	ErrEmptyText          = NewDomainError(ErrorTypeValidation, "text to embed cannot be empty", nil)
)

// NewUpstreamError wraps a failure talking to one of the managed services.
// A context deadline in the chain turns it into a timeout error instead.
func NewUpstreamError(service, message string, err error) *DomainError {
	errType := ErrorTypeUpstream
	if errors.Is(err, context.DeadlineExceeded) {
		errType = ErrorTypeTimeout
	}
	return NewDomainError(errType, message, err).WithDetail("service", service)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return GetErrorType(err) == ErrorTypeValidation
}

// IsUpstreamError checks if an error is an upstream service error
func IsUpstreamError(err error) bool {
	return GetErrorType(err) == ErrorTypeUpstream
}

// IsTimeoutError checks if an error is an upstream timeout
func IsTimeoutError(err error) bool {
	return GetErrorType(err) == ErrorTypeTimeout
}

// IsInternalError checks if an error is an internal error
func IsInternalError(err error) bool {
	return GetErrorType(err) == ErrorTypeInternal
}

// GetErrorType returns the ErrorType of a domain error, or empty string if not a domain error
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ""
}

// GetErrorDetails returns the details map of a domain error, or nil if not a domain error
func GetErrorDetails(err error) map[string]interface{} {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Details
	}
	return nil
}

// WrapInternal wraps an error as an internal error
func WrapInternal(message string, err error) error {
	return NewDomainError(ErrorTypeInternal, message, err)
}
