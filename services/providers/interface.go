package providers

import (
	"context"
	"errors"
	"time"
)

// ModelInvoker sends a JSON request body to a hosted model and decodes the
// JSON response body. Implementations must be safe for concurrent use.
type ModelInvoker interface {
	// Name returns the provider name (e.g., "bedrock")
	Name() string

	// InvokeJSON marshals request, invokes modelID and unmarshals the reply into response
	InvokeJSON(ctx context.Context, modelID string, request, response interface{}) error
}

// ProviderConfig holds common configuration for providers
type ProviderConfig struct {
	// Region of the managed service
	Region string

	// AccessKeyID and SecretAccessKey are static credentials. When both are
	// empty the default credential chain is used.
	AccessKeyID     string
	SecretAccessKey string

	// Timeout for a single request
	Timeout time.Duration
}

// DefaultProviderConfig returns a sensible default configuration
func DefaultProviderConfig() ProviderConfig {
	return ProviderConfig{
		Region:  "us-east-1",
		Timeout: 30 * time.Second,
	}
}

// ProviderError represents an error from a provider
type ProviderError struct {
	// Provider that generated the error
	Provider string

	// Code is the error code
	Code string

	// Message is the error message
	Message string

	// StatusCode is the HTTP status code (if applicable)
	StatusCode int

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap implements error unwrapping
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// NewProviderError creates a new provider error
func NewProviderError(provider, code, message string, statusCode int, cause error) *ProviderError {
	return &ProviderError{
		Provider:   provider,
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Cause:      cause,
	}
}

// StatusCode extracts the upstream HTTP status from err, or 0 when unknown.
func StatusCode(err error) int {
	var provErr *ProviderError
	if errors.As(err, &provErr) {
		return provErr.StatusCode
	}
	return 0
}
