package shipper

import (
	"errors"
	"fmt"
)

// ProviderError represents an error from a shipping provider's API.
type ProviderError struct {
	Provider   string
	Code       string
	Message    string
	StatusCode int
	Retryable  bool
	Cause      error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s error (%s): %s: %v", e.Provider, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s error (%s): %s", e.Provider, e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is for ProviderError.
func (e *ProviderError) Is(target error) bool {
	t, ok := target.(*ProviderError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewProviderError creates a new ProviderError.
func NewProviderError(provider, code, message string) *ProviderError {
	return &ProviderError{
		Provider: provider,
		Code:     code,
		Message:  message,
	}
}

// WithCause adds a cause to the error.
func (e *ProviderError) WithCause(err error) *ProviderError {
	e.Cause = err
	return e
}

// WithStatusCode adds an HTTP status code to the error.
func (e *ProviderError) WithStatusCode(code int) *ProviderError {
	e.StatusCode = code
	return e
}

// WithRetryable marks the error as retryable.
func (e *ProviderError) WithRetryable(retryable bool) *ProviderError {
	e.Retryable = retryable
	return e
}

// Sentinel errors for common provider scenarios.
var (
	// ErrProviderNotConfigured indicates required provider settings are
	// missing.
	ErrProviderNotConfigured = errors.New("provider not configured")

	// ErrProviderNotFound indicates the requested provider is not
	// registered.
	ErrProviderNotFound = errors.New("provider not found")

	// ErrAuthenticationFailed indicates provider authentication failed.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrServiceUnavailable indicates the provider service is temporarily
	// unavailable.
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrRateLimitExceeded indicates the provider rate limit was
	// exceeded.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")

	// ErrOrderNotFound indicates the order was not found in the
	// provider's system.
	ErrOrderNotFound = errors.New("order not found")

	// ErrInvalidPackage indicates package dimensions or weight are
	// invalid.
	ErrInvalidPackage = errors.New("invalid package")
)

// IsRetryable returns true if the error is retryable.
func IsRetryable(err error) bool {
	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		return providerErr.Retryable
	}
	return errors.Is(err, ErrServiceUnavailable) || errors.Is(err, ErrRateLimitExceeded)
}
