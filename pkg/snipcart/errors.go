package snipcart

import (
	"errors"
	"fmt"
)

// Sentinel errors for the upstream API client.
var (
	// ErrNotConfigured indicates no secret API key is configured.
	// Raised before any network attempt.
	ErrNotConfigured = errors.New("snipcart client not configured")

	// ErrUnauthorized indicates the upstream rejected our credentials
	// with a 401. Unlike other HTTP failures this one always propagates.
	ErrUnauthorized = errors.New("unauthorized; check the secret API key")

	// ErrCacheMiss indicates the requested key is absent from the cache.
	ErrCacheMiss = errors.New("cache miss")
)

// APIError describes a failed request against the upstream API. It is
// logged rather than returned for everything except authentication
// failures; see Client for the propagation policy.
type APIError struct {
	Endpoint   string
	StatusCode int
	Body       string
	Cause      error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("snipcart api %s: %v", e.Endpoint, e.Cause)
	}
	return fmt.Sprintf("snipcart api %s responded with %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

// Unwrap returns the underlying cause.
func (e *APIError) Unwrap() error {
	return e.Cause
}
