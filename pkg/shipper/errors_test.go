package shipper_test

import (
	"errors"
	"testing"

	"github.com/cartbridge/fulfillment/pkg/shipper"
	"github.com/stretchr/testify/assert"
)

func TestProviderError_Error(t *testing.T) {
	err := shipper.NewProviderError("shipStation", "INVALID_ADDRESS", "Invalid postal code")
	assert.Equal(t, "shipStation error (INVALID_ADDRESS): Invalid postal code", err.Error())
}

func TestProviderError_ErrorWithCause(t *testing.T) {
	cause := errors.New("network timeout")
	err := shipper.NewProviderError("shipStation", "API_ERROR", "API call failed").WithCause(cause)
	assert.Contains(t, err.Error(), "API call failed")
	assert.Contains(t, err.Error(), "network timeout")
}

func TestProviderError_Unwrap(t *testing.T) {
	cause := errors.New("network timeout")
	err := shipper.NewProviderError("shipStation", "API_ERROR", "API call failed").WithCause(cause)
	assert.True(t, errors.Is(err, cause))
}

func TestProviderError_Is(t *testing.T) {
	err1 := shipper.NewProviderError("shipStation", "INVALID_ADDRESS", "Invalid postal code")
	err2 := shipper.NewProviderError("other", "INVALID_ADDRESS", "Different message")

	// Same code should match
	assert.True(t, errors.Is(err1, err2))
}

func TestProviderError_IsNot(t *testing.T) {
	err1 := shipper.NewProviderError("shipStation", "INVALID_ADDRESS", "Invalid postal code")
	err2 := shipper.NewProviderError("shipStation", "DIFFERENT_CODE", "Different error")

	// Different codes should not match
	assert.False(t, errors.Is(err1, err2))
}

func TestProviderError_WithStatusCode(t *testing.T) {
	err := shipper.NewProviderError("shipStation", "AUTH_FAILED", "Unauthorized").WithStatusCode(401)
	assert.Equal(t, 401, err.StatusCode)
}

func TestProviderError_WithRetryable(t *testing.T) {
	err := shipper.NewProviderError("shipStation", "RATE_LIMIT", "Too many requests").WithRetryable(true)
	assert.True(t, err.Retryable)
}

func TestIsRetryable_ProviderError(t *testing.T) {
	err := shipper.NewProviderError("shipStation", "RATE_LIMIT", "Too many requests").WithRetryable(true)
	assert.True(t, shipper.IsRetryable(err))
}

func TestIsRetryable_ProviderErrorNotRetryable(t *testing.T) {
	err := shipper.NewProviderError("shipStation", "INVALID_ADDRESS", "Bad address").WithRetryable(false)
	assert.False(t, shipper.IsRetryable(err))
}

func TestIsRetryable_ServiceUnavailable(t *testing.T) {
	assert.True(t, shipper.IsRetryable(shipper.ErrServiceUnavailable))
}

func TestIsRetryable_RateLimitExceeded(t *testing.T) {
	assert.True(t, shipper.IsRetryable(shipper.ErrRateLimitExceeded))
}

func TestIsRetryable_InvalidPackage(t *testing.T) {
	assert.False(t, shipper.IsRetryable(shipper.ErrInvalidPackage))
}

func TestSentinelErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrProviderNotConfigured", shipper.ErrProviderNotConfigured},
		{"ErrProviderNotFound", shipper.ErrProviderNotFound},
		{"ErrAuthenticationFailed", shipper.ErrAuthenticationFailed},
		{"ErrServiceUnavailable", shipper.ErrServiceUnavailable},
		{"ErrRateLimitExceeded", shipper.ErrRateLimitExceeded},
		{"ErrOrderNotFound", shipper.ErrOrderNotFound},
		{"ErrInvalidPackage", shipper.ErrInvalidPackage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}
