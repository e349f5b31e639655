package llm

import (
	"errors"
	"strings"

	"github.com/CodeNeuron58/RxGuard/internal/types"
)

// LLM error codes follow the RxGuard error pattern
const (
	// Provider errors
	ErrProviderNotFound     types.ErrorCode = "LLM_PROVIDER_NOT_FOUND"
	ErrProviderUnavailable  types.ErrorCode = "LLM_PROVIDER_UNAVAILABLE"
	ErrProviderRateLimited  types.ErrorCode = "LLM_PROVIDER_RATE_LIMITED"
	ErrProviderUnauthorized types.ErrorCode = "LLM_PROVIDER_UNAUTHORIZED"

	// Request errors
	ErrInvalidRequest types.ErrorCode = "LLM_INVALID_REQUEST"

	// Completion errors
	ErrCompletionFailed    types.ErrorCode = "LLM_COMPLETION_FAILED"
	ErrResponseParseFailed types.ErrorCode = "LLM_RESPONSE_PARSE_FAILED"
	ErrTimeoutExceeded     types.ErrorCode = "LLM_TIMEOUT_EXCEEDED"
	ErrContextCanceled     types.ErrorCode = "LLM_CONTEXT_CANCELED"

	// Network errors
	ErrNetworkFailed types.ErrorCode = "LLM_NETWORK_FAILED"
)

// IsRetryable determines if an error is transient and may succeed on retry.
// This drives the single-retry policy on pipeline backend calls.
//
// The whole unwrap chain is inspected, so a provider timeout stays retryable
// after a stage wraps it in its own error code.
func IsRetryable(err error) bool {
	for err != nil {
		var rxErr *types.RxError
		if !errors.As(err, &rxErr) {
			return false
		}

		if rxErr.Retryable {
			return true
		}

		switch rxErr.Code {
		// Network, rate-limit, availability, and timeout errors may succeed on retry
		case ErrNetworkFailed, ErrProviderRateLimited, ErrProviderUnavailable, ErrTimeoutExceeded:
			return true

		// Cancellations and invalid requests are terminal no matter what
		// they wrap.
		case ErrContextCanceled, ErrInvalidRequest:
			return false
		}

		err = rxErr.Unwrap()
	}
	return false
}

// NewProviderUnavailableError creates a retryable error for when a provider is temporarily unavailable
func NewProviderUnavailableError(providerName string, cause error) *types.RxError {
	return &types.RxError{
		Code:      ErrProviderUnavailable,
		Message:   "provider temporarily unavailable: " + providerName,
		Retryable: true,
		Cause:     cause,
	}
}

// NewCompletionError creates an error for completion failures
func NewCompletionError(message string, cause error) *types.RxError {
	return types.WrapError(ErrCompletionFailed, message, cause)
}

// NewParseError creates an error for unparseable model output
func NewParseError(message string, cause error) *types.RxError {
	return types.WrapError(ErrResponseParseFailed, message, cause)
}

// NewTimeoutError creates a retryable error for timeout failures
func NewTimeoutError(message string) *types.RxError {
	return &types.RxError{
		Code:      ErrTimeoutExceeded,
		Message:   message,
		Retryable: true,
		Cause:     nil,
	}
}

// NewCanceledError creates a non-retryable error for context cancellation
func NewCanceledError(cause error) *types.RxError {
	return &types.RxError{
		Code:    ErrContextCanceled,
		Message: "completion canceled",
		Cause:   cause,
	}
}

// NewAuthError creates a non-retryable error for missing or rejected credentials
func NewAuthError(provider string, cause error) *types.RxError {
	return &types.RxError{
		Code:    ErrProviderUnauthorized,
		Message: "provider authorization failed: " + provider,
		Cause:   cause,
	}
}

// NewRateLimitError creates a retryable error for rate limiting
func NewRateLimitError(provider string) *types.RxError {
	return &types.RxError{
		Code:      ErrProviderRateLimited,
		Message:   "provider rate limited: " + provider,
		Retryable: true,
	}
}

// NewNetworkError creates a retryable error for network failures
func NewNetworkError(message string, cause error) *types.RxError {
	return &types.RxError{
		Code:      ErrNetworkFailed,
		Message:   message,
		Retryable: true,
		Cause:     cause,
	}
}

// TranslateError maps raw provider client errors onto RxGuard error codes
// by message content. Errors already carrying a code pass through untouched.
func TranslateError(provider string, err error) error {
	if err == nil {
		return nil
	}

	var rxErr *types.RxError
	if errors.As(err, &rxErr) {
		return err
	}

	lowerMsg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(lowerMsg, "unauthorized") || strings.Contains(lowerMsg, "authentication") || strings.Contains(lowerMsg, "api key"):
		return NewAuthError(provider, err)
	case strings.Contains(lowerMsg, "rate limit") || strings.Contains(lowerMsg, "too many requests"):
		return NewRateLimitError(provider)
	case strings.Contains(lowerMsg, "timeout") || strings.Contains(lowerMsg, "deadline"):
		return NewTimeoutError(err.Error())
	case strings.Contains(lowerMsg, "network") || strings.Contains(lowerMsg, "connection"):
		return NewNetworkError(err.Error(), err)
	default:
		return NewProviderUnavailableError(provider, err)
	}
}
