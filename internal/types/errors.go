package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a namespaced error code for RxGuard errors.
type ErrorCode string

// Schema error codes
const (
	VALIDATION_FAILED ErrorCode = "VALIDATION_FAILED"
)

// Configuration error codes
const (
	CONFIG_LOAD_FAILED       ErrorCode = "CONFIG_LOAD_FAILED"
	CONFIG_PARSE_FAILED      ErrorCode = "CONFIG_PARSE_FAILED"
	CONFIG_VALIDATION_FAILED ErrorCode = "CONFIG_VALIDATION_FAILED"
)

// Pipeline stage error codes
const (
	EXTRACTION_FAILED     ErrorCode = "EXTRACTION_FAILED"
	RETRIEVAL_UNAVAILABLE ErrorCode = "RETRIEVAL_UNAVAILABLE"
	REASONING_FAILED      ErrorCode = "REASONING_FAILED"
	CRITIQUE_FAILED       ErrorCode = "CRITIQUE_FAILED"
	CITATION_UNSUPPORTED  ErrorCode = "CITATION_UNSUPPORTED"
	BACKEND_TIMEOUT       ErrorCode = "BACKEND_TIMEOUT"
	PIPELINE_FAILED       ErrorCode = "PIPELINE_FAILED"
	PIPELINE_CANCELLED    ErrorCode = "PIPELINE_CANCELLED"
)

// RxError represents a structured error with error code, message, and optional cause.
// It supports error wrapping and retryability hints for error handling logic.
type RxError struct {
	Code      ErrorCode
	Message   string
	Retryable bool
	Cause     error
}

// Error implements the error interface, returning a formatted error message.
// Format: "[CODE] message" or "[CODE] message: cause" if cause exists.
func (e *RxError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error for error unwrapping chains.
func (e *RxError) Unwrap() error {
	return e.Cause
}

// Is checks if the target error matches this error by error code.
// Returns true if target is an RxError with the same Code.
func (e *RxError) Is(target error) bool {
	var rxErr *RxError
	if errors.As(target, &rxErr) {
		return e.Code == rxErr.Code
	}
	return false
}

// NewError creates a new non-retryable RxError with the given code and message.
func NewError(code ErrorCode, message string) *RxError {
	return &RxError{
		Code:      code,
		Message:   message,
		Retryable: false,
		Cause:     nil,
	}
}

// NewRetryableError creates a new retryable RxError with the given code and message.
// Use this for transient errors that may succeed on retry (e.g., backend timeouts).
func NewRetryableError(code ErrorCode, message string) *RxError {
	return &RxError{
		Code:      code,
		Message:   message,
		Retryable: true,
		Cause:     nil,
	}
}

// WrapError creates a new non-retryable RxError that wraps an existing error.
// The wrapped error is accessible via Unwrap() for error chain inspection.
func WrapError(code ErrorCode, message string, cause error) *RxError {
	return &RxError{
		Code:      code,
		Message:   message,
		Retryable: false,
		Cause:     cause,
	}
}

// CodeOf extracts the ErrorCode from an error chain.
// Returns an empty code if no RxError is found in the chain.
func CodeOf(err error) ErrorCode {
	var rxErr *RxError
	if errors.As(err, &rxErr) {
		return rxErr.Code
	}
	return ""
}
