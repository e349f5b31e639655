package providers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CodeNeuron58/RxGuard/internal/llm"
	"github.com/CodeNeuron58/RxGuard/internal/types"
)

func TestNewProvider_Mock(t *testing.T) {
	p, err := NewProvider(llm.ProviderConfig{Type: "mock"})
	require.NoError(t, err)
	assert.Equal(t, "mock", p.Name())
}

func TestNewProvider_UnknownType(t *testing.T) {
	_, err := NewProvider(llm.ProviderConfig{Type: "carrier-pigeon"})
	require.Error(t, err)
	assert.Equal(t, llm.ErrProviderNotFound, types.CodeOf(err))
}

func TestNewProvider_OpenAIRequiresCredentials(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	_, err := NewProvider(llm.ProviderConfig{Type: "openai", Model: "gpt-4o"})
	require.Error(t, err)
	assert.Equal(t, llm.ErrProviderUnauthorized, types.CodeOf(err))
}

func TestTranslateError_Classification(t *testing.T) {
	rateLimited := llm.TranslateError("openai", assert.AnError)
	assert.Equal(t, llm.ErrProviderUnavailable, types.CodeOf(rateLimited))

	passthrough := llm.TranslateError("openai", llm.NewRateLimitError("openai"))
	assert.Equal(t, llm.ErrProviderRateLimited, types.CodeOf(passthrough))

	assert.True(t, llm.IsRetryable(llm.NewRateLimitError("openai")))
	assert.False(t, llm.IsRetryable(llm.NewAuthError("openai", nil)))
}

func TestIsRetryable_InspectsWrapChain(t *testing.T) {
	timeout := types.WrapError(types.EXTRACTION_FAILED,
		"profile extraction completion failed", llm.NewTimeoutError("provider reported timeout"))
	assert.True(t, llm.IsRetryable(timeout), "provider timeout stays retryable behind a stage wrapper")

	rateLimited := types.WrapError(types.REASONING_FAILED,
		"risk reasoning completion failed", llm.NewRateLimitError("openai"))
	assert.True(t, llm.IsRetryable(rateLimited))

	canceled := types.WrapError(types.EXTRACTION_FAILED,
		"profile extraction completion failed", llm.NewCanceledError(context.Canceled))
	assert.False(t, llm.IsRetryable(canceled), "cancellation is terminal regardless of wrapping")

	auth := types.WrapError(types.CRITIQUE_FAILED,
		"safety critique completion failed", llm.NewAuthError("openai", nil))
	assert.False(t, llm.IsRetryable(auth))
}
