package llm

import (
	"context"

	"github.com/CodeNeuron58/RxGuard/internal/types"
)

// Provider defines the interface that all language-reasoning backends must
// implement. It provides a unified abstraction over different LLM services
// so the pipeline can be exercised against mocks in tests.
type Provider interface {
	// Name returns the provider name (e.g., "groq", "openai", "mock")
	Name() string

	// Models returns information about all available models for this provider
	Models(ctx context.Context) ([]ModelInfo, error)

	// Complete sends a completion request and returns the full response.
	// This is a blocking call that waits for the entire response.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// Health checks the health status of the provider and its connectivity
	Health(ctx context.Context) types.HealthStatus
}

// ProviderConfig carries the settings needed to construct a provider.
type ProviderConfig struct {
	// Type selects the implementation: "openai", "ollama", or "mock".
	Type string `yaml:"type" json:"type" mapstructure:"type"`

	// Model is the default model identifier for requests.
	Model string `yaml:"model" json:"model" mapstructure:"model"`

	// APIKey overrides the provider's environment credential lookup.
	APIKey string `yaml:"api_key" json:"api_key,omitempty" mapstructure:"api_key"`

	// BaseURL points at a non-default or self-hosted endpoint.
	BaseURL string `yaml:"base_url" json:"base_url,omitempty" mapstructure:"base_url"`
}

// ModelInfo contains metadata about an LLM model.
type ModelInfo struct {
	// Name is the model identifier (e.g., "llama-3.3-70b-versatile")
	Name string `json:"name"`

	// ContextWindow is the maximum number of tokens the model can process
	ContextWindow int `json:"context_window"`

	// Features lists the capabilities this model supports
	Features []string `json:"features"`

	// MaxOutput is the maximum number of tokens the model can generate
	MaxOutput int `json:"max_output"`
}

// SupportsFeature checks if the model supports a given feature
func (m ModelInfo) SupportsFeature(feature string) bool {
	for _, f := range m.Features {
		if f == feature {
			return true
		}
	}
	return false
}

// SupportsJSONMode checks if the model supports structured JSON output
func (m ModelInfo) SupportsJSONMode() bool {
	return m.SupportsFeature("json_mode")
}
