package providers

import (
	"fmt"

	"github.com/CodeNeuron58/RxGuard/internal/llm"
	"github.com/CodeNeuron58/RxGuard/internal/types"
)

// NewProvider creates an LLM provider from configuration.
func NewProvider(cfg llm.ProviderConfig) (llm.Provider, error) {
	switch cfg.Type {
	case "openai":
		return NewOpenAIProvider(cfg)

	case "ollama":
		return NewOllamaProvider(cfg)

	case "mock":
		return NewMockProvider(nil), nil

	default:
		return nil, types.NewError(llm.ErrProviderNotFound,
			fmt.Sprintf("unknown provider type: %q", cfg.Type))
	}
}
