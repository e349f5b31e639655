package embedder

import (
	"context"

	"github.com/CodeNeuron58/RxGuard/internal/types"
)

// Embedder generates embedding vectors from text content.
// Implementations must be thread-safe for concurrent access.
type Embedder interface {
	// Embed generates an embedding vector for a single text.
	Embed(ctx context.Context, text string) ([]float64, error)

	// EmbedBatch generates embeddings for multiple texts efficiently.
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)

	// Dimensions returns the dimensionality of embedding vectors.
	Dimensions() int

	// Model returns the name of the embedding model being used.
	Model() string

	// Health returns the health status of the embedder.
	Health(ctx context.Context) types.HealthStatus
}

// Config holds configuration for embedding providers.
type Config struct {
	// Provider specifies which embedder implementation to use.
	// Options: "hash", "mock"
	Provider string `yaml:"provider" json:"provider" mapstructure:"provider"`

	// Dimensions is the dimensionality of generated vectors.
	Dimensions int `yaml:"dimensions" json:"dimensions" mapstructure:"dimensions"`
}

// Validate checks if the Config is valid.
func (c *Config) Validate() error {
	if c.Provider == "" {
		return types.NewError(ErrCodeInvalidConfig, "embedder provider cannot be empty")
	}

	if c.Dimensions <= 0 {
		return types.NewError(ErrCodeInvalidConfig, "embedder dimensions must be positive")
	}

	return nil
}

// DefaultConfig returns a default embedder configuration.
func DefaultConfig() Config {
	return Config{
		Provider:   "hash",
		Dimensions: 384,
	}
}

// New constructs the embedder implementation named by the config.
func New(cfg Config) (Embedder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Provider {
	case "hash":
		return NewHashEmbedder(cfg.Dimensions), nil
	case "mock":
		return NewMockEmbedder(), nil
	default:
		return nil, types.NewError(ErrCodeInvalidConfig, "unknown embedder provider: "+cfg.Provider)
	}
}
