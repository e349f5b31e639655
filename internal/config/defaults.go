package config

import (
	"time"

	"github.com/CodeNeuron58/RxGuard/internal/embedder"
)

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		Pipeline: PipelineConfig{
			ConfidenceThreshold: 0.75,
			TopK:                5,
			Timeout:             30 * time.Second,
			MaxParallel:         4,
			AuditLogging:        true,
		},
		LLM: LLMConfig{
			Provider:    "mock",
			Model:       "clinical-reasoner-v1",
			Temperature: 0.0,
			MaxTokens:   2048,
		},
		Embedder: embedder.DefaultConfig(),
		Index: IndexConfig{
			Path: "",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Tracing: TracingConfig{
			Enabled:  false,
			Endpoint: "",
		},
	}
}
