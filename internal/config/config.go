package config

import (
	"time"

	"github.com/CodeNeuron58/RxGuard/internal/embedder"
)

// Config is the root configuration for RxGuard.
type Config struct {
	Pipeline PipelineConfig  `mapstructure:"pipeline" yaml:"pipeline" validate:"required"`
	LLM      LLMConfig       `mapstructure:"llm" yaml:"llm"`
	Embedder embedder.Config `mapstructure:"embedder" yaml:"embedder"`
	Index    IndexConfig     `mapstructure:"index" yaml:"index"`
	Logging  LoggingConfig   `mapstructure:"logging" yaml:"logging"`
	Tracing  TracingConfig   `mapstructure:"tracing" yaml:"tracing"`
}

// PipelineConfig contains the safety pipeline knobs.
type PipelineConfig struct {
	// ConfidenceThreshold is the minimum extraction confidence required to
	// proceed past the gate into the analysis branch.
	ConfidenceThreshold float64 `mapstructure:"confidence_threshold" yaml:"confidence_threshold" validate:"min=0,max=1"`

	// TopK is the number of guideline excerpts retrieved per drug.
	TopK int `mapstructure:"top_k" yaml:"top_k" validate:"min=1,max=50"`

	// Timeout bounds each external backend call.
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout" validate:"min=1s"`

	// MaxParallel caps concurrent per-drug evaluations.
	MaxParallel int `mapstructure:"max_parallel" yaml:"max_parallel" validate:"min=1,max=100"`

	// AuditLogging enables the clinical audit trail on report generation.
	AuditLogging bool `mapstructure:"audit_logging" yaml:"audit_logging"`
}

// LLMConfig contains language-model backend configuration. APIKey and
// BaseURL typically carry ${ENV_VAR} references resolved at load time.
type LLMConfig struct {
	Provider    string  `mapstructure:"provider" yaml:"provider"`
	Model       string  `mapstructure:"model" yaml:"model"`
	APIKey      string  `mapstructure:"api_key" yaml:"api_key"`
	BaseURL     string  `mapstructure:"base_url" yaml:"base_url"`
	Temperature float64 `mapstructure:"temperature" yaml:"temperature" validate:"min=0,max=1"`
	MaxTokens   int     `mapstructure:"max_tokens" yaml:"max_tokens" validate:"min=0"`
}

// IndexConfig contains guideline index configuration.
type IndexConfig struct {
	// Path is an optional YAML file of guideline passages seeded at startup.
	Path string `mapstructure:"path" yaml:"path"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`
}
