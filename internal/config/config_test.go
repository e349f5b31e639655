package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CodeNeuron58/RxGuard/internal/types"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rxguard.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, NewValidator().Validate(cfg))

	assert.Equal(t, 0.75, cfg.Pipeline.ConfidenceThreshold)
	assert.Equal(t, 5, cfg.Pipeline.TopK)
	assert.Equal(t, 30*time.Second, cfg.Pipeline.Timeout)
	assert.Equal(t, 4, cfg.Pipeline.MaxParallel)
	assert.True(t, cfg.Pipeline.AuditLogging)
}

func TestLoad_PartialFileOverridesDefaults(t *testing.T) {
	path := writeConfigFile(t, `
pipeline:
  confidence_threshold: 0.9
  timeout: 45s
llm:
  model: gpt-4o
`)

	cfg, err := NewConfigLoader(NewValidator()).Load(path)
	require.NoError(t, err)

	assert.Equal(t, 0.9, cfg.Pipeline.ConfidenceThreshold)
	assert.Equal(t, 45*time.Second, cfg.Pipeline.Timeout)
	assert.Equal(t, "gpt-4o", cfg.LLM.Model)

	// Unnamed keys keep their defaults
	assert.Equal(t, 5, cfg.Pipeline.TopK)
	assert.Equal(t, 4, cfg.Pipeline.MaxParallel)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := NewConfigLoader(NewValidator()).Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Equal(t, types.CONFIG_LOAD_FAILED, types.CodeOf(err))
}

func TestLoadWithDefaults_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := NewConfigLoader(NewValidator()).LoadWithDefaults(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_EnvironmentInterpolation(t *testing.T) {
	t.Setenv("RXGUARD_MODEL", "claude-sonnet")
	t.Setenv("RXGUARD_API_KEY", "sk-test-123")

	path := writeConfigFile(t, `
llm:
  model: ${RXGUARD_MODEL}
  api_key: ${RXGUARD_API_KEY}
index:
  path: ${RXGUARD_UNSET_VAR}/index.yaml
`)

	cfg, err := NewConfigLoader(NewValidator()).Load(path)
	require.NoError(t, err)

	assert.Equal(t, "claude-sonnet", cfg.LLM.Model)
	assert.Equal(t, "sk-test-123", cfg.LLM.APIKey)
	assert.Equal(t, "${RXGUARD_UNSET_VAR}/index.yaml", cfg.Index.Path)
}

func TestLoad_ValidationFailure(t *testing.T) {
	path := writeConfigFile(t, `
pipeline:
  top_k: 0
`)

	_, err := NewConfigLoader(NewValidator()).Load(path)
	require.Error(t, err)
	assert.Equal(t, types.CONFIG_VALIDATION_FAILED, types.CodeOf(err))
	assert.Contains(t, err.Error(), "pipeline.top_k")
}

func TestLoad_ThresholdOutOfRange(t *testing.T) {
	path := writeConfigFile(t, `
pipeline:
  confidence_threshold: 1.5
`)

	_, err := NewConfigLoader(NewValidator()).Load(path)
	require.Error(t, err)
	assert.Equal(t, types.CONFIG_VALIDATION_FAILED, types.CodeOf(err))
}

func TestLoad_TemperatureOutOfRange(t *testing.T) {
	path := writeConfigFile(t, `
llm:
  temperature: 1.5
`)

	_, err := NewConfigLoader(NewValidator()).Load(path)
	require.Error(t, err)
	assert.Equal(t, types.CONFIG_VALIDATION_FAILED, types.CodeOf(err))
	assert.Contains(t, err.Error(), "llm.temperature")
}

func TestValidate_BadLoggingFormat(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Logging.Format = "xml"

	err := NewValidator().Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logging.format")
}
