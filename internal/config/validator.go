package config

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/CodeNeuron58/RxGuard/internal/types"
)

// ConfigValidator validates configuration values.
type ConfigValidator interface {
	Validate(cfg *Config) error
}

// validatorImpl implements ConfigValidator using go-playground/validator.
type validatorImpl struct {
	validate *validator.Validate
}

// NewValidator creates a new ConfigValidator instance.
func NewValidator() ConfigValidator {
	return &validatorImpl{
		validate: validator.New(),
	}
}

// Validate validates the configuration and returns detailed error messages.
func (v *validatorImpl) Validate(cfg *Config) error {
	if cfg == nil {
		return types.NewError(types.CONFIG_VALIDATION_FAILED, "configuration is nil")
	}

	if err := v.validate.Struct(cfg); err != nil {
		validationErrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return types.WrapError(types.CONFIG_VALIDATION_FAILED, "validation error", err)
		}

		messages := make([]string, 0, len(validationErrs))
		for _, e := range validationErrs {
			messages = append(messages, formatValidationError(e))
		}

		return types.NewError(types.CONFIG_VALIDATION_FAILED,
			"configuration validation failed:\n  - "+strings.Join(messages, "\n  - "))
	}

	if err := cfg.Embedder.Validate(); err != nil {
		return types.WrapError(types.CONFIG_VALIDATION_FAILED, "embedder configuration invalid", err)
	}

	switch cfg.Logging.Format {
	case "", "json", "text":
	default:
		return types.NewError(types.CONFIG_VALIDATION_FAILED,
			"logging.format must be 'json' or 'text' (got: "+cfg.Logging.Format+")")
	}

	return nil
}

// formatValidationError formats a single validation error with field path and details.
func formatValidationError(e validator.FieldError) string {
	fieldPath := formatFieldPath(e.Namespace())

	switch e.Tag() {
	case "required":
		return fieldPath + " is required"
	case "min":
		return fieldPath + " must be at least " + e.Param()
	case "max":
		return fieldPath + " must be at most " + e.Param()
	case "oneof":
		return fieldPath + " must be one of [" + e.Param() + "]"
	default:
		return fieldPath + " failed validation '" + e.Tag() + "'"
	}
}

// formatFieldPath converts validator namespace to a readable field path.
// Example: "Config.Pipeline.TopK" -> "pipeline.top_k"
func formatFieldPath(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) <= 1 {
		return namespace
	}

	result := make([]string, 0, len(parts)-1)
	for i := 1; i < len(parts); i++ {
		result = append(result, toSnakeCase(parts[i]))
	}
	return strings.Join(result, ".")
}

// toSnakeCase converts a CamelCase field name to snake_case.
func toSnakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 && s[i-1] >= 'a' && s[i-1] <= 'z' {
				b.WriteByte('_')
			}
			b.WriteRune(r - 'A' + 'a')
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
