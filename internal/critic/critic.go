package critic

import (
	"context"
	"log/slog"

	"github.com/CodeNeuron58/RxGuard/internal/llm"
	"github.com/CodeNeuron58/RxGuard/internal/schema"
	"github.com/CodeNeuron58/RxGuard/internal/types"
)

// Critic independently re-derives the risk of an assessment and decides
// whether it warrants escalation.
type Critic interface {
	Critique(ctx context.Context, profile *schema.PatientProfile, assessment *schema.RiskAssessment, excerpts []schema.GuidelineExcerpt) (*schema.CritiqueResult, error)
}

// SafetyCritic implements Critic over an LLM provider. It re-derives the
// risk level from the same evidence without seeing the reasoner's level,
// then holds or lowers the assessment. The filtered level can never exceed
// the original, so a runaway critique cannot amplify an alert.
type SafetyCritic struct {
	provider    llm.Provider
	model       string
	temperature float64
	maxTokens   int
	logger      *slog.Logger
}

// Option is a functional option for configuring SafetyCritic
type Option func(*SafetyCritic)

// WithLogger configures the critic to use the specified structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *SafetyCritic) {
		c.logger = logger
	}
}

// WithMaxTokens sets the completion token limit.
func WithMaxTokens(n int) Option {
	return func(c *SafetyCritic) {
		c.maxTokens = n
	}
}

// WithTemperature sets the sampling temperature, 0 by default.
func WithTemperature(t float64) Option {
	return func(c *SafetyCritic) {
		c.temperature = t
	}
}

// NewSafetyCritic creates a critic backed by the given provider and model.
func NewSafetyCritic(provider llm.Provider, model string, opts ...Option) *SafetyCritic {
	c := &SafetyCritic{
		provider:    provider,
		model:       model,
		temperature: 0.0,
		maxTokens:   1024,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// critiquePayload is the JSON shape the model is instructed to emit.
type critiquePayload struct {
	RiskLevel schema.RiskLevel `json:"risk_level"`
	Rationale string           `json:"rationale"`
}

// Critique re-derives the risk level from the evidence and applies the
// hold-or-lower rule. Escalation fires when the independently re-derived
// severity is moderate or above.
func (c *SafetyCritic) Critique(ctx context.Context, profile *schema.PatientProfile, assessment *schema.RiskAssessment, excerpts []schema.GuidelineExcerpt) (*schema.CritiqueResult, error) {
	if assessment == nil {
		return nil, types.NewError(types.VALIDATION_FAILED, "assessment is required")
	}
	if profile == nil {
		return nil, types.NewError(types.VALIDATION_FAILED, "patient profile is required")
	}

	if assessment.Level == schema.RiskLevelUnknown {
		// Nothing to re-derive without evidence; surface the uncertainty.
		return schema.NewCritiqueResult(*assessment, false, schema.RiskLevelUnknown,
			"No evidence was available to confirm or refute a risk.")
	}

	resp, err := c.provider.Complete(ctx, llm.CompletionRequest{
		Model:       c.model,
		Messages:    critiquePrompt(profile, assessment, excerpts),
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return nil, types.WrapError(types.CRITIQUE_FAILED, "safety critique completion failed", err)
	}

	payload, err := llm.ExtractJSONAs[critiquePayload](resp.Message.Content)
	if err != nil {
		return nil, llm.NewParseError("critique output is not valid JSON", err)
	}
	if !payload.RiskLevel.IsValid() {
		return nil, types.NewError(types.CRITIQUE_FAILED,
			"critique produced invalid risk level: "+payload.RiskLevel.String())
	}

	rederived := payload.RiskLevel

	filtered := rederived
	if filtered.Severity() > assessment.Level.Severity() {
		filtered = assessment.Level
	}

	escalate := rederived.Severity() >= schema.RiskLevelModerate.Severity()

	c.logger.DebugContext(ctx, "assessment critiqued",
		"drug", assessment.Drug,
		"assessed", assessment.Level,
		"rederived", rederived,
		"filtered", filtered,
		"escalate", escalate,
	)

	return schema.NewCritiqueResult(*assessment, escalate, filtered, payload.Rationale)
}
