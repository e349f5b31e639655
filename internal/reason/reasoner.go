package reason

import (
	"context"
	"log/slog"

	"github.com/CodeNeuron58/RxGuard/internal/llm"
	"github.com/CodeNeuron58/RxGuard/internal/schema"
	"github.com/CodeNeuron58/RxGuard/internal/types"
)

// Reasoner produces an evidence-grounded risk assessment for one proposed
// drug against a patient profile.
type Reasoner interface {
	Assess(ctx context.Context, profile *schema.PatientProfile, drug string, excerpts []schema.GuidelineExcerpt) (*schema.RiskAssessment, error)
}

// RiskReasoner implements Reasoner over an LLM provider. Every citation in
// the returned assessment is checked against the supplied excerpt set; an
// assessment citing evidence it was never shown is rejected, retried once
// with a corrective instruction, and failed if it reoffends.
type RiskReasoner struct {
	provider    llm.Provider
	model       string
	temperature float64
	maxTokens   int
	logger      *slog.Logger
}

// Option is a functional option for configuring RiskReasoner
type Option func(*RiskReasoner)

// WithLogger configures the reasoner to use the specified structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *RiskReasoner) {
		r.logger = logger
	}
}

// WithMaxTokens sets the completion token limit.
func WithMaxTokens(n int) Option {
	return func(r *RiskReasoner) {
		r.maxTokens = n
	}
}

// WithTemperature sets the sampling temperature, 0 by default.
func WithTemperature(t float64) Option {
	return func(r *RiskReasoner) {
		r.temperature = t
	}
}

// NewRiskReasoner creates a reasoner backed by the given provider and model.
func NewRiskReasoner(provider llm.Provider, model string, opts ...Option) *RiskReasoner {
	r := &RiskReasoner{
		provider:    provider,
		model:       model,
		temperature: 0.0,
		maxTokens:   2048,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// assessmentPayload is the JSON shape the model is instructed to emit.
type assessmentPayload struct {
	Summary   string            `json:"summary"`
	Mechanism string            `json:"mechanism"`
	RiskLevel schema.RiskLevel  `json:"risk_level"`
	Citations []schema.Citation `json:"citations"`
}

// Assess evaluates the proposed drug against the profile and evidence.
// With no evidence available the risk is reported as unknown rather than
// guessed, with zero citations.
func (r *RiskReasoner) Assess(ctx context.Context, profile *schema.PatientProfile, drug string, excerpts []schema.GuidelineExcerpt) (*schema.RiskAssessment, error) {
	if drug == "" {
		return nil, types.NewError(types.VALIDATION_FAILED, "drug cannot be empty")
	}
	if profile == nil {
		return nil, types.NewError(types.VALIDATION_FAILED, "patient profile is required")
	}

	if len(excerpts) == 0 {
		r.logger.WarnContext(ctx, "no guideline evidence available, reporting unknown risk",
			"drug", drug,
		)
		return schema.NewRiskAssessment(drug,
			"No guideline evidence was available for this drug and patient context.",
			"Risk could not be established without supporting guidelines.",
			schema.RiskLevelUnknown, nil)
	}

	assessment, err := r.assessOnce(ctx, assessmentPrompt(profile, drug, excerpts), drug, excerpts)
	if err != nil && types.CodeOf(err) == types.CITATION_UNSUPPORTED {
		r.logger.WarnContext(ctx, "assessment cited unknown evidence, retrying",
			"drug", drug,
			"error", err,
		)
		assessment, err = r.assessOnce(ctx, groundedRetryPrompt(profile, drug, excerpts), drug, excerpts)
	}
	if err != nil {
		return nil, err
	}

	r.logger.DebugContext(ctx, "risk assessed",
		"drug", drug,
		"level", assessment.Level,
		"citations", len(assessment.Citations),
	)

	return assessment, nil
}

// assessOnce runs a single completion round-trip, parses the verdict, and
// enforces citation containment.
func (r *RiskReasoner) assessOnce(ctx context.Context, messages []llm.Message, drug string, excerpts []schema.GuidelineExcerpt) (*schema.RiskAssessment, error) {
	resp, err := r.provider.Complete(ctx, llm.CompletionRequest{
		Model:       r.model,
		Messages:    messages,
		Temperature: r.temperature,
		MaxTokens:   r.maxTokens,
	})
	if err != nil {
		return nil, types.WrapError(types.REASONING_FAILED, "risk reasoning completion failed", err)
	}

	payload, err := llm.ExtractJSONAs[assessmentPayload](resp.Message.Content)
	if err != nil {
		return nil, llm.NewParseError("risk assessment output is not valid JSON", err)
	}

	// An unknown verdict is reserved for the empty-evidence path handled in
	// Assess. With evidence on the table it is a dodge, not an answer.
	if payload.RiskLevel == schema.RiskLevelUnknown {
		return nil, types.NewError(types.CITATION_UNSUPPORTED,
			"risk reported unknown despite supplied guideline evidence")
	}

	assessment, err := schema.NewRiskAssessment(drug, payload.Summary, payload.Mechanism, payload.RiskLevel, payload.Citations)
	if err != nil {
		return nil, types.WrapError(types.REASONING_FAILED, "risk assessment invalid", err)
	}

	if ok, offending := assessment.CitedBy(excerpts); !ok {
		return nil, types.NewError(types.CITATION_UNSUPPORTED,
			"assessment cites evidence that was not retrieved: "+offending.String())
	}

	return assessment, nil
}
