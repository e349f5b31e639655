package extract

import (
	"context"
	"log/slog"
	"strings"

	"github.com/CodeNeuron58/RxGuard/internal/llm"
	"github.com/CodeNeuron58/RxGuard/internal/schema"
	"github.com/CodeNeuron58/RxGuard/internal/types"
)

// Extractor turns a free-text clinical note into a structured extraction
// result with a confidence score.
type Extractor interface {
	Extract(ctx context.Context, note string) (*schema.ExtractionResult, error)
}

// ProfileExtractor implements Extractor over an LLM provider.
// Malformed model output is retried once with a stricter instruction; if the
// retry also fails to parse, a zero-confidence empty profile is returned so
// the confidence gate handles the failure uniformly.
type ProfileExtractor struct {
	provider    llm.Provider
	model       string
	temperature float64
	maxTokens   int
	logger      *slog.Logger
}

// Option is a functional option for configuring ProfileExtractor
type Option func(*ProfileExtractor)

// WithLogger configures the extractor to use the specified structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *ProfileExtractor) {
		e.logger = logger
	}
}

// WithMaxTokens sets the completion token limit.
func WithMaxTokens(n int) Option {
	return func(e *ProfileExtractor) {
		e.maxTokens = n
	}
}

// WithTemperature sets the sampling temperature, 0 by default.
func WithTemperature(t float64) Option {
	return func(e *ProfileExtractor) {
		e.temperature = t
	}
}

// NewProfileExtractor creates an extractor backed by the given provider and model.
func NewProfileExtractor(provider llm.Provider, model string, opts ...Option) *ProfileExtractor {
	e := &ProfileExtractor{
		provider:    provider,
		model:       model,
		temperature: 0.0,
		maxTokens:   2048,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// extractionPayload is the JSON shape the model is instructed to emit.
type extractionPayload struct {
	PatientProfile struct {
		Age         int      `json:"age"`
		Sex         string   `json:"sex"`
		Conditions  []string `json:"conditions"`
		RiskFactors []string `json:"risk_factors"`
		Medications []string `json:"medications"`
	} `json:"patient_profile"`
	ProposedMedication schema.ProposedMedication `json:"proposed_medication"`
	Confidence         float64                   `json:"confidence"`
}

// Extract parses the clinical note into a structured result. The note must be
// non-empty; that is checked before any backend call is made.
func (e *ProfileExtractor) Extract(ctx context.Context, note string) (*schema.ExtractionResult, error) {
	if strings.TrimSpace(note) == "" {
		return nil, types.NewError(types.VALIDATION_FAILED, "clinical note cannot be empty")
	}

	payload, err := e.complete(ctx, extractionPrompt(note))
	if err != nil && types.CodeOf(err) == llm.ErrResponseParseFailed {
		e.logger.WarnContext(ctx, "extraction output unparseable, retrying with strict instruction",
			"error", err,
		)
		payload, err = e.complete(ctx, strictExtractionPrompt(note))
		if err != nil && types.CodeOf(err) == llm.ErrResponseParseFailed {
			// Two malformed outputs in a row: degrade to an empty profile
			// instead of failing the run.
			e.logger.WarnContext(ctx, "extraction retry unparseable, returning empty profile")
			return &schema.ExtractionResult{
				Profile:    *schema.EmptyProfile(),
				Confidence: 0.0,
			}, nil
		}
	}
	if err != nil {
		return nil, err
	}

	return e.buildResult(ctx, payload)
}

// complete runs one completion round-trip and parses the JSON body.
func (e *ProfileExtractor) complete(ctx context.Context, messages []llm.Message) (*extractionPayload, error) {
	resp, err := e.provider.Complete(ctx, llm.CompletionRequest{
		Model:       e.model,
		Messages:    messages,
		Temperature: e.temperature,
		MaxTokens:   e.maxTokens,
	})
	if err != nil {
		return nil, types.WrapError(types.EXTRACTION_FAILED, "profile extraction completion failed", err)
	}

	payload, err := llm.ExtractJSONAs[extractionPayload](resp.Message.Content)
	if err != nil {
		return nil, llm.NewParseError("extraction output is not valid JSON", err)
	}
	return &payload, nil
}

// buildResult validates the payload into the domain types and settles the
// confidence score.
func (e *ProfileExtractor) buildResult(ctx context.Context, payload *extractionPayload) (*schema.ExtractionResult, error) {
	pp := payload.PatientProfile
	if pp.Age < 0 {
		pp.Age = 0
	}

	confidence := clamp01(payload.Confidence)

	profile, err := schema.NewPatientProfile(pp.Age, pp.Sex, pp.Conditions, pp.RiskFactors, pp.Medications, confidence)
	if err != nil {
		return nil, types.WrapError(types.EXTRACTION_FAILED, "extracted profile invalid", err)
	}

	if confidence == 0 {
		// Model omitted its self-assessment; score by field completeness.
		confidence = heuristicConfidence(profile)
		profile.Confidence = confidence
	}

	if err := payload.ProposedMedication.Validate(); err != nil {
		return nil, types.WrapError(types.EXTRACTION_FAILED, "extracted medication invalid", err)
	}

	e.logger.DebugContext(ctx, "profile extracted",
		"age", profile.Age,
		"conditions", len(profile.Conditions),
		"medications", len(profile.Medications),
		"confidence", confidence,
	)

	return &schema.ExtractionResult{
		Profile:    *profile,
		Medication: payload.ProposedMedication,
		Confidence: confidence,
	}, nil
}

// heuristicConfidence scores a profile by how many core fields were found.
// Capped below the typical gate threshold headroom so a sparse extraction
// never masquerades as a confident one.
func heuristicConfidence(p *schema.PatientProfile) float64 {
	score := 0.1
	if p.Age > 0 {
		score += 0.2
	}
	if p.Sex != "" {
		score += 0.1
	}
	if len(p.Conditions) > 0 {
		score += 0.3
	}
	if len(p.Medications) > 0 {
		score += 0.2
	}
	if len(p.RiskFactors) > 0 {
		score += 0.1
	}
	return score
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
