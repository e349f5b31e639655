package critic

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CodeNeuron58/RxGuard/internal/llm/providers"
	"github.com/CodeNeuron58/RxGuard/internal/schema"
	"github.com/CodeNeuron58/RxGuard/internal/types"
)

func ckdProfile(t *testing.T) *schema.PatientProfile {
	t.Helper()
	p, err := schema.NewPatientProfile(68, "male",
		[]string{"CKD Stage 3"}, nil, []string{"Lisinopril"}, 0.92)
	require.NoError(t, err)
	return p
}

func highAssessment(t *testing.T) *schema.RiskAssessment {
	t.Helper()
	a, err := schema.NewRiskAssessment("Ibuprofen",
		"High risk of acute kidney injury.",
		"Afferent arteriole constriction reduces glomerular filtration.",
		schema.RiskLevelHigh,
		[]schema.Citation{{Source: "WHO", Locator: "page 12"}})
	require.NoError(t, err)
	return a
}

func evidence() []schema.GuidelineExcerpt {
	return []schema.GuidelineExcerpt{
		{Source: "WHO", Locator: "page 12", Text: "NSAIDs reduce renal perfusion in CKD", Score: 0.9},
	}
}

func TestSafetyCritic_ConfirmsHighRisk(t *testing.T) {
	provider := providers.NewMockProvider([]string{`{
		"risk_level": "high",
		"rationale": "Evidence documents a contraindication in CKD."
	}`})
	critic := NewSafetyCritic(provider, "mock-model")

	result, err := critic.Critique(context.Background(), ckdProfile(t), highAssessment(t), evidence())
	require.NoError(t, err)

	assert.True(t, result.Escalate)
	assert.Equal(t, schema.RiskLevelHigh, result.FilteredLevel)
	assert.Equal(t, schema.AlertLevelCritical, result.Alert)
}

func TestSafetyCritic_LowersOverstatedRisk(t *testing.T) {
	provider := providers.NewMockProvider([]string{`{
		"risk_level": "low",
		"rationale": "The excerpts describe monitoring, not contraindication."
	}`})
	critic := NewSafetyCritic(provider, "mock-model")

	result, err := critic.Critique(context.Background(), ckdProfile(t), highAssessment(t), evidence())
	require.NoError(t, err)

	assert.False(t, result.Escalate)
	assert.Equal(t, schema.RiskLevelLow, result.FilteredLevel)
	assert.Equal(t, schema.RiskLevelHigh, result.Assessment.Level, "original assessment preserved")
	assert.Equal(t, schema.AlertLevelInfo, result.Alert)
}

func TestSafetyCritic_NeverRaisesAboveAssessment(t *testing.T) {
	a, err := schema.NewRiskAssessment("Ibuprofen", "s", "m", schema.RiskLevelModerate,
		[]schema.Citation{{Source: "WHO", Locator: "page 12"}})
	require.NoError(t, err)

	provider := providers.NewMockProvider([]string{`{
		"risk_level": "high",
		"rationale": "Evidence suggests worse than assessed."
	}`})
	critic := NewSafetyCritic(provider, "mock-model")

	result, err := critic.Critique(context.Background(), ckdProfile(t), a, evidence())
	require.NoError(t, err)

	// Held at the assessed level, but the independent re-derivation still escalates.
	assert.Equal(t, schema.RiskLevelModerate, result.FilteredLevel)
	assert.True(t, result.Escalate)
}

func TestSafetyCritic_LowCleanDoesNotEscalate(t *testing.T) {
	a, err := schema.NewRiskAssessment("Paracetamol", "No significant interaction.", "None identified.",
		schema.RiskLevelLow, []schema.Citation{{Source: "WHO", Locator: "page 12"}})
	require.NoError(t, err)

	provider := providers.NewMockProvider([]string{`{
		"risk_level": "low",
		"rationale": "Standard dosing is safe in this context."
	}`})
	critic := NewSafetyCritic(provider, "mock-model")

	result, err := critic.Critique(context.Background(), ckdProfile(t), a, evidence())
	require.NoError(t, err)

	assert.False(t, result.Escalate)
	assert.Equal(t, schema.RiskLevelLow, result.FilteredLevel)
}

func TestSafetyCritic_UnknownAssessmentSkipsBackend(t *testing.T) {
	a, err := schema.NewRiskAssessment("Ibuprofen", "No evidence.", "Unknown.",
		schema.RiskLevelUnknown, nil)
	require.NoError(t, err)

	provider := providers.NewMockProvider(nil)
	critic := NewSafetyCritic(provider, "mock-model")

	result, err := critic.Critique(context.Background(), ckdProfile(t), a, nil)
	require.NoError(t, err)

	assert.False(t, result.Escalate)
	assert.Equal(t, schema.RiskLevelUnknown, result.FilteredLevel)
	assert.Zero(t, provider.CallCount())
}

func TestSafetyCritic_MissingRiskLevelRejected(t *testing.T) {
	provider := providers.NewMockProvider([]string{`{"rationale": "no level given"}`})
	critic := NewSafetyCritic(provider, "mock-model")

	_, err := critic.Critique(context.Background(), ckdProfile(t), highAssessment(t), evidence())
	require.Error(t, err)
	assert.Equal(t, types.CRITIQUE_FAILED, types.CodeOf(err))
}

func TestSafetyCritic_ValidatesInputs(t *testing.T) {
	provider := providers.NewMockProvider(nil)
	critic := NewSafetyCritic(provider, "mock-model")

	_, err := critic.Critique(context.Background(), ckdProfile(t), nil, evidence())
	require.Error(t, err)
	assert.Equal(t, types.VALIDATION_FAILED, types.CodeOf(err))

	_, err = critic.Critique(context.Background(), nil, highAssessment(t), evidence())
	require.Error(t, err)
}

func TestCritiquePrompt_WithholdsAssessedLevel(t *testing.T) {
	messages := critiquePrompt(ckdProfile(t), highAssessment(t), evidence())
	require.Len(t, messages, 2)

	assert.NotContains(t, messages[1].Content, `"high"`)
	assert.NotContains(t, messages[1].Content, "risk level: high")
	assert.Contains(t, messages[1].Content, "Proposed drug: Ibuprofen")
}
