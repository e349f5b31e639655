package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CodeNeuron58/RxGuard/internal/critic"
	"github.com/CodeNeuron58/RxGuard/internal/embedder"
	"github.com/CodeNeuron58/RxGuard/internal/extract"
	"github.com/CodeNeuron58/RxGuard/internal/guideline"
	"github.com/CodeNeuron58/RxGuard/internal/llm"
	"github.com/CodeNeuron58/RxGuard/internal/llm/providers"
	"github.com/CodeNeuron58/RxGuard/internal/reason"
	"github.com/CodeNeuron58/RxGuard/internal/schema"
	"github.com/CodeNeuron58/RxGuard/internal/vector"
)

const e2eNote = `Patient is a 68 year old male with CKD Stage 3 and hypertension.
Currently on Lisinopril 10mg daily. Proposing Ibuprofen 400mg TID for 7 days.`

const e2eExtraction = `{
  "patient_profile": {
    "age": 68,
    "sex": "male",
    "conditions": ["CKD Stage 3", "hypertension"],
    "risk_factors": ["renal impairment"],
    "medications": ["Lisinopril"]
  },
  "proposed_medication": {
    "drug_name": "Ibuprofen",
    "dose_mg_per_unit": 400,
    "frequency_per_day": 3,
    "duration_days": 7,
    "total_daily_dose_mg": 1200
  },
  "confidence": 0.92
}`

const e2eAssessment = `{
  "summary": "Ibuprofen poses a high risk of acute kidney injury in CKD Stage 3.",
  "mechanism": "NSAID prostaglandin inhibition constricts the afferent arteriole.",
  "risk_level": "high",
  "citations": [{"source": "WHO", "locator": "page 12"}]
}`

const e2eCritique = `{
  "risk_level": "high",
  "rationale": "The evidence documents a contraindication in moderate CKD."
}`

// TestPipeline_EndToEnd wires the real stage implementations over the mock
// LLM provider, the hash embedder, and the embedded vector store.
func TestPipeline_EndToEnd(t *testing.T) {
	ctx := context.Background()

	emb := embedder.NewHashEmbedder(64)
	store := vector.NewEmbeddedStore(emb.Dimensions())
	require.NoError(t, guideline.Seed(ctx, store, emb, []guideline.IndexEntry{
		{Source: "WHO", Locator: "page 12", Text: "NSAIDs such as ibuprofen reduce renal perfusion and are contraindicated in chronic kidney disease stage 3 and above"},
		{Source: "NICE", Locator: "section 4.1", Text: "Paracetamol requires no renal dose adjustment at standard doses"},
	}))

	provider := providers.NewMockProvider([]string{e2eExtraction, e2eAssessment, e2eCritique})

	p := New(
		extract.NewProfileExtractor(provider, "mock-model"),
		guideline.NewStoreRetriever(store, emb),
		reason.NewRiskReasoner(provider, "mock-model"),
		critic.NewSafetyCritic(provider, "mock-model"),
		testConfig(),
	)

	report, err := p.Run(ctx, e2eNote, []string{"Ibuprofen"})
	require.NoError(t, err)

	assert.Equal(t, schema.RunStatusCompleted, report.Status)
	assert.Equal(t, schema.AlertLevelCritical, report.Alert)
	assert.True(t, report.Escalated())

	require.Len(t, report.Drugs, 1)
	section := report.Drugs[0]
	require.NotNil(t, section.Critique)
	assert.Equal(t, schema.RiskLevelHigh, section.Critique.FilteredLevel)
	assert.Equal(t, []string{"WHO (page 12)"}, section.Evidence)
	assert.Contains(t, section.IdentifiedRisk, "acute kidney injury")

	assert.Equal(t, 3, provider.CallCount(), "one completion per reasoning stage")
}

// TestPipeline_EndToEnd_ProviderTimeoutRetried covers the case where the
// provider client reports the timeout itself instead of overrunning the
// per-call deadline. The extraction stage wraps that error; the retry policy
// must still see the transient cause through the wrapper.
func TestPipeline_EndToEnd_ProviderTimeoutRetried(t *testing.T) {
	ctx := context.Background()

	emb := embedder.NewHashEmbedder(64)
	store := vector.NewEmbeddedStore(emb.Dimensions())
	require.NoError(t, guideline.Seed(ctx, store, emb, []guideline.IndexEntry{
		{Source: "WHO", Locator: "page 12", Text: "NSAIDs such as ibuprofen reduce renal perfusion and are contraindicated in chronic kidney disease stage 3 and above"},
	}))

	provider := providers.NewMockProvider([]string{e2eExtraction, e2eAssessment, e2eCritique})
	provider.SetErrorQueue(llm.NewTimeoutError("provider reported timeout"))

	p := New(
		extract.NewProfileExtractor(provider, "mock-model"),
		guideline.NewStoreRetriever(store, emb),
		reason.NewRiskReasoner(provider, "mock-model"),
		critic.NewSafetyCritic(provider, "mock-model"),
		testConfig(),
	)

	report, err := p.Run(ctx, e2eNote, []string{"Ibuprofen"})
	require.NoError(t, err)

	assert.Equal(t, schema.RunStatusCompleted, report.Status)
	assert.Equal(t, 4, provider.CallCount(), "timed-out extraction call retried once")
}
