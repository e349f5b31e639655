package pipeline

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/CodeNeuron58/RxGuard/internal/config"
	"github.com/CodeNeuron58/RxGuard/internal/schema"
	"github.com/CodeNeuron58/RxGuard/internal/types"
)

// stubExtractor returns queued results or errors, one per call.
type stubExtractor struct {
	mu      sync.Mutex
	results []*schema.ExtractionResult
	errs    []error
	calls   int
}

func (s *stubExtractor) Extract(ctx context.Context, note string) (*schema.ExtractionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++

	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		return nil, err
	}

	if len(s.results) == 0 {
		return nil, types.NewError(types.EXTRACTION_FAILED, "no results configured")
	}
	result := s.results[0]
	if len(s.results) > 1 {
		s.results = s.results[1:]
	}
	return result, nil
}

type stubRetriever struct {
	excerpts []schema.GuidelineExcerpt
	err      error
	calls    atomic.Int32
}

func (s *stubRetriever) Retrieve(ctx context.Context, condition, drug string, topK int) ([]schema.GuidelineExcerpt, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return s.excerpts, nil
}

type stubReasoner struct {
	levels map[string]schema.RiskLevel
	errs   map[string]error
	calls  atomic.Int32
}

func (s *stubReasoner) Assess(ctx context.Context, profile *schema.PatientProfile, drug string, excerpts []schema.GuidelineExcerpt) (*schema.RiskAssessment, error) {
	s.calls.Add(1)
	if err := s.errs[drug]; err != nil {
		return nil, err
	}

	if len(excerpts) == 0 {
		return schema.NewRiskAssessment(drug, "No evidence available.", "", schema.RiskLevelUnknown, nil)
	}

	level, ok := s.levels[drug]
	if !ok {
		level = schema.RiskLevelLow
	}
	return schema.NewRiskAssessment(drug, "Identified risk for "+drug, "Mechanism for "+drug,
		level, []schema.Citation{excerpts[0].Ref()})
}

type stubCritic struct {
	calls atomic.Int32
}

func (s *stubCritic) Critique(ctx context.Context, profile *schema.PatientProfile, assessment *schema.RiskAssessment, excerpts []schema.GuidelineExcerpt) (*schema.CritiqueResult, error) {
	s.calls.Add(1)
	escalate := assessment.Level.Severity() >= schema.RiskLevelModerate.Severity()
	return schema.NewCritiqueResult(*assessment, escalate, assessment.Level, "confirmed")
}

func confidentExtraction(t *testing.T, confidence float64) *schema.ExtractionResult {
	t.Helper()
	profile, err := schema.NewPatientProfile(68, "male",
		[]string{"CKD Stage 3"}, []string{"renal impairment"}, []string{"Lisinopril"}, confidence)
	require.NoError(t, err)
	return &schema.ExtractionResult{
		Profile:    *profile,
		Medication: schema.ProposedMedication{DrugName: "Ibuprofen"},
		Confidence: confidence,
	}
}

func testExcerpts() []schema.GuidelineExcerpt {
	return []schema.GuidelineExcerpt{
		{Source: "WHO", Locator: "page 12", Text: "NSAIDs reduce renal perfusion", Score: 0.9},
	}
}

func testConfig() config.PipelineConfig {
	return config.PipelineConfig{
		ConfidenceThreshold: 0.75,
		TopK:                5,
		Timeout:             5 * time.Second,
		MaxParallel:         4,
		AuditLogging:        true,
	}
}

func newTestPipeline(t *testing.T, ex *stubExtractor, re *stubRetriever, rs *stubReasoner, cr *stubCritic) *Pipeline {
	t.Helper()
	return New(ex, re, rs, cr, testConfig())
}

func TestPipeline_HighRiskRun(t *testing.T) {
	ex := &stubExtractor{results: []*schema.ExtractionResult{confidentExtraction(t, 0.92)}}
	re := &stubRetriever{excerpts: testExcerpts()}
	rs := &stubReasoner{levels: map[string]schema.RiskLevel{"Ibuprofen": schema.RiskLevelHigh}}
	cr := &stubCritic{}

	report, err := newTestPipeline(t, ex, re, rs, cr).Run(context.Background(), "note", []string{"Ibuprofen"})
	require.NoError(t, err)

	assert.Equal(t, schema.RunStatusCompleted, report.Status)
	assert.Equal(t, schema.AlertLevelCritical, report.Alert)
	assert.True(t, report.Escalated())
	require.Len(t, report.Drugs, 1)
	assert.Equal(t, "Ibuprofen", report.Drugs[0].Drug)
	assert.Contains(t, report.Drugs[0].IdentifiedRisk, "Identified risk for Ibuprofen")
	assert.Equal(t, []string{"WHO (page 12)"}, report.Drugs[0].Evidence)
	assert.Equal(t, "68 year old male with CKD Stage 3", report.PatientContext)
	assert.False(t, report.RunID.IsZero())
}

func TestPipeline_LowConfidenceGateStopsRun(t *testing.T) {
	ex := &stubExtractor{results: []*schema.ExtractionResult{confidentExtraction(t, 0.4)}}
	re := &stubRetriever{excerpts: testExcerpts()}
	rs := &stubReasoner{}
	cr := &stubCritic{}

	report, err := newTestPipeline(t, ex, re, rs, cr).Run(context.Background(), "vague note", []string{"Ibuprofen"})
	require.NoError(t, err)

	assert.Equal(t, schema.RunStatusStoppedLowConfidence, report.Status)
	assert.Contains(t, report.Warning, "clarify")
	assert.Empty(t, report.Drugs)

	// No analysis work happens past the gate
	assert.Zero(t, re.calls.Load())
	assert.Zero(t, rs.calls.Load())
	assert.Zero(t, cr.calls.Load())
}

func TestPipeline_ThresholdBoundaryProceeds(t *testing.T) {
	// Exactly at the threshold is not below it
	ex := &stubExtractor{results: []*schema.ExtractionResult{confidentExtraction(t, 0.75)}}
	re := &stubRetriever{excerpts: testExcerpts()}
	rs := &stubReasoner{}
	cr := &stubCritic{}

	report, err := newTestPipeline(t, ex, re, rs, cr).Run(context.Background(), "note", []string{"Paracetamol"})
	require.NoError(t, err)
	assert.Equal(t, schema.RunStatusCompleted, report.Status)
}

func TestPipeline_NoEvidenceYieldsUnknownRisk(t *testing.T) {
	ex := &stubExtractor{results: []*schema.ExtractionResult{confidentExtraction(t, 0.92)}}
	re := &stubRetriever{excerpts: nil}
	rs := &stubReasoner{}
	cr := &stubCritic{}

	report, err := newTestPipeline(t, ex, re, rs, cr).Run(context.Background(), "note", []string{"Ibuprofen"})
	require.NoError(t, err)

	assert.Equal(t, schema.RunStatusCompleted, report.Status)
	require.Len(t, report.Drugs, 1)
	require.NotNil(t, report.Drugs[0].Critique)
	assert.Equal(t, schema.RiskLevelUnknown, report.Drugs[0].Critique.FilteredLevel)
	assert.Empty(t, report.Drugs[0].Evidence)
	assert.False(t, report.Escalated())
	assert.Equal(t, schema.AlertLevelInfo, report.Alert)
}

func TestPipeline_FanOutPreservesInputOrder(t *testing.T) {
	drugs := []string{"Ibuprofen", "Paracetamol", "Naproxen", "Aspirin", "Codeine"}

	ex := &stubExtractor{results: []*schema.ExtractionResult{confidentExtraction(t, 0.92)}}
	re := &stubRetriever{excerpts: testExcerpts()}
	rs := &stubReasoner{levels: map[string]schema.RiskLevel{
		"Ibuprofen": schema.RiskLevelHigh,
		"Naproxen":  schema.RiskLevelModerate,
	}}
	cr := &stubCritic{}

	report, err := newTestPipeline(t, ex, re, rs, cr).Run(context.Background(), "note", drugs)
	require.NoError(t, err)

	require.Len(t, report.Drugs, len(drugs))
	for i, drug := range drugs {
		assert.Equal(t, drug, report.Drugs[i].Drug)
	}
	assert.Equal(t, schema.AlertLevelCritical, report.Alert)
	assert.Equal(t, int32(len(drugs)), re.calls.Load())
}

func TestPipeline_SingleDrugFailureDoesNotAbortSiblings(t *testing.T) {
	ex := &stubExtractor{results: []*schema.ExtractionResult{confidentExtraction(t, 0.92)}}
	re := &stubRetriever{excerpts: testExcerpts()}
	rs := &stubReasoner{
		levels: map[string]schema.RiskLevel{"Paracetamol": schema.RiskLevelLow},
		errs:   map[string]error{"Ibuprofen": types.NewError(types.REASONING_FAILED, "model refused")},
	}
	cr := &stubCritic{}

	report, err := newTestPipeline(t, ex, re, rs, cr).Run(context.Background(), "note", []string{"Ibuprofen", "Paracetamol"})
	require.NoError(t, err)

	assert.Equal(t, schema.RunStatusCompleted, report.Status)
	require.Len(t, report.Drugs, 2)

	assert.NotEmpty(t, report.Drugs[0].Error)
	assert.Nil(t, report.Drugs[0].Critique)

	assert.Empty(t, report.Drugs[1].Error)
	require.NotNil(t, report.Drugs[1].Critique)
	assert.Equal(t, schema.RiskLevelLow, report.Drugs[1].Critique.FilteredLevel)
}

func TestPipeline_RetriesTransientExtractionFailure(t *testing.T) {
	ex := &stubExtractor{
		errs:    []error{types.NewRetryableError(types.BACKEND_TIMEOUT, "deadline exceeded")},
		results: []*schema.ExtractionResult{confidentExtraction(t, 0.92)},
	}
	re := &stubRetriever{excerpts: testExcerpts()}

	report, err := newTestPipeline(t, ex, re, &stubReasoner{}, &stubCritic{}).
		Run(context.Background(), "note", []string{"Paracetamol"})
	require.NoError(t, err)

	assert.Equal(t, schema.RunStatusCompleted, report.Status)
	assert.Equal(t, 2, ex.calls)
}

func TestPipeline_PermanentExtractionFailureFailsRun(t *testing.T) {
	ex := &stubExtractor{errs: []error{
		types.NewError(types.EXTRACTION_FAILED, "backend rejected request"),
	}}

	report, err := newTestPipeline(t, ex, &stubRetriever{}, &stubReasoner{}, &stubCritic{}).
		Run(context.Background(), "note", []string{"Ibuprofen"})
	require.Error(t, err)
	assert.Equal(t, types.EXTRACTION_FAILED, types.CodeOf(err))

	require.NotNil(t, report)
	assert.Equal(t, schema.RunStatusFailed, report.Status)
	assert.Contains(t, report.Warning, "failed")
}

func TestPipeline_EmitsStageSpans(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))

	ex := &stubExtractor{results: []*schema.ExtractionResult{confidentExtraction(t, 0.92)}}
	p := New(ex, &stubRetriever{excerpts: testExcerpts()},
		&stubReasoner{levels: map[string]schema.RiskLevel{"Ibuprofen": schema.RiskLevelHigh}},
		&stubCritic{}, testConfig(), WithTracer(tp.Tracer("test")))

	_, err := p.Run(context.Background(), "note", []string{"Ibuprofen"})
	require.NoError(t, err)

	names := make([]string, 0)
	for _, span := range rec.Ended() {
		names = append(names, span.Name())
	}
	assert.Contains(t, names, "pipeline.run")
	assert.Contains(t, names, "pipeline.extract_profile")
	assert.Contains(t, names, "pipeline.evaluate_drug")
}

func TestPipeline_RepeatedTimeoutFailsExtractionStage(t *testing.T) {
	ex := &stubExtractor{errs: []error{
		types.NewRetryableError(types.BACKEND_TIMEOUT, "deadline exceeded"),
		types.NewRetryableError(types.BACKEND_TIMEOUT, "deadline exceeded"),
	}}

	report, err := newTestPipeline(t, ex, &stubRetriever{}, &stubReasoner{}, &stubCritic{}).
		Run(context.Background(), "note", []string{"Ibuprofen"})
	require.Error(t, err)
	assert.Equal(t, types.EXTRACTION_FAILED, types.CodeOf(err))
	assert.Equal(t, 2, ex.calls, "one retry, then stage failure")

	require.NotNil(t, report)
	assert.Equal(t, schema.RunStatusFailed, report.Status)
	assert.Nil(t, report.Profile)
	assert.Empty(t, report.Drugs)
}

func TestPipeline_CancellationFailsRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	canceled := &stubExtractor{errs: []error{context.Canceled}}

	report, err := newTestPipeline(t, canceled, &stubRetriever{}, &stubReasoner{}, &stubCritic{}).
		Run(ctx, "note", []string{"Ibuprofen"})
	require.Error(t, err)
	assert.Equal(t, types.PIPELINE_CANCELLED, types.CodeOf(err))
	require.NotNil(t, report)
	assert.Equal(t, schema.RunStatusFailed, report.Status)
}

func TestPipeline_RejectsEmptyDrugList(t *testing.T) {
	p := newTestPipeline(t, &stubExtractor{}, &stubRetriever{}, &stubReasoner{}, &stubCritic{})

	_, err := p.Run(context.Background(), "note", nil)
	require.Error(t, err)
	assert.Equal(t, types.VALIDATION_FAILED, types.CodeOf(err))
}

func TestPipeline_RepeatedRunsAgree(t *testing.T) {
	build := func() *Pipeline {
		ex := &stubExtractor{results: []*schema.ExtractionResult{confidentExtraction(t, 0.92)}}
		re := &stubRetriever{excerpts: testExcerpts()}
		rs := &stubReasoner{levels: map[string]schema.RiskLevel{"Ibuprofen": schema.RiskLevelHigh}}
		return newTestPipeline(t, ex, re, rs, &stubCritic{})
	}

	first, err := build().Run(context.Background(), "note", []string{"Ibuprofen", "Paracetamol"})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		again, err := build().Run(context.Background(), "note", []string{"Ibuprofen", "Paracetamol"})
		require.NoError(t, err)

		assert.Equal(t, first.Status, again.Status)
		assert.Equal(t, first.Alert, again.Alert)
		assert.Equal(t, first.Drugs, again.Drugs)
	}
}

func TestStage_TransitionTable(t *testing.T) {
	assert.True(t, StageStart.CanTransitionTo(StageExtractingProfile))
	assert.True(t, StageConfidenceGate.CanTransitionTo(StageStoppedLowConfidence))
	assert.True(t, StageConfidenceGate.CanTransitionTo(StageRetrievingGuidelines))
	assert.True(t, StageCritiquing.CanTransitionTo(StageCompleted))

	assert.False(t, StageStart.CanTransitionTo(StageCompleted))
	assert.False(t, StageCompleted.CanTransitionTo(StageStart))
	assert.False(t, StageStoppedLowConfidence.CanTransitionTo(StageRetrievingGuidelines))
	assert.False(t, StageReasoning.CanTransitionTo(StageRetrievingGuidelines))
}

func TestRunState_SingleAssignment(t *testing.T) {
	state := newRunState("note", []string{"Ibuprofen"})

	require.NoError(t, state.setExtraction(confidentExtraction(t, 0.9)))
	err := state.setExtraction(confidentExtraction(t, 0.9))
	require.Error(t, err)
	assert.Equal(t, types.PIPELINE_FAILED, types.CodeOf(err))

	require.NoError(t, state.setReport(&schema.FinalReport{}))
	require.Error(t, state.setReport(&schema.FinalReport{}))
}

func TestRunState_FailFromAnywhereOnceOnly(t *testing.T) {
	state := newRunState("note", []string{"Ibuprofen"})
	require.NoError(t, state.advance(StageExtractingProfile))

	first := types.NewError(types.PIPELINE_FAILED, "first")
	state.fail(first)
	state.fail(types.NewError(types.PIPELINE_FAILED, "second"))

	assert.Equal(t, StageFailed, state.Stage())
	assert.Equal(t, first, state.Err())
}
