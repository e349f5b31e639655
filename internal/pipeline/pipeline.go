package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/CodeNeuron58/RxGuard/internal/config"
	"github.com/CodeNeuron58/RxGuard/internal/critic"
	"github.com/CodeNeuron58/RxGuard/internal/extract"
	"github.com/CodeNeuron58/RxGuard/internal/guideline"
	"github.com/CodeNeuron58/RxGuard/internal/reason"
	"github.com/CodeNeuron58/RxGuard/internal/schema"
	"github.com/CodeNeuron58/RxGuard/internal/types"
)

// Pipeline orchestrates the clinical safety run: profile extraction, the
// confidence gate, and per-drug retrieval, reasoning, and critique. Stage
// progress is tracked in a RunState envelope with an explicit transition
// table; drugs fan out concurrently and join at a single aggregation point.
type Pipeline struct {
	extractor extract.Extractor
	retriever guideline.Retriever
	reasoner  reason.Reasoner
	critic    critic.Critic
	cfg       config.PipelineConfig
	logger    *slog.Logger
	tracer    trace.Tracer
}

// Option is a functional option for configuring Pipeline
type Option func(*Pipeline)

// WithLogger configures the pipeline to use the specified structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithTracer configures the pipeline to emit spans through the given tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(p *Pipeline) {
		p.tracer = tracer
	}
}

// New creates a Pipeline from its stage implementations.
func New(extractor extract.Extractor, retriever guideline.Retriever, reasoner reason.Reasoner, safetyCritic critic.Critic, cfg config.PipelineConfig, opts ...Option) *Pipeline {
	p := &Pipeline{
		extractor: extractor,
		retriever: retriever,
		reasoner:  reasoner,
		critic:    safetyCritic,
		cfg:       cfg,
		logger:    slog.Default(),
		tracer:    noop.NewTracerProvider().Tracer("rxguard-pipeline"),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Run executes the full pipeline for one clinical note and a set of proposed
// drugs. A low-confidence extraction stops the run with a clarification
// warning instead of an assessment; a single drug failing is recorded in its
// report section without aborting the siblings.
func (p *Pipeline) Run(ctx context.Context, note string, drugs []string) (*schema.FinalReport, error) {
	if len(drugs) == 0 {
		return nil, types.NewError(types.VALIDATION_FAILED, "at least one proposed drug is required")
	}

	state := newRunState(note, drugs)

	ctx, span := p.tracer.Start(ctx, "pipeline.run",
		trace.WithAttributes(
			attribute.String("run.id", state.RunID().String()),
			attribute.Int("run.drugs", len(drugs)),
		))
	defer span.End()

	p.logger.InfoContext(ctx, "pipeline run started",
		"run_id", state.RunID(),
		"drugs", drugs,
	)

	report, err := p.run(ctx, state)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.logger.ErrorContext(ctx, "pipeline run failed",
			"run_id", state.RunID(),
			"stage", state.Stage(),
			"error", err,
		)
		return report, err
	}

	span.SetAttributes(attribute.String("run.status", report.Status.String()))
	return report, nil
}

// run drives the state machine. Split from Run so tracing and terminal
// logging stay in one place.
func (p *Pipeline) run(ctx context.Context, state *RunState) (*schema.FinalReport, error) {
	// Stage: profile extraction
	if err := state.advance(StageExtractingProfile); err != nil {
		return nil, err
	}

	extraction, err := p.extractProfile(ctx, state)
	if err != nil {
		state.fail(err)
		return p.failedReport(ctx, state, err), err
	}
	if err := state.setExtraction(extraction); err != nil {
		state.fail(err)
		return nil, err
	}

	// Stage: confidence gate
	if err := state.advance(StageConfidenceGate); err != nil {
		return nil, err
	}

	if extraction.Confidence < p.cfg.ConfidenceThreshold {
		if err := state.advance(StageStoppedLowConfidence); err != nil {
			return nil, err
		}
		return p.lowConfidenceReport(ctx, state, extraction), nil
	}

	// Stages: per-drug retrieval, reasoning, critique (fanned out)
	if err := state.advance(StageRetrievingGuidelines); err != nil {
		return nil, err
	}

	drugReports, err := p.evaluateDrugs(ctx, state, &extraction.Profile)
	if err != nil {
		state.fail(err)
		return p.failedReport(ctx, state, err), err
	}

	// The analysis stages ran per drug inside the fan-out; the envelope
	// records them once all drugs have joined.
	for _, next := range []Stage{StageReasoning, StageCritiquing, StageCompleted} {
		if err := state.advance(next); err != nil {
			return nil, err
		}
	}

	return p.completedReport(ctx, state, extraction, drugReports), nil
}

// extractProfile runs the extraction stage under the timeout/retry policy.
func (p *Pipeline) extractProfile(ctx context.Context, state *RunState) (*schema.ExtractionResult, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.extract_profile")
	defer span.End()

	extraction, err := callWithRetry(ctx, p.cfg.Timeout, func(ctx context.Context) (*schema.ExtractionResult, error) {
		return p.extractor.Extract(ctx, state.note)
	})
	if err != nil {
		span.RecordError(err)
		if types.CodeOf(err) == types.BACKEND_TIMEOUT {
			// Retries exhausted; surface as a failure of this stage.
			err = types.WrapError(types.EXTRACTION_FAILED, "profile extraction exhausted retries", err)
		}
		return nil, err
	}

	span.SetAttributes(attribute.Float64("extraction.confidence", extraction.Confidence))
	return extraction, nil
}

// evaluateDrugs fans out one evaluation per drug, capped at MaxParallel
// concurrent workers. Results land in input order at a single aggregation
// point; an individual failure becomes that drug's error section.
func (p *Pipeline) evaluateDrugs(ctx context.Context, state *RunState, profile *schema.PatientProfile) ([]schema.DrugReport, error) {
	reports := make([]schema.DrugReport, len(state.drugs))
	sem := make(chan struct{}, p.cfg.MaxParallel)
	var wg sync.WaitGroup

	for i, drug := range state.drugs {
		wg.Add(1)
		go func(idx int, drug string) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				reports[idx] = schema.DrugReport{Drug: drug, Error: "evaluation cancelled"}
				return
			}

			reports[idx] = p.evaluateDrug(ctx, state, profile, drug)
		}(i, drug)
	}

	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, types.WrapError(types.PIPELINE_CANCELLED, "run cancelled during drug evaluation", err)
	}

	return reports, nil
}

// evaluateDrug runs retrieval, reasoning, and critique for a single drug.
func (p *Pipeline) evaluateDrug(ctx context.Context, state *RunState, profile *schema.PatientProfile, drug string) schema.DrugReport {
	ctx, span := p.tracer.Start(ctx, "pipeline.evaluate_drug",
		trace.WithAttributes(attribute.String("drug", drug)))
	defer span.End()

	condition := strings.Join(profile.Conditions, ", ")
	if condition == "" {
		condition = "no documented chronic conditions"
	}

	excerpts, err := p.retriever.Retrieve(ctx, condition, drug, p.cfg.TopK)
	if err != nil {
		span.RecordError(err)
		return schema.DrugReport{Drug: drug, Error: err.Error()}
	}

	assessment, err := callWithRetry(ctx, p.cfg.Timeout, func(ctx context.Context) (*schema.RiskAssessment, error) {
		return p.reasoner.Assess(ctx, profile, drug, excerpts)
	})
	if err != nil {
		span.RecordError(err)
		return schema.DrugReport{Drug: drug, Error: err.Error()}
	}

	critique, err := callWithRetry(ctx, p.cfg.Timeout, func(ctx context.Context) (*schema.CritiqueResult, error) {
		return p.critic.Critique(ctx, profile, assessment, excerpts)
	})
	if err != nil {
		span.RecordError(err)
		return schema.DrugReport{Drug: drug, Error: err.Error()}
	}

	evidence := make([]string, 0, len(assessment.Citations))
	for _, c := range assessment.Citations {
		evidence = append(evidence, c.String())
	}

	span.SetAttributes(
		attribute.String("risk.level", critique.FilteredLevel.String()),
		attribute.Bool("risk.escalate", critique.Escalate),
	)

	return schema.DrugReport{
		Drug:           drug,
		Critique:       critique,
		IdentifiedRisk: renderRisk(assessment),
		Evidence:       evidence,
	}
}

// completedReport assembles the terminal report for a full run.
func (p *Pipeline) completedReport(ctx context.Context, state *RunState, extraction *schema.ExtractionResult, drugReports []schema.DrugReport) *schema.FinalReport {
	report := &schema.FinalReport{
		RunID:          state.RunID(),
		Status:         schema.RunStatusCompleted,
		Alert:          maxAlert(drugReports),
		PatientContext: extraction.Profile.ContextLine(),
		Profile:        &extraction.Profile,
		Drugs:          drugReports,
		GeneratedAt:    time.Now().UTC(),
	}

	_ = state.setReport(report)
	p.audit(ctx, state, report)
	return report
}

// lowConfidenceReport assembles the terminal report for a gated run. No risk
// assessment is presented; the warning asks for a clearer note instead.
func (p *Pipeline) lowConfidenceReport(ctx context.Context, state *RunState, extraction *schema.ExtractionResult) *schema.FinalReport {
	report := &schema.FinalReport{
		RunID:   state.RunID(),
		Status:  schema.RunStatusStoppedLowConfidence,
		Alert:   schema.AlertLevelWarning,
		Profile: &extraction.Profile,
		Warning: fmt.Sprintf(
			"Extraction confidence %.2f is below the %.2f threshold. "+
				"Please clarify the clinical note; no risk assessment was performed.",
			extraction.Confidence, p.cfg.ConfidenceThreshold),
		GeneratedAt: time.Now().UTC(),
	}

	_ = state.setReport(report)
	p.audit(ctx, state, report)
	return report
}

// failedReport assembles the terminal report for an aborted run.
func (p *Pipeline) failedReport(ctx context.Context, state *RunState, cause error) *schema.FinalReport {
	report := &schema.FinalReport{
		RunID:       state.RunID(),
		Status:      schema.RunStatusFailed,
		Alert:       schema.AlertLevelWarning,
		Warning:     "Pipeline run failed: " + cause.Error(),
		GeneratedAt: time.Now().UTC(),
	}

	_ = state.setReport(report)
	p.audit(ctx, state, report)
	return report
}

// audit emits the clinical audit record for a generated report.
func (p *Pipeline) audit(ctx context.Context, state *RunState, report *schema.FinalReport) {
	if !p.cfg.AuditLogging {
		return
	}

	p.logger.InfoContext(ctx, "clinical_report_generated",
		"run_id", state.RunID(),
		"status", report.Status,
		"alert_level", report.Alert,
		"escalated", report.Escalated(),
		"drug_count", len(report.Drugs),
		"duration_ms", time.Since(state.startedAt).Milliseconds(),
	)
}

// renderRisk joins the assessment summary and mechanism into the report's
// identified-risk line.
func renderRisk(a *schema.RiskAssessment) string {
	if a.Mechanism == "" {
		return a.Summary
	}
	return a.Summary + " Mechanism: " + a.Mechanism
}

// maxAlert returns the highest alert level across drug sections.
func maxAlert(reports []schema.DrugReport) schema.AlertLevel {
	rank := map[schema.AlertLevel]int{
		schema.AlertLevelInfo:     0,
		schema.AlertLevelWarning:  1,
		schema.AlertLevelCritical: 2,
	}

	highest := schema.AlertLevelInfo
	for _, r := range reports {
		if r.Critique != nil && rank[r.Critique.Alert] > rank[highest] {
			highest = r.Critique.Alert
		}
	}
	return highest
}
