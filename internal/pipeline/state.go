package pipeline

import (
	"sync"
	"time"

	"github.com/CodeNeuron58/RxGuard/internal/schema"
	"github.com/CodeNeuron58/RxGuard/internal/types"
)

// RunState is the envelope carried through a pipeline run. Stage fields are
// write-once: each setter stores its value exactly once as the run advances,
// so a later stage can never silently rewrite an earlier stage's output.
type RunState struct {
	mu sync.Mutex

	runID     types.ID
	note      string
	drugs     []string
	stage     Stage
	startedAt time.Time

	extraction *schema.ExtractionResult
	report     *schema.FinalReport
	err        error
}

// newRunState creates a run envelope at the start stage.
func newRunState(note string, drugs []string) *RunState {
	return &RunState{
		runID:     types.NewID(),
		note:      note,
		drugs:     drugs,
		stage:     StageStart,
		startedAt: time.Now().UTC(),
	}
}

// RunID returns the run identifier.
func (s *RunState) RunID() types.ID {
	return s.runID
}

// Stage returns the current stage.
func (s *RunState) Stage() Stage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stage
}

// advance moves the run to the next stage, enforcing the transition table.
func (s *RunState) advance(next Stage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.stage.CanTransitionTo(next) {
		return transitionError(s.stage, next)
	}
	s.stage = next
	return nil
}

// fail moves the run to the failed stage from anywhere non-terminal and
// records the cause. The first recorded error wins.
func (s *RunState) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stage.IsTerminal() {
		return
	}
	s.stage = StageFailed
	if s.err == nil {
		s.err = err
	}
}

// setExtraction stores the extraction result. Single assignment.
func (s *RunState) setExtraction(result *schema.ExtractionResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.extraction != nil {
		return types.NewError(types.PIPELINE_FAILED, "extraction result already set")
	}
	s.extraction = result
	return nil
}

// setReport stores the final report. Single assignment.
func (s *RunState) setReport(report *schema.FinalReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.report != nil {
		return types.NewError(types.PIPELINE_FAILED, "final report already set")
	}
	s.report = report
	return nil
}

// Err returns the recorded failure cause, nil for successful runs.
func (s *RunState) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
