package pipeline

import (
	"fmt"

	"github.com/CodeNeuron58/RxGuard/internal/types"
)

// Stage identifies where a run is in the safety pipeline. Runs advance
// through an explicit transition table; any other move is a bug.
type Stage string

const (
	StageStart                Stage = "start"
	StageExtractingProfile    Stage = "extracting_profile"
	StageConfidenceGate       Stage = "confidence_gate"
	StageRetrievingGuidelines Stage = "retrieving_guidelines"
	StageReasoning            Stage = "reasoning"
	StageCritiquing           Stage = "critiquing"
	StageCompleted            Stage = "completed"
	StageStoppedLowConfidence Stage = "stopped_low_confidence"
	StageFailed               Stage = "failed"
)

// String returns the string representation of the Stage
func (s Stage) String() string {
	return string(s)
}

// IsTerminal returns true if no further transitions are allowed.
func (s Stage) IsTerminal() bool {
	switch s {
	case StageCompleted, StageStoppedLowConfidence, StageFailed:
		return true
	default:
		return false
	}
}

// validTransitions is the full transition table of the run state machine.
// Every non-terminal stage may also move to failed on error.
var validTransitions = map[Stage][]Stage{
	StageStart:                {StageExtractingProfile, StageFailed},
	StageExtractingProfile:    {StageConfidenceGate, StageFailed},
	StageConfidenceGate:       {StageRetrievingGuidelines, StageStoppedLowConfidence, StageFailed},
	StageRetrievingGuidelines: {StageReasoning, StageFailed},
	StageReasoning:            {StageCritiquing, StageFailed},
	StageCritiquing:           {StageCompleted, StageFailed},
}

// CanTransitionTo reports whether moving from s to next is allowed.
func (s Stage) CanTransitionTo(next Stage) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// transitionError builds the error raised on an illegal stage move.
func transitionError(from, to Stage) error {
	return types.NewError(types.PIPELINE_FAILED,
		fmt.Sprintf("illegal stage transition from %s to %s", from, to))
}
