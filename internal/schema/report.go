package schema

import (
	"time"

	"github.com/CodeNeuron58/RxGuard/internal/types"
)

// RunStatus is the terminal status of a pipeline run, surfaced at the
// CLI boundary so an incomplete analysis can never read as a cleared one.
type RunStatus string

const (
	RunStatusRunning              RunStatus = "running"
	RunStatusCompleted            RunStatus = "completed"
	RunStatusStoppedLowConfidence RunStatus = "stopped_low_confidence"
	RunStatusFailed               RunStatus = "failed"
)

// String returns the string representation of the RunStatus
func (s RunStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the status represents a terminal state.
func (s RunStatus) IsTerminal() bool {
	switch s {
	case RunStatusCompleted, RunStatusStoppedLowConfidence, RunStatusFailed:
		return true
	default:
		return false
	}
}

// DrugReport is the per-drug section of a final report. Exactly one of
// Critique or Error is populated: a failing drug evaluation is recorded
// without aborting the sibling evaluations.
type DrugReport struct {
	// Drug is the proposed drug this section covers.
	Drug string `json:"drug"`

	// Critique carries the assessment and critic verdict when evaluation succeeded.
	Critique *CritiqueResult `json:"critique,omitempty"`

	// IdentifiedRisk is the rendered risk statement (summary + mechanism).
	IdentifiedRisk string `json:"identified_risk,omitempty"`

	// Evidence lists the rendered citations, e.g. "WHO (page 12)".
	Evidence []string `json:"guideline_evidence,omitempty"`

	// Error records why this drug's evaluation failed, if it did.
	Error string `json:"error,omitempty"`
}

// FinalReport is the terminal artifact of a pipeline run.
type FinalReport struct {
	// RunID identifies the pipeline run that produced this report.
	RunID types.ID `json:"run_id"`

	// Status distinguishes completed analyses from gated or failed runs.
	Status RunStatus `json:"status"`

	// Alert is the highest alert level across all drug reports.
	Alert AlertLevel `json:"alert_level"`

	// PatientContext is the one-line patient summary.
	PatientContext string `json:"patient_context,omitempty"`

	// Profile is the extracted patient profile, when extraction succeeded.
	Profile *PatientProfile `json:"patient_profile,omitempty"`

	// Drugs holds one section per evaluated drug.
	Drugs []DrugReport `json:"drugs,omitempty"`

	// Warning explains a low-confidence stop, requesting clarification
	// instead of presenting a risk assessment.
	Warning string `json:"warning,omitempty"`

	// GeneratedAt is when the report was assembled.
	GeneratedAt time.Time `json:"generated_at"`
}

// Escalated reports whether any drug section carries a confirmed escalation.
func (r *FinalReport) Escalated() bool {
	for _, d := range r.Drugs {
		if d.Critique != nil && d.Critique.Escalate {
			return true
		}
	}
	return false
}
