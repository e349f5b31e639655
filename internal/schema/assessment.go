package schema

import (
	"fmt"

	"github.com/CodeNeuron58/RxGuard/internal/types"
)

// RiskAssessment is the Risk Reasoner's structured verdict for one proposed
// drug. Never mutated after creation; the Safety Critic derives a new
// CritiqueResult instead of editing it, keeping the evidence trail auditable.
type RiskAssessment struct {
	// Drug is the proposed drug under assessment.
	Drug string `json:"drug"`

	// Summary is a one-line statement of the identified risk.
	Summary string `json:"summary"`

	// Mechanism explains the physiological mechanism of action behind the risk.
	Mechanism string `json:"mechanism"`

	// Level is the assigned risk level.
	Level RiskLevel `json:"risk_level"`

	// Citations ground every claim in retrieved guideline excerpts.
	// Each must reference an excerpt supplied to the reasoner.
	Citations []Citation `json:"citations"`
}

// NewRiskAssessment validates and constructs a RiskAssessment.
func NewRiskAssessment(drug, summary, mechanism string, level RiskLevel, citations []Citation) (*RiskAssessment, error) {
	if drug == "" {
		return nil, types.NewError(types.VALIDATION_FAILED, "assessment drug cannot be empty")
	}
	if !level.IsValid() {
		return nil, types.NewError(types.VALIDATION_FAILED,
			fmt.Sprintf("invalid risk level: %q", level))
	}

	if citations == nil {
		citations = []Citation{}
	}

	return &RiskAssessment{
		Drug:      drug,
		Summary:   summary,
		Mechanism: mechanism,
		Level:     level,
		Citations: citations,
	}, nil
}

// CitedBy reports whether every citation on the assessment is contained in
// the given excerpt set. The first offending citation is returned when not.
func (a *RiskAssessment) CitedBy(excerpts []GuidelineExcerpt) (bool, *Citation) {
	known := make(map[string]struct{}, len(excerpts))
	for _, e := range excerpts {
		known[e.Ref().Key()] = struct{}{}
	}

	for i := range a.Citations {
		if _, ok := known[a.Citations[i].Key()]; !ok {
			return false, &a.Citations[i]
		}
	}

	return true, nil
}

// CritiqueResult is the Safety Critic's verdict over a RiskAssessment.
// It carries the original assessment untouched alongside the filtered level.
type CritiqueResult struct {
	// Assessment is the original, unmodified risk assessment.
	Assessment RiskAssessment `json:"assessment"`

	// Escalate is set when the critic independently confirms a material
	// safety concern (re-derived severity at moderate or above).
	Escalate bool `json:"escalate"`

	// FilteredLevel is the critic's adjusted risk level. Never higher than
	// the original assessment's level.
	FilteredLevel RiskLevel `json:"filtered_level"`

	// Rationale records why the critic held or lowered the level.
	Rationale string `json:"rationale"`

	// Alert is the report-facing alert level derived from FilteredLevel.
	Alert AlertLevel `json:"alert_level"`
}

// NewCritiqueResult validates and constructs a CritiqueResult.
// The filtered level must not exceed the original assessment's level: the
// critic may hold or lower risk, never raise it.
func NewCritiqueResult(assessment RiskAssessment, escalate bool, filtered RiskLevel, rationale string) (*CritiqueResult, error) {
	if !filtered.IsValid() {
		return nil, types.NewError(types.VALIDATION_FAILED,
			fmt.Sprintf("invalid filtered risk level: %q", filtered))
	}
	if filtered.Severity() > assessment.Level.Severity() {
		return nil, types.NewError(types.VALIDATION_FAILED,
			fmt.Sprintf("critique cannot raise risk level from %s to %s", assessment.Level, filtered))
	}

	return &CritiqueResult{
		Assessment:    assessment,
		Escalate:      escalate,
		FilteredLevel: filtered,
		Rationale:     rationale,
		Alert:         AlertForRisk(filtered),
	}, nil
}
