package schema

import (
	"fmt"
	"strings"

	"github.com/CodeNeuron58/RxGuard/internal/types"
)

// PatientProfile is the structured patient information extracted from a
// clinical note. Immutable once produced by the Profile Extractor.
type PatientProfile struct {
	// Age in years; 0 means unknown.
	Age int `json:"age,omitempty"`

	// Sex normalized to "male" or "female"; empty means unknown.
	Sex string `json:"sex,omitempty"`

	// Conditions is an ordered, deduplicated set of chronic conditions.
	Conditions []string `json:"conditions"`

	// RiskFactors is an ordered, deduplicated set of clinical risk factors
	// (e.g. "renal impairment" when CKD is present).
	RiskFactors []string `json:"risk_factors,omitempty"`

	// Medications is an ordered, deduplicated set of current medications.
	Medications []string `json:"medications"`

	// Confidence is the extraction confidence in [0,1]. Higher means more
	// trustworthy; callers must not assume calibration beyond that.
	Confidence float64 `json:"confidence"`
}

// NewPatientProfile validates and constructs a PatientProfile.
// Conditions and medications are deduplicated preserving first-seen order.
func NewPatientProfile(age int, sex string, conditions, riskFactors, medications []string, confidence float64) (*PatientProfile, error) {
	if age < 0 {
		return nil, types.NewError(types.VALIDATION_FAILED,
			fmt.Sprintf("age must be non-negative, got %d", age))
	}
	if confidence < 0 || confidence > 1 {
		return nil, types.NewError(types.VALIDATION_FAILED,
			fmt.Sprintf("confidence must be between 0 and 1, got %f", confidence))
	}

	return &PatientProfile{
		Age:         age,
		Sex:         strings.ToLower(strings.TrimSpace(sex)),
		Conditions:  dedupe(conditions),
		RiskFactors: dedupe(riskFactors),
		Medications: dedupe(medications),
		Confidence:  confidence,
	}, nil
}

// EmptyProfile returns a zero-confidence profile with no extracted fields.
// Used by the extractor when parsing fails after retries, so the confidence
// gate can react uniformly instead of handling an error path.
func EmptyProfile() *PatientProfile {
	return &PatientProfile{
		Conditions:  []string{},
		Medications: []string{},
		Confidence:  0.0,
	}
}

// ContextLine renders a one-line patient summary for reports,
// e.g. "68 year old male with CKD Stage 3, hypertension".
func (p *PatientProfile) ContextLine() string {
	var b strings.Builder

	if p.Age > 0 {
		fmt.Fprintf(&b, "%d year old", p.Age)
	} else {
		b.WriteString("patient of unknown age")
	}

	if p.Sex != "" {
		b.WriteString(" " + p.Sex)
	}

	if len(p.Conditions) > 0 {
		b.WriteString(" with " + strings.Join(p.Conditions, ", "))
	}

	return b.String()
}

// ProposedMedication describes a single proposed medication with dosing details.
// Zero values mean the detail was not stated in the note.
type ProposedMedication struct {
	DrugName         string `json:"drug_name"`
	DoseMgPerUnit    int    `json:"dose_mg_per_unit,omitempty"`
	FrequencyPerDay  int    `json:"frequency_per_day,omitempty"`
	DurationDays     int    `json:"duration_days,omitempty"`
	TotalDailyDoseMg int    `json:"total_daily_dose_mg,omitempty"`
}

// Validate checks dosing fields are non-negative.
func (m *ProposedMedication) Validate() error {
	if m.DoseMgPerUnit < 0 || m.FrequencyPerDay < 0 || m.DurationDays < 0 || m.TotalDailyDoseMg < 0 {
		return types.NewError(types.VALIDATION_FAILED, "medication dosing fields must be non-negative")
	}
	return nil
}

// ExtractionResult is the complete output of the Profile Extractor.
type ExtractionResult struct {
	Profile    PatientProfile     `json:"patient_profile"`
	Medication ProposedMedication `json:"proposed_medication"`
	Confidence float64            `json:"extraction_confidence"`
}

// dedupe removes duplicates (case-insensitive) preserving first-seen order.
// Blank entries are dropped.
func dedupe(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	result := make([]string, 0, len(items))

	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		key := strings.ToLower(item)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, item)
	}

	return result
}
