package schema

import (
	"encoding/json"
	"fmt"
)

// RiskLevel classifies the clinical risk of a proposed medication.
type RiskLevel string

const (
	// RiskLevelUnknown means no guideline evidence was available to assert
	// risk either way. Only valid with an empty citation set.
	RiskLevelUnknown RiskLevel = "unknown"

	// RiskLevelLow means no clinically significant interaction was found in evidence.
	RiskLevelLow RiskLevel = "low"

	// RiskLevelModerate means a plausible interaction requiring monitoring.
	RiskLevelModerate RiskLevel = "moderate"

	// RiskLevelHigh means a documented contraindication or severe interaction per evidence.
	RiskLevelHigh RiskLevel = "high"
)

// String returns the string representation of the RiskLevel
func (l RiskLevel) String() string {
	return string(l)
}

// IsValid checks if the risk level is a valid value
func (l RiskLevel) IsValid() bool {
	switch l {
	case RiskLevelUnknown, RiskLevelLow, RiskLevelModerate, RiskLevelHigh:
		return true
	default:
		return false
	}
}

// Severity returns a numeric rank for ordering risk levels.
// Higher values mean more severe; unknown ranks below low.
func (l RiskLevel) Severity() int {
	switch l {
	case RiskLevelLow:
		return 1
	case RiskLevelModerate:
		return 2
	case RiskLevelHigh:
		return 3
	default:
		return 0
	}
}

// MarshalJSON implements json.Marshaler
func (l RiskLevel) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(l))
}

// UnmarshalJSON implements json.Unmarshaler
func (l *RiskLevel) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}

	level := RiskLevel(str)
	if !level.IsValid() {
		return fmt.Errorf("invalid risk level: %s", str)
	}

	*l = level
	return nil
}

// AlertLevel classifies how prominently a finding should surface to the clinician.
type AlertLevel string

const (
	AlertLevelInfo     AlertLevel = "info"
	AlertLevelWarning  AlertLevel = "warning"
	AlertLevelCritical AlertLevel = "critical"
)

// String returns the string representation of the AlertLevel
func (a AlertLevel) String() string {
	return string(a)
}

// IsValid checks if the alert level is a valid value
func (a AlertLevel) IsValid() bool {
	switch a {
	case AlertLevelInfo, AlertLevelWarning, AlertLevelCritical:
		return true
	default:
		return false
	}
}

// AlertForRisk maps a risk level to the alert level surfaced in reports.
func AlertForRisk(level RiskLevel) AlertLevel {
	switch level {
	case RiskLevelHigh:
		return AlertLevelCritical
	case RiskLevelModerate:
		return AlertLevelWarning
	default:
		return AlertLevelInfo
	}
}
