package critic

import (
	"fmt"
	"strings"

	"github.com/CodeNeuron58/RxGuard/internal/llm"
	"github.com/CodeNeuron58/RxGuard/internal/schema"
)

const critiqueSystemPrompt = `You are an independent clinical safety reviewer.
Given a patient, a proposed drug, and guideline evidence, derive the risk
level yourself from the evidence alone. You are NOT told what a previous
reviewer concluded. Respond with a single JSON object:

{
  "risk_level": "<unknown|low|moderate|high>",
  "rationale": "<one or two sentences justifying the level from the evidence>"
}

Derive strictly from the provided excerpts. If the evidence is ambiguous,
assign the higher risk level.`

// critiquePrompt builds the message sequence for an independent re-derivation.
// The reasoner's assigned level is deliberately withheld so agreement is
// informative rather than anchored.
func critiquePrompt(profile *schema.PatientProfile, assessment *schema.RiskAssessment, excerpts []schema.GuidelineExcerpt) []llm.Message {
	var b strings.Builder

	fmt.Fprintf(&b, "Patient: %s\n", profile.ContextLine())
	if len(profile.Medications) > 0 {
		fmt.Fprintf(&b, "Current medications: %s\n", strings.Join(profile.Medications, ", "))
	}
	fmt.Fprintf(&b, "\nProposed drug: %s\n", assessment.Drug)
	fmt.Fprintf(&b, "Claimed mechanism under review: %s\n\nGuideline evidence:\n", assessment.Mechanism)

	for i, e := range excerpts {
		fmt.Fprintf(&b, "[%d] source=%q locator=%q\n%s\n\n", i+1, e.Source, e.Locator, e.Text)
	}

	return []llm.Message{
		llm.NewSystemMessage(critiqueSystemPrompt),
		llm.NewUserMessage(b.String()),
	}
}
