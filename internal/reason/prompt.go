package reason

import (
	"fmt"
	"strings"

	"github.com/CodeNeuron58/RxGuard/internal/llm"
	"github.com/CodeNeuron58/RxGuard/internal/schema"
)

const reasoningSystemPrompt = `You are a clinical pharmacology reasoner.
Assess the risk of the proposed drug for the given patient using ONLY the
guideline excerpts provided. Respond with a single JSON object:

{
  "summary": "<one-line statement of the identified risk>",
  "mechanism": "<physiological mechanism behind the risk>",
  "risk_level": "<unknown|low|moderate|high>",
  "citations": [{"source": "<source>", "locator": "<locator>"}, ...]
}

Rules:
- Every claim must be supported by a citation to one of the provided excerpts.
- Cite only the sources and locators shown in the evidence block.
- If the evidence is ambiguous or conflicting, assign the higher risk level.
- Use "unknown" only when no guideline evidence is provided.
- Do not use any knowledge beyond the provided excerpts.`

const groundedRetrySuffix = `

Your previous answer was not grounded in the supplied evidence. Cite ONLY the
source and locator pairs listed in the evidence block, exactly as written.
Evidence IS provided, so "unknown" is not an acceptable risk level; commit to
low, moderate, or high.`

// assessmentPrompt builds the first-attempt message sequence.
func assessmentPrompt(profile *schema.PatientProfile, drug string, excerpts []schema.GuidelineExcerpt) []llm.Message {
	return []llm.Message{
		llm.NewSystemMessage(reasoningSystemPrompt),
		llm.NewUserMessage(userPrompt(profile, drug, excerpts)),
	}
}

// groundedRetryPrompt builds the retry sequence after a citation violation.
func groundedRetryPrompt(profile *schema.PatientProfile, drug string, excerpts []schema.GuidelineExcerpt) []llm.Message {
	return []llm.Message{
		llm.NewSystemMessage(reasoningSystemPrompt + groundedRetrySuffix),
		llm.NewUserMessage(userPrompt(profile, drug, excerpts)),
	}
}

// userPrompt renders the patient context, proposed drug, and evidence block.
func userPrompt(profile *schema.PatientProfile, drug string, excerpts []schema.GuidelineExcerpt) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Patient: %s\n", profile.ContextLine())
	if len(profile.RiskFactors) > 0 {
		fmt.Fprintf(&b, "Risk factors: %s\n", strings.Join(profile.RiskFactors, ", "))
	}
	if len(profile.Medications) > 0 {
		fmt.Fprintf(&b, "Current medications: %s\n", strings.Join(profile.Medications, ", "))
	}
	fmt.Fprintf(&b, "\nProposed drug: %s\n\nGuideline evidence:\n", drug)

	for i, e := range excerpts {
		fmt.Fprintf(&b, "[%d] source=%q locator=%q\n%s\n\n", i+1, e.Source, e.Locator, e.Text)
	}

	return b.String()
}
