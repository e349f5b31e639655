package extract

import (
	"fmt"

	"github.com/CodeNeuron58/RxGuard/internal/llm"
)

const extractionSystemPrompt = `You are a clinical information extraction assistant.
Read the clinical note and extract the patient profile and the proposed medication.
Respond with a single JSON object and nothing else, using this exact shape:

{
  "patient_profile": {
    "age": <integer years, 0 if not stated>,
    "sex": "<male|female|empty if not stated>",
    "conditions": ["<chronic condition>", ...],
    "risk_factors": ["<clinical risk factor, e.g. renal impairment>", ...],
    "medications": ["<current medication>", ...]
  },
  "proposed_medication": {
    "drug_name": "<drug proposed in the note, empty if none>",
    "dose_mg_per_unit": <integer mg, 0 if not stated>,
    "frequency_per_day": <integer, 0 if not stated>,
    "duration_days": <integer, 0 if not stated>,
    "total_daily_dose_mg": <integer mg, 0 if not stated>
  },
  "confidence": <your confidence in this extraction, 0.0 to 1.0>
}

Extract only what the note states. Never invent values.`

const strictSuffix = `

Your previous answer was not valid JSON. Output ONLY the JSON object,
with no surrounding prose, no markdown fences, and no trailing text.`

// extractionPrompt builds the first-attempt message sequence.
func extractionPrompt(note string) []llm.Message {
	return []llm.Message{
		llm.NewSystemMessage(extractionSystemPrompt),
		llm.NewUserMessage(fmt.Sprintf("Clinical note:\n\n%s", note)),
	}
}

// strictExtractionPrompt builds the retry sequence after a parse failure.
func strictExtractionPrompt(note string) []llm.Message {
	return []llm.Message{
		llm.NewSystemMessage(extractionSystemPrompt + strictSuffix),
		llm.NewUserMessage(fmt.Sprintf("Clinical note:\n\n%s", note)),
	}
}
