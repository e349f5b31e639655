package schema

import (
	"fmt"

	"github.com/CodeNeuron58/RxGuard/internal/types"
)

// GuidelineExcerpt is a retrieved guideline passage with source and locator
// metadata used as citation evidence. Read-only once produced.
type GuidelineExcerpt struct {
	// Source identifies the issuing body or document (e.g. "WHO", "NICE").
	Source string `json:"source"`

	// Locator is the page or section within the source (e.g. "page 12").
	Locator string `json:"locator"`

	// Text is the excerpt content.
	Text string `json:"text"`

	// Score is the retrieval relevance score; higher is more relevant.
	Score float64 `json:"score"`
}

// NewGuidelineExcerpt validates and constructs a GuidelineExcerpt.
func NewGuidelineExcerpt(source, locator, text string, score float64) (*GuidelineExcerpt, error) {
	if source == "" {
		return nil, types.NewError(types.VALIDATION_FAILED, "excerpt source cannot be empty")
	}
	if text == "" {
		return nil, types.NewError(types.VALIDATION_FAILED, "excerpt text cannot be empty")
	}

	return &GuidelineExcerpt{
		Source:  source,
		Locator: locator,
		Text:    text,
		Score:   score,
	}, nil
}

// Ref returns the citation reference for this excerpt.
func (e *GuidelineExcerpt) Ref() Citation {
	return Citation{Source: e.Source, Locator: e.Locator}
}

// Citation references a GuidelineExcerpt by source and locator.
type Citation struct {
	Source  string `json:"source"`
	Locator string `json:"locator"`
}

// Key returns a stable identity for containment checks.
func (c Citation) Key() string {
	return c.Source + "#" + c.Locator
}

// String renders the citation for report evidence lists, e.g. "WHO (page 12)".
func (c Citation) String() string {
	if c.Locator == "" {
		return c.Source
	}
	return fmt.Sprintf("%s (%s)", c.Source, c.Locator)
}
