// Package classifier judges which variant of a listing page ranks better.
package classifier

import "context"

// Request carries everything the judge needs for one item: both
// screenshots plus the titles extracted from each rendered page.
type Request struct {
	Query       string
	TitlesA     []string
	TitlesB     []string
	ScreenshotA []byte
	ScreenshotB []byte
}

// Judgment is the structured verdict over one variant pair. Duplicate
// counts of -1 mean "not determined".
type Judgment struct {
	Winner          string  `json:"winner"`
	Confidence      float64 `json:"confidence"`
	ScoreA          float64 `json:"score_a"`
	ScoreB          float64 `json:"score_b"`
	Reasoning       string  `json:"reasoning"`
	KeyDifferences  string  `json:"key_differences"`
	DuplicatesInA   int     `json:"duplicates_in_a"`
	DuplicatesInB   int     `json:"duplicates_in_b"`
	UniqueProductsA int     `json:"unique_products_a"`
	UniqueProductsB int     `json:"unique_products_b"`
	DuplicateNotes  string  `json:"duplicate_notes"`
}

// Classifier is the single judgment capability the pipeline depends on.
// Implementations own the prompt and response schema; callers only see
// Request in, Judgment out.
type Classifier interface {
	Classify(ctx context.Context, req Request) (*Judgment, error)
}

// Degraded returns the placeholder judgment written when classification
// fails, so the item leaves the backlog without pretending a verdict.
func Degraded() *Judgment {
	return &Judgment{
		Winner:          "unknown",
		Confidence:      0.5,
		ScoreA:          0,
		ScoreB:          0,
		Reasoning:       "Analysis failed",
		KeyDifferences:  "Unable to analyze",
		DuplicatesInA:   -1,
		DuplicatesInB:   -1,
		UniqueProductsA: -1,
		UniqueProductsB: -1,
	}
}
