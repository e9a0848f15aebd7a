package model

// Winner identifies which variant a judgment favored.
type Winner string

const (
	WinnerA       Winner = "A"
	WinnerB       Winner = "B"
	WinnerTie     Winner = "Tie"
	WinnerUnknown Winner = "unknown"
)

// WorkItem is one row of the input spreadsheet. Index is the 1-based row
// position and is the join key between the backlog and result files.
type WorkItem struct {
	Index  int    `json:"url_index"`
	URL    string `json:"url"`
	Visits int    `json:"visits"`
}

// VariantResult captures one rendered variant of a listing page.
type VariantResult struct {
	URL            string   `json:"url"`
	Screenshot     string   `json:"screenshot"`
	H1Title        string   `json:"h1_title"`
	ProductCount   int      `json:"product_count"`
	ProductTitles  []string `json:"product_titles,omitempty"`
	Score          float64  `json:"score"`
	Duplicates     int      `json:"duplicates"`
	UniqueProducts int      `json:"unique_products"`
}

// Analysis is the judgment over a pair of variants. A degraded analysis
// (winner "unknown", zero scores) marks items whose classification failed.
type Analysis struct {
	Winner         Winner  `json:"winner"`
	Confidence     float64 `json:"confidence"`
	Reasoning      string  `json:"reasoning"`
	KeyDifferences string  `json:"key_differences"`
	DuplicateNotes string  `json:"duplicate_notes,omitempty"`
}

// ResultRecord is the persisted outcome of processing one WorkItem.
// Exactly one file exists per processed index; a missing file means the
// item is still in the backlog.
type ResultRecord struct {
	Index       int           `json:"url_index"`
	OriginalURL string        `json:"original_url"`
	Visits      int           `json:"visits"`
	VariantA    VariantResult `json:"variant_a"`
	VariantB    VariantResult `json:"variant_b"`
	Analysis    Analysis      `json:"analysis"`
}

// Degraded reports whether this record was written with a failed judgment.
func (r ResultRecord) Degraded() bool {
	return r.Analysis.Winner == WinnerUnknown
}
