package model

// SummaryStatistics is recomputed in full from a compiled result set.
// Field names follow the statistics artifact this tool writes to disk.
type SummaryStatistics struct {
	TotalAnalyzed      int     `json:"total_urls_analyzed"`
	VariantAWins       int     `json:"variant_a_wins"`
	VariantBWins       int     `json:"variant_b_wins"`
	Ties               int     `json:"ties"`
	WinPercentageA     float64 `json:"win_percentage_a"`
	WinPercentageB     float64 `json:"win_percentage_b"`
	TiePercentage      float64 `json:"tie_percentage"`
	HighConfidenceA    int     `json:"high_confidence_wins_a"`
	HighConfidenceB    int     `json:"high_confidence_wins_b"`
	AverageConfidence  float64 `json:"average_confidence"`
	AverageScoreA      float64 `json:"average_score_a"`
	AverageScoreB      float64 `json:"average_score_b"`
	WeightedScoreA     float64 `json:"weighted_score_a"`
	WeightedScoreB     float64 `json:"weighted_score_b"`
	AverageDuplicatesA float64 `json:"average_duplicates_a"`
	AverageDuplicatesB float64 `json:"average_duplicates_b"`
	TotalDuplicatesA   int     `json:"total_duplicates_a"`
	TotalDuplicatesB   int     `json:"total_duplicates_b"`
	DuplicateDiff      float64 `json:"duplicate_difference"`
	OverallWinner      string  `json:"overall_winner"`
	Significance       string  `json:"statistical_significance"`
	Recommendation     string  `json:"recommendation"`
}
