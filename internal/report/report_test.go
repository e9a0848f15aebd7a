package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/ranktest-cli/internal/model"
)

func sampleStats() model.SummaryStatistics {
	return model.SummaryStatistics{
		TotalAnalyzed:  3,
		VariantAWins:   2,
		VariantBWins:   1,
		WinPercentageA: 66.7,
		WinPercentageB: 33.3,
		OverallWinner:  "A",
		Significance:   "Not statistically significant",
		Recommendation: "STRONG: Implement variant A (better rankings, avg 1.00 duplicates vs 2.00)",
	}
}

func sampleResults() []model.ResultRecord {
	return []model.ResultRecord{
		{
			Index: 1, OriginalURL: "https://shop.example/a", Visits: 100,
			VariantA: model.VariantResult{Score: 7, Duplicates: 1},
			VariantB: model.VariantResult{Score: 5, Duplicates: 2},
			Analysis: model.Analysis{Winner: model.WinnerA, Confidence: 0.9},
		},
		{
			Index: 2, OriginalURL: "https://shop.example/b", Visits: 900,
			VariantA: model.VariantResult{Score: 6, Duplicates: 1},
			VariantB: model.VariantResult{Score: 8, Duplicates: 1},
			Analysis: model.Analysis{Winner: model.WinnerB, Confidence: 0.8},
		},
		{
			Index: 3, OriginalURL: "https://shop.example/c", Visits: 50,
			VariantA: model.VariantResult{Duplicates: -1},
			VariantB: model.VariantResult{Duplicates: -1},
			Analysis: model.Analysis{Winner: model.WinnerUnknown, Confidence: 0.5, Reasoning: "Analysis failed"},
		},
	}
}

func TestFormat(t *testing.T) {
	got := Format(sampleStats(), sampleResults(), time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC))

	assert.Contains(t, got, "# A/B Test Analysis Report")
	assert.Contains(t, got, "Generated: 2026-03-14 09:30:00")
	assert.Contains(t, got, "Overall winner: **A**")
	assert.Contains(t, got, "STRONG: Implement variant A")
	assert.Contains(t, got, "https://shop.example/a")

	// Degraded items show up both in the table and under failed analyses.
	assert.Contains(t, got, "unknown (failed)")
	assert.Contains(t, got, "## Failed Analyses")
	assert.Contains(t, got, "#3 https://shop.example/c: Analysis failed")

	// Unknown duplicate counts render as "?", not -1.
	assert.Contains(t, got, "| ? | ? |")
}

func TestFormat_SortsByVisitsDescending(t *testing.T) {
	got := Format(sampleStats(), sampleResults(), time.Now())

	posB := strings.Index(got, "https://shop.example/b")
	posA := strings.Index(got, "https://shop.example/a")
	posC := strings.Index(got, "https://shop.example/c")
	assert.Less(t, posB, posA)
	assert.Less(t, posA, posC)
}

func TestFormat_NoResults(t *testing.T) {
	got := Format(model.SummaryStatistics{}, nil, time.Now())
	assert.Contains(t, got, "No results.")
	assert.NotContains(t, got, "## Failed Analyses")
}

func TestWrite(t *testing.T) {
	dir := t.TempDir()

	path, err := Write(dir, sampleStats(), sampleResults())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ReportFile), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Overall winner")
}
