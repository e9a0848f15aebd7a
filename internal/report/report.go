// Package report renders the markdown report and console summary for a run.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/ranktest-cli/internal/model"
)

// ReportFile is the markdown report filename inside the results directory.
const ReportFile = "ab_test_report.md"

// Format generates the human-readable A/B test report.
func Format(stats model.SummaryStatistics, results []model.ResultRecord, generatedAt time.Time) string {
	var b strings.Builder

	b.WriteString("# A/B Test Analysis Report\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", generatedAt.Format("2006-01-02 15:04:05"))

	// Verdict.
	b.WriteString("## Verdict\n")
	fmt.Fprintf(&b, "- Overall winner: **%s**\n", stats.OverallWinner)
	fmt.Fprintf(&b, "- Statistical significance: %s\n", stats.Significance)
	fmt.Fprintf(&b, "- Recommendation: %s\n\n", stats.Recommendation)

	// Summary.
	b.WriteString("## Summary\n")
	fmt.Fprintf(&b, "- URLs analyzed: %d\n", stats.TotalAnalyzed)
	fmt.Fprintf(&b, "- Variant A wins: %d (%.1f%%)\n", stats.VariantAWins, stats.WinPercentageA)
	fmt.Fprintf(&b, "- Variant B wins: %d (%.1f%%)\n", stats.VariantBWins, stats.WinPercentageB)
	fmt.Fprintf(&b, "- Ties: %d (%.1f%%)\n", stats.Ties, stats.TiePercentage)
	fmt.Fprintf(&b, "- High-confidence wins: A %d, B %d\n", stats.HighConfidenceA, stats.HighConfidenceB)
	fmt.Fprintf(&b, "- Average confidence: %.3f\n\n", stats.AverageConfidence)

	// Scores.
	b.WriteString("## Scores\n")
	fmt.Fprintf(&b, "- Average score: A %.2f, B %.2f\n", stats.AverageScoreA, stats.AverageScoreB)
	fmt.Fprintf(&b, "- Traffic-weighted score: A %.2f, B %.2f\n\n", stats.WeightedScoreA, stats.WeightedScoreB)

	// Duplicates.
	b.WriteString("## Duplicate Listings\n")
	fmt.Fprintf(&b, "- Average duplicates per page: A %.2f, B %.2f\n",
		stats.AverageDuplicatesA, stats.AverageDuplicatesB)
	fmt.Fprintf(&b, "- Total duplicates: A %d, B %d\n", stats.TotalDuplicatesA, stats.TotalDuplicatesB)
	fmt.Fprintf(&b, "- Difference (B - A): %.2f\n\n", stats.DuplicateDiff)

	// Per-URL breakdown, highest traffic first.
	b.WriteString("## Per-URL Results\n")
	if len(results) == 0 {
		b.WriteString("No results.\n")
		return b.String()
	}

	sorted := make([]model.ResultRecord, len(results))
	copy(sorted, results)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Visits != sorted[j].Visits {
			return sorted[i].Visits > sorted[j].Visits
		}
		return sorted[i].Index < sorted[j].Index
	})

	b.WriteString("| # | URL | Visits | Winner | Conf | Score A | Score B | Dup A | Dup B |\n")
	b.WriteString("|---|-----|--------|--------|------|---------|---------|-------|-------|\n")
	for _, r := range sorted {
		winner := string(r.Analysis.Winner)
		if r.Degraded() {
			winner = "unknown (failed)"
		}
		fmt.Fprintf(&b, "| %d | %s | %d | %s | %.2f | %.1f | %.1f | %s | %s |\n",
			r.Index, r.OriginalURL, r.Visits, winner, r.Analysis.Confidence,
			r.VariantA.Score, r.VariantB.Score,
			dupCell(r.VariantA.Duplicates), dupCell(r.VariantB.Duplicates))
	}
	b.WriteString("\n")

	// Degraded items get their own section so failures are not buried in
	// the table.
	var degraded []model.ResultRecord
	for _, r := range sorted {
		if r.Degraded() {
			degraded = append(degraded, r)
		}
	}
	if len(degraded) > 0 {
		b.WriteString("## Failed Analyses\n")
		for _, r := range degraded {
			fmt.Fprintf(&b, "- #%d %s: %s\n", r.Index, r.OriginalURL, r.Analysis.Reasoning)
		}
	}

	return b.String()
}

func dupCell(n int) string {
	if n < 0 {
		return "?"
	}
	return fmt.Sprintf("%d", n)
}

// Write renders the report into the results directory and returns its path.
func Write(dir string, stats model.SummaryStatistics, results []model.ResultRecord) (string, error) {
	path := filepath.Join(dir, ReportFile)
	content := Format(stats, results, time.Now())
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", eris.Wrap(err, "report: write report")
	}
	return path, nil
}

// PrintSummary writes a short console summary to stdout.
func PrintSummary(stats model.SummaryStatistics) {
	p := message.NewPrinter(language.English)
	p.Printf("\nAnalyzed %d URLs\n", stats.TotalAnalyzed)
	p.Printf("  Variant A wins: %d (%.1f%%)\n", stats.VariantAWins, stats.WinPercentageA)
	p.Printf("  Variant B wins: %d (%.1f%%)\n", stats.VariantBWins, stats.WinPercentageB)
	p.Printf("  Ties:           %d (%.1f%%)\n", stats.Ties, stats.TiePercentage)
	p.Printf("  Significance:   %s\n", stats.Significance)
	p.Printf("  Recommendation: %s\n", stats.Recommendation)
}
