// Package stats computes summary statistics over a compiled result set.
package stats

import (
	"fmt"
	"math"

	"github.com/sells-group/ranktest-cli/internal/model"
)

// highConfidence is the threshold above which a win counts as high confidence.
const highConfidence = 0.8

// Compute derives summary statistics from compiled results. The summary is
// recomputed in full on every call; an empty input yields the zero value
// with a no-data recommendation.
func Compute(results []model.ResultRecord) model.SummaryStatistics {
	var s model.SummaryStatistics
	if len(results) == 0 {
		s.OverallWinner = string(model.WinnerUnknown)
		s.Significance = "Insufficient data"
		s.Recommendation = "No results to analyze"
		return s
	}

	var (
		confidenceSum float64
		scoreSumA     float64
		scoreSumB     float64
		weightedSumA  float64
		weightedSumB  float64
		weightTotal   float64
		dupCountA     int
		dupCountB     int
		dupItems      int
	)

	for _, r := range results {
		switch r.Analysis.Winner {
		case model.WinnerA:
			s.VariantAWins++
			if r.Analysis.Confidence > highConfidence {
				s.HighConfidenceA++
			}
		case model.WinnerB:
			s.VariantBWins++
			if r.Analysis.Confidence > highConfidence {
				s.HighConfidenceB++
			}
		case model.WinnerTie:
			s.Ties++
		}

		confidenceSum += r.Analysis.Confidence
		scoreSumA += r.VariantA.Score
		scoreSumB += r.VariantB.Score

		// Traffic-weighted scores. Items without visit data weigh 1 so
		// they still participate.
		w := float64(r.Visits)
		if w <= 0 {
			w = 1
		}
		weightedSumA += r.VariantA.Score * w
		weightedSumB += r.VariantB.Score * w
		weightTotal += w

		// Duplicate counts of -1 mean detection failed for that item.
		if r.VariantA.Duplicates >= 0 && r.VariantB.Duplicates >= 0 {
			dupCountA += r.VariantA.Duplicates
			dupCountB += r.VariantB.Duplicates
			dupItems++
		}
	}

	total := len(results)
	s.TotalAnalyzed = total
	s.WinPercentageA = round1(pct(s.VariantAWins, total))
	s.WinPercentageB = round1(pct(s.VariantBWins, total))
	s.TiePercentage = round1(pct(s.Ties, total))
	s.AverageConfidence = round3(confidenceSum / float64(total))
	s.AverageScoreA = round2(scoreSumA / float64(total))
	s.AverageScoreB = round2(scoreSumB / float64(total))
	s.WeightedScoreA = round2(weightedSumA / weightTotal)
	s.WeightedScoreB = round2(weightedSumB / weightTotal)

	s.TotalDuplicatesA = dupCountA
	s.TotalDuplicatesB = dupCountB
	if dupItems > 0 {
		s.AverageDuplicatesA = round2(float64(dupCountA) / float64(dupItems))
		s.AverageDuplicatesB = round2(float64(dupCountB) / float64(dupItems))
		s.DuplicateDiff = round2(s.AverageDuplicatesB - s.AverageDuplicatesA)
	}

	switch {
	case s.VariantAWins > s.VariantBWins:
		s.OverallWinner = string(model.WinnerA)
	case s.VariantBWins > s.VariantAWins:
		s.OverallWinner = string(model.WinnerB)
	default:
		s.OverallWinner = string(model.WinnerTie)
	}

	s.Significance = Significance(s.VariantAWins, s.VariantBWins, total)
	s.Recommendation = Recommend(s)

	return s
}

// Significance classifies the win split with a one-proportion z-test
// against the even-split null hypothesis.
func Significance(winsA, winsB, total int) string {
	if total == 0 {
		return "Insufficient data"
	}

	z := math.Abs(float64(winsA)-float64(winsB)) / math.Sqrt(float64(total)/4)

	switch {
	case z > 2.58:
		return "Highly significant (99% confidence)"
	case z > 1.96:
		return "Significant (95% confidence)"
	case z > 1.64:
		return "Marginally significant (90% confidence)"
	default:
		return "Not statistically significant"
	}
}

// Recommend turns a computed summary into an actionable recommendation.
// Ranking wins dominate; duplicate rates only decide otherwise-even splits.
func Recommend(s model.SummaryStatistics) string {
	if s.TotalAnalyzed == 0 {
		return "No results to analyze"
	}

	winsA := float64(s.VariantAWins)
	winsB := float64(s.VariantBWins)

	switch {
	case winsA > winsB*1.2:
		return fmt.Sprintf(
			"STRONG: Implement variant A (better rankings, avg %.2f duplicates vs %.2f)",
			s.AverageDuplicatesA, s.AverageDuplicatesB)
	case winsB > winsA*1.2:
		return fmt.Sprintf(
			"STRONG: Implement variant B (better rankings, avg %.2f duplicates vs %.2f)",
			s.AverageDuplicatesB, s.AverageDuplicatesA)
	case math.Abs(s.AverageDuplicatesA-s.AverageDuplicatesB) > 0.5:
		preferred := "A"
		if s.AverageDuplicatesA > s.AverageDuplicatesB {
			preferred = "B"
		}
		return fmt.Sprintf(
			"MARGINAL: Rankings are comparable; prefer variant %s for fewer duplicate listings",
			preferred)
	default:
		return "NO CLEAR WINNER: Extend testing with more URLs"
	}
}

func pct(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
