package ratings

import (
	"time"

	"github.com/google/uuid"
)

const (
	// hiddenRateThreshold is the hidden/total fraction above which a
	// population is flagged. The comparison is strictly greater-than.
	hiddenRateThreshold = 0.20

	// recentLowRatingWindow bounds how far back a low rating still counts
	// as recent.
	recentLowRatingWindow = 30 * 24 * time.Hour

	// lowRatingCeiling: scores strictly below this are low.
	lowRatingCeiling = 3
)

// AnalyzeRatingFacts folds a rating population into a PatternSummary.
// Pure: the same facts and the same now always produce the same summary.
// An empty population yields a zeroed summary with both flags false.
func AnalyzeRatingFacts(facts []RatingFact, now time.Time) PatternSummary {
	summary := PatternSummary{TotalRatings: len(facts)}

	visibleSum := 0
	visibleCount := 0
	oneStarByRater := make(map[uuid.UUID]int)
	recentCutoff := now.Add(-recentLowRatingWindow)

	for _, f := range facts {
		if f.Score >= 1 && f.Score <= 5 {
			summary.Distribution[f.Score-1]++
		}

		if f.IsVisible {
			visibleSum += f.Score
			visibleCount++
		} else {
			summary.HiddenCount++
		}

		if f.Score < lowRatingCeiling && !f.CreatedAt.Before(recentCutoff) {
			summary.RecentLowRatings++
		}

		if f.Score == 1 {
			oneStarByRater[f.RaterID]++
			if oneStarByRater[f.RaterID] > 1 {
				summary.HasMultipleOneStarFromSameRater = true
			}
		}
	}

	if visibleCount > 0 {
		summary.AverageRating = float64(visibleSum) / float64(visibleCount)
	}
	if summary.TotalRatings > 0 {
		hiddenRate := float64(summary.HiddenCount) / float64(summary.TotalRatings)
		summary.HasUnusuallyHighHiddenRate = hiddenRate > hiddenRateThreshold
	}

	return summary
}
