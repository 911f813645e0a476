package reputation

import (
	"math"
	"time"
)

// Maximum points each component contributes to the 0-100 total.
const (
	MaxRatingScore      = 30
	MaxCompletionScore  = 25
	MaxReliabilityScore = 25
	MaxExperienceScore  = 20
)

// Points deducted from the reliability component per event. Every
// cancellation is counted once at its heaviest classification.
const (
	CancellationPenalty     = 1
	LateCancellationPenalty = 3
	NoShowPenalty           = 5
)

// Category thresholds on the total score.
const (
	ExcellentThreshold = 80
	GoodThreshold      = 60
	FairThreshold      = 40
)

// Experience tier boundaries on TotalRides.
const (
	experienceTier1Max = 5
	experienceTier2Max = 15
	experienceTier3Max = 30
)

// CalculateTrustScore converts aggregate statistics into a bounded 0-100
// breakdown. It is pure and deterministic; now is recorded as CalculatedAt,
// never consulted. UserID on the returned breakdown is left for the caller
// to fill.
func CalculateTrustScore(stats UserRideStats, now time.Time) TrustScoreBreakdown {
	components := ScoreComponents{
		Rating:      ratingScore(stats),
		Completion:  completionScore(stats),
		Reliability: reliabilityScore(stats),
		Experience:  experienceScore(stats.TotalRides),
	}

	total := components.Rating + components.Completion + components.Reliability + components.Experience

	return TrustScoreBreakdown{
		Components: components,
		Total:      total,
		Category:   Categorize(total),
		Calculations: Calculations{
			AverageRating:        stats.AverageRating,
			TotalRatings:         stats.TotalRatings,
			CompletedRides:       stats.CompletedRides,
			TotalRides:           stats.TotalRides,
			CompletionRate:       completionRate(stats),
			Cancellations:        stats.Cancellations,
			LateCancellations:    stats.LateCancellations,
			NoShows:              stats.NoShows,
			ReliabilityDeduction: reliabilityDeduction(stats),
		},
		CalculatedAt: now,
	}
}

// Categorize maps a total score to its display category.
func Categorize(total int) Category {
	switch {
	case total >= ExcellentThreshold:
		return CategoryExcellent
	case total >= GoodThreshold:
		return CategoryGood
	case total >= FairThreshold:
		return CategoryFair
	default:
		return CategoryPoor
	}
}

// ratingScore scales the average rating onto 0-30. A user with no ratings
// scores 0, not the midpoint.
func ratingScore(stats UserRideStats) int {
	if stats.TotalRatings == 0 {
		return 0
	}
	score := roundHalfUp(stats.AverageRating / 5 * MaxRatingScore)
	return clamp(score, 0, MaxRatingScore)
}

// completionScore scales the completion rate onto 0-25.
func completionScore(stats UserRideStats) int {
	if stats.TotalRides == 0 {
		return 0
	}
	score := roundHalfUp(completionRate(stats) * MaxCompletionScore)
	return clamp(score, 0, MaxCompletionScore)
}

// reliabilityScore starts every user at the full 25 points and deducts per
// cancellation event, floored at 0.
func reliabilityScore(stats UserRideStats) int {
	score := MaxReliabilityScore - reliabilityDeduction(stats)
	if score < 0 {
		return 0
	}
	return score
}

func reliabilityDeduction(stats UserRideStats) int {
	ordinary := stats.Cancellations - stats.LateCancellations - stats.NoShows
	if ordinary < 0 {
		ordinary = 0
	}
	return ordinary*CancellationPenalty +
		stats.LateCancellations*LateCancellationPenalty +
		stats.NoShows*NoShowPenalty
}

// experienceScore awards tenure in tiers of total rides taken.
func experienceScore(totalRides int) int {
	switch {
	case totalRides <= 0:
		return 0
	case totalRides <= experienceTier1Max:
		return 5
	case totalRides <= experienceTier2Max:
		return 10
	case totalRides <= experienceTier3Max:
		return 15
	default:
		return MaxExperienceScore
	}
}

func completionRate(stats UserRideStats) float64 {
	if stats.TotalRides == 0 {
		return 0
	}
	return float64(stats.CompletedRides) / float64(stats.TotalRides)
}

func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
