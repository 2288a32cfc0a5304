package rank

import "sort"

type Tier string

const (
	TierCritical Tier = "critical"
	TierHigh     Tier = "high"
	TierModerate Tier = "moderate"
	TierLow      Tier = "low"
)

const (
	criticalThreshold = 0.9
	highThreshold     = 0.7
	moderateThreshold = 0.6
)

type Result struct {
	Rank       int
	DocumentID string
	Score      float64
	Tier       Tier
}

// TierFor classifies a score. Boundaries are closed at the bottom and open at
// the top; anything below 0.6, including NaN, is low.
func TierFor(score float64) Tier {
	switch {
	case score >= criticalThreshold:
		return TierCritical
	case score >= highThreshold:
		return TierHigh
	case score >= moderateThreshold:
		return TierModerate
	default:
		return TierLow
	}
}

// Rank orders scores descending, breaking ties by document id so the output
// does not depend on map iteration order.
func Rank(scores map[string]float64) []Result {
	if len(scores) == 0 {
		return nil
	}

	results := make([]Result, 0, len(scores))
	for id, score := range scores {
		results = append(results, Result{
			DocumentID: id,
			Score:      score,
			Tier:       TierFor(score),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score == results[j].Score {
			return results[i].DocumentID < results[j].DocumentID
		}
		return results[i].Score > results[j].Score
	})

	for i := range results {
		results[i].Rank = i + 1
	}

	return results
}

// Top returns the best result, or false for an empty set.
func Top(results []Result) (Result, bool) {
	if len(results) == 0 {
		return Result{}, false
	}
	return results[0], true
}
