package engine

import "sort"

// RRF fuses any number of ranked lists via reciprocal rank fusion, an
// alternate to the weighted Hybrid fusion for callers that prefer a
// rank-based (score-scale-agnostic) combination.
func RRF(k float64, lists ...[]RankedResult) []RankedResult {
	if k <= 0 {
		k = 60
	}

	scores := make(map[string]float64)
	byID := make(map[string]RankedResult)

	for _, list := range lists {
		for rank, r := range list {
			scores[r.ID] += 1.0 / (k + float64(rank+1))
			if _, ok := byID[r.ID]; !ok {
				byID[r.ID] = r
			}
		}
	}

	results := make([]RankedResult, 0, len(scores))
	for id, score := range scores {
		r := byID[id]
		r.FinalScore = score
		results = append(results, r)
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].FinalScore != results[j].FinalScore {
			return results[i].FinalScore > results[j].FinalScore
		}
		return results[i].ID < results[j].ID
	})
	return results
}
