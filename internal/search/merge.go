package search

import (
	"sort"

	"github.com/ragmesh/querycore/internal/search/engine"
)

// applyBoosts multiplies each result's score by every boost factor whose
// name matches a truthy metadata field, clamped to 1.
func applyBoosts(results []engine.RankedResult, boosts map[string]float64) []engine.RankedResult {
	if len(boosts) == 0 {
		return results
	}
	for i := range results {
		score := results[i].FinalScore
		for field, factor := range boosts {
			if isTruthy(results[i].Metadata[field]) {
				score *= factor
			}
		}
		if score > 1 {
			score = 1
		}
		results[i].FinalScore = score
	}
	return results
}

func isTruthy(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	case float32:
		return t != 0
	case int:
		return t != 0
	default:
		return true
	}
}

// dedupeKey returns metadata.contentId if present, else the result's own id.
func dedupeKey(r engine.RankedResult) string {
	if id, ok := r.Metadata["contentId"].(string); ok && id != "" {
		return id
	}
	return r.ID
}

// mergeAndDedupe keeps, for each dedupeKey, only the highest-scoring entry.
func mergeAndDedupe(results []engine.RankedResult) []engine.RankedResult {
	best := make(map[string]engine.RankedResult, len(results))
	order := make([]string, 0, len(results))

	for _, r := range results {
		key := dedupeKey(r)
		existing, seen := best[key]
		if !seen {
			order = append(order, key)
			best[key] = r
			continue
		}
		if r.FinalScore > existing.FinalScore {
			best[key] = r
		}
	}

	merged := make([]engine.RankedResult, 0, len(order))
	for _, key := range order {
		merged = append(merged, best[key])
	}
	return merged
}

// rankAndFilter sorts descending by score, drops entries below threshold,
// and caps the result at maxResults.
func rankAndFilter(results []engine.RankedResult, threshold float64, maxResults int) []engine.RankedResult {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].FinalScore != results[j].FinalScore {
			return results[i].FinalScore > results[j].FinalScore
		}
		return results[i].ID < results[j].ID
	})

	filtered := results[:0:0]
	for _, r := range results {
		if r.FinalScore < threshold {
			continue
		}
		filtered = append(filtered, r)
	}

	if maxResults > 0 && len(filtered) > maxResults {
		filtered = filtered[:maxResults]
	}
	return filtered
}
