package response

import (
	"sort"
	"strings"
)

// filterCandidates keeps candidates meeting the relevance threshold with a
// non-empty excerpt.
func filterCandidates(candidates []Candidate, threshold float64) []Candidate {
	out := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.RelevanceScore < threshold {
			continue
		}
		if strings.TrimSpace(c.Excerpt) == "" {
			continue
		}
		out = append(out, c)
	}
	return out
}

// deduplicateByJaccard drops candidates whose excerpt is near-duplicate
// (Jaccard similarity over lowercased word sets > 0.8) of one already kept,
// preferring to keep the earlier (higher-relevance, once sorted upstream)
// occurrence.
func deduplicateByJaccard(candidates []Candidate) []Candidate {
	kept := make([]Candidate, 0, len(candidates))
	keptSets := make([]map[string]bool, 0, len(candidates))

	for _, c := range candidates {
		set := wordSet(c.Excerpt)
		duplicate := false
		for _, existing := range keptSets {
			if jaccard(set, existing) > 0.8 {
				duplicate = true
				break
			}
		}
		if duplicate {
			continue
		}
		kept = append(kept, c)
		keptSets = append(keptSets, set)
	}
	return kept
}

func wordSet(text string) map[string]bool {
	words := strings.Fields(strings.ToLower(text))
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	intersection := 0
	for w := range a {
		if b[w] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func sortByRelevance(candidates []Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].RelevanceScore > candidates[j].RelevanceScore
	})
}
