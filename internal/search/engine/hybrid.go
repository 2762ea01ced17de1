package engine

// HybridWeights configures the vector/keyword score fusion; defaults are
// 0.7 vector / 0.3 keyword.
type HybridWeights struct {
	Vector  float64
	Keyword float64
}

// DefaultHybridWeights returns the default fusion weights.
func DefaultHybridWeights() HybridWeights {
	return HybridWeights{Vector: 0.7, Keyword: 0.3}
}

// Hybrid fuses a semantic pass and a keyword pass by id. An id present in
// only one pass contributes 0 for the missing component.
func Hybrid(semantic, keyword []RankedResult, weights HybridWeights) []RankedResult {
	byID := make(map[string]*RankedResult, len(semantic))
	order := make([]string, 0, len(semantic))

	for _, r := range semantic {
		cp := r
		byID[r.ID] = &cp
		order = append(order, r.ID)
	}
	for _, r := range keyword {
		if existing, ok := byID[r.ID]; ok {
			existing.KeywordScore = r.KeywordScore
			continue
		}
		cp := r
		cp.VectorScore = 0
		byID[r.ID] = &cp
		order = append(order, r.ID)
	}

	results := make([]RankedResult, 0, len(order))
	for _, id := range order {
		r := *byID[id]
		r.FinalScore = clamp01(weights.Vector*r.VectorScore + weights.Keyword*r.KeywordScore)
		results = append(results, r)
	}

	SortByScore(results)
	return results
}
