package engine

// Diversify greedily re-ranks for source/category diversity: the top
// candidate is always kept; each subsequent candidate is admitted only if
// no already-selected result has the same sourceId and category pair,
// until topK is reached; remaining slots are backfilled with the deferred
// candidates in order.
func Diversify(ranked []RankedResult, topK int) []RankedResult {
	if len(ranked) == 0 || topK <= 0 {
		return nil
	}

	selected := []RankedResult{ranked[0]}
	usedSourceCategory := map[[2]string]bool{{ranked[0].SourceID, ranked[0].category()}: true}

	var deferred []RankedResult
	for _, candidate := range ranked[1:] {
		if len(selected) >= topK {
			break
		}
		key := [2]string{candidate.SourceID, candidate.category()}
		if usedSourceCategory[key] {
			deferred = append(deferred, candidate)
			continue
		}
		usedSourceCategory[key] = true
		selected = append(selected, candidate)
	}

	for _, candidate := range deferred {
		if len(selected) >= topK {
			break
		}
		selected = append(selected, candidate)
	}

	return selected
}
