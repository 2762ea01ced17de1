package response

import "math"

// confidenceScore blends mean source relevance with a small bonus for
// corroborating sources and penalties for thin excerpts or weak relevance.
func confidenceScore(sources []Candidate, text string) float64 {
	if len(sources) == 0 {
		return 0
	}

	var sum float64
	totalExcerptBytes := 0
	for _, s := range sources {
		sum += s.RelevanceScore
		totalExcerptBytes += len(s.Excerpt)
	}
	mean := sum / float64(len(sources))

	score := mean + 0.1*float64(len(sources)-1)
	if totalExcerptBytes < 100 {
		score -= 0.2
	}
	if mean < 0.5 {
		score -= 0.1
	}

	return roundTo3(clamp01(score))
}

// coherenceScore rewards readable sentence length, multi-source
// corroboration, and the presence of transition words.
func coherenceScore(text string, sourceCount int) float64 {
	score := 0.5

	sentences := splitSentences(text)
	if avg := meanSentenceLength(sentences); avg > 20 && avg < 100 {
		score += 0.2
	}
	if sourceCount >= 2 {
		score += 0.2
	}
	if containsTransitionWord(text) {
		score += 0.1
	}

	return clamp01(score)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func roundTo3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
