package response

import (
	"regexp"
	"strings"
)

var sentenceTerminatorRE = regexp.MustCompile(`[.!?]`)

// splitSentences breaks text on sentence terminators, keeping the
// terminator attached to the preceding sentence.
func splitSentences(text string) []string {
	var sentences []string
	start := 0
	for _, loc := range sentenceTerminatorRE.FindAllStringIndex(text, -1) {
		end := loc[1]
		sentences = append(sentences, text[start:end])
		start = end
	}
	if start < len(text) && strings.TrimSpace(text[start:]) != "" {
		sentences = append(sentences, text[start:])
	}
	return sentences
}

// truncateText caps text at maxLength, preferring to cut at a sentence
// boundary past 70% of the budget; otherwise it ellipsizes at the hard
// limit.
func truncateText(text string, maxLength int) string {
	if len(text) <= maxLength {
		return text
	}

	minBoundary := int(float64(maxLength) * 0.7)
	bestCut := -1
	for _, loc := range sentenceTerminatorRE.FindAllStringIndex(text, -1) {
		end := loc[1]
		if end > maxLength {
			break
		}
		if end >= minBoundary {
			bestCut = end
		}
	}
	if bestCut > 0 {
		return strings.TrimSpace(text[:bestCut])
	}

	if maxLength <= 3 {
		return text[:maxLength]
	}
	return strings.TrimSpace(text[:maxLength-3]) + "..."
}

func meanSentenceLength(sentences []string) float64 {
	if len(sentences) == 0 {
		return 0
	}
	total := 0
	for _, s := range sentences {
		total += len(strings.TrimSpace(s))
	}
	return float64(total) / float64(len(sentences))
}

var transitionWords = []string{"additionally", "furthermore", "however", "therefore", "moreover"}

func containsTransitionWord(text string) bool {
	lower := strings.ToLower(text)
	for _, w := range transitionWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}
