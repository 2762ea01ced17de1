package engine

import (
	"encoding/json"
	"regexp"
	"strings"
)

var punctuationRE = regexp.MustCompile(`[^\w\s]`)

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "of": true, "to": true, "in": true,
	"and": true, "or": true, "is": true, "are": true, "for": true, "on": true,
	"its": true,
}

// Keywords tokenizes queryText into the keyword set the keyword-scoring
// pass counts occurrences of: lower-case, strip punctuation, drop tokens of
// length <= 2 and stop words.
func Keywords(queryText string) []string {
	cleaned := punctuationRE.ReplaceAllString(strings.ToLower(queryText), " ")
	var keywords []string
	for _, tok := range strings.Fields(cleaned) {
		if len(tok) <= 2 || stopWords[tok] {
			continue
		}
		keywords = append(keywords, tok)
	}
	return keywords
}

// Keyword scores candidates by case-insensitive keyword occurrence count in
// their serialized metadata, weighted by an optional per-keyword boost
// (defaulting to 1.0), normalized by keywords.length*10 and clamped to 1.
func Keyword(candidates []RankedResult, keywords []string, keywordBoosts map[string]float64) []RankedResult {
	if len(keywords) == 0 {
		return candidates
	}
	denom := float64(len(keywords) * 10)

	results := make([]RankedResult, len(candidates))
	for i, c := range candidates {
		serialized := strings.ToLower(serializeMetadata(c.Metadata))
		var score float64
		for _, kw := range keywords {
			boost := 1.0
			if b, ok := keywordBoosts[kw]; ok {
				boost = b
			}
			count := strings.Count(serialized, kw)
			score += float64(count) * boost
		}
		c.KeywordScore = clamp01(score / denom)
		results[i] = c
	}
	return results
}

func serializeMetadata(metadata map[string]interface{}) string {
	data, err := json.Marshal(metadata)
	if err != nil {
		return ""
	}
	return string(data)
}
