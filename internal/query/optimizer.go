package query

import "strings"

var synonymMap = map[string][]string{
	"document": {"file", "paper", "text", "record"},
}

// Optimize implements steps 5-7 of the pipeline: term expansion, synonym
// resolution, and boost-map derivation from the caller-supplied context.
func Optimize(p Parsed, ctx Context) Parsed {
	p.ExpandedTerms = expandTerms(p.Tokens)
	p.Synonyms = resolveSynonyms(p.Entities)
	p.Boosts = computeBoosts(ctx)
	return p
}

// expandTerms implements step 5: rule-based stemming (drop "ing", "ed",
// trailing "s" when the remaining stem is longer than 3 characters),
// deduplicated.
func expandTerms(tokens []string) []string {
	seen := make(map[string]bool)
	var expanded []string
	for _, t := range tokens {
		if stem := stemToken(t); stem != "" && stem != t && !seen[stem] {
			seen[stem] = true
			expanded = append(expanded, stem)
		}
	}
	return expanded
}

func stemToken(token string) string {
	switch {
	case strings.HasSuffix(token, "ing") && len(token)-3 > 3:
		return token[:len(token)-3]
	case strings.HasSuffix(token, "ed") && len(token)-2 > 3:
		return token[:len(token)-2]
	case strings.HasSuffix(token, "s") && len(token)-1 > 3:
		return token[:len(token)-1]
	default:
		return ""
	}
}

// resolveSynonyms implements step 6: look up each entity's lower-cased
// surface form in the fixed synonym map.
func resolveSynonyms(entities []string) map[string][]string {
	synonyms := make(map[string][]string)
	for _, e := range entities {
		if syns, ok := synonymMap[strings.ToLower(e)]; ok {
			synonyms[e] = syns
		}
	}
	return synonyms
}

// computeBoosts implements step 7.
func computeBoosts(ctx Context) map[string]float64 {
	boosts := make(map[string]float64)
	if ctx.Domain != "" {
		boosts[ctx.Domain] = 1.5
	}
	if ctx.Recency == "recent" {
		boosts["recent"] = 1.2
	}
	return boosts
}
