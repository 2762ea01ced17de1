package query

import (
	"regexp"
	"strings"

	coreerrors "github.com/ragmesh/querycore/internal/errors"
)

var (
	nonWordRE    = regexp.MustCompile(`[^\w\-_.]+`)
	whitespaceRE = regexp.MustCompile(`\s+`)
	quotedRE     = regexp.MustCompile(`"([^"]+)"`)
	capRunRE     = regexp.MustCompile(`\b([A-Z][a-zA-Z]*(?:\s+[A-Z][a-zA-Z]*)*)\b`)
	dateFilterRE = regexp.MustCompile(`(?i)(after|before|since|until)\s+(\d{4}-\d{2}-\d{2}|\d{1,2}/\d{1,2}/\d{4})`)
	typeFilterRE = regexp.MustCompile(`(?i)type:\s*(\w+)`)
)

var questionWords = map[string]bool{
	"what": true, "how": true, "why": true, "when": true, "where": true, "who": true, "which": true,
}

var searchWords = map[string]bool{
	"find": true, "search": true, "get": true, "show": true, "list": true, "explain": true,
}

// stopEntities are question words excluded from the capitalized-run entity
// rule even though they appear capitalized at sentence starts.
var stopEntities = map[string]bool{
	"What": true, "How": true, "Why": true, "When": true, "Where": true, "Who": true, "Which": true,
}

// Parse runs the preprocessing half of the pipeline (normalize, tokenize,
// extract entities/intent/filters) then hands off to Optimize for the
// expansion/synonym/boost steps.
func Parse(rawText string, ctx Context) (Parsed, error) {
	if strings.TrimSpace(rawText) == "" {
		return Parsed{}, coreerrors.New("query", "Parse", "EMPTY_QUERY_TEXT",
			"query text must not be empty or whitespace-only", coreerrors.ClassValidation)
	}

	normalized := normalize(rawText)
	p := Parsed{
		RawText:        rawText,
		NormalizedText: normalized,
		Tokens:         tokenize(normalized),
		Entities:       extractEntities(rawText),
		Filters:        extractFilters(rawText),
	}
	p.Intent = classifyIntent(p.Tokens)

	return Optimize(p, ctx), nil
}

// normalize implements step 1: trim, lower-case, replace non-word
// characters (except - _ .) with a space, collapse whitespace.
func normalize(text string) string {
	trimmed := strings.TrimSpace(text)
	lowered := strings.ToLower(trimmed)
	replaced := nonWordRE.ReplaceAllString(lowered, " ")
	collapsed := whitespaceRE.ReplaceAllString(replaced, " ")
	return strings.TrimSpace(collapsed)
}

func tokenize(normalized string) []string {
	if normalized == "" {
		return nil
	}
	return strings.Split(normalized, " ")
}

// extractEntities implements step 2: quoted substrings preserved verbatim,
// plus runs of capitalized words from the original text (excluding the
// question-word stop list), de-duplicated preserving first occurrence.
func extractEntities(rawText string) []string {
	seen := make(map[string]bool)
	var entities []string

	for _, m := range quotedRE.FindAllStringSubmatch(rawText, -1) {
		value := m[1]
		if !seen[value] {
			seen[value] = true
			entities = append(entities, value)
		}
	}

	for _, m := range capRunRE.FindAllString(rawText, -1) {
		if stopEntities[m] {
			continue
		}
		if !seen[m] {
			seen[m] = true
			entities = append(entities, m)
		}
	}

	return entities
}

// classifyIntent implements step 3.
func classifyIntent(tokens []string) Intent {
	for _, t := range tokens {
		if questionWords[t] {
			return IntentQuestion
		}
	}
	for _, t := range tokens {
		if searchWords[t] {
			return IntentSearch
		}
	}
	return IntentGeneral
}

// extractFilters implements step 4: date range filters and a type filter,
// read from the raw (unnormalized) text.
func extractFilters(rawText string) []Filter {
	var filters []Filter

	for _, m := range dateFilterRE.FindAllStringSubmatch(rawText, -1) {
		op := OpGte
		if strings.EqualFold(m[1], "before") || strings.EqualFold(m[1], "until") {
			op = OpLte
		}
		filters = append(filters, Filter{Field: "date", Operator: op, Value: m[2]})
	}

	for _, m := range typeFilterRE.FindAllStringSubmatch(rawText, -1) {
		filters = append(filters, Filter{Field: "type", Operator: OpEq, Value: m[1]})
	}

	return filters
}
