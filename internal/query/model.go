// Package query implements a deterministic, side-effect-free preprocessing
// pipeline that turns raw user text into the structured request the search
// orchestrator consumes.
package query

// Operator is one of the two comparator shapes the filter-extraction rules
// can emit.
type Operator string

const (
	OpEq  Operator = "eq"
	OpGte Operator = "gte"
	OpLte Operator = "lte"
)

// Filter is one extracted structured constraint.
type Filter struct {
	Field    string
	Operator Operator
	Value    string
}

// Intent is the coarse classification of what the user is asking for.
type Intent string

const (
	IntentQuestion Intent = "question"
	IntentSearch   Intent = "search"
	IntentGeneral  Intent = "general"
)

// Parsed is the fully preprocessed form of a raw query string.
type Parsed struct {
	RawText        string
	NormalizedText string
	Tokens         []string
	Entities       []string
	Intent         Intent
	Filters        []Filter
	ExpandedTerms  []string
	Synonyms       map[string][]string
	Boosts         map[string]float64
}

// Context carries the optional hints the boost rules key off of.
type Context struct {
	Domain   string
	Recency  string
}
