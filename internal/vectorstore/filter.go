package vectorstore

import (
	"fmt"

	"github.com/qdrant/go-client/qdrant"
)

// toPgvectorClause translates a Filter into a parameterized SQL fragment
// over a jsonb metadata column, returning the clause, its single bound
// argument, and the next free parameter index.
func toPgvectorClause(f Filter, paramIndex int) (clause string, arg interface{}, nextIndex int) {
	path := fmt.Sprintf("metadata->>'%s'", f.Field)
	switch f.Operator {
	case OpEq:
		return fmt.Sprintf("%s = $%d", path, paramIndex), fmt.Sprintf("%v", f.Value), paramIndex + 1
	case OpNe:
		return fmt.Sprintf("(%s IS DISTINCT FROM $%d)", path, paramIndex), fmt.Sprintf("%v", f.Value), paramIndex + 1
	case OpGt:
		return fmt.Sprintf("(%s)::numeric > $%d", path, paramIndex), f.Value, paramIndex + 1
	case OpLt:
		return fmt.Sprintf("(%s)::numeric < $%d", path, paramIndex), f.Value, paramIndex + 1
	case OpGte:
		return fmt.Sprintf("(%s)::numeric >= $%d", path, paramIndex), f.Value, paramIndex + 1
	case OpLte:
		return fmt.Sprintf("(%s)::numeric <= $%d", path, paramIndex), f.Value, paramIndex + 1
	case OpIn:
		return fmt.Sprintf("%s = ANY($%d)", path, paramIndex), f.Value, paramIndex + 1
	case OpContains:
		return fmt.Sprintf("%s ILIKE $%d", path, paramIndex), fmt.Sprintf("%%%v%%", f.Value), paramIndex + 1
	default:
		return "TRUE", nil, paramIndex
	}
}

// BuildPgvectorWhere assembles the full AND-joined WHERE fragment and its
// positional arguments for a filter list, starting parameter numbering at
// startIndex (pgvector queries put the query vector in $1).
func BuildPgvectorWhere(filters []Filter, startIndex int) (string, []interface{}) {
	if len(filters) == 0 {
		return "", nil
	}
	clause := ""
	args := make([]interface{}, 0, len(filters))
	idx := startIndex
	for i, f := range filters {
		c, a, next := toPgvectorClause(f, idx)
		if i > 0 {
			clause += " AND "
		}
		clause += c
		args = append(args, a)
		idx = next
	}
	return clause, args
}

// toQdrantCondition translates a Filter into a qdrant.Condition, grounded on
// the condition-builder functions qdrant-go-client exposes for field
// matches and ranges.
func toQdrantCondition(f Filter) *qdrant.Condition {
	switch f.Operator {
	case OpEq:
		return matchCondition(f.Field, f.Value)
	case OpNe:
		return &qdrant.Condition{
			ConditionOneOf: &qdrant.Condition_Filter{
				Filter: &qdrant.Filter{MustNot: []*qdrant.Condition{matchCondition(f.Field, f.Value)}},
			},
		}
	case OpIn:
		return matchAnyCondition(f.Field, f.Value)
	case OpContains:
		if s, ok := f.Value.(string); ok {
			return qdrant.NewMatchText(f.Field, s)
		}
		return nil
	case OpGt, OpLt, OpGte, OpLte:
		r := &qdrant.Range{}
		v, ok := toFloat(f.Value)
		if !ok {
			return nil
		}
		switch f.Operator {
		case OpGt:
			r.Gt = &v
		case OpLt:
			r.Lt = &v
		case OpGte:
			r.Gte = &v
		case OpLte:
			r.Lte = &v
		}
		return qdrant.NewRange(f.Field, r)
	default:
		return nil
	}
}

func matchCondition(field string, v interface{}) *qdrant.Condition {
	switch t := v.(type) {
	case string:
		return qdrant.NewMatchKeyword(field, t)
	case bool:
		return qdrant.NewMatchBool(field, t)
	case int:
		return qdrant.NewMatchInt(field, int64(t))
	case int64:
		return qdrant.NewMatchInt(field, t)
	case float64:
		return qdrant.NewMatchInt(field, int64(t))
	default:
		return qdrant.NewMatchKeyword(field, fmt.Sprintf("%v", t))
	}
}

func matchAnyCondition(field string, v interface{}) *qdrant.Condition {
	arr, ok := v.([]interface{})
	if !ok {
		return matchCondition(field, v)
	}
	if len(arr) == 0 {
		return nil
	}
	switch arr[0].(type) {
	case string:
		keywords := make([]string, 0, len(arr))
		for _, item := range arr {
			if s, ok := item.(string); ok {
				keywords = append(keywords, s)
			}
		}
		return qdrant.NewMatchKeywords(field, keywords...)
	default:
		ints := make([]int64, 0, len(arr))
		for _, item := range arr {
			if n, ok := toFloat(item); ok {
				ints = append(ints, int64(n))
			}
		}
		return qdrant.NewMatchInts(field, ints...)
	}
}

// BuildQdrantFilter ANDs every Filter into a single qdrant.Filter's Must list.
func BuildQdrantFilter(filters []Filter) *qdrant.Filter {
	if len(filters) == 0 {
		return nil
	}
	must := make([]*qdrant.Condition, 0, len(filters))
	for _, f := range filters {
		if c := toQdrantCondition(f); c != nil {
			must = append(must, c)
		}
	}
	if len(must) == 0 {
		return nil
	}
	return &qdrant.Filter{Must: must}
}
