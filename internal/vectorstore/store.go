// Package vectorstore is a narrow polymorphic capability over one of
// several vector back-ends, normalizing every variant's native similarity
// metric onto a [0,1] scale where higher is always better.
package vectorstore

import (
	"context"
	"sort"
	"time"

	coreerrors "github.com/ragmesh/querycore/internal/errors"
)

// Metric names the distance function a back-end was configured with.
type Metric string

const (
	MetricL2            Metric = "l2"
	MetricInnerProduct  Metric = "inner_product"
	MetricCosine        Metric = "cosine"
)

// Record is a vector plus its opaque metadata, as owned by the store.
type Record struct {
	ID       string
	Vector   []float32
	Metadata map[string]interface{}
}

// SearchHit is one ranked result from Search, score already normalized to
// [0,1] with higher meaning more similar.
type SearchHit struct {
	ID       string
	Score    float64
	Metadata map[string]interface{}
}

// Operator is one of the eight comparison operators a Filter supports.
type Operator string

const (
	OpEq       Operator = "eq"
	OpNe       Operator = "ne"
	OpGt       Operator = "gt"
	OpLt       Operator = "lt"
	OpGte      Operator = "gte"
	OpLte      Operator = "lte"
	OpIn       Operator = "in"
	OpContains Operator = "contains"
)

// Filter is one metadata predicate; SearchOptions carries an ordered slice
// of them, all ANDed together.
type Filter struct {
	Field    string
	Operator Operator
	Value    interface{}
}

// SearchOptions configures a single Search call.
type SearchOptions struct {
	TopK            int
	Filters         []Filter
	IncludeMetadata bool
	ScoreThreshold  float64
}

// Stats describes the index's current state.
type Stats struct {
	VectorCount int64
	Dimension   int
	Backend     string
	LastUpdated time.Time
	Bytes       int64
}

// Config enumerates every option a vector back-end accepts.
type Config struct {
	Provider         string // "flat" | "pgvector" | "qdrant"
	Dimension        int
	Metric           Metric
	ConnectionString string
	APIKey           string
	IndexName        string
	IndexParams      map[string]string
	Timeout          time.Duration
}

// Store is the capability every back-end variant implements.
type Store interface {
	Initialize(ctx context.Context) error
	Upsert(ctx context.Context, records []Record) error
	Delete(ctx context.Context, ids []string) error
	Search(ctx context.Context, vector []float32, opts SearchOptions) ([]SearchHit, error)
	Stats(ctx context.Context) (Stats, error)
	HealthCheck(ctx context.Context) bool
}

// reservedSigils are operator-prefix strings that would collide with the
// core's Mongo-style internal filter representation if allowed through as a
// literal metadata field name.
var reservedSigils = []string{"$ne", "$gt", "$lt", "$gte", "$lte", "$in", "$eq", "$contains"}

// ValidateFilters rejects (never silently renames) metadata field names that
// collide with operator sigils.
func ValidateFilters(filters []Filter) error {
	for _, f := range filters {
		for _, sigil := range reservedSigils {
			if f.Field == sigil {
				return coreerrors.New("vectorstore", "ValidateFilters", "RESERVED_FIELD_NAME",
					"metadata field name collides with a reserved operator sigil: "+f.Field, coreerrors.ClassValidation)
			}
		}
	}
	return nil
}

// NormalizeL2 maps an L2 distance (>= 0, unbounded) onto (0,1] where smaller
// distance is a score nearer 1.
func NormalizeL2(distance float64) float64 {
	if distance < 0 {
		distance = 0
	}
	return 1.0 / (1.0 + distance)
}

// ClampScore confines a cosine/inner-product similarity to [0,1].
func ClampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// SortHits orders hits by descending score, breaking ties by ascending id,
// so results are deterministic across back-ends.
func SortHits(hits []SearchHit) {
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ID < hits[j].ID
	})
}

// matchFilter evaluates a single Filter against a metadata map; the flat
// back-end uses it, while pgvector and qdrant translate filters into their
// own query languages.
func matchFilter(metadata map[string]interface{}, f Filter) bool {
	v, ok := metadata[f.Field]
	switch f.Operator {
	case OpEq:
		return ok && equalValue(v, f.Value)
	case OpNe:
		return !ok || !equalValue(v, f.Value)
	case OpIn:
		return ok && containsValue(f.Value, v)
	case OpContains:
		s, sok := v.(string)
		target, tok := f.Value.(string)
		return ok && sok && tok && contains(s, target)
	case OpGt, OpLt, OpGte, OpLte:
		return ok && compareOrdered(v, f.Value, f.Operator)
	default:
		return false
	}
}

func equalValue(a, b interface{}) bool {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		return af == bf
	}
	return a == b
}

func containsValue(list interface{}, v interface{}) bool {
	arr, ok := list.([]interface{})
	if !ok {
		return false
	}
	for _, item := range arr {
		if equalValue(item, v) {
			return true
		}
	}
	return false
}

func contains(haystack, needle string) bool {
	return len(needle) == 0 || (len(haystack) >= len(needle) && indexOf(haystack, needle) >= 0)
}

func indexOf(haystack, needle string) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return i
		}
	}
	return -1
}

func compareOrdered(a, b interface{}, op Operator) bool {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if !aok || !bok {
		return false
	}
	switch op {
	case OpGt:
		return af > bf
	case OpLt:
		return af < bf
	case OpGte:
		return af >= bf
	case OpLte:
		return af <= bf
	default:
		return false
	}
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
