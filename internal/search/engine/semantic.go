package engine

import (
	"strings"
	"time"

	"github.com/ragmesh/querycore/internal/vectorstore"
)

// Semantic wraps a vector store search call's hits as RankedResults,
// overlaying a small metadata/recency-derived boost on top of the raw
// vector similarity score.
func Semantic(hits []vectorstore.SearchHit, sourceID, queryText string) []RankedResult {
	lowerQuery := strings.ToLower(queryText)

	results := make([]RankedResult, 0, len(hits))
	for _, h := range hits {
		r := RankedResult{
			ID:          h.ID,
			SourceID:    sourceID,
			VectorScore: h.Score,
			Metadata:    h.Metadata,
		}
		metadataBoost := metadataBoostFor(r, lowerQuery)
		recencyBoost := recencyBoostFor(r)

		r.FinalScore = clamp01(r.VectorScore + metadataBoost*0.1 + recencyBoost*0.05)
		results = append(results, r)
	}

	SortByScore(results)
	return results
}

// metadataBoostFor returns a value in [0, 0.5]: +0.3 if the title contains
// the query text, +0.2 if category or tags do.
func metadataBoostFor(r RankedResult, lowerQuery string) float64 {
	if lowerQuery == "" {
		return 0
	}
	var boost float64
	if title := strings.ToLower(r.title()); title != "" && strings.Contains(title, lowerQuery) {
		boost += 0.3
	}
	category := strings.ToLower(r.category())
	tags := strings.ToLower(r.tags())
	if (category != "" && strings.Contains(category, lowerQuery)) || (tags != "" && strings.Contains(tags, lowerQuery)) {
		boost += 0.2
	}
	return boost
}

// recencyBoostFor returns a value in [0, 0.2] with linear decay over the
// 30 days following the content's modifiedAt/createdAt timestamp.
func recencyBoostFor(r RankedResult) float64 {
	modified, ok := r.modifiedAt()
	if !ok {
		return 0
	}
	age := time.Since(modified)
	if age < 0 {
		age = 0
	}
	const window = 30 * 24 * time.Hour
	if age >= window {
		return 0
	}
	fraction := 1 - float64(age)/float64(window)
	return 0.2 * fraction
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

// SortByScore orders results by descending FinalScore, ties broken by ID.
func SortByScore(results []RankedResult) {
	sortStable(results)
}
