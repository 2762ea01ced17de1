package engine

// FusionStrategy selects how a semantic pass and a keyword pass are
// combined into one ranked list.
type FusionStrategy string

const (
	// FusionWeightedSum is the default: a weighted linear combination of
	// vector and keyword scores, via Hybrid.
	FusionWeightedSum FusionStrategy = "weighted_sum"
	// FusionRRF combines the two passes by reciprocal rank rather than by
	// score, via RRF — useful when the two passes' score scales aren't
	// directly comparable.
	FusionRRF FusionStrategy = "rrf"
)

// Fuse dispatches to the configured fusion strategy, defaulting to
// FusionWeightedSum when strategy is empty or unrecognized.
func Fuse(strategy FusionStrategy, semantic, keyword []RankedResult, weights HybridWeights) []RankedResult {
	switch strategy {
	case FusionRRF:
		return RRF(0, semantic, keyword)
	default:
		return Hybrid(semantic, keyword, weights)
	}
}
