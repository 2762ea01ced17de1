package response

import "github.com/ragmesh/querycore/internal/observability"

// Generator turns ranked search candidates into a synthesized, cited
// answer.
type Generator struct {
	cfg    Config
	logger observability.Logger
}

// NewGenerator builds a Generator with defaults applied.
func NewGenerator(cfg Config, logger observability.Logger) *Generator {
	cfg.applyDefaults()
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	return &Generator{cfg: cfg, logger: logger}
}

// Generate runs the full pipeline: filter, deduplicate, sort/truncate,
// synthesize, score, and cite.
func (g *Generator) Generate(candidates []Candidate) Result {
	kept := filterCandidates(candidates, g.cfg.ConfidenceThreshold)
	kept = deduplicateByJaccard(kept)
	sortByRelevance(kept)

	if len(kept) > g.cfg.MaxSourcesInResponse {
		kept = kept[:g.cfg.MaxSourcesInResponse]
	}

	body := synthesize(kept)
	body = truncateText(body, g.cfg.MaxResponseLength)

	confidence := confidenceScore(kept, body)
	var coherence float64
	if g.cfg.CoherenceCheckEnabled {
		coherence = coherenceScore(body, len(kept))
	}

	refs := toSourceReferences(kept)
	text := applyCitations(body, refs, g.cfg.CitationStyle)

	g.logger.Debug("response generated", observability.Fields{
		"sources":    len(refs),
		"confidence": confidence,
		"coherence":  coherence,
	})

	return Result{
		Text:       text,
		Sources:    refs,
		Confidence: confidence,
		Coherence:  coherence,
	}
}

func toSourceReferences(candidates []Candidate) []SourceReference {
	refs := make([]SourceReference, len(candidates))
	for i, c := range candidates {
		refs[i] = SourceReference{
			Index:          i + 1,
			ID:             c.ID,
			SourceID:       c.SourceID,
			SourceName:     c.SourceName,
			Title:          c.Title,
			URL:            c.URL,
			RelevanceScore: c.RelevanceScore,
		}
	}
	return refs
}
