package vectorstore

import (
	"fmt"

	"github.com/ragmesh/querycore/internal/observability"
)

// New dispatches on cfg.Provider to construct the configured back-end
// variant, the single seam the rest of the core depends on.
func New(cfg Config, logger observability.Logger) (Store, error) {
	switch cfg.Provider {
	case "", "flat":
		return NewFlatStore(cfg), nil
	case "pgvector":
		return NewPgvectorStore(cfg, logger)
	case "qdrant":
		return NewQdrantStore(cfg)
	default:
		return nil, fmt.Errorf("unknown vector store provider %q", cfg.Provider)
	}
}
