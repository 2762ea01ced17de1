package monitoring

import (
	"context"
	"time"

	"github.com/ragmesh/querycore/internal/cache"
	"github.com/ragmesh/querycore/internal/observability"
)

// Warmer periodically re-reads the popular set from the cache in small
// batches, an idempotent read that keeps hot entries from aging out of an
// LRU-backed backend.
type Warmer struct {
	tracker *UsageTracker
	store   cache.Store
	cfg     Config
	logger  observability.Logger
}

// NewWarmer wires a Warmer to its usage source and cache backend.
func NewWarmer(tracker *UsageTracker, store cache.Store, cfg Config, logger observability.Logger) *Warmer {
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	return &Warmer{tracker: tracker, store: store, cfg: cfg, logger: logger}
}

// Run blocks, ticking every cfg.WarmingInterval until ctx is done.
func (w *Warmer) Run(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.WarmingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *Warmer) tick(ctx context.Context) {
	popular := w.tracker.Popular(w.cfg.PopularityThreshold, w.cfg.MaxAge, time.Now())
	if len(popular) == 0 {
		return
	}

	w.logger.Debug("warming popular cache entries", observability.Fields{"count": len(popular)})

	for i := 0; i < len(popular); i += w.cfg.WarmBatchSize {
		if ctx.Err() != nil {
			return
		}
		end := i + w.cfg.WarmBatchSize
		if end > len(popular) {
			end = len(popular)
		}
		w.store.MGet(ctx, popular[i:end])

		select {
		case <-ctx.Done():
			return
		case <-time.After(w.cfg.WarmBatchDelay):
		}
	}
}
