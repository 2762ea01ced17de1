package monitoring

import (
	"context"

	"github.com/ragmesh/querycore/internal/cache"
)

// InvalidateForSource drops every cached query result whose usage record
// mentions sourceID, plus the source's own processed-content entry.
func InvalidateForSource(ctx context.Context, store cache.Store, tracker *UsageTracker, sourceID string) int {
	n := 0
	for _, key := range tracker.RecordsForSource(sourceID) {
		n += store.Invalidate(ctx, key)
	}
	n += store.Invalidate(ctx, cache.ContentKey(sourceID))
	return n
}
