// Package providers implements the per-backend embedding generation
// clients the embedding service dispatches to.
package providers

import "context"

// Provider generates raw embedding vectors for a single piece of text. The
// embedding service layers caching, batching and retry on top of this.
type Provider interface {
	Name() string
	Embed(ctx context.Context, text, model string) ([]float32, error)
	Dimension(model string) int
}
