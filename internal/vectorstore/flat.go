package vectorstore

import (
	"context"
	"math"
	"sync"
	"time"
)

// flatBackend is a zero-dependency brute-force in-memory variant, useful
// for tests and small deployments where standing up pgvector or Qdrant is
// unwarranted.
type flatBackend struct {
	mu        sync.RWMutex
	dimension int
	metric    Metric
	records   map[string]Record
}

// NewFlatStore returns a Store holding all vectors in process memory.
func NewFlatStore(cfg Config) Store {
	return &flatBackend{
		dimension: cfg.Dimension,
		metric:    cfg.Metric,
		records:   make(map[string]Record),
	}
}

func (f *flatBackend) Initialize(_ context.Context) error {
	return nil
}

func (f *flatBackend) Upsert(_ context.Context, records []Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range records {
		f.records[r.ID] = r
	}
	return nil
}

func (f *flatBackend) Delete(_ context.Context, ids []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		delete(f.records, id)
	}
	return nil
}

func (f *flatBackend) Search(_ context.Context, vector []float32, opts SearchOptions) ([]SearchHit, error) {
	if err := ValidateFilters(opts.Filters); err != nil {
		return nil, err
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	hits := make([]SearchHit, 0, len(f.records))
	for _, r := range f.records {
		matched := true
		for _, flt := range opts.Filters {
			if !matchFilter(r.Metadata, flt) {
				matched = false
				break
			}
		}
		if !matched {
			continue
		}

		score := f.score(vector, r.Vector)
		if score < opts.ScoreThreshold {
			continue
		}

		hit := SearchHit{ID: r.ID, Score: score}
		if opts.IncludeMetadata {
			hit.Metadata = r.Metadata
		}
		hits = append(hits, hit)
	}

	SortHits(hits)
	if opts.TopK > 0 && len(hits) > opts.TopK {
		hits = hits[:opts.TopK]
	}
	return hits, nil
}

func (f *flatBackend) score(a, b []float32) float64 {
	switch f.metric {
	case MetricCosine:
		return ClampScore(cosineSimilarity(a, b))
	case MetricInnerProduct:
		return ClampScore(dotProduct(a, b))
	default:
		return NormalizeL2(l2Distance(a, b))
	}
}

func (f *flatBackend) Stats(_ context.Context) (Stats, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return Stats{
		VectorCount: int64(len(f.records)),
		Dimension:   f.dimension,
		Backend:     "flat",
		LastUpdated: time.Now(),
	}, nil
}

func (f *flatBackend) HealthCheck(_ context.Context) bool { return true }

func l2Distance(a, b []float32) float64 {
	var sum float64
	for i := range a {
		if i >= len(b) {
			break
		}
		d := float64(a[i] - b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

func dotProduct(a, b []float32) float64 {
	var sum float64
	for i := range a {
		if i >= len(b) {
			break
		}
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func cosineSimilarity(a, b []float32) float64 {
	dot := dotProduct(a, b)
	var na, nb float64
	for _, v := range a {
		na += float64(v) * float64(v)
	}
	for _, v := range b {
		nb += float64(v) * float64(v)
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
