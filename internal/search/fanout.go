package search

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ragmesh/querycore/internal/datasource"
	"github.com/ragmesh/querycore/internal/search/engine"
	"github.com/ragmesh/querycore/internal/vectorstore"
)

// sourceSearch runs the semantic pass for one active source and, when the
// query text yields keywords, a keyword pass fused with it via
// p.cfg.FusionStrategy. A failure is returned to the caller, which records
// it as a partial error rather than aborting the query.
func (p *Processor) sourceSearch(ctx context.Context, src datasource.Source, vector []float32, filters []vectorstore.Filter, queryText string) ([]engine.RankedResult, error) {
	sourceFilters := append(append([]vectorstore.Filter{}, filters...), vectorstore.Filter{
		Field:    "sourceId",
		Operator: vectorstore.OpEq,
		Value:    src.ID.String(),
	})

	hits, err := p.vectorStore.Search(ctx, vector, vectorstore.SearchOptions{
		TopK:            p.cfg.MaxResultsPerSource,
		Filters:         sourceFilters,
		IncludeMetadata: true,
		ScoreThreshold:  p.cfg.MinConfidenceThreshold,
	})
	if err != nil {
		return nil, err
	}

	semantic := engine.Semantic(hits, src.ID.String(), queryText)

	keywords := engine.Keywords(queryText)
	if len(keywords) == 0 {
		return semantic, nil
	}
	keywordPass := engine.Keyword(semantic, keywords, nil)
	return engine.Fuse(p.cfg.FusionStrategy, semantic, keywordPass, engine.DefaultHybridWeights()), nil
}

// fanOut runs per-source searches either in parallel (via errgroup, bounded
// to the active source count) or sequentially, always applying the
// partial-failure tolerance rule: an individual source failure is recorded,
// never fatal to the query.
func (p *Processor) fanOut(ctx context.Context, sources []datasource.Source, vector []float32, filters []vectorstore.Filter, queryText string) ([]engine.RankedResult, []string) {
	if p.cfg.ParallelSearchEnabled {
		return p.fanOutParallel(ctx, sources, vector, filters, queryText)
	}
	return p.fanOutSequential(ctx, sources, vector, filters, queryText)
}

func (p *Processor) fanOutSequential(ctx context.Context, sources []datasource.Source, vector []float32, filters []vectorstore.Filter, queryText string) ([]engine.RankedResult, []string) {
	var results []engine.RankedResult
	var errs []string

	for _, src := range sources {
		if ctx.Err() != nil {
			break
		}
		ranked, err := p.sourceSearch(ctx, src, vector, filters, queryText)
		if err != nil {
			errs = append(errs, src.ID.String()+": "+err.Error())
			continue
		}
		results = append(results, ranked...)
	}
	return results, errs
}

func (p *Processor) fanOutParallel(ctx context.Context, sources []datasource.Source, vector []float32, filters []vectorstore.Filter, queryText string) ([]engine.RankedResult, []string) {
	var mu sync.Mutex
	var results []engine.RankedResult
	var errs []string

	// plain errgroup.Group, not WithContext: an individual source failure
	// must not cancel its siblings, so nothing here ever returns a non-nil
	// error for Wait to propagate.
	var g errgroup.Group

	for _, src := range sources {
		src := src
		g.Go(func() error {
			ranked, err := p.sourceSearch(ctx, src, vector, filters, queryText)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, src.ID.String()+": "+err.Error())
				return nil
			}
			results = append(results, ranked...)
			return nil
		})
	}
	_ = g.Wait() // every Go func swallows its own error into errs; Wait never returns non-nil here

	return results, errs
}
