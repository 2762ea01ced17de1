package search

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/ragmesh/querycore/internal/cache"
	"github.com/ragmesh/querycore/internal/datasource"
	"github.com/ragmesh/querycore/internal/embedding"
	coreerrors "github.com/ragmesh/querycore/internal/errors"
	"github.com/ragmesh/querycore/internal/monitoring"
	"github.com/ragmesh/querycore/internal/observability"
	"github.com/ragmesh/querycore/internal/query"
	"github.com/ragmesh/querycore/internal/response"
	"github.com/ragmesh/querycore/internal/search/engine"
	"github.com/ragmesh/querycore/internal/vectorstore"
)

// Processor is the QueryProcessor façade: the single entry point the API
// layer calls to turn raw query text into a synthesized, cited, cached
// answer.
type Processor struct {
	cfg Config

	cacheStore   cache.Store
	embeddingSvc *embedding.Service
	registry     *datasource.Registry
	vectorStore  vectorstore.Store
	responseGen  *response.Generator

	admission *admissionTable
	monitor   *monitoring.Monitor
	logger    observability.Logger
	metrics   observability.MetricsClient
}

// NewProcessor wires the orchestrator's collaborators behind the façade.
// monitor is optional: a nil monitor disables the StartQuery/EndQuery
// usage-and-alert hooks around Process without otherwise changing behavior.
func NewProcessor(
	cfg Config,
	cacheStore cache.Store,
	embeddingSvc *embedding.Service,
	registry *datasource.Registry,
	vectorStore vectorstore.Store,
	responseGen *response.Generator,
	monitor *monitoring.Monitor,
	logger observability.Logger,
	metrics observability.MetricsClient,
) *Processor {
	cfg.applyDefaults()
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	return &Processor{
		cfg:          cfg,
		cacheStore:   cacheStore,
		embeddingSvc: embeddingSvc,
		registry:     registry,
		vectorStore:  vectorStore,
		responseGen:  responseGen,
		admission:    newAdmissionTable(cfg.MaxConcurrentQueries, logger, metrics),
		monitor:      monitor,
		logger:       logger,
		metrics:      metrics,
	}
}

// Status returns a snapshot of an in-flight query, if one exists.
func (p *Processor) Status(queryID uuid.UUID) (Context, bool) {
	return p.admission.snapshot(queryID)
}

// Cancel removes an in-flight query's admission entry and requests its
// sub-operations abort. Returns false if the query was not in-flight
// (including already-completed queries).
func (p *Processor) Cancel(queryID uuid.UUID) bool {
	return p.admission.cancel(queryID)
}

// Process runs the full query pipeline: admission, cache lookup, parse and
// optimize, embed, fan out across sources, score-adjust, merge and
// deduplicate, rank and filter, generate, and cache the result.
func (p *Processor) Process(parentCtx context.Context, q Query) (Result, error) {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}

	// Step 1: admission.
	deadline := time.Duration(p.cfg.DefaultTimeoutMs) * time.Millisecond
	ctx, cancel := context.WithTimeout(parentCtx, deadline)
	defer cancel()

	if _, ok := p.admission.admit(q.ID, cancel); !ok {
		return Result{}, coreerrors.New("search", "process", "capacity_exceeded", "too many concurrent queries", coreerrors.ClassCapacityExceeded)
	}
	defer p.admission.release(q.ID)

	var marker monitoring.Marker
	if p.monitor != nil {
		marker = p.monitor.StartQuery(q.ID.String())
	}

	start := time.Now()
	result, err := p.process(ctx, q)
	elapsed := time.Since(start)
	p.recordMetric("search.process.duration", elapsed)

	if err != nil {
		if coreerrors.ClassOf(err) == coreerrors.ClassTimeout {
			p.recordCounter("search.process.timeout")
			p.endQuery(marker, "", nil, false, false)
			return Result{}, err
		}
		p.recordCounter("search.process.sentinel")
		p.logger.Error("query processing failed, returning sentinel", observability.Fields{"query_id": q.ID.String(), "error": err.Error()})
		sentinel := sentinelResult(q.ID.String())
		sentinel.ProcessingTimeMs = elapsed.Milliseconds()
		p.endQuery(marker, "", nil, false, false)
		return sentinel, nil
	}
	result.ProcessingTimeMs = elapsed.Milliseconds()
	p.endQuery(marker, cache.QueryKey(fingerprint(q.Text, q.Context, q.Filters)), sourceIDsOf(result.Sources), true, result.Cached)
	return result, nil
}

func (p *Processor) endQuery(marker monitoring.Marker, cacheKey string, sourceIDs []string, success, cached bool) {
	if p.monitor == nil {
		return
	}
	p.monitor.EndQuery(marker, cacheKey, sourceIDs, success, cached)
}

func sourceIDsOf(refs []response.SourceReference) []string {
	ids := make([]string, 0, len(refs))
	seen := make(map[string]bool, len(refs))
	for _, r := range refs {
		if !seen[r.SourceID] {
			seen[r.SourceID] = true
			ids = append(ids, r.SourceID)
		}
	}
	return ids
}

func (p *Processor) recordMetric(name string, d time.Duration) {
	if p.metrics != nil {
		p.metrics.RecordDuration(name, d, nil)
	}
}

func (p *Processor) recordCounter(name string) {
	if p.metrics != nil {
		p.metrics.IncrementCounter(name, 1, nil)
	}
}

func (p *Processor) process(ctx context.Context, q Query) (Result, error) {
	// Step 3: cache lookup.
	fp := fingerprint(q.Text, q.Context, q.Filters)
	if p.cfg.CacheEnabled {
		if cached, ok := p.lookupCache(ctx, fp); ok {
			cached.Cached = true
			return cached, nil
		}
	}

	if err := checkDeadline(ctx); err != nil {
		return Result{}, err
	}

	// Step 4: parse & optimize.
	parsed, err := query.Parse(q.Text, queryContextFrom(q.Context))
	if err != nil {
		return Result{}, coreerrors.Wrap(err, "search", "process", "parse_failed", coreerrors.ClassParse)
	}
	optimized := query.Optimize(parsed, queryContextFrom(q.Context))

	if err := checkDeadline(ctx); err != nil {
		return Result{}, err
	}

	// Step 5: embed.
	embedded, err := p.embeddingSvc.Embed(ctx, q.Text)
	if err != nil {
		return Result{}, err
	}

	if err := checkDeadline(ctx); err != nil {
		return Result{}, err
	}

	// Step 6: fetch active sources.
	sources := p.registry.GetActive(ctx)
	sourceNames := make(map[string]string, len(sources))
	for _, s := range sources {
		sourceNames[s.ID.String()] = s.Name
	}

	// Step 7: fan-out.
	effectiveFilters := mergeFilters(q.Filters, optimized.Filters)
	ranked, fanOutErrors := p.fanOut(ctx, sources, embedded.Vector, effectiveFilters, optimized.NormalizedText)

	// Step 8: score adjustment.
	ranked = applyBoosts(ranked, optimized.Boosts)

	// Step 9: merge & de-duplicate.
	merged := mergeAndDedupe(ranked)

	// Step 10: rank & filter.
	final := rankAndFilter(merged, p.cfg.MinConfidenceThreshold, 100)

	topK := final
	if p.cfg.DiversityEnabled {
		topK = engine.Diversify(final, 10)
	} else if len(topK) > 10 {
		topK = topK[:10]
	}

	// Step 11: generate.
	candidates := toCandidates(topK, sourceNames)
	synthesized := p.responseGen.Generate(candidates)

	result := Result{
		ID:         q.ID.String(),
		Response:   synthesized.Text,
		Sources:    synthesized.Sources,
		Confidence: synthesized.Confidence,
		Cached:     false,
		Errors:     fanOutErrors,
	}

	// Step 12: cache.
	if p.cfg.CacheEnabled {
		p.storeCache(ctx, fp, result)
	}

	return result, nil
}

func checkDeadline(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return coreerrors.New("search", "process", "timeout", "deadline exceeded", coreerrors.ClassTimeout)
	default:
		return nil
	}
}

func (p *Processor) lookupCache(ctx context.Context, fp string) (Result, bool) {
	raw, ok := p.cacheStore.Get(ctx, cache.QueryKey(fp))
	if !ok {
		return Result{}, false
	}
	var result Result
	if err := json.Unmarshal(raw, &result); err != nil {
		return Result{}, false
	}
	return result, true
}

func (p *Processor) storeCache(ctx context.Context, fp string, result Result) {
	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := p.cacheStore.Set(ctx, cache.QueryKey(fp), data, p.cfg.CacheTTL); err != nil {
		p.logger.Warn("failed to cache query result", observability.Fields{"error": err.Error()})
	}
}

func queryContextFrom(bag map[string]interface{}) query.Context {
	var ctx query.Context
	if bag == nil {
		return ctx
	}
	if v, ok := bag["domain"].(string); ok {
		ctx.Domain = v
	}
	if v, ok := bag["recency"].(string); ok {
		ctx.Recency = v
	}
	return ctx
}

func mergeFilters(explicit []vectorstore.Filter, optimized []query.Filter) []vectorstore.Filter {
	merged := make([]vectorstore.Filter, 0, len(explicit)+len(optimized))
	merged = append(merged, explicit...)
	for _, f := range optimized {
		merged = append(merged, vectorstore.Filter{
			Field:    f.Field,
			Operator: vectorstore.Operator(f.Operator),
			Value:    f.Value,
		})
	}
	return merged
}

func toCandidates(results []engine.RankedResult, sourceNames map[string]string) []response.Candidate {
	candidates := make([]response.Candidate, len(results))
	for i, r := range results {
		candidates[i] = response.Candidate{
			ID:             r.ID,
			SourceID:       r.SourceID,
			SourceName:     sourceNames[r.SourceID],
			Title:          metadataString(r.Metadata, "title"),
			URL:            metadataString(r.Metadata, "url"),
			Excerpt:        excerptOf(r.Metadata),
			RelevanceScore: r.FinalScore,
		}
	}
	return candidates
}

func metadataString(metadata map[string]interface{}, field string) string {
	if v, ok := metadata[field].(string); ok {
		return v
	}
	return ""
}

func excerptOf(metadata map[string]interface{}) string {
	if v := metadataString(metadata, "excerpt"); v != "" {
		return v
	}
	return metadataString(metadata, "content")
}
