package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ragmesh/querycore/internal/cache"
	"github.com/ragmesh/querycore/internal/config"
	"github.com/ragmesh/querycore/internal/datasource"
	"github.com/ragmesh/querycore/internal/embedding"
	"github.com/ragmesh/querycore/internal/monitoring"
	"github.com/ragmesh/querycore/internal/observability"
	"github.com/ragmesh/querycore/internal/response"
	"github.com/ragmesh/querycore/internal/search"
	"github.com/ragmesh/querycore/internal/search/engine"
	"github.com/ragmesh/querycore/internal/vectorstore"
)

// alwaysHealthy is the demo registry's HealthChecker: a real deployment
// would dial the source's backing system instead of returning unconditional
// success.
type alwaysHealthy struct{}

func (alwaysHealthy) Check(context.Context, datasource.Source) error { return nil }

func main() {
	configPath := flag.String("config", "", "path to a config file (optional; env vars and defaults otherwise)")
	queryText := flag.String("query", "what does the query processing core do?", "sample query text to run through the pipeline")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := observability.NewLogger("queryengine", cfg.LogLevel)
	metrics := observability.NewInMemoryMetrics()

	cacheStore, err := newCacheStore(cfg.Cache)
	if err != nil {
		log.Fatalf("failed to initialize cache: %v", err)
	}

	vectorStore, err := vectorstore.New(toVectorConfig(cfg.Vector), logger)
	if err != nil {
		log.Fatalf("failed to initialize vector store: %v", err)
	}
	if err := vectorStore.Initialize(ctx); err != nil {
		log.Fatalf("failed to bootstrap vector store index: %v", err)
	}

	embeddingCfg := toEmbeddingConfig(cfg.Embedding)
	provider, err := embedding.NewProvider(ctx, embeddingCfg)
	if err != nil {
		log.Fatalf("failed to initialize embedding provider: %v", err)
	}
	embeddingSvc := embedding.NewService(embeddingCfg, provider, cacheStore, logger, metrics)

	registry := datasource.NewRegistry(alwaysHealthy{}, logger)
	if err := seedDemoCorpus(ctx, registry, vectorStore, embeddingSvc); err != nil {
		log.Fatalf("failed to seed demo corpus: %v", err)
	}

	responseGen := response.NewGenerator(toResponseConfig(cfg.Response), logger)

	monitor := monitoring.NewMonitor(toMonitoringConfig(cfg.Monitoring), cacheStore, logger, metrics)
	go monitor.Run(ctx)

	processor := search.NewProcessor(
		toProcessorConfig(cfg.Processor, cfg.Search, cfg.Cache),
		cacheStore,
		embeddingSvc,
		registry,
		vectorStore,
		responseGen,
		monitor,
		logger,
		metrics,
	)

	result, err := processor.Process(ctx, search.Query{
		Text:      *queryText,
		CreatedAt: time.Now(),
	})
	if err != nil {
		log.Fatalf("query processing failed: %v", err)
	}

	encoded, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Fatalf("failed to encode result: %v", err)
	}
	fmt.Fprintln(os.Stdout, string(encoded))

	health := monitor.Health()
	logger.Info("health snapshot after demo query", observability.Fields{
		"status":          string(health.Status),
		"cache_hit_rate":  health.CacheHitRate,
		"mean_response_ms": health.MeanResponseMs,
	})
}

func newCacheStore(c config.CacheConfig) (cache.Store, error) {
	switch c.Backend {
	case "", "memory":
		maxEntries := int(c.MaxMemoryBytes / 4096)
		return cache.NewMemoryBackend(maxEntries), nil
	case "redis":
		return cache.NewRedisBackend(cache.RedisConfig{
			Address:  fmt.Sprintf("%s:%d", c.Host, c.Port),
			Password: c.Password,
			Database: c.DB,
		})
	default:
		return nil, fmt.Errorf("unknown cache backend %q", c.Backend)
	}
}

func toVectorConfig(v config.VectorConfig) vectorstore.Config {
	return vectorstore.Config{
		Provider:         v.Provider,
		Dimension:        v.Dimension,
		Metric:           vectorstore.Metric(v.Metric),
		ConnectionString: v.ConnectionString,
		APIKey:           v.APIKey,
		IndexName:        v.IndexName,
		IndexParams:      v.IndexParams,
		Timeout:          v.Timeout,
	}
}

func toEmbeddingConfig(e config.EmbeddingConfig) embedding.Config {
	return embedding.Config{
		Provider:     e.Provider,
		Model:        e.Model,
		APIKey:       e.APIKey,
		Dimension:    e.Dimension,
		MaxTokens:    e.MaxTokens,
		BatchSize:    e.BatchSize,
		Timeout:      e.Timeout,
		CacheEnabled: e.CacheEnabled,
		CacheTTL:     e.CacheTTL,
	}
}

func toResponseConfig(r config.ResponseConfig) response.Config {
	return response.Config{
		MaxResponseLength:      r.MaxResponseLength,
		MinSourcesForSynthesis: r.MinSourcesForSynth,
		ConfidenceThreshold:    r.ConfidenceThreshold,
		CitationStyle:          response.CitationStyle(r.CitationStyle),
		CoherenceCheckEnabled:  r.CoherenceCheckEnabled,
		MaxSourcesInResponse:   r.MaxSourcesInResponse,
	}
}

func toMonitoringConfig(m config.MonitoringConfig) monitoring.Config {
	return monitoring.Config{
		WarmingInterval:     m.WarmingInterval,
		PopularityThreshold: int64(m.PopularityThreshold),
		MaxAge:              m.MaxUsageAge,
		Thresholds: monitoring.AlertThresholds{
			P95ResponseTimeMs: float64(m.P95LatencyThreshold.Milliseconds()),
			ErrorRate:         m.ErrorRateThreshold,
			CacheHitRate:      m.CacheHitRateFloor,
			MemoryFraction:    m.MemoryFractionCeil,
		},
	}
}

func toProcessorConfig(p config.ProcessorConfig, s config.SearchConfig, c config.CacheConfig) search.Config {
	return search.Config{
		MaxConcurrentQueries:  p.MaxConcurrentQueries,
		DefaultTimeoutMs:      int(p.DefaultTimeout.Milliseconds()),
		ParallelSearchEnabled: p.ParallelSearchEnabled,
		CacheEnabled:          p.CacheEnabled,
		// The mock embedding provider's vectors carry no real semantic
		// signal, so the configured confidence floor would filter out the
		// demo corpus entirely; a deployment with a real provider should
		// use p.MinConfidenceThreshold as configured.
		MinConfidenceThreshold: 0,
		MaxResultsPerSource:    p.MaxResultsPerSource,
		CacheTTL:               c.TTLQueryResult,
		DiversityEnabled:       s.DiversityEnabled,
		FusionStrategy:         toFusionStrategy(s.Hybrid.FusionStrategy),
	}
}

func toFusionStrategy(configured string) engine.FusionStrategy {
	if configured == string(engine.FusionRRF) {
		return engine.FusionRRF
	}
	return engine.FusionWeightedSum
}

// seedDemoCorpus registers one file source and upserts a handful of vectors
// so the sample query in main has something to retrieve; a real deployment
// populates the vector store via an ingestion pipeline, out of this core's
// scope.
func seedDemoCorpus(ctx context.Context, registry *datasource.Registry, vectorStore vectorstore.Store, embeddingSvc *embedding.Service) error {
	src, err := registry.Create(ctx, "demo-docs", datasource.KindFile, map[string]interface{}{"path": "/var/data/demo-docs"})
	if err != nil {
		return err
	}

	docs := []struct {
		id      string
		title   string
		content string
	}{
		{"doc-1", "Query Processing Overview", "The query processing core embeds a request, fans it out across active data sources, and merges the ranked hits into a cited answer."},
		{"doc-2", "Cache Warming", "Popular cached query results are periodically re-read in small batches to keep them from aging out of the bounded in-memory cache."},
		{"doc-3", "Vector Store Adapters", "Each vector back-end normalizes its native similarity metric onto a zero to one scale before results are merged."},
	}

	records := make([]vectorstore.Record, 0, len(docs))
	for _, d := range docs {
		embedded, err := embeddingSvc.Embed(ctx, d.content)
		if err != nil {
			return fmt.Errorf("embedding %s: %w", d.id, err)
		}
		records = append(records, vectorstore.Record{
			ID:     d.id,
			Vector: embedded.Vector,
			Metadata: map[string]interface{}{
				"sourceId": src.ID.String(),
				"title":    d.title,
				"content":  d.content,
			},
		})
	}

	return vectorStore.Upsert(ctx, records)
}
