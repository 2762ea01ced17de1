package search

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragmesh/querycore/internal/cache"
	"github.com/ragmesh/querycore/internal/datasource"
	"github.com/ragmesh/querycore/internal/embedding"
	"github.com/ragmesh/querycore/internal/embedding/providers"
	"github.com/ragmesh/querycore/internal/observability"
	"github.com/ragmesh/querycore/internal/response"
	"github.com/ragmesh/querycore/internal/search/engine"
	"github.com/ragmesh/querycore/internal/vectorstore"
)

type alwaysHealthy struct{}

func (alwaysHealthy) Check(context.Context, datasource.Source) error { return nil }

func newTestProcessor(t *testing.T, cfg Config) (*Processor, *datasource.Registry, vectorstore.Store) {
	t.Helper()

	logger := observability.NewNopLogger()
	metrics := observability.NewInMemoryMetrics()

	vs := vectorstore.NewFlatStore(vectorstore.Config{Provider: "flat", Dimension: 16, Metric: vectorstore.MetricCosine})

	cacheStore := cache.NewMemoryBackend(100)

	embSvc := embedding.NewService(
		embedding.Config{Provider: "mock", Model: "mock-v1", CacheEnabled: false},
		providers.NewMockProvider(16),
		cacheStore,
		logger,
		metrics,
	)

	registry := datasource.NewRegistry(alwaysHealthy{}, logger)

	respGen := response.NewGenerator(response.Config{ConfidenceThreshold: 0.01, MaxSourcesInResponse: 5}, logger)

	proc := NewProcessor(cfg, cacheStore, embSvc, registry, vs, respGen, nil, logger, metrics)
	return proc, registry, vs
}

func seedSource(t *testing.T, registry *datasource.Registry, vs vectorstore.Store, name string, vector []float32, metadata map[string]interface{}) datasource.Source {
	t.Helper()
	src, err := registry.Create(context.Background(), name, datasource.KindFile, map[string]interface{}{"path": "/tmp/x"})
	require.NoError(t, err)

	md := map[string]interface{}{}
	for k, v := range metadata {
		md[k] = v
	}
	md["sourceId"] = src.ID.String()

	err = vs.Upsert(context.Background(), []vectorstore.Record{
		{ID: uuid.NewString(), Vector: vector, Metadata: md},
	})
	require.NoError(t, err)

	return src
}

func baseConfig() Config {
	return Config{
		MaxConcurrentQueries:   10,
		DefaultTimeoutMs:       2000,
		ParallelSearchEnabled:  true,
		CacheEnabled:           true,
		MinConfidenceThreshold: 0.0,
		MaxResultsPerSource:    10,
	}
}

func TestProcessReturnsSynthesizedResult(t *testing.T) {
	proc, registry, vs := newTestProcessor(t, baseConfig())

	vector, err := providers.NewMockProvider(16).Embed(context.Background(), "go concurrency patterns", "")
	require.NoError(t, err)
	seedSource(t, registry, vs, "docs", vector, map[string]interface{}{
		"title":   "Go Concurrency Patterns",
		"excerpt": "Goroutines and channels make concurrent code composable.",
	})

	result, err := proc.Process(context.Background(), Query{Text: "go concurrency patterns"})
	require.NoError(t, err)
	assert.False(t, result.Cached)
	assert.NotEmpty(t, result.Response)
}

func TestProcessSecondCallHitsCache(t *testing.T) {
	proc, registry, vs := newTestProcessor(t, baseConfig())

	vector, err := providers.NewMockProvider(16).Embed(context.Background(), "hello world", "")
	require.NoError(t, err)
	seedSource(t, registry, vs, "docs", vector, map[string]interface{}{
		"title":   "Hello World",
		"excerpt": "A basic program that prints hello world.",
	})

	q := Query{Text: "hello world"}
	first, err := proc.Process(context.Background(), q)
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := proc.Process(context.Background(), q)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Response, second.Response)
}

func TestProcessWithNoActiveSourcesReturnsEmptyButNotFatal(t *testing.T) {
	proc, _, _ := newTestProcessor(t, baseConfig())

	result, err := proc.Process(context.Background(), Query{Text: "anything at all"})
	require.NoError(t, err)
	assert.Empty(t, result.Sources)
}

func TestProcessRejectsOverCapacity(t *testing.T) {
	cfg := baseConfig()
	cfg.MaxConcurrentQueries = 1
	proc, _, _ := newTestProcessor(t, cfg)

	queryID := uuid.New()
	_, admitted := proc.admission.admit(queryID, func() {})
	require.True(t, admitted)

	_, err := proc.Process(context.Background(), Query{Text: "should be rejected"})
	require.Error(t, err)
}

func TestProcessTimesOutOnExpiredDeadline(t *testing.T) {
	cfg := baseConfig()
	cfg.DefaultTimeoutMs = 1
	proc, _, _ := newTestProcessor(t, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()
	time.Sleep(2 * time.Millisecond)
	_, err := proc.Process(ctx, Query{Text: "too slow"})
	require.Error(t, err)
}

func TestStatusAndCancel(t *testing.T) {
	proc, _, _ := newTestProcessor(t, baseConfig())
	queryID := uuid.New()

	_, ok := proc.Status(queryID)
	assert.False(t, ok)

	assert.False(t, proc.Cancel(queryID))
}

func TestFingerprintIsStableAcrossFilterOrder(t *testing.T) {
	f1 := fingerprint("same text", map[string]interface{}{"domain": "eng"}, []vectorstore.Filter{
		{Field: "type", Operator: vectorstore.OpEq, Value: "report"},
		{Field: "category", Operator: vectorstore.OpEq, Value: "docs"},
	})
	f2 := fingerprint("same text", map[string]interface{}{"domain": "eng"}, []vectorstore.Filter{
		{Field: "category", Operator: vectorstore.OpEq, Value: "docs"},
		{Field: "type", Operator: vectorstore.OpEq, Value: "report"},
	})
	assert.Equal(t, f1, f2)
}

func TestApplyBoostsClampsToOne(t *testing.T) {
	results := applyBoosts([]engine.RankedResult{
		{ID: "a", FinalScore: 0.5, Metadata: map[string]interface{}{"featured": true}},
	}, map[string]float64{"featured": 10})
	assert.LessOrEqual(t, results[0].FinalScore, 1.0)
}
