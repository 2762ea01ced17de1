// Package embedding turns text into vectors, transparently caching and
// batching calls to whichever provider the deployment is configured with.
package embedding

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/ragmesh/querycore/internal/cache"
	coreerrors "github.com/ragmesh/querycore/internal/errors"
	"github.com/ragmesh/querycore/internal/embedding/providers"
	"github.com/ragmesh/querycore/internal/observability"
	"github.com/ragmesh/querycore/internal/resilience"
)

// Config configures a Service instance.
type Config struct {
	Provider     string
	Model        string
	APIKey       string
	Region       string
	Dimension    int
	MaxTokens    int
	BatchSize    int
	Timeout      time.Duration
	CacheEnabled bool
	CacheTTL     time.Duration
}

func (c *Config) applyDefaults() {
	if c.MaxTokens == 0 {
		c.MaxTokens = 512
	}
	if c.BatchSize == 0 {
		c.BatchSize = 32
	}
	if c.Timeout == 0 {
		c.Timeout = 10 * time.Second
	}
	if c.CacheTTL == 0 {
		c.CacheTTL = time.Hour
	}
}

// Result is the outcome of embedding one piece of text.
type Result struct {
	Text      string
	Vector    []float32
	Model     string
	Timestamp time.Time
	Cached    bool
}

// HealthStatus reports the outcome of a fixed embedding probe.
type HealthStatus struct {
	Healthy   bool
	Dimension int
	Provider  string
}

// Service is the public capability the search pipeline depends on.
type Service struct {
	cfg      Config
	provider providers.Provider
	cache    cache.Store
	breaker  *resilience.CircuitBreaker
	logger   observability.Logger
	metrics  observability.MetricsClient
}

// NewService wires a provider (and optional cache) behind the Service
// contract. Every provider call is run through a circuit breaker keyed on
// the provider name, so a failing embedding backend trips open instead of
// letting every query pile up retries against it.
func NewService(cfg Config, provider providers.Provider, store cache.Store, logger observability.Logger, metrics observability.MetricsClient) *Service {
	cfg.applyDefaults()
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	breaker := resilience.NewCircuitBreaker(
		"embedding."+cfg.Provider,
		resilience.CircuitBreakerConfig{TimeoutThreshold: cfg.Timeout},
		logger, metrics,
	)
	return &Service{cfg: cfg, provider: provider, cache: store, breaker: breaker, logger: logger, metrics: metrics}
}

func (s *Service) truncate(text string) string {
	limit := s.cfg.MaxTokens * 4
	if len(text) <= limit {
		return text
	}
	return text[:limit]
}

// Embed produces a vector for a single text, transparently consulting and
// populating the cache.
func (s *Service) Embed(ctx context.Context, text string) (Result, error) {
	text = s.truncate(text)
	key := cache.EmbeddingKey(s.cfg.Provider, s.cfg.Model, hashText(text))

	if s.cfg.CacheEnabled && s.cache != nil {
		if raw, ok := s.cache.Get(ctx, key); ok {
			if vec, ok := decodeVector(raw); ok {
				s.recordCacheHit()
				return Result{Text: text, Vector: vec, Model: s.cfg.Model, Timestamp: time.Now(), Cached: true}, nil
			}
		}
		s.recordCacheMiss()
	}

	vec, err := s.embedWithRetry(ctx, text)
	if err != nil {
		return Result{}, err
	}

	if s.cfg.CacheEnabled && s.cache != nil {
		if raw, ok := encodeVector(vec); ok {
			if err := s.cache.Set(ctx, key, raw, s.cfg.CacheTTL); err != nil {
				s.logger.Warn("failed to populate embedding cache", observability.Fields{"error": err.Error()})
			}
		}
	}

	return Result{Text: text, Vector: vec, Model: s.cfg.Model, Timestamp: time.Now(), Cached: false}, nil
}

// EmbedBatch embeds every text, preserving index order. The batch is split
// into sub-batches of size <= BatchSize; cache hits bypass the provider.
func (s *Service) EmbedBatch(ctx context.Context, texts []string) ([]Result, error) {
	results := make([]Result, len(texts))

	for start := 0; start < len(texts); start += s.cfg.BatchSize {
		end := start + s.cfg.BatchSize
		if end > len(texts) {
			end = len(texts)
		}
		for i := start; i < end; i++ {
			res, err := s.Embed(ctx, texts[i])
			if err != nil {
				return nil, err
			}
			results[i] = res
		}
	}
	return results, nil
}

func (s *Service) embedWithRetry(ctx context.Context, text string) ([]float32, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.Multiplier = 2.0
	b.MaxInterval = 2 * time.Second
	b.MaxElapsedTime = s.cfg.Timeout

	var vec []float32
	operation := func() error {
		result, err := s.breaker.Execute(timeoutCtx, func(c context.Context) (interface{}, error) {
			return s.provider.Embed(c, text, s.cfg.Model)
		})
		if err != nil {
			classified := s.classifyProviderError(err)
			if classified.Class == coreerrors.ClassRateLimit {
				return classified
			}
			return backoff.Permanent(classified)
		}
		vec = result.([]float32)
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(b, timeoutCtx)); err != nil {
		if timeoutCtx.Err() != nil {
			return nil, coreerrors.New("embedding", "Embed", "EMBEDDING_TIMEOUT",
				"embedding provider exceeded the configured deadline", coreerrors.ClassTimeout)
		}
		var ce *coreerrors.Error
		if errors.As(err, &ce) {
			return nil, ce
		}
		return nil, coreerrors.Wrap(err, "embedding", "Embed", "EMBEDDING_PROVIDER_ERROR", coreerrors.ClassProcessing)
	}
	return vec, nil
}

func (s *Service) classifyProviderError(err error) *coreerrors.Error {
	switch {
	case errors.Is(err, resilience.ErrOpen), errors.Is(err, resilience.ErrHalfOpenExceeded):
		return coreerrors.Wrap(err, "embedding", "Embed", "EMBEDDING_CIRCUIT_OPEN", coreerrors.ClassConnection)
	case errors.Is(err, resilience.ErrTimeout):
		return coreerrors.Wrap(err, "embedding", "Embed", "EMBEDDING_TIMEOUT", coreerrors.ClassTimeout)
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "429") || strings.Contains(msg, "rate limit") || strings.Contains(msg, "too many requests"):
		return coreerrors.Wrap(err, "embedding", "Embed", "EMBEDDING_RATE_LIMITED", coreerrors.ClassRateLimit)
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline exceeded"):
		return coreerrors.Wrap(err, "embedding", "Embed", "EMBEDDING_TIMEOUT", coreerrors.ClassTimeout)
	default:
		return coreerrors.Wrap(err, "embedding", "Embed", "EMBEDDING_PROVIDER_ERROR", coreerrors.ClassProcessing)
	}
}

// HealthCheck issues a fixed probe through the same breaker Embed uses and
// reports dimension and provider name.
func (s *Service) HealthCheck(ctx context.Context) HealthStatus {
	result, err := s.breaker.Execute(ctx, func(c context.Context) (interface{}, error) {
		return s.provider.Embed(c, "healthcheck probe", s.cfg.Model)
	})
	if err != nil {
		return HealthStatus{Healthy: false, Provider: s.provider.Name()}
	}
	vec := result.([]float32)
	return HealthStatus{Healthy: true, Dimension: len(vec), Provider: s.provider.Name()}
}

func (s *Service) recordCacheHit() {
	if s.metrics != nil {
		s.metrics.IncrementCounter("embedding.cache.hit", 1, nil)
	}
}

func (s *Service) recordCacheMiss() {
	if s.metrics != nil {
		s.metrics.IncrementCounter("embedding.cache.miss", 1, nil)
	}
}
