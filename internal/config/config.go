// Package config loads the query-processing core's configuration, covering
// every option the cache, vector store, embedding service, search engine,
// processor, and monitoring subsystems take. Server/auth configuration
// belongs to the HTTP layer and is out of scope here.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// CacheConfig configures the Cache Store (4.A).
type CacheConfig struct {
	Backend        string        `mapstructure:"backend"` // "memory" | "redis"
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	Password       string        `mapstructure:"password"`
	DB             int           `mapstructure:"db"`
	MaxMemoryBytes int64         `mapstructure:"max_memory_bytes"`
	EvictionPolicy string        `mapstructure:"eviction_policy"`
	TTLQueryResult time.Duration `mapstructure:"ttl_query_results"`
	TTLEmbedding   time.Duration `mapstructure:"ttl_embeddings"`
	TTLHealthCheck time.Duration `mapstructure:"ttl_health_checks"`
}

// VectorConfig configures the Vector Store Adapter (4.B).
type VectorConfig struct {
	Provider         string            `mapstructure:"provider"` // "flat" | "pgvector" | "qdrant"
	Dimension        int               `mapstructure:"dimension"`
	Metric           string            `mapstructure:"metric"` // "l2" | "inner_product" | "cosine"
	ConnectionString string            `mapstructure:"connection_string"`
	APIKey           string            `mapstructure:"api_key"`
	IndexName        string            `mapstructure:"index_name"`
	IndexParams      map[string]string `mapstructure:"index_params"`
	Timeout          time.Duration     `mapstructure:"timeout"`
}

// EmbeddingConfig configures the Embedding Service (4.C).
type EmbeddingConfig struct {
	Provider     string        `mapstructure:"provider"` // "bedrock" | "openai" | "mock"
	Model        string        `mapstructure:"model"`
	APIKey       string        `mapstructure:"api_key"`
	Dimension    int           `mapstructure:"dimension"`
	MaxTokens    int           `mapstructure:"max_tokens"`
	BatchSize    int           `mapstructure:"batch_size"`
	Timeout      time.Duration `mapstructure:"timeout"`
	CacheEnabled bool          `mapstructure:"cache_enabled"`
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`
}

// HybridSearchConfig configures score fusion between semantic and keyword passes (4.G).
type HybridSearchConfig struct {
	Enabled       bool    `mapstructure:"enabled"`
	VectorWeight  float64 `mapstructure:"vector_weight"`
	KeywordWeight float64 `mapstructure:"keyword_weight"`
	// FusionStrategy selects the combination function: "weighted_sum"
	// (default) or "rrf" for reciprocal rank fusion.
	FusionStrategy string `mapstructure:"fusion_strategy"`
}

// SearchConfig configures the Search Engine (4.G).
type SearchConfig struct {
	DefaultTopK         int                 `mapstructure:"default_top_k"`
	MaxTopK             int                 `mapstructure:"max_top_k"`
	SimilarityThreshold float64             `mapstructure:"similarity_threshold"`
	Hybrid              HybridSearchConfig  `mapstructure:"hybrid_search"`
	DiversityEnabled    bool                `mapstructure:"diversity_enabled"`
}

// ProcessorConfig configures the Search Orchestrator (4.F).
type ProcessorConfig struct {
	MaxConcurrentQueries   int           `mapstructure:"max_concurrent_queries"`
	DefaultTimeout         time.Duration `mapstructure:"default_timeout"`
	ParallelSearchEnabled  bool          `mapstructure:"parallel_search_enabled"`
	CacheEnabled           bool          `mapstructure:"cache_enabled"`
	MinConfidenceThreshold float64       `mapstructure:"min_confidence_threshold"`
	MaxResultsPerSource    int           `mapstructure:"max_results_per_source"`
}

// ResponseConfig configures the Response Generator (4.H).
type ResponseConfig struct {
	MaxResponseLength     int     `mapstructure:"max_response_length"`
	MinSourcesForSynth    int     `mapstructure:"min_sources_for_synthesis"`
	ConfidenceThreshold   float64 `mapstructure:"confidence_threshold"`
	CitationStyle         string  `mapstructure:"citation_style"` // "inline" | "numbered" | "footnote"
	CoherenceCheckEnabled bool    `mapstructure:"coherence_check_enabled"`
	MaxSourcesInResponse  int     `mapstructure:"max_sources_in_response"`
}

// MonitoringConfig configures cache-warming and health monitoring (4.I).
type MonitoringConfig struct {
	WarmingInterval      time.Duration `mapstructure:"warming_interval"`
	PopularityThreshold  int           `mapstructure:"popularity_threshold"`
	MaxUsageAge          time.Duration `mapstructure:"max_usage_age"`
	P95LatencyThreshold  time.Duration `mapstructure:"p95_latency_threshold"`
	ErrorRateThreshold   float64       `mapstructure:"error_rate_threshold"`
	CacheHitRateFloor    float64       `mapstructure:"cache_hit_rate_floor"`
	MemoryFractionCeil   float64       `mapstructure:"memory_fraction_ceiling"`
}

// Config is the complete query-processing core configuration.
type Config struct {
	Cache      CacheConfig      `mapstructure:"cache"`
	Vector     VectorConfig     `mapstructure:"vector"`
	Embedding  EmbeddingConfig  `mapstructure:"embedding"`
	Search     SearchConfig     `mapstructure:"search"`
	Processor  ProcessorConfig  `mapstructure:"processor"`
	Response   ResponseConfig   `mapstructure:"response"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
	LogLevel   string           `mapstructure:"log_level"`
}

// Load reads configuration from environment variables (prefixed QUERYCORE_)
// and an optional config file, applying defaults first and letting the
// environment and config file override them.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	applyDefaults(v)

	v.SetEnvPrefix("QUERYCORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.host", "localhost")
	v.SetDefault("cache.port", 6379)
	v.SetDefault("cache.max_memory_bytes", 256*1024*1024)
	v.SetDefault("cache.eviction_policy", "lru")
	v.SetDefault("cache.ttl_query_results", "5m")
	v.SetDefault("cache.ttl_embeddings", "24h")
	v.SetDefault("cache.ttl_health_checks", "30s")

	v.SetDefault("vector.provider", "flat")
	v.SetDefault("vector.dimension", 1536)
	v.SetDefault("vector.metric", "cosine")
	v.SetDefault("vector.timeout", "10s")

	v.SetDefault("embedding.provider", "mock")
	v.SetDefault("embedding.model", "local-mock")
	v.SetDefault("embedding.dimension", 1536)
	v.SetDefault("embedding.max_tokens", 512)
	v.SetDefault("embedding.batch_size", 32)
	v.SetDefault("embedding.timeout", "10s")
	v.SetDefault("embedding.cache_enabled", true)
	v.SetDefault("embedding.cache_ttl", "24h")

	v.SetDefault("search.default_top_k", 10)
	v.SetDefault("search.max_top_k", 100)
	v.SetDefault("search.similarity_threshold", 0.5)
	v.SetDefault("search.hybrid_search.enabled", true)
	v.SetDefault("search.hybrid_search.vector_weight", 0.7)
	v.SetDefault("search.hybrid_search.keyword_weight", 0.3)
	v.SetDefault("search.diversity_enabled", true)

	v.SetDefault("processor.max_concurrent_queries", 10)
	v.SetDefault("processor.default_timeout", "30s")
	v.SetDefault("processor.parallel_search_enabled", true)
	v.SetDefault("processor.cache_enabled", true)
	v.SetDefault("processor.min_confidence_threshold", 0.5)
	v.SetDefault("processor.max_results_per_source", 20)

	v.SetDefault("response.max_response_length", 2000)
	v.SetDefault("response.min_sources_for_synthesis", 1)
	v.SetDefault("response.confidence_threshold", 0.5)
	v.SetDefault("response.citation_style", "numbered")
	v.SetDefault("response.coherence_check_enabled", true)
	v.SetDefault("response.max_sources_in_response", 10)

	v.SetDefault("monitoring.warming_interval", "5m")
	v.SetDefault("monitoring.popularity_threshold", 5)
	v.SetDefault("monitoring.max_usage_age", "24h")
	v.SetDefault("monitoring.p95_latency_threshold", "2s")
	v.SetDefault("monitoring.error_rate_threshold", 0.05)
	v.SetDefault("monitoring.cache_hit_rate_floor", 0.3)
	v.SetDefault("monitoring.memory_fraction_ceiling", 0.85)

	v.SetDefault("log_level", "info")
}

// Validate enforces two cross-field invariants: embedding dimension must
// equal vector dimension, and hybrid weights must sum to 1.0.
func Validate(cfg *Config) error {
	if cfg.Embedding.Dimension != cfg.Vector.Dimension {
		return fmt.Errorf("embedding.dimension (%d) must equal vector.dimension (%d)",
			cfg.Embedding.Dimension, cfg.Vector.Dimension)
	}
	if cfg.Search.Hybrid.Enabled {
		total := cfg.Search.Hybrid.VectorWeight + cfg.Search.Hybrid.KeywordWeight
		if total < 0.99 || total > 1.01 {
			return fmt.Errorf("search.hybrid_search weights must sum to 1.0, got %.3f", total)
		}
	}
	return nil
}
