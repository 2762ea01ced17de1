// Package search implements the QueryProcessor façade that consults the
// cache, parses and optimizes the query, embeds it, fans out across active
// data sources, merges and ranks the results, and hands the winners to the
// response generator.
package search

import (
	"time"

	"github.com/google/uuid"

	"github.com/ragmesh/querycore/internal/response"
	"github.com/ragmesh/querycore/internal/search/engine"
	"github.com/ragmesh/querycore/internal/vectorstore"
)

// Query is one request submitted to the processor.
type Query struct {
	ID        uuid.UUID
	Text      string
	Context   map[string]interface{}
	Filters   []vectorstore.Filter
	UserID    string
	CreatedAt time.Time
}

// Config configures a Processor instance.
type Config struct {
	MaxConcurrentQueries   int
	DefaultTimeoutMs       int
	ParallelSearchEnabled  bool
	CacheEnabled           bool
	MinConfidenceThreshold float64
	MaxResultsPerSource    int
	CacheTTL               time.Duration
	DiversityEnabled       bool
	FusionStrategy         engine.FusionStrategy
}

func (c *Config) applyDefaults() {
	if c.MaxConcurrentQueries == 0 {
		c.MaxConcurrentQueries = 100
	}
	if c.DefaultTimeoutMs == 0 {
		c.DefaultTimeoutMs = 5000
	}
	if c.MaxResultsPerSource == 0 {
		c.MaxResultsPerSource = 20
	}
	if c.CacheTTL == 0 {
		c.CacheTTL = 5 * time.Minute
	}
	if c.FusionStrategy == "" {
		c.FusionStrategy = engine.FusionWeightedSum
	}
}

// Result is the final, typed answer to one query.
type Result struct {
	ID               string                     `json:"id"`
	Response         string                     `json:"response"`
	Sources          []response.SourceReference `json:"sources"`
	Confidence       float64                    `json:"confidence"`
	ProcessingTimeMs int64                      `json:"processing_time_ms"`
	Cached           bool                       `json:"cached"`
	Errors           []string                   `json:"errors,omitempty"`
}

// Context is a snapshot of an in-flight query, tracked for the lifetime of
// one process call.
type Context struct {
	QueryID        uuid.UUID
	StartTime      time.Time
	PartialResults int
	PartialErrors  []string
	Cached         bool
}

const apologyMessage = "I'm sorry, I wasn't able to process that query right now."

func sentinelResult(queryID string) Result {
	return Result{
		ID:         queryID,
		Response:   apologyMessage,
		Sources:    nil,
		Confidence: 0,
		Cached:     false,
	}
}
