package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ragmesh/querycore/internal/observability"
	"github.com/ragmesh/querycore/internal/resilience"
)

// pgvectorBackend stores records in a Postgres table with a pgvector
// column, checking for the extension's presence and managing its
// sqlx-based connection.
type pgvectorBackend struct {
	db        *sqlx.DB
	table     string
	dimension int
	metric    Metric
	breaker   *resilience.CircuitBreaker
	logger    observability.Logger
}

// NewPgvectorStore connects to the database (sqlx.Connect also pings it)
// and returns a pgvector-backed Store; Initialize checks the schema.
func NewPgvectorStore(cfg Config, logger observability.Logger) (Store, error) {
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	db, err := sqlx.Connect("postgres", cfg.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("connect to pgvector database: %w", err)
	}
	table := cfg.IndexName
	if table == "" {
		table = "query_core_vectors"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	breaker := resilience.NewCircuitBreaker("vectorstore.pgvector", resilience.CircuitBreakerConfig{TimeoutThreshold: timeout}, logger, nil)
	return &pgvectorBackend{db: db, table: table, dimension: cfg.Dimension, metric: cfg.Metric, breaker: breaker, logger: logger}, nil
}

func (p *pgvectorBackend) Initialize(ctx context.Context) error {
	var extExists bool
	if err := p.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM pg_extension WHERE extname = 'vector')`).Scan(&extExists); err != nil {
		return fmt.Errorf("check pgvector extension: %w", err)
	}
	if !extExists {
		return fmt.Errorf("pgvector extension is not installed")
	}

	var tableExists bool
	if err := p.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = $1)`, p.table).Scan(&tableExists); err != nil {
		return fmt.Errorf("check vector table: %w", err)
	}
	if !tableExists {
		return fmt.Errorf("table %q does not exist; run migrations", p.table)
	}
	return nil
}

func (p *pgvectorBackend) Upsert(ctx context.Context, records []Record) error {
	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert transaction: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, embedding, metadata)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET embedding = EXCLUDED.embedding, metadata = EXCLUDED.metadata
	`, p.table)

	for _, r := range records {
		if _, err := tx.ExecContext(ctx, query, r.ID, formatVector(r.Vector), toJSONB(r.Metadata)); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				p.logger.Error("rollback after upsert failure", observability.Fields{"error": rbErr.Error()})
			}
			return fmt.Errorf("upsert record %s: %w", r.ID, err)
		}
	}
	return tx.Commit()
}

func (p *pgvectorBackend) Delete(ctx context.Context, ids []string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = ANY($1)`, p.table)
	_, err := p.db.ExecContext(ctx, query, pq.Array(ids))
	return err
}

func (p *pgvectorBackend) Search(ctx context.Context, vector []float32, opts SearchOptions) ([]SearchHit, error) {
	if err := ValidateFilters(opts.Filters); err != nil {
		return nil, err
	}

	result, err := p.breaker.Execute(ctx, func(c context.Context) (interface{}, error) {
		return p.search(c, vector, opts)
	})
	if err != nil {
		return nil, err
	}
	return result.([]SearchHit), nil
}

func (p *pgvectorBackend) search(ctx context.Context, vector []float32, opts SearchOptions) ([]SearchHit, error) {
	op := p.distanceOperator()
	where, args := BuildPgvectorWhere(opts.Filters, 2)
	whereClause := ""
	if where != "" {
		whereClause = "WHERE " + where
	}
	limit := opts.TopK
	if limit <= 0 {
		limit = 10
	}

	query := fmt.Sprintf(`
		SELECT id, embedding %s $1 AS distance, metadata
		FROM %s
		%s
		ORDER BY embedding %s $1
		LIMIT %d
	`, op, p.table, whereClause, op, limit)

	queryArgs := append([]interface{}{formatVector(vector)}, args...)

	rows, err := p.db.QueryxContext(ctx, query, queryArgs...)
	if err != nil {
		return nil, fmt.Errorf("execute similarity search: %w", err)
	}
	defer rows.Close()

	var hits []SearchHit
	for rows.Next() {
		var (
			id       string
			distance float64
			metaJSON []byte
		)
		if err := rows.Scan(&id, &distance, &metaJSON); err != nil {
			return nil, fmt.Errorf("scan search row: %w", err)
		}
		score := p.normalizeScore(distance)
		if score < opts.ScoreThreshold {
			continue
		}
		hit := SearchHit{ID: id, Score: score}
		if opts.IncludeMetadata {
			hit.Metadata = fromJSONB(metaJSON)
		}
		hits = append(hits, hit)
	}
	SortHits(hits)
	return hits, nil
}

// distanceOperator picks the pgvector operator matching the configured
// metric: <-> is Euclidean, <=> is cosine distance, <#> is negative inner product.
func (p *pgvectorBackend) distanceOperator() string {
	switch p.metric {
	case MetricCosine:
		return "<=>"
	case MetricInnerProduct:
		return "<#>"
	default:
		return "<->"
	}
}

func (p *pgvectorBackend) normalizeScore(distance float64) float64 {
	switch p.metric {
	case MetricCosine:
		return ClampScore(1 - distance)
	case MetricInnerProduct:
		return ClampScore(-distance)
	default:
		return NormalizeL2(distance)
	}
}

func (p *pgvectorBackend) Stats(ctx context.Context) (Stats, error) {
	var count int64
	if err := p.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, p.table)).Scan(&count); err != nil {
		return Stats{}, fmt.Errorf("count vectors: %w", err)
	}
	return Stats{
		VectorCount: count,
		Dimension:   p.dimension,
		Backend:     "pgvector",
		LastUpdated: time.Now(),
	}, nil
}

func (p *pgvectorBackend) HealthCheck(ctx context.Context) bool {
	return p.db.PingContext(ctx) == nil
}

func formatVector(v []float32) string {
	parts := make([]string, len(v))
	for i, f := range v {
		parts[i] = fmt.Sprintf("%g", f)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func toJSONB(metadata map[string]interface{}) []byte {
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	data, _ := json.Marshal(metadata)
	return data
}

func fromJSONB(data []byte) map[string]interface{} {
	out := map[string]interface{}{}
	if len(data) == 0 {
		return out
	}
	_ = json.Unmarshal(data, &out)
	return out
}
