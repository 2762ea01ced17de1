package vectorstore

import (
	"context"
	"fmt"
	"time"

	"github.com/qdrant/go-client/qdrant"

	"github.com/ragmesh/querycore/internal/observability"
	"github.com/ragmesh/querycore/internal/resilience"
)

// qdrantBackend wraps the managed Qdrant client, using its collection
// bootstrap / point-struct / query-points conventions.
type qdrantBackend struct {
	client         *qdrant.Client
	collectionName string
	dimension      int
	metric         Metric
	breaker        *resilience.CircuitBreaker
}

// NewQdrantStore dials a Qdrant instance and returns a Store backed by it.
func NewQdrantStore(cfg Config) (Store, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.IndexParams["host"],
		Port:   portFromParams(cfg.IndexParams),
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to qdrant: %w", err)
	}
	name := cfg.IndexName
	if name == "" {
		name = "query_core"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	breaker := resilience.NewCircuitBreaker("vectorstore.qdrant", resilience.CircuitBreakerConfig{TimeoutThreshold: timeout}, observability.NewNopLogger(), nil)
	return &qdrantBackend{client: client, collectionName: name, dimension: cfg.Dimension, metric: cfg.Metric, breaker: breaker}, nil
}

func portFromParams(params map[string]string) int {
	if v, ok := params["port"]; ok {
		var p int
		if _, err := fmt.Sscanf(v, "%d", &p); err == nil {
			return p
		}
	}
	return 6334
}

func (q *qdrantBackend) Initialize(ctx context.Context) error {
	exists, err := q.client.CollectionExists(ctx, q.collectionName)
	if err != nil {
		return fmt.Errorf("check collection existence: %w", err)
	}
	if exists {
		return nil
	}

	return q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.collectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(q.dimension),
			Distance: q.qdrantDistance(),
		}),
	})
}

func (q *qdrantBackend) qdrantDistance() qdrant.Distance {
	switch q.metric {
	case MetricInnerProduct:
		return qdrant.Distance_Dot
	case MetricL2:
		return qdrant.Distance_Euclid
	default:
		return qdrant.Distance_Cosine
	}
}

func (q *qdrantBackend) Upsert(ctx context.Context, records []Record) error {
	points := make([]*qdrant.PointStruct, 0, len(records))
	for _, r := range records {
		payload, err := qdrant.TryValueMap(r.Metadata)
		if err != nil {
			return fmt.Errorf("convert metadata for %s: %w", r.ID, err)
		}
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewID(r.ID),
			Vectors: qdrant.NewVectors(r.Vector...),
			Payload: payload,
		})
	}

	wait := true
	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collectionName,
		Wait:           &wait,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("upsert %d points into %s: %w", len(points), q.collectionName, err)
	}
	return nil
}

func (q *qdrantBackend) Delete(ctx context.Context, ids []string) error {
	qdrantIDs := make([]*qdrant.PointId, len(ids))
	for i, id := range ids {
		qdrantIDs[i] = qdrant.NewID(id)
	}
	_, err := q.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: q.collectionName,
		Points:         qdrant.NewPointsSelectorIDs(qdrantIDs...),
	})
	return err
}

func (q *qdrantBackend) Search(ctx context.Context, vector []float32, opts SearchOptions) ([]SearchHit, error) {
	if err := ValidateFilters(opts.Filters); err != nil {
		return nil, err
	}

	result, err := q.breaker.Execute(ctx, func(c context.Context) (interface{}, error) {
		return q.search(c, vector, opts)
	})
	if err != nil {
		return nil, err
	}
	return result.([]SearchHit), nil
}

func (q *qdrantBackend) search(ctx context.Context, vector []float32, opts SearchOptions) ([]SearchHit, error) {
	limit := uint64(opts.TopK)
	if limit == 0 {
		limit = 10
	}
	threshold := float32(opts.ScoreThreshold)

	queryPoints := &qdrant.QueryPoints{
		CollectionName: q.collectionName,
		Query:          qdrant.NewQuery(vector...),
		Limit:          &limit,
		ScoreThreshold: &threshold,
		WithPayload:    qdrant.NewWithPayload(opts.IncludeMetadata),
	}
	if filter := BuildQdrantFilter(opts.Filters); filter != nil {
		queryPoints.Filter = filter
	}

	scored, err := q.client.Query(ctx, queryPoints)
	if err != nil {
		return nil, fmt.Errorf("query collection %s: %w", q.collectionName, err)
	}

	hits := make([]SearchHit, 0, len(scored))
	for _, point := range scored {
		hit := SearchHit{Score: q.normalizeScore(float64(point.GetScore()))}
		if id := point.GetId(); id != nil {
			hit.ID = id.GetUuid()
			if hit.ID == "" {
				hit.ID = fmt.Sprintf("%d", id.GetNum())
			}
		}
		if opts.IncludeMetadata {
			hit.Metadata = convertPayload(point.GetPayload())
		}
		hits = append(hits, hit)
	}
	SortHits(hits)
	return hits, nil
}

func (q *qdrantBackend) normalizeScore(raw float64) float64 {
	if q.metric == MetricL2 {
		return NormalizeL2(raw)
	}
	return ClampScore(raw)
}

func (q *qdrantBackend) Stats(ctx context.Context) (Stats, error) {
	info, err := q.client.GetCollectionInfo(ctx, q.collectionName)
	if err != nil {
		return Stats{}, fmt.Errorf("get collection info: %w", err)
	}
	return Stats{
		VectorCount: int64(info.GetPointsCount()),
		Dimension:   q.dimension,
		Backend:     "qdrant",
		LastUpdated: time.Now(),
	}, nil
}

func (q *qdrantBackend) HealthCheck(ctx context.Context) bool {
	_, err := q.client.HealthCheck(ctx)
	return err == nil
}

func convertPayload(payload map[string]*qdrant.Value) map[string]interface{} {
	if payload == nil {
		return nil
	}
	out := make(map[string]interface{}, len(payload))
	for k, v := range payload {
		out[k] = convertValue(v)
	}
	return out
}

func convertValue(v *qdrant.Value) interface{} {
	if v == nil {
		return nil
	}
	switch kind := v.Kind.(type) {
	case *qdrant.Value_DoubleValue:
		return kind.DoubleValue
	case *qdrant.Value_IntegerValue:
		return kind.IntegerValue
	case *qdrant.Value_StringValue:
		return kind.StringValue
	case *qdrant.Value_BoolValue:
		return kind.BoolValue
	case *qdrant.Value_StructValue:
		out := make(map[string]interface{}, len(kind.StructValue.GetFields()))
		for k, fv := range kind.StructValue.GetFields() {
			out[k] = convertValue(fv)
		}
		return out
	case *qdrant.Value_ListValue:
		vals := kind.ListValue.GetValues()
		out := make([]interface{}, len(vals))
		for i, lv := range vals {
			out[i] = convertValue(lv)
		}
		return out
	default:
		return nil
	}
}
