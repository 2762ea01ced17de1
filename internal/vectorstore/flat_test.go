package vectorstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlatStore_SearchOrdersByDescendingScore(t *testing.T) {
	ctx := context.Background()
	store := NewFlatStore(Config{Dimension: 3, Metric: MetricCosine})
	require.NoError(t, store.Initialize(ctx))

	require.NoError(t, store.Upsert(ctx, []Record{
		{ID: "a", Vector: []float32{1, 0, 0}, Metadata: map[string]interface{}{"category": "docs"}},
		{ID: "b", Vector: []float32{0, 1, 0}, Metadata: map[string]interface{}{"category": "code"}},
		{ID: "c", Vector: []float32{0.9, 0.1, 0}, Metadata: map[string]interface{}{"category": "docs"}},
	}))

	hits, err := store.Search(ctx, []float32{1, 0, 0}, SearchOptions{TopK: 2, IncludeMetadata: true})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "a", hits[0].ID)
	assert.Equal(t, "c", hits[1].ID)
	assert.InDelta(t, 1.0, hits[0].Score, 0.0001)
}

func TestFlatStore_SearchAppliesFilters(t *testing.T) {
	ctx := context.Background()
	store := NewFlatStore(Config{Dimension: 3, Metric: MetricCosine})

	require.NoError(t, store.Upsert(ctx, []Record{
		{ID: "a", Vector: []float32{1, 0, 0}, Metadata: map[string]interface{}{"category": "docs"}},
		{ID: "b", Vector: []float32{0.9, 0, 0}, Metadata: map[string]interface{}{"category": "code"}},
	}))

	hits, err := store.Search(ctx, []float32{1, 0, 0}, SearchOptions{
		TopK:    10,
		Filters: []Filter{{Field: "category", Operator: OpEq, Value: "code"}},
	})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "b", hits[0].ID)
}

func TestFlatStore_SearchRejectsReservedFieldName(t *testing.T) {
	ctx := context.Background()
	store := NewFlatStore(Config{Dimension: 3, Metric: MetricCosine})

	_, err := store.Search(ctx, []float32{1, 0, 0}, SearchOptions{
		Filters: []Filter{{Field: "$ne", Operator: OpEq, Value: "x"}},
	})
	require.Error(t, err)
}

func TestFlatStore_DeleteRemovesRecord(t *testing.T) {
	ctx := context.Background()
	store := NewFlatStore(Config{Dimension: 2, Metric: MetricL2})
	require.NoError(t, store.Upsert(ctx, []Record{{ID: "a", Vector: []float32{1, 1}}}))
	require.NoError(t, store.Delete(ctx, []string{"a"}))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.VectorCount)
}

func TestNormalizeL2(t *testing.T) {
	assert.Equal(t, 1.0, NormalizeL2(0))
	assert.InDelta(t, 0.5, NormalizeL2(1), 0.0001)
	assert.InDelta(t, 1.0, NormalizeL2(-5), 0.0001)
}

func TestClampScore(t *testing.T) {
	assert.Equal(t, 0.0, ClampScore(-0.3))
	assert.Equal(t, 1.0, ClampScore(1.4))
	assert.Equal(t, 0.5, ClampScore(0.5))
}

func TestValidateFilters_RejectsSigilCollision(t *testing.T) {
	err := ValidateFilters([]Filter{{Field: "$gt", Operator: OpEq, Value: 1}})
	require.Error(t, err)

	err = ValidateFilters([]Filter{{Field: "price", Operator: OpGt, Value: 1}})
	require.NoError(t, err)
}

func TestFactory_UnknownProvider(t *testing.T) {
	_, err := New(Config{Provider: "unknown"}, nil)
	require.Error(t, err)
}

func TestFactory_FlatDefaultProvider(t *testing.T) {
	s, err := New(Config{Dimension: 4}, nil)
	require.NoError(t, err)
	assert.True(t, s.HealthCheck(context.Background()))
}
