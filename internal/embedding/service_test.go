package embedding

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragmesh/querycore/internal/cache"
	"github.com/ragmesh/querycore/internal/embedding/providers"
)

func TestService_EmbedReturnsVectorAndCachesIt(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemoryBackend(100)
	svc := NewService(Config{Provider: "mock", Model: "mock-small", CacheEnabled: true, CacheTTL: time.Minute},
		providers.NewMockProvider(16), store, nil, nil)

	res, err := svc.Embed(ctx, "hello world")
	require.NoError(t, err)
	assert.False(t, res.Cached)
	assert.Len(t, res.Vector, 16)

	again, err := svc.Embed(ctx, "hello world")
	require.NoError(t, err)
	assert.True(t, again.Cached)
	assert.Equal(t, res.Vector, again.Vector)
}

func TestService_EmbedTruncatesLongText(t *testing.T) {
	ctx := context.Background()
	svc := NewService(Config{Provider: "mock", Model: "mock-small", MaxTokens: 4}, providers.NewMockProvider(8), nil, nil, nil)

	res, err := svc.Embed(ctx, strings.Repeat("a", 100))
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("a", 16), res.Text)
}

func TestService_EmbedBatchPreservesOrder(t *testing.T) {
	ctx := context.Background()
	svc := NewService(Config{Provider: "mock", Model: "mock-small", BatchSize: 2}, providers.NewMockProvider(8), nil, nil, nil)

	results, err := svc.EmbedBatch(ctx, []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "a", results[0].Text)
	assert.Equal(t, "b", results[1].Text)
	assert.Equal(t, "c", results[2].Text)
}

func TestService_HealthCheckReportsDimensionAndProvider(t *testing.T) {
	svc := NewService(Config{Provider: "mock", Model: "mock-small"}, providers.NewMockProvider(32), nil, nil, nil)
	status := svc.HealthCheck(context.Background())
	assert.True(t, status.Healthy)
	assert.Equal(t, 32, status.Dimension)
	assert.Equal(t, "mock", status.Provider)
}

func TestHashText_IsStable(t *testing.T) {
	a := hashText("the same text")
	b := hashText("the same text")
	c := hashText("different text")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}
