package datasource

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChecker struct{ err error }

func (f fakeChecker) Check(context.Context, Source) error { return f.err }

func TestRegistry_CreateValidConfigBecomesActive(t *testing.T) {
	r := NewRegistry(fakeChecker{}, nil)
	src, err := r.Create(context.Background(), "docs", KindFile, map[string]interface{}{"path": "/data/docs"})
	require.NoError(t, err)
	assert.Equal(t, StatusActive, src.Status)
}

func TestRegistry_CreateInvalidConfigBecomesError(t *testing.T) {
	r := NewRegistry(fakeChecker{}, nil)
	src, err := r.Create(context.Background(), "docs", KindFile, map[string]interface{}{})
	require.Error(t, err)
	assert.Equal(t, StatusError, src.Status)
	assert.NotEmpty(t, src.ErrorMessage)
}

func TestRegistry_GetActiveOnlyReturnsActiveSources(t *testing.T) {
	r := NewRegistry(fakeChecker{}, nil)
	_, _ = r.Create(context.Background(), "good", KindFile, map[string]interface{}{"path": "/data/a"})
	_, _ = r.Create(context.Background(), "bad", KindFile, map[string]interface{}{})

	active := r.GetActive(context.Background())
	require.Len(t, active, 1)
	assert.Equal(t, "good", active[0].Name)
}

func TestRegistry_CheckHealthTransitionsToErrorOnFailure(t *testing.T) {
	r := NewRegistry(fakeChecker{err: errors.New("unreachable")}, nil)
	src, err := r.Create(context.Background(), "docs", KindFile, map[string]interface{}{"path": "/data/docs"})
	require.NoError(t, err)

	err = r.CheckHealth(context.Background(), src.ID)
	require.Error(t, err)

	got, err := r.GetByID(context.Background(), src.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusError, got.Status)
}

func TestRegistry_CheckHealthReturnsToActiveOnSuccess(t *testing.T) {
	r := NewRegistry(fakeChecker{}, nil)
	src, err := r.Create(context.Background(), "docs", KindFile, map[string]interface{}{"path": "/data/docs"})
	require.NoError(t, err)

	require.NoError(t, r.CheckHealth(context.Background(), src.ID))

	got, err := r.GetByID(context.Background(), src.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, got.Status)
}

func TestValidateConfig_DatabaseRequiresUsername(t *testing.T) {
	err := ValidateConfig(KindDatabase, map[string]interface{}{"connection_string": "postgres://localhost"})
	require.Error(t, err)

	err = ValidateConfig(KindDatabase, map[string]interface{}{"connection_string": "postgres://localhost", "username": "app"})
	require.NoError(t, err)
}

func TestValidateConfig_URLRequiresAbsoluteURL(t *testing.T) {
	err := ValidateConfig(KindURL, map[string]interface{}{"url": "not-a-url"})
	require.Error(t, err)

	err = ValidateConfig(KindURL, map[string]interface{}{"url": "https://example.com/api"})
	require.NoError(t, err)
}

func TestRegistry_ListPaginates(t *testing.T) {
	r := NewRegistry(fakeChecker{}, nil)
	for i := 0; i < 5; i++ {
		_, _ = r.Create(context.Background(), "s", KindFile, map[string]interface{}{"path": "/data/s"})
	}
	page := r.List(context.Background(), 0, 2)
	assert.Len(t, page.Sources, 2)
	assert.Equal(t, 5, page.TotalCount)
}
