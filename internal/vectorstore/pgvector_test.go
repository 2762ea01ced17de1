package vectorstore

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragmesh/querycore/internal/observability"
	"github.com/ragmesh/querycore/internal/resilience"
)

// newTestPgvectorBackend builds a pgvectorBackend around a sqlmock
// connection, bypassing NewPgvectorStore's real sqlx.Connect so these tests
// never touch a live database.
func newTestPgvectorBackend(t *testing.T) (*pgvectorBackend, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	db := sqlx.NewDb(mockDB, "postgres")
	breaker := resilience.NewCircuitBreaker("vectorstore.pgvector.test", resilience.CircuitBreakerConfig{}, observability.NewNopLogger(), nil)
	backend := &pgvectorBackend{
		db:        db,
		table:     "query_core_vectors",
		dimension: 3,
		metric:    MetricCosine,
		breaker:   breaker,
		logger:    observability.NewNopLogger(),
	}
	return backend, mock
}

func TestPgvectorBackend_InitializeSucceedsWhenExtensionAndTableExist(t *testing.T) {
	backend, mock := newTestPgvectorBackend(t)

	mock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM pg_extension WHERE extname = 'vector'\)`).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM information_schema.tables WHERE table_name = \$1\)`).
		WithArgs("query_core_vectors").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	require.NoError(t, backend.Initialize(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPgvectorBackend_InitializeFailsWhenExtensionMissing(t *testing.T) {
	backend, mock := newTestPgvectorBackend(t)

	mock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM pg_extension WHERE extname = 'vector'\)`).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	err := backend.Initialize(context.Background())
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPgvectorBackend_InitializeFailsWhenTableMissing(t *testing.T) {
	backend, mock := newTestPgvectorBackend(t)

	mock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM pg_extension WHERE extname = 'vector'\)`).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM information_schema.tables WHERE table_name = \$1\)`).
		WithArgs("query_core_vectors").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	err := backend.Initialize(context.Background())
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPgvectorBackend_UpsertCommitsAfterEachRowInsert(t *testing.T) {
	backend, mock := newTestPgvectorBackend(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO query_core_vectors`).
		WithArgs("a", formatVector([]float32{1, 0, 0}), toJSONB(map[string]interface{}{"k": "v"})).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := backend.Upsert(context.Background(), []Record{
		{ID: "a", Vector: []float32{1, 0, 0}, Metadata: map[string]interface{}{"k": "v"}},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPgvectorBackend_UpsertRollsBackOnRowFailure(t *testing.T) {
	backend, mock := newTestPgvectorBackend(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO query_core_vectors`).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := backend.Upsert(context.Background(), []Record{
		{ID: "a", Vector: []float32{1, 0, 0}},
	})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPgvectorBackend_DeleteUsesArrayOfIDs(t *testing.T) {
	backend, mock := newTestPgvectorBackend(t)

	mock.ExpectExec(`DELETE FROM query_core_vectors WHERE id = ANY\(\$1\)`).
		WillReturnResult(sqlmock.NewResult(0, 2))

	err := backend.Delete(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPgvectorBackend_SearchNormalizesScoreAndAppliesThreshold(t *testing.T) {
	backend, mock := newTestPgvectorBackend(t)

	rows := sqlmock.NewRows([]string{"id", "distance", "metadata"}).
		AddRow("a", 0.1, []byte(`{"category":"docs"}`)).
		AddRow("b", 0.9, []byte(`{"category":"code"}`))
	mock.ExpectQuery(`SELECT id, embedding <=> \$1 AS distance`).
		WillReturnRows(rows)

	hits, err := backend.Search(context.Background(), []float32{1, 0, 0}, SearchOptions{
		TopK:            10,
		IncludeMetadata: true,
		ScoreThreshold:  0.2,
	})
	require.NoError(t, err)
	require.Len(t, hits, 1, "the cosine distance 0.9 row normalizes to score 0.1, below the 0.2 threshold")
	assert.Equal(t, "a", hits[0].ID)
	assert.InDelta(t, 0.9, hits[0].Score, 0.0001)
	assert.Equal(t, "docs", hits[0].Metadata["category"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPgvectorBackend_SearchRejectsReservedFilterFieldBeforeQuerying(t *testing.T) {
	backend, mock := newTestPgvectorBackend(t)

	_, err := backend.Search(context.Background(), []float32{1, 0, 0}, SearchOptions{
		Filters: []Filter{{Field: "$ne", Operator: OpEq, Value: "x"}},
	})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet(), "a rejected filter must never reach the database")
}

func TestPgvectorBackend_HealthCheckReflectsPingResult(t *testing.T) {
	backend, mock := newTestPgvectorBackend(t)

	mock.ExpectPing()
	assert.True(t, backend.HealthCheck(context.Background()))

	mock.ExpectPing().WillReturnError(assert.AnError)
	assert.False(t, backend.HealthCheck(context.Background()))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPgvectorBackend_StatsReportsCountAndDimension(t *testing.T) {
	backend, mock := newTestPgvectorBackend(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM query_core_vectors`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(42)))

	stats, err := backend.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(42), stats.VectorCount)
	assert.Equal(t, 3, stats.Dimension)
	assert.Equal(t, "pgvector", stats.Backend)
	require.NoError(t, mock.ExpectationsWereMet())
}
