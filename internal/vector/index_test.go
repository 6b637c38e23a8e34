package vector

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thebtf/lifelog/pkg/models"
)

func testIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := Open(filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	return idx
}

func TestIndex_AddAndQuery(t *testing.T) {
	idx := testIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Add(ctx, "x", models.Vector{1, 0}))
	require.NoError(t, idx.Add(ctx, "y", models.Vector{0, 1}))
	require.NoError(t, idx.Add(ctx, "diag", models.Vector{1, 1}))

	matches := idx.Query(models.Vector{1, 0}, 2)
	require.Len(t, matches, 2)

	assert.Equal(t, "x", matches[0].ID)
	assert.InDelta(t, 1.0, matches[0].Score, 1e-9)
	assert.Equal(t, "diag", matches[1].ID)
	assert.InDelta(t, 0.7071, matches[1].Score, 1e-3)
}

func TestIndex_QueryDeterministicTieBreak(t *testing.T) {
	idx := testIndex(t)
	ctx := context.Background()

	// Two identical vectors tie on score; order falls back to id.
	require.NoError(t, idx.Add(ctx, "bbb", models.Vector{1, 0}))
	require.NoError(t, idx.Add(ctx, "aaa", models.Vector{1, 0}))

	matches := idx.Query(models.Vector{1, 0}, 2)
	require.Len(t, matches, 2)
	assert.Equal(t, "aaa", matches[0].ID)
	assert.Equal(t, "bbb", matches[1].ID)
}

func TestIndex_QuerySkipsZeroNormVectors(t *testing.T) {
	idx := testIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Add(ctx, "zero", models.Vector{0, 0}))
	require.NoError(t, idx.Add(ctx, "unit", models.Vector{0, 1}))

	matches := idx.Query(models.Vector{0, 1}, 10)
	require.Len(t, matches, 1)
	assert.Equal(t, "unit", matches[0].ID)
}

func TestIndex_ZeroNormQuery(t *testing.T) {
	idx := testIndex(t)
	require.NoError(t, idx.Add(context.Background(), "unit", models.Vector{1, 0}))

	assert.Empty(t, idx.Query(models.Vector{0, 0}, 5))
}

func TestIndex_AddReplacesExisting(t *testing.T) {
	idx := testIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Add(ctx, "a", models.Vector{1, 0}))
	require.NoError(t, idx.Add(ctx, "a", models.Vector{0, 1}))

	assert.Equal(t, 1, idx.Count())

	matches := idx.Query(models.Vector{0, 1}, 1)
	require.Len(t, matches, 1)
	assert.InDelta(t, 1.0, matches[0].Score, 1e-9)
}

func TestIndex_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	ctx := context.Background()

	idx, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, idx.Add(ctx, "a", models.Vector{1, 0}))
	require.NoError(t, idx.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	assert.Equal(t, 1, reopened.Count())
	matches := reopened.Query(models.Vector{1, 0}, 1)
	require.Len(t, matches, 1)
	assert.Equal(t, "a", matches[0].ID)
}

func TestIndex_Rebuild(t *testing.T) {
	idx := testIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Add(ctx, "stale", models.Vector{1, 0}))

	records := []*models.EmbeddingRecord{
		{ID: "n1", Vector: models.Vector{1, 0}},
		{ID: "n2", Vector: models.Vector{0, 1}},
	}
	require.NoError(t, idx.Rebuild(ctx, records))

	assert.Equal(t, 2, idx.Count())
	matches := idx.Query(models.Vector{1, 0}, 10)
	require.Len(t, matches, 2)
	assert.Equal(t, "n1", matches[0].ID)
	for _, m := range matches {
		assert.NotEqual(t, "stale", m.ID)
	}
}

func TestIndex_MetricsTrackUsage(t *testing.T) {
	idx := testIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Add(ctx, "a", models.Vector{1, 0}))
	idx.Query(models.Vector{1, 0}, 1)
	idx.Query(models.Vector{1, 0}, 1)

	snap := idx.Metrics().Snapshot()
	assert.Equal(t, int64(2), snap.TotalQueries)
	assert.Equal(t, int64(1), snap.TotalAdds)
	assert.Equal(t, int64(1), snap.IndexedCount)
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, Cosine(models.Vector{1, 1}, models.Vector{2, 2}), 1e-9)
	assert.InDelta(t, 0.0, Cosine(models.Vector{1, 0}, models.Vector{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, Cosine(models.Vector{1, 0}, models.Vector{-1, 0}), 1e-9)
	assert.Equal(t, 0.0, Cosine(models.Vector{0, 0}, models.Vector{1, 0}))
}
