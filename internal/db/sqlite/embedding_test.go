package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thebtf/lifelog/pkg/models"
)

func testEmbeddingStores(t *testing.T) (*ActivityStore, *EmbeddingStore) {
	t.Helper()
	s := testStore(t)
	return NewActivityStore(s), NewEmbeddingStore(s)
}

func TestEmbeddingStore_InsertAndGetByID(t *testing.T) {
	activities, embeddings := testEmbeddingStores(t)
	ctx := context.Background()

	act := insertActivity(t, activities, models.KindFileEdit, "/tmp/doc.txt", time.Now())

	rec := models.NewEmbeddingRecord(act.ID, "chunk text", models.Vector{0.1, 0.2, 0.3}, models.SourceDocument, 3)
	require.NoError(t, embeddings.Insert(ctx, rec))

	got, err := embeddings.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, act.ID, got.ActivityID)
	assert.Equal(t, "chunk text", got.Text)
	assert.Equal(t, models.SourceDocument, got.SourceType)
	assert.Equal(t, 3, got.TokenCount)
	assert.Equal(t, models.Vector{0.1, 0.2, 0.3}, got.Vector)
}

func TestEmbeddingStore_GetByID_NotFound(t *testing.T) {
	_, embeddings := testEmbeddingStores(t)

	got, err := embeddings.GetByID(context.Background(), "no-such-id")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestEmbeddingStore_InsertBatchAndGetByActivity(t *testing.T) {
	activities, embeddings := testEmbeddingStores(t)
	ctx := context.Background()

	act := insertActivity(t, activities, models.KindFileEdit, "/tmp/doc.txt", time.Now())

	recs := []*models.EmbeddingRecord{
		models.NewEmbeddingRecord(act.ID, "first", models.Vector{1, 0}, models.SourceText, 1),
		models.NewEmbeddingRecord(act.ID, "second", models.Vector{0, 1}, models.SourceText, 1),
		models.NewEmbeddingRecord(act.ID, "third", models.Vector{1, 1}, models.SourceText, 1),
	}
	require.NoError(t, embeddings.InsertBatch(ctx, recs))

	got, err := embeddings.GetByActivity(ctx, act.ID)
	require.NoError(t, err)
	require.Len(t, got, 3)

	count, err := embeddings.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestEmbeddingStore_GetAll(t *testing.T) {
	activities, embeddings := testEmbeddingStores(t)
	ctx := context.Background()

	act := insertActivity(t, activities, models.KindFileEdit, "/tmp/a.txt", time.Now())
	for _, text := range []string{"one", "two"} {
		rec := models.NewEmbeddingRecord(act.ID, text, models.Vector{0.5}, models.SourceText, 1)
		require.NoError(t, embeddings.Insert(ctx, rec))
	}

	got, err := embeddings.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
