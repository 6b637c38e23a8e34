package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thebtf/lifelog/internal/chunker"
	"github.com/thebtf/lifelog/internal/extract"
	"github.com/thebtf/lifelog/pkg/models"
)

type fakeEmbedder struct {
	err   error
	calls int
}

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([]models.Vector, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	vectors := make([]models.Vector, len(texts))
	for i := range texts {
		vectors[i] = models.Vector{float32(len(texts[i])), 1}
	}
	return vectors, nil
}

type fakeEmbeddingStore struct {
	batches [][]*models.EmbeddingRecord
	err     error
}

func (f *fakeEmbeddingStore) InsertBatch(ctx context.Context, recs []*models.EmbeddingRecord) error {
	if f.err != nil {
		return f.err
	}
	f.batches = append(f.batches, recs)
	return nil
}

type fakeIndex struct {
	added map[string]models.Vector
	err   error
}

func newFakeIndex() *fakeIndex { return &fakeIndex{added: make(map[string]models.Vector)} }

func (f *fakeIndex) Add(ctx context.Context, id string, vec models.Vector) error {
	if f.err != nil {
		return f.err
	}
	f.added[id] = vec
	return nil
}

func fileEditRecord(t *testing.T, dir, name, content string) *models.ActivityRecord {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	rec := models.NewActivityRecord(models.KindFileEdit)
	rec.ID = 42
	rec.FilePath = models.NullString(path)
	return rec
}

func testPipeline(embedder *fakeEmbedder, store *fakeEmbeddingStore, index *fakeIndex) *Pipeline {
	return New(
		extract.New(nil),
		chunker.New(chunker.WithChunkSize(64), chunker.WithOverlap(8)),
		embedder, store, index,
		zerolog.Nop(),
	)
}

func TestProcess_IndexesFileContent(t *testing.T) {
	embedder := &fakeEmbedder{}
	store := &fakeEmbeddingStore{}
	index := newFakeIndex()
	p := testPipeline(embedder, store, index)

	text := strings.Repeat("sentence about the project. ", 10)
	rec := fileEditRecord(t, t.TempDir(), "notes.txt", text)

	require.NoError(t, p.Process(context.Background(), rec))

	require.Len(t, store.batches, 1)
	chunks := store.batches[0]
	assert.Greater(t, len(chunks), 1, "long text should produce several chunks")

	for _, c := range chunks {
		assert.Equal(t, int64(42), c.ActivityID)
		assert.Equal(t, models.SourceText, c.SourceType)
		assert.NotEmpty(t, c.Vector)
		assert.Contains(t, index.added, c.ID, "every stored chunk must be indexed")
	}
	assert.Equal(t, 1, embedder.calls, "all chunks embed in a single request")
}

func TestProcess_SkipsUnsupportedFiles(t *testing.T) {
	embedder := &fakeEmbedder{}
	store := &fakeEmbeddingStore{}
	index := newFakeIndex()
	p := testPipeline(embedder, store, index)

	rec := fileEditRecord(t, t.TempDir(), "image.xyz", "binary-ish")

	require.NoError(t, p.Process(context.Background(), rec))
	assert.Empty(t, store.batches)
	assert.Zero(t, embedder.calls)
}

func TestProcess_SkipsEmptyFiles(t *testing.T) {
	p := testPipeline(&fakeEmbedder{}, &fakeEmbeddingStore{}, newFakeIndex())
	rec := fileEditRecord(t, t.TempDir(), "empty.txt", "   ")

	assert.NoError(t, p.Process(context.Background(), rec))
}

func TestProcess_NoFilePath(t *testing.T) {
	embedder := &fakeEmbedder{}
	p := testPipeline(embedder, &fakeEmbeddingStore{}, newFakeIndex())

	rec := models.NewActivityRecord(models.KindWindowFocus)
	require.NoError(t, p.Process(context.Background(), rec))
	assert.Zero(t, embedder.calls)
}

func TestProcess_EmbedFailure(t *testing.T) {
	embedder := &fakeEmbedder{err: errors.New("service down")}
	store := &fakeEmbeddingStore{}
	p := testPipeline(embedder, store, newFakeIndex())

	rec := fileEditRecord(t, t.TempDir(), "notes.txt", "some meaningful content")

	err := p.Process(context.Background(), rec)
	assert.ErrorContains(t, err, "service down")
	assert.Empty(t, store.batches, "nothing persists when embedding fails")
}

func TestProcess_RedactsSecretsBeforeEmbedding(t *testing.T) {
	store := &fakeEmbeddingStore{}
	p := testPipeline(&fakeEmbedder{}, store, newFakeIndex())

	rec := fileEditRecord(t, t.TempDir(), "env.txt", "deploy config with api_key=supersecret inside")

	require.NoError(t, p.Process(context.Background(), rec))
	require.Len(t, store.batches, 1)
	for _, c := range store.batches[0] {
		assert.NotContains(t, c.Text, "supersecret")
	}
}

func TestProcess_SkipsEntirelyPrivateFiles(t *testing.T) {
	store := &fakeEmbeddingStore{}
	embedder := &fakeEmbedder{}
	p := testPipeline(embedder, store, newFakeIndex())

	rec := fileEditRecord(t, t.TempDir(), "diary.txt", "<private>do not index this</private>")

	require.NoError(t, p.Process(context.Background(), rec))
	assert.Empty(t, store.batches)
	assert.Zero(t, embedder.calls)
}

func TestProcess_StoreFailure(t *testing.T) {
	store := &fakeEmbeddingStore{err: errors.New("db locked")}
	index := newFakeIndex()
	p := testPipeline(&fakeEmbedder{}, store, index)

	rec := fileEditRecord(t, t.TempDir(), "notes.txt", "some meaningful content")

	err := p.Process(context.Background(), rec)
	assert.ErrorContains(t, err, "db locked")
	assert.Empty(t, index.added, "index must not run ahead of the durable store")
}
