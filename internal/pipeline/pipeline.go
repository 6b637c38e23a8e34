// Package pipeline runs file content through extraction, chunking, and
// embedding, and persists the results.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/thebtf/lifelog/internal/chunker"
	"github.com/thebtf/lifelog/internal/extract"
	"github.com/thebtf/lifelog/internal/privacy"
	"github.com/thebtf/lifelog/pkg/models"
)

// Embedder produces one vector per input text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([]models.Vector, error)
}

// EmbeddingStore persists embedding records.
type EmbeddingStore interface {
	InsertBatch(ctx context.Context, recs []*models.EmbeddingRecord) error
}

// VectorIndex receives vectors for similarity search.
type VectorIndex interface {
	Add(ctx context.Context, id string, vec models.Vector) error
}

// Pipeline enriches file edit records with searchable content.
type Pipeline struct {
	extractor *extract.Extractor
	splitter  *chunker.Splitter
	embedder  Embedder
	store     EmbeddingStore
	index     VectorIndex
	log       zerolog.Logger
}

// New creates a pipeline.
func New(extractor *extract.Extractor, splitter *chunker.Splitter, embedder Embedder, store EmbeddingStore, index VectorIndex, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		extractor: extractor,
		splitter:  splitter,
		embedder:  embedder,
		store:     store,
		index:     index,
		log:       log.With().Str("component", "pipeline").Logger(),
	}
}

// Supports reports whether the file at path has an extraction handler.
func (p *Pipeline) Supports(path string) bool {
	return p.extractor.Supports(path)
}

// Process extracts the file behind rec, splits it, embeds each chunk, and
// stores the results in both the durable store and the search index. Files
// the extractor does not support are skipped without error.
func (p *Pipeline) Process(ctx context.Context, rec *models.ActivityRecord) error {
	if !rec.FilePath.Valid {
		return nil
	}
	path := rec.FilePath.String

	res, err := p.extractor.Extract(ctx, path)
	if err != nil {
		if errors.Is(err, extract.ErrUnsupportedFormat) || errors.Is(err, extract.ErrEmptyContent) {
			p.log.Debug().Str("file_path", path).Err(err).Msg("skipping file")
			return nil
		}
		return fmt.Errorf("extract %s: %w", path, err)
	}

	if privacy.IsEntirelyPrivate(res.Text) {
		p.log.Debug().Str("file_path", path).Msg("file is entirely private, skipping")
		return nil
	}
	text := privacy.Clean(res.Text)

	chunks := p.splitter.Split(text)
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := p.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed %s: %w", path, err)
	}

	recs := make([]*models.EmbeddingRecord, len(chunks))
	for i, c := range chunks {
		recs[i] = models.NewEmbeddingRecord(rec.ID, c.Text, vectors[i], res.SourceType, c.TokenCount)
	}
	if err := p.store.InsertBatch(ctx, recs); err != nil {
		return fmt.Errorf("store chunks for %s: %w", path, err)
	}

	for _, er := range recs {
		if err := p.index.Add(ctx, er.ID, er.Vector); err != nil {
			return fmt.Errorf("index chunk %s: %w", er.ID, err)
		}
	}

	p.log.Info().
		Str("file_path", path).
		Int("chunks", len(recs)).
		Str("source_type", string(res.SourceType)).
		Msg("file indexed")
	return nil
}
