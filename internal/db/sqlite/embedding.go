package sqlite

import (
	"context"
	"database/sql"

	"github.com/thebtf/lifelog/pkg/models"
)

// EmbeddingStore provides embedding-record database operations.
// The embeddings table is the system of record; the similarity index is a
// derived cache rebuilt from it.
type EmbeddingStore struct {
	store *Store
}

// NewEmbeddingStore creates a new embedding store.
func NewEmbeddingStore(store *Store) *EmbeddingStore {
	return &EmbeddingStore{store: store}
}

// Insert persists a single embedding record.
func (s *EmbeddingStore) Insert(ctx context.Context, rec *models.EmbeddingRecord) error {
	const query = `
		INSERT INTO embeddings
		(id, activity_id, text, vector, source_type, token_count, created_at, created_at_epoch)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.store.ExecContext(ctx, query,
		rec.ID, rec.ActivityID, rec.Text, rec.Vector, string(rec.SourceType),
		rec.TokenCount, rec.CreatedAt, rec.CreatedAtEpoch,
	)
	return err
}

// InsertBatch persists a set of records, each in its own short transaction.
// Per-record atomicity is sufficient here; a partial batch leaves the store
// consistent and the index rebuildable.
func (s *EmbeddingStore) InsertBatch(ctx context.Context, recs []*models.EmbeddingRecord) error {
	for _, rec := range recs {
		if err := s.Insert(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

// GetByID retrieves a record by chunk id; nil when not found.
func (s *EmbeddingStore) GetByID(ctx context.Context, id string) (*models.EmbeddingRecord, error) {
	const query = `
		SELECT id, activity_id, text, vector, source_type, token_count, created_at, created_at_epoch
		FROM embeddings
		WHERE id = ?
	`
	rec, err := scanEmbedding(s.store.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return rec, err
}

// GetByActivity retrieves all chunks owned by one activity, oldest first.
func (s *EmbeddingStore) GetByActivity(ctx context.Context, activityID int64) ([]*models.EmbeddingRecord, error) {
	const query = `
		SELECT id, activity_id, text, vector, source_type, token_count, created_at, created_at_epoch
		FROM embeddings
		WHERE activity_id = ?
		ORDER BY created_at_epoch ASC
	`
	rows, err := s.store.QueryContext(ctx, query, activityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEmbeddingRows(rows)
}

// GetAll retrieves every stored record, oldest first. Used for index rebuild
// and relevance-graph construction; personal-scale corpus by design.
func (s *EmbeddingStore) GetAll(ctx context.Context) ([]*models.EmbeddingRecord, error) {
	const query = `
		SELECT id, activity_id, text, vector, source_type, token_count, created_at, created_at_epoch
		FROM embeddings
		ORDER BY created_at_epoch ASC
	`
	rows, err := s.store.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEmbeddingRows(rows)
}

// Count returns the total number of stored records.
func (s *EmbeddingStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.store.QueryRowContext(ctx, `SELECT COUNT(*) FROM embeddings`).Scan(&count)
	return count, err
}

// scanEmbedding scans a single record from a row scanner.
func scanEmbedding(scanner interface{ Scan(...interface{}) error }) (*models.EmbeddingRecord, error) {
	var rec models.EmbeddingRecord
	var source string
	if err := scanner.Scan(
		&rec.ID, &rec.ActivityID, &rec.Text, &rec.Vector, &source,
		&rec.TokenCount, &rec.CreatedAt, &rec.CreatedAtEpoch,
	); err != nil {
		return nil, err
	}
	rec.SourceType = models.SourceType(source)
	return &rec, nil
}

// scanEmbeddingRows scans multiple records from rows.
func scanEmbeddingRows(rows *sql.Rows) ([]*models.EmbeddingRecord, error) {
	var records []*models.EmbeddingRecord
	for rows.Next() {
		rec, err := scanEmbedding(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
