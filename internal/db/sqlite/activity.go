package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/thebtf/lifelog/pkg/models"
)

// ActivityStore provides activity-related database operations.
type ActivityStore struct {
	store *Store
}

// NewActivityStore creates a new activity store.
func NewActivityStore(store *Store) *ActivityStore {
	return &ActivityStore{store: store}
}

// Insert persists a record and fills in its assigned id.
// This is the primary write path: errors here surface to the caller.
func (s *ActivityStore) Insert(ctx context.Context, rec *models.ActivityRecord) error {
	const query = `
		INSERT INTO activities
		(kind, app_name, window_title, url, file_path, created_at, created_at_epoch)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	result, err := s.store.ExecContext(ctx, query,
		string(rec.Kind), rec.AppName, rec.WindowTitle, rec.URL, rec.FilePath,
		rec.CreatedAt, rec.CreatedAtEpoch,
	)
	if err != nil {
		return err
	}
	rec.ID, err = result.LastInsertId()
	return err
}

// GetByID retrieves a record by id; nil when not found.
func (s *ActivityStore) GetByID(ctx context.Context, id int64) (*models.ActivityRecord, error) {
	const query = `
		SELECT id, kind, app_name, window_title, url, file_path, created_at, created_at_epoch
		FROM activities
		WHERE id = ?
	`
	rec, err := scanActivity(s.store.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return rec, err
}

// GetBetween retrieves records with created_at_epoch in [startEpoch, endEpoch),
// ordered by creation time ascending.
func (s *ActivityStore) GetBetween(ctx context.Context, startEpoch, endEpoch int64) ([]*models.ActivityRecord, error) {
	const query = `
		SELECT id, kind, app_name, window_title, url, file_path, created_at, created_at_epoch
		FROM activities
		WHERE created_at_epoch >= ? AND created_at_epoch < ?
		ORDER BY created_at_epoch ASC
	`
	rows, err := s.store.QueryContext(ctx, query, startEpoch, endEpoch)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanActivityRows(rows)
}

// GetToday retrieves all records created today (local calendar date).
func (s *ActivityStore) GetToday(ctx context.Context, now time.Time) ([]*models.ActivityRecord, error) {
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	end := start.AddDate(0, 0, 1)
	return s.GetBetween(ctx, start.UnixMilli(), end.UnixMilli())
}

// GetTodayByKind retrieves today's records of one kind, newest first.
func (s *ActivityStore) GetTodayByKind(ctx context.Context, now time.Time, kind models.ActivityKind) ([]*models.ActivityRecord, error) {
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	end := start.AddDate(0, 0, 1)

	const query = `
		SELECT id, kind, app_name, window_title, url, file_path, created_at, created_at_epoch
		FROM activities
		WHERE created_at_epoch >= ? AND created_at_epoch < ? AND kind = ?
		ORDER BY created_at_epoch DESC
	`
	rows, err := s.store.QueryContext(ctx, query, start.UnixMilli(), end.UnixMilli(), string(kind))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanActivityRows(rows)
}

// Count returns the total number of stored records.
func (s *ActivityStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.store.QueryRowContext(ctx, `SELECT COUNT(*) FROM activities`).Scan(&count)
	return count, err
}

// DeleteBefore removes records created strictly before the given epoch,
// cascading to their embeddings. Used by the retention batch job.
func (s *ActivityStore) DeleteBefore(ctx context.Context, epoch int64) (int64, error) {
	result, err := s.store.ExecContext(ctx, `DELETE FROM activities WHERE created_at_epoch < ?`, epoch)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// scanActivity scans a single record from a row scanner.
func scanActivity(scanner interface{ Scan(...interface{}) error }) (*models.ActivityRecord, error) {
	var rec models.ActivityRecord
	var kind string
	if err := scanner.Scan(
		&rec.ID, &kind, &rec.AppName, &rec.WindowTitle, &rec.URL, &rec.FilePath,
		&rec.CreatedAt, &rec.CreatedAtEpoch,
	); err != nil {
		return nil, err
	}
	rec.Kind = models.ActivityKind(kind)
	return &rec, nil
}

// scanActivityRows scans multiple records from rows.
func scanActivityRows(rows *sql.Rows) ([]*models.ActivityRecord, error) {
	var records []*models.ActivityRecord
	for rows.Next() {
		rec, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
