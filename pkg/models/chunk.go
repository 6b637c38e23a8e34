package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// SourceType tags the content category an embedding record came from.
type SourceType string

const (
	SourceDocument SourceType = "document"
	SourceMedia    SourceType = "media"
	SourceText     SourceType = "text"
	SourceTabular  SourceType = "tabular"
)

// Vector is a fixed-length embedding, stored as a JSON array in SQLite.
type Vector []float32

// Value implements driver.Valuer.
func (v Vector) Value() (driver.Value, error) {
	if v == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]float32(v))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (v *Vector) Scan(src interface{}) error {
	switch s := src.(type) {
	case nil:
		*v = nil
		return nil
	case string:
		return json.Unmarshal([]byte(s), (*[]float32)(v))
	case []byte:
		return json.Unmarshal(s, (*[]float32)(v))
	default:
		return fmt.Errorf("cannot scan %T into Vector", src)
	}
}

// EmbeddingRecord is one searchable text chunk derived from an activity's
// file content, together with its embedding. The durable store is the system
// of record; the similarity index holds a rebuildable copy.
type EmbeddingRecord struct {
	ID             string     `db:"id" json:"id"`
	Text           string     `db:"text" json:"text"`
	SourceType     SourceType `db:"source_type" json:"source_type"`
	CreatedAt      string     `db:"created_at" json:"created_at"`
	Vector         Vector     `db:"vector" json:"vector"`
	ActivityID     int64      `db:"activity_id" json:"activity_id"`
	TokenCount     int        `db:"token_count" json:"token_count"`
	CreatedAtEpoch int64      `db:"created_at_epoch" json:"created_at_epoch"`
}

// NewEmbeddingRecord creates an unsaved record with a fresh chunk id.
func NewEmbeddingRecord(activityID int64, text string, vec Vector, source SourceType, tokenCount int) *EmbeddingRecord {
	now := time.Now()
	return &EmbeddingRecord{
		ID:             uuid.New().String(),
		ActivityID:     activityID,
		Text:           text,
		Vector:         vec,
		SourceType:     source,
		TokenCount:     tokenCount,
		CreatedAt:      now.Format(time.RFC3339),
		CreatedAtEpoch: now.UnixMilli(),
	}
}
