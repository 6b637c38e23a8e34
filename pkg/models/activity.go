// Package models contains domain models for lifelog.
package models

import (
	"database/sql"
	"time"

	"github.com/goccy/go-json"
)

// ActivityKind distinguishes the origin of an activity record.
type ActivityKind string

const (
	// KindWindowFocus marks a record produced by the window-focus poller.
	KindWindowFocus ActivityKind = "window_focus"
	// KindFileEdit marks a record produced by the filesystem watcher.
	KindFileEdit ActivityKind = "file_edit"
)

// Valid reports whether k is a known activity kind.
func (k ActivityKind) Valid() bool {
	return k == KindWindowFocus || k == KindFileEdit
}

// ActivityRecord is a single observed user activity. Records are created
// exactly once by the recorder and never mutated afterwards.
type ActivityRecord struct {
	CreatedAt      string         `db:"created_at" json:"created_at"`
	Kind           ActivityKind   `db:"kind" json:"kind"`
	AppName        sql.NullString `db:"app_name" json:"app_name,omitempty"`
	WindowTitle    sql.NullString `db:"window_title" json:"window_title,omitempty"`
	URL            sql.NullString `db:"url" json:"url,omitempty"`
	FilePath       sql.NullString `db:"file_path" json:"file_path,omitempty"`
	ID             int64          `db:"id" json:"id"`
	CreatedAtEpoch int64          `db:"created_at_epoch" json:"created_at_epoch"`
}

// NewActivityRecord creates an unsaved record with timestamps assigned now.
func NewActivityRecord(kind ActivityKind) *ActivityRecord {
	now := time.Now()
	return &ActivityRecord{
		Kind:           kind,
		CreatedAt:      now.Format(time.RFC3339),
		CreatedAtEpoch: now.UnixMilli(),
	}
}

// AppIdentity returns the effective application identity for focus scoring:
// app_name when present, otherwise the record kind.
func (a *ActivityRecord) AppIdentity() string {
	if a.AppName.Valid && a.AppName.String != "" {
		return a.AppName.String
	}
	return string(a.Kind)
}

// activityRecordJSON is a JSON-friendly view of ActivityRecord.
// It converts sql.NullString to plain strings for clean JSON output.
type activityRecordJSON struct {
	CreatedAt      string       `json:"created_at"`
	Kind           ActivityKind `json:"kind"`
	AppName        string       `json:"app_name,omitempty"`
	WindowTitle    string       `json:"window_title,omitempty"`
	URL            string       `json:"url,omitempty"`
	FilePath       string       `json:"file_path,omitempty"`
	ID             int64        `json:"id"`
	CreatedAtEpoch int64        `json:"created_at_epoch"`
}

// MarshalJSON implements json.Marshaler for ActivityRecord.
func (a *ActivityRecord) MarshalJSON() ([]byte, error) {
	j := activityRecordJSON{
		ID:             a.ID,
		Kind:           a.Kind,
		CreatedAt:      a.CreatedAt,
		CreatedAtEpoch: a.CreatedAtEpoch,
	}
	if a.AppName.Valid {
		j.AppName = a.AppName.String
	}
	if a.WindowTitle.Valid {
		j.WindowTitle = a.WindowTitle.String
	}
	if a.URL.Valid {
		j.URL = a.URL.String
	}
	if a.FilePath.Valid {
		j.FilePath = a.FilePath.String
	}
	return json.Marshal(j)
}

// NullString creates a sql.NullString that is valid only for non-empty input.
func NullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
