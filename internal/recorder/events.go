package recorder

import (
	"errors"
	"strings"

	"github.com/thebtf/lifelog/pkg/models"
)

// ErrInvalidEvent indicates an event failed validation and was not recorded.
var ErrInvalidEvent = errors.New("invalid activity event")

// Event is one observed user activity. Implementations carry the fields
// specific to their kind.
type Event interface {
	Kind() models.ActivityKind
	Validate() error
	record() *models.ActivityRecord
}

// WindowFocusEvent reports the application window that gained focus.
type WindowFocusEvent struct {
	App   string `json:"app_name"`
	Title string `json:"window_title"`
	URL   string `json:"url"`
}

// Kind identifies the event as a window focus change.
func (e WindowFocusEvent) Kind() models.ActivityKind { return models.KindWindowFocus }

// Validate requires at least an application name.
func (e WindowFocusEvent) Validate() error {
	if strings.TrimSpace(e.App) == "" {
		return errors.Join(ErrInvalidEvent, errors.New("window focus event requires app_name"))
	}
	return nil
}

func (e WindowFocusEvent) record() *models.ActivityRecord {
	rec := models.NewActivityRecord(models.KindWindowFocus)
	rec.AppName = models.NullString(strings.TrimSpace(e.App))
	rec.WindowTitle = models.NullString(strings.TrimSpace(e.Title))
	rec.URL = models.NullString(strings.TrimSpace(e.URL))
	return rec
}

// FileEditEvent reports a file created or modified in the monitored
// directory.
type FileEditEvent struct {
	Path string `json:"file_path"`
}

// Kind identifies the event as a file edit.
func (e FileEditEvent) Kind() models.ActivityKind { return models.KindFileEdit }

// Validate requires a file path.
func (e FileEditEvent) Validate() error {
	if strings.TrimSpace(e.Path) == "" {
		return errors.Join(ErrInvalidEvent, errors.New("file edit event requires file_path"))
	}
	return nil
}

func (e FileEditEvent) record() *models.ActivityRecord {
	rec := models.NewActivityRecord(models.KindFileEdit)
	rec.FilePath = models.NullString(strings.TrimSpace(e.Path))
	return rec
}
