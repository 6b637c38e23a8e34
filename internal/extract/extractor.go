package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/thebtf/lifelog/pkg/models"
)

// Transcriber converts an audio file into text. Implementations are external
// speech-to-text collaborators.
type Transcriber interface {
	Transcribe(ctx context.Context, path string) (string, error)
}

// Result is the outcome of a successful extraction.
type Result struct {
	Text       string
	SourceType models.SourceType
}

// Extension sets, dispatch is case-insensitive.
var (
	audioExts = map[string]bool{".wav": true, ".mp3": true, ".ogg": true, ".flac": true}
	videoExts = map[string]bool{".mp4": true, ".avi": true, ".mkv": true, ".mov": true}
	plainExts = map[string]bool{
		".txt": true, ".md": true, ".py": true, ".js": true, ".ts": true,
		".go": true, ".html": true, ".css": true, ".json": true, ".xml": true,
		".yaml": true, ".yml": true, ".sh": true, ".log": true,
	}
	tabularExts = map[string]bool{".csv": true, ".tsv": true}
)

// Extractor dispatches file paths to format-specific text extraction.
type Extractor struct {
	transcriber Transcriber
}

// New creates an extractor. transcriber may be nil, in which case media
// files fail extraction instead of crashing the pipeline.
func New(transcriber Transcriber) *Extractor {
	return &Extractor{transcriber: transcriber}
}

// Supports reports whether the extension of path has a handler. The recorder
// uses this to decide whether an activity should enter the pipeline at all.
func (e *Extractor) Supports(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return audioExts[ext] || videoExts[ext] || plainExts[ext] || tabularExts[ext] ||
		ext == ".pdf" || ext == ".docx" || ext == ".doc"
}

// Extract converts the file at path into plain text. Every failure comes
// back as an error value; Extract never panics, since callers treat
// extraction as best-effort.
func (e *Extractor) Extract(ctx context.Context, path string) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("path", path).Interface("panic", r).Msg("Extraction panicked")
			err = fmt.Errorf("extract %s: panic: %v", path, r)
		}
	}()

	ext := strings.ToLower(filepath.Ext(path))

	var text string
	var source models.SourceType

	switch {
	case audioExts[ext]:
		text, err = e.transcribe(ctx, path)
		source = models.SourceMedia
	case videoExts[ext]:
		text, err = e.transcribeVideo(ctx, path)
		source = models.SourceMedia
	case ext == ".pdf":
		text, err = extractPDF(path)
		source = models.SourceDocument
	case ext == ".docx" || ext == ".doc":
		text, err = extractDOCX(path)
		source = models.SourceDocument
	case tabularExts[ext]:
		text, err = readPlainText(path)
		source = models.SourceTabular
	case plainExts[ext]:
		text, err = readPlainText(path)
		source = models.SourceText
	default:
		return Result{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}

	if err != nil {
		return Result{}, fmt.Errorf("extract %s: %w", path, err)
	}
	if strings.TrimSpace(text) == "" {
		return Result{}, fmt.Errorf("extract %s: %w", path, ErrEmptyContent)
	}

	return Result{Text: text, SourceType: source}, nil
}

func (e *Extractor) transcribe(ctx context.Context, path string) (string, error) {
	if e.transcriber == nil {
		return "", fmt.Errorf("no transcriber configured")
	}
	return e.transcriber.Transcribe(ctx, path)
}

// transcribeVideo isolates the audio track to a temporary file, transcribes
// it and removes the temporary file whether or not transcription succeeded.
func (e *Extractor) transcribeVideo(ctx context.Context, path string) (string, error) {
	if e.transcriber == nil {
		return "", fmt.Errorf("no transcriber configured")
	}

	audioPath, err := isolateAudio(ctx, path)
	if err != nil {
		return "", fmt.Errorf("isolate audio: %w", err)
	}
	defer func() {
		if rmErr := os.Remove(audioPath); rmErr != nil {
			log.Warn().Err(rmErr).Str("path", audioPath).Msg("Failed to remove temporary audio file")
		}
	}()

	return e.transcriber.Transcribe(ctx, audioPath)
}

// readPlainText reads the file verbatim, requiring valid UTF-8.
func readPlainText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", ErrInvalidEncoding
	}
	return string(data), nil
}
