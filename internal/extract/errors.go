// Package extract converts files into plain text for the embedding pipeline.
package extract

import "errors"

var (
	// ErrUnsupportedFormat is returned for file extensions with no handler.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrEmptyContent is returned when extraction succeeds but yields no text.
	ErrEmptyContent = errors.New("no content extracted")
	// ErrInvalidEncoding is returned when a text file is not valid UTF-8.
	ErrInvalidEncoding = errors.New("file is not valid UTF-8")
)
