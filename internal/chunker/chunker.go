// Package chunker splits extracted text into overlapping segments sized for
// embedding.
package chunker

import (
	"strings"

	"github.com/tiktoken-go/tokenizer"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 512

// DefaultOverlap is the default number of characters repeated from the end
// of one chunk at the start of the next.
const DefaultOverlap = 50

// separators in preference order: paragraph, line, sentence, word. A chunk
// boundary falls on the largest boundary available before the hard cut.
var separators = []string{"\n\n", "\n", ". ", " "}

// Chunk is one text segment with its position in the split sequence.
type Chunk struct {
	Text       string
	Index      int
	TokenCount int
}

// Splitter produces deterministic overlapping chunks.
type Splitter struct {
	codec   tokenizer.Codec
	size    int
	overlap int
}

// Option configures the splitter.
type Option func(*Splitter)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(s *Splitter) {
		if size > 0 {
			s.size = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(s *Splitter) {
		if overlap >= 0 {
			s.overlap = overlap
		}
	}
}

// New creates a splitter with the given options.
func New(opts ...Option) *Splitter {
	s := &Splitter{
		size:    DefaultChunkSize,
		overlap: DefaultOverlap,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Overlap must stay strictly below chunk size.
	if s.overlap >= s.size {
		s.overlap = s.size / 4
	}

	// cl100k data ships with the library; token counts degrade to zero in
	// the unlikely case the codec is unavailable.
	if codec, err := tokenizer.Get(tokenizer.Cl100kBase); err == nil {
		s.codec = codec
	}

	return s
}

// Split cuts text into ordered chunks. Text no longer than the chunk size
// yields exactly one chunk equal to the input.
func (s *Splitter) Split(text string) []Chunk {
	if text == "" {
		return nil
	}

	runes := []rune(text)
	if len(runes) <= s.size {
		return []Chunk{s.chunk(text, 0)}
	}

	var chunks []Chunk
	start := 0
	for start < len(runes) {
		end := start + s.size
		if end >= len(runes) {
			chunks = append(chunks, s.chunk(string(runes[start:]), len(chunks)))
			break
		}

		cut := s.boundary(runes, start, end)
		chunks = append(chunks, s.chunk(string(runes[start:cut]), len(chunks)))

		next := cut - s.overlap
		if next <= start {
			next = cut // degenerate overlap, keep moving forward
		}
		start = next
	}

	return chunks
}

// boundary picks the cut position for the chunk starting at start, preferring
// the rightmost occurrence of the largest separator in the window's second
// half, falling back to a hard cut at end.
func (s *Splitter) boundary(runes []rune, start, end int) int {
	window := string(runes[start:end])
	half := (end - start) / 2

	for _, sep := range separators {
		idx := strings.LastIndex(window, sep)
		if idx < 0 {
			continue
		}
		// Position after the separator, in runes from the window start.
		pos := len([]rune(window[:idx+len(sep)]))
		if pos <= half || pos <= s.overlap {
			continue // too small a chunk to be worth the cleaner boundary
		}
		return start + pos
	}

	return end
}

func (s *Splitter) chunk(text string, index int) Chunk {
	c := Chunk{Text: text, Index: index}
	if s.codec != nil {
		if ids, _, err := s.codec.Encode(text); err == nil {
			c.TokenCount = len(ids)
		}
	}
	return c
}
