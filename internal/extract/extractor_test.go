package extract

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thebtf/lifelog/pkg/models"
)

// fakeTranscriber returns canned text for any audio path.
type fakeTranscriber struct {
	text string
	err  error
}

func (f fakeTranscriber) Transcribe(ctx context.Context, path string) (string, error) {
	return f.text, f.err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestExtract_PlainText(t *testing.T) {
	e := New(nil)
	path := writeFile(t, "notes.md", "# Notes\n\nsome content")

	res, err := e.Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "# Notes\n\nsome content", res.Text)
	assert.Equal(t, models.SourceText, res.SourceType)
}

func TestExtract_TabularSourceType(t *testing.T) {
	e := New(nil)
	path := writeFile(t, "data.csv", "a,b,c\n1,2,3\n")

	res, err := e.Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, models.SourceTabular, res.SourceType)
}

func TestExtract_UnsupportedFormat(t *testing.T) {
	e := New(nil)
	path := writeFile(t, "blob.xyz", "content")

	_, err := e.Extract(context.Background(), path)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestExtract_EmptyContent(t *testing.T) {
	e := New(nil)
	path := writeFile(t, "empty.txt", "   \n\t ")

	_, err := e.Extract(context.Background(), path)
	assert.ErrorIs(t, err, ErrEmptyContent)
}

func TestExtract_InvalidEncoding(t *testing.T) {
	e := New(nil)
	path := filepath.Join(t.TempDir(), "binary.txt")
	require.NoError(t, os.WriteFile(path, []byte{0xff, 0xfe, 0x81, 0x82}, 0o644))

	_, err := e.Extract(context.Background(), path)
	assert.ErrorIs(t, err, ErrInvalidEncoding)
}

func TestExtract_MissingFile(t *testing.T) {
	e := New(nil)

	_, err := e.Extract(context.Background(), filepath.Join(t.TempDir(), "gone.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestExtract_AudioUsesTranscriber(t *testing.T) {
	e := New(fakeTranscriber{text: "transcribed speech"})
	path := writeFile(t, "memo.wav", "not really audio")

	res, err := e.Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "transcribed speech", res.Text)
	assert.Equal(t, models.SourceMedia, res.SourceType)
}

func TestExtract_AudioWithoutTranscriber(t *testing.T) {
	e := New(nil)
	path := writeFile(t, "memo.wav", "not really audio")

	_, err := e.Extract(context.Background(), path)
	assert.Error(t, err)
}

func TestExtract_TranscriberFailure(t *testing.T) {
	e := New(fakeTranscriber{err: errors.New("whisper down")})
	path := writeFile(t, "memo.mp3", "x")

	_, err := e.Extract(context.Background(), path)
	assert.ErrorContains(t, err, "whisper down")
}

// writeDOCX builds a minimal valid docx archive.
func writeDOCX(t *testing.T, paragraphs []string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "doc.docx")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)

	body := `<?xml version="1.0"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`
	for _, p := range paragraphs {
		body += `<w:p><w:r><w:t>` + p + `</w:t></w:r></w:p>`
	}
	body += `</w:body></w:document>`

	_, err = w.Write([]byte(body))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return path
}

func TestExtract_DOCX(t *testing.T) {
	e := New(nil)
	path := writeDOCX(t, []string{"first paragraph", "second paragraph"})

	res, err := e.Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Contains(t, res.Text, "first paragraph")
	assert.Contains(t, res.Text, "second paragraph")
	assert.Equal(t, models.SourceDocument, res.SourceType)
}

func TestExtract_CorruptDOCXDoesNotPanic(t *testing.T) {
	e := New(nil)
	path := writeFile(t, "broken.docx", "this is not a zip archive")

	_, err := e.Extract(context.Background(), path)
	assert.Error(t, err)
}

func TestSupports(t *testing.T) {
	e := New(nil)

	assert.True(t, e.Supports("/tmp/a.pdf"))
	assert.True(t, e.Supports("/tmp/a.DOCX"))
	assert.True(t, e.Supports("/tmp/a.md"))
	assert.True(t, e.Supports("/tmp/a.wav"))
	assert.True(t, e.Supports("/tmp/a.mp4"))
	assert.True(t, e.Supports("/tmp/a.csv"))
	assert.False(t, e.Supports("/tmp/a.xyz"))
	assert.False(t, e.Supports("/tmp/noext"))
}
