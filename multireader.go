package spooled

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// TextReader is implemented by sources that produce text, such as TextBuffer.
type TextReader interface {
	ReadN(n int) (string, error)
}

// MultiReader reads several sources one after the other as a single stream.
// All sources are byte sources (io.Reader) or all are text sources (TextReader).
// The sources are not closed by the MultiReader.
type MultiReader struct {
	sources []io.Seeker
	text    bool
	index   int
}

// NewMultiReader creates a MultiReader over sources.
// A source that is neither an io.Reader nor a TextReader yields a *SourceTypeError,
// mixing the two kinds yields ErrMixedSources. A source implementing both
// interfaces, like a TextBuffer embedded in a reader type, counts as text.
func NewMultiReader(sources ...io.Seeker) (*MultiReader, error) {
	m := &MultiReader{sources: sources}
	for i, src := range sources {
		var text bool
		switch src.(type) {
		case TextReader:
			text = true
		case io.Reader:
			text = false
		default:
			return nil, &SourceTypeError{Index: i, Type: fmt.Sprintf("%T", src)}
		}
		if i == 0 {
			m.text = text
		} else if text != m.text {
			return nil, ErrMixedSources
		}
	}
	return m, nil
}

// IsText reports whether the sources produce text.
func (m *MultiReader) IsText() bool {
	return m.text
}

// Read implements io.Reader over byte sources.
func (m *MultiReader) Read(p []byte) (int, error) {
	if m.text {
		return 0, ErrWrongMode
	}
	if len(p) == 0 {
		return 0, nil
	}
	for m.index < len(m.sources) {
		n, err := m.sources[m.index].(io.Reader).Read(p)
		if errors.Is(err, io.EOF) || (n == 0 && err == nil) {
			m.index++
			err = nil
		}
		if n > 0 || err != nil {
			return n, err
		}
	}
	return 0, io.EOF
}

// ReadBytes reads up to n bytes across the byte sources, or everything left when n < 0.
// It returns io.EOF when n > 0 and all sources are drained.
func (m *MultiReader) ReadBytes(n int) ([]byte, error) {
	if m.text {
		return nil, ErrWrongMode
	}
	if n < 0 {
		var buf bytes.Buffer
		_, err := buf.ReadFrom(m)
		return buf.Bytes(), err
	}
	p, err := io.ReadAll(io.LimitReader(m, int64(n)))
	if err == nil && len(p) == 0 && n > 0 {
		err = io.EOF
	}
	return p, err
}

// ReadText reads up to n codepoints across the text sources, or everything left when n < 0.
// It returns io.EOF when n > 0 and all sources are drained.
func (m *MultiReader) ReadText(n int) (string, error) {
	if !m.text {
		return "", ErrWrongMode
	}
	var sb strings.Builder
	got := 0
	for m.index < len(m.sources) && (n < 0 || got < n) {
		want := -1
		if n >= 0 {
			want = n - got
		}
		s, err := m.sources[m.index].(TextReader).ReadN(want)
		if err != nil && !errors.Is(err, io.EOF) {
			return sb.String(), err
		}
		sb.WriteString(s)
		got += utf8.RuneCountInString(s)
		if s == "" || n < 0 {
			m.index++
		}
	}
	if sb.Len() == 0 && n > 0 {
		return "", io.EOF
	}
	return sb.String(), nil
}

// Seek only supports rewinding with Seek(0, io.SeekStart), which seeks every
// source back to its start. Anything else returns ErrSeekUnsupported.
func (m *MultiReader) Seek(offset int64, whence int) (int64, error) {
	if offset != 0 || whence != io.SeekStart {
		return 0, ErrSeekUnsupported
	}
	for _, src := range m.sources {
		if _, err := src.Seek(0, io.SeekStart); err != nil {
			return 0, err
		}
	}
	m.index = 0
	return 0, nil
}
