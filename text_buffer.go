package spooled

import (
	"bytes"
	"errors"
	"io"
	"iter"
	"unicode/utf8"
)

// TextBuffer is a spooled buffer of UTF-8 text.
// Its cursor is measured in codepoints while the store holds the encoded bytes,
// so the byte offset of the store always sits between two whole codepoints.
//
// Bytes that are not valid UTF-8 are kept as is and count as one codepoint each,
// following the unicode/utf8 decoding rules.
type TextBuffer struct {
	*spool
	pos int64 // cursor in codepoints
}

// NewText creates an empty in-memory TextBuffer. A nil config uses DefaultConfig.
func NewText(config *Config) *TextBuffer {
	return &TextBuffer{spool: newSpool(config)}
}

// WriteString writes s at the cursor and advances it by the codepoints of s.
// The threshold is checked against the encoded length of s.
// It returns the number of bytes written.
func (t *TextBuffer) WriteString(s string) (int, error) {
	n, err := t.write([]byte(s))
	t.pos += int64(utf8.RuneCountInString(s[:n]))
	return n, err
}

// WriteLines writes every line in order, without adding separators.
func (t *TextBuffer) WriteLines(lines []string) error {
	for _, line := range lines {
		if _, err := t.WriteString(line); err != nil {
			return err
		}
	}
	return nil
}

// ReadN reads up to n codepoints. When n < 0 everything up to the end is returned,
// with a nil error even when nothing is left.
// When n > 0 and the cursor is at the end, ReadN returns io.EOF.
func (t *TextBuffer) ReadN(n int) (string, error) {
	if err := t.check(); err != nil {
		return "", err
	}
	if n < 0 {
		b, err := t.readAll()
		t.pos += int64(utf8.RuneCount(b))
		return string(b), err
	}
	b, count, err := t.scan(int64(n), false, true)
	t.pos += count
	if err == nil && count == 0 && n > 0 {
		err = io.EOF
	}
	return string(b), err
}

// ReadLine reads through the next '\n', which is included in the line.
// The last line may lack the newline. io.EOF is returned when nothing is left.
func (t *TextBuffer) ReadLine() (string, error) {
	return t.ReadLineLimit(-1)
}

// ReadLineLimit is like ReadLine but returns after at most limit codepoints when limit >= 0.
func (t *TextBuffer) ReadLineLimit(limit int) (string, error) {
	if err := t.check(); err != nil {
		return "", err
	}
	b, count, err := t.scan(int64(limit), true, true)
	t.pos += count
	if err == nil && count == 0 && limit != 0 {
		err = io.EOF
	}
	return string(b), err
}

// ReadLines reads the remaining lines. When hint > 0 it stops once hint codepoints were read.
func (t *TextBuffer) ReadLines(hint int) ([]string, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	var lines []string
	var total int64
	for {
		b, count, err := t.scan(-1, true, true)
		t.pos += count
		if err != nil {
			return lines, err
		}
		if count == 0 {
			return lines, nil
		}
		lines = append(lines, string(b))
		total += count
		if hint > 0 && total >= int64(hint) {
			return lines, nil
		}
	}
}

// Tell returns the cursor position in codepoints.
func (t *TextBuffer) Tell() (int64, error) {
	if err := t.check(); err != nil {
		return 0, err
	}
	return t.pos, nil
}

// Seek moves the cursor to a codepoint position and returns it.
//
// UTF-8 can not be indexed by codepoint, so every seek decodes forward from a
// known position: io.SeekStart from the beginning, io.SeekCurrent from the cursor.
// A negative io.SeekCurrent offset restarts from the beginning.
// For io.SeekEnd the offset counts back from the end whatever its sign, so
// Seek(-3, io.SeekEnd) and Seek(3, io.SeekEnd) both land three codepoints before the end.
// Seeking past the end stops at the end.
func (t *TextBuffer) Seek(offset int64, whence int) (int64, error) {
	if err := t.check(); err != nil {
		return 0, err
	}
	switch whence {
	case io.SeekStart:
		return t.seekFromStart(offset)
	case io.SeekCurrent:
		if offset < 0 {
			return t.seekFromStart(t.pos + offset)
		}
		err := t.traverse(offset)
		return t.pos, err
	case io.SeekEnd:
		total, err := t.Len()
		if err != nil {
			return t.pos, err
		}
		if offset < 0 {
			offset = -offset
		}
		return t.seekFromStart(total - offset)
	default:
		return t.pos, &SeekModeError{Whence: whence}
	}
}

func (t *TextBuffer) seekFromStart(target int64) (int64, error) {
	if target < 0 {
		return t.pos, ErrNegativeSeek
	}
	if _, err := t.store.Seek(0, io.SeekStart); err != nil {
		return t.pos, err
	}
	t.pos = 0
	err := t.traverse(target)
	return t.pos, err
}

// traverse moves the cursor forward n codepoints from the current byte offset,
// which must sit on a decode boundary. Whole chunks are skipped while they fit
// before the destination, then the remainder is read precisely. The end of the
// store stops the traversal early.
func (t *TextBuffer) traverse(n int64) error {
	dest := t.pos + n
	for t.pos < dest {
		want := min(dest-t.pos, readChunkSize)
		_, count, err := t.scan(want, false, false)
		t.pos += count
		if err != nil {
			return err
		}
		if count == 0 {
			break
		}
	}
	return nil
}

// scan decodes forward from the current byte offset until limit codepoints were
// consumed (no limit when limit < 0), a newline was consumed when untilEOL is set,
// or the store is exhausted. It returns the consumed bytes when keep is set,
// and the number of codepoints consumed.
//
// Reads ask for at most as many bytes as there are codepoints left, and a
// codepoint cut by a read is carried over to the next one. Bytes read past the
// stopping point are given back by seeking, so the store is left on a decode boundary.
func (t *TextBuffer) scan(limit int64, untilEOL, keep bool) ([]byte, int64, error) {
	var (
		out     []byte
		count   int64
		pending int // bytes of a truncated codepoint kept at the front of the buffer
		size    = readChunkSize
	)
	if untilEOL {
		size = lineChunkSize
	}
	for ; limit < 0 || count < limit; size = nextChunk(size) {
		want := int64(size)
		if limit >= 0 {
			want = min(want, limit-count)
		}
		buf := t.buffer(pending + int(want))
		n, err := t.store.Read(buf[pending:])
		if err != nil && !errors.Is(err, io.EOF) {
			return out, count, err
		}
		atEnd := n == 0 || err != nil

		chunk := buf[:pending+n]
		full := len(chunk)
		if !atEnd {
			full = fullPrefix(chunk)
		}
		// at the end a truncated sequence decodes as one codepoint per byte

		cut := full
		stop := false
		if untilEOL {
			if i := bytes.IndexByte(chunk[:full], '\n'); i >= 0 {
				cut = i + 1
				stop = true
			}
		}
		runes := int64(utf8.RuneCount(chunk[:cut]))
		if limit >= 0 && count+runes >= limit {
			if count+runes > limit {
				cut = prefixRunes(chunk[:cut], limit-count)
				runes = limit - count
			}
			stop = true
		}
		count += runes
		if keep {
			out = append(out, chunk[:cut]...)
		}

		if stop {
			if back := len(chunk) - cut; back > 0 {
				if _, err := t.store.Seek(-int64(back), io.SeekCurrent); err != nil {
					return out, count, err
				}
			}
			return out, count, nil
		}
		if atEnd {
			break
		}
		pending = copy(buf, chunk[full:])
	}
	return out, count, nil
}

// prefixRunes returns the byte length of the first n codepoints of p.
func prefixRunes(p []byte, n int64) int {
	i := 0
	for ; n > 0 && i < len(p); n-- {
		_, size := utf8.DecodeRune(p[i:])
		i += size
	}
	return i
}

// fullPrefix returns the length of the longest prefix of p that decodes
// without a truncated codepoint at its end.
func fullPrefix(p []byte) int {
	for i := len(p) - 1; i >= 0 && i >= len(p)-utf8.UTFMax; i-- {
		if utf8.RuneStart(p[i]) {
			if utf8.FullRune(p[i:]) {
				return len(p)
			}
			return i
		}
	}
	return len(p)
}

// Len returns the number of codepoints in the buffer.
// The content is decoded in chunks from the start; the cursor is not moved.
func (t *TextBuffer) Len() (int64, error) {
	if err := t.check(); err != nil {
		return 0, err
	}
	offset, err := t.tellBytes()
	if err != nil {
		return 0, err
	}
	if _, err := t.store.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}
	_, total, err := t.scan(-1, false, false)
	if _, serr := t.store.Seek(offset, io.SeekStart); err == nil {
		err = serr
	}
	return total, err
}

// Value returns the whole content of the buffer without moving the cursor.
func (t *TextBuffer) Value() (string, error) {
	if err := t.check(); err != nil {
		return "", err
	}
	offset, err := t.tellBytes()
	if err != nil {
		return "", err
	}
	if _, err := t.store.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	val, err := t.readAll()
	if _, serr := t.store.Seek(offset, io.SeekStart); err == nil {
		err = serr
	}
	return string(val), err
}

// Truncate cuts the buffer to size codepoints. The cursor is kept if it was
// before size, otherwise it is moved to size (or to the end when the buffer is shorter).
func (t *TextBuffer) Truncate(size int64) error {
	if err := t.check(); err != nil {
		return err
	}
	if size < 0 {
		return ErrNegativeSize
	}
	pos := t.pos
	if _, err := t.seekFromStart(size); err != nil {
		return err
	}
	if err := t.truncateStore(); err != nil {
		return err
	}
	if pos < size {
		_, err := t.seekFromStart(pos)
		return err
	}
	return nil
}

// TruncateAtCursor cuts the buffer at the cursor.
func (t *TextBuffer) TruncateAtCursor() error {
	if err := t.check(); err != nil {
		return err
	}
	return t.truncateStore()
}

func (t *TextBuffer) truncateStore() error {
	offset, err := t.tellBytes()
	if err != nil {
		return err
	}
	return t.truncateBytes(offset)
}

// Lines iterates over the lines from the cursor to the end.
func (t *TextBuffer) Lines() iter.Seq2[string, error] {
	return lines(t.spool, t.ReadLine)
}

// Equal reports whether t and other hold the same lines.
// Both cursors are left where they were.
func (t *TextBuffer) Equal(other FileLike[string]) (bool, error) {
	return Equal[string](t, other)
}
