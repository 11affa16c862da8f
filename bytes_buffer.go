package spooled

import (
	"errors"
	"io"
	"iter"
)

// BytesBuffer is a spooled buffer of bytes. All positions are byte offsets.
// The zero value is not usable, create one with NewBytes.
type BytesBuffer struct {
	*spool
}

// NewBytes creates an empty in-memory BytesBuffer. A nil config uses DefaultConfig.
func NewBytes(config *Config) *BytesBuffer {
	return &BytesBuffer{spool: newSpool(config)}
}

// Write writes p at the cursor, overwriting existing data.
// The buffer rolls over to a temp file first if p would reach the size threshold.
func (b *BytesBuffer) Write(p []byte) (int, error) {
	return b.write(p)
}

// WriteString writes the bytes of s at the cursor.
func (b *BytesBuffer) WriteString(s string) (int, error) {
	return b.write([]byte(s))
}

// WriteLines writes every line in order, without adding separators.
func (b *BytesBuffer) WriteLines(lines [][]byte) error {
	for _, line := range lines {
		if _, err := b.write(line); err != nil {
			return err
		}
	}
	return nil
}

// Read implements io.Reader.
func (b *BytesBuffer) Read(p []byte) (int, error) {
	if err := b.check(); err != nil {
		return 0, err
	}
	return b.store.Read(p)
}

// ReadN reads up to n bytes. When n < 0 everything up to the end is returned,
// with a nil error even when nothing is left.
// When n > 0 and the cursor is at the end, ReadN returns io.EOF.
func (b *BytesBuffer) ReadN(n int) ([]byte, error) {
	if err := b.check(); err != nil {
		return nil, err
	}
	if n < 0 {
		return b.readAll()
	}
	p, err := io.ReadAll(io.LimitReader(b.store, int64(n)))
	if err == nil && len(p) == 0 && n > 0 {
		err = io.EOF
	}
	return p, err
}

// ReadLine reads through the next '\n', which is included in the line.
// The last line may lack the newline. io.EOF is returned when nothing is left.
func (b *BytesBuffer) ReadLine() ([]byte, error) {
	return b.ReadLineLimit(-1)
}

// ReadLineLimit is like ReadLine but returns after at most limit bytes when limit >= 0.
func (b *BytesBuffer) ReadLineLimit(limit int) ([]byte, error) {
	if err := b.check(); err != nil {
		return nil, err
	}
	return b.readLine(limit)
}

// ReadLines reads the remaining lines. When hint > 0 it stops once hint bytes were read.
func (b *BytesBuffer) ReadLines(hint int) ([][]byte, error) {
	if err := b.check(); err != nil {
		return nil, err
	}
	var lines [][]byte
	total := 0
	for {
		line, err := b.readLine(-1)
		if errors.Is(err, io.EOF) {
			return lines, nil
		}
		if err != nil {
			return lines, err
		}
		lines = append(lines, line)
		total += len(line)
		if hint > 0 && total >= hint {
			return lines, nil
		}
	}
}

// Seek implements io.Seeker over byte offsets.
func (b *BytesBuffer) Seek(offset int64, whence int) (int64, error) {
	return b.seekBytes(offset, whence)
}

// Tell returns the byte offset of the cursor.
func (b *BytesBuffer) Tell() (int64, error) {
	if err := b.check(); err != nil {
		return 0, err
	}
	return b.tellBytes()
}

// Truncate cuts the buffer to size bytes. The cursor is kept if it was before size,
// otherwise it is moved to size. A size beyond the end leaves the content unchanged.
func (b *BytesBuffer) Truncate(size int64) error {
	if err := b.check(); err != nil {
		return err
	}
	return b.truncateBytes(size)
}

// TruncateAtCursor cuts the buffer at the cursor.
func (b *BytesBuffer) TruncateAtCursor() error {
	if err := b.check(); err != nil {
		return err
	}
	pos, err := b.tellBytes()
	if err != nil {
		return err
	}
	return b.truncateBytes(pos)
}

// Len returns the number of bytes in the buffer.
func (b *BytesBuffer) Len() (int64, error) {
	if err := b.check(); err != nil {
		return 0, err
	}
	return b.lenBytes()
}

// Value returns the whole content of the buffer without moving the cursor.
func (b *BytesBuffer) Value() ([]byte, error) {
	if err := b.check(); err != nil {
		return nil, err
	}
	pos, err := b.tellBytes()
	if err != nil {
		return nil, err
	}
	if _, err := b.store.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	val, err := b.readAll()
	if _, serr := b.store.Seek(pos, io.SeekStart); err == nil {
		err = serr
	}
	return val, err
}

// Lines iterates over the lines from the cursor to the end.
func (b *BytesBuffer) Lines() iter.Seq2[[]byte, error] {
	return lines(b.spool, b.ReadLine)
}

// Equal reports whether b and other hold the same lines.
// Both cursors are left where they were.
func (b *BytesBuffer) Equal(other FileLike[[]byte]) (bool, error) {
	return Equal[[]byte](b, other)
}
