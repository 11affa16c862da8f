package tempfile

import (
	"errors"
	"fmt"
	"io"
)

var errMemoryClosed = errors.New("tempfile: memory store is closed")

// Memory provides an in-memory implementation of the Store interface.
// It keeps all data in a byte slice and mimics the cursor semantics of an *os.File:
// writes past the end extend the data, seeking past the end is allowed and
// a later write fills the gap with zeros.
type Memory struct {
	data   []byte
	pos    int64
	closed bool
}

// Mock creates a new in-memory Store with the specified initial capacity.
// The parameter n sets the initial capacity of the underlying slice to reduce
// reallocations during writing.
func Mock(n int) *Memory {
	if n < 0 {
		n = 0
	}
	return &Memory{data: make([]byte, 0, n)}
}

// Bytes returns the stored data. The slice is only valid until the next write.
func (m *Memory) Bytes() []byte {
	return m.data
}

// Pos returns the current cursor offset.
func (m *Memory) Pos() int64 {
	return m.pos
}

// Read reads up to len(p) bytes from the cursor.
func (m *Memory) Read(p []byte) (int, error) {
	if m.closed {
		return 0, errMemoryClosed
	}
	if len(p) == 0 {
		return 0, nil
	}
	if m.pos >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[m.pos:])
	m.pos += int64(n)
	return n, nil
}

// Write writes p at the cursor, overwriting existing data and extending it as needed.
func (m *Memory) Write(p []byte) (int, error) {
	if m.closed {
		return 0, errMemoryClosed
	}
	end := m.pos + int64(len(p))
	if end > int64(len(m.data)) {
		if end > int64(cap(m.data)) {
			grown := make([]byte, len(m.data), max(end, int64(cap(m.data))*2))
			copy(grown, m.data)
			m.data = grown
		}
		// zero the gap left by a seek past the end
		old := len(m.data)
		m.data = m.data[:end]
		if m.pos > int64(old) {
			clear(m.data[old:m.pos])
		}
	}
	n := copy(m.data[m.pos:], p)
	m.pos += int64(n)
	return n, nil
}

// Seek sets the cursor for the next Read or Write.
func (m *Memory) Seek(offset int64, whence int) (int64, error) {
	if m.closed {
		return 0, errMemoryClosed
	}
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = m.pos + offset
	case io.SeekEnd:
		abs = int64(len(m.data)) + offset
	default:
		return 0, fmt.Errorf("tempfile: invalid whence: %d", whence)
	}
	if abs < 0 {
		return 0, fmt.Errorf("tempfile: negative position: %d", abs)
	}
	m.pos = abs
	return abs, nil
}

// Truncate cuts or zero-extends the data to size bytes. The cursor is not moved.
func (m *Memory) Truncate(size int64) error {
	if m.closed {
		return errMemoryClosed
	}
	if size < 0 {
		return fmt.Errorf("tempfile: negative size: %d", size)
	}
	if size <= int64(len(m.data)) {
		m.data = m.data[:size]
		return nil
	}
	old := len(m.data)
	m.data = append(m.data, make([]byte, size-int64(old))...)
	return nil
}

// Size returns the number of stored bytes.
func (m *Memory) Size() (int64, error) {
	if m.closed {
		return 0, errMemoryClosed
	}
	return int64(len(m.data)), nil
}

// Close releases all memory. This operation is irreversible.
func (m *Memory) Close() error {
	m.closed = true
	m.data = nil
	m.pos = 0
	return nil
}
