package spooled

import "io"

// Chunk is the unit a buffer reads and writes: raw bytes or UTF-8 text.
type Chunk interface {
	[]byte | string
}

// FileLike is the interface implemented by both spooled buffer variants.
// Positions are byte offsets for []byte buffers and codepoint offsets for string buffers.
type FileLike[T Chunk] interface {
	// Close releases the backing store and removes the temp file if there is one.
	// Calling Close more than once is allowed.
	io.Closer

	// Seek moves the cursor. whence is one of io.SeekStart, io.SeekCurrent, io.SeekEnd.
	io.Seeker

	// ReadN reads up to n units, or everything left when n < 0.
	ReadN(n int) (T, error)

	// ReadLine reads through the next newline. It returns io.EOF when nothing is left.
	ReadLine() (T, error)

	// ReadLines reads lines until EOF or until at least hint units were read, when hint > 0.
	ReadLines(hint int) ([]T, error)

	// WriteLines writes every line in order, without adding separators.
	WriteLines(lines []T) error

	// Tell returns the cursor position.
	Tell() (int64, error)

	// Truncate cuts the buffer to size units, keeping the cursor when it is before size.
	Truncate(size int64) error

	// TruncateAtCursor cuts the buffer at the cursor.
	TruncateAtCursor() error

	// Len returns the length of the buffer without moving the cursor.
	Len() (int64, error)

	// Value returns the whole content without moving the cursor.
	Value() (T, error)

	// Rollover moves the content to a temp file. It does nothing once rolled.
	Rollover() error

	// Rolled reports whether the content lives in a temp file.
	Rolled() bool

	Flush() error
	IsTerminal() bool

	// Fd returns the file descriptor of the temp file, rolling over first.
	Fd() (uintptr, error)
}

var (
	_ FileLike[[]byte] = (*BytesBuffer)(nil)
	_ FileLike[string] = (*TextBuffer)(nil)
)
