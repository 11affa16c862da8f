package tempfile

import (
	"io"
)

// Store defines the backing storage of a spooled buffer.
// It is a seekable read/write stream that can be cut to a size and released.
// Implementations keep a single cursor shared by reads and writes, like an *os.File.
type Store interface {
	// Close releases the storage. For disk storage the file is also removed.
	// Calling Close more than once is allowed.
	io.Closer

	io.Reader
	io.Writer
	io.Seeker

	// Truncate changes the size of the stored data without moving the cursor.
	Truncate(size int64) error

	// Size returns the number of bytes currently stored.
	Size() (int64, error)
}

var (
	_ Store = (*Memory)(nil)
	_ Store = (*File)(nil)
)
