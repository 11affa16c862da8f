// Package tempfile implements the backing stores used by spooled buffers:
// an in-memory store and a real temporary file that is removed from the
// filesystem when it is closed.
package tempfile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

var (
	// filename prefix for files put in temp directory
	FilenamePrefix = fmt.Sprintf("spooled_%d_", os.Getpid())
)

// File is a Store backed by a temporary file on disk.
type File struct {
	file   *os.File
	name   string
	closed bool
}

// New creates a temporary file in dir using the default FilenamePrefix.
// An empty dir selects a directory with GetTempDir.
func New(dir string, preferDiskBacked bool) (*File, error) {
	return NewPrefix(dir, FilenamePrefix, preferDiskBacked)
}

// NewPrefix creates a temporary file in dir whose name starts with prefix.
// The directory is created if it does not exist yet.
func NewPrefix(dir, prefix string, preferDiskBacked bool) (*File, error) {
	dir = GetTempDir(dir, preferDiskBacked)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	f, err := os.CreateTemp(dir, prefix)
	if err != nil {
		return nil, err
	}
	return &File{file: f, name: f.Name()}, nil
}

// Name returns the path of the temporary file.
func (f *File) Name() string {
	return f.name
}

// Fd returns the file descriptor of the temporary file.
func (f *File) Fd() uintptr {
	return f.file.Fd()
}

func (f *File) Read(p []byte) (int, error) {
	return f.file.Read(p)
}

func (f *File) Write(p []byte) (int, error) {
	return f.file.Write(p)
}

func (f *File) Seek(offset int64, whence int) (int64, error) {
	return f.file.Seek(offset, whence)
}

func (f *File) Truncate(size int64) error {
	return f.file.Truncate(size)
}

// Size returns the size of the file as reported by the filesystem.
func (f *File) Size() (int64, error) {
	info, err := f.file.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// Close closes the file and removes it from disk.
// Later calls return nil.
func (f *File) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	err := f.file.Close()
	rmErr := os.Remove(f.name)
	if errors.Is(rmErr, fs.ErrNotExist) {
		rmErr = nil
	}
	return errors.Join(err, rmErr)
}
