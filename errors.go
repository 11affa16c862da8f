package spooled

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed is returned by every operation on a closed buffer.
	ErrClosed = errors.New("spooled: operation on closed buffer")
	// ErrNegativeSize is returned when truncating to a negative size.
	ErrNegativeSize = errors.New("spooled: negative size not allowed")
	// ErrNegativeSeek is returned when a seek resolves to a position before the start.
	ErrNegativeSeek = errors.New("spooled: negative seek position")
	// ErrFileLimit is returned by a rollover when Config.FileLimit has no free slot.
	ErrFileLimit = errors.New("spooled: temp file limit reached")
	// ErrMixedSources is returned by NewMultiReader when byte and text sources are mixed.
	ErrMixedSources = errors.New("spooled: sources mix bytes and text")
	// ErrWrongMode is returned when reading text from byte sources or bytes from text sources.
	ErrWrongMode = errors.New("spooled: read does not match source type")
	// ErrSeekUnsupported is returned by MultiReader.Seek for anything but a rewind.
	ErrSeekUnsupported = fmt.Errorf("spooled: MultiReader only supports Seek(0, io.SeekStart): %w", errors.ErrUnsupported)
)

// SeekModeError is returned when Seek is called with an unknown whence value
type SeekModeError struct {
	Whence int
}

func (e *SeekModeError) Error() string {
	return fmt.Sprintf("spooled: invalid whence %d, expected io.SeekStart (0), io.SeekCurrent (1) or io.SeekEnd (2)", e.Whence)
}

// SourceTypeError is returned by NewMultiReader for a source that can not be read
type SourceTypeError struct {
	// Index is the position of the source in the argument list
	Index int
	// Type is the dynamic type of the source
	Type string
}

func (e *SourceTypeError) Error() string {
	return fmt.Sprintf("spooled: source %d (%s) is neither an io.Reader nor a text reader", e.Index, e.Type)
}

// DiskError represents an I/O failure of the temp file backing a buffer
type DiskError struct {
	// Op is the operation that failed, ex: "rollover"
	Op string
	// Path is the temp file path, empty when no file exists yet
	Path string
	Err  error
}

func (e *DiskError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("disk error during %s on %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("disk error during %s: %v", e.Op, e.Err)
}

func (e *DiskError) Unwrap() error {
	return e.Err
}

// NewDiskError creates a DiskError wrapping the underlying I/O error
func NewDiskError(err error, operation, path string) error {
	return &DiskError{Op: operation, Path: path, Err: err}
}
