// Package spooled implements file-like buffers that keep their content in memory
// until it grows past a threshold, then transparently roll over to a temporary file.
// BytesBuffer works in bytes, TextBuffer in Unicode codepoints over UTF-8 storage.
package spooled

import (
	"bytes"
	"errors"
	"io"
	"runtime"

	"github.com/lanrat/spooled/tempfile"
	"golang.org/x/term"
)

// readChunkSize is the number of bytes (or codepoints) processed per read
// when scanning the store, sized to stay within a typical L2 cache.
const readChunkSize = 21333

// lineChunkSize is the first read size when looking for a newline.
// It doubles on every read up to readChunkSize.
const lineChunkSize = 128

// spool holds the state shared by both buffer variants: the active backing
// store and the rollover policy. It is not safe for concurrent use.
type spool struct {
	config   *Config
	store    tempfile.Store
	closed   bool
	holdSlot bool   // a Config.FileLimit slot is held for the temp file
	scratch  []byte // read buffer reused across calls
}

func newSpool(config *Config) *spool {
	s := &spool{
		config: mergeConfig(config),
		store:  tempfile.Mock(0),
	}
	runtime.SetFinalizer(s, (*spool).finalize)
	return s
}

// finalize is the safety net for buffers that were never closed.
func (s *spool) finalize() {
	if s.closed {
		return
	}
	if err := s.close(); err != nil {
		s.config.Logger.Debug("spooled: cleanup of unclosed buffer failed", "error", err)
	}
}

// buffer returns a scratch slice of n bytes. Growing it keeps the
// previous content at the front.
func (s *spool) buffer(n int) []byte {
	if cap(s.scratch) < n {
		grown := make([]byte, n)
		copy(grown, s.scratch[:cap(s.scratch)])
		s.scratch = grown
	}
	return s.scratch[:n]
}

// nextChunk doubles a line read size up to readChunkSize.
func nextChunk(size int) int {
	return min(size*2, readChunkSize)
}

func (s *spool) check() error {
	if s.closed {
		return ErrClosed
	}
	return nil
}

// Rolled reports whether the buffer content lives in a temp file.
func (s *spool) Rolled() bool {
	_, ok := s.store.(*tempfile.File)
	return ok
}

// Name returns the temp file path once rolled over, or "" while in memory.
func (s *spool) Name() string {
	if f, ok := s.store.(*tempfile.File); ok {
		return f.Name()
	}
	return ""
}

// ensureCapacity rolls over when writing n more bytes would reach the threshold.
func (s *spool) ensureCapacity(n int) error {
	if s.Rolled() {
		return nil
	}
	size, err := s.store.Size()
	if err != nil {
		return err
	}
	if size+int64(n) >= s.config.MaxSize {
		return s.rollover()
	}
	return nil
}

// rollover migrates the memory store into a new temp file, keeping the cursor.
// On failure the memory store stays active and untouched.
func (s *spool) rollover() error {
	if err := s.check(); err != nil {
		return err
	}
	mem, ok := s.store.(*tempfile.Memory)
	if !ok {
		return nil
	}

	limit := s.config.FileLimit
	if limit != nil && !limit.TryAcquire(1) {
		return NewDiskError(ErrFileLimit, "rollover", "")
	}
	release := func() {
		if limit != nil {
			limit.Release(1)
		}
	}

	f, err := tempfile.NewPrefix(s.config.SpoolDir, s.config.TempFilePrefix, s.config.PreferDiskBacked)
	if err != nil {
		release()
		return NewDiskError(err, "rollover", "")
	}
	if err := migrate(f, mem); err != nil {
		_ = f.Close()
		release()
		return NewDiskError(err, "rollover", f.Name())
	}

	size := len(mem.Bytes())
	_ = mem.Close()
	s.store = f
	s.holdSlot = limit != nil
	s.config.Logger.Debug("spooled: rolled over to temp file",
		"path", f.Name(),
		"size", size,
	)
	return nil
}

func migrate(f *tempfile.File, mem *tempfile.Memory) error {
	if _, err := f.Write(mem.Bytes()); err != nil {
		return err
	}
	_, err := f.Seek(mem.Pos(), io.SeekStart)
	return err
}

// Rollover moves the buffer content to a temp file.
// It does nothing if the buffer already rolled over.
func (s *spool) Rollover() error {
	return s.rollover()
}

// Close releases the backing store and removes the temp file if there is one.
// It is safe to call Close multiple times.
func (s *spool) Close() error {
	if s.closed {
		return nil
	}
	runtime.SetFinalizer(s, nil)
	return s.close()
}

func (s *spool) close() error {
	name := s.Name()
	s.closed = true
	err := s.store.Close()
	if s.holdSlot {
		s.config.FileLimit.Release(1)
		s.holdSlot = false
	}
	if err != nil {
		return NewDiskError(err, "close", name)
	}
	return nil
}

// Flush exists for parity with buffered files. Writes go straight to the
// backing store, memory or an unbuffered *os.File, so there is nothing to flush.
// The temp file is removed on Close and is never synced to stable storage.
func (s *spool) Flush() error {
	return s.check()
}

// IsTerminal reports whether the backing store is a terminal, which a
// memory buffer never is.
func (s *spool) IsTerminal() bool {
	f, ok := s.store.(*tempfile.File)
	if !ok || s.closed {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// Fd returns the file descriptor of the temp file.
// A memory buffer has none, so it is rolled over first.
func (s *spool) Fd() (uintptr, error) {
	if err := s.rollover(); err != nil {
		return 0, err
	}
	return s.store.(*tempfile.File).Fd(), nil
}

func (s *spool) seekBytes(offset int64, whence int) (int64, error) {
	if err := s.check(); err != nil {
		return 0, err
	}
	switch whence {
	case io.SeekStart, io.SeekCurrent, io.SeekEnd:
	default:
		return 0, &SeekModeError{Whence: whence}
	}
	return s.store.Seek(offset, whence)
}

func (s *spool) tellBytes() (int64, error) {
	return s.store.Seek(0, io.SeekCurrent)
}

// lenBytes returns the byte length by probing the end and restoring the cursor.
func (s *spool) lenBytes() (int64, error) {
	pos, err := s.tellBytes()
	if err != nil {
		return 0, err
	}
	end, err := s.store.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, err
	}
	if _, err := s.store.Seek(pos, io.SeekStart); err != nil {
		return 0, err
	}
	return end, nil
}

// truncateBytes cuts the store to size bytes and clamps the cursor to it.
// The store is never extended.
func (s *spool) truncateBytes(size int64) error {
	if size < 0 {
		return ErrNegativeSize
	}
	pos, err := s.tellBytes()
	if err != nil {
		return err
	}
	length, err := s.lenBytes()
	if err != nil {
		return err
	}
	if size < length {
		if err := s.store.Truncate(size); err != nil {
			return err
		}
	}
	if pos > size {
		_, err = s.store.Seek(size, io.SeekStart)
	}
	return err
}

// write writes p at the cursor, rolling over first when needed.
func (s *spool) write(p []byte) (int, error) {
	if err := s.check(); err != nil {
		return 0, err
	}
	if err := s.ensureCapacity(len(p)); err != nil {
		return 0, err
	}
	return s.store.Write(p)
}

// readAll reads everything from the cursor to the end.
func (s *spool) readAll() ([]byte, error) {
	return io.ReadAll(s.store)
}

// readLine reads bytes through the next '\n', or at most limit bytes when limit >= 0.
// Bytes read past the newline are given back by seeking.
func (s *spool) readLine(limit int) ([]byte, error) {
	var line []byte
	for size := lineChunkSize; limit < 0 || len(line) < limit; size = nextChunk(size) {
		want := size
		if limit >= 0 {
			want = min(want, limit-len(line))
		}
		buf := s.buffer(want)
		n, err := s.store.Read(buf)
		if i := bytes.IndexByte(buf[:n], '\n'); i >= 0 {
			line = append(line, buf[:i+1]...)
			if back := n - (i + 1); back > 0 {
				if _, err := s.store.Seek(-int64(back), io.SeekCurrent); err != nil {
					return line, err
				}
			}
			return line, nil
		}
		line = append(line, buf[:n]...)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return line, err
		}
		if n == 0 {
			break
		}
	}
	if len(line) == 0 && limit != 0 {
		return nil, io.EOF
	}
	return line, nil
}

// atEOF reports whether the cursor is at or past the end of the store.
func (s *spool) atEOF() (bool, error) {
	pos, err := s.tellBytes()
	if err != nil {
		return false, err
	}
	end, err := s.lenBytes()
	if err != nil {
		return false, err
	}
	return pos >= end, nil
}
