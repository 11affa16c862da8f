package spooled

import (
	"bytes"
	"errors"
	"io"
	"math"
	"math/rand"
	"os"
	"testing"
)

func testConfig(t *testing.T, maxSize int64) *Config {
	t.Helper()
	config := DefaultConfig()
	config.MaxSize = maxSize
	config.SpoolDir = t.TempDir()
	return config
}

func randomBytes(n int, seed int64) []byte {
	r := rand.New(rand.NewSource(seed))
	b := make([]byte, n)
	r.Read(b)
	return b
}

func TestBytesRoundTrip(t *testing.T) {
	payloads := map[string][]byte{
		"empty":  {},
		"single": []byte("a"),
		"lines":  []byte("first\nsecond\n\nfourth"),
		"random": randomBytes(100000, 1),
	}
	for name, payload := range payloads {
		for _, rolled := range []bool{false, true} {
			maxSize := int64(len(payload) + 10)
			if rolled {
				maxSize = int64(len(payload)/2 + 1)
			}
			t.Run(name, func(t *testing.T) {
				buf := NewBytes(testConfig(t, maxSize))
				defer buf.Close()

				n, err := buf.Write(payload)
				if err != nil {
					t.Fatal(err)
				}
				if n != len(payload) {
					t.Fatalf("Write returned %d, expected %d", n, len(payload))
				}
				if buf.Rolled() != (rolled && len(payload) > 0) {
					t.Fatalf("Rolled() = %v with maxSize %d and %d bytes", buf.Rolled(), maxSize, len(payload))
				}
				if _, err := buf.Seek(0, io.SeekStart); err != nil {
					t.Fatal(err)
				}
				got, err := buf.ReadN(-1)
				if err != nil {
					t.Fatal(err)
				}
				if !bytes.Equal(got, payload) {
					t.Fatalf("read back %d bytes, expected %d", len(got), len(payload))
				}
			})
		}
	}
}

func TestBytesThreshold(t *testing.T) {
	buf := NewBytes(testConfig(t, 10))
	defer buf.Close()

	if _, err := buf.Write(bytes.Repeat([]byte("x"), 9)); err != nil {
		t.Fatal(err)
	}
	if buf.Rolled() {
		t.Fatal("rolled over after maxSize-1 bytes")
	}
	if buf.Name() != "" {
		t.Fatalf("Name() = %q before rollover", buf.Name())
	}
	if _, err := buf.Write([]byte("x")); err != nil {
		t.Fatal(err)
	}
	if !buf.Rolled() {
		t.Fatal("not rolled over after maxSize bytes")
	}
	length, err := buf.Len()
	if err != nil {
		t.Fatal(err)
	}
	if length != 10 {
		t.Fatalf("Len() = %d, expected 10", length)
	}
}

func TestBytesRolloverScenario(t *testing.T) {
	buf := NewBytes(testConfig(t, 10))
	defer buf.Close()

	data := []byte("0123456789abcde")
	if _, err := buf.Write(data); err != nil {
		t.Fatal(err)
	}
	if !buf.Rolled() {
		t.Fatal("expected rollover after 15 bytes with maxSize 10")
	}
	val, err := buf.Value()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(val, data) {
		t.Fatalf("Value() = %q, expected %q", val, data)
	}
	pos, err := buf.Tell()
	if err != nil {
		t.Fatal(err)
	}
	if pos != int64(len(data)) {
		t.Fatalf("Value moved the cursor to %d", pos)
	}
}

func TestBytesRolloverKeepsCursor(t *testing.T) {
	buf := NewBytes(testConfig(t, 100))
	defer buf.Close()

	if _, err := buf.WriteString("abcdef"); err != nil {
		t.Fatal(err)
	}
	if _, err := buf.Seek(2, io.SeekStart); err != nil {
		t.Fatal(err)
	}
	if err := buf.Rollover(); err != nil {
		t.Fatal(err)
	}
	if !buf.Rolled() {
		t.Fatal("Rollover did not roll over")
	}
	// second call is a no-op
	if err := buf.Rollover(); err != nil {
		t.Fatal(err)
	}
	pos, err := buf.Tell()
	if err != nil {
		t.Fatal(err)
	}
	if pos != 2 {
		t.Fatalf("Tell() = %d after rollover, expected 2", pos)
	}
	if _, err := buf.WriteString("XY"); err != nil {
		t.Fatal(err)
	}
	val, err := buf.Value()
	if err != nil {
		t.Fatal(err)
	}
	if string(val) != "abXYef" {
		t.Fatalf("Value() = %q, expected %q", val, "abXYef")
	}
}

func TestBytesOverwrite(t *testing.T) {
	buf := NewBytes(nil)
	defer buf.Close()

	if _, err := buf.WriteString("hello"); err != nil {
		t.Fatal(err)
	}
	if _, err := buf.Seek(1, io.SeekStart); err != nil {
		t.Fatal(err)
	}
	if _, err := buf.WriteString("EY"); err != nil {
		t.Fatal(err)
	}
	val, err := buf.Value()
	if err != nil {
		t.Fatal(err)
	}
	if string(val) != "hEYlo" {
		t.Fatalf("Value() = %q, expected %q", val, "hEYlo")
	}
}

func TestBytesReadN(t *testing.T) {
	buf := NewBytes(nil)
	defer buf.Close()

	if _, err := buf.WriteString("hello world"); err != nil {
		t.Fatal(err)
	}
	if _, err := buf.Seek(0, io.SeekStart); err != nil {
		t.Fatal(err)
	}
	got, err := buf.ReadN(5)
	if err != nil || string(got) != "hello" {
		t.Fatalf("ReadN(5) = %q, %v", got, err)
	}
	got, err = buf.ReadN(100)
	if err != nil || string(got) != " world" {
		t.Fatalf("ReadN(100) = %q, %v", got, err)
	}
	got, err = buf.ReadN(3)
	if err != io.EOF || len(got) != 0 {
		t.Fatalf("ReadN(3) at EOF = %q, %v", got, err)
	}
	got, err = buf.ReadN(-1)
	if err != nil || len(got) != 0 {
		t.Fatalf("ReadN(-1) at EOF = %q, %v", got, err)
	}
}

func TestBytesLines(t *testing.T) {
	for _, rolled := range []bool{false, true} {
		buf := NewBytes(testConfig(t, 1000))
		if rolled {
			if err := buf.Rollover(); err != nil {
				t.Fatal(err)
			}
		}
		if err := buf.WriteLines([][]byte{[]byte("a\n"), []byte("bb\n"), []byte("\n"), []byte("ccc")}); err != nil {
			t.Fatal(err)
		}
		if _, err := buf.Seek(0, io.SeekStart); err != nil {
			t.Fatal(err)
		}

		line, err := buf.ReadLine()
		if err != nil || string(line) != "a\n" {
			t.Fatalf("ReadLine() = %q, %v", line, err)
		}
		pos, err := buf.Tell()
		if err != nil {
			t.Fatal(err)
		}
		if pos != 2 {
			t.Fatalf("Tell() after first line = %d, expected 2", pos)
		}
		line, err = buf.ReadLineLimit(1)
		if err != nil || string(line) != "b" {
			t.Fatalf("ReadLineLimit(1) = %q, %v", line, err)
		}
		rest, err := buf.ReadLines(0)
		if err != nil {
			t.Fatal(err)
		}
		expected := []string{"b\n", "\n", "ccc"}
		if len(rest) != len(expected) {
			t.Fatalf("ReadLines returned %d lines, expected %d", len(rest), len(expected))
		}
		for i := range expected {
			if string(rest[i]) != expected[i] {
				t.Fatalf("line %d = %q, expected %q", i, rest[i], expected[i])
			}
		}
		if _, err := buf.ReadLine(); err != io.EOF {
			t.Fatalf("ReadLine at end returned %v, expected io.EOF", err)
		}

		if _, err := buf.Seek(0, io.SeekStart); err != nil {
			t.Fatal(err)
		}
		hinted, err := buf.ReadLines(3)
		if err != nil {
			t.Fatal(err)
		}
		if len(hinted) != 2 {
			t.Fatalf("ReadLines(3) returned %d lines, expected 2", len(hinted))
		}
		buf.Close()
	}
}

func TestBytesTruncate(t *testing.T) {
	for _, rolled := range []bool{false, true} {
		newBuf := func() *BytesBuffer {
			buf := NewBytes(testConfig(t, 1000))
			if rolled {
				if err := buf.Rollover(); err != nil {
					t.Fatal(err)
				}
			}
			if _, err := buf.WriteString("0123456789"); err != nil {
				t.Fatal(err)
			}
			return buf
		}

		// cursor after the truncation point is clamped
		buf := newBuf()
		if err := buf.Truncate(5); err != nil {
			t.Fatal(err)
		}
		val, _ := buf.Value()
		if string(val) != "01234" {
			t.Fatalf("Value() after Truncate(5) = %q", val)
		}
		if pos, _ := buf.Tell(); pos != 5 {
			t.Fatalf("Tell() = %d, expected cursor clamped to 5", pos)
		}
		buf.Close()

		// cursor before the truncation point is kept
		buf = newBuf()
		if _, err := buf.Seek(2, io.SeekStart); err != nil {
			t.Fatal(err)
		}
		if err := buf.Truncate(5); err != nil {
			t.Fatal(err)
		}
		if pos, _ := buf.Tell(); pos != 2 {
			t.Fatalf("Tell() = %d, expected cursor kept at 2", pos)
		}
		if err := buf.Truncate(-1); !errors.Is(err, ErrNegativeSize) {
			t.Fatalf("Truncate(-1) returned %v", err)
		}
		val, _ = buf.Value()
		if string(val) != "01234" {
			t.Fatalf("Value() after failed truncate = %q", val)
		}

		// truncating at the cursor
		if err := buf.TruncateAtCursor(); err != nil {
			t.Fatal(err)
		}
		val, _ = buf.Value()
		if string(val) != "01" {
			t.Fatalf("Value() after TruncateAtCursor = %q", val)
		}

		// growing is not possible
		if err := buf.Truncate(50); err != nil {
			t.Fatal(err)
		}
		if length, _ := buf.Len(); length != 2 {
			t.Fatalf("Len() after Truncate(50) = %d", length)
		}
		buf.Close()
	}
}

func TestBytesSeek(t *testing.T) {
	buf := NewBytes(nil)
	defer buf.Close()

	if _, err := buf.WriteString("0123456789"); err != nil {
		t.Fatal(err)
	}
	pos, err := buf.Seek(-3, io.SeekEnd)
	if err != nil || pos != 7 {
		t.Fatalf("Seek(-3, io.SeekEnd) = %d, %v", pos, err)
	}
	pos, err = buf.Seek(-2, io.SeekCurrent)
	if err != nil || pos != 5 {
		t.Fatalf("Seek(-2, io.SeekCurrent) = %d, %v", pos, err)
	}
	length, err := buf.Len()
	if err != nil || length != 10 {
		t.Fatalf("Len() = %d, %v", length, err)
	}
	if pos, _ := buf.Tell(); pos != 5 {
		t.Fatalf("Len moved the cursor to %d", pos)
	}

	_, err = buf.Seek(0, 7)
	var modeErr *SeekModeError
	if !errors.As(err, &modeErr) || modeErr.Whence != 7 {
		t.Fatalf("Seek with whence 7 returned %v", err)
	}
}

func TestBytesFd(t *testing.T) {
	buf := NewBytes(testConfig(t, 1000))
	defer buf.Close()

	if buf.IsTerminal() {
		t.Fatal("memory buffer reported as terminal")
	}
	if _, err := buf.Fd(); err != nil {
		t.Fatal(err)
	}
	if !buf.Rolled() {
		t.Fatal("Fd did not force a rollover")
	}
	if buf.IsTerminal() {
		t.Fatal("temp file reported as terminal")
	}
	if err := buf.Flush(); err != nil {
		t.Fatal(err)
	}
}

func TestBytesClose(t *testing.T) {
	buf := NewBytes(testConfig(t, 4))
	if _, err := buf.WriteString("spill to disk"); err != nil {
		t.Fatal(err)
	}
	name := buf.Name()
	if _, err := os.Stat(name); err != nil {
		t.Fatalf("temp file missing before close: %v", err)
	}

	if err := buf.Close(); err != nil {
		t.Fatal(err)
	}
	if err := buf.Close(); err != nil {
		t.Fatalf("second Close returned %v", err)
	}
	if _, err := os.Stat(name); !os.IsNotExist(err) {
		t.Fatal("temp file exists after closing")
	}

	if _, err := buf.Write([]byte("x")); !errors.Is(err, ErrClosed) {
		t.Fatalf("Write after Close returned %v", err)
	}
	if _, err := buf.Read(make([]byte, 1)); !errors.Is(err, ErrClosed) {
		t.Fatalf("Read after Close returned %v", err)
	}
	if _, err := buf.Seek(0, io.SeekStart); !errors.Is(err, ErrClosed) {
		t.Fatalf("Seek after Close returned %v", err)
	}
	if _, err := buf.Len(); !errors.Is(err, ErrClosed) {
		t.Fatalf("Len after Close returned %v", err)
	}
	if err := buf.Rollover(); !errors.Is(err, ErrClosed) {
		t.Fatalf("Rollover after Close returned %v", err)
	}
	if _, err := buf.Fd(); !errors.Is(err, ErrClosed) {
		t.Fatalf("Fd after Close returned %v", err)
	}
	if err := buf.Flush(); !errors.Is(err, ErrClosed) {
		t.Fatalf("Flush after Close returned %v", err)
	}
}

func TestBytesReadNLarge(t *testing.T) {
	for _, rolled := range []bool{false, true} {
		buf := newBytesBuffer(t, "abc", rolled)
		if _, err := buf.Seek(0, io.SeekStart); err != nil {
			t.Fatal(err)
		}
		got, err := buf.ReadN(math.MaxInt)
		if err != nil || string(got) != "abc" {
			t.Fatalf("rolled=%v: ReadN(math.MaxInt) = %q, %v", rolled, got, err)
		}
		if _, err := buf.ReadN(math.MaxInt); err != io.EOF {
			t.Fatalf("rolled=%v: ReadN(math.MaxInt) at end returned %v", rolled, err)
		}
		if _, err := buf.Seek(1, io.SeekStart); err != nil {
			t.Fatal(err)
		}
		got, err = buf.ReadN(1 << 40)
		if err != nil || string(got) != "bc" {
			t.Fatalf("rolled=%v: ReadN(1<<40) = %q, %v", rolled, got, err)
		}
		buf.Close()
	}

	text := newTextBuffer(t, "héllo", false)
	defer text.Close()
	if _, err := text.Seek(0, io.SeekStart); err != nil {
		t.Fatal(err)
	}
	s, err := text.ReadN(math.MaxInt)
	if err != nil || s != "héllo" {
		t.Fatalf("TextBuffer.ReadN(math.MaxInt) = %q, %v", s, err)
	}
}

func TestBytesFlushAfterRollover(t *testing.T) {
	buf := newBytesBuffer(t, "flushed", true)
	defer buf.Close()

	if _, err := buf.Seek(3, io.SeekStart); err != nil {
		t.Fatal(err)
	}
	if err := buf.Flush(); err != nil {
		t.Fatal(err)
	}
	if pos, _ := buf.Tell(); pos != 3 {
		t.Fatalf("Flush moved the cursor to %d", pos)
	}
	val, err := buf.Value()
	if err != nil || string(val) != "flushed" {
		t.Fatalf("Value() after Flush = %q, %v", val, err)
	}
}
