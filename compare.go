package spooled

import (
	"errors"
	"io"
	"iter"
	"reflect"
)

// Equal reports whether a and b hold the same lines, read from the start of each.
// Buffers of different concrete types are never equal. The cursors of both
// buffers are restored before Equal returns, also when reading fails.
func Equal[T Chunk](a, b FileLike[T]) (eq bool, err error) {
	if isNil(a) || isNil(b) {
		return false, nil
	}
	if reflect.TypeOf(a) != reflect.TypeOf(b) {
		return false, nil
	}
	if reflect.TypeOf(a).Comparable() && any(a) == any(b) {
		_, err := a.Tell()
		return err == nil, err
	}

	apos, err := a.Tell()
	if err != nil {
		return false, err
	}
	bpos, err := b.Tell()
	if err != nil {
		return false, err
	}
	defer func() {
		_, aerr := a.Seek(apos, io.SeekStart)
		_, berr := b.Seek(bpos, io.SeekStart)
		if err == nil {
			err = errors.Join(aerr, berr)
		}
	}()

	if _, err := a.Seek(0, io.SeekStart); err != nil {
		return false, err
	}
	if _, err := b.Seek(0, io.SeekStart); err != nil {
		return false, err
	}
	for {
		aline, aerr := a.ReadLine()
		if aerr != nil && !errors.Is(aerr, io.EOF) {
			return false, aerr
		}
		bline, berr := b.ReadLine()
		if berr != nil && !errors.Is(berr, io.EOF) {
			return false, berr
		}
		adone, bdone := aerr != nil, berr != nil
		if adone || bdone {
			return adone && bdone, nil
		}
		if string(aline) != string(bline) {
			return false, nil
		}
	}
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

// lines yields lines from readLine until the store is exhausted.
// An empty read only ends the iteration once the cursor reached the end of
// the store, so an empty line is never taken for the end.
func lines[T Chunk](s *spool, readLine func() (T, error)) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		for {
			line, err := readLine()
			if err != nil && !errors.Is(err, io.EOF) {
				yield(zero, err)
				return
			}
			if len(line) == 0 {
				eof, perr := s.atEOF()
				if perr != nil {
					yield(zero, perr)
					return
				}
				if eof {
					return
				}
				if err != nil {
					// io.EOF before the end of the store means the cursor
					// can not make progress.
					yield(zero, io.ErrNoProgress)
					return
				}
			}
			if !yield(line, nil) {
				return
			}
		}
	}
}
