// brokenio is a wrapper around an io.ReadCloser that fails on purpose.
// Typical use: in a test, you have a reader over a good file. You write
// reader = NewReader(reader) and say where it should break. Everything
// then works as before until that point.
// A reader can fail with an error after some bytes, stop early as if
// the file had been cut short, or return nothing at all, which is what
// one often sees with a zero length file.

package brokenio

import (
	"errors"
	"fmt"
	"io"
)

// ErrBroken is what a reader returns once it reaches its failure point.
var ErrBroken = errors.New("brokenio: read failed")

// Reader is modelled on the various Readers in the standard library.
// The zero values of the settings mean "do not break".
// If verbose is true, print out the amount of data when the reader is
// closed.
type Reader struct {
	rdrOrig   io.ReadCloser // Wrapped reader
	failAfter int           // bytes before ErrBroken
	truncate  int           // bytes before an early EOF
	zeroFile  bool
	nCalled   int
	nByte     int
	verbose   bool
}

// NewReader returns a new Reader, a wrapper around the old one
func NewReader(rIn io.ReadCloser) *Reader {
	return &Reader{rdrOrig: rIn}
}

// NopReader is NewReader for something without a Close.
func NopReader(rIn io.Reader) *Reader { return NewReader(io.NopCloser(rIn)) }

// SetVerbose sets the verbosity flag to true or false
func (r *Reader) SetVerbose(newV bool) { r.verbose = newV }

// SetFailAfter makes the reader pass n bytes, then return ErrBroken.
func (r *Reader) SetFailAfter(n int) { r.failAfter = n }

// SetTruncate makes the reader pass n bytes, then say io.EOF.
func (r *Reader) SetTruncate(n int) { r.truncate = n }

// SetZeroFile makes the first read return io.EOF and no data.
func (r *Reader) SetZeroFile(z bool) { r.zeroFile = z }

// limit is how many bytes we may still hand out and the error to give
// when there are none left. -1 means no limit.
func (r *Reader) limit() (int, error) {
	switch {
	case r.failAfter > 0 && (r.truncate <= 0 || r.failAfter <= r.truncate):
		return r.failAfter - r.nByte, ErrBroken
	case r.truncate > 0:
		return r.truncate - r.nByte, io.EOF
	}
	return -1, nil
}

// Read wraps the original reader and sums up the amount of data that
// has gone through.
func (r *Reader) Read(p []byte) (n int, err error) {
	if len(p) == 0 {
		return 0, nil
	}
	r.nCalled++
	if r.nCalled == 1 && r.zeroFile {
		return 0, io.EOF
	}
	left, brkErr := r.limit()
	if left == 0 {
		return 0, brkErr
	}
	if left > 0 && len(p) > left {
		p = p[:left]
	}
	n, err = r.rdrOrig.Read(p)
	r.nByte += n
	return n, err
}

// Close wraps the original Close method.
func (r *Reader) Close() error {
	if r.verbose {
		fmt.Println("Closing", r.nCalled, "calls and", r.nByte, "bytes")
	}
	return r.rdrOrig.Close()
}
