// Package zwrap looks at the start of some data and, if it is gzipped,
// puts a decompressor in front of it. Close closes the decompressor and
// then whatever was underneath.
package zwrap

import (
	"bytes"
	"compress/gzip"
	"errors"
	"io"
)

// gzip files start with these two bytes
var magic = []byte{0x1f, 0x8b}

// FpGzip is what we return. zrdr is nil for plain data.
type FpGzip struct {
	src  io.ReadCloser
	zrdr *gzip.Reader
}

// Close closes the decompressor, then the underlying ReadCloser.
func (fc *FpGzip) Close() error {
	if fc.zrdr == nil {
		return fc.src.Close()
	}
	var s string
	if e := fc.zrdr.Close(); e != nil {
		s = e.Error()
	}
	if e := fc.src.Close(); e != nil {
		s = s + " " + e.Error()
	}
	if s == "" {
		return nil
	}
	return errors.New(s)
}

// Read makes sure we read from the decompressed stream and not the
// underlying one.
func (fc *FpGzip) Read(p []byte) (int, error) {
	if fc.zrdr != nil {
		return fc.zrdr.Read(p)
	}
	return fc.src.Read(p)
}

// Compressed says if the data starts with the gzip magic bytes.
func Compressed(b []byte) bool { return bytes.HasPrefix(b, magic) }

// Bytes wraps data that is already in memory, like a mapped file.
// closer is called on Close and may be nil.
func Bytes(b []byte, closer func() error) (*FpGzip, error) {
	src := &byteCloser{Reader: bytes.NewReader(b), closer: closer}
	if !Compressed(b) {
		return &FpGzip{src: src}, nil
	}
	zrdr, err := gzip.NewReader(src)
	if err != nil {
		return nil, err
	}
	return &FpGzip{src: src, zrdr: zrdr}, nil
}

// WrapMaybe is for streams that cannot be mapped, like standard
// input. We peek at the first bytes without losing them.
func WrapMaybe(rc io.ReadCloser) (*FpGzip, error) {
	head := make([]byte, len(magic))
	n, err := io.ReadFull(rc, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, err
	}
	src := &multiCloser{Reader: io.MultiReader(bytes.NewReader(head[:n]), rc), c: rc}
	if !Compressed(head[:n]) {
		return &FpGzip{src: src}, nil
	}
	zrdr, err := gzip.NewReader(src)
	if err != nil {
		return nil, err
	}
	return &FpGzip{src: src, zrdr: zrdr}, nil
}

type byteCloser struct {
	*bytes.Reader
	closer func() error
}

func (b *byteCloser) Close() error {
	if b.closer == nil {
		return nil
	}
	return b.closer()
}

type multiCloser struct {
	io.Reader
	c io.Closer
}

func (m *multiCloser) Close() error { return m.c.Close() }
