package brokenio_test

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/andrew-torda/nmr_xlate/brokenio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var longstring = "0123456789012345678901234567890123456789"

func TestFailAfter(t *testing.T) {
	for _, n := range []int{1, 7, 39} {
		rdr := brokenio.NopReader(strings.NewReader(longstring))
		rdr.SetFailAfter(n)
		b, err := io.ReadAll(rdr)
		assert.True(t, errors.Is(err, brokenio.ErrBroken), "n %d", n)
		assert.Equal(t, longstring[:n], string(b))
	}
}

func TestTruncate(t *testing.T) {
	rdr := brokenio.NopReader(strings.NewReader(longstring))
	rdr.SetTruncate(12)
	b, err := io.ReadAll(rdr)
	assert.NoError(t, err, "a short file is not an error")
	assert.Equal(t, longstring[:12], string(b))

	rdr = brokenio.NopReader(strings.NewReader(longstring))
	rdr.SetTruncate(12)
	rdr.SetFailAfter(5)
	_, err = io.ReadAll(rdr)
	assert.True(t, errors.Is(err, brokenio.ErrBroken), "the earlier break wins")
}

func TestZeroFile(t *testing.T) {
	rdr := brokenio.NopReader(strings.NewReader(longstring))
	rdr.SetZeroFile(true)
	tmp := make([]byte, len(longstring))
	n, err := rdr.Read(tmp)
	assert.Equal(t, 0, n)
	assert.Equal(t, io.EOF, err)
}

func TestReaderSimple(t *testing.T) {
	rdr := brokenio.NopReader(strings.NewReader(longstring))
	b, err := io.ReadAll(rdr)
	require.NoError(t, err)
	assert.Equal(t, longstring, string(b))
}

func Example_setVerbose() {
	rdr := brokenio.NopReader(strings.NewReader(longstring))
	rdr.SetVerbose(true)
	tmp := make([]byte, len(longstring))
	rdr.Read(tmp)
	rdr.Close()
	// Output: Closing 1 calls and 40 bytes
}

// TestClose checks the reader really calls the wrapped Close.
func TestClose(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "testclose")
	require.NoError(t, os.WriteFile(fname, []byte(longstring), 0o644))
	fp, err := os.Open(fname)
	require.NoError(t, err)
	rdr := brokenio.NewReader(fp)
	s := make([]byte, len(longstring))
	n, err := rdr.Read(s)
	assert.Equal(t, len(longstring), n)
	assert.NoError(t, err)
	require.NoError(t, rdr.Close())
	_, err = fp.Read(s)
	assert.Error(t, err, "file should be closed")
}
