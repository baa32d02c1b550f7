package zwrap_test

import (
	"io"
	"os"
	"testing"

	"github.com/andrew-torda/nmr_xlate/zwrap"
)

// both are "andrewsayshello", but the first is compressed.
var gztests = []struct {
	data    []byte
	gzipped bool
}{
	{[]byte{
		0x1f, 0x8b, 0x08, 0x00, 0xb6, 0xf1, 0xa0, 0x5b, 0x00, 0x03,
		0x4b, 0xcc, 0x4b, 0x29, 0x4a, 0x2d, 0x2f, 0x4e, 0xac, 0x2c,
		0xce, 0x48, 0xcd, 0xc9, 0xc9, 0x07, 0x00, 0x44, 0xa8, 0x66,
		0x89, 0x0f, 0x00, 0x00, 0x00},
		true,
	},
	{[]byte{
		0x61, 0x6e, 0x64, 0x72, 0x65, 0x77, 0x73, 0x61,
		0x79, 0x73, 0x68, 0x65, 0x6c, 0x6c, 0x6f, 0x0a},
		false,
	},
}

func TestBytes(t *testing.T) {
	for i, x := range gztests {
		if zwrap.Compressed(x.data) != x.gzipped {
			t.Errorf("case %d: Compressed wrong", i)
		}
		closed := false
		r, err := zwrap.Bytes(x.data, func() error { closed = true; return nil })
		if err != nil {
			t.Fatal(err)
		}
		b, err := io.ReadAll(r)
		if err != nil {
			t.Fatal(err)
		}
		if string(b[:10]) != "andrewsays" {
			t.Errorf("case %d: wrong string: %s", i, b)
		}
		if err := r.Close(); err != nil || !closed {
			t.Errorf("case %d: close %v %v", i, err, closed)
		}
	}
}

func TestWrapMaybe(t *testing.T) {
	for i, x := range gztests {
		tmpf, err := os.CreateTemp("", "del_me_testing")
		if err != nil {
			t.Fatal(err)
		}
		defer os.Remove(tmpf.Name())
		if _, err := tmpf.Write(x.data); err != nil {
			t.Fatal(err)
		}
		if _, err := tmpf.Seek(0, io.SeekStart); err != nil {
			t.Fatal(err)
		}
		r, err := zwrap.WrapMaybe(tmpf)
		if err != nil {
			t.Fatal(err)
		}
		b, err := io.ReadAll(r)
		if err != nil {
			t.Fatal(err)
		}
		if string(b[:10]) != "andrewsays" {
			t.Errorf("case %d: wrong string: %s", i, b)
		}
		if err := r.Close(); err != nil {
			t.Errorf("Error closing: %s", err)
		}
	}
}
