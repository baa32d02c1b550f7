package star

import (
	"errors"
	"os"

	"github.com/andrew-torda/nmr_xlate/zwrap"
	"github.com/edsrzf/mmap-go"
)

// ReadFile maps a file into memory and reads every data block. gzipped
// files are recognised by their first bytes, not their names. A name
// of "-" means standard input.
func ReadFile(fname string) ([]*Entry, error) {
	if fname == "-" {
		r, err := zwrap.WrapMaybe(os.Stdin)
		if err != nil {
			return nil, err
		}
		return ReadAll(r)
	}
	fp, err := os.Open(fname)
	if err != nil {
		return nil, err
	}
	defer fp.Close()
	fi, err := fp.Stat()
	if err != nil {
		return nil, err
	}
	if fi.Size() == 0 {
		return nil, errors.New(fname + ": zero length file")
	}
	mm, err := mmap.Map(fp, mmap.RDONLY, 0)
	if err != nil {
		return nil, err
	}
	defer mm.Unmap()
	r, err := zwrap.Bytes(mm, nil)
	if err != nil {
		return nil, errors.New(fname + ": " + err.Error())
	}
	defer r.Close()
	entries, err := ReadAll(r)
	if err != nil {
		return nil, errors.New(fname + ": " + err.Error())
	}
	return entries, nil
}

// ReadFirst is ReadFile when we only want the first data block.
func ReadFirst(fname string) (*Entry, error) {
	entries, err := ReadFile(fname)
	if err != nil {
		return nil, err
	}
	return entries[0], nil
}

// WriteFile writes an entry to a new file, replacing an old one.
func WriteFile(fname string, e *Entry) error {
	fp, err := os.Create(fname)
	if err != nil {
		return err
	}
	if err := Write(fp, e); err != nil {
		fp.Close()
		return err
	}
	return fp.Close()
}
