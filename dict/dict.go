// 12 Oct 2026

// Package dict has the static tables we need: which exchange tag
// becomes which archival tag, which tags are mandatory, one letter
// codes for residues and the atom names of the standard residues.
// They are read once and not changed afterwards, so a *Tables can be
// shared freely.
//
// Each table is a plain text file. Anything after a # is a comment and
// blank lines are ignored. We carry a copy of every table in the
// binary, but one can point at other files.
package dict

import (
	"bufio"
	"bytes"
	"embed"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/andrew-torda/nmr_xlate/pkg/common"
)

//go:embed data/*.txt
var builtin embed.FS

const (
	equivFile     = "tag_equivalence.txt"
	mandatoryFile = "mandatory_tags.txt"
	oneLetterFile = "one_letter_codes.txt"
	atomsFile     = "residue_atoms.txt"
)

// Paths lets one replace the built in tables. An empty name means use
// the built in one.
type Paths struct {
	TagEquivalence string `yaml:"tag_equivalence"`
	MandatoryTags  string `yaml:"mandatory_tags"`
	OneLetterCodes string `yaml:"one_letter_codes"`
	ResidueAtoms   string `yaml:"residue_atoms"`
}

// TagEquiv is one line of the equivalence table.
type TagEquiv struct {
	Exchange string // _nef_chemical_shift.value
	Archival string // _Atom_chem_shift.Val
	Category string // _Atom_chem_shift
}

// Tables holds everything. The zero value is a set of empty tables.
type Tables struct {
	equiv     map[string]TagEquiv
	equivList []TagEquiv // in file order
	mandatory map[string]bool
	mandList  []string
	oneLetter map[string]byte
	atoms     map[string][]string
}

// cmmtScanner wraps bufio.Scanner, drops comments and blank lines and
// counts lines for error messages.
type cmmtScanner struct {
	*bufio.Scanner
	n int
}

func newCmmtScanner(r io.Reader) *cmmtScanner {
	return &cmmtScanner{Scanner: bufio.NewScanner(r)}
}

// fields gives the fields of the next line with something on it, or
// nil at the end.
func (s *cmmtScanner) fields() []string {
	for s.Scan() {
		s.n++
		b := s.Bytes()
		if i := bytes.IndexByte(b, '#'); i != -1 {
			b = b[:i]
		}
		if f := strings.Fields(string(b)); len(f) > 0 {
			return f
		}
	}
	return nil
}

// open gets a table from a file or from the copy in the binary.
func open(path, name string) (io.ReadCloser, error) {
	if path != "" {
		return os.Open(path)
	}
	return builtin.Open("data/" + name)
}

// lineParser gets the fields of one line. It returns an error if the
// line is broken.
type lineParser func(f []string) error

// readTable reads one table. Any problem gives a resource error and the
// caller throws away what was read.
func readTable(path, name string, parse lineParser) error {
	fp, err := open(path, name)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", common.ErrResource, name, err)
	}
	defer fp.Close()
	s := newCmmtScanner(fp)
	for f := s.fields(); f != nil; f = s.fields() {
		if err := parse(f); err != nil {
			return fmt.Errorf("%w: %s line %d: %v", common.ErrResource, name, s.n, err)
		}
	}
	if err := s.Err(); err != nil {
		return fmt.Errorf("%w: %s: %v", common.ErrResource, name, err)
	}
	return nil
}

// Load reads all four tables. It does not fail. A table that cannot be
// read is left empty and the problem goes to the logger.
func Load(paths Paths, logger *log.Logger) *Tables {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	t := &Tables{}
	if err := t.loadEquiv(paths.TagEquivalence); err != nil {
		logger.Println(err)
		t.equiv, t.equivList = map[string]TagEquiv{}, nil
	}
	if err := t.loadMandatory(paths.MandatoryTags); err != nil {
		logger.Println(err)
		t.mandatory, t.mandList = map[string]bool{}, nil
	}
	if err := t.loadOneLetter(paths.OneLetterCodes); err != nil {
		logger.Println(err)
		t.oneLetter = map[string]byte{}
	}
	if err := t.loadAtoms(paths.ResidueAtoms); err != nil {
		logger.Println(err)
		t.atoms = map[string][]string{}
	}
	return t
}

// Default gives the built in tables.
func Default() *Tables { return Load(Paths{}, nil) }

func (t *Tables) loadEquiv(path string) error {
	t.equiv = make(map[string]TagEquiv)
	t.equivList = nil
	var dups []string
	err := readTable(path, equivFile, func(f []string) error {
		if len(f) != 3 {
			return fmt.Errorf("want 3 columns, got %d", len(f))
		}
		e := TagEquiv{Exchange: f[0], Archival: f[1], Category: f[2]}
		if _, ok := t.equiv[e.Exchange]; ok {
			dups = append(dups, e.Exchange)
			return nil
		}
		t.equiv[e.Exchange] = e
		t.equivList = append(t.equivList, e)
		return nil
	})
	if err == nil && len(dups) > 0 {
		return fmt.Errorf("%w: %s: duplicate exchange tags, first kept: %s",
			common.ErrResource, equivFile, strings.Join(dups, " "))
	}
	return err
}

func (t *Tables) loadMandatory(path string) error {
	t.mandatory = make(map[string]bool)
	t.mandList = nil
	return readTable(path, mandatoryFile, func(f []string) error {
		if len(f) != 2 {
			return fmt.Errorf("want tag and y or n, got %d fields", len(f))
		}
		var m bool
		switch strings.ToLower(f[1]) {
		case "y", "yes":
			m = true
		case "n", "no":
		default:
			return fmt.Errorf("%s is not y or n", f[1])
		}
		if _, ok := t.mandatory[f[0]]; !ok {
			t.mandList = append(t.mandList, f[0])
		}
		t.mandatory[f[0]] = m
		return nil
	})
}

func (t *Tables) loadOneLetter(path string) error {
	t.oneLetter = make(map[string]byte)
	return readTable(path, oneLetterFile, func(f []string) error {
		if len(f) != 2 || len(f[1]) != 1 {
			return fmt.Errorf("want residue and one letter")
		}
		t.oneLetter[strings.ToUpper(f[0])] = f[1][0]
		return nil
	})
}

func (t *Tables) loadAtoms(path string) error {
	t.atoms = make(map[string][]string)
	return readTable(path, atomsFile, func(f []string) error {
		if len(f) < 2 {
			return fmt.Errorf("residue %s has no atoms", f[0])
		}
		t.atoms[strings.ToUpper(f[0])] = f[1:]
		return nil
	})
}

// Equiv looks up an exchange tag like _nef_sequence.chain_code.
func (t *Tables) Equiv(exchange string) (TagEquiv, bool) {
	e, ok := t.equiv[exchange]
	return e, ok
}

// EquivOf gives the entries for an exchange category, in the order they
// appear in the table.
func (t *Tables) EquivOf(category string) []TagEquiv {
	var ret []TagEquiv
	pfx := category + "."
	for _, e := range t.equivList {
		if strings.HasPrefix(e.Exchange, pfx) {
			ret = append(ret, e)
		}
	}
	return ret
}

// ArchivalOf gives the entries whose archival tag is in category.
func (t *Tables) ArchivalOf(category string) []TagEquiv {
	var ret []TagEquiv
	for _, e := range t.equivList {
		if e.Category == category {
			ret = append(ret, e)
		}
	}
	return ret
}

// Mandatory says if a tag must be present. known is false for tags
// that are not in the table.
func (t *Tables) Mandatory(tag string) (mandatory, known bool) {
	mandatory, known = t.mandatory[tag]
	return
}

// MandatoryOf lists the mandatory tags of a category.
func (t *Tables) MandatoryOf(category string) []string {
	var ret []string
	pfx := category + "."
	for _, tag := range t.mandList {
		if t.mandatory[tag] && strings.HasPrefix(tag, pfx) {
			ret = append(ret, tag)
		}
	}
	return ret
}

// OneLetter gives the one letter code of a residue, X if we do not
// know it.
func (t *Tables) OneLetter(res string) byte {
	if c, ok := t.oneLetter[strings.ToUpper(res)]; ok {
		return c
	}
	return 'X'
}

// Atoms returns the atom names of a standard residue in dictionary
// order. The slice belongs to the table. Do not change it.
func (t *Tables) Atoms(res string) ([]string, bool) {
	a, ok := t.atoms[strings.ToUpper(res)]
	return a, ok
}

// NEquiv is the number of entries in the equivalence table.
func (t *Tables) NEquiv() int { return len(t.equivList) }
