package star

import (
	"strings"
)

// Dialect is the flavour of the file, decided from the loop and save
// frame categories, never from the file name.
type Dialect byte

const (
	Unknown Dialect = iota
	NEF             // exchange format, every category starts with _nef_
	NMRSTAR         // archival format, categories are capitalised
)

const nefPrefix = "_nef_"

// String is what goes in the file_type of a report.
func (d Dialect) String() string {
	switch d {
	case NEF:
		return "nef"
	case NMRSTAR:
		return "nmr-star"
	}
	return "unknown"
}

// IsNEF says if a category belongs to the exchange format.
func IsNEF(category string) bool {
	return strings.HasPrefix(strings.ToLower(category), nefPrefix)
}

// isArchival is true for _Entry, _Atom_chem_shift and friends. mmCIF
// categories are all lower case.
func isArchival(category string) bool {
	if len(category) < 2 || category[0] != '_' {
		return false
	}
	c := category[1]
	return c >= 'A' && c <= 'Z'
}

// Classify looks at every category in an entry. One _nef_ category is
// enough to call it NEF.
func Classify(e *Entry) Dialect {
	if e == nil {
		return Unknown
	}
	var cats []string
	for _, sf := range e.Frames {
		cats = append(cats, sf.TagPrefix)
		for _, lp := range sf.Loops {
			cats = append(cats, lp.Category)
		}
	}
	for _, lp := range e.Loops {
		cats = append(cats, lp.Category)
	}
	for _, t := range e.Items {
		c, _ := SplitTag(t.Name)
		cats = append(cats, c)
	}
	ret := Unknown
	for _, c := range cats {
		if IsNEF(c) {
			return NEF
		}
		if isArchival(c) {
			ret = NMRSTAR
		}
	}
	return ret
}
