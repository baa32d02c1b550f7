// 13 Oct 2026

// Package atomname turns the atom names people write in NMR files into
// the atom names of the residue dictionary. The exchange format lets
// one write
//
//	HB%    every HB followed by digits, HB1 HB2 HB3
//	HB*    every HB followed by anything
//	HBx    the first of two HB atoms, HBy the second
//	HDx%   the lower numbered of two groups, like HD11 HD12 HD13
//	H%     the three hydrogens of a charged N terminus
//
// Anything else is taken literally. The ambiguity code says how sure
// we are: 1 for a plain name or a set of equivalent atoms, 2 for one of
// a stereo pair.
package atomname

import (
	"strings"

	"github.com/andrew-torda/nmr_xlate/ccd"
	"github.com/andrew-torda/nmr_xlate/dict"
)

// Shape is the form of an atom name token.
type Shape byte

const (
	ShapeLiteral    Shape = iota // no suffix we know
	ShapeStereoWild              // stem, x or y, wildcard
	ShapeWild                    // stem, wildcard
	ShapeStereo                  // stem, x or y
	ShapeAmine                   // H% on its own
)

func (s Shape) String() string {
	switch s {
	case ShapeStereoWild:
		return "stereo+wildcard"
	case ShapeWild:
		return "wildcard"
	case ShapeStereo:
		return "stereo"
	case ShapeAmine:
		return "amine"
	}
	return "literal"
}

// Pattern is a token after parsing.
type Pattern struct {
	Token  string
	Shape  Shape
	Stem   string // upper case part before any suffix
	Stereo byte   // 'x', 'y' or 0
	Wild   byte   // '%', '*' or 0
}

// amineH are the atoms H% stands for without looking at the residue
var amineH = []string{"H1", "H2", "H3"}

func isWild(c byte) bool   { return c == '%' || c == '*' }
func isStereo(c byte) bool { return c == 'x' || c == 'y' }

// Parse decides the shape of a token. It reads the token from the end:
// first an optional wildcard, then an optional stereo letter. What is
// left is the stem, which must not be empty.
func Parse(token string) Pattern {
	p := Pattern{Token: token, Shape: ShapeLiteral, Stem: strings.ToUpper(token)}
	if token == "H%" {
		p.Shape, p.Stem, p.Wild = ShapeAmine, "H", '%'
		return p
	}
	end := len(token)
	var wild, stereo byte
	if end > 1 && isWild(token[end-1]) {
		wild = token[end-1]
		end--
	}
	if end > 1 && isStereo(token[end-1]) {
		stereo = token[end-1]
		end--
	}
	stem := strings.ToUpper(token[:end])
	switch {
	case wild != 0 && stereo != 0:
		p.Shape = ShapeStereoWild
	case wild != 0:
		p.Shape = ShapeWild
	case stereo != 0:
		p.Shape = ShapeStereo
	default:
		return p
	}
	p.Stem, p.Stereo, p.Wild = stem, stereo, wild
	return p
}

// AtomType is the element we guess from a name, the first letter.
// Names like 1HB start with a digit, so we skip those.
func (p Pattern) AtomType() string {
	for i := 0; i < len(p.Stem); i++ {
		if c := p.Stem[i]; c >= 'A' && c <= 'Z' {
			return string(c)
		}
	}
	return ""
}

// Result is what a token resolves to. Atoms are in dictionary order.
type Result struct {
	AtomType  string
	Atoms     []string
	Ambiguity int
}

// Resolver knows the atoms of residues. The built in table comes first,
// then the residue dictionary through the cache.
type Resolver struct {
	tables *dict.Tables
	cache  *ccd.Cache
}

// New makes a resolver. Either argument may be nil.
func New(tables *dict.Tables, cache *ccd.Cache) *Resolver {
	return &Resolver{tables: tables, cache: cache}
}

// Atoms gives the atom names of a residue and whether we know it at
// all. The slice must not be changed.
func (r *Resolver) Atoms(res string) ([]string, bool) {
	if r.tables != nil {
		if a, ok := r.tables.Atoms(res); ok {
			return a, true
		}
	}
	if r.cache != nil {
		if e := r.cache.Lookup(res); e.Found {
			return e.AtomNames(), true
		}
	}
	return nil, false
}

// Resolve expands a token for a residue. Finding nothing is not an
// error, the Atoms are then empty.
func (r *Resolver) Resolve(res, token string) Result {
	p := Parse(token)
	ret := Result{AtomType: p.AtomType(), Ambiguity: 1}
	if p.Shape == ShapeAmine {
		ret.Atoms = append([]string(nil), amineH...)
		return ret
	}
	atoms, _ := r.Atoms(res)
	ret.Atoms = p.Match(atoms)
	if p.Shape == ShapeStereo || p.Shape == ShapeStereoWild {
		ret.Ambiguity = 2
	}
	return ret
}

// Match applies a pattern to a list of atom names.
func (p Pattern) Match(atoms []string) []string {
	switch p.Shape {
	case ShapeAmine:
		return append([]string(nil), amineH...)
	case ShapeLiteral:
		for _, a := range atoms {
			if a == p.Stem {
				return []string{a}
			}
		}
		return nil
	case ShapeWild:
		var ret []string
		for _, a := range atoms {
			if rest, ok := strings.CutPrefix(a, p.Stem); ok && p.wildOK(rest) {
				ret = append(ret, a)
			}
		}
		return ret
	case ShapeStereo:
		return p.stereoPair(atoms)
	case ShapeStereoWild:
		return p.stereoGroup(atoms)
	}
	return nil
}

// wildOK says if what follows the stem fits the wildcard. % wants
// digits, * anything, but there has to be something.
func (p Pattern) wildOK(rest string) bool {
	if rest == "" {
		return false
	}
	if p.Wild == '*' {
		return true
	}
	return allDigits(rest)
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}

// stereoPair is HBx / HBy. There must be exactly two atoms that start
// with the stem. x is the first, y the last in dictionary order.
func (p Pattern) stereoPair(atoms []string) []string {
	var cand []string
	for _, a := range atoms {
		if len(a) > len(p.Stem) && strings.HasPrefix(a, p.Stem) {
			cand = append(cand, a)
		}
	}
	if len(cand) != 2 {
		return nil
	}
	if p.Stereo == 'x' {
		return cand[:1]
	}
	return cand[1:]
}

// stereoGroup is HDx% / HDy%. Atoms are grouped by the digit after the
// stem, x takes the lowest group and y the highest.
func (p Pattern) stereoGroup(atoms []string) []string {
	groups := make(map[byte][]string)
	var lo, hi byte
	for _, a := range atoms {
		rest, ok := strings.CutPrefix(a, p.Stem)
		if !ok || rest == "" || rest[0] < '0' || rest[0] > '9' {
			continue
		}
		d, tail := rest[0], rest[1:]
		if p.Wild == '%' && !allDigits(tail) {
			continue
		}
		if len(groups) == 0 || d < lo {
			lo = d
		}
		if len(groups) == 0 || d > hi {
			hi = d
		}
		groups[d] = append(groups[d], a)
	}
	if len(groups) < 2 {
		return nil
	}
	if p.Stereo == 'x' {
		return groups[lo]
	}
	return groups[hi]
}
