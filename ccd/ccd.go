// 12 Oct 2026

// Package ccd gives access to the chemical component dictionary, the
// list of atoms and bonds of every residue and ligand. There are a few
// ways in. MemAccessor keeps components in memory, from Go code or a
// components.cif file. Store keeps them in an sqlite file. Cache sits
// in front of any of them and remembers the last residue asked for.
package ccd

import (
	"errors"
	"strings"
)

// ErrNotFound is a component id that is not in the dictionary.
var ErrNotFound = errors.New("ccd: component not found")

// Atom is one chem_comp_atom row.
type Atom struct {
	Name    string
	Element string
	Leaving bool // pdbx_leaving_atom_flag
}

// Bond is one chem_comp_bond row.
type Bond struct {
	Atom1, Atom2 string
	Order        string // SING, DOUB, ...
}

// Component is everything we keep about one residue or ligand.
type Component struct {
	ID     string
	Status string // pdbx_release_status, REL or OBS ...
	Atoms  []Atom
	Bonds  []Bond
}

// Accessor is the dictionary interface. Select makes a component the
// current one, the other methods then describe it. Select returns
// false with no error for an id that is not there.
type Accessor interface {
	Select(id string) (bool, error)
	Atoms() []Atom
	Bonds() []Bond
	Status() string
}

// AtomNames gives just the names, in dictionary order.
func AtomNames(atoms []Atom) []string {
	ret := make([]string, len(atoms))
	for i, a := range atoms {
		ret[i] = a.Name
	}
	return ret
}

// MemAccessor keeps components in a map.
type MemAccessor struct {
	comps map[string]*Component
	cur   *Component
}

// NewMemAccessor makes an accessor from components. A later component
// with the same id replaces an earlier one.
func NewMemAccessor(comps ...Component) *MemAccessor {
	m := &MemAccessor{comps: make(map[string]*Component, len(comps))}
	for i := range comps {
		c := comps[i]
		m.comps[strings.ToUpper(c.ID)] = &c
	}
	return m
}

// Select implements Accessor.
func (m *MemAccessor) Select(id string) (bool, error) {
	m.cur = m.comps[strings.ToUpper(id)]
	return m.cur != nil, nil
}

// Atoms of the current component
func (m *MemAccessor) Atoms() []Atom {
	if m.cur == nil {
		return nil
	}
	return m.cur.Atoms
}

// Bonds of the current component
func (m *MemAccessor) Bonds() []Bond {
	if m.cur == nil {
		return nil
	}
	return m.cur.Bonds
}

// Status of the current component
func (m *MemAccessor) Status() string {
	if m.cur == nil {
		return ""
	}
	return m.cur.Status
}

// Components lists what is in the accessor, for loading a Store.
func (m *MemAccessor) Components() []Component {
	ret := make([]Component, 0, len(m.comps))
	for _, c := range m.comps {
		ret = append(ret, *c)
	}
	return ret
}

// Len is the number of components.
func (m *MemAccessor) Len() int { return len(m.comps) }
