package ccd

import (
	"fmt"
	"io"
	"strings"

	"github.com/andrew-torda/nmr_xlate/pkg/common"
	"github.com/andrew-torda/nmr_xlate/star"
)

// cifCol says which column we want and what it is called if the first
// name is not there.
type cifCol struct {
	name  string
	alt   string
	index int
}

// getCols finds each column. missing lists the ones not found under
// either name.
func getCols(lp *star.Loop, cols []cifCol) (missing []string) {
	for i := range cols {
		c := &cols[i]
		c.index = lp.ColIndex(c.name)
		if c.index == -1 && c.alt != "" {
			c.index = lp.ColIndex(c.alt)
		}
		if c.index == -1 {
			missing = append(missing, c.name)
		}
	}
	return missing
}

func cell(lp *star.Loop, row int, c cifCol) string {
	if c.index == -1 {
		return ""
	}
	s := lp.Data[row][c.index]
	if common.IsNull(s) {
		return ""
	}
	return s
}

// ComponentFromEntry builds a component from one data block of a
// components.cif file.
func ComponentFromEntry(e *star.Entry) (Component, error) {
	var c Component
	if lp := e.Table("_chem_comp"); lp != nil {
		c.ID = lp.Value(0, "id")
		c.Status = lp.Value(0, "pdbx_release_status")
	}
	if c.ID == "" {
		c.ID = e.Name
	}
	atomCols := []cifCol{{name: "atom_id"}, {name: "type_symbol"}, {name: "pdbx_leaving_atom_flag"}}
	if lp := e.Table("_chem_comp_atom"); lp != nil {
		if getCols(lp, atomCols); atomCols[0].index == -1 {
			return c, fmt.Errorf("%s: _chem_comp_atom has no atom_id", c.ID)
		}
		for i := range lp.Data {
			c.Atoms = append(c.Atoms, Atom{
				Name:    cell(lp, i, atomCols[0]),
				Element: cell(lp, i, atomCols[1]),
				Leaving: strings.EqualFold(cell(lp, i, atomCols[2]), "Y"),
			})
		}
	}
	bondCols := []cifCol{{name: "atom_id_1"}, {name: "atom_id_2"}, {name: "value_order", alt: "pdbx_value_order"}}
	if lp := e.Table("_chem_comp_bond"); lp != nil {
		if missing := getCols(lp, bondCols); len(missing) > 0 && missing[0] != "value_order" {
			return c, fmt.Errorf("%s: _chem_comp_bond missing %s", c.ID, strings.Join(missing, " "))
		}
		for i := range lp.Data {
			c.Bonds = append(c.Bonds, Bond{
				Atom1: cell(lp, i, bondCols[0]),
				Atom2: cell(lp, i, bondCols[1]),
				Order: cell(lp, i, bondCols[2]),
			})
		}
	}
	return c, nil
}

// NewMemAccessorFromCif reads every data block of a chemical component
// file.
func NewMemAccessorFromCif(r io.Reader) (*MemAccessor, error) {
	entries, err := star.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return fromEntries(entries)
}

// NewMemAccessorFromFile is NewMemAccessorFromCif for a file, maybe
// gzipped.
func NewMemAccessorFromFile(fname string) (*MemAccessor, error) {
	entries, err := star.ReadFile(fname)
	if err != nil {
		return nil, err
	}
	return fromEntries(entries)
}

func fromEntries(entries []*star.Entry) (*MemAccessor, error) {
	comps := make([]Component, 0, len(entries))
	for _, e := range entries {
		c, err := ComponentFromEntry(e)
		if err != nil {
			return nil, err
		}
		comps = append(comps, c)
	}
	return NewMemAccessor(comps...), nil
}
