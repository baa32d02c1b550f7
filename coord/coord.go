// 13 Oct 2026

// Package coord holds what we need to know about a coordinate model:
// chains, residues with both numberings, their atoms, which residues
// were never seen and which chains are closed rings.
package coord

import (
	"github.com/andrew-torda/nmr_xlate/polyseq"
)

// Residue is one residue of a model. AuthSeq is the author number,
// LabelSeq the number in the entity sequence (0 for ligands).
type Residue struct {
	Chain      string // author chain id
	LabelChain string // label_asym_id
	AuthSeq    int
	LabelSeq   int
	CompID     string
	Atoms      []string // atom_site names in file order
	Unobserved bool
}

// HasAtom says if the residue has an atom in the atom_site list.
func (r *Residue) HasAtom(name string) bool {
	for _, a := range r.Atoms {
		if a == name {
			return true
		}
	}
	return false
}

// HasHydrogens says if any of the atoms looks like a hydrogen.
func (r *Residue) HasHydrogens() bool {
	for _, a := range r.Atoms {
		if a != "" && (a[0] == 'H' || (len(a) > 1 && a[0] >= '0' && a[0] <= '9' && a[1] == 'H')) {
			return true
		}
	}
	return false
}

// Chain is a polymer chain or the ligands of one author chain.
type Chain struct {
	AuthID   string
	LabelID  string
	EntityID string
	Cyclic   bool
	Residues []*Residue // sorted by label number for polymers
}

// Model is the first model of a coordinate file.
type Model struct {
	Polymers    []*Chain
	NonPolymers []*Chain
}

// Chain finds a polymer chain by author id.
func (m *Model) Chain(authID string) *Chain {
	for _, c := range m.Polymers {
		if c.AuthID == authID {
			return c
		}
	}
	return nil
}

// ByAuth finds a residue by author chain and author number.
func (c *Chain) ByAuth(seq int) (*Residue, bool) {
	for _, r := range c.Residues {
		if r.AuthSeq == seq {
			return r, true
		}
	}
	return nil, false
}

// ByLabel finds a residue by its label number.
func (c *Chain) ByLabel(seq int) (*Residue, bool) {
	for _, r := range c.Residues {
		if r.LabelSeq == seq {
			return r, true
		}
	}
	return nil, false
}

// First is the first residue of a chain, nil for an empty chain.
func (c *Chain) First() *Residue {
	if len(c.Residues) == 0 {
		return nil
	}
	return c.Residues[0]
}

// AuthResidue finds a polymer residue with author numbering.
func (m *Model) AuthResidue(chain string, seq int) (*Residue, bool) {
	if c := m.Chain(chain); c != nil {
		return c.ByAuth(seq)
	}
	return nil, false
}

// LabelResidue finds a polymer residue in an author chain, but with
// the label number.
func (m *Model) LabelResidue(chain string, seq int) (*Residue, bool) {
	if c := m.Chain(chain); c != nil {
		return c.ByLabel(seq)
	}
	return nil, false
}

// NonPolymer finds a ligand by author chain and number.
func (m *Model) NonPolymer(chain string, seq int) (*Residue, bool) {
	for _, c := range m.NonPolymers {
		if c.AuthID != chain {
			continue
		}
		if r, ok := c.ByAuth(seq); ok {
			return r, true
		}
	}
	return nil, false
}

// Chains lists polymers, then ligand groups.
func (m *Model) Chains() []*Chain {
	ret := make([]*Chain, 0, len(m.Polymers)+len(m.NonPolymers))
	ret = append(ret, m.Polymers...)
	return append(ret, m.NonPolymers...)
}

// FirstResidue is the first residue of a polymer chain.
func (m *Model) FirstResidue(chain string) (*Residue, bool) {
	if c := m.Chain(chain); c != nil && c.First() != nil {
		return c.First(), true
	}
	return nil, false
}

// Sequences gives each polymer chain as a sequence in author numbering,
// ready for alignment.
func (m *Model) Sequences() []polyseq.Sequence {
	ret := make([]polyseq.Sequence, 0, len(m.Polymers))
	for _, c := range m.Polymers {
		s := polyseq.Sequence{Chain: c.AuthID, Residues: make([]polyseq.ResidueKey, 0, len(c.Residues))}
		for _, r := range c.Residues {
			s.Residues = append(s.Residues, polyseq.ResidueKey{Chain: c.AuthID, Seq: r.AuthSeq, Name: r.CompID})
		}
		ret = append(ret, s)
	}
	return ret
}

// CyclicChains says which chains are closed rings.
func (m *Model) CyclicChains() map[string]bool {
	ret := make(map[string]bool)
	for _, c := range m.Polymers {
		if c.Cyclic {
			ret[c.AuthID] = true
		}
	}
	return ret
}
