// 13 Oct 2026

// Package assign turns one atom reference, as a restraint file writes
// it, into the atoms of a coordinate model. A reference can be
// numbered like the author numbering of the model, like its label
// numbering, it may be a ligand, or it may be in some other chain.
// We try them in that order. Whatever works first is tried first for
// the rest of the file, since a file usually sticks to one way.
package assign

import (
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/andrew-torda/nmr_xlate/atomname"
	"github.com/andrew-torda/nmr_xlate/coord"
	"github.com/andrew-torda/nmr_xlate/pkg/common"
	"github.com/andrew-torda/nmr_xlate/polyseq"
	"github.com/andrew-torda/nmr_xlate/seqalign"
)

// Model is what we need from a coordinate model. *coord.Model is one.
type Model interface {
	AuthResidue(chain string, seq int) (*coord.Residue, bool)
	LabelResidue(chain string, seq int) (*coord.Residue, bool)
	NonPolymer(chain string, seq int) (*coord.Residue, bool)
	FirstResidue(chain string) (*coord.Residue, bool)
	Chains() []*coord.Chain
	Sequences() []polyseq.Sequence
	CyclicChains() map[string]bool
}

// AtomRef is an atom as the restraint file has it. Chain may be empty.
type AtomRef struct {
	Chain    string
	Seq      int
	ResName  string
	AtomName string
}

func (a AtomRef) String() string {
	return fmt.Sprintf("%s %d %s %s", a.Chain, a.Seq, a.ResName, a.AtomName)
}

// Atom is an atom of the model. Seq is the author number.
type Atom struct {
	Chain     string
	Seq       int
	ResName   string
	AtomName  string
	Ambiguity int
}

// Convention is a way of numbering a reference.
type Convention byte

const (
	Auth     Convention = iota // author chain and number
	Label                      // label number in the same chain
	NonPoly                    // ligand records
	AnyChain                   // any chain, either numbering
	Aux                        // the auxiliary model
	nConvention
)

func (c Convention) String() string {
	return [...]string{"auth", "label", "non-polymer", "any-chain", "auxiliary"}[c]
}

// Options for a resolver. Aliases maps a residue name to other names it
// may have in a model, like HIS to HSD and HSE.
type Options struct {
	Aliases map[string][]string
	Logger  *log.Logger
}

// Resolver holds the state for one file.
type Resolver struct {
	model, aux Model
	names      *atomname.Resolver
	aligner    *seqalign.Aligner
	aliases    map[string][]string
	logger     *log.Logger

	result    *seqalign.Result
	hint      *seqalign.Hint
	preferred Convention
	havePref  bool
	diags     []string
}

// New makes a resolver. aux and aligner may be nil.
func New(model, aux Model, names *atomname.Resolver, aligner *seqalign.Aligner, opts *Options) *Resolver {
	if opts == nil {
		opts = &Options{}
	}
	r := &Resolver{model: model, aux: aux, names: names, aligner: aligner, logger: opts.Logger}
	if r.logger == nil {
		r.logger = log.New(io.Discard, "", 0)
	}
	r.aliases = make(map[string][]string, len(opts.Aliases))
	for k, v := range opts.Aliases {
		k = strings.ToUpper(k)
		for _, a := range v {
			a = strings.ToUpper(a)
			r.aliases[k] = append(r.aliases[k], a)
			r.aliases[a] = append(r.aliases[a], k)
		}
	}
	return r
}

// Prepare aligns the sequence of the restraint file with the model and
// keeps the chain assignments. The result may carry a hint for a
// second pass.
func (r *Resolver) Prepare(refSeqs []polyseq.Sequence) *seqalign.Result {
	if r.aligner == nil {
		return nil
	}
	r.result = r.aligner.Align(refSeqs, r.model.Sequences(), r.model.CyclicChains())
	for _, ca := range r.result.Assignments {
		switch {
		case ca.Ambiguous:
			r.logger.Printf("ref chain %q could be any of %v", ca.RefChain, ca.Candidates)
		case ca.ModelChain == "":
			r.logger.Printf("ref chain %q matches no model chain", ca.RefChain)
		}
	}
	return r.result
}

// ApplyHint makes later lookups go through a hint from an earlier
// pass over the same file.
func (r *Resolver) ApplyHint(h *seqalign.Hint) { r.hint = h }

// Reset forgets what was learnt from a file. Chain assignments from
// Prepare and a hint stay, since they belong to the file pair.
func (r *Resolver) Reset() {
	r.havePref = false
	r.diags = nil
}

// Diagnostics are the atoms we resolved but which are not where the
// model's atom list says they should be.
func (r *Resolver) Diagnostics() []string { return r.diags }

// Preferred says which numbering worked first, if any did.
func (r *Resolver) Preferred() (Convention, bool) { return r.preferred, r.havePref }

// mapChain applies the hint or the chain assignment. A chain the
// aligner could not place stays an error on the second pass too,
// unless the hint names its model chain.
func (r *Resolver) mapChain(ref AtomRef) (string, int, error) {
	var ca seqalign.ChainAssignment
	found := false
	if r.result != nil {
		ca, found = r.result.Find(ref.Chain)
	}
	_, named := r.hintChain(ref.Chain)
	if found && ca.Ambiguous && !named {
		return "", 0, fmt.Errorf("%w: %s could be chain %s", common.ErrAmbiguousChain,
			ref, strings.Join(ca.Candidates, " or "))
	}
	if !r.hint.Empty() {
		c, s := r.hint.Map(ref.Chain, ref.Seq)
		return c, s, nil
	}
	if found && ca.ModelChain != "" {
		return ca.ModelChain, ref.Seq, nil
	}
	return ref.Chain, ref.Seq, nil
}

func (r *Resolver) hintChain(chain string) (string, bool) {
	if r.hint == nil {
		return "", false
	}
	c, ok := r.hint.ChainMap[chain]
	return c, ok
}

// Resolve finds the atoms for a reference. No match is an
// ErrUnresolved, a chain we could not place an ErrAmbiguousChain.
func (r *Resolver) Resolve(ref AtomRef) ([]Atom, error) {
	chain, seq, err := r.mapChain(ref)
	if err != nil {
		return nil, err
	}
	order := make([]Convention, 0, nConvention)
	if r.havePref {
		order = append(order, r.preferred)
	}
	for c := Auth; c < nConvention; c++ {
		if !r.havePref || c != r.preferred {
			order = append(order, c)
		}
	}
	for _, conv := range order {
		for _, res := range r.candidates(conv, chain, seq) {
			if !r.nameOK(ref.ResName, res.CompID) {
				continue
			}
			atoms := r.atoms(res, ref, conv)
			if len(atoms) == 0 {
				continue
			}
			if !r.havePref {
				r.preferred, r.havePref = conv, true
				r.logger.Printf("numbering looks like %s", conv)
			}
			return atoms, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", common.ErrUnresolved, ref)
}

// candidates lists the residues one way of numbering gives.
func (r *Resolver) candidates(conv Convention, chain string, seq int) []*coord.Residue {
	one := func(res *coord.Residue, ok bool) []*coord.Residue {
		if ok {
			return []*coord.Residue{res}
		}
		return nil
	}
	switch conv {
	case Auth:
		return one(r.model.AuthResidue(chain, seq))
	case Label:
		return one(r.model.LabelResidue(chain, seq))
	case NonPoly:
		return one(r.model.NonPolymer(chain, seq))
	case AnyChain:
		var ret []*coord.Residue
		for _, c := range r.model.Chains() {
			if res, ok := c.ByAuth(seq); ok {
				ret = append(ret, res)
			}
			if res, ok := c.ByLabel(seq); ok && res.LabelSeq != res.AuthSeq {
				ret = append(ret, res)
			}
		}
		return ret
	case Aux:
		if r.aux == nil {
			return nil
		}
		if res, ok := r.aux.AuthResidue(chain, seq); ok {
			return []*coord.Residue{res}
		}
		return one(r.aux.NonPolymer(chain, seq))
	}
	return nil
}

// nameOK compares residue names, allowing for aliases. An empty ref
// name matches anything.
func (r *Resolver) nameOK(ref, model string) bool {
	if ref == "" || strings.EqualFold(ref, model) {
		return true
	}
	for _, a := range r.aliases[strings.ToUpper(ref)] {
		if a == strings.ToUpper(model) {
			return true
		}
	}
	return false
}

// isFirst says if a residue starts its chain in the model it came from.
func isFirst(m Model, res *coord.Residue) bool {
	if m == nil {
		return false
	}
	f, ok := m.FirstResidue(res.Chain)
	return ok && f == res
}

// atoms expands the atom name in a residue and checks the result
// against the atom list. A model residue under an alias name is
// expanded with the reference's name. A plain H on the first residue
// is really H1, since the model has an amine there.
func (r *Resolver) atoms(res *coord.Residue, ref AtomRef, conv Convention) []Atom {
	src := r.model
	if conv == Aux {
		src = r.aux
	}
	name := ref.AtomName
	resolved := r.names.Resolve(res.CompID, name)
	if len(resolved.Atoms) == 0 && ref.ResName != "" && !strings.EqualFold(ref.ResName, res.CompID) {
		resolved = r.names.Resolve(strings.ToUpper(ref.ResName), name) // an alias we have no atoms for
	}
	names := resolved.Atoms
	if name == "H" && isFirst(src, res) && !res.HasAtom("H") && res.HasAtom("H1") {
		r.logger.Printf("chain %s residue %d: H taken as H1", res.Chain, res.AuthSeq)
		names = []string{"H1"}
	}
	if len(names) == 0 {
		return nil
	}
	ret := make([]Atom, len(names))
	for i, n := range names {
		ret[i] = Atom{Chain: res.Chain, Seq: res.AuthSeq, ResName: res.CompID, AtomName: n,
			Ambiguity: resolved.Ambiguity}
		r.crossCheck(res, n)
	}
	return ret
}

// crossCheck notes an atom that is not in the atom list. Missing
// residues and hydrogens in a model without hydrogens are expected.
func (r *Resolver) crossCheck(res *coord.Residue, name string) {
	if res.Unobserved || res.HasAtom(name) {
		return
	}
	if atomname.Parse(name).AtomType() == "H" && !res.HasHydrogens() {
		return
	}
	r.diags = append(r.diags, fmt.Sprintf("chain %s residue %d %s: atom %s not in atom_site",
		res.Chain, res.AuthSeq, res.CompID, name))
}
