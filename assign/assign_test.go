package assign_test

import (
	"errors"
	"testing"

	"github.com/andrew-torda/nmr_xlate/assign"
	"github.com/andrew-torda/nmr_xlate/atomname"
	"github.com/andrew-torda/nmr_xlate/ccd"
	"github.com/andrew-torda/nmr_xlate/coord"
	"github.com/andrew-torda/nmr_xlate/dict"
	"github.com/andrew-torda/nmr_xlate/pkg/common"
	"github.com/andrew-torda/nmr_xlate/polyseq"
	"github.com/andrew-torda/nmr_xlate/seqalign"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type resDef struct {
	auth, label int
	comp        string
	atoms       []string
}

func mkChain(auth, label string, defs []resDef) *coord.Chain {
	c := &coord.Chain{AuthID: auth, LabelID: label}
	for _, d := range defs {
		c.Residues = append(c.Residues, &coord.Residue{Chain: auth, LabelChain: label,
			AuthSeq: d.auth, LabelSeq: d.label, CompID: d.comp, Atoms: d.atoms})
	}
	return c
}

var heavy = []string{"N", "CA", "C", "O", "CB"}

// Chain A is numbered from 10 by the author, from 1 by label. There is
// a zinc in chain A.
func smallModel() *coord.Model {
	a := mkChain("A", "A", []resDef{
		{10, 1, "MET", []string{"N", "CA", "C", "O", "CB", "H1", "H2", "H3", "HA"}},
		{11, 2, "LYS", []string{"N", "CA", "C", "O", "CB", "H", "HA", "HB2", "HB3"}},
		{12, 3, "GLU", []string{"N", "CA", "C", "O", "CB", "H"}},
		{13, 4, "HIS", []string{"N", "CA", "C", "O", "CB", "H", "HA"}},
	})
	zn := mkChain("A", "B", []resDef{{101, 0, "ZN", []string{"ZN"}}})
	return &coord.Model{Polymers: []*coord.Chain{a}, NonPolymers: []*coord.Chain{zn}}
}

func newNames() *atomname.Resolver {
	acc := ccd.NewMemAccessor(ccd.Component{ID: "ZN", Atoms: []ccd.Atom{{Name: "ZN", Element: "ZN"}}})
	return atomname.New(dict.Default(), ccd.NewCache(acc, nil))
}

func newResolver(m, aux assign.Model, opts *assign.Options) *assign.Resolver {
	tables := dict.Default()
	return assign.New(m, aux, newNames(), seqalign.New(tables, seqalign.DefaultPnlty, nil), opts)
}

func names(atoms []assign.Atom) []string {
	ret := make([]string, len(atoms))
	for i, a := range atoms {
		ret[i] = a.AtomName
	}
	return ret
}

func TestConventions(t *testing.T) {
	r := newResolver(smallModel(), nil, nil)
	atoms, err := r.Resolve(assign.AtomRef{Chain: "A", Seq: 11, ResName: "LYS", AtomName: "HB%"})
	require.NoError(t, err)
	assert.Equal(t, []string{"HB2", "HB3"}, names(atoms))
	assert.Equal(t, 11, atoms[0].Seq)
	assert.Equal(t, 1, atoms[0].Ambiguity)
	conv, ok := r.Preferred()
	assert.True(t, ok)
	assert.Equal(t, assign.Auth, conv)

	r.Reset()
	atoms, err = r.Resolve(assign.AtomRef{Chain: "A", Seq: 2, ResName: "LYS", AtomName: "CA"})
	require.NoError(t, err)
	assert.Equal(t, 11, atoms[0].Seq, "label number 2 is author 11")
	conv, _ = r.Preferred()
	assert.Equal(t, assign.Label, conv)

	// label is now preferred, so 3 is GLU 12 and not something else
	atoms, err = r.Resolve(assign.AtomRef{Chain: "A", Seq: 3, ResName: "GLU", AtomName: "CB"})
	require.NoError(t, err)
	assert.Equal(t, 12, atoms[0].Seq)

	atoms, err = r.Resolve(assign.AtomRef{Chain: "A", Seq: 101, ResName: "ZN", AtomName: "ZN"})
	require.NoError(t, err)
	assert.Equal(t, "ZN", atoms[0].ResName)

	atoms, err = r.Resolve(assign.AtomRef{Chain: "Q", Seq: 13, ResName: "HIS", AtomName: "CA"})
	require.NoError(t, err, "any chain")
	assert.Equal(t, "A", atoms[0].Chain)
}

func TestUnresolved(t *testing.T) {
	r := newResolver(smallModel(), nil, nil)
	for _, ref := range []assign.AtomRef{
		{Chain: "A", Seq: 11, ResName: "ALA", AtomName: "CA"},  // wrong residue
		{Chain: "A", Seq: 11, ResName: "LYS", AtomName: "QQ"},  // no such atom
		{Chain: "A", Seq: 500, ResName: "LYS", AtomName: "CA"}, // no such residue
	} {
		_, err := r.Resolve(ref)
		require.Error(t, err, ref.String())
		assert.True(t, errors.Is(err, common.ErrUnresolved), err.Error())
		assert.False(t, common.IsFatal(err))
	}
	_, ok := r.Preferred()
	assert.False(t, ok)
}

func TestFirstResidueH(t *testing.T) {
	r := newResolver(smallModel(), nil, nil)
	atoms, err := r.Resolve(assign.AtomRef{Chain: "A", Seq: 10, ResName: "MET", AtomName: "H"})
	require.NoError(t, err)
	assert.Equal(t, []string{"H1"}, names(atoms))

	atoms, err = r.Resolve(assign.AtomRef{Chain: "A", Seq: 11, ResName: "LYS", AtomName: "H"})
	require.NoError(t, err)
	assert.Equal(t, []string{"H"}, names(atoms), "only the first residue")
	assert.Empty(t, r.Diagnostics())
}

func TestDiagnostics(t *testing.T) {
	r := newResolver(smallModel(), nil, nil)
	_, err := r.Resolve(assign.AtomRef{Chain: "A", Seq: 12, ResName: "GLU", AtomName: "HA"})
	require.NoError(t, err, "an atom missing from the model is not an error")
	require.Len(t, r.Diagnostics(), 1)
	assert.Contains(t, r.Diagnostics()[0], "HA")
	r.Reset()
	assert.Empty(t, r.Diagnostics())
}

func TestAliasAndAux(t *testing.T) {
	aux := &coord.Model{Polymers: []*coord.Chain{
		mkChain("A", "A", []resDef{{20, 11, "SER", heavy}}),
	}}
	m := smallModel()
	m.Polymers[0].Residues[3].CompID = "HSD"
	r := newResolver(m, aux, &assign.Options{Aliases: map[string][]string{"his": {"hsd", "hse"}}})

	atoms, err := r.Resolve(assign.AtomRef{Chain: "A", Seq: 13, ResName: "HIS", AtomName: "CA"})
	require.NoError(t, err)
	assert.Equal(t, "HSD", atoms[0].ResName)

	atoms, err = r.Resolve(assign.AtomRef{Chain: "A", Seq: 20, ResName: "SER", AtomName: "CB"})
	require.NoError(t, err)
	assert.Equal(t, 20, atoms[0].Seq)
}

// Two identical chains. Numbering picks B, or nothing.
func TestMultimer(t *testing.T) {
	defs := func(first int) []resDef {
		return []resDef{
			{first, 1, "MET", heavy}, {first + 1, 2, "LYS", heavy},
			{first + 2, 3, "GLU", heavy}, {first + 3, 4, "SER", heavy},
		}
	}
	m := &coord.Model{Polymers: []*coord.Chain{mkChain("A", "A", defs(1)), mkChain("B", "B", defs(101))}}
	ref := polyseq.Sequence{Chain: "."}
	for i, n := range []string{"MET", "LYS", "GLU", "SER"} {
		ref.Residues = append(ref.Residues, polyseq.ResidueKey{Chain: ".", Seq: 101 + i, Name: n})
	}

	r := newResolver(m, nil, nil)
	res := r.Prepare([]polyseq.Sequence{ref})
	require.NotNil(t, res)
	assert.Equal(t, "B", res.Assignments[0].ModelChain)
	atoms, err := r.Resolve(assign.AtomRef{Chain: ".", Seq: 102, ResName: "LYS", AtomName: "CA"})
	require.NoError(t, err)
	assert.Equal(t, "B", atoms[0].Chain)

	for i := range ref.Residues {
		ref.Residues[i].Seq = 201 + i
	}
	r = newResolver(m, nil, nil)
	res = r.Prepare([]polyseq.Sequence{ref})
	assert.True(t, res.Assignments[0].Ambiguous)
	_, err = r.Resolve(assign.AtomRef{Chain: ".", Seq: 202, ResName: "LYS", AtomName: "CA"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrAmbiguousChain))
	assert.True(t, errors.Is(err, common.ErrUnresolved))

	// A hint for some other chain does not place this one.
	r.ApplyHint(&seqalign.Hint{Offsets: map[string]int{"Q": 5}})
	_, err = r.Resolve(assign.AtomRef{Chain: ".", Seq: 202, ResName: "LYS", AtomName: "CA"})
	assert.True(t, errors.Is(err, common.ErrAmbiguousChain))

	r.ApplyHint(&seqalign.Hint{ChainMap: map[string]string{".": "A"}, Offsets: map[string]int{".": -200}})
	atoms, err = r.Resolve(assign.AtomRef{Chain: ".", Seq: 202, ResName: "LYS", AtomName: "CA"})
	require.NoError(t, err)
	assert.Equal(t, "A", atoms[0].Chain)
	assert.Equal(t, 2, atoms[0].Seq)
}

// A file numbered 100 too high resolves on a second pass with the hint.
func TestHintSecondPass(t *testing.T) {
	m := smallModel()
	ref := polyseq.Sequence{Chain: "A"}
	for i, n := range []string{"MET", "LYS", "GLU", "HIS"} {
		ref.Residues = append(ref.Residues, polyseq.ResidueKey{Chain: "A", Seq: 110 + i, Name: n})
	}
	r := newResolver(m, nil, nil)
	res := r.Prepare([]polyseq.Sequence{ref})
	require.NotNil(t, res.Hint)
	assert.Equal(t, -100, res.Hint.Offsets["A"])

	atom := assign.AtomRef{Chain: "A", Seq: 112, ResName: "GLU", AtomName: "CA"}
	_, err := r.Resolve(atom)
	require.Error(t, err)

	r.Reset()
	r.ApplyHint(res.Hint)
	atoms, err := r.Resolve(atom)
	require.NoError(t, err)
	assert.Equal(t, 12, atoms[0].Seq)
}
