package polyseq_test

import (
	"errors"
	"testing"

	"github.com/andrew-torda/nmr_xlate/pkg/common"
	"github.com/andrew-torda/nmr_xlate/polyseq"
	"github.com/andrew-torda/nmr_xlate/star"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoLoops = `data_seqs
save_nef_molecular_system
   _nef_molecular_system.sf_category nef_molecular_system
   loop_
      _nef_sequence.chain_code
      _nef_sequence.sequence_code
      _nef_sequence.residue_name
     B 3 GLY
     A 2 LYS
     A 1 MET
     B 4 ALA
   stop_
save_
save_nef_distance_restraint_list_x
   _nef_distance_restraint_list.sf_category nef_distance_restraint_list
   loop_
      _nef_distance_restraint.chain_code_1
      _nef_distance_restraint.sequence_code_1
      _nef_distance_restraint.residue_name_1
      _nef_distance_restraint.chain_code_2
      _nef_distance_restraint.sequence_code_2
      _nef_distance_restraint.residue_name_2
     A 1 MET A 5 SER
     A 1 MET . . .
   stop_
save_
`

func read(t *testing.T, s string) *star.Entry {
	e, err := star.ReadString(s)
	require.NoError(t, err)
	return e
}

func TestExtract(t *testing.T) {
	e := read(t, twoLoops)
	got, err := polyseq.Extract(e, "_nef_sequence", polyseq.NEFSequence, false)
	require.NoError(t, err)
	require.Len(t, got, 1)
	seqs := got[0]
	require.Len(t, seqs, 2)
	assert.Equal(t, "B", seqs[0].Chain, "chains in order of first appearance")
	assert.Equal(t, []string{"GLY", "ALA"}, seqs[0].Names())
	assert.Equal(t, []string{"MET", "LYS"}, seqs[1].Names(), "sorted by number")
	r, ok := seqs[1].Find(2)
	assert.True(t, ok)
	assert.Equal(t, polyseq.ResidueKey{Chain: "A", Seq: 2, Name: "LYS"}, r)
	_, ok = seqs[1].Find(7)
	assert.False(t, ok)
	assert.Len(t, polyseq.Flatten(seqs), 4)
}

// Suffixed columns are all read, and an empty triple is skipped only
// when we allow it.
func TestSuffixed(t *testing.T) {
	e := read(t, twoLoops)
	_, err := polyseq.Extract(e, "_nef_distance_restraint", polyseq.NEFSequence, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrMissingField))

	got, err := polyseq.Extract(e, "_nef_distance_restraint", polyseq.NEFSequence, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"MET", "SER"}, got[0][0].Names())
}

func TestBadLoops(t *testing.T) {
	e := read(t, twoLoops)
	_, err := polyseq.Extract(e, "_nef_chemical_shift", polyseq.NEFSequence, false)
	assert.True(t, errors.Is(err, common.ErrMissingField), "no such loop")
	_, err = polyseq.Extract(e, "_nef_sequence", polyseq.STARSequence, false)
	assert.True(t, errors.Is(err, common.ErrMissingField), "no such columns")

	clash := read(t, `data_x
loop_
_nef_sequence.chain_code
_nef_sequence.sequence_code
_nef_sequence.residue_name
A 1 MET
A 1 GLY
stop_
`)
	_, err = polyseq.Extract(clash, "_nef_sequence", polyseq.NEFSequence, false)
	assert.True(t, errors.Is(err, common.ErrDuplicateKey))

	notNum := read(t, "data_x\nloop_\n_nef_sequence.chain_code\n_nef_sequence.sequence_code\n"+
		"_nef_sequence.residue_name\nA 1a MET\nstop_\n")
	_, err = polyseq.Extract(notNum, "_nef_sequence", polyseq.NEFSequence, false)
	assert.True(t, errors.Is(err, common.ErrConstraint))

	insertion := read(t, "data_x\nloop_\n_nef_sequence.chain_code\n_nef_sequence.sequence_code\n"+
		"_nef_sequence.residue_name\nA 12 MET\nA 12A GLY\nA 13 ALA\nstop_\n")
	_, err = polyseq.Extract(insertion, "_nef_sequence", polyseq.NEFSequence, false)
	assert.True(t, errors.Is(err, common.ErrConstraint))
	seqs, err := polyseq.Extract(insertion, "_nef_sequence", polyseq.NEFSequence, true)
	require.NoError(t, err)
	require.Len(t, seqs, 1)
	require.Len(t, seqs[0], 1)
	assert.Equal(t, []string{"MET", "ALA"}, seqs[0][0].Names())
}
