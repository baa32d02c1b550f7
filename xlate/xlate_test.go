package xlate_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/andrew-torda/nmr_xlate/dict"
	"github.com/andrew-torda/nmr_xlate/polyseq"
	"github.com/andrew-torda/nmr_xlate/star"
	"github.com/andrew-torda/nmr_xlate/xlate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const nefFile = `data_small_test

save_nef_nmr_meta_data
   _nef_nmr_meta_data.sf_category     nef_nmr_meta_data
   _nef_nmr_meta_data.sf_framecode    nef_nmr_meta_data
   _nef_nmr_meta_data.format_name     nmr_exchange_format
   _nef_nmr_meta_data.format_version  1.1
   _nef_nmr_meta_data.program_name    handwritten
   _nef_nmr_meta_data.coordinate_file_name  model.cif
save_

save_nef_molecular_system
   _nef_molecular_system.sf_category   nef_molecular_system
   _nef_molecular_system.sf_framecode  nef_molecular_system
   loop_
      _nef_sequence.index
      _nef_sequence.chain_code
      _nef_sequence.sequence_code
      _nef_sequence.residue_name
      _nef_sequence.linking
     1   A   12   ALA   start
     2   A   13   GLY   middle
     3   A   14   SER   end
     4   B   5    MET   single
   stop_
save_

save_nef_chemical_shift_list_bmrb1
   _nef_chemical_shift_list.sf_category   nef_chemical_shift_list
   _nef_chemical_shift_list.sf_framecode  nef_chemical_shift_list_bmrb1
   loop_
      _nef_chemical_shift.chain_code
      _nef_chemical_shift.sequence_code
      _nef_chemical_shift.residue_name
      _nef_chemical_shift.atom_name
      _nef_chemical_shift.value
      _nef_chemical_shift.value_uncertainty
     A 12 ALA HB% 1.23 .
     A 13 GLY HA% 3.9  0.01
     A 14 SER HBx 3.8  .
   stop_
save_

save_nef_distance_restraint_list_noe
   _nef_distance_restraint_list.sf_category     nef_distance_restraint_list
   _nef_distance_restraint_list.sf_framecode    nef_distance_restraint_list_noe
   _nef_distance_restraint_list.potential_type  square-well-parabolic
   loop_
      _nef_distance_restraint.index
      _nef_distance_restraint.restraint_id
      _nef_distance_restraint.chain_code_1
      _nef_distance_restraint.sequence_code_1
      _nef_distance_restraint.residue_name_1
      _nef_distance_restraint.atom_name_1
      _nef_distance_restraint.chain_code_2
      _nef_distance_restraint.sequence_code_2
      _nef_distance_restraint.residue_name_2
      _nef_distance_restraint.atom_name_2
      _nef_distance_restraint.weight
      _nef_distance_restraint.target_value
      _nef_distance_restraint.lower_limit
      _nef_distance_restraint.upper_limit
     1 1 A 12 ALA HB% A 13 GLY H  1.0 3.0 1.8 5.0
     2 1 A 12 ALA HA  A 13 GLY H  1.0 3.0 1.8 5.0
     3 2 A 14 SER H   B 5  MET HA 1.0 .   1.8 6.0
   stop_
save_
`

func newTranslator(t *testing.T) *xlate.Translator {
	tr, err := xlate.New(dict.Default(), nil, nil)
	require.NoError(t, err)
	return tr
}

func translate(t *testing.T, s string) (*star.Entry, *xlate.Report) {
	in, err := star.ReadString(s)
	require.NoError(t, err)
	out, rep := newTranslator(t).Translate(in)
	require.True(t, rep.OK(), "errors %v", rep.Error)
	return out, rep
}

// column gives a whole column of the first loop of a category.
func column(t *testing.T, e *star.Entry, cat, tag string) []string {
	lps := e.LoopsOf(cat)
	require.NotEmpty(t, lps, cat)
	lp := lps[0]
	require.True(t, lp.Has(tag), "%s.%s", cat, tag)
	ret := make([]string, lp.NRow())
	for i := range ret {
		ret[i] = lp.Value(i, tag)
	}
	return ret
}

func TestShifts(t *testing.T) {
	out, rep := translate(t, nefFile)
	assert.Equal(t, "nef", rep.FileType)
	assert.Equal(t, "small_test", out.Name)

	assert.Equal(t, []string{"HB1", "HB2", "HB3", "HA2", "HA3", "HB2"},
		column(t, out, "_Atom_chem_shift", "Atom_ID"))
	assert.Equal(t, []string{"1.23", "1.23", "1.23", "3.9", "3.9", "3.8"},
		column(t, out, "_Atom_chem_shift", "Val"))
	assert.Equal(t, []string{"1", "1", "1", "1", "1", "2"},
		column(t, out, "_Atom_chem_shift", "Ambiguity_code"))
	assert.Equal(t, []string{"1", "1", "1", "2", "2", "3"},
		column(t, out, "_Atom_chem_shift", "Comp_index_ID"))
	assert.Equal(t, []string{"12", "12", "12", "13", "13", "14"},
		column(t, out, "_Atom_chem_shift", "Auth_seq_ID"))
	assert.Equal(t, []string{"HB%", "HB%", "HB%", "HA%", "HA%", "HBx"},
		column(t, out, "_Atom_chem_shift", "Auth_atom_ID"))
	assert.Equal(t, []string{"1", "2", "3", "4", "5", "6"},
		column(t, out, "_Atom_chem_shift", "ID"))
	assert.Equal(t, "H", column(t, out, "_Atom_chem_shift", "Atom_type")[0])

	lp := out.LoopsOf("_Atom_chem_shift")[0]
	assert.Equal(t, []string{"Val", "Val_err", "Entity_assembly_ID", "Comp_index_ID", "Comp_ID", "Atom_ID",
		"Auth_asym_ID", "Auth_seq_ID", "Auth_comp_ID", "Auth_atom_ID",
		"ID", "Atom_type", "Ambiguity_code", "Assigned_chem_shift_list_ID", "Entry_ID"}, lp.Tags)
}

func TestFrames(t *testing.T) {
	out, _ := translate(t, nefFile)
	var names []string
	for _, sf := range out.Frames {
		names = append(names, sf.Name)
	}
	assert.Equal(t, []string{"entry_information", "assembly",
		"assigned_chemical_shifts_bmrb1", "general_distance_constraints_noe"}, names)
	v, ok := out.Frames[0].Get("_Entry.Source_data_format_version")
	assert.True(t, ok)
	assert.Equal(t, "1.1", v)
	v, _ = out.Frames[0].Get("_Entry.ID")
	assert.Equal(t, "small_test", v)
	v, _ = out.Frames[2].Get("_Assigned_chem_shift_list.ID")
	assert.Equal(t, "1", v)
	v, _ = out.Frames[3].Get("_Gen_dist_constraint_list.Sf_framecode")
	assert.Equal(t, "general_distance_constraints_noe", v)
	assert.Equal(t, []string{"B"}, column(t, out, "_Chem_comp_assembly", "Auth_asym_ID")[3:])
	assert.Equal(t, []string{"1", "1", "1", "2"}, column(t, out, "_Chem_comp_assembly", "Entity_assembly_ID"))
	assert.Equal(t, []string{"1", "2", "3", "1"}, column(t, out, "_Chem_comp_assembly", "Comp_index_ID"))
}

func TestRestraints(t *testing.T) {
	out, _ := translate(t, nefFile)
	cat := "_Gen_dist_constraint"
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, column(t, out, cat, "Index_ID"))
	assert.Equal(t, []string{"1", "1", "1", "1", "2"}, column(t, out, cat, "ID"))
	assert.Equal(t, []string{"1", "2", "3", "4", "1"}, column(t, out, cat, "Member_ID"))
	assert.Equal(t, []string{"OR", "OR", "OR", "OR", "."}, column(t, out, cat, "Member_logic_code"))
	assert.Equal(t, []string{"HB1", "HB2", "HB3", "HA", "H"}, column(t, out, cat, "Atom_ID_1"))
	assert.Equal(t, []string{"2", "2", "2", "2", "1"}, column(t, out, cat, "Comp_index_ID_2"))
	assert.Equal(t, []string{"1", "1", "1", "1", "2"}, column(t, out, cat, "Entity_assembly_ID_2"))
	assert.Equal(t, []string{"1", "1", "1", "1", "1"}, column(t, out, cat, "Gen_dist_constraint_list_ID"))
}

// Two members of one restraint, same atoms on different residues.
const dihedralFrame = `
save_nef_dihedral_restraint_list_phi
   _nef_dihedral_restraint_list.sf_category     nef_dihedral_restraint_list
   _nef_dihedral_restraint_list.sf_framecode    nef_dihedral_restraint_list_phi
   _nef_dihedral_restraint_list.potential_type  square-well-parabolic
   loop_
      _nef_dihedral_restraint.index
      _nef_dihedral_restraint.restraint_id
      _nef_dihedral_restraint.chain_code_1
      _nef_dihedral_restraint.sequence_code_1
      _nef_dihedral_restraint.residue_name_1
      _nef_dihedral_restraint.atom_name_1
      _nef_dihedral_restraint.chain_code_2
      _nef_dihedral_restraint.sequence_code_2
      _nef_dihedral_restraint.residue_name_2
      _nef_dihedral_restraint.atom_name_2
      _nef_dihedral_restraint.chain_code_3
      _nef_dihedral_restraint.sequence_code_3
      _nef_dihedral_restraint.residue_name_3
      _nef_dihedral_restraint.atom_name_3
      _nef_dihedral_restraint.chain_code_4
      _nef_dihedral_restraint.sequence_code_4
      _nef_dihedral_restraint.residue_name_4
      _nef_dihedral_restraint.atom_name_4
      _nef_dihedral_restraint.weight
      _nef_dihedral_restraint.lower_limit
      _nef_dihedral_restraint.upper_limit
     1 1 A 12 ALA C A 13 GLY N A 13 GLY CA A 13 GLY C 1.0 -80 -40
     2 1 A 13 GLY C A 14 SER N A 14 SER CA A 14 SER C 1.0 -80 -40
   stop_
save_
`

func TestDihedralMembers(t *testing.T) {
	tr := newTranslator(t)
	in, err := star.ReadString(nefFile + dihedralFrame)
	require.NoError(t, err)
	ok, rep := tr.Validate(in, xlate.Restraints)
	assert.True(t, ok, "%v", rep.Error)

	out, _ := translate(t, nefFile+dihedralFrame)
	cat := "_Torsion_angle_constraint"
	assert.Equal(t, []string{"1", "1"}, column(t, out, cat, "ID"))
	assert.Equal(t, []string{"1", "2"}, column(t, out, cat, "Member_ID"))
	assert.Equal(t, []string{"OR", "OR"}, column(t, out, cat, "Member_logic_code"))
	assert.Equal(t, []string{"1", "2"}, column(t, out, cat, "Comp_index_ID_1"))

	dup := strings.Replace(dihedralFrame, "A 13 GLY C A 14 SER N A 14 SER CA A 14 SER C",
		"A 12 ALA C A 13 GLY N A 13 GLY CA A 13 GLY C", 1)
	in, err = star.ReadString(nefFile + dup)
	require.NoError(t, err)
	ok, rep = tr.Validate(in, xlate.Restraints)
	assert.False(t, ok)
	assert.Contains(t, strings.Join(rep.Error, "\n"), "duplicate")
}

// The archival sequence, in author numbering, is the exchange one.
func TestRoundTrip(t *testing.T) {
	in, err := star.ReadString(nefFile)
	require.NoError(t, err)
	out, _ := translate(t, nefFile)
	want, err := polyseq.Extract(in, "_nef_sequence", polyseq.NEFSequence, false)
	require.NoError(t, err)
	got, err := polyseq.Extract(out, "_Chem_comp_assembly", polyseq.STARAuth, false)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSameTwice(t *testing.T) {
	out1, _ := translate(t, nefFile)
	out2, _ := translate(t, nefFile)
	assert.Equal(t, out1.String(), out2.String())
}

// The output of a translation must pass as archival.
func TestValidateOutput(t *testing.T) {
	tr := newTranslator(t)
	out, _ := translate(t, nefFile)
	ok, rep := tr.Validate(out, xlate.All)
	assert.True(t, ok, "errors %v", rep.Error)
	assert.Equal(t, "nmr-star", rep.FileType)
}

func TestValidateSubtypes(t *testing.T) {
	tr := newTranslator(t)
	in, err := star.ReadString(nefFile)
	require.NoError(t, err)
	for _, sub := range []xlate.Subtype{xlate.All, xlate.Shifts, xlate.Restraints} {
		ok, rep := tr.Validate(in, sub)
		assert.True(t, ok, "%s: %v", sub, rep.Error)
	}
	// no restraints left
	noRestraints := nefFile[:strings.Index(nefFile, "save_nef_distance_restraint_list_noe")]
	in, err = star.ReadString(noRestraints)
	require.NoError(t, err)
	ok, rep := tr.Validate(in, xlate.Restraints)
	assert.False(t, ok)
	assert.Len(t, rep.Error, 1)

	sub, err := xlate.ParseSubtype("SHIFTS")
	assert.NoError(t, err)
	assert.Equal(t, xlate.Shifts, sub)
	_, err = xlate.ParseSubtype("noes")
	assert.Error(t, err)
}

func TestValidateBad(t *testing.T) {
	tr := newTranslator(t)
	bad := strings.Replace(nefFile, "A 12 ALA HB% 1.23 .", "A 12 ALA HB% abc .", 1)
	in, err := star.ReadString(bad)
	require.NoError(t, err)
	ok, rep := tr.Validate(in, xlate.Shifts)
	assert.False(t, ok)
	require.NotEmpty(t, rep.Error)
	assert.Contains(t, rep.Error[0], "value")

	_, rep = tr.Translate(in)
	assert.False(t, rep.OK(), "a bad loop is not translated")

	noFormat := strings.Replace(nefFile, "_nef_nmr_meta_data.format_name     nmr_exchange_format", "", 1)
	in, err = star.ReadString(noFormat)
	require.NoError(t, err)
	ok, rep = tr.Validate(in, xlate.All)
	assert.False(t, ok)
	assert.Contains(t, rep.Error[0], "_nef_nmr_meta_data.format_name")
}

// Tags nobody knows are a warning. An archival index out of order is
// an error. A row with no key at all is skipped, not fatal.
func TestValidateOptions(t *testing.T) {
	tr := newTranslator(t)
	extra := strings.Replace(nefFile, "      _nef_chemical_shift.value_uncertainty\n",
		"      _nef_chemical_shift.value_uncertainty\n      _nef_chemical_shift.my_note\n", 1)
	extra = strings.Replace(extra, "A 12 ALA HB% 1.23 .", "A 12 ALA HB% 1.23 . x", 1)
	extra = strings.Replace(extra, "A 13 GLY HA% 3.9  0.01", "A 13 GLY HA% 3.9  0.01 y", 1)
	extra = strings.Replace(extra, "A 14 SER HBx 3.8  .", "A 14 SER HBx 3.8  . z", 1)
	in, err := star.ReadString(extra)
	require.NoError(t, err)
	ok, rep := tr.Validate(in, xlate.Shifts)
	assert.True(t, ok, "%v", rep.Error)
	assert.Contains(t, strings.Join(rep.Warning, "\n"), "my_note")

	out, _ := translate(t, nefFile)
	ok, rep = tr.Validate(out, xlate.Shifts)
	require.True(t, ok, "%v", rep.Error)
	assert.Empty(t, rep.Warning)
	lp := out.LoopsOf("_Atom_chem_shift")[0]
	idCol := lp.ColIndex("ID")
	lp.Data[0][idCol], lp.Data[1][idCol] = lp.Data[1][idCol], lp.Data[0][idCol]
	ok, rep = tr.Validate(out, xlate.Shifts)
	assert.False(t, ok)
	assert.Contains(t, strings.Join(rep.Error, "\n"), "out of order")

	noKey := strings.Replace(nefFile, "A 14 SER HBx 3.8  .", "A 14 SER HBx 3.8  .\n     . . . . 4.1 .", 1)
	out, rep = translate(t, noKey)
	assert.Len(t, column(t, out, "_Atom_chem_shift", "Val"), 6)
	assert.Contains(t, strings.Join(rep.Warning, "\n"), "without key values")
}

func TestNotNEF(t *testing.T) {
	tr := newTranslator(t)
	in, err := star.ReadString("data_x\nloop_\n_atom_site.id\n1\nstop_\n")
	require.NoError(t, err)
	out, rep := tr.Translate(in)
	assert.Nil(t, out)
	assert.False(t, rep.OK())
	assert.Equal(t, "unknown", rep.FileType)

	star1, _ := translate(t, nefFile)
	out, rep = tr.Translate(star1)
	assert.Nil(t, out)
	assert.Equal(t, "nmr-star", rep.FileType)
	assert.False(t, rep.OK())
}

func TestWarnings(t *testing.T) {
	s := strings.Replace(nefFile, "format_version  1.1", "format_version  2.3", 1)
	s = strings.Replace(s, "A 14 SER HBx 3.8  .", "A 14 SER QQ 3.8  .\n     C 1 ALA CA 50.1 .", 1)
	out, rep := translate(t, s)
	w := strings.Join(rep.Warning, "\n")
	assert.Contains(t, w, "2.3")
	assert.Contains(t, w, "QQ")
	assert.Contains(t, w, "chain C residue 1")
	assert.Equal(t, "QQ", column(t, out, "_Atom_chem_shift", "Atom_ID")[5])
	assert.Equal(t, ".", column(t, out, "_Atom_chem_shift", "Comp_index_ID")[6])
	assert.Contains(t, strings.Join(rep.Info, "\n"), "coordinate_file_name")
}

func TestNoName(t *testing.T) {
	in, err := star.ReadString(nefFile)
	require.NoError(t, err)
	in.Name = ""
	out, rep := newTranslator(t).Translate(in)
	require.True(t, rep.OK())
	assert.Len(t, out.Name, 36)
	v, _ := out.Frames[0].Get("_Entry.ID")
	assert.Equal(t, out.Name, v)
}

func TestTooMany(t *testing.T) {
	tr := newTranslator(t)
	tr.MaxExpand = 2
	in, err := star.ReadString(nefFile)
	require.NoError(t, err)
	_, rep := tr.Translate(in)
	assert.False(t, rep.OK())
	assert.Contains(t, rep.Error[0], "expands to 3 rows")
}

func TestReportJSON(t *testing.T) {
	_, rep := translate(t, nefFile)
	b, err := rep.JSON()
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	for _, k := range []string{"info", "warning", "error", "file_type"} {
		assert.Contains(t, m, k)
	}
	assert.Equal(t, []any{}, m["error"])
}

func TestFiles(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.nef")
	out := filepath.Join(dir, "out.str")
	require.NoError(t, os.WriteFile(in, []byte(nefFile), 0o644))
	tr := newTranslator(t)
	ok, rep := tr.TranslateFile(in, out)
	require.True(t, ok, "%v", rep.Error)
	ok, rep = tr.ValidateFile(out, xlate.Shifts)
	assert.True(t, ok, "%v", rep.Error)
	assert.Equal(t, "nmr-star", rep.FileType)

	ok, rep = tr.TranslateFile(filepath.Join(dir, "not_there"), out)
	assert.False(t, ok)
	assert.Len(t, rep.Error, 1)
}
