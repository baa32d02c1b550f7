package nmrxlate_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrew-torda/nmr_xlate/internal/config"
	. "github.com/andrew-torda/nmr_xlate/pkg/common"
	. "github.com/andrew-torda/nmr_xlate/pkg/nmrxlate"
)

const nefIn = `data_cli_test
save_nef_nmr_meta_data
   _nef_nmr_meta_data.sf_category     nef_nmr_meta_data
   _nef_nmr_meta_data.sf_framecode    nef_nmr_meta_data
   _nef_nmr_meta_data.format_name     nmr_exchange_format
   _nef_nmr_meta_data.format_version  1.1
save_
save_nef_molecular_system
   _nef_molecular_system.sf_category   nef_molecular_system
   _nef_molecular_system.sf_framecode  nef_molecular_system
   loop_
      _nef_sequence.chain_code
      _nef_sequence.sequence_code
      _nef_sequence.residue_name
     A 10 MET
     A 11 LYS
   stop_
save_
save_nef_chemical_shift_list_a
   _nef_chemical_shift_list.sf_category   nef_chemical_shift_list
   _nef_chemical_shift_list.sf_framecode  nef_chemical_shift_list_a
   loop_
      _nef_chemical_shift.chain_code
      _nef_chemical_shift.sequence_code
      _nef_chemical_shift.residue_name
      _nef_chemical_shift.atom_name
      _nef_chemical_shift.value
     A 10  MET H  8.1
     A 11  LYS H  8.3
     A 11  LYS N  120.1
     A 101 ZN  ZN 0.0
   stop_
save_
`

const modelCif = `data_1XYZ
loop_
_atom_site.group_PDB
_atom_site.id
_atom_site.label_atom_id
_atom_site.label_comp_id
_atom_site.label_asym_id
_atom_site.label_seq_id
_atom_site.auth_seq_id
_atom_site.auth_comp_id
_atom_site.auth_asym_id
_atom_site.auth_atom_id
_atom_site.pdbx_PDB_model_num
ATOM   1 N   MET A 1 10  MET A N   1
ATOM   2 H1  MET A 1 10  MET A H1  1
ATOM   3 N   LYS A 2 11  LYS A N   1
ATOM   4 H   LYS A 2 11  LYS A H   1
HETATM 5 ZN  ZN  B . 101 ZN  A ZN  1
`

const zincCif = `data_ZN
_chem_comp.id ZN
_chem_comp.pdbx_release_status REL
_chem_comp_atom.comp_id ZN
_chem_comp_atom.atom_id ZN
_chem_comp_atom.type_symbol ZN
`

type files struct{ dir, nef, cif, comps, cfg string }

func setup(t *testing.T) files {
	dir := t.TempDir()
	t.Setenv(config.EnvConfigPath, "")
	t.Setenv("HOME", dir)
	chdir(t, dir)
	f := files{dir: dir, nef: filepath.Join(dir, "in.nef"), cif: filepath.Join(dir, "model.cif"),
		comps: filepath.Join(dir, "components.cif"), cfg: filepath.Join(dir, "nmrxlate_test.yaml")}
	for name, s := range map[string]string{f.nef: nefIn, f.cif: modelCif, f.comps: zincCif} {
		require.NoError(t, os.WriteFile(name, []byte(s), 0o644))
	}
	return f
}

func run(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := Mymain(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestUsage(t *testing.T) {
	setup(t)
	code, _, stderr := run()
	assert.Equal(t, ExitUsageError, code)
	assert.Contains(t, stderr, "usage")
	code, _, _ = run("frobnicate")
	assert.Equal(t, ExitUsageError, code)
	code, _, _ = run("translate", "just_one")
	assert.Equal(t, ExitUsageError, code)
	code, _, _ = run("validate", "-t", "noes", "x")
	assert.Equal(t, ExitUsageError, code)
	code, _, _ = run("-c", "/not/there.yaml", "validate", "x")
	assert.Equal(t, ExitFailure, code)
}

func TestTranslateValidate(t *testing.T) {
	f := setup(t)
	out := filepath.Join(f.dir, "out.str")
	code, stdout, _ := run("translate", f.nef, out)
	assert.Equal(t, ExitSuccess, code, stdout)
	assert.Contains(t, stdout, "file type: nef")
	_, err := os.Stat(out)
	require.NoError(t, err)

	code, stdout, _ = run("validate", "-t", "shifts", "-json", out)
	assert.Equal(t, ExitSuccess, code, stdout)
	assert.Contains(t, stdout, `"file_type": "nmr-star"`)

	code, stdout, _ = run("validate", "-t", "restraints", f.nef)
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, stdout, "error:")
}

func TestCcdloadResolve(t *testing.T) {
	f := setup(t)
	store := filepath.Join(f.dir, "ccd.sqlite")
	code, stdout, stderr := run("ccdload", f.comps, store)
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Contains(t, stdout, "1 in")

	logName := filepath.Join(f.dir, "run.log")
	cfg := "log: " + logName + "\nccd:\n  store: " + store + "\n"
	require.NoError(t, os.WriteFile(f.cfg, []byte(cfg), 0o644))
	code, stdout, stderr = run("-c", f.cfg, "resolve", f.cif, f.nef)
	assert.Equal(t, ExitSuccess, code, stdout+stderr)
	assert.Contains(t, stdout, "resolved 4 of 4")
	assert.Contains(t, stdout, "numbering: auth")
	b, err := os.ReadFile(logName)
	require.NoError(t, err)
	assert.Contains(t, string(b), "H taken as H1")

	// without the store, the zinc has no atoms
	code, stdout, _ = run("resolve", f.cif, f.nef)
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, stdout, "unresolved: A 101 ZN ZN")
}

// chdir changes the working directory for the duration of the test
// (equivalent to testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}
