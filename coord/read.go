package coord

import (
	"errors"
	"sort"
	"strconv"
	"strings"

	"github.com/andrew-torda/nmr_xlate/pkg/common"
	"github.com/andrew-torda/nmr_xlate/star"
)

// cifCol is a column we want from a table and the name to fall back
// on. auth_asym_id falls back to label_asym_id, since some files only
// have one of them.
type cifCol struct {
	cifName string
	altName string
	n       int
}

// getColPos finds a column. Errors are sticky, so we can call it for
// every column and check once at the end.
func (cf *cifCol) getColPos(lp *star.Loop, err *error) {
	if *err != nil {
		return
	}
	if cf.n = lp.ColIndex(cf.cifName); cf.n != -1 {
		return
	}
	if cf.altName != "" {
		if cf.n = lp.ColIndex(cf.altName); cf.n != -1 {
			return
		}
	}
	*err = &common.LoopError{Kind: common.ErrMissingField, Loop: lp.Category, Item: cf.cifName}
}

// optColPos is getColPos for a column we can live without.
func (cf *cifCol) optColPos(lp *star.Loop) {
	var err error
	cf.getColPos(lp, &err)
}

// get returns the cell, with null values as "".
func (cf *cifCol) get(row []string) string {
	if cf.n == -1 {
		return ""
	}
	if s := row[cf.n]; !common.IsNull(s) {
		return s
	}
	return ""
}

// acn has the atom_site columns we look at.
type acn struct {
	labelAtomId,
	labelCompId,
	labelAsymId,
	labelEntityId,
	labelSeqId,
	authSeqId,
	authCompId,
	authAsymId,
	authAtomId,
	pdbxPDBInsCode,
	pdbxPDBModelNum cifCol
}

func newAcn() acn {
	return acn{
		labelAtomId:     cifCol{cifName: "label_atom_id"},
		labelCompId:     cifCol{cifName: "label_comp_id"},
		labelAsymId:     cifCol{cifName: "label_asym_id"},
		labelEntityId:   cifCol{cifName: "label_entity_id"},
		labelSeqId:      cifCol{cifName: "label_seq_id"},
		authSeqId:       cifCol{cifName: "auth_seq_id", altName: "label_seq_id"},
		authCompId:      cifCol{cifName: "auth_comp_id", altName: "label_comp_id"},
		authAsymId:      cifCol{cifName: "auth_asym_id", altName: "label_asym_id"},
		authAtomId:      cifCol{cifName: "auth_atom_id", altName: "label_atom_id"},
		pdbxPDBInsCode:  cifCol{cifName: "pdbx_PDB_ins_code"},
		pdbxPDBModelNum: cifCol{cifName: "pdbx_PDB_model_num"},
	}
}

// searchColNames finds the atom_site columns. We cannot work without
// an atom name, residue name, chain and number, the rest is optional.
func (a *acn) searchColNames(lp *star.Loop) error {
	var err error
	a.authAtomId.getColPos(lp, &err)
	a.authCompId.getColPos(lp, &err)
	a.authAsymId.getColPos(lp, &err)
	a.authSeqId.getColPos(lp, &err)
	a.labelAtomId.optColPos(lp)
	a.labelCompId.optColPos(lp)
	a.labelAsymId.optColPos(lp)
	a.labelEntityId.optColPos(lp)
	a.labelSeqId.optColPos(lp)
	a.pdbxPDBInsCode.optColPos(lp)
	a.pdbxPDBModelNum.optColPos(lp)
	return err
}

var errNoAtoms = errors.New("coord: no _atom_site table")

// getInt reads a number. Empty gives 0.
func getInt(s, name, loop string, row int) (int, error) {
	if s == "" {
		return 0, nil
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, &common.LoopError{Kind: common.ErrConstraint, Loop: loop, Row: row, Item: name,
			Msg: s + " is not an integer"}
	}
	return i, nil
}

// builder collects chains while we go through the tables.
type builder struct {
	poly    map[string]*Chain // by label_asym_id
	polyOrd []string
	lig     map[string]*Chain // by author chain
	ligOrd  []string
	byRes   map[string]*Residue
}

func resKey(labelAsym string, authSeq int, comp string) string {
	return labelAsym + "\x00" + strconv.Itoa(authSeq) + "\x00" + comp
}

func (b *builder) polyChain(labelAsym, authAsym, entity string) *Chain {
	c, ok := b.poly[labelAsym]
	if !ok {
		c = &Chain{AuthID: authAsym, LabelID: labelAsym, EntityID: entity}
		b.poly[labelAsym] = c
		b.polyOrd = append(b.polyOrd, labelAsym)
	}
	return c
}

func (b *builder) ligChain(authAsym, labelAsym, entity string) *Chain {
	c, ok := b.lig[authAsym]
	if !ok {
		c = &Chain{AuthID: authAsym, LabelID: labelAsym, EntityID: entity}
		b.lig[authAsym] = c
		b.ligOrd = append(b.ligOrd, authAsym)
	}
	return c
}

// atomSite reads the atoms of the first model.
func (b *builder) atomSite(lp *star.Loop) error {
	a := newAcn()
	if err := a.searchColNames(lp); err != nil {
		return err
	}
	firstModel := ""
	for i, row := range lp.Data {
		model := a.pdbxPDBModelNum.get(row)
		if i == 0 {
			firstModel = model
		}
		if model != firstModel {
			continue
		}
		authAsym := a.authAsymId.get(row)
		labelAsym := a.labelAsymId.get(row)
		if labelAsym == "" {
			labelAsym = authAsym
		}
		authSeq, err := getInt(a.authSeqId.get(row), "auth_seq_id", lp.Category, i+1)
		if err != nil {
			return err
		}
		labelSeq, err := getInt(a.labelSeqId.get(row), "label_seq_id", lp.Category, i+1)
		if err != nil {
			return err
		}
		comp := a.authCompId.get(row)
		k := resKey(labelAsym, authSeq, comp+a.pdbxPDBInsCode.get(row))
		r, ok := b.byRes[k]
		if !ok {
			r = &Residue{Chain: authAsym, LabelChain: labelAsym, AuthSeq: authSeq, LabelSeq: labelSeq, CompID: comp}
			b.byRes[k] = r
			var c *Chain
			if labelSeq > 0 {
				c = b.polyChain(labelAsym, authAsym, a.labelEntityId.get(row))
			} else {
				c = b.ligChain(authAsym, labelAsym, a.labelEntityId.get(row))
			}
			c.Residues = append(c.Residues, r)
		}
		r.Atoms = append(r.Atoms, a.authAtomId.get(row))
	}
	return nil
}

// polySeqScheme adds the residues of the deposited sequence that have
// no atoms.
func (b *builder) polySeqScheme(lp *star.Loop) error {
	cols := struct{ asym, entity, seq, mon, strand, pdbSeq cifCol }{
		asym:   cifCol{cifName: "asym_id"},
		entity: cifCol{cifName: "entity_id"},
		seq:    cifCol{cifName: "seq_id"},
		mon:    cifCol{cifName: "mon_id", altName: "pdb_mon_id"},
		strand: cifCol{cifName: "pdb_strand_id", altName: "asym_id"},
		pdbSeq: cifCol{cifName: "pdb_seq_num", altName: "auth_seq_num"},
	}
	var err error
	cols.asym.getColPos(lp, &err)
	cols.seq.getColPos(lp, &err)
	cols.mon.getColPos(lp, &err)
	cols.strand.getColPos(lp, &err)
	cols.pdbSeq.getColPos(lp, &err)
	cols.entity.optColPos(lp)
	if err != nil {
		return err
	}
	for i, row := range lp.Data {
		labelSeq, err := getInt(cols.seq.get(row), "seq_id", lp.Category, i+1)
		if err != nil {
			return err
		}
		authSeq, err := getInt(cols.pdbSeq.get(row), "pdb_seq_num", lp.Category, i+1)
		if err != nil {
			return err
		}
		asym, comp := cols.asym.get(row), cols.mon.get(row)
		c := b.polyChain(asym, cols.strand.get(row), cols.entity.get(row))
		if _, ok := c.ByLabel(labelSeq); ok {
			continue
		}
		r := &Residue{Chain: c.AuthID, LabelChain: asym, AuthSeq: authSeq, LabelSeq: labelSeq,
			CompID: comp, Unobserved: true}
		b.byRes[resKey(asym, authSeq, comp)] = r
		c.Residues = append(c.Residues, r)
	}
	return nil
}

// unobserved marks residues listed as missing or with zero occupancy.
// Polymer residues we have not seen at all are added.
func (b *builder) unobserved(lp *star.Loop) error {
	cols := struct{ authAsym, authSeq, authComp, labelAsym, labelSeq, polyFlag, occ cifCol }{
		authAsym:  cifCol{cifName: "auth_asym_id", altName: "label_asym_id"},
		authSeq:   cifCol{cifName: "auth_seq_id"},
		authComp:  cifCol{cifName: "auth_comp_id", altName: "label_comp_id"},
		labelAsym: cifCol{cifName: "label_asym_id"},
		labelSeq:  cifCol{cifName: "label_seq_id"},
		polyFlag:  cifCol{cifName: "polymer_flag"},
		occ:       cifCol{cifName: "occupancy_flag"},
	}
	var err error
	cols.authAsym.getColPos(lp, &err)
	cols.authSeq.getColPos(lp, &err)
	cols.authComp.getColPos(lp, &err)
	cols.labelAsym.optColPos(lp)
	cols.labelSeq.optColPos(lp)
	cols.polyFlag.optColPos(lp)
	cols.occ.optColPos(lp)
	if err != nil {
		return err
	}
	for i, row := range lp.Data {
		authSeq, err := getInt(cols.authSeq.get(row), "auth_seq_id", lp.Category, i+1)
		if err != nil {
			return err
		}
		labelSeq, err := getInt(cols.labelSeq.get(row), "label_seq_id", lp.Category, i+1)
		if err != nil {
			return err
		}
		authAsym, comp := cols.authAsym.get(row), cols.authComp.get(row)
		labelAsym := cols.labelAsym.get(row)
		if labelAsym == "" {
			labelAsym = authAsym
		}
		if r, ok := b.byRes[resKey(labelAsym, authSeq, comp)]; ok {
			r.Unobserved = true
			continue
		}
		if strings.EqualFold(cols.polyFlag.get(row), "N") || labelSeq == 0 {
			continue
		}
		c := b.polyChain(labelAsym, authAsym, "")
		r := &Residue{Chain: authAsym, LabelChain: labelAsym, AuthSeq: authSeq, LabelSeq: labelSeq,
			CompID: comp, Unobserved: true}
		b.byRes[resKey(labelAsym, authSeq, comp)] = r
		c.Residues = append(c.Residues, r)
	}
	return nil
}

// structConn finds chains whose first and last residues are bonded.
func (b *builder) structConn(lp *star.Loop) {
	cols := struct{ typ, asym1, seq1, asym2, seq2 cifCol }{
		typ:   cifCol{cifName: "conn_type_id"},
		asym1: cifCol{cifName: "ptnr1_label_asym_id"},
		seq1:  cifCol{cifName: "ptnr1_label_seq_id"},
		asym2: cifCol{cifName: "ptnr2_label_asym_id"},
		seq2:  cifCol{cifName: "ptnr2_label_seq_id"},
	}
	var err error
	cols.typ.getColPos(lp, &err)
	cols.asym1.getColPos(lp, &err)
	cols.seq1.getColPos(lp, &err)
	cols.asym2.getColPos(lp, &err)
	cols.seq2.getColPos(lp, &err)
	if err != nil {
		return
	}
	for _, row := range lp.Data {
		if !strings.EqualFold(cols.typ.get(row), "covale") {
			continue
		}
		asym := cols.asym1.get(row)
		if asym != cols.asym2.get(row) {
			continue
		}
		c, ok := b.poly[asym]
		if !ok || len(c.Residues) < 2 {
			continue
		}
		s1, e1 := strconv.Atoi(cols.seq1.get(row))
		s2, e2 := strconv.Atoi(cols.seq2.get(row))
		if e1 != nil || e2 != nil {
			continue
		}
		lo, hi := c.Residues[0].LabelSeq, c.Residues[len(c.Residues)-1].LabelSeq
		if (s1 == lo && s2 == hi) || (s1 == hi && s2 == lo) {
			c.Cyclic = true
		}
	}
}

// Read builds a model from an mmCIF data block. Only the first model
// of an ensemble is used.
func Read(e *star.Entry) (*Model, error) {
	lp := e.Table("_atom_site")
	if lp == nil {
		return nil, errNoAtoms
	}
	b := &builder{
		poly:  make(map[string]*Chain),
		lig:   make(map[string]*Chain),
		byRes: make(map[string]*Residue),
	}
	if err := b.atomSite(lp); err != nil {
		return nil, err
	}
	if lp := e.Table("_pdbx_poly_seq_scheme"); lp != nil {
		if err := b.polySeqScheme(lp); err != nil {
			return nil, err
		}
	}
	if lp := e.Table("_pdbx_unobs_or_zero_occ_residues"); lp != nil {
		if err := b.unobserved(lp); err != nil {
			return nil, err
		}
	}
	m := &Model{}
	for _, k := range b.polyOrd {
		c := b.poly[k]
		sort.SliceStable(c.Residues, func(i, j int) bool { return c.Residues[i].LabelSeq < c.Residues[j].LabelSeq })
		m.Polymers = append(m.Polymers, c)
	}
	for _, k := range b.ligOrd {
		m.NonPolymers = append(m.NonPolymers, b.lig[k])
	}
	if lp := e.Table("_struct_conn"); lp != nil {
		b.structConn(lp)
	}
	return m, nil
}

// ReadFile reads the first data block of an mmCIF file, maybe gzipped.
func ReadFile(fname string) (*Model, error) {
	e, err := star.ReadFirst(fname)
	if err != nil {
		return nil, err
	}
	return Read(e)
}
