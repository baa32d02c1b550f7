package xlate

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/andrew-torda/nmr_xlate/dict"
	"github.com/andrew-torda/nmr_xlate/pkg/common"
	"github.com/andrew-torda/nmr_xlate/star"
	"github.com/andrew-torda/nmr_xlate/validate"
)

// Chain, sequence, residue and atom columns. These are the ones that
// are translated and not copied.
const (
	cChain = iota
	cSeq
	cRes
	cAtom
	nPart
)

var differing = map[string]int{
	"chain_code": cChain, "sequence_code": cSeq, "residue_name": cRes, "atom_name": cAtom,
}

// companions hold the values as the exchange file wrote them.
var companions = [nPart]string{"Auth_asym_ID", "Auth_seq_ID", "Auth_comp_ID", "Auth_atom_ID"}

// bookkeeping are archival columns with no exchange equivalent. They
// come last, in this order.
var bookkeeping = map[string][]string{
	"_Chem_comp_assembly": {"ID", "Assembly_ID", "Entry_ID"},
	"_Atom_chem_shift": {"ID", "Atom_type", "Ambiguity_code",
		"Assigned_chem_shift_list_ID", "Entry_ID"},
	"_Gen_dist_constraint": {"Index_ID", "ID", "Member_ID", "Member_logic_code",
		"Gen_dist_constraint_list_ID", "Entry_ID"},
	"_Torsion_angle_constraint": {"Index_ID", "ID", "Member_ID", "Member_logic_code",
		"Torsion_angle_constraint_list_ID", "Entry_ID"},
	"_RDC_constraint": {"Index_ID", "ID", "Member_ID", "Member_logic_code",
		"RDC_constraint_list_ID", "Entry_ID"},
}

// sourceOnly are exchange tags that feed bookkeeping columns.
var sourceOnly = map[string]bool{"index": true, "restraint_id": true}

// splitSuffix takes atom_name_2 apart into atom_name and _2.
func splitSuffix(short string) (base, suffix string) {
	if i := strings.LastIndexByte(short, '_'); i != -1 {
		if _, err := strconv.Atoi(short[i+1:]); err == nil {
			return short[:i], short[i:]
		}
	}
	return short, ""
}

// atomGroup is one chain, sequence, residue, atom set of columns.
// Restraints have one per atom, so the suffix is _1, _2 and so on.
type atomGroup struct {
	suffix string
	arch   [nPart]string
	src    [nPart]int // -1 if the source does not have it
	out    [nPart]int
	auth   [nPart]int
}

func newGroup(suffix string) *atomGroup {
	g := &atomGroup{suffix: suffix}
	for k := range g.src {
		g.src[k], g.out[k], g.auth[k] = -1, -1, -1
	}
	return g
}

// plan says where every output column comes from.
type plan struct {
	category  string
	tags      []string
	direct    []int // output column i is source column direct[i]
	groups    []*atomGroup
	book      map[string]int
	restraint int // source column of restraint_id
}

func (p *plan) col(name string) int {
	if i, ok := p.book[name]; ok {
		return i
	}
	return -1
}

// listCol is the column that points at the save frame.
func (p *plan) listCol() int {
	for name, i := range p.book {
		if name == "Assembly_ID" || strings.HasSuffix(name, "_list_ID") {
			return i
		}
	}
	return -1
}

// makePlan orders the output columns: those copied one to one, those
// that are translated, their Auth_ companions and finally bookkeeping.
func makePlan(lp *star.Loop, equivs []dict.TagEquiv) *plan {
	p := &plan{category: equivs[0].Category, restraint: lp.ColIndex("restraint_id"),
		book: make(map[string]int)}
	bySuffix := make(map[string]*atomGroup)
	for _, e := range equivs {
		_, short := star.SplitTag(e.Exchange)
		_, arch := star.SplitTag(e.Archival)
		src := lp.ColIndex(short)
		if src == -1 {
			continue
		}
		base, suffix := splitSuffix(short)
		if k, ok := differing[base]; ok {
			g := bySuffix[suffix]
			if g == nil {
				g = newGroup(suffix)
				bySuffix[suffix] = g
				p.groups = append(p.groups, g)
			}
			g.src[k], g.arch[k] = src, arch
			continue
		}
		p.direct = append(p.direct, src)
		p.tags = append(p.tags, arch)
	}
	for _, g := range p.groups {
		for k := range g.src {
			if g.src[k] != -1 {
				g.out[k] = len(p.tags)
				p.tags = append(p.tags, g.arch[k])
			}
		}
	}
	for _, g := range p.groups {
		for k := range g.src {
			if g.src[k] != -1 {
				g.auth[k] = len(p.tags)
				p.tags = append(p.tags, companions[k]+g.suffix)
			}
		}
	}
	for _, b := range bookkeeping[p.category] {
		p.book[b] = len(p.tags)
		p.tags = append(p.tags, b)
	}
	return p
}

type outcomeKind byte

const (
	rowOK outcomeKind = iota
	rowSkip
	rowFatal
)

// outcome of one source row. A skipped row is a warning, a fatal one
// ends the loop.
type outcome struct {
	kind   outcomeKind
	reason string
	err    error
}

// atomChoice is what one atom group expanded to.
type atomChoice struct {
	atoms     []string
	ambiguity string
	atomType  string
}

// row translates one source row. Wildcards make more than one row, the
// cross product over the atom groups.
func (t *Translator) row(p *plan, lp *star.Loop, i int, fs *fileState) ([][]string, outcome) {
	src := lp.Data[i]
	base := make([]string, len(p.tags))
	for j := range base {
		base[j] = star.NullDot
	}
	for j, s := range p.direct {
		base[j] = src[s]
	}
	choices := make([]*atomChoice, len(p.groups))
	total := 1
	for gi, g := range p.groups {
		var v [nPart]string
		for k, s := range g.src {
			if s != -1 {
				v[k] = src[s]
				base[g.auth[k]] = src[s]
			}
		}
		if g.src[cChain] != -1 && g.src[cSeq] != -1 {
			if common.IsNull(v[cChain]) || common.IsNull(v[cSeq]) {
				return nil, outcome{kind: rowSkip,
					reason: fmt.Sprintf("row %d: no chain or sequence code%s", i+1, g.suffix)}
			}
			if pos, ok := fs.lookup(v[cChain], v[cSeq]); ok {
				base[g.out[cChain]] = strconv.Itoa(pos.entity)
				base[g.out[cSeq]] = strconv.Itoa(pos.index)
			} else {
				fs.warnOnce("%s: chain %s residue %s is not in the sequence", lp.Category, v[cChain], v[cSeq])
			}
		}
		if g.src[cRes] != -1 {
			base[g.out[cRes]] = v[cRes]
		}
		if g.src[cAtom] == -1 {
			continue
		}
		r := t.names.Resolve(v[cRes], v[cAtom])
		c := &atomChoice{atoms: r.Atoms, ambiguity: strconv.Itoa(r.Ambiguity), atomType: r.AtomType}
		if len(c.atoms) == 0 {
			c.atoms, c.ambiguity = []string{v[cAtom]}, star.NullDot
			fs.warnOnce("%s %s: atom %s not known, kept as written", lp.Category, v[cRes], v[cAtom])
		}
		if c.atomType == "" {
			c.atomType = star.NullDot
		}
		choices[gi] = c
		total *= len(c.atoms)
	}
	if total > t.MaxExpand {
		return nil, outcome{kind: rowFatal, err: &common.LoopError{Kind: common.ErrConstraint,
			Loop: lp.Category, Row: i + 1,
			Msg: fmt.Sprintf("expands to %d rows, more than %d", total, t.MaxExpand)}}
	}
	ambCol, typeCol := p.col("Ambiguity_code"), p.col("Atom_type")
	rows := make([][]string, 0, total)
	idx := make([]int, len(p.groups))
	for {
		r := append([]string(nil), base...)
		first := true
		for gi, c := range choices {
			if c == nil {
				continue
			}
			r[p.groups[gi].out[cAtom]] = c.atoms[idx[gi]]
			if first {
				if ambCol != -1 {
					r[ambCol] = c.ambiguity
				}
				if typeCol != -1 {
					r[typeCol] = c.atomType
				}
				first = false
			}
		}
		rows = append(rows, r)
		if !next(idx, choices) {
			break
		}
	}
	return rows, outcome{kind: rowOK}
}

// next steps through the cross product, the last group fastest.
func next(idx []int, choices []*atomChoice) bool {
	for gi := len(idx) - 1; gi >= 0; gi-- {
		if choices[gi] == nil {
			continue
		}
		if idx[gi]++; idx[gi] < len(choices[gi].atoms) {
			return true
		}
		idx[gi] = 0
	}
	return false
}

// checkSource validates an exchange loop before we touch it. It says
// whether the loop can be translated. Rows with no key at all are
// left to row, which skips them.
func (t *Translator) checkSource(lp *star.Loop, fs *fileState) bool {
	spec := t.specs[star.NEF][lp.Category]
	if spec == nil {
		return true
	}
	opts := &validate.Options{ExcludeMissingData: true}
	_, err := validate.Loop(lp, spec.KeyItems(), spec.DataItems(), opts)
	var adv *validate.Advisory
	switch {
	case err == nil:
	case errors.As(err, &adv):
		for _, m := range adv.Msgs {
			fs.rep.warn("%s: %s", lp.Category, m)
		}
	default:
		fs.rep.fail("%v", err)
		return false
	}
	return true
}

// loop translates one loop. listID is the ID of the save frame it sits
// in.
func (t *Translator) loop(lp *star.Loop, listID int, fs *fileState) *star.Loop {
	equivs := t.tables.EquivOf(lp.Category)
	if len(equivs) == 0 {
		fs.rep.info("loop %s has no archival equivalent, left out", lp.Category)
		return nil
	}
	if !t.checkSource(lp, fs) {
		return nil
	}
	for _, tag := range lp.Tags {
		if _, ok := t.tables.Equiv(lp.Category + "." + tag); !ok && !sourceOnly[strings.ToLower(tag)] {
			fs.rep.info("%s.%s not translated", lp.Category, tag)
		}
	}
	p := makePlan(lp, equivs)
	out := star.NewLoop(p.category, p.tags)
	idCol, indexCol := p.col("ID"), p.col("Index_ID")
	memberCol, logicCol := p.col("Member_ID"), p.col("Member_logic_code")
	listCol, entryCol := p.listCol(), p.col("Entry_ID")
	members := make(map[string]int)
	var rids []string
	for i := range lp.Data {
		rows, oc := t.row(p, lp, i, fs)
		switch oc.kind {
		case rowSkip:
			fs.rep.warn("%s: %s", lp.Category, oc.reason)
			continue
		case rowFatal:
			fs.rep.fail("%v", oc.err)
			return nil
		}
		rid := strconv.Itoa(i + 1)
		if p.restraint != -1 && !common.IsNull(lp.Data[i][p.restraint]) {
			rid = lp.Data[i][p.restraint]
		}
		for _, r := range rows {
			n := strconv.Itoa(out.NRow() + 1)
			if indexCol != -1 {
				r[indexCol] = n
				r[idCol] = rid
			} else if idCol != -1 {
				r[idCol] = n
			}
			members[rid]++
			if memberCol != -1 {
				r[memberCol] = strconv.Itoa(members[rid])
			}
			if listCol != -1 {
				r[listCol] = strconv.Itoa(listID)
			}
			if entryCol != -1 {
				r[entryCol] = fs.entryID
			}
			out.AddRow(r)
			rids = append(rids, rid)
		}
	}
	if logicCol != -1 {
		for i, r := range out.Data {
			if members[rids[i]] > 1 {
				r[logicCol] = "OR"
			}
		}
	}
	t.logger.Printf("%s: %d rows became %d in %s", lp.Category, lp.NRow(), out.NRow(), out.Category)
	return out
}
