// 13 Oct 2026

// Package seqalign decides which chain of a coordinate model goes
// with which chain of a restraint file, by lining up their sequences.
// Sequences become one letter strings and go through the Gotoh
// aligner. Each ref chain gets the model chain with the most identical
// aligned residues. If that is a tie, we count how many of those also
// have the same residue number. If it is still a tie, we do not guess.
//
// When numbers or chain names do not agree, the result carries a Hint
// which a caller can hand to the assignment resolver on a second pass
// over the same file.
package seqalign

import (
	"io"
	"log"
	"sort"

	"github.com/andrew-torda/nmr_xlate/dict"
	"github.com/andrew-torda/nmr_xlate/gotoh"
	"github.com/andrew-torda/nmr_xlate/polyseq"
)

// DefaultPnlty and DefaultMatch work for residue identity. Gaps are
// expensive, since numbering shifts are more common than insertions.
var (
	DefaultPnlty = gotoh.Pnlty{Open: 3, Wdn: 1}
	DefaultMatch = gotoh.Match_scr{Match: 1, Mismatch: -1}
)

// Conflict is an aligned pair with different residues.
type Conflict struct {
	Ref, Model polyseq.ResidueKey
}

// ChainAssignment says where one ref chain went.
type ChainAssignment struct {
	RefChain   string
	ModelChain string       // empty if nothing matched
	Pairs      []gotoh.Pair // I indexes the ref residues, J the model residues
	Matched    int          // aligned residues with the same one letter code
	NumAgree   int          // of Matched, how many have the same number too
	Conflicts  []Conflict
	Unmapped   []int // ref residue numbers with no model partner
	Offset     int   // most common model minus ref number
	Ambiguous  bool
	Candidates []string    // the equally good model chains when Ambiguous
	ResidueMap map[int]int // ref number to model number
}

// Hint is what a second pass needs. ResidueMap only has the residues
// the offset does not explain.
type Hint struct {
	ChainMap   map[string]string
	Offsets    map[string]int
	ResidueMap map[string]map[int]int
}

// Empty says if the hint would change nothing.
func (h *Hint) Empty() bool {
	return h == nil || (len(h.ChainMap) == 0 && len(h.Offsets) == 0 && len(h.ResidueMap) == 0)
}

// Map applies the hint to a ref chain and number.
func (h *Hint) Map(chain string, seq int) (string, int) {
	if h == nil {
		return chain, seq
	}
	out := chain
	if c, ok := h.ChainMap[chain]; ok {
		out = c
	}
	if m, ok := h.ResidueMap[chain]; ok {
		if s, ok := m[seq]; ok {
			return out, s
		}
	}
	return out, seq + h.Offsets[chain]
}

// Result of an alignment. Hint is nil when everything agreed.
type Result struct {
	Assignments []ChainAssignment
	Hint        *Hint
}

// Find returns the assignment of a ref chain.
func (r *Result) Find(refChain string) (ChainAssignment, bool) {
	for _, a := range r.Assignments {
		if a.RefChain == refChain {
			return a, true
		}
	}
	return ChainAssignment{}, false
}

// Aligner holds the scoring and the one letter code table.
type Aligner struct {
	tables *dict.Tables
	score  gotoh.Al_score
	match  gotoh.Match_scr
	logger *log.Logger
}

// New makes an aligner. A nil logger discards.
func New(tables *dict.Tables, pnlty gotoh.Pnlty, logger *log.Logger) *Aligner {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if tables == nil {
		tables = &dict.Tables{}
	}
	return &Aligner{
		tables: tables,
		score:  gotoh.Al_score{Pnlty: pnlty, Al_type: gotoh.Global},
		match:  DefaultMatch,
		logger: logger,
	}
}

func (a *Aligner) codes(s polyseq.Sequence) []byte {
	b := make([]byte, len(s.Residues))
	for i, r := range s.Residues {
		b[i] = a.tables.OneLetter(r.Name)
	}
	return b
}

// pairScore is the alignment of one ref chain on one model chain.
type pairScore struct {
	pairs    []gotoh.Pair
	matched  int
	numAgree int
}

func (p pairScore) better(q pairScore) bool {
	if p.matched != q.matched {
		return p.matched > q.matched
	}
	return p.numAgree > q.numAgree
}

func (p pairScore) same(q pairScore) bool {
	return p.matched == q.matched && p.numAgree == q.numAgree
}

func (a *Aligner) alignPair(ref, model polyseq.Sequence, rc, mc []byte) pairScore {
	if len(rc) == 0 || len(mc) == 0 {
		return pairScore{}
	}
	smat := gotoh.IdentScore(rc, mc, &a.match)
	pairs, _ := gotoh.Align(smat, &a.score)
	ps := pairScore{pairs: pairs}
	for _, p := range pairs {
		if p.I == -1 || p.J == -1 || rc[p.I] != mc[p.J] || rc[p.I] == 'X' {
			continue
		}
		ps.matched++
		if ref.Residues[p.I].Seq == model.Residues[p.J].Seq {
			ps.numAgree++
		}
	}
	a.logger.Printf("chain %q on %q, %d identical\n%s", ref.Chain, model.Chain, ps.matched,
		gotoh.SeqString(pairs, rc, mc))
	return ps
}

// Align assigns every ref chain. cyclic says which model chains are
// rings and may be nil.
func (a *Aligner) Align(ref, model []polyseq.Sequence, cyclic map[string]bool) *Result {
	refCodes := make([][]byte, len(ref))
	for i := range ref {
		refCodes[i] = a.codes(ref[i])
	}
	modCodes := make([][]byte, len(model))
	for j := range model {
		modCodes[j] = a.codes(model[j])
	}
	modIndex := make(map[string]int, len(model))
	for j, m := range model {
		modIndex[m.Chain] = j
	}

	scores := make([][]pairScore, len(ref))
	for i := range ref {
		scores[i] = make([]pairScore, len(model))
		for j := range model {
			scores[i][j] = a.alignPair(ref[i], model[j], refCodes[i], modCodes[j])
		}
	}

	res := &Result{Assignments: make([]ChainAssignment, len(ref))}
	relabel := a.relabel(ref, model, modCodes, modIndex, scores)
	if len(relabel) > 0 {
		a.logger.Printf("relabelling %d ref chains onto identical model chains", len(relabel))
	}
	for i := range ref {
		if j, ok := relabel[i]; ok {
			res.Assignments[i] = a.fill(ref[i], model[j], scores[i][j])
		} else {
			res.Assignments[i] = a.assignOne(ref[i], model, scores[i], modIndex)
		}
	}
	for i := range res.Assignments {
		ca := &res.Assignments[i]
		if ca.ModelChain == "" || !cyclic[ca.ModelChain] || len(ca.Unmapped) == 0 {
			continue
		}
		j := modIndex[ca.ModelChain]
		a.cyclicShift(ca, ref[i], model[j], refCodes[i], modCodes[j])
	}
	res.Hint = makeHint(res.Assignments)
	return res
}

// relabel decides which ref chains should be spread over identical
// model chains. That is what we do when the model has several
// identical chains, the counts agree and the ref chain ids are missing
// or do not name model chains. A ref chain takes part only if every
// model chain it fits best is in one group of identical chains. Within
// a group, ref chains go onto the model chains in order. The rest are
// left out of the map and assigned one by one.
func (a *Aligner) relabel(ref, model []polyseq.Sequence, modCodes [][]byte,
	modIndex map[string]int, scores [][]pairScore) map[int]int {
	if len(ref) < 2 || len(ref) != len(model) {
		return nil
	}
	labelled := true
	for _, r := range ref {
		if _, ok := modIndex[r.Chain]; !ok || r.Chain == "" {
			labelled = false
		}
	}
	if labelled {
		return nil
	}
	groups := make(map[string][]int)
	var order []string
	for j, c := range modCodes {
		k := string(c)
		if len(groups[k]) == 0 {
			order = append(order, k)
		}
		groups[k] = append(groups[k], j)
	}
	members := make(map[string][]int)
	for i := range ref {
		best := 0
		for _, ps := range scores[i] {
			if ps.matched > best {
				best = ps.matched
			}
		}
		if best == 0 {
			continue
		}
		key, one := "", true
		for j, ps := range scores[i] {
			if ps.matched != best {
				continue
			}
			if key == "" {
				key = string(modCodes[j])
			} else if key != string(modCodes[j]) {
				one = false
			}
		}
		if one && len(groups[key]) > 1 {
			members[key] = append(members[key], i)
		}
	}
	ret := make(map[int]int)
	for _, k := range order {
		for n, i := range members[k] {
			if n < len(groups[k]) {
				ret[i] = groups[k][n]
			}
		}
	}
	return ret
}

// assignOne picks the model chain for one ref chain. scores are its
// alignments on each model chain.
func (a *Aligner) assignOne(ref polyseq.Sequence, model []polyseq.Sequence,
	scores []pairScore, modIndex map[string]int) ChainAssignment {
	if j, ok := modIndex[ref.Chain]; ok && ref.Chain != "" {
		return a.fill(ref, model[j], scores[j])
	}
	best := -1
	for j := range model {
		if scores[j].matched > 0 && (best == -1 || scores[j].better(scores[best])) {
			best = j
		}
	}
	if best == -1 {
		return ChainAssignment{RefChain: ref.Chain, Unmapped: seqNums(ref)}
	}
	var tied []string
	for j := range model {
		if scores[j].same(scores[best]) {
			tied = append(tied, model[j].Chain)
		}
	}
	if len(tied) > 1 {
		a.logger.Printf("ref chain %q fits model chains %v equally well", ref.Chain, tied)
		return ChainAssignment{RefChain: ref.Chain, Ambiguous: true, Candidates: tied,
			Matched: scores[best].matched, NumAgree: scores[best].numAgree}
	}
	return a.fill(ref, model[best], scores[best])
}

func seqNums(s polyseq.Sequence) []int {
	ret := make([]int, len(s.Residues))
	for i, r := range s.Residues {
		ret[i] = r.Seq
	}
	return ret
}

// fill turns an alignment into an assignment.
func (a *Aligner) fill(ref, model polyseq.Sequence, ps pairScore) ChainAssignment {
	ca := ChainAssignment{
		RefChain: ref.Chain, ModelChain: model.Chain, Pairs: ps.pairs,
		Matched: ps.matched, NumAgree: ps.numAgree,
		ResidueMap: make(map[int]int, len(ref.Residues)),
	}
	mapped := make([]bool, len(ref.Residues))
	shifts := make(map[int]int)
	for _, p := range ps.pairs {
		if p.I == -1 || p.J == -1 {
			continue
		}
		r, m := ref.Residues[p.I], model.Residues[p.J]
		mapped[p.I] = true
		ca.ResidueMap[r.Seq] = m.Seq
		rcode, mcode := a.tables.OneLetter(r.Name), a.tables.OneLetter(m.Name)
		if r.Name == m.Name || (rcode == mcode && rcode != 'X') {
			shifts[m.Seq-r.Seq]++
		} else {
			ca.Conflicts = append(ca.Conflicts, Conflict{Ref: r, Model: m})
		}
	}
	for i, ok := range mapped {
		if !ok {
			ca.Unmapped = append(ca.Unmapped, ref.Residues[i].Seq)
		}
	}
	ca.Offset = mostCommon(shifts)
	return ca
}

// mostCommon returns the key with the largest count. Ties go to the
// smallest shift in size, so zero wins if it is among them.
func mostCommon(m map[int]int) int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if m[keys[i]] != m[keys[j]] {
			return m[keys[i]] > m[keys[j]]
		}
		return abs(keys[i]) < abs(keys[j]) || (abs(keys[i]) == abs(keys[j]) && keys[i] < keys[j])
	})
	if len(keys) == 0 {
		return 0
	}
	return keys[0]
}

func abs(i int) int {
	if i < 0 {
		return -i
	}
	return i
}

// cyclicShift handles a ring. Numbering of a cyclic peptide can start
// anywhere, so we try every rotation of the model and keep the one
// with the most identities. Unmapped ref residues then go to the
// rotated position instead of being left as insertions.
func (a *Aligner) cyclicShift(ca *ChainAssignment, ref, model polyseq.Sequence, rc, mc []byte) {
	n := len(model.Residues)
	if n == 0 {
		return
	}
	bestRot, bestN := 0, -1
	for rot := 0; rot < n; rot++ {
		nid := 0
		for i := range rc {
			if j := (i + rot) % n; rc[i] == mc[j] && rc[i] != 'X' {
				nid++
			}
		}
		if nid > bestN {
			bestRot, bestN = rot, nid
		}
	}
	refFirst, modFirst := ref.Residues[0].Seq, model.Residues[bestRot].Seq
	ca.Offset = modFirst - refFirst
	index := make(map[int]int, len(ref.Residues))
	for i, r := range ref.Residues {
		index[r.Seq] = i
	}
	for _, s := range ca.Unmapped {
		j := (index[s] + bestRot) % n
		ca.ResidueMap[s] = model.Residues[j].Seq
	}
	a.logger.Printf("cyclic chain %q, rotation %d gives %d identities", model.Chain, bestRot, bestN)
	ca.Unmapped = nil
}

// makeHint collects whatever a second pass would need.
func makeHint(cas []ChainAssignment) *Hint {
	h := &Hint{
		ChainMap:   make(map[string]string),
		Offsets:    make(map[string]int),
		ResidueMap: make(map[string]map[int]int),
	}
	for _, ca := range cas {
		if ca.ModelChain == "" || ca.Ambiguous {
			continue
		}
		if ca.ModelChain != ca.RefChain {
			h.ChainMap[ca.RefChain] = ca.ModelChain
		}
		if ca.Offset != 0 {
			h.Offsets[ca.RefChain] = ca.Offset
		}
		for r, m := range ca.ResidueMap {
			if m-r == ca.Offset {
				continue
			}
			if h.ResidueMap[ca.RefChain] == nil {
				h.ResidueMap[ca.RefChain] = make(map[int]int)
			}
			h.ResidueMap[ca.RefChain][r] = m
		}
	}
	if h.Empty() {
		return nil
	}
	return h
}
