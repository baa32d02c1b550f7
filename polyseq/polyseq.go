// 12 Oct 2026

// Package polyseq gets the polymer sequence out of a loop. A residue is
// a chain, a number and a name. We collect them, check that a number
// in a chain always has the same name and sort them.
package polyseq

import (
	"sort"
	"strconv"
	"strings"

	"github.com/andrew-torda/nmr_xlate/pkg/common"
	"github.com/andrew-torda/nmr_xlate/star"
)

// ResidueKey identifies one residue.
type ResidueKey struct {
	Chain string
	Seq   int
	Name  string
}

// Sequence is one chain, residues sorted by number.
type Sequence struct {
	Chain    string
	Residues []ResidueKey
}

// Triple names the three columns, like sequence_code, residue_name,
// chain_code.
type Triple struct {
	Seq, Name, Chain string
}

// MaxSuffix is the largest _n suffix we look for. Rows with many spins
// repeat the columns as chain_code_1, chain_code_2 ...
const MaxSuffix = 15

// NEFSequence and friends are the usual column names.
var (
	NEFSequence  = Triple{Seq: "sequence_code", Name: "residue_name", Chain: "chain_code"}
	STARSequence = Triple{Seq: "Comp_index_ID", Name: "Comp_ID", Chain: "Entity_assembly_ID"}
	STARAuth     = Triple{Seq: "Auth_seq_ID", Name: "Auth_comp_ID", Chain: "Auth_asym_ID"}
)

func (t Triple) suffixed(n int) Triple {
	s := "_" + strconv.Itoa(n)
	return Triple{Seq: t.Seq + s, Name: t.Name + s, Chain: t.Chain + s}
}

// cols are the column numbers of one triple.
type cols struct{ seq, name, chain int }

// findTriples gives every version of the triple the loop has.
func findTriples(lp *star.Loop, tags Triple) []cols {
	var ret []cols
	try := func(t Triple) {
		c := cols{lp.ColIndex(t.Seq), lp.ColIndex(t.Name), lp.ColIndex(t.Chain)}
		if c.seq != -1 && c.name != -1 && c.chain != -1 {
			ret = append(ret, c)
		}
	}
	try(tags)
	for i := 1; i <= MaxSuffix; i++ {
		try(tags.suffixed(i))
	}
	return ret
}

// Extract returns, for every loop of the category, one sequence per
// chain. Chains are in the order we first see them.
// With allowIncomplete, a triple with a missing value or a sequence
// code that is not an integer (12A) is skipped, otherwise it is an
// error.
func Extract(view star.LoopView, category string, tags Triple, allowIncomplete bool) ([][]Sequence, error) {
	lps := view.LoopsOf(category)
	if len(lps) == 0 {
		return nil, &common.LoopError{Kind: common.ErrMissingField, Loop: category, Msg: "no such loop"}
	}
	ret := make([][]Sequence, 0, len(lps))
	for _, lp := range lps {
		seqs, err := extractLoop(lp, tags, allowIncomplete)
		if err != nil {
			return nil, err
		}
		ret = append(ret, seqs)
	}
	return ret, nil
}

func extractLoop(lp *star.Loop, tags Triple, allowIncomplete bool) ([]Sequence, error) {
	triples := findTriples(lp, tags)
	if len(triples) == 0 {
		return nil, &common.LoopError{Kind: common.ErrMissingField, Loop: lp.Category,
			Item: tags.Seq + " " + tags.Name + " " + tags.Chain}
	}
	var chainOrder []string
	byChain := make(map[string]map[int]string)
	for i, row := range lp.Data {
		for _, c := range triples {
			seqS, name, chain := row[c.seq], row[c.name], row[c.chain]
			if common.IsNull(seqS) || common.IsNull(name) || common.IsNull(chain) {
				if allowIncomplete {
					continue
				}
				return nil, &common.LoopError{Kind: common.ErrMissingField, Loop: lp.Category,
					Row: i + 1, Msg: "missing chain, sequence number or residue name"}
			}
			seq, err := strconv.Atoi(seqS)
			if err != nil {
				if allowIncomplete {
					continue
				}
				return nil, &common.LoopError{Kind: common.ErrConstraint, Loop: lp.Category,
					Row: i + 1, Item: lp.Tags[c.seq], Msg: seqS + " is not an integer"}
			}
			m, ok := byChain[chain]
			if !ok {
				m = make(map[int]string)
				byChain[chain] = m
				chainOrder = append(chainOrder, chain)
			}
			if old, ok := m[seq]; ok && !strings.EqualFold(old, name) {
				return nil, &common.LoopError{Kind: common.ErrDuplicateKey, Loop: lp.Category,
					Row: i + 1, Item: lp.Tags[c.name],
					Msg: "chain " + chain + " residue " + seqS + " is both " + old + " and " + name}
			}
			m[seq] = name
		}
	}
	seqs := make([]Sequence, 0, len(chainOrder))
	for _, chain := range chainOrder {
		m := byChain[chain]
		s := Sequence{Chain: chain, Residues: make([]ResidueKey, 0, len(m))}
		for n, name := range m {
			s.Residues = append(s.Residues, ResidueKey{Chain: chain, Seq: n, Name: name})
		}
		sort.Slice(s.Residues, func(i, j int) bool { return s.Residues[i].Seq < s.Residues[j].Seq })
		seqs = append(seqs, s)
	}
	return seqs, nil
}

// Flatten puts all residues of all chains in one list.
func Flatten(seqs []Sequence) []ResidueKey {
	var ret []ResidueKey
	for _, s := range seqs {
		ret = append(ret, s.Residues...)
	}
	return ret
}

// Names gives the residue names of a sequence in order.
func (s Sequence) Names() []string {
	ret := make([]string, len(s.Residues))
	for i, r := range s.Residues {
		ret[i] = r.Name
	}
	return ret
}

// Find returns the residue with a number and whether it is there.
func (s Sequence) Find(seq int) (ResidueKey, bool) {
	i := sort.Search(len(s.Residues), func(i int) bool { return s.Residues[i].Seq >= seq })
	if i < len(s.Residues) && s.Residues[i].Seq == seq {
		return s.Residues[i], true
	}
	return ResidueKey{}, false
}
