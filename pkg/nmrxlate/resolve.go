package nmrxlate

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/andrew-torda/nmr_xlate/assign"
	"github.com/andrew-torda/nmr_xlate/coord"
	"github.com/andrew-torda/nmr_xlate/dict"
	. "github.com/andrew-torda/nmr_xlate/pkg/common"
	"github.com/andrew-torda/nmr_xlate/polyseq"
	"github.com/andrew-torda/nmr_xlate/seqalign"
	"github.com/andrew-torda/nmr_xlate/star"
)

// atomRefs collects every distinct atom reference in the data loops of
// an exchange file.
func atomRefs(e *star.Entry) []assign.AtomRef {
	seen := make(map[assign.AtomRef]bool)
	var ret []assign.AtomRef
	suffixes := []string{""}
	for i := 1; i <= polyseq.MaxSuffix; i++ {
		suffixes = append(suffixes, "_"+strconv.Itoa(i))
	}
	for _, lp := range e.AllLoops() {
		if !star.IsNEF(lp.Category) || lp.Category == "_nef_sequence" {
			continue
		}
		for _, s := range suffixes {
			c, q, r, a := lp.ColIndex("chain_code"+s), lp.ColIndex("sequence_code"+s),
				lp.ColIndex("residue_name"+s), lp.ColIndex("atom_name"+s)
			if c == -1 || q == -1 || a == -1 {
				continue
			}
			for _, row := range lp.Data {
				seq, err := strconv.Atoi(row[q])
				if err != nil || IsNull(row[a]) {
					continue
				}
				ref := assign.AtomRef{Chain: row[c], Seq: seq, AtomName: row[a]}
				if r != -1 && !IsNull(row[r]) {
					ref.ResName = row[r]
				}
				if !seen[ref] {
					seen[ref] = true
					ret = append(ret, ref)
				}
			}
		}
	}
	return ret
}

// resolvePass tries every reference and gives back those that failed.
func (e *env) resolvePass(r *assign.Resolver, refs []assign.AtomRef) []assign.AtomRef {
	var bad []assign.AtomRef
	for _, ref := range refs {
		atoms, err := r.Resolve(ref)
		if err != nil {
			if errors.Is(err, ErrAmbiguousChain) {
				fmt.Fprintln(e.stdout, "ambiguous:", err)
			}
			bad = append(bad, ref)
			continue
		}
		e.logger.Printf("%s -> %d atoms in chain %s residue %d", ref, len(atoms), atoms[0].Chain, atoms[0].Seq)
	}
	return bad
}

func (e *env) printHint(h *seqalign.Hint) {
	var chains []string
	for c := range h.Offsets {
		chains = append(chains, c)
	}
	for c := range h.ChainMap {
		if _, ok := h.Offsets[c]; !ok {
			chains = append(chains, c)
		}
	}
	sort.Strings(chains)
	for _, c := range chains {
		to := c
		if m, ok := h.ChainMap[c]; ok {
			to = m
		}
		fmt.Fprintf(e.stdout, "hint: chain %s -> %s offset %d\n", c, to, h.Offsets[c])
	}
}

func (e *env) resolve(args []string) int {
	f := e.newFlagSet("resolve", "[-aux aux.cif] model.cif in.nef")
	auxName := f.String("aux", "", "auxiliary model for residues missing from the first")
	if err := f.Parse(args); err != nil {
		return ExitUsageError
	}
	if f.NArg() != 2 {
		f.Usage()
		return ExitUsageError
	}
	model, err := coord.ReadFile(f.Arg(0))
	if err != nil {
		fmt.Fprintln(e.stderr, err)
		return ExitFailure
	}
	var aux assign.Model
	if *auxName != "" {
		m, err := coord.ReadFile(*auxName)
		if err != nil {
			fmt.Fprintln(e.stderr, err)
			return ExitFailure
		}
		aux = m
	}
	in, err := star.ReadFirst(f.Arg(1))
	if err != nil {
		fmt.Fprintln(e.stderr, err)
		return ExitFailure
	}
	tables := dict.Load(e.cfg.Dict, e.logger)
	names, err := e.names(tables)
	if err != nil {
		fmt.Fprintln(e.stderr, err)
		return ExitFailure
	}
	aligner := seqalign.New(tables, e.cfg.Pnlty(), e.logger)
	r := assign.New(model, aux, names, aligner, &assign.Options{Aliases: e.cfg.Aliases, Logger: e.logger})

	var res *seqalign.Result
	if seqs, err := polyseq.Extract(in, "_nef_sequence", polyseq.NEFSequence, true); err != nil {
		fmt.Fprintln(e.stdout, "no sequence, chains are not aligned:", err)
	} else {
		res = r.Prepare(seqs[0])
		for _, ca := range res.Assignments {
			fmt.Fprintf(e.stdout, "chain %s -> %q matched %d identical %d\n",
				ca.RefChain, ca.ModelChain, ca.Matched, ca.NumAgree)
		}
	}

	refs := atomRefs(in)
	bad := e.resolvePass(r, refs)
	if len(bad) > 0 && res != nil && !res.Hint.Empty() {
		e.printHint(res.Hint)
		r.Reset()
		r.ApplyHint(res.Hint)
		bad = e.resolvePass(r, refs)
	}
	if conv, ok := r.Preferred(); ok {
		fmt.Fprintln(e.stdout, "numbering:", conv)
	}
	for _, d := range r.Diagnostics() {
		fmt.Fprintln(e.stdout, "note:", d)
	}
	for _, ref := range bad {
		fmt.Fprintln(e.stdout, "unresolved:", ref)
	}
	fmt.Fprintf(e.stdout, "resolved %d of %d atom references\n", len(refs)-len(bad), len(refs))
	return exitFor(len(bad) == 0)
}
