// 13 Oct 2026

// Package xlate rewrites an exchange format (NEF) entry as an archival
// (NMR-STAR) entry and checks files of either kind.
//
// Tags are mapped with the equivalence table. Chain, residue and atom
// columns are not copied but translated: chains become entity assembly
// numbers, residues get a running index per chain from the sequence
// loop, and atom names with wildcards are expanded, one row per atom.
// What the file said goes into the Auth_ columns next to them.
package xlate

import (
	"embed"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/google/uuid"

	"github.com/andrew-torda/nmr_xlate/atomname"
	"github.com/andrew-torda/nmr_xlate/dict"
	"github.com/andrew-torda/nmr_xlate/pkg/common"
	"github.com/andrew-torda/nmr_xlate/star"
	"github.com/andrew-torda/nmr_xlate/validate"
)

//go:embed loopspecs/*.yaml
var specFS embed.FS

// DefaultMaxExpand is the most rows one source row may become.
const DefaultMaxExpand = 1000

// FormatVersions are the exchange format versions we understand.
const FormatVersions = ">= 1.0, < 2.0"

// sfCategory gives the archival sf_category of an exchange one.
var sfCategory = map[string]string{
	"nef_nmr_meta_data":           "entry_information",
	"nef_molecular_system":        "assembly",
	"nef_chemical_shift_list":     "assigned_chemical_shifts",
	"nef_distance_restraint_list": "general_distance_constraints",
	"nef_dihedral_restraint_list": "torsion_angle_constraints",
	"nef_rdc_restraint_list":      "RDC_constraints",
}

// Translator holds the tables. It keeps nothing from one file to the
// next, so one can be used for many files.
type Translator struct {
	tables    *dict.Tables
	names     *atomname.Resolver
	logger    *log.Logger
	specs     map[star.Dialect]map[string]*validate.Spec
	MaxExpand int
}

// New makes a translator. It fails only if the built in loop
// declarations are broken.
func New(tables *dict.Tables, names *atomname.Resolver, logger *log.Logger) (*Translator, error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if names == nil {
		names = atomname.New(tables, nil)
	}
	t := &Translator{
		tables: tables, names: names, logger: logger, MaxExpand: DefaultMaxExpand,
		specs: make(map[star.Dialect]map[string]*validate.Spec),
	}
	for d, fname := range map[star.Dialect]string{star.NEF: "nef.yaml", star.NMRSTAR: "nmrstar.yaml"} {
		b, err := specFS.ReadFile("loopspecs/" + fname)
		if err != nil {
			return nil, err
		}
		if t.specs[d], err = validate.ParseSpecs(b); err != nil {
			return nil, fmt.Errorf("%s: %w", fname, err)
		}
	}
	return t, nil
}

// seqPos is where a residue went in the archival numbering.
type seqPos struct{ entity, index int }

type pairKey struct{ chain, seq string }

// fileState is everything that lives as long as one file.
type fileState struct {
	entryID    string
	seqDict    map[pairKey]seqPos
	chains     map[string]int
	nextIndex  map[string]int
	listIDs    map[string]int
	frameNames map[string]bool
	warned     map[string]bool
	rep        *Report
}

func newFileState(entryID string, rep *Report) *fileState {
	return &fileState{
		entryID:    entryID,
		seqDict:    make(map[pairKey]seqPos),
		chains:     make(map[string]int),
		nextIndex:  make(map[string]int),
		listIDs:    make(map[string]int),
		frameNames: make(map[string]bool),
		warned:     make(map[string]bool),
		rep:        rep,
	}
}

// warnOnce stops a file with a thousand rows for one bad residue from
// giving a thousand warnings.
func (fs *fileState) warnOnce(format string, a ...any) {
	s := fmt.Sprintf(format, a...)
	if !fs.warned[s] {
		fs.warned[s] = true
		fs.rep.Warning = append(fs.rep.Warning, s)
	}
}

// addResidue puts a chain and sequence code in the dictionary, if it
// is not there already.
func (fs *fileState) addResidue(chain, seq string) {
	k := pairKey{chain, seq}
	if _, ok := fs.seqDict[k]; ok {
		return
	}
	ent, ok := fs.chains[chain]
	if !ok {
		ent = len(fs.chains) + 1
		fs.chains[chain] = ent
	}
	fs.nextIndex[chain]++
	fs.seqDict[k] = seqPos{entity: ent, index: fs.nextIndex[chain]}
}

func (fs *fileState) lookup(chain, seq string) (seqPos, bool) {
	p, ok := fs.seqDict[pairKey{chain, seq}]
	return p, ok
}

// buildSeqDict numbers every residue of the sequence loops, in the
// order they come.
func buildSeqDict(in *star.Entry, fs *fileState) {
	lps := in.LoopsOf("_nef_sequence")
	if len(lps) == 0 {
		fs.rep.warn("no _nef_sequence loop, residue numbers cannot be translated")
		return
	}
	for _, lp := range lps {
		ci, si := lp.ColIndex("chain_code"), lp.ColIndex("sequence_code")
		if ci == -1 || si == -1 {
			fs.rep.warn("%s has no chain_code or sequence_code", lp.Category)
			continue
		}
		for _, row := range lp.Data {
			if common.IsNull(row[ci]) || common.IsNull(row[si]) {
				continue
			}
			fs.addResidue(row[ci], row[si])
		}
	}
}

// checkVersion warns about a format version we were not written for.
func checkVersion(in *star.Entry, rep *Report) {
	c, err := semver.NewConstraint(FormatVersions)
	if err != nil {
		panic(err)
	}
	for _, sf := range in.FramesOf("nef_nmr_meta_data") {
		s, ok := sf.Get("format_version")
		if !ok || common.IsNull(s) {
			rep.warn("%s: no format_version", sf.Name)
			continue
		}
		v, err := semver.NewVersion(s)
		if err != nil {
			rep.warn("%s: format_version %q: %v", sf.Name, s, err)
			continue
		}
		if !c.Check(v) {
			rep.warn("format_version %s is not %s", s, FormatVersions)
		}
	}
}

// Translate turns an exchange entry into an archival one. The entry
// comes back even when the report has errors, but it is then
// incomplete. It is nil if the input is not an exchange entry.
func (t *Translator) Translate(in *star.Entry) (*star.Entry, *Report) {
	rep := newReport()
	d := star.Classify(in)
	rep.FileType = d.String()
	switch d {
	case star.Unknown:
		rep.fail("%v: no exchange or archival categories found", common.ErrDialect)
		return nil, rep
	case star.NMRSTAR:
		rep.fail("file is already NMR-STAR, only NEF can be translated")
		return nil, rep
	}
	fs := newFileState(in.Name, rep)
	if fs.entryID == "" {
		fs.entryID = uuid.NewString()
		rep.info("no data block name, using %s", fs.entryID)
	}
	checkVersion(in, rep)
	buildSeqDict(in, fs)

	out := &star.Entry{Name: fs.entryID}
	for _, sf := range in.Frames {
		if nsf := t.frame(sf, fs); nsf != nil {
			out.Frames = append(out.Frames, nsf)
		}
	}
	for _, lp := range in.Loops {
		if nlp := t.loop(lp, 1, fs); nlp != nil {
			out.Loops = append(out.Loops, nlp)
		}
	}
	t.logger.Printf("%s: %d save frames translated, %d errors", fs.entryID, len(out.Frames), len(rep.Error))
	return out, rep
}

// TranslateFile reads in, translates it and writes out. Nothing is
// written if there were errors.
func (t *Translator) TranslateFile(in, out string) (bool, *Report) {
	e, err := star.ReadFirst(in)
	if err != nil {
		rep := newReport()
		rep.fail("%s: %v", in, err)
		return false, rep
	}
	ne, rep := t.Translate(e)
	if !rep.OK() {
		return false, rep
	}
	if err := star.WriteFile(out, ne); err != nil {
		rep.fail("%s: %v", out, err)
		return false, rep
	}
	return true, rep
}

// frameName is the archival name of a save frame. We keep whatever
// followed the exchange category, like _bmrb1, and make sure it is
// not used twice.
func frameName(sf *star.Saveframe, cat string, fs *fileState) string {
	suffix := strings.TrimPrefix(sf.Name, sf.Category)
	if suffix == sf.Name {
		suffix = "_" + sf.Name
	}
	name := cat + suffix
	for n := 2; fs.frameNames[name]; n++ {
		name = cat + suffix + "_" + strconv.Itoa(n)
	}
	fs.frameNames[name] = true
	return name
}

// frame translates one save frame with its loops.
func (t *Translator) frame(sf *star.Saveframe, fs *fileState) *star.Saveframe {
	equivs := t.tables.EquivOf(sf.TagPrefix)
	if len(equivs) == 0 {
		fs.rep.info("save frame %s (%s) has no archival equivalent, left out", sf.Name, sf.TagPrefix)
		return nil
	}
	prefix := equivs[0].Category
	cat, ok := sfCategory[sf.Category]
	if !ok {
		cat = strings.ToLower(strings.TrimPrefix(prefix, "_"))
	}
	fs.listIDs[prefix]++
	id := fs.listIDs[prefix]
	name := frameName(sf, cat, fs)
	nsf := &star.Saveframe{Name: name, Category: cat, TagPrefix: prefix}
	nsf.Set(prefix+".Sf_category", cat)
	nsf.Set(prefix+".Sf_framecode", name)
	for _, tg := range sf.Tags {
		_, short := star.SplitTag(tg.Name)
		if s := strings.ToLower(short); s == "sf_category" || s == "sf_framecode" {
			continue
		}
		e, ok := t.tables.Equiv(tg.Name)
		if !ok {
			fs.rep.info("%s not translated", tg.Name)
			continue
		}
		nsf.Set(e.Archival, tg.Value)
	}
	if prefix == "_Entry" {
		nsf.Set("_Entry.ID", fs.entryID)
	} else {
		nsf.Set(prefix+".ID", strconv.Itoa(id))
		nsf.Set(prefix+".Entry_ID", fs.entryID)
	}
	for _, lp := range sf.Loops {
		if nlp := t.loop(lp, id, fs); nlp != nil {
			nsf.Loops = append(nsf.Loops, nlp)
		}
	}
	return nsf
}
