package xlate

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/andrew-torda/nmr_xlate/pkg/common"
	"github.com/andrew-torda/nmr_xlate/star"
	"github.com/andrew-torda/nmr_xlate/validate"
)

// Subtype picks which loops Validate looks at.
type Subtype byte

const (
	All Subtype = iota
	Shifts
	Restraints
)

var subtypeNames = [...]string{"all", "shifts", "restraints"}

func (s Subtype) String() string { return subtypeNames[s] }

// ParseSubtype is for command lines.
func ParseSubtype(s string) (Subtype, error) {
	for i, n := range subtypeNames {
		if strings.EqualFold(s, n) {
			return Subtype(i), nil
		}
	}
	return All, fmt.Errorf("subtype %q is not one of %s", s, strings.Join(subtypeNames[:], ", "))
}

var subtypeCats = map[Subtype]map[string]bool{
	Shifts: {"_nef_chemical_shift": true, "_Atom_chem_shift": true},
	Restraints: {
		"_nef_distance_restraint": true, "_nef_dihedral_restraint": true, "_nef_rdc_restraint": true,
		"_Gen_dist_constraint": true, "_Torsion_angle_constraint": true, "_RDC_constraint": true,
	},
}

func (s Subtype) wants(category string) bool {
	if s == All {
		return true
	}
	return subtypeCats[s][category]
}

// checkMandatory reports mandatory tags that are missing from save
// frames or loops.
func (t *Translator) checkMandatory(e *star.Entry, rep *Report) {
	for _, sf := range e.Frames {
		for _, tag := range t.tables.MandatoryOf(sf.TagPrefix) {
			if v, ok := sf.Get(tag); !ok || common.IsNull(v) {
				rep.fail("%v: %s in save frame %s", common.ErrMissingField, tag, sf.Name)
			}
		}
	}
	for _, lp := range e.AllLoops() {
		for _, tag := range t.tables.MandatoryOf(lp.Category) {
			if !lp.Has(tag) {
				rep.fail("%v: %s in loop %s", common.ErrMissingField, tag, lp.Category)
			}
		}
	}
}

// expectedTags are the tags a loop of category may carry: whatever
// the equivalence table knows, the mandatory ones and, for archival
// loops, the Auth_ companions and bookkeeping the translator adds.
func (t *Translator) expectedTags(d star.Dialect, category string) []string {
	ret := t.tables.MandatoryOf(category)
	if d == star.NEF {
		for _, e := range t.tables.EquivOf(category) {
			ret = append(ret, e.Exchange)
		}
		for tag := range sourceOnly {
			ret = append(ret, tag)
		}
		return ret
	}
	for _, e := range t.tables.ArchivalOf(category) {
		ret = append(ret, e.Archival)
		_, short := star.SplitTag(e.Exchange)
		base, suffix := splitSuffix(short)
		if k, ok := differing[base]; ok {
			ret = append(ret, companions[k]+suffix)
		}
	}
	return append(ret, bookkeeping[category]...)
}

// parentID is the ID of an archival save frame, what its loops must
// point at. Zero if there is none.
func parentID(sf *star.Saveframe) int {
	if sf == nil {
		return 0
	}
	v, ok := sf.Get("ID")
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

// Validate checks a file of either kind. It says whether there were no
// errors and gives the details in the report.
func (t *Translator) Validate(e *star.Entry, sub Subtype) (bool, *Report) {
	rep := newReport()
	d := star.Classify(e)
	rep.FileType = d.String()
	if d == star.Unknown {
		rep.fail("%v: no exchange or archival categories found", common.ErrDialect)
		return false, rep
	}
	t.checkMandatory(e, rep)
	specs := t.specs[d]
	n := 0
	check := func(lp *star.Loop, sf *star.Saveframe) {
		if !sub.wants(lp.Category) {
			return
		}
		n++
		spec := specs[lp.Category]
		if spec == nil {
			rep.info("loop %s has no declaration, not checked", lp.Category)
			return
		}
		opts := &validate.Options{
			ParentPointer:     parentID(sf),
			AllowedTags:       t.expectedTags(d, lp.Category),
			EnforceIndexOrder: d == star.NMRSTAR,
		}
		_, err := validate.Loop(lp, spec.KeyItems(), spec.DataItems(), opts)
		var adv *validate.Advisory
		switch {
		case err == nil:
		case errors.As(err, &adv):
			for _, m := range adv.Msgs {
				rep.warn("%s: %s", lp.Category, m)
			}
		default:
			rep.fail("%v", err)
		}
	}
	for _, sf := range e.Frames {
		for _, lp := range sf.Loops {
			check(lp, sf)
		}
	}
	for _, lp := range e.Loops {
		check(lp, nil)
	}
	if sub != All && n == 0 {
		rep.fail("%v: no %s loop in the file", common.ErrMissingField, sub)
	}
	return rep.OK(), rep
}

// ValidateFile reads the first data block of a file and validates it.
func (t *Translator) ValidateFile(path string, sub Subtype) (bool, *Report) {
	e, err := star.ReadFirst(path)
	if err != nil {
		rep := newReport()
		rep.fail("%s: %v", path, err)
		return false, rep
	}
	return t.Validate(e, sub)
}
