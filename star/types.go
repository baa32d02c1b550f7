package star

import (
	"strings"
)

// Tag is a data item, name and value. The name is the full
// name, like _nef_chemical_shift_list.sf_category.
type Tag struct {
	Name  string
	Value string
}

// Loop is a table. Category is the part of the tag names before the dot,
// including the leading underscore. Tags are the parts after the dot.
// Data is row-major and every row has len(Tags) values.
type Loop struct {
	Category string
	Tags     []string
	Data     [][]string
}

// Saveframe groups data items and loops.
type Saveframe struct {
	Name      string // from save_name
	Category  string // value of the sf_category item, if there is one
	TagPrefix string // like _nef_chemical_shift_list
	Tags      []Tag
	Loops     []*Loop
}

// Entry is a data block. In NEF and NMR-STAR everything lives in save
// frames, in mmCIF the items and loops sit directly in the block.
type Entry struct {
	Name   string
	Items  []Tag
	Frames []*Saveframe
	Loops  []*Loop
}

// LoopView is anything that can be asked for its loops of a category.
// An Entry looks everywhere, a Saveframe in itself, a Loop only at
// itself. This lets callers stop caring what they were handed.
type LoopView interface {
	LoopsOf(category string) []*Loop
}

// NewLoop makes an empty loop with the given tags.
func NewLoop(category string, tags []string) *Loop {
	t := make([]string, len(tags))
	copy(t, tags)
	return &Loop{Category: category, Tags: t}
}

// ColIndex returns the column for a tag or -1. An exact match wins,
// otherwise we compare without case, as the format says we should.
func (lp *Loop) ColIndex(tag string) int {
	tag = shortName(tag)
	for i, t := range lp.Tags {
		if t == tag {
			return i
		}
	}
	for i, t := range lp.Tags {
		if strings.EqualFold(t, tag) {
			return i
		}
	}
	return -1
}

// Has says if the loop has a column.
func (lp *Loop) Has(tag string) bool { return lp.ColIndex(tag) != -1 }

// Value returns the value in row i for a tag, or "" if there is no
// such column.
func (lp *Loop) Value(i int, tag string) string {
	j := lp.ColIndex(tag)
	if j == -1 || i < 0 || i >= len(lp.Data) {
		return ""
	}
	return lp.Data[i][j]
}

// AddRow appends a row. The row must be the right length.
func (lp *Loop) AddRow(row []string) {
	lp.Data = append(lp.Data, row)
}

// NRow is the number of rows.
func (lp *Loop) NRow() int { return len(lp.Data) }

// FullTag gives the tag name with the category, _cat.tag
func (lp *Loop) FullTag(i int) string { return lp.Category + "." + lp.Tags[i] }

// LoopsOf on a single loop returns the loop if it is the right kind.
func (lp *Loop) LoopsOf(category string) []*Loop {
	if strings.EqualFold(lp.Category, category) {
		return []*Loop{lp}
	}
	return nil
}

// LoopsOf returns the loops in the save frame of a category.
func (sf *Saveframe) LoopsOf(category string) []*Loop {
	var ret []*Loop
	for _, lp := range sf.Loops {
		if strings.EqualFold(lp.Category, category) {
			ret = append(ret, lp)
		}
	}
	return ret
}

// Get returns the value of a save frame item. The name can be full
// (_cat.tag) or just the part after the dot.
func (sf *Saveframe) Get(name string) (string, bool) {
	return getTag(sf.Tags, name)
}

// Set replaces the value of an item, or adds it.
func (sf *Saveframe) Set(name, value string) {
	for i := range sf.Tags {
		if sameTag(sf.Tags[i].Name, name) {
			sf.Tags[i].Value = value
			return
		}
	}
	if !strings.HasPrefix(name, "_") && sf.TagPrefix != "" {
		name = sf.TagPrefix + "." + name
	}
	sf.Tags = append(sf.Tags, Tag{Name: name, Value: value})
}

// LoopsOf on an entry looks in every save frame and also at the loops
// outside any save frame.
func (e *Entry) LoopsOf(category string) []*Loop {
	var ret []*Loop
	for _, sf := range e.Frames {
		ret = append(ret, sf.LoopsOf(category)...)
	}
	for _, lp := range e.Loops {
		if strings.EqualFold(lp.Category, category) {
			ret = append(ret, lp)
		}
	}
	return ret
}

// FramesOf returns save frames with a given sf_category.
func (e *Entry) FramesOf(category string) []*Saveframe {
	var ret []*Saveframe
	for _, sf := range e.Frames {
		if strings.EqualFold(sf.Category, category) {
			ret = append(ret, sf)
		}
	}
	return ret
}

// Item returns a data item that is outside of any save frame.
func (e *Entry) Item(name string) (string, bool) {
	return getTag(e.Items, name)
}

// AllLoops gives every loop in file order, save frames first.
func (e *Entry) AllLoops() []*Loop {
	var ret []*Loop
	for _, sf := range e.Frames {
		ret = append(ret, sf.Loops...)
	}
	return append(ret, e.Loops...)
}

// SplitTag breaks _cat.tag into _cat and tag. Without a dot, both are
// the whole name.
func SplitTag(name string) (category, tag string) {
	if i := strings.IndexByte(name, '.'); i != -1 {
		return name[:i], name[i+1:]
	}
	return name, name
}

// shortName drops the category from a tag name
func shortName(name string) string {
	if i := strings.IndexByte(name, '.'); i != -1 {
		return name[i+1:]
	}
	return name
}

// sameTag compares names where either may be the short form.
func sameTag(full, name string) bool {
	if strings.EqualFold(full, name) {
		return true
	}
	if !strings.HasPrefix(name, "_") {
		return strings.EqualFold(shortName(full), name)
	}
	return false
}

func getTag(tags []Tag, name string) (string, bool) {
	for _, t := range tags {
		if sameTag(t.Name, name) {
			return t.Value, true
		}
	}
	return "", false
}

// Table returns the loop of a category in an mmCIF style block. A
// category with one row is often written as plain items, so then we
// make a loop of them. It returns nil if neither is there.
func (e *Entry) Table(category string) *Loop {
	if lps := e.LoopsOf(category); len(lps) > 0 {
		return lps[0]
	}
	var lp *Loop
	var row []string
	for _, t := range e.Items {
		cat, tag := SplitTag(t.Name)
		if !strings.EqualFold(cat, category) {
			continue
		}
		if lp == nil {
			lp = &Loop{Category: cat}
		}
		lp.Tags = append(lp.Tags, tag)
		row = append(row, t.Value)
	}
	if lp != nil {
		lp.Data = [][]string{row}
	}
	return lp
}
