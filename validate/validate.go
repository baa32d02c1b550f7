package validate

import (
	"strconv"
	"strings"

	"github.com/andrew-torda/nmr_xlate/pkg/common"
	"github.com/andrew-torda/nmr_xlate/star"
)

// Row is one validated row, item name to value. Values are string,
// bool, int or float64. An absent optional item is not in the map.
type Row map[string]any

// Options change how a loop is checked. The zero value is fine.
type Options struct {
	// ParentPointer is the value pointer-index items must have. Zero
	// means they only have to agree with each other.
	ParentPointer int
	// AllowedTags, if not nil, lists the tags a loop may have beyond
	// the declared items. Anything else is a warning.
	AllowedTags []string
	// ExcludeMissingData drops rows whose key items are all empty.
	ExcludeMissingData bool
	// EnforceIndexOrder wants index items to count 1, 2, 3 in row order.
	EnforceIndexOrder bool
}

// Advisory collects the soft problems of a loop. Loop returns it as
// its error when nothing worse happened, so the rows are good.
type Advisory struct {
	Loop string
	Msgs []string
}

func (a *Advisory) Error() string {
	return common.ErrAdvisory.Error() + " in " + a.Loop + ": " + strings.Join(a.Msgs, "; ")
}

// Unwrap makes errors.Is(err, common.ErrAdvisory) work.
func (a *Advisory) Unwrap() error { return common.ErrAdvisory }

func (a *Advisory) add(row int, item, msg string) {
	var b strings.Builder
	if row != 0 {
		b.WriteString("row " + strconv.Itoa(row) + " ")
	}
	if item != "" {
		b.WriteString(item + ": ")
	}
	b.WriteString(msg)
	a.Msgs = append(a.Msgs, b.String())
}

// checker holds what we need while going through one loop.
type checker struct {
	lp    *star.Loop
	items []Item
	col   []int // column of each item, -1 if absent
	nKey  int   // the first nKey items are keys
	opts  *Options
	adv   *Advisory
}

func (c *checker) fail(kind error, row int, item, msg string) error {
	return &common.LoopError{Kind: kind, Loop: c.lp.Category, Row: row, Item: item, Msg: msg}
}

// Loop checks every row of a loop and returns the typed rows. The
// error is nil, a hard failure (wrapping one of the common kinds, with
// no rows), or an *Advisory with the rows.
func Loop(lp *star.Loop, keyItems, dataItems []Item, opts *Options) ([]Row, error) {
	if opts == nil {
		opts = &Options{}
	}
	c := &checker{
		lp:    lp,
		items: append(append([]Item{}, keyItems...), dataItems...),
		nKey:  len(keyItems),
		opts:  opts,
		adv:   &Advisory{Loop: lp.Category},
	}
	if err := c.findColumns(); err != nil {
		return nil, err
	}
	rows := make([]Row, 0, len(lp.Data))
	srcRow := make([]int, 0, len(lp.Data)) // row number in the loop of each kept row
	nDropped := 0
	for i := range lp.Data {
		if opts.ExcludeMissingData && c.keysEmpty(i) {
			nDropped++
			continue
		}
		r, err := c.row(i)
		if err != nil {
			return nil, err
		}
		rows = append(rows, r)
		srcRow = append(srcRow, i)
	}
	if nDropped > 0 {
		c.adv.add(0, "", strconv.Itoa(nDropped)+" rows without key values left out")
	}
	if err := c.unique(srcRow); err != nil {
		return nil, err
	}
	if err := c.indexes(rows); err != nil {
		return nil, err
	}
	if err := c.pointers(rows); err != nil {
		return nil, err
	}
	if len(c.adv.Msgs) > 0 {
		return rows, c.adv
	}
	return rows, nil
}

// findColumns matches items to columns. A mandatory item that is not
// there fails the loop unless it belongs to a group.
func (c *checker) findColumns() error {
	c.col = make([]int, len(c.items))
	for i, it := range c.items {
		b := it.Base()
		c.col[i] = c.lp.ColIndex(b.Name)
		if c.col[i] == -1 && b.Mandatory && !b.GroupMandatory {
			return c.fail(common.ErrMissingField, 0, b.Name, "mandatory item is missing")
		}
	}
	if c.opts.AllowedTags == nil {
		return nil
	}
	allowed := make(map[string]bool, len(c.opts.AllowedTags))
	for _, t := range c.opts.AllowedTags {
		_, short := star.SplitTag(t)
		allowed[strings.ToLower(short)] = true
	}
	for _, it := range c.items {
		allowed[strings.ToLower(it.Base().Name)] = true
	}
	for _, t := range c.lp.Tags {
		if !allowed[strings.ToLower(t)] {
			c.adv.add(0, t, "tag is not expected here")
		}
	}
	return nil
}

func (c *checker) cell(row, item int) string {
	if c.col[item] == -1 {
		return ""
	}
	return c.lp.Data[row][c.col[item]]
}

func (c *checker) keysEmpty(row int) bool {
	for i := 0; i < c.nKey; i++ {
		if !common.IsNull(c.cell(row, i)) {
			return false
		}
	}
	return c.nKey > 0
}

// row types one row and then checks the relations between its items.
func (c *checker) row(i int) (Row, error) {
	r := make(Row, len(c.items))
	rowNum := i + 1
	for j, it := range c.items {
		b := it.Base()
		s := c.cell(i, j)
		if common.IsNull(s) {
			switch {
			case b.Mandatory && !b.GroupMandatory:
				return nil, c.fail(common.ErrConstraint, rowNum, b.Name, "mandatory item has no value")
			case b.Default != "":
				s = b.Default
			default:
				continue
			}
		}
		v, soft, hard := it.check(s)
		if hard != "" {
			return nil, c.fail(common.ErrConstraint, rowNum, b.Name, hard)
		}
		if soft != "" {
			c.adv.add(rowNum, b.Name, soft)
		}
		r[b.Name] = v
	}
	if err := c.groups(r, rowNum); err != nil {
		return nil, err
	}
	return r, nil
}

// groups checks member / coexist rules and the order relations.
func (c *checker) groups(r Row, rowNum int) error {
	for _, it := range c.items {
		b := it.Base()
		g := &b.Group
		_, here := r[b.Name]
		if !here && b.GroupMandatory {
			found := false
			for _, m := range g.MemberWith {
				if _, ok := r[m]; ok {
					found = true
					break
				}
			}
			if !found {
				return c.fail(common.ErrConstraint, rowNum, b.Name,
					"needs a value or one of "+strings.Join(g.MemberWith, " "))
			}
		}
		if !here {
			continue
		}
		for _, m := range g.CoexistWith {
			if _, ok := r[m]; !ok {
				return c.fail(common.ErrConstraint, rowNum, b.Name, "needs "+m+" as well")
			}
		}
		v := r[b.Name]
		for _, m := range g.SmallerThan {
			if w, ok := r[m]; ok && !less(v, w) {
				return c.fail(common.ErrConstraint, rowNum, b.Name, "must be smaller than "+m)
			}
		}
		for _, m := range g.LargerThan {
			if w, ok := r[m]; ok && !less(w, v) {
				return c.fail(common.ErrConstraint, rowNum, b.Name, "must be larger than "+m)
			}
		}
		for _, m := range g.NotEqualTo {
			if w, ok := r[m]; ok && asString(v) == asString(w) {
				return c.fail(common.ErrConstraint, rowNum, b.Name, "must not equal "+m)
			}
		}
	}
	return nil
}

// less compares numbers as numbers and anything else as text.
func less(a, b any) bool {
	fa, oka := asFloat(a)
	fb, okb := asFloat(b)
	if oka && okb {
		return fa < fb
	}
	return asString(a) < asString(b)
}

func asFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}

func asString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case float64:
		return ftoa(x)
	case bool:
		return strconv.FormatBool(x)
	}
	return ""
}

const keySep = "\x00"

// keyOf joins the key cells of a row. With relax, the relax columns go
// on the end.
func (c *checker) keyOf(row int, relax bool) string {
	var b strings.Builder
	for i := 0; i < c.nKey; i++ {
		b.WriteString(strings.ToUpper(c.cell(row, i)))
		b.WriteString(keySep)
	}
	if relax {
		for i := 0; i < c.nKey; i++ {
			if rk := c.items[i].Base().RelaxKeyIfExist; rk != "" {
				b.WriteString(c.lp.Value(row, rk))
				b.WriteString(keySep)
			}
		}
	}
	return b.String()
}

// relaxDiffers says if two rows differ in a relax column.
func (c *checker) relaxDiffers(r1, r2 int) bool {
	for i := 0; i < c.nKey; i++ {
		rk := c.items[i].Base().RelaxKeyIfExist
		if rk == "" || !c.lp.Has(rk) {
			continue
		}
		if c.lp.Value(r1, rk) != c.lp.Value(r2, rk) {
			return true
		}
	}
	return false
}

// unique checks that the key items identify a row. A duplicate with a
// different relax value gets a second chance, the check is done again
// with the relax values in the key.
func (c *checker) unique(srcRow []int) error {
	if c.nKey == 0 {
		return nil
	}
	seen := make(map[string]int, len(srcRow))
	relaxed := false
	for _, i := range srcRow {
		k := c.keyOf(i, false)
		if first, ok := seen[k]; ok {
			if !c.relaxDiffers(first, i) {
				return c.fail(common.ErrDuplicateKey, i+1, "",
					"same key as row "+strconv.Itoa(first+1)+": "+c.keyText(i))
			}
			relaxed = true
			continue
		}
		seen[k] = i
	}
	if !relaxed {
		return nil
	}
	seen = make(map[string]int, len(srcRow))
	for _, i := range srcRow {
		k := c.keyOf(i, true)
		if first, ok := seen[k]; ok {
			return c.fail(common.ErrDuplicateKey, i+1, "",
				"same key as row "+strconv.Itoa(first+1)+" even with relaxed key")
		}
		seen[k] = i
	}
	return nil
}

func (c *checker) keyText(row int) string {
	parts := make([]string, c.nKey)
	for i := range parts {
		parts[i] = c.items[i].Base().Name + "=" + c.cell(row, i)
	}
	return strings.Join(parts, " ")
}

// indexes gives each index item its own uniqueness check.
func (c *checker) indexes(rows []Row) error {
	for _, it := range c.items {
		if it.Kind() != KindIndexInt {
			continue
		}
		name := it.Base().Name
		seen := make(map[int]int, len(rows))
		for n, r := range rows {
			v, ok := r[name].(int)
			if !ok {
				continue
			}
			if first, dup := seen[v]; dup {
				return c.fail(common.ErrDuplicateKey, n+1, name,
					strconv.Itoa(v)+" already used in row "+strconv.Itoa(first+1))
			}
			seen[v] = n
			if c.opts.EnforceIndexOrder && v != n+1 {
				return c.fail(common.ErrConstraint, n+1, name,
					"index "+strconv.Itoa(v)+" out of order, expected "+strconv.Itoa(n+1))
			}
		}
	}
	return nil
}

// pointers checks that pointer items all point at the same frame.
func (c *checker) pointers(rows []Row) error {
	for _, it := range c.items {
		if it.Kind() != KindPointerIndex {
			continue
		}
		name := it.Base().Name
		want := c.opts.ParentPointer
		for n, r := range rows {
			v, ok := r[name].(int)
			if !ok {
				continue
			}
			if want == 0 {
				want = v
			}
			if v != want {
				return c.fail(common.ErrConstraint, n+1, name,
					"points at "+strconv.Itoa(v)+", not at "+strconv.Itoa(want))
			}
		}
	}
	return nil
}
