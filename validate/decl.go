package validate

import (
	"fmt"

	"github.com/andrew-torda/nmr_xlate/pkg/common"
	"gopkg.in/yaml.v3"
)

// BoundDecl is one end of a range in a declaration.
type BoundDecl struct {
	Value     float64 `yaml:"value"`
	Inclusive bool    `yaml:"inclusive"`
}

// Decl is an item as it is written in a YAML spec file. Which fields
// mean something depends on Type. Build turns it into an Item.
type Decl struct {
	Name            string     `yaml:"name"`
	Type            string     `yaml:"type"`
	Mandatory       bool       `yaml:"mandatory"`
	GroupMandatory  bool       `yaml:"group-mandatory"`
	Default         string     `yaml:"default"`
	RelaxKeyIfExist string     `yaml:"relax-key-if-exist"`
	Group           Group      `yaml:"group"`
	Min             *BoundDecl `yaml:"min"`
	Max             *BoundDecl `yaml:"max"`
	Enum            []string   `yaml:"enum"`
	EnumInt         []int      `yaml:"enum-int"`
	EnforceEnum     bool       `yaml:"enforce-enum"`
	EnforceSign     bool       `yaml:"enforce-sign"`
	EnforceNonZero  bool       `yaml:"enforce-non-zero"`
}

// Spec is the declaration of one loop category.
type Spec struct {
	Category string `yaml:"category"`
	Keys     []Decl `yaml:"keys"`
	Data     []Decl `yaml:"data"`

	keyItems  []Item
	dataItems []Item
}

// KeyItems are the built key items.
func (s *Spec) KeyItems() []Item { return s.keyItems }

// DataItems are the built data items.
func (s *Spec) DataItems() []Item { return s.dataItems }

func bound(b *BoundDecl) Bound {
	if b == nil {
		return Bound{}
	}
	return Bound{Value: b.Value, Inclusive: b.Inclusive, Set: true}
}

// Build makes one item. An unknown type is a schema error, as is an
// enum without its list or a range without a bound.
func (d *Decl) Build() (Item, error) {
	if d.Name == "" {
		return nil, fmt.Errorf("%w: item without a name", common.ErrSchema)
	}
	c := Common{
		Name: d.Name, Mandatory: d.Mandatory, GroupMandatory: d.GroupMandatory,
		Default: d.Default, RelaxKeyIfExist: d.RelaxKeyIfExist, Group: d.Group,
	}
	bad := func(msg string) error {
		return fmt.Errorf("%w: %s (%s): %s", common.ErrSchema, d.Name, d.Type, msg)
	}
	switch d.Type {
	case "str":
		return &StrItem{Common: c}, nil
	case "bool":
		return &BoolItem{Common: c}, nil
	case "int":
		return &IntItem{Common: c}, nil
	case "index-int":
		return &IndexIntItem{Common: c}, nil
	case "positive-int":
		return &PositiveIntItem{Common: c, EnforceNonZero: d.EnforceNonZero}, nil
	case "pointer-index":
		return &PointerIndexItem{Common: c}, nil
	case "float":
		return &FloatItem{Common: c}, nil
	case "positive-float":
		return &PositiveFloatItem{Common: c, EnforceNonZero: d.EnforceNonZero}, nil
	case "range-float":
		if d.Min == nil && d.Max == nil {
			return nil, bad("no min or max")
		}
		return &RangeFloatItem{Common: c, Min: bound(d.Min), Max: bound(d.Max),
			EnforceSign: d.EnforceSign, EnforceNonZero: d.EnforceNonZero}, nil
	case "enum":
		if len(d.Enum) == 0 {
			return nil, bad("empty enum")
		}
		return &EnumItem{Common: c, Enum: d.Enum, EnforceEnum: d.EnforceEnum}, nil
	case "enum-int":
		if len(d.EnumInt) == 0 {
			return nil, bad("empty enum-int")
		}
		return &EnumIntItem{Common: c, Enum: d.EnumInt, EnforceEnum: d.EnforceEnum}, nil
	}
	return nil, bad("unknown type")
}

// Build turns a list of declarations into items. It stops at the
// first bad one.
func Build(decls []Decl) ([]Item, error) {
	items := make([]Item, 0, len(decls))
	for i := range decls {
		it, err := decls[i].Build()
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, nil
}

// ParseSpecs reads a YAML list of loop specs and builds all their
// items. The result is keyed by category.
func ParseSpecs(b []byte) (map[string]*Spec, error) {
	var specs []*Spec
	if err := yaml.Unmarshal(b, &specs); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrSchema, err)
	}
	ret := make(map[string]*Spec, len(specs))
	for _, s := range specs {
		if s.Category == "" {
			return nil, fmt.Errorf("%w: spec without a category", common.ErrSchema)
		}
		var err error
		if s.keyItems, err = Build(s.Keys); err != nil {
			return nil, fmt.Errorf("%s: %w", s.Category, err)
		}
		if s.dataItems, err = Build(s.Data); err != nil {
			return nil, fmt.Errorf("%s: %w", s.Category, err)
		}
		ret[s.Category] = s
	}
	return ret, nil
}
