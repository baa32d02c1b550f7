// 13 Oct 2026

// Package validate checks the rows of a loop against a list of item
// declarations and turns the cells into typed values. Every kind of
// item has its own type with its own fields, so a range item always has
// its bounds and an enum item always has its list.
package validate

import (
	"math"
	"strconv"
	"strings"
)

// Kind names an item type, as it is written in a declaration.
type Kind byte

const (
	KindStr Kind = iota
	KindBool
	KindInt
	KindIndexInt
	KindPositiveInt
	KindPointerIndex
	KindFloat
	KindPositiveFloat
	KindRangeFloat
	KindEnum
	KindEnumInt
)

var kindNames = [...]string{
	KindStr:           "str",
	KindBool:          "bool",
	KindInt:           "int",
	KindIndexInt:      "index-int",
	KindPositiveInt:   "positive-int",
	KindPointerIndex:  "pointer-index",
	KindFloat:         "float",
	KindPositiveFloat: "positive-float",
	KindRangeFloat:    "range-float",
	KindEnum:          "enum",
	KindEnumInt:       "enum-int",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Group holds the relations of one item to others in the same row.
// All names are item names.
type Group struct {
	MemberWith  []string `yaml:"member-with"`  // one of these may stand in for this item
	CoexistWith []string `yaml:"coexist-with"` // if this item is there, these must be too
	SmallerThan []string `yaml:"smaller-than"`
	LargerThan  []string `yaml:"larger-than"`
	NotEqualTo  []string `yaml:"not-equal-to"`
}

// Common has what every item has.
type Common struct {
	Name            string
	Mandatory       bool
	GroupMandatory  bool   // absent is fine if a MemberWith item is present
	Default         string // used for an empty cell of an optional item
	RelaxKeyIfExist string // a different value in this column relaxes the key check
	Group           Group
}

// Item is one declared column.
type Item interface {
	Base() *Common
	Kind() Kind
	// check converts a cell. soft is a warning, err a hard failure.
	check(s string) (v any, soft string, err string)
}

// Base gives the common part. It lets every item type satisfy Item
// by embedding Common.
func (c *Common) Base() *Common { return c }

// Bound is one end of a range. Set is false for an open end.
type Bound struct {
	Value     float64
	Inclusive bool
	Set       bool
}

// below says if v is on the wrong side of a lower bound.
func (b Bound) below(v float64) bool {
	if !b.Set {
		return false
	}
	if b.Inclusive {
		return v < b.Value
	}
	return v <= b.Value
}

// above says if v is on the wrong side of an upper bound.
func (b Bound) above(v float64) bool {
	if !b.Set {
		return false
	}
	if b.Inclusive {
		return v > b.Value
	}
	return v >= b.Value
}

func (b Bound) lowString() string {
	if !b.Set {
		return "(-inf"
	}
	if b.Inclusive {
		return "[" + ftoa(b.Value)
	}
	return "(" + ftoa(b.Value)
}

func (b Bound) highString() string {
	if !b.Set {
		return "inf)"
	}
	if b.Inclusive {
		return ftoa(b.Value) + "]"
	}
	return ftoa(b.Value) + ")"
}

func ftoa(f float64) string { return strconv.FormatFloat(f, 'g', -1, 64) }

// StrItem is any text.
type StrItem struct{ Common }

func (it *StrItem) Kind() Kind { return KindStr }
func (it *StrItem) check(s string) (any, string, string) {
	return s, "", ""
}

// BoolItem takes true/false, yes/no and the like.
type BoolItem struct{ Common }

func (it *BoolItem) Kind() Kind { return KindBool }
func (it *BoolItem) check(s string) (any, string, string) {
	switch strings.ToLower(s) {
	case "true", "t", "yes", "y", "1":
		return true, "", ""
	case "false", "f", "no", "n", "0":
		return false, "", ""
	}
	return nil, "", s + " is not a boolean"
}

func toInt(s string) (int, string) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, s + " is not an integer"
	}
	return i, ""
}

// IntItem is any integer.
type IntItem struct{ Common }

func (it *IntItem) Kind() Kind { return KindInt }
func (it *IntItem) check(s string) (any, string, string) {
	i, e := toInt(s)
	if e != "" {
		return nil, "", e
	}
	return i, "", ""
}

// IndexIntItem is a row index. Values must be positive and unique in
// the loop, no matter what the key items say.
type IndexIntItem struct{ Common }

func (it *IndexIntItem) Kind() Kind { return KindIndexInt }
func (it *IndexIntItem) check(s string) (any, string, string) {
	i, e := toInt(s)
	if e != "" {
		return nil, "", e
	}
	if i < 1 {
		return nil, "", s + " is not a valid index, must be 1 or more"
	}
	return i, "", ""
}

// PositiveIntItem is an integer that should not be negative. Zero is a
// warning unless EnforceNonZero.
type PositiveIntItem struct {
	Common
	EnforceNonZero bool
}

func (it *PositiveIntItem) Kind() Kind { return KindPositiveInt }
func (it *PositiveIntItem) check(s string) (any, string, string) {
	i, e := toInt(s)
	if e != "" {
		return nil, "", e
	}
	switch {
	case i < 0:
		return nil, "", s + " must not be negative"
	case i == 0 && it.EnforceNonZero:
		return nil, "", "zero is not allowed"
	case i == 0:
		return i, "zero value", ""
	}
	return i, "", ""
}

// PointerIndexItem points back at the save frame that holds the loop.
// Every row must carry the same value.
type PointerIndexItem struct{ Common }

func (it *PointerIndexItem) Kind() Kind { return KindPointerIndex }
func (it *PointerIndexItem) check(s string) (any, string, string) {
	i, e := toInt(s)
	if e != "" {
		return nil, "", e
	}
	if i < 1 {
		return nil, "", s + " is not a valid pointer"
	}
	return i, "", ""
}

func toFloat(s string) (float64, string) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, s + " is not a number"
	}
	return f, ""
}

// FloatItem is any number.
type FloatItem struct{ Common }

func (it *FloatItem) Kind() Kind { return KindFloat }
func (it *FloatItem) check(s string) (any, string, string) {
	f, e := toFloat(s)
	if e != "" {
		return nil, "", e
	}
	return f, "", ""
}

// PositiveFloatItem is a number that should not be negative.
type PositiveFloatItem struct {
	Common
	EnforceNonZero bool
}

func (it *PositiveFloatItem) Kind() Kind { return KindPositiveFloat }
func (it *PositiveFloatItem) check(s string) (any, string, string) {
	f, e := toFloat(s)
	if e != "" {
		return nil, "", e
	}
	switch {
	case f < 0:
		return nil, "", s + " must not be negative"
	case f == 0 && it.EnforceNonZero:
		return nil, "", "zero is not allowed"
	case f == 0:
		return f, "zero value", ""
	}
	return f, "", ""
}

// RangeFloatItem is a number between Min and Max.
// A value with the wrong sign, like -0.5 in [0, 1], is only a warning,
// unless EnforceSign is set or its size would also break the other
// bound. Any other value out of range is an error.
type RangeFloatItem struct {
	Common
	Min, Max       Bound
	EnforceSign    bool
	EnforceNonZero bool
}

func (it *RangeFloatItem) Kind() Kind { return KindRangeFloat }
func (it *RangeFloatItem) check(s string) (any, string, string) {
	f, e := toFloat(s)
	if e != "" {
		return nil, "", e
	}
	rng := it.Min.lowString() + ", " + it.Max.highString()
	if f == 0 && it.Min.Set && it.Min.Value == 0 && !it.Min.Inclusive {
		if it.EnforceNonZero {
			return nil, "", "zero is not allowed in " + rng
		}
		return f, "zero value outside " + rng, ""
	}
	lowSign := it.Min.Set && it.Min.Value == 0 && f < 0
	highSign := it.Max.Set && it.Max.Value == 0 && f > 0
	if lowSign || highSign {
		switch {
		case it.EnforceSign:
			return nil, "", s + " has the wrong sign for " + rng
		case lowSign && it.Max.above(-f), highSign && it.Min.below(-f):
			return nil, "", s + " is out of range " + rng
		}
		return f, s + " has the wrong sign for " + rng, ""
	}
	if it.Min.below(f) || it.Max.above(f) {
		return nil, "", s + " is out of range " + rng
	}
	return f, "", ""
}

// EnumItem is a string from a list. Something else is only an error
// with EnforceEnum.
type EnumItem struct {
	Common
	Enum        []string
	EnforceEnum bool
}

func (it *EnumItem) Kind() Kind { return KindEnum }
func (it *EnumItem) check(s string) (any, string, string) {
	for _, e := range it.Enum {
		if e == s {
			return s, "", ""
		}
	}
	msg := s + " is not one of " + strings.Join(it.Enum, " ")
	if it.EnforceEnum {
		return nil, "", msg
	}
	return s, msg, ""
}

// EnumIntItem is an integer from a list.
type EnumIntItem struct {
	Common
	Enum        []int
	EnforceEnum bool
}

func (it *EnumIntItem) Kind() Kind { return KindEnumInt }
func (it *EnumIntItem) check(s string) (any, string, string) {
	i, e := toInt(s)
	if e != "" {
		return nil, "", e
	}
	for _, v := range it.Enum {
		if v == i {
			return i, "", ""
		}
	}
	ss := make([]string, len(it.Enum))
	for j, v := range it.Enum {
		ss[j] = strconv.Itoa(v)
	}
	msg := s + " is not one of " + strings.Join(ss, " ")
	if it.EnforceEnum {
		return nil, "", msg
	}
	return i, msg, ""
}
