package common

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// The error kinds. Callers test with errors.Is, the packages that
// produce them wrap with %w or use a LoopError.
var (
	// ErrResource is a static table that could not be read. Not fatal.
	ErrResource = errors.New("nmr_xlate: resource unreadable")

	// ErrSchema is a constraint declaration that makes no sense, like an
	// unknown item type. It does not depend on any input file.
	ErrSchema = errors.New("nmr_xlate: bad constraint declaration")

	// ErrMissingField is a required tag or column absent from a loop.
	ErrMissingField = errors.New("nmr_xlate: missing field")

	// ErrConstraint is a cell that fails coercion or a hard rule.
	ErrConstraint = errors.New("nmr_xlate: constraint violation")

	// ErrDuplicateKey is a uniqueness violation that survived the
	// relaxed re-check.
	ErrDuplicateKey = errors.New("nmr_xlate: duplicate key")

	// ErrAdvisory marks soft violations, collected once a loop has
	// otherwise passed.
	ErrAdvisory = errors.New("nmr_xlate: advisory")

	// ErrUnresolved is an atom or chain reference with no match.
	ErrUnresolved = errors.New("nmr_xlate: unresolved reference")

	// ErrAmbiguousChain is a reference whose chain could be any of
	// several equally good model chains. It is also an ErrUnresolved.
	ErrAmbiguousChain = fmt.Errorf("%w: ambiguous chain assignment", ErrUnresolved)

	// ErrDialect is a file that is neither exchange nor archival.
	ErrDialect = errors.New("nmr_xlate: unrecognised dialect")
)

// LoopError saves where a problem was seen, so a message can say which
// loop, row and item. Row counts from 1, zero means "no row".
type LoopError struct {
	Kind error  // One of the Err... values above
	Loop string // Loop category like _nef_chemical_shift
	Row  int
	Item string
	Msg  string
}

// Error puts the pieces together as one line.
func (e *LoopError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.Loop != "" {
		b.WriteString(" in " + e.Loop)
	}
	if e.Row != 0 {
		b.WriteString(" row " + strconv.Itoa(e.Row))
	}
	if e.Item != "" {
		b.WriteString(" item " + e.Item)
	}
	if e.Msg != "" {
		b.WriteString(": " + e.Msg)
	}
	return b.String()
}

// Unwrap lets errors.Is find the kind.
func (e *LoopError) Unwrap() error { return e.Kind }

// Kind gives back the first of our error kinds found in the chain, or
// nil if the error did not come from us.
func Kind(err error) error {
	if err == nil {
		return nil
	}
	for _, k := range []error{ErrAmbiguousChain, ErrUnresolved, ErrDuplicateKey,
		ErrMissingField, ErrConstraint, ErrSchema, ErrResource, ErrAdvisory, ErrDialect} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// IsFatal says if an error should stop work on a loop. Advisories and
// unresolved references are left to the caller.
func IsFatal(err error) bool {
	switch Kind(err) {
	case nil:
		return err != nil
	case ErrAdvisory, ErrUnresolved, ErrAmbiguousChain, ErrResource:
		return false
	}
	return true
}
