// 12 Oct 2026

// Package common holds the few things every other package wants:
// exit codes for the command line programs, the error kinds used across
// translation and resolution, and a helper for writing test fixtures.
package common

import (
	"fmt"
	"io"
	"os"
)

const (
	ExitSuccess = iota
	ExitFailure
	ExitUsageError
)

// NullChars are the two STAR values meaning "missing" (?) and
// "not applicable" (.). We treat them the same way.
const (
	NullDot   = "."
	NullQmark = "?"
)

// IsNull says if a cell from a STAR file is empty for our purposes.
func IsNull(s string) bool {
	return s == "" || s == NullDot || s == NullQmark
}

// WrtTemp writes a string to a temporary file and returns
// the filename. It is used all over the place in testing.
func WrtTemp(s string) (string, error) {
	f_tmp, err := os.CreateTemp("", "_del_me_testing")
	if err != nil {
		return "", fmt.Errorf("tempfile fail")
	}

	if _, err := io.WriteString(f_tmp, s); err != nil {
		f_tmp.Close()
		return "", fmt.Errorf("writing string to temp file %v", f_tmp.Name())
	}
	name := f_tmp.Name()
	f_tmp.Close()
	return name, nil
}
