// 13 Oct 2026
// Translate NEF files to NMR-STAR, validate either kind and find the
// atoms of a NEF file in a coordinate model.

package main

import (
	"os"

	"github.com/andrew-torda/nmr_xlate/pkg/nmrxlate"
)

func main() {
	os.Exit(nmrxlate.Mymain(os.Args[1:], os.Stdout, os.Stderr))
}
