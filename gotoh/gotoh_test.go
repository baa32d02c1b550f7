// Get the tests from the greek paper.
// Includes the example from the Altschul paper which cannot be
// done with the method as described in the original paper.

package gotoh_test

import (
	"testing"

	gth "github.com/andrew-torda/nmr_xlate/gotoh"
)

const local, global gth.Al_type = gth.Local, gth.Global

func rev(s string) string {
	t := []byte(s)
	for i, j := 0, len(t)-1; i < j; i, j = i+1, j-1 {
		t[i], t[j] = t[j], t[i]
	}
	return string(t)
}

var testpairs = []struct {
	s1      string
	s2      string
	m_scr   gth.Match_scr // Given to identity score function
	a_scr   gth.Pnlty     // Gap open and widen penalties
	scr_exp []float32     // expected scores, local and global alignments
}{
	{"bcde", "ae", gth.Match_scr{Match: 5, Mismatch: -2}, gth.Pnlty{Open: 1, Wdn: 1}, []float32{5, 3}},
	{"abcdefghi", "bcgi", gth.Match_scr{Match: 5, Mismatch: -2}, gth.Pnlty{Open: 1, Wdn: 1}, []float32{14, 14}},
	{"abcdefg", "aceh", gth.Match_scr{Match: 5, Mismatch: -2}, gth.Pnlty{Open: 1, Wdn: 1}, []float32{11, 9}},
	{"ae", "abcd", gth.Match_scr{Match: 5, Mismatch: -9}, gth.Pnlty{Open: 1, Wdn: 1}, []float32{5, 3}},
	{"aceh", "abcdefxy", gth.Match_scr{Match: 5, Mismatch: -2}, gth.Pnlty{Open: 1, Wdn: 1}, []float32{11, 9}},
	{"exz", "abcdefxyz", gth.Match_scr{Match: 5, Mismatch: -2}, gth.Pnlty{Open: 1, Wdn: 1}, []float32{11, 11}},
	{"abcde", "abe", gth.Match_scr{Match: 5, Mismatch: -2}, gth.Pnlty{Open: 1, Wdn: 1}, []float32{12, 12}},
	{"abcdef", "abde", gth.Match_scr{Match: 5, Mismatch: -2}, gth.Pnlty{Open: 1, Wdn: 1}, []float32{18, 18}},
	{"abcde", "bcd", gth.Match_scr{Match: 2, Mismatch: 1}, gth.Pnlty{Open: 2, Wdn: 4}, []float32{6, 6}},
	{"a", "a", gth.Match_scr{Match: 5, Mismatch: 2}, gth.Pnlty{Open: 1, Wdn: 1}, []float32{5, 5}},
	{"abc", "xaby", gth.Match_scr{Match: 5, Mismatch: -1}, gth.Pnlty{Open: 1, Wdn: 1}, []float32{10, 9}},
	// From the Altschul paper...
	{"AAAGGG", "TTAAAAGGGGTT", gth.Match_scr{Match: 1, Mismatch: -1}, gth.Pnlty{Open: 5, Wdn: 1}, []float32{6, 6}},
}

func TestGotoh(t *testing.T) {
	var f = func(s1, s2 string, m_scr *gth.Match_scr, a_scr *gth.Al_score) float32 {
		scr_mat := gth.IdentScore([]byte(s1), []byte(s2), m_scr)
		_, max_scr := gth.Align(scr_mat, a_scr)
		return max_scr
	}
	for _, typ := range []gth.Al_type{local, global} {
		for _, x := range testpairs {
			tmp := gth.Al_score{Pnlty: x.a_scr, Al_type: typ}
			scr_1 := f(x.s1, x.s2, &x.m_scr, &tmp)
			scr_2 := f(x.s2, x.s1, &x.m_scr, &tmp)
			scr_3 := f(rev(x.s2), rev(x.s1), &x.m_scr, &tmp)
			if scr_1 != scr_2 {
				t.Fatal("string1/string2 string2/string1 scores not equal.\n",
					"Strings were ", x.s1, x.s2, "scores", scr_1, scr_2)
			}
			if scr_2 != scr_3 && len(x.s1) > 2 && len(x.s2) > 2 {
				t.Fatal("scores not equal with reversed strings\n", x.s1, x.s2, typ)
			}
			if exp_scr := x.scr_exp[typ]; scr_1 != exp_scr {
				t.Fatal("alignment type", typ, "Wrong score while aligning\n",
					x.s1, "and", x.s2, "Expected", exp_scr, "got", scr_1)
			}
		}
	}
}

// The pair list of a global alignment covers both sequences.
func TestPairs(t *testing.T) {
	s, u := []byte("AKLVG"), []byte("KLVGE")
	m := gth.Match_scr{Match: 5, Mismatch: -2}
	pairs, _ := gth.Align(gth.IdentScore(s, u, &m), &gth.Al_score{Pnlty: gth.Pnlty{Open: 3, Wdn: 1}, Al_type: global})
	var ni, nj int
	for _, p := range pairs {
		if p.I != -1 {
			ni++
		}
		if p.J != -1 {
			nj++
		}
	}
	if ni != len(s) || nj != len(u) {
		t.Fatalf("pairs %v do not cover %s and %s", pairs, s, u)
	}
	if n := gth.Identities(pairs, s, u); n != 4 {
		t.Errorf("got %d identities, want 4\n%s", n, gth.SeqString(pairs, s, u))
	}
}

func TestUnknownNeverMatches(t *testing.T) {
	s := []byte("XX")
	pairs, _ := gth.Align(gth.IdentScore(s, s, &gth.Match_scr{Match: 1, Mismatch: 0}),
		&gth.Al_score{Pnlty: gth.Pnlty{Open: 1, Wdn: 1}, Al_type: global})
	if n := gth.Identities(pairs, s, s); n != 0 {
		t.Errorf("X matched X %d times", n)
	}
}
