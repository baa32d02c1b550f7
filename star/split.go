// Splitting lines at spaces and quotes.

/* from https://www.iucr.org/resources/cif/spec/version1.1/cifsyntax
               character or string role
_ (underscore) identifies data name
#              identifies comment
$              identifies save frame pointer
'              delimits non-simple data values
"              delimits non-simple data values
; at beginning of line of text delimits non-simple data values
data_          identifies data block header (case-insensitive)
save_          identifies save frame header or terminator (case-insensitive)
*/

package star

import (
	"errors"
)

const (
	squote byte = '\''
	dquote byte = '"'
	cmmt   byte = '#'
)

// word is one piece of a line. quoted is set if it came from inside
// quotes, so that '_x' or 'stop_' are plain values.
type word struct {
	b      []byte
	quoted bool
}

// iswhite only works for ascii spaces
var asciiSpace = [256]bool{
	'\t': true, '\n': true, '\v': true, '\f': true, '\r': true, ' ': true,
}

func iswhite(b byte) bool {
	return asciiSpace[b]
}

// isquote not only checks if we have a quote character, but also
// stores its type so we can look for the corresponding closing quote.
func isquote(b byte, qtype *byte) bool {
	if b == squote || b == dquote {
		*qtype = b
		return true
	}
	return false
}

type sInfo struct { // Holds the state of the state functions
	err     error
	ret     []word
	byteIn  []byte
	nxtIndx int
	qtype   byte // type of quote
}
type sfn func(i int, c byte, s *sInfo) sfn // state function

func sfnInQuote(i int, c byte, sInfo *sInfo) sfn {
	if c == sInfo.qtype {
		return sfnExitQuote
	}
	if c == '\n' {
		sInfo.err = errors.New("unterminated quote: " + string(sInfo.byteIn))
		return sfnWhite
	}
	return sfnInQuote
}

// sfnExitQuote is just after a quote character. Only white space
// really ends the quoted region, "it's" is one word.
func sfnExitQuote(i int, c byte, sInfo *sInfo) sfn {
	if iswhite(c) {
		t := sInfo.byteIn[sInfo.nxtIndx : i-1]
		sInfo.ret = append(sInfo.ret, word{t, true})
		return sfnWhite
	}
	if c == sInfo.qtype {
		return sfnExitQuote
	}
	return sfnInQuote
}

func sfnInText(i int, c byte, sInfo *sInfo) sfn {
	if iswhite(c) {
		t := sInfo.byteIn[sInfo.nxtIndx:i]
		sInfo.ret = append(sInfo.ret, word{t, false})
		return sfnWhite
	}
	return sfnInText
}

// sfnComment eats the rest of the line
func sfnComment(i int, c byte, sInfo *sInfo) sfn {
	return sfnComment
}

func sfnWhite(i int, c byte, sInfo *sInfo) sfn {
	switch {
	case iswhite(c):
		return sfnWhite
	case c == cmmt:
		return sfnComment
	case isquote(c, &sInfo.qtype):
		sInfo.nxtIndx = i + 1
		return sfnInQuote
	default:
		sInfo.nxtIndx = i
		return sfnInText
	}
}

// splitLine takes a line and returns the words in it. They are
// separated by spaces and matching quotes. Anything after a # that
// starts a word is dropped.
// We have a small finite state machine. When we leave text or
// a quote followed by a space, we save the word and append it to ret.
func splitLine(byteIn []byte, retIn []word) ([]word, error) {
	if len(byteIn) < 1 {
		return nil, nil
	}

	var sInfo = sInfo{ret: retIn[:0], byteIn: byteIn}

	state := sfnWhite
	for i, c := range byteIn {
		state = state(i, c, &sInfo)
	}
	state(len(byteIn), '\n', &sInfo) // end with newline, catches unterminated quotes
	if sInfo.err != nil {
		return nil, sInfo.err
	}
	return sInfo.ret, nil
}
