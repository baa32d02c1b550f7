package star

import (
	"bufio"
	"errors"
	"io"
	"strconv"
	"strings"
)

const maxMsgLen = 70

// readError saves the line number and the line we were trying to read.
type readError struct {
	n      int    // line number
	inline string // The line that provoked the error
	desc   string // Description of error
}

func firstPart(s string) string {
	l := len(s)
	if l > maxMsgLen {
		l = maxMsgLen
	}
	return s[:l]
}

// Error gives the line number, what went wrong and the start of
// the line.
func (e readError) Error() string {
	var errmsg string
	if e.n != 0 {
		errmsg = "Line: " + strconv.Itoa(e.n) + " "
	}
	errmsg += e.desc
	if e.n != 0 && e.inline != "" {
		errmsg += "\nLine starting with\n" + firstPart(e.inline)
	}
	return errmsg
}

// lineScanner is a wrapper around bufio.Scanner that counts lines, so
// we can put the line number in error messages.
type lineScanner struct {
	*bufio.Scanner
	l_err readError
	n     int  // line number
	Ok    bool // Are we OK or have we had an error ?
}

const maxLineLen = 16 * 1024 * 1024

func newLineScanner(r io.Reader) lineScanner {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), maxLineLen)
	return lineScanner{Scanner: s, Ok: true}
}

// scan is the library Scan() plus line counting. It returns false on
// EOF and on error. On error, Ok is false.
func (s *lineScanner) scan() bool {
	if !s.Ok {
		return false
	}
	if s.Scan() {
		s.n++
		return true
	}
	if err := s.Err(); err != nil {
		s.fail(err.Error())
	}
	return false
}

// fail stores the problem for printing later. Only the first
// error is kept.
func (s *lineScanner) fail(desc string) {
	if !s.Ok {
		return
	}
	s.Ok = false
	s.l_err = readError{n: s.n, inline: string(s.Bytes()), desc: desc}
}

type token struct {
	s      string
	quoted bool // quoted or a text field, so never a keyword or tag
}

type kword byte

const (
	kwValue kword = iota
	kwTag
	kwData
	kwSave
	kwLoop
	kwStop
	kwGlobal
)

// kind says what a token is. Keywords are case insensitive.
func kind(t token) kword {
	if t.quoted || t.s == "" {
		return kwValue
	}
	if t.s[0] == '_' {
		return kwTag
	}
	if len(t.s) < 5 {
		return kwValue
	}
	low := strings.ToLower(t.s)
	switch {
	case strings.HasPrefix(low, "data_"):
		return kwData
	case strings.HasPrefix(low, "save_"):
		return kwSave
	case low == "loop_":
		return kwLoop
	case low == "stop_":
		return kwStop
	case low == "global_":
		return kwGlobal
	}
	return kwValue
}

// reader holds the state while reading one file.
type reader struct {
	lineScanner
	words   []word // scratch space for splitLine
	pending []token
	pushed  *token
	entries []*Entry
	entry   *Entry
	frame   *Saveframe
	loop    *Loop
	vals    []string
	tag     string // waiting for its value
}

// next returns the next token, reading lines as necessary.
func (r *reader) next() (token, bool) {
	if r.pushed != nil {
		t := *r.pushed
		r.pushed = nil
		return t, true
	}
	for len(r.pending) == 0 {
		if !r.scan() {
			return token{}, false
		}
		line := r.Bytes()
		if len(line) > 0 && line[0] == ';' {
			return r.textField(line)
		}
		words, err := splitLine(line, r.words)
		if err != nil {
			r.fail(err.Error())
			return token{}, false
		}
		for _, w := range words {
			r.pending = append(r.pending, token{s: string(w.b), quoted: w.quoted})
		}
		r.words = words[:0]
	}
	t := r.pending[0]
	r.pending = r.pending[1:]
	return t, true
}

func (r *reader) pushback(t token) { r.pushed = &t }

// textField collects lines up to the closing semicolon. The lines are
// kept as they are, joined with newlines.
func (r *reader) textField(first []byte) (token, bool) {
	var parts []string
	if rest := strings.TrimRight(string(first[1:]), " \t\r"); rest != "" {
		parts = append(parts, rest)
	}
	for r.scan() {
		line := r.Bytes()
		if len(line) > 0 && line[0] == ';' {
			if rest := line[1:]; len(rest) > 0 {
				words, err := splitLine(rest, r.words)
				if err != nil {
					r.fail(err.Error())
					return token{}, false
				}
				for _, w := range words {
					r.pending = append(r.pending, token{s: string(w.b), quoted: w.quoted})
				}
			}
			return token{s: strings.Join(parts, "\n"), quoted: true}, true
		}
		parts = append(parts, strings.TrimRight(string(line), "\r"))
	}
	r.fail("unterminated text field")
	return token{}, false
}

// stateFn is the type of state function. It returns the next
// state function that should act on its input.
type stateFn func(*reader) stateFn

// stateTop looks at the next token and decides what to do.
func stateTop(r *reader) stateFn {
	t, ok := r.next()
	if !ok {
		return nil
	}
	k := kind(t)
	if r.entry == nil && k != kwData && k != kwGlobal {
		r.fail("found " + firstPart(t.s) + " before any data_ block")
		return nil
	}
	switch k {
	case kwData:
		r.closeFrame()
		r.entry = &Entry{Name: t.s[len("data_"):]}
		r.entries = append(r.entries, r.entry)
		return stateTop
	case kwSave:
		return stateSave(r, t.s[len("save_"):])
	case kwLoop:
		return stateLoopHdr
	case kwTag:
		r.tag = t.s
		return stateItem
	case kwGlobal:
		return stateTop
	case kwStop:
		r.fail("stop_ outside a loop")
		return nil
	default:
		r.fail("value without a tag: " + firstPart(t.s))
		return nil
	}
}

// stateSave opens or closes a save frame. A new frame without closing
// the old one closes it implicitly.
func stateSave(r *reader, name string) stateFn {
	if name == "" {
		if r.frame == nil {
			r.fail("save_ without an open save frame")
			return nil
		}
		r.closeFrame()
		return stateTop
	}
	r.closeFrame()
	r.frame = &Saveframe{Name: name}
	return stateTop
}

func (r *reader) closeFrame() {
	if r.frame != nil {
		r.entry.Frames = append(r.entry.Frames, r.frame)
		r.frame = nil
	}
}

// stateItem gets the value for a data item.
func stateItem(r *reader) stateFn {
	t, ok := r.next()
	if !ok {
		r.fail("no value for " + r.tag)
		return nil
	}
	if k := kind(t); k != kwValue {
		r.fail("no value for " + r.tag + ", found " + firstPart(t.s))
		return nil
	}
	tag := Tag{Name: r.tag, Value: t.s}
	if r.frame == nil {
		r.entry.Items = append(r.entry.Items, tag)
	} else {
		if r.frame.TagPrefix == "" {
			r.frame.TagPrefix, _ = SplitTag(tag.Name)
		}
		if _, short := SplitTag(tag.Name); strings.EqualFold(short, "sf_category") {
			r.frame.Category = tag.Value
		}
		r.frame.Tags = append(r.frame.Tags, tag)
	}
	r.tag = ""
	return stateTop
}

// stateLoopHdr collects the tags after a loop_ directive.
func stateLoopHdr(r *reader) stateFn {
	var lp *Loop
	for {
		t, ok := r.next()
		if !ok {
			break
		}
		if kind(t) != kwTag {
			r.pushback(t)
			break
		}
		cat, short := SplitTag(t.s)
		if lp == nil {
			lp = &Loop{Category: cat}
		} else if !strings.EqualFold(cat, lp.Category) {
			r.fail("mixed categories in loop " + lp.Category + " and " + cat)
			return nil
		}
		lp.Tags = append(lp.Tags, short)
	}
	if lp == nil {
		r.fail("no tags found while reading loop headers")
		return nil
	}
	r.loop = lp
	r.vals = r.vals[:0]
	return stateLoopVals
}

// stateLoopVals reads values until stop_, a keyword, a tag or the end
// of the file. Then the values are cut into rows.
func stateLoopVals(r *reader) stateFn {
	for {
		t, ok := r.next()
		if !ok {
			break
		}
		k := kind(t)
		if k == kwStop {
			break
		}
		if k != kwValue {
			r.pushback(t)
			break
		}
		r.vals = append(r.vals, t.s)
	}
	if !r.Ok {
		return nil
	}
	lp := r.loop
	ncol := len(lp.Tags)
	if len(r.vals)%ncol != 0 {
		r.fail(strconv.Itoa(len(r.vals)) + " values in loop " + lp.Category +
			" is not a multiple of " + strconv.Itoa(ncol) + " tags")
		return nil
	}
	lp.Data = make([][]string, 0, len(r.vals)/ncol)
	for i := 0; i < len(r.vals); i += ncol {
		row := make([]string, ncol)
		copy(row, r.vals[i:i+ncol])
		lp.Data = append(lp.Data, row)
	}
	if r.frame != nil {
		r.frame.Loops = append(r.frame.Loops, lp)
	} else {
		r.entry.Loops = append(r.entry.Loops, lp)
	}
	r.loop = nil
	return stateTop
}

// ReadAll reads every data block from a reader.
func ReadAll(rdr io.Reader) ([]*Entry, error) {
	if rdr == nil {
		return nil, errors.New("nil reader")
	}
	r := &reader{lineScanner: newLineScanner(rdr), words: make([]word, 0, 40)}
	for state := stateTop; state != nil && r.Ok; {
		state = state(r)
	}
	if !r.Ok {
		return nil, r.l_err
	}
	if r.n == 0 {
		return nil, readError{desc: "zero length file"}
	}
	if r.entry != nil {
		r.closeFrame()
	}
	if len(r.entries) == 0 {
		return nil, readError{n: r.n, desc: "no data_ block found"}
	}
	return r.entries, nil
}

// Read reads a file which should have one data block. If there are
// more, we return the first.
func Read(rdr io.Reader) (*Entry, error) {
	entries, err := ReadAll(rdr)
	if err != nil {
		return nil, err
	}
	return entries[0], nil
}

// ReadString is Read for something already in memory.
func ReadString(s string) (*Entry, error) {
	return Read(strings.NewReader(s))
}
