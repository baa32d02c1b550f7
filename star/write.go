package star

import (
	"bufio"
	"io"
	"strings"
)

// needsQuote says if a value cannot be written bare.
func needsQuote(s string) bool {
	switch s[0] {
	case '_', '#', '\'', '"', '$', ';', '[', ']':
		return true
	}
	if strings.ContainsAny(s, " \t") {
		return true
	}
	return kind(token{s: s}) != kwValue
}

// closesQuote says if quote character q followed by white space occurs
// in s. If it does, q cannot be used to quote s.
func closesQuote(s string, q byte) bool {
	for i := 0; i < len(s)-1; i++ {
		if s[i] == q && iswhite(s[i+1]) {
			return true
		}
	}
	return false
}

// format returns a value ready for writing and whether it has to go on
// lines of its own as a text field.
func format(s string) (string, bool) {
	if s == "" {
		return NullDot, false
	}
	if strings.ContainsAny(s, "\n\r") {
		return ";" + s + "\n;", true
	}
	if !needsQuote(s) {
		return s, false
	}
	if !closesQuote(s, squote) && s[len(s)-1] != squote {
		return "'" + s + "'", false
	}
	if !closesQuote(s, dquote) && s[len(s)-1] != dquote {
		return "\"" + s + "\"", false
	}
	return ";" + s + "\n;", true
}

// NullDot is what we write for an empty value.
const NullDot = "."

type writer struct {
	w   *bufio.Writer
	err error
}

func (w *writer) str(ss ...string) {
	for _, s := range ss {
		if w.err != nil {
			return
		}
		_, w.err = w.w.WriteString(s)
	}
}

// item writes one data item. The tag names are padded to width.
func (w *writer) item(indent string, t Tag, width int) {
	v, text := format(t.Value)
	if text {
		w.str(indent, t.Name, "\n", v, "\n")
		return
	}
	pad := width - len(t.Name)
	if pad < 1 {
		pad = 1
	}
	w.str(indent, t.Name, strings.Repeat(" ", pad+2), v, "\n")
}

func (w *writer) items(indent string, tags []Tag) {
	width := 0
	for _, t := range tags {
		if len(t.Name) > width {
			width = len(t.Name)
		}
	}
	for _, t := range tags {
		w.item(indent, t, width)
	}
}

// loop writes the header and one line per row. A row with a text field
// is broken around it.
func (w *writer) loop(indent string, lp *Loop) {
	w.str("\n", indent, "loop_\n")
	for i := range lp.Tags {
		w.str(indent, "   ", lp.FullTag(i), "\n")
	}
	w.str("\n")
	for _, row := range lp.Data {
		w.str(indent, "  ")
		for j, s := range row {
			v, text := format(s)
			if text {
				w.str("\n", v, "\n")
				continue
			}
			if j != 0 {
				w.str(" ")
			}
			w.str(v)
		}
		w.str("\n")
	}
	w.str(indent, "stop_\n")
}

// Write writes an entry in STAR syntax. Save frames first, then
// any loose items and loops.
func Write(wrt io.Writer, e *Entry) error {
	w := &writer{w: bufio.NewWriter(wrt)}
	name := e.Name
	if name == "" {
		name = "unnamed"
	}
	w.str("data_", name, "\n")
	for _, sf := range e.Frames {
		w.str("\nsave_", sf.Name, "\n")
		w.items("   ", sf.Tags)
		for _, lp := range sf.Loops {
			w.loop("   ", lp)
		}
		w.str("\nsave_\n")
	}
	if len(e.Items) > 0 {
		w.str("\n")
		w.items("", e.Items)
	}
	for _, lp := range e.Loops {
		w.loop("", lp)
	}
	if w.err != nil {
		return w.err
	}
	return w.w.Flush()
}

// String gives the text of an entry. It is mainly for tests and
// debugging.
func (e *Entry) String() string {
	var b strings.Builder
	if err := Write(&b, e); err != nil {
		return ""
	}
	return b.String()
}
