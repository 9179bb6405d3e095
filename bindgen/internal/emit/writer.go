// Package emit provides an indentation-aware line writer for generated
// source text.
//
// Every renderer writes through a Writer so that nesting is expressed with
// Indent/Dedent (or Block) instead of literal leading whitespace. Methods
// return the Writer to allow chaining:
//
//	w := emit.New()
//	w.Linef("class %s {", name).Indent()
//	w.Line("final int value;")
//	w.Dedent().Line("}")
package emit

import (
	"fmt"
	"strings"
)

// Unit is one level of indentation.
const Unit = "  "

// Writer accumulates generated text line by line.
type Writer struct {
	buf    strings.Builder
	indent int
}

// New creates an empty writer.
func New() *Writer {
	return &Writer{}
}

// Line writes one indented line verbatim.
func (w *Writer) Line(text string) *Writer {
	if text == "" {
		w.buf.WriteByte('\n')
		return w
	}
	for i := 0; i < w.indent; i++ {
		w.buf.WriteString(Unit)
	}
	w.buf.WriteString(text)
	w.buf.WriteByte('\n')
	return w
}

// Linef writes one indented line formatted with fmt.Sprintf.
func (w *Writer) Linef(format string, args ...any) *Writer {
	return w.Line(fmt.Sprintf(format, args...))
}

// Blank writes an empty line.
func (w *Writer) Blank() *Writer {
	w.buf.WriteByte('\n')
	return w
}

// Indent increases the indentation level.
func (w *Writer) Indent() *Writer {
	w.indent++
	return w
}

// Dedent decreases the indentation level.
func (w *Writer) Dedent() *Writer {
	if w.indent > 0 {
		w.indent--
	}
	return w
}

// Block writes open, runs body one level deeper, then writes close.
func (w *Writer) Block(open, close string, body func()) *Writer {
	w.Line(open).Indent()
	body()
	return w.Dedent().Line(close)
}

// Raw writes multi-line text, indenting every non-empty line at the current
// level. A trailing newline is added when missing.
func (w *Writer) Raw(text string) *Writer {
	text = strings.TrimSuffix(text, "\n")
	for _, line := range strings.Split(text, "\n") {
		w.Line(line)
	}
	return w
}

// Doc writes a documentation comment, one /// line per input line.
func (w *Writer) Doc(text string) *Writer {
	text = strings.TrimSpace(text)
	if text == "" {
		return w
	}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, " \t")
		if line == "" {
			w.Line("///")
			continue
		}
		w.Line("/// " + line)
	}
	return w
}

// Append copies the text of another writer, re-indented at this level.
func (w *Writer) Append(other *Writer) *Writer {
	if other.Len() == 0 {
		return w
	}
	return w.Raw(other.String())
}

// Level returns the current indentation level.
func (w *Writer) Level() int {
	return w.indent
}

// Len returns the number of bytes written.
func (w *Writer) Len() int {
	return w.buf.Len()
}

// String returns the accumulated text.
func (w *Writer) String() string {
	return w.buf.String()
}

// Reset discards all text and indentation.
func (w *Writer) Reset() {
	w.buf.Reset()
	w.indent = 0
}
