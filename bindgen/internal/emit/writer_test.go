package emit

import (
	"testing"
)

func TestWriter_NewIsEmpty(t *testing.T) {
	w := New()
	if w.Len() != 0 {
		t.Errorf("new writer should be empty, got len %d", w.Len())
	}
	if w.Level() != 0 {
		t.Errorf("new writer level = %d", w.Level())
	}
}

func TestWriter_Lines(t *testing.T) {
	tests := []struct {
		name  string
		write func(w *Writer)
		want  string
	}{
		{
			name:  "verbatim",
			write: func(w *Writer) { w.Line("100% done") },
			want:  "100% done\n",
		},
		{
			name:  "formatted",
			write: func(w *Writer) { w.Linef("final %s %s;", "int", "x") },
			want:  "final int x;\n",
		},
		{
			name: "indent and dedent",
			write: func(w *Writer) {
				w.Line("class A {").Indent().Line("int x;").Dedent().Line("}")
			},
			want: "class A {\n  int x;\n}\n",
		},
		{
			name: "blank lines carry no indentation",
			write: func(w *Writer) {
				w.Indent().Line("a").Blank().Line("").Line("b")
			},
			want: "  a\n\n\n  b\n",
		},
		{
			name: "block",
			write: func(w *Writer) {
				w.Block("void f() {", "}", func() {
					w.Block("if (x) {", "}", func() {
						w.Line("return;")
					})
				})
			},
			want: "void f() {\n  if (x) {\n    return;\n  }\n}\n",
		},
		{
			name: "raw reindents",
			write: func(w *Writer) {
				w.Indent().Raw("a\n  b\n\nc\n")
			},
			want: "  a\n    b\n\n  c\n",
		},
		{
			name: "doc",
			write: func(w *Writer) {
				w.Doc("First line.\n\nSecond line.  \n")
			},
			want: "/// First line.\n///\n/// Second line.\n",
		},
		{
			name:  "empty doc writes nothing",
			write: func(w *Writer) { w.Doc("  \n") },
			want:  "",
		},
		{
			name:  "dedent stops at zero",
			write: func(w *Writer) { w.Dedent().Dedent().Line("x") },
			want:  "x\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := New()
			tt.write(w)
			if got := w.String(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWriter_Append(t *testing.T) {
	inner := New()
	inner.Line("x = 1;")

	w := New()
	w.Block("{", "}", func() { w.Append(inner) })
	w.Append(New())

	if got, want := w.String(), "{\n  x = 1;\n}\n"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestWriter_Reset(t *testing.T) {
	w := New()
	w.Indent().Line("x")
	w.Reset()
	if w.Len() != 0 || w.Level() != 0 {
		t.Errorf("after Reset len=%d level=%d", w.Len(), w.Level())
	}
	w.Line("y")
	if w.String() != "y\n" {
		t.Errorf("got %q", w.String())
	}
}
