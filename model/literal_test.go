package model

import (
	"testing"
)

func TestFloatLiteral(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"1.5", "1.5", true},
		{"-2", "-2.0", true},
		{"1e3", "1e3", true},
		{"+1.5", "1.5", true},
		{"0x1p-2", "0.25", true},
		{"1_000.5", "", false},
		{"inf", "", false},
		{"-Inf", "", false},
		{"NaN", "", false},
		{"1e400", "", false},
		{"abc", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := floatLiteral(tt.in)
			if ok != tt.ok || got != tt.want {
				t.Errorf("floatLiteral(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestParse_Defaults(t *testing.T) {
	iface, err := Parse([]byte(`
namespace: demo
records:
  - name: R
    fields:
      - name: quarter
        type: f64
        default: 0x1p-2
      - name: two
        type: f32
        default: 2
      - name: mood
        type: option<Mood>
        default: Happy
enums:
  - name: Mood
    variants:
      - name: Happy
`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	fields := iface.Records[0].Fields
	if got := fields[0].Default.Float; got != "0.25" {
		t.Errorf("hex default rendered as %q", got)
	}
	if got := fields[1].Default.Float; got != "2.0" {
		t.Errorf("integral default rendered as %q", got)
	}
	if lit := fields[2].Default; lit == nil || lit.Kind != LiteralEnum || lit.String != "Happy" {
		t.Errorf("optional enum default = %+v", lit)
	}
}
