package wire

import (
	"bytes"
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	gerrors "github.com/acterglobal/uniffi-dart-sub000/errors"
	"github.com/acterglobal/uniffi-dart-sub000/model"
)

func newCodec(t *testing.T) (*Codec, *model.Interface) {
	t.Helper()
	iface, err := model.Load("testdata/coverall.yaml")
	if err != nil {
		t.Fatalf("load interface: %v", err)
	}
	return NewCodec(iface), iface
}

func typ(t *testing.T, iface *model.Interface, expr string) *model.Type {
	t.Helper()
	ty, err := model.ParseType(expr, iface.Lookup)
	if err != nil {
		t.Fatalf("ParseType(%q): %v", expr, err)
	}
	return ty
}

func TestEncode_ByteLayouts(t *testing.T) {
	c, iface := newCodec(t)
	simple := Record{"text": "hi", "a_bool": true, "unsigned8": uint8(7)}

	tests := []struct {
		name  string
		expr  string
		value any
		want  []byte
	}{
		{"bytes", "bytes", []byte{1, 2, 3, 4, 5}, []byte{0, 0, 0, 5, 1, 2, 3, 4, 5}},
		{"record", "Simple", simple, []byte{0, 0, 0, 2, 'h', 'i', 1, 7}},
		{"enum without payload", "Maybe", EnumValue{Variant: "Nah"}, []byte{0, 0, 0, 2}},
		{"enum with payload", "Maybe", EnumValue{Variant: "Yeah", Fields: Record{"d": simple}},
			[]byte{0, 0, 0, 1, 0, 0, 0, 2, 'h', 'i', 1, 7}},
		{"empty sequence", "sequence<i32>", []any{}, []byte{0, 0, 0, 0}},
		{"sequence", "sequence<u8>", []any{uint8(1), uint8(2), uint8(3)}, []byte{0, 0, 0, 3, 1, 2, 3}},
		{"none", "option<u32>", nil, []byte{0}},
		{"some", "option<u32>", uint32(9), []byte{1, 0, 0, 0, 9}},
		{"i16 big endian", "i16", int16(-2), []byte{0xff, 0xfe}},
		{"u32 big endian", "u32", uint32(0x01020304), []byte{1, 2, 3, 4}},
		{"f32 little endian", "f32", float32(1), []byte{0, 0, 0x80, 0x3f}},
		{"f64 little endian", "f64", 1.0, []byte{0, 0, 0, 0, 0, 0, 0xf0, 0x3f}},
		{"bool", "bool", false, []byte{0}},
		{"string", "string", "é", []byte{0, 0, 0, 2, 0xc3, 0xa9}},
		{"duration", "duration", 3*time.Second + 5, []byte{0, 0, 0, 0, 0, 0, 0, 3, 0, 0, 0, 5}},
		{"map", "map<string, u8>", []MapEntry{{"a", uint8(1)}, {"b", uint8(2)}},
			[]byte{0, 0, 0, 2, 0, 0, 0, 1, 'a', 1, 0, 0, 0, 1, 'b', 2}},
		{"flat enum by name", "Mood", "Sad", []byte{0, 0, 0, 2}},
		{"object handle", "Counter", Handle(0x10), []byte{0, 0, 0, 0, 0, 0, 0, 0x10}},
		{"custom wraps builtin", "Handle", int64(-1), bytes.Repeat([]byte{0xff}, 8)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ty := typ(t, iface, tt.expr)
			got, err := c.Encode(ty, tt.value)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("Encode = % x, want % x", got, tt.want)
			}
			size, err := c.AllocationSize(ty, tt.value)
			if err != nil {
				t.Fatalf("AllocationSize: %v", err)
			}
			if size != len(got) {
				t.Errorf("AllocationSize = %d, wrote %d", size, len(got))
			}
		})
	}
}

func TestRoundTrip_Primitives(t *testing.T) {
	c, iface := newCodec(t)

	tests := []struct {
		expr   string
		values []any
	}{
		{"bool", []any{true, false}},
		{"i8", []any{int8(math.MinInt8), int8(-1), int8(0), int8(math.MaxInt8)}},
		{"u8", []any{uint8(0), uint8(math.MaxUint8)}},
		{"i16", []any{int16(math.MinInt16), int16(math.MaxInt16)}},
		{"u16", []any{uint16(0), uint16(math.MaxUint16)}},
		{"i32", []any{int32(math.MinInt32), int32(-7), int32(math.MaxInt32)}},
		{"u32", []any{uint32(0), uint32(math.MaxUint32)}},
		{"i64", []any{int64(math.MinInt64), int64(math.MaxInt64)}},
		{"u64", []any{uint64(0), uint64(math.MaxUint64)}},
		{"f32", []any{float32(0), float32(-1.5), float32(math.MaxFloat32)}},
		{"f64", []any{0.0, math.Pi, -math.MaxFloat64, math.Inf(1)}},
		{"string", []any{"", "hello", "日本語"}},
		{"bytes", []any{[]byte{}, []byte{0, 255}}},
		{"duration", []any{time.Duration(0), 90 * time.Minute, time.Nanosecond}},
		{"timestamp", []any{
			time.Unix(0, 0).UTC(),
			time.Date(2024, 2, 29, 12, 30, 0, 123, time.UTC),
			time.Date(1969, 7, 20, 20, 17, 40, 500, time.UTC),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			ty := typ(t, iface, tt.expr)
			for _, v := range tt.values {
				buf, err := c.Encode(ty, v)
				if err != nil {
					t.Fatalf("Encode(%v): %v", v, err)
				}
				got, n, err := c.Read(ty, buf)
				if err != nil {
					t.Fatalf("Read(% x): %v", buf, err)
				}
				if n != len(buf) {
					t.Errorf("Read consumed %d of %d bytes", n, len(buf))
				}
				if !reflect.DeepEqual(got, v) {
					t.Errorf("round trip %v -> %v", v, got)
				}

				lowered, err := c.Lower(ty, v)
				if err != nil {
					t.Fatalf("Lower(%v): %v", v, err)
				}
				lifted, err := c.Lift(ty, lowered)
				if err != nil {
					t.Fatalf("Lift: %v", err)
				}
				if !reflect.DeepEqual(lifted, v) {
					t.Errorf("lift(lower(%v)) = %v", v, lifted)
				}
			}
		})
	}
}

func TestLower_StringIsRawUTF8(t *testing.T) {
	c, _ := newCodec(t)
	got, err := c.Lower(model.Primitive(model.KindString), "Hello, World!")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "Hello, World!" {
		t.Errorf("Lower = %q", got)
	}
}

func TestRecord_DefaultsFillMissingFields(t *testing.T) {
	c, iface := newCodec(t)
	person := typ(t, iface, "Person")

	value := Record{"name": "Ada"}
	buf, err := c.Encode(person, value)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	size, _ := c.AllocationSize(person, value)

	got, n, err := c.Read(person, buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if n != size {
		t.Errorf("bytesRead = %d, allocationSize = %d", n, size)
	}

	want := Record{
		"name":   "Ada",
		"age":    uint32(30),
		"email":  nil,
		"tags":   []any{},
		"scores": []MapEntry{},
		"mood":   EnumValue{Variant: "Happy"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("decoded %#v, want %#v", got, want)
	}
}

func TestSequence_ConcatenatesElements(t *testing.T) {
	c, iface := newCodec(t)
	seq := typ(t, iface, "sequence<string>")
	elem := typ(t, iface, "string")

	items := []any{"a", "bc", ""}
	got, err := c.Encode(seq, items)
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{0, 0, 0, 3}
	for _, item := range items {
		enc, _ := c.Encode(elem, item)
		want = append(want, enc...)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("Encode = % x, want % x", got, want)
	}
}

func TestOption_SomePrefixesInner(t *testing.T) {
	c, iface := newCodec(t)
	inner, _ := c.Encode(typ(t, iface, "Simple"), Record{"text": "", "a_bool": false, "unsigned8": uint8(0)})
	got, err := c.Encode(typ(t, iface, "option<Simple>"), Record{"text": "", "a_bool": false, "unsigned8": uint8(0)})
	if err != nil {
		t.Fatal(err)
	}
	if got[0] != 1 || !bytes.Equal(got[1:], inner) {
		t.Errorf("Encode = % x, want 01 % x", got, inner)
	}
}

func TestEnum_DiscriminatorIsOneBased(t *testing.T) {
	c, iface := newCodec(t)
	en, _ := iface.Enum("CoverallError")
	ty := typ(t, iface, "CoverallError")

	for k, v := range en.Variants {
		value := EnumValue{Variant: v.Name}
		if len(v.Fields) > 0 {
			value.Fields = Record{"message": "boom"}
		}
		buf, err := c.Encode(ty, value)
		if err != nil {
			t.Fatalf("Encode(%s): %v", v.Name, err)
		}
		if disc := int(buf[0])<<24 | int(buf[1])<<16 | int(buf[2])<<8 | int(buf[3]); disc != k+1 {
			t.Errorf("variant %s discriminator = %d, want %d", v.Name, disc, k+1)
		}
		got, _, err := c.Read(ty, buf)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(got, value) {
			t.Errorf("round trip %#v -> %#v", value, got)
		}
	}
}

func TestRead_Errors(t *testing.T) {
	c, iface := newCodec(t)

	tests := []struct {
		name string
		expr string
		buf  []byte
		kind gerrors.Kind
	}{
		{"short u32", "u32", []byte{0, 0, 1}, gerrors.KindIncompleteData},
		{"short string", "string", []byte{0, 0, 0, 4, 'a'}, gerrors.KindIncompleteData},
		{"bad option tag", "option<u8>", []byte{2, 0}, gerrors.KindUnexpectedOptionalTag},
		{"discriminator zero", "Maybe", []byte{0, 0, 0, 0}, gerrors.KindUnexpectedEnumCase},
		{"discriminator too large", "Mood", []byte{0, 0, 0, 3}, gerrors.KindUnexpectedEnumCase},
		{"huge count", "sequence<u8>", []byte{0xff, 0xff, 0xff, 0xff}, gerrors.KindOverflow},
		{"invalid utf8", "string", []byte{0, 0, 0, 1, 0xff}, gerrors.KindMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := c.Read(typ(t, iface, tt.expr), tt.buf)
			if !errors.Is(err, &gerrors.Error{Phase: gerrors.PhaseDecode, Kind: tt.kind}) {
				t.Errorf("error = %v, want decode/%s", err, tt.kind)
			}
		})
	}
}

func TestLift_RejectsTrailingBytes(t *testing.T) {
	c, iface := newCodec(t)
	_, err := c.Lift(typ(t, iface, "u8"), []byte{1, 2})
	if err == nil {
		t.Error("expected junk-remaining error")
	}
}

func TestEncode_Errors(t *testing.T) {
	c, iface := newCodec(t)

	tests := []struct {
		name  string
		expr  string
		value any
		kind  gerrors.Kind
	}{
		{"u8 overflow", "u8", 256, gerrors.KindTypeMismatch},
		{"negative unsigned", "u32", -1, gerrors.KindTypeMismatch},
		{"wrong go type", "string", 5, gerrors.KindTypeMismatch},
		{"missing field", "Simple", Record{"text": "x"}, gerrors.KindMissingDefinition},
		{"unknown variant", "Mood", "Angry", gerrors.KindUnexpectedEnumCase},
		{"external", "Guid", Record{}, gerrors.KindUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Encode(typ(t, iface, tt.expr), tt.value)
			if !errors.Is(err, &gerrors.Error{Phase: gerrors.PhaseEncode, Kind: tt.kind}) {
				t.Errorf("error = %v, want encode/%s", err, tt.kind)
			}
		})
	}
}
