package bindgen

import (
	"bytes"
	"encoding/binary"
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/acterglobal/uniffi-dart-sub000/model"
	"github.com/acterglobal/uniffi-dart-sub000/wire"
)

// converterBlock returns the text of the class declaring conv.
func converterBlock(t *testing.T, text, conv string) string {
	t.Helper()
	start := strings.Index(text, "class "+conv+" {")
	if start < 0 {
		t.Fatalf("%s not emitted", conv)
	}
	end := strings.Index(text[start:], "\n}\n")
	if end < 0 {
		t.Fatalf("%s is not closed", conv)
	}
	return text[start : start+end]
}

// The emitted converters and the wire package must agree on every width,
// byte order and tag.
func TestConverters_MatchWireLayout(t *testing.T) {
	iface := loadFixture(t, "coverall.yaml")
	text := generate(t, iface, nil)
	reg := NewRegistry(iface, nil)
	codec := wire.NewCodec(iface)

	converterOf := func(typ *model.Type) string {
		ct, err := reg.Of(typ)
		if err != nil {
			t.Fatalf("Of(%s) failed: %v", typ, err)
		}
		return ct.Converter()
	}

	for kind, p := range primitives {
		if kind == model.KindBool {
			continue
		}
		t.Run(p.canonical, func(t *testing.T) {
			typ := model.Primitive(kind)
			var one any = 1
			bits := uint64(1)
			switch kind {
			case model.KindFloat32:
				one, bits = 1.0, uint64(math.Float32bits(1))
			case model.KindFloat64:
				one, bits = 1.0, math.Float64bits(1)
			}
			buf, err := codec.Encode(typ, one)
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}

			big := make([]byte, 8)
			binary.BigEndian.PutUint64(big, bits)
			big = big[8-len(buf):]
			endian := ""
			if !bytes.Equal(buf, big) {
				endian = ", Endian.little"
			}
			width := strconv.Itoa(len(buf))

			block := converterBlock(t, text, converterOf(typ))
			assertContains(t, block,
				"return LiftRetVal(uniffiByteData(buf).get"+p.getter+"(0"+endian+"), "+width+");",
				"uniffiByteData(buf).set"+p.getter+"(0, value"+endian+");",
				"=> "+width+";",
			)
		})
	}

	t.Run("bool", func(t *testing.T) {
		buf, err := codec.Encode(model.Primitive(model.KindBool), true)
		if err != nil || !bytes.Equal(buf, []byte{1}) {
			t.Fatalf("Encode(true) = %v, %v", buf, err)
		}
		assertContains(t, converterBlock(t, text, converterOf(model.Primitive(model.KindBool))),
			"uniffiByteData(buf).setInt8(0, lower(value));",
			"static int allocationSize([bool value = false]) => 1;",
		)
	})

	t.Run("enum discriminator", func(t *testing.T) {
		mood, _ := iface.Lookup("Mood")
		buf, err := codec.Encode(mood, "Sad")
		if err != nil {
			t.Fatalf("Encode failed: %v", err)
		}
		if len(buf) != 4 || binary.BigEndian.Uint32(buf) != 2 {
			t.Fatalf("wire discriminator = %v, want big-endian 2", buf)
		}
		assertContains(t, converterBlock(t, text, converterOf(mood)),
			"uniffiByteData(buf).setInt32(0, value.index + 1);",
			"final index = uniffiByteData(buf).getInt32(0);",
		)
	})

	t.Run("sequence count", func(t *testing.T) {
		seq, err := model.ParseType("sequence<i32>", iface.Lookup)
		if err != nil {
			t.Fatal(err)
		}
		buf, err := codec.Encode(seq, []any{int32(7)})
		if err != nil {
			t.Fatalf("Encode failed: %v", err)
		}
		if binary.BigEndian.Uint32(buf[:4]) != 1 {
			t.Fatalf("wire count = %v, want big-endian 1", buf[:4])
		}
		assertContains(t, converterBlock(t, text, converterOf(seq)),
			"uniffiByteData(buf).setInt32(0, value.length);",
			"final length = uniffiByteData(buf).getInt32(0);",
		)
	})

	t.Run("option tag", func(t *testing.T) {
		opt, err := model.ParseType("option<string>", iface.Lookup)
		if err != nil {
			t.Fatal(err)
		}
		none, err := codec.Encode(opt, nil)
		if err != nil || !bytes.Equal(none, []byte{0}) {
			t.Fatalf("Encode(nil) = %v, %v", none, err)
		}
		assertContains(t, converterBlock(t, text, converterOf(opt)),
			"final tag = uniffiByteData(buf).getInt8(0);",
		)
	})
}
