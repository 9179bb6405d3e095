package bindgen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/acterglobal/uniffi-dart-sub000/errors"
	"github.com/acterglobal/uniffi-dart-sub000/model"
)

// CodeType describes how one interface type appears in Dart.
type CodeType struct {
	Type *model.Type

	// Label is the Dart type the user sees, e.g. "List<int>".
	Label string

	// Canonical is the identifier slug naming the converter,
	// e.g. "Sequencei32" or "OptionalString".
	Canonical string

	// Import is the package import an external type needs, if any.
	Import string

	// converter overrides the converter class name.
	converter string
}

// Converter is the name of the converter class.
func (c *CodeType) Converter() string {
	if c.converter != "" {
		return c.converter
	}
	return "FfiConverter" + c.Canonical
}

// ExternalConverter names the converter an external type's own package
// defines. The bindings reach it only through the bridge Converter names.
func (c *CodeType) ExternalConverter() string {
	return "FfiConverter" + c.Canonical
}

// Lift renders a call lifting expr from its FFI form.
func (c *CodeType) Lift(expr string) string {
	return c.Converter() + ".lift(" + expr + ")"
}

// Lower renders a call lowering expr to its FFI form.
func (c *CodeType) Lower(expr string) string {
	return c.Converter() + ".lower(" + expr + ")"
}

// Read renders a call reading a value from the Uint8List view buf.
func (c *CodeType) Read(buf string) string {
	return c.Converter() + ".read(" + buf + ")"
}

// Write renders a call writing expr into the Uint8List view buf.
func (c *CodeType) Write(expr, buf string) string {
	return c.Converter() + ".write(" + expr + ", " + buf + ")"
}

// AllocationSize renders a call sizing expr.
func (c *CodeType) AllocationSize(expr string) string {
	return c.Converter() + ".allocationSize(" + expr + ")"
}

// primitive describes the fixed converters for scalar kinds.
type primitive struct {
	label     string
	canonical string
	getter    string // ByteData accessor suffix
	little    bool   // floats are little-endian on the wire
}

var primitives = map[model.Kind]primitive{
	model.KindBool:    {"bool", "bool", "Int8", false},
	model.KindInt8:    {"int", "i8", "Int8", false},
	model.KindUInt8:   {"int", "u8", "Uint8", false},
	model.KindInt16:   {"int", "i16", "Int16", false},
	model.KindUInt16:  {"int", "u16", "Uint16", false},
	model.KindInt32:   {"int", "i32", "Int32", false},
	model.KindUInt32:  {"int", "u32", "Uint32", false},
	model.KindInt64:   {"int", "i64", "Int64", false},
	model.KindUInt64:  {"int", "u64", "Uint64", false},
	model.KindFloat32: {"double", "f32", "Float32", true},
	model.KindFloat64: {"double", "f64", "Float64", true},
}

var builtinLabels = map[model.Kind][2]string{
	model.KindString:    {"String", "String"},
	model.KindBytes:     {"Uint8List", "Uint8List"},
	model.KindDuration:  {"Duration", "Duration"},
	model.KindTimestamp: {"DateTime", "Timestamp"},
}

// Registry maps interface types to their Dart code types. It holds no
// mutable state.
type Registry struct {
	iface    *model.Interface
	packages func(crate string) (string, bool)
}

// NewRegistry creates a registry. packages names the Dart package that
// provides an external crate's bindings; crates it does not know map to
// their own name with dashes replaced.
func NewRegistry(iface *model.Interface, packages func(crate string) (string, bool)) *Registry {
	return &Registry{iface: iface, packages: packages}
}

func (r *Registry) packageOf(crate string) string {
	if r.packages != nil {
		if pkg, ok := r.packages(crate); ok {
			return pkg
		}
	}
	return strings.ReplaceAll(crate, "-", "_")
}

// Of returns the code type for t.
func (r *Registry) Of(t *model.Type) (*CodeType, error) {
	if t == nil {
		return nil, errors.New(errors.PhaseRender, errors.KindMalformed).
			Detail("void has no code type").
			Build()
	}
	if p, ok := primitives[t.Kind]; ok {
		return &CodeType{Type: t, Label: p.label, Canonical: p.canonical}, nil
	}
	if b, ok := builtinLabels[t.Kind]; ok {
		return &CodeType{Type: t, Label: b[0], Canonical: b[1]}, nil
	}

	switch t.Kind {
	case model.KindOptional:
		inner, err := r.Of(t.Inner)
		if err != nil {
			return nil, err
		}
		label := inner.Label + "?"
		if strings.HasSuffix(inner.Label, "?") {
			label = inner.Label
		}
		return &CodeType{Type: t, Label: label, Canonical: "Optional" + inner.Canonical}, nil

	case model.KindSequence:
		inner, err := r.Of(t.Inner)
		if err != nil {
			return nil, err
		}
		return &CodeType{Type: t, Label: "List<" + inner.Label + ">", Canonical: "Sequence" + inner.Canonical}, nil

	case model.KindMap:
		key, err := r.Of(t.Key)
		if err != nil {
			return nil, err
		}
		value, err := r.Of(t.Inner)
		if err != nil {
			return nil, err
		}
		return &CodeType{
			Type:      t,
			Label:     "Map<" + key.Label + ", " + value.Label + ">",
			Canonical: "Map" + key.Canonical + value.Canonical,
		}, nil

	case model.KindRecord:
		if _, ok := r.iface.Record(t.Name); !ok {
			return nil, errors.MissingDefinition([]string{"record"}, t.Name)
		}
		name := ClassName(t.Name)
		return &CodeType{Type: t, Label: name, Canonical: name}, nil

	case model.KindEnum:
		e, ok := r.iface.Enum(t.Name)
		if !ok {
			return nil, errors.MissingDefinition([]string{"enum"}, t.Name)
		}
		name := ClassName(t.Name)
		if e.IsError {
			name = ErrorName(t.Name)
		}
		return &CodeType{Type: t, Label: name, Canonical: name}, nil

	case model.KindObject:
		if _, ok := r.iface.Object(t.Name); !ok {
			return nil, errors.MissingDefinition([]string{"object"}, t.Name)
		}
		name := ClassName(t.Name)
		return &CodeType{Type: t, Label: name, Canonical: name}, nil

	case model.KindCallbackInterface:
		if _, ok := r.iface.CallbackInterface(t.Name); !ok {
			return nil, errors.MissingDefinition([]string{"callback interface"}, t.Name)
		}
		name := ClassName(t.Name)
		return &CodeType{Type: t, Label: name, Canonical: name}, nil

	case model.KindCustom:
		c, ok := r.iface.CustomType(t.Name)
		if !ok {
			return nil, errors.MissingDefinition([]string{"custom type"}, t.Name)
		}
		name := ClassName(t.Name)
		label := name
		if c.HasConverters() && c.TypeName != "" {
			label = c.TypeName
		}
		return &CodeType{Type: t, Label: label, Canonical: name}, nil

	case model.KindExternal:
		e, ok := r.iface.ExternalType(t.Name)
		if !ok {
			return nil, errors.MissingDefinition([]string{"external type"}, t.Name)
		}
		pkg := r.packageOf(e.Crate)
		name := ClassName(t.Name)
		return &CodeType{
			Type:      t,
			Label:     name,
			Canonical: name,
			Import:    "package:" + pkg + "/" + pkg + ".dart",
			converter: "FfiConverterExternal" + name,
		}, nil
	}

	return nil, errors.New(errors.PhaseRender, errors.KindUnknownType).
		TypeExpr(t.String()).
		Detail("no Dart representation for kind %s", t.Kind).
		Build()
}

// Literal renders a default value of type t in Dart syntax. Collection
// literals are const so they can appear in parameter defaults.
func (r *Registry) Literal(t *model.Type, lit *model.Literal) (string, error) {
	switch lit.Kind {
	case model.LiteralNone:
		return "null", nil
	case model.LiteralBool:
		return strconv.FormatBool(lit.Bool), nil
	case model.LiteralString:
		return dartString(lit.String), nil
	case model.LiteralInt:
		return strconv.FormatInt(lit.Int, 10), nil
	case model.LiteralUInt:
		if lit.UInt > 1<<63-1 {
			// Dart ints are signed 64-bit; u64 values above that wrap.
			return strconv.FormatInt(int64(lit.UInt), 10), nil
		}
		return strconv.FormatUint(lit.UInt, 10), nil
	case model.LiteralFloat:
		return lit.Float, nil
	case model.LiteralEmptySequence:
		return "const []", nil
	case model.LiteralEmptyMap:
		return "const {}", nil
	case model.LiteralEnum:
		target := t
		for target.Kind == model.KindOptional {
			target = target.Inner
		}
		ct, err := r.Of(target)
		if err != nil {
			return "", err
		}
		return ct.Label + "." + EnumVariantName(lit.String), nil
	}
	return "", errors.New(errors.PhaseRender, errors.KindUnsupported).
		TypeExpr(t.String()).
		Detail("cannot render literal %s", lit.Text()).
		Build()
}

// dartString quotes s as a single-quoted Dart string literal.
func dartString(s string) string {
	var b strings.Builder
	b.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '\'':
			b.WriteString(`\'`)
		case '$':
			b.WriteString(`\$`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 {
				fmt.Fprintf(&b, `\u{%x}`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('\'')
	return b.String()
}
