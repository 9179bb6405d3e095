package model

import "strings"

// Kind identifies the shape of an interface type
type Kind uint8

const (
	KindBool Kind = iota
	KindInt8
	KindUInt8
	KindInt16
	KindUInt16
	KindInt32
	KindUInt32
	KindInt64
	KindUInt64
	KindFloat32
	KindFloat64
	KindString
	KindBytes
	KindDuration
	KindTimestamp
	KindOptional
	KindSequence
	KindMap
	KindRecord
	KindEnum
	KindObject
	KindCallbackInterface
	KindCustom
	KindExternal
)

var kindNames = [...]string{
	KindBool:              "bool",
	KindInt8:              "i8",
	KindUInt8:             "u8",
	KindInt16:             "i16",
	KindUInt16:            "u16",
	KindInt32:             "i32",
	KindUInt32:            "u32",
	KindInt64:             "i64",
	KindUInt64:            "u64",
	KindFloat32:           "f32",
	KindFloat64:           "f64",
	KindString:            "string",
	KindBytes:             "bytes",
	KindDuration:          "duration",
	KindTimestamp:         "timestamp",
	KindOptional:          "option",
	KindSequence:          "sequence",
	KindMap:               "map",
	KindRecord:            "record",
	KindEnum:              "enum",
	KindObject:            "object",
	KindCallbackInterface: "callback",
	KindCustom:            "custom",
	KindExternal:          "external",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// IsPrimitive reports fixed-width scalar kinds.
func (k Kind) IsPrimitive() bool {
	return k <= KindFloat64
}

// IsInteger reports signed and unsigned integer kinds.
func (k Kind) IsInteger() bool {
	return k >= KindInt8 && k <= KindUInt64
}

// IsSigned reports signed integer kinds.
func (k Kind) IsSigned() bool {
	switch k {
	case KindInt8, KindInt16, KindInt32, KindInt64:
		return true
	}
	return false
}

// IsFloat reports floating point kinds.
func (k Kind) IsFloat() bool {
	return k == KindFloat32 || k == KindFloat64
}

// IsNamed reports kinds that reference a declaration by name.
func (k Kind) IsNamed() bool {
	return k >= KindRecord
}

// Width returns the encoded byte width of fixed-size kinds, 0 otherwise.
func (k Kind) Width() int {
	switch k {
	case KindBool, KindInt8, KindUInt8:
		return 1
	case KindInt16, KindUInt16:
		return 2
	case KindInt32, KindUInt32, KindFloat32:
		return 4
	case KindInt64, KindUInt64, KindFloat64:
		return 8
	case KindDuration, KindTimestamp:
		return 12
	}
	return 0
}

// Type is a node in an interface type tree.
type Type struct {
	Inner *Type  // option payload, sequence element, map value
	Key   *Type  // map key
	Name  string // named kinds
	Crate string // defining crate of external types
	Kind  Kind
}

// Primitive returns a builtin type without parameters.
func Primitive(k Kind) *Type {
	return &Type{Kind: k}
}

// Optional returns option<inner>.
func Optional(inner *Type) *Type {
	return &Type{Kind: KindOptional, Inner: inner}
}

// Sequence returns sequence<elem>.
func Sequence(elem *Type) *Type {
	return &Type{Kind: KindSequence, Inner: elem}
}

// Map returns map<key, value>.
func Map(key, value *Type) *Type {
	return &Type{Kind: KindMap, Key: key, Inner: value}
}

// Named returns a reference to a declaration.
func Named(k Kind, name string) *Type {
	return &Type{Kind: k, Name: name}
}

// String renders the type as a type expression.
func (t *Type) String() string {
	if t == nil {
		return "void"
	}
	switch t.Kind {
	case KindOptional:
		return "option<" + t.Inner.String() + ">"
	case KindSequence:
		return "sequence<" + t.Inner.String() + ">"
	case KindMap:
		return "map<" + t.Key.String() + ", " + t.Inner.String() + ">"
	}
	if t.Kind.IsNamed() {
		return t.Name
	}
	return t.Kind.String()
}

// Equal compares two type trees structurally.
func (t *Type) Equal(o *Type) bool {
	if t == nil || o == nil {
		return t == o
	}
	if t.Kind != o.Kind || t.Name != o.Name || t.Crate != o.Crate {
		return false
	}
	return t.Inner.Equal(o.Inner) && t.Key.Equal(o.Key)
}

// Walk visits t and every type nested in it, parents first.
func (t *Type) Walk(visit func(*Type)) {
	if t == nil {
		return
	}
	visit(t)
	t.Key.Walk(visit)
	t.Inner.Walk(visit)
}

// ffiSegment lowercases a declared name for use in a native symbol.
func ffiSegment(name string) string {
	return strings.ToLower(name)
}
