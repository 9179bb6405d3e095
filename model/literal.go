package model

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// LiteralKind tags the value carried by a Literal.
type LiteralKind uint8

const (
	LiteralBool LiteralKind = iota
	LiteralString
	LiteralInt
	LiteralUInt
	LiteralFloat
	LiteralEnum // flat enum variant, by name
	LiteralNone
	LiteralEmptySequence
	LiteralEmptyMap
)

// Literal is a default value for a field or argument.
type Literal struct {
	Kind   LiteralKind
	Bool   bool
	Int    int64
	UInt   uint64
	Float  string // kept in source form so rendering is exact
	String string // string payload or enum variant name
}

func (l *Literal) Text() string {
	switch l.Kind {
	case LiteralBool:
		return strconv.FormatBool(l.Bool)
	case LiteralString:
		return strconv.Quote(l.String)
	case LiteralInt:
		return strconv.FormatInt(l.Int, 10)
	case LiteralUInt:
		return strconv.FormatUint(l.UInt, 10)
	case LiteralFloat:
		return l.Float
	case LiteralEnum:
		return l.String
	case LiteralNone:
		return "null"
	case LiteralEmptySequence:
		return "[]"
	case LiteralEmptyMap:
		return "{}"
	}
	return ""
}

// literalFor interprets a scalar written in the description against the
// declared type. value is the raw text, tag the YAML core tag.
func literalFor(t *Type, tag, value string) (*Literal, bool) {
	if tag == "!!null" {
		if t.Kind != KindOptional {
			return nil, false
		}
		return &Literal{Kind: LiteralNone}, true
	}
	if t.Kind == KindOptional {
		return literalFor(t.Inner, tag, value)
	}

	switch t.Kind {
	case KindBool:
		b, err := strconv.ParseBool(value)
		if err != nil || tag != "!!bool" {
			return nil, false
		}
		return &Literal{Kind: LiteralBool, Bool: b}, true
	case KindString:
		return &Literal{Kind: LiteralString, String: value}, true
	case KindInt8, KindInt16, KindInt32, KindInt64:
		n, err := strconv.ParseInt(value, 0, t.Kind.Width()*8)
		if err != nil {
			return nil, false
		}
		return &Literal{Kind: LiteralInt, Int: n}, true
	case KindUInt8, KindUInt16, KindUInt32, KindUInt64:
		n, err := strconv.ParseUint(value, 0, t.Kind.Width()*8)
		if err != nil {
			return nil, false
		}
		return &Literal{Kind: LiteralUInt, UInt: n}, true
	case KindFloat32, KindFloat64:
		text, ok := floatLiteral(value)
		if !ok {
			return nil, false
		}
		return &Literal{Kind: LiteralFloat, Float: text}, true
	case KindEnum:
		if tag != "!!str" || value == "" {
			return nil, false
		}
		return &Literal{Kind: LiteralEnum, String: value}, true
	}
	return nil, false
}

var decimalFloat = regexp.MustCompile(`^-?[0-9]+(\.[0-9]+)?([eE][+-]?[0-9]+)?$`)

// floatLiteral returns value as a Dart double literal. Plain decimals keep
// their spelling; other finite forms (hex, a leading plus) are rewritten in
// shortest decimal form. Infinities and NaN have no literal and are
// rejected.
func floatLiteral(value string) (string, bool) {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return "", false
	}
	if !decimalFloat.MatchString(value) {
		value = strconv.FormatFloat(f, 'g', -1, 64)
	}
	if !strings.ContainsAny(value, ".eE") {
		value += ".0"
	}
	return value, true
}
