package model

import (
	"strings"
	"unicode"

	"go.bytecodealliance.org/wit"

	"github.com/acterglobal/uniffi-dart-sub000/errors"
)

// builtins maps spelled primitive names to their kinds. WIT spellings not
// listed here fall through to wit.ParseType.
var builtins = map[string]Kind{
	"bool":      KindBool,
	"boolean":   KindBool,
	"i8":        KindInt8,
	"u8":        KindUInt8,
	"i16":       KindInt16,
	"u16":       KindUInt16,
	"i32":       KindInt32,
	"u32":       KindUInt32,
	"i64":       KindInt64,
	"u64":       KindUInt64,
	"f32":       KindFloat32,
	"float":     KindFloat32,
	"f64":       KindFloat64,
	"double":    KindFloat64,
	"string":    KindString,
	"bytes":     KindBytes,
	"duration":  KindDuration,
	"timestamp": KindTimestamp,
}

// LookupFunc resolves a declared name to a type reference.
type LookupFunc func(name string) (*Type, bool)

// ParseType parses a type expression such as "u32", "option<string>",
// "sequence<Person>", "map<string, u64>" or "string?". Names that are not
// builtins are resolved through lookup, which may be nil.
func ParseType(expr string, lookup LookupFunc) (*Type, error) {
	p := &typeParser{src: expr, lookup: lookup}
	t, err := p.parse()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, p.malformed("unexpected %q after type", p.src[p.pos:])
	}
	return t, nil
}

type typeParser struct {
	src    string
	pos    int
	lookup LookupFunc
}

func (p *typeParser) malformed(format string, args ...any) error {
	return errors.New(errors.PhaseParse, errors.KindMalformed).
		TypeExpr(p.src).
		Detail(format, args...).
		Build()
}

func (p *typeParser) skipSpace() {
	for p.pos < len(p.src) && p.src[p.pos] == ' ' {
		p.pos++
	}
}

func (p *typeParser) ident() string {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) {
		r := rune(p.src[p.pos])
		if r != '_' && r != '-' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			break
		}
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *typeParser) accept(c byte) bool {
	p.skipSpace()
	if p.pos < len(p.src) && p.src[p.pos] == c {
		p.pos++
		return true
	}
	return false
}

func (p *typeParser) parse() (*Type, error) {
	name := p.ident()
	if name == "" {
		if p.pos >= len(p.src) {
			return nil, p.malformed("missing type")
		}
		return nil, p.malformed("unexpected %q", p.src[p.pos:])
	}

	var t *Type
	if p.accept('<') {
		var params []*Type
		for {
			param, err := p.parse()
			if err != nil {
				return nil, err
			}
			params = append(params, param)
			if p.accept(',') {
				continue
			}
			if !p.accept('>') {
				return nil, p.malformed("unterminated parameter list for %s", name)
			}
			break
		}
		var err error
		if t, err = p.generic(name, params); err != nil {
			return nil, err
		}
	} else {
		var err error
		if t, err = p.leaf(name); err != nil {
			return nil, err
		}
	}

	for p.accept('?') {
		t = Optional(t)
	}
	return t, nil
}

func (p *typeParser) generic(name string, params []*Type) (*Type, error) {
	arity := func(n int) error {
		if len(params) != n {
			return p.malformed("%s takes %d type parameter(s), got %d", name, n, len(params))
		}
		return nil
	}
	switch strings.ToLower(name) {
	case "option", "optional":
		if err := arity(1); err != nil {
			return nil, err
		}
		return Optional(params[0]), nil
	case "sequence", "list":
		if err := arity(1); err != nil {
			return nil, err
		}
		if name == "list" && params[0].Kind == KindUInt8 {
			return Primitive(KindBytes), nil
		}
		return Sequence(params[0]), nil
	case "map", "record":
		if err := arity(2); err != nil {
			return nil, err
		}
		if !params[0].Kind.IsPrimitive() && params[0].Kind != KindString {
			return nil, p.malformed("map key must be a primitive or string, got %s", params[0])
		}
		return Map(params[0], params[1]), nil
	}
	return nil, errors.UnknownType(nil, name+"<...>")
}

func (p *typeParser) leaf(name string) (*Type, error) {
	if k, ok := builtins[name]; ok {
		return Primitive(k), nil
	}
	if p.lookup != nil {
		if t, ok := p.lookup(name); ok {
			return t, nil
		}
	}
	if wt, err := wit.ParseType(name); err == nil {
		return FromWIT(wt)
	}
	return nil, errors.UnknownType(nil, name)
}
