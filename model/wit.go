package model

import (
	"fmt"

	"go.bytecodealliance.org/wit"

	"github.com/acterglobal/uniffi-dart-sub000/errors"
)

// FromWIT converts a WIT type into a model type. Named record, variant and
// enum definitions become references by name; own and borrow handles become
// object references. Anonymous aggregates, tuples, flags, results and char
// have no interface equivalent.
func FromWIT(t wit.Type) (*Type, error) {
	switch t := t.(type) {
	case wit.Bool:
		return Primitive(KindBool), nil
	case wit.S8:
		return Primitive(KindInt8), nil
	case wit.U8:
		return Primitive(KindUInt8), nil
	case wit.S16:
		return Primitive(KindInt16), nil
	case wit.U16:
		return Primitive(KindUInt16), nil
	case wit.S32:
		return Primitive(KindInt32), nil
	case wit.U32:
		return Primitive(KindUInt32), nil
	case wit.S64:
		return Primitive(KindInt64), nil
	case wit.U64:
		return Primitive(KindUInt64), nil
	case wit.F32:
		return Primitive(KindFloat32), nil
	case wit.F64:
		return Primitive(KindFloat64), nil
	case wit.String:
		return Primitive(KindString), nil
	case wit.Char:
		return nil, errors.Unsupported(errors.PhaseParse, "WIT char has no interface equivalent; use string")
	case *wit.TypeDef:
		return fromTypeDef(t)
	case nil:
		return nil, errors.InvalidInput(errors.PhaseParse, "nil WIT type")
	}
	return nil, errors.Unsupported(errors.PhaseParse, fmt.Sprintf("WIT type %T", t))
}

func fromTypeDef(td *wit.TypeDef) (*Type, error) {
	named := func(k Kind) (*Type, error) {
		if td.Name == nil || *td.Name == "" {
			return nil, errors.Unsupported(errors.PhaseParse, fmt.Sprintf("anonymous WIT %s", k))
		}
		return Named(k, *td.Name), nil
	}

	switch kind := td.Kind.(type) {
	case *wit.Record:
		return named(KindRecord)
	case *wit.Variant, *wit.Enum:
		return named(KindEnum)
	case *wit.Option:
		inner, err := FromWIT(kind.Type)
		if err != nil {
			return nil, err
		}
		return Optional(inner), nil
	case *wit.List:
		if _, ok := kind.Type.(wit.U8); ok {
			return Primitive(KindBytes), nil
		}
		elem, err := FromWIT(kind.Type)
		if err != nil {
			return nil, err
		}
		return Sequence(elem), nil
	case *wit.Own:
		return resourceRef(kind.Type)
	case *wit.Borrow:
		return resourceRef(kind.Type)
	case *wit.Result:
		return nil, errors.Unsupported(errors.PhaseParse, "WIT result is expressed with throws")
	case *wit.Tuple:
		return nil, errors.Unsupported(errors.PhaseParse, "WIT tuple")
	case *wit.Flags:
		return nil, errors.Unsupported(errors.PhaseParse, "WIT flags")
	case wit.Type:
		// type alias
		return FromWIT(kind)
	}
	return nil, errors.Unsupported(errors.PhaseParse, fmt.Sprintf("WIT type kind %T", td.Kind))
}

func resourceRef(res *wit.TypeDef) (*Type, error) {
	if res == nil || res.Name == nil || *res.Name == "" {
		return nil, errors.Unsupported(errors.PhaseParse, "handle to anonymous resource")
	}
	return Named(KindObject, *res.Name), nil
}

// DefinitionFromWIT converts a named WIT record, variant or enum into a
// model declaration. Variant payloads become a single field named "value".
func DefinitionFromWIT(td *wit.TypeDef) (any, error) {
	if td == nil || td.Name == nil || *td.Name == "" {
		return nil, errors.InvalidInput(errors.PhaseParse, "WIT definition without a name")
	}
	name := *td.Name

	switch kind := td.Kind.(type) {
	case *wit.Record:
		rec := &Record{Name: name}
		for _, f := range kind.Fields {
			ft, err := FromWIT(f.Type)
			if err != nil {
				return nil, wrapPath(err, "record "+name, "field "+f.Name)
			}
			rec.Fields = append(rec.Fields, &Field{Name: f.Name, Type: ft})
		}
		return rec, nil
	case *wit.Variant:
		en := &Enum{Name: name}
		for _, c := range kind.Cases {
			v := &Variant{Name: c.Name}
			if c.Type != nil {
				ft, err := FromWIT(c.Type)
				if err != nil {
					return nil, wrapPath(err, "enum "+name, "variant "+c.Name)
				}
				v.Fields = []*Field{{Name: "value", Type: ft}}
			}
			en.Variants = append(en.Variants, v)
		}
		return en, nil
	case *wit.Enum:
		en := &Enum{Name: name}
		for _, c := range kind.Cases {
			en.Variants = append(en.Variants, &Variant{Name: c.Name})
		}
		return en, nil
	}
	return nil, errors.Unsupported(errors.PhaseParse, fmt.Sprintf("WIT definition %s of kind %T", name, td.Kind))
}

// wrapPath prefixes the path of a structured error.
func wrapPath(err error, path ...string) error {
	if e, ok := err.(*errors.Error); ok {
		e.Path = append(path, e.Path...)
		return e
	}
	return err
}
