package wire

import (
	"encoding/binary"
	"math"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/acterglobal/uniffi-dart-sub000/errors"
	"github.com/acterglobal/uniffi-dart-sub000/model"
)

// Safety limits for decoding untrusted buffers.
const (
	MaxStringSize = 16 << 20
	MaxCount      = 1 << 20
)

// Codec encodes and decodes values of one interface's types.
type Codec struct {
	iface *model.Interface
}

func NewCodec(iface *model.Interface) *Codec {
	return &Codec{iface: iface}
}

// Encode serialises v into a fresh buffer.
func (c *Codec) Encode(t *model.Type, v any) ([]byte, error) {
	size, err := c.AllocationSize(t, v)
	if err != nil {
		return nil, err
	}
	return c.Write(make([]byte, 0, size), t, v)
}

// Lower produces the top-level buffer passed across the ABI. Strings travel
// as raw UTF-8; every other buffer type travels in its serialised form.
func (c *Codec) Lower(t *model.Type, v any) ([]byte, error) {
	if t.Kind == model.KindString {
		s, ok := v.(string)
		if !ok {
			return nil, errors.TypeMismatch(nil, "string", v)
		}
		return []byte(s), nil
	}
	return c.Encode(t, v)
}

// Lift reverses Lower. The whole buffer must be consumed.
func (c *Codec) Lift(t *model.Type, buf []byte) (any, error) {
	if t.Kind == model.KindString {
		if !utf8.Valid(buf) {
			return nil, errors.Malformed(errors.PhaseDecode, nil, "invalid UTF-8")
		}
		return string(buf), nil
	}
	v, n, err := c.Read(t, buf)
	if err != nil {
		return nil, err
	}
	if n != len(buf) {
		return nil, errors.Malformed(errors.PhaseDecode, nil,
			strconv.Itoa(len(buf)-n)+" bytes of junk remaining in buffer")
	}
	return v, nil
}

// AllocationSize returns the exact number of bytes Write appends for v.
func (c *Codec) AllocationSize(t *model.Type, v any) (int, error) {
	return c.size(t, v, nil)
}

func (c *Codec) size(t *model.Type, v any, path []string) (int, error) {
	if w := t.Kind.Width(); w > 0 {
		return w, nil
	}
	switch t.Kind {
	case model.KindString:
		s, ok := v.(string)
		if !ok {
			return 0, errors.TypeMismatch(path, "string", v)
		}
		return 4 + len(s), nil
	case model.KindBytes:
		b, ok := v.([]byte)
		if !ok {
			return 0, errors.TypeMismatch(path, "bytes", v)
		}
		return 4 + len(b), nil
	case model.KindOptional:
		if v == nil {
			return 1, nil
		}
		n, err := c.size(t.Inner, v, path)
		return 1 + n, err
	case model.KindSequence:
		items, ok := v.([]any)
		if !ok {
			return 0, errors.TypeMismatch(path, t.String(), v)
		}
		total := 4
		for i, item := range items {
			n, err := c.size(t.Inner, item, append(path, "["+strconv.Itoa(i)+"]"))
			if err != nil {
				return 0, err
			}
			total += n
		}
		return total, nil
	case model.KindMap:
		entries, ok := v.([]MapEntry)
		if !ok {
			return 0, errors.TypeMismatch(path, t.String(), v)
		}
		total := 4
		for i, e := range entries {
			elem := append(path, "["+strconv.Itoa(i)+"]")
			kn, err := c.size(t.Key, e.Key, elem)
			if err != nil {
				return 0, err
			}
			vn, err := c.size(t.Inner, e.Value, elem)
			if err != nil {
				return 0, err
			}
			total += kn + vn
		}
		return total, nil
	case model.KindObject, model.KindCallbackInterface:
		return 8, nil
	case model.KindRecord:
		rec, fields, err := c.record(t, v, path)
		if err != nil {
			return 0, err
		}
		total := 0
		for _, f := range fields {
			fv, err := c.fieldValue(rec, f, path)
			if err != nil {
				return 0, err
			}
			n, err := c.size(f.Type, fv, append(path, f.Name))
			if err != nil {
				return 0, err
			}
			total += n
		}
		return total, nil
	case model.KindEnum:
		ev, variant, err := c.variant(t, v, path)
		if err != nil {
			return 0, err
		}
		total := 4
		for _, f := range variant.Fields {
			fv, err := c.fieldValue(ev.Fields, f, path)
			if err != nil {
				return 0, err
			}
			n, err := c.size(f.Type, fv, append(path, variant.Name, f.Name))
			if err != nil {
				return 0, err
			}
			total += n
		}
		return total, nil
	case model.KindCustom:
		ct, err := c.custom(t)
		if err != nil {
			return 0, err
		}
		return c.size(ct.Builtin, v, path)
	}
	return 0, c.unsupported(t)
}

// Write appends the encoding of v to dst.
func (c *Codec) Write(dst []byte, t *model.Type, v any) ([]byte, error) {
	return c.write(dst, t, v, nil)
}

func (c *Codec) write(dst []byte, t *model.Type, v any, path []string) ([]byte, error) {
	switch t.Kind {
	case model.KindBool:
		b, ok := v.(bool)
		if !ok {
			return nil, errors.TypeMismatch(path, "bool", v)
		}
		if b {
			return append(dst, 1), nil
		}
		return append(dst, 0), nil
	case model.KindInt8, model.KindInt16, model.KindInt32, model.KindInt64:
		bits := t.Kind.Width() * 8
		n, ok := coerceInt(v, bits)
		if !ok {
			return nil, errors.TypeMismatch(path, t.String(), v)
		}
		return appendUint(dst, uint64(n), t.Kind.Width()), nil
	case model.KindUInt8, model.KindUInt16, model.KindUInt32, model.KindUInt64:
		n, ok := coerceUint(v, t.Kind.Width()*8)
		if !ok {
			return nil, errors.TypeMismatch(path, t.String(), v)
		}
		return appendUint(dst, n, t.Kind.Width()), nil
	case model.KindFloat32:
		f, ok := coerceFloat(v)
		if !ok {
			return nil, errors.TypeMismatch(path, "f32", v)
		}
		return binary.LittleEndian.AppendUint32(dst, math.Float32bits(float32(f))), nil
	case model.KindFloat64:
		f, ok := coerceFloat(v)
		if !ok {
			return nil, errors.TypeMismatch(path, "f64", v)
		}
		return binary.LittleEndian.AppendUint64(dst, math.Float64bits(f)), nil
	case model.KindString:
		s, ok := v.(string)
		if !ok {
			return nil, errors.TypeMismatch(path, "string", v)
		}
		dst = binary.BigEndian.AppendUint32(dst, uint32(len(s)))
		return append(dst, s...), nil
	case model.KindBytes:
		b, ok := v.([]byte)
		if !ok {
			return nil, errors.TypeMismatch(path, "bytes", v)
		}
		dst = binary.BigEndian.AppendUint32(dst, uint32(len(b)))
		return append(dst, b...), nil
	case model.KindDuration:
		d, ok := v.(time.Duration)
		if !ok || d < 0 {
			return nil, errors.TypeMismatch(path, "duration", v)
		}
		dst = binary.BigEndian.AppendUint64(dst, uint64(d/time.Second))
		return binary.BigEndian.AppendUint32(dst, uint32(d%time.Second)), nil
	case model.KindTimestamp:
		ts, ok := v.(time.Time)
		if !ok {
			return nil, errors.TypeMismatch(path, "timestamp", v)
		}
		secs, nanos := splitTimestamp(ts)
		dst = binary.BigEndian.AppendUint64(dst, uint64(secs))
		return binary.BigEndian.AppendUint32(dst, nanos), nil
	case model.KindOptional:
		if v == nil {
			return append(dst, 0), nil
		}
		return c.write(append(dst, 1), t.Inner, v, path)
	case model.KindSequence:
		items, ok := v.([]any)
		if !ok {
			return nil, errors.TypeMismatch(path, t.String(), v)
		}
		dst = binary.BigEndian.AppendUint32(dst, uint32(len(items)))
		var err error
		for i, item := range items {
			if dst, err = c.write(dst, t.Inner, item, append(path, "["+strconv.Itoa(i)+"]")); err != nil {
				return nil, err
			}
		}
		return dst, nil
	case model.KindMap:
		entries, ok := v.([]MapEntry)
		if !ok {
			return nil, errors.TypeMismatch(path, t.String(), v)
		}
		dst = binary.BigEndian.AppendUint32(dst, uint32(len(entries)))
		var err error
		for i, e := range entries {
			elem := append(path, "["+strconv.Itoa(i)+"]")
			if dst, err = c.write(dst, t.Key, e.Key, elem); err != nil {
				return nil, err
			}
			if dst, err = c.write(dst, t.Inner, e.Value, elem); err != nil {
				return nil, err
			}
		}
		return dst, nil
	case model.KindObject, model.KindCallbackInterface:
		h, ok := coerceUint(v, 64)
		if !ok {
			return nil, errors.TypeMismatch(path, t.String(), v)
		}
		return binary.BigEndian.AppendUint64(dst, h), nil
	case model.KindRecord:
		rec, fields, err := c.record(t, v, path)
		if err != nil {
			return nil, err
		}
		for _, f := range fields {
			fv, err := c.fieldValue(rec, f, path)
			if err != nil {
				return nil, err
			}
			if dst, err = c.write(dst, f.Type, fv, append(path, f.Name)); err != nil {
				return nil, err
			}
		}
		return dst, nil
	case model.KindEnum:
		ev, variant, err := c.variant(t, v, path)
		if err != nil {
			return nil, err
		}
		en, _ := c.iface.Enum(t.Name)
		dst = binary.BigEndian.AppendUint32(dst, uint32(variantIndex(en, variant.Name)+1))
		for _, f := range variant.Fields {
			fv, err := c.fieldValue(ev.Fields, f, path)
			if err != nil {
				return nil, err
			}
			if dst, err = c.write(dst, f.Type, fv, append(path, variant.Name, f.Name)); err != nil {
				return nil, err
			}
		}
		return dst, nil
	case model.KindCustom:
		ct, err := c.custom(t)
		if err != nil {
			return nil, err
		}
		return c.write(dst, ct.Builtin, v, path)
	}
	return nil, c.unsupported(t)
}

// Read decodes one value from the front of buf, returning it with the
// number of bytes consumed.
func (c *Codec) Read(t *model.Type, buf []byte) (any, int, error) {
	r := &reader{buf: buf}
	v, err := c.read(r, t, nil)
	if err != nil {
		return nil, 0, err
	}
	return v, r.pos, nil
}

type reader struct {
	buf []byte
	pos int
}

func (r *reader) take(n int, path []string) ([]byte, error) {
	if n < 0 || len(r.buf)-r.pos < n {
		return nil, errors.IncompleteData(path, n, len(r.buf)-r.pos)
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *reader) uint(width int, path []string) (uint64, error) {
	b, err := r.take(width, path)
	if err != nil {
		return 0, err
	}
	var n uint64
	for _, x := range b {
		n = n<<8 | uint64(x)
	}
	return n, nil
}

func (r *reader) count(path []string) (int, error) {
	n, err := r.uint(4, path)
	if err != nil {
		return 0, err
	}
	if n > MaxCount {
		return 0, errors.New(errors.PhaseDecode, errors.KindOverflow).
			Path(path...).
			Detail("count %d exceeds limit %d", n, MaxCount).
			Build()
	}
	return int(n), nil
}

func (c *Codec) read(r *reader, t *model.Type, path []string) (any, error) {
	switch t.Kind {
	case model.KindBool:
		n, err := r.uint(1, path)
		if err != nil {
			return nil, err
		}
		return n != 0, nil
	case model.KindInt8:
		n, err := r.uint(1, path)
		return int8(n), err
	case model.KindUInt8:
		n, err := r.uint(1, path)
		return uint8(n), err
	case model.KindInt16:
		n, err := r.uint(2, path)
		return int16(n), err
	case model.KindUInt16:
		n, err := r.uint(2, path)
		return uint16(n), err
	case model.KindInt32:
		n, err := r.uint(4, path)
		return int32(n), err
	case model.KindUInt32:
		n, err := r.uint(4, path)
		return uint32(n), err
	case model.KindInt64:
		n, err := r.uint(8, path)
		return int64(n), err
	case model.KindUInt64:
		n, err := r.uint(8, path)
		return n, err
	case model.KindFloat32:
		b, err := r.take(4, path)
		if err != nil {
			return nil, err
		}
		return math.Float32frombits(binary.LittleEndian.Uint32(b)), nil
	case model.KindFloat64:
		b, err := r.take(8, path)
		if err != nil {
			return nil, err
		}
		return math.Float64frombits(binary.LittleEndian.Uint64(b)), nil
	case model.KindString:
		n, err := r.uint(4, path)
		if err != nil {
			return nil, err
		}
		if n > MaxStringSize {
			return nil, errors.New(errors.PhaseDecode, errors.KindOverflow).
				Path(path...).
				Detail("string length %d exceeds limit %d", n, MaxStringSize).
				Build()
		}
		b, err := r.take(int(n), path)
		if err != nil {
			return nil, err
		}
		if !utf8.Valid(b) {
			return nil, errors.Malformed(errors.PhaseDecode, path, "invalid UTF-8")
		}
		return string(b), nil
	case model.KindBytes:
		n, err := r.uint(4, path)
		if err != nil {
			return nil, err
		}
		b, err := r.take(int(n), path)
		if err != nil {
			return nil, err
		}
		out := make([]byte, len(b))
		copy(out, b)
		return out, nil
	case model.KindDuration:
		secs, err := r.uint(8, path)
		if err != nil {
			return nil, err
		}
		nanos, err := r.uint(4, path)
		if err != nil {
			return nil, err
		}
		return time.Duration(secs)*time.Second + time.Duration(nanos), nil
	case model.KindTimestamp:
		secs, err := r.uint(8, path)
		if err != nil {
			return nil, err
		}
		nanos, err := r.uint(4, path)
		if err != nil {
			return nil, err
		}
		return joinTimestamp(int64(secs), uint32(nanos)), nil
	case model.KindOptional:
		tag, err := r.uint(1, path)
		if err != nil {
			return nil, err
		}
		switch tag {
		case 0:
			return nil, nil
		case 1:
			return c.read(r, t.Inner, path)
		}
		return nil, errors.New(errors.PhaseDecode, errors.KindUnexpectedOptionalTag).
			Path(path...).
			Value(tag).
			Detail("optional tag %d", tag).
			Build()
	case model.KindSequence:
		n, err := r.count(path)
		if err != nil {
			return nil, err
		}
		items := make([]any, 0, min(n, len(r.buf)-r.pos))
		for i := 0; i < n; i++ {
			item, err := c.read(r, t.Inner, append(path, "["+strconv.Itoa(i)+"]"))
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		return items, nil
	case model.KindMap:
		n, err := r.count(path)
		if err != nil {
			return nil, err
		}
		entries := make([]MapEntry, 0, min(n, len(r.buf)-r.pos))
		for i := 0; i < n; i++ {
			elem := append(path, "["+strconv.Itoa(i)+"]")
			k, err := c.read(r, t.Key, elem)
			if err != nil {
				return nil, err
			}
			v, err := c.read(r, t.Inner, elem)
			if err != nil {
				return nil, err
			}
			entries = append(entries, MapEntry{Key: k, Value: v})
		}
		return entries, nil
	case model.KindObject, model.KindCallbackInterface:
		h, err := r.uint(8, path)
		return Handle(h), err
	case model.KindRecord:
		rec, ok := c.iface.Record(t.Name)
		if !ok {
			return nil, errors.MissingDefinition(path, t.Name)
		}
		out := make(Record, len(rec.Fields))
		for _, f := range rec.Fields {
			v, err := c.read(r, f.Type, append(path, f.Name))
			if err != nil {
				return nil, err
			}
			out[f.Name] = v
		}
		return out, nil
	case model.KindEnum:
		en, ok := c.iface.Enum(t.Name)
		if !ok {
			return nil, errors.MissingDefinition(path, t.Name)
		}
		disc, err := r.uint(4, path)
		if err != nil {
			return nil, err
		}
		if disc < 1 || disc > uint64(len(en.Variants)) {
			return nil, errors.New(errors.PhaseDecode, errors.KindUnexpectedEnumCase).
				Path(path...).
				TypeExpr(t.Name).
				Value(disc).
				Detail("discriminator %d outside 1..%d", disc, len(en.Variants)).
				Build()
		}
		variant := en.Variants[disc-1]
		ev := EnumValue{Variant: variant.Name}
		if len(variant.Fields) > 0 {
			ev.Fields = make(Record, len(variant.Fields))
		}
		for _, f := range variant.Fields {
			v, err := c.read(r, f.Type, append(path, variant.Name, f.Name))
			if err != nil {
				return nil, err
			}
			ev.Fields[f.Name] = v
		}
		return ev, nil
	case model.KindCustom:
		ct, err := c.custom(t)
		if err != nil {
			return nil, err
		}
		return c.read(r, ct.Builtin, path)
	}
	return nil, c.unsupported(t)
}

func appendUint(dst []byte, n uint64, width int) []byte {
	for shift := (width - 1) * 8; shift >= 0; shift -= 8 {
		dst = append(dst, byte(n>>shift))
	}
	return dst
}

func (c *Codec) record(t *model.Type, v any, path []string) (Record, []*model.Field, error) {
	def, ok := c.iface.Record(t.Name)
	if !ok {
		return nil, nil, errors.MissingDefinition(path, t.Name)
	}
	rec, ok := v.(Record)
	if !ok {
		return nil, nil, errors.TypeMismatch(path, t.Name, v)
	}
	return rec, def.Fields, nil
}

func (c *Codec) variant(t *model.Type, v any, path []string) (EnumValue, *model.Variant, error) {
	en, ok := c.iface.Enum(t.Name)
	if !ok {
		return EnumValue{}, nil, errors.MissingDefinition(path, t.Name)
	}
	var ev EnumValue
	switch x := v.(type) {
	case EnumValue:
		ev = x
	case string:
		ev = EnumValue{Variant: x}
	default:
		return EnumValue{}, nil, errors.TypeMismatch(path, t.Name, v)
	}
	idx := variantIndex(en, ev.Variant)
	if idx < 0 {
		return EnumValue{}, nil, errors.New(errors.PhaseEncode, errors.KindUnexpectedEnumCase).
			Path(path...).
			TypeExpr(t.Name).
			Detail("no variant %q", ev.Variant).
			Build()
	}
	return ev, en.Variants[idx], nil
}

// fieldValue returns the value of f, falling back to its declared default.
func (c *Codec) fieldValue(values Record, f *model.Field, path []string) (any, error) {
	if v, ok := values[f.Name]; ok {
		return v, nil
	}
	if f.Default != nil {
		return DefaultValue(f.Type, f.Default), nil
	}
	return nil, errors.New(errors.PhaseEncode, errors.KindMissingDefinition).
		Path(append(path, f.Name)...).
		Detail("missing value for field %s of type %s (got %s)", f.Name, f.Type, typeName(values)).
		Build()
}

func (c *Codec) custom(t *model.Type) (*model.CustomType, error) {
	ct, ok := c.iface.CustomType(t.Name)
	if !ok {
		return nil, errors.MissingDefinition(nil, t.Name)
	}
	return ct, nil
}

func (c *Codec) unsupported(t *model.Type) error {
	return errors.New(errors.PhaseEncode, errors.KindUnsupported).
		TypeExpr(t.String()).
		Detail("%s values are encoded by their own bindings", t.Kind).
		Build()
}

func variantIndex(en *model.Enum, name string) int {
	for i, v := range en.Variants {
		if v.Name == name {
			return i
		}
	}
	return -1
}

// splitTimestamp encodes times before the epoch as negative seconds with a
// positive nanosecond magnitude.
func splitTimestamp(ts time.Time) (int64, uint32) {
	secs, nanos := ts.Unix(), int64(ts.Nanosecond())
	if secs >= 0 {
		return secs, uint32(nanos)
	}
	if nanos == 0 {
		return secs, 0
	}
	return secs + 1, uint32(1e9 - nanos)
}

func joinTimestamp(secs int64, nanos uint32) time.Time {
	if secs >= 0 {
		return time.Unix(secs, int64(nanos)).UTC()
	}
	return time.Unix(secs, -int64(nanos)).UTC()
}

// DefaultValue converts a declared default into the Go value Write expects.
func DefaultValue(t *model.Type, lit *model.Literal) any {
	if t.Kind == model.KindOptional && lit.Kind != model.LiteralNone {
		return DefaultValue(t.Inner, lit)
	}
	switch lit.Kind {
	case model.LiteralBool:
		return lit.Bool
	case model.LiteralString:
		return lit.String
	case model.LiteralInt:
		return lit.Int
	case model.LiteralUInt:
		return lit.UInt
	case model.LiteralFloat:
		f, _ := strconv.ParseFloat(lit.Float, 64)
		return f
	case model.LiteralEnum:
		return EnumValue{Variant: lit.String}
	case model.LiteralEmptySequence:
		return []any{}
	case model.LiteralEmptyMap:
		return []MapEntry{}
	}
	return nil
}
