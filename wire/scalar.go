package wire

import (
	"encoding/binary"
	"math"

	"github.com/acterglobal/uniffi-dart-sub000/errors"
	"github.com/acterglobal/uniffi-dart-sub000/model"
)

// LowerScalar converts a value whose type crosses the ABI as a scalar into
// the raw word a wasm call takes. Integers up to 32 bits become an i32,
// signed ones sign-extended; floats carry their IEEE bits. Objects and
// callback interfaces lower from a Handle.
func (c *Codec) LowerScalar(t *model.Type, v any) (uint64, error) {
	switch t.Kind {
	case model.KindObject, model.KindCallbackInterface, model.KindExternal:
		n, ok := coerceUint(v, 64)
		if !ok {
			return 0, errors.TypeMismatch(nil, "handle", v)
		}
		return n, nil
	case model.KindCustom:
		ct, err := c.custom(t)
		if err != nil {
			return 0, err
		}
		return c.LowerScalar(ct.Builtin, v)
	}

	buf, err := c.Encode(t, v)
	if err != nil {
		return 0, err
	}
	switch t.Kind {
	case model.KindFloat32:
		return uint64(binary.LittleEndian.Uint32(buf)), nil
	case model.KindFloat64:
		return binary.LittleEndian.Uint64(buf), nil
	case model.KindBool, model.KindUInt8:
		return uint64(buf[0]), nil
	case model.KindInt8:
		return uint64(uint32(int32(int8(buf[0])))), nil
	case model.KindUInt16:
		return uint64(binary.BigEndian.Uint16(buf)), nil
	case model.KindInt16:
		return uint64(uint32(int32(int16(binary.BigEndian.Uint16(buf))))), nil
	case model.KindInt32, model.KindUInt32:
		return uint64(binary.BigEndian.Uint32(buf)), nil
	case model.KindInt64, model.KindUInt64:
		return binary.BigEndian.Uint64(buf), nil
	}
	return 0, c.unsupported(t)
}

// LiftScalar reverses LowerScalar, returning the Go value Read would.
func (c *Codec) LiftScalar(t *model.Type, raw uint64) (any, error) {
	switch t.Kind {
	case model.KindBool:
		return uint8(raw) != 0, nil
	case model.KindInt8:
		return int8(raw), nil
	case model.KindUInt8:
		return uint8(raw), nil
	case model.KindInt16:
		return int16(raw), nil
	case model.KindUInt16:
		return uint16(raw), nil
	case model.KindInt32:
		return int32(raw), nil
	case model.KindUInt32:
		return uint32(raw), nil
	case model.KindInt64:
		return int64(raw), nil
	case model.KindUInt64:
		return raw, nil
	case model.KindFloat32:
		return math.Float32frombits(uint32(raw)), nil
	case model.KindFloat64:
		return math.Float64frombits(raw), nil
	case model.KindObject, model.KindCallbackInterface, model.KindExternal:
		return Handle(raw), nil
	case model.KindCustom:
		ct, err := c.custom(t)
		if err != nil {
			return nil, err
		}
		return c.LiftScalar(ct.Builtin, raw)
	}
	return nil, c.unsupported(t)
}
