package wire

import (
	"math"
	"reflect"
)

// coerceInt converts any Go integer (or integral float) that fits in a
// signed integer of the given width.
func coerceInt(value any, bits int) (int64, bool) {
	var n int64
	switch v := value.(type) {
	case int:
		n = int64(v)
	case int8:
		n = int64(v)
	case int16:
		n = int64(v)
	case int32:
		n = int64(v)
	case int64:
		n = v
	case uint8:
		n = int64(v)
	case uint16:
		n = int64(v)
	case uint32:
		n = int64(v)
	case uint:
		if uint64(v) > math.MaxInt64 {
			return 0, false
		}
		n = int64(v)
	case uint64:
		if v > math.MaxInt64 {
			return 0, false
		}
		n = int64(v)
	case float64:
		if v < math.MinInt64 || v > math.MaxInt64 || v != math.Trunc(v) {
			return 0, false
		}
		n = int64(v)
	default:
		return 0, false
	}
	if bits < 64 {
		lo, hi := -(int64(1) << (bits - 1)), int64(1)<<(bits-1)-1
		if n < lo || n > hi {
			return 0, false
		}
	}
	return n, true
}

// coerceUint converts any non-negative Go integer (or integral float) that
// fits in an unsigned integer of the given width.
func coerceUint(value any, bits int) (uint64, bool) {
	var n uint64
	switch v := value.(type) {
	case uint:
		n = uint64(v)
	case uint8:
		n = uint64(v)
	case uint16:
		n = uint64(v)
	case uint32:
		n = uint64(v)
	case uint64:
		n = v
	case Handle:
		n = uint64(v)
	case int, int8, int16, int32, int64:
		s, _ := coerceInt(v, 64)
		if s < 0 {
			return 0, false
		}
		n = uint64(s)
	case float64:
		if v < 0 || v > float64(math.MaxUint64) || v != math.Trunc(v) {
			return 0, false
		}
		n = uint64(v)
	default:
		return 0, false
	}
	if bits < 64 && n > uint64(1)<<bits-1 {
		return 0, false
	}
	return n, true
}

func coerceFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float32:
		return float64(v), true
	case float64:
		return v, true
	}
	if n, ok := coerceInt(value, 64); ok {
		return float64(n), true
	}
	return 0, false
}

// typeName returns "nil" for nil values.
func typeName(value any) string {
	if value == nil {
		return "nil"
	}
	return reflect.TypeOf(value).String()
}
