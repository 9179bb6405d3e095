package wire

// Record holds field values by name.
type Record map[string]any

// EnumValue is one enum variant with its payload.
type EnumValue struct {
	Variant string
	Fields  Record
}

// MapEntry is one key/value pair. Maps keep entry order so that encoding
// is deterministic.
type MapEntry struct {
	Key   any
	Value any
}

// Handle is an opaque object or callback handle.
type Handle uint64
