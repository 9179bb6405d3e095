// Package wire is the Go reference implementation of the buffer format the
// generated converters speak.
//
// Values are described by model types and carried as plain Go values:
//
//	bool, int8..int64, uint8..uint64, float32, float64  primitives
//	string, []byte                                      string, bytes
//	time.Duration, time.Time                            duration, timestamp
//	nil or the inner value                              option<T>
//	[]any                                               sequence<T>
//	[]MapEntry                                          map<K, V>
//	Record                                              records
//	EnumValue (or the variant name for flat enums)      enums
//	Handle                                              objects, callbacks
//
// Integers are big-endian; floats are little-endian. Options carry a one
// byte tag, sequences and maps a u32 count, enums a 1-based u32
// discriminator. Strings and bytes are u32 length prefixed.
//
//	c := wire.NewCodec(iface)
//	buf, err := c.Encode(typ, value)
//	value, n, err := c.Read(typ, buf)
package wire
