// Package model is the read-only interface model consumed by the binding
// generator.
//
// An Interface describes a native library's public surface: records, enums
// (flat, variant-carrying and error enums), objects with constructors and
// methods, callback interfaces implemented by the host, free functions and
// the custom and external types they reference. Types form an acyclic tree;
// object references may still form cycles at the value level, which the
// model never follows.
//
// # Loading
//
// Interfaces are loaded from a YAML (or JSON) interface description:
//
//	iface, err := model.Load("arithmetic.yaml")
//
// Type expressions inside the description are parsed by ParseType. WIT
// primitive spellings (s32, u64, ...) resolve through go.bytecodealliance.org/wit,
// and FromWIT converts WIT type trees into model types.
//
// # FFI lowering
//
// Every callable, plus the housekeeping entries (buffer management, vtable
// initialisation, checksum functions, contract-version function, future polling),
// lowers to exactly one FfiFunction:
//
//	for _, fn := range iface.FfiFunctions() {
//	    fmt.Println(fn.Name, fn.Args, fn.Return, fn.HasStatus)
//	}
//
// Wire layout: primitives travel as ABI scalars; strings, byte buffers,
// records, enums, options, sequences and maps travel as a RustBuffer; objects
// travel as opaque handle pointers and callback interfaces as 64-bit handles.
package model
