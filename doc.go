// Package uniffidart generates Dart bindings for native libraries that
// follow the UniFFI calling convention.
//
// Given a description of a library's public interface (records, enums,
// objects, callback interfaces, custom and external types, sync and async
// functions) the generator writes one Dart source file that loads the
// library through dart:ffi and exposes it as ordinary Dart classes and
// functions.
//
// # Architecture Overview
//
//	uniffidart/
//	├── model/          Interface model, description loader, FFI lowering, checksums
//	├── config/         Generator configuration (package, library name, externals)
//	├── errors/         Structured error types for diagnostics
//	├── wire/           Go reference codec for the buffer serialisation format
//	├── bindgen/        Type registry, converter renderers and the driver
//	├── probe/          Verifies a WebAssembly build of the library with wazero
//	└── cmd/uniffi-dart CLI and interactive section browser
//
// # Quick Start
//
// Generate bindings from a description file:
//
//	path, err := bindgen.GenerateBindings(ctx, bindgen.Options{
//	    InterfacePath: "api.yaml",
//	    ConfigPath:    "uniffi.yaml",
//	    OutDir:        "lib",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(path) // "lib/uniffi_arithmetic.dart"
//
// Or render in memory:
//
//	iface, err := model.Load("api.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	text, err := bindgen.Generate(iface, config.Default(iface.Namespace.Name))
//
// # Wire Format
//
// Values that do not cross the ABI as scalars travel in a RustBuffer.
// Integers are big-endian, floats little-endian, strings and byte buffers
// carry an i32 length prefix, options a one-byte tag, sequences and maps an
// i32 count, and enums a 1-based i32 discriminator. The wire package encodes
// and decodes the same format in Go and is the reference for the emitted
// converters.
//
// # Verification
//
// When a WebAssembly build of the native library is supplied, the
// generator instantiates it, compares the contract version and every
// recorded checksum with the interface model, and checks that each symbol the
// bindings bind is exported. Nothing is written if verification fails.
//
// # Thread Safety
//
// Rendering holds no global state; concurrent Generate calls are safe. A
// probe.Library serialises its calls and may be shared.
package uniffidart
