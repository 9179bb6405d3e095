// Package probe checks a WebAssembly build of a native library against an
// interface model before bindings are written for it.
//
// The library is instantiated under wazero. Verify compares the contract
// version and every recorded checksum and confirms each FFI symbol the
// bindings will bind is exported. Invoke calls synchronous functions with
// Go values lowered and lifted through the wire codec:
//
//	lib, err := probe.Open(ctx, "arithmetic.wasm")
//	if err != nil {
//		return err
//	}
//	defer lib.Close(ctx)
//
//	if err := lib.Verify(ctx, iface, iface.ContractVersion); err != nil {
//		return err
//	}
//
//	sum, err := lib.Invoke(ctx, iface, "add", uint32(2), uint32(3))
//
// Callables that carry a status pointer get a zeroed RustCallStatus in
// guest memory; a non-zero status code is reported as a call_failed error.
// Scratch memory is returned through the module's dealloc or free export
// when it has one.
package probe
