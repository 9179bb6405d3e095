package bindgen

import (
	"strings"

	"github.com/acterglobal/uniffi-dart-sub000/model"
)

// nativeFfiTypes maps ABI kinds to dart:ffi native types.
var nativeFfiTypes = map[model.FfiKind]string{
	model.FfiInt8:         "Int8",
	model.FfiUInt8:        "Uint8",
	model.FfiInt16:        "Int16",
	model.FfiUInt16:       "Uint16",
	model.FfiInt32:        "Int32",
	model.FfiUInt32:       "Uint32",
	model.FfiInt64:        "Int64",
	model.FfiUInt64:       "Uint64",
	model.FfiFloat32:      "Float",
	model.FfiFloat64:      "Double",
	model.FfiRustBuffer:   "RustBuffer",
	model.FfiForeignBytes: "ForeignBytes",
	model.FfiHandle:       "Pointer<Void>",
	model.FfiContinuation: "Pointer<NativeFunction<UniffiRustFutureContinuationCallback>>",
}

// nativeType is the dart:ffi type of an ABI value; nil means Void.
func nativeType(t *model.FfiType) string {
	if t == nil {
		return "Void"
	}
	if t.Kind == model.FfiVTable {
		return "Pointer<" + t.Name + ">"
	}
	return nativeFfiTypes[t.Kind]
}

// dartType is the Dart type a native value is exposed as; nil means void.
func dartType(t *model.FfiType) string {
	if t == nil {
		return "void"
	}
	switch t.Kind {
	case model.FfiInt8, model.FfiUInt8, model.FfiInt16, model.FfiUInt16,
		model.FfiInt32, model.FfiUInt32, model.FfiInt64, model.FfiUInt64:
		return "int"
	case model.FfiFloat32, model.FfiFloat64:
		return "double"
	}
	return nativeType(t)
}

// outPointerType is the type of a callback trampoline's return slot.
func outPointerType(t *model.FfiType) string {
	if t == nil {
		return "Pointer<Void>"
	}
	return "Pointer<" + nativeType(t) + ">"
}

// ffiSignature renders the native and Dart function types of fn, with the
// status pointer appended when fn carries one.
func ffiSignature(fn *model.FfiFunction) (native, dart string) {
	nargs := make([]string, 0, len(fn.Args)+1)
	dargs := make([]string, 0, len(fn.Args)+1)
	for i := range fn.Args {
		nargs = append(nargs, nativeType(&fn.Args[i].Type))
		dargs = append(dargs, dartType(&fn.Args[i].Type))
	}
	if fn.HasStatus {
		nargs = append(nargs, "Pointer<RustCallStatus>")
		dargs = append(dargs, "Pointer<RustCallStatus>")
	}
	native = nativeType(fn.Return) + " Function(" + strings.Join(nargs, ", ") + ")"
	dart = dartType(fn.Return) + " Function(" + strings.Join(dargs, ", ") + ")"
	return native, dart
}
