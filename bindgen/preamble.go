package bindgen

import (
	"strings"

	"github.com/acterglobal/uniffi-dart-sub000/bindgen/internal/emit"
	"github.com/acterglobal/uniffi-dart-sub000/model"
)

// baseImports are needed by the runtime support every file carries.
var baseImports = []string{
	"dart:async",
	"dart:convert",
	"dart:ffi",
	"dart:io",
	"dart:isolate",
	"dart:typed_data",
	"package:ffi/ffi.dart",
}

// runtimeSupport is the fixed part of every generated file: the error
// hierarchy, the call status and buffer structs, the calling convention
// and the buffer helpers every converter builds on.
const runtimeSupport = `class UniffiInternalError implements Exception {
  static const int bufferOverflow = 0;
  static const int incompleteData = 1;
  static const int unexpectedOptionalTag = 2;
  static const int unexpectedEnumCase = 3;
  static const int unexpectedNullPointer = 4;
  static const int unexpectedRustCallStatusCode = 5;
  static const int unexpectedRustCallError = 6;
  static const int unexpectedStaleHandle = 7;
  static const int rustPanic = 8;

  final int errorCode;
  final String? panicMessage;

  const UniffiInternalError(this.errorCode, this.panicMessage);

  static UniffiInternalError panicked(String message) {
    return UniffiInternalError(rustPanic, message);
  }

  @override
  String toString() {
    switch (errorCode) {
      case bufferOverflow:
        return 'UniFfi::BufferOverflow';
      case incompleteData:
        return 'UniFfi::IncompleteData';
      case unexpectedOptionalTag:
        return 'UniFfi::UnexpectedOptionalTag';
      case unexpectedEnumCase:
        return 'UniFfi::UnexpectedEnumCase';
      case unexpectedNullPointer:
        return 'UniFfi::UnexpectedNullPointer';
      case unexpectedRustCallStatusCode:
        return 'UniFfi::UnexpectedRustCallStatusCode: $panicMessage';
      case unexpectedRustCallError:
        return 'UniFfi::UnexpectedRustCallError';
      case unexpectedStaleHandle:
        return 'UniFfi::UnexpectedStaleHandle';
      case rustPanic:
        return 'UniFfi::rust panic: $panicMessage';
      default:
        return 'UniFfi::UnknownElementType';
    }
  }
}

class UniffiContractVersionMismatch implements Exception {
  final int expected;
  final int actual;

  const UniffiContractVersionMismatch(this.expected, this.actual);

  @override
  String toString() =>
      'UniFfi::ContractVersionMismatch: bindings expect $expected, library reports $actual';
}

class UniffiChecksumMismatch implements Exception {
  final String symbol;
  final int expected;
  final int actual;

  const UniffiChecksumMismatch(this.symbol, this.expected, this.actual);

  @override
  String toString() =>
      'UniFfi::ChecksumMismatch: $symbol expected $expected, library reports $actual';
}

class UniffiUnsupportedPlatform implements Exception {
  final String platform;

  const UniffiUnsupportedPlatform(this.platform);

  @override
  String toString() => 'UniFfi::UnsupportedPlatform: $platform';
}

const int CALL_SUCCESS = 0;
const int CALL_ERROR = 1;
const int CALL_UNEXPECTED_ERROR = 2;

final class RustCallStatus extends Struct {
  @Int8()
  external int code;

  external RustBuffer errorBuf;
}

final class RustBuffer extends Struct {
  @Int32()
  external int capacity;

  @Int32()
  external int len;

  external Pointer<Uint8> data;

  static RustBuffer alloc(int size) {
    return rustCall((status) => _UniffiLib.instance.{{alloc}}(size, status));
  }

  static RustBuffer fromBytes(ForeignBytes bytes) {
    return rustCall((status) => _UniffiLib.instance.{{fromBytes}}(bytes, status));
  }

  void free() {
    rustCall((status) => _UniffiLib.instance.{{free}}(this, status));
  }

  RustBuffer reserve(int additional) {
    return rustCall((status) => _UniffiLib.instance.{{reserve}}(this, additional, status));
  }

  Uint8List asUint8List() {
    if (data == nullptr || len == 0) {
      return Uint8List(0);
    }
    return data.asTypedList(len);
  }

  @override
  String toString() => 'RustBuffer{capacity: $capacity, len: $len, data: $data}';
}

final class ForeignBytes extends Struct {
  @Int32()
  external int len;

  external Pointer<Uint8> data;
}

RustBuffer toRustBuffer(Uint8List data) {
  final length = data.length;
  final Pointer<Uint8> frameData = calloc<Uint8>(length);
  final pointerList = frameData.asTypedList(length);
  pointerList.setAll(0, data);

  final bytes = calloc<ForeignBytes>();
  bytes.ref.len = length;
  bytes.ref.data = frameData;
  try {
    return RustBuffer.fromBytes(bytes.ref);
  } finally {
    calloc.free(bytes);
    calloc.free(frameData);
  }
}

class LiftRetVal<T> {
  final T value;
  final int bytesRead;

  const LiftRetVal(this.value, this.bytesRead);

  LiftRetVal<T> copyWithOffset(int offset) {
    return LiftRetVal(value, bytesRead + offset);
  }
}

/// Every converter class implements these static operations:
///
///   static T lift(F value)
///   static F lower(T value)
///   static LiftRetVal<T> read(Uint8List buf)
///   static int write(T value, Uint8List buf)
///   static int allocationSize(T value)
///
/// write returns the number of bytes written, which equals allocationSize.
/// Multi-byte integers are big-endian and floats little-endian.
T liftFromRustBuffer<T>(RustBuffer buf, LiftRetVal<T> Function(Uint8List) read) {
  try {
    final bytes = buf.asUint8List();
    final ret = read(bytes);
    if (ret.bytesRead != bytes.length) {
      throw UniffiInternalError(UniffiInternalError.bufferOverflow, null);
    }
    return ret.value;
  } finally {
    buf.free();
  }
}

RustBuffer lowerIntoRustBuffer<T>(
  T value,
  int Function(T) allocationSize,
  int Function(T, Uint8List) write,
) {
  final bytes = Uint8List(allocationSize(value));
  final written = write(value, bytes);
  return toRustBuffer(Uint8List.sublistView(bytes, 0, written));
}

Uint8List uniffiView(Uint8List buf, int offset) {
  return Uint8List.view(buf.buffer, buf.offsetInBytes + offset);
}

ByteData uniffiByteData(Uint8List buf) {
  return buf.buffer.asByteData(buf.offsetInBytes);
}

abstract class UniffiRustCallStatusErrorHandler {
  Exception lift(RustBuffer errorBuf);
}

class NullRustCallStatusErrorHandler extends UniffiRustCallStatusErrorHandler {
  @override
  Exception lift(RustBuffer errorBuf) {
    errorBuf.free();
    return UniffiInternalError(UniffiInternalError.unexpectedRustCallError, null);
  }
}

final NullRustCallStatusErrorHandler nullRustCallStatusErrorHandler =
    NullRustCallStatusErrorHandler();

void checkCallStatus(
  UniffiRustCallStatusErrorHandler errorHandler,
  Pointer<RustCallStatus> status,
) {
  final code = status.ref.code;
  if (code == CALL_SUCCESS) {
    return;
  } else if (code == CALL_ERROR) {
    throw errorHandler.lift(status.ref.errorBuf);
  } else if (code == CALL_UNEXPECTED_ERROR) {
    if (status.ref.errorBuf.len > 0) {
      throw UniffiInternalError.panicked(FfiConverterString.lift(status.ref.errorBuf));
    }
    throw UniffiInternalError.panicked('Rust panic');
  } else {
    throw UniffiInternalError(
      UniffiInternalError.unexpectedRustCallStatusCode,
      code.toString(),
    );
  }
}

T rustCall<T>(
  T Function(Pointer<RustCallStatus>) callback, [
  UniffiRustCallStatusErrorHandler? errorHandler,
]) {
  final status = calloc<RustCallStatus>();
  try {
    final result = callback(status);
    checkCallStatus(errorHandler ?? nullRustCallStatusErrorHandler, status);
    return result;
  } finally {
    calloc.free(status);
  }
}

bool uniffiDeepEquals(Object? a, Object? b) {
  if (identical(a, b)) {
    return true;
  }
  if (a is Uint8List && b is Uint8List) {
    if (a.length != b.length) {
      return false;
    }
    for (var i = 0; i < a.length; i++) {
      if (a[i] != b[i]) {
        return false;
      }
    }
    return true;
  }
  if (a is List && b is List) {
    if (a.length != b.length) {
      return false;
    }
    for (var i = 0; i < a.length; i++) {
      if (!uniffiDeepEquals(a[i], b[i])) {
        return false;
      }
    }
    return true;
  }
  if (a is Map && b is Map) {
    if (a.length != b.length) {
      return false;
    }
    for (final key in a.keys) {
      if (!b.containsKey(key) || !uniffiDeepEquals(a[key], b[key])) {
        return false;
      }
    }
    return true;
  }
  return a == b;
}

int uniffiDeepHash(Object? value) {
  if (value is List) {
    return Object.hashAll(value.map(uniffiDeepHash));
  }
  if (value is Map) {
    return Object.hashAllUnordered(
      value.entries.map((e) => Object.hash(uniffiDeepHash(e.key), uniffiDeepHash(e.value))),
    );
  }
  return value.hashCode;
}`

// renderHeader writes the generated-file banner, library declaration and
// imports. It runs last so imports demanded by any section are included.
func renderHeader(c *Context, w *emit.Writer) {
	w.Line("// This file was generated by uniffi-dart. Do not edit.")
	w.Line("// ignore_for_file: constant_identifier_names, non_constant_identifier_names, unused_element, unused_field")
	w.Blank()
	if !c.cfg.OmitDocs {
		w.Doc(c.iface.Docs)
	}
	w.Linef("library %s;", strings.ReplaceAll(c.cfg.PackageName, "-", "_"))
	w.Blank()
	for _, uri := range c.Imports() {
		w.Linef("import '%s';", uri)
	}
	w.Blank()
}

// renderPreamble writes the runtime support and every primitive converter.
func renderPreamble(c *Context, w *emit.Writer) error {
	for _, uri := range baseImports {
		c.AddImport(uri)
	}

	r := strings.NewReplacer(
		"{{alloc}}", c.iface.RustBufferAllocSymbol(),
		"{{fromBytes}}", c.iface.RustBufferFromBytesSymbol(),
		"{{free}}", c.iface.RustBufferFreeSymbol(),
		"{{reserve}}", c.iface.RustBufferReserveSymbol(),
	)
	w.Raw(r.Replace(runtimeSupport))
	w.Blank()

	for _, k := range preambleKinds {
		if _, err := c.Demand(model.Primitive(k)); err != nil {
			return err
		}
	}
	return c.drain(w)
}

// preambleKinds lists the builtin converters every file carries.
var preambleKinds = []model.Kind{
	model.KindBool,
	model.KindInt8, model.KindUInt8,
	model.KindInt16, model.KindUInt16,
	model.KindInt32, model.KindUInt32,
	model.KindInt64, model.KindUInt64,
	model.KindFloat32, model.KindFloat64,
	model.KindString,
	model.KindBytes,
	model.KindDuration,
	model.KindTimestamp,
}
