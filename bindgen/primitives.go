package bindgen

import (
	"github.com/acterglobal/uniffi-dart-sub000/bindgen/internal/emit"
	"github.com/acterglobal/uniffi-dart-sub000/model"
)

// renderPrimitive writes the converter of a fixed-width scalar. Scalars
// cross the ABI directly, so lift and lower are identities except for
// bool, which travels as an i8.
func renderPrimitive(w *emit.Writer, ct *CodeType) {
	p := primitives[ct.Type.Kind]
	width := ct.Type.Kind.Width()
	endian := ""
	if p.little {
		endian = ", Endian.little"
	}
	conv := ct.Converter()
	label := p.label

	w.Block("class "+conv+" {", "}", func() {
		if ct.Type.Kind == model.KindBool {
			w.Line("static bool lift(int value) => value != 0;")
			w.Blank()
			w.Line("static int lower(bool value) => value ? 1 : 0;")
			w.Blank()
			w.Block("static LiftRetVal<bool> read(Uint8List buf) {", "}", func() {
				w.Line("return LiftRetVal(uniffiByteData(buf).getInt8(0) != 0, 1);")
			})
			w.Blank()
			w.Line("static int allocationSize([bool value = false]) => 1;")
			w.Blank()
			w.Block("static int write(bool value, Uint8List buf) {", "}", func() {
				w.Line("uniffiByteData(buf).setInt8(0, lower(value));")
				w.Line("return 1;")
			})
			return
		}

		w.Linef("static %s lift(%s value) => value;", label, label)
		w.Blank()
		w.Linef("static %s lower(%s value) => value;", label, label)
		w.Blank()
		w.Block("static LiftRetVal<"+label+"> read(Uint8List buf) {", "}", func() {
			w.Linef("return LiftRetVal(uniffiByteData(buf).get%s(0%s), %d);", p.getter, endian, width)
		})
		w.Blank()
		zero := "0"
		if label == "double" {
			zero = "0.0"
		}
		w.Linef("static int allocationSize([%s value = %s]) => %d;", label, zero, width)
		w.Blank()
		w.Block("static int write("+label+" value, Uint8List buf) {", "}", func() {
			w.Linef("uniffiByteData(buf).set%s(0, value%s);", p.getter, endian)
			w.Linef("return %d;", width)
		})
	})
	w.Blank()
}

// renderString writes the string converter. A top-level string crosses the
// ABI as raw UTF-8 in a RustBuffer; inside another buffer it carries a
// 32-bit length prefix.
func renderString(w *emit.Writer, ct *CodeType) {
	w.Block("class "+ct.Converter()+" {", "}", func() {
		w.Block("static String lift(RustBuffer buf) {", "}", func() {
			w.Block("try {", "} finally {", func() {
				w.Line("return utf8.decoder.convert(buf.asUint8List());")
			})
			w.Indent().Line("buf.free();").Dedent()
			w.Line("}")
		})
		w.Blank()
		w.Block("static RustBuffer lower(String value) {", "}", func() {
			w.Line("return toRustBuffer(utf8.encoder.convert(value));")
		})
		w.Blank()
		w.Block("static LiftRetVal<String> read(Uint8List buf) {", "}", func() {
			w.Line("final length = uniffiByteData(buf).getInt32(0);")
			w.Line("return LiftRetVal(utf8.decoder.convert(buf, 4, 4 + length), 4 + length);")
		})
		w.Blank()
		w.Block("static int allocationSize([String value = '']) {", "}", func() {
			w.Line("return utf8.encoder.convert(value).length + 4;")
		})
		w.Blank()
		w.Block("static int write(String value, Uint8List buf) {", "}", func() {
			w.Line("final list = utf8.encoder.convert(value);")
			w.Line("uniffiByteData(buf).setInt32(0, list.length);")
			w.Line("buf.setAll(4, list);")
			w.Line("return list.length + 4;")
		})
	})
	w.Blank()
}

// renderBytes writes the byte-buffer converter: a 32-bit length followed
// by the raw bytes.
func renderBytes(w *emit.Writer, ct *CodeType) {
	w.Block("class "+ct.Converter()+" {", "}", func() {
		renderBufferLiftLower(w, ct.Label)
		w.Block("static LiftRetVal<Uint8List> read(Uint8List buf) {", "}", func() {
			w.Line("final length = uniffiByteData(buf).getInt32(0);")
			w.Line("return LiftRetVal(Uint8List.fromList(buf.sublist(4, 4 + length)), 4 + length);")
		})
		w.Blank()
		w.Block("static int allocationSize([Uint8List? value]) {", "}", func() {
			w.Line("return (value?.length ?? 0) + 4;")
		})
		w.Blank()
		w.Block("static int write(Uint8List value, Uint8List buf) {", "}", func() {
			w.Line("uniffiByteData(buf).setInt32(0, value.length);")
			w.Line("buf.setAll(4, value);")
			w.Line("return value.length + 4;")
		})
	})
	w.Blank()
}

// renderDuration writes the duration converter: u64 seconds then u32
// nanoseconds.
func renderDuration(w *emit.Writer, ct *CodeType) {
	w.Block("class "+ct.Converter()+" {", "}", func() {
		renderBufferLiftLower(w, ct.Label)
		w.Block("static LiftRetVal<Duration> read(Uint8List buf) {", "}", func() {
			w.Line("final bytes = uniffiByteData(buf);")
			w.Line("final seconds = bytes.getUint64(0);")
			w.Line("final nanos = bytes.getUint32(8);")
			w.Line("return LiftRetVal(Duration(seconds: seconds, microseconds: nanos ~/ 1000), 12);")
		})
		w.Blank()
		w.Line("static int allocationSize([Duration value = Duration.zero]) => 12;")
		w.Blank()
		w.Block("static int write(Duration value, Uint8List buf) {", "}", func() {
			w.Block("if (value.isNegative) {", "}", func() {
				w.Line("throw ArgumentError.value(value, 'value', 'negative durations cannot cross the FFI');")
			})
			w.Line("final bytes = uniffiByteData(buf);")
			w.Line("bytes.setUint64(0, value.inSeconds);")
			w.Line("bytes.setUint32(8, (value.inMicroseconds % 1000000) * 1000);")
			w.Line("return 12;")
		})
	})
	w.Blank()
}

// renderTimestamp writes the timestamp converter: i64 seconds since the
// epoch then u32 nanoseconds, always non-negative.
func renderTimestamp(w *emit.Writer, ct *CodeType) {
	w.Block("class "+ct.Converter()+" {", "}", func() {
		renderBufferLiftLower(w, ct.Label)
		w.Block("static LiftRetVal<DateTime> read(Uint8List buf) {", "}", func() {
			w.Line("final bytes = uniffiByteData(buf);")
			w.Line("final seconds = bytes.getInt64(0);")
			w.Line("final nanos = bytes.getUint32(8);")
			w.Line("final micros = seconds * 1000000 + nanos ~/ 1000;")
			w.Line("return LiftRetVal(DateTime.fromMicrosecondsSinceEpoch(micros, isUtc: true), 12);")
		})
		w.Blank()
		w.Line("static int allocationSize([DateTime? value]) => 12;")
		w.Blank()
		w.Block("static int write(DateTime value, Uint8List buf) {", "}", func() {
			w.Line("final micros = value.microsecondsSinceEpoch;")
			w.Line("final rem = micros % 1000000;")
			w.Line("final bytes = uniffiByteData(buf);")
			w.Line("bytes.setInt64(0, (micros - rem) ~/ 1000000);")
			w.Line("bytes.setUint32(8, rem * 1000);")
			w.Line("return 12;")
		})
	})
	w.Blank()
}

// renderBufferLiftLower writes lift and lower for a type whose top-level
// form is its serialised RustBuffer.
func renderBufferLiftLower(w *emit.Writer, label string) {
	w.Block("static "+label+" lift(RustBuffer buf) {", "}", func() {
		w.Line("return liftFromRustBuffer(buf, read);")
	})
	w.Blank()
	w.Block("static RustBuffer lower("+label+" value) {", "}", func() {
		w.Line("return lowerIntoRustBuffer(value, allocationSize, write);")
	})
	w.Blank()
}
