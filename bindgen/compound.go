package bindgen

import (
	"github.com/acterglobal/uniffi-dart-sub000/bindgen/internal/emit"
)

// renderOptional writes an option converter: a one-byte tag, then the
// inner encoding when the tag is 1.
func renderOptional(c *Context, w *emit.Writer, ct *CodeType) error {
	inner, err := c.Demand(ct.Type.Inner)
	if err != nil {
		return err
	}
	label := ct.Label

	w.Block("class "+ct.Converter()+" {", "}", func() {
		renderBufferLiftLower(w, label)
		w.Block("static LiftRetVal<"+label+"> read(Uint8List buf) {", "}", func() {
			w.Line("final tag = uniffiByteData(buf).getInt8(0);")
			w.Block("if (tag == 0) {", "}", func() {
				w.Line("return LiftRetVal(null, 1);")
			})
			w.Block("if (tag != 1) {", "}", func() {
				w.Line("throw UniffiInternalError(UniffiInternalError.unexpectedOptionalTag, null);")
			})
			w.Linef("return %s.copyWithOffset(1);", inner.Read("uniffiView(buf, 1)"))
		})
		w.Blank()
		w.Block("static int allocationSize("+label+" value) {", "}", func() {
			w.Block("if (value == null) {", "}", func() {
				w.Line("return 1;")
			})
			w.Linef("return %s + 1;", inner.AllocationSize("value"))
		})
		w.Blank()
		w.Block("static int write("+label+" value, Uint8List buf) {", "}", func() {
			w.Block("if (value == null) {", "}", func() {
				w.Line("buf[0] = 0;")
				w.Line("return 1;")
			})
			w.Line("buf[0] = 1;")
			w.Linef("return %s + 1;", inner.Write("value", "uniffiView(buf, 1)"))
		})
	})
	w.Blank()
	return nil
}

// renderSequence writes a sequence converter: a 32-bit element count, then
// each element's encoding.
func renderSequence(c *Context, w *emit.Writer, ct *CodeType) error {
	inner, err := c.Demand(ct.Type.Inner)
	if err != nil {
		return err
	}
	label := ct.Label

	w.Block("class "+ct.Converter()+" {", "}", func() {
		renderBufferLiftLower(w, label)
		w.Block("static LiftRetVal<"+label+"> read(Uint8List buf) {", "}", func() {
			w.Linef("final res = <%s>[];", inner.Label)
			w.Line("final length = uniffiByteData(buf).getInt32(0);")
			w.Line("var offset = 4;")
			w.Block("for (var i = 0; i < length; i++) {", "}", func() {
				w.Linef("final ret = %s;", inner.Read("uniffiView(buf, offset)"))
				w.Line("offset += ret.bytesRead;")
				w.Line("res.add(ret.value);")
			})
			w.Line("return LiftRetVal(res, offset);")
		})
		w.Blank()
		w.Block("static int allocationSize("+label+" value) {", "}", func() {
			w.Line("var size = 4;")
			w.Block("for (final item in value) {", "}", func() {
				w.Linef("size += %s;", inner.AllocationSize("item"))
			})
			w.Line("return size;")
		})
		w.Blank()
		w.Block("static int write("+label+" value, Uint8List buf) {", "}", func() {
			w.Line("uniffiByteData(buf).setInt32(0, value.length);")
			w.Line("var offset = 4;")
			w.Block("for (final item in value) {", "}", func() {
				w.Linef("offset += %s;", inner.Write("item", "uniffiView(buf, offset)"))
			})
			w.Line("return offset;")
		})
	})
	w.Blank()
	return nil
}

// renderMap writes a map converter: a 32-bit entry count, then alternating
// key and value encodings.
func renderMap(c *Context, w *emit.Writer, ct *CodeType) error {
	key, err := c.Demand(ct.Type.Key)
	if err != nil {
		return err
	}
	value, err := c.Demand(ct.Type.Inner)
	if err != nil {
		return err
	}
	label := ct.Label

	w.Block("class "+ct.Converter()+" {", "}", func() {
		renderBufferLiftLower(w, label)
		w.Block("static LiftRetVal<"+label+"> read(Uint8List buf) {", "}", func() {
			w.Linef("final res = <%s, %s>{};", key.Label, value.Label)
			w.Line("final length = uniffiByteData(buf).getInt32(0);")
			w.Line("var offset = 4;")
			w.Block("for (var i = 0; i < length; i++) {", "}", func() {
				w.Linef("final k = %s;", key.Read("uniffiView(buf, offset)"))
				w.Line("offset += k.bytesRead;")
				w.Linef("final v = %s;", value.Read("uniffiView(buf, offset)"))
				w.Line("offset += v.bytesRead;")
				w.Line("res[k.value] = v.value;")
			})
			w.Line("return LiftRetVal(res, offset);")
		})
		w.Blank()
		w.Block("static int allocationSize("+label+" value) {", "}", func() {
			w.Line("var size = 4;")
			w.Block("for (final entry in value.entries) {", "}", func() {
				w.Linef("size += %s + %s;", key.AllocationSize("entry.key"), value.AllocationSize("entry.value"))
			})
			w.Line("return size;")
		})
		w.Blank()
		w.Block("static int write("+label+" value, Uint8List buf) {", "}", func() {
			w.Line("uniffiByteData(buf).setInt32(0, value.length);")
			w.Line("var offset = 4;")
			w.Block("for (final entry in value.entries) {", "}", func() {
				w.Linef("offset += %s;", key.Write("entry.key", "uniffiView(buf, offset)"))
				w.Linef("offset += %s;", value.Write("entry.value", "uniffiView(buf, offset)"))
			})
			w.Line("return offset;")
		})
	})
	w.Blank()
	return nil
}
