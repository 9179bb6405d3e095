package bindgen

import (
	"github.com/acterglobal/uniffi-dart-sub000/bindgen/internal/emit"
	"github.com/acterglobal/uniffi-dart-sub000/errors"
	"github.com/acterglobal/uniffi-dart-sub000/model"
)

// renderExternal writes the bridge to a type whose converter lives in
// another package's bindings. That package declares its own RustBuffer and
// LiftRetVal, so only its byte-level read, write and allocationSize are
// used; lifting and lowering happen here against this file's runtime.
func renderExternal(c *Context, w *emit.Writer, ct *CodeType) error {
	ext, ok := c.iface.ExternalType(ct.Type.Name)
	if !ok {
		return errors.MissingDefinition([]string{"external type"}, ct.Type.Name)
	}
	c.AddImport(ct.Import)
	label := ct.Label
	theirs := ct.ExternalConverter()

	w.Block("class "+ct.Converter()+" {", "}", func() {
		if ext.Kind == model.KindObject {
			// handles are plain dart:ffi pointers on both sides
			w.Linef("static %s lift(Pointer<Void> value) => %s.lift(value);", label, theirs)
			w.Blank()
			w.Linef("static Pointer<Void> lower(%s value) => %s.lower(value);", label, theirs)
			w.Blank()
		} else {
			renderBufferLiftLower(w, label)
		}
		w.Block("static LiftRetVal<"+label+"> read(Uint8List buf) {", "}", func() {
			w.Linef("final ret = %s.read(buf);", theirs)
			w.Line("return LiftRetVal(ret.value, ret.bytesRead);")
		})
		w.Blank()
		w.Linef("static int allocationSize(%s value) => %s.allocationSize(value);", label, theirs)
		w.Blank()
		w.Linef("static int write(%s value, Uint8List buf) => %s.write(value, buf);", label, theirs)
	})
	w.Blank()
	return nil
}
