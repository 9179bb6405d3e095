package bindgen

import (
	"github.com/acterglobal/uniffi-dart-sub000/bindgen/internal/emit"
	"github.com/acterglobal/uniffi-dart-sub000/errors"
	"github.com/acterglobal/uniffi-dart-sub000/model"
)

// renderObject writes the handle-owning class and its converter. The
// native side owns the object; the class holds one strong reference that
// is released by drop() or, failing that, by the finalizer.
func renderObject(c *Context, w *emit.Writer, ct *CodeType) error {
	obj, ok := c.iface.Object(ct.Type.Name)
	if !ok {
		return errors.MissingDefinition([]string{"object"}, ct.Type.Name)
	}
	class := ct.Label
	finalizer := "_" + lowerCamel(class) + "Finalizer"
	freeSym := c.iface.FreeSymbol(obj)
	cloneSym := c.iface.CloneSymbol(obj)

	w.Linef("final %s = Finalizer<Pointer<Void>>((ptr) {", finalizer)
	w.Indent().Linef("rustCall((status) => _UniffiLib.instance.%s(ptr, status));", freeSym).Dedent()
	w.Line("});")
	w.Blank()

	if !c.cfg.OmitDocs {
		w.Doc(obj.Docs)
	}
	var renderErr error
	w.Block("class "+class+" {", "}", func() {
		w.Line("final Pointer<Void> _ptr;")
		w.Line("bool _dropped = false;")
		w.Blank()
		w.Block(class+"._(this._ptr) {", "}", func() {
			w.Linef("%s.attach(this, _ptr, detach: this);", finalizer)
		})
		w.Blank()

		for _, ctor := range obj.Constructors {
			if renderErr = renderConstructor(c, w, ct, obj, ctor); renderErr != nil {
				return
			}
			w.Blank()
		}

		w.Doc("Releases the native object now instead of waiting for the\ngarbage collector. Calls after drop() throw a stale handle error.")
		w.Block("void drop() {", "}", func() {
			w.Block("if (_dropped) {", "}", func() {
				w.Line("return;")
			})
			w.Line("_dropped = true;")
			w.Linef("%s.detach(this);", finalizer)
			w.Linef("rustCall((status) => _UniffiLib.instance.%s(_ptr, status));", freeSym)
		})
		w.Blank()

		w.Block("Pointer<Void> uniffiClonePointer() {", "}", func() {
			w.Block("if (_dropped) {", "}", func() {
				w.Line("throw UniffiInternalError(UniffiInternalError.unexpectedStaleHandle, null);")
			})
			w.Linef("return rustCall((status) => _UniffiLib.instance.%s(_ptr, status));", cloneSym)
		})

		for _, m := range obj.Methods {
			w.Blank()
			renderErr = renderCallable(c, w, callable{
				sig:      &m.Signature,
				ffi:      c.iface.MethodFfi(obj, m),
				path:     []string{"object " + obj.Name, "method " + m.Name},
				name:     FunctionName(m.Name),
				receiver: "uniffiClonePointer()",
			})
			if renderErr != nil {
				return
			}
		}

		if elem, ok := obj.StreamElement(); ok {
			w.Blank()
			renderErr = renderStream(c, w, elem)
		}
	})
	if renderErr != nil {
		return renderErr
	}
	w.Blank()

	w.Block("class "+ct.Converter()+" {", "}", func() {
		w.Linef("static %s lift(Pointer<Void> value) => %s._(value);", class, class)
		w.Blank()
		w.Linef("static Pointer<Void> lower(%s value) => value.uniffiClonePointer();", class)
		w.Blank()
		w.Block("static LiftRetVal<"+class+"> read(Uint8List buf) {", "}", func() {
			w.Line("final address = uniffiByteData(buf).getUint64(0);")
			w.Line("return LiftRetVal(lift(Pointer<Void>.fromAddress(address)), 8);")
		})
		w.Blank()
		w.Linef("static int allocationSize(%s value) => 8;", class)
		w.Blank()
		w.Block("static int write("+class+" value, Uint8List buf) {", "}", func() {
			w.Line("uniffiByteData(buf).setUint64(0, lower(value).address);")
			w.Line("return 8;")
		})
	})
	w.Blank()
	return nil
}

// renderConstructor writes the primary constructor as a Dart factory
// constructor and the others as static methods. Async constructors are
// always static methods since Dart constructors cannot await.
func renderConstructor(c *Context, w *emit.Writer, ct *CodeType, obj *model.Object, ctor *model.Constructor) error {
	call := callable{
		sig:  &ctor.Signature,
		ffi:  c.iface.ConstructorFfi(obj, ctor),
		path: []string{"object " + obj.Name, "constructor " + ctor.Name},
		ret:  ct,
	}
	switch {
	case ctor.IsPrimary() && !ctor.Async:
		call.name = ct.Label
		call.factory = true
	case ctor.IsPrimary():
		call.name = "create"
		call.prefix = "static "
	default:
		call.name = FunctionName(ctor.Name)
		call.prefix = "static "
	}
	return renderCallable(c, w, call)
}

// renderStream writes the async generator over a native stream object:
// poll_next is awaited until it yields absent.
func renderStream(c *Context, w *emit.Writer, elem *model.Type) error {
	ct, err := c.Demand(elem)
	if err != nil {
		return err
	}
	w.Doc("Yields every element until the native stream ends.")
	w.Block("Stream<"+ct.Label+"> stream() async* {", "}", func() {
		w.Block("while (true) {", "}", func() {
			w.Line("final next = await pollNext();")
			w.Block("if (next == null) {", "}", func() {
				w.Line("return;")
			})
			w.Line("yield next;")
		})
	})
	return nil
}
