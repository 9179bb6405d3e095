package bindgen

import (
	"fmt"
	"strings"

	"github.com/acterglobal/uniffi-dart-sub000/bindgen/internal/emit"
	"github.com/acterglobal/uniffi-dart-sub000/errors"
	"github.com/acterglobal/uniffi-dart-sub000/model"
)

const callbackSupport = `/// Stores host objects handed to the native library under opaque handles.
/// Handles are never reused. Access happens on the owning isolate only.
class UniffiHandleMap<T> {
  final Map<int, T> _map = {};
  int _counter = 1;

  int insert(T obj) {
    final handle = _counter;
    _counter += 1;
    _map[handle] = obj;
    return handle;
  }

  T get(int handle) {
    final obj = _map[handle];
    if (obj == null) {
      throw UniffiInternalError(UniffiInternalError.unexpectedStaleHandle, null);
    }
    return obj;
  }

  void remove(int handle) {
    if (_map.remove(handle) == null) {
      throw UniffiInternalError(UniffiInternalError.unexpectedStaleHandle, null);
    }
  }

  int get length => _map.length;
}

typedef UniffiCallbackInterfaceFree = Void Function(Uint64);

void uniffiCopyRustBuffer(RustBuffer from, RustBuffer to) {
  to.capacity = from.capacity;
  to.len = from.len;
  to.data = from.data;
}`

func renderCallbackSupport(w *emit.Writer) {
	w.Raw(callbackSupport)
	w.Blank()
}

// cbMethod is a callback method resolved against the registry.
type cbMethod struct {
	m       *model.Method
	args    []argInfo
	ffiArgs []model.FfiType
	ret     *CodeType
	ffiRet  *model.FfiType
	throws  *CodeType

	typedef    string // native function type of the vtable slot
	trampoline string // top-level Dart function installed in the slot
	slot       string // vtable field name
}

// renderCallbackInterface writes the abstract interface, the vtable struct,
// one trampoline per method plus the free trampoline, the lazy vtable
// initialiser and the converter that hands out handles.
func renderCallbackInterface(c *Context, w *emit.Writer, ct *CodeType) error {
	cb, ok := c.iface.CallbackInterface(ct.Type.Name)
	if !ok {
		return errors.MissingDefinition([]string{"callback interface"}, ct.Type.Name)
	}
	c.helper(c.support, "callback", renderCallbackSupport)

	class := ct.Label
	base := lowerCamel(class)
	vtable := "UniffiVTableCallbackInterface" + cb.Name
	initFn := "_init" + class + "VTable"
	initFlag := "_" + base + "VTableInitialized"

	methods := make([]cbMethod, 0, len(cb.Methods))
	for i, m := range cb.Methods {
		path := []string{"callback interface " + cb.Name, "method " + m.Name}
		args, err := resolveArgs(c, path, m.Args)
		if err != nil {
			return err
		}
		cm := cbMethod{
			m:          m,
			args:       args,
			typedef:    fmt.Sprintf("UniffiCallbackInterface%sMethod%d", cb.Name, i),
			trampoline: "_" + base + upperCamel(m.Name),
			slot:       FunctionName(m.Name),
		}
		for _, a := range m.Args {
			cm.ffiArgs = append(cm.ffiArgs, c.iface.FfiTypeOf(a.Type))
		}
		if m.Return != nil {
			if cm.ret, err = c.Demand(m.Return); err != nil {
				return wrapRender(err, append(path, "return")...)
			}
			ft := c.iface.FfiTypeOf(m.Return)
			cm.ffiRet = &ft
		}
		if m.Throws != nil {
			if cm.throws, err = c.Demand(m.Throws); err != nil {
				return wrapRender(err, path...)
			}
		}
		methods = append(methods, cm)
	}

	if !c.cfg.OmitDocs {
		w.Doc(cb.Docs)
	}
	w.Block("abstract class "+class+" {", "}", func() {
		for _, cm := range methods {
			if !c.cfg.OmitDocs {
				w.Doc(cm.m.Docs)
			}
			label := "void"
			if cm.ret != nil {
				label = cm.ret.Label
			}
			w.Linef("%s %s(%s);", label, FunctionName(cm.m.Name), paramList(cm.args))
		}
	})
	w.Blank()

	for _, cm := range methods {
		params := []string{"Uint64"}
		for i := range cm.ffiArgs {
			params = append(params, nativeType(&cm.ffiArgs[i]))
		}
		params = append(params, outPointerType(cm.ffiRet), "Pointer<RustCallStatus>")
		w.Linef("typedef %s = Void Function(%s);", cm.typedef, strings.Join(params, ", "))
	}
	w.Blank()

	w.Block("final class "+vtable+" extends Struct {", "}", func() {
		for _, cm := range methods {
			w.Linef("external Pointer<NativeFunction<%s>> %s;", cm.typedef, cm.slot)
		}
		w.Line("external Pointer<NativeFunction<UniffiCallbackInterfaceFree>> uniffiFree;")
	})
	w.Blank()

	for _, cm := range methods {
		renderTrampoline(w, ct, cm)
		w.Blank()
	}

	w.Block("void _"+base+"Free(int uniffiHandle) {", "}", func() {
		w.Block("try {", "} catch (_) {}", func() {
			w.Linef("%s._handleMap.remove(uniffiHandle);", ct.Converter())
		})
	})
	w.Blank()

	w.Linef("bool %s = false;", initFlag)
	w.Blank()
	w.Block("void "+initFn+"() {", "}", func() {
		w.Block("if ("+initFlag+") {", "}", func() {
			w.Line("return;")
		})
		w.Linef("final vtable = calloc<%s>();", vtable)
		for _, cm := range methods {
			w.Linef("vtable.ref.%s = Pointer.fromFunction<%s>(%s);", cm.slot, cm.typedef, cm.trampoline)
		}
		w.Linef("vtable.ref.uniffiFree = Pointer.fromFunction<UniffiCallbackInterfaceFree>(_%sFree);", base)
		w.Linef("_UniffiLib.instance.%s(vtable);", c.iface.InitCallbackSymbol(cb))
		w.Linef("%s = true;", initFlag)
	})
	w.Blank()

	w.Block("class "+ct.Converter()+" {", "}", func() {
		w.Linef("static final _handleMap = UniffiHandleMap<%s>();", class)
		w.Blank()
		w.Linef("static %s lift(int handle) => _handleMap.get(handle);", class)
		w.Blank()
		w.Block("static int lower("+class+" value) {", "}", func() {
			w.Linef("%s();", initFn)
			w.Line("return _handleMap.insert(value);")
		})
		w.Blank()
		w.Block("static LiftRetVal<"+class+"> read(Uint8List buf) {", "}", func() {
			w.Line("return LiftRetVal(lift(uniffiByteData(buf).getUint64(0)), 8);")
		})
		w.Blank()
		w.Linef("static int allocationSize(%s value) => 8;", class)
		w.Blank()
		w.Block("static int write("+class+" value, Uint8List buf) {", "}", func() {
			w.Line("uniffiByteData(buf).setUint64(0, lower(value));")
			w.Line("return 8;")
		})
		w.Blank()
		w.Doc("Number of host objects currently registered with the library.")
		w.Line("static int get handleCount => _handleMap.length;")
	})
	w.Blank()
	return nil
}

// renderTrampoline writes the function installed in one vtable slot. It
// looks the host object up by handle, lifts the arguments, and reports the
// outcome through the status: success, a declared error, or any other
// exception stringified as an unexpected error.
func renderTrampoline(w *emit.Writer, ct *CodeType, cm cbMethod) {
	params := []string{"int uniffiHandle"}
	for i, a := range cm.args {
		params = append(params, dartType(&cm.ffiArgs[i])+" "+a.name)
	}
	params = append(params, outPointerType(cm.ffiRet)+" uniffiOutReturn", "Pointer<RustCallStatus> uniffiCallStatus")

	lifted := make([]string, 0, len(cm.args))
	for _, a := range cm.args {
		lifted = append(lifted, a.ct.Lift(a.name))
	}
	call := "uniffiObj." + FunctionName(cm.m.Name) + "(" + strings.Join(lifted, ", ") + ")"

	w.Block("void "+cm.trampoline+"("+strings.Join(params, ", ")+") {", "}", func() {
		w.Line("final uniffiStatus = uniffiCallStatus.ref;")
		w.Line("try {")
		w.Indent()
		w.Linef("final uniffiObj = %s._handleMap.get(uniffiHandle);", ct.Converter())
		switch {
		case cm.ret == nil:
			w.Linef("%s;", call)
		case cm.ffiRet.Kind == model.FfiRustBuffer:
			w.Linef("final uniffiResult = %s;", call)
			w.Linef("uniffiCopyRustBuffer(%s, uniffiOutReturn.ref);", cm.ret.Lower("uniffiResult"))
		default:
			w.Linef("final uniffiResult = %s;", call)
			w.Linef("uniffiOutReturn.value = %s;", cm.ret.Lower("uniffiResult"))
		}
		w.Line("uniffiStatus.code = CALL_SUCCESS;")
		w.Dedent()
		if cm.throws != nil {
			w.Linef("} on %s catch (uniffiError) {", cm.throws.Label)
			w.Indent()
			w.Line("uniffiStatus.code = CALL_ERROR;")
			w.Linef("uniffiCopyRustBuffer(%s, uniffiStatus.errorBuf);", cm.throws.Lower("uniffiError"))
			w.Dedent()
		}
		w.Line("} catch (uniffiError) {")
		w.Indent()
		w.Line("uniffiStatus.code = CALL_UNEXPECTED_ERROR;")
		w.Block("try {", "} catch (_) {}", func() {
			w.Line("uniffiCopyRustBuffer(FfiConverterString.lower(uniffiError.toString()), uniffiStatus.errorBuf);")
		})
		w.Dedent()
		w.Line("}")
	})
}
