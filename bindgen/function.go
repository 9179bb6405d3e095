package bindgen

import (
	"strings"

	"github.com/acterglobal/uniffi-dart-sub000/bindgen/internal/emit"
	"github.com/acterglobal/uniffi-dart-sub000/model"
)

// callable is one wrapper to render: a function, constructor or method.
type callable struct {
	sig  *model.Signature
	ffi  *model.FfiFunction
	path []string

	name     string // Dart member name
	prefix   string // leading modifiers, e.g. "static "
	receiver string // expression passed as the first native argument, if any
	factory  bool   // render as a factory constructor named name

	// ret overrides the lifted return type; constructors lift a raw
	// pointer into the class through the private constructor.
	ret *CodeType
}

// argInfo is an argument resolved against the registry.
type argInfo struct {
	name    string
	ct      *CodeType
	literal string
}

func resolveArgs(c *Context, path []string, args []*model.Argument) ([]argInfo, error) {
	out := make([]argInfo, 0, len(args))
	for _, a := range args {
		ct, err := c.Demand(a.Type)
		if err != nil {
			return nil, wrapRender(err, append(path, "argument "+a.Name)...)
		}
		ai := argInfo{name: VarName(a.Name), ct: ct}
		if a.Default != nil {
			lit, err := c.types.Literal(a.Type, a.Default)
			if err != nil {
				return nil, wrapRender(err, append(path, "argument "+a.Name)...)
			}
			ai.literal = lit
		}
		out = append(out, ai)
	}
	return out, nil
}

// paramList renders Dart parameters: defaulted arguments become optional
// named parameters after the positional ones.
func paramList(args []argInfo) string {
	var positional, named []string
	for _, a := range args {
		if a.literal != "" {
			named = append(named, a.ct.Label+" "+a.name+" = "+a.literal)
			continue
		}
		positional = append(positional, a.ct.Label+" "+a.name)
	}
	params := strings.Join(positional, ", ")
	if len(named) > 0 {
		if params != "" {
			params += ", "
		}
		params += "{" + strings.Join(named, ", ") + "}"
	}
	return params
}

// nativeArgs renders the lowered argument list passed to the native entry.
func nativeArgs(receiver string, args []argInfo) []string {
	out := make([]string, 0, len(args)+2)
	if receiver != "" {
		out = append(out, receiver)
	}
	for _, a := range args {
		out = append(out, a.ct.Lower(a.name))
	}
	return out
}

// errorHandler resolves the status handler expression for s.
func errorHandler(c *Context, s *model.Signature) (string, error) {
	if s.Throws == nil {
		return "null", nil
	}
	ct, err := c.Demand(s.Throws)
	if err != nil {
		return "", err
	}
	return errorHandlerName(ct), nil
}

// renderCallable writes one Dart wrapper around a native entry point.
func renderCallable(c *Context, w *emit.Writer, call callable) error {
	args, err := resolveArgs(c, call.path, call.sig.Args)
	if err != nil {
		return err
	}
	handler, err := errorHandler(c, call.sig)
	if err != nil {
		return wrapRender(err, call.path...)
	}
	ret := call.ret
	if ret == nil && call.sig.Return != nil {
		if ret, err = c.Demand(call.sig.Return); err != nil {
			return wrapRender(err, append(call.path, "return")...)
		}
	}

	label := "void"
	if ret != nil {
		label = ret.Label
	}
	if call.sig.Async {
		label = "Future<" + label + ">"
	}

	if !c.cfg.OmitDocs {
		w.Doc(call.sig.Docs)
	}
	invoke := "_UniffiLib.instance." + call.ffi.Name
	lowered := nativeArgs(call.receiver, args)

	header := call.prefix + label + " " + call.name
	if call.factory {
		header = "factory " + call.name
	}
	w.Block(header+"("+paramList(args)+") {", "}", func() {
		if call.sig.Async {
			renderAsyncBody(c, w, call, invoke, lowered, ret, handler)
			return
		}
		native := invoke + "(" + strings.Join(append(lowered, "uniffiStatus"), ", ") + ")"
		callExpr := "rustCall((uniffiStatus) => " + native + ", " + handler + ")"
		if ret == nil {
			w.Linef("%s;", callExpr)
			return
		}
		w.Linef("return %s;", ret.Lift(callExpr))
	})
	return nil
}

// renderAsyncBody drives the native future through the shared
// poll/complete/free scaffolding for its return type.
func renderAsyncBody(c *Context, w *emit.Writer, call callable, invoke string, lowered []string, ret *CodeType, handler string) {
	c.helper(c.support, "async", renderAsyncSupport)

	futureRet := c.iface.AsyncReturn(call.sig)
	lift := "(_) {}"
	if ret != nil {
		lift = ret.Converter() + ".lift"
	}
	w.Line("return uniffiRustCallAsync(")
	w.Indent()
	w.Linef("() => %s(%s),", invoke, strings.Join(lowered, ", "))
	w.Linef("_UniffiLib.instance.%s,", c.iface.FuturePollSymbol(futureRet))
	w.Linef("_UniffiLib.instance.%s,", c.iface.FutureCompleteSymbol(futureRet))
	w.Linef("_UniffiLib.instance.%s,", c.iface.FutureFreeSymbol(futureRet))
	w.Linef("%s,", lift)
	w.Linef("%s,", handler)
	w.Dedent()
	w.Line(");")
}

const asyncSupport = `typedef UniffiRustFutureContinuationCallback = Void Function(Uint64, Int8);

const int UNIFFI_RUST_FUTURE_POLL_READY = 0;
const int UNIFFI_RUST_FUTURE_POLL_MAYBE_READY = 1;

/// Drives a native future to completion. The native side signals progress
/// through a listener callback on this isolate; the future is polled again
/// until it reports ready, then completed and freed exactly once.
Future<T> uniffiRustCallAsync<T, F>(
  int Function() rustFutureFunc,
  void Function(int, Pointer<NativeFunction<UniffiRustFutureContinuationCallback>>, int) pollFunc,
  F Function(int, Pointer<RustCallStatus>) completeFunc,
  void Function(int) freeFunc,
  T Function(F) liftFunc, [
  UniffiRustCallStatusErrorHandler? errorHandler,
]) async {
  final rustFuture = rustFutureFunc();
  final completer = Completer<void>();

  late final NativeCallable<UniffiRustFutureContinuationCallback> callback;

  void poll() {
    pollFunc(rustFuture, callback.nativeFunction, 0);
  }

  void onResponse(int data, int pollResult) {
    if (pollResult == UNIFFI_RUST_FUTURE_POLL_READY) {
      completer.complete();
    } else {
      poll();
    }
  }

  callback = NativeCallable<UniffiRustFutureContinuationCallback>.listener(onResponse);

  try {
    poll();
    await completer.future;

    final status = calloc<RustCallStatus>();
    try {
      final result = completeFunc(rustFuture, status);
      checkCallStatus(errorHandler ?? nullRustCallStatusErrorHandler, status);
      return liftFunc(result);
    } finally {
      calloc.free(status);
    }
  } finally {
    callback.close();
    freeFunc(rustFuture);
  }
}`

func renderAsyncSupport(w *emit.Writer) {
	w.Raw(asyncSupport)
	w.Blank()
}

// renderFunctions writes a wrapper for every top-level function.
func renderFunctions(c *Context, w *emit.Writer) error {
	for _, f := range c.iface.Functions {
		err := renderCallable(c, w, callable{
			sig:  &f.Signature,
			ffi:  c.iface.FunctionFfi(f),
			path: []string{"function " + f.Name},
			name: FunctionName(f.Name),
		})
		if err != nil {
			return err
		}
		w.Blank()
	}
	return nil
}
