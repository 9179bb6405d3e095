package bindgen

import (
	"strings"

	"github.com/acterglobal/uniffi-dart-sub000/bindgen/internal/emit"
	"github.com/acterglobal/uniffi-dart-sub000/errors"
)

// renderEnum writes an enum and its converter. Flat enums become a Dart
// enum; enums with payloads and all error enums become a sealed hierarchy.
// The discriminator is a 1-based i32 in declaration order.
func renderEnum(c *Context, w *emit.Writer, ct *CodeType) error {
	en, ok := c.iface.Enum(ct.Type.Name)
	if !ok {
		return errors.MissingDefinition([]string{"enum"}, ct.Type.Name)
	}
	if en.IsFlat() && !en.IsError {
		renderFlatEnum(c, w, ct)
		return nil
	}

	path := []string{"enum " + en.Name}
	class := ct.Label
	variants := make([][]fieldInfo, len(en.Variants))
	for i, v := range en.Variants {
		fields, err := resolveFields(c, append(path, "variant "+v.Name), v.Fields)
		if err != nil {
			return err
		}
		variants[i] = fields
	}

	if !c.cfg.OmitDocs {
		w.Doc(en.Docs)
	}
	if en.IsError {
		w.Linef("sealed class %s implements Exception {", class)
	} else {
		w.Linef("sealed class %s {", class)
	}
	w.Indent().Linef("const %s();", class).Dedent()
	w.Line("}")
	w.Blank()

	for i, v := range en.Variants {
		sub := VariantClassName(v.Name, class)
		fields := variants[i]
		if !c.cfg.OmitDocs {
			w.Doc(v.Docs)
		}
		w.Block("class "+sub+" extends "+class+" {", "}", func() {
			renderValueMembers(c, w, sub, fields)
			w.Blank()
			w.Linef("const %s(%s);", sub, constructorParams(fields, "this."))
		})
		w.Blank()
	}

	w.Block("class "+ct.Converter()+" {", "}", func() {
		renderBufferLiftLower(w, class)

		w.Block("static LiftRetVal<"+class+"> read(Uint8List buf) {", "}", func() {
			w.Line("final index = uniffiByteData(buf).getInt32(0);")
			w.Block("switch (index) {", "}", func() {
				for i, v := range en.Variants {
					sub := VariantClassName(v.Name, class)
					w.Linef("case %d:", i+1)
					w.Indent()
					w.Block("{", "}", func() {
						w.Line("var offset = 4;")
						values := renderFieldReads(w, variants[i])
						w.Linef("return LiftRetVal(%s(%s), offset);", sub, strings.Join(values, ", "))
					})
					w.Dedent()
				}
				w.Line("default:")
				w.Indent().Line("throw UniffiInternalError(UniffiInternalError.unexpectedEnumCase, null);").Dedent()
			})
		})
		w.Blank()

		w.Block("static int allocationSize("+class+" value) {", "}", func() {
			w.Block("switch (value) {", "}", func() {
				for i, v := range en.Variants {
					sub := VariantClassName(v.Name, class)
					w.Linef("case %s():", sub)
					w.Indent().Linef("return 4 + %s;", fieldSizes(variants[i], "value")).Dedent()
				}
			})
		})
		w.Blank()

		w.Block("static int write("+class+" value, Uint8List buf) {", "}", func() {
			w.Block("switch (value) {", "}", func() {
				for i, v := range en.Variants {
					sub := VariantClassName(v.Name, class)
					w.Linef("case %s():", sub)
					w.Indent()
					w.Block("{", "}", func() {
						w.Linef("uniffiByteData(buf).setInt32(0, %d);", i+1)
						w.Line("var offset = 4;")
						renderFieldWrites(w, variants[i], "value")
						w.Line("return offset;")
					})
					w.Dedent()
				}
			})
		})
	})
	w.Blank()

	if en.IsError {
		renderErrorHandler(w, ct)
	}
	return nil
}

func renderFlatEnum(c *Context, w *emit.Writer, ct *CodeType) {
	en, _ := c.iface.Enum(ct.Type.Name)
	class := ct.Label

	if !c.cfg.OmitDocs {
		w.Doc(en.Docs)
	}
	w.Block("enum "+class+" {", "}", func() {
		for i, v := range en.Variants {
			if !c.cfg.OmitDocs {
				w.Doc(v.Docs)
			}
			sep := ","
			if i == len(en.Variants)-1 {
				sep = ";"
			}
			w.Linef("%s%s", EnumVariantName(v.Name), sep)
		}
	})
	w.Blank()

	w.Block("class "+ct.Converter()+" {", "}", func() {
		renderBufferLiftLower(w, class)
		w.Block("static LiftRetVal<"+class+"> read(Uint8List buf) {", "}", func() {
			w.Line("final index = uniffiByteData(buf).getInt32(0);")
			w.Block("if (index < 1 || index > "+class+".values.length) {", "}", func() {
				w.Line("throw UniffiInternalError(UniffiInternalError.unexpectedEnumCase, null);")
			})
			w.Linef("return LiftRetVal(%s.values[index - 1], 4);", class)
		})
		w.Blank()
		w.Linef("static int allocationSize(%s value) => 4;", class)
		w.Blank()
		w.Block("static int write("+class+" value, Uint8List buf) {", "}", func() {
			w.Line("uniffiByteData(buf).setInt32(0, value.index + 1);")
			w.Line("return 4;")
		})
	})
	w.Blank()
}

// errorHandlerName is the top-level instance used by fallible calls.
func errorHandlerName(ct *CodeType) string {
	return lowerCamel(ct.Canonical) + "ErrorHandler"
}

// renderErrorHandler writes the status error handler that lifts an error
// buffer into the Dart exception.
func renderErrorHandler(w *emit.Writer, ct *CodeType) {
	handler := ct.Canonical + "ErrorHandler"
	w.Block("class "+handler+" extends UniffiRustCallStatusErrorHandler {", "}", func() {
		w.Line("@override")
		w.Block("Exception lift(RustBuffer errorBuf) {", "}", func() {
			w.Linef("return %s;", ct.Lift("errorBuf"))
		})
	})
	w.Blank()
	w.Linef("final %s %s = %s();", handler, errorHandlerName(ct), handler)
	w.Blank()
}
