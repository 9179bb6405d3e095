package bindgen

import (
	"strings"

	"github.com/acterglobal/uniffi-dart-sub000/bindgen/internal/emit"
	"github.com/acterglobal/uniffi-dart-sub000/errors"
)

// renderCustom writes a custom type. Without converters it is a typedef of
// its builtin and the converter delegates. With converters the user's lift
// and lower expressions wrap the builtin converter.
func renderCustom(c *Context, w *emit.Writer, ct *CodeType) error {
	custom, ok := c.iface.CustomType(ct.Type.Name)
	if !ok {
		return errors.MissingDefinition([]string{"custom type"}, ct.Type.Name)
	}
	builtin, err := c.Demand(custom.Builtin)
	if err != nil {
		return wrapRender(err, "custom type "+custom.Name)
	}
	for _, uri := range custom.Imports {
		c.AddImport(uri)
	}
	ffi := c.iface.FfiTypeOf(custom.Builtin)
	raw := dartType(&ffi)
	label := ct.Label

	if !custom.HasConverters() {
		if !c.cfg.OmitDocs {
			w.Doc(custom.Docs)
		}
		w.Linef("typedef %s = %s;", label, builtin.Label)
		w.Blank()
	}

	liftExpr := func(inner string) string {
		if !custom.HasConverters() {
			return inner
		}
		return strings.ReplaceAll(custom.Lift, "{}", inner)
	}
	lowerExpr := func(value string) string {
		if !custom.HasConverters() {
			return value
		}
		return strings.ReplaceAll(custom.Lower, "{}", value)
	}

	w.Block("class "+ct.Converter()+" {", "}", func() {
		w.Linef("static %s lift(%s value) => %s;", label, raw, liftExpr(builtin.Lift("value")))
		w.Blank()
		w.Linef("static %s lower(%s value) => %s;", raw, label, builtin.Lower(lowerExpr("value")))
		w.Blank()
		w.Block("static LiftRetVal<"+label+"> read(Uint8List buf) {", "}", func() {
			w.Linef("final builtin = %s;", builtin.Read("buf"))
			w.Linef("return LiftRetVal(%s, builtin.bytesRead);", liftExpr("builtin.value"))
		})
		w.Blank()
		w.Linef("static int allocationSize(%s value) => %s;", label, builtin.AllocationSize(lowerExpr("value")))
		w.Blank()
		w.Linef("static int write(%s value, Uint8List buf) => %s;", label, builtin.Write(lowerExpr("value"), "buf"))
	})
	w.Blank()
	return nil
}
