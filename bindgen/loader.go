package bindgen

import (
	"strconv"

	"github.com/acterglobal/uniffi-dart-sub000/bindgen/internal/emit"
	"github.com/acterglobal/uniffi-dart-sub000/config"
	"github.com/acterglobal/uniffi-dart-sub000/model"
)

// contractVersion is the version the loader insists on at first use.
func contractVersion(iface *model.Interface, cfg *config.Config) uint32 {
	if cfg.ContractVersion != nil {
		return *cfg.ContractVersion
	}
	if iface.ContractVersion != 0 {
		return iface.ContractVersion
	}
	return model.DefaultContractVersion
}

// renderLoader writes the _UniffiLib class binding every FFI symbol once,
// and the startup checks that run before the first binding is handed out.
func renderLoader(c *Context, w *emit.Writer) {
	version := contractVersion(c.iface, c.cfg)

	w.Block("class _UniffiLib {", "}", func() {
		w.Line("_UniffiLib._();")
		w.Blank()
		w.Line("static final DynamicLibrary _dylib = _uniffiLoadLibrary();")
		w.Blank()
		w.Doc("Bindings for the loaded library. The contract version and every\nchecksum are verified on first access.")
		w.Line("static final _UniffiLib instance = _UniffiLib._().._checkApiIntegrity();")
		w.Blank()

		w.Block("void _checkApiIntegrity() {", "}", func() {
			w.Linef("const expectedVersion = %d;", version)
			w.Linef("final actualVersion = %s();", c.iface.ContractVersionSymbol())
			w.Block("if (actualVersion != expectedVersion) {", "}", func() {
				w.Line("throw UniffiContractVersionMismatch(expectedVersion, actualVersion);")
			})
			for _, cs := range c.iface.Checksums() {
				w.Block("{", "}", func() {
					w.Linef("final actual = %s();", cs.Symbol)
					w.Block("if (actual != "+strconv.Itoa(int(cs.Expected))+") {", "}", func() {
						w.Linef("throw UniffiChecksumMismatch(%s, %d, actual);", dartString(cs.Symbol), cs.Expected)
					})
				})
			}
		})

		for _, fn := range c.iface.FfiFunctions() {
			if !c.bindSymbol(fn.Name) {
				continue
			}
			native, dart := ffiSignature(fn)
			w.Blank()
			w.Linef("late final %s %s =", dart, fn.Name)
			w.Indent().Linef("_dylib.lookupFunction<%s, %s>(%s);", native, dart, dartString(fn.Name)).Dedent()
		}
	})
	w.Blank()

	lib := c.cfg.CdylibName
	w.Block("DynamicLibrary _uniffiLoadLibrary() {", "}", func() {
		w.Block("if (Platform.isAndroid || Platform.isLinux) {", "}", func() {
			w.Linef("return DynamicLibrary.open(%s);", dartString("lib"+lib+".so"))
		})
		w.Block("if (Platform.isMacOS || Platform.isIOS) {", "}", func() {
			w.Linef("return DynamicLibrary.open(%s);", dartString("lib"+lib+".dylib"))
		})
		w.Block("if (Platform.isWindows) {", "}", func() {
			w.Linef("return DynamicLibrary.open(%s);", dartString(lib+".dll"))
		})
		w.Line("throw UniffiUnsupportedPlatform(Platform.operatingSystem);")
	})
	w.Blank()
}
