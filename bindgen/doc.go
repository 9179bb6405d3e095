// Package bindgen renders Dart bindings for an interface model.
//
// Every interface type maps to a CodeType: the Dart label the user sees and
// a canonical name that identifies its converter class. Converters are
// emitted on demand, once per canonical name, while the definitions are
// rendered in declaration order:
//
//	iface, _ := model.Load("arithmetic.yaml")
//	text, err := bindgen.Generate(iface, config.Default(iface.Namespace.Name))
//
// The output is a single library: the runtime preamble and builtin
// converters, shared helpers, the interface's types, its top-level
// functions and a loader class binding every native symbol exactly once.
// Render returns the same text split into those sections.
//
// GenerateBindings is the file-level entry point used by the command line
// tool. Given a WebAssembly build of the library it also checks the
// contract version and checksums through package probe before writing.
package bindgen
