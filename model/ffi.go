package model

import (
	"fmt"
	"strings"
)

// FfiKind is the closed set of types that cross the native ABI.
type FfiKind uint8

const (
	FfiInt8 FfiKind = iota
	FfiUInt8
	FfiInt16
	FfiUInt16
	FfiInt32
	FfiUInt32
	FfiInt64
	FfiUInt64
	FfiFloat32
	FfiFloat64
	FfiRustBuffer
	FfiForeignBytes
	FfiHandle       // opaque object pointer
	FfiVTable       // pointer to a callback vtable struct
	FfiContinuation // future continuation callback pointer
)

var ffiKindNames = [...]string{
	FfiInt8:         "i8",
	FfiUInt8:        "u8",
	FfiInt16:        "i16",
	FfiUInt16:       "u16",
	FfiInt32:        "i32",
	FfiUInt32:       "u32",
	FfiInt64:        "i64",
	FfiUInt64:       "u64",
	FfiFloat32:      "f32",
	FfiFloat64:      "f64",
	FfiRustBuffer:   "RustBuffer",
	FfiForeignBytes: "ForeignBytes",
	FfiHandle:       "pointer",
	FfiVTable:       "vtable",
	FfiContinuation: "continuation",
}

// FfiType is an ABI-level type. Name is set for vtable pointers.
type FfiType struct {
	Kind FfiKind
	Name string
}

func (t FfiType) String() string {
	if t.Kind == FfiVTable {
		return "*" + t.Name
	}
	if int(t.Kind) < len(ffiKindNames) {
		return ffiKindNames[t.Kind]
	}
	return "unknown"
}

// FfiArgument is a named ABI parameter.
type FfiArgument struct {
	Name string
	Type FfiType
}

// FfiFunction is one exported native symbol. When HasStatus is set the
// caller appends a RustCallStatus pointer after Args.
type FfiFunction struct {
	Name      string
	Args      []FfiArgument
	Return    *FfiType
	HasStatus bool
}

// SignatureString renders the ABI signature, e.g. "(u32, u32, status*) -> u32".
func (f *FfiFunction) SignatureString() string {
	parts := make([]string, 0, len(f.Args)+1)
	for _, a := range f.Args {
		parts = append(parts, a.Type.String())
	}
	if f.HasStatus {
		parts = append(parts, "status*")
	}
	ret := "void"
	if f.Return != nil {
		ret = f.Return.String()
	}
	return "(" + strings.Join(parts, ", ") + ") -> " + ret
}

// Checksum pairs a checksum symbol with the value the model expects.
type Checksum struct {
	Symbol   string
	Expected uint16
}

var primitiveFfi = map[Kind]FfiKind{
	KindBool:    FfiInt8,
	KindInt8:    FfiInt8,
	KindUInt8:   FfiUInt8,
	KindInt16:   FfiInt16,
	KindUInt16:  FfiUInt16,
	KindInt32:   FfiInt32,
	KindUInt32:  FfiUInt32,
	KindInt64:   FfiInt64,
	KindUInt64:  FfiUInt64,
	KindFloat32: FfiFloat32,
	KindFloat64: FfiFloat64,
}

// FfiTypeOf lowers an interface type to its ABI representation.
func (i *Interface) FfiTypeOf(t *Type) FfiType {
	if k, ok := primitiveFfi[t.Kind]; ok {
		return FfiType{Kind: k}
	}
	switch t.Kind {
	case KindObject:
		return FfiType{Kind: FfiHandle}
	case KindCallbackInterface:
		return FfiType{Kind: FfiUInt64}
	case KindCustom:
		if c, ok := i.CustomType(t.Name); ok {
			return i.FfiTypeOf(c.Builtin)
		}
	case KindExternal:
		if e, ok := i.ExternalType(t.Name); ok && e.Kind == KindObject {
			return FfiType{Kind: FfiHandle}
		}
	}
	return FfiType{Kind: FfiRustBuffer}
}

// ffiReturn lowers an optional return type.
func (i *Interface) ffiReturn(t *Type) *FfiType {
	if t == nil {
		return nil
	}
	ft := i.FfiTypeOf(t)
	return &ft
}

// FutureSuffix names the future scaffolding family for a return type.
func FutureSuffix(ret *FfiType) string {
	if ret == nil {
		return "void"
	}
	switch ret.Kind {
	case FfiRustBuffer:
		return "rust_buffer"
	case FfiHandle:
		return "pointer"
	}
	return ret.String()
}

// Symbol names.

func (i *Interface) RustBufferAllocSymbol() string {
	return "ffi_" + i.FfiPrefix() + "_rustbuffer_alloc"
}

func (i *Interface) RustBufferFromBytesSymbol() string {
	return "ffi_" + i.FfiPrefix() + "_rustbuffer_from_bytes"
}

func (i *Interface) RustBufferFreeSymbol() string {
	return "ffi_" + i.FfiPrefix() + "_rustbuffer_free"
}

func (i *Interface) RustBufferReserveSymbol() string {
	return "ffi_" + i.FfiPrefix() + "_rustbuffer_reserve"
}

func (i *Interface) ContractVersionSymbol() string {
	return "ffi_" + i.FfiPrefix() + "_uniffi_contract_version"
}

func (i *Interface) FunctionSymbol(f *Function) string {
	return fmt.Sprintf("uniffi_%s_fn_func_%s", i.FfiPrefix(), ffiSegment(f.Name))
}

func (i *Interface) ConstructorSymbol(o *Object, c *Constructor) string {
	return fmt.Sprintf("uniffi_%s_fn_constructor_%s_%s", i.FfiPrefix(), ffiSegment(o.Name), ffiSegment(c.Name))
}

func (i *Interface) MethodSymbol(o *Object, m *Method) string {
	return fmt.Sprintf("uniffi_%s_fn_method_%s_%s", i.FfiPrefix(), ffiSegment(o.Name), ffiSegment(m.Name))
}

func (i *Interface) CloneSymbol(o *Object) string {
	return fmt.Sprintf("uniffi_%s_fn_clone_%s", i.FfiPrefix(), ffiSegment(o.Name))
}

func (i *Interface) FreeSymbol(o *Object) string {
	return fmt.Sprintf("uniffi_%s_fn_free_%s", i.FfiPrefix(), ffiSegment(o.Name))
}

func (i *Interface) InitCallbackSymbol(cb *CallbackInterface) string {
	return fmt.Sprintf("uniffi_%s_fn_init_callback_vtable_%s", i.FfiPrefix(), ffiSegment(cb.Name))
}

func (i *Interface) FunctionChecksumSymbol(f *Function) string {
	return fmt.Sprintf("uniffi_%s_checksum_func_%s", i.FfiPrefix(), ffiSegment(f.Name))
}

func (i *Interface) ConstructorChecksumSymbol(o *Object, c *Constructor) string {
	return fmt.Sprintf("uniffi_%s_checksum_constructor_%s_%s", i.FfiPrefix(), ffiSegment(o.Name), ffiSegment(c.Name))
}

// MethodChecksumSymbol covers object and callback-interface methods.
func (i *Interface) MethodChecksumSymbol(owner string, m *Method) string {
	return fmt.Sprintf("uniffi_%s_checksum_method_%s_%s", i.FfiPrefix(), ffiSegment(owner), ffiSegment(m.Name))
}

// FuturePollSymbol, FutureCompleteSymbol and FutureFreeSymbol name the
// scaffolding shared by every async callable with the given return.
func (i *Interface) FuturePollSymbol(ret *FfiType) string {
	return fmt.Sprintf("ffi_%s_rust_future_poll_%s", i.FfiPrefix(), FutureSuffix(ret))
}

func (i *Interface) FutureCompleteSymbol(ret *FfiType) string {
	return fmt.Sprintf("ffi_%s_rust_future_complete_%s", i.FfiPrefix(), FutureSuffix(ret))
}

func (i *Interface) FutureFreeSymbol(ret *FfiType) string {
	return fmt.Sprintf("ffi_%s_rust_future_free_%s", i.FfiPrefix(), FutureSuffix(ret))
}

func (i *Interface) ffiArgs(args []*Argument) []FfiArgument {
	out := make([]FfiArgument, 0, len(args))
	for _, a := range args {
		out = append(out, FfiArgument{Name: a.Name, Type: i.FfiTypeOf(a.Type)})
	}
	return out
}

// callableFfi lowers a function, constructor or method entry point. Methods
// take the receiver handle first. Async entries return a u64 future handle
// and take no status pointer.
func (i *Interface) callableFfi(name string, receiver bool, s *Signature) *FfiFunction {
	var args []FfiArgument
	if receiver {
		args = append(args, FfiArgument{Name: "ptr", Type: FfiType{Kind: FfiHandle}})
	}
	args = append(args, i.ffiArgs(s.Args)...)
	if s.Async {
		return &FfiFunction{Name: name, Args: args, Return: &FfiType{Kind: FfiUInt64}}
	}
	return &FfiFunction{Name: name, Args: args, Return: i.ffiReturn(s.Return), HasStatus: true}
}

// FunctionFfi lowers a top-level function.
func (i *Interface) FunctionFfi(f *Function) *FfiFunction {
	return i.callableFfi(i.FunctionSymbol(f), false, &f.Signature)
}

// ConstructorFfi lowers a constructor; the result is the new handle.
func (i *Interface) ConstructorFfi(o *Object, c *Constructor) *FfiFunction {
	return i.callableFfi(i.ConstructorSymbol(o, c), false, &c.Signature)
}

// MethodFfi lowers an object method.
func (i *Interface) MethodFfi(o *Object, m *Method) *FfiFunction {
	return i.callableFfi(i.MethodSymbol(o, m), true, &m.Signature)
}

// AsyncReturn is the FFI type completed by the future of an async callable.
func (i *Interface) AsyncReturn(s *Signature) *FfiType {
	return i.ffiReturn(s.Return)
}

func (i *Interface) futureFfi(ret *FfiType) []*FfiFunction {
	handle := FfiArgument{Name: "handle", Type: FfiType{Kind: FfiUInt64}}
	return []*FfiFunction{
		{
			Name: i.FuturePollSymbol(ret),
			Args: []FfiArgument{
				handle,
				{Name: "callback", Type: FfiType{Kind: FfiContinuation}},
				{Name: "callback_data", Type: FfiType{Kind: FfiUInt64}},
			},
		},
		{
			Name:      i.FutureCompleteSymbol(ret),
			Args:      []FfiArgument{handle},
			Return:    ret,
			HasStatus: true,
		},
		{
			Name: i.FutureFreeSymbol(ret),
			Args: []FfiArgument{handle},
		},
	}
}

// FfiFunctions lowers the whole interface. The list may name the same
// future scaffolding symbol more than once; consumers bind each name once.
func (i *Interface) FfiFunctions() []*FfiFunction {
	u16 := FfiType{Kind: FfiUInt16}
	u32 := FfiType{Kind: FfiUInt32}
	buf := FfiType{Kind: FfiRustBuffer}

	fns := []*FfiFunction{
		{
			Name:      i.RustBufferAllocSymbol(),
			Args:      []FfiArgument{{Name: "size", Type: FfiType{Kind: FfiInt32}}},
			Return:    &buf,
			HasStatus: true,
		},
		{
			Name:      i.RustBufferFromBytesSymbol(),
			Args:      []FfiArgument{{Name: "bytes", Type: FfiType{Kind: FfiForeignBytes}}},
			Return:    &buf,
			HasStatus: true,
		},
		{
			Name:      i.RustBufferFreeSymbol(),
			Args:      []FfiArgument{{Name: "buf", Type: buf}},
			HasStatus: true,
		},
		{
			Name: i.RustBufferReserveSymbol(),
			Args: []FfiArgument{
				{Name: "buf", Type: buf},
				{Name: "additional", Type: FfiType{Kind: FfiInt32}},
			},
			Return:    &buf,
			HasStatus: true,
		},
	}

	var futures []*FfiFunction
	addFuture := func(s *Signature) {
		if s.Async {
			futures = append(futures, i.futureFfi(i.AsyncReturn(s))...)
		}
	}

	for _, f := range i.Functions {
		fns = append(fns, i.FunctionFfi(f))
		addFuture(&f.Signature)
	}
	for _, o := range i.Objects {
		handle := FfiType{Kind: FfiHandle}
		fns = append(fns,
			&FfiFunction{
				Name:      i.CloneSymbol(o),
				Args:      []FfiArgument{{Name: "ptr", Type: handle}},
				Return:    &handle,
				HasStatus: true,
			},
			&FfiFunction{
				Name:      i.FreeSymbol(o),
				Args:      []FfiArgument{{Name: "ptr", Type: handle}},
				HasStatus: true,
			},
		)
		for _, c := range o.Constructors {
			fns = append(fns, i.ConstructorFfi(o, c))
			addFuture(&c.Signature)
		}
		for _, m := range o.Methods {
			fns = append(fns, i.MethodFfi(o, m))
			addFuture(&m.Signature)
		}
	}
	for _, cb := range i.CallbackInterfaces {
		fns = append(fns, &FfiFunction{
			Name: i.InitCallbackSymbol(cb),
			Args: []FfiArgument{{Name: "vtable", Type: FfiType{Kind: FfiVTable, Name: "UniffiVTableCallbackInterface" + cb.Name}}},
		})
	}
	fns = append(fns, futures...)

	for _, c := range i.Checksums() {
		fns = append(fns, &FfiFunction{Name: c.Symbol, Return: &u16})
	}
	fns = append(fns, &FfiFunction{Name: i.ContractVersionSymbol(), Return: &u32})
	return fns
}

// Checksums lists the checksum functions whose value the description records,
// in declaration order. Callables without a recorded checksum are not
// checked: only the library knows their value.
func (i *Interface) Checksums() []Checksum {
	var out []Checksum
	add := func(symbol string, s *Signature) {
		if s.HasChecksum {
			out = append(out, Checksum{symbol, s.Checksum})
		}
	}
	for _, f := range i.Functions {
		add(i.FunctionChecksumSymbol(f), &f.Signature)
	}
	for _, o := range i.Objects {
		for _, c := range o.Constructors {
			add(i.ConstructorChecksumSymbol(o, c), &c.Signature)
		}
		for _, m := range o.Methods {
			add(i.MethodChecksumSymbol(o.Name, m), &m.Signature)
		}
	}
	for _, cb := range i.CallbackInterfaces {
		for _, m := range cb.Methods {
			add(i.MethodChecksumSymbol(cb.Name, m), &m.Signature)
		}
	}
	return out
}
