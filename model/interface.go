package model

import "strings"

// DefaultContractVersion is the native ABI contract the generated loader
// checks when the description does not name one.
const DefaultContractVersion uint32 = 26

// Namespace identifies the library being bound.
type Namespace struct {
	Name  string // interface namespace, default package and library name
	Crate string // module path of the native library, used in symbol names
}

// Interface is the complete, resolved interface model.
type Interface struct {
	Namespace          Namespace
	ContractVersion    uint32
	Docs               string
	Records            []*Record
	Enums              []*Enum
	Objects            []*Object
	CallbackInterfaces []*CallbackInterface
	Functions          []*Function
	CustomTypes        []*CustomType
	ExternalTypes      []*ExternalType

	records   map[string]*Record
	enums     map[string]*Enum
	objects   map[string]*Object
	callbacks map[string]*CallbackInterface
	customs   map[string]*CustomType
	externals map[string]*ExternalType
}

// Field is a named, typed slot of a record or enum variant.
type Field struct {
	Name    string
	Type    *Type
	Default *Literal
	Docs    string
}

// Record is a plain data aggregate passed by value.
type Record struct {
	Name   string
	Fields []*Field
	Docs   string
}

// Variant is one case of an enum.
type Variant struct {
	Name   string
	Fields []*Field
	Docs   string
}

// Enum is a tagged union; error enums surface as host exceptions.
type Enum struct {
	Name     string
	Variants []*Variant
	IsError  bool
	Docs     string
}

// IsFlat reports whether no variant carries fields.
func (e *Enum) IsFlat() bool {
	for _, v := range e.Variants {
		if len(v.Fields) > 0 {
			return false
		}
	}
	return true
}

// Argument is a callable parameter.
type Argument struct {
	Name    string
	Type    *Type
	Default *Literal
}

// Signature is the shape shared by functions, constructors and methods.
type Signature struct {
	Name        string
	Args        []*Argument
	Return      *Type // nil for void
	Throws      *Type // nil when infallible; always an enum
	Async       bool
	Checksum    uint16
	HasChecksum bool
	Docs        string
}

// IsFallible reports whether the callable declares an error type.
func (s *Signature) IsFallible() bool {
	return s.Throws != nil
}

// Function is a top-level callable.
type Function struct {
	Signature
}

// Constructor builds an object instance. Its Return is always the owning
// object. The constructor named "new" is the primary constructor; others
// become named factories.
type Constructor struct {
	Signature
}

// IsPrimary reports whether this is the object's default constructor.
func (c *Constructor) IsPrimary() bool {
	return c.Name == "new"
}

// Method is an object or callback-interface method.
type Method struct {
	Signature
}

// Object is a reference type owned by the native side.
type Object struct {
	Name         string
	Constructors []*Constructor
	Methods      []*Method
	Docs         string
}

// PrimaryConstructor returns the "new" constructor if declared.
func (o *Object) PrimaryConstructor() *Constructor {
	for _, c := range o.Constructors {
		if c.IsPrimary() {
			return c
		}
	}
	return nil
}

// StreamElement reports the element type when the object is a native
// stream: a single async poll_next method returning an option.
func (o *Object) StreamElement() (*Type, bool) {
	if len(o.Methods) != 1 {
		return nil, false
	}
	m := o.Methods[0]
	if m.Name != "poll_next" || !m.Async || len(m.Args) != 0 {
		return nil, false
	}
	if m.Return == nil || m.Return.Kind != KindOptional {
		return nil, false
	}
	return m.Return.Inner, true
}

// CallbackInterface is implemented by the host and invoked by the library.
type CallbackInterface struct {
	Name    string
	Methods []*Method
	Docs    string
}

// CustomType wraps a builtin type. Lift and Lower are host expressions in
// which "{}" stands for the value being converted; TypeName is the host
// type they produce and defaults to Name.
type CustomType struct {
	Name     string
	Builtin  *Type
	TypeName string
	Lift     string
	Lower    string
	Imports  []string
	Docs     string
}

// HasConverters reports whether both conversion expressions are set.
func (c *CustomType) HasConverters() bool {
	return c.Lift != "" && c.Lower != ""
}

// ExternalType is a type defined by another crate's bindings.
type ExternalType struct {
	Name  string
	Crate string
	Kind  Kind // KindRecord, KindEnum or KindObject
}

// FfiPrefix is the crate segment used in native symbol names.
func (i *Interface) FfiPrefix() string {
	crate := i.Namespace.Crate
	if crate == "" {
		crate = i.Namespace.Name
	}
	return strings.ReplaceAll(strings.ToLower(crate), "-", "_")
}

// Record returns the record declared under name.
func (i *Interface) Record(name string) (*Record, bool) {
	r, ok := i.records[name]
	return r, ok
}

// Enum returns the enum declared under name.
func (i *Interface) Enum(name string) (*Enum, bool) {
	e, ok := i.enums[name]
	return e, ok
}

// Object returns the object declared under name.
func (i *Interface) Object(name string) (*Object, bool) {
	o, ok := i.objects[name]
	return o, ok
}

// CallbackInterface returns the callback interface declared under name.
func (i *Interface) CallbackInterface(name string) (*CallbackInterface, bool) {
	c, ok := i.callbacks[name]
	return c, ok
}

// CustomType returns the custom type declared under name.
func (i *Interface) CustomType(name string) (*CustomType, bool) {
	c, ok := i.customs[name]
	return c, ok
}

// ExternalType returns the external type declared under name.
func (i *Interface) ExternalType(name string) (*ExternalType, bool) {
	e, ok := i.externals[name]
	return e, ok
}

// Lookup resolves a declared name to a type reference.
func (i *Interface) Lookup(name string) (*Type, bool) {
	switch {
	case i.records[name] != nil:
		return Named(KindRecord, name), true
	case i.enums[name] != nil:
		return Named(KindEnum, name), true
	case i.objects[name] != nil:
		return Named(KindObject, name), true
	case i.callbacks[name] != nil:
		return Named(KindCallbackInterface, name), true
	case i.customs[name] != nil:
		return Named(KindCustom, name), true
	case i.externals[name] != nil:
		ext := i.externals[name]
		return &Type{Kind: KindExternal, Name: name, Crate: ext.Crate}, true
	}
	return nil, false
}

// Index rebuilds the name lookup tables. Load calls it; code that assembles
// an Interface by hand must call it before use.
func (i *Interface) Index() {
	i.records = make(map[string]*Record, len(i.Records))
	for _, r := range i.Records {
		i.records[r.Name] = r
	}
	i.enums = make(map[string]*Enum, len(i.Enums))
	for _, e := range i.Enums {
		i.enums[e.Name] = e
	}
	i.objects = make(map[string]*Object, len(i.Objects))
	for _, o := range i.Objects {
		i.objects[o.Name] = o
	}
	i.callbacks = make(map[string]*CallbackInterface, len(i.CallbackInterfaces))
	for _, c := range i.CallbackInterfaces {
		i.callbacks[c.Name] = c
	}
	i.customs = make(map[string]*CustomType, len(i.CustomTypes))
	for _, c := range i.CustomTypes {
		i.customs[c.Name] = c
	}
	i.externals = make(map[string]*ExternalType, len(i.ExternalTypes))
	for _, e := range i.ExternalTypes {
		i.externals[e.Name] = e
	}
}

// Callables visits every callable in declaration order: functions, then
// each object's constructors and methods, then callback methods.
func (i *Interface) Callables(visit func(owner string, s *Signature)) {
	for _, f := range i.Functions {
		visit("", &f.Signature)
	}
	for _, o := range i.Objects {
		for _, c := range o.Constructors {
			visit(o.Name, &c.Signature)
		}
		for _, m := range o.Methods {
			visit(o.Name, &m.Signature)
		}
	}
	for _, cb := range i.CallbackInterfaces {
		for _, m := range cb.Methods {
			visit(cb.Name, &m.Signature)
		}
	}
}

// Types visits every type expression referenced anywhere in the interface,
// in declaration order. Nested types are visited through Type.Walk.
func (i *Interface) Types(visit func(*Type)) {
	fields := func(fs []*Field) {
		for _, f := range fs {
			f.Type.Walk(visit)
		}
	}
	sig := func(s *Signature) {
		for _, a := range s.Args {
			a.Type.Walk(visit)
		}
		s.Return.Walk(visit)
		s.Throws.Walk(visit)
	}
	for _, r := range i.Records {
		fields(r.Fields)
	}
	for _, e := range i.Enums {
		for _, v := range e.Variants {
			fields(v.Fields)
		}
	}
	for _, c := range i.CustomTypes {
		c.Builtin.Walk(visit)
	}
	for _, f := range i.Functions {
		sig(&f.Signature)
	}
	for _, o := range i.Objects {
		for _, c := range o.Constructors {
			sig(&c.Signature)
		}
		for _, m := range o.Methods {
			sig(&m.Signature)
		}
	}
	for _, cb := range i.CallbackInterfaces {
		for _, m := range cb.Methods {
			sig(&m.Signature)
		}
	}
}
