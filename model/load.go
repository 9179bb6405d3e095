package model

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/acterglobal/uniffi-dart-sub000/errors"
)

type rawInterface struct {
	Namespace          string        `yaml:"namespace"`
	Crate              string        `yaml:"crate"`
	ContractVersion    *uint32       `yaml:"contract_version"`
	Docs               string        `yaml:"docs"`
	Records            []rawRecord   `yaml:"records"`
	Enums              []rawEnum     `yaml:"enums"`
	Objects            []rawObject   `yaml:"objects"`
	CallbackInterfaces []rawCallback `yaml:"callback_interfaces"`
	Functions          []rawCallable `yaml:"functions"`
	CustomTypes        []rawCustom   `yaml:"custom_types"`
	ExternalTypes      []rawExternal `yaml:"external_types"`
}

type rawField struct {
	Name    string    `yaml:"name"`
	Type    string    `yaml:"type"`
	Default yaml.Node `yaml:"default"`
	Docs    string    `yaml:"docs"`
}

type rawRecord struct {
	Name   string     `yaml:"name"`
	Fields []rawField `yaml:"fields"`
	Docs   string     `yaml:"docs"`
}

type rawVariant struct {
	Name   string     `yaml:"name"`
	Fields []rawField `yaml:"fields"`
	Docs   string     `yaml:"docs"`
}

type rawEnum struct {
	Name     string       `yaml:"name"`
	Error    bool         `yaml:"error"`
	Variants []rawVariant `yaml:"variants"`
	Docs     string       `yaml:"docs"`
}

type rawCallable struct {
	Name     string     `yaml:"name"`
	Args     []rawField `yaml:"args"`
	Returns  string     `yaml:"returns"`
	Throws   string     `yaml:"throws"`
	Async    bool       `yaml:"async"`
	Checksum *uint16    `yaml:"checksum"`
	Docs     string     `yaml:"docs"`
}

type rawObject struct {
	Name         string        `yaml:"name"`
	Constructors []rawCallable `yaml:"constructors"`
	Methods      []rawCallable `yaml:"methods"`
	Docs         string        `yaml:"docs"`
}

type rawCallback struct {
	Name    string        `yaml:"name"`
	Methods []rawCallable `yaml:"methods"`
	Docs    string        `yaml:"docs"`
}

type rawCustom struct {
	Name     string   `yaml:"name"`
	Builtin  string   `yaml:"builtin"`
	TypeName string   `yaml:"type_name"`
	Lift     string   `yaml:"lift"`
	Lower    string   `yaml:"lower"`
	Imports  []string `yaml:"imports"`
	Docs     string   `yaml:"docs"`
}

var externalKinds = map[string]Kind{"record": KindRecord, "enum": KindEnum, "object": KindObject}

type rawExternal struct {
	Name  string `yaml:"name"`
	Crate string `yaml:"crate"`
	Kind  string `yaml:"kind"`
}

// Load reads and resolves an interface description from disk.
func Load(path string) (*Interface, error) {
	if path == "" {
		return nil, errors.InvalidInput(errors.PhaseLoad, "empty interface path")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.IO(errors.PhaseLoad, "read "+path, err)
	}
	return Parse(data)
}

// Parse decodes and resolves an interface description. Every resolution
// problem found is reported in one *errors.ValidationError.
func Parse(data []byte) (*Interface, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	var raw rawInterface
	if err := decoder.Decode(&raw); err != nil {
		if err == io.EOF {
			return nil, errors.Malformed(errors.PhaseLoad, nil, "interface description is empty")
		}
		return nil, errors.Wrap(errors.PhaseLoad, errors.KindMalformed, err, "decode interface description")
	}

	r := &resolver{iface: &Interface{}}
	r.issues.Phase = errors.PhaseResolve
	r.build(&raw)
	for _, check := range r.deferred {
		check()
	}
	if err := r.issues.Err(); err != nil {
		return nil, err
	}
	return r.iface, nil
}

type resolver struct {
	iface    *Interface
	issues   errors.ValidationError
	declared map[string]string
	deferred []func() // checks that need every body resolved
}

func (r *resolver) build(raw *rawInterface) {
	iface := r.iface
	if raw.Namespace == "" {
		r.issues.Add(errors.Malformed(errors.PhaseLoad, nil, "namespace must be provided"))
	}
	iface.Namespace = Namespace{Name: raw.Namespace, Crate: raw.Crate}
	if iface.Namespace.Crate == "" {
		iface.Namespace.Crate = raw.Namespace
	}
	iface.ContractVersion = DefaultContractVersion
	if raw.ContractVersion != nil {
		iface.ContractVersion = *raw.ContractVersion
	}
	iface.Docs = raw.Docs

	// declarations first so that forward references resolve
	r.declared = make(map[string]string)
	var records []rawRecord
	for _, rec := range raw.Records {
		if r.declare("record", rec.Name) {
			records = append(records, rec)
			iface.Records = append(iface.Records, &Record{Name: rec.Name, Docs: rec.Docs})
		}
	}
	var enums []rawEnum
	for _, en := range raw.Enums {
		if r.declare("enum", en.Name) {
			enums = append(enums, en)
			iface.Enums = append(iface.Enums, &Enum{Name: en.Name, IsError: en.Error, Docs: en.Docs})
		}
	}
	var objects []rawObject
	for _, obj := range raw.Objects {
		if r.declare("object", obj.Name) {
			objects = append(objects, obj)
			iface.Objects = append(iface.Objects, &Object{Name: obj.Name, Docs: obj.Docs})
		}
	}
	var callbacks []rawCallback
	for _, cb := range raw.CallbackInterfaces {
		if r.declare("callback interface", cb.Name) {
			callbacks = append(callbacks, cb)
			iface.CallbackInterfaces = append(iface.CallbackInterfaces, &CallbackInterface{Name: cb.Name, Docs: cb.Docs})
		}
	}
	var customs []rawCustom
	for _, ct := range raw.CustomTypes {
		if r.declare("custom type", ct.Name) {
			customs = append(customs, ct)
			iface.CustomTypes = append(iface.CustomTypes, &CustomType{
				Name:     ct.Name,
				TypeName: ct.TypeName,
				Lift:     ct.Lift,
				Lower:    ct.Lower,
				Imports:  ct.Imports,
				Docs:     ct.Docs,
			})
		}
	}
	for _, ext := range raw.ExternalTypes {
		if !r.declare("external type", ext.Name) {
			continue
		}
		path := []string{"external type " + ext.Name}
		kind, ok := externalKinds[ext.Kind]
		if !ok {
			r.issues.Add(errors.Malformed(errors.PhaseLoad, path,
				fmt.Sprintf("kind must be record, enum or object, got %q", ext.Kind)))
			continue
		}
		if ext.Crate == "" {
			r.issues.Add(errors.Malformed(errors.PhaseLoad, path, "crate must be provided"))
			continue
		}
		iface.ExternalTypes = append(iface.ExternalTypes, &ExternalType{Name: ext.Name, Crate: ext.Crate, Kind: kind})
	}
	iface.Index()

	// bodies, in declaration order
	for n, ct := range customs {
		c := iface.CustomTypes[n]
		path := []string{"custom type " + ct.Name}
		c.Builtin = r.resolve(path, ct.Builtin)
		if c.Builtin != nil && c.Builtin.Kind.IsNamed() {
			r.issues.Add(errors.Malformed(errors.PhaseResolve, path, "custom types must wrap a builtin type"))
		}
	}
	for n, rec := range records {
		iface.Records[n].Fields = r.fields([]string{"record " + rec.Name}, rec.Fields)
	}
	for n, en := range enums {
		out := iface.Enums[n]
		path := []string{"enum " + en.Name}
		if len(en.Variants) == 0 {
			r.issues.Add(errors.Malformed(errors.PhaseLoad, path, "enum has no variants"))
		}
		seen := make(map[string]bool)
		for _, v := range en.Variants {
			if v.Name == "" {
				r.issues.Add(errors.Malformed(errors.PhaseLoad, path, "variant name must be provided"))
				continue
			}
			if seen[v.Name] {
				r.issues.Add(errors.Duplicate(path, v.Name))
				continue
			}
			seen[v.Name] = true
			out.Variants = append(out.Variants, &Variant{
				Name:   v.Name,
				Fields: r.fields([]string{"enum " + en.Name, "variant " + v.Name}, v.Fields),
				Docs:   v.Docs,
			})
		}
	}
	for n, obj := range objects {
		out := iface.Objects[n]
		self := Named(KindObject, obj.Name)
		for _, c := range obj.Constructors {
			path := []string{"object " + obj.Name, "constructor " + c.Name}
			if c.Returns != "" {
				r.issues.Add(errors.Malformed(errors.PhaseLoad, path, "constructors cannot declare a return type"))
			}
			sig := r.signature(path, c)
			sig.Return = self
			out.Constructors = append(out.Constructors, &Constructor{Signature: sig})
		}
		for _, m := range obj.Methods {
			path := []string{"object " + obj.Name, "method " + m.Name}
			out.Methods = append(out.Methods, &Method{Signature: r.signature(path, m)})
		}
		r.checkUnique([]string{"object " + obj.Name}, out)
	}
	for n, cb := range callbacks {
		out := iface.CallbackInterfaces[n]
		for _, m := range cb.Methods {
			path := []string{"callback interface " + cb.Name, "method " + m.Name}
			if m.Async {
				r.issues.Add(errors.New(errors.PhaseLoad, errors.KindUnsupported).
					Path(path...).
					Detail("callback interface methods cannot be async").
					Build())
			}
			out.Methods = append(out.Methods, &Method{Signature: r.signature(path, m)})
		}
	}
	seen := make(map[string]bool)
	for _, f := range raw.Functions {
		path := []string{"function " + f.Name}
		if f.Name != "" && seen[f.Name] {
			r.issues.Add(errors.Duplicate(path, f.Name))
			continue
		}
		seen[f.Name] = true
		iface.Functions = append(iface.Functions, &Function{Signature: r.signature(path, f)})
	}
}

// declare registers a top-level name, reporting empty and duplicate names.
func (r *resolver) declare(what, name string) bool {
	if name == "" {
		r.issues.Add(errors.Malformed(errors.PhaseLoad, []string{what}, "name must be provided"))
		return false
	}
	if prev, ok := r.declared[name]; ok {
		r.issues.Add(errors.New(errors.PhaseLoad, errors.KindDuplicate).
			Path(what+" "+name).
			Construct(name).
			Detail("%q is already declared as a %s", name, prev).
			Build())
		return false
	}
	r.declared[name] = what
	return true
}

func (r *resolver) resolve(path []string, expr string) *Type {
	if expr == "" {
		r.issues.Add(errors.Malformed(errors.PhaseLoad, path, "type must be provided"))
		return nil
	}
	t, err := ParseType(expr, r.iface.Lookup)
	if err != nil {
		r.issues.Add(wrapPath(err, path...))
		return nil
	}
	return t
}

func (r *resolver) fields(path []string, raw []rawField) []*Field {
	out := make([]*Field, 0, len(raw))
	seen := make(map[string]bool)
	for _, f := range raw {
		fpath := append(append([]string(nil), path...), "field "+f.Name)
		if f.Name == "" {
			r.issues.Add(errors.Malformed(errors.PhaseLoad, path, "field name must be provided"))
			continue
		}
		if seen[f.Name] {
			r.issues.Add(errors.Duplicate(path, f.Name))
			continue
		}
		seen[f.Name] = true
		t := r.resolve(fpath, f.Type)
		out = append(out, &Field{
			Name:    f.Name,
			Type:    t,
			Default: r.literal(fpath, t, &f.Default),
			Docs:    f.Docs,
		})
	}
	return out
}

func (r *resolver) signature(path []string, raw rawCallable) Signature {
	sig := Signature{Name: raw.Name, Async: raw.Async, Docs: raw.Docs}
	if raw.Name == "" {
		r.issues.Add(errors.Malformed(errors.PhaseLoad, path, "name must be provided"))
	}
	if raw.Checksum != nil {
		sig.Checksum, sig.HasChecksum = *raw.Checksum, true
	}
	for _, f := range r.fields(path, raw.Args) {
		sig.Args = append(sig.Args, &Argument{Name: f.Name, Type: f.Type, Default: f.Default})
	}
	if raw.Returns != "" {
		sig.Return = r.resolve(append(path[:len(path):len(path)], "returns"), raw.Returns)
	}
	if raw.Throws != "" {
		tpath := append(path[:len(path):len(path)], "throws")
		if t := r.resolve(tpath, raw.Throws); t != nil {
			if en, ok := r.iface.Enum(t.Name); ok && t.Kind == KindEnum {
				// an enum used as an error type is an error enum
				en.IsError = true
				sig.Throws = t
			} else {
				r.issues.Add(errors.Malformed(errors.PhaseResolve, tpath,
					fmt.Sprintf("error type %s must be an enum", raw.Throws)))
			}
		}
	}
	return sig
}

func (r *resolver) checkUnique(path []string, o *Object) {
	seen := make(map[string]bool)
	for _, c := range o.Constructors {
		if seen["ctor "+c.Name] {
			r.issues.Add(errors.Duplicate(path, c.Name))
		}
		seen["ctor "+c.Name] = true
	}
	for _, m := range o.Methods {
		if seen[m.Name] {
			r.issues.Add(errors.Duplicate(path, m.Name))
		}
		seen[m.Name] = true
		if generatedMembers[strings.ReplaceAll(strings.ToLower(m.Name), "_", "")] {
			r.issues.Add(errors.Malformed(errors.PhaseResolve, append(path, "method "+m.Name),
				"name collides with a member every object class carries"))
		}
	}
}

// generatedMembers are the object members the bindings always declare,
// lowercased without underscores.
var generatedMembers = map[string]bool{
	"drop":               true,
	"unifficlonepointer": true,
}

// literal interprets a default written in the description.
func (r *resolver) literal(path []string, t *Type, node *yaml.Node) *Literal {
	if node.Kind == 0 || t == nil {
		return nil
	}
	invalid := func() *Literal {
		r.issues.Add(errors.Malformed(errors.PhaseResolve, path,
			fmt.Sprintf("default %q is not a valid %s", node.Value, t)))
		return nil
	}

	switch node.Kind {
	case yaml.SequenceNode:
		if t.Kind != KindSequence || len(node.Content) != 0 {
			return invalid()
		}
		return &Literal{Kind: LiteralEmptySequence}
	case yaml.MappingNode:
		if t.Kind != KindMap || len(node.Content) != 0 {
			return invalid()
		}
		return &Literal{Kind: LiteralEmptyMap}
	case yaml.ScalarNode:
		lit, ok := literalFor(t, node.ShortTag(), node.Value)
		if !ok {
			return invalid()
		}
		if lit.Kind == LiteralEnum {
			target := t
			for target.Kind == KindOptional {
				target = target.Inner
			}
			r.deferred = append(r.deferred, func() {
				// error enums render as exception classes, which have no variant constants
				en, _ := r.iface.Enum(target.Name)
				if en == nil || en.IsError || !en.IsFlat() || !hasVariant(en, lit.String) {
					invalid()
				}
			})
		}
		return lit
	}
	return invalid()
}

func hasVariant(e *Enum, name string) bool {
	for _, v := range e.Variants {
		if v.Name == name {
			return true
		}
	}
	return false
}
