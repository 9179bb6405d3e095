package bindgen

import (
	"strings"

	"github.com/acterglobal/uniffi-dart-sub000/bindgen/internal/emit"
	"github.com/acterglobal/uniffi-dart-sub000/errors"
	"github.com/acterglobal/uniffi-dart-sub000/model"
)

// fieldInfo is a field resolved against the registry.
type fieldInfo struct {
	name    string // Dart identifier
	ct      *CodeType
	literal string // rendered default, empty when none
	docs    string
}

func resolveFields(c *Context, path []string, fields []*model.Field) ([]fieldInfo, error) {
	out := make([]fieldInfo, 0, len(fields))
	for _, f := range fields {
		ct, err := c.Demand(f.Type)
		if err != nil {
			return nil, wrapRender(err, append(path, "field "+f.Name)...)
		}
		fi := fieldInfo{name: VarName(f.Name), ct: ct, docs: f.Docs}
		if f.Default != nil {
			lit, err := c.types.Literal(f.Type, f.Default)
			if err != nil {
				return nil, wrapRender(err, append(path, "field "+f.Name)...)
			}
			fi.literal = lit
		}
		out = append(out, fi)
	}
	return out, nil
}

// trailingDefaults returns the index of the first field of the longest
// suffix whose fields all have defaults.
func trailingDefaults(fields []fieldInfo) int {
	i := len(fields)
	for i > 0 && fields[i-1].literal != "" {
		i--
	}
	return i
}

// constructorParams renders a positional parameter list; trailing
// defaulted fields become optional positional parameters.
func constructorParams(fields []fieldInfo, prefix string) string {
	split := trailingDefaults(fields)
	var required, optional []string
	for i, f := range fields {
		if i < split {
			required = append(required, prefix+f.name)
			continue
		}
		optional = append(optional, prefix+f.name+" = "+f.literal)
	}
	params := strings.Join(required, ", ")
	if len(optional) > 0 {
		if params != "" {
			params += ", "
		}
		params += "[" + strings.Join(optional, ", ") + "]"
	}
	return params
}

// renderValueMembers writes the fields, equality, hashCode and toString
// shared by records and enum variants.
func renderValueMembers(c *Context, w *emit.Writer, class string, fields []fieldInfo) {
	for _, f := range fields {
		if !c.cfg.OmitDocs {
			w.Doc(f.docs)
		}
		w.Linef("final %s %s;", f.ct.Label, f.name)
	}
	if len(fields) > 0 {
		w.Blank()
	}

	w.Line("@override")
	w.Block("bool operator ==(Object other) {", "}", func() {
		w.Block("if (identical(this, other)) {", "}", func() {
			w.Line("return true;")
		})
		if len(fields) == 0 {
			w.Linef("return other is %s;", class)
			return
		}
		w.Block("if (other is! "+class+") {", "}", func() {
			w.Line("return false;")
		})
		conds := make([]string, 0, len(fields))
		for _, f := range fields {
			conds = append(conds, "uniffiDeepEquals("+f.name+", other."+f.name+")")
		}
		w.Linef("return %s;", strings.Join(conds, " && "))
	})
	w.Blank()

	w.Line("@override")
	switch len(fields) {
	case 0:
		w.Linef("int get hashCode => %s.hashCode;", dartString(class))
	default:
		names := make([]string, 0, len(fields))
		for _, f := range fields {
			names = append(names, f.name)
		}
		w.Linef("int get hashCode => Object.hashAll([%s].map(uniffiDeepHash));", strings.Join(names, ", "))
	}
	w.Blank()

	w.Line("@override")
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f.name+": $"+f.name)
	}
	if len(parts) == 0 {
		w.Linef("String toString() => '%s';", class)
	} else {
		w.Linef("String toString() => '%s(%s)';", class, strings.Join(parts, ", "))
	}
}

// renderFieldReads writes the statements reading fields in declaration
// order from buf, starting at the local offset variable.
func renderFieldReads(w *emit.Writer, fields []fieldInfo) []string {
	values := make([]string, 0, len(fields))
	for _, f := range fields {
		local := f.name + "Lifted"
		w.Linef("final %s = %s;", local, f.ct.Read("uniffiView(buf, offset)"))
		w.Linef("offset += %s.bytesRead;", local)
		values = append(values, local+".value")
	}
	return values
}

// renderFieldWrites writes the statements writing fields of receiver.
func renderFieldWrites(w *emit.Writer, fields []fieldInfo, receiver string) {
	for _, f := range fields {
		w.Linef("offset += %s;", f.ct.Write(receiver+"."+f.name, "uniffiView(buf, offset)"))
	}
}

// fieldSizes renders the sum of the fields' allocation sizes.
func fieldSizes(fields []fieldInfo, receiver string) string {
	if len(fields) == 0 {
		return "0"
	}
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		terms = append(terms, f.ct.AllocationSize(receiver+"."+f.name))
	}
	return strings.Join(terms, " + ")
}

// renderRecord writes the immutable Dart class and its converter.
func renderRecord(c *Context, w *emit.Writer, ct *CodeType) error {
	rec, ok := c.iface.Record(ct.Type.Name)
	if !ok {
		return errors.MissingDefinition([]string{"record"}, ct.Type.Name)
	}
	path := []string{"record " + rec.Name}
	fields, err := resolveFields(c, path, rec.Fields)
	if err != nil {
		return err
	}
	class := ct.Label

	if !c.cfg.OmitDocs {
		w.Doc(rec.Docs)
	}
	w.Block("class "+class+" {", "}", func() {
		renderValueMembers(c, w, class, fields)
		w.Blank()
		w.Linef("%s(%s);", class, constructorParams(fields, "this."))
	})
	w.Blank()

	w.Block("class "+ct.Converter()+" {", "}", func() {
		renderBufferLiftLower(w, class)
		w.Block("static LiftRetVal<"+class+"> read(Uint8List buf) {", "}", func() {
			w.Line("var offset = 0;")
			values := renderFieldReads(w, fields)
			w.Linef("return LiftRetVal(%s(%s), offset);", class, strings.Join(values, ", "))
		})
		w.Blank()
		w.Block("static int allocationSize("+class+" value) {", "}", func() {
			w.Linef("return %s;", fieldSizes(fields, "value"))
		})
		w.Blank()
		w.Block("static int write("+class+" value, Uint8List buf) {", "}", func() {
			w.Line("var offset = 0;")
			renderFieldWrites(w, fields, "value")
			w.Line("return offset;")
		})
	})
	w.Blank()
	return nil
}

// wrapRender prefixes the path of a structured error.
func wrapRender(err error, path ...string) error {
	if e, ok := err.(*errors.Error); ok {
		cp := *e
		cp.Path = append(append([]string(nil), path...), e.Path...)
		return &cp
	}
	return err
}
