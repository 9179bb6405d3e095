package bindgen

import (
	"strings"
	"unicode"
)

// reserved holds Dart keywords and the core library names the generated
// file relies on. Identifiers that collide get a trailing underscore.
var reserved = map[string]bool{
	"abstract": true, "as": true, "assert": true, "async": true, "await": true,
	"break": true, "case": true, "catch": true, "class": true, "const": true,
	"continue": true, "covariant": true, "default": true, "deferred": true,
	"do": true, "dynamic": true, "else": true, "enum": true, "export": true,
	"extends": true, "extension": true, "external": true, "factory": true,
	"false": true, "final": true, "finally": true, "for": true, "Function": true,
	"get": true, "hide": true, "if": true, "implements": true, "import": true,
	"in": true, "interface": true, "is": true, "late": true, "library": true,
	"mixin": true, "new": true, "null": true, "on": true, "operator": true,
	"part": true, "required": true, "rethrow": true, "return": true,
	"sealed": true, "set": true, "show": true, "static": true, "super": true,
	"switch": true, "sync": true, "this": true, "throw": true, "true": true,
	"try": true, "typedef": true, "var": true, "void": true, "when": true,
	"while": true, "with": true, "yield": true,

	"Object": true, "String": true, "List": true, "Map": true, "Set": true,
	"Duration": true, "DateTime": true, "Uint8List": true, "Pointer": true,
	"Struct": true, "Future": true, "Stream": true, "Exception": true,
	"Error": true, "Type": true, "Uri": true,
}

// sanitize appends an underscore to identifiers Dart would reject.
func sanitize(name string) string {
	if reserved[name] {
		return name + "_"
	}
	return name
}

// words splits an interface identifier on underscores, dashes and spaces.
func words(name string) []string {
	return strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-' || r == ' ' || r == '.'
	})
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// upperCamel converts snake_case or already-camel names to UpperCamelCase.
func upperCamel(name string) string {
	var b strings.Builder
	for _, w := range words(name) {
		b.WriteString(capitalize(w))
	}
	return b.String()
}

// lowerCamel converts a name to lowerCamelCase. A leading run of capitals
// is lowered as a unit, so "URLPath" becomes "urlPath".
func lowerCamel(name string) string {
	r := []rune(upperCamel(name))
	for i := 0; i < len(r) && unicode.IsUpper(r[i]); i++ {
		if i > 0 && i+1 < len(r) && unicode.IsLower(r[i+1]) {
			break
		}
		r[i] = unicode.ToLower(r[i])
	}
	return string(r)
}

// ClassName is the Dart name of a record, enum, object or callback
// interface.
func ClassName(name string) string {
	return sanitize(upperCamel(name))
}

// ErrorName is the Dart name of an error enum: a trailing "Error" becomes
// "Exception".
func ErrorName(name string) string {
	n := upperCamel(name)
	if strings.HasSuffix(n, "Error") {
		n = strings.TrimSuffix(n, "Error") + "Exception"
	}
	return sanitize(n)
}

// FunctionName is the Dart name of a function or method.
func FunctionName(name string) string {
	return sanitize(lowerCamel(name))
}

// VarName is the Dart name of an argument, field or local.
func VarName(name string) string {
	return sanitize(lowerCamel(name))
}

// EnumVariantName is the Dart name of a flat enum value.
func EnumVariantName(name string) string {
	return sanitize(lowerCamel(name))
}

// VariantClassName is the Dart name of one subclass of a sealed enum.
func VariantClassName(variant, parent string) string {
	return upperCamel(variant) + parent
}
