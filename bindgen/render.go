package bindgen

import (
	"strings"

	"go.uber.org/zap"

	"github.com/acterglobal/uniffi-dart-sub000/bindgen/internal/emit"
	"github.com/acterglobal/uniffi-dart-sub000/config"
	"github.com/acterglobal/uniffi-dart-sub000/errors"
	"github.com/acterglobal/uniffi-dart-sub000/model"
)

// Section names, in file order.
const (
	SectionPreamble  = "preamble"
	SectionSupport   = "support"
	SectionTypes     = "types"
	SectionFunctions = "functions"
	SectionLoader    = "loader"
)

// Section is one contiguous part of the generated file.
type Section struct {
	Name string
	Text string
}

// renderConverter writes the converter (and the type declaration, for
// definitions) of one demanded code type.
func renderConverter(c *Context, w *emit.Writer, ct *CodeType) error {
	k := ct.Type.Kind
	if _, ok := primitives[k]; ok {
		renderPrimitive(w, ct)
		return nil
	}
	switch k {
	case model.KindString:
		renderString(w, ct)
	case model.KindBytes:
		renderBytes(w, ct)
	case model.KindDuration:
		renderDuration(w, ct)
	case model.KindTimestamp:
		renderTimestamp(w, ct)
	case model.KindOptional:
		return renderOptional(c, w, ct)
	case model.KindSequence:
		return renderSequence(c, w, ct)
	case model.KindMap:
		return renderMap(c, w, ct)
	case model.KindRecord:
		return renderRecord(c, w, ct)
	case model.KindEnum:
		return renderEnum(c, w, ct)
	case model.KindObject:
		return renderObject(c, w, ct)
	case model.KindCallbackInterface:
		return renderCallbackInterface(c, w, ct)
	case model.KindCustom:
		return renderCustom(c, w, ct)
	case model.KindExternal:
		return renderExternal(c, w, ct)
	default:
		return errors.UnknownType([]string{"converter " + ct.Converter()}, ct.Type.String())
	}
	return nil
}

// Render generates the bindings for iface as ordered sections. The file
// text is the concatenation of the section texts.
func Render(iface *model.Interface, cfg *config.Config) ([]Section, error) {
	if cfg == nil {
		cfg = config.Default(iface.Namespace.Name)
	}
	c := newContext(iface, cfg)

	runtime := emit.New()
	if err := renderPreamble(c, runtime); err != nil {
		return nil, err
	}

	types := emit.New()
	demand := func(t *model.Type, path string) error {
		if _, err := c.Demand(t); err != nil {
			return wrapRender(err, path)
		}
		return c.drain(types)
	}
	for _, r := range iface.Records {
		if err := demand(model.Named(model.KindRecord, r.Name), "record "+r.Name); err != nil {
			return nil, err
		}
	}
	for _, e := range iface.Enums {
		if err := demand(model.Named(model.KindEnum, e.Name), "enum "+e.Name); err != nil {
			return nil, err
		}
	}
	for _, o := range iface.Objects {
		if err := demand(model.Named(model.KindObject, o.Name), "object "+o.Name); err != nil {
			return nil, err
		}
	}
	for _, cb := range iface.CallbackInterfaces {
		if err := demand(model.Named(model.KindCallbackInterface, cb.Name), "callback interface "+cb.Name); err != nil {
			return nil, err
		}
	}
	for _, ct := range iface.CustomTypes {
		if err := demand(model.Named(model.KindCustom, ct.Name), "custom type "+ct.Name); err != nil {
			return nil, err
		}
	}
	for _, ext := range iface.ExternalTypes {
		t := &model.Type{Kind: model.KindExternal, Name: ext.Name, Crate: ext.Crate}
		if err := demand(t, "external type "+ext.Name); err != nil {
			return nil, err
		}
	}

	functions := emit.New()
	if err := renderFunctions(c, functions); err != nil {
		return nil, err
	}
	if err := c.drain(types); err != nil {
		return nil, err
	}

	loader := emit.New()
	renderLoader(c, loader)

	// imports are complete only once every converter has been rendered
	preamble := emit.New()
	renderHeader(c, preamble)
	preamble.Append(runtime)

	sections := []Section{{Name: SectionPreamble, Text: preamble.String()}}
	if c.support.Len() > 0 {
		sections = append(sections, Section{Name: SectionSupport, Text: c.support.String()})
	}
	sections = append(sections,
		Section{Name: SectionTypes, Text: types.String()},
		Section{Name: SectionFunctions, Text: functions.String()},
		Section{Name: SectionLoader, Text: loader.String()},
	)
	Logger().Debug("rendered bindings",
		zap.String("namespace", iface.Namespace.Name),
		zap.Int("converters", len(c.emitted)),
		zap.Int("symbols", len(c.symbols)))
	return sections, nil
}

// Generate renders the whole file.
func Generate(iface *model.Interface, cfg *config.Config) (string, error) {
	sections, err := Render(iface, cfg)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, s := range sections {
		b.WriteString(s.Text)
	}
	return strings.TrimRight(b.String(), "\n") + "\n", nil
}
