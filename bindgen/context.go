package bindgen

import (
	"go.uber.org/zap"

	"github.com/acterglobal/uniffi-dart-sub000/bindgen/internal/emit"
	"github.com/acterglobal/uniffi-dart-sub000/config"
	"github.com/acterglobal/uniffi-dart-sub000/model"
)

// Context is the mutable state of one generation run. It is created by
// Render and discarded when Render returns.
type Context struct {
	iface *model.Interface
	cfg   *config.Config
	types *Registry

	emitted map[string]bool // converter canonical names already rendered
	queued  map[string]bool
	queue   []*CodeType

	helpers map[string]bool // shared runtime helpers already rendered
	support *emit.Writer    // helper text, placed after the preamble

	imports   []string
	importSet map[string]bool

	symbols map[string]bool // loader members already bound
}

func newContext(iface *model.Interface, cfg *config.Config) *Context {
	return &Context{
		iface:     iface,
		cfg:       cfg,
		types:     NewRegistry(iface, cfg.ExternalPackage),
		emitted:   make(map[string]bool),
		queued:    make(map[string]bool),
		helpers:   make(map[string]bool),
		support:   emit.New(),
		importSet: make(map[string]bool),
		symbols:   make(map[string]bool),
	}
}

// Demand resolves t and schedules its converter for rendering unless it
// was already emitted or scheduled. The returned code type is usable
// immediately; the converter text follows when the queue is drained.
func (c *Context) Demand(t *model.Type) (*CodeType, error) {
	ct, err := c.types.Of(t)
	if err != nil {
		return nil, err
	}
	if c.emitted[ct.Canonical] || c.queued[ct.Canonical] {
		return ct, nil
	}
	c.queued[ct.Canonical] = true
	c.queue = append(c.queue, ct)
	Logger().Debug("converter demanded", zap.String("converter", ct.Converter()))
	return ct, nil
}

// next pops the oldest pending converter.
func (c *Context) next() (*CodeType, bool) {
	if len(c.queue) == 0 {
		return nil, false
	}
	ct := c.queue[0]
	c.queue = c.queue[1:]
	return ct, true
}

// drain renders every pending converter into w, including converters
// demanded while rendering.
func (c *Context) drain(w *emit.Writer) error {
	for {
		ct, ok := c.next()
		if !ok {
			return nil
		}
		if c.emitted[ct.Canonical] {
			continue
		}
		c.emitted[ct.Canonical] = true
		if err := renderConverter(c, w, ct); err != nil {
			return err
		}
		Logger().Debug("converter emitted", zap.String("converter", ct.Converter()))
	}
}

// Emitted reports whether the converter with the given canonical name has
// been rendered.
func (c *Context) Emitted(canonical string) bool {
	return c.emitted[canonical]
}

// helper renders a shared runtime helper the first time it is needed.
func (c *Context) helper(w *emit.Writer, name string, render func(w *emit.Writer)) {
	if c.helpers[name] {
		return
	}
	c.helpers[name] = true
	render(w)
}

// AddImport records a Dart import. Order of first use is kept.
func (c *Context) AddImport(uri string) {
	if uri == "" || c.importSet[uri] {
		return
	}
	c.importSet[uri] = true
	c.imports = append(c.imports, uri)
}

// Imports returns the recorded imports in order of first use.
func (c *Context) Imports() []string {
	return append([]string(nil), c.imports...)
}

// bindSymbol claims a loader member name. It reports false when the
// symbol is already bound.
func (c *Context) bindSymbol(name string) bool {
	if c.symbols[name] {
		Logger().Debug("duplicate symbol dropped", zap.String("symbol", name))
		return false
	}
	c.symbols[name] = true
	return true
}
