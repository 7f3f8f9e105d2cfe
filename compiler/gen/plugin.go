package gen

import (
	"context"

	"github.com/pgforge/pgforge/capability"
	"github.com/pgforge/pgforge/compiler/plugin"
	"github.com/pgforge/pgforge/schema"
)

// Plugin is the contract a generator implements to plug into the engine.
// Optional facets — hard requirements, soft consumption, a config schema —
// are declared by additionally implementing plugin.Requirer,
// plugin.Consumer and plugin.ConfigSchemer; the engine detects them via
// type assertion.
type Plugin interface {
	// Name returns the plugin name, unique within a run.
	Name() string
	// Provides returns the capabilities the plugin contributes.
	Provides() []capability.Capability
	// Declare announces the symbols the plugin will render, before any code
	// exists. It runs once, in execution order, and sees the input model
	// and nothing else.
	Declare(ctx *DeclareContext) ([]Declaration, error)
	// Render produces the code fragment for each declared symbol. It may
	// consult the symbol registry to reference other plugins' declarations.
	Render(ctx *RenderContext) ([]RenderedSymbol, error)
}

// ConfiguredPlugin pairs a plugin with its raw config payload.
type ConfiguredPlugin struct {
	Plugin Plugin
	Config any
}

// Configure is a convenience constructor for a plugin with a config payload.
func Configure(p Plugin, config any) ConfiguredPlugin {
	return ConfiguredPlugin{Plugin: p, Config: config}
}

// Declaration is a named, capability-tagged placeholder for a code unit,
// created before its code is generated.
type Declaration struct {
	// Name is the symbol name, unique within its output file.
	Name string
	// Capability tags the symbol; consumers reference it by this string.
	Capability capability.Capability
	// DependsOn lists capabilities of other declared symbols this one needs.
	// The edges form a secondary graph checked for cycles independently of
	// the plugin graph.
	DependsOn []capability.Capability
}

// RenderedSymbol is the generated code fragment plus metadata for a
// previously declared symbol.
type RenderedSymbol struct {
	// Name must equal the declared symbol name.
	Name string
	// Capability must match a prior declaration of the rendering plugin.
	Capability capability.Capability
	// Node is the printable fragment, or nil for declarations that exist
	// purely for bookkeeping.
	Node Node
	// Export controls how the emitter exports the symbol from its file.
	Export Export
	// ExternalImports are package-level imports the fragment needs.
	ExternalImports []ExternalImport
	// RenderWithImports lists capabilities the fragment references that may
	// require a cross-file import, resolved by the emitter.
	RenderWithImports []capability.Capability
}

// DeclaredSymbol is a declaration annotated with its origin and assigned
// output file, as recorded by the run.
type DeclaredSymbol struct {
	Declaration
	// Plugin is the declaring plugin.
	Plugin string
	// File is the output file assigned from the declaration's capability.
	File string
}

// RenderedRecord is a rendered symbol annotated with its origin and
// assigned file.
type RenderedRecord struct {
	RenderedSymbol
	Plugin string
	File   string

	// declIndex orders symbols within a file by declaration order.
	declIndex int
}

// Artifact is an ad-hoc file emitted by a plugin outside file assignment.
type Artifact struct {
	Plugin  string
	Path    string
	Content string
}

// DeclareContext is the context passed to a plugin's declare step. It
// exposes the input model and the plugin's validated config payload, and
// nothing else.
type DeclareContext struct {
	ctx    context.Context
	run    *run
	plugin string
	config any
}

// Context returns the run's context.
func (c *DeclareContext) Context() context.Context { return c.ctx }

// Schema returns the read-only input model.
func (c *DeclareContext) Schema() *schema.Schema { return c.run.schema }

// Hints returns the field-level type-hint rules configured for the run.
func (c *DeclareContext) Hints() *schema.Hints { return c.run.hints }

// Config returns the plugin's raw config payload, already validated
// against its schema during preparation.
func (c *DeclareContext) Config() any { return c.config }

// RenderContext is the context passed to a plugin's render step. On top of
// the declare context it can resolve handles to declared symbols and emit
// ad-hoc artifacts.
type RenderContext struct {
	ctx    context.Context
	run    *run
	plugin string
	config any
}

// Context returns the run's context.
func (c *RenderContext) Context() context.Context { return c.ctx }

// Schema returns the read-only input model.
func (c *RenderContext) Schema() *schema.Schema { return c.run.schema }

// Hints returns the field-level type-hint rules configured for the run.
func (c *RenderContext) Hints() *schema.Hints { return c.run.hints }

// Config returns the plugin's raw config payload.
func (c *RenderContext) Config() any { return c.config }

// Declarations returns every symbol declared during the run, in
// declaration order.
func (c *RenderContext) Declarations() []DeclaredSymbol {
	out := make([]DeclaredSymbol, len(c.run.decls))
	copy(out, c.run.decls)
	return out
}

// Registry returns the run's symbol registry for read access.
func (c *RenderContext) Registry() *SymbolRegistry { return c.run.registry }

// Ref resolves a capability to a handle on the declared symbol providing
// it. The handle's identifier is stable regardless of whether the emitter
// later satisfies the reference locally or through a cross-file import;
// list the capability in RenderWithImports to get the import when needed.
func (c *RenderContext) Ref(cap capability.Capability) (*Handle, error) {
	entry, ok := c.run.registry.Resolve(cap)
	if !ok {
		return nil, &UnsatisfiedError{Capability: cap, Plugin: c.plugin}
	}
	return &Handle{capability: cap, entry: entry}, nil
}

// EmitFile appends an ad-hoc artifact to the run's emission buffer,
// bypassing file assignment. Two plugins writing different content to the
// same raw path fail the run at emit time.
func (c *RenderContext) EmitFile(path, content string) {
	c.run.artifacts = append(c.run.artifacts, Artifact{Plugin: c.plugin, Path: path, Content: content})
}

// Handle is a reference to a declared symbol, resolved by capability. The
// decision whether the reference is same-file or cross-file belongs to the
// emitter; the handle only exposes the stable identifier.
type Handle struct {
	capability capability.Capability
	entry      RegistryEntry
}

// Ident returns the identifier to reference the target symbol by.
func (h *Handle) Ident() string { return h.entry.Name }

// Capability returns the capability the handle was resolved from.
func (h *Handle) Capability() capability.Capability { return h.capability }

// File returns the output file the target symbol is assigned to.
func (h *Handle) File() string { return h.entry.File }

// asDescriptors converts configured gen plugins into the narrower
// preparation representation.
func asDescriptors(plugins []ConfiguredPlugin) []plugin.Configured {
	out := make([]plugin.Configured, len(plugins))
	for i, p := range plugins {
		out[i] = plugin.Configured{Descriptor: p.Plugin, Config: p.Config}
	}
	return out
}
