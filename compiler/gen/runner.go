package gen

import (
	"context"
	"fmt"

	"github.com/pgforge/pgforge/capability"
	"github.com/pgforge/pgforge/compiler/plugin"
	"github.com/pgforge/pgforge/schema"
)

// run is the shared state of one generation pass. Plugins only ever append
// to it through their contexts; nothing is mutated or removed once added.
type run struct {
	schema    *schema.Schema
	hints     *schema.Hints
	decls     []DeclaredSymbol
	registry  *SymbolRegistry
	artifacts []Artifact
}

// Result is the outcome of a successful generation pass, before any file
// is written.
type Result struct {
	// Order is the plugin execution order chosen during preparation.
	Order []string
	// Declarations are all declared symbols, in declaration order.
	Declarations []DeclaredSymbol
	// Rendered are the rendered symbols, in render order.
	Rendered []RenderedRecord
	// Registry is the finalized symbol registry.
	Registry *SymbolRegistry
	// Artifacts are the ad-hoc files emitted outside file assignment.
	Artifacts []Artifact

	cfg *Config
}

// OutputDir reports the output root configured for the run, for the caller
// to hand to the file writer. Empty when none was configured.
func (r *Result) OutputDir() string {
	if r.cfg == nil {
		return ""
	}
	return r.cfg.OutputDir
}

// Generator runs configured plugins over an input model in two strictly
// sequential phases. Any failure aborts the run; there is no retry and no
// partial output.
type Generator struct {
	cfg *Config
}

// NewGenerator creates a generator with the given config. A nil config
// gets the defaults. The caller's config is copied before defaults are
// filled in, so it is never written to.
func NewGenerator(cfg *Config) *Generator {
	c := Config{DefaultFile: DefaultFile}
	if cfg != nil {
		c = *cfg
	}
	if c.DefaultFile == "" {
		c.DefaultFile = DefaultFile
	}
	if c.Hints == nil {
		c.Hints = schema.NewHints()
	}
	return &Generator{cfg: &c}
}

// Generate is a convenience wrapper building the config from options and
// running the plugins in one call.
func Generate(ctx context.Context, sc *schema.Schema, plugins []ConfiguredPlugin, opts ...Option) (*Result, error) {
	cfg, err := NewConfig(opts...)
	if err != nil {
		return nil, err
	}
	return NewGenerator(cfg).Run(ctx, sc, plugins)
}

// Run executes the pipeline: preparation, the declare phase across all
// plugins, declaration validation and registration, then the render phase.
func (g *Generator) Run(ctx context.Context, sc *schema.Schema, plugins []ConfiguredPlugin) (*Result, error) {
	ordered, err := plugin.Prepare(asDescriptors(plugins))
	if err != nil {
		return nil, err
	}

	// Preparation reorders by dependency; map back to the full plugin
	// values by name.
	byName := make(map[string]ConfiguredPlugin, len(plugins))
	for _, p := range plugins {
		byName[p.Plugin.Name()] = p
	}
	execution := make([]ConfiguredPlugin, len(ordered))
	order := make([]string, len(ordered))
	for i, d := range ordered {
		execution[i] = byName[d.Name()]
		order[i] = d.Name()
	}

	r := &run{
		schema:   sc,
		hints:    g.cfg.Hints,
		registry: NewSymbolRegistry(),
	}
	assigner := NewAssigner(g.cfg.Rules, g.cfg.DefaultFile)

	declaredBy, err := g.declarePhase(ctx, r, execution, assigner)
	if err != nil {
		return nil, err
	}
	if err := g.checkConsumed(execution, declaredBy); err != nil {
		return nil, err
	}
	if err := checkDeclarationCycles(r.decls); err != nil {
		return nil, err
	}

	rendered, err := g.renderPhase(ctx, r, execution)
	if err != nil {
		return nil, err
	}
	if err := checkArtifacts(r.artifacts); err != nil {
		return nil, err
	}

	return &Result{
		Order:        order,
		Declarations: r.decls,
		Rendered:     rendered,
		Registry:     r.registry,
		Artifacts:    r.artifacts,
		cfg:          g.cfg,
	}, nil
}

// declarePhase runs every plugin's declare step in execution order,
// assigns each declaration its output file and registers it. It returns
// the execution index of the first plugin declaring each capability, for
// the consumed-capability check.
func (g *Generator) declarePhase(ctx context.Context, r *run, execution []ConfiguredPlugin, assigner *Assigner) (map[string]int, error) {
	declaredBy := make(map[string]int, len(execution))
	for i, p := range execution {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := p.Plugin.Name()
		dctx := &DeclareContext{ctx: ctx, run: r, plugin: name, config: p.Config}
		decls, err := callDeclare(p.Plugin, dctx)
		if err != nil {
			return nil, err
		}
		for _, d := range decls {
			if d.Name == "" {
				return nil, &DeclareError{Plugin: name, Message: "declaration with empty symbol name"}
			}
			if d.Capability.IsZero() {
				return nil, &DeclareError{Plugin: name,
					Message: fmt.Sprintf("declaration %q has no capability", d.Name)}
			}
			file := assigner.FileFor(d.Capability)
			if err := r.registry.Register(RegistryEntry{
				Name:       d.Name,
				File:       file,
				Capability: d.Capability,
				Plugin:     name,
			}); err != nil {
				return nil, err
			}
			r.decls = append(r.decls, DeclaredSymbol{Declaration: d, Plugin: name, File: file})
			if _, ok := declaredBy[d.Capability.String()]; !ok {
				declaredBy[d.Capability.String()] = i
			}
		}
	}
	return declaredBy, nil
}

// checkConsumed verifies that every consumed capability left unresolved at
// preparation now resolves to a symbol declared by an earlier or equal
// plugin. Consumption is a soft dependency against plugins but a hard one
// against declarations.
func (g *Generator) checkConsumed(execution []ConfiguredPlugin, declaredBy map[string]int) error {
	provided := capability.NewSet()
	for _, p := range execution {
		for _, c := range p.Plugin.Provides() {
			provided.Add(c)
		}
	}
	for i, p := range execution {
		consumer, ok := p.Plugin.(plugin.Consumer)
		if !ok {
			continue
		}
		for _, c := range consumer.Consumes() {
			if provided.Satisfies(c) {
				continue
			}
			if j, ok := resolveDeclared(declaredBy, c); ok && j <= i {
				continue
			}
			return &UnsatisfiedError{Capability: c, Plugin: p.Plugin.Name()}
		}
	}
	return nil
}

// resolveDeclared finds the execution index of the plugin that first
// declared a symbol satisfying c, exact match before hierarchical.
func resolveDeclared(declaredBy map[string]int, c capability.Capability) (int, bool) {
	if i, ok := declaredBy[c.String()]; ok {
		return i, true
	}
	best, found := 0, false
	for raw, i := range declaredBy {
		d, err := capability.Parse(raw)
		if err != nil {
			continue
		}
		if d.Implies(c) && (!found || i < best) {
			best, found = i, true
		}
	}
	return best, found
}

// checkDeclarationCycles validates the secondary dependency graph between
// declared symbols. Every depended-on capability must resolve to some
// declaration, and the edges must form a DAG.
func checkDeclarationCycles(decls []DeclaredSymbol) error {
	byCapability := make(map[string]int, len(decls))
	for i, d := range decls {
		byCapability[d.Capability.String()] = i
	}
	resolve := func(c capability.Capability) (int, bool) {
		if i, ok := byCapability[c.String()]; ok {
			return i, true
		}
		for i, d := range decls {
			if d.Capability.Implies(c) {
				return i, true
			}
		}
		return 0, false
	}

	n := len(decls)
	succ := make([][]int, n)
	pred := make([][]int, n)
	indegree := make([]int, n)
	for i, d := range decls {
		for _, dep := range d.DependsOn {
			j, ok := resolve(dep)
			if !ok {
				return &UnsatisfiedError{Capability: dep, Plugin: d.Plugin}
			}
			if j == i {
				continue
			}
			succ[j] = append(succ[j], i)
			pred[i] = append(pred[i], j)
			indegree[i]++
		}
	}

	placed := make([]bool, n)
	for remaining := n; remaining > 0; {
		next := -1
		for i := 0; i < n; i++ {
			if !placed[i] && indegree[i] == 0 {
				next = i
				break
			}
		}
		if next < 0 {
			return &CircularError{Cycle: declarationCycle(decls, placed, pred)}
		}
		placed[next] = true
		remaining--
		for _, j := range succ[next] {
			indegree[j]--
		}
	}
	return nil
}

// declarationCycle walks predecessor edges among unplaced declarations
// until a node repeats, then reports the loop in dependency order.
func declarationCycle(decls []DeclaredSymbol, placed []bool, pred [][]int) []string {
	start := -1
	for i := range decls {
		if !placed[i] {
			start = i
			break
		}
	}
	if start < 0 {
		return nil
	}
	seen := make(map[int]int)
	var path []int
	for at := start; ; {
		if pos, ok := seen[at]; ok {
			loop := path[pos:]
			out := make([]string, 0, len(loop)+1)
			for i := len(loop) - 1; i >= 0; i-- {
				out = append(out, decls[loop[i]].Capability.String())
			}
			out = append(out, out[0])
			return out
		}
		seen[at] = len(path)
		path = append(path, at)
		next := -1
		for _, p := range pred[at] {
			if !placed[p] {
				next = p
				break
			}
		}
		if next < 0 {
			return []string{decls[at].Capability.String()}
		}
		at = next
	}
}

// renderPhase runs every plugin's render step in execution order and
// checks each rendered symbol against the plugin's own declarations.
func (g *Generator) renderPhase(ctx context.Context, r *run, execution []ConfiguredPlugin) ([]RenderedRecord, error) {
	// Global declaration index per (plugin, capability), to order symbols
	// within a file by declaration order at emit time.
	declIndex := make(map[string]int, len(r.decls))
	for i, d := range r.decls {
		declIndex[d.Plugin+"\x00"+d.Capability.String()] = i
	}

	var rendered []RenderedRecord
	renderedDecl := make(map[string]bool, len(r.decls))
	for _, p := range execution {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := p.Plugin.Name()
		rctx := &RenderContext{ctx: ctx, run: r, plugin: name, config: p.Config}
		symbols, err := callRender(p.Plugin, rctx)
		if err != nil {
			return nil, err
		}
		for _, s := range symbols {
			key := name + "\x00" + s.Capability.String()
			idx, ok := declIndex[key]
			if !ok {
				return nil, &RenderError{Plugin: name, Symbol: s.Name,
					Message: fmt.Sprintf("rendered capability %q was never declared by this plugin", s.Capability)}
			}
			if d := r.decls[idx]; d.Name != s.Name {
				return nil, &RenderError{Plugin: name, Symbol: s.Name,
					Message: fmt.Sprintf("rendered name does not match declared name %q for capability %q", d.Name, s.Capability)}
			}
			if renderedDecl[key] {
				return nil, &RenderError{Plugin: name, Symbol: s.Name,
					Message: fmt.Sprintf("capability %q rendered twice", s.Capability)}
			}
			renderedDecl[key] = true
			rendered = append(rendered, RenderedRecord{
				RenderedSymbol: s,
				Plugin:         name,
				File:           r.decls[idx].File,
				declIndex:      idx,
			})
		}
	}
	return rendered, nil
}

// checkArtifacts fails when two plugins emitted different content to the
// literal same path. Identical content from multiple plugins is tolerated
// and written once.
func checkArtifacts(artifacts []Artifact) error {
	type first struct {
		content string
		plugins []string
	}
	byPath := make(map[string]*first)
	for _, a := range artifacts {
		f, ok := byPath[a.Path]
		if !ok {
			byPath[a.Path] = &first{content: a.Content, plugins: []string{a.Plugin}}
			continue
		}
		if f.content != a.Content {
			return &EmitConflictError{Path: a.Path, Plugins: append(f.plugins, a.Plugin)}
		}
		f.plugins = append(f.plugins, a.Plugin)
	}
	return nil
}

func callDeclare(p Plugin, ctx *DeclareContext) (decls []Declaration, err error) {
	defer func() {
		if v := recover(); v != nil {
			err = &PluginError{Plugin: p.Name(), Cause: fmt.Errorf("declare panicked: %v", v)}
		}
	}()
	decls, derr := p.Declare(ctx)
	if derr != nil {
		return nil, &DeclareError{Plugin: p.Name(), Message: derr.Error(), Cause: derr}
	}
	return decls, nil
}

func callRender(p Plugin, ctx *RenderContext) (symbols []RenderedSymbol, err error) {
	defer func() {
		if v := recover(); v != nil {
			err = &PluginError{Plugin: p.Name(), Cause: fmt.Errorf("render panicked: %v", v)}
		}
	}()
	symbols, rerr := p.Render(ctx)
	if rerr != nil {
		if IsUnsatisfiedError(rerr) {
			return nil, rerr
		}
		return nil, &RenderError{Plugin: p.Name(), Message: rerr.Error(), Cause: rerr}
	}
	return symbols, nil
}
