// Package httprouter generates a framework-agnostic HTTP route table per
// entity, filtered by the statement-level grants of a configured role and
// wired to the zod validators for request and response payloads.
package httprouter

import (
	"fmt"
	"strings"

	"github.com/pgforge/pgforge/capability"
	"github.com/pgforge/pgforge/compiler/gen"
	"github.com/pgforge/pgforge/compiler/plugin"
	"github.com/pgforge/pgforge/names"
	"github.com/pgforge/pgforge/plugins/zodschemas"
	"github.com/pgforge/pgforge/schema"
)

// Name is the plugin name.
const Name = "http-router"

const configSchema = `#Config: {
	// role is the database role whose grants gate the generated routes.
	role: string | *"anonymous"
	// prefix is prepended to every route path.
	prefix: string | *"/api"
	// includeViews adds read-only routes for database views.
	includeViews: bool | *true
}`

// Config is the validated plugin configuration.
type Config struct {
	Role         string `json:"role"`
	Prefix       string `json:"prefix"`
	IncludeViews bool   `json:"includeViews"`
}

// Plugin generates per-entity route tables plus an aggregate router under
// the "router" capability root.
type Plugin struct{}

// New returns the plugin.
func New() *Plugin { return &Plugin{} }

// Name implements gen.Plugin.
func (*Plugin) Name() string { return Name }

// Provides implements gen.Plugin.
func (*Plugin) Provides() []capability.Capability {
	return []capability.Capability{capability.MustParse("router")}
}

// Requires implements plugin.Requirer.
func (*Plugin) Requires() []capability.Capability {
	return []capability.Capability{capability.MustParse("type")}
}

// Consumes implements plugin.Consumer. The validators may come from any
// plugin declaring under schemas:zod, not necessarily the builtin one.
func (*Plugin) Consumes() []capability.Capability {
	return []capability.Capability{capability.MustParse("schemas:zod")}
}

// ConfigSchema implements plugin.ConfigSchemer.
func (*Plugin) ConfigSchema() string { return configSchema }

// RouterCapability returns the capability tagging the route table of an
// entity.
func RouterCapability(entity string) capability.Capability {
	return capability.MustParse("router:" + names.Pascal(entity))
}

// AppCapability is the capability of the aggregate router.
var AppCapability = capability.MustParse("router:app")

// Declare implements gen.Plugin.
func (p *Plugin) Declare(ctx *gen.DeclareContext) ([]gen.Declaration, error) {
	cfg, err := plugin.DecodeConfig[Config](Name, configSchema, ctx.Config())
	if err != nil {
		return nil, err
	}
	entities := included(ctx.Schema(), cfg)
	decls := make([]gen.Declaration, 0, len(entities)+1)
	appDeps := make([]capability.Capability, 0, len(entities))
	for _, e := range entities {
		c := RouterCapability(e.Name)
		decls = append(decls, gen.Declaration{
			Name:       names.Camel(e.Name) + "Routes",
			Capability: c,
			DependsOn:  []capability.Capability{zodschemas.SchemaCapability(e.Name)},
		})
		appDeps = append(appDeps, c)
	}
	decls = append(decls, gen.Declaration{
		Name:       "appRouter",
		Capability: AppCapability,
		DependsOn:  appDeps,
	})
	return decls, nil
}

// Render implements gen.Plugin.
func (p *Plugin) Render(ctx *gen.RenderContext) ([]gen.RenderedSymbol, error) {
	cfg, err := plugin.DecodeConfig[Config](Name, configSchema, ctx.Config())
	if err != nil {
		return nil, err
	}
	entities := included(ctx.Schema(), cfg)
	out := make([]gen.RenderedSymbol, 0, len(entities)+1)
	for _, e := range entities {
		sym, err := p.renderRoutes(ctx, cfg, e)
		if err != nil {
			return nil, err
		}
		out = append(out, sym)
	}
	appSym, err := p.renderApp(ctx, entities)
	if err != nil {
		return nil, err
	}
	return append(out, appSym), nil
}

func included(sc *schema.Schema, cfg *Config) []*schema.Entity {
	var out []*schema.Entity
	for _, e := range sc.Entities {
		if e.Kind == schema.KindTable || (e.Kind == schema.KindView && cfg.IncludeViews) {
			out = append(out, e)
		}
	}
	return out
}

type route struct {
	name, method, path string
	input, output      string
}

func (p *Plugin) renderRoutes(ctx *gen.RenderContext, cfg *Config, e *schema.Entity) (gen.RenderedSymbol, error) {
	schemaRef, err := ctx.Ref(zodschemas.SchemaCapability(e.Name))
	if err != nil {
		return gen.RenderedSymbol{}, err
	}
	validator := schemaRef.Ident()

	// Table names are taken verbatim as path segments; introspected names
	// are already plural by convention.
	base := cfg.Prefix + "/" + names.Snake(e.Name)
	keyed := base + "/:" + keyParam(e)

	var routes []route
	readable := e.Allowed(cfg.Role, "select")
	if readable {
		routes = append(routes,
			route{name: "list", method: "GET", path: base, output: "z.array(" + validator + ")"},
			route{name: "get", method: "GET", path: keyed, output: validator},
		)
	}
	if !e.IsView() {
		if e.Allowed(cfg.Role, "insert") {
			routes = append(routes, route{name: "create", method: "POST", path: base, input: validator, output: validator})
		}
		if e.Allowed(cfg.Role, "update") {
			routes = append(routes, route{name: "update", method: "PATCH", path: keyed, input: validator + ".partial()", output: validator})
		}
		if e.Allowed(cfg.Role, "delete") {
			routes = append(routes, route{name: "remove", method: "DELETE", path: keyed})
		}
	}

	name := names.Camel(e.Name) + "Routes"
	node := gen.FragmentFunc(func(pr *gen.Printer) (string, error) {
		var b strings.Builder
		fmt.Fprintf(&b, "const %s = {\n", name)
		for _, r := range routes {
			fmt.Fprintf(&b, "%s%s: { method: %q, path: %q", pr.Indent, r.name, r.method, r.path)
			if r.input != "" {
				fmt.Fprintf(&b, ", input: %s", r.input)
			}
			if r.output != "" {
				fmt.Fprintf(&b, ", output: %s", r.output)
			}
			b.WriteString(" },\n")
		}
		b.WriteString("} as const;")
		return b.String(), nil
	})

	sym := gen.RenderedSymbol{
		Name:              name,
		Capability:        RouterCapability(e.Name),
		Node:              node,
		Export:            gen.ExportNamed,
		RenderWithImports: []capability.Capability{zodschemas.SchemaCapability(e.Name)},
	}
	if readable {
		// z.array wraps the list response validator.
		sym.ExternalImports = []gen.ExternalImport{{Package: "zod", Names: []string{"z"}}}
	}
	return sym, nil
}

func (p *Plugin) renderApp(ctx *gen.RenderContext, entities []*schema.Entity) (gen.RenderedSymbol, error) {
	type mount struct {
		key, ident string
	}
	mounts := make([]mount, 0, len(entities))
	deps := make([]capability.Capability, 0, len(entities))
	for _, e := range entities {
		h, err := ctx.Ref(RouterCapability(e.Name))
		if err != nil {
			return gen.RenderedSymbol{}, err
		}
		mounts = append(mounts, mount{key: names.Camel(e.Name), ident: h.Ident()})
		deps = append(deps, RouterCapability(e.Name))
	}
	node := gen.FragmentFunc(func(pr *gen.Printer) (string, error) {
		var b strings.Builder
		b.WriteString("const appRouter = {\n")
		for _, m := range mounts {
			fmt.Fprintf(&b, "%s%s: %s,\n", pr.Indent, m.key, m.ident)
		}
		b.WriteString("} as const;")
		return b.String(), nil
	})
	return gen.RenderedSymbol{
		Name:              "appRouter",
		Capability:        AppCapability,
		Node:              node,
		Export:            gen.ExportNamed,
		RenderWithImports: deps,
	}, nil
}

// keyParam picks the path-parameter name: the single primary key column,
// or "id" for composite or missing keys.
func keyParam(e *schema.Entity) string {
	if len(e.PrimaryKey) == 1 {
		return names.Camel(e.PrimaryKey[0])
	}
	return "id"
}
