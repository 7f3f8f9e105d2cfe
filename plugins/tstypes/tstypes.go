// Package tstypes generates TypeScript row types and enum unions from the
// introspected model. It is the root provider most other plugins build on.
package tstypes

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pgforge/pgforge/capability"
	"github.com/pgforge/pgforge/compiler/gen"
	"github.com/pgforge/pgforge/compiler/plugin"
	"github.com/pgforge/pgforge/names"
	"github.com/pgforge/pgforge/schema"
)

// Name is the plugin name.
const Name = "ts-types"

const configSchema = `#Config: {
	// includeViews adds row types for database views.
	includeViews: bool | *true
	// includeEnums adds union types for enum entities.
	includeEnums: bool | *true
}`

// Config is the validated plugin configuration.
type Config struct {
	IncludeViews bool `json:"includeViews"`
	IncludeEnums bool `json:"includeEnums"`
}

// Plugin generates one TypeScript type per entity under the "type"
// capability root.
type Plugin struct{}

// New returns the plugin.
func New() *Plugin { return &Plugin{} }

// Name implements gen.Plugin.
func (*Plugin) Name() string { return Name }

// Provides implements gen.Plugin.
func (*Plugin) Provides() []capability.Capability {
	return []capability.Capability{capability.MustParse("type")}
}

// ConfigSchema implements plugin.ConfigSchemer.
func (*Plugin) ConfigSchema() string { return configSchema }

// Declare implements gen.Plugin.
func (p *Plugin) Declare(ctx *gen.DeclareContext) ([]gen.Declaration, error) {
	cfg, err := plugin.DecodeConfig[Config](Name, configSchema, ctx.Config())
	if err != nil {
		return nil, err
	}
	var decls []gen.Declaration
	for _, e := range included(ctx.Schema(), cfg) {
		decls = append(decls, gen.Declaration{
			Name:       names.Pascal(e.Name),
			Capability: TypeCapability(e.Name),
		})
	}
	return decls, nil
}

// Render implements gen.Plugin.
func (p *Plugin) Render(ctx *gen.RenderContext) ([]gen.RenderedSymbol, error) {
	cfg, err := plugin.DecodeConfig[Config](Name, configSchema, ctx.Config())
	if err != nil {
		return nil, err
	}
	var out []gen.RenderedSymbol
	for _, e := range included(ctx.Schema(), cfg) {
		node, deps := renderEntity(ctx, e)
		out = append(out, gen.RenderedSymbol{
			Name:              names.Pascal(e.Name),
			Capability:        TypeCapability(e.Name),
			Node:              node,
			Export:            gen.ExportNamed,
			RenderWithImports: deps,
		})
	}
	return out, nil
}

// TypeCapability returns the capability tagging the row type of an entity.
func TypeCapability(entity string) capability.Capability {
	return capability.MustParse("type:" + names.Pascal(entity))
}

func included(sc *schema.Schema, cfg *Config) []*schema.Entity {
	var out []*schema.Entity
	for _, e := range sc.Entities {
		switch e.Kind {
		case schema.KindTable, schema.KindComposite:
			out = append(out, e)
		case schema.KindView:
			if cfg.IncludeViews {
				out = append(out, e)
			}
		case schema.KindEnum:
			if cfg.IncludeEnums {
				out = append(out, e)
			}
		}
	}
	return out
}

func renderEntity(ctx *gen.RenderContext, e *schema.Entity) (gen.Node, []capability.Capability) {
	if e.Kind == schema.KindEnum {
		return renderEnum(e), nil
	}
	sc := ctx.Schema()
	name := names.Pascal(e.Name)

	type field struct {
		name, typ string
	}
	var (
		fields []field
		deps   []capability.Capability
	)
	for _, a := range e.Attributes {
		typ, dep := fieldType(ctx, sc, e, a)
		if !dep.IsZero() {
			deps = append(deps, dep)
		}
		if a.Array {
			typ = arrayOf(typ)
		}
		if a.Nullable {
			typ += " | null"
		}
		fields = append(fields, field{name: propertyName(a.Name), typ: typ})
	}

	return gen.FragmentFunc(func(p *gen.Printer) (string, error) {
		var b strings.Builder
		fmt.Fprintf(&b, "interface %s {\n", name)
		for _, f := range fields {
			fmt.Fprintf(&b, "%s%s: %s;\n", p.Indent, f.name, f.typ)
		}
		b.WriteString("}")
		return b.String(), nil
	}), deps
}

func renderEnum(e *schema.Entity) gen.Node {
	name := names.Pascal(e.Name)
	labels := make([]string, len(e.Values))
	for i, v := range e.Values {
		labels[i] = fmt.Sprintf("%q", v)
	}
	return gen.Text(fmt.Sprintf("type %s = %s;", name, strings.Join(labels, " | ")))
}

// fieldType maps one column to its TypeScript type. A "ts" hint overrides
// the builtin mapping; a column whose type is another entity's enum
// references that entity's type and reports it as a dependency.
func fieldType(ctx *gen.RenderContext, sc *schema.Schema, e *schema.Entity, a *schema.Attribute) (string, capability.Capability) {
	if hints := ctx.Hints().For(sc.Ref(e, a)); hints != nil {
		if ts, ok := hints["ts"].(string); ok && ts != "" {
			return ts, capability.Capability{}
		}
	}
	if enum := sc.Entity(schema.NormalizePgType(a.PgType)); enum != nil && enum.Kind == schema.KindEnum {
		cap := TypeCapability(enum.Name)
		if _, err := ctx.Ref(cap); err == nil {
			return names.Pascal(enum.Name), cap
		}
	}
	return TSType(a.PgType), capability.Capability{}
}

var identRe = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

func propertyName(name string) string {
	if identRe.MatchString(name) {
		return name
	}
	return fmt.Sprintf("%q", name)
}

func arrayOf(typ string) string {
	if strings.ContainsAny(typ, " |") {
		return "(" + typ + ")[]"
	}
	return typ + "[]"
}
