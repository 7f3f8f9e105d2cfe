// Package zodschemas generates zod runtime validators matching the row
// types produced by the ts-types plugin.
package zodschemas

import (
	"fmt"
	"strings"

	"ariga.io/atlas/sql/postgres"

	"github.com/pgforge/pgforge/capability"
	"github.com/pgforge/pgforge/compiler/gen"
	"github.com/pgforge/pgforge/compiler/plugin"
	"github.com/pgforge/pgforge/names"
	"github.com/pgforge/pgforge/plugins/tstypes"
	"github.com/pgforge/pgforge/schema"
)

// Name is the plugin name.
const Name = "zod-schemas"

const configSchema = `#Config: {
	// coerceDates uses z.coerce.date() so ISO strings parse into Date.
	coerceDates: bool | *true
	// includeViews adds validators for database views.
	includeViews: bool | *true
}`

// Config is the validated plugin configuration.
type Config struct {
	CoerceDates  bool `json:"coerceDates"`
	IncludeViews bool `json:"includeViews"`
}

// Plugin generates one zod schema per table and view under the
// "schemas:zod" capability root. It depends on the row types and pins each
// validator to its type with a satisfies clause.
type Plugin struct{}

// New returns the plugin.
func New() *Plugin { return &Plugin{} }

// Name implements gen.Plugin.
func (*Plugin) Name() string { return Name }

// Provides implements gen.Plugin.
func (*Plugin) Provides() []capability.Capability {
	return []capability.Capability{capability.MustParse("schemas:zod")}
}

// Requires implements plugin.Requirer.
func (*Plugin) Requires() []capability.Capability {
	return []capability.Capability{capability.MustParse("type")}
}

// ConfigSchema implements plugin.ConfigSchemer.
func (*Plugin) ConfigSchema() string { return configSchema }

// SchemaCapability returns the capability tagging the zod validator of an
// entity.
func SchemaCapability(entity string) capability.Capability {
	return capability.MustParse("schemas:zod:" + names.Pascal(entity))
}

// Declare implements gen.Plugin.
func (p *Plugin) Declare(ctx *gen.DeclareContext) ([]gen.Declaration, error) {
	cfg, err := plugin.DecodeConfig[Config](Name, configSchema, ctx.Config())
	if err != nil {
		return nil, err
	}
	var decls []gen.Declaration
	for _, e := range included(ctx.Schema(), cfg) {
		decls = append(decls, gen.Declaration{
			Name:       names.Pascal(e.Name) + "Schema",
			Capability: SchemaCapability(e.Name),
			DependsOn:  []capability.Capability{tstypes.TypeCapability(e.Name)},
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
		typeRef, err := ctx.Ref(tstypes.TypeCapability(e.Name))
		if err != nil {
			return nil, err
		}
		node := renderSchema(ctx, cfg, e, typeRef.Ident())
		out = append(out, gen.RenderedSymbol{
			Name:       names.Pascal(e.Name) + "Schema",
			Capability: SchemaCapability(e.Name),
			Node:       node,
			Export:     gen.ExportNamed,
			ExternalImports: []gen.ExternalImport{
				{Package: "zod", Names: []string{"z"}},
			},
			RenderWithImports: []capability.Capability{tstypes.TypeCapability(e.Name)},
		})
	}
	return out, nil
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

func renderSchema(ctx *gen.RenderContext, cfg *Config, e *schema.Entity, typeName string) gen.Node {
	sc := ctx.Schema()
	type field struct {
		name, validator string
	}
	fields := make([]field, 0, len(e.Attributes))
	for _, a := range e.Attributes {
		v := fieldValidator(ctx, cfg, sc, e, a)
		if a.Array {
			v = "z.array(" + v + ")"
		}
		if a.Nullable {
			v += ".nullable()"
		}
		fields = append(fields, field{name: a.Name, validator: v})
	}
	name := names.Pascal(e.Name) + "Schema"
	return gen.FragmentFunc(func(p *gen.Printer) (string, error) {
		var b strings.Builder
		fmt.Fprintf(&b, "const %s = z.object({\n", name)
		for _, f := range fields {
			fmt.Fprintf(&b, "%s%s: %s,\n", p.Indent, f.name, f.validator)
		}
		fmt.Fprintf(&b, "}) satisfies z.ZodType<%s>;", typeName)
		return b.String(), nil
	})
}

// fieldValidator maps one column to a zod validator expression. A "zod"
// hint overrides the builtin mapping; enum columns become z.enum over the
// entity's labels.
func fieldValidator(ctx *gen.RenderContext, cfg *Config, sc *schema.Schema, e *schema.Entity, a *schema.Attribute) string {
	if hints := ctx.Hints().For(sc.Ref(e, a)); hints != nil {
		if zod, ok := hints["zod"].(string); ok && zod != "" {
			return zod
		}
	}
	normalized := schema.NormalizePgType(a.PgType)
	if enum := sc.Entity(normalized); enum != nil && enum.Kind == schema.KindEnum {
		labels := make([]string, len(enum.Values))
		for i, v := range enum.Values {
			labels[i] = fmt.Sprintf("%q", v)
		}
		return "z.enum([" + strings.Join(labels, ", ") + "])"
	}
	return zodValidator(normalized, cfg)
}

func zodValidator(normalized string, cfg *Config) string {
	switch normalized {
	case postgres.TypeSmallInt, postgres.TypeInteger, postgres.TypeSmallSerial, postgres.TypeSerial:
		return "z.number().int()"
	case postgres.TypeReal, postgres.TypeDouble:
		return "z.number()"
	case postgres.TypeBigInt, postgres.TypeBigSerial, postgres.TypeNumeric, postgres.TypeDecimal, postgres.TypeMoney:
		return "z.string()"
	case postgres.TypeBoolean:
		return "z.boolean()"
	case postgres.TypeUUID:
		return "z.string().uuid()"
	case postgres.TypeDate, postgres.TypeTimestamp, postgres.TypeTimestampTZ:
		if cfg.CoerceDates {
			return "z.coerce.date()"
		}
		return "z.date()"
	case postgres.TypeJSON, postgres.TypeJSONB:
		return "z.unknown()"
	case postgres.TypeBytea:
		return "z.instanceof(Uint8Array)"
	default:
		return "z.string()"
	}
}
