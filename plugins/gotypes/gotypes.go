// Package gotypes generates a Go source file of row structs alongside the
// TypeScript output, for services that share the schema across both stacks.
// The file is produced as an ad-hoc artifact since it does not take part in
// the TypeScript file layout.
package gotypes

import (
	"fmt"

	"ariga.io/atlas/sql/postgres"
	"github.com/dave/jennifer/jen"
	"golang.org/x/tools/imports"

	"github.com/pgforge/pgforge/capability"
	"github.com/pgforge/pgforge/compiler/gen"
	"github.com/pgforge/pgforge/compiler/plugin"
	"github.com/pgforge/pgforge/names"
	"github.com/pgforge/pgforge/schema"
)

// Name is the plugin name.
const Name = "go-types"

const configSchema = `#Config: {
	// package is the package name of the generated file.
	package: string | *"models"
	// path is the artifact path, relative to the output root.
	path: string | *"go/models.go"
}`

// Config is the validated plugin configuration.
type Config struct {
	Package string `json:"package"`
	Path    string `json:"path"`
}

// Plugin generates Go structs for tables and views under the "go:types"
// capability root.
type Plugin struct{}

// New returns the plugin.
func New() *Plugin { return &Plugin{} }

// Name implements gen.Plugin.
func (*Plugin) Name() string { return Name }

// Provides implements gen.Plugin.
func (*Plugin) Provides() []capability.Capability {
	return []capability.Capability{capability.MustParse("go:types")}
}

// ConfigSchema implements plugin.ConfigSchemer.
func (*Plugin) ConfigSchema() string { return configSchema }

// Declare implements gen.Plugin. The declarations are bookkeeping only:
// they publish the struct names in the registry without contributing to
// the TypeScript files.
func (p *Plugin) Declare(ctx *gen.DeclareContext) ([]gen.Declaration, error) {
	var decls []gen.Declaration
	for _, e := range included(ctx.Schema()) {
		decls = append(decls, gen.Declaration{
			Name:       names.Pascal(e.Name),
			Capability: StructCapability(e.Name),
		})
	}
	return decls, nil
}

// Render implements gen.Plugin. It assembles the whole Go file, formats it
// and emits it as one artifact; the declared symbols render without nodes.
func (p *Plugin) Render(ctx *gen.RenderContext) ([]gen.RenderedSymbol, error) {
	cfg, err := plugin.DecodeConfig[Config](Name, configSchema, ctx.Config())
	if err != nil {
		return nil, err
	}
	sc := ctx.Schema()
	entities := included(sc)

	f := jen.NewFile(cfg.Package)
	f.HeaderComment("Code generated by pgforge. DO NOT EDIT.")
	var out []gen.RenderedSymbol
	for _, e := range entities {
		structName := names.Pascal(e.Name)
		f.Commentf("%s is the row type of %s.", structName, qualified(sc, e))
		f.Type().Id(structName).StructFunc(func(g *jen.Group) {
			for _, a := range e.Attributes {
				g.Add(fieldStmt(ctx, sc, e, a))
			}
		})
		f.Line()
		out = append(out, gen.RenderedSymbol{
			Name:       structName,
			Capability: StructCapability(e.Name),
		})
	}

	src := fmt.Sprintf("%#v", f)
	formatted, err := imports.Process(cfg.Path, []byte(src), nil)
	if err != nil {
		return nil, fmt.Errorf("format %s: %w", cfg.Path, err)
	}
	ctx.EmitFile(cfg.Path, string(formatted))
	return out, nil
}

// StructCapability returns the capability tagging the Go struct of an
// entity.
func StructCapability(entity string) capability.Capability {
	return capability.MustParse("go:types:" + names.Pascal(entity))
}

func included(sc *schema.Schema) []*schema.Entity {
	var out []*schema.Entity
	for _, e := range sc.Entities {
		if e.Kind == schema.KindTable || e.Kind == schema.KindView {
			out = append(out, e)
		}
	}
	return out
}

func qualified(sc *schema.Schema, e *schema.Entity) string {
	if e.Schema != "" {
		return e.Schema + "." + e.Name
	}
	return sc.Name + "." + e.Name
}

func fieldStmt(ctx *gen.RenderContext, sc *schema.Schema, e *schema.Entity, a *schema.Attribute) *jen.Statement {
	stmt := jen.Id(names.Pascal(a.Name))
	typ := goType(ctx, sc, e, a)
	if a.Array {
		stmt.Index()
	}
	if a.Nullable && !a.Array {
		stmt.Op("*")
	}
	stmt.Add(typ)
	stmt.Tag(map[string]string{"json": a.Name, "db": a.Name})
	return stmt
}

// goType maps one column to its Go type. A "go" hint overrides the builtin
// mapping with a literal type name; enum columns map to string.
func goType(ctx *gen.RenderContext, sc *schema.Schema, e *schema.Entity, a *schema.Attribute) jen.Code {
	if hints := ctx.Hints().For(sc.Ref(e, a)); hints != nil {
		if g, ok := hints["go"].(string); ok && g != "" {
			return jen.Id(g)
		}
	}
	switch schema.NormalizePgType(a.PgType) {
	case postgres.TypeSmallInt:
		return jen.Int16()
	case postgres.TypeInteger, postgres.TypeSerial, postgres.TypeSmallSerial:
		return jen.Int32()
	case postgres.TypeBigInt, postgres.TypeBigSerial:
		return jen.Int64()
	case postgres.TypeReal:
		return jen.Float32()
	case postgres.TypeDouble:
		return jen.Float64()
	case postgres.TypeBoolean:
		return jen.Bool()
	case postgres.TypeUUID:
		return jen.Qual("github.com/google/uuid", "UUID")
	case postgres.TypeDate, postgres.TypeTimestamp, postgres.TypeTimestampTZ:
		return jen.Qual("time", "Time")
	case postgres.TypeJSON, postgres.TypeJSONB:
		return jen.Qual("encoding/json", "RawMessage")
	case postgres.TypeBytea:
		return jen.Index().Byte()
	default:
		return jen.String()
	}
}
