// Package graphqlschema generates a GraphQL SDL document describing the
// introspected model, one object type per entity plus query fields.
package graphqlschema

import (
	"strings"

	"ariga.io/atlas/sql/postgres"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/formatter"

	"github.com/pgforge/pgforge/capability"
	"github.com/pgforge/pgforge/compiler/gen"
	"github.com/pgforge/pgforge/compiler/plugin"
	"github.com/pgforge/pgforge/names"
	"github.com/pgforge/pgforge/schema"
)

// Name is the plugin name.
const Name = "graphql-schema"

const configSchema = `#Config: {
	// path is the artifact path of the SDL document.
	path: string | *"schema.graphql"
	// includeViews adds object types for database views.
	includeViews: bool | *true
}`

// Config is the validated plugin configuration.
type Config struct {
	Path         string `json:"path"`
	IncludeViews bool   `json:"includeViews"`
}

// SDLCapability tags the generated SDL document.
var SDLCapability = capability.MustParse("graphql:sdl")

// Plugin generates the SDL artifact under the "graphql" capability root.
type Plugin struct{}

// New returns the plugin.
func New() *Plugin { return &Plugin{} }

// Name implements gen.Plugin.
func (*Plugin) Name() string { return Name }

// Provides implements gen.Plugin.
func (*Plugin) Provides() []capability.Capability {
	return []capability.Capability{capability.MustParse("graphql")}
}

// ConfigSchema implements plugin.ConfigSchemer.
func (*Plugin) ConfigSchema() string { return configSchema }

// Declare implements gen.Plugin.
func (p *Plugin) Declare(ctx *gen.DeclareContext) ([]gen.Declaration, error) {
	return []gen.Declaration{{Name: "schema", Capability: SDLCapability}}, nil
}

// Render implements gen.Plugin.
func (p *Plugin) Render(ctx *gen.RenderContext) ([]gen.RenderedSymbol, error) {
	cfg, err := plugin.DecodeConfig[Config](Name, configSchema, ctx.Config())
	if err != nil {
		return nil, err
	}
	doc := buildDocument(ctx, cfg)

	var b strings.Builder
	formatter.NewFormatter(&b).FormatSchemaDocument(doc)
	ctx.EmitFile(cfg.Path, b.String())

	return []gen.RenderedSymbol{{Name: "schema", Capability: SDLCapability}}, nil
}

func buildDocument(ctx *gen.RenderContext, cfg *Config) *ast.SchemaDocument {
	sc := ctx.Schema()
	doc := &ast.SchemaDocument{}
	scalars := map[string]bool{}

	query := &ast.Definition{Kind: ast.Object, Name: "Query"}
	for _, e := range sc.Entities {
		switch e.Kind {
		case schema.KindEnum:
			doc.Definitions = append(doc.Definitions, enumDefinition(e))
			continue
		case schema.KindView:
			if !cfg.IncludeViews {
				continue
			}
		case schema.KindTable:
		default:
			continue
		}
		def := &ast.Definition{
			Kind: ast.Object,
			Name: names.Pascal(e.Name),
		}
		for _, a := range e.Attributes {
			def.Fields = append(def.Fields, fieldDefinition(ctx, sc, e, a, scalars))
		}
		doc.Definitions = append(doc.Definitions, def)

		query.Fields = append(query.Fields, &ast.FieldDefinition{
			Name: names.Camel(e.Name),
			Type: ast.NonNullListType(ast.NonNullNamedType(def.Name, nil), nil),
		})
	}
	for _, name := range []string{"DateTime", "JSON"} {
		if scalars[name] {
			doc.Definitions = append(doc.Definitions, &ast.Definition{Kind: ast.Scalar, Name: name})
		}
	}
	doc.Definitions = append(doc.Definitions, query)
	return doc
}

func enumDefinition(e *schema.Entity) *ast.Definition {
	def := &ast.Definition{Kind: ast.Enum, Name: names.Pascal(e.Name)}
	for _, v := range e.Values {
		def.EnumValues = append(def.EnumValues, &ast.EnumValueDefinition{
			Name: strings.ToUpper(names.Snake(v)),
		})
	}
	return def
}

func fieldDefinition(ctx *gen.RenderContext, sc *schema.Schema, e *schema.Entity, a *schema.Attribute, scalars map[string]bool) *ast.FieldDefinition {
	named := gqlType(ctx, sc, e, a, scalars)
	typ := ast.NamedType(named, nil)
	if !a.Nullable && !a.Array {
		typ = ast.NonNullNamedType(named, nil)
	}
	if a.Array {
		typ = ast.ListType(ast.NonNullNamedType(named, nil), nil)
		if !a.Nullable {
			typ.NonNull = true
		}
	}
	return &ast.FieldDefinition{Name: names.Camel(a.Name), Type: typ}
}

// gqlType maps one column to a GraphQL type name. A "graphql" hint
// overrides the builtin mapping; primary key columns map to ID.
func gqlType(ctx *gen.RenderContext, sc *schema.Schema, e *schema.Entity, a *schema.Attribute, scalars map[string]bool) string {
	if hints := ctx.Hints().For(sc.Ref(e, a)); hints != nil {
		if g, ok := hints["graphql"].(string); ok && g != "" {
			return g
		}
	}
	if len(e.PrimaryKey) == 1 && e.PrimaryKey[0] == a.Name {
		return "ID"
	}
	normalized := schema.NormalizePgType(a.PgType)
	if enum := sc.Entity(normalized); enum != nil && enum.Kind == schema.KindEnum {
		return names.Pascal(enum.Name)
	}
	switch normalized {
	case postgres.TypeSmallInt, postgres.TypeInteger, postgres.TypeSerial, postgres.TypeSmallSerial:
		return "Int"
	case postgres.TypeReal, postgres.TypeDouble:
		return "Float"
	case postgres.TypeBoolean:
		return "Boolean"
	case postgres.TypeDate, postgres.TypeTimestamp, postgres.TypeTimestampTZ:
		scalars["DateTime"] = true
		return "DateTime"
	case postgres.TypeJSON, postgres.TypeJSONB:
		scalars["JSON"] = true
		return "JSON"
	default:
		return "String"
	}
}
