package gotypes

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgforge/pgforge/compiler/gen"
	"github.com/pgforge/pgforge/schema"
)

func fixture() *schema.Schema {
	return &schema.Schema{
		Name: "public",
		Entities: []*schema.Entity{
			{
				Name:       "users",
				Kind:       schema.KindTable,
				PrimaryKey: []string{"id"},
				Attributes: []*schema.Attribute{
					{Name: "id", PgType: "uuid"},
					{Name: "full_name", PgType: "text"},
					{Name: "age", PgType: "integer", Nullable: true},
					{Name: "settings", PgType: "jsonb"},
					{Name: "created_at", PgType: "timestamptz"},
				},
			},
		},
	}
}

func render(t *testing.T, cfg any) (string, string) {
	t.Helper()
	res, err := gen.Generate(context.Background(), fixture(),
		[]gen.ConfiguredPlugin{gen.Configure(New(), cfg)})
	require.NoError(t, err)
	require.Len(t, res.Artifacts, 1)
	return res.Artifacts[0].Path, res.Artifacts[0].Content
}

func TestGoStructs(t *testing.T) {
	path, src := render(t, nil)
	assert.Equal(t, "go/models.go", path)

	t.Run("package and header", func(t *testing.T) {
		assert.Contains(t, src, "package models")
		assert.Contains(t, src, "Code generated by pgforge. DO NOT EDIT.")
	})

	t.Run("struct fields and tags", func(t *testing.T) {
		assert.Contains(t, src, "type Users struct {")
		assert.Contains(t, src, "uuid.UUID")
		assert.Contains(t, src, "FullName string")
		assert.Contains(t, src, "Age *int32")
		assert.Contains(t, src, "json.RawMessage")
		assert.Contains(t, src, "CreatedAt time.Time")
		assert.Contains(t, src, "db:\"full_name\"")
		assert.Contains(t, src, "json:\"full_name\"")
	})

	t.Run("imports are resolved", func(t *testing.T) {
		assert.Contains(t, src, `"github.com/google/uuid"`)
		assert.Contains(t, src, `"time"`)
	})
}

func TestGoHintOverride(t *testing.T) {
	res, err := gen.Generate(context.Background(), fixture(),
		[]gen.ConfiguredPlugin{gen.Configure(New(), nil)},
		gen.WithHints(schema.NewHints(schema.HintRule{
			Match: schema.Match{Column: "age"},
			Hints: map[string]any{"go": "int"},
		})))
	require.NoError(t, err)
	assert.Contains(t, res.Artifacts[0].Content, "Age *int")
}

func TestDeclaredStructsInRegistry(t *testing.T) {
	res, err := gen.Generate(context.Background(), fixture(),
		[]gen.ConfiguredPlugin{gen.Configure(New(), nil)})
	require.NoError(t, err)
	entry, ok := res.Registry.Resolve(StructCapability("users"))
	require.True(t, ok)
	assert.Equal(t, "Users", entry.Name)
}
