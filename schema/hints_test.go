package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePgType(t *testing.T) {
	for raw, want := range map[string]string{
		"uuid":                     "uuid",
		"character varying(255)":   "varchar",
		"VARCHAR(64)":              "varchar",
		"int8":                     "bigint",
		"timestamp with time zone": "timestamptz",
		"timestamp(3) with time zone": "timestamptz",
		"text[]":                   "text",
		"double precision":         "double precision",
		"serial8":                  "bigserial",
	} {
		assert.Equal(t, want, NormalizePgType(raw), "raw type %q", raw)
	}
}

func TestHintsPrecedence(t *testing.T) {
	t.Run("table+column beats pg type", func(t *testing.T) {
		h := NewHints(
			HintRule{Match: Match{PgType: "uuid"}, Hints: map[string]any{"ts": "string"}},
			HintRule{Match: Match{Table: "users", Column: "id"}, Hints: map[string]any{"ts": "UserId"}},
		)

		got := h.For(FieldRef{Table: "users", Column: "id", PgType: "uuid"})
		assert.Equal(t, "UserId", got["ts"])

		// A field only the pg-type rule matches keeps the weaker hint.
		got = h.For(FieldRef{Table: "users", Column: "org_id", PgType: "uuid"})
		assert.Equal(t, "string", got["ts"])

		// No rule matches a text column at all.
		got = h.For(FieldRef{Table: "users", Column: "email", PgType: "text"})
		assert.Empty(t, got)
	})

	t.Run("merge is per-key, not all-or-nothing", func(t *testing.T) {
		h := NewHints(
			HintRule{Match: Match{PgType: "uuid"}, Hints: map[string]any{"ts": "string", "zod": "z.string().uuid()"}},
			HintRule{Match: Match{Column: "id"}, Hints: map[string]any{"ts": "Id"}},
		)

		got := h.For(FieldRef{Table: "users", Column: "id", PgType: "uuid"})
		assert.Equal(t, "Id", got["ts"])
		assert.Equal(t, "z.string().uuid()", got["zod"])
	})

	t.Run("later rule of equal specificity wins", func(t *testing.T) {
		h := NewHints(
			HintRule{Match: Match{Column: "id"}, Hints: map[string]any{"ts": "First"}},
			HintRule{Match: Match{Column: "id"}, Hints: map[string]any{"ts": "Second"}},
		)
		got := h.For(FieldRef{Column: "id"})
		assert.Equal(t, "Second", got["ts"])
	})

	t.Run("full ladder ordering", func(t *testing.T) {
		h := NewHints(
			HintRule{Match: Match{Schema: "public"}, Hints: map[string]any{"k": "schema"}},
			HintRule{Match: Match{Table: "users"}, Hints: map[string]any{"k": "table"}},
			HintRule{Match: Match{Column: "id"}, Hints: map[string]any{"k": "column"}},
			HintRule{Match: Match{Table: "users", Column: "id"}, Hints: map[string]any{"k": "table+column"}},
			HintRule{Match: Match{Schema: "public", Table: "users", Column: "id"}, Hints: map[string]any{"k": "full"}},
		)
		got := h.For(FieldRef{Schema: "public", Table: "users", Column: "id", PgType: "uuid"})
		assert.Equal(t, "full", got["k"])
	})

	t.Run("zero-criteria match never matches", func(t *testing.T) {
		h := NewHints(HintRule{Match: Match{}, Hints: map[string]any{"k": "v"}})
		assert.Empty(t, h.For(FieldRef{Table: "users", Column: "id"}))
	})

	t.Run("pg type matching uses normalization", func(t *testing.T) {
		h := NewHints(HintRule{Match: Match{PgType: "varchar"}, Hints: map[string]any{"ts": "string"}})
		got := h.For(FieldRef{Column: "name", PgType: "character varying(120)"})
		assert.Equal(t, "string", got["ts"])
	})
}

func TestSchemaModel(t *testing.T) {
	s := &Schema{
		Name: "public",
		Entities: []*Entity{
			{Name: "users", Kind: KindTable, Attributes: []*Attribute{{Name: "id", PgType: "uuid"}}},
			{Name: "user_stats", Kind: KindView},
		},
	}

	t.Run("entity lookup", func(t *testing.T) {
		require.NotNil(t, s.Entity("users"))
		assert.Nil(t, s.Entity("missing"))
		assert.True(t, s.Entity("user_stats").IsView())
	})

	t.Run("tables filters by kind", func(t *testing.T) {
		tables := s.Tables()
		require.Len(t, tables, 1)
		assert.Equal(t, "users", tables[0].Name)
	})

	t.Run("ref resolves default schema", func(t *testing.T) {
		e := s.Entity("users")
		ref := s.Ref(e, e.Attributes[0])
		assert.Equal(t, FieldRef{Schema: "public", Table: "users", Column: "id", PgType: "uuid"}, ref)
	})

	t.Run("permissions default to allow", func(t *testing.T) {
		e := s.Entity("users")
		assert.True(t, e.Allowed("anon", "select"))

		e.Permissions = map[string]Permissions{"anon": {Select: true}}
		assert.True(t, e.Allowed("anon", "select"))
		assert.False(t, e.Allowed("anon", "delete"))
		assert.False(t, e.Allowed("other", "select"))
	})
}
