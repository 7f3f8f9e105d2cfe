package gen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgforge/pgforge/capability"
)

func TestSymbolRegistry(t *testing.T) {
	entry := func(name, file, cap string) RegistryEntry {
		return RegistryEntry{Name: name, File: file, Capability: capability.MustParse(cap)}
	}

	t.Run("register and resolve exact", func(t *testing.T) {
		r := NewSymbolRegistry()
		require.NoError(t, r.Register(entry("User", "types.ts", "type:User")))
		got, ok := r.Resolve(capability.MustParse("type:User"))
		require.True(t, ok)
		assert.Equal(t, "User", got.Name)
		assert.Equal(t, "types.ts", got.File)
	})

	t.Run("hierarchical resolution falls back to implying entry", func(t *testing.T) {
		r := NewSymbolRegistry()
		require.NoError(t, r.Register(entry("UserSchema", "schemas.ts", "schemas:zod:User")))
		got, ok := r.Resolve(capability.MustParse("schemas:User"))
		require.True(t, ok)
		assert.Equal(t, "UserSchema", got.Name)
	})

	t.Run("exact match wins over hierarchical", func(t *testing.T) {
		r := NewSymbolRegistry()
		require.NoError(t, r.Register(entry("ZodUser", "schemas.ts", "schemas:zod:User")))
		require.NoError(t, r.Register(entry("AnySchema", "schemas.ts", "schemas")))
		got, ok := r.Resolve(capability.MustParse("schemas"))
		require.True(t, ok)
		assert.Equal(t, "AnySchema", got.Name)
	})

	t.Run("duplicate capability collides", func(t *testing.T) {
		r := NewSymbolRegistry()
		require.NoError(t, r.Register(entry("User", "types.ts", "type:User")))
		err := r.Register(entry("User2", "other.ts", "type:User"))
		require.Error(t, err)
		assert.True(t, IsCollisionError(err))
	})

	t.Run("duplicate name in same file collides", func(t *testing.T) {
		r := NewSymbolRegistry()
		require.NoError(t, r.Register(entry("User", "types.ts", "type:User")))
		err := r.Register(entry("User", "types.ts", "validator:User"))
		require.Error(t, err)
		assert.True(t, IsCollisionError(err))
	})

	t.Run("same name in different files is legal", func(t *testing.T) {
		r := NewSymbolRegistry()
		require.NoError(t, r.Register(entry("User", "types.ts", "type:User")))
		require.NoError(t, r.Register(entry("User", "models.ts", "model:User")))
		got, ok := r.Lookup("User", "models.ts")
		require.True(t, ok)
		assert.Equal(t, "model:User", got.Capability.String())
	})

	t.Run("same file check", func(t *testing.T) {
		r := NewSymbolRegistry()
		require.NoError(t, r.Register(entry("User", "types.ts", "type:User")))
		assert.True(t, r.SameFile(capability.MustParse("type:User"), "types.ts"))
		assert.False(t, r.SameFile(capability.MustParse("type:User"), "schemas.ts"))
		assert.False(t, r.SameFile(capability.MustParse("type:Missing"), "types.ts"))
	})
}

func TestAssigner(t *testing.T) {
	mustRule := func(pattern, file string) FileRule {
		r, err := NewFileRule(pattern, file)
		require.NoError(t, err)
		return r
	}

	t.Run("first matching rule wins", func(t *testing.T) {
		a := NewAssigner([]FileRule{
			mustRule("type", "types.ts"),
			mustRule("type:User", "user.ts"),
		}, "index.ts")
		assert.Equal(t, "types.ts", a.FileFor(capability.MustParse("type:User")))
	})

	t.Run("prefix match routes descendants", func(t *testing.T) {
		a := NewAssigner([]FileRule{mustRule("schemas:zod", "schemas.ts")}, "index.ts")
		assert.Equal(t, "schemas.ts", a.FileFor(capability.MustParse("schemas:zod:User")))
		assert.Equal(t, "index.ts", a.FileFor(capability.MustParse("schemas:effect:User")))
	})

	t.Run("no match falls back to default", func(t *testing.T) {
		a := NewAssigner(nil, "index.ts")
		assert.Equal(t, "index.ts", a.FileFor(capability.MustParse("router:api")))
	})

	t.Run("trailing delimiter in pattern is tolerated", func(t *testing.T) {
		r := mustRule("type:", "types.ts")
		assert.Equal(t, "type", r.Pattern.String())
	})

	t.Run("empty target file rejected", func(t *testing.T) {
		_, err := NewFileRule("type", "")
		require.Error(t, err)
	})
}
