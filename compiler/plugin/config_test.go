package plugin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const routerSchema = `
#Config: {
	role:   string | *"anon"
	prefix: string | *"/api"
	routes: [...{
		path:   string
		method: "GET" | "POST" | "PUT" | "DELETE"
	}]
}
`

func TestValidateConfig(t *testing.T) {
	t.Run("nil payload accepted when all fields default", func(t *testing.T) {
		assert.NoError(t, ValidateConfig("router", routerSchema, nil))
	})

	t.Run("empty schema accepts anything", func(t *testing.T) {
		assert.NoError(t, ValidateConfig("types", "", map[string]any{"whatever": 1}))
	})

	t.Run("valid payload", func(t *testing.T) {
		err := ValidateConfig("router", routerSchema, map[string]any{
			"role": "admin",
			"routes": []any{
				map[string]any{"path": "/users", "method": "GET"},
			},
		})
		assert.NoError(t, err)
	})

	t.Run("wrong type reports field path", func(t *testing.T) {
		err := ValidateConfig("router", routerSchema, map[string]any{"role": 42})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrConfigInvalid)

		var ce *ConfigError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, "router", ce.Plugin)
		require.NotEmpty(t, ce.Fields)
		assert.Contains(t, ce.Fields[0].Path, "role")
	})

	t.Run("nested object paths are reported", func(t *testing.T) {
		err := ValidateConfig("router", routerSchema, map[string]any{
			"routes": []any{
				map[string]any{"path": "/users", "method": "PATCH"},
			},
		})
		require.Error(t, err)

		var ce *ConfigError
		require.ErrorAs(t, err, &ce)
		require.NotEmpty(t, ce.Fields)
		found := false
		for _, f := range ce.Fields {
			if f.Path != "" {
				assert.Contains(t, f.Path, "routes")
				found = true
			}
		}
		assert.True(t, found, "expected a field error with a nested path, got %v", ce.Fields)
	})

	t.Run("missing required field fails", func(t *testing.T) {
		err := ValidateConfig("router", routerSchema, map[string]any{
			"routes": []any{map[string]any{"method": "GET"}},
		})
		assert.Error(t, err)
	})
}

func TestDecodeConfig(t *testing.T) {
	type routerConfig struct {
		Role   string `json:"role"`
		Prefix string `json:"prefix"`
	}

	t.Run("defaults applied", func(t *testing.T) {
		cfg, err := DecodeConfig[routerConfig]("router", routerSchema, nil)
		require.NoError(t, err)
		assert.Equal(t, "anon", cfg.Role)
		assert.Equal(t, "/api", cfg.Prefix)
	})

	t.Run("payload overrides defaults", func(t *testing.T) {
		cfg, err := DecodeConfig[routerConfig]("router", routerSchema, map[string]any{"role": "admin"})
		require.NoError(t, err)
		assert.Equal(t, "admin", cfg.Role)
		assert.Equal(t, "/api", cfg.Prefix)
	})

	t.Run("invalid payload surfaces config error", func(t *testing.T) {
		_, err := DecodeConfig[routerConfig]("router", routerSchema, map[string]any{"prefix": false})
		assert.ErrorIs(t, err, ErrConfigInvalid)
	})
}
