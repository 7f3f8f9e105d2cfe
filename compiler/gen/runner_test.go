package gen

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgforge/pgforge/capability"
	"github.com/pgforge/pgforge/compiler/plugin"
	"github.com/pgforge/pgforge/schema"
)

// testPlugin is a scriptable plugin for pipeline tests.
type testPlugin struct {
	name     string
	provides []string
	requires []string
	consumes []string
	declare  func(*DeclareContext) ([]Declaration, error)
	render   func(*RenderContext) ([]RenderedSymbol, error)
}

func (p *testPlugin) Name() string { return p.name }

func (p *testPlugin) Provides() []capability.Capability { return caps(p.provides) }

func (p *testPlugin) Requires() []capability.Capability { return caps(p.requires) }

func (p *testPlugin) Consumes() []capability.Capability { return caps(p.consumes) }

func (p *testPlugin) Declare(ctx *DeclareContext) ([]Declaration, error) {
	if p.declare == nil {
		return nil, nil
	}
	return p.declare(ctx)
}

func (p *testPlugin) Render(ctx *RenderContext) ([]RenderedSymbol, error) {
	if p.render == nil {
		return nil, nil
	}
	return p.render(ctx)
}

func caps(raw []string) []capability.Capability {
	out := make([]capability.Capability, len(raw))
	for i, s := range raw {
		out[i] = capability.MustParse(s)
	}
	return out
}

func decl(name, cap string, deps ...string) Declaration {
	return Declaration{Name: name, Capability: capability.MustParse(cap), DependsOn: caps(deps)}
}

func sym(name, cap, code string) RenderedSymbol {
	return RenderedSymbol{Name: name, Capability: capability.MustParse(cap), Node: Text(code)}
}

func configure(ps ...*testPlugin) []ConfiguredPlugin {
	out := make([]ConfiguredPlugin, len(ps))
	for i, p := range ps {
		out[i] = ConfiguredPlugin{Plugin: p}
	}
	return out
}

func testSchema(t *testing.T) *schema.Schema {
	t.Helper()
	return &schema.Schema{Name: "public"}
}

func TestGeneratorRun(t *testing.T) {
	ctx := context.Background()

	t.Run("declare then render in execution order", func(t *testing.T) {
		var steps []string
		types := &testPlugin{
			name:     "types",
			provides: []string{"type"},
			declare: func(*DeclareContext) ([]Declaration, error) {
				steps = append(steps, "declare:types")
				return []Declaration{decl("User", "type:User")}, nil
			},
			render: func(*RenderContext) ([]RenderedSymbol, error) {
				steps = append(steps, "render:types")
				return []RenderedSymbol{sym("User", "type:User", "interface User {}")}, nil
			},
		}
		schemas := &testPlugin{
			name:     "schemas",
			provides: []string{"schemas:zod"},
			requires: []string{"type"},
			declare: func(*DeclareContext) ([]Declaration, error) {
				steps = append(steps, "declare:schemas")
				return []Declaration{decl("UserSchema", "schemas:zod:User", "type:User")}, nil
			},
			render: func(rctx *RenderContext) ([]RenderedSymbol, error) {
				steps = append(steps, "render:schemas")
				h, err := rctx.Ref(capability.MustParse("type:User"))
				if err != nil {
					return nil, err
				}
				return []RenderedSymbol{sym("UserSchema", "schemas:zod:User", "const UserSchema: "+h.Ident()+" = {};")}, nil
			},
		}

		// Input order puts the requirer first; preparation must flip it.
		res, err := Generate(ctx, testSchema(t), configure(schemas, types))
		require.NoError(t, err)
		assert.Equal(t, []string{"types", "schemas"}, res.Order)
		assert.Equal(t, []string{
			"declare:types", "declare:schemas",
			"render:types", "render:schemas",
		}, steps)
		require.Len(t, res.Declarations, 2)
		require.Len(t, res.Rendered, 2)
		assert.Equal(t, 2, res.Registry.Len())
	})

	t.Run("declare failure aborts before later plugins declare", func(t *testing.T) {
		declared := false
		failing := &testPlugin{
			name:     "failing",
			provides: []string{"a"},
			declare: func(*DeclareContext) ([]Declaration, error) {
				return nil, assert.AnError
			},
		}
		later := &testPlugin{
			name:     "later",
			provides: []string{"b"},
			requires: []string{"a"},
			declare: func(*DeclareContext) ([]Declaration, error) {
				declared = true
				return nil, nil
			},
		}
		_, err := Generate(ctx, testSchema(t), configure(failing, later))
		require.Error(t, err)
		var derr *DeclareError
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, "failing", derr.Plugin)
		assert.False(t, declared)
	})

	t.Run("panic in declare becomes a plugin error", func(t *testing.T) {
		p := &testPlugin{
			name:     "boom",
			provides: []string{"a"},
			declare: func(*DeclareContext) ([]Declaration, error) {
				panic("kaput")
			},
		}
		_, err := Generate(ctx, testSchema(t), configure(p))
		require.Error(t, err)
		var perr *PluginError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, "boom", perr.Plugin)
		assert.Contains(t, perr.Error(), "kaput")
	})

	t.Run("capability collision across plugins", func(t *testing.T) {
		a := &testPlugin{
			name:     "a",
			provides: []string{"type:a"},
			declare: func(*DeclareContext) ([]Declaration, error) {
				return []Declaration{decl("User", "symbol:User")}, nil
			},
		}
		b := &testPlugin{
			name:     "b",
			provides: []string{"type:b"},
			declare: func(*DeclareContext) ([]Declaration, error) {
				return []Declaration{decl("OtherUser", "symbol:User")}, nil
			},
		}
		_, err := Generate(ctx, testSchema(t), configure(a, b))
		require.Error(t, err)
		assert.True(t, IsCollisionError(err))
	})

	t.Run("unresolved consumed capability fails after declare", func(t *testing.T) {
		p := &testPlugin{
			name:     "consumer",
			provides: []string{"router"},
			consumes: []string{"schemas:zod"},
			declare: func(*DeclareContext) ([]Declaration, error) {
				return []Declaration{decl("appRouter", "router:app")}, nil
			},
		}
		_, err := Generate(ctx, testSchema(t), configure(p))
		require.Error(t, err)
		assert.True(t, IsUnsatisfiedError(err))
		var uerr *UnsatisfiedError
		require.ErrorAs(t, err, &uerr)
		assert.Equal(t, "schemas:zod", uerr.Capability.String())
		assert.Equal(t, "consumer", uerr.Plugin)
	})

	t.Run("consumed capability satisfied by earlier declaration", func(t *testing.T) {
		producer := &testPlugin{
			name:     "producer",
			provides: []string{"type"},
			declare: func(*DeclareContext) ([]Declaration, error) {
				return []Declaration{decl("UserSchema", "schemas:zod:User")}, nil
			},
		}
		consumer := &testPlugin{
			name:     "consumer",
			provides: []string{"router"},
			requires: []string{"type"},
			consumes: []string{"schemas:zod"},
		}
		_, err := Generate(ctx, testSchema(t), configure(producer, consumer))
		require.NoError(t, err)
	})

	t.Run("declaration dependency cycle", func(t *testing.T) {
		p := &testPlugin{
			name:     "cyclic",
			provides: []string{"type"},
			declare: func(*DeclareContext) ([]Declaration, error) {
				return []Declaration{
					decl("A", "type:A", "type:B"),
					decl("B", "type:B", "type:A"),
				}, nil
			},
		}
		_, err := Generate(ctx, testSchema(t), configure(p))
		require.Error(t, err)
		assert.True(t, IsCircularError(err))
		var cerr *CircularError
		require.ErrorAs(t, err, &cerr)
		assert.Len(t, cerr.Cycle, 3)
		assert.Equal(t, cerr.Cycle[0], cerr.Cycle[len(cerr.Cycle)-1])
	})

	t.Run("unresolved declaration dependency", func(t *testing.T) {
		p := &testPlugin{
			name:     "dangling",
			provides: []string{"type"},
			declare: func(*DeclareContext) ([]Declaration, error) {
				return []Declaration{decl("A", "type:A", "type:Missing")}, nil
			},
		}
		_, err := Generate(ctx, testSchema(t), configure(p))
		require.Error(t, err)
		assert.True(t, IsUnsatisfiedError(err))
	})

	t.Run("rendered symbol must match own declaration", func(t *testing.T) {
		p := &testPlugin{
			name:     "mismatched",
			provides: []string{"type"},
			declare: func(*DeclareContext) ([]Declaration, error) {
				return []Declaration{decl("User", "type:User")}, nil
			},
			render: func(*RenderContext) ([]RenderedSymbol, error) {
				return []RenderedSymbol{sym("Renamed", "type:User", "x")}, nil
			},
		}
		_, err := Generate(ctx, testSchema(t), configure(p))
		require.Error(t, err)
		var rerr *RenderError
		require.ErrorAs(t, err, &rerr)
		assert.Equal(t, "mismatched", rerr.Plugin)
	})

	t.Run("rendering an undeclared capability fails", func(t *testing.T) {
		p := &testPlugin{
			name:     "sneaky",
			provides: []string{"type"},
			declare: func(*DeclareContext) ([]Declaration, error) {
				return []Declaration{decl("User", "type:User")}, nil
			},
			render: func(*RenderContext) ([]RenderedSymbol, error) {
				return []RenderedSymbol{
					sym("User", "type:User", "x"),
					sym("Extra", "type:Extra", "y"),
				}, nil
			},
		}
		_, err := Generate(ctx, testSchema(t), configure(p))
		require.Error(t, err)
		var rerr *RenderError
		require.ErrorAs(t, err, &rerr)
		assert.Equal(t, "Extra", rerr.Symbol)
	})

	t.Run("ref to missing capability surfaces as unsatisfied", func(t *testing.T) {
		p := &testPlugin{
			name:     "reffer",
			provides: []string{"type"},
			declare: func(*DeclareContext) ([]Declaration, error) {
				return []Declaration{decl("User", "type:User")}, nil
			},
			render: func(rctx *RenderContext) ([]RenderedSymbol, error) {
				if _, err := rctx.Ref(capability.MustParse("schemas:zod:User")); err != nil {
					return nil, err
				}
				return nil, nil
			},
		}
		_, err := Generate(ctx, testSchema(t), configure(p))
		require.Error(t, err)
		assert.True(t, IsUnsatisfiedError(err))
	})

	t.Run("file assignment follows ordered rules", func(t *testing.T) {
		p := &testPlugin{
			name:     "types",
			provides: []string{"type"},
			declare: func(*DeclareContext) ([]Declaration, error) {
				return []Declaration{
					decl("User", "type:User"),
					decl("health", "router:health"),
				}, nil
			},
		}
		res, err := Generate(ctx, testSchema(t), configure(p),
			WithFileRule("type", "types.ts"))
		require.NoError(t, err)
		require.Len(t, res.Declarations, 2)
		assert.Equal(t, "types.ts", res.Declarations[0].File)
		assert.Equal(t, "index.ts", res.Declarations[1].File)
	})

	t.Run("preparation errors pass through", func(t *testing.T) {
		a := &testPlugin{name: "a", provides: []string{"schemas:zod"}}
		b := &testPlugin{name: "b", provides: []string{"schemas:effect"}}
		_, err := Generate(ctx, testSchema(t), configure(a, b))
		require.Error(t, err)
		assert.True(t, plugin.IsConflictError(err))
	})

	t.Run("conflicting artifact writes fail the run", func(t *testing.T) {
		a := &testPlugin{
			name:     "a",
			provides: []string{"meta:a"},
			render: func(rctx *RenderContext) ([]RenderedSymbol, error) {
				rctx.EmitFile("meta.json", `{"v":1}`)
				return nil, nil
			},
		}
		b := &testPlugin{
			name:     "b",
			provides: []string{"meta:b"},
			render: func(rctx *RenderContext) ([]RenderedSymbol, error) {
				rctx.EmitFile("meta.json", `{"v":2}`)
				return nil, nil
			},
		}
		_, err := Generate(ctx, testSchema(t), configure(a, b))
		require.Error(t, err)
		assert.True(t, IsEmitConflictError(err))
	})

	t.Run("identical artifact writes are tolerated", func(t *testing.T) {
		emit := func(rctx *RenderContext) ([]RenderedSymbol, error) {
			rctx.EmitFile("meta.json", `{"v":1}`)
			return nil, nil
		}
		a := &testPlugin{name: "a", provides: []string{"meta:a"}, render: emit}
		b := &testPlugin{name: "b", provides: []string{"meta:b"}, render: emit}
		res, err := Generate(ctx, testSchema(t), configure(a, b))
		require.NoError(t, err)
		require.Len(t, res.Artifacts, 2)
	})

	t.Run("result carries the configured output dir", func(t *testing.T) {
		p := &testPlugin{name: "a", provides: []string{"meta:a"}}
		res, err := Generate(ctx, testSchema(t), configure(p), WithOutputDir("gen/out"))
		require.NoError(t, err)
		assert.Equal(t, "gen/out", res.OutputDir())
	})
}

func TestNewGenerator(t *testing.T) {
	t.Run("defaults do not touch the caller's config", func(t *testing.T) {
		cfg := &Config{}
		NewGenerator(cfg)
		assert.Empty(t, cfg.DefaultFile)
		assert.Nil(t, cfg.Hints)
	})

	t.Run("nil config gets the defaults", func(t *testing.T) {
		g := NewGenerator(nil)
		assert.Equal(t, DefaultFile, g.cfg.DefaultFile)
		require.NotNil(t, g.cfg.Hints)
	})
}
