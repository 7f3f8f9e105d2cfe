// Package config loads the project file driving a generation run: input
// model location, output layout, hint rules and the plugin set.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pgforge/pgforge/compiler/gen"
	"github.com/pgforge/pgforge/plugins/gotypes"
	"github.com/pgforge/pgforge/plugins/graphqlschema"
	"github.com/pgforge/pgforge/plugins/httprouter"
	"github.com/pgforge/pgforge/plugins/tstypes"
	"github.com/pgforge/pgforge/plugins/zodschemas"
	"github.com/pgforge/pgforge/schema"
)

// Project is the unmarshalled project file.
type Project struct {
	// Schema is the path of the introspected model, relative to the
	// project file unless absolute.
	Schema string `yaml:"schema"`
	// Out is the output directory.
	Out string `yaml:"out"`
	// Header is prepended to every generated TypeScript file.
	Header string `yaml:"header,omitempty"`
	// DefaultFile receives symbols no file rule matches.
	DefaultFile string `yaml:"default_file,omitempty"`
	// Files is the ordered file-assignment rule list.
	Files []FileRule `yaml:"files,omitempty"`
	// Hints are field-level type overrides.
	Hints []schema.HintRule `yaml:"hints,omitempty"`
	// Plugins is the plugin set, in configuration order.
	Plugins []PluginConfig `yaml:"plugins"`
}

// FileRule is one capability-prefix to output-file mapping.
type FileRule struct {
	Pattern string `yaml:"pattern"`
	File    string `yaml:"file"`
}

// PluginConfig names one plugin and carries its raw config payload.
type PluginConfig struct {
	Name   string         `yaml:"name"`
	Config map[string]any `yaml:"config,omitempty"`
}

// builtins maps plugin names to constructors. Out-of-tree plugins register
// through Register.
var builtins = map[string]func() gen.Plugin{
	tstypes.Name:       func() gen.Plugin { return tstypes.New() },
	zodschemas.Name:    func() gen.Plugin { return zodschemas.New() },
	httprouter.Name:    func() gen.Plugin { return httprouter.New() },
	gotypes.Name:       func() gen.Plugin { return gotypes.New() },
	graphqlschema.Name: func() gen.Plugin { return graphqlschema.New() },
}

// Register adds a plugin constructor under a name, overriding a builtin of
// the same name.
func Register(name string, constructor func() gen.Plugin) {
	builtins[name] = constructor
}

// Load reads and validates a project file.
func Load(path string) (*Project, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read project file: %w", err)
	}
	var p Project
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("parse project file %s: %w", path, err)
	}
	if p.Schema == "" {
		return nil, fmt.Errorf("project file %s: missing schema path", path)
	}
	if p.Out == "" {
		return nil, fmt.Errorf("project file %s: missing output directory", path)
	}
	if len(p.Plugins) == 0 {
		return nil, fmt.Errorf("project file %s: no plugins configured", path)
	}
	return &p, nil
}

// GenOptions converts the project settings into generator options.
func (p *Project) GenOptions() []gen.Option {
	opts := []gen.Option{gen.WithOutputDir(p.Out)}
	if p.Header != "" {
		opts = append(opts, gen.WithHeader(p.Header))
	}
	if p.DefaultFile != "" {
		opts = append(opts, gen.WithDefaultFile(p.DefaultFile))
	}
	for _, r := range p.Files {
		opts = append(opts, gen.WithFileRule(r.Pattern, r.File))
	}
	if len(p.Hints) > 0 {
		opts = append(opts, gen.WithHints(schema.NewHints(p.Hints...)))
	}
	return opts
}

// PluginSet resolves the configured plugin names against the registry,
// preserving configuration order.
func (p *Project) PluginSet() ([]gen.ConfiguredPlugin, error) {
	out := make([]gen.ConfiguredPlugin, 0, len(p.Plugins))
	for _, pc := range p.Plugins {
		constructor, ok := builtins[pc.Name]
		if !ok {
			return nil, fmt.Errorf("unknown plugin %q", pc.Name)
		}
		var payload any
		if pc.Config != nil {
			payload = pc.Config
		}
		out = append(out, gen.Configure(constructor(), payload))
	}
	return out, nil
}
