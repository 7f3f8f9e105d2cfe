package gen

import (
	"errors"

	"github.com/pgforge/pgforge/schema"
)

// DefaultFile is the fallback output file for symbols no rule matches.
const DefaultFile = "index.ts"

// Config holds the generation settings for one run. It is constructed from
// options once and never mutated afterwards.
type Config struct {
	// Header is an optional comment prepended to every assigned output file.
	Header string
	// DefaultFile receives symbols no file rule matches.
	DefaultFile string
	// Rules is the ordered file-assignment rule list.
	Rules []FileRule
	// Hints are the field-level type-hint rules exposed to plugins.
	Hints *schema.Hints
	// OutputDir is the output root the writer resolves emitted paths
	// against. The engine itself never touches the filesystem.
	OutputDir string
}

// Option configures code generation.
type Option func(*Config) error

// WithHeader sets the comment added at the top of each generated file.
func WithHeader(header string) Option {
	return func(c *Config) error {
		c.Header = header
		return nil
	}
}

// WithDefaultFile sets the fallback output file.
func WithDefaultFile(file string) Option {
	return func(c *Config) error {
		if file == "" {
			return errors.New("pgforge: default file cannot be empty")
		}
		c.DefaultFile = file
		return nil
	}
}

// WithFileRule appends one file-assignment rule. Rules apply in the order
// they were added.
func WithFileRule(pattern, file string) Option {
	return func(c *Config) error {
		r, err := NewFileRule(pattern, file)
		if err != nil {
			return err
		}
		c.Rules = append(c.Rules, r)
		return nil
	}
}

// WithRules appends pre-built file-assignment rules.
func WithRules(rules ...FileRule) Option {
	return func(c *Config) error {
		c.Rules = append(c.Rules, rules...)
		return nil
	}
}

// WithHints sets the type-hint rules plugins consult for field overrides.
func WithHints(h *schema.Hints) Option {
	return func(c *Config) error {
		c.Hints = h
		return nil
	}
}

// WithOutputDir sets the output root for the file writer.
func WithOutputDir(dir string) Option {
	return func(c *Config) error {
		if dir == "" {
			return errors.New("pgforge: output directory cannot be empty")
		}
		c.OutputDir = dir
		return nil
	}
}

// Apply applies options to the config, returning the first error.
func (c *Config) Apply(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return err
		}
	}
	return nil
}

// NewConfig creates a Config from the given options.
func NewConfig(opts ...Option) (*Config, error) {
	c := &Config{DefaultFile: DefaultFile}
	if err := c.Apply(opts...); err != nil {
		return nil, err
	}
	return c, nil
}

// MustNewConfig is like NewConfig but panics on error. It is intended for
// option lists known valid at compile time.
func MustNewConfig(opts ...Option) *Config {
	c, err := NewConfig(opts...)
	if err != nil {
		panic(err)
	}
	return c
}
