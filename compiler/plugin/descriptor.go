package plugin

import "github.com/pgforge/pgforge/capability"

// Descriptor is the minimal surface Prepare needs from a plugin: a unique
// name and the capabilities it provides. The richer declare/render contract
// lives in compiler/gen; any value implementing it satisfies Descriptor.
type Descriptor interface {
	// Name returns the plugin name, unique within a run.
	Name() string
	// Provides returns the capabilities the plugin contributes. Each entry
	// implies all of its prefixes.
	Provides() []capability.Capability
}

// Optional plugin capabilities, detected via type assertion the same way
// the generator detects what a configured plugin supports.
type (
	// Requirer declares hard dependencies: preparation fails when a
	// required capability has no provider.
	Requirer interface {
		Requires() []capability.Capability
	}

	// Consumer declares soft dependencies: a consumed capability with a
	// provider adds an ordering edge, while an absent provider is deferred
	// to the declaration pipeline's resolution step.
	Consumer interface {
		Consumes() []capability.Capability
	}

	// ConfigSchemer exposes a CUE schema (defining #Config) that the
	// plugin's raw config payload is validated against before the run.
	ConfigSchemer interface {
		ConfigSchema() string
	}
)

// Configured pairs a plugin with its raw, not-yet-validated config payload.
// It is constructed once from user configuration and never mutated after
// preparation.
type Configured struct {
	Descriptor
	// Config is the raw config payload, typically a map decoded from the
	// run configuration. Nil means the plugin takes no config.
	Config any
}

// requires returns the plugin's hard dependencies, if it declares any.
func (c Configured) requires() []capability.Capability {
	if r, ok := c.Descriptor.(Requirer); ok {
		return r.Requires()
	}
	return nil
}

// consumes returns the plugin's soft dependencies, if it declares any.
func (c Configured) consumes() []capability.Capability {
	if r, ok := c.Descriptor.(Consumer); ok {
		return r.Consumes()
	}
	return nil
}

// configSchema returns the plugin's CUE config schema, or "".
func (c Configured) configSchema() string {
	if s, ok := c.Descriptor.(ConfigSchemer); ok {
		return s.ConfigSchema()
	}
	return ""
}
