// Package plugin validates a configured set of generator plugins and resolves
// them into a safe execution order.
package plugin

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pgforge/pgforge/capability"
)

// Sentinel errors for the preparation failure kinds.
var (
	// ErrDuplicatePlugin indicates the same plugin name was configured twice.
	ErrDuplicatePlugin = errors.New("pgforge: duplicate plugin")
	// ErrConfigInvalid indicates a plugin's config payload failed its schema.
	ErrConfigInvalid = errors.New("pgforge: invalid plugin config")
	// ErrCapabilityConflict indicates two plugins provide the same capability.
	ErrCapabilityConflict = errors.New("pgforge: capability conflict")
	// ErrCapabilityNotSatisfied indicates a required capability has no provider.
	ErrCapabilityNotSatisfied = errors.New("pgforge: capability not satisfied")
	// ErrCapabilityCycle indicates the dependency graph contains a cycle.
	ErrCapabilityCycle = errors.New("pgforge: capability cycle")
)

// DuplicateError reports a plugin name configured more than once.
type DuplicateError struct {
	Name string
}

// Error implements the error interface.
func (e *DuplicateError) Error() string {
	return fmt.Sprintf("pgforge: duplicate plugin %q", e.Name)
}

// Is reports whether the target matches the sentinel for DuplicateError.
func (e *DuplicateError) Is(target error) bool { return target == ErrDuplicatePlugin }

// FieldError is one human-readable config validation failure, with the
// dotted path of the offending field (nested-object paths included).
type FieldError struct {
	Path    string
	Message string
}

func (e FieldError) String() string {
	if e.Path == "" {
		return e.Message
	}
	return e.Path + ": " + e.Message
}

// ConfigError reports a plugin config payload that failed schema validation.
type ConfigError struct {
	Plugin string
	Fields []FieldError
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "pgforge: invalid config for plugin %q", e.Plugin)
	for _, f := range e.Fields {
		b.WriteString("\n\t")
		b.WriteString(f.String())
	}
	return b.String()
}

// Is reports whether the target matches the sentinel for ConfigError.
func (e *ConfigError) Is(target error) bool { return target == ErrConfigInvalid }

// ConflictError reports a capability claimed by more than one provider.
// The conflict may be on an implied ancestor: providers of "schemas:zod"
// and "schemas:effect" conflict on "schemas".
type ConflictError struct {
	Capability capability.Capability
	Providers  []string
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	return fmt.Sprintf("pgforge: capability %q provided by multiple plugins: %s",
		e.Capability, strings.Join(e.Providers, ", "))
}

// Is reports whether the target matches the sentinel for ConflictError.
func (e *ConflictError) Is(target error) bool { return target == ErrCapabilityConflict }

// NotSatisfiedError reports a required capability with no provider.
type NotSatisfiedError struct {
	Required   capability.Capability
	RequiredBy string
}

// Error implements the error interface.
func (e *NotSatisfiedError) Error() string {
	return fmt.Sprintf("pgforge: capability %q required by plugin %q is not provided by any plugin",
		e.Required, e.RequiredBy)
}

// Is reports whether the target matches the sentinel for NotSatisfiedError.
func (e *NotSatisfiedError) Is(target error) bool { return target == ErrCapabilityNotSatisfied }

// CycleError reports a dependency cycle among plugins. Cycle holds at least
// the plugin names of the looping subset, in graph order.
type CycleError struct {
	Cycle []string
}

// Error implements the error interface.
func (e *CycleError) Error() string {
	return fmt.Sprintf("pgforge: capability cycle between plugins: %s", strings.Join(e.Cycle, " -> "))
}

// Is reports whether the target matches the sentinel for CycleError.
func (e *CycleError) Is(target error) bool { return target == ErrCapabilityCycle }

// IsDuplicateError reports whether the error is a DuplicateError.
func IsDuplicateError(err error) bool {
	var e *DuplicateError
	return errors.As(err, &e)
}

// IsConfigError reports whether the error is a ConfigError.
func IsConfigError(err error) bool {
	var e *ConfigError
	return errors.As(err, &e)
}

// IsConflictError reports whether the error is a ConflictError.
func IsConflictError(err error) bool {
	var e *ConflictError
	return errors.As(err, &e)
}

// IsNotSatisfiedError reports whether the error is a NotSatisfiedError.
func IsNotSatisfiedError(err error) bool {
	var e *NotSatisfiedError
	return errors.As(err, &e)
}

// IsCycleError reports whether the error is a CycleError.
func IsCycleError(err error) bool {
	var e *CycleError
	return errors.As(err, &e)
}
