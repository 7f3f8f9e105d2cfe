// Package gen runs the declare/render pipeline over a validated plugin set
// and assembles the rendered symbols into import-clean output files.
package gen

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pgforge/pgforge/capability"
)

// Sentinel errors for the run-level failure kinds. Every one of them is
// fatal to the run: the engine fails loud and early rather than proceed
// with a partially-resolved symbol table.
var (
	// ErrUnsatisfiedCapability indicates a consumed or depended-on capability
	// that no earlier-or-equal declaration resolves.
	ErrUnsatisfiedCapability = errors.New("pgforge: unsatisfied capability")
	// ErrSymbolCollision indicates a duplicate symbol registration.
	ErrSymbolCollision = errors.New("pgforge: symbol collision")
	// ErrCircularDependency indicates a cycle among symbol declarations.
	ErrCircularDependency = errors.New("pgforge: circular symbol dependency")
	// ErrDeclare indicates a plugin's declare step failed.
	ErrDeclare = errors.New("pgforge: declare failed")
	// ErrRender indicates a plugin's render step failed.
	ErrRender = errors.New("pgforge: render failed")
	// ErrEmitConflict indicates two plugins wrote different content to the
	// same raw output path.
	ErrEmitConflict = errors.New("pgforge: emit conflict")
	// ErrPluginFailed wraps a panic escaping a plugin step.
	ErrPluginFailed = errors.New("pgforge: plugin execution failed")
)

// UnsatisfiedError reports a consumes or dependsOn capability that resolves
// to no declaration produced by an earlier-or-equal plugin.
type UnsatisfiedError struct {
	Capability capability.Capability
	// Plugin is the plugin (or declaring plugin, for dependsOn edges) that
	// referenced the capability.
	Plugin string
}

// Error implements the error interface.
func (e *UnsatisfiedError) Error() string {
	if e.Plugin != "" {
		return fmt.Sprintf("pgforge: capability %q referenced by plugin %q resolves to no declared symbol",
			e.Capability, e.Plugin)
	}
	return fmt.Sprintf("pgforge: capability %q resolves to no declared symbol", e.Capability)
}

// Is reports whether the target matches the sentinel for UnsatisfiedError.
func (e *UnsatisfiedError) Is(target error) bool { return target == ErrUnsatisfiedCapability }

// CollisionError reports a second write of a symbol the registry already
// holds, either by fully-specified capability or by (name, file) pair.
// Registration is write-once: the first write wins, the second fails.
type CollisionError struct {
	Capability capability.Capability
	Name       string
	File       string
}

// Error implements the error interface.
func (e *CollisionError) Error() string {
	var b strings.Builder
	b.WriteString("pgforge: symbol collision")
	if !e.Capability.IsZero() {
		fmt.Fprintf(&b, " on capability %q", e.Capability)
	}
	if e.Name != "" {
		fmt.Fprintf(&b, " (symbol %q in file %q)", e.Name, e.File)
	}
	return b.String()
}

// Is reports whether the target matches the sentinel for CollisionError.
func (e *CollisionError) Is(target error) bool { return target == ErrSymbolCollision }

// CircularError reports a dependency cycle among symbol declarations. The
// cycle members are capability strings, in dependency order.
type CircularError struct {
	Cycle []string
}

// Error implements the error interface.
func (e *CircularError) Error() string {
	return fmt.Sprintf("pgforge: circular dependency between declarations: %s", strings.Join(e.Cycle, " -> "))
}

// Is reports whether the target matches the sentinel for CircularError.
func (e *CircularError) Is(target error) bool { return target == ErrCircularDependency }

// DeclareError reports a failed declare step. Later plugins never declare
// once one fails.
type DeclareError struct {
	Plugin  string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *DeclareError) Error() string {
	return fmt.Sprintf("pgforge: declare failed for plugin %q: %s", e.Plugin, e.Message)
}

// Unwrap returns the underlying error.
func (e *DeclareError) Unwrap() error { return e.Cause }

// Is reports whether the target matches the sentinel for DeclareError.
func (e *DeclareError) Is(target error) bool { return target == ErrDeclare }

// RenderError reports a failed render step, optionally naming the symbol
// being rendered.
type RenderError struct {
	Plugin  string
	Symbol  string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *RenderError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "pgforge: render failed for plugin %q", e.Plugin)
	if e.Symbol != "" {
		fmt.Fprintf(&b, " (symbol %q)", e.Symbol)
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	return b.String()
}

// Unwrap returns the underlying error.
func (e *RenderError) Unwrap() error { return e.Cause }

// Is reports whether the target matches the sentinel for RenderError.
func (e *RenderError) Is(target error) bool { return target == ErrRender }

// EmitConflictError reports two plugins emitting different content to the
// literal same raw path outside file-assignment merging.
type EmitConflictError struct {
	Path    string
	Plugins []string
}

// Error implements the error interface.
func (e *EmitConflictError) Error() string {
	return fmt.Sprintf("pgforge: conflicting writes to %q by plugins: %s",
		e.Path, strings.Join(e.Plugins, ", "))
}

// Is reports whether the target matches the sentinel for EmitConflictError.
func (e *EmitConflictError) Is(target error) bool { return target == ErrEmitConflict }

// PluginError wraps a panic recovered from a plugin step, with the plugin
// name attached.
type PluginError struct {
	Plugin string
	Cause  error
}

// Error implements the error interface.
func (e *PluginError) Error() string {
	return fmt.Sprintf("pgforge: plugin %q failed: %v", e.Plugin, e.Cause)
}

// Unwrap returns the underlying error.
func (e *PluginError) Unwrap() error { return e.Cause }

// Is reports whether the target matches the sentinel for PluginError.
func (e *PluginError) Is(target error) bool { return target == ErrPluginFailed }

// IsUnsatisfiedError reports whether the error is an UnsatisfiedError.
func IsUnsatisfiedError(err error) bool {
	var e *UnsatisfiedError
	return errors.As(err, &e)
}

// IsCollisionError reports whether the error is a CollisionError.
func IsCollisionError(err error) bool {
	var e *CollisionError
	return errors.As(err, &e)
}

// IsCircularError reports whether the error is a CircularError.
func IsCircularError(err error) bool {
	var e *CircularError
	return errors.As(err, &e)
}

// IsEmitConflictError reports whether the error is an EmitConflictError.
func IsEmitConflictError(err error) bool {
	var e *EmitConflictError
	return errors.As(err, &e)
}
