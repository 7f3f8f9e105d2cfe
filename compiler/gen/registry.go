package gen

import "github.com/pgforge/pgforge/capability"

// RegistryEntry is one registered symbol: its name, assigned output file,
// capability and origin plugin.
type RegistryEntry struct {
	Name       string
	File       string
	Capability capability.Capability
	// IsType marks type-level symbols, for targets where type and value
	// imports differ.
	IsType bool
	// Plugin is the plugin that declared the symbol.
	Plugin string
	// Metadata carries plugin-defined extras for downstream consumers.
	Metadata map[string]any
}

// SymbolRegistry is the append-only table of declared symbols, owned by the
// orchestration run. It is write-once per symbol: a collision is always
// "first write wins, second write fails", never a silent overwrite.
//
// Entries are stored arena-style in insertion order with side indexes for
// by-capability and by-(name, file) lookup.
type SymbolRegistry struct {
	entries      []RegistryEntry
	byCapability map[string]int
	byNameFile   map[nameFile]int
}

type nameFile struct{ name, file string }

// NewSymbolRegistry returns an empty registry.
func NewSymbolRegistry() *SymbolRegistry {
	return &SymbolRegistry{
		byCapability: make(map[string]int),
		byNameFile:   make(map[nameFile]int),
	}
}

// Register inserts one symbol record. It fails with a CollisionError when
// the same (name, file) pair or the same fully-specified capability is
// already present.
func (r *SymbolRegistry) Register(e RegistryEntry) error {
	if _, ok := r.byCapability[e.Capability.String()]; ok {
		return &CollisionError{Capability: e.Capability}
	}
	key := nameFile{name: e.Name, file: e.File}
	if _, ok := r.byNameFile[key]; ok {
		return &CollisionError{Name: e.Name, File: e.File}
	}
	r.byCapability[e.Capability.String()] = len(r.entries)
	r.byNameFile[key] = len(r.entries)
	r.entries = append(r.entries, e)
	return nil
}

// Resolve returns the entry for a capability. An exact match wins;
// otherwise the first registered entry whose capability implies the
// requested one (i.e. the request names a prefix of it) is returned.
func (r *SymbolRegistry) Resolve(c capability.Capability) (RegistryEntry, bool) {
	if i, ok := r.byCapability[c.String()]; ok {
		return r.entries[i], true
	}
	for _, e := range r.entries {
		if e.Capability.Implies(c) {
			return e, true
		}
	}
	return RegistryEntry{}, false
}

// Lookup returns the entry registered under the (name, file) pair.
func (r *SymbolRegistry) Lookup(name, file string) (RegistryEntry, bool) {
	if i, ok := r.byNameFile[nameFile{name: name, file: file}]; ok {
		return r.entries[i], true
	}
	return RegistryEntry{}, false
}

// SameFile reports whether the symbol providing c is assigned to
// currentFile, i.e. a reference to it needs no import. An unresolvable
// capability reports false.
func (r *SymbolRegistry) SameFile(c capability.Capability, currentFile string) bool {
	e, ok := r.Resolve(c)
	return ok && e.File == currentFile
}

// Len returns the number of registered symbols.
func (r *SymbolRegistry) Len() int { return len(r.entries) }

// Entries returns the registered symbols in insertion order.
func (r *SymbolRegistry) Entries() []RegistryEntry {
	out := make([]RegistryEntry, len(r.entries))
	copy(out, r.entries)
	return out
}
