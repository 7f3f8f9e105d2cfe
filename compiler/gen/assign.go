package gen

import (
	"fmt"
	"strings"

	"github.com/pgforge/pgforge/capability"
)

// FileRule routes symbols whose capability has the given prefix to one
// output file. Rules are ordered; the first match wins.
type FileRule struct {
	// Pattern is a capability prefix, e.g. "type" matches "type:User".
	Pattern capability.Capability
	// File is the output path, relative to the configured output root.
	File string
}

// NewFileRule parses a pattern string into a file rule. A trailing
// delimiter on the pattern ("type:") is accepted and ignored.
func NewFileRule(pattern, file string) (FileRule, error) {
	pattern = strings.TrimRight(strings.TrimSpace(pattern), ":.")
	p, err := capability.Parse(pattern)
	if err != nil {
		return FileRule{}, fmt.Errorf("file rule pattern %q: %w", pattern, err)
	}
	if file == "" {
		return FileRule{}, fmt.Errorf("file rule for pattern %q: empty target file", pattern)
	}
	return FileRule{Pattern: p, File: file}, nil
}

// Assigner maps a symbol's capability to its output file by applying the
// ordered rule list, falling back to the default file when nothing matches.
type Assigner struct {
	rules    []FileRule
	fallback string
}

// NewAssigner builds an assigner from ordered rules and a default file.
func NewAssigner(rules []FileRule, fallback string) *Assigner {
	return &Assigner{rules: rules, fallback: fallback}
}

// FileFor returns the output file for a capability: the file of the first
// rule whose pattern is a prefix of the capability, else the default.
func (a *Assigner) FileFor(c capability.Capability) string {
	for _, r := range a.rules {
		if c.Implies(r.Pattern) {
			return r.File
		}
	}
	return a.fallback
}
