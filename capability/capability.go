// Package capability defines the hierarchical capability strings used to
// describe what a generator plugin contributes and what it needs from others.
//
// A capability is a colon- or dot-delimited string such as "schemas:zod".
// Providing a capability implies providing every prefix of it: a plugin that
// provides "schemas:zod" also provides "schemas". The reverse does not hold;
// a requirement of "schemas:zod" is never satisfied by a bare "schemas"
// provider.
package capability

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalid indicates a malformed capability string.
var ErrInvalid = errors.New("capability: invalid capability string")

// Capability is a validated, hierarchical capability string. The zero value
// is invalid; construct one with Parse or MustParse.
//
// The prefix expansion is computed once at parse time, so the hierarchical
// matching below never re-splits the string.
type Capability struct {
	raw string
	// prefixes holds the capability itself followed by every proper prefix,
	// from most to least specific. len(prefixes) equals the segment count.
	prefixes []string
}

// isDelim reports whether r separates capability segments.
func isDelim(r rune) bool { return r == ':' || r == '.' }

// Parse validates and parses a capability string. The input is trimmed of
// surrounding whitespace; no other normalization is applied and matching is
// case-sensitive.
func Parse(s string) (Capability, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return Capability{}, fmt.Errorf("%w: empty string", ErrInvalid)
	}
	prefixes := []string{raw}
	last := -1
	for i, r := range raw {
		if !isDelim(r) {
			last = i
			continue
		}
		if i == 0 || i-1 > last || i == len(raw)-1 {
			return Capability{}, fmt.Errorf("%w: %q has an empty segment", ErrInvalid, raw)
		}
		prefixes = append(prefixes, raw[:i])
	}
	// Most specific first: the full string, then shrinking prefixes.
	for i, j := 1, len(prefixes)-1; i < j; i, j = i+1, j-1 {
		prefixes[i], prefixes[j] = prefixes[j], prefixes[i]
	}
	return Capability{raw: raw, prefixes: prefixes}, nil
}

// MustParse is like Parse but panics on invalid input. It is intended for
// capability literals in plugin definitions and tests.
func MustParse(s string) Capability {
	c, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return c
}

// String returns the raw capability string.
func (c Capability) String() string { return c.raw }

// IsZero reports whether c is the invalid zero value.
func (c Capability) IsZero() bool { return c.raw == "" }

// Specificity returns the number of segments in the capability. More segments
// means a more specific capability.
func (c Capability) Specificity() int { return len(c.prefixes) }

// Root returns the single top-level segment of the capability.
func (c Capability) Root() Capability {
	if c.IsZero() {
		return c
	}
	return Capability{raw: c.prefixes[len(c.prefixes)-1], prefixes: c.prefixes[len(c.prefixes)-1:]}
}

// Expand returns the capability plus all of its prefixes, most specific
// first. For a capability with n segments the result has exactly n elements,
// always including the capability itself and its top-level segment.
func (c Capability) Expand() []Capability {
	out := make([]Capability, len(c.prefixes))
	for i := range c.prefixes {
		out[i] = Capability{raw: c.prefixes[i], prefixes: c.prefixes[i:]}
	}
	return out
}

// Implies reports whether providing c also provides other, i.e. other is c
// itself or one of its prefixes.
func (c Capability) Implies(other Capability) bool {
	for _, p := range c.prefixes {
		if p == other.raw {
			return true
		}
	}
	return false
}

// Equal reports whether two capabilities are the same literal string.
func (c Capability) Equal(other Capability) bool { return c.raw == other.raw }

// Satisfies reports whether required is a member of the union of Expand(p)
// over all provided capabilities. Specificity is strict in the reverse
// direction: a provider of "a:b" never satisfies a requirement of "a:b:c".
func Satisfies(provided []Capability, required Capability) bool {
	for _, p := range provided {
		if p.Implies(required) {
			return true
		}
	}
	return false
}

// Set is an insertion-ordered set of capabilities keyed by their raw string.
type Set struct {
	order []Capability
	index map[string]struct{}
}

// NewSet builds a set from the given capabilities, dropping duplicates.
func NewSet(caps ...Capability) *Set {
	s := &Set{index: make(map[string]struct{}, len(caps))}
	for _, c := range caps {
		s.Add(c)
	}
	return s
}

// Add inserts c into the set. Adding an existing capability is a no-op.
func (s *Set) Add(c Capability) {
	if _, ok := s.index[c.raw]; ok {
		return
	}
	s.index[c.raw] = struct{}{}
	s.order = append(s.order, c)
}

// Has reports whether the literal capability c is in the set.
func (s *Set) Has(c Capability) bool {
	_, ok := s.index[c.raw]
	return ok
}

// Len returns the number of capabilities in the set.
func (s *Set) Len() int { return len(s.order) }

// All returns the capabilities in insertion order.
func (s *Set) All() []Capability {
	out := make([]Capability, len(s.order))
	copy(out, s.order)
	return out
}

// Satisfies reports whether required is implied by any member of the set.
func (s *Set) Satisfies(required Capability) bool {
	return Satisfies(s.order, required)
}

// Expanded returns a new set holding the expansion of every member.
func (s *Set) Expanded() *Set {
	out := NewSet()
	for _, c := range s.order {
		for _, p := range c.Expand() {
			out.Add(p)
		}
	}
	return out
}
