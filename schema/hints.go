package schema

import (
	"sort"
	"strings"

	"ariga.io/atlas/sql/postgres"
)

type (
	// Match selects the fields a hint rule applies to. Every non-empty
	// criterion must match; a Match with zero criteria never matches.
	Match struct {
		Schema string `yaml:"schema,omitempty" json:"schema,omitempty"`
		Table  string `yaml:"table,omitempty" json:"table,omitempty"`
		Column string `yaml:"column,omitempty" json:"column,omitempty"`
		PgType string `yaml:"pg_type,omitempty" json:"pg_type,omitempty"`
	}

	// HintRule attaches generator hints to the fields its Match selects.
	// Hints are free-form: each generator documents the keys it reads
	// (e.g. "ts" for the TypeScript type, "zod" for the zod schema).
	HintRule struct {
		Match Match          `yaml:"match" json:"match"`
		Hints map[string]any `yaml:"hints" json:"hints"`
	}

	// Hints is an ordered collection of hint rules. Rules merge per-key:
	// all matching rules contribute, with more specific rules overriding
	// less specific ones, and later-registered rules overriding earlier
	// ones of equal specificity.
	Hints struct {
		rules []HintRule
	}

	// FieldRef identifies one column for hint lookup.
	FieldRef struct {
		Schema string
		Table  string
		Column string
		PgType string
	}
)

// pgAliases folds the catalog's alias spellings onto one canonical name, so a
// hint written against "varchar" also matches a column reported as
// "character varying(255)".
var pgAliases = map[string]string{
	postgres.TypeInt:     postgres.TypeInteger,
	postgres.TypeInt2:    postgres.TypeSmallInt,
	postgres.TypeInt4:    postgres.TypeInteger,
	postgres.TypeInt8:    postgres.TypeBigInt,
	postgres.TypeBool:    postgres.TypeBoolean,
	postgres.TypeCharVar: postgres.TypeVarChar,
	postgres.TypeFloat4:  postgres.TypeReal,
	postgres.TypeFloat8:  postgres.TypeDouble,
	"timestamp with time zone": postgres.TypeTimestampTZ,
	"serial2":                  postgres.TypeSmallSerial,
	"serial4":                  postgres.TypeSerial,
	"serial8":                  postgres.TypeBigSerial,
}

// NormalizePgType canonicalizes a raw catalog type string: it lowercases,
// strips type modifiers and array suffixes ("character varying(255)[]" →
// "varchar") and folds known aliases.
func NormalizePgType(pgType string) string {
	t := strings.ToLower(strings.TrimSpace(pgType))
	if i := strings.IndexByte(t, '('); i >= 0 {
		rest := ""
		if j := strings.IndexByte(t, ')'); j >= 0 {
			rest = t[j+1:]
		}
		t = strings.TrimSpace(t[:i]) + rest
	}
	t = strings.TrimSuffix(t, "[]")
	t = strings.Join(strings.Fields(t), " ")
	if canon, ok := pgAliases[t]; ok {
		return canon
	}
	return t
}

// matches reports whether the rule's criteria all hold for f.
func (m Match) matches(f FieldRef) bool {
	if m == (Match{}) {
		return false
	}
	if m.Schema != "" && m.Schema != f.Schema {
		return false
	}
	if m.Table != "" && m.Table != f.Table {
		return false
	}
	if m.Column != "" && m.Column != f.Column {
		return false
	}
	if m.PgType != "" && NormalizePgType(m.PgType) != NormalizePgType(f.PgType) {
		return false
	}
	return true
}

// specificity ranks a match for precedence. The ladder, most specific
// first: schema+table+column, table+column, column, table, schema, bare
// pg type. A pg-type criterion on its own ranks lowest and adds nothing
// when combined with name criteria.
func (m Match) specificity() int {
	n := 0
	if m.Column != "" {
		n += 4
	}
	if m.Table != "" {
		n += 2
	}
	if m.Schema != "" {
		n++
	}
	return n
}

// NewHints builds a hint collection from rules in registration order.
func NewHints(rules ...HintRule) *Hints {
	h := &Hints{}
	for _, r := range rules {
		h.Add(r)
	}
	return h
}

// Add registers a rule after all previously registered rules.
func (h *Hints) Add(rule HintRule) {
	h.rules = append(h.rules, rule)
}

// Len returns the number of registered rules.
func (h *Hints) Len() int {
	if h == nil {
		return 0
	}
	return len(h.rules)
}

// For merges the hint maps of every rule matching f. Merging is per-key:
// rules apply in ascending specificity and registration order, so the most
// specific (and, on ties, latest-registered) rule wins each key while
// unrelated keys from weaker rules survive.
func (h *Hints) For(f FieldRef) map[string]any {
	out := make(map[string]any)
	if h == nil {
		return out
	}
	type ranked struct{ spec, idx int }
	var matched []ranked
	for i, r := range h.rules {
		if r.Match.matches(f) {
			matched = append(matched, ranked{spec: r.Match.specificity(), idx: i})
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].spec != matched[j].spec {
			return matched[i].spec < matched[j].spec
		}
		return matched[i].idx < matched[j].idx
	})
	for _, m := range matched {
		for k, v := range h.rules[m.idx].Hints {
			out[k] = v
		}
	}
	return out
}

// Ref builds the FieldRef for an attribute of an entity, resolving the
// entity's schema name against the model default.
func (s *Schema) Ref(e *Entity, a *Attribute) FieldRef {
	name := e.Schema
	if name == "" {
		name = s.Name
	}
	return FieldRef{Schema: name, Table: e.Name, Column: a.Name, PgType: a.PgType}
}
