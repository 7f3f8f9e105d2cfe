// Package schema defines the introspected database model consumed by the
// generation pipeline, plus the field-level type-hint rules used by leaf
// generators.
//
// The model is produced by an external introspection step and treated as an
// opaque, read-only value by the engine: plugins receive it in their declare
// and render contexts and never mutate it.
package schema

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// EntityKind classifies the database object an Entity describes.
type EntityKind string

const (
	KindTable     EntityKind = "table"
	KindView      EntityKind = "view"
	KindEnum      EntityKind = "enum"
	KindComposite EntityKind = "composite"
)

type (
	// Schema is the root of the introspected model: every entity of one
	// database schema (or several, when entities carry their own schema name).
	Schema struct {
		// Name is the default database schema name, usually "public".
		Name string `yaml:"name" json:"name"`
		// Entities holds tables, views, enums and composite types in
		// introspection order.
		Entities []*Entity `yaml:"entities" json:"entities"`

		byName map[string]*Entity
	}

	// Entity is one introspected database object.
	Entity struct {
		// Schema is the database schema the entity lives in. Empty means the
		// root Schema.Name applies.
		Schema string     `yaml:"schema,omitempty" json:"schema,omitempty"`
		Name   string     `yaml:"name" json:"name"`
		Kind   EntityKind `yaml:"kind" json:"kind"`
		// Attributes holds the columns of a table or view, or the fields of a
		// composite type.
		Attributes []*Attribute `yaml:"attributes,omitempty" json:"attributes,omitempty"`
		// PrimaryKey lists the attribute names forming the primary key.
		PrimaryKey []string    `yaml:"primary_key,omitempty" json:"primary_key,omitempty"`
		Indexes    []*Index    `yaml:"indexes,omitempty" json:"indexes,omitempty"`
		Relations  []*Relation `yaml:"relations,omitempty" json:"relations,omitempty"`
		// Permissions maps a database role to its statement-level grants.
		Permissions map[string]Permissions `yaml:"permissions,omitempty" json:"permissions,omitempty"`
		// Values holds the labels of an enum entity, in declaration order.
		Values []string `yaml:"values,omitempty" json:"values,omitempty"`
	}

	// Attribute is a single column or composite field.
	Attribute struct {
		Name string `yaml:"name" json:"name"`
		// PgType is the raw database type as reported by the catalog, e.g.
		// "character varying(255)" or "uuid".
		PgType    string `yaml:"pg_type" json:"pg_type"`
		Nullable  bool   `yaml:"nullable,omitempty" json:"nullable,omitempty"`
		HasDefault bool  `yaml:"has_default,omitempty" json:"has_default,omitempty"`
		Array     bool   `yaml:"array,omitempty" json:"array,omitempty"`
		// Generated marks GENERATED ALWAYS AS columns; such attributes are
		// read-only in generated mutation code.
		Generated bool `yaml:"generated,omitempty" json:"generated,omitempty"`
	}

	// Index is an introspected index definition.
	Index struct {
		Name    string   `yaml:"name" json:"name"`
		Columns []string `yaml:"columns,omitempty" json:"columns,omitempty"`
		// Method is the index access method, e.g. "btree" or "gin".
		Method     string `yaml:"method,omitempty" json:"method,omitempty"`
		Unique     bool   `yaml:"unique,omitempty" json:"unique,omitempty"`
		Partial    bool   `yaml:"partial,omitempty" json:"partial,omitempty"`
		Expression bool   `yaml:"expression,omitempty" json:"expression,omitempty"`
	}

	// Relation is a foreign-key relation from this entity to another.
	Relation struct {
		Name       string   `yaml:"name" json:"name"`
		Columns    []string `yaml:"columns" json:"columns"`
		RefEntity  string   `yaml:"ref_entity" json:"ref_entity"`
		RefColumns []string `yaml:"ref_columns" json:"ref_columns"`
	}

	// Permissions holds the statement-level grants of one role on one entity.
	Permissions struct {
		Select bool `yaml:"select,omitempty" json:"select,omitempty"`
		Insert bool `yaml:"insert,omitempty" json:"insert,omitempty"`
		Update bool `yaml:"update,omitempty" json:"update,omitempty"`
		Delete bool `yaml:"delete,omitempty" json:"delete,omitempty"`
	}
)

// Entity returns the entity with the given name, or nil.
func (s *Schema) Entity(name string) *Entity {
	if s.byName == nil {
		s.byName = make(map[string]*Entity, len(s.Entities))
		for _, e := range s.Entities {
			s.byName[e.Name] = e
		}
	}
	return s.byName[name]
}

// Tables returns the entities of kind table, in introspection order.
func (s *Schema) Tables() []*Entity {
	var out []*Entity
	for _, e := range s.Entities {
		if e.Kind == KindTable {
			out = append(out, e)
		}
	}
	return out
}

// IsView reports whether the entity is a database view.
func (e *Entity) IsView() bool { return e.Kind == KindView }

// Attribute returns the attribute with the given name, or nil.
func (e *Entity) Attribute(name string) *Attribute {
	for _, a := range e.Attributes {
		if a.Name == name {
			return a
		}
	}
	return nil
}

// Allowed reports whether the given role holds the given grant on the entity.
// An entity with no permission map allows everything; introspection only
// records the map when row-level grants are in force.
func (e *Entity) Allowed(role, op string) bool {
	if len(e.Permissions) == 0 {
		return true
	}
	p, ok := e.Permissions[role]
	if !ok {
		return false
	}
	switch op {
	case "select":
		return p.Select
	case "insert":
		return p.Insert
	case "update":
		return p.Update
	case "delete":
		return p.Delete
	}
	return false
}

// Load reads a serialized schema model from a YAML file.
func Load(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("schema: read %s: %w", path, err)
	}
	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("schema: parse %s: %w", path, err)
	}
	return &s, nil
}
