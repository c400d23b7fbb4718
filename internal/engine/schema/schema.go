package schema

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/crimson-sun/cardiocare/internal/model"
)

// Definition is the persisted form of a feature schema.
type Definition struct {
	Features []string                  `yaml:"features" json:"features"`
	Scaled   []string                  `yaml:"scaled" json:"scaled"`
	Mappings map[string]map[string]int `yaml:"mappings" json:"mappings"`
	Sex      map[string]map[string]int `yaml:"sex,omitempty" json:"sex,omitempty"`
}

// Schema is the immutable feature layout the classifier was trained on.
// Safe for concurrent use.
type Schema struct {
	features []string
	index    map[string]int
	scaled   []string
	mappings map[string]Mapping
	sex      OneHot
}

// New validates a definition and builds a Schema. Every name referenced by
// the mapping tables, the sex table or the scaled set must be a feature.
func New(def Definition) (*Schema, error) {
	if len(def.Features) == 0 {
		return nil, &model.SchemaMismatchError{Reason: "no features declared"}
	}

	s := &Schema{
		features: append([]string(nil), def.Features...),
		index:    make(map[string]int, len(def.Features)),
		mappings: make(map[string]Mapping, len(def.Mappings)),
	}
	for i, name := range s.features {
		if _, dup := s.index[name]; dup {
			return nil, &model.SchemaMismatchError{Field: name, Reason: "duplicate feature name"}
		}
		s.index[name] = i
	}

	seenScaled := make(map[string]bool, len(def.Scaled))
	for _, name := range def.Scaled {
		if _, ok := s.index[name]; !ok {
			return nil, &model.SchemaMismatchError{Field: name, Reason: "scaled column is not a feature"}
		}
		if seenScaled[name] {
			return nil, &model.SchemaMismatchError{Field: name, Reason: "scaled column listed twice"}
		}
		seenScaled[name] = true
		s.scaled = append(s.scaled, name)
	}

	for field, table := range def.Mappings {
		if _, ok := s.index[field]; !ok {
			return nil, &model.SchemaMismatchError{Field: field, Reason: "mapped field is not a feature"}
		}
		if seenScaled[field] {
			return nil, &model.SchemaMismatchError{Field: field, Reason: "categorical field must not be scaled"}
		}
		m, err := NewMapping(table)
		if err != nil {
			return nil, &model.SchemaMismatchError{Field: field, Reason: err.Error()}
		}
		s.mappings[field] = m
	}

	if def.Sex != nil {
		oh, err := newOneHot(def.Sex)
		if err != nil {
			return nil, &model.SchemaMismatchError{Field: model.FieldSex, Reason: err.Error()}
		}
		for _, c := range oh.Columns() {
			if _, ok := s.index[c]; !ok {
				return nil, &model.SchemaMismatchError{Field: c, Reason: "one-hot column is not a feature"}
			}
			if seenScaled[c] {
				return nil, &model.SchemaMismatchError{Field: c, Reason: "one-hot column must not be scaled"}
			}
		}
		s.sex = oh
	}

	return s, nil
}

// Load reads a YAML schema definition from path.
func Load(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("schema: parse %s: %w", path, err)
	}
	s, err := New(def)
	if err != nil {
		return nil, fmt.Errorf("schema: %s: %w", path, err)
	}
	return s, nil
}

// Features returns the ordered feature names.
func (s *Schema) Features() []string {
	return append([]string(nil), s.features...)
}

// Len returns the number of features, i.e. the encoded vector width.
func (s *Schema) Len() int { return len(s.features) }

// Index returns the column position of name.
func (s *Schema) Index(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

// Scaled returns the names of the columns that require numeric scaling,
// in declaration order.
func (s *Schema) Scaled() []string {
	return append([]string(nil), s.scaled...)
}

// Mapping returns the categorical table for field.
func (s *Schema) Mapping(field string) (Mapping, bool) {
	m, ok := s.mappings[field]
	return m, ok
}

// AboveLowest reports whether label maps to a code above the smallest code
// of field's table. Unknown fields and labels report false.
func (s *Schema) AboveLowest(field, label string) bool {
	m, ok := s.mappings[field]
	if !ok {
		return false
	}
	code, ok := m.Code(label)
	if !ok {
		return false
	}
	lowest, _ := m.Code(m.Lowest())
	return code > lowest
}

// Sex returns the binary one-hot table. Its columns are empty when the
// schema declares none.
func (s *Schema) Sex() OneHot { return s.sex }

// Definition returns the persisted form of s.
func (s *Schema) Definition() Definition {
	def := Definition{
		Features: s.Features(),
		Scaled:   s.Scaled(),
		Mappings: make(map[string]map[string]int, len(s.mappings)),
	}
	for field, m := range s.mappings {
		table := make(map[string]int, m.Len())
		for _, l := range m.Labels() {
			c, _ := m.Code(l)
			table[l] = c
		}
		def.Mappings[field] = table
	}
	if len(s.sex.rows) > 0 {
		def.Sex = make(map[string]map[string]int, 2)
		cols := s.sex.Columns()
		for _, l := range s.sex.Labels() {
			row, _ := s.sex.Encode(l)
			def.Sex[l] = map[string]int{cols[0]: int(row[0]), cols[1]: int(row[1])}
		}
	}
	return def
}
