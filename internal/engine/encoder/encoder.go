package encoder

import (
	"github.com/crimson-sun/cardiocare/internal/engine/schema"
	"github.com/crimson-sun/cardiocare/internal/model"
)

// Encoder turns raw assessment input into the numeric vector the classifier
// expects. It holds no state beyond the schema and is safe for concurrent use.
type Encoder struct {
	schema *schema.Schema
}

// New creates an Encoder for s.
func New(s *schema.Schema) *Encoder {
	return &Encoder{schema: s}
}

// Check verifies that every field the encoder sets has a position (and, for
// categoricals, a table) in the schema. Run it once at startup so a
// mismatched artifact fails before any request is served.
func (e *Encoder) Check() error {
	for _, f := range model.NumericFields {
		if _, ok := e.schema.Index(f); !ok {
			return &model.SchemaMismatchError{Field: f, Reason: "required numeric feature missing"}
		}
	}
	for _, f := range model.CategoricalFields {
		if _, ok := e.schema.Index(f); !ok {
			return &model.SchemaMismatchError{Field: f, Reason: "required categorical feature missing"}
		}
		if _, ok := e.schema.Mapping(f); !ok {
			return &model.SchemaMismatchError{Field: f, Reason: "no mapping table"}
		}
	}
	for _, c := range e.schema.Sex().Columns() {
		if _, ok := e.schema.Index(c); !ok {
			return &model.SchemaMismatchError{Field: model.FieldSex, Reason: "one-hot columns missing"}
		}
	}
	return nil
}

// Encode builds a fresh vector: every position starts at zero, then only the
// declared positions are set. Numerics are written raw; scaling is a later,
// separate step.
func (e *Encoder) Encode(in model.RawAssessmentInput) (model.Vector, error) {
	vec := make(model.Vector, e.schema.Len())

	for _, f := range model.NumericFields {
		i, ok := e.schema.Index(f)
		if !ok {
			return nil, &model.SchemaMismatchError{Field: f, Reason: "required numeric feature missing"}
		}
		v, _ := in.Numeric(f)
		vec[i] = v
	}

	for _, f := range model.CategoricalFields {
		i, ok := e.schema.Index(f)
		if !ok {
			return nil, &model.SchemaMismatchError{Field: f, Reason: "required categorical feature missing"}
		}
		table, ok := e.schema.Mapping(f)
		if !ok {
			return nil, &model.SchemaMismatchError{Field: f, Reason: "no mapping table"}
		}
		label, _ := in.Categorical(f)
		code, ok := table.Code(label)
		if !ok {
			return nil, &model.UnknownCategoryError{Field: f, Value: label}
		}
		vec[i] = float64(code)
	}

	sex := e.schema.Sex()
	cols := sex.Columns()
	pos := [2]int{}
	for k, c := range cols {
		i, ok := e.schema.Index(c)
		if !ok || c == "" {
			return nil, &model.SchemaMismatchError{Field: model.FieldSex, Reason: "one-hot columns missing"}
		}
		pos[k] = i
	}
	row, ok := sex.Encode(string(in.Sex))
	if !ok {
		return nil, &model.UnknownCategoryError{Field: model.FieldSex, Value: string(in.Sex)}
	}
	vec[pos[0]] = row[0]
	vec[pos[1]] = row[1]

	return vec, nil
}
