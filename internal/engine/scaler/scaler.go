package scaler

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/crimson-sun/cardiocare/internal/engine/schema"
	"github.com/crimson-sun/cardiocare/internal/model"
)

// Kind names the scaling scheme a persisted scaler encodes.
type Kind string

const (
	Standard Kind = "standard" // (x - mean) / scale
	MinMax   Kind = "minmax"   // (x - min) / (max - min), mapped onto feature_range
)

// Definition is the persisted form of fitted scaler parameters. Slices are
// parallel to Columns.
type Definition struct {
	Kind         Kind       `yaml:"kind"`
	Columns      []string   `yaml:"columns"`
	Mean         []float64  `yaml:"mean,omitempty"`
	Scale        []float64  `yaml:"scale,omitempty"`
	Min          []float64  `yaml:"min,omitempty"`
	Max          []float64  `yaml:"max,omitempty"`
	FeatureRange [2]float64 `yaml:"feature_range,omitempty"`
}

type column struct {
	pos   int
	shift float64
	scale float64
	lo    float64
}

// Scaler applies fitted per-column parameters to the scaled positions of an
// encoded vector. It is read-only after construction.
type Scaler struct {
	kind    Kind
	width   int
	columns []column
}

// New binds a definition to a schema. The scaler's columns must be exactly
// the schema's scaled set.
func New(def Definition, s *schema.Schema) (*Scaler, error) {
	n := len(def.Columns)
	if n == 0 {
		return nil, &model.SchemaMismatchError{Reason: "scaler declares no columns"}
	}

	want := make(map[string]bool)
	for _, c := range s.Scaled() {
		want[c] = true
	}
	if len(want) != n {
		return nil, &model.SchemaMismatchError{
			Reason: fmt.Sprintf("scaler has %d columns, schema marks %d as scaled", n, len(want)),
		}
	}

	sc := &Scaler{kind: def.Kind, width: s.Len(), columns: make([]column, n)}
	switch def.Kind {
	case Standard:
		if len(def.Mean) != n || len(def.Scale) != n {
			return nil, fmt.Errorf("scaler: standard needs %d means and scales, got %d and %d", n, len(def.Mean), len(def.Scale))
		}
	case MinMax:
		if len(def.Min) != n || len(def.Max) != n {
			return nil, fmt.Errorf("scaler: minmax needs %d mins and maxes, got %d and %d", n, len(def.Min), len(def.Max))
		}
	default:
		return nil, fmt.Errorf("scaler: unknown kind %q", def.Kind)
	}

	lo, hi := def.FeatureRange[0], def.FeatureRange[1]
	if lo == 0 && hi == 0 {
		hi = 1
	}
	if def.Kind == MinMax && hi <= lo {
		return nil, fmt.Errorf("scaler: feature_range [%v, %v] is empty", lo, hi)
	}

	for i, name := range def.Columns {
		if !want[name] {
			return nil, &model.SchemaMismatchError{Field: name, Reason: "scaler column is not marked scaled in schema"}
		}
		delete(want, name)
		pos, _ := s.Index(name)

		// Constant columns were fitted with zero spread; scikit-learn
		// substitutes 1 so the column passes through shifted.
		col := column{pos: pos}
		switch def.Kind {
		case Standard:
			col.shift = def.Mean[i]
			col.scale = def.Scale[i]
			if col.scale == 0 {
				col.scale = 1
			}
		case MinMax:
			span := def.Max[i] - def.Min[i]
			if span == 0 {
				span = 1
			}
			col.shift = def.Min[i]
			col.scale = span / (hi - lo)
			col.lo = lo
		}
		sc.columns[i] = col
	}
	return sc, nil
}

// Load reads a YAML scaler definition and binds it to s.
func Load(path string, s *schema.Schema) (*Scaler, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scaler: %w", err)
	}
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("scaler: parse %s: %w", path, err)
	}
	sc, err := New(def, s)
	if err != nil {
		return nil, fmt.Errorf("scaler: %s: %w", path, err)
	}
	return sc, nil
}

// Kind returns the scaling scheme.
func (s *Scaler) Kind() Kind { return s.kind }

// Apply returns a scaled copy of vec. Only scaled positions change; categorical
// codes and one-hot columns pass through untouched.
func (s *Scaler) Apply(vec model.Vector) (model.Vector, error) {
	if len(vec) != s.width {
		return nil, &model.FeatureVectorShapeError{Want: s.width, Got: len(vec)}
	}
	out := vec.Clone()
	for _, c := range s.columns {
		out[c.pos] = (vec[c.pos]-c.shift)/c.scale + c.lo
	}
	return out, nil
}
