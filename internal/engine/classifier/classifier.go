package classifier

import (
	"fmt"
	"math"

	"github.com/crimson-sun/cardiocare/internal/engine/schema"
	"github.com/crimson-sun/cardiocare/internal/model"
)

// Threshold is the probability at or above which the positive class is predicted.
const Threshold = 0.5

// Label thresholds a positive-class probability into the binary risk label.
func Label(p float64) int {
	if p >= Threshold {
		return 1
	}
	return 0
}

// Classifier is a persisted model. Rows must already be encoded and scaled,
// with columns in schema order; implementations do not validate this.
type Classifier interface {
	PredictProba(rows []model.Vector) ([]float64, error)
	Close() error
}

// Importancer is implemented by classifiers that expose one importance weight
// per feature, in schema order.
type Importancer interface {
	FeatureImportances() []float64
}

// FeatureNamer is implemented by classifiers whose artifact records the
// column names it was trained on.
type FeatureNamer interface {
	FeatureNames() []string
}

// ImportancesOf returns c's feature importances, or nil when c has none.
func ImportancesOf(c Classifier) []float64 {
	if imp, ok := c.(Importancer); ok {
		return imp.FeatureImportances()
	}
	return nil
}

// Guard wraps a Classifier and re-validates its input contract before every
// call: row width and, when the backend records them, column names.
type Guard struct {
	inner    Classifier
	features []string
}

// NewGuard binds c to s. A backend that reports feature names must report
// exactly the schema's features in the schema's order.
func NewGuard(c Classifier, s *schema.Schema) (*Guard, error) {
	features := s.Features()
	if named, ok := c.(FeatureNamer); ok {
		if names := named.FeatureNames(); len(names) > 0 {
			if len(names) != len(features) {
				return nil, &model.SchemaMismatchError{
					Reason: fmt.Sprintf("classifier expects %d features, schema has %d", len(names), len(features)),
				}
			}
			for i := range names {
				if names[i] != features[i] {
					return nil, &model.SchemaMismatchError{
						Field:  features[i],
						Reason: fmt.Sprintf("classifier column %d is %q", i, names[i]),
					}
				}
			}
		}
	}
	if imp := ImportancesOf(c); imp != nil && len(imp) != len(features) {
		return nil, &model.SchemaMismatchError{
			Reason: fmt.Sprintf("classifier reports %d importances for %d features", len(imp), len(features)),
		}
	}
	return &Guard{inner: c, features: features}, nil
}

// PredictProba checks every row and then delegates. The returned slice has
// one probability in [0,1] per row.
func (g *Guard) PredictProba(rows []model.Vector) ([]float64, error) {
	for r, row := range rows {
		if len(row) != len(g.features) {
			return nil, &model.FeatureVectorShapeError{Row: r, Want: len(g.features), Got: len(row)}
		}
		for i, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, &model.FeatureVectorShapeError{
					Row: r, Want: len(g.features), Got: len(row),
					Reason: fmt.Sprintf("column %q is not finite", g.features[i]),
				}
			}
		}
	}
	if len(rows) == 0 {
		return nil, nil
	}

	probs, err := g.inner.PredictProba(rows)
	if err != nil {
		return nil, fmt.Errorf("classifier: %w", err)
	}
	if len(probs) != len(rows) {
		return nil, fmt.Errorf("classifier: returned %d probabilities for %d rows", len(probs), len(rows))
	}
	for i, p := range probs {
		if p < 0 || p > 1 || math.IsNaN(p) {
			return nil, fmt.Errorf("classifier: row %d probability %v outside [0,1]", i, p)
		}
	}
	return probs, nil
}

// FeatureImportances passes through the wrapped classifier's importances.
func (g *Guard) FeatureImportances() []float64 {
	return ImportancesOf(g.inner)
}

// Features returns the column names the guard enforces.
func (g *Guard) Features() []string {
	return append([]string(nil), g.features...)
}

// Close releases the wrapped classifier.
func (g *Guard) Close() error {
	return g.inner.Close()
}
