package classifier

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/crimson-sun/cardiocare/internal/engine/schema"
)

// LoadImportances reads a YAML mapping of feature name to importance and
// returns the weights in schema order. Features absent from the file get 0.
func LoadImportances(path string, s *schema.Schema) ([]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("importances: %w", err)
	}
	var byName map[string]float64
	if err := yaml.Unmarshal(data, &byName); err != nil {
		return nil, fmt.Errorf("importances: parse %s: %w", path, err)
	}
	out := make([]float64, s.Len())
	for name, w := range byName {
		i, ok := s.Index(name)
		if !ok {
			return nil, fmt.Errorf("importances: %s: unknown feature %q", path, name)
		}
		if w < 0 {
			return nil, fmt.Errorf("importances: %s: %q has negative weight %v", path, name, w)
		}
		out[i] = w
	}
	return out, nil
}

// WithImportances attaches externally supplied importances to c, replacing
// any the backend reports itself.
func WithImportances(c Classifier, importances []float64) Classifier {
	return &withImportances{Classifier: c, importances: append([]float64(nil), importances...)}
}

type withImportances struct {
	Classifier
	importances []float64
}

func (w *withImportances) FeatureImportances() []float64 {
	return append([]float64(nil), w.importances...)
}

func (w *withImportances) FeatureNames() []string {
	if named, ok := w.Classifier.(FeatureNamer); ok {
		return named.FeatureNames()
	}
	return nil
}
