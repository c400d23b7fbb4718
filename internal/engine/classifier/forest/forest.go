// Package forest evaluates tree ensembles exported from scikit-learn's
// RandomForestClassifier. Each tree is stored as the parallel node arrays of
// its tree_ attribute.
package forest

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/crimson-sun/cardiocare/internal/engine/classifier"
	"github.com/crimson-sun/cardiocare/internal/model"
)

func init() {
	classifier.Register("forest", func(path string, opts classifier.Options) (classifier.Classifier, error) {
		f, err := Load(path)
		if err != nil {
			return nil, err
		}
		if opts.Features > 0 && f.nFeatures != opts.Features {
			return nil, &model.SchemaMismatchError{
				Reason: fmt.Sprintf("forest expects %d features, schema has %d", f.nFeatures, opts.Features),
			}
		}
		return f, nil
	})
}

const leaf = -1

// Tree is one fitted decision tree. Node i is a leaf when ChildrenLeft[i]
// is -1; otherwise rows with x[Feature[i]] <= Threshold[i] go left.
type Tree struct {
	ChildrenLeft  []int       `json:"children_left"`
	ChildrenRight []int       `json:"children_right"`
	Feature       []int       `json:"feature"`
	Threshold     []float64   `json:"threshold"`
	Value         [][]float64 `json:"value"`
}

// Artifact is the on-disk forest document.
type Artifact struct {
	NFeatures          int       `json:"n_features"`
	FeatureNames       []string  `json:"feature_names,omitempty"`
	Classes            []int     `json:"classes"`
	FeatureImportances []float64 `json:"feature_importances,omitempty"`
	Trees              []Tree    `json:"trees"`
}

// Forest averages the leaf class distributions of its trees, the way
// predict_proba does for a random forest.
type Forest struct {
	nFeatures   int
	names       []string
	positive    int
	importances []float64
	trees       []tree
}

type tree struct {
	left, right []int
	feature     []int
	threshold   []float64
	proba       []float64 // positive-class fraction per node; leaves only
}

// Load reads a forest artifact from a JSON file.
func Load(path string) (*Forest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("forest: %w", err)
	}
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("forest: parse %s: %w", path, err)
	}
	f, err := New(a)
	if err != nil {
		return nil, fmt.Errorf("forest: %s: %w", path, err)
	}
	return f, nil
}

// New validates an artifact and builds an evaluable forest.
func New(a Artifact) (*Forest, error) {
	if a.NFeatures <= 0 {
		return nil, fmt.Errorf("n_features must be positive, got %d", a.NFeatures)
	}
	if len(a.FeatureNames) > 0 && len(a.FeatureNames) != a.NFeatures {
		return nil, fmt.Errorf("%d feature names for %d features", len(a.FeatureNames), a.NFeatures)
	}
	if len(a.FeatureImportances) > 0 && len(a.FeatureImportances) != a.NFeatures {
		return nil, fmt.Errorf("%d importances for %d features", len(a.FeatureImportances), a.NFeatures)
	}
	if len(a.Trees) == 0 {
		return nil, fmt.Errorf("forest has no trees")
	}

	classes := a.Classes
	if len(classes) == 0 {
		classes = []int{0, 1}
	}
	if len(classes) != 2 {
		return nil, fmt.Errorf("binary classifier needs 2 classes, got %v", classes)
	}
	positive := -1
	for i, c := range classes {
		if c == 1 {
			positive = i
		}
	}
	if positive < 0 {
		return nil, fmt.Errorf("classes %v has no positive class 1", classes)
	}

	f := &Forest{
		nFeatures:   a.NFeatures,
		names:       append([]string(nil), a.FeatureNames...),
		positive:    positive,
		importances: append([]float64(nil), a.FeatureImportances...),
		trees:       make([]tree, len(a.Trees)),
	}
	for ti, t := range a.Trees {
		built, err := buildTree(t, a.NFeatures, positive)
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", ti, err)
		}
		f.trees[ti] = built
	}
	return f, nil
}

func buildTree(t Tree, nFeatures, positive int) (tree, error) {
	n := len(t.ChildrenLeft)
	if n == 0 {
		return tree{}, fmt.Errorf("no nodes")
	}
	if len(t.ChildrenRight) != n || len(t.Feature) != n || len(t.Threshold) != n || len(t.Value) != n {
		return tree{}, fmt.Errorf("node arrays have unequal lengths")
	}

	out := tree{
		left:      t.ChildrenLeft,
		right:     t.ChildrenRight,
		feature:   t.Feature,
		threshold: t.Threshold,
		proba:     make([]float64, n),
	}
	for i := 0; i < n; i++ {
		l, r := t.ChildrenLeft[i], t.ChildrenRight[i]
		if l == leaf || r == leaf {
			if l != r {
				return tree{}, fmt.Errorf("node %d has one child", i)
			}
			p, err := leafProba(t.Value[i], positive)
			if err != nil {
				return tree{}, fmt.Errorf("node %d: %w", i, err)
			}
			out.proba[i] = p
			continue
		}
		// Children always follow their parent in sklearn's node order, which
		// also rules out cycles.
		if l <= i || r <= i || l >= n || r >= n {
			return tree{}, fmt.Errorf("node %d has invalid children %d, %d", i, l, r)
		}
		if f := t.Feature[i]; f < 0 || f >= nFeatures {
			return tree{}, fmt.Errorf("node %d splits on feature %d", i, f)
		}
	}
	return out, nil
}

// leafProba normalises a leaf's class weights. Older sklearn versions store
// sample counts, newer ones store fractions; both normalise the same way.
func leafProba(value []float64, positive int) (float64, error) {
	if len(value) != 2 {
		return 0, fmt.Errorf("leaf value has %d classes", len(value))
	}
	total := value[0] + value[1]
	if total <= 0 || value[0] < 0 || value[1] < 0 {
		return 0, fmt.Errorf("leaf value %v is not a distribution", value)
	}
	return value[positive] / total, nil
}

func (t *tree) predict(row model.Vector) float64 {
	node := 0
	for t.left[node] != leaf {
		if row[t.feature[node]] <= t.threshold[node] {
			node = t.left[node]
		} else {
			node = t.right[node]
		}
	}
	return t.proba[node]
}

// PredictProba returns the positive-class probability of each row.
func (f *Forest) PredictProba(rows []model.Vector) ([]float64, error) {
	out := make([]float64, len(rows))
	for r, row := range rows {
		if len(row) != f.nFeatures {
			return nil, &model.FeatureVectorShapeError{Row: r, Want: f.nFeatures, Got: len(row)}
		}
		var sum float64
		for i := range f.trees {
			sum += f.trees[i].predict(row)
		}
		out[r] = sum / float64(len(f.trees))
	}
	return out, nil
}

// FeatureImportances returns the impurity-based importances recorded at
// export time, or nil.
func (f *Forest) FeatureImportances() []float64 {
	if len(f.importances) == 0 {
		return nil
	}
	return append([]float64(nil), f.importances...)
}

// FeatureNames returns the training column names, or nil when unrecorded.
func (f *Forest) FeatureNames() []string {
	if len(f.names) == 0 {
		return nil
	}
	return append([]string(nil), f.names...)
}

// Trees returns the ensemble size.
func (f *Forest) Trees() int { return len(f.trees) }

// Close is a no-op; forests hold no external resources.
func (f *Forest) Close() error { return nil }
