package engine

import (
	"fmt"
	"log/slog"

	"github.com/crimson-sun/cardiocare/internal/engine/classifier"
	"github.com/crimson-sun/cardiocare/internal/engine/scaler"
	"github.com/crimson-sun/cardiocare/internal/engine/schema"
)

// Artifacts locates the persisted schema, scaler and model. An empty
// SchemaPath selects schema.Default; an empty ModelKind is inferred from
// the model file's extension.
type Artifacts struct {
	SchemaPath     string
	ScalerPath     string
	ModelKind      string
	ModelPath      string
	ImportancePath string
	RuntimeLibPath string
}

// Load reads every artifact once and wires an Engine over them. The
// classifier backend for ModelKind must be registered, normally by a blank
// import of its package.
func Load(a Artifacts, opts ...Option) (*Engine, error) {
	s := schema.Default()
	if a.SchemaPath != "" {
		var err error
		if s, err = schema.Load(a.SchemaPath); err != nil {
			return nil, fmt.Errorf("engine: %w", err)
		}
	}

	sc, err := scaler.Load(a.ScalerPath, s)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	kind := a.ModelKind
	if kind == "" {
		kind = classifier.KindFor(a.ModelPath)
	}
	clf, err := classifier.Open(kind, a.ModelPath, classifier.Options{
		Features:       s.Len(),
		RuntimeLibPath: a.RuntimeLibPath,
	})
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	if a.ImportancePath != "" {
		imp, err := classifier.LoadImportances(a.ImportancePath, s)
		if err != nil {
			clf.Close()
			return nil, fmt.Errorf("engine: %w", err)
		}
		clf = classifier.WithImportances(clf, imp)
	}

	e, err := New(s, sc, clf, opts...)
	if err != nil {
		clf.Close()
		return nil, err
	}
	e.logger.Info("artifacts loaded",
		slog.Int("features", s.Len()),
		slog.String("scaler", string(sc.Kind())),
		slog.String("model_kind", kind),
		slog.String("model_path", a.ModelPath),
	)
	return e, nil
}
