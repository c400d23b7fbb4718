package cardiocare

import (
	"log/slog"
	"path/filepath"
)

type options struct {
	modelDir       string
	schemaPath     string
	scalerPath     string
	modelPath      string
	modelKind      string
	importancePath string
	runtimeLib     string
	logger         *slog.Logger
}

// Option configures a CardioCare instance.
type Option func(*options)

// WithModelDir sets the directory holding the artifacts.
// Expects: schema.yaml, scaler.yaml, rf_model.json.
func WithModelDir(dir string) Option {
	return func(o *options) { o.modelDir = dir }
}

// WithModelPaths sets explicit artifact paths. An empty schema path selects
// the built-in schema.
func WithModelPaths(schema, scaler, model string) Option {
	return func(o *options) {
		o.schemaPath = schema
		o.scalerPath = scaler
		o.modelPath = model
	}
}

// WithModelKind forces the classifier backend ("forest" or "onnx").
// Default: inferred from the model file extension.
func WithModelKind(kind string) Option {
	return func(o *options) { o.modelKind = kind }
}

// WithImportances loads feature weights from a YAML file, for models
// that carry none.
func WithImportances(path string) Option {
	return func(o *options) { o.importancePath = path }
}

// WithRuntimeLibrary sets the onnxruntime shared library path.
func WithRuntimeLibrary(path string) Option {
	return func(o *options) { o.runtimeLib = path }
}

// WithLogger replaces slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// resolvePaths prefers explicit paths over the model directory.
func resolvePaths(o options) (schema, scaler, model string) {
	if o.modelPath != "" {
		return o.schemaPath, o.scalerPath, o.modelPath
	}
	dir := o.modelDir
	if dir == "" {
		dir = "models"
	}
	return filepath.Join(dir, "schema.yaml"),
		filepath.Join(dir, "scaler.yaml"),
		filepath.Join(dir, "rf_model.json")
}
