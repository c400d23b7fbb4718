package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/crimson-sun/cardiocare/internal/config"
	"github.com/crimson-sun/cardiocare/internal/engine"
	"github.com/crimson-sun/cardiocare/internal/logging"

	// Register classifier backends.
	_ "github.com/crimson-sun/cardiocare/internal/engine/classifier/forest"
	_ "github.com/crimson-sun/cardiocare/internal/engine/classifier/onnx"
)

// app carries the configuration shared by every subcommand. Flags are
// bound directly to its fields, with environment values as defaults.
type app struct {
	cfg config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{cfg: config.Load()}

	root := &cobra.Command{
		Use:           "cardiocare",
		Short:         "Cardiovascular risk assessment from clinical and lifestyle inputs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Init(strings.EqualFold(a.cfg.Log.Format, "json"), logging.ParseLevel(a.cfg.Log.Level))
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&a.cfg.Artifacts.SchemaPath, "schema", a.cfg.Artifacts.SchemaPath, "feature schema YAML (empty for the built-in schema)")
	f.StringVar(&a.cfg.Artifacts.ScalerPath, "scaler", a.cfg.Artifacts.ScalerPath, "scaler parameters YAML")
	f.StringVar(&a.cfg.Artifacts.ModelPath, "model", a.cfg.Artifacts.ModelPath, "classifier artifact (.json forest or .onnx)")
	f.StringVar(&a.cfg.Artifacts.ModelKind, "model-kind", a.cfg.Artifacts.ModelKind, "classifier backend: forest or onnx (default: from extension)")
	f.StringVar(&a.cfg.Artifacts.ImportancePath, "importances", a.cfg.Artifacts.ImportancePath, "feature importances YAML for models without them")
	f.StringVar(&a.cfg.Artifacts.RuntimeLibPath, "ort-lib", a.cfg.Artifacts.RuntimeLibPath, "onnxruntime shared library")
	f.StringVar(&a.cfg.Log.Level, "log-level", a.cfg.Log.Level, "debug, info, warn or error")
	f.StringVar(&a.cfg.Log.Format, "log-format", a.cfg.Log.Format, "text or json")

	root.AddCommand(a.serveCmd(), a.assessCmd(), a.evaluateCmd(), a.scoreCmd())
	return root
}

func (a *app) loadEngine(opts ...engine.Option) (*engine.Engine, error) {
	if err := a.cfg.Validate(); err != nil {
		return nil, err
	}
	return engine.Load(engine.Artifacts{
		SchemaPath:     a.cfg.Artifacts.SchemaPath,
		ScalerPath:     a.cfg.Artifacts.ScalerPath,
		ModelKind:      a.cfg.Artifacts.ModelKind,
		ModelPath:      a.cfg.Artifacts.ModelPath,
		ImportancePath: a.cfg.Artifacts.ImportancePath,
		RuntimeLibPath: a.cfg.Artifacts.RuntimeLibPath,
	}, opts...)
}
