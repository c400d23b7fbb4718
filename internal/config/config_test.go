package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var cardioVars = []string{
	"CARDIO_SCHEMA_PATH", "CARDIO_SCALER_PATH", "CARDIO_MODEL_KIND", "CARDIO_MODEL_PATH",
	"CARDIO_IMPORTANCE_PATH", "CARDIO_ORT_LIB", "CARDIO_LISTEN_ADDR", "CARDIO_SESSION_TTL",
	"CARDIO_SWEEP_INTERVAL", "CARDIO_MAX_BODY_BYTES", "CARDIO_DATASET_PATH",
	"CARDIO_EVAL_SAMPLE", "CARDIO_EVAL_SEED", "CARDIO_EVAL_WORKERS", "CARDIO_OUTPUT",
	"CARDIO_OUTPUT_PATH", "CARDIO_OUTPUT_PRETTY", "CARDIO_OUTPUT_DETAIL",
	"CARDIO_OUTPUT_MAX_SIZE", "CARDIO_OUTPUT_SYNC", "CARDIO_WEBHOOK_URL", "CARDIO_LOG_LEVEL", "CARDIO_LOG_FORMAT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range cardioVars {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg := Load()

	if cfg.Artifacts.ModelPath != "models/rf_model.json" {
		t.Errorf("ModelPath = %q", cfg.Artifacts.ModelPath)
	}
	if cfg.Artifacts.ModelKind != "" {
		t.Errorf("ModelKind = %q, want inferred", cfg.Artifacts.ModelKind)
	}
	if cfg.Server.ListenAddr != ":8080" {
		t.Errorf("ListenAddr = %q", cfg.Server.ListenAddr)
	}
	if cfg.Server.SessionTTL != 30*time.Minute {
		t.Errorf("SessionTTL = %v", cfg.Server.SessionTTL)
	}
	if cfg.Evaluate.SampleSize != 3000 || cfg.Evaluate.Seed != 42 {
		t.Errorf("Evaluate = %+v", cfg.Evaluate)
	}
	if cfg.Output.Format != "none" || cfg.Output.Pretty || cfg.Output.Detail != "summary" {
		t.Errorf("Output = %+v", cfg.Output)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "text" {
		t.Errorf("Log = %+v", cfg.Log)
	}
}

func TestLoad_Env(t *testing.T) {
	clearEnv(t)
	t.Setenv("CARDIO_MODEL_PATH", "models/rf_model.onnx")
	t.Setenv("CARDIO_MODEL_KIND", "onnx")
	t.Setenv("CARDIO_SESSION_TTL", "5m")
	t.Setenv("CARDIO_EVAL_SAMPLE", "0")
	t.Setenv("CARDIO_EVAL_SEED", "7")
	t.Setenv("CARDIO_OUTPUT", "file")
	t.Setenv("CARDIO_OUTPUT_PRETTY", "true")
	t.Setenv("CARDIO_OUTPUT_MAX_SIZE", "1048576")
	t.Setenv("CARDIO_OUTPUT_SYNC", "true")
	t.Setenv("CARDIO_LOG_FORMAT", "json")

	cfg := Load()
	if cfg.Artifacts.ModelKind != "onnx" || cfg.Artifacts.ModelPath != "models/rf_model.onnx" {
		t.Errorf("Artifacts = %+v", cfg.Artifacts)
	}
	if cfg.Server.SessionTTL != 5*time.Minute {
		t.Errorf("SessionTTL = %v", cfg.Server.SessionTTL)
	}
	if cfg.Evaluate.SampleSize != 0 || cfg.Evaluate.Seed != 7 {
		t.Errorf("Evaluate = %+v", cfg.Evaluate)
	}
	if cfg.Output.Format != "file" || !cfg.Output.Pretty || cfg.Output.MaxSize != 1<<20 || !cfg.Output.Sync {
		t.Errorf("Output = %+v", cfg.Output)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("Log.Format = %q", cfg.Log.Format)
	}
}

func TestLoad_BadValuesFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("CARDIO_SESSION_TTL", "soon")
	t.Setenv("CARDIO_EVAL_SAMPLE", "lots")

	cfg := Load()
	if cfg.Server.SessionTTL != 30*time.Minute {
		t.Errorf("SessionTTL = %v", cfg.Server.SessionTTL)
	}
	if cfg.Evaluate.SampleSize != 3000 {
		t.Errorf("SampleSize = %d", cfg.Evaluate.SampleSize)
	}
}

// validConfig returns a config whose artifact paths exist.
func validConfig(t *testing.T) Config {
	t.Helper()
	dir := t.TempDir()
	touch := func(name string) string {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
		return p
	}
	clearEnv(t)
	cfg := Load()
	cfg.Artifacts.SchemaPath = touch("schema.yaml")
	cfg.Artifacts.ScalerPath = touch("scaler.yaml")
	cfg.Artifacts.ModelPath = touch("rf_model.json")
	return cfg
}

func TestValidate_ValidConfig(t *testing.T) {
	if err := validConfig(t).Validate(); err != nil {
		t.Fatalf("expected nil error for valid config, got: %v", err)
	}
}

func TestValidate_EmptySchemaPathAllowed(t *testing.T) {
	cfg := validConfig(t)
	cfg.Artifacts.SchemaPath = ""
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty schema path should select the built-in schema: %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing model", func(c *Config) { c.Artifacts.ModelPath = "/nonexistent/rf.json" }, "model file not found"},
		{"empty scaler", func(c *Config) { c.Artifacts.ScalerPath = "" }, "scaler path is required"},
		{"missing importances", func(c *Config) { c.Artifacts.ImportancePath = "/nonexistent/imp.yaml" }, "importance"},
		{"bad kind", func(c *Config) { c.Artifacts.ModelKind = "xgboost" }, "model kind"},
		{"negative ttl", func(c *Config) { c.Server.SessionTTL = -time.Second }, "session ttl"},
		{"zero sweep", func(c *Config) { c.Server.SweepInterval = 0 }, "sweep interval"},
		{"negative sample", func(c *Config) { c.Evaluate.SampleSize = -1 }, "sample size"},
		{"bad output", func(c *Config) { c.Output.Format = "kafka" }, "output must be"},
		{"file without path", func(c *Config) { c.Output.Format, c.Output.Path = "file", "" }, "output path"},
		{"bad detail", func(c *Config) { c.Output.Detail = "verbose" }, "detail"},
		{"relative webhook", func(c *Config) { c.Output.WebhookURL = "/hooks/results" }, "webhook"},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "log format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestValidate_MultipleErrors(t *testing.T) {
	cfg := validConfig(t)
	cfg.Artifacts.ModelKind = "svm"
	cfg.Output.Detail = "loud"
	cfg.Log.Format = "yaml"
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for multiple bad fields")
	}
	msg := err.Error()
	for _, want := range []string{"model kind", "detail", "log format"} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected error to mention %q, got: %v", want, msg)
		}
	}
}

func TestGetenvInt(t *testing.T) {
	tests := []struct {
		name     string
		envVal   string
		fallback int
		want     int
	}{
		{"unset", "", 10, 10},
		{"valid", "25", 10, 25},
		{"negative", "-3", 10, -3},
		{"invalid", "abc", 10, 10},
	}
	const key = "CARDIO_TEST_INT"
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(key, tt.envVal)
			if got := getenvInt(key, tt.fallback); got != tt.want {
				t.Errorf("getenvInt(%q, %d) = %d, want %d", tt.envVal, tt.fallback, got, tt.want)
			}
		})
	}
}
