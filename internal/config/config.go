package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all CardioCare configuration.
type Config struct {
	Artifacts ArtifactConfig
	Server    ServerConfig
	Evaluate  EvaluateConfig
	Output    OutputConfig
	Log       LogConfig
}

// ArtifactConfig locates the trained model and its preprocessing parameters.
type ArtifactConfig struct {
	SchemaPath     string // empty selects the built-in schema
	ScalerPath     string
	ModelKind      string // "forest", "onnx", or empty to infer from ModelPath
	ModelPath      string
	ImportancePath string // optional YAML of feature weights
	RuntimeLibPath string // onnxruntime shared library
}

// ServerConfig holds HTTP surface settings.
type ServerConfig struct {
	ListenAddr    string
	SessionTTL    time.Duration // 0 disables expiry
	SweepInterval time.Duration
	MaxBodyBytes  int
}

// EvaluateConfig holds batch evaluation defaults.
type EvaluateConfig struct {
	DatasetPath string
	SampleSize  int // 0 evaluates every row
	Seed        uint64
	Workers     int // 0 means GOMAXPROCS
}

// OutputConfig selects where completed assessments are recorded.
type OutputConfig struct {
	Format     string // "none", "stdout", "file"
	Path       string
	Pretty     bool
	Detail     string // "summary", "full"
	MaxSize    int64  // file rotation threshold in bytes, 0 disables
	Sync       bool   // fsync the file on every flush
	WebhookURL string
}

// LogConfig holds slog settings.
type LogConfig struct {
	Level  string
	Format string // "text", "json"
}

// Load reads configuration from environment variables with defaults.
func Load() Config {
	return Config{
		Artifacts: ArtifactConfig{
			SchemaPath:     getenv("CARDIO_SCHEMA_PATH", "models/schema.yaml"),
			ScalerPath:     getenv("CARDIO_SCALER_PATH", "models/scaler.yaml"),
			ModelKind:      os.Getenv("CARDIO_MODEL_KIND"),
			ModelPath:      getenv("CARDIO_MODEL_PATH", "models/rf_model.json"),
			ImportancePath: os.Getenv("CARDIO_IMPORTANCE_PATH"),
			RuntimeLibPath: os.Getenv("CARDIO_ORT_LIB"),
		},
		Server: ServerConfig{
			ListenAddr:    getenv("CARDIO_LISTEN_ADDR", ":8080"),
			SessionTTL:    getenvDuration("CARDIO_SESSION_TTL", 30*time.Minute),
			SweepInterval: getenvDuration("CARDIO_SWEEP_INTERVAL", time.Minute),
			MaxBodyBytes:  getenvInt("CARDIO_MAX_BODY_BYTES", 64<<10),
		},
		Evaluate: EvaluateConfig{
			DatasetPath: getenv("CARDIO_DATASET_PATH", "data/cardio_train.csv"),
			SampleSize:  getenvInt("CARDIO_EVAL_SAMPLE", 3000),
			Seed:        uint64(getenvInt("CARDIO_EVAL_SEED", 42)),
			Workers:     getenvInt("CARDIO_EVAL_WORKERS", 0),
		},
		Output: OutputConfig{
			Format:     getenv("CARDIO_OUTPUT", "none"),
			Path:       getenv("CARDIO_OUTPUT_PATH", "assessments.ndjson"),
			Pretty:     os.Getenv("CARDIO_OUTPUT_PRETTY") == "true",
			Detail:     getenv("CARDIO_OUTPUT_DETAIL", "summary"),
			MaxSize:    int64(getenvInt("CARDIO_OUTPUT_MAX_SIZE", 0)),
			Sync:       os.Getenv("CARDIO_OUTPUT_SYNC") == "true",
			WebhookURL: os.Getenv("CARDIO_WEBHOOK_URL"),
		},
		Log: LogConfig{
			Level:  getenv("CARDIO_LOG_LEVEL", "info"),
			Format: getenv("CARDIO_LOG_FORMAT", "text"),
		},
	}
}

// Validate reports every invalid value at once.
func (c Config) Validate() error {
	var errs []error

	for _, f := range []struct{ name, path string }{
		{"schema", c.Artifacts.SchemaPath},
		{"scaler", c.Artifacts.ScalerPath},
		{"model", c.Artifacts.ModelPath},
		{"importance", c.Artifacts.ImportancePath},
	} {
		if f.path == "" {
			if f.name == "scaler" || f.name == "model" {
				errs = append(errs, fmt.Errorf("%s path is required", f.name))
			}
			continue
		}
		if _, err := os.Stat(f.path); err != nil {
			errs = append(errs, fmt.Errorf("%s file not found: %s", f.name, f.path))
		}
	}
	switch c.Artifacts.ModelKind {
	case "", "forest", "onnx":
	default:
		errs = append(errs, fmt.Errorf("model kind must be forest or onnx, got %q", c.Artifacts.ModelKind))
	}

	if c.Server.SessionTTL < 0 {
		errs = append(errs, fmt.Errorf("session ttl must be >= 0, got %v", c.Server.SessionTTL))
	}
	if c.Server.SweepInterval <= 0 {
		errs = append(errs, fmt.Errorf("sweep interval must be > 0, got %v", c.Server.SweepInterval))
	}
	if c.Server.MaxBodyBytes <= 0 {
		errs = append(errs, fmt.Errorf("max body bytes must be > 0, got %d", c.Server.MaxBodyBytes))
	}

	if c.Evaluate.SampleSize < 0 {
		errs = append(errs, fmt.Errorf("eval sample size must be >= 0, got %d", c.Evaluate.SampleSize))
	}
	if c.Evaluate.Workers < 0 {
		errs = append(errs, fmt.Errorf("eval workers must be >= 0, got %d", c.Evaluate.Workers))
	}

	switch c.Output.Format {
	case "none", "stdout":
	case "file":
		if c.Output.Path == "" {
			errs = append(errs, errors.New("output path is required for file output"))
		}
	default:
		errs = append(errs, fmt.Errorf("output must be none, stdout or file, got %q", c.Output.Format))
	}
	if c.Output.Detail != "summary" && c.Output.Detail != "full" {
		errs = append(errs, fmt.Errorf("output detail must be summary or full, got %q", c.Output.Detail))
	}
	if c.Output.MaxSize < 0 {
		errs = append(errs, fmt.Errorf("output max size must be >= 0, got %d", c.Output.MaxSize))
	}
	if c.Output.WebhookURL != "" {
		u, err := url.Parse(c.Output.WebhookURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Errorf("webhook url must be an absolute http(s) URL, got %q", c.Output.WebhookURL))
		}
	}

	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log format must be text or json, got %q", c.Log.Format))
	}

	return errors.Join(errs...)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
