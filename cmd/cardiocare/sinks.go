package main

import (
	"fmt"
	"io"

	"github.com/crimson-sun/cardiocare/internal/config"
	"github.com/crimson-sun/cardiocare/internal/metrics"
	"github.com/crimson-sun/cardiocare/internal/model"
	"github.com/crimson-sun/cardiocare/internal/output"
	"github.com/crimson-sun/cardiocare/internal/output/async"
	"github.com/crimson-sun/cardiocare/internal/output/file"
	"github.com/crimson-sun/cardiocare/internal/output/multi"
	"github.com/crimson-sun/cardiocare/internal/output/stdout"
	"github.com/crimson-sun/cardiocare/internal/output/webhook"
)

// buildSink assembles the configured result sinks. It returns nil when
// nothing is configured. The webhook is lossy so a slow receiver never
// stalls assessments.
func buildSink(cfg config.OutputConfig, w io.Writer, m *metrics.Metrics) (output.Output, error) {
	detail, err := output.ParseDetail(cfg.Detail)
	if err != nil {
		return nil, err
	}

	var outs []multi.Sink
	switch cfg.Format {
	case "stdout":
		outs = append(outs, multi.Sink{Name: "stdout", Output: stdout.NewWriter(w, detail, cfg.Pretty)})
	case "file":
		opts := []file.Option{file.WithMaxSize(cfg.MaxSize)}
		if cfg.Sync {
			opts = append(opts, file.WithSync())
		}
		f, err := file.New(cfg.Path, detail, opts...)
		if err != nil {
			return nil, err
		}
		outs = append(outs, multi.Sink{Name: "file", Output: async.New(f)})
	case "none", "":
	default:
		return nil, fmt.Errorf("unknown output %q", cfg.Format)
	}
	if cfg.WebhookURL != "" {
		hook := webhook.New(cfg.WebhookURL, webhook.WithDetail(output.Summary))
		outs = append(outs, multi.Sink{Name: "webhook", Output: async.New(hook, async.WithDropOnFull(func(model.PredictionResult) {
			m.ObserveDrop("webhook")
		}))})
	}

	switch len(outs) {
	case 0:
		return nil, nil
	case 1:
		return outs[0].Output, nil
	default:
		return multi.New(outs...), nil
	}
}
