package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/crimson-sun/cardiocare/internal/engine"
	"github.com/crimson-sun/cardiocare/internal/metrics"
	"github.com/crimson-sun/cardiocare/internal/server"
	"github.com/crimson-sun/cardiocare/internal/session"
)

func (a *app) serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve interactive assessment sessions over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
	f := cmd.Flags()
	f.StringVar(&a.cfg.Server.ListenAddr, "addr", a.cfg.Server.ListenAddr, "listen address")
	f.DurationVar(&a.cfg.Server.SessionTTL, "session-ttl", a.cfg.Server.SessionTTL, "idle time before a session expires (0 keeps sessions forever)")
	f.StringVar(&a.cfg.Output.Format, "output", a.cfg.Output.Format, "record results to none, stdout or file")
	f.StringVar(&a.cfg.Output.Path, "output-path", a.cfg.Output.Path, "NDJSON file for --output=file")
	f.StringVar(&a.cfg.Output.Detail, "detail", a.cfg.Output.Detail, "record detail: summary or full")
	f.StringVar(&a.cfg.Output.WebhookURL, "webhook", a.cfg.Output.WebhookURL, "POST result batches to this URL")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	e, err := a.loadEngine(engine.WithMetrics(m))
	if err != nil {
		return err
	}
	defer e.Close()

	sink, err := buildSink(a.cfg.Output, os.Stdout, m)
	if err != nil {
		return err
	}
	if sink != nil {
		defer func() {
			if err := sink.Close(); err != nil {
				slog.Warn("closing result sink", "error", err)
			}
		}()
	}

	store := session.NewStore(a.cfg.Server.SessionTTL, session.WithMetrics(m))
	if a.cfg.Server.SessionTTL > 0 {
		go store.Run(ctx, a.cfg.Server.SweepInterval)
	}

	srv := server.New(e, store,
		server.WithSink(sink),
		server.WithGatherer(reg),
		server.WithMaxBody(int64(a.cfg.Server.MaxBodyBytes)),
	)
	return srv.Run(ctx, a.cfg.Server.ListenAddr)
}
