// Package server exposes interactive assessment sessions over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/crimson-sun/cardiocare/internal/engine/schema"
	"github.com/crimson-sun/cardiocare/internal/model"
	"github.com/crimson-sun/cardiocare/internal/output"
	"github.com/crimson-sun/cardiocare/internal/session"
)

const (
	defaultMaxBody  = 64 << 10
	shutdownTimeout = 5 * time.Second
)

// Assessor is the engine surface the handlers need.
type Assessor interface {
	session.Assessor
	Schema() *schema.Schema
}

// Server routes HTTP requests to sessions and the engine.
type Server struct {
	engine   Assessor
	store    *session.Store
	sink     output.Output
	gatherer prometheus.Gatherer
	logger   *slog.Logger
	maxBody  int64
	router   *gin.Engine
}

// Option configures a Server.
type Option func(*Server)

// WithSink receives every completed assessment.
func WithSink(o output.Output) Option {
	return func(s *Server) { s.sink = o }
}

// WithGatherer serves g on /metrics. Default: prometheus.DefaultGatherer.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// WithLogger replaces slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithMaxBody caps request bodies at n bytes. Default: 64KB.
func WithMaxBody(n int64) Option {
	return func(s *Server) { s.maxBody = n }
}

// New builds the router.
func New(a Assessor, store *session.Store, opts ...Option) *Server {
	s := &Server{
		engine:   a,
		store:    store,
		gatherer: prometheus.DefaultGatherer,
		logger:   slog.Default(),
		maxBody:  defaultMaxBody,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves on addr until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("http server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.logger), limitBody(s.maxBody))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))

	v1 := r.Group("/api/v1")
	v1.GET("/schema", s.handleSchema)
	v1.POST("/assess", s.handleAssess)

	sessions := v1.Group("/sessions")
	sessions.POST("", s.handleCreateSession)
	sessions.GET("/:id", s.withSession(s.handleGetSession))
	sessions.DELETE("/:id", s.handleDeleteSession)
	sessions.POST("/:id/submit", s.withSession(s.handleSubmit))
	sessions.POST("/:id/reset", s.withSession(s.handleReset))
	sessions.GET("/:id/report", s.withSession(s.handleReport))
	return r
}

// record forwards a result to the sink. Sink failures never fail the request.
func (s *Server) record(ctx context.Context, res model.PredictionResult) {
	if s.sink == nil {
		return
	}
	if err := s.sink.Write(ctx, res); err != nil {
		s.logger.Warn("result sink write failed", "id", res.ID, "error", err)
	}
}
