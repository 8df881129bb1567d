// Package server exposes the HTTP surface of the assistant: the voice command
// endpoint, health probes, and the Prometheus metrics scrape route.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ShridharB-cloud/soundwave-dreams/internal/health"
	"github.com/ShridharB-cloud/soundwave-dreams/internal/observe"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 15 * time.Second
)

// Server hosts all HTTP routes on a single listener.
type Server struct {
	srv *http.Server
	log *slog.Logger
}

// Option customizes a [Server].
type Option func(*options)

type options struct {
	metrics *observe.Metrics
}

// WithMetrics overrides the metrics set used by the middleware and handlers.
func WithMetrics(m *observe.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// New builds a [Server] listening on addr. voice handles the command endpoint
// and checkers feed the readiness probe.
func New(addr string, voice *VoiceHandler, checkers []health.Checker, opts ...Option) *Server {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.metrics == nil {
		o.metrics = observe.DefaultMetrics()
	}

	mux := http.NewServeMux()
	mux.Handle("POST /api/voice/command", voice)
	mux.Handle("GET /metrics", promhttp.Handler())
	health.New(checkers...).Register(mux)

	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           observe.Middleware(o.metrics)(mux),
			ReadHeaderTimeout: readHeaderTimeout,
		},
		log: slog.Default().With(slog.String("component", "server")),
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully. It returns
// nil on a clean shutdown.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", slog.String("addr", s.srv.Addr))
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.log.Info("stopped")
	return nil
}

// Handler returns the fully assembled route handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.srv.Handler }
