// Package api serves the cablenet pipeline over HTTP.
//
// Routes:
//
//	GET    /healthz           build information
//	POST   /v1/candidates     candidate edges for an instance
//	POST   /v1/solve          solve an instance, optionally rendering it
//	GET    /v1/runs           recorded runs, newest first (?instance=&limit=)
//	GET    /v1/runs/{id}      one run with its solution
//	DELETE /v1/runs/{id}      forget a run
//
// Request and response bodies are JSON. Errors are returned as
// {"error": "...", "code": "..."}; instances the model cannot accept are
// answered with 422.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/semaphore"

	"github.com/matzehuels/cablenet/pkg/pipeline"
)

const (
	shutdownTimeout = 30 * time.Second

	// DefaultMaxSolves is the default number of solves run at once.
	DefaultMaxSolves = 2

	// DefaultMaxTimeLimit caps the time limit a client may request.
	DefaultMaxTimeLimit = 10 * time.Minute
)

// Server handles API requests with a shared pipeline runner.
type Server struct {
	runner *pipeline.Runner
	logger *log.Logger
	solves *semaphore.Weighted

	maxTimeLimit time.Duration
}

// Option configures a Server.
type Option func(*Server)

// WithMaxSolves limits how many solves run concurrently. Further requests
// wait until a slot frees up or the client gives up.
func WithMaxSolves(n int) Option {
	return func(s *Server) { s.solves = semaphore.NewWeighted(int64(max(n, 1))) }
}

// WithMaxTimeLimit caps the per-request solver time limit.
func WithMaxTimeLimit(d time.Duration) Option {
	return func(s *Server) { s.maxTimeLimit = d }
}

// NewServer creates a server around runner.
func NewServer(runner *pipeline.Runner, logger *log.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		runner:       runner,
		logger:       logger,
		solves:       semaphore.NewWeighted(DefaultMaxSolves),
		maxTimeLimit: DefaultMaxTimeLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.observe)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.health)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/candidates", s.candidates)
		r.Post("/solve", s.solve)
		r.Get("/runs", s.listRuns)
		r.Get("/runs/{id}", s.getRun)
		r.Delete("/runs/{id}", s.deleteRun)
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrs := make(chan error, 1)
	go func() {
		defer close(serverErrs)
		s.logger.Info("listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrs <- err
		}
	}()

	select {
	case err := <-serverErrs:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			server.Close()
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
	}
	return nil
}
