// Package server exposes the build pipeline over HTTP.
//
// Routes:
//
//	GET    /healthz                             version information
//	POST   /v1/builds                           build the design in the body
//	GET    /v1/builds/{id}                      build summary and artifact list
//	DELETE /v1/builds/{id}                      forget a build
//	GET    /v1/builds/{id}/artifacts/{format}   download one artifact
//	GET    /v1/designs/{hash}/summary           cached layout summary by design hash
//
// POST /v1/builds takes the design text as the request body. The design
// format comes from the format query parameter, or the Content-Type when it
// names yaml, and defaults to toml. The formats parameter is a comma
// separated list of output formats.
package server

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/gdstools/pkg/pipeline"
)

// Defaults for [Config].
const (
	DefaultAddr         = "localhost:8080"
	DefaultMaxBodyBytes = 1 << 20
	DefaultBuildTimeout = 30 * time.Second
)

// Config configures a [Server].
type Config struct {
	Addr         string
	MaxBodyBytes int64
	BuildTimeout time.Duration
	Logger       *log.Logger
}

func (c *Config) setDefaults() {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if c.BuildTimeout <= 0 {
		c.BuildTimeout = DefaultBuildTimeout
	}
	if c.Logger == nil {
		c.Logger = log.Default()
	}
}

// Server serves the build API.
type Server struct {
	runner *pipeline.Runner
	store  *Store
	cfg    Config
	logger *log.Logger
	router chi.Router
}

// New returns a server running builds on runner and keeping them in store.
func New(runner *pipeline.Runner, store *Store, cfg Config) *Server {
	cfg.setDefaults()
	s := &Server{runner: runner, store: store, cfg: cfg, logger: cfg.Logger}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/builds", s.handleCreateBuild)
		r.Get("/builds/{id}", s.handleGetBuild)
		r.Delete("/builds/{id}", s.handleDeleteBuild)
		r.Get("/builds/{id}/artifacts/{format}", s.handleGetArtifact)
		r.Get("/designs/{hash}/summary", s.handleGetSummary)
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, notFound("no route for %s %s", r.Method, r.URL.Path))
	})
	s.router = r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
