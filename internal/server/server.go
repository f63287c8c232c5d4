// Package server serves the familytree render pipeline over HTTP.
//
// Routes:
//
//	POST /v1/render               render an inline tree document
//	GET  /v1/trees                list the trees in the trees directory
//	GET  /v1/trees/{name}         render a stored tree (?format=&view=&root=&highlight=)
//	GET  /v1/trees/{name}/layout  positioned layout JSON of a stored tree
//	GET  /healthz                 build information
//	GET  /metrics                 Prometheus metrics
//
// Errors are answered as JSON {"code": ..., "message": ...} with the status
// chosen by the error code.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/matzehuels/familytree/pkg/pipeline"
)

// Defaults for [Config].
const (
	DefaultAddr         = ":8080"
	DefaultMaxBodyBytes = 4 << 20
	DefaultTimeout      = 30 * time.Second
)

// Config configures a [Server].
type Config struct {
	// Addr is the listen address.
	Addr string
	// TreesDir holds the tree documents served by name. Empty disables the
	// /v1/trees routes.
	TreesDir string
	// RemoteAvatars allows http(s) avatar URLs in rendered trees.
	RemoteAvatars bool
	// MaxBodyBytes caps POST bodies.
	MaxBodyBytes int64
	// Timeout bounds each request.
	Timeout time.Duration
	// AllowedOrigins enables CORS for browser viewers hosted elsewhere.
	// Patterns may contain one wildcard, as in "https://*.example.com".
	AllowedOrigins []string
}

func (c *Config) setDefaults() {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.MaxBodyBytes == 0 {
		c.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
}

// Server is the HTTP front end of a pipeline runner.
type Server struct {
	cfg     Config
	runner  *pipeline.Runner
	metrics *Metrics
	logger  *log.Logger
}

// Option configures a [Server].
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *log.Logger) Option { return func(s *Server) { s.logger = l } }

// WithMetrics enables the /metrics route and request instrumentation.
func WithMetrics(m *Metrics) Option { return func(s *Server) { s.metrics = m } }

// New creates a server around runner.
func New(cfg Config, runner *pipeline.Runner, opts ...Option) *Server {
	cfg.setDefaults()
	s := &Server{cfg: cfg, runner: runner}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard)
	}
	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)
	if s.metrics != nil {
		r.Use(s.metrics.Middleware)
	}
	if len(s.cfg.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.cfg.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Cache", "X-Request-ID"},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(s.cfg.Timeout))
		r.Post("/render", s.handleRender)
		if s.cfg.TreesDir != "" {
			r.Get("/trees", s.handleListTrees)
			r.Get("/trees/{name}", s.handleTree)
			r.Get("/trees/{name}/layout", s.handleTreeLayout)
		}
	})

	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: s.cfg.Timeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("Starting server", "addr", s.cfg.Addr, "trees", s.cfg.TreesDir)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errc
}

// requestLogger logs every request at debug level and failures at warn.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		fields := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		}
		if ww.Status() >= 500 {
			s.logger.Warn("HTTP request", fields...)
			return
		}
		s.logger.Debug("HTTP request", fields...)
	})
}
