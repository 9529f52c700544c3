// Package api exposes the layout engine over HTTP.
//
// The server owns a scene store and a pipeline runner. Clients upload
// snapshots as named scenes, then solve them and query frames without
// re-uploading. Solved layouts and frames are cached by content hash, so
// repeated queries against an unchanged scene are cache reads.
//
// # Endpoints
//
//	POST   /api/scenes             create a scene from a snapshot
//	GET    /api/scenes             list scenes
//	GET    /api/scenes/{id}        fetch one scene with its snapshot
//	DELETE /api/scenes/{id}        delete a scene
//	POST   /api/scenes/{id}/solve  solve the scene layout
//	GET    /api/scenes/{id}/frame  query one viewport frame
//	GET    /api/scenes/{id}/live   websocket stream of a live solve
//	GET    /metrics                Prometheus scrape endpoint
//	GET    /healthz                liveness probe
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"

	apperrors "github.com/jwkaltz/gravitas/pkg/errors"
	"github.com/jwkaltz/gravitas/pkg/pipeline"
	"github.com/jwkaltz/gravitas/pkg/store"
)

// =============================================================================
// Configuration
// =============================================================================

const (
	// DefaultAddr is the listen address when none is configured.
	DefaultAddr = ":8080"

	// shutdownTimeout bounds graceful shutdown once the context is done.
	shutdownTimeout = 10 * time.Second

	// maxBodyBytes caps scene upload size. Snapshots for graphs in the
	// engine's target range stay well under this.
	maxBodyBytes = 32 << 20
)

// Config holds server dependencies and settings.
type Config struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string

	// Store holds named scenes. Required.
	Store store.Store

	// Runner executes the solve and frame stages. Required.
	Runner *pipeline.Runner

	// Pipeline is the base pipeline configuration applied to every scene.
	// Per-request parameters (viewport query, refresh) are layered on top.
	Pipeline pipeline.Options

	// Logger for request and lifecycle logs. Defaults to log.Default.
	Logger *log.Logger

	// Metrics is the Prometheus registry. Defaults to a fresh registry.
	Metrics *Metrics

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent.
func (c *Config) ValidateAndSetDefaults() error {
	if c.validated {
		return nil
	}
	if c.Store == nil {
		return fmt.Errorf("store is required")
	}
	if c.Runner == nil {
		return fmt.Errorf("runner is required")
	}
	if err := c.Pipeline.ValidateAndSetDefaults(); err != nil {
		return err
	}
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.Logger == nil {
		c.Logger = log.Default()
	}
	if c.Metrics == nil {
		c.Metrics = NewMetrics()
	}
	c.validated = true
	return nil
}

// =============================================================================
// Server
// =============================================================================

// Server is the HTTP front end for the layout engine.
type Server struct {
	cfg      Config
	store    store.Store
	runner   *pipeline.Runner
	logger   *log.Logger
	metrics  *Metrics
	validate *validator.Validate
	upgrader websocket.Upgrader
	router   chi.Router
}

// NewServer builds a server and its routes. The metrics registry is
// installed as the process-wide observability hooks, so solves and cache
// traffic driven by this server show up on /metrics.
func NewServer(cfg Config) (*Server, error) {
	if err := cfg.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid server config: %w", err)
	}

	s := &Server{
		cfg:      cfg,
		store:    cfg.Store,
		runner:   cfg.Runner,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
	}
	s.metrics.Install()
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/scenes", func(r chi.Router) {
			r.Post("/", s.handleCreateScene)
			r.Get("/", s.handleListScenes)
			r.Route("/{sceneID}", func(r chi.Router) {
				r.Get("/", s.handleGetScene)
				r.Delete("/", s.handleDeleteScene)
				r.Post("/solve", s.handleSolveScene)
				r.Get("/frame", s.handleFrameScene)
				r.Get("/live", s.handleLiveScene)
			})
		})
	})

	s.router = r
}

// Handler returns the root handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe runs the server until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// instrument logs each request and feeds the HTTP metrics. The routing
// pattern is used as the metric label, not the raw path, to keep
// cardinality bounded.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		pattern := chi.RouteContext(r.Context()).RoutePattern()
		if pattern == "" {
			pattern = "unmatched"
		}
		elapsed := time.Since(start)
		s.metrics.RecordRequest(r.Method, pattern, strconv.Itoa(ww.Status()), elapsed)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", elapsed)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// Response Helpers
// =============================================================================

// errorResponse is the JSON body for every failed request.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps an error to an HTTP status and a structured body.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	code := apperrors.GetCode(err)

	switch {
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
		code = apperrors.ErrCodeSceneNotFound
	case errors.Is(err, store.ErrEmptyName):
		status = http.StatusBadRequest
		code = apperrors.ErrCodeInvalidInput
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
		code = apperrors.ErrCodeTimeout
	default:
		switch code {
		case apperrors.ErrCodeInvalidInput, apperrors.ErrCodeInvalidConfig,
			apperrors.ErrCodeInvalidSnapshot, apperrors.ErrCodeInvalidViewport,
			apperrors.ErrCodeInvalidFormat:
			status = http.StatusBadRequest
		case apperrors.ErrCodeNotFound, apperrors.ErrCodeSceneNotFound,
			apperrors.ErrCodeFileNotFound:
			status = http.StatusNotFound
		case apperrors.ErrCodeRateLimited:
			status = http.StatusTooManyRequests
		case apperrors.ErrCodeTimeout:
			status = http.StatusGatewayTimeout
		}
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, errorResponse{Error: apperrors.UserMessage(err), Code: string(code)})
}

// badRequest writes a 400 with an INVALID_INPUT code.
func (s *Server) badRequest(w http.ResponseWriter, r *http.Request, format string, args ...any) {
	s.writeError(w, r, apperrors.New(apperrors.ErrCodeInvalidInput, format, args...))
}
