package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/jwkaltz/gravitas/pkg/errors"
	"github.com/jwkaltz/gravitas/pkg/graph"
	"github.com/jwkaltz/gravitas/pkg/layout"
	"github.com/jwkaltz/gravitas/pkg/layout/coarsen"
	"github.com/jwkaltz/gravitas/pkg/pipeline"
	"github.com/jwkaltz/gravitas/pkg/store"
)

// =============================================================================
// Scenes CRUD
// =============================================================================

// createSceneRequest is the upload payload for a new scene.
type createSceneRequest struct {
	Name     string         `json:"name" validate:"required,min=1,max=120"`
	Snapshot graph.Snapshot `json:"snapshot" validate:"required"`
}

// sceneSummary is the list representation of a scene, without the
// snapshot body.
type sceneSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	NodeCount int       `json:"node_count"`
	EdgeCount int       `json:"edge_count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func summarize(scene *store.Scene) sceneSummary {
	return sceneSummary{
		ID:        scene.ID,
		Name:      scene.Name,
		NodeCount: len(scene.Snapshot.Nodes),
		EdgeCount: len(scene.Snapshot.Edges),
		CreatedAt: scene.CreatedAt,
		UpdatedAt: scene.UpdatedAt,
	}
}

func (s *Server) handleCreateScene(w http.ResponseWriter, r *http.Request) {
	var req createSceneRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.badRequest(w, r, "invalid scene: %v", err)
		return
	}
	if err := req.Snapshot.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}

	scene := store.New(req.Name, req.Snapshot)
	if err := s.store.Put(r.Context(), scene); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("scene created", "id", scene.ID, "name", scene.Name,
		"nodes", len(scene.Snapshot.Nodes), "edges", len(scene.Snapshot.Edges))
	writeJSON(w, http.StatusCreated, summarize(scene))
}

func (s *Server) handleListScenes(w http.ResponseWriter, r *http.Request) {
	scenes, err := s.store.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	summaries := make([]sceneSummary, 0, len(scenes))
	for _, scene := range scenes {
		summaries = append(summaries, summarize(scene))
	}
	writeJSON(w, http.StatusOK, map[string]any{"scenes": summaries})
}

func (s *Server) handleGetScene(w http.ResponseWriter, r *http.Request) {
	scene, err := s.store.Get(r.Context(), chi.URLParam(r, "sceneID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, scene)
}

func (s *Server) handleDeleteScene(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sceneID")
	if err := s.store.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("scene deleted", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Solve
// =============================================================================

// solveRequest carries optional per-request overrides for the solve. An
// empty body means "solve with the server's base configuration".
type solveRequest struct {
	Refresh bool             `json:"refresh,omitempty"`
	Layout  *layout.Config   `json:"layout,omitempty"`
	Coarsen *coarsen.Options `json:"coarsen,omitempty"`
}

// solveResponse reports the solve outcome. Iteration counters are zero
// when the layout came from the cache.
type solveResponse struct {
	LayoutHash   string `json:"layout_hash"`
	Cached       bool   `json:"cached"`
	Iterations   int    `json:"iterations"`
	Levels       int    `json:"levels"`
	DidConverge  bool   `json:"did_converge"`
	DroppedEdges int    `json:"dropped_edges,omitempty"`
	ElapsedMS    int64  `json:"elapsed_ms"`
}

func (s *Server) handleSolveScene(w http.ResponseWriter, r *http.Request) {
	scene, err := s.store.Get(r.Context(), chi.URLParam(r, "sceneID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var req solveRequest
	if r.ContentLength != 0 && !s.decodeBody(w, r, &req) {
		return
	}

	opts := s.sceneOptions(req)
	start := time.Now()
	solved, err := s.runner.Solve(r.Context(), &scene.Snapshot, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, solveResponse{
		LayoutHash:   solved.Hash,
		Cached:       solved.Cached,
		Iterations:   solved.Run.Iterations,
		Levels:       solved.Run.Levels,
		DidConverge:  solved.Run.Final.DidConverge,
		DroppedEdges: solved.Diagnostics.DroppedEdges,
		ElapsedMS:    time.Since(start).Milliseconds(),
	})
}

// =============================================================================
// Frame
// =============================================================================

func (s *Server) handleFrameScene(w http.ResponseWriter, r *http.Request) {
	scene, err := s.store.Get(r.Context(), chi.URLParam(r, "sceneID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	query, err := parseQuery(r.URL.Query().Get)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	opts := s.sceneOptions(solveRequest{})
	opts.Query = query

	solved, err := s.runner.Solve(r.Context(), &scene.Snapshot, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	frame, hit, err := s.runner.FrameWithCacheInfo(r.Context(), solved.Layout, solved.Hash, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("X-Layout-Hash", solved.Hash)
	if hit {
		w.Header().Set("X-Cache", "hit")
	} else {
		w.Header().Set("X-Cache", "miss")
	}
	writeJSON(w, http.StatusOK, frame)
}

// =============================================================================
// Helpers
// =============================================================================

// sceneOptions layers request overrides over the server's base pipeline
// configuration. Scenes carry their snapshot in the store, so Source
// stays empty.
func (s *Server) sceneOptions(req solveRequest) pipeline.Options {
	opts := pipeline.Options{
		Refresh:  req.Refresh,
		Layout:   s.cfg.Pipeline.Layout,
		Coarsen:  s.cfg.Pipeline.Coarsen,
		Viewport: s.cfg.Pipeline.Viewport,
		Logger:   s.logger,
	}
	if req.Layout != nil {
		opts.Layout = *req.Layout
	}
	if req.Coarsen != nil {
		opts.Coarsen = *req.Coarsen
	}
	return opts
}

// parseQuery reads viewport parameters from URL query values. Width,
// height and zoom are required; x, y and bias default to zero.
func parseQuery(get func(string) string) (pipeline.Query, error) {
	var q pipeline.Query
	fields := []struct {
		name     string
		dst      *float64
		required bool
	}{
		{"x", &q.X, false},
		{"y", &q.Y, false},
		{"w", &q.W, true},
		{"h", &q.H, true},
		{"zoom", &q.Zoom, true},
	}
	for _, f := range fields {
		raw := get(f.name)
		if raw == "" {
			if f.required {
				return q, apperrors.New(apperrors.ErrCodeInvalidViewport,
					"missing query parameter %q", f.name)
			}
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return q, apperrors.New(apperrors.ErrCodeInvalidViewport,
				"invalid query parameter %q: %s", f.name, raw)
		}
		*f.dst = v
	}
	if raw := get("bias"); raw != "" {
		bias, err := strconv.Atoi(raw)
		if err != nil || bias < 0 {
			return q, apperrors.New(apperrors.ErrCodeInvalidViewport,
				"invalid query parameter \"bias\": %s", raw)
		}
		q.Bias = bias
	}
	if !q.Viewport().Valid() {
		return q, apperrors.New(apperrors.ErrCodeInvalidViewport,
			"width, height and zoom must be positive")
	}
	return q, nil
}

// decodeBody decodes a JSON request body into dst, writing a 400 on
// failure. Returns false when the request has already been answered.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			s.badRequest(w, r, "request body is required")
			return false
		}
		s.badRequest(w, r, "invalid request body: %v", err)
		return false
	}
	return true
}
