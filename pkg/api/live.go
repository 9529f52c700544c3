package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/jwkaltz/gravitas/pkg/geom"
	"github.com/jwkaltz/gravitas/pkg/graph"
	"github.com/jwkaltz/gravitas/pkg/layout"
	"github.com/jwkaltz/gravitas/pkg/layout/tune"
	"github.com/jwkaltz/gravitas/pkg/viewport"
)

const (
	// liveBatchSize is the number of integration ticks per streamed update
	// at governor level zero. The governor halves it under load.
	liveBatchSize = 20

	// liveWriteWait bounds each websocket write.
	liveWriteWait = 10 * time.Second
)

// liveMessage is one streamed update of a live solve. Tick messages carry
// progress only; frame messages additionally carry a render payload for
// the client's current viewport.
type liveMessage struct {
	Type      string          `json:"type"` // "tick", "frame" or "done"
	Iteration int             `json:"iteration"`
	Energy    float64         `json:"energy"`
	Status    string          `json:"status"`
	Frame     *viewport.Frame `json:"frame,omitempty"`
}

// liveView is the client-to-server message updating the streamed
// viewport mid-solve.
type liveView struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	W    float64 `json:"w"`
	H    float64 `json:"h"`
	Zoom float64 `json:"zoom"`
}

func (v liveView) viewport() viewport.Viewport {
	return viewport.Viewport{
		Origin: geom.Vec{X: v.X, Y: v.Y},
		Size:   geom.Vec{X: v.W, Y: v.H},
		Zoom:   v.Zoom,
	}
}

// handleLiveScene streams a live solve of the scene over a websocket.
//
// The solve runs tick by tick on the server. After each batch of ticks
// the client receives a progress message, and a frame for its viewport
// when one was supplied (via the same query parameters as the frame
// endpoint, or a later viewport message on the socket). Frame production
// time feeds an adaptive governor, so a slow consumer gets coarser tiers
// and smaller tick batches instead of a growing backlog.
func (s *Server) handleLiveScene(w http.ResponseWriter, r *http.Request) {
	scene, err := s.store.Get(r.Context(), chi.URLParam(r, "sceneID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	// The viewport is optional here, unlike on the frame endpoint.
	var view viewport.Viewport
	if r.URL.Query().Get("zoom") != "" {
		query, err := parseQuery(r.URL.Query().Get)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		view = query.Viewport()
	}

	g := graph.New()
	if _, err := g.ApplySnapshot(scene.Snapshot); err != nil {
		s.writeError(w, r, err)
		return
	}
	it, err := layout.NewIntegrator(g, s.cfg.Pipeline.Layout)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	opt, err := viewport.NewOptimizer(s.cfg.Pipeline.Viewport)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	governor, err := tune.NewGovernor(tune.GovernorOptions{})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the handshake error.
		s.logger.Debug("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	s.logger.Info("live solve started", "scene", scene.ID,
		"nodes", g.NodeCount(), "edges", g.EdgeCount())

	// Reader: viewport updates and connection teardown. Closing done is
	// the only way the write loop learns the client went away.
	views := make(chan viewport.Viewport, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var v liveView
			if err := conn.ReadJSON(&v); err != nil {
				return
			}
			select {
			case views <- v.viewport():
			default:
				// Drop stale updates; only the latest viewport matters.
				select {
				case <-views:
				default:
				}
				views <- v.viewport()
			}
		}
	}()

	it.Initialize()
	running := true
	for running {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case v := <-views:
			view = v
		default:
		}

		batch := governor.BatchSize(liveBatchSize)
		for i := 0; i < batch && running; i++ {
			running = it.Step()
		}

		msg := liveMessage{
			Type:      "tick",
			Iteration: it.Iteration(),
			Energy:    it.Energy(),
			Status:    it.Status().String(),
		}
		if view.Valid() {
			start := time.Now()
			frame, err := opt.Optimize(g, governor.TierBias(), view)
			if err != nil {
				s.logger.Warn("live frame failed", "scene", scene.ID, "error", err)
			} else {
				governor.Observe(time.Since(start))
				msg.Type = "frame"
				msg.Frame = frame
			}
		}
		if !running {
			msg.Type = "done"
		}

		_ = conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
		if err := conn.WriteJSON(msg); err != nil {
			s.logger.Debug("live write failed", "scene", scene.ID, "error", err)
			return
		}
	}

	s.logger.Info("live solve finished", "scene", scene.ID,
		"iterations", it.Iteration(), "status", it.Status().String())
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(liveWriteWait))
}
