package api

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jwkaltz/gravitas/pkg/observability"
)

// Metrics is the Prometheus registry for the API server. It implements
// the observability hook interfaces, so installing it wires the whole
// engine - solver, frame production, caches and HTTP clients - into one
// scrape endpoint.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Solve metrics
	SolvesTotal     *prometheus.CounterVec
	SolveIterations prometheus.Histogram
	SolveDuration   prometheus.Histogram

	// Frame metrics
	FramesTotal       *prometheus.CounterVec
	FrameDuration     prometheus.Histogram
	FrameVisibleNodes prometheus.Histogram
	FrameVisibleEdges prometheus.Histogram

	// Cache metrics
	CacheOpsTotal *prometheus.CounterVec
}

// NewMetrics creates a metrics registry with all collectors registered.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{registry: reg}

	m.HTTPRequestsTotal = promauto.With(reg).NewCounterVec(
		prometheus.CounterOpts{
			Name: "gravitas_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
	m.HTTPRequestDuration = promauto.With(reg).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gravitas_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	m.SolvesTotal = promauto.With(reg).NewCounterVec(
		prometheus.CounterOpts{
			Name: "gravitas_solves_total",
			Help: "Total number of completed layout solves",
		},
		[]string{"converged"},
	)
	m.SolveIterations = promauto.With(reg).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gravitas_solve_iterations",
			Help:    "Iterations per layout solve",
			Buckets: []float64{10, 50, 100, 250, 500, 1000, 2500},
		},
	)
	m.SolveDuration = promauto.With(reg).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gravitas_solve_duration_seconds",
			Help:    "Wall time per layout solve",
			Buckets: prometheus.DefBuckets,
		},
	)

	m.FramesTotal = promauto.With(reg).NewCounterVec(
		prometheus.CounterOpts{
			Name: "gravitas_frames_total",
			Help: "Total number of produced frames",
		},
		[]string{"tier"},
	)
	m.FrameDuration = promauto.With(reg).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gravitas_frame_duration_seconds",
			Help:    "Wall time per frame reduction",
			Buckets: []float64{.001, .0025, .005, .01, .025, .05, .1, .25},
		},
	)
	m.FrameVisibleNodes = promauto.With(reg).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gravitas_frame_visible_nodes",
			Help:    "Visible nodes per frame",
			Buckets: []float64{10, 50, 100, 300, 800, 2000},
		},
	)
	m.FrameVisibleEdges = promauto.With(reg).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gravitas_frame_visible_edges",
			Help:    "Visible edges per frame",
			Buckets: []float64{10, 50, 150, 500, 1500, 4000},
		},
	)

	m.CacheOpsTotal = promauto.With(reg).NewCounterVec(
		prometheus.CounterOpts{
			Name: "gravitas_cache_operations_total",
			Help: "Cache operations by key type and outcome",
		},
		[]string{"type", "result"},
	)

	return m
}

// Install registers the metrics as the process-wide observability hooks.
func (m *Metrics) Install() {
	observability.SetEngineHooks(m)
	observability.SetCacheHooks(m)
	observability.SetHTTPHooks(m)
}

// Handler returns the scrape endpoint for the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordRequest records one served HTTP request.
func (m *Metrics) RecordRequest(method, path, status string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// =============================================================================
// observability.EngineHooks
// =============================================================================

func (m *Metrics) OnSolveStart(ctx context.Context, nodeCount, edgeCount int) {}

func (m *Metrics) OnSolveTick(ctx context.Context, iteration int, energy float64) {}

func (m *Metrics) OnSolveComplete(ctx context.Context, iterations int, converged bool, duration time.Duration) {
	label := "false"
	if converged {
		label = "true"
	}
	m.SolvesTotal.WithLabelValues(label).Inc()
	m.SolveIterations.Observe(float64(iterations))
	m.SolveDuration.Observe(duration.Seconds())
}

func (m *Metrics) OnFrameStart(ctx context.Context, zoom float64, nodeCount int) {}

func (m *Metrics) OnFrameComplete(ctx context.Context, tier, visibleNodes, visibleEdges int, duration time.Duration) {
	m.FramesTotal.WithLabelValues(tierLabel(tier)).Inc()
	m.FrameDuration.Observe(duration.Seconds())
	m.FrameVisibleNodes.Observe(float64(visibleNodes))
	m.FrameVisibleEdges.Observe(float64(visibleEdges))
}

// =============================================================================
// observability.CacheHooks
// =============================================================================

func (m *Metrics) OnCacheHit(ctx context.Context, keyType string) {
	m.CacheOpsTotal.WithLabelValues(keyType, "hit").Inc()
}

func (m *Metrics) OnCacheMiss(ctx context.Context, keyType string) {
	m.CacheOpsTotal.WithLabelValues(keyType, "miss").Inc()
}

func (m *Metrics) OnCacheSet(ctx context.Context, keyType string, size int) {
	m.CacheOpsTotal.WithLabelValues(keyType, "set").Inc()
}

// =============================================================================
// observability.HTTPHooks (outbound snapshot fetches)
// =============================================================================

func (m *Metrics) OnRequest(ctx context.Context, method, host, path string) {}

func (m *Metrics) OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration) {
	m.RecordRequest(method, "outbound:"+host, statusLabel(statusCode), duration)
}

func (m *Metrics) OnError(ctx context.Context, method, host, path string, err error) {
	m.HTTPRequestsTotal.WithLabelValues(method, "outbound:"+host, "error").Inc()
}

var (
	_ observability.EngineHooks = (*Metrics)(nil)
	_ observability.CacheHooks  = (*Metrics)(nil)
	_ observability.HTTPHooks   = (*Metrics)(nil)
)

func tierLabel(level int) string {
	// Tier levels are small non-negative ints; avoid strconv noise at the
	// call sites.
	switch level {
	case 0:
		return "0"
	case 1:
		return "1"
	case 2:
		return "2"
	case 3:
		return "3"
	default:
		return "other"
	}
}

func statusLabel(code int) string {
	switch {
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
