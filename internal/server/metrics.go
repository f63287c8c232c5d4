package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/familytree/pkg/observability"
)

// Metrics holds the Prometheus collectors of one server. It implements the
// observability hook interfaces so pipeline, drawing, avatar, cache and HTTP
// client events land in the same registry.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	stageDuration *prometheus.HistogramVec
	stageErrors   *prometheus.CounterVec
	persons       prometheus.Histogram
	unpositioned  prometheus.Counter

	draws        *prometheus.CounterVec
	drawDuration prometheus.Histogram

	assets *prometheus.CounterVec
	cache  *prometheus.CounterVec

	upstream         *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
}

// NewMetrics creates the collectors in a private registry.
func NewMetrics(namespace string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_stage_duration_seconds",
			Help:      "Duration of pipeline stages",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage"}),
		stageErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_stage_errors_total",
			Help:      "Failed pipeline stages",
		}, []string{"stage"}),
		persons: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tree_persons",
			Help:      "Number of persons per loaded tree",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
		unpositioned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "layout_unpositioned_total",
			Help:      "Persons the layout could not position",
		}),
		draws: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "draw_passes_total",
			Help:      "Draw passes by outcome",
		}, []string{"outcome"}),
		drawDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "draw_duration_seconds",
			Help:      "Duration of full redraws",
			Buckets:   prometheus.DefBuckets,
		}),
		assets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "avatar_loads_total",
			Help:      "Avatar loads by scheme and outcome",
		}, []string{"scheme", "outcome"}),
		cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_operations_total",
			Help:      "Cache operations by key type and result",
		}, []string{"key_type", "result"}),
		upstream: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Outgoing avatar requests by host and status",
		}, []string{"host", "status"}),
		upstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Outgoing avatar request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"host"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests, m.httpDuration,
		m.stageDuration, m.stageErrors, m.persons, m.unpositioned,
		m.draws, m.drawDuration,
		m.assets, m.cache,
		m.upstream, m.upstreamDuration,
	)
	return m
}

// Register installs m as the process-wide observability hooks.
func (m *Metrics) Register() {
	observability.SetPipelineHooks(m)
	observability.SetDrawHooks(m)
	observability.SetAssetHooks(m)
	observability.SetCacheHooks(m)
	observability.SetHTTPHooks(m)
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware records request counts and durations per route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// =============================================================================
// observability.PipelineHooks
// =============================================================================

func (m *Metrics) OnLoadStart(context.Context, string) {}

func (m *Metrics) OnLoadComplete(_ context.Context, _ string, persons int, d time.Duration, err error) {
	m.observeStage("load", d, err)
	if err == nil {
		m.persons.Observe(float64(persons))
	}
}

func (m *Metrics) OnLayoutStart(context.Context, int) {}

func (m *Metrics) OnLayoutComplete(_ context.Context, _, unpositioned int, d time.Duration, err error) {
	m.observeStage("layout", d, err)
	m.unpositioned.Add(float64(unpositioned))
}

func (m *Metrics) OnRenderStart(context.Context, []string) {}

func (m *Metrics) OnRenderComplete(_ context.Context, _ []string, d time.Duration, err error) {
	m.observeStage("render", d, err)
}

func (m *Metrics) observeStage(stage string, d time.Duration, err error) {
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
	if err != nil {
		m.stageErrors.WithLabelValues(stage).Inc()
	}
}

// =============================================================================
// observability.DrawHooks
// =============================================================================

func (m *Metrics) OnDrawStart(context.Context, string) {}

func (m *Metrics) OnDrawComplete(_ context.Context, _ string, _, _ int, d time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.draws.WithLabelValues(outcome).Inc()
	m.drawDuration.Observe(d.Seconds())
}

func (m *Metrics) OnDrawDropped(context.Context, string) {
	m.draws.WithLabelValues("dropped").Inc()
}

// =============================================================================
// observability.AssetHooks
// =============================================================================

func (m *Metrics) OnAssetLoaded(_ context.Context, scheme string, _ time.Duration) {
	m.assets.WithLabelValues(scheme, "loaded").Inc()
}

func (m *Metrics) OnAssetFallback(_ context.Context, scheme string, _ error) {
	m.assets.WithLabelValues(scheme, "placeholder").Inc()
}

// =============================================================================
// observability.CacheHooks
// =============================================================================

func (m *Metrics) OnCacheHit(_ context.Context, keyType string) {
	m.cache.WithLabelValues(keyType, "hit").Inc()
}

func (m *Metrics) OnCacheMiss(_ context.Context, keyType string) {
	m.cache.WithLabelValues(keyType, "miss").Inc()
}

func (m *Metrics) OnCacheSet(_ context.Context, keyType string, _ int) {
	m.cache.WithLabelValues(keyType, "set").Inc()
}

// =============================================================================
// observability.HTTPHooks
// =============================================================================

func (m *Metrics) OnRequest(context.Context, string, string, string) {}

func (m *Metrics) OnResponse(_ context.Context, _, host, _ string, status int, d time.Duration) {
	m.upstream.WithLabelValues(host, strconv.Itoa(status)).Inc()
	m.upstreamDuration.WithLabelValues(host).Observe(d.Seconds())
}

func (m *Metrics) OnError(_ context.Context, _, host, _ string, _ error) {
	m.upstream.WithLabelValues(host, "error").Inc()
}
