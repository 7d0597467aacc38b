package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/rubric-grader-api/internal/models"
	"github.com/noah-isme/rubric-grader-api/pkg/jobs"
)

// MetricsService encapsulates Prometheus instrumentation and provides lightweight snapshots for API consumption.
type MetricsService struct {
	registry         *prometheus.Registry
	handler          http.Handler
	requestDuration  *prometheus.HistogramVec
	requestTotal     *prometheus.CounterVec
	inFlight         prometheus.Gauge
	cacheLatency     prometheus.Observer
	cacheWrite       prometheus.Observer
	cacheHitRatio    prometheus.Gauge
	cacheHits        prometheus.Counter
	cacheMisses      prometheus.Counter
	mutations        *prometheus.CounterVec
	snapshotWrites   *prometheus.CounterVec
	snapshotDuration prometheus.Observer
	revision         prometheus.Gauge

	cacheHitCount        uint64
	cacheMissCount       uint64
	requestCount         uint64
	requestDurationTotal uint64
	mutationCount        uint64
	snapshotWriteCount   uint64
	snapshotFailureCount uint64
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	inFlight := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_requests_in_flight",
		Help: "HTTP requests currently being served",
	})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "summary_cache_latency_seconds",
		Help:    "Latency for summary cache lookups",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "summary_cache_write_seconds",
		Help:    "Latency for summary cache writes",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "summary_cache_hit_ratio",
		Help: "Ratio of summary cache hits to total lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "summary_cache_hits_total",
		Help: "Total summary cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "summary_cache_misses_total",
		Help: "Total summary cache misses",
	})

	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "grading_mutations_total",
		Help: "Workspace mutations by action",
	}, []string{"action"})

	snapshotWrites := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "snapshot_writes_total",
		Help: "Snapshot persistence attempts by result",
	}, []string{"result"})

	snapshotDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "snapshot_write_duration_seconds",
		Help:    "Duration of snapshot persistence",
		Buckets: prometheus.DefBuckets,
	})

	revision := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "workspace_revision",
		Help: "Current workspace revision",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, inFlight, cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses,
		mutations, snapshotWrites, snapshotDuration, revision, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:         registry,
		handler:          handler,
		requestDuration:  requestDuration,
		requestTotal:     requestTotal,
		inFlight:         inFlight,
		cacheLatency:     cacheLatency,
		cacheWrite:       cacheWrite,
		cacheHitRatio:    cacheHitRatio,
		cacheHits:        cacheHits,
		cacheMisses:      cacheMisses,
		mutations:        mutations,
		snapshotWrites:   snapshotWrites,
		snapshotDuration: snapshotDuration,
		revision:         revision,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry exposes the underlying registry for tests and custom collectors.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// TrackInFlight counts a request as in flight until the returned func runs.
func (m *MetricsService) TrackInFlight() func() {
	if m == nil {
		return func() {}
	}
	m.inFlight.Inc()
	return m.inFlight.Dec
}

// TrackQueue exports the counters of a job queue, labelled by queue name.
func (m *MetricsService) TrackQueue(name string, stats func() jobs.Stats) {
	if m == nil || stats == nil {
		return
	}
	counters := map[string]func(jobs.Stats) uint64{
		"enqueued":  func(s jobs.Stats) uint64 { return s.Enqueued },
		"coalesced": func(s jobs.Stats) uint64 { return s.Coalesced },
		"succeeded": func(s jobs.Stats) uint64 { return s.Succeeded },
		"retried":   func(s jobs.Stats) uint64 { return s.Retried },
		"failed":    func(s jobs.Stats) uint64 { return s.Failed },
	}
	for outcome, pick := range counters {
		pick := pick
		m.registry.MustRegister(prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name:        "jobs_" + outcome + "_total",
			Help:        fmt.Sprintf("Jobs %s by the queue", outcome),
			ConstLabels: prometheus.Labels{"queue": name},
		}, func() float64 { return float64(pick(stats())) }))
	}
}

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	if total := hits + misses; total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// RecordMutation counts a committed workspace mutation and tracks the new revision.
func (m *MetricsService) RecordMutation(action string, revision int64) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(action).Inc()
	m.revision.Set(float64(revision))
	atomic.AddUint64(&m.mutationCount, 1)
}

// RecordSnapshotWrite records the outcome of a snapshot save.
func (m *MetricsService) RecordSnapshotWrite(err error, duration time.Duration) {
	if m == nil {
		return
	}
	m.snapshotDuration.Observe(duration.Seconds())
	if err != nil {
		m.snapshotWrites.WithLabelValues("failure").Inc()
		atomic.AddUint64(&m.snapshotFailureCount, 1)
		return
	}
	m.snapshotWrites.WithLabelValues("success").Inc()
	atomic.AddUint64(&m.snapshotWriteCount, 1)
}

// Snapshot returns aggregated metrics suitable for the system endpoint.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)

	var cacheRatio float64
	if totalLookups := hits + misses; totalLookups > 0 {
		cacheRatio = float64(hits) / float64(totalLookups)
	}

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	return models.SystemMetrics{
		CacheHitRatio:            cacheRatio,
		CacheHits:                hits,
		CacheMisses:              misses,
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		MutationsTotal:           atomic.LoadUint64(&m.mutationCount),
		SnapshotWrites:           atomic.LoadUint64(&m.snapshotWriteCount),
		SnapshotWriteFailures:    atomic.LoadUint64(&m.snapshotFailureCount),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
