package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/campushub-api/internal/models"
)

// MetricsSnapshot is a lightweight summary of the collectors for the health endpoint.
type MetricsSnapshot struct {
	CacheHitRatio            float64   `json:"cacheHitRatio"`
	CacheHits                uint64    `json:"cacheHits"`
	CacheMisses              uint64    `json:"cacheMisses"`
	RequestsTotal            uint64    `json:"requestsTotal"`
	AverageRequestDurationMs float64   `json:"averageRequestDurationMs"`
	CatalogQueryCount        uint64    `json:"catalogQueryCount"`
	AverageCatalogQueryMs    float64   `json:"averageCatalogQueryMs"`
	Uploads                  uint64    `json:"uploads"`
	Downloads                uint64    `json:"downloads"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generatedAt"`
}

// MetricsService encapsulates Prometheus instrumentation and provides lightweight snapshots for API consumption.
type MetricsService struct {
	registry             *prometheus.Registry
	handler              http.Handler
	requestDuration      *prometheus.HistogramVec
	requestTotal         *prometheus.CounterVec
	cacheLatency         prometheus.Observer
	cacheWrite           prometheus.Observer
	cacheHitRatio        prometheus.Gauge
	cacheHits            prometheus.Counter
	cacheMisses          prometheus.Counter
	catalogQueryDuration *prometheus.HistogramVec
	uploads              *prometheus.CounterVec
	downloads            *prometheus.CounterVec
	objectStoreErrors    *prometheus.CounterVec

	cacheHitCount          uint64
	cacheMissCount         uint64
	requestCount           uint64
	requestDurationTotal   uint64
	catalogQueryCount      uint64
	catalogQueryDurationNs uint64
	uploadCount            uint64
	downloadCount          uint64
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

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	catalogQueryDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_query_duration_seconds",
		Help:    "Duration of resource catalog queries",
		Buckets: prometheus.DefBuckets,
	}, []string{"query"})

	uploads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "resource_uploads_total",
		Help: "Resources created, by resource type",
	}, []string{"resource_type"})

	downloads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "resource_downloads_total",
		Help: "Download requests served, by resource type",
	}, []string{"resource_type"})

	objectStoreErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "object_store_errors_total",
		Help: "Failed object store calls, by operation",
	}, []string{"operation"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses,
		catalogQueryDuration, uploads, downloads, objectStoreErrors, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:             registry,
		handler:              handler,
		requestDuration:      requestDuration,
		requestTotal:         requestTotal,
		cacheLatency:         cacheLatency,
		cacheWrite:           cacheWrite,
		cacheHitRatio:        cacheHitRatio,
		cacheHits:            cacheHits,
		cacheMisses:          cacheMisses,
		catalogQueryDuration: catalogQueryDuration,
		uploads:              uploads,
		downloads:            downloads,
		objectStoreErrors:    objectStoreErrors,
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

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	if m.cacheLatency != nil {
		m.cacheLatency.Observe(duration.Seconds())
	}
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	total := hits + misses
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil || m.cacheWrite == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveCatalogQuery records resource catalog query timing.
func (m *MetricsService) ObserveCatalogQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.catalogQueryDuration.WithLabelValues(label).Observe(duration.Seconds())
	atomic.AddUint64(&m.catalogQueryCount, 1)
	atomic.AddUint64(&m.catalogQueryDurationNs, uint64(duration.Nanoseconds()))
}

// RecordUpload counts a created resource.
func (m *MetricsService) RecordUpload(resourceType models.ResourceType) {
	if m == nil {
		return
	}
	m.uploads.WithLabelValues(string(resourceType)).Inc()
	atomic.AddUint64(&m.uploadCount, 1)
}

// RecordDownload counts a served download descriptor.
func (m *MetricsService) RecordDownload(resourceType models.ResourceType) {
	if m == nil {
		return
	}
	m.downloads.WithLabelValues(string(resourceType)).Inc()
	atomic.AddUint64(&m.downloadCount, 1)
}

// RecordObjectStoreError counts a failed object store call.
func (m *MetricsService) RecordObjectStoreError(operation string) {
	if m == nil {
		return
	}
	m.objectStoreErrors.WithLabelValues(operation).Inc()
}

// Snapshot returns aggregated metrics suitable for the health endpoint.
func (m *MetricsService) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)
	queryCount := atomic.LoadUint64(&m.catalogQueryCount)
	queryDuration := atomic.LoadUint64(&m.catalogQueryDurationNs)

	var cacheRatio float64
	totalLookups := hits + misses
	if totalLookups > 0 {
		cacheRatio = float64(hits) / float64(totalLookups)
	}

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	var avgQueryMs float64
	if queryCount > 0 {
		avgQueryMs = float64(queryDuration) / float64(queryCount) / float64(time.Millisecond)
	}

	return MetricsSnapshot{
		CacheHitRatio:            cacheRatio,
		CacheHits:                hits,
		CacheMisses:              misses,
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		CatalogQueryCount:        queryCount,
		AverageCatalogQueryMs:    avgQueryMs,
		Uploads:                  atomic.LoadUint64(&m.uploadCount),
		Downloads:                atomic.LoadUint64(&m.downloadCount),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
