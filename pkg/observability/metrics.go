package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the segcore search path.
type Metrics struct {
	// Request metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestErrors   *prometheus.CounterVec

	// Driver metrics
	ChunksSearchedTotal  prometheus.Counter
	MergeDuration        prometheus.Histogram
	ResultsSentinelRatio prometheus.Histogram
	SearchesTotal        *prometheus.CounterVec

	// Cache metrics
	CacheHitsTotal   prometheus.Counter
	CacheMissesTotal prometheus.Counter
	CacheSize        prometheus.Gauge

	// Tenant metrics
	TenantsTotal     prometheus.Gauge
	TenantQuotaUsage *prometheus.GaugeVec
	DeletedIDsTotal  *prometheus.GaugeVec

	// System metrics
	GoroutinesCount prometheus.Gauge
	MemoryUsage     prometheus.Gauge
}

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "segcore_requests_total",
				Help: "Total number of requests by method and status",
			},
			[]string{"method", "status"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "segcore_request_duration_seconds",
				Help:    "Request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method"},
		),
		RequestErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "segcore_request_errors_total",
				Help: "Total number of request errors by method and error kind",
			},
			[]string{"method", "error_kind"},
		),

		ChunksSearchedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "segcore_chunks_searched_total",
				Help: "Total number of chunks visited across all driver runs",
			},
		),
		MergeDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "segcore_merge_duration_seconds",
				Help:    "Time spent merging chunk sub-results into the running accumulator",
				Buckets: []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25, .5},
			},
		),
		ResultsSentinelRatio: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "segcore_results_sentinel_ratio",
				Help:    "Fraction of a TopKSubResult's slots left at the sentinel (unfilled)",
				Buckets: []float64{0, .1, .25, .5, .75, .9, 1},
			},
		),
		SearchesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "segcore_searches_total",
				Help: "Total number of driver searches by namespace and mode",
			},
			[]string{"namespace", "mode"},
		),

		CacheHitsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "engine_cache_hit_total",
				Help: "Total number of search-cache hits",
			},
		),
		CacheMissesTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "engine_cache_miss_total",
				Help: "Total number of search-cache misses",
			},
		),
		CacheSize: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "engine_cache_size",
				Help: "Current number of entries in the search cache",
			},
		),

		TenantsTotal: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "segcore_tenants_total",
				Help: "Total number of active tenants",
			},
		),
		TenantQuotaUsage: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "segcore_tenant_quota_usage",
				Help: "Tenant quota usage percentage by namespace and resource",
			},
			[]string{"namespace", "resource"},
		),
		DeletedIDsTotal: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "segcore_deleted_ids_total",
				Help: "Number of soft-deleted ids tracked per namespace",
			},
			[]string{"namespace"},
		),

		GoroutinesCount: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "segcore_goroutines",
				Help: "Current number of goroutines",
			},
		),
		MemoryUsage: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "segcore_memory_bytes",
				Help: "Memory usage in bytes",
			},
		),
	}
}

// RecordRequest records a request with duration and status.
func (m *Metrics) RecordRequest(method, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, status).Inc()
	m.RequestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordError records a request error, labeled by the segcore.ErrorKind string.
func (m *Metrics) RecordError(method, errorKind string) {
	m.RequestErrors.WithLabelValues(method, errorKind).Inc()
}

// RecordSearch records one driver run: namespace, mode ("topk" or "range"),
// chunk count, merge duration, and the sentinel ratio of the final result.
func (m *Metrics) RecordSearch(namespace, mode string, chunksVisited int, mergeDuration time.Duration, sentinelRatio float64) {
	m.SearchesTotal.WithLabelValues(namespace, mode).Inc()
	m.ChunksSearchedTotal.Add(float64(chunksVisited))
	m.MergeDuration.Observe(mergeDuration.Seconds())
	m.ResultsSentinelRatio.Observe(sentinelRatio)
}

// RecordCacheHit records a cache hit.
func (m *Metrics) RecordCacheHit() {
	m.CacheHitsTotal.Inc()
}

// RecordCacheMiss records a cache miss.
func (m *Metrics) RecordCacheMiss() {
	m.CacheMissesTotal.Inc()
}

// UpdateCacheSize updates the cache size gauge.
func (m *Metrics) UpdateCacheSize(size int) {
	m.CacheSize.Set(float64(size))
}

// UpdateTenantCount updates the total tenant count.
func (m *Metrics) UpdateTenantCount(count int) {
	m.TenantsTotal.Set(float64(count))
}

// UpdateTenantQuota updates tenant quota usage.
func (m *Metrics) UpdateTenantQuota(namespace, resource string, usage float64) {
	m.TenantQuotaUsage.WithLabelValues(namespace, resource).Set(usage)
}

// UpdateDeletedIDs updates the tracked deleted-id count for a namespace.
func (m *Metrics) UpdateDeletedIDs(namespace string, count int) {
	m.DeletedIDsTotal.WithLabelValues(namespace).Set(float64(count))
}

// UpdateGoroutineCount updates goroutine count.
func (m *Metrics) UpdateGoroutineCount(count int) {
	m.GoroutinesCount.Set(float64(count))
}

// UpdateMemoryUsage updates memory usage.
func (m *Metrics) UpdateMemoryUsage(bytes uint64) {
	m.MemoryUsage.Set(float64(bytes))
}
