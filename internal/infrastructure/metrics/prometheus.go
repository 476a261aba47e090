package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusExporter exports metrics to Prometheus format.
type PrometheusExporter struct {
	collector *Collector

	// Prometheus metrics
	decisions        *prometheus.CounterVec
	cacheHits        prometheus.Counter
	cacheMisses      prometheus.Counter
	cacheHitRate     prometheus.Gauge
	cacheKeys        prometheus.Gauge
	cacheMemoryBytes prometheus.Gauge
	cacheEvictions   prometheus.Gauge
	grpcRequests     *prometheus.CounterVec
	grpcDuration     *prometheus.HistogramVec
	grpcErrors       *prometheus.CounterVec
}

// NewPrometheusExporter creates a new Prometheus exporter and registers its
// metrics with reg. A nil reg uses the default registerer.
func NewPrometheusExporter(collector *Collector, reg prometheus.Registerer) *PrometheusExporter {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &PrometheusExporter{
		collector: collector,
		decisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "monban_acl_decisions_total",
				Help: "Total number of ACL resolutions by model and outcome",
			},
			[]string{"model", "outcome"},
		),
		cacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "monban_identity_cache_hits_total",
			Help: "Total number of identity cache hits",
		}),
		cacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "monban_identity_cache_misses_total",
			Help: "Total number of identity cache misses",
		}),
		cacheHitRate: factory.NewGauge(prometheus.GaugeOpts{
			Name: "monban_identity_cache_hit_rate",
			Help: "Current identity cache hit rate (0.0 to 1.0)",
		}),
		cacheKeys: factory.NewGauge(prometheus.GaugeOpts{
			Name: "monban_identity_cache_keys_current",
			Help: "Current number of keys in the identity cache",
		}),
		cacheMemoryBytes: factory.NewGauge(prometheus.GaugeOpts{
			Name: "monban_identity_cache_memory_bytes",
			Help: "Estimated memory usage of the identity cache in bytes",
		}),
		cacheEvictions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "monban_identity_cache_evictions",
			Help: "Number of identity cache evictions reported by the backend",
		}),
		grpcRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "monban_grpc_requests_total",
				Help: "Total number of gRPC requests",
			},
			[]string{"method"},
		),
		grpcDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "monban_grpc_request_duration_seconds",
				Help:    "Duration of gRPC requests in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
			},
			[]string{"method"},
		),
		grpcErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "monban_grpc_errors_total",
				Help: "Total number of gRPC errors by status code",
			},
			[]string{"method", "code"},
		),
	}
}

// Update refreshes gauges from the collector.
// Counters are updated as events happen, so only gauges are set here.
func (e *PrometheusExporter) Update() {
	cacheMetrics := e.collector.GetCacheMetrics()
	e.cacheHitRate.Set(cacheMetrics.HitRate)
	e.cacheKeys.Set(float64(cacheMetrics.KeysCurrent))
	e.cacheMemoryBytes.Set(float64(cacheMetrics.MemoryBytes))
	e.cacheEvictions.Set(float64(cacheMetrics.Evictions))
}

// RecordRequest records a request in Prometheus.
func (e *PrometheusExporter) RecordRequest(method string) {
	e.grpcRequests.WithLabelValues(method).Inc()
}

// RecordDuration records a duration in Prometheus.
func (e *PrometheusExporter) RecordDuration(method string, durationSeconds float64) {
	e.grpcDuration.WithLabelValues(method).Observe(durationSeconds)
}

// RecordError records an error in Prometheus.
func (e *PrometheusExporter) RecordError(method, code string) {
	e.grpcErrors.WithLabelValues(method, code).Inc()
}

// RecordDecision records a resolution outcome.
func (e *PrometheusExporter) RecordDecision(model, outcome string) {
	e.decisions.WithLabelValues(model, outcome).Inc()
}

// RecordCacheHit records an identity cache hit.
func (e *PrometheusExporter) RecordCacheHit() {
	e.cacheHits.Inc()
}

// RecordCacheMiss records an identity cache miss.
func (e *PrometheusExporter) RecordCacheMiss() {
	e.cacheMisses.Inc()
}
