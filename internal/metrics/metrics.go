package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// collectors bundles all Prometheus instruments for the service.
type collectors struct {
	registry *prometheus.Registry

	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	advisories      *prometheus.CounterVec
	pipelineRuns    *prometheus.HistogramVec
	dbQueries       *prometheus.CounterVec
	dbConnsActive   prometheus.Gauge
	insightCacheOps *prometheus.CounterVec
}

var global = newCollectors()

func newCollectors() *collectors {
	c := &collectors{registry: prometheus.NewRegistry()}

	c.httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "traveladvisor",
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, path and status code",
	}, []string{"method", "path", "status"})

	c.httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "traveladvisor",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path"})

	c.advisories = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "traveladvisor",
		Name:      "advisories_processed_total",
		Help:      "Advisory batches processed by source and status",
	}, []string{"source", "status"})

	c.pipelineRuns = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "traveladvisor",
		Name:      "pipeline_run_duration_seconds",
		Help:      "Duration of a single source pipeline run",
		Buckets:   prometheus.DefBuckets,
	}, []string{"source"})

	c.dbQueries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "traveladvisor",
		Name:      "db_queries_total",
		Help:      "Database queries by operation and status",
	}, []string{"operation", "status"})

	c.dbConnsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "traveladvisor",
		Name:      "db_connections_active",
		Help:      "Number of acquired database connections",
	})

	c.insightCacheOps = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "traveladvisor",
		Name:      "insight_cache_lookups_total",
		Help:      "Country insight cache lookups by outcome",
	}, []string{"outcome"})

	c.registry.MustRegister(
		c.httpRequests,
		c.httpDuration,
		c.advisories,
		c.pipelineRuns,
		c.dbQueries,
		c.dbConnsActive,
		c.insightCacheOps,
	)

	return c
}

// Init resets the metrics state. Called once at startup; tests may call it
// again to start from a clean registry.
func Init() {
	global = newCollectors()
}

// Handler returns the Prometheus scrape handler
func Handler() http.Handler {
	return promhttp.HandlerFor(global.registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest records HTTP request metrics
func RecordHTTPRequest(method, path string, statusCode int, duration time.Duration) {
	global.httpRequests.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	global.httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordAdvisoryProcessed records advisory processing outcomes
func RecordAdvisoryProcessed(source, status string) {
	global.advisories.WithLabelValues(source, status).Inc()
}

// RecordPipelineRun records the duration of one source run
func RecordPipelineRun(source string, duration time.Duration) {
	global.pipelineRuns.WithLabelValues(source).Observe(duration.Seconds())
}

// SetDBConnectionsActive sets the number of active database connections
func SetDBConnectionsActive(count float64) {
	global.dbConnsActive.Set(count)
}

// RecordDBQuery records database query metrics
func RecordDBQuery(operation, status string) {
	global.dbQueries.WithLabelValues(operation, status).Inc()
}

// RecordInsightCacheLookup records a cache hit or miss
func RecordInsightCacheLookup(outcome string) {
	global.insightCacheOps.WithLabelValues(outcome).Inc()
}
