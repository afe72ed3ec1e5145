package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPRequestSize     *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// Detection metrics
	EntitiesDetectedTotal *prometheus.CounterVec
	DetectorDuration      *prometheus.HistogramVec
	DetectorErrorsTotal   *prometheus.CounterVec

	// Redaction metrics
	RedactionsTotal       *prometheus.CounterVec
	RedactionDuration     *prometheus.HistogramVec
	VerificationsTotal    *prometheus.CounterVec
	VerificationFailures  prometheus.Counter
	ResidualEntitiesTotal *prometheus.CounterVec

	// Cache metrics
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec

	// Storage metrics
	StorageOperationsTotal   *prometheus.CounterVec
	StorageOperationDuration *prometheus.HistogramVec
	StorageErrorsTotal       *prometheus.CounterVec

	// Job metrics
	JobsActive       prometheus.Gauge
	JobsCreatedTotal *prometheus.CounterVec
	JobsExpiredTotal prometheus.Counter
	JobDuration      *prometheus.HistogramVec

	// Sidecar metrics
	SidecarRequestsTotal *prometheus.CounterVec
	SidecarDuration      *prometheus.HistogramVec
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		// HTTP metrics
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "veil_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "veil_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPRequestSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "veil_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 8),
			},
			[]string{"method", "path"},
		),
		HTTPResponseSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "veil_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 8),
			},
			[]string{"method", "path"},
		),

		// Detection metrics
		EntitiesDetectedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "veil_entities_detected_total",
				Help: "Total number of entities detected",
			},
			[]string{"entity_type", "source"},
		),
		DetectorDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "veil_detector_duration_seconds",
				Help:    "Detector pass duration in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"detector"},
		),
		DetectorErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "veil_detector_errors_total",
				Help: "Total number of detector failures",
			},
			[]string{"detector"},
		),

		// Redaction metrics
		RedactionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "veil_redactions_total",
				Help: "Total number of redaction operations",
			},
			[]string{"strategy", "media", "status"},
		),
		RedactionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "veil_redaction_duration_seconds",
				Help:    "Redaction operation duration in seconds",
				Buckets: []float64{.01, .05, .1, .5, 1, 5, 10, 30, 60},
			},
			[]string{"media"},
		),
		VerificationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "veil_verifications_total",
				Help: "Total number of verification passes",
			},
			[]string{"status"},
		),
		VerificationFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "veil_verification_failures_total",
				Help: "Total number of verification passes that found residual entities",
			},
		),
		ResidualEntitiesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "veil_residual_entities_total",
				Help: "Total number of residual entities found during verification",
			},
			[]string{"entity_type"},
		),

		// Cache metrics
		CacheHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "veil_cache_hits_total",
				Help: "Total number of detection cache hits",
			},
			[]string{"cache_type"},
		),
		CacheMissesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "veil_cache_misses_total",
				Help: "Total number of detection cache misses",
			},
			[]string{"cache_type"},
		),

		// Storage metrics
		StorageOperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "veil_storage_operations_total",
				Help: "Total number of artifact storage operations",
			},
			[]string{"operation", "backend", "status"},
		),
		StorageOperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "veil_storage_operation_duration_seconds",
				Help:    "Artifact storage operation duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "backend"},
		),
		StorageErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "veil_storage_errors_total",
				Help: "Total number of artifact storage errors",
			},
			[]string{"operation", "backend", "error_type"},
		),

		// Job metrics
		JobsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "veil_jobs_active",
				Help: "Number of jobs not yet expired",
			},
		),
		JobsCreatedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "veil_jobs_created_total",
				Help: "Total number of jobs created",
			},
			[]string{"kind"},
		),
		JobsExpiredTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "veil_jobs_expired_total",
				Help: "Total number of expired jobs cleaned up",
			},
		),
		JobDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "veil_job_duration_seconds",
				Help:    "Time from job creation to completion",
				Buckets: []float64{.1, .5, 1, 5, 10, 30, 60, 120, 300},
			},
			[]string{"kind"},
		),

		// Sidecar metrics
		SidecarRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "veil_sidecar_requests_total",
				Help: "Total number of requests to model sidecars",
			},
			[]string{"sidecar", "status"},
		),
		SidecarDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "veil_sidecar_duration_seconds",
				Help:    "Model sidecar request duration in seconds",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"sidecar"},
		),
	}

	// Register all metrics
	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestSize,
		m.HTTPResponseSize,
		m.EntitiesDetectedTotal,
		m.DetectorDuration,
		m.DetectorErrorsTotal,
		m.RedactionsTotal,
		m.RedactionDuration,
		m.VerificationsTotal,
		m.VerificationFailures,
		m.ResidualEntitiesTotal,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.StorageOperationsTotal,
		m.StorageOperationDuration,
		m.StorageErrorsTotal,
		m.JobsActive,
		m.JobsCreatedTotal,
		m.JobsExpiredTotal,
		m.JobDuration,
		m.SidecarRequestsTotal,
		m.SidecarDuration,
	)

	return m
}

// responseWriter wraps http.ResponseWriter to capture status code and size
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += n
	return n, err
}

// HTTPMetricsMiddleware instruments HTTP requests with Prometheus metrics
func HTTPMetricsMiddleware(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Wrap response writer to capture status and size
			rw := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			// Record request size
			if r.ContentLength > 0 {
				metrics.HTTPRequestSize.WithLabelValues(r.Method, r.URL.Path).Observe(float64(r.ContentLength))
			}

			// Serve the request
			next.ServeHTTP(rw, r)

			// Record metrics
			duration := time.Since(start).Seconds()
			status := strconv.Itoa(rw.statusCode)

			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, r.URL.Path, status).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(duration)
			metrics.HTTPResponseSize.WithLabelValues(r.Method, r.URL.Path).Observe(float64(rw.bytesWritten))
		})
	}
}

// RegisterMetricsEndpoint registers the /metrics endpoint
func RegisterMetricsEndpoint(mux *http.ServeMux, registry *prometheus.Registry) {
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
}
