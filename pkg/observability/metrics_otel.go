package observability

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// OTelMetrics holds OpenTelemetry metric instruments
type OTelMetrics struct {
	// HTTP metrics
	httpRequestsTotal   metric.Int64Counter
	httpRequestDuration metric.Float64Histogram
	httpRequestSize     metric.Int64Histogram
	httpResponseSize    metric.Int64Histogram

	// Detection metrics
	entitiesDetected metric.Int64Counter
	detectorDuration metric.Float64Histogram
	detectorErrors   metric.Int64Counter

	// Redaction metrics
	redactionsTotal   metric.Int64Counter
	redactionDuration metric.Float64Histogram
	residualEntities  metric.Int64Counter

	// Storage metrics
	storageOperations metric.Int64Counter
	storageDuration   metric.Float64Histogram
	storageBytes      metric.Int64Histogram

	// Sidecar metrics
	sidecarRequests metric.Int64Counter
	sidecarDuration metric.Float64Histogram
}

// NewOTelMetrics creates a new OTel metrics instance
func NewOTelMetrics() (*OTelMetrics, error) {
	meter := otel.Meter("github.com/platinummonkey/veil")

	m := &OTelMetrics{}
	var err error

	// HTTP metrics
	m.httpRequestsTotal, err = meter.Int64Counter(
		"http.server.requests",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_requests_total counter: %w", err)
	}

	m.httpRequestDuration, err = meter.Float64Histogram(
		"http.server.duration",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_request_duration histogram: %w", err)
	}

	m.httpRequestSize, err = meter.Int64Histogram(
		"http.server.request.size",
		metric.WithDescription("HTTP request size in bytes"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_request_size histogram: %w", err)
	}

	m.httpResponseSize, err = meter.Int64Histogram(
		"http.server.response.size",
		metric.WithDescription("HTTP response size in bytes"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_response_size histogram: %w", err)
	}

	// Detection metrics
	m.entitiesDetected, err = meter.Int64Counter(
		"detection.entities",
		metric.WithDescription("Total number of entities detected"),
		metric.WithUnit("{entity}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create entities_detected counter: %w", err)
	}

	m.detectorDuration, err = meter.Float64Histogram(
		"detection.duration",
		metric.WithDescription("Detector pass duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create detector_duration histogram: %w", err)
	}

	m.detectorErrors, err = meter.Int64Counter(
		"detection.errors",
		metric.WithDescription("Total number of detector failures"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create detector_errors counter: %w", err)
	}

	// Redaction metrics
	m.redactionsTotal, err = meter.Int64Counter(
		"redaction.operations",
		metric.WithDescription("Total number of redaction operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create redactions counter: %w", err)
	}

	m.redactionDuration, err = meter.Float64Histogram(
		"redaction.duration",
		metric.WithDescription("Redaction operation duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create redaction_duration histogram: %w", err)
	}

	m.residualEntities, err = meter.Int64Counter(
		"redaction.residual",
		metric.WithDescription("Residual entities found during verification"),
		metric.WithUnit("{entity}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create residual_entities counter: %w", err)
	}

	// Storage metrics
	m.storageOperations, err = meter.Int64Counter(
		"storage.operations.total",
		metric.WithDescription("Total number of artifact storage operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage_operations counter: %w", err)
	}

	m.storageDuration, err = meter.Float64Histogram(
		"storage.operation.duration",
		metric.WithDescription("Artifact storage operation duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage_duration histogram: %w", err)
	}

	m.storageBytes, err = meter.Int64Histogram(
		"storage.bytes",
		metric.WithDescription("Artifact storage bytes transferred"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage_bytes histogram: %w", err)
	}

	// Sidecar metrics
	m.sidecarRequests, err = meter.Int64Counter(
		"sidecar.requests",
		metric.WithDescription("Total number of requests to model sidecars"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create sidecar_requests counter: %w", err)
	}

	m.sidecarDuration, err = meter.Float64Histogram(
		"sidecar.duration",
		metric.WithDescription("Model sidecar request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create sidecar_duration histogram: %w", err)
	}

	return m, nil
}

// HTTPMiddleware instruments requests with the OTel instruments. Meant to
// stack with the Prometheus middleware when both backends are enabled.
func (m *OTelMetrics) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		m.RecordHTTPRequest(r.Context(), r.Method, r.URL.Path, rw.statusCode,
			time.Since(start), r.ContentLength, int64(rw.bytesWritten))
	})
}

// RecordHTTPRequest records an HTTP request metric
func (m *OTelMetrics) RecordHTTPRequest(ctx context.Context, method, route string, statusCode int, duration time.Duration, requestSize, responseSize int64) {
	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("http.route", route),
		attribute.Int("http.status_code", statusCode),
	}

	m.httpRequestsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.httpRequestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))

	if requestSize > 0 {
		m.httpRequestSize.Record(ctx, requestSize, metric.WithAttributes(attrs...))
	}
	if responseSize > 0 {
		m.httpResponseSize.Record(ctx, responseSize, metric.WithAttributes(attrs...))
	}
}

// RecordDetection records a detector pass
func (m *OTelMetrics) RecordDetection(ctx context.Context, detector string, entities int, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("detector", detector),
	}

	if err != nil {
		m.detectorErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
		return
	}

	m.entitiesDetected.Add(ctx, int64(entities), metric.WithAttributes(attrs...))
	m.detectorDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordRedaction records a redaction operation
func (m *OTelMetrics) RecordRedaction(ctx context.Context, strategy, media string, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("redaction.strategy", strategy),
		attribute.String("redaction.media", media),
	}
	if err != nil {
		attrs = append(attrs, attribute.String("error", "true"))
	} else {
		attrs = append(attrs, attribute.String("error", "false"))
	}

	m.redactionsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.redactionDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordResidualEntities records residual entities found by verification
func (m *OTelMetrics) RecordResidualEntities(ctx context.Context, entityType string, count int) {
	attrs := []attribute.KeyValue{
		attribute.String("entity.type", entityType),
	}
	m.residualEntities.Add(ctx, int64(count), metric.WithAttributes(attrs...))
}

// RecordStorageOperation records a storage operation metric
func (m *OTelMetrics) RecordStorageOperation(ctx context.Context, operation, storageType string, duration time.Duration, bytes int64, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("storage.operation", operation),
		attribute.String("storage.type", storageType),
	}
	if err != nil {
		attrs = append(attrs, attribute.String("error", "true"))
	} else {
		attrs = append(attrs, attribute.String("error", "false"))
	}

	m.storageOperations.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.storageDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))

	if bytes > 0 {
		m.storageBytes.Record(ctx, bytes, metric.WithAttributes(attrs...))
	}
}

// RecordSidecarRequest records a model sidecar call
func (m *OTelMetrics) RecordSidecarRequest(ctx context.Context, sidecar string, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("sidecar", sidecar),
	}
	if err != nil {
		attrs = append(attrs, attribute.String("error", "true"))
	} else {
		attrs = append(attrs, attribute.String("error", "false"))
	}

	m.sidecarRequests.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.sidecarDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}
