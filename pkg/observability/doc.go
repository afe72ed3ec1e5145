// Package observability provides veil's structured logging, Prometheus
// metrics, health probes, and OpenTelemetry wiring.
//
// # Overview
//
// Logging is JSON over stdlib slog; derived loggers accumulate fields:
//
//	logger := observability.NewLogger(observability.InfoLevel, os.Stdout)
//	logger.WithField("strategy", "mask").Info("Redaction complete")
//	logger.WithError(err).Error("Detector failed")
//
// Metrics live on a dedicated registry so the admin endpoint exposes only
// veil series:
//
//	registry := prometheus.NewRegistry()
//	metrics := observability.NewMetrics(registry)
//	metrics.EntitiesDetectedTotal.WithLabelValues("EMAIL", "pattern").Inc()
//	metrics.RedactionsTotal.WithLabelValues("mask", "text", "success").Inc()
//
// HTTPMetricsMiddleware instruments the API router, and
// RegisterMetricsEndpoint mounts /metrics on the admin mux.
//
// # Health probes
//
// NewHealthChecker treats the database as required and Redis as optional:
// a Redis outage degrades readiness without failing it.
//
// # OpenTelemetry
//
// InitOTel installs OTLP gRPC trace and metric exporters as the global
// providers; ShutdownOTel flushes them. Both are no-ops when disabled.
//
// # Shutdown
//
// GracefulShutdown waits for SIGINT/SIGTERM, drains the HTTP server, then
// runs shutdown hooks in registration order.
package observability
