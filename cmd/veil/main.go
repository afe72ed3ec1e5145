package main

import (
	"context"
	"database/sql"
	"log"
	"net"
	"net/http"
	"os"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/platinummonkey/veil/pkg/api"
	"github.com/platinummonkey/veil/pkg/audit"
	"github.com/platinummonkey/veil/pkg/config"
	"github.com/platinummonkey/veil/pkg/detect/ner"
	"github.com/platinummonkey/veil/pkg/detect/pattern"
	"github.com/platinummonkey/veil/pkg/engine"
	"github.com/platinummonkey/veil/pkg/httputil"
	"github.com/platinummonkey/veil/pkg/jobs"
	"github.com/platinummonkey/veil/pkg/media"
	"github.com/platinummonkey/veil/pkg/middleware"
	"github.com/platinummonkey/veil/pkg/observability"
	"github.com/platinummonkey/veil/pkg/pii"
	"github.com/platinummonkey/veil/pkg/storage"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)
	ctx := context.Background()

	providers, err := observability.InitOTel(ctx, observability.OTelConfig{
		Enabled:        cfg.Observability.OTelEnabled,
		Endpoint:       cfg.Observability.OTelEndpoint,
		ServiceName:    cfg.Observability.OTelServiceName,
		ServiceVersion: cfg.Observability.OTelServiceVersion,
		Insecure:       cfg.Observability.OTelInsecure,
	}, logger)
	if err != nil {
		logger.WithError(err).Warn("OpenTelemetry init failed, continuing without it")
	}

	// Artifact storage
	artifacts, err := storage.New(cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to initialize artifact storage: %v", err)
	}
	logger.WithField("type", cfg.Storage.Type).Info("Artifact storage initialized")

	// Database for jobs and the audit trail
	db, err := sql.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	jobStore := jobs.NewSQLStore(db, cfg.Database.Driver)
	if err := jobStore.EnsureSchema(ctx); err != nil {
		log.Fatalf("Failed to ensure jobs schema: %v", err)
	}

	// Redis is optional; without it caching and rate limiting stay
	// in-process.
	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.WithError(err).Warn("Redis unreachable at startup, continuing degraded")
		}
	}

	// Audit sinks
	var sinks []audit.Logger
	if cfg.Audit.FileEnabled {
		fileLogger, err := audit.NewFileLogger(audit.FileLoggerConfig{
			BasePath: cfg.Audit.FilePath,
			MaxSize:  cfg.Audit.FileMaxSize,
			MaxFiles: cfg.Audit.FileMaxFiles,
		})
		if err != nil {
			log.Fatalf("Failed to open audit log: %v", err)
		}
		sinks = append(sinks, fileLogger)
	}
	var auditStore audit.Store
	if cfg.Audit.DBEnabled {
		dbLogger := audit.NewDBLogger(db, cfg.Database.Driver)
		if err := dbLogger.EnsureSchema(ctx); err != nil {
			log.Fatalf("Failed to ensure audit schema: %v", err)
		}
		sinks = append(sinks, dbLogger)
		auditStore = dbLogger
	}
	var auditLogger audit.Logger = audit.NopLogger{}
	if len(sinks) > 0 {
		auditLogger = audit.NewMultiLogger(sinks...)
	}

	// Detectors: built-in patterns plus the NER sidecar when configured
	patternLog := logrus.New()
	patternDetector := pattern.New(patternLog)
	if cfg.Engine.PatternDir != "" {
		packs, err := pattern.LoadPackDir(cfg.Engine.PatternDir, patternLog)
		if err != nil {
			log.Fatalf("Failed to load pattern packs: %v", err)
		}
		patternDetector.SetPacks(packs)

		watcher, err := pattern.NewWatcher(patternDetector, cfg.Engine.PatternDir, patternLog)
		if err != nil {
			logger.WithError(err).Warn("Pattern pack watcher unavailable, hot reload disabled")
		} else {
			go func() {
				defer observability.RecoverPanic(logger, "pattern watcher")
				watcher.Run(ctx)
			}()
			defer watcher.Close()
		}
	}

	detectors := []pii.Detector{patternDetector}
	if cfg.Sidecars.NERURL != "" {
		nerCfg := ner.Config{BaseURL: cfg.Sidecars.NERURL, Timeout: cfg.Sidecars.Timeout}
		if cfg.Sidecars.OAuthClientID != "" {
			nerCfg.OAuth2 = &clientcredentials.Config{
				ClientID:     cfg.Sidecars.OAuthClientID,
				ClientSecret: cfg.Sidecars.OAuthClientSecret,
				TokenURL:     cfg.Sidecars.OAuthTokenURL,
			}
		}
		detectors = append(detectors, ner.NewClient(nerCfg))
	}

	engineOpts := []engine.Option{engine.WithLogger(logger)}
	if redisClient != nil {
		engineOpts = append(engineOpts, engine.WithRedis(redisClient, cfg.Engine.CacheTTL))
	}
	eng := engine.New(engine.Config{
		OverlapThreshold: cfg.Engine.OverlapThreshold,
		ConfidenceBoost:  cfg.Engine.ConfidenceBoost,
		MaxVerifyRetries: cfg.Engine.MaxVerifyRetries,
		AnonymizeSeed:    cfg.Engine.AnonymizeSeed,
		CacheSize:        cfg.Engine.CacheSize,
		CacheTTL:         cfg.Engine.CacheTTL,
		BatchConcurrency: cfg.Engine.BatchConcurrency,
	}, detectors, engineOpts...)
	logger.WithField("detectors", eng.Detectors()).Info("Detection engine ready")

	// Media pipelines run against the full engine; sidecars are optional
	// and their absence only disables the routes that need them.
	var ocr media.OCRReader
	if cfg.Sidecars.OCRURL != "" {
		ocr = media.NewOCRClient(media.SidecarConfig{BaseURL: cfg.Sidecars.OCRURL, Timeout: cfg.Sidecars.Timeout})
	}
	var transcriber media.Transcriber
	if cfg.Sidecars.ASRURL != "" {
		transcriber = media.NewTranscriberClient(media.SidecarConfig{BaseURL: cfg.Sidecars.ASRURL, Timeout: cfg.Sidecars.Timeout})
	}

	jobManager := jobs.NewManager(jobStore, artifacts, cfg.Jobs.TTL, logger)

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)

	server := api.NewServer(api.Config{
		Engine:        eng,
		Jobs:          jobManager,
		ImageRedactor: media.NewImageRedactor(eng, ocr, logger),
		AudioRedactor: media.NewAudioRedactor(eng, transcriber, logger),
		VideoPlanner:  media.NewVideoPlanner(eng, logger),
		AuditLogger:   auditLogger,
		AuditStore:    auditStore,
		Logger:        logger,
		Metrics:       metrics,
	})

	// Middleware: request IDs and panic recovery outermost, then metrics,
	// then auth, then rate limiting keyed by the authenticated API key.
	server.Use(httputil.RequestIDMiddleware, httputil.RecoveryMiddleware)
	server.Use(observability.HTTPMetricsMiddleware(metrics))
	if providers != nil {
		otelMetrics, err := observability.NewOTelMetrics()
		if err != nil {
			logger.WithError(err).Warn("OTel metric instruments unavailable")
		} else {
			server.Use(otelMetrics.HTTPMiddleware)
		}
	}
	authKeys := make([]middleware.APIKey, 0, len(cfg.Auth.Keys))
	for _, k := range cfg.Auth.Keys {
		authKeys = append(authKeys, middleware.APIKey{ID: k.ID, Secret: k.Secret})
	}
	server.Use(middleware.NewAuthMiddleware(authKeys, len(authKeys) == 0).Handler)
	if cfg.Auth.RateLimitEnabled {
		if redisClient != nil {
			server.Use(middleware.NewDistributedRateLimitMiddleware(redisClient).Handler)
		} else {
			server.Use(middleware.NewRateLimitMiddleware().Handler)
		}
	}

	var handler http.Handler = server
	if cfg.Observability.OTelEnabled {
		handler = otelhttp.NewHandler(server, "veil-api")
	}

	httpServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Health and metrics on a separate listener for probes and scraping
	healthMux := http.NewServeMux()
	observability.RegisterHealthRoutes(healthMux, observability.NewHealthChecker(db, redisClient))
	observability.RegisterMetricsEndpoint(healthMux, registry)
	healthServer := &http.Server{
		Addr:    net.JoinHostPort(cfg.Server.Host, cfg.Server.HealthPort),
		Handler: healthMux,
	}
	go func() {
		logger.WithField("addr", healthServer.Addr).Info("Health/metrics server listening")
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("Health server failed")
		}
	}()

	go func() {
		logger.WithField("addr", httpServer.Addr).Info("Veil API server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	shutdownFuncs := []observability.ShutdownFunc{
		func(ctx context.Context) error { return healthServer.Shutdown(ctx) },
		func(context.Context) error { return auditLogger.Close() },
	}
	if redisClient != nil {
		shutdownFuncs = append(shutdownFuncs, func(context.Context) error { return redisClient.Close() })
	}
	if providers != nil {
		shutdownFuncs = append(shutdownFuncs, func(ctx context.Context) error {
			return observability.ShutdownOTel(ctx, providers, logger)
		})
	}

	if err := observability.GracefulShutdown(logger, httpServer, shutdownFuncs...); err != nil {
		logger.WithError(err).Error("Shutdown finished with errors")
		os.Exit(1)
	}
}
