package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/robfig/cron/v3"

	"github.com/platinummonkey/veil/pkg/audit"
	"github.com/platinummonkey/veil/pkg/config"
	"github.com/platinummonkey/veil/pkg/jobs"
	"github.com/platinummonkey/veil/pkg/observability"
	"github.com/platinummonkey/veil/pkg/storage"
)

var (
	sweepSchedule  = flag.String("sweep-schedule", "*/5 * * * *", "Cron schedule for the expired job sweep")
	purgeSchedule  = flag.String("purge-schedule", "0 3 * * *", "Cron schedule for the audit retention purge")
	auditRetention = flag.Duration("audit-retention", 90*24*time.Hour, "How long audit events are kept")
	runOnce        = flag.Bool("run-once", false, "Run one sweep and purge, then exit")
)

func main() {
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)
	ctx := context.Background()

	db, err := sql.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	artifacts, err := storage.New(cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to initialize artifact storage: %v", err)
	}

	jobStore := jobs.NewSQLStore(db, cfg.Database.Driver)
	if err := jobStore.EnsureSchema(ctx); err != nil {
		log.Fatalf("Failed to ensure jobs schema: %v", err)
	}
	manager := jobs.NewManager(jobStore, artifacts, cfg.Jobs.TTL, logger)

	var auditDB *audit.DBLogger
	if cfg.Audit.DBEnabled {
		auditDB = audit.NewDBLogger(db, cfg.Database.Driver)
		if err := auditDB.EnsureSchema(ctx); err != nil {
			log.Fatalf("Failed to ensure audit schema: %v", err)
		}
	}

	sweep := func() {
		removed, err := manager.CleanupExpired(ctx)
		if err != nil {
			logger.WithError(err).Error("Expired job sweep failed")
			return
		}
		if removed > 0 {
			logger.WithField("removed", removed).Info("Swept expired jobs")
			if auditDB != nil {
				event := audit.NewEvent(audit.ActionJobExpired, "janitor", audit.OutcomeSuccess)
				event.Details = map[string]interface{}{"removed": removed}
				if err := auditDB.Log(ctx, event); err != nil {
					logger.WithError(err).Warn("Failed to record sweep in audit trail")
				}
			}
		}
	}

	purge := func() {
		if auditDB == nil {
			return
		}
		cutoff := time.Now().UTC().Add(-*auditRetention)
		purged, err := auditDB.PurgeBefore(ctx, cutoff)
		if err != nil {
			logger.WithError(err).Error("Audit retention purge failed")
			return
		}
		if purged > 0 {
			logger.WithField("purged", purged).Info("Purged old audit events")
		}
	}

	if *runOnce {
		sweep()
		purge()
		logger.Info("Janitor run complete")
		return
	}

	c := cron.New()
	if _, err := c.AddFunc(*sweepSchedule, sweep); err != nil {
		log.Fatalf("Failed to schedule job sweep: %v", err)
	}
	if _, err := c.AddFunc(*purgeSchedule, purge); err != nil {
		log.Fatalf("Failed to schedule audit purge: %v", err)
	}

	c.Start()
	logger.WithFields(map[string]interface{}{
		"sweep_schedule": *sweepSchedule,
		"purge_schedule": *purgeSchedule,
	}).Info("Veil janitor started")

	// Wait for termination signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down janitor")
	stopCtx := c.Stop()
	<-stopCtx.Done()
}
