package observability

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// ShutdownFunc releases one resource during shutdown. Hooks receive a
// context bounded by the shutdown timeout.
type ShutdownFunc func(context.Context) error

// DefaultShutdownTimeout bounds how long draining may take before the
// process gives up and exits.
const DefaultShutdownTimeout = 30 * time.Second

// GracefulShutdown blocks until SIGINT or SIGTERM, then drains the HTTP
// server and runs the shutdown hooks in registration order. Hooks run even
// when the server drain fails; the first error wins.
func GracefulShutdown(logger *Logger, server *http.Server, hooks ...ShutdownFunc) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	logger.WithField("signal", sig.String()).Info("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()

	return Drain(ctx, logger, server, hooks...)
}

// Drain stops accepting new requests, waits for in-flight ones, then runs
// the hooks sequentially. Order matters: callers register dependents before
// their dependencies (HTTP before audit sinks before database).
func Drain(ctx context.Context, logger *Logger, server *http.Server, hooks ...ShutdownFunc) error {
	var firstErr error

	if server != nil {
		logger.Info("Draining HTTP server")
		if err := server.Shutdown(ctx); err != nil {
			logger.WithError(err).Error("HTTP server drain failed")
			firstErr = fmt.Errorf("http server shutdown: %w", err)
		}
	}

	for i, hook := range hooks {
		if err := hook(ctx); err != nil {
			logger.WithError(err).Errorf("Shutdown hook %d failed", i)
			if firstErr == nil {
				firstErr = fmt.Errorf("shutdown hook %d: %w", i, err)
			}
		}
		if ctx.Err() != nil {
			logger.Warn("Shutdown timeout reached before all hooks ran")
			if firstErr == nil {
				firstErr = fmt.Errorf("shutdown timed out: %w", ctx.Err())
			}
			return firstErr
		}
	}

	if firstErr == nil {
		logger.Info("Graceful shutdown complete")
	}
	return firstErr
}
