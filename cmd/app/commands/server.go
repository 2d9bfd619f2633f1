package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/allisson/ocpi/internal/app"
	"github.com/allisson/ocpi/internal/config"
)

// RunServer starts the HTTP server with graceful shutdown support.
//
// Startup has two phases: the servers start listening first, so /health and
// /versions answer immediately, then the command log is replayed and /ready
// flips to ready. Blocks until SIGINT/SIGTERM or a fatal server error, then
// shuts everything down within SHUTDOWN_TIMEOUT_SECONDS.
func RunServer(ctx context.Context, version string) error {
	// Load configuration
	cfg := config.Load()

	// Set Gin mode based on log level
	gin.SetMode(cfg.GetGinMode())

	// Create DI container
	container := app.NewContainer(cfg)

	// Get logger from container
	logger := container.Logger()
	logger.Info("starting server", slog.String("version", version))

	// Setup graceful shutdown
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Get HTTP server from container (this initializes all dependencies)
	server, err := container.HTTPServer(ctx)
	if err != nil {
		_ = container.Shutdown(context.Background())
		return fmt.Errorf("failed to initialize HTTP server: %w", err)
	}

	// Get Metrics server from container
	metricsServer, err := container.MetricsServer()
	if err != nil {
		_ = container.Shutdown(context.Background())
		return fmt.Errorf("failed to initialize metrics server: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := server.Start(gctx); err != nil {
			return fmt.Errorf("api server error: %w", err)
		}
		return nil
	})

	if metricsServer != nil {
		g.Go(func() error {
			if err := metricsServer.Start(gctx); err != nil {
				return fmt.Errorf("metrics server error: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		bootErr := container.Boot(gctx)
		if bootErr != nil {
			logger.Error("boot failed, initiating shutdown", slog.Any("error", bootErr))
			bootErr = fmt.Errorf("boot failed: %w", bootErr)
		} else {
			<-gctx.Done()
			logger.Info("shutdown signal received")
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer shutdownCancel()

		if err := container.Shutdown(shutdownCtx); err != nil {
			return errors.Join(bootErr, err)
		}
		return bootErr
	})

	return g.Wait()
}
