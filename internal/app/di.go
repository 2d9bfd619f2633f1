// Package app provides dependency injection container for assembling application components.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"go.uber.org/atomic"

	accessTokenUseCase "github.com/allisson/ocpi/internal/accesstoken/usecase"
	"github.com/allisson/ocpi/internal/commandlog"
	"github.com/allisson/ocpi/internal/config"
	"github.com/allisson/ocpi/internal/http"
	"github.com/allisson/ocpi/internal/metrics"
	partyUseCase "github.com/allisson/ocpi/internal/party/usecase"
	versionHTTP "github.com/allisson/ocpi/internal/version/http"
	versionUseCase "github.com/allisson/ocpi/internal/version/usecase"
)

// Lifecycle comments written to the party and asset files.
const (
	commentStarted  = "started"
	commentShutdown = "shutdown"
)

// Container holds all application dependencies and provides methods to access them.
// It follows the lazy initialization pattern - components are created on first access.
type Container struct {
	// Configuration
	config *config.Config

	// Infrastructure
	logger          *slog.Logger
	commandLog      *commandlog.Log
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics

	// Domain state
	accessTokenDirectory accessTokenUseCase.Directory
	remotePartyRegistry  partyUseCase.Registry
	versionDirectory     versionUseCase.Directory
	versionHandler       *versionHTTP.VersionHandler

	// Servers
	httpServer    *http.Server
	metricsServer *http.MetricsServer

	// Boot state
	restoreMu      sync.Mutex
	tokensRestored bool
	restored       bool
	booted   atomic.Bool
	bootID   string

	// Initialization flags and mutex for thread-safety
	mu                       sync.Mutex
	loggerInit               sync.Once
	commandLogInit           sync.Once
	metricsProviderInit      sync.Once
	businessMetricsInit      sync.Once
	accessTokenDirectoryInit sync.Once
	remotePartyRegistryInit  sync.Once
	versionDirectoryInit     sync.Once
	versionHandlerInit       sync.Once
	httpServerInit           sync.Once
	metricsServerInit        sync.Once
	initErrors               map[string]error
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance.
// It creates a new logger on first access based on the log level in configuration.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// storeErr records a failed initialization under name.
func (c *Container) storeErr(name string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.initErrors[name] = err
}

// loadErr returns the recorded initialization error of name, if any.
func (c *Container) loadErr(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initErrors[name]
}

// CommandLog returns the command log holding every durable state change.
func (c *Container) CommandLog() (*commandlog.Log, error) {
	c.commandLogInit.Do(func() {
		var err error
		c.commandLog, err = c.initCommandLog()
		if err != nil {
			c.storeErr("commandLog", err)
		}
	})
	if err := c.loadErr("commandLog"); err != nil {
		return nil, err
	}
	return c.commandLog, nil
}

// MetricsProvider returns the OpenTelemetry metrics provider, or nil when
// metrics are disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	c.metricsProviderInit.Do(func() {
		var err error
		c.metricsProvider, err = c.initMetricsProvider()
		if err != nil {
			c.storeErr("metricsProvider", err)
		}
	})
	if err := c.loadErr("metricsProvider"); err != nil {
		return nil, err
	}
	return c.metricsProvider, nil
}

// BusinessMetrics returns the business metrics recorder.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	c.businessMetricsInit.Do(func() {
		var err error
		c.businessMetrics, err = c.initBusinessMetrics()
		if err != nil {
			c.storeErr("businessMetrics", err)
		}
	})
	if err := c.loadErr("businessMetrics"); err != nil {
		return nil, err
	}
	return c.businessMetrics, nil
}

// HTTPServer returns the HTTP server instance.
func (c *Container) HTTPServer(ctx context.Context) (*http.Server, error) {
	c.httpServerInit.Do(func() {
		server, err := c.initHTTPServer(ctx)
		c.mu.Lock()
		c.httpServer = server
		c.mu.Unlock()
		if err != nil {
			c.storeErr("httpServer", err)
		}
	})
	if err := c.loadErr("httpServer"); err != nil {
		return nil, err
	}
	return c.httpServer, nil
}

// MetricsServer returns the metrics server, or nil when metrics are disabled.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	c.metricsServerInit.Do(func() {
		var err error
		c.metricsServer, err = c.initMetricsServer()
		if err != nil {
			c.storeErr("metricsServer", err)
		}
	})
	if err := c.loadErr("metricsServer"); err != nil {
		return nil, err
	}
	return c.metricsServer, nil
}

// Restore rebuilds the in-memory state from the command log: access tokens
// first, then remote parties. It runs once; later calls are no-ops.
func (c *Container) Restore(ctx context.Context) error {
	c.restoreMu.Lock()
	defer c.restoreMu.Unlock()
	if c.restored {
		return nil
	}

	logger := c.Logger()

	if err := c.restoreAccessTokensLocked(ctx); err != nil {
		return err
	}

	log, err := c.CommandLog()
	if err != nil {
		return err
	}
	registry, err := c.RemotePartyRegistry()
	if err != nil {
		return err
	}
	report, err := registry.Replay(ctx, log.Load(c.config.RemotePartiesFile))
	if err != nil {
		return fmt.Errorf("failed to restore remote parties: %w", err)
	}

	logger.Info("state restored from command log",
		slog.Int("remote_parties", len(registry.List())),
		slog.Int("skipped_commands", report.Skipped),
	)

	c.restored = true
	return nil
}

// RestoreAccessTokens replays only the access token directory. The HTTP
// server calls it before it is built, so /versions never answers with a
// status that a later replay would change.
func (c *Container) RestoreAccessTokens(ctx context.Context) error {
	c.restoreMu.Lock()
	defer c.restoreMu.Unlock()
	return c.restoreAccessTokensLocked(ctx)
}

func (c *Container) restoreAccessTokensLocked(ctx context.Context) error {
	if c.tokensRestored {
		return nil
	}
	tokens, err := c.AccessTokenDirectory()
	if err != nil {
		return err
	}
	if _, err := tokens.Replay(ctx); err != nil {
		return fmt.Errorf("failed to restore access tokens: %w", err)
	}
	c.tokensRestored = true
	return nil
}

// Boot runs the two-phase server startup. It marks the party and asset files
// with a "started" comment, restores state and then flips the HTTP server to
// ready, if one was built.
func (c *Container) Boot(ctx context.Context) error {
	log, err := c.CommandLog()
	if err != nil {
		return err
	}

	c.bootID = commandlog.EventTrackingID(ctx)
	if err := c.appendLifecycleComment(ctx, log, commentStarted); err != nil {
		return err
	}
	c.booted.Store(true)

	if err := c.Restore(ctx); err != nil {
		return err
	}

	c.mu.Lock()
	server := c.httpServer
	c.mu.Unlock()
	if server != nil {
		server.MarkReady()
	}
	return nil
}

func (c *Container) appendLifecycleComment(ctx context.Context, log *commandlog.Log, text string) error {
	files := []string{c.config.RemotePartiesFile, c.config.AssetsFile}
	futures := make([]*commandlog.Future, 0, len(files))
	for _, file := range files {
		futures = append(futures, log.AppendComment(ctx, file, text, c.bootID, ""))
	}
	for i, future := range futures {
		if err := future.Wait(ctx); err != nil {
			return fmt.Errorf("failed to write %q comment to %s: %w", text, files[i], err)
		}
	}
	return nil
}

// Shutdown performs cleanup of all initialized resources.
// It should be called when the application is shutting down.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	httpServer := c.httpServer
	metricsServer := c.metricsServer
	metricsProvider := c.metricsProvider
	log := c.commandLog
	c.mu.Unlock()

	var shutdownErrors []error

	// Shutdown HTTP servers if initialized
	if httpServer != nil {
		if err := httpServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("http server shutdown: %w", err))
		}
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	// Flush and close the command log
	if log != nil {
		if c.booted.Load() {
			if err := c.appendLifecycleComment(ctx, log, commentShutdown); err != nil {
				shutdownErrors = append(shutdownErrors, err)
			}
		}
		if err := log.Close(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("command log close: %w", err))
		}
	}

	if metricsProvider != nil {
		if err := metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	return errors.Join(shutdownErrors...)
}

// initLogger creates and configures a structured logger based on the log level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}

// initCommandLog opens the command log directory.
func (c *Container) initCommandLog() (*commandlog.Log, error) {
	policy, err := commandlog.ParseBackpressurePolicy(c.config.CommandLogBackpressure)
	if err != nil {
		return nil, err
	}

	log, err := commandlog.New(commandlog.Config{
		Dir:           c.config.DataDir,
		QueueCapacity: c.config.CommandLogQueueCapacity,
		Backpressure:  policy,
		Sync:          c.config.CommandLogSync,
	}, c.Logger())
	if err != nil {
		return nil, fmt.Errorf("failed to open command log: %w", err)
	}

	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, err
	}
	if provider != nil {
		_, err := metrics.RegisterCommandLogMetrics(
			provider.MeterProvider(),
			c.config.MetricsNamespace,
			commandLogQueueStats(log),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to register command log metrics: %w", err)
		}
	}
	return log, nil
}

// commandLogQueueStats adapts the writer statistics of log for the metrics package.
func commandLogQueueStats(log *commandlog.Log) func() []metrics.QueueStats {
	return func() []metrics.QueueStats {
		stats := log.Stats()
		out := make([]metrics.QueueStats, 0, len(stats))
		for file, s := range stats {
			out = append(out, metrics.QueueStats{
				File:         file,
				LinesWritten: s.LinesWritten,
				QueueDepth:   s.QueueDepth,
			})
		}
		return out
	}
}

// initMetricsProvider creates the metrics provider when metrics are enabled.
func (c *Container) initMetricsProvider() (*metrics.Provider, error) {
	if !c.config.MetricsEnabled {
		return nil, nil
	}
	provider, err := metrics.NewProvider(c.config.MetricsNamespace)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics provider: %w", err)
	}
	return provider, nil
}

// initBusinessMetrics creates business metrics on top of the provider, or a
// no-op recorder when metrics are disabled.
func (c *Container) initBusinessMetrics() (metrics.BusinessMetrics, error) {
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, err
	}
	if provider == nil {
		return metrics.NewNoOpBusinessMetrics(), nil
	}
	businessMetrics, err := metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}
	return businessMetrics, nil
}

// initHTTPServer creates the HTTP server with all its dependencies.
func (c *Container) initHTTPServer(ctx context.Context) (*http.Server, error) {
	logger := c.Logger()

	tokens, err := c.AccessTokenDirectory()
	if err != nil {
		return nil, fmt.Errorf("failed to get access token directory for http server: %w", err)
	}
	if err := c.RestoreAccessTokens(ctx); err != nil {
		return nil, err
	}

	versionHandler, err := c.VersionHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get version handler for http server: %w", err)
	}

	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for http server: %w", err)
	}

	server := http.NewServer(c.config.ServerHost, c.config.ServerPort, logger)
	server.SetupRouter(ctx, c.config, versionHandler, tokens, provider, c.config.MetricsNamespace)

	return server, nil
}

// initMetricsServer creates the metrics server when metrics are enabled.
func (c *Container) initMetricsServer() (*http.MetricsServer, error) {
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for metrics server: %w", err)
	}
	if provider == nil {
		return nil, nil
	}

	// The HTTP server, when already built, also answers /ready on the metrics port.
	var readiness http.ReadinessReporter
	c.mu.Lock()
	if c.httpServer != nil {
		readiness = c.httpServer
	}
	c.mu.Unlock()

	return http.NewMetricsServer(c.config.ServerHost, c.config.MetricsPort, c.Logger(), provider, readiness), nil
}
