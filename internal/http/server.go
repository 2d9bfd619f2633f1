// Package http provides HTTP server implementation and request handlers.
package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/atomic"

	"github.com/allisson/ocpi/internal/config"
	"github.com/allisson/ocpi/internal/metrics"
	"github.com/allisson/ocpi/internal/ocpi"
	versionHTTP "github.com/allisson/ocpi/internal/version/http"
)

// Server represents the HTTP server
type Server struct {
	server *http.Server
	logger *slog.Logger
	router *gin.Engine

	// ready turns true once boot replay finished and false again on shutdown.
	ready atomic.Bool
}

// NewServer creates a new HTTP server
func NewServer(
	host string,
	port int,
	logger *slog.Logger,
) *Server {
	return &Server{
		logger: logger,
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", host, port),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// SetupRouter configures the Gin router with all routes and middleware.
// ctx bounds background work owned by the router, such as rate limiter cleanup.
func (s *Server) SetupRouter(
	ctx context.Context,
	cfg *config.Config,
	versionHandler *versionHTTP.VersionHandler,
	accessGate ocpi.AccessGate,
	metricsProvider *metrics.Provider,
	metricsNamespace string,
) {
	router := gin.New()

	// Apply custom middleware
	router.Use(gin.Recovery())
	router.Use(requestid.New(
		requestid.WithGenerator(func() string {
			return uuid.Must(uuid.NewV7()).String()
		}),
	))
	router.Use(CustomLoggerMiddleware(s.logger))

	if corsMiddleware := createCORSMiddleware(cfg.CORSEnabled, cfg.CORSAllowOrigins, s.logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	// Add HTTP metrics middleware if metrics are enabled
	if metricsProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(metricsProvider.MeterProvider(), metricsNamespace))
	}

	router.Use(ocpi.HeadersMiddleware(s.logger))

	// Health and readiness endpoints (outside OCPI surface)
	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	// Service banner
	banner := bannerHandler(cfg.ServiceName)
	router.GET("/", banner)
	router.OPTIONS("/", func(c *gin.Context) {
		c.Header("Allow", "OPTIONS, GET")
		c.Status(http.StatusOK)
	})

	router.GET("/support", func(c *gin.Context) {
		c.String(http.StatusOK, cfg.SupportText)
	})

	// Version discovery
	versions := router.Group("/versions")
	if cfg.RateLimitVersionsEnabled {
		versions.Use(RateLimitMiddleware(
			ctx,
			cfg.RateLimitVersionsRequestsPerSec,
			cfg.RateLimitVersionsBurst,
			s.logger,
		))
	}
	versions.Use(ocpi.AccessTokenMiddleware(accessGate, s.logger))
	{
		versions.GET("", versionHandler.ListHandler)
		versions.OPTIONS("", versionHandler.OptionsHandler)
	}

	s.router = router
}

// MarkReady flips /ready to ready.
func (s *Server) MarkReady() {
	if !s.ready.Swap(true) {
		s.logger.Info("server is ready")
	}
}

// IsReady reports whether /ready answers ready.
func (s *Server) IsReady() bool {
	return s.ready.Load()
}

func bannerHandler(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.String(http.StatusOK, "This is %s, an OCPI node. Start with GET /versions.", serviceName)
	}
}

// healthHandler returns a simple health check response.
func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler reports whether boot replay completed.
func (s *Server) readinessHandler(c *gin.Context) {
	writeReadiness(c, s.ready.Load())
}

func writeReadiness(c *gin.Context, ready bool) {
	if !ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not_ready",
			"components": gin.H{
				"command_log": "replaying",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"components": gin.H{
			"command_log": "ok",
		},
	})
}

// CustomLoggerMiddleware logs every request with its request id.
func CustomLoggerMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		logger.Info("http request",
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.String("query", query),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("duration", time.Since(start)),
			slog.String("client_ip", c.ClientIP()),
			slog.String("request_id", requestid.Get(c)),
		)
	}
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	s.server.Handler = s.router

	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.ready.Store(false)
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}
