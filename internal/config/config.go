// Package config provides application configuration through environment variables.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/allisson/go-env"
	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	// ServerHost is the host address the server will bind to.
	ServerHost string
	// ServerPort is the port number the server will listen on.
	ServerPort int

	// LogLevel is the logging level (e.g., "debug", "info", "warn", "error").
	LogLevel string

	// DataDir is the directory holding the command log files.
	DataDir string
	// RemotePartiesFile is the command log file of the remote party registry.
	RemotePartiesFile string
	// AssetsFile is the command log file reserved for asset commands.
	AssetsFile string
	// AccessTokensFile is the command log file of the access token directory.
	AccessTokensFile string

	// CommandLogQueueCapacity bounds the pending lines per command log file.
	CommandLogQueueCapacity int
	// CommandLogBackpressure is the full-queue policy ("block" or "reject").
	CommandLogBackpressure string
	// CommandLogSync fsyncs every written batch before acknowledging it.
	CommandLogSync bool

	// AccessTokenDefaultStatus is the status of tokens never set explicitly.
	AccessTokenDefaultStatus string
	// AccessTokensPersist writes access token changes to AccessTokensFile.
	AccessTokensPersist bool

	// VersionsBaseURL is the public URL prefix of the version endpoints.
	VersionsBaseURL string
	// Versions is a comma-separated list of exposed OCPI version ids.
	Versions string

	// ServiceName is shown by the root banner.
	ServiceName string
	// SupportText is served by GET /support.
	SupportText string

	// CORSEnabled indicates whether CORS is enabled.
	CORSEnabled bool
	// CORSAllowOrigins is a comma-separated list of allowed origins for CORS, or "*".
	CORSAllowOrigins string

	// RateLimitVersionsEnabled indicates whether per-IP rate limiting of /versions is enabled.
	RateLimitVersionsEnabled bool
	// RateLimitVersionsRequestsPerSec is the number of requests allowed per second per IP.
	RateLimitVersionsRequestsPerSec float64
	// RateLimitVersionsBurst is the burst size per IP.
	RateLimitVersionsBurst int

	// MetricsEnabled indicates whether metrics collection is enabled.
	MetricsEnabled bool
	// MetricsNamespace is the namespace for the application metrics.
	MetricsNamespace string
	// MetricsPort is the port number for the metrics server.
	MetricsPort int

	// ShutdownTimeout bounds graceful shutdown of servers and the command log.
	ShutdownTimeout time.Duration
}

// Load loads configuration from environment variables and .env file.
func Load() *Config {
	// Try to load .env file recursively
	loadDotEnv()

	return &Config{
		// Server configuration
		ServerHost: env.GetString("SERVER_HOST", "0.0.0.0"),
		ServerPort: env.GetInt("SERVER_PORT", 8080),

		// Logging
		LogLevel: env.GetString("LOG_LEVEL", "info"),

		// Command log files
		DataDir:           env.GetString("DATA_DIR", "./data"),
		RemotePartiesFile: env.GetString("REMOTE_PARTIES_FILE", "RemoteParties.db"),
		AssetsFile:        env.GetString("ASSETS_FILE", "Assets.db"),
		AccessTokensFile:  env.GetString("ACCESS_TOKENS_FILE", "AccessTokens.db"),

		// Command log writers
		CommandLogQueueCapacity: env.GetInt("COMMAND_LOG_QUEUE_CAPACITY", 10000),
		CommandLogBackpressure:  env.GetString("COMMAND_LOG_BACKPRESSURE", "block"),
		CommandLogSync:          env.GetBool("COMMAND_LOG_SYNC", true),

		// Access tokens
		AccessTokenDefaultStatus: env.GetString("ACCESS_TOKEN_DEFAULT_STATUS", "ALLOWED"),
		AccessTokensPersist:      env.GetBool("ACCESS_TOKENS_PERSIST", true),

		// Version discovery
		VersionsBaseURL: env.GetString("VERSIONS_BASE_URL", "http://localhost:8080/versions"),
		Versions:        env.GetString("VERSIONS", "2.2.1"),
		ServiceName:     env.GetString("SERVICE_NAME", "OCPI Common"),
		SupportText:     env.GetString("SUPPORT_TEXT", "Please contact the operator of this OCPI node for support."),

		// CORS
		CORSEnabled:      env.GetBool("CORS_ENABLED", true),
		CORSAllowOrigins: env.GetString("CORS_ALLOW_ORIGINS", "*"),

		// Rate Limiting for /versions (IP-based, unauthenticated)
		RateLimitVersionsEnabled:        env.GetBool("RATE_LIMIT_VERSIONS_ENABLED", true),
		RateLimitVersionsRequestsPerSec: env.GetFloat64("RATE_LIMIT_VERSIONS_REQUESTS_PER_SEC", 5.0),
		RateLimitVersionsBurst:          env.GetInt("RATE_LIMIT_VERSIONS_BURST", 10),

		// Metrics
		MetricsEnabled:   env.GetBool("METRICS_ENABLED", true),
		MetricsNamespace: env.GetString("METRICS_NAMESPACE", "ocpi"),
		MetricsPort:      env.GetInt("METRICS_PORT", 8081),

		// Shutdown
		ShutdownTimeout: env.GetDuration("SHUTDOWN_TIMEOUT_SECONDS", 10, time.Second),
	}
}

// GetGinMode returns the appropriate Gin mode based on log level.
func (c *Config) GetGinMode() string {
	switch c.LogLevel {
	case "debug":
		return "debug"
	case "info", "warn", "error":
		return "release"
	default:
		return "release"
	}
}

// VersionIDs returns the configured version ids, trimmed and without blanks.
func (c *Config) VersionIDs() []string {
	parts := strings.Split(c.Versions, ",")
	ids := make([]string, 0, len(parts))
	for _, part := range parts {
		if id := strings.TrimSpace(part); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// VersionURL returns the endpoint URL of version id under VersionsBaseURL.
func (c *Config) VersionURL(id string) string {
	return strings.TrimRight(c.VersionsBaseURL, "/") + "/" + id
}

// loadDotEnv searches for a .env file recursively from the current directory
// up to the root directory and loads it if found.
func loadDotEnv() {
	// Get current working directory
	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	// Search for .env file recursively up the directory tree
	dir := cwd
	for {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			// .env file found, load it
			_ = godotenv.Load(envPath)
			return
		}

		// Move to parent directory
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root directory
			break
		}
		dir = parent
	}
}
