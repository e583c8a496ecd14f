// Package config holds the quote form server configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Configuration errors.
var (
	ErrInvalidAddress        = errors.New("address is required")
	ErrInvalidLogLevel       = errors.New("log level must be one of debug, info, warn, error")
	ErrInvalidLogFormat      = errors.New("log format must be console or json")
	ErrInvalidSessionTTL     = errors.New("session TTL must be positive")
	ErrInvalidRateLimit      = errors.New("rate limit and burst must be positive when rate limiting is enabled")
	ErrInvalidMaxUploadSize  = errors.New("max upload size must not be negative")
	ErrInvalidMaxMessageSize = errors.New("max message size must be positive")
)

// TimeoutConfig configures server timeouts.
type TimeoutConfig struct {
	// Read bounds reading a whole request.
	Read time.Duration `yaml:"read"`

	// Write bounds writing a response. WebSocket connections are exempt.
	Write time.Duration `yaml:"write"`

	// Idle bounds keep-alive connections.
	Idle time.Duration `yaml:"idle"`

	// WebSocketWrite bounds a single reply frame.
	WebSocketWrite time.Duration `yaml:"websocket_write"`

	// WebSocketPing is the ping interval for idle connections.
	WebSocketPing time.Duration `yaml:"websocket_ping"`

	// Shutdown bounds graceful shutdown.
	Shutdown time.Duration `yaml:"shutdown"`
}

// DefaultTimeoutConfig returns the production timeouts.
func DefaultTimeoutConfig() TimeoutConfig {
	return TimeoutConfig{
		Read:           15 * time.Second,
		Write:          30 * time.Second,
		Idle:           60 * time.Second,
		WebSocketWrite: 10 * time.Second,
		WebSocketPing:  30 * time.Second,
		Shutdown:       15 * time.Second,
	}
}

// RelaxedTimeoutConfig returns more relaxed timeouts for development.
func RelaxedTimeoutConfig() TimeoutConfig {
	return TimeoutConfig{
		Read:           2 * time.Minute,
		Write:          2 * time.Minute,
		Idle:           5 * time.Minute,
		WebSocketWrite: 30 * time.Second,
		WebSocketPing:  30 * time.Second,
		Shutdown:       time.Minute,
	}
}

// SecurityConfig configures origin checks and rate limiting.
type SecurityConfig struct {
	// AllowedOrigins for WebSocket connections. Empty means same-origin.
	AllowedOrigins []string `yaml:"allowed_origins"`

	// InsecureDevMode disables origin checks (ONLY for development!).
	InsecureDevMode bool `yaml:"insecure_dev_mode"`

	// SecureCookies marks the session cookie Secure.
	SecureCookies bool `yaml:"secure_cookies"`

	// RateLimitEnabled enables per-client rate limiting.
	RateLimitEnabled bool `yaml:"rate_limit_enabled"`

	// RateLimitPerSecond is the sustained request rate per client.
	RateLimitPerSecond float64 `yaml:"rate_limit_per_second"`

	// RateLimitBurst is the largest burst allowed per client.
	RateLimitBurst int `yaml:"rate_limit_burst"`
}

// DefaultSecurityConfig returns secure defaults.
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		AllowedOrigins:     nil, // Same-origin only
		SecureCookies:      true,
		RateLimitEnabled:   true,
		RateLimitPerSecond: 20,
		RateLimitBurst:     40,
	}
}

// DevelopmentSecurityConfig returns relaxed settings for development.
func DevelopmentSecurityConfig() SecurityConfig {
	return SecurityConfig{
		AllowedOrigins:  []string{"*"},
		InsecureDevMode: true,
	}
}

// Config combines all configuration settings.
type Config struct {
	Timeouts TimeoutConfig  `yaml:"timeouts"`
	Security SecurityConfig `yaml:"security"`

	// Server settings
	Address string `yaml:"address"`
	Debug   bool   `yaml:"debug"`

	// Logging
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Sessions
	SessionTTL      time.Duration `yaml:"session_ttl"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`

	// MaxSessions is the live session count at which /healthz reports
	// degraded. Zero disables the check.
	MaxSessions int `yaml:"max_sessions"`

	// Resource limits
	MaxUploadSize  int64 `yaml:"max_upload_size"`
	MaxMessageSize int64 `yaml:"max_message_size"`

	// CatalogPath optionally replaces the built-in service catalog.
	CatalogPath string `yaml:"catalog_path"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Timeouts:        DefaultTimeoutConfig(),
		Security:        DefaultSecurityConfig(),
		Address:         ":3000",
		LogLevel:        "info",
		LogFormat:       "json",
		SessionTTL:      30 * time.Minute,
		CleanupInterval: time.Minute,
		MaxSessions:     10000,
		MaxUploadSize:   10 * 1024 * 1024, // 10MB
		MaxMessageSize:  512 * 1024,       // 512KB
	}
}

// Development returns configuration for local development.
func Development() Config {
	c := Default()
	c.Timeouts = RelaxedTimeoutConfig()
	c.Security = DevelopmentSecurityConfig()
	c.Debug = true
	c.LogLevel = "debug"
	c.LogFormat = "console"
	c.SessionTTL = 4 * time.Hour
	return c
}

// Load reads a YAML file over the defaults. Keys missing from the file
// keep their default value.
func Load(path string) (Config, error) {
	c := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("load config %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("parse config %q: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return c, fmt.Errorf("config %q: %w", path, err)
	}
	return c, nil
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Address) == "" {
		return ErrInvalidAddress
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return ErrInvalidLogLevel
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return ErrInvalidLogFormat
	}
	if c.SessionTTL <= 0 {
		return ErrInvalidSessionTTL
	}
	if c.Security.RateLimitEnabled && (c.Security.RateLimitPerSecond <= 0 || c.Security.RateLimitBurst <= 0) {
		return ErrInvalidRateLimit
	}
	if c.MaxUploadSize < 0 {
		return ErrInvalidMaxUploadSize
	}
	if c.MaxMessageSize <= 0 {
		return ErrInvalidMaxMessageSize
	}
	return nil
}
