package config

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration to support string based YAML decoding.
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses duration values expressed as Go-style strings or numbers interpreted as seconds.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		raw := strings.TrimSpace(value.Value)
		if raw == "" {
			d.Duration = 0
			return nil
		}
		parsed, err := time.ParseDuration(raw)
		if err == nil {
			d.Duration = parsed
			return nil
		}
		secs, convErr := time.ParseDuration(fmt.Sprintf("%ss", raw))
		if convErr == nil {
			d.Duration = secs
			return nil
		}
		return fmt.Errorf("invalid duration value %q: %w", raw, err)
	default:
		return fmt.Errorf("unsupported duration node kind: %v", value.Kind)
	}
}

// MarshalYAML renders the duration as a string to keep config edits human-friendly.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// Config holds application level configuration aggregated from file and environment variables.
type Config struct {
	Server         ServerConfig         `yaml:"server"`
	Logging        LoggingConfig        `yaml:"logging"`
	Postgres       PostgresConfig       `yaml:"postgres"`
	Vendors        map[string]VendorConfig `yaml:"vendors"`
	Templates      TemplatesConfig      `yaml:"templates"`
	Scheduler      SchedulerConfig      `yaml:"scheduler"`
	RateLimit      RateLimitConfig      `yaml:"rate_limit"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker"`
}

// ServerConfig holds HTTP server configuration for the broker's front-end.
type ServerConfig struct {
	Address            string   `yaml:"address"`
	ReadTimeout         Duration `yaml:"read_timeout"`
	WriteTimeout        Duration `yaml:"write_timeout"`
	IdleTimeout         Duration `yaml:"idle_timeout"`
	CORSAllowedOrigins  []string `yaml:"cors_allowed_origins"`
	RoutePrefix         string   `yaml:"route_prefix"`          // Optional prefix for all routes (e.g., "/api")
	AdminMetricsAPIKey  string   `yaml:"admin_metrics_api_key"` // Optional key to protect /metrics (empty disables)
}

// PostgresConfig holds the persistence gateway's database connection settings.
type PostgresConfig struct {
	URL  string             `yaml:"url"`
	Pool PostgresPoolConfig `yaml:"pool"`
}

// PostgresPoolConfig holds PostgreSQL connection pool settings.
type PostgresPoolConfig struct {
	MaxOpenConns    int      `yaml:"max_open_conns"`    // Maximum number of open connections (default: 25)
	MaxIdleConns    int      `yaml:"max_idle_conns"`    // Maximum number of idle connections (default: 5)
	ConnMaxLifetime Duration `yaml:"conn_max_lifetime"` // Maximum lifetime of connections (default: 5m)
}

// VendorConfig configures a single registered vendor plugin: its upstream
// session (REST host or broker TCP endpoint) and its rate-limit/chunking
// overrides, keyed by vendor name in Config.Vendors.
type VendorConfig struct {
	Scheme           string            `yaml:"scheme"`   // "https", "http", or "tcp" (broker-protocol vendors)
	Host             string            `yaml:"host"`
	Port             int               `yaml:"port"`
	Headers          map[string]string `yaml:"headers"`
	Cookies          map[string]string `yaml:"cookies"`
	Credentials      string            `yaml:"credentials"`       // $dotted.key resolved against env, or literal
	RateLimitPerSec  float64           `yaml:"rate_limit_per_sec"` // 0 with rate_limit_burst also 0 disables rate limiting; 0 with a burst set allows burst calls per second
	RateLimitBurst   int               `yaml:"rate_limit_burst"`
	MaxChunkDays     int               `yaml:"max_chunk_days"` // 0 disables time chunking for this vendor
	ClientID         int               `yaml:"client_id"`      // broker-protocol vendors only (e.g. IBKR)
}

// TemplatesConfig configures where request templates are read from.
type TemplatesConfig struct {
	Dir        string `yaml:"dir"`
	WatchForChanges bool `yaml:"watch_for_changes"`
}

// SchedulerConfig configures the coverage-driven polling daemon.
type SchedulerConfig struct {
	Enabled      bool     `yaml:"enabled"`
	Interval     Duration `yaml:"interval"`      // how often to re-run the coverage diff (default: 1h)
	StartOffset  Duration `yaml:"start_offset"`  // fixed delay before the first cycle (default: 5s)
}

// LoggingConfig holds structured logging configuration.
type LoggingConfig struct {
	Level       string `yaml:"level"`       // debug, info, warn, error (default: info)
	Format      string `yaml:"format"`      // json, console (default: json)
	Environment string `yaml:"environment"` // production, staging, development
}

// RateLimitConfig holds front-end HTTP rate limiting configuration. This is
// distinct from a vendor's getter.RateLimiter, which throttles outbound
// vendor calls rather than inbound broker requests.
type RateLimitConfig struct {
	GlobalEnabled bool     `yaml:"global_enabled"` // Enable global rate limiting
	GlobalLimit   int      `yaml:"global_limit"`   // Requests allowed per global window
	GlobalWindow  Duration `yaml:"global_window"`  // Time window for global limit

	PerIPEnabled bool     `yaml:"per_ip_enabled"` // Enable per-IP rate limiting
	PerIPLimit   int      `yaml:"per_ip_limit"`   // Requests allowed per IP per window
	PerIPWindow  Duration `yaml:"per_ip_window"`  // Time window for per-IP limit
}

// CircuitBreakerConfig holds circuit breaker configuration for vendor upstream
// sessions. Prevents one vendor's outage from starving getters for others.
type CircuitBreakerConfig struct {
	Enabled         bool                            `yaml:"enabled"`          // Enable circuit breakers (default: true)
	Default         BreakerServiceConfig            `yaml:"default"`          // Fallback applied to vendors with no override
	VendorOverrides map[string]BreakerServiceConfig `yaml:"vendor_overrides"` // Keyed by vendor name
}

// BreakerServiceConfig configures a circuit breaker for a specific vendor.
type BreakerServiceConfig struct {
	MaxRequests         uint32   `yaml:"max_requests"`         // Max requests in half-open state (default: 3)
	Interval            Duration `yaml:"interval"`             // Stats reset interval in closed state (default: 60s)
	Timeout             Duration `yaml:"timeout"`              // Open state timeout before half-open (default: 30s)
	ConsecutiveFailures uint32   `yaml:"consecutive_failures"` // Consecutive failures to trip (default: 5)
	FailureRatio        float64  `yaml:"failure_ratio"`        // Failure ratio to trip 0.0-1.0 (default: 0.5)
	MinRequests         uint32   `yaml:"min_requests"`         // Minimum requests before checking ratio (default: 10)
}
