package config

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// finalize applies defaults, resolves $dotted.key credential references, and
// validates the configuration.
func (c *Config) finalize() error {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Logging.Environment == "" {
		c.Logging.Environment = "production"
	}
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}
	if c.Scheduler.Interval.Duration <= 0 {
		c.Scheduler.Interval = Duration{Duration: time.Hour}
	}
	if c.Scheduler.StartOffset.Duration <= 0 {
		c.Scheduler.StartOffset = Duration{Duration: 5 * time.Second}
	}
	if c.Templates.Dir == "" {
		c.Templates.Dir = "./templates"
	}
	if c.CircuitBreaker.VendorOverrides == nil {
		c.CircuitBreaker.VendorOverrides = map[string]BreakerServiceConfig{}
	}

	if err := c.resolveCredentials(); err != nil {
		return err
	}

	return c.validate()
}

// resolveCredentials resolves each vendor's Credentials field when it takes
// the form "$dotted.key": the dotted path is looked up in the process
// environment (after loading a .env file, if present) as a single
// underscore-joined, upper-cased key. "$fred.api_key" resolves to the
// FRED_API_KEY environment variable. Credentials not starting with "$" are
// used as literal values.
func (c *Config) resolveCredentials() error {
	_ = godotenv.Load() // optional; absence of .env is not an error

	for name, vendor := range c.Vendors {
		if !strings.HasPrefix(vendor.Credentials, "$") {
			continue
		}
		dotted := strings.TrimPrefix(vendor.Credentials, "$")
		envKey := strings.ToUpper(strings.ReplaceAll(dotted, ".", "_"))
		val := os.Getenv(envKey)
		if val == "" {
			return fmt.Errorf("vendors.%s.credentials references %q but %s is unset", name, vendor.Credentials, envKey)
		}
		vendor.Credentials = val
		c.Vendors[name] = vendor
	}
	return nil
}

// validate checks that required configuration fields are set correctly.
func (c *Config) validate() error {
	var errs []string

	if c.Postgres.URL == "" {
		errs = append(errs, "postgres.url is required")
	}
	if len(c.Vendors) == 0 {
		errs = append(errs, "at least one entry under vendors is required")
	}
	for name, vendor := range c.Vendors {
		if vendor.Host == "" {
			errs = append(errs, fmt.Sprintf("vendors.%s.host is required", name))
		}
		switch vendor.Scheme {
		case "https", "http", "tcp":
		case "":
			errs = append(errs, fmt.Sprintf("vendors.%s.scheme is required (https, http, or tcp)", name))
		default:
			errs = append(errs, fmt.Sprintf("vendors.%s.scheme %q must be https, http, or tcp", name, vendor.Scheme))
		}
		if vendor.RateLimitPerSec < 0 {
			errs = append(errs, fmt.Sprintf("vendors.%s.rate_limit_per_sec must not be negative", name))
		}
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// ApplyPostgresPoolSettings applies connection pool settings to a database connection.
// If pool config is not specified, applies sensible defaults.
func ApplyPostgresPoolSettings(db *sql.DB, pool PostgresPoolConfig) {
	maxOpen := pool.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 25
	}

	maxIdle := pool.MaxIdleConns
	if maxIdle <= 0 {
		maxIdle = 5
	}
	if maxIdle > maxOpen {
		maxIdle = maxOpen
	}

	maxLifetime := pool.ConnMaxLifetime.Duration
	if maxLifetime <= 0 {
		maxLifetime = 5 * time.Minute
	}

	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(maxLifetime)
}
