package config

import (
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads configuration from a YAML file and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		if err := cfg.parseFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.finalize(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Address:      ":8080",
			ReadTimeout:  Duration{Duration: 15 * time.Second},
			WriteTimeout: Duration{Duration: 15 * time.Second},
			IdleTimeout:  Duration{Duration: 60 * time.Second},
		},
		Postgres: PostgresConfig{
			Pool: PostgresPoolConfig{
				MaxOpenConns:    25,
				MaxIdleConns:    5,
				ConnMaxLifetime: Duration{Duration: 5 * time.Minute},
			},
		},
		Vendors: map[string]VendorConfig{},
		Templates: TemplatesConfig{
			Dir:             "./templates",
			WatchForChanges: false,
		},
		Scheduler: SchedulerConfig{
			Enabled:     true,
			Interval:    Duration{Duration: time.Hour},
			StartOffset: Duration{Duration: 5 * time.Second},
		},
		Logging: LoggingConfig{
			Level:       "info",
			Format:      "json",
			Environment: "production",
		},
		RateLimit: RateLimitConfig{
			GlobalEnabled: true,
			GlobalLimit:   1000,
			GlobalWindow:  Duration{Duration: time.Minute},
			PerIPEnabled:  true,
			PerIPLimit:    120,
			PerIPWindow:   Duration{Duration: time.Minute},
		},
		CircuitBreaker: CircuitBreakerConfig{
			Enabled: true,
			Default: BreakerServiceConfig{
				MaxRequests:         3,
				Interval:            Duration{Duration: 60 * time.Second},
				Timeout:             Duration{Duration: 30 * time.Second},
				ConsecutiveFailures: 5,
				FailureRatio:        0.5,
				MinRequests:         10,
			},
			VendorOverrides: map[string]BreakerServiceConfig{},
		},
	}
}

// parseFile reads and unmarshals a YAML configuration file.
func (c *Config) parseFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config yaml: %w", err)
	}
	return nil
}
