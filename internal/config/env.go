package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// applyEnvOverrides applies environment variable overrides to the config.
// Environment variables take precedence over YAML configuration.
// All env vars use HEDGEPY_ prefix for namespace isolation.
func (c *Config) applyEnvOverrides() {
	setIfEnv(&c.Server.Address, "HEDGEPY_SERVER_ADDRESS")
	setIfEnv(&c.Server.RoutePrefix, "HEDGEPY_ROUTE_PREFIX")
	setIfEnv(&c.Server.AdminMetricsAPIKey, "HEDGEPY_ADMIN_METRICS_API_KEY")
	if c.Server.RoutePrefix != "" {
		c.Server.RoutePrefix = normalizeRoutePrefix(c.Server.RoutePrefix)
	}

	setIfEnv(&c.Postgres.URL, "HEDGEPY_POSTGRES_URL")

	setIfEnv(&c.Templates.Dir, "HEDGEPY_TEMPLATES_DIR")
	setBoolIfEnv(&c.Templates.WatchForChanges, "HEDGEPY_TEMPLATES_WATCH")

	setBoolIfEnv(&c.Scheduler.Enabled, "HEDGEPY_SCHEDULER_ENABLED")
	setDurationIfEnv(&c.Scheduler.Interval, "HEDGEPY_SCHEDULER_INTERVAL")

	setIfEnv(&c.Logging.Level, "HEDGEPY_LOG_LEVEL")
	setIfEnv(&c.Logging.Format, "HEDGEPY_LOG_FORMAT")
	setIfEnv(&c.Logging.Environment, "HEDGEPY_ENVIRONMENT")

	// Per-vendor host/credential overrides: HEDGEPY_VENDOR_<NAME>_HOST,
	// HEDGEPY_VENDOR_<NAME>_CREDENTIALS, etc. Vendors themselves must already
	// exist in c.Vendors (from YAML) — env overrides fields, it does not
	// register new vendors.
	for _, env := range os.Environ() {
		if !strings.HasPrefix(env, "HEDGEPY_VENDOR_") {
			continue
		}
		parts := strings.SplitN(env, "=", 2)
		if len(parts) != 2 {
			continue
		}
		rest := strings.TrimPrefix(parts[0], "HEDGEPY_VENDOR_")
		fieldSep := strings.LastIndex(rest, "_")
		if fieldSep < 0 {
			continue
		}
		name := strings.ToLower(rest[:fieldSep])
		field := rest[fieldSep+1:]
		vendor, ok := c.Vendors[name]
		if !ok {
			continue
		}
		switch field {
		case "HOST":
			vendor.Host = parts[1]
		case "PORT":
			if port, err := strconv.Atoi(parts[1]); err == nil {
				vendor.Port = port
			}
		case "CREDENTIALS":
			vendor.Credentials = parts[1]
		case "SCHEME":
			vendor.Scheme = parts[1]
		}
		c.Vendors[name] = vendor
	}
}

// setIfEnv sets a string pointer to the environment variable value if it exists.
func setIfEnv(target *string, key string) {
	if val := os.Getenv(key); val != "" {
		*target = val
	}
}

// setBoolIfEnv sets a boolean pointer from an environment variable.
// Accepts "1", "true", "TRUE", "True" as true values.
func setBoolIfEnv(target *bool, key string) {
	if v := os.Getenv(key); v != "" {
		*target = v == "1" || strings.EqualFold(v, "true")
	}
}

// setDurationIfEnv sets a Duration pointer from an environment variable.
// Uses time.ParseDuration to parse values like "5m", "120s", "1h30m".
func setDurationIfEnv(target *Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if dur, err := time.ParseDuration(v); err == nil {
			*target = Duration{Duration: dur}
		}
	}
}

// normalizeRoutePrefix ensures the prefix starts with / and doesn't end with /.
// Examples: "api" -> "/api", "/api/" -> "/api"
func normalizeRoutePrefix(prefix string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return ""
	}
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	prefix = strings.TrimSuffix(prefix, "/")
	return prefix
}
