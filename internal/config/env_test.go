package config

import (
	"os"
	"testing"
	"time"
)

func TestEnvOverrides_ServerConfig(t *testing.T) {
	defer os.Clearenv()

	tests := []struct {
		name      string
		envVars   map[string]string
		checkFunc func(*testing.T, *Config)
	}{
		{
			name: "HEDGEPY_SERVER_ADDRESS overrides default",
			envVars: map[string]string{
				"HEDGEPY_SERVER_ADDRESS": ":3000",
			},
			checkFunc: func(t *testing.T, cfg *Config) {
				if cfg.Server.Address != ":3000" {
					t.Errorf("Expected :3000, got %s", cfg.Server.Address)
				}
			},
		},
		{
			name: "HEDGEPY_ROUTE_PREFIX override normalizes slashes",
			envVars: map[string]string{
				"HEDGEPY_ROUTE_PREFIX": "api/",
			},
			checkFunc: func(t *testing.T, cfg *Config) {
				if cfg.Server.RoutePrefix != "/api" {
					t.Errorf("Expected /api, got %s", cfg.Server.RoutePrefix)
				}
			},
		},
		{
			name: "HEDGEPY_SCHEDULER_INTERVAL override",
			envVars: map[string]string{
				"HEDGEPY_SCHEDULER_INTERVAL": "30m",
			},
			checkFunc: func(t *testing.T, cfg *Config) {
				if cfg.Scheduler.Interval.Duration != 30*time.Minute {
					t.Errorf("Expected 30m, got %v", cfg.Scheduler.Interval.Duration)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			for k, v := range tt.envVars {
				os.Setenv(k, v)
			}
			cfg := defaultConfig()
			cfg.applyEnvOverrides()
			tt.checkFunc(t, cfg)
		})
	}
}

func TestEnvOverrides_VendorFields(t *testing.T) {
	defer os.Clearenv()
	os.Clearenv()

	cfg := defaultConfig()
	cfg.Vendors["fred"] = VendorConfig{Scheme: "https", Host: "old.example.com"}

	os.Setenv("HEDGEPY_VENDOR_FRED_HOST", "api.stlouisfed.org")
	os.Setenv("HEDGEPY_VENDOR_FRED_CREDENTIALS", "literal-key")
	cfg.applyEnvOverrides()

	if cfg.Vendors["fred"].Host != "api.stlouisfed.org" {
		t.Errorf("expected overridden host, got %q", cfg.Vendors["fred"].Host)
	}
	if cfg.Vendors["fred"].Credentials != "literal-key" {
		t.Errorf("expected overridden credentials, got %q", cfg.Vendors["fred"].Credentials)
	}
}

func TestEnvOverrides_UnknownVendorIgnored(t *testing.T) {
	defer os.Clearenv()
	os.Clearenv()

	cfg := defaultConfig()
	os.Setenv("HEDGEPY_VENDOR_GHOST_HOST", "nowhere.example.com")
	cfg.applyEnvOverrides()

	if _, ok := cfg.Vendors["ghost"]; ok {
		t.Error("expected env override not to register a new vendor")
	}
}

func TestSetBoolIfEnv(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"1", true},
		{"true", true},
		{"TRUE", true},
		{"0", false},
		{"false", false},
	}
	for _, tt := range tests {
		var target bool
		os.Setenv("HEDGEPY_TEST_BOOL", tt.value)
		setBoolIfEnv(&target, "HEDGEPY_TEST_BOOL")
		if target != tt.want {
			t.Errorf("setBoolIfEnv(%q) = %v, want %v", tt.value, target, tt.want)
		}
		os.Unsetenv("HEDGEPY_TEST_BOOL")
	}
}
