// Package circuitbreaker isolates each vendor's upstream session behind its
// own breaker so one vendor's outage cannot starve getters for any other
// vendor sharing the pipeline's single-flight slots.
package circuitbreaker

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/hedgepy/broker/internal/config"
)

// Manager owns one gobreaker.CircuitBreaker per vendor, created lazily from
// a shared BreakerConfig unless a vendor-specific override is registered.
type Manager struct {
	enabled   bool
	fallback  BreakerConfig
	overrides map[string]BreakerConfig
	breakers  map[string]*gobreaker.CircuitBreaker
	logger    zerolog.Logger
}

// BreakerConfig configures a single circuit breaker.
type BreakerConfig struct {
	MaxRequests         uint32
	Interval            time.Duration
	Timeout             time.Duration
	ConsecutiveFailures uint32
	FailureRatio        float64
	MinRequests         uint32
}

// NewManagerFromConfig builds a Manager from the application config's
// circuit-breaker section, with per-vendor overrides keyed by vendor name.
func NewManagerFromConfig(cfg config.CircuitBreakerConfig, logger zerolog.Logger) *Manager {
	overrides := make(map[string]BreakerConfig, len(cfg.VendorOverrides))
	for vendor, bc := range cfg.VendorOverrides {
		overrides[vendor] = toBreakerConfig(bc)
	}
	return &Manager{
		enabled:   cfg.Enabled,
		fallback:  toBreakerConfig(cfg.Default),
		overrides: overrides,
		breakers:  make(map[string]*gobreaker.CircuitBreaker),
		logger:    logger,
	}
}

func toBreakerConfig(cfg config.BreakerServiceConfig) BreakerConfig {
	return BreakerConfig{
		MaxRequests:         cfg.MaxRequests,
		Interval:            cfg.Interval.Duration,
		Timeout:             cfg.Timeout.Duration,
		ConsecutiveFailures: cfg.ConsecutiveFailures,
		FailureRatio:        cfg.FailureRatio,
		MinRequests:         cfg.MinRequests,
	}
}

// Execute wraps a vendor getter invocation with circuit breaker protection,
// creating the vendor's breaker on first use.
func (m *Manager) Execute(vendor string, fn func() (interface{}, error)) (interface{}, error) {
	if !m.enabled {
		return fn()
	}
	return m.breakerFor(vendor).Execute(fn)
}

// State reports the current state of a vendor's breaker.
func (m *Manager) State(vendor string) string {
	if !m.enabled {
		return "disabled"
	}
	return m.breakerFor(vendor).State().String()
}

func (m *Manager) breakerFor(vendor string) *gobreaker.CircuitBreaker {
	if b, ok := m.breakers[vendor]; ok {
		return b
	}
	cfg := m.fallback
	if override, ok := m.overrides[vendor]; ok {
		cfg = override
	}
	b := gobreaker.NewCircuitBreaker(toGobreakerSettings(vendor, cfg, m.logger))
	m.breakers[vendor] = b
	return b
}

func toGobreakerSettings(vendor string, cfg BreakerConfig, logger zerolog.Logger) gobreaker.Settings {
	return gobreaker.Settings{
		Name:        vendor,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if cfg.ConsecutiveFailures > 0 && counts.ConsecutiveFailures >= cfg.ConsecutiveFailures {
				return true
			}
			if cfg.FailureRatio > 0 && cfg.MinRequests > 0 && counts.Requests >= cfg.MinRequests {
				if float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRatio {
					return true
				}
			}
			return false
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn().
				Str("vendor", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuitbreaker.state_change")
		},
	}
}

// DefaultBreakerConfig returns sensible defaults for a vendor breaker.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:         3,
		Interval:            60 * time.Second,
		Timeout:             30 * time.Second,
		ConsecutiveFailures: 5,
		FailureRatio:        0.5,
		MinRequests:         10,
	}
}
