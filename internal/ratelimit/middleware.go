package ratelimit

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hedgepy/broker/internal/metrics"
	"github.com/go-chi/httprate"
)

// Config holds front-end HTTP rate limiting configuration. This throttles
// inbound broker requests; it is distinct from a vendor's getter.RateLimiter,
// which throttles outbound calls to that vendor's upstream.
type Config struct {
	GlobalEnabled bool
	GlobalLimit   int           // requests per window
	GlobalWindow  time.Duration // time window
	GlobalBurst   int           // burst capacity; not read by the limiters, which allow GlobalLimit per window

	PerIPEnabled bool
	PerIPLimit   int
	PerIPWindow  time.Duration
	PerIPBurst   int // not read by the limiters, which allow PerIPLimit per window

	// Metrics collector (optional)
	Metrics *metrics.Metrics
}

// rateLimitResponse represents the JSON error response for rate limit exceeded.
type rateLimitResponse struct {
	Error             string `json:"error"`
	Message           string `json:"message"`
	RetryAfterSeconds int    `json:"retry_after_seconds"`
}

// DefaultConfig returns sensible default rate limits.
// These are generous limits designed to stop obvious spam while not restricting legitimate use.
func DefaultConfig() Config {
	return Config{
		// Global: 1000 req/min (16.6 req/sec) - prevents DoS
		GlobalEnabled: true,
		GlobalLimit:   1000,
		GlobalWindow:  1 * time.Minute,
		GlobalBurst:   100,

		// Per-IP: 120 req/min (2 req/sec avg)
		PerIPEnabled: true,
		PerIPLimit:   120,
		PerIPWindow:  1 * time.Minute,
		PerIPBurst:   20,
	}
}

// createRateLimitHandler creates a standardized rate limit handler function.
// This eliminates duplication across global and per-IP limiters.
func createRateLimitHandler(
	limitType string,
	windowSeconds int,
	extractIdentifier func(*http.Request) string,
	metricsCollector *metrics.Metrics,
) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		identifier := "all"
		if extractIdentifier != nil {
			if id := extractIdentifier(r); id != "" {
				identifier = id
			}
		}

		if metricsCollector != nil {
			metricsCollector.ObserveRateLimit(limitType, identifier)
		}

		var message string
		switch limitType {
		case "global":
			message = "Global rate limit exceeded. Please try again later."
		case "per_ip":
			message = "IP rate limit exceeded. Please try again later."
		default:
			message = "Rate limit exceeded. Please try again later."
		}

		response := rateLimitResponse{
			Error:             "rate_limit_exceeded",
			Message:           message,
			RetryAfterSeconds: windowSeconds,
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Retry-After", fmt.Sprintf("%d", windowSeconds))
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(response)
	}
}

// GlobalLimiter creates a global rate limiter middleware, applied across all
// requests regardless of source.
func GlobalLimiter(cfg Config) func(http.Handler) http.Handler {
	if !cfg.GlobalEnabled {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return httprate.Limit(
		cfg.GlobalLimit,
		cfg.GlobalWindow,
		httprate.WithLimitHandler(
			createRateLimitHandler(
				"global",
				int(cfg.GlobalWindow.Seconds()),
				nil,
				cfg.Metrics,
			),
		),
	)
}

// IPLimiter creates a per-IP rate limiter middleware.
func IPLimiter(cfg Config) func(http.Handler) http.Handler {
	if !cfg.PerIPEnabled {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return httprate.Limit(
		cfg.PerIPLimit,
		cfg.PerIPWindow,
		httprate.WithKeyByIP(),
		httprate.WithLimitHandler(
			createRateLimitHandler(
				"per_ip",
				int(cfg.PerIPWindow.Seconds()),
				func(r *http.Request) string { return r.RemoteAddr },
				cfg.Metrics,
			),
		),
	)
}
