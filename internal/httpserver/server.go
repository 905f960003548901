// Package httpserver implements the broker's HTTP front-end: the chi
// router the teacher's paywall API ran on, adapted to spec.md §4.8's three
// routes (POST /, GET / with corr_id, GET / without corr_id) instead of the
// paywall's quote/verify/checkout surface.
package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/hedgepy/broker/internal/config"
	apierrors "github.com/hedgepy/broker/internal/errors"
	"github.com/hedgepy/broker/internal/logger"
	"github.com/hedgepy/broker/internal/metrics"
	"github.com/hedgepy/broker/internal/pipeline"
	"github.com/hedgepy/broker/internal/ratelimit"
	"github.com/hedgepy/broker/internal/resource"
	"github.com/hedgepy/broker/internal/wire"
)

// Server wires the router, middleware, and the pipeline it dispatches into.
type Server struct {
	handlers
	httpServer *http.Server
}

type handlers struct {
	cfg     *config.Config
	pipe    *pipeline.Pipeline
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// New builds the HTTP server with its configured router.
func New(cfg *config.Config, pipe *pipeline.Pipeline, metricsCollector *metrics.Metrics, appLogger zerolog.Logger) *Server {
	router := chi.NewRouter()
	ConfigureRouter(router, cfg, pipe, metricsCollector, appLogger)

	return &Server{
		handlers: handlers{cfg: cfg, pipe: pipe, metrics: metricsCollector, logger: appLogger},
		httpServer: &http.Server{
			Addr:         cfg.Server.Address,
			ReadTimeout:  cfg.Server.ReadTimeout.Duration,
			WriteTimeout: cfg.Server.WriteTimeout.Duration,
			IdleTimeout:  cfg.Server.IdleTimeout.Duration,
			Handler:      router,
		},
	}
}

// ConfigureRouter attaches the broker's routes to an existing router.
func ConfigureRouter(router chi.Router, cfg *config.Config, pipe *pipeline.Pipeline, metricsCollector *metrics.Metrics, appLogger zerolog.Logger) {
	if router == nil {
		return
	}

	h := handlers{cfg: cfg, pipe: pipe, metrics: metricsCollector, logger: appLogger}

	if len(cfg.Server.CORSAllowedOrigins) > 0 {
		router.Use(cors.New(cors.Options{
			AllowedOrigins:   cfg.Server.CORSAllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"*"},
			AllowCredentials: false,
			MaxAge:           300,
		}).Handler)
	}

	router.Use(securityHeadersMiddleware)
	router.Use(logger.Middleware(appLogger))
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)

	rateLimitCfg := ratelimit.Config{
		GlobalEnabled: cfg.RateLimit.GlobalEnabled,
		GlobalLimit:   cfg.RateLimit.GlobalLimit,
		GlobalWindow:  cfg.RateLimit.GlobalWindow.Duration,
		GlobalBurst:   cfg.RateLimit.GlobalLimit / 10,
		PerIPEnabled:  cfg.RateLimit.PerIPEnabled,
		PerIPLimit:    cfg.RateLimit.PerIPLimit,
		PerIPWindow:   cfg.RateLimit.PerIPWindow.Duration,
		PerIPBurst:    cfg.RateLimit.PerIPLimit / 6,
		Metrics:       metricsCollector,
	}
	router.Use(ratelimit.GlobalLimiter(rateLimitCfg))
	router.Use(ratelimit.IPLimiter(rateLimitCfg))

	prefix := cfg.Server.RoutePrefix

	router.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(5 * time.Second))
		r.With(adminMetricsAuth(cfg.Server.AdminMetricsAPIKey)).Handle(prefix+"/metrics", promhttp.Handler())
	})

	router.Post("/", h.postRequest)
	router.Get("/", h.getResponse)
	router.MethodNotAllowed(methodNotAllowed)
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
}
