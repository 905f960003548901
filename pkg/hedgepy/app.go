// Package hedgepy wires the broker's components into a runnable
// application: config, logging, metrics, the persistence gateway, the
// vendor registry, the dispatch pipeline, and the HTTP front-end. This is
// the Go analog of the teacher's pkg/cedros app package — the one place
// that imports every internal/* package and assembles them — generalized
// from a payment-processor wiring to a data-broker one.
package hedgepy

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/hedgepy/broker/internal/config"
	"github.com/hedgepy/broker/internal/dbpool"
	"github.com/hedgepy/broker/internal/httpserver"
	"github.com/hedgepy/broker/internal/lifecycle"
	"github.com/hedgepy/broker/internal/logger"
	"github.com/hedgepy/broker/internal/metrics"
	"github.com/hedgepy/broker/internal/pipeline"
	"github.com/hedgepy/broker/internal/storage"
	"github.com/hedgepy/broker/internal/template"
	"github.com/hedgepy/broker/internal/vendor"
)

// App is the fully wired broker: everything cmd/hedgepy-server needs to
// start serving, and everything cmd/hedgepy-schedule needs to compute and
// post a coverage-driven fill schedule.
type App struct {
	Config    *config.Config
	Logger    zerolog.Logger
	Metrics   *metrics.Metrics
	Lifecycle *lifecycle.Manager

	Pool     *dbpool.SharedPool
	Gateway  *storage.Gateway
	Vendors  map[string]*vendor.Vendor
	Breakers *Breakers
	Pipeline *pipeline.Pipeline
	Server   *httpserver.Server
	Templates *template.Store
}

// Build loads configPath, constructs every component, and returns the
// assembled App. This package imports every vendor package it serves
// (vendors.go), so each init() has registered its resource.Class before
// Build runs and — once RegisterVendors runs — vendor.Load has something
// to build.
func Build(ctx context.Context, configPath string) (*App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("hedgepy: loading config: %w", err)
	}

	log := logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Service:     "hedgepy-broker",
		Environment: cfg.Logging.Environment,
	})

	lc := lifecycle.NewManager()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	pool, err := dbpool.NewSharedPool(cfg.Postgres.URL, cfg.Postgres.Pool)
	if err != nil {
		return nil, fmt.Errorf("hedgepy: connecting to postgres: %w", err)
	}
	lc.RegisterFunc("postgres", pool.Close)
	gateway := storage.New(pool, m)

	if err := RegisterVendors(cfg); err != nil {
		return nil, err
	}
	vendors, err := vendor.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("hedgepy: loading vendors: %w", err)
	}

	breakers := NewBreakers(cfg.CircuitBreaker, log)
	DecorateVendors(vendors, cfg.Vendors, breakers)

	pipe := pipeline.New(vendors, m, log)

	templates := template.New(cfg.Templates.Dir, template.NopValidator{})

	server := httpserver.New(cfg, pipe, m, log)

	return &App{
		Config:    cfg,
		Logger:    log,
		Metrics:   m,
		Lifecycle: lc,
		Pool:      pool,
		Gateway:   gateway,
		Vendors:   vendors,
		Breakers:  breakers,
		Pipeline:  pipe,
		Server:    server,
		Templates: templates,
	}, nil
}

// Run starts the pipeline's dispatch loop, every vendor AppRunner (the
// IBKR broker session's reader goroutine), and the HTTP server, blocking
// until ctx is cancelled or the server exits.
func (a *App) Run(ctx context.Context) error {
	go a.Pipeline.Run(ctx)

	runnerErrs := vendor.StartRunners(ctx, a.Vendors)
	go func() {
		for _, errc := range runnerErrs {
			go func(errc <-chan error) {
				if err := <-errc; err != nil {
					a.Logger.Error().Err(err).Msg("hedgepy: vendor runner exited")
				}
			}(errc)
		}
	}()

	serveErr := make(chan error, 1)
	go func() { serveErr <- a.Server.ListenAndServe() }()

	select {
	case <-ctx.Done():
		return a.Server.Shutdown(context.Background())
	case err := <-serveErr:
		return err
	}
}
