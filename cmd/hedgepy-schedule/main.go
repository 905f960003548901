// Command hedgepy-schedule computes the coverage-driven fill schedule from
// the configured templates and actual persisted coverage, then replays it
// against a running hedgepy-server's HTTP front-end once per interval, per
// spec.md §4.6. Run as a separate process/container from hedgepy-server,
// matching the teacher's split between its API process and its one-off
// cmd/tests/* tooling.
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/hedgepy/broker/internal/scheduler"
	"github.com/hedgepy/broker/pkg/hedgepy"

	_ "github.com/hedgepy/broker/internal/vendors/edgar"
	_ "github.com/hedgepy/broker/internal/vendors/fred"
	_ "github.com/hedgepy/broker/internal/vendors/ibkr"
)

func main() {
	configPath := flag.String("config", "configs/local.yaml", "path to config yaml")
	serverURL := flag.String("server", "http://localhost:8080", "hedgepy-server base URL to post fill requests to")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := hedgepy.Build(ctx, *configPath)
	if err != nil {
		log.Fatalf("hedgepy-schedule: %v", err)
	}
	defer app.Lifecycle.Close()

	if !app.Config.Scheduler.Enabled {
		app.Logger.Info().Msg("hedgepy-schedule: scheduler disabled in config, exiting")
		return
	}

	items, err := hedgepy.BuildFillSchedule(ctx, app)
	if err != nil {
		log.Fatalf("hedgepy-schedule: building fill schedule: %v", err)
	}
	app.Logger.Info().Int("requests", len(items)).Msg("hedgepy-schedule: coverage plan computed")

	poster := scheduler.NewHTTPPoster(scheduler.NewDefaultClient(), *serverURL)
	daemon := scheduler.New(0, 24*time.Hour, app.Config.Scheduler.Interval.Duration, items, poster, app.Logger)
	daemon.StartDelay = app.Config.Scheduler.StartOffset.Duration

	if err := daemon.Run(ctx); err != nil && err != context.Canceled {
		app.Logger.Error().Err(err).Msg("hedgepy-schedule: daemon exited")
	}
}
