// Command hedgepy-server runs the broker: the HTTP front-end, the
// dispatch pipeline, and every configured vendor's session (including the
// IBKR broker connection's background reader goroutine), until terminated.
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"github.com/hedgepy/broker/pkg/hedgepy"

	// Blank-imported for their init()-time resource.Register and
	// vendor-plugin registration side effects, per SPEC_FULL.md §4.1 —
	// vendor.Load only sees a plugin this binary actually imports.
	_ "github.com/hedgepy/broker/internal/vendors/edgar"
	_ "github.com/hedgepy/broker/internal/vendors/fred"
	_ "github.com/hedgepy/broker/internal/vendors/ibkr"
)

func main() {
	configPath := flag.String("config", "configs/local.yaml", "path to config yaml")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := hedgepy.Build(ctx, *configPath)
	if err != nil {
		log.Fatalf("hedgepy-server: %v", err)
	}
	defer app.Lifecycle.Close()

	app.Logger.Info().Str("address", app.Config.Server.Address).Msg("hedgepy-server: starting")
	if err := app.Run(ctx); err != nil {
		app.Logger.Error().Err(err).Msg("hedgepy-server: exited")
	}
}
