// Command relayd bridges one upstream event channel to many local
// consumers. It holds a single resilient subscription against the
// provider and fans every event out over server-sent event streams.
package main

import (
	"context"
	"os"

	"github.com/relaykit/relayd/bootstrap"
	"github.com/relaykit/relayd/config"
	"github.com/relaykit/relayd/logger"
	"github.com/relaykit/relayd/observability"
	"github.com/relaykit/relayd/relay"
	"github.com/relaykit/relayd/server"
	"github.com/relaykit/relayd/upstream"
)

func main() {
	var cfg Config
	if err := config.Load("relayd", &cfg); err != nil {
		logger.Error("Failed to load configuration", logger.ErrorFields("startup", err))
		os.Exit(1)
	}

	app, err := bootstrap.NewApp(&cfg)
	if err != nil {
		logger.Error("Invalid configuration", logger.ErrorFields("startup", err))
		os.Exit(1)
	}

	hub := relay.NewComponent(cfg.Relay.Hub)
	sub := upstream.NewComponent(cfg.Upstream, hub.Hub())
	telemetry := observability.NewComponent(cfg.Telemetry)

	srv := server.New(cfg.Server, app.Logger)
	srv.ApplyMiddleware()
	srv.RegisterDefaultEndpoints(cfg.Name, app.Components.HealthAll)
	srv.GinEngine().GET("/stream", relay.AttachHandler(hub.Hub(), cfg.Relay.Stream))

	// Start order: telemetry first, then the hub so it can accept events,
	// then the subscription that feeds it, then the consumer-facing
	// server. Shutdown runs in reverse, so consumers drop before the
	// upstream cursor stops advancing.
	if err := app.RegisterComponent(telemetry); err != nil {
		logger.Error("Component registration failed", logger.ErrorFields("startup", err))
		os.Exit(1)
	}
	if err := app.RegisterComponent(hub); err != nil {
		logger.Error("Component registration failed", logger.ErrorFields("startup", err))
		os.Exit(1)
	}
	if err := app.RegisterComponent(sub); err != nil {
		logger.Error("Component registration failed", logger.ErrorFields("startup", err))
		os.Exit(1)
	}
	if err := app.RegisterComponent(server.NewComponent(srv)); err != nil {
		logger.Error("Component registration failed", logger.ErrorFields("startup", err))
		os.Exit(1)
	}

	if err := app.Run(context.Background()); err != nil {
		logger.Error("Application error", logger.ErrorFields("run", err))
		os.Exit(1)
	}
}
