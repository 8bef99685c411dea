// Package main - Entry point for the chainflux equilibrium server
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"chainflux/api"
	"chainflux/internal/config"
	"chainflux/internal/logging"
)

const version = "1.0.0"

func main() {
	configPath := flag.String("config", "", "Path to config file")
	addr := flag.String("addr", "", "Listen address (overrides config)")
	flag.Parse()

	path := *configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		logging.Fatal("loading config", zap.Error(err))
	}
	config.Set(cfg)

	if err := logging.Initialize(cfg.Logging); err != nil {
		logging.Fatal("initializing logging", zap.Error(err))
	}
	defer logging.Sync()

	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	// Drain in-flight requests on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := api.NewServer(version, cfg)
	if err := server.Serve(ctx); err != nil && err != http.ErrServerClosed {
		logging.Fatal("server failed", zap.Error(err))
	}
}
