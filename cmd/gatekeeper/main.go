package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Santhosh121805/based.credit/app"
	"github.com/Santhosh121805/based.credit/config"
	"github.com/Santhosh121805/based.credit/logging"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := logging.New(cfg.Log.Level, cfg.Env)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gatekeeper, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to start gatekeeper", slog.Any("error", err))
		os.Exit(1)
	}

	if err := gatekeeper.Run(ctx); err != nil {
		logger.Error("Gatekeeper stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
}
