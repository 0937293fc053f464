package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/michaelwaves/astrosmurf/internal/app"
	"github.com/michaelwaves/astrosmurf/internal/config"
	"github.com/michaelwaves/astrosmurf/internal/infrastructure/storage"
	"github.com/michaelwaves/astrosmurf/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)

	db, err := storage.Open(cfg.Database.DSN)
	if err != nil {
		logger.Error("database unavailable", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	application := app.New(ctx, cfg, db, logger)

	if err := application.Run(ctx); err != nil {
		logger.Error("application stopped", "error", err)
		os.Exit(1)
	}
}
