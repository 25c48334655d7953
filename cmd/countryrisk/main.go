package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"countryrisk/internal/app"
	"countryrisk/internal/config"
	"countryrisk/internal/logging"
)

func main() {
	once := flag.Bool("once", false, "run a single scoring pass and exit")
	flag.Parse()

	_ = godotenv.Load()

	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *once {
		application.RunOnce(ctx)
		if err := application.Shutdown(); err != nil {
			logger.Error("shutdown failed", "error", err)
			os.Exit(1)
		}
		return
	}

	if err := application.Start(ctx); err != nil {
		logger.Error("application stopped", "error", err)
		os.Exit(1)
	}
}
