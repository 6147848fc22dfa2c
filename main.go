package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"sjsage522/carsales/commands"
	"sjsage522/carsales/config"
	"sjsage522/carsales/logger"
	apperrors "sjsage522/carsales/pkg/errors"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	// Load and validate configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Debug().
		Str("environment", cfg.Environment).
		Str("data_dir", cfg.DataDir).
		Msg("Starting carsales")

	// Cancel in-flight requests on shutdown signals
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := commands.Execute(ctx, cfg, os.Args[1:], nil); err != nil {
		log.WithError(err).Error().
			Str("error_type", string(apperrors.TypeOf(err))).
			Bool("retryable", apperrors.IsRetryable(err)).
			Msg("Update failed")
		cancel()
		os.Exit(1)
	}
}
