package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
)

// handleTermination processes context cancellation signals or interrupt signals from the OS.
func handleTermination(ctx context.Context, cancel context.CancelFunc) {
	// Listen for interrupt signals.
	signals := []os.Signal{os.Interrupt}
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, signals...)

	// Wait for the context to be cancelled or an interrupt signal.
	for {
		select {
		case <-ctx.Done():
			return

		case <-interrupt:
			cancel()
		}
	}
}

func main() {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	logger := log.With().Str("service", "datavis").Logger()

	var cfg Config
	err := loadConfig(&cfg, "")
	if err != nil {
		logger.Error().Msgf("loading config: %v", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go handleTermination(ctx, cancel)

	err = run(ctx, &cfg, defaultEndpoints, &logger, os.Stdout)
	cancel()
	if err != nil {
		logger.Error().Msgf("running %s: %v", cfg.Mode, err)
		os.Exit(1)
	}
}
