package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"cleanbook/config"
	"cleanbook/di"
	"cleanbook/shared/logger"

	"github.com/rs/zerolog/log"
)

func main() {
	cfg := config.Get()

	logger.InitLogger(cfg)

	logger.SetLogLevel(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := di.InitializeWorker().Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("Worker stopped with error.")
	}

	log.Info().Msg("Worker stopped.")
}
