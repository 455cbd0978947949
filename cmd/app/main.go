package main

import (
	"cleanbook/config"
	"cleanbook/di"
	"cleanbook/helper"
	"cleanbook/shared/logger"

	"github.com/rs/zerolog/log"
)

//	@title						Cleanbook API
//	@version					1.0
//	@description				Booking, pricing and payments for a home cleaning marketplace.
//	@BasePath					/v1
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
func main() {
	cfg := config.Get()

	logger.InitLogger(cfg)

	logger.SetLogLevel(cfg)

	if cfg.DB.Postgres.AutoMigrate {
		if err := helper.Up(cfg); err != nil {
			log.Fatal().Err(err).Msg("Failed to migrate database")
		}
	}

	http := di.InitializeService()
	http.Serve()
}
