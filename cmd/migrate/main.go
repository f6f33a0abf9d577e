package main

import (
	"report_bridge/internal/config"
	"report_bridge/internal/database"
	"report_bridge/internal/di"

	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load config")
	}
	logger := di.NewLogger(cfg)

	db, err := database.NewDatabase(database.Config{
		Driver: cfg.DB.Driver,
		DSN:    cfg.DB.DSN,
		Debug:  cfg.Server.Debug,
	})
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}

	// Run migrations
	if err := database.AutoMigrate(db, logger); err != nil {
		logger.WithError(err).Fatal("Failed to run migrations")
	}

	logger.Info("Migrations completed successfully")
}
