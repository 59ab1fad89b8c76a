package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lessup/internal/assets"
	"lessup/internal/catalog"
	"lessup/internal/config"
	"lessup/internal/ingest"
	"lessup/internal/metadata"
	"lessup/internal/server"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	configPath := "./config.toml"

	// Initialize basic logger for startup
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	// Load optional .env overrides before reading configuration
	if err := godotenv.Load(".env"); err != nil {
		logger.Debug("No .env file found, using config file values")
	}

	// Load configuration
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.WithError(err).Fatal("Error loading configuration")
	}

	// Environment overrides for containerized deployments
	if port := os.Getenv("LESSUP_PORT"); port != "" {
		cfg.Server.Port = port
	}
	if host := os.Getenv("LESSUP_HOST"); host != "" {
		cfg.Server.Host = host
	}

	configureLogger(logger, cfg)

	// Prepare asset storage and default assets before accepting traffic
	assetStore := assets.NewStore(cfg.Storage.UploadDir, logger)
	if err := assetStore.EnsureDefaults(cfg.Upload.DefaultCoverURL); err != nil {
		logger.WithError(err).Fatal("Error preparing asset storage")
	}

	catalogStore := catalog.NewStore(cfg.Storage.CatalogPath, logger)
	if _, err := catalogStore.LoadAll(); err != nil {
		logger.WithError(err).Fatal("Error initializing catalog")
	}

	extractor := metadata.NewExtractor(logger)
	pipeline := ingest.New(assetStore, extractor, catalogStore, logger)

	srv := server.New(cfg, assetStore, catalogStore, pipeline, logger)

	// Handle graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	// Start the server in a goroutine
	go func() {
		if err := srv.Start(); err != nil {
			logger.WithError(err).Fatal("Server failed")
		}
	}()

	// Wait for shutdown signal
	<-c

	logger.Info("Received shutdown signal")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Shutdown error")
	}
}

// configureLogger applies the configured level and format.
func configureLogger(logger *logrus.Logger, cfg *config.Config) {
	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Logging.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
}
