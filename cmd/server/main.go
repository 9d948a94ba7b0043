package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/motomind/vin-decoder-service/internal/api"
	"github.com/motomind/vin-decoder-service/internal/config"
	"github.com/motomind/vin-decoder-service/internal/database"
	"github.com/motomind/vin-decoder-service/internal/domain"
	"github.com/motomind/vin-decoder-service/internal/repository"
	"github.com/motomind/vin-decoder-service/internal/service"
	"github.com/motomind/vin-decoder-service/pkg/external"
)

func main() {
	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	cfg := configManager.GetConfig()
	logger := newLogger(cfg.Logging)

	logger.WithFields(logrus.Fields{
		"host":   cfg.Server.Host,
		"port":   cfg.Server.Port,
		"driver": cfg.Database.Driver,
	}).Info("Starting VIN decoder service")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := buildStore(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize decode cache store")
	}
	defer store.Close()

	// The Redis hot tier is optional; without it the resilient client
	// still provides circuit breaking.
	var cacheClient *external.CacheClient
	if cfg.Cache.Enabled {
		cacheClient, err = external.NewCacheClient(cfg.Cache)
		if err != nil {
			logger.WithError(err).Warn("Redis unavailable, continuing without hot tier")
		}
	}

	vehicleClient := external.NewResilientVehicleClient(cfg.VPIC, cacheClient, logger)
	defer vehicleClient.Close()

	var insights domain.InsightGenerator
	if cfg.Insight.APIKey != "" {
		insightClient, err := external.NewInsightClient(cfg.Insight, logger)
		if err != nil {
			logger.WithError(err).Warn("Insight client unavailable, estimates will be heuristic only")
		} else {
			insights = insightClient
		}
	}

	decoder := service.NewDecoderService(vehicleClient, cfg.Pipeline.StrategyTimeout, logger)
	enricher := service.NewEnrichmentService(insights, cfg.Insight.Timeout, logger)

	pipeline, err := service.NewPipeline(store, decoder, enricher, cfg.Cache.MemorySize, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to build decode pipeline")
	}

	server := api.NewServer(configManager, pipeline, vehicleClient, logger)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, gracefully shutting down")
		cancel()
	}()

	if err := server.Start(ctx); err != nil {
		logger.WithError(err).Fatal("Server failed")
	}

	logger.Info("Server stopped")
}

// buildStore selects the durable cache backend from configuration.
func buildStore(ctx context.Context, cfg *domain.Config, logger *logrus.Logger) (domain.CacheStore, error) {
	if cfg.Database.Driver == "sqlite" {
		return repository.NewSQLiteStore(cfg.Database.SQLitePath)
	}

	dbConfig := database.ConfigFromDomain(cfg.Database)

	db, err := database.NewConnection(ctx, dbConfig, logger)
	if err != nil {
		return nil, err
	}

	migrations, err := database.NewMigrationRunner(dbConfig.URL(), cfg.Database.MigrationsPath, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	defer migrations.Close()

	if err := migrations.Up(); err != nil {
		db.Close()
		return nil, err
	}

	return repository.NewVehicleRepository(db.Pool, logger), nil
}

func newLogger(cfg domain.LoggingConfig) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return logger
}
