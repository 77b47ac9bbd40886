package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/genorisk-server/internal/api"
	"github.com/genorisk-server/internal/config"
	"github.com/genorisk-server/internal/domain"
	"github.com/genorisk-server/internal/service"
	"github.com/genorisk-server/internal/store"
)

func main() {
	// Load configuration
	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	cfg := configManager.GetConfig()
	logger := newLogger(cfg.Logging)

	tableStore, err := openStore(cfg.Store)
	if err != nil {
		logger.WithError(err).Fatal("Failed to open table store")
	}
	defer tableStore.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	table, err := loadOrBuildTable(ctx, logger, tableStore, cfg)
	if err != nil {
		logger.WithError(err).Fatal("Failed to prepare lookup table")
	}

	model := service.NewRiskModel(logger)
	lookup, err := service.NewLookupService(logger, table, cfg.Cache.Size)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create lookup service")
	}

	logger.WithFields(logrus.Fields{
		"host":    cfg.Server.Host,
		"port":    cfg.Server.Port,
		"entries": table.Len(),
	}).Info("Starting genorisk server")

	server := api.NewServer(configManager, logger, lookup, model)

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	if err := server.Start(ctx); err != nil {
		logger.WithError(err).Fatal("Server failed")
	}

	logger.Info("Server stopped")
}

// loadOrBuildTable serves the persisted table when one exists and matches
// the configured grid; otherwise it sweeps the grid and persists the
// result before serving.
func loadOrBuildTable(ctx context.Context, logger *logrus.Logger, tableStore domain.TableStore, cfg *domain.Config) (*domain.LookupTable, error) {
	table, err := tableStore.LoadTable(ctx)
	if err != nil {
		return nil, err
	}
	if table != nil && table.Grid() == cfg.Grid {
		logger.WithField("entries", table.Len()).Info("Loaded persisted lookup table")
		return table, nil
	}
	if table != nil {
		logger.Info("Persisted table grid differs from configuration, rebuilding")
	}

	builder := service.NewTableBuilder(logger, service.NewRiskModel(logger), cfg.Builder.Workers)
	table, err = builder.Build(ctx, cfg.Grid)
	if err != nil {
		return nil, err
	}
	if err := tableStore.SaveTable(ctx, table); err != nil {
		return nil, err
	}
	return table, nil
}

func openStore(cfg domain.StoreConfig) (domain.TableStore, error) {
	if cfg.Driver == "postgres" {
		return store.NewPostgresStoreFromURL(cfg.DatabaseURL)
	}
	return store.NewSQLiteStore(cfg.Path)
}

func newLogger(cfg domain.LoggingConfig) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(strings.ToLower(cfg.Level))
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
