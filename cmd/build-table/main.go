// Command build-table runs the grid sweep offline and persists the
// resulting inverse lookup table, optionally writing a JSON export.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/genorisk-server/internal/config"
	"github.com/genorisk-server/internal/domain"
	"github.com/genorisk-server/internal/service"
	"github.com/genorisk-server/internal/store"
)

func main() {
	exportPath := flag.String("export", "", "also write the table as JSON to this path")
	flag.Parse()

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

	ctx := context.Background()
	builder := service.NewTableBuilder(logger, service.NewRiskModel(logger), cfg.Builder.Workers)

	table, err := builder.Build(ctx, cfg.Grid)
	if err != nil {
		logger.WithError(err).Fatal("Grid sweep failed")
	}

	if err := tableStore.SaveTable(ctx, table); err != nil {
		logger.WithError(err).Fatal("Failed to persist table")
	}

	if *exportPath != "" {
		f, err := os.Create(*exportPath)
		if err != nil {
			logger.WithError(err).Fatal("Failed to create export file")
		}
		defer f.Close()
		if err := store.ExportJSON(f, table); err != nil {
			logger.WithError(err).Fatal("Failed to export table")
		}
		logger.WithField("path", *exportPath).Info("Table exported")
	}

	logger.WithFields(logrus.Fields{
		"entries": table.Len(),
		"driver":  cfg.Store.Driver,
	}).Info("Lookup table built and persisted")
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
