package cmd

import (
	"fmt"

	"codex-manager/core/config"
	"codex-manager/core/database"
	"codex-manager/core/logger"
	charmodels "codex-manager/feature/character/models"
	"codex-manager/feature/srd/ingest"
	"codex-manager/feature/srd/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// env bundles the shared setup every pipeline command needs.
type env struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *gorm.DB
	source *models.Source
}

// newEnv loads configuration, connects to the database, migrates the
// schema, and resolves the configured content source.
func newEnv() (*env, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}
	zap.ReplaceGlobals(logg)

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := models.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	if err := charmodels.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate character schema: %w", err)
	}

	source, err := ingest.EnsureSource(db, cfg.Server.SourceName, cfg.API.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("ensure source: %w", err)
	}

	return &env{cfg: cfg, logger: logg, db: db, source: source}, nil
}
