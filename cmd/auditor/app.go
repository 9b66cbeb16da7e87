package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/auditly/invoice-auditor/internal/anomaly"
	"github.com/auditly/invoice-auditor/internal/audit"
	"github.com/auditly/invoice-auditor/internal/config"
	"github.com/auditly/invoice-auditor/internal/history"
	"github.com/auditly/invoice-auditor/internal/policy"
	"github.com/auditly/invoice-auditor/pkg/database"
	"github.com/auditly/invoice-auditor/pkg/utils"
)

// app holds the wired components shared by the CLI commands.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	db       *database.DB
	store    history.Store
	policies *policy.Manager
	auditor  *audit.Auditor
}

// buildApp loads configuration and wires the audit engine. When
// useDatabase is false the history store is in-memory, so one-shot
// audits leave no file behind unless asked to.
func buildApp(useDatabase bool) (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	a := &app{cfg: cfg, logger: logger}

	if useDatabase {
		db, err := database.New(database.Config{
			Path:            cfg.Database.Path,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		a.db = db

		store, err := history.NewSQLiteStore(db.DB, logger)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to initialize history store: %w", err)
		}
		a.store = store
	} else {
		a.store = history.NewMemoryStore()
	}

	policies, err := policy.NewManager(cfg.Audit.PolicyDir, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.policies = policies

	var opts []audit.Option
	if cfg.OpenAI.Enabled {
		checker := anomaly.NewOpenAIChecker(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.Temperature, logger)
		opts = append(opts, audit.WithChecker(checker, cfg.OpenAI.Timeout))
	}
	a.auditor = audit.NewAuditor(a.store, logger, opts...)

	return a, nil
}

// Close releases everything buildApp opened.
func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}
