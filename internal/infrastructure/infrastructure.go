// Package infrastructure assembles the shared systems every qagate entry
// point needs: logging, lifecycle, the SQL connection, the record store
// and the batch archive.
package infrastructure

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/JaimeStill/qagate/internal/config"
	"github.com/JaimeStill/qagate/internal/migrations"
	"github.com/JaimeStill/qagate/internal/records"
	"github.com/JaimeStill/qagate/pkg/database"
	"github.com/JaimeStill/qagate/pkg/lifecycle"
	"github.com/JaimeStill/qagate/pkg/storage"
)

// Infrastructure holds the core systems required by the domain systems.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Database  database.System
	Storage   storage.System
	Records   records.Store

	autoMigrate bool
}

// New creates an Infrastructure logging to stderr. See NewWithWriter.
func New(cfg *config.Config) (*Infrastructure, error) {
	return NewWithWriter(cfg, os.Stderr)
}

// NewWithWriter creates an Infrastructure whose logger writes to w.
// Systems are initialized but not started; call Start separately.
func NewWithWriter(cfg *config.Config, w io.Writer) (*Infrastructure, error) {
	logger := cfg.Logging.NewLogger(w)

	db, err := database.New(&cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}

	archive, err := storage.New(&cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("storage init failed: %w", err)
	}

	return &Infrastructure{
		Lifecycle:   lifecycle.New(),
		Logger:      logger,
		Database:    db,
		Storage:     archive,
		Records:     records.NewSQLStore(db.Connection(), db.Dialect()),
		autoMigrate: cfg.Database.AutoMigrate,
	}, nil
}

// Start registers all infrastructure systems with the lifecycle coordinator.
// With auto_migrate enabled, pending migrations run as a startup hook.
func (i *Infrastructure) Start() error {
	if err := i.Database.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("database start failed: %w", err)
	}
	if err := i.Storage.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("storage start failed: %w", err)
	}

	if i.autoMigrate {
		i.Lifecycle.OnStartup("migrations", i.Migrate)
	}
	return nil
}

// Migrate applies pending schema migrations to the configured database.
func (i *Infrastructure) Migrate() error {
	dialect := i.Database.Dialect()
	i.Logger.Info("applying migrations", "dialect", dialect)

	if err := migrations.Up(i.Database.Connection(), dialect); err != nil {
		i.Logger.Error("migrations failed", "error", err)
		return err
	}

	i.Logger.Info("schema up to date")
	return nil
}
