package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/qagate/internal/analytics"
	"github.com/JaimeStill/qagate/internal/config"
	"github.com/JaimeStill/qagate/internal/infrastructure"
	"github.com/JaimeStill/qagate/internal/records"
	"github.com/JaimeStill/qagate/pkg/storage"
)

// workspace bundles the systems a command runs against.
type workspace struct {
	records   records.System
	analytics analytics.System
	close     func()
}

// openWorkspace loads configuration from the --config directory. adjust,
// when set, may change the loaded config before the systems are built.
// In memory mode records live only for the duration of the command.
func openWorkspace(cmd *cobra.Command, opts *rootOptions, memory bool, adjust func(*config.Config) error) (*workspace, error) {
	cfg, err := config.LoadFrom(opts.configDir)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if adjust != nil {
		if err := adjust(cfg); err != nil {
			return nil, err
		}
	}

	if memory {
		logger := cfg.Logging.NewLogger(cmd.ErrOrStderr())
		return build(cfg, logger, records.NewMemoryStore(), storage.Disabled(), func() {}), nil
	}

	infra, err := infrastructure.NewWithWriter(cfg, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}

	shutdown := func() {
		if err := infra.Lifecycle.Shutdown(cfg.ShutdownTimeoutDuration()); err != nil {
			infra.Logger.Error("shutdown failed", "error", err)
		}
	}

	if err := infra.Start(); err != nil {
		shutdown()
		return nil, err
	}
	if err := infra.Lifecycle.WaitForStartup(); err != nil {
		shutdown()
		return nil, fmt.Errorf("startup failed: %w", err)
	}

	return build(cfg, infra.Logger, infra.Records, infra.Storage, shutdown), nil
}

func build(cfg *config.Config, logger *slog.Logger, store records.Store, archive storage.System, closeFn func()) *workspace {
	recordsSystem := records.New(
		store,
		archive,
		records.NewValidator(cfg.Ingest),
		logger,
		cfg.API.Pagination,
	)

	return &workspace{
		records:   recordsSystem,
		analytics: analytics.New(recordsSystem, cfg.Analytics, cfg.Ingest.ExcludedFailureModes, logger),
		close:     closeFn,
	}
}
