package api

import (
	"github.com/JaimeStill/qagate/internal/analytics"
	"github.com/JaimeStill/qagate/internal/config"
	"github.com/JaimeStill/qagate/internal/infrastructure"
	"github.com/JaimeStill/qagate/internal/records"
	"github.com/JaimeStill/qagate/pkg/formatting"
	"github.com/JaimeStill/qagate/pkg/openapi"
	"github.com/JaimeStill/qagate/pkg/pagination"
)

// Runtime extends Infrastructure with API-specific configuration.
type Runtime struct {
	*infrastructure.Infrastructure
	BasePath      string
	Version       string
	Pagination    pagination.Config
	MaxIngestSize formatting.ByteSize
	OpenAPI       openapi.Config
	Ingest        records.Config
	Analytics     analytics.Config
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	scoped := *infra
	scoped.Logger = infra.Logger.With("module", "api")

	return &Runtime{
		Infrastructure: &scoped,
		BasePath:       cfg.API.BasePath,
		Version:        cfg.Version,
		Pagination:     cfg.API.Pagination,
		MaxIngestSize:  cfg.API.MaxIngestSize,
		OpenAPI:        cfg.API.OpenAPI,
		Ingest:         cfg.Ingest,
		Analytics:      cfg.Analytics,
	}
}
