package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/JaimeStill/qagate/pkg/formatting"
	"github.com/JaimeStill/qagate/pkg/middleware"
	"github.com/JaimeStill/qagate/pkg/openapi"
	"github.com/JaimeStill/qagate/pkg/pagination"
)

var corsEnv = &middleware.CORSEnv{
	Enabled:          "QAGATE_CORS_ENABLED",
	Origins:          "QAGATE_CORS_ORIGINS",
	AllowedMethods:   "QAGATE_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "QAGATE_CORS_ALLOWED_HEADERS",
	AllowCredentials: "QAGATE_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "QAGATE_CORS_MAX_AGE",
}

var openAPIEnv = &openapi.ConfigEnv{
	Title:       "QAGATE_OPENAPI_TITLE",
	Description: "QAGATE_OPENAPI_DESCRIPTION",
	Path:        "QAGATE_OPENAPI_PATH",
}

var paginationEnv = &pagination.Env{
	DefaultPageSize: "QAGATE_PAGINATION_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "QAGATE_PAGINATION_MAX_PAGE_SIZE",
}

// APIConfig holds API routing, request limits, CORS, pagination and
// OpenAPI document settings.
type APIConfig struct {
	BasePath      string                `toml:"base_path"`
	MaxIngestSize formatting.ByteSize   `toml:"max_ingest_size"`
	CORS          middleware.CORSConfig `toml:"cors"`
	Pagination    pagination.Config     `toml:"pagination"`
	OpenAPI       openapi.Config        `toml:"openapi"`
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and its nested configs.
func (c *APIConfig) Finalize() error {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
	if c.MaxIngestSize == 0 {
		c.MaxIngestSize = 8 << 20
	}

	envString(&c.BasePath, "QAGATE_API_BASE_PATH")
	if v := os.Getenv("QAGATE_API_MAX_INGEST_SIZE"); v != "" {
		size, err := formatting.ParseByteSize(v)
		if err != nil {
			return fmt.Errorf("QAGATE_API_MAX_INGEST_SIZE: %w", err)
		}
		c.MaxIngestSize = size
	}

	if !strings.HasPrefix(c.BasePath, "/") || strings.Count(c.BasePath, "/") != 1 {
		return fmt.Errorf("base_path must be a single segment like /api: %q", c.BasePath)
	}
	if c.MaxIngestSize <= 0 {
		return fmt.Errorf("max_ingest_size must be positive")
	}

	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.Pagination.Finalize(paginationEnv); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	if err := c.OpenAPI.Finalize(openAPIEnv); err != nil {
		return fmt.Errorf("openapi: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *APIConfig) Merge(overlay *APIConfig) {
	mergeString(&c.BasePath, overlay.BasePath)
	if overlay.MaxIngestSize != 0 {
		c.MaxIngestSize = overlay.MaxIngestSize
	}
	c.CORS.Merge(&overlay.CORS)
	c.Pagination.Merge(&overlay.Pagination)
	c.OpenAPI.Merge(&overlay.OpenAPI)
}
