// Package api assembles the HTTP API module from the record and analytics
// systems, mounts their routes under the configured base path and serves
// an OpenAPI description of them.
package api

import (
	"net/http"

	"github.com/JaimeStill/qagate/internal/config"
	"github.com/JaimeStill/qagate/internal/infrastructure"
	"github.com/JaimeStill/qagate/pkg/middleware"
	"github.com/JaimeStill/qagate/pkg/module"
)

// NewModule creates the API module with all domain handlers and middleware.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime := NewRuntime(cfg, infra)
	domain := NewDomain(runtime)

	mux := http.NewServeMux()
	if err := registerRoutes(mux, domain, runtime); err != nil {
		return nil, err
	}

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.Recover(runtime.Logger))
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(runtime.Logger))

	return m, nil
}
