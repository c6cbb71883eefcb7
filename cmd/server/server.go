package main

import (
	"fmt"
	"time"

	"github.com/JaimeStill/qagate/internal/config"
	"github.com/JaimeStill/qagate/internal/infrastructure"
)

// Server owns the infrastructure, the mounted modules and the HTTP listener.
type Server struct {
	infra   *infrastructure.Infrastructure
	modules *Modules
	http    *httpServer
}

func NewServer(cfg *config.Config) (*Server, error) {
	infra, err := infrastructure.New(cfg)
	if err != nil {
		return nil, err
	}

	modules, err := NewModules(infra, cfg)
	if err != nil {
		return nil, err
	}

	router := buildRouter(infra)
	modules.Mount(router)

	infra.Logger.Info(
		"server initialized",
		"version", cfg.Version,
		"env", cfg.Env(),
		"database", cfg.Database.Driver,
		"auto_migrate", cfg.Database.AutoMigrate,
		"archive", infra.Storage.Enabled(),
	)

	return &Server{
		infra:   infra,
		modules: modules,
		http:    newHTTPServer(&cfg.Server, router, infra.Logger),
	}, nil
}

// Start registers the infrastructure hooks and begins serving. /readyz
// reports 503 until every startup hook, including pending migrations,
// has finished. The returned channel receives the startup error, or is
// closed once all hooks succeed.
func (s *Server) Start() (ready <-chan error, err error) {
	if err := s.infra.Start(); err != nil {
		return nil, err
	}

	if err := s.http.Start(s.infra.Lifecycle); err != nil {
		return nil, err
	}

	done := make(chan error, 1)
	go func() {
		err := s.infra.Lifecycle.WaitForStartup()
		if err != nil {
			s.infra.Logger.Error("startup failed", "error", err)
			done <- fmt.Errorf("startup: %w", err)
			return
		}
		s.infra.Logger.Info("all subsystems ready")
		close(done)
	}()

	return done, nil
}

func (s *Server) Shutdown(timeout time.Duration) error {
	s.infra.Logger.Info("initiating shutdown")
	return s.infra.Lifecycle.Shutdown(timeout)
}
