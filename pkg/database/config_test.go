package database_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/JaimeStill/qagate/pkg/database"
)

func TestFinalizeSQLiteDefaults(t *testing.T) {
	cfg := database.Config{}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	tests := []struct {
		name     string
		got      any
		expected any
	}{
		{"driver", cfg.Driver, "sqlite"},
		{"path", cfg.Path, "data/qagate.db"},
		{"max_open_conns", cfg.MaxOpenConns, 1},
		{"max_idle_conns", cfg.MaxIdleConns, 1},
		{"conn_timeout", cfg.ConnTimeout, "5s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("got %v, want %v", tt.got, tt.expected)
			}
		})
	}
}

func TestFinalizePostgresDefaults(t *testing.T) {
	cfg := database.Config{Driver: "postgres", Name: "qagate", User: "qagate"}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	tests := []struct {
		name     string
		got      any
		expected any
	}{
		{"host", cfg.Host, "localhost"},
		{"port", cfg.Port, 5432},
		{"ssl_mode", cfg.SSLMode, "disable"},
		{"max_open_conns", cfg.MaxOpenConns, 25},
		{"max_idle_conns", cfg.MaxIdleConns, 5},
		{"conn_max_lifetime", cfg.ConnMaxLifetime, "15m"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("got %v, want %v", tt.got, tt.expected)
			}
		})
	}
}

func TestFinalizeEnvOverrides(t *testing.T) {
	t.Setenv("TEST_DB_DRIVER", "postgres")
	t.Setenv("TEST_DB_HOST", "remotehost")
	t.Setenv("TEST_DB_PORT", "5433")
	t.Setenv("TEST_DB_NAME", "envdb")
	t.Setenv("TEST_DB_USER", "envuser")
	t.Setenv("TEST_DB_MAX_OPEN", "50")
	t.Setenv("TEST_DB_AUTO_MIGRATE", "true")

	env := &database.Env{
		Driver:       "TEST_DB_DRIVER",
		Host:         "TEST_DB_HOST",
		Port:         "TEST_DB_PORT",
		Name:         "TEST_DB_NAME",
		User:         "TEST_DB_USER",
		MaxOpenConns: "TEST_DB_MAX_OPEN",
		AutoMigrate:  "TEST_DB_AUTO_MIGRATE",
	}

	cfg := database.Config{}
	if err := cfg.Finalize(env); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if cfg.Dialect() != database.Postgres {
		t.Errorf("dialect: got %s, want postgres", cfg.Dialect())
	}
	if cfg.Host != "remotehost" || cfg.Port != 5433 {
		t.Errorf("address: got %s:%d", cfg.Host, cfg.Port)
	}
	if cfg.Name != "envdb" || cfg.User != "envuser" {
		t.Errorf("credentials: got %s/%s", cfg.Name, cfg.User)
	}
	if cfg.MaxOpenConns != 50 {
		t.Errorf("max_open_conns: got %d, want 50", cfg.MaxOpenConns)
	}
	if !cfg.AutoMigrate {
		t.Error("auto_migrate should be enabled from env")
	}
}

func TestFinalizeValidation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     database.Config
		wantErr string
	}{
		{"postgres missing name", database.Config{Driver: "postgres", User: "u"}, "name required"},
		{"postgres missing user", database.Config{Driver: "postgres", Name: "n"}, "user required"},
		{"invalid conn_timeout", database.Config{ConnTimeout: "bad"}, "invalid conn_timeout"},
		{"unknown driver", database.Config{Driver: "oracle"}, "unknown database driver"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Finalize(nil)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestUnknownDriverSentinel(t *testing.T) {
	cfg := database.Config{Driver: "mysql"}
	if err := cfg.Finalize(nil); !errors.Is(err, database.ErrUnknownDriver) {
		t.Errorf("got %v, want ErrUnknownDriver", err)
	}
}

func TestMerge(t *testing.T) {
	base := database.Config{Driver: "postgres", Host: "localhost", Port: 5432, Name: "basedb", User: "baseuser"}
	overlay := database.Config{Host: "remotehost", Name: "overlaydb"}

	base.Merge(&overlay)

	if base.Host != "remotehost" {
		t.Errorf("host: got %s, want remotehost", base.Host)
	}
	if base.Name != "overlaydb" {
		t.Errorf("name: got %s, want overlaydb", base.Name)
	}
	if base.User != "baseuser" || base.Driver != "postgres" || base.Port != 5432 {
		t.Errorf("zero overlay fields should not overwrite: %+v", base)
	}
}

func TestDsn(t *testing.T) {
	pg := database.Config{
		Driver:   "postgres",
		Host:     "localhost",
		Port:     5432,
		Name:     "qagate",
		User:     "qa",
		Password: "secret",
		SSLMode:  "disable",
	}
	want := "host=localhost port=5432 dbname=qagate user=qa password=secret sslmode=disable"
	if got := pg.Dsn(); got != want {
		t.Errorf("postgres dsn:\ngot  %s\nwant %s", got, want)
	}

	lite := database.Config{Driver: "sqlite", Path: "data/qa.db"}
	if got := lite.Dsn(); !strings.HasPrefix(got, "file:data/qa.db?") {
		t.Errorf("sqlite dsn: got %s", got)
	}
}

func TestURL(t *testing.T) {
	pg := database.Config{Driver: "postgres", Host: "db", Port: 5432, Name: "qagate", User: "qa", Password: "p", SSLMode: "disable"}
	if got, want := pg.URL(), "postgres://qa:p@db:5432/qagate?sslmode=disable"; got != want {
		t.Errorf("postgres url: got %s, want %s", got, want)
	}

	lite := database.Config{Driver: "sqlite", Path: "/tmp/qa.db"}
	if got, want := lite.URL(), "sqlite:///tmp/qa.db"; got != want {
		t.Errorf("sqlite url: got %s, want %s", got, want)
	}
}

func TestRebind(t *testing.T) {
	q := "SELECT * FROM qa_records WHERE id = $1 AND process = $2 OR lot = $10"

	if got := database.Postgres.Rebind(q); got != q {
		t.Errorf("postgres should not rewrite: %s", got)
	}

	want := "SELECT * FROM qa_records WHERE id = ?1 AND process = ?2 OR lot = ?10"
	if got := database.SQLite.Rebind(q); got != want {
		t.Errorf("sqlite rebind:\ngot  %s\nwant %s", got, want)
	}
}

func TestDurationParsers(t *testing.T) {
	cfg := database.Config{ConnMaxLifetime: "15m", ConnTimeout: "5s"}

	if d := cfg.ConnMaxLifetimeDuration(); d != 15*time.Minute {
		t.Errorf("conn_max_lifetime: got %v, want 15m", d)
	}
	if d := cfg.ConnTimeoutDuration(); d != 5*time.Second {
		t.Errorf("conn_timeout: got %v, want 5s", d)
	}
}
