package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JaimeStill/qagate/internal/config"
	"github.com/JaimeStill/qagate/pkg/database"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.LoadFrom(t.TempDir())
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.Server.Addr() != "0.0.0.0:8080" {
		t.Errorf("addr = %s", cfg.Server.Addr())
	}
	if cfg.Database.Dialect() != database.SQLite {
		t.Errorf("dialect = %s, want sqlite fallback", cfg.Database.Dialect())
	}
	if cfg.API.BasePath != "/api" || cfg.API.MaxIngestSize != 8<<20 {
		t.Errorf("api = %+v", cfg.API)
	}
	if cfg.Storage.Enabled {
		t.Error("storage should be disabled by default")
	}
	if cfg.Ingest.Granularity != "1s" {
		t.Errorf("ingest granularity = %s", cfg.Ingest.Granularity)
	}
	if th := cfg.Analytics.Thresholds(); th.Warning != 85 || th.Critical != 75 {
		t.Errorf("thresholds = %+v", th)
	}
	if cfg.Env() != "local" {
		t.Errorf("Env() = %s", cfg.Env())
	}
}

func TestLoadBaseOverlayAndEnv(t *testing.T) {
	dir := t.TempDir()

	writeFile(t, dir, "config.toml", `
version = "1.2.0"

[server]
port = 9000

[api]
max_ingest_size = "2MB"

[logging]
level = "debug"

[ingest]
granularity = "1m"

[ingest.processes]
"Final Inspection" = ["fi"]

[analytics]
warning_threshold = 92
critical_threshold = 85
bucket = "day"
`)
	writeFile(t, dir, "config.staging.toml", `
[server]
host = "127.0.0.1"

[analytics]
bucket = "month"
`)

	t.Setenv("QAGATE_ENV", "staging")
	t.Setenv("QAGATE_SERVER_PORT", "9100")

	cfg, err := config.LoadFrom(dir)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.Server.Addr() != "127.0.0.1:9100" {
		t.Errorf("addr = %s, want overlay host and env port", cfg.Server.Addr())
	}
	if cfg.Version != "1.2.0" || cfg.Logging.Level != "debug" {
		t.Errorf("version=%s level=%s", cfg.Version, cfg.Logging.Level)
	}
	if cfg.API.MaxIngestSize != 2<<20 {
		t.Errorf("max_ingest_size = %v", cfg.API.MaxIngestSize)
	}
	if cfg.Ingest.Granularity != "1m" || len(cfg.Ingest.Processes) != 1 {
		t.Errorf("ingest = %+v", cfg.Ingest)
	}
	if cfg.Analytics.Bucket != "month" || cfg.Analytics.Thresholds().Warning != 92 {
		t.Errorf("analytics = %+v", cfg.Analytics)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".env", "QAGATE_TEST_DOTENV_VERSION=3.0.0\n")
	writeFile(t, dir, "config.toml", "")

	t.Cleanup(func() { os.Unsetenv("QAGATE_TEST_DOTENV_VERSION") })
	if _, err := config.LoadFrom(dir); err != nil {
		t.Fatal(err)
	}
	if got := os.Getenv("QAGATE_TEST_DOTENV_VERSION"); got != "3.0.0" {
		t.Errorf(".env variable = %q, want 3.0.0", got)
	}
}

func TestLoadValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		toml    string
		section string
	}{
		{"inverted thresholds", "[analytics]\nwarning_threshold = 70\ncritical_threshold = 80\n", "analytics"},
		{"bad granularity", "[ingest]\ngranularity = \"48h\"\n", "ingest"},
		{"bad port", "[server]\nport = 70000\n", "server"},
		{"bad log format", "[logging]\nformat = \"xml\"\n", "logging"},
		{"bad base path", "[api]\nbase_path = \"api/v1\"\n", "api"},
		{"storage without credentials", "[storage]\nenabled = true\n", "storage"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, "config.toml", tt.toml)

			_, err := config.LoadFrom(dir)
			if err == nil || !strings.Contains(err.Error(), tt.section+":") {
				t.Errorf("error = %v, want a %s section error", err, tt.section)
			}
		})
	}
}

func TestLoadMalformedFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.toml", "[server\nport = ")

	if _, err := config.LoadFrom(dir); err == nil {
		t.Error("expected parse error")
	}
}

func TestLoggingConfigNewLogger(t *testing.T) {
	var sb strings.Builder
	cfg := config.LoggingConfig{Level: "warn", Format: "json"}
	if err := cfg.Finalize(); err != nil {
		t.Fatal(err)
	}

	logger := cfg.NewLogger(&sb)
	logger.Info("hidden")
	logger.Warn("shown", "lot", "LN-C-1")

	out := sb.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, `"lot":"LN-C-1"`) {
		t.Errorf("log output = %s", out)
	}
}
