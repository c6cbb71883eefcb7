package openapi

import (
	"fmt"
	"os"
	"strings"
)

// Config holds the metadata and mount path of the generated API description.
type Config struct {
	Title       string `toml:"title"`
	Description string `toml:"description"`
	// Path is where the document is served, relative to the API base path.
	Path string `toml:"path"`
}

// ConfigEnv maps config fields to environment variable names for override injection.
type ConfigEnv struct {
	Title       string
	Description string
	Path        string
}

// Finalize applies environment variable overrides, defaults, and validation.
func (c *Config) Finalize(env *ConfigEnv) error {
	if env != nil {
		for name, target := range map[string]*string{
			env.Title:       &c.Title,
			env.Description: &c.Description,
			env.Path:        &c.Path,
		} {
			if name == "" {
				continue
			}
			if v := os.Getenv(name); v != "" {
				*target = v
			}
		}
	}

	if c.Title == "" {
		c.Title = "QA Gate Analytics API"
	}
	if c.Description == "" {
		c.Description = "Ingests manufacturing QA gate records and reports yield trends, outliers and health status."
	}
	if c.Path == "" {
		c.Path = "/openapi.json"
	}

	if !strings.HasPrefix(c.Path, "/") || strings.ContainsAny(c.Path, "{} ") {
		return fmt.Errorf("openapi path must be a literal path starting with /: %q", c.Path)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	for _, f := range []struct {
		dst *string
		src string
	}{
		{&c.Title, overlay.Title},
		{&c.Description, overlay.Description},
		{&c.Path, overlay.Path},
	} {
		if f.src != "" {
			*f.dst = f.src
		}
	}
}
