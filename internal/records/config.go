package records

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Default timestamp layouts tried in order. Layouts without a zone are read as UTC.
var DefaultTimestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"02/Jan/06 3:04 PM",
	"01/02/2006 15:04",
	"01/02/2006",
}

// DefaultExcludedFailureModes are tracker labels that do not describe a failure.
var DefaultExcludedFailureModes = []string{
	"Handover",
	"18.1 Trial",
	"Biodot",
	"Investor",
	"Dry Run",
	"Unknown",
	"Pass",
}

// DefaultProcesses maps canonical process names to accepted aliases.
var DefaultProcesses = map[string][]string{
	"Final Inspection": {"final", "fi", "ln-c"},
	"Outer Layer":      {"outer", "ol", "ln-r"},
	"Dispensing":       {"dispense", "ln-q"},
	"Screen Printing":  {"screen print", "printing", "ln-p"},
}

// DefaultLotPrefixes maps lot number prefixes to the process step they
// identify, used when a row's process label is unmapped.
var DefaultLotPrefixes = map[string]string{
	"LN-C": "Final Inspection",
	"LN-R": "Outer Layer",
	"LN-Q": "Dispensing",
	"LN-P": "Screen Printing",
}

// Config controls how raw rows are validated and identified.
type Config struct {
	// Processes maps each canonical process name to its aliases.
	Processes            map[string][]string `toml:"processes"`
	LotPrefixes          map[string]string   `toml:"lot_prefixes"`
	TimestampLayouts     []string            `toml:"timestamp_layouts"`
	Granularity          string              `toml:"granularity"`
	ExcludedFailureModes []string            `toml:"excluded_failure_modes"`
}

// Env maps config fields to environment variable names.
type Env struct {
	Granularity          string
	ExcludedFailureModes string
}

// GranularityDuration returns Granularity as a time.Duration.
func (c *Config) GranularityDuration() time.Duration {
	d, _ := time.ParseDuration(c.Granularity)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Processes != nil {
		c.Processes = overlay.Processes
	}
	if overlay.LotPrefixes != nil {
		c.LotPrefixes = overlay.LotPrefixes
	}
	if overlay.TimestampLayouts != nil {
		c.TimestampLayouts = overlay.TimestampLayouts
	}
	if overlay.Granularity != "" {
		c.Granularity = overlay.Granularity
	}
	if overlay.ExcludedFailureModes != nil {
		c.ExcludedFailureModes = overlay.ExcludedFailureModes
	}
}

func (c *Config) loadDefaults() {
	if c.Processes == nil {
		c.Processes = DefaultProcesses
	}
	if c.LotPrefixes == nil {
		c.LotPrefixes = DefaultLotPrefixes
	}
	if len(c.TimestampLayouts) == 0 {
		c.TimestampLayouts = DefaultTimestampLayouts
	}
	if c.Granularity == "" {
		c.Granularity = "1s"
	}
	if c.ExcludedFailureModes == nil {
		c.ExcludedFailureModes = DefaultExcludedFailureModes
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Granularity != "" {
		if v := os.Getenv(env.Granularity); v != "" {
			c.Granularity = v
		}
	}
	if env.ExcludedFailureModes != "" {
		if v := os.Getenv(env.ExcludedFailureModes); v != "" {
			c.ExcludedFailureModes = strings.Split(v, ",")
		}
	}
}

func (c *Config) validate() error {
	d, err := time.ParseDuration(c.Granularity)
	if err != nil {
		return fmt.Errorf("invalid granularity: %w", err)
	}
	if d < time.Microsecond {
		return fmt.Errorf("granularity must be at least 1µs: %s", c.Granularity)
	}
	if d > 24*time.Hour {
		return fmt.Errorf("granularity must not exceed 24h: %s", c.Granularity)
	}
	for name := range c.Processes {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("process table contains a blank canonical name")
		}
	}
	for prefix, process := range c.LotPrefixes {
		if strings.TrimSpace(prefix) == "" || strings.TrimSpace(process) == "" {
			return fmt.Errorf("lot prefix %q: prefix and process must not be blank", prefix)
		}
	}
	return nil
}
