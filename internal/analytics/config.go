package analytics

import (
	"fmt"
	"os"
	"strconv"
)

const (
	DefaultWarningThreshold  = 85.0
	DefaultCriticalThreshold = 75.0
)

// Config holds analytics defaults. Zero numeric fields take their defaults,
// except the thresholds: nil means unset, and an explicit 0 is kept.
type Config struct {
	WarningThreshold  *float64 `toml:"warning_threshold"`
	CriticalThreshold *float64 `toml:"critical_threshold"`
	OutlierThreshold  float64  `toml:"outlier_threshold"`
	OutlierMethod     string   `toml:"outlier_method"`
	GroupBy           string   `toml:"group_by"`
	Window            int      `toml:"window"`
	Bucket            string   `toml:"bucket"`
	TopFailureModes   int      `toml:"top_failure_modes"`

	thresholds Thresholds
}

// Env maps config fields to environment variable names.
type Env struct {
	WarningThreshold  string
	CriticalThreshold string
	OutlierThreshold  string
	OutlierMethod     string
	Window            string
	Bucket            string
}

// Thresholds returns the classification thresholds validated by Finalize.
func (c *Config) Thresholds() Thresholds {
	return c.thresholds
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		if err := c.loadEnv(env); err != nil {
			return err
		}
	}
	c.defaultThresholds()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.WarningThreshold != nil {
		c.WarningThreshold = overlay.WarningThreshold
	}
	if overlay.CriticalThreshold != nil {
		c.CriticalThreshold = overlay.CriticalThreshold
	}
	if overlay.OutlierThreshold != 0 {
		c.OutlierThreshold = overlay.OutlierThreshold
	}
	if overlay.OutlierMethod != "" {
		c.OutlierMethod = overlay.OutlierMethod
	}
	if overlay.GroupBy != "" {
		c.GroupBy = overlay.GroupBy
	}
	if overlay.Window != 0 {
		c.Window = overlay.Window
	}
	if overlay.Bucket != "" {
		c.Bucket = overlay.Bucket
	}
	if overlay.TopFailureModes != 0 {
		c.TopFailureModes = overlay.TopFailureModes
	}
}

// defaultThresholds fills unset thresholds. A default never crosses an
// explicitly set threshold: critical is capped at warning and warning is
// raised to critical.
func (c *Config) defaultThresholds() {
	if c.WarningThreshold == nil {
		w := DefaultWarningThreshold
		if c.CriticalThreshold != nil {
			w = max(w, *c.CriticalThreshold)
		}
		c.WarningThreshold = &w
	}
	if c.CriticalThreshold == nil {
		cr := min(DefaultCriticalThreshold, *c.WarningThreshold)
		c.CriticalThreshold = &cr
	}
}

func (c *Config) loadDefaults() {
	if c.OutlierThreshold == 0 {
		c.OutlierThreshold = 2.0
	}
	if c.OutlierMethod == "" {
		c.OutlierMethod = string(LeaveOneOut)
	}
	if c.GroupBy == "" {
		c.GroupBy = string(ByAssignee)
	}
	if c.Window == 0 {
		c.Window = 3
	}
	if c.Bucket == "" {
		c.Bucket = string(Week)
	}
	if c.TopFailureModes == 0 {
		c.TopFailureModes = 20
	}
}

func (c *Config) loadEnv(env *Env) error {
	thresholds := []struct {
		name   string
		target **float64
	}{
		{env.WarningThreshold, &c.WarningThreshold},
		{env.CriticalThreshold, &c.CriticalThreshold},
	}
	for _, f := range thresholds {
		n, ok, err := envFloat(f.name)
		if err != nil {
			return err
		}
		if ok {
			*f.target = &n
		}
	}

	outlier, ok, err := envFloat(env.OutlierThreshold)
	if err != nil {
		return err
	}
	if ok {
		c.OutlierThreshold = outlier
	}

	if env.Window != "" {
		if v := os.Getenv(env.Window); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", env.Window, err)
			}
			c.Window = n
		}
	}
	if env.OutlierMethod != "" {
		if v := os.Getenv(env.OutlierMethod); v != "" {
			c.OutlierMethod = v
		}
	}
	if env.Bucket != "" {
		if v := os.Getenv(env.Bucket); v != "" {
			c.Bucket = v
		}
	}
	return nil
}

func envFloat(name string) (float64, bool, error) {
	if name == "" {
		return 0, false, nil
	}
	v := os.Getenv(name)
	if v == "" {
		return 0, false, nil
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", name, err)
	}
	return n, true, nil
}

func (c *Config) validate() error {
	t, err := NewThresholds(*c.WarningThreshold, *c.CriticalThreshold)
	if err != nil {
		return err
	}
	c.thresholds = t

	if c.OutlierThreshold < 0 {
		return fmt.Errorf("%w: outlier threshold %v", ErrInvalidThreshold, c.OutlierThreshold)
	}
	if _, err := ParseMethod(c.OutlierMethod); err != nil {
		return err
	}
	if _, err := ParseGroupBy(c.GroupBy); err != nil {
		return err
	}
	if _, err := ParseBucket(c.Bucket); err != nil {
		return err
	}
	if c.Window < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidWindow, c.Window)
	}
	if c.TopFailureModes < 0 {
		return fmt.Errorf("top_failure_modes must not be negative: %d", c.TopFailureModes)
	}
	return nil
}
