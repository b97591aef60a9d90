// Package config loads the server configuration from YAML with environment
// overrides.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/warp/propdash/generic"
	"github.com/warp/propdash/projection"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server struct {
		Port           int      `yaml:"port"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"server"`
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	Projection struct {
		// Used until the user saves settings.
		DefaultPassRate float64 `yaml:"default_pass_rate"`
		PayoutStart     string  `yaml:"payout_start"`
	} `yaml:"projection"`
	Holidays []HolidayConfig `yaml:"holidays"`
}

// HolidayConfig is one market closure.
type HolidayConfig struct {
	Date string `yaml:"date"`
	Name string `yaml:"name"`
}

// DefaultPassRate is the daily pass rate, in percent, projected until the
// file, the environment or the user sets one. An explicit 0 is kept.
const DefaultPassRate = 20

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.Projection.DefaultPassRate = DefaultPassRate

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	// Environment variable overrides
	if v := os.Getenv("PROPDASH_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("PROPDASH_DB"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("PROPDASH_PASS_RATE"); v != "" {
		if rate, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Projection.DefaultPassRate = rate
		}
	}
	if v := os.Getenv("PROPDASH_PAYOUT_START"); v != "" {
		cfg.Projection.PayoutStart = v
	}

	// Defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"http://localhost:5173", "http://localhost:8080"}
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "propdash.db"
	}

	return cfg, cfg.Validate()
}

// Validate checks formats. The pass rate range is the caller's business.
func (c *Config) Validate() error {
	if _, err := generic.ParseYearMonth(c.Projection.PayoutStart); err != nil {
		return fmt.Errorf("projection.payout_start: %w", err)
	}
	if _, err := c.HolidayList(); err != nil {
		return err
	}
	return nil
}

// HolidayList returns the configured holiday table, or the built-in one
// when none is configured.
func (c *Config) HolidayList() ([]generic.Holiday, error) {
	if len(c.Holidays) == 0 {
		return generic.DefaultHolidays(), nil
	}
	out := make([]generic.Holiday, 0, len(c.Holidays))
	for i, h := range c.Holidays {
		date, err := generic.ParseDate(h.Date)
		if err != nil {
			return nil, fmt.Errorf("holidays[%d]: %w", i, err)
		}
		out = append(out, generic.Holiday{ID: "config-" + date.String(), Date: date, Name: h.Name})
	}
	return out, nil
}

// DefaultSettings are the projection settings used until the user saves
// their own.
func (c *Config) DefaultSettings() projection.Settings {
	start, _ := generic.ParseYearMonth(c.Projection.PayoutStart)
	return projection.Settings{
		PassRatePercent: c.Projection.DefaultPassRate,
		PayoutStart:     start,
	}
}
