// Package config loads ls-kp settings from a YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/litescript/ls-kp/internal/astro"
	"github.com/litescript/ls-kp/internal/ephem"
	"github.com/litescript/ls-kp/internal/logging"
)

// Config is the full application configuration.
type Config struct {
	Chart     ChartConfig     `yaml:"chart"`
	Ephemeris EphemerisConfig `yaml:"ephemeris"`
	Logging   LoggingConfig   `yaml:"logging"`
	Server    ServerConfig    `yaml:"server"`
	Transits  TransitsConfig  `yaml:"transits"`
	Batch     BatchConfig     `yaml:"batch"`
}

// ChartConfig holds chart defaults used when a request leaves them unset.
type ChartConfig struct {
	Ayanamsa     string  `yaml:"ayanamsa"`
	HouseSystem  string  `yaml:"house_system"`
	IncludeOuter bool    `yaml:"include_outer"`
	DashaCount   int     `yaml:"dasha_count"`
	Latitude     float64 `yaml:"latitude"`
	Longitude    float64 `yaml:"longitude"`
	Place        string  `yaml:"place"`
}

// EphemerisConfig selects and tunes the ephemeris source.
type EphemerisConfig struct {
	Mode         string        `yaml:"mode"`
	HorizonsURL  string        `yaml:"horizons_url"`
	Timeout      time.Duration `yaml:"timeout"`
	RateLimit    float64       `yaml:"rate_limit"` // requests per second, 0 disables
	SnapshotPath string        `yaml:"snapshot_path"`
}

// LoggingConfig mirrors logging.Options.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	Output     string `yaml:"output"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxAgeDays int    `yaml:"max_age_days"`
	MaxBackups int    `yaml:"max_backups"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// TransitsConfig configures the live transit tracker.
type TransitsConfig struct {
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	MaxEvents       int           `yaml:"max_events"`
}

// BatchConfig configures batch chart runs.
type BatchConfig struct {
	Workers int `yaml:"workers"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Chart: ChartConfig{
			Ayanamsa:    astro.KPNewcomb.Name,
			HouseSystem: ephem.Placidus.String(),
			DashaCount:  9,
		},
		Ephemeris: EphemerisConfig{
			Mode:        ephem.ModeHorizons.String(),
			HorizonsURL: ephem.HorizonsAPIURL,
			Timeout:     ephem.RequestTimeout,
			RateLimit:   ephem.DefaultRequestsPerSecond,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  50,
			MaxAgeDays: 14,
			MaxBackups: 3,
		},
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 60 * time.Second,
		},
		Transits: TransitsConfig{
			RefreshInterval: 5 * time.Minute,
			MaxEvents:       50,
		},
		Batch: BatchConfig{
			Workers: 4,
		},
	}
}

// Load reads the YAML file at path over the defaults, applies environment
// overrides and validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnv(os.Getenv)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// applyEnv overrides file values with non-empty environment variables.
func (c *Config) applyEnv(getenv func(string) string) {
	set := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	set("KP_AYANAMSA", &c.Chart.Ayanamsa)
	set("KP_HOUSE_SYSTEM", &c.Chart.HouseSystem)
	set("KP_LOG_LEVEL", &c.Logging.Level)
	set("HORIZONS_URL", &c.Ephemeris.HorizonsURL)
	set("KP_EPHEMERIS_MODE", &c.Ephemeris.Mode)
	set("KP_SNAPSHOT", &c.Ephemeris.SnapshotPath)
}

// Validate checks every field that has a constrained value.
func (c *Config) Validate() error {
	if _, err := astro.ParseAyanamsa(c.Chart.Ayanamsa); err != nil {
		return fmt.Errorf("chart.ayanamsa: %w", err)
	}
	if _, err := ephem.ParseHouseSystem(c.Chart.HouseSystem); err != nil {
		return fmt.Errorf("chart.house_system: %w", err)
	}
	if c.Chart.DashaCount < 0 {
		return errors.New("chart.dasha_count must not be negative")
	}
	if c.Chart.Latitude < -90 || c.Chart.Latitude > 90 {
		return errors.New("chart.latitude must be within [-90, 90]")
	}
	if c.Chart.Longitude < -180 || c.Chart.Longitude > 180 {
		return errors.New("chart.longitude must be within [-180, 180]")
	}

	mode, err := ephem.ParseMode(c.Ephemeris.Mode)
	if err != nil {
		return fmt.Errorf("ephemeris.mode: %w", err)
	}
	if mode == ephem.ModeSnapshot && c.Ephemeris.SnapshotPath == "" {
		return errors.New("ephemeris.snapshot_path is required in snapshot mode")
	}
	if mode == ephem.ModeHorizons && c.Ephemeris.HorizonsURL == "" {
		return errors.New("ephemeris.horizons_url is required in horizons mode")
	}
	if c.Ephemeris.Timeout <= 0 {
		return errors.New("ephemeris.timeout must be greater than 0")
	}
	if c.Ephemeris.RateLimit < 0 {
		return errors.New("ephemeris.rate_limit must not be negative")
	}

	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format '%s' is invalid (want text or json)", c.Logging.Format)
	}

	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	if c.Transits.RefreshInterval < time.Second {
		return errors.New("transits.refresh_interval must be at least 1s")
	}
	if c.Transits.MaxEvents <= 0 {
		return errors.New("transits.max_events must be greater than 0")
	}
	if c.Batch.Workers <= 0 {
		return errors.New("batch.workers must be greater than 0")
	}
	return nil
}

// Ayanamsa returns the parsed chart ayanamsa. Call after Validate.
func (c *Config) Ayanamsa() astro.Ayanamsa {
	a, _ := astro.ParseAyanamsa(c.Chart.Ayanamsa)
	return a
}

// HouseSystem returns the parsed chart house system. Call after Validate.
func (c *Config) HouseSystem() ephem.HouseSystem {
	h, _ := ephem.ParseHouseSystem(c.Chart.HouseSystem)
	return h
}

// Mode returns the parsed ephemeris mode. Call after Validate.
func (c *Config) Mode() ephem.Mode {
	m, _ := ephem.ParseMode(c.Ephemeris.Mode)
	return m
}

// Observer returns the default observing site.
func (c *Config) Observer() astro.Observer {
	return astro.Observer{LatDeg: c.Chart.Latitude, LonDeg: c.Chart.Longitude, Name: c.Chart.Place}
}

// LoggingOptions converts the logging section for logging.Configure.
func (c *Config) LoggingOptions() logging.Options {
	return logging.Options{
		Level:      logging.ParseLevel(c.Logging.Level),
		Format:     c.Logging.Format,
		Output:     c.Logging.Output,
		MaxSizeMB:  c.Logging.MaxSizeMB,
		MaxAgeDays: c.Logging.MaxAgeDays,
		MaxBackups: c.Logging.MaxBackups,
	}
}
