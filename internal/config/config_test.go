package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/litescript/ls-kp/internal/astro"
	"github.com/litescript/ls-kp/internal/ephem"
)

// writeTempConfig writes content to a config file in a test directory.
func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ls-kp.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"KP_AYANAMSA", "KP_HOUSE_SYSTEM", "KP_LOG_LEVEL", "HORIZONS_URL", "KP_EPHEMERIS_MODE", "KP_SNAPSHOT"} {
		t.Setenv(k, "")
	}
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	if cfg.Ayanamsa() != astro.KPNewcomb || cfg.HouseSystem() != ephem.Placidus || cfg.Mode() != ephem.ModeHorizons {
		t.Errorf("defaults = %v %v %v", cfg.Ayanamsa(), cfg.HouseSystem(), cfg.Mode())
	}
}

func TestLoad(t *testing.T) {
	clearEnv(t)
	path := writeTempConfig(t, `chart:
  ayanamsa: kp-reference
  house_system: porphyry
  latitude: 13.0827
  longitude: 80.2707
  place: Chennai
ephemeris:
  timeout: 5s
logging:
  level: debug
  format: json
transits:
  refresh_interval: 1m
batch:
  workers: 8
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Ayanamsa() != astro.KPReference {
		t.Errorf("ayanamsa = %v", cfg.Ayanamsa())
	}
	if cfg.HouseSystem() != ephem.Porphyry {
		t.Errorf("house system = %v", cfg.HouseSystem())
	}
	if obs := cfg.Observer(); obs.Name != "Chennai" || obs.LatDeg != 13.0827 {
		t.Errorf("observer = %+v", obs)
	}
	if cfg.Ephemeris.Timeout != 5*time.Second || cfg.Transits.RefreshInterval != time.Minute {
		t.Errorf("durations = %v, %v", cfg.Ephemeris.Timeout, cfg.Transits.RefreshInterval)
	}
	// Unset sections keep their defaults.
	if cfg.Server.Addr != ":8080" || cfg.Chart.DashaCount != 9 {
		t.Errorf("defaults lost: addr %q, dasha count %d", cfg.Server.Addr, cfg.Chart.DashaCount)
	}
	if opts := cfg.LoggingOptions(); opts.Format != "json" || opts.Level.String() != "DEBUG" {
		t.Errorf("logging options = %+v", opts)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("KP_AYANAMSA", "23.5")
	t.Setenv("KP_HOUSE_SYSTEM", "W")
	t.Setenv("KP_EPHEMERIS_MODE", "snapshot")
	t.Setenv("KP_SNAPSHOT", "testdata/chart.yaml")

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Ayanamsa().Degrees != 23.5 || cfg.HouseSystem() != ephem.WholeSign {
		t.Errorf("chart = %v %v", cfg.Ayanamsa(), cfg.HouseSystem())
	}
	if cfg.Mode() != ephem.ModeSnapshot || cfg.Ephemeris.SnapshotPath != "testdata/chart.yaml" {
		t.Errorf("ephemeris = %+v", cfg.Ephemeris)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		edit    func(*Config)
		wantErr string
	}{
		{"bad ayanamsa", func(c *Config) { c.Chart.Ayanamsa = "lahiri-ish" }, "chart.ayanamsa"},
		{"bad house system", func(c *Config) { c.Chart.HouseSystem = "koch" }, "chart.house_system"},
		{"negative dasha count", func(c *Config) { c.Chart.DashaCount = -1 }, "chart.dasha_count"},
		{"latitude", func(c *Config) { c.Chart.Latitude = 95 }, "chart.latitude"},
		{"bad mode", func(c *Config) { c.Ephemeris.Mode = "swiss" }, "ephemeris.mode"},
		{"snapshot without path", func(c *Config) { c.Ephemeris.Mode = "snapshot" }, "ephemeris.snapshot_path"},
		{"zero timeout", func(c *Config) { c.Ephemeris.Timeout = 0 }, "ephemeris.timeout"},
		{"log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"fast refresh", func(c *Config) { c.Transits.RefreshInterval = time.Millisecond }, "transits.refresh_interval"},
		{"no workers", func(c *Config) { c.Batch.Workers = 0 }, "batch.workers"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.edit(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error mentioning %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := Load(writeTempConfig(t, "chart: [not, a, map]")); err == nil {
		t.Error("expected parse error")
	}
	if _, err := Load(writeTempConfig(t, "batch:\n  workers: -2\n")); err == nil {
		t.Error("expected validation error")
	}
}
