package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is used when neither -config nor MARKETPULSE_CONFIG is given.
const DefaultPath = "config/marketpulse.yaml"

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the MarketPulse dashboard and its
// development stub.
type Config struct {
	API       API       `yaml:"api"`
	Dashboard Dashboard `yaml:"dashboard"`
	Logging   Logging   `yaml:"logging"`
	Stub      Stub      `yaml:"stub"`
}

// API locates the sentiment API.
type API struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// Dashboard controls fetch behaviour of the terminal dashboard.
type Dashboard struct {
	InitialSymbol      string        `yaml:"initial_symbol"`
	RefreshMinInterval time.Duration `yaml:"refresh_min_interval"`
	StaleAfter         time.Duration `yaml:"stale_after"`
}

// Logging configures the application logger. An empty File sends the
// dashboard log to a dated file in the temp dir.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// Stub configures the development stub of the sentiment API.
type Stub struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	FixturesDir string `yaml:"fixtures_dir"`
}

// Addr returns host:port for the stub listener.
func (s Stub) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		API: API{
			BaseURL: "http://localhost:8000/api",
			Timeout: 30 * time.Second,
		},
		Dashboard: Dashboard{
			RefreshMinInterval: 2 * time.Second,
			StaleAfter:         5 * time.Minute,
		},
		Logging: Logging{
			Level:  "info",
			Format: "text",
		},
		Stub: Stub{
			Host:        "127.0.0.1",
			Port:        8000,
			FixturesDir: "fixtures",
		},
	}
}

// Load reads the YAML configuration file at the given path over the defaults,
// and then applies environment variable overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Resolve picks the config path (flag, then MARKETPULSE_CONFIG, then
// DefaultPath) and loads it. A missing file at DefaultPath is not an error:
// defaults plus environment overrides are returned instead.
func Resolve(flagPath string) (*Config, error) {
	path := flagPath
	if path == "" {
		path = os.Getenv("MARKETPULSE_CONFIG")
	}
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	cfg, err := Load(path)
	if err == nil {
		return cfg, nil
	}
	if explicit || !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	cfg = Default()
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("VITE_API_BASE_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	// Canonical name wins over the legacy frontend variable.
	if v := os.Getenv("MARKETPULSE_API_BASE_URL"); v != "" {
		cfg.API.BaseURL = v
	}

	if v := os.Getenv("MARKETPULSE_API_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("MARKETPULSE_API_TIMEOUT: %w", err)
		}
		cfg.API.Timeout = d
	}

	if v := os.Getenv("MARKETPULSE_SYMBOL"); v != "" {
		cfg.Dashboard.InitialSymbol = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	if v := os.Getenv("MARKETPULSE_FIXTURES_DIR"); v != "" {
		cfg.Stub.FixturesDir = v
	}

	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PORT: %w", err)
		}
		cfg.Stub.Port = port
	}
	return nil
}
