package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Overrides carries command-line values that take priority over the file.
// Nil fields leave the loaded value untouched.
type Overrides struct {
	Latitude    *float64
	Longitude   *float64
	Zoom        *int
	Dimension   *int
	Concurrency *int
	MapboxToken *string
	Debug       bool
}

// Load loads configuration with priority: defaults < file < overrides.
// An empty path falls back to FindConfigFile.
func Load(path string, o Overrides) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = FindConfigFile()
	}
	if path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", path, err)
		}
	}

	applyOverrides(cfg, o)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyOverrides applies CLI overrides to the config.
func applyOverrides(cfg *Config, o Overrides) {
	if o.Latitude != nil {
		cfg.Grid.Latitude = *o.Latitude
	}
	if o.Longitude != nil {
		cfg.Grid.Longitude = *o.Longitude
	}
	if o.Zoom != nil {
		cfg.Grid.Zoom = *o.Zoom
	}
	if o.Dimension != nil {
		cfg.Grid.Dimension = *o.Dimension
	}
	if o.Concurrency != nil {
		cfg.Grid.Concurrency = *o.Concurrency
	}
	if o.MapboxToken != nil {
		cfg.Sources.MapboxToken = *o.MapboxToken
	}
	if o.Debug {
		cfg.Logging.Level = "debug"
	}
}

// FindConfigFile looks for config in standard locations.
func FindConfigFile() string {
	candidates := []string{
		"./terrarium.yaml",
		filepath.Join(ConfigDir(), "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the OS-appropriate config directory.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "Terrarium")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "Terrarium")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "terrarium")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "terrarium")
	}
}

// loadFromFile loads config from a YAML file, merging with existing values.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}
