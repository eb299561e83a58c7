// Package config handles terrain grid configuration loading and management.
package config

import (
	"fmt"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
)

// Config holds all terrain settings.
type Config struct {
	Grid    GridConfig    `yaml:"grid"`
	Mesh    MeshConfig    `yaml:"mesh"`
	Sources SourcesConfig `yaml:"sources"`
	Logging LoggingConfig `yaml:"logging"`
}

// GridConfig holds tile grid layout and scheduling settings.
type GridConfig struct {
	Latitude    float64 `yaml:"latitude" default:"45.8326" validate:"gte=-85.0511,lte=85.0511"`
	Longitude   float64 `yaml:"longitude" default:"6.8652" validate:"gte=-180,lte=180"`
	Zoom        int     `yaml:"zoom" default:"10" validate:"gte=0,lte=22"`
	Dimension   int     `yaml:"dimension" default:"4" validate:"gte=1,lte=16"` // tiles per side
	Concurrency int     `yaml:"concurrency" default:"8" validate:"gte=1,lte=64"`
}

// MeshConfig holds height field geometry settings.
type MeshConfig struct {
	TileSize      float64 `yaml:"tile_size" default:"600" validate:"gt=0"`
	VerticalScale float64 `yaml:"vertical_scale" default:"0.045" validate:"gt=0"`
	Wireframe     bool    `yaml:"wireframe" default:"true"`
}

// SourcesConfig holds raster service endpoints.
type SourcesConfig struct {
	ElevationBaseURL string        `yaml:"elevation_base_url" default:"https://s3.amazonaws.com/elevation-tiles-prod/terrarium" validate:"required,url"`
	SatelliteBaseURL string        `yaml:"satellite_base_url" default:"https://api.mapbox.com/v4/mapbox.satellite" validate:"omitempty,url"`
	OSMBaseURL       string        `yaml:"osm_base_url" default:"https://c.tile.openstreetmap.org" validate:"omitempty,url"`
	MapboxToken      string        `yaml:"mapbox_token"`
	Timeout          time.Duration `yaml:"timeout" default:"15s" validate:"gt=0"`
	UserAgent        string        `yaml:"user_agent" default:"terrarium/1.0"`
	CacheEntries     int           `yaml:"cache_entries" default:"256" validate:"gte=0"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
	LogFile string `yaml:"log_file"`
	JSON    bool   `yaml:"json"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		// tags are static; a failure here is a programming error
		panic(fmt.Sprintf("config defaults: %v", err))
	}
	return cfg
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks every field against its constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
