// Package config loads runtime configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the settings for morning-cli. Environment variables use
// the MORNING_ prefix, e.g. MORNING_LISTEN. The database and catalog
// paths are CLI flags (with their own MORNING_DB/MORNING_CATALOG
// bindings), not config fields.
type Config struct {
	ListenAddr string `envconfig:"LISTEN" default:":8080"`

	// Coordinates for the weather lookup. Defaults to Seoul.
	WeatherLatitude  float64       `envconfig:"WEATHER_LATITUDE" default:"37.5665"`
	WeatherLongitude float64       `envconfig:"WEATHER_LONGITUDE" default:"126.9780"`
	WeatherTimeout   time.Duration `envconfig:"WEATHER_TIMEOUT" default:"5s"`
}

// Load reads configuration from the environment.
func Load() (Config, error) {
	var c Config
	if err := envconfig.Process("morning", &c); err != nil {
		return Config{}, fmt.Errorf("failed to load configuration: %w", err)
	}
	return c, nil
}
