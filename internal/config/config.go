// Package config loads runtime settings from the environment.
package config

import "github.com/kelseyhightower/envconfig"

// Config holds the settings for the API server.
type Config struct {
	Env          string `envconfig:"ENV" default:"development"`
	Port         string `envconfig:"PORT" default:"8080"`
	DatabasePath string `envconfig:"DATABASE_PATH" default:"orders.db"`
	Debug        bool   `envconfig:"DEBUG" default:"false"`
}

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
