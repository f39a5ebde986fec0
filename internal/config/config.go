// Package config reads the compiler CLI's environment-variable
// configuration. Grounded on the teacher's internal/config.Config:
// same getEnv helper and Load/validate shape, trimmed to the handful of
// string settings a query compiler actually needs.
package config

import (
	"fmt"
	"os"
)

// Config holds the compiler CLI's configuration.
type Config struct {
	// FieldsPath is the path to the JSON field-metadata schema file.
	FieldsPath string
	// DefaultField is the field an atom with no recognized field prefix
	// binds to.
	DefaultField string
	// Environment selects development vs. production logging behavior.
	Environment string
	// LogLevel is one of debug, info, warn, error.
	LogLevel string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		FieldsPath:   getEnv("SEARCHQL_FIELDS_PATH", ""),
		DefaultField: getEnv("SEARCHQL_DEFAULT_FIELD", "name"),
		Environment:  getEnv("SEARCHQL_ENV", "development"),
		LogLevel:     getEnv("SEARCHQL_LOG_LEVEL", "info"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.DefaultField == "" {
		return fmt.Errorf("SEARCHQL_DEFAULT_FIELD must not be empty")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
