// Package config holds the archbuild CLI settings. Defaults are overridden
// by environment variables, which command-line flags override in turn.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Environment variables read by Load.
const (
	EnvLogLevel = "ARCHBUILD_LOG_LEVEL"
	EnvSeed     = "ARCHBUILD_SEED"
	EnvWorkers  = "ARCHBUILD_WORKERS"
)

// Config holds the CLI settings.
type Config struct {
	LogLevel slog.Level

	// Seed makes parameter initialisation and random inputs reproducible.
	// Nil means a fresh random seed per run.
	Seed *uint64

	// Workers bounds the goroutines used by convolution and pooling.
	// Zero means one per CPU.
	Workers int
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	c := &Config{LogLevel: slog.LevelInfo}

	if err := c.SetLogLevel(getEnv(EnvLogLevel, "info")); err != nil {
		return nil, fmt.Errorf("%s: %w", EnvLogLevel, err)
	}
	if value, ok := os.LookupEnv(EnvSeed); ok {
		if err := c.SetSeed(value); err != nil {
			return nil, fmt.Errorf("%s: %w", EnvSeed, err)
		}
	}

	if value, ok := os.LookupEnv(EnvWorkers); ok {
		if err := c.SetWorkers(value); err != nil {
			return nil, fmt.Errorf("%s: %w", EnvWorkers, err)
		}
	}

	return c, nil
}

// SetLogLevel parses a level name such as "debug" or "warn".
func (c *Config) SetLogLevel(name string) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(name))); err != nil {
		return err
	}
	c.LogLevel = level
	return nil
}

// SetSeed parses a decimal seed.
func (c *Config) SetSeed(value string) error {
	seed, err := strconv.ParseUint(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid seed %q: %w", value, err)
	}
	c.Seed = &seed
	return nil
}

// SetWorkers parses a non-negative worker count.
func (c *Config) SetWorkers(value string) error {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n < 0 {
		return fmt.Errorf("invalid worker count %q", value)
	}
	c.Workers = n
	return nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
