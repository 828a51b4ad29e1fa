package config

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(EnvLogLevel, "info")

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, c.LogLevel)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv(EnvLogLevel, "DEBUG")
	t.Setenv(EnvSeed, "42")
	t.Setenv(EnvWorkers, "3")

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, c.LogLevel)
	require.NotNil(t, c.Seed)
	assert.Equal(t, uint64(42), *c.Seed)
	assert.Equal(t, 3, c.Workers)
}

func TestLoad_InvalidEnvironment(t *testing.T) {
	t.Setenv(EnvLogLevel, "loud")
	_, err := Load()
	assert.ErrorContains(t, err, EnvLogLevel)

	t.Setenv(EnvLogLevel, "warn")
	t.Setenv(EnvSeed, "-1")
	_, err = Load()
	assert.ErrorContains(t, err, EnvSeed)

	t.Setenv(EnvSeed, "1")
	t.Setenv(EnvWorkers, "-2")
	_, err = Load()
	assert.ErrorContains(t, err, EnvWorkers)
}

func TestSetters(t *testing.T) {
	c := &Config{}

	require.NoError(t, c.SetLogLevel("error"))
	assert.Equal(t, slog.LevelError, c.LogLevel)

	require.NoError(t, c.SetSeed(" 7 "))
	assert.Equal(t, uint64(7), *c.Seed)

	assert.Error(t, c.SetSeed("seven"))

	require.NoError(t, c.SetWorkers("4"))
	assert.Equal(t, 4, c.Workers)
	assert.Error(t, c.SetWorkers("many"))
}
