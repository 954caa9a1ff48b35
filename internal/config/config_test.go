package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "both", cfg.Logging.Output)
	assert.Equal(t, "logs/run.log", cfg.Logging.FilePath)
	assert.False(t, cfg.Tracing.Enabled)
	assert.Equal(t, "data", cfg.Paths.DataDir)
	assert.Equal(t, "configs", cfg.Paths.ConfigsDir)
	assert.Equal(t, "logs", cfg.Paths.LogsDir)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("SHIFT_LOGGING_LEVEL", "debug")
	t.Setenv("SHIFT_LOGGING_OUTPUT", "console")
	t.Setenv("SHIFT_TRACING_ENABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Output)
	assert.True(t, cfg.Tracing.Enabled)
	// Untouched fields keep their defaults.
	assert.Equal(t, "data", cfg.Paths.DataDir)
}

func TestLoadRejectsInvalidLevel(t *testing.T) {
	t.Setenv("SHIFT_LOGGING_LEVEL", "verbose")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestMergePrecedence(t *testing.T) {
	file := Config{}
	file.Logging.Level = "debug"
	file.Logging.Output = "file"
	file.Paths.DataDir = "filedata"

	env := Config{}
	env.Logging.Level = "warn"

	merged := merge(file, env)

	// Environment wins where set, the file fills the rest.
	assert.Equal(t, "warn", merged.Logging.Level)
	assert.Equal(t, "file", merged.Logging.Output)
	assert.Equal(t, "filedata", merged.Paths.DataDir)
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.Logging.Format = "text"

	applyDefaults(&cfg)

	assert.Equal(t, "info", cfg.Logging.Level)
	// JSON is the only supported format, whatever was configured.
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "both", cfg.Logging.Output)
	assert.Equal(t, "logs/trace.jsonl", cfg.Tracing.FilePath)
	assert.Equal(t, "data", cfg.Paths.DataDir)
}
