package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packship/packship/internal/config"
	"github.com/packship/packship/internal/errors"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	assert.Equal(t, "dist", cfg.Build.OutputDir)
	assert.Equal(t, "127.0.0.1", cfg.Index.Host)
	assert.Equal(t, 8080, cfg.Index.Port)
	assert.Equal(t, "packages", cfg.Index.PackagesDir)
	assert.Equal(t, "packship", cfg.Index.Username)
	assert.Empty(t, cfg.Index.Password, "default must select an ephemeral password")
	assert.Positive(t, cfg.Checks.Timeout)
	assert.Positive(t, cfg.Test.Timeout)
	require.NoError(t, config.Validate(cfg))
}

func TestLoad(t *testing.T) {
	// Not parallel: Load reads the working directory and environment.

	t.Run("defaults without any config file", func(t *testing.T) {
		t.Chdir(t.TempDir())
		cfg, err := config.Load(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "dist", cfg.Build.OutputDir)
	})

	t.Run("project config overrides defaults", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(dir, ".packship"), 0o750))
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".packship", "config.yaml"), []byte(`
build:
  output_dir: build-out
index:
  port: 9999
checks:
  lint:
    - flake8 .
  timeout: 2m
`), 0o600))
		t.Chdir(dir)

		cfg, err := config.Load(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "build-out", cfg.Build.OutputDir)
		assert.Equal(t, 9999, cfg.Index.Port)
		assert.Equal(t, []string{"flake8 ."}, cfg.Checks.Lint)
		assert.Equal(t, 2*time.Minute, cfg.Checks.Timeout)
	})

	t.Run("environment overrides project config", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(dir, ".packship"), 0o750))
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".packship", "config.yaml"),
			[]byte("index:\n  port: 9999\n"), 0o600))
		t.Chdir(dir)
		t.Setenv("PACKSHIP_INDEX_PORT", "7777")

		cfg, err := config.Load(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 7777, cfg.Index.Port)
	})

	t.Run("invalid config values fail load", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(dir, ".packship"), 0o750))
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".packship", "config.yaml"),
			[]byte("index:\n  port: 123456\n"), 0o600))
		t.Chdir(dir)

		_, err := config.Load(context.Background())
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrConfigInvalidIndex)
	})
}

func TestValidate(t *testing.T) {
	t.Parallel()

	mutate := func(f func(*config.Config)) *config.Config {
		cfg := config.DefaultConfig()
		f(cfg)
		return cfg
	}

	tests := []struct {
		name    string
		cfg     *config.Config
		wantErr error
	}{
		{
			name:    "nil config",
			cfg:     nil,
			wantErr: errors.ErrConfigNil,
		},
		{
			name:    "empty output dir",
			cfg:     mutate(func(c *config.Config) { c.Build.OutputDir = "" }),
			wantErr: errors.ErrConfigInvalidBuild,
		},
		{
			name:    "dot output dir",
			cfg:     mutate(func(c *config.Config) { c.Build.OutputDir = "." }),
			wantErr: errors.ErrConfigInvalidBuild,
		},
		{
			name:    "port out of range",
			cfg:     mutate(func(c *config.Config) { c.Index.Port = 70000 }),
			wantErr: errors.ErrConfigInvalidIndex,
		},
		{
			name:    "empty username",
			cfg:     mutate(func(c *config.Config) { c.Index.Username = "" }),
			wantErr: errors.ErrConfigInvalidIndex,
		},
		{
			name:    "non-http publish url",
			cfg:     mutate(func(c *config.Config) { c.Publish.URL = "ftp://registry" }),
			wantErr: errors.ErrConfigInvalidPublish,
		},
		{
			name:    "zero checks timeout",
			cfg:     mutate(func(c *config.Config) { c.Checks.Timeout = 0 }),
			wantErr: errors.ErrConfigInvalidChecks,
		},
		{
			name: "valid https publish url",
			cfg:  mutate(func(c *config.Config) { c.Publish.URL = "https://registry.example.com" }),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := config.Validate(tt.cfg)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEnvDir(t *testing.T) {
	t.Parallel()

	t.Run("configured value wins", func(t *testing.T) {
		t.Parallel()
		cfg := config.DefaultConfig()
		cfg.Dev.EnvDir = "/custom/env"
		dir, err := cfg.EnvDir()
		require.NoError(t, err)
		assert.Equal(t, "/custom/env", dir)
	})

	t.Run("falls back to home", func(t *testing.T) {
		t.Parallel()
		cfg := config.DefaultConfig()
		dir, err := cfg.EnvDir()
		require.NoError(t, err)
		assert.Contains(t, dir, ".packship")
	})
}
