package config

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/packship/packship/internal/constants"
	"github.com/packship/packship/internal/errors"
)

// configFileName is the name of both the global and project config files.
const configFileName = "config.yaml"

// newViperInstance creates a new Viper instance with standard packship
// configuration: defaults, the PACKSHIP_ env prefix and key replacer.
func newViperInstance() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("PACKSHIP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// viperDecoderOption enables duration string parsing ("5m") and slice
// decoding from comma-separated environment values.
func viperDecoderOption() viper.DecoderConfigOption {
	return viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
}

// isConfigNotFoundError returns true if the error is a viper config file
// not found error.
func isConfigNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	var notFound viper.ConfigFileNotFoundError
	return stderrors.As(err, &notFound)
}

// Load reads configuration from all available sources with proper precedence.
// Configuration is loaded in the following order (highest precedence first):
//  1. Environment variables (PACKSHIP_* prefix)
//  2. Project config (.packship/config.yaml)
//  3. Global config (~/.packship/config.yaml)
//  4. Built-in defaults
//
// Missing config files are expected and are not an error.
func Load(ctx context.Context) (*Config, error) {
	v := newViperInstance()

	// Global config first (lower precedence), project config merged over it.
	if err := loadGlobalConfig(v); err != nil {
		return nil, err
	}
	if err := loadProjectConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viperDecoderOption()); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	logger := zerolog.Ctx(ctx).With().Str("component", "config").Logger()
	logger.Debug().
		Str("build.output_dir", cfg.Build.OutputDir).
		Int("index.port", cfg.Index.Port).
		Dur("checks.timeout", cfg.Checks.Timeout).
		Msg("configuration loaded and unmarshaled")

	if err := Validate(&cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return &cfg, nil
}

// loadGlobalConfig attempts to load the global config file
// (~/.packship/config.yaml). Returns nil if the file doesn't exist or the
// home directory cannot be determined.
func loadGlobalConfig(v *viper.Viper) error {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil //nolint:nilerr // no home dir means no global config, not a failure
	}

	path := filepath.Join(home, constants.PackshipHome, configFileName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil && !isConfigNotFoundError(err) {
		return errors.Wrapf(err, "failed to read global config %s", path)
	}
	return nil
}

// loadProjectConfig attempts to load the project config file
// (.packship/config.yaml in the working directory), merging it over any
// global config already loaded.
func loadProjectConfig(v *viper.Viper) error {
	path := filepath.Join(constants.ProjectConfigDir, configFileName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	v.SetConfigFile(path)
	if err := v.MergeInConfig(); err != nil && !isConfigNotFoundError(err) {
		return errors.Wrapf(err, "failed to read project config %s", path)
	}
	return nil
}

// EnvDir resolves the editable install environment directory: the
// configured value, or ~/.packship/env when unset.
func (c *Config) EnvDir() (string, error) {
	if c.Dev.EnvDir != "" {
		return c.Dev.EnvDir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get user home directory")
	}
	return filepath.Join(home, constants.PackshipHome, constants.EnvDir), nil
}
