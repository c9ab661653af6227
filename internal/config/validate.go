package config

import (
	"strings"

	"github.com/packship/packship/internal/errors"
)

// Validate checks the configuration for invalid or inconsistent values.
// It returns an error describing the first validation failure found.
//
// Validation rules:
//   - Build output directory must not be empty or the filesystem root
//   - Index port must be 0-65535 (0 selects an ephemeral port)
//   - Index host, packages directory and username must not be empty
//   - Publish URL, when set, must be http(s)
//   - Check and test timeouts must be positive
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.ErrConfigNil
	}

	if err := validateBuildConfig(&cfg.Build); err != nil {
		return err
	}
	if err := validateIndexConfig(&cfg.Index); err != nil {
		return err
	}
	if err := validatePublishConfig(&cfg.Publish); err != nil {
		return err
	}
	return validateChecksConfig(cfg)
}

func validateBuildConfig(cfg *BuildConfig) error {
	if cfg.OutputDir == "" {
		return errors.Wrap(errors.ErrConfigInvalidBuild,
			"build.output_dir must not be empty")
	}
	if cfg.OutputDir == "/" || cfg.OutputDir == "." {
		return errors.Wrapf(errors.ErrConfigInvalidBuild,
			"build.output_dir %q would be cleaned recursively", cfg.OutputDir)
	}
	return nil
}

func validateIndexConfig(cfg *IndexConfig) error {
	if cfg.Host == "" {
		return errors.Wrap(errors.ErrConfigInvalidIndex,
			"index.host must not be empty")
	}
	if cfg.Port < 0 || cfg.Port > 65535 {
		return errors.Wrapf(errors.ErrConfigInvalidIndex,
			"index.port must be 0-65535, got %d", cfg.Port)
	}
	if cfg.PackagesDir == "" {
		return errors.Wrap(errors.ErrConfigInvalidIndex,
			"index.packages_dir must not be empty")
	}
	if cfg.Username == "" {
		return errors.Wrap(errors.ErrConfigInvalidIndex,
			"index.username must not be empty")
	}
	return nil
}

func validatePublishConfig(cfg *PublishConfig) error {
	if cfg.URL != "" && !strings.HasPrefix(cfg.URL, "http://") && !strings.HasPrefix(cfg.URL, "https://") {
		return errors.Wrapf(errors.ErrConfigInvalidPublish,
			"publish.url must be http(s), got %q", cfg.URL)
	}
	if cfg.Timeout <= 0 {
		return errors.Wrapf(errors.ErrConfigInvalidPublish,
			"publish.timeout must be positive, got %s", cfg.Timeout)
	}
	return nil
}

func validateChecksConfig(cfg *Config) error {
	if cfg.Checks.Timeout <= 0 {
		return errors.Wrapf(errors.ErrConfigInvalidChecks,
			"checks.timeout must be positive, got %s", cfg.Checks.Timeout)
	}
	if cfg.Test.Timeout <= 0 {
		return errors.Wrapf(errors.ErrConfigInvalidChecks,
			"test.timeout must be positive, got %s", cfg.Test.Timeout)
	}
	return nil
}
