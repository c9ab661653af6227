package config

import (
	"github.com/spf13/viper"

	"github.com/packship/packship/internal/constants"
)

// DefaultConfig returns a new Config with sensible default values.
// These defaults are used as the base layer that can be overridden by
// config files, environment variables, and CLI flags.
func DefaultConfig() *Config {
	return &Config{
		Build: BuildConfig{
			// OutputDir: conventional distribution directory.
			OutputDir: constants.DefaultOutputDir,
		},
		Index: IndexConfig{
			// Host: loopback by default. The index carries dev credentials,
			// so exposing it beyond the machine is an explicit choice.
			Host: constants.DefaultIndexHost,

			// Port: fixed so the Makefile/CI targets can hardcode the URL.
			Port: constants.DefaultIndexPort,

			PackagesDir: constants.DefaultPackagesDir,

			Username: constants.DefaultIndexUsername,

			// Password: empty selects an ephemeral per-run password.
			Password: "",
		},
		Publish: PublishConfig{
			Timeout: constants.DefaultPublishTimeout,
		},
		Checks: ChecksConfig{
			Timeout: constants.DefaultCheckTimeout,
		},
		Test: TestConfig{
			Timeout: constants.DefaultTestTimeout,
		},
		Dev: DevConfig{
			// EnvDir: empty means ~/.packship/env, resolved at use time so
			// config files stay relocatable.
			EnvDir: "",
		},
	}
}

// setDefaults registers default values on a Viper instance so they
// participate in precedence resolution.
func setDefaults(v *viper.Viper) {
	cfg := DefaultConfig()

	v.SetDefault("build.output_dir", cfg.Build.OutputDir)
	v.SetDefault("build.with_subprojects", cfg.Build.WithSubprojects)

	v.SetDefault("index.host", cfg.Index.Host)
	v.SetDefault("index.port", cfg.Index.Port)
	v.SetDefault("index.packages_dir", cfg.Index.PackagesDir)
	v.SetDefault("index.username", cfg.Index.Username)

	v.SetDefault("publish.timeout", cfg.Publish.Timeout)

	v.SetDefault("checks.timeout", cfg.Checks.Timeout)
	v.SetDefault("test.timeout", cfg.Test.Timeout)
}
