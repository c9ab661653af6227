// Package config provides configuration management for packship with layered precedence.
//
// Configuration sources are loaded in the following order (highest precedence first):
//  1. Environment variables (PACKSHIP_ prefix)
//  2. Project config (.packship/config.yaml)
//  3. Global config (~/.packship/config.yaml)
//  4. Built-in defaults
//
// CLI flags override individual fields after Load, in the command layer.
//
// Each higher level completely overrides the lower level for the same key.
//
// IMPORTANT: This package may import internal/constants and internal/errors,
// but MUST NOT import other internal packages.
package config

import "time"

// Config is the root configuration structure for packship.
type Config struct {
	// Build contains settings for artifact building.
	Build BuildConfig `yaml:"build" mapstructure:"build"`

	// Index contains settings for the local package index server.
	Index IndexConfig `yaml:"index" mapstructure:"index"`

	// Publish contains settings for publishing to a remote registry.
	Publish PublishConfig `yaml:"publish" mapstructure:"publish"`

	// Checks contains the pre-flight check commands.
	Checks ChecksConfig `yaml:"checks" mapstructure:"checks"`

	// Test contains settings for test execution.
	Test TestConfig `yaml:"test" mapstructure:"test"`

	// Dev contains settings for editable installs.
	Dev DevConfig `yaml:"dev" mapstructure:"dev"`
}

// BuildConfig contains settings for artifact building.
type BuildConfig struct {
	// OutputDir is where built artifacts are written.
	// Default: "dist"
	OutputDir string `yaml:"output_dir" mapstructure:"output_dir"`

	// WithSubprojects also builds each manifest-declared subproject.
	// Default: false
	WithSubprojects bool `yaml:"with_subprojects" mapstructure:"with_subprojects"`
}

// IndexConfig contains settings for the local package index server.
type IndexConfig struct {
	// Host is the interface the index binds to.
	// Default: 127.0.0.1; use 0.0.0.0 to expose beyond the local machine.
	Host string `yaml:"host" mapstructure:"host"`

	// Port is the fixed port the index binds to.
	// Default: 8080
	Port int `yaml:"port" mapstructure:"port"`

	// PackagesDir is the directory served and uploaded into.
	// Default: "packages"
	PackagesDir string `yaml:"packages_dir" mapstructure:"packages_dir"`

	// Username is the local credential username.
	// Default: "packship"
	Username string `yaml:"username" mapstructure:"username"`

	// Password is the local credential password. Empty means a random
	// per-run password is generated, which is the recommended setting.
	Password string `yaml:"password,omitempty" mapstructure:"password"`
}

// PublishConfig contains settings for remote publishing. The credential
// pair is never configured here: it is read from the environment
// (PACKSHIP_PUBLISH_USERNAME / PACKSHIP_PUBLISH_PASSWORD).
type PublishConfig struct {
	// URL is the remote registry base URL.
	URL string `yaml:"url" mapstructure:"url"`

	// Timeout is the per-artifact upload timeout.
	// Default: 2 minutes
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// ChecksConfig contains the pre-flight check command lists by stage.
type ChecksConfig struct {
	// Format commands verify formatting without modifying files.
	Format []string `yaml:"format" mapstructure:"format"`

	// Lint commands run linters.
	Lint []string `yaml:"lint" mapstructure:"lint"`

	// Typecheck commands run static typing.
	Typecheck []string `yaml:"typecheck" mapstructure:"typecheck"`

	// Timeout is the per-command timeout.
	// Default: 5 minutes
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// TestConfig contains settings for test execution.
type TestConfig struct {
	// Command runs the plain test suite.
	Command string `yaml:"command" mapstructure:"command"`

	// CoverageCommand runs the suite with coverage and missing-line output.
	CoverageCommand string `yaml:"coverage_command" mapstructure:"coverage_command"`

	// ReportPath is where the machine-readable test report is written when
	// coverage mode is used with report capture (CI artifact).
	ReportPath string `yaml:"report_path" mapstructure:"report_path"`

	// Timeout is the test run timeout.
	// Default: 15 minutes
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// DevConfig contains settings for editable installs.
type DevConfig struct {
	// EnvDir is where link files are written. Empty means
	// ~/.packship/env.
	EnvDir string `yaml:"env_dir" mapstructure:"env_dir"`

	// Extras lists additional project paths to link during dev-install,
	// on top of the manifest's subprojects.
	Extras []string `yaml:"extras" mapstructure:"extras"`
}
