// Package constants provides centralized constant values used throughout packship.
// This package is the single source of truth for all shared constants and MUST NOT
// import any other internal packages.
package constants

import "time"

// File names used by packship.
const (
	// ManifestFileName is the project manifest at the repository root.
	ManifestFileName = "packship.yaml"

	// MetadataFileName is the generated metadata file embedded in built archives.
	MetadataFileName = "METADATA.yaml"

	// LockFileName is the advisory lock guarding the build output directory.
	LockFileName = "build.lock"

	// CLILogFileName is the rotating log file under the packship home directory.
	CLILogFileName = "packship.log"
)

// Directory names and paths used by packship for organizing data.
const (
	// PackshipHome is the hidden directory name where packship stores its data.
	// This directory is created in the user's home directory.
	PackshipHome = ".packship"

	// ProjectConfigDir is the per-project configuration directory.
	ProjectConfigDir = ".packship"

	// LogsDir is the directory name where log files are stored.
	LogsDir = "logs"

	// EnvDir is the directory name where editable install links are stored.
	EnvDir = "env"

	// DefaultOutputDir is the default artifact output directory.
	DefaultOutputDir = "dist"

	// DefaultPackagesDir is the directory the local index serves and
	// accepts uploads into.
	DefaultPackagesDir = "packages"
)

// Local index server defaults.
const (
	// DefaultIndexPort is the fixed port the local index binds to.
	DefaultIndexPort = 8080

	// DefaultIndexHost is the loopback address the local index binds to.
	// Use 0.0.0.0 explicitly to expose the index beyond the local machine.
	DefaultIndexHost = "127.0.0.1"

	// DefaultIndexUsername is the username for the local dev credential pair.
	// The password half is generated per run unless configured explicitly.
	DefaultIndexUsername = "packship"
)

// Timeout configurations for various operations.
const (
	// DefaultCheckTimeout is the maximum duration for a single check command
	// (format, lint, typecheck).
	DefaultCheckTimeout = 5 * time.Minute

	// DefaultTestTimeout is the maximum duration for the test suite.
	DefaultTestTimeout = 15 * time.Minute

	// DefaultPublishTimeout is the per-artifact upload timeout.
	DefaultPublishTimeout = 2 * time.Minute

	// IndexReadyTimeout bounds how long the orchestrator waits for the
	// local index to accept connections before publishing to it.
	IndexReadyTimeout = 10 * time.Second

	// IndexReadyPollInterval is the poll cadence for the readiness wait.
	IndexReadyPollInterval = 50 * time.Millisecond
)

// Environment variable names for remote registry credentials.
const (
	// PublishUsernameEnv holds the remote registry username.
	PublishUsernameEnv = "PACKSHIP_PUBLISH_USERNAME"

	// PublishPasswordEnv holds the remote registry password.
	PublishPasswordEnv = "PACKSHIP_PUBLISH_PASSWORD"
)

// Log rotation settings for the CLI log file.
const (
	// LogMaxSizeMB is the maximum size of the log file before rotation.
	LogMaxSizeMB = 10

	// LogMaxBackups is the number of rotated log files to keep.
	LogMaxBackups = 3

	// LogMaxAgeDays is the maximum age of rotated log files.
	LogMaxAgeDays = 30

	// LogCompress enables gzip compression of rotated log files.
	LogCompress = true
)
