// Package errors provides centralized error handling for packship.
//
// This package defines sentinel errors used for programmatic error categorization
// throughout the application. All error types can be checked using errors.Is().
//
// IMPORTANT: This package MUST NOT import any other internal packages.
// Only standard library imports are allowed.
package errors

import "errors"

// Sentinel errors for error categorization.
// These allow callers to check error types with errors.Is().
// All errors use lowercase descriptions per Go conventions.
var (
	// ErrManifestInvalid indicates the project manifest is missing, malformed,
	// or fails validation (e.g., no package name). Fatal before any build step.
	ErrManifestInvalid = errors.New("invalid project manifest")

	// ErrBuild indicates a packaging step failed while producing artifacts.
	ErrBuild = errors.New("build failed")

	// ErrNoArtifacts indicates the output directory holds no artifacts when
	// at least one is required (e.g., before publishing).
	ErrNoArtifacts = errors.New("no artifacts in output directory")

	// ErrBind indicates the local index server could not bind its port.
	ErrBind = errors.New("index port unavailable")

	// ErrServerNotReady indicates the local index did not accept connections
	// within the readiness timeout.
	ErrServerNotReady = errors.New("index server not ready")

	// ErrAuth indicates the registry rejected the supplied credentials.
	ErrAuth = errors.New("registry authentication failed")

	// ErrNetwork indicates the registry target is unreachable.
	ErrNetwork = errors.New("registry unreachable")

	// ErrConflict indicates the registry already holds an artifact with the
	// same name and version. Policy is do-not-overwrite, surfaced as fatal.
	ErrConflict = errors.New("artifact already exists on registry")

	// ErrCheckFailed indicates a pre-flight check command (format, lint,
	// typecheck, test) exited non-zero. Blocks downstream publish.
	ErrCheckFailed = errors.New("check failed")

	// ErrHookFailed indicates a git hook stage failed.
	ErrHookFailed = errors.New("hook failed")

	// ErrCommandFailed indicates an external command execution failed.
	ErrCommandFailed = errors.New("command failed")

	// ErrLockHeld indicates another workflow run holds the build lock.
	ErrLockHeld = errors.New("build lock held by another run")

	// ErrLinkBroken indicates an editable install link does not resolve to a
	// live, parseable project.
	ErrLinkBroken = errors.New("editable install link broken")

	// ErrInvalidTransition indicates a workflow stage transition that the
	// state machine does not allow.
	ErrInvalidTransition = errors.New("invalid stage transition")

	// ErrWorkflowFailed indicates the workflow reached the Failed state.
	ErrWorkflowFailed = errors.New("workflow failed")

	// ErrConfigNil indicates a nil config was passed to validation.
	ErrConfigNil = errors.New("config is nil")

	// ErrConfigInvalidBuild indicates an invalid build configuration value.
	ErrConfigInvalidBuild = errors.New("invalid build configuration")

	// ErrConfigInvalidIndex indicates an invalid index configuration value.
	ErrConfigInvalidIndex = errors.New("invalid index configuration")

	// ErrConfigInvalidPublish indicates an invalid publish configuration value.
	ErrConfigInvalidPublish = errors.New("invalid publish configuration")

	// ErrConfigInvalidChecks indicates an invalid checks configuration value.
	ErrConfigInvalidChecks = errors.New("invalid checks configuration")

	// ErrInvalidOutputFormat indicates an invalid output format was specified.
	ErrInvalidOutputFormat = errors.New("invalid output format")

	// ErrMissingCredentials indicates the remote publish credentials are not
	// present in the environment.
	ErrMissingCredentials = errors.New("publish credentials not set")

	// ErrNotInGitRepo indicates a git repository is required but not found.
	ErrNotInGitRepo = errors.New("not in a git repository")

	// ErrEmptyValue indicates that a required value was empty.
	ErrEmptyValue = errors.New("value cannot be empty")
)
