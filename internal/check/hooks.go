package check

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/packship/packship/internal/errors"
)

// hookMarker identifies hook scripts written by packship so reinstalling
// overwrites only our own wrappers.
const hookMarker = "# PACKSHIP_HOOK"

// GitHookStage names a git hook the checker integrates with.
type GitHookStage string

const (
	// HookPreCommit runs format and lint before each commit.
	HookPreCommit GitHookStage = "pre-commit"
	// HookPrePush runs the full check set before each push.
	HookPrePush GitHookStage = "pre-push"
	// HookCommitMsg validates the commit message.
	HookCommitMsg GitHookStage = "commit-msg"
)

// hookCommand maps each git hook to the packship invocation it runs.
func hookCommand(stage GitHookStage) string {
	switch stage {
	case HookPreCommit:
		return "packship check --stage format --stage lint"
	case HookPrePush:
		return "packship check"
	case HookCommitMsg:
		return "packship check --stage lint"
	default:
		return "packship check"
	}
}

// GenerateHookScript returns the wrapper script for one git hook stage.
// The script fails the git operation when the checks fail.
func GenerateHookScript(stage GitHookStage) string {
	return fmt.Sprintf(`#!/bin/sh
%s
# Installed by packship; reinstalling overwrites this file.
exec %s
`, hookMarker, hookCommand(stage))
}

// InstallHooks writes the hook wrappers into the repository's .git/hooks
// directory. Existing hooks not written by packship are left untouched and
// reported as an error instead of being clobbered.
func InstallHooks(ctx context.Context, repoDir string) error {
	log := zerolog.Ctx(ctx)

	hooksDir := filepath.Join(repoDir, ".git", "hooks")
	if _, err := os.Stat(filepath.Join(repoDir, ".git")); os.IsNotExist(err) {
		return errors.Wrapf(errors.ErrNotInGitRepo, "no .git in %s", repoDir)
	}
	if err := os.MkdirAll(hooksDir, 0o750); err != nil {
		return errors.Wrap(err, "failed to create hooks directory")
	}

	for _, stage := range []GitHookStage{HookPreCommit, HookPrePush, HookCommitMsg} {
		path := filepath.Join(hooksDir, string(stage))

		if existing, err := os.ReadFile(path); err == nil { // #nosec G304 -- path is inside the repo's hooks dir
			if !strings.Contains(string(existing), hookMarker) {
				return errors.Wrapf(errors.ErrHookFailed,
					"%s hook already exists and was not installed by packship", stage)
			}
		}

		if err := os.WriteFile(path, []byte(GenerateHookScript(stage)), 0o750); err != nil { // #nosec G306 -- hooks must be executable
			return errors.Wrapf(err, "failed to install %s hook", stage)
		}
		log.Info().Str("hook", string(stage)).Msg("installed git hook")
	}
	return nil
}

