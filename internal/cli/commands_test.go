package cli

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packship/packship/internal/errors"
)

// setupProject creates a buildable project, isolates the packship home,
// and switches the working directory into the project.
func setupProject(t *testing.T, manifestYAML string) string {
	t.Helper()

	t.Setenv("HOME", t.TempDir())
	t.Setenv("PACKSHIP_HOME", t.TempDir())

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "packship.yaml"), []byte(manifestYAML), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "core.py"), []byte("VALUE = 1\n"), 0o600))
	t.Chdir(dir)
	return dir
}

// writeProjectConfig writes a .packship/config.yaml into the project.
func writeProjectConfig(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".packship"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".packship", "config.yaml"), []byte(content), 0o600))
}

const validManifest = "name: demo\nversion: 1.2.3\n"

func TestCleanCommand(t *testing.T) {
	dir := setupProject(t, validManifest)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "dist"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dist", "stale.txt"), []byte("x"), 0o600))

	_, err := executeCommand(t, "clean")
	require.NoError(t, err)
	assert.NoDirExists(t, filepath.Join(dir, "dist"))

	// Second clean succeeds with nothing to remove.
	_, err = executeCommand(t, "clean")
	require.NoError(t, err)
}

func TestBuildCommand(t *testing.T) {
	t.Run("produces both artifact formats", func(t *testing.T) {
		dir := setupProject(t, validManifest)

		out, err := executeCommand(t, "build")
		require.NoError(t, err)
		assert.Contains(t, out, "demo-1.2.3.tar.gz")
		assert.Contains(t, out, "demo-1.2.3.zip")
		assert.FileExists(t, filepath.Join(dir, "dist", "demo-1.2.3.tar.gz"))
		assert.FileExists(t, filepath.Join(dir, "dist", "demo-1.2.3.zip"))
	})

	t.Run("invalid manifest writes nothing", func(t *testing.T) {
		dir := setupProject(t, "version: 1.0.0\n") // missing name

		_, err := executeCommand(t, "build")
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrManifestInvalid)
		assert.Equal(t, ExitError, ExitCodeForError(err))
		assert.NoDirExists(t, filepath.Join(dir, "dist"))
	})

	t.Run("json output", func(t *testing.T) {
		setupProject(t, validManifest)

		out, err := executeCommand(t, "build", "--output", "json")
		require.NoError(t, err)

		var artifacts []map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &artifacts))
		assert.Len(t, artifacts, 2)
	})
}

func TestDevInstallCommand(t *testing.T) {
	dir := setupProject(t, validManifest)
	envDir := t.TempDir()
	writeProjectConfig(t, dir, "dev:\n  env_dir: "+envDir+"\n")

	out, err := executeCommand(t, "dev-install")
	require.NoError(t, err)
	assert.Contains(t, out, "linked demo")
	assert.FileExists(t, filepath.Join(envDir, "demo.link.yaml"))
}

func TestCheckCommand(t *testing.T) {
	t.Run("unknown stage rejected", func(t *testing.T) {
		setupProject(t, validManifest)

		_, err := executeCommand(t, "check", "--stage", "fuzz")
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrCheckFailed)
	})

	t.Run("passing checks", func(t *testing.T) {
		dir := setupProject(t, validManifest)
		writeProjectConfig(t, dir, "checks:\n  format:\n    - \"true\"\n  lint:\n    - \"true\"\n")

		out, err := executeCommand(t, "check")
		require.NoError(t, err)
		assert.Contains(t, out, "[format]")
		assert.Contains(t, out, "[lint]")
	})

	t.Run("failing check surfaces", func(t *testing.T) {
		dir := setupProject(t, validManifest)
		writeProjectConfig(t, dir, "checks:\n  lint:\n    - \"false\"\n")

		out, err := executeCommand(t, "check")
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrCheckFailed)
		assert.Contains(t, out, "failed")
	})
}

func TestTestCommand(t *testing.T) {
	t.Run("runs configured command", func(t *testing.T) {
		dir := setupProject(t, validManifest)
		writeProjectConfig(t, dir, "test:\n  command: \"true\"\n")

		out, err := executeCommand(t, "test")
		require.NoError(t, err)
		assert.Contains(t, out, "[test]")
	})

	t.Run("unconfigured command is an error", func(t *testing.T) {
		setupProject(t, validManifest)

		_, err := executeCommand(t, "test")
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrEmptyValue)
	})
}

func TestHooksCommand(t *testing.T) {
	t.Run("install requires a git repository", func(t *testing.T) {
		setupProject(t, validManifest)

		_, err := executeCommand(t, "hooks", "install")
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrNotInGitRepo)
	})

	t.Run("install writes hook scripts", func(t *testing.T) {
		dir := setupProject(t, validManifest)
		require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git"), 0o750))

		out, err := executeCommand(t, "hooks", "install")
		require.NoError(t, err)
		assert.Contains(t, out, "installed git hooks")
		assert.FileExists(t, filepath.Join(dir, ".git", "hooks", "pre-commit"))
		assert.FileExists(t, filepath.Join(dir, ".git", "hooks", "pre-push"))
		assert.FileExists(t, filepath.Join(dir, ".git", "hooks", "commit-msg"))
	})

	t.Run("run executes hook stages", func(t *testing.T) {
		dir := setupProject(t, validManifest)
		writeProjectConfig(t, dir, "checks:\n  typecheck:\n    - \"true\"\n")

		out, err := executeCommand(t, "hooks", "run")
		require.NoError(t, err)
		assert.Contains(t, out, "[typecheck]")
	})
}

func TestHostCommand(t *testing.T) {
	t.Run("fails without artifacts", func(t *testing.T) {
		setupProject(t, validManifest)
		t.Setenv("PACKSHIP_INDEX_PORT", "0")

		_, err := executeCommand(t, "host-pypi-local")
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrNoArtifacts)
	})

	t.Run("detach requires a static password", func(t *testing.T) {
		setupProject(t, validManifest)

		_, err := executeCommand(t, "host-pypi-local", "--detach")
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrEmptyValue)
	})

	t.Run("serves until interrupted", func(t *testing.T) {
		dir := setupProject(t, validManifest)
		t.Setenv("PACKSHIP_INDEX_PORT", "0")

		ctx, cancel := context.WithCancel(context.Background())
		timer := time.AfterFunc(2*time.Second, cancel)
		t.Cleanup(func() { timer.Stop(); cancel() })

		flags := &GlobalFlags{}
		cmd := newRootCmd(flags, BuildInfo{})
		cmd.SetOut(io.Discard)
		cmd.SetErr(io.Discard)
		cmd.SetArgs([]string{"build-and-host-local"})

		err := cmd.ExecuteContext(ctx)
		require.NoError(t, err)

		// The pipeline completed before the interrupt arrived.
		assert.FileExists(t, filepath.Join(dir, "packages", "demo-1.2.3.tar.gz"))
	})
}
