package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// executeCommand runs the root command with the given args, capturing output.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	flags := &GlobalFlags{}
	cmd := newRootCmd(flags, BuildInfo{Version: "test"})
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func TestRootCmd_Help(t *testing.T) {
	t.Parallel()

	flags := &GlobalFlags{}
	cmd := newRootCmd(flags, BuildInfo{Version: "test"})
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--help"})

	err := cmd.Execute()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "packship")
	assert.Contains(t, output, "--output")
	assert.Contains(t, output, "--verbose")
	assert.Contains(t, output, "--quiet")
	assert.Contains(t, output, "build-and-host-local")
	assert.Contains(t, output, "host-pypi-local")
	assert.Contains(t, output, "dev-install")
	assert.Contains(t, output, "publish")
}

func TestRootCmd_Version(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		info           BuildInfo
		expectContains []string
	}{
		{
			name: "full version info",
			info: BuildInfo{
				Version: "1.0.0",
				Commit:  "abc1234",
				Date:    "2026-01-01",
			},
			expectContains: []string{"1.0.0", "abc1234", "2026-01-01"},
		},
		{
			name:           "default dev version",
			info:           BuildInfo{},
			expectContains: []string{"dev", "none", "unknown"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			version := formatVersion(tt.info)
			for _, want := range tt.expectContains {
				assert.Contains(t, version, want)
			}
		})
	}
}

func TestRootCmd_InvalidOutputFormat(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("PACKSHIP_HOME", t.TempDir())
	t.Chdir(t.TempDir())

	_, err := executeCommand(t, "--output", "bogus", "clean")
	require.Error(t, err)
	assert.Equal(t, ExitInvalidInput, ExitCodeForError(err))
}

func TestRootCmd_VerboseQuietExclusive(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("PACKSHIP_HOME", t.TempDir())
	t.Chdir(t.TempDir())

	_, err := executeCommand(t, "--verbose", "--quiet", "clean")
	require.Error(t, err)
	assert.Equal(t, ExitInvalidInput, ExitCodeForError(err))
}
