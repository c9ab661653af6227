package manifest_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packship/packship/internal/errors"
	"github.com/packship/packship/internal/manifest"
)

func writeManifest(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "packship.yaml"), []byte(content), 0o600))
}

func TestLoad(t *testing.T) {
	t.Parallel()

	t.Run("valid manifest", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		writeManifest(t, dir, `
name: pype
version: 0.1.2
license: MIT
author: Jane Doe
dependencies:
  - numpy==1.24.0
subprojects:
  - extensions/spark
`)

		m, err := manifest.Load(dir)
		require.NoError(t, err)
		assert.Equal(t, "pype", m.Name)
		assert.Equal(t, "0.1.2", m.Version)
		assert.Equal(t, "MIT", m.License)
		assert.Equal(t, dir, m.Root())
		assert.Equal(t, []string{filepath.Join(dir, "extensions/spark")}, m.SubprojectDirs())
	})

	t.Run("missing manifest file", func(t *testing.T) {
		t.Parallel()
		_, err := manifest.Load(t.TempDir())
		assert.ErrorIs(t, err, errors.ErrManifestInvalid)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		writeManifest(t, dir, "name: [unclosed")

		_, err := manifest.Load(dir)
		assert.ErrorIs(t, err, errors.ErrManifestInvalid)
	})
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		manifest string
		wantErr  string
	}{
		{
			name:     "missing name",
			manifest: "version: 1.0.0",
			wantErr:  "name is required",
		},
		{
			name:     "missing version",
			manifest: "name: mypkg",
			wantErr:  "version is required",
		},
		{
			name:     "uppercase name rejected",
			manifest: "name: MyPkg\nversion: 1.0.0",
			wantErr:  "must match",
		},
		{
			name:     "name starting with digit rejected",
			manifest: "name: 3pkg\nversion: 1.0.0",
			wantErr:  "must match",
		},
		{
			name:     "absolute subproject path rejected",
			manifest: "name: mypkg\nversion: 1.0.0\nsubprojects:\n  - /etc",
			wantErr:  "relative to the project root",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			dir := t.TempDir()
			writeManifest(t, dir, tt.manifest)

			_, err := manifest.Load(dir)
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrManifestInvalid)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	t.Run("dotted and dashed names allowed", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		writeManifest(t, dir, "name: pype-spark.ext_1\nversion: 0.0.1")

		m, err := manifest.Load(dir)
		require.NoError(t, err)
		assert.Equal(t, "pype-spark.ext_1", m.Name)
	})
}
