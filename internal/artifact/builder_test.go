package artifact_test

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packship/packship/internal/artifact"
	"github.com/packship/packship/internal/errors"
	"github.com/packship/packship/internal/manifest"
)

// newProject writes a minimal buildable project tree and returns its
// loaded manifest.
func newProject(t *testing.T, manifestYAML string, files map[string]string) *manifest.Manifest {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "packship.yaml"), []byte(manifestYAML), 0o600))
	for rel, content := range files {
		path := filepath.Join(dir, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
	m, err := manifest.Load(dir)
	require.NoError(t, err)
	return m
}

func tarEntries(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	gzr, err := gzip.NewReader(f)
	require.NoError(t, err)
	tr := tar.NewReader(gzr)

	var names []string
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		names = append(names, hdr.Name)
	}
	return names
}

func zipEntries(t *testing.T, path string) []string {
	t.Helper()
	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer func() { _ = zr.Close() }()

	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	return names
}

func TestBuild(t *testing.T) {
	t.Parallel()

	t.Run("produces source and built distributions", func(t *testing.T) {
		t.Parallel()
		m := newProject(t, "name: pype\nversion: 0.1.2\nlicense: MIT\ndependencies: [numpy==1.24.0]", map[string]string{
			"pype/pipeline.py": "def run(): pass",
			"README.md":        "# pype",
		})
		out := filepath.Join(m.Root(), "dist")

		artifacts, err := artifact.NewBuilder(out).Build(context.Background(), m)
		require.NoError(t, err)
		require.Len(t, artifacts, 2)

		assert.FileExists(t, filepath.Join(out, "pype-0.1.2.tar.gz"))
		assert.FileExists(t, filepath.Join(out, "pype-0.1.2.zip"))

		entries := tarEntries(t, filepath.Join(out, "pype-0.1.2.tar.gz"))
		assert.Contains(t, entries, "pype-0.1.2/pype/pipeline.py")
		assert.Contains(t, entries, "pype-0.1.2/README.md")

		zentries := zipEntries(t, filepath.Join(out, "pype-0.1.2.zip"))
		assert.Contains(t, zentries, "METADATA.yaml")
		assert.Contains(t, zentries, "pype/pipeline.py")
	})

	t.Run("include patterns select the payload", func(t *testing.T) {
		t.Parallel()
		m := newProject(t, "name: pype\nversion: 0.1.2\ninclude: [pype, packship.yaml]", map[string]string{
			"pype/pipeline.py": "def run(): pass",
			"notes/draft.txt":  "not shipped",
		})
		out := filepath.Join(m.Root(), "dist")

		_, err := artifact.NewBuilder(out).Build(context.Background(), m)
		require.NoError(t, err)

		entries := tarEntries(t, filepath.Join(out, "pype-0.1.2.tar.gz"))
		assert.Contains(t, entries, "pype-0.1.2/pype/pipeline.py")
		assert.Contains(t, entries, "pype-0.1.2/packship.yaml")
		assert.NotContains(t, entries, "pype-0.1.2/notes/draft.txt")
	})

	t.Run("output directory is never packaged into itself", func(t *testing.T) {
		t.Parallel()
		m := newProject(t, "name: pype\nversion: 0.1.2", map[string]string{
			"pype/pipeline.py": "def run(): pass",
		})
		out := filepath.Join(m.Root(), "dist")
		require.NoError(t, os.MkdirAll(out, 0o750))
		require.NoError(t, os.WriteFile(filepath.Join(out, "stale-0.0.1.tar.gz"), []byte("x"), 0o600))

		_, err := artifact.NewBuilder(out).Build(context.Background(), m)
		require.NoError(t, err)

		entries := tarEntries(t, filepath.Join(out, "pype-0.1.2.tar.gz"))
		for _, name := range entries {
			assert.NotContains(t, name, "stale-0.0.1")
		}
	})

	t.Run("nothing to package fails with BuildError and writes no files", func(t *testing.T) {
		t.Parallel()
		m := newProject(t, "name: pype\nversion: 0.1.2\ninclude: [does-not-exist]", nil)
		out := filepath.Join(m.Root(), "dist")

		_, err := artifact.NewBuilder(out).Build(context.Background(), m)
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrBuild)
		assert.NoDirExists(t, out)
	})

	t.Run("canceled context aborts before writing", func(t *testing.T) {
		t.Parallel()
		m := newProject(t, "name: pype\nversion: 0.1.2", map[string]string{
			"pype/pipeline.py": "def run(): pass",
		})
		out := filepath.Join(m.Root(), "dist")

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := artifact.NewBuilder(out).Build(ctx, m)
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)

		artifacts, err := artifact.Scan(out)
		require.NoError(t, err)
		assert.Empty(t, artifacts)
	})
}
