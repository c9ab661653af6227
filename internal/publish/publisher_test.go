package publish_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packship/packship/internal/errors"
	"github.com/packship/packship/internal/index"
	"github.com/packship/packship/internal/publish"
)

// writeArtifacts seeds an output directory with parseable artifact files.
func writeArtifacts(t *testing.T, files map[string][]byte) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), content, 0o600))
	}
	return dir
}

func devCredential() index.Credential {
	return index.Credential{Username: "packship", Password: "local-dev-pass"}
}

func TestPublish(t *testing.T) {
	t.Parallel()

	t.Run("uploads every artifact with identity and digest", func(t *testing.T) {
		t.Parallel()
		content := []byte("sdist payload")
		dir := writeArtifacts(t, map[string][]byte{
			"pype-0.1.2.tar.gz": content,
			"pype-0.1.2.zip":    []byte("bdist payload"),
		})

		var uploads []string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			username, password, ok := r.BasicAuth()
			require.True(t, ok)
			require.True(t, devCredential().Matches(username, password))

			require.NoError(t, r.ParseMultipartForm(10<<20))
			file, header, err := r.FormFile("content")
			require.NoError(t, err)
			defer func() { _ = file.Close() }()

			body, err := io.ReadAll(file)
			require.NoError(t, err)
			digest := sha256.Sum256(body)
			assert.Equal(t, hex.EncodeToString(digest[:]), r.FormValue("sha256"))
			assert.Equal(t, "pype", r.FormValue("name"))
			assert.Equal(t, "0.1.2", r.FormValue("version"))

			uploads = append(uploads, header.Filename)
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		p := publish.NewPublisher(time.Minute)
		artifacts, err := p.Publish(context.Background(), dir, publish.LocalTarget(srv.URL, devCredential()))
		require.NoError(t, err)
		assert.Len(t, artifacts, 2)
		assert.Equal(t, []string{"pype-0.1.2.tar.gz", "pype-0.1.2.zip"}, uploads)
	})

	t.Run("empty directory is NoArtifacts", func(t *testing.T) {
		t.Parallel()
		p := publish.NewPublisher(time.Minute)
		_, err := p.Publish(context.Background(), t.TempDir(), publish.LocalTarget("http://127.0.0.1:1", devCredential()))
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrNoArtifacts)
	})

	t.Run("rejected credentials are AuthError", func(t *testing.T) {
		t.Parallel()
		dir := writeArtifacts(t, map[string][]byte{"pype-0.1.2.tar.gz": []byte("x")})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "bad credentials", http.StatusUnauthorized)
		}))
		defer srv.Close()

		p := publish.NewPublisher(time.Minute)
		_, err := p.Publish(context.Background(), dir, publish.LocalTarget(srv.URL, devCredential()))
		assert.ErrorIs(t, err, errors.ErrAuth)
	})

	t.Run("existing artifact is ConflictError", func(t *testing.T) {
		t.Parallel()
		dir := writeArtifacts(t, map[string][]byte{"pype-0.1.2.tar.gz": []byte("x")})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "already exists", http.StatusConflict)
		}))
		defer srv.Close()

		p := publish.NewPublisher(time.Minute)
		_, err := p.Publish(context.Background(), dir, publish.LocalTarget(srv.URL, devCredential()))
		assert.ErrorIs(t, err, errors.ErrConflict)
	})

	t.Run("unreachable target is NetworkError", func(t *testing.T) {
		t.Parallel()
		dir := writeArtifacts(t, map[string][]byte{"pype-0.1.2.tar.gz": []byte("x")})

		p := publish.NewPublisher(time.Minute)
		_, err := p.Publish(context.Background(), dir, publish.LocalTarget("http://127.0.0.1:1", devCredential()))
		assert.ErrorIs(t, err, errors.ErrNetwork)
	})

	t.Run("stops at first failure", func(t *testing.T) {
		t.Parallel()
		dir := writeArtifacts(t, map[string][]byte{
			"pype-0.1.2.tar.gz": []byte("x"),
			"pype-0.1.2.zip":    []byte("y"),
		})

		var calls int
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls++
			http.Error(w, "already exists", http.StatusConflict)
		}))
		defer srv.Close()

		p := publish.NewPublisher(time.Minute)
		_, err := p.Publish(context.Background(), dir, publish.LocalTarget(srv.URL, devCredential()))
		require.Error(t, err)
		assert.Equal(t, 1, calls)
	})
}

func TestRemoteTarget(t *testing.T) {
	t.Run("missing credentials", func(t *testing.T) {
		t.Setenv("PACKSHIP_PUBLISH_USERNAME", "")
		t.Setenv("PACKSHIP_PUBLISH_PASSWORD", "")
		_, err := publish.RemoteTarget("https://registry.example.com")
		assert.ErrorIs(t, err, errors.ErrMissingCredentials)
	})

	t.Run("credentials from environment", func(t *testing.T) {
		t.Setenv("PACKSHIP_PUBLISH_USERNAME", "ci-bot")
		t.Setenv("PACKSHIP_PUBLISH_PASSWORD", "ci-secret")
		target, err := publish.RemoteTarget("https://registry.example.com")
		require.NoError(t, err)
		assert.Equal(t, "ci-bot", target.Credential.Username)
		assert.Equal(t, "ci-secret", target.Credential.Password)
	})

	t.Run("empty url rejected", func(t *testing.T) {
		_, err := publish.RemoteTarget("  ")
		assert.Error(t, err)
	})
}
