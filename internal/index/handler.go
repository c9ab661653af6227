package index

import (
	"crypto/sha256"
	"encoding/hex"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/packship/packship/internal/artifact"
	"github.com/packship/packship/internal/errors"
)

// maxUploadBytes bounds a single artifact upload.
const maxUploadBytes = 512 << 20

// handler serves a directory of packages as a simple package index.
// The directory is scanned lazily on every request, so artifacts dropped in
// by other processes are visible without a restart.
type handler struct {
	dir  string
	cred Credential
	log  *zerolog.Logger
	mux  *http.ServeMux
}

func newHandler(dir string, cred Credential, log *zerolog.Logger) http.Handler {
	h := &handler{dir: dir, cred: cred, log: log, mux: http.NewServeMux()}
	h.mux.HandleFunc("GET /simple/", h.listPackages)
	h.mux.HandleFunc("GET /simple/{name}/", h.listFiles)
	h.mux.HandleFunc("GET /packages/{file}", h.download)
	h.mux.HandleFunc("POST /{$}", h.upload)
	return h
}

// ServeHTTP enforces basic auth on every route. The one credential pair
// covers both browsing and upload.
func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	username, password, ok := r.BasicAuth()
	if !ok || !h.cred.Matches(username, password) {
		w.Header().Set("WWW-Authenticate", `Basic realm="packship local index"`)
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}
	h.mux.ServeHTTP(w, r)
}

// listPackages renders the package name listing at /simple/.
func (h *handler) listPackages(w http.ResponseWriter, r *http.Request) {
	artifacts, err := artifact.Scan(h.dir)
	if err != nil {
		http.Error(w, "failed to scan packages", http.StatusInternalServerError)
		return
	}

	seen := make(map[string]bool)
	var names []string
	for _, a := range artifacts {
		if !seen[a.Name] {
			seen[a.Name] = true
			names = append(names, a.Name)
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, "<!DOCTYPE html><html><body>\n")
	for _, name := range names {
		fmt.Fprintf(w, "<a href=%q>%s</a><br/>\n", "/simple/"+name+"/", name)
	}
	fmt.Fprint(w, "</body></html>\n")
}

// listFiles renders the file links for one package at /simple/{name}/.
func (h *handler) listFiles(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	artifacts, err := artifact.Scan(h.dir)
	if err != nil {
		http.Error(w, "failed to scan packages", http.StatusInternalServerError)
		return
	}

	var files []string
	for _, a := range artifacts {
		if a.Name == name {
			files = append(files, a.Filename())
		}
	}
	if len(files) == 0 {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, "<!DOCTYPE html><html><body>\n")
	for _, file := range files {
		fmt.Fprintf(w, "<a href=%q>%s</a><br/>\n", "/packages/"+file, file)
	}
	fmt.Fprint(w, "</body></html>\n")
}

// download serves one artifact file.
func (h *handler) download(w http.ResponseWriter, r *http.Request) {
	file := r.PathValue("file")
	if !validFilename(file) {
		http.Error(w, "invalid filename", http.StatusBadRequest)
		return
	}
	http.ServeFile(w, r, filepath.Join(h.dir, file))
}

// upload accepts a multipart artifact upload and writes it into the
// packages directory. Existing files are never overwritten: a duplicate
// name+version upload is a 409 and leaves the stored file untouched.
func (h *handler) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	content, header, err := r.FormFile("content")
	if err != nil {
		http.Error(w, "missing content file field", http.StatusBadRequest)
		return
	}
	defer func() { _ = content.Close() }()

	filename := filepath.Base(header.Filename)
	if !validFilename(filename) {
		http.Error(w, "invalid filename", http.StatusBadRequest)
		return
	}

	dest := filepath.Join(h.dir, filename)
	if _, err := os.Stat(dest); err == nil {
		h.log.Warn().Str("file", filename).Msg("rejected duplicate upload")
		http.Error(w, "artifact already exists", http.StatusConflict)
		return
	}

	if err := h.writeUpload(dest, content, r.FormValue("sha256")); err != nil {
		status := http.StatusInternalServerError
		if stderrors.Is(err, errDigestMismatch) {
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}

	h.log.Info().
		Str("file", filename).
		Str("name", r.FormValue("name")).
		Str("version", r.FormValue("version")).
		Msg("stored uploaded artifact")
	w.WriteHeader(http.StatusOK)
}

// writeUpload stores the upload via a temp file so a failed or corrupt
// transfer never leaves a partial artifact in the served directory.
func (h *handler) writeUpload(dest string, content io.Reader, wantDigest string) error {
	tmp, err := os.CreateTemp(h.dir, ".upload-*")
	if err != nil {
		return errors.Wrap(err, "failed to stage upload")
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	digest := sha256.New()
	_, copyErr := io.Copy(io.MultiWriter(tmp, digest), content)
	closeErr := tmp.Close()
	if copyErr != nil {
		return errors.Wrap(copyErr, "failed to store upload")
	}
	if closeErr != nil {
		return errors.Wrap(closeErr, "failed to store upload")
	}

	if wantDigest != "" {
		got := hex.EncodeToString(digest.Sum(nil))
		if !strings.EqualFold(got, wantDigest) {
			return errors.Wrapf(errDigestMismatch, "got %s", got)
		}
	}

	return errors.Wrap(os.Rename(tmpName, dest), "failed to finalize upload")
}

// errDigestMismatch marks an upload whose content does not match the
// digest the client claimed.
var errDigestMismatch = stderrors.New("sha256 mismatch")

// validFilename rejects names that could escape the packages directory.
func validFilename(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if strings.ContainsAny(name, "/\\") {
		return false
	}
	return !strings.HasPrefix(name, ".")
}
