// Package artifact provides artifact identity, the workspace cleaner, and
// the builder that turns a project manifest into distributable archives.
package artifact

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/packship/packship/internal/errors"
)

// Format identifies the distribution format of an artifact.
type Format string

const (
	// FormatSource is a source distribution: a gzipped tarball of the
	// project tree selected by the manifest's include patterns.
	FormatSource Format = "source"

	// FormatArchive is a built distribution: a zip of the same payload
	// plus generated metadata, ready to be unpacked and used directly.
	FormatArchive Format = "archive"
)

// String returns the string representation of the Format.
func (f Format) String() string {
	return string(f)
}

// IsValid checks if the format is a recognized type.
func (f Format) IsValid() bool {
	switch f {
	case FormatSource, FormatArchive:
		return true
	}
	return false
}

// Extension returns the filename extension for this format.
func (f Format) Extension() string {
	switch f {
	case FormatSource:
		return ".tar.gz"
	case FormatArchive:
		return ".zip"
	default:
		return ""
	}
}

// Artifact identifies one built distribution file by name, version and
// format. Artifacts live in the output directory: created by the Builder,
// read by the Publisher and the index server, deleted only by Clean.
type Artifact struct {
	// Name is the package name from the manifest.
	Name string `json:"name"`

	// Version is the package version from the manifest.
	Version string `json:"version"`

	// Format is the distribution format.
	Format Format `json:"format"`

	// Path is the absolute location of the artifact file.
	Path string `json:"path"`
}

// Filename returns the canonical artifact filename: name-version + the
// format extension.
func (a Artifact) Filename() string {
	return a.Name + "-" + a.Version + a.Format.Extension()
}

// ParseFilename derives artifact identity from a canonical filename.
// The version is everything after the last "-" (package names may contain
// hyphens, versions may not).
func ParseFilename(filename string) (Artifact, bool) {
	var format Format
	var stem string
	switch {
	case strings.HasSuffix(filename, FormatSource.Extension()):
		format = FormatSource
		stem = strings.TrimSuffix(filename, FormatSource.Extension())
	case strings.HasSuffix(filename, FormatArchive.Extension()):
		format = FormatArchive
		stem = strings.TrimSuffix(filename, FormatArchive.Extension())
	default:
		return Artifact{}, false
	}

	idx := strings.LastIndex(stem, "-")
	if idx <= 0 || idx == len(stem)-1 {
		return Artifact{}, false
	}
	return Artifact{
		Name:    stem[:idx],
		Version: stem[idx+1:],
		Format:  format,
	}, true
}

// Scan returns the artifacts present in dir, sorted by filename.
// Files that do not parse as artifacts are ignored. A missing directory is
// not an error; it scans as empty.
func Scan(dir string) ([]Artifact, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to scan %s", dir)
	}

	var artifacts []Artifact
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		a, ok := ParseFilename(entry.Name())
		if !ok {
			continue
		}
		a.Path = filepath.Join(dir, entry.Name())
		artifacts = append(artifacts, a)
	}

	sort.Slice(artifacts, func(i, j int) bool {
		return artifacts[i].Filename() < artifacts[j].Filename()
	})
	return artifacts, nil
}
