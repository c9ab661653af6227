package artifact

import (
	"archive/tar"
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/packship/packship/internal/constants"
	"github.com/packship/packship/internal/errors"
	"github.com/packship/packship/internal/manifest"
)

// Builder produces distributable archives from a project manifest into an
// output directory. One Build call yields a source distribution (.tar.gz)
// and a built distribution (.zip with generated metadata).
type Builder struct {
	outputDir string
}

// NewBuilder creates a builder writing into outputDir.
func NewBuilder(outputDir string) *Builder {
	return &Builder{outputDir: outputDir}
}

// OutputDir returns the directory artifacts are written to.
func (b *Builder) OutputDir() string {
	return b.outputDir
}

// metadata is the generated METADATA.yaml embedded in built archives.
type metadata struct {
	Name         string   `yaml:"name"`
	Version      string   `yaml:"version"`
	Description  string   `yaml:"description,omitempty"`
	License      string   `yaml:"license,omitempty"`
	Author       string   `yaml:"author,omitempty"`
	Homepage     string   `yaml:"homepage,omitempty"`
	Dependencies []string `yaml:"dependencies,omitempty"`
	BuiltAt      string   `yaml:"built_at"`
}

// Build packages the manifest's project tree. On success the output
// directory contains both artifacts; on failure every partially written
// file is removed so the directory is fully-built-or-absent.
func (b *Builder) Build(ctx context.Context, m *manifest.Manifest) ([]Artifact, error) {
	log := zerolog.Ctx(ctx)

	files, err := b.collectFiles(m)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, errors.Wrap(errors.ErrBuild, "nothing to package")
	}

	if err := os.MkdirAll(b.outputDir, 0o750); err != nil {
		return nil, errors.Wrap(err, "failed to create output directory")
	}

	source := Artifact{Name: m.Name, Version: m.Version, Format: FormatSource}
	source.Path = filepath.Join(b.outputDir, source.Filename())
	archive := Artifact{Name: m.Name, Version: m.Version, Format: FormatArchive}
	archive.Path = filepath.Join(b.outputDir, archive.Filename())

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := b.writeSourceArchive(m, files, source.Path); err != nil {
		b.discard(source.Path)
		return nil, errors.Wrapf(errors.ErrBuild, "source distribution: %v", err)
	}

	if err := b.writeBuiltArchive(m, files, archive.Path); err != nil {
		b.discard(source.Path, archive.Path)
		return nil, errors.Wrapf(errors.ErrBuild, "built distribution: %v", err)
	}

	log.Info().
		Str("name", m.Name).
		Str("version", m.Version).
		Int("files", len(files)).
		Str("output_dir", b.outputDir).
		Msg("built artifacts")

	return []Artifact{source, archive}, nil
}

// discard removes partially written artifact files, ignoring errors.
func (b *Builder) discard(paths ...string) {
	for _, p := range paths {
		_ = os.Remove(p)
	}
}

// collectFiles walks the project tree and returns the sorted relative paths
// selected by the manifest's include patterns. With no patterns the whole
// tree is packaged, minus build output and hidden entries.
func (b *Builder) collectFiles(m *manifest.Manifest) ([]string, error) {
	root := m.Root()
	outputAbs, err := filepath.Abs(b.outputDir)
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve output directory")
	}

	var files []string
	walkErr := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}

		if d.IsDir() {
			if b.skipDir(path, rel, outputAbs) {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		if included(m.Include, rel) {
			files = append(files, rel)
		}
		return nil
	})
	if walkErr != nil {
		return nil, errors.Wrapf(errors.ErrBuild, "walking project tree: %v", walkErr)
	}

	sort.Strings(files)
	return files, nil
}

// skipDir reports whether a directory is excluded from packaging: the
// output directory itself, the local packages directory, and hidden
// directories such as .git and .packship.
func (b *Builder) skipDir(path, rel string, outputAbs string) bool {
	abs, err := filepath.Abs(path)
	if err == nil && abs == outputAbs {
		return true
	}
	base := filepath.Base(rel)
	if strings.HasPrefix(base, ".") {
		return true
	}
	return base == constants.DefaultOutputDir || base == constants.DefaultPackagesDir
}

// included reports whether rel matches the include patterns. A pattern
// matches the path itself (filepath.Match) or any parent directory, so
// "pype" selects the whole pype tree.
func included(patterns []string, rel string) bool {
	if len(patterns) == 0 {
		return true
	}
	for _, pattern := range patterns {
		if ok, err := filepath.Match(pattern, rel); err == nil && ok {
			return true
		}
		for dir := filepath.Dir(rel); dir != "."; dir = filepath.Dir(dir) {
			if ok, err := filepath.Match(pattern, dir); err == nil && ok {
				return true
			}
		}
	}
	return false
}

// writeSourceArchive writes the gzipped tarball of the selected files.
func (b *Builder) writeSourceArchive(m *manifest.Manifest, files []string, dest string) error {
	out, err := os.Create(dest) // #nosec G304 -- dest is derived from the configured output directory
	if err != nil {
		return err
	}

	gzw := gzip.NewWriter(out)
	tw := tar.NewWriter(gzw)

	writeErr := func() error {
		for _, rel := range files {
			if err := addTarEntry(tw, m.Root(), rel, m.Name+"-"+m.Version); err != nil {
				return err
			}
		}
		return nil
	}()

	for _, closer := range []io.Closer{tw, gzw, out} {
		if err := closer.Close(); err != nil && writeErr == nil {
			writeErr = err
		}
	}
	return writeErr
}

// addTarEntry appends one file to the tarball under the name-version prefix,
// mirroring the layout of a conventional source distribution.
func addTarEntry(tw *tar.Writer, root, rel, prefix string) error {
	path := filepath.Join(root, rel)
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	hdr.Name = prefix + "/" + filepath.ToSlash(rel)

	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}

	f, err := os.Open(path) // #nosec G304 -- path is inside the project tree being packaged
	if err != nil {
		return err
	}
	_, copyErr := io.Copy(tw, f)
	closeErr := f.Close()
	if copyErr != nil {
		return copyErr
	}
	return closeErr
}

// writeBuiltArchive writes the zip distribution: the selected files plus a
// generated METADATA.yaml describing the package.
func (b *Builder) writeBuiltArchive(m *manifest.Manifest, files []string, dest string) error {
	out, err := os.Create(dest) // #nosec G304 -- dest is derived from the configured output directory
	if err != nil {
		return err
	}

	zw := zip.NewWriter(out)

	writeErr := func() error {
		meta, err := yaml.Marshal(metadata{
			Name:         m.Name,
			Version:      m.Version,
			Description:  m.Description,
			License:      m.License,
			Author:       m.Author,
			Homepage:     m.Homepage,
			Dependencies: m.Dependencies,
			BuiltAt:      time.Now().UTC().Format(time.RFC3339),
		})
		if err != nil {
			return err
		}

		mw, err := zw.Create(constants.MetadataFileName)
		if err != nil {
			return err
		}
		if _, err := mw.Write(meta); err != nil {
			return err
		}

		for _, rel := range files {
			fw, err := zw.Create(filepath.ToSlash(rel))
			if err != nil {
				return err
			}
			f, err := os.Open(filepath.Join(m.Root(), rel)) // #nosec G304 -- path is inside the project tree
			if err != nil {
				return err
			}
			_, copyErr := io.Copy(fw, f)
			closeErr := f.Close()
			if copyErr != nil {
				return copyErr
			}
			if closeErr != nil {
				return closeErr
			}
		}
		return nil
	}()

	for _, closer := range []io.Closer{zw, out} {
		if err := closer.Close(); err != nil && writeErr == nil {
			writeErr = err
		}
	}
	return writeErr
}
