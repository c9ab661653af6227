// Package manifest provides loading and validation of the project manifest.
//
// The manifest (packship.yaml) is the project definition the builder
// packages: identity (name, version), metadata, the include patterns that
// select the payload, declared dependencies, and nested subprojects that
// ship as their own distributions.
package manifest

import (
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/packship/packship/internal/constants"
	"github.com/packship/packship/internal/errors"
)

// namePattern constrains package names to lowercase letters, digits, dots,
// hyphens and underscores, starting with a letter. This keeps generated
// artifact filenames unambiguous (name and version are joined with "-").
var namePattern = regexp.MustCompile(`^[a-z][a-z0-9._-]*$`)

// Manifest is the parsed project definition.
type Manifest struct {
	// Name is the package name. Required.
	Name string `yaml:"name"`

	// Version is the package version. Required.
	Version string `yaml:"version"`

	// Description is a one-line summary of the package.
	Description string `yaml:"description,omitempty"`

	// License is the SPDX license identifier.
	License string `yaml:"license,omitempty"`

	// Author is the package author.
	Author string `yaml:"author,omitempty"`

	// Homepage is the project URL.
	Homepage string `yaml:"homepage,omitempty"`

	// Include lists glob patterns (relative to the project root) selecting
	// the files packaged into artifacts. Empty means the whole tree minus
	// build output and hidden directories.
	Include []string `yaml:"include,omitempty"`

	// Dependencies lists versioned runtime dependencies recorded in the
	// built archive's metadata.
	Dependencies []string `yaml:"dependencies,omitempty"`

	// Subprojects lists directories (relative to the project root) that
	// carry their own manifest and build into separate distributions.
	Subprojects []string `yaml:"subprojects,omitempty"`

	// root is the directory the manifest was loaded from.
	root string
}

// Load reads and validates the manifest in dir.
// All failure modes wrap ErrManifestInvalid so callers can treat a missing,
// malformed, and invalid manifest uniformly.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, constants.ManifestFileName)

	data, err := os.ReadFile(path) // #nosec G304 -- path is the project's own manifest
	if err != nil {
		return nil, errors.Wrapf(errors.ErrManifestInvalid, "cannot read %s: %v", path, err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrapf(errors.ErrManifestInvalid, "cannot parse %s: %v", path, err)
	}
	m.root = dir

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Root returns the directory the manifest was loaded from.
func (m *Manifest) Root() string {
	return m.root
}

// Validate checks the manifest for required fields and well-formed values.
func (m *Manifest) Validate() error {
	if m.Name == "" {
		return errors.Wrap(errors.ErrManifestInvalid, "name is required")
	}
	if !namePattern.MatchString(m.Name) {
		return errors.Wrapf(errors.ErrManifestInvalid,
			"name %q must match %s", m.Name, namePattern.String())
	}
	if m.Version == "" {
		return errors.Wrap(errors.ErrManifestInvalid, "version is required")
	}
	for _, sub := range m.Subprojects {
		if sub == "" || filepath.IsAbs(sub) {
			return errors.Wrapf(errors.ErrManifestInvalid,
				"subproject path %q must be relative to the project root", sub)
		}
	}
	return nil
}

// SubprojectDirs returns the absolute directories of all declared
// subprojects.
func (m *Manifest) SubprojectDirs() []string {
	dirs := make([]string, 0, len(m.Subprojects))
	for _, sub := range m.Subprojects {
		dirs = append(dirs, filepath.Join(m.root, sub))
	}
	return dirs
}
