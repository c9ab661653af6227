// Package devenv manages editable installs: link files that point an
// environment at live source trees so changes take effect without
// rebuilding artifacts.
package devenv

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/packship/packship/internal/errors"
	"github.com/packship/packship/internal/manifest"
)

// linkExt is the extension of link files in the environment directory.
const linkExt = ".link.yaml"

// Link records one editable install: a package name resolved to the
// source tree it is served from.
type Link struct {
	// Name is the linked package name.
	Name string `yaml:"name"`

	// Path is the absolute path of the source tree.
	Path string `yaml:"path"`

	// Version is the manifest version at link time, recorded for display
	// only; the live tree is authoritative.
	Version string `yaml:"version"`

	// LinkedAt is when the link was written.
	LinkedAt time.Time `yaml:"linked_at"`
}

// Manager owns an environment directory of link files.
type Manager struct {
	envDir string
}

// NewManager creates a manager for envDir.
func NewManager(envDir string) *Manager {
	return &Manager{envDir: envDir}
}

// EnvDir returns the environment directory.
func (m *Manager) EnvDir() string {
	return m.envDir
}

// Install links the project at dir into the environment. The project must
// carry a valid manifest; relinking an already-linked name overwrites the
// previous link.
func (m *Manager) Install(ctx context.Context, dir string) (*Link, error) {
	log := zerolog.Ctx(ctx)

	pm, err := manifest.Load(dir)
	if err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve project path")
	}

	if err := os.MkdirAll(m.envDir, 0o750); err != nil {
		return nil, errors.Wrap(err, "failed to create environment directory")
	}

	link := &Link{
		Name:     pm.Name,
		Path:     abs,
		Version:  pm.Version,
		LinkedAt: time.Now().UTC(),
	}
	data, err := yaml.Marshal(link)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode link")
	}
	if err := os.WriteFile(m.linkPath(pm.Name), data, 0o600); err != nil {
		return nil, errors.Wrap(err, "failed to write link")
	}

	log.Info().Str("name", pm.Name).Str("path", abs).Msg("linked editable install")
	return link, nil
}

// InstallProject links the project at dir plus each of its declared
// subprojects and the extra paths, failing on the first link that cannot
// be made.
func (m *Manager) InstallProject(ctx context.Context, dir string, extras []string) ([]Link, error) {
	pm, err := manifest.Load(dir)
	if err != nil {
		return nil, err
	}

	dirs := append([]string{dir}, pm.SubprojectDirs()...)
	for _, extra := range extras {
		if filepath.IsAbs(extra) {
			dirs = append(dirs, extra)
		} else {
			dirs = append(dirs, filepath.Join(dir, extra))
		}
	}

	links := make([]Link, 0, len(dirs))
	for _, d := range dirs {
		link, err := m.Install(ctx, d)
		if err != nil {
			return nil, errors.Wrapf(err, "linking %s", d)
		}
		links = append(links, *link)
	}
	return links, nil
}

// List returns all links in the environment, sorted by name.
func (m *Manager) List() ([]Link, error) {
	entries, err := os.ReadDir(m.envDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to read environment directory")
	}

	var links []Link
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), linkExt) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(m.envDir, entry.Name())) // #nosec G304 -- entries come from the env dir listing
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read link %s", entry.Name())
		}
		var link Link
		if err := yaml.Unmarshal(data, &link); err != nil {
			return nil, errors.Wrapf(err, "failed to parse link %s", entry.Name())
		}
		links = append(links, link)
	}

	sort.Slice(links, func(i, j int) bool { return links[i].Name < links[j].Name })
	return links, nil
}

// Verify checks that every link resolves to a live tree with a valid
// manifest whose name still matches the link. The first broken link fails
// with ErrLinkBroken.
func (m *Manager) Verify(ctx context.Context) error {
	log := zerolog.Ctx(ctx)

	links, err := m.List()
	if err != nil {
		return err
	}

	for _, link := range links {
		pm, err := manifest.Load(link.Path)
		if err != nil {
			return errors.Wrapf(errors.ErrLinkBroken, "%s -> %s: %v", link.Name, link.Path, err)
		}
		if pm.Name != link.Name {
			return errors.Wrapf(errors.ErrLinkBroken,
				"%s -> %s: tree now names itself %q", link.Name, link.Path, pm.Name)
		}
		log.Debug().Str("name", link.Name).Str("path", link.Path).Msg("link verified")
	}
	return nil
}

// Remove deletes the link for name. Removing an absent link is not an
// error.
func (m *Manager) Remove(name string) error {
	err := os.Remove(m.linkPath(name))
	if os.IsNotExist(err) {
		return nil
	}
	return errors.Wrapf(err, "failed to remove link %s", name)
}

func (m *Manager) linkPath(name string) string {
	return filepath.Join(m.envDir, name+linkExt)
}
