package artifact

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/packship/packship/internal/errors"
)

// Clean removes each directory recursively if present. Missing directories
// are not an error, so running Clean twice yields the same state. Removal
// never reaches outside the declared paths.
func Clean(ctx context.Context, dirs ...string) error {
	log := zerolog.Ctx(ctx)

	for _, dir := range dirs {
		if err := validateCleanPath(dir); err != nil {
			return err
		}

		if _, err := os.Stat(dir); os.IsNotExist(err) {
			log.Debug().Str("dir", dir).Msg("clean target already absent")
			continue
		}

		if err := os.RemoveAll(dir); err != nil {
			return errors.Wrapf(err, "failed to remove %s", dir)
		}
		log.Info().Str("dir", dir).Msg("removed output directory")
	}
	return nil
}

// validateCleanPath rejects paths that would make RemoveAll destructive far
// beyond the build workspace: the empty path, the filesystem root, and "."
// (the project itself).
func validateCleanPath(dir string) error {
	if dir == "" {
		return errors.Wrap(errors.ErrEmptyValue, "clean path")
	}
	cleaned := filepath.Clean(dir)
	if cleaned == string(filepath.Separator) || cleaned == "." {
		return errors.Wrapf(errors.ErrEmptyValue, "refusing to clean %q", dir)
	}
	return nil
}
