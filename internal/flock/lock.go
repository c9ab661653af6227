package flock

import (
	"os"
	"path/filepath"

	"github.com/packship/packship/internal/errors"
)

// Lock is a held advisory lock. Release it exactly once; Release is safe to
// call from a deferred statement even after an explicit release.
type Lock struct {
	file *os.File
	path string
}

// Acquire opens (creating if needed) the lock file at path and takes an
// exclusive non-blocking lock on it. Returns ErrLockHeld if another process
// holds the lock.
func Acquire(path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, errors.Wrap(err, "failed to create lock directory")
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600) // #nosec G304 -- path comes from workflow configuration
	if err != nil {
		return nil, errors.Wrap(err, "failed to open lock file")
	}

	if err := lockFd(f.Fd()); err != nil {
		_ = f.Close()
		return nil, errors.Wrapf(errors.ErrLockHeld, "lock file %s", path)
	}

	return &Lock{file: f, path: path}, nil
}

// Path returns the lock file location.
func (l *Lock) Path() string {
	return l.path
}

// Release unlocks and closes the lock file. The lock file itself is left in
// place; removing it would race with a concurrent Acquire.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	unlockErr := unlockFd(l.file.Fd())
	closeErr := l.file.Close()
	l.file = nil
	if unlockErr != nil {
		return errors.Wrap(unlockErr, "failed to release lock")
	}
	return errors.Wrap(closeErr, "failed to close lock file")
}
