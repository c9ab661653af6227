// Package flock provides the exclusive advisory lock that enforces
// single-run-at-a-time access to the build output directory.
//
// Two concurrent workflow runs writing the same output directory corrupt
// each other's artifact set, so the orchestrator acquires this lock at
// workflow start and releases it on every exit path. Locks are
// non-blocking: a second run fails fast instead of queueing behind the
// first.
//
// Usage:
//
//	lock, err := flock.Acquire(filepath.Join(dir, "build.lock"))
//	if err != nil {
//	    // Another run owns the output directory.
//	}
//	defer lock.Release()
package flock
