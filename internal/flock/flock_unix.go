//go:build unix

package flock

import "syscall"

// lockFd acquires an exclusive non-blocking lock on the file descriptor.
// Returns an error if the lock cannot be acquired immediately.
func lockFd(fd uintptr) error {
	return syscall.Flock(int(fd), syscall.LOCK_EX|syscall.LOCK_NB)
}

// unlockFd releases the lock on the file descriptor.
func unlockFd(fd uintptr) error {
	return syscall.Flock(int(fd), syscall.LOCK_UN)
}
