//go:build unix

package cli

import "syscall"

// detachedSysProcAttr detaches the child from the controlling terminal
// so it survives the parent exiting.
func detachedSysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setsid: true}
}
