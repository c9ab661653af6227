//go:build windows

package cli

import (
	"syscall"

	"golang.org/x/sys/windows"
)

// detachedSysProcAttr detaches the child from the parent console so it
// survives the parent exiting.
func detachedSysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		CreationFlags: windows.DETACHED_PROCESS | windows.CREATE_NEW_PROCESS_GROUP,
	}
}
