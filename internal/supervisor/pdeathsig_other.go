//go:build unix && !linux

package supervisor

import "syscall"

// Parent-death notification is a Linux prctl feature; elsewhere the child
// simply outlives a killed supervisor.
func setPdeathsig(*syscall.SysProcAttr) {}
