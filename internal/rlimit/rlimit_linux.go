package rlimit

import (
	"fmt"

	"golang.org/x/sys/unix"
)

func supported() bool { return true }

// On Linux the memory limit maps to the address-space limit, which is what
// malloc failures actually respond to.
func apply(l Limits) []error {
	var errs []error

	if l.CPUSeconds != nil {
		lim := &unix.Rlimit{Cur: *l.CPUSeconds, Max: *l.CPUSeconds}
		if err := unix.Setrlimit(unix.RLIMIT_CPU, lim); err != nil {
			errs = append(errs, fmt.Errorf("setting CPU limit: %w", err))
		}
	}

	if l.MemoryBytes != nil {
		lim := &unix.Rlimit{Cur: *l.MemoryBytes, Max: *l.MemoryBytes}
		if err := unix.Setrlimit(unix.RLIMIT_AS, lim); err != nil {
			errs = append(errs, fmt.Errorf("setting memory limit: %w", err))
		}
	}

	return errs
}
