//go:build freebsd || dragonfly

package rlimit

import (
	"fmt"

	"golang.org/x/sys/unix"
)

func supported() bool { return true }

// The BSDs do not reliably enforce RLIMIT_AS, so the memory limit maps to
// the data-segment limit instead.
func apply(l Limits) []error {
	var errs []error

	if l.CPUSeconds != nil {
		lim := &unix.Rlimit{Cur: int64(*l.CPUSeconds), Max: int64(*l.CPUSeconds)}
		if err := unix.Setrlimit(unix.RLIMIT_CPU, lim); err != nil {
			errs = append(errs, fmt.Errorf("setting CPU limit: %w", err))
		}
	}

	if l.MemoryBytes != nil {
		lim := &unix.Rlimit{Cur: int64(*l.MemoryBytes), Max: int64(*l.MemoryBytes)}
		if err := unix.Setrlimit(unix.RLIMIT_DATA, lim); err != nil {
			errs = append(errs, fmt.Errorf("setting memory limit: %w", err))
		}
	}

	return errs
}
