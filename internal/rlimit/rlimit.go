// Package rlimit applies best-effort CPU-time and memory limits to the
// current process. It is invoked by the exec shim after the fork point and
// before the target image replaces it, so the limits land on the supervised
// command rather than on tlim itself.
//
// Applying a limit is never load-bearing: a failure is reported back to the
// caller, which downgrades it to a warning and lets the command run without
// the limit.
package rlimit

import "errors"

// ErrUnsupported is returned on platforms without native resource-limit
// support.
var ErrUnsupported = errors.New("resource limits not supported on this platform")

// Limits holds the requested resource limits. Nil means "no limit
// requested".
type Limits struct {
	CPUSeconds  *uint64
	MemoryBytes *uint64
}

// Empty reports whether no limit was requested at all.
func (l Limits) Empty() bool {
	return l.CPUSeconds == nil && l.MemoryBytes == nil
}

// Supported reports whether this platform can apply resource limits.
func Supported() bool { return supported() }

// Apply sets each requested limit on the current process, collecting one
// error per limit that could not be applied. On unsupported platforms it
// returns a single ErrUnsupported (and only if a limit was requested).
func Apply(l Limits) []error {
	if l.Empty() {
		return nil
	}
	return apply(l)
}
