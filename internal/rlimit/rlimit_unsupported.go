//go:build !linux && !freebsd && !dragonfly

package rlimit

func supported() bool { return false }

func apply(Limits) []error {
	return []error{ErrUnsupported}
}
