//go:build !linux

package launch

// Core-dump policy around the exec window is a Linux prctl feature; other
// platforms keep whatever disposition the caller had.
func DisableSelfCoreDumps() {}

func restoreCoreDumps() {}
