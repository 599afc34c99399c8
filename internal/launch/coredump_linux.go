package launch

import "golang.org/x/sys/unix"

// DisableSelfCoreDumps marks the calling process non-dumpable. The
// supervisor calls this before forking so neither it nor the shim setup
// window can leave core files behind; the shim restores eligibility just
// before exec.
func DisableSelfCoreDumps() {
	_ = unix.Prctl(unix.PR_SET_DUMPABLE, 0, 0, 0, 0)
}

func restoreCoreDumps() {
	_ = unix.Prctl(unix.PR_SET_DUMPABLE, 1, 0, 0, 0)
}
