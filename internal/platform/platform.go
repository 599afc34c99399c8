// Package platform is a read-only snapshot of where tlim is running, used
// for diagnostics and the metrics line. Capability decisions (resource
// limits, parent-death signals) live with the code that needs them; this
// package only answers "what do we call this OS".
package platform

import "runtime"

// Name returns a human-readable platform name.
func Name() string {
	switch runtime.GOOS {
	case "linux":
		return "Linux"
	case "darwin":
		return "macOS"
	case "freebsd":
		return "FreeBSD"
	case "openbsd":
		return "OpenBSD"
	case "netbsd":
		return "NetBSD"
	case "dragonfly":
		return "DragonFly BSD"
	case "windows":
		return "Windows"
	default:
		return "Unknown"
	}
}

// IsLinux reports whether the fully featured code paths (pdeathsig,
// core-dump policy, RLIMIT_AS) are available.
func IsLinux() bool { return runtime.GOOS == "linux" }
