// Package launch owns the child side of process creation.
//
// Go has no safe way to run code between fork and exec, so tlim uses the
// same trick its daemon-shaped relatives use for backgrounding: the
// supervisor re-executes its own binary with an environment marker, and
// that re-invocation (the "shim") performs the child-only setup — TTY
// signal reset, resource limits, core-dump policy — before replacing its
// image with the target command. A failure in the shim never crosses back
// to the parent as an error value; it is visible only as the exit status
// the supervisor later reaps.
package launch

import (
	"os"
	"strconv"

	"tlim/internal/constants"
	"tlim/internal/rlimit"
)

// IsChild reports whether this process is the exec shim re-invocation.
func IsChild() bool {
	return os.Getenv(constants.ChildEnvVar) == "1"
}

// ChildEnv returns the marker variables the parent appends to the shim's
// environment.
func ChildEnv(limits rlimit.Limits, verbose bool) []string {
	env := []string{constants.ChildEnvVar + "=1"}
	if limits.CPUSeconds != nil {
		env = append(env, constants.ChildCPULimitEnvVar+"="+strconv.FormatUint(*limits.CPUSeconds, 10))
	}
	if limits.MemoryBytes != nil {
		env = append(env, constants.ChildMemLimitEnvVar+"="+strconv.FormatUint(*limits.MemoryBytes, 10))
	}
	if verbose {
		env = append(env, constants.ChildVerboseEnvVar+"=1")
	}
	return env
}

// limitsFromEnv recovers the requested limits inside the shim. Malformed
// values are ignored; the parent wrote them, so in practice they parse.
func limitsFromEnv() rlimit.Limits {
	var l rlimit.Limits
	if v := os.Getenv(constants.ChildCPULimitEnvVar); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			l.CPUSeconds = &n
		}
	}
	if v := os.Getenv(constants.ChildMemLimitEnvVar); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			l.MemoryBytes = &n
		}
	}
	return l
}

// scrubEnv removes the marker variables so the supervised command does not
// see them.
func scrubEnv() {
	os.Unsetenv(constants.ChildEnvVar)
	os.Unsetenv(constants.ChildCPULimitEnvVar)
	os.Unsetenv(constants.ChildMemLimitEnvVar)
	os.Unsetenv(constants.ChildVerboseEnvVar)
}
