// Package constants provides shared values used across the tlim application.
package constants

// Exit codes follow the coreutils timeout conventions: the wrapper reserves
// a small band above the normal range so callers can tell "the command timed
// out" apart from "the command could not run at all".
const (
	// ExitTimedOut is returned when the deadline expired and no
	// preserve-status or status override applies.
	ExitTimedOut = 124

	// ExitCanceled is returned for tlim's own failures: bad configuration,
	// launch setup errors, signal delivery that failed outright.
	ExitCanceled = 125

	// ExitCannotInvoke is returned when the command exists but could not be
	// executed (permission denied and similar).
	ExitCannotInvoke = 126

	// ExitNotFound is returned when the command could not be located.
	ExitNotFound = 127

	// SignalExitBase is added to a signal number when a process dies from
	// that signal (so SIGKILL death reports as 137).
	SignalExitBase = 128
)

// Environment variables.
const (
	// MetricsEnvVar enables the structured outcome line on stderr.
	MetricsEnvVar = "TLIM_METRICS"

	// ChildEnvVar marks a process as the exec shim re-invocation.
	ChildEnvVar = "_TLIM_CHILD"

	// ChildCPULimitEnvVar carries the CPU limit (seconds) to the shim.
	ChildCPULimitEnvVar = "_TLIM_CPU_LIMIT"

	// ChildMemLimitEnvVar carries the memory limit (bytes) to the shim.
	ChildMemLimitEnvVar = "_TLIM_MEM_LIMIT"

	// ChildVerboseEnvVar propagates --verbose to the shim.
	ChildVerboseEnvVar = "_TLIM_VERBOSE"
)

// Configuration defaults.
const (
	// DefaultConfigFile is the defaults file looked up in the working
	// directory when --config is not given.
	DefaultConfigFile = ".tlim.yaml"

	// DefaultSignalName is the terminating signal sent on timeout unless
	// overridden by flag or config file.
	DefaultSignalName = "TERM"
)
