package supervisor

import "tlim/internal/constants"

// StatusKind says how the child terminated.
type StatusKind int

const (
	// StatusExited means a normal exit with a code.
	StatusExited StatusKind = iota
	// StatusSignaled means death from a signal.
	StatusSignaled
)

// Status is the reaped termination status of the child, decoupled from the
// platform wait representation so the exit-code policy stays pure and
// portable.
type Status struct {
	Kind   StatusKind
	Code   int // exit code when Kind == StatusExited
	Signal int // signal number when Kind == StatusSignaled
}

// ExitCode maps the raw status to the conventional shell exit code:
// the child's own code, or 128 plus the fatal signal's number.
func (st Status) ExitCode() int {
	if st.Kind == StatusSignaled {
		return constants.SignalExitBase + st.Signal
	}
	return st.Code
}

// Code is the exit-code policy for the ordinary exit and signal-death
// paths. The grace-period kill and forwarded foreign signals bypass it:
// their codes are unconditional and computed at the call site.
//
//   - no timeout: the child's conventional code, flags ignored
//   - timeout: statusOverride if set, else the child's conventional code if
//     preserveStatus, else the fixed timed-out code
func Code(st Status, timedOut, preserveStatus bool, statusOverride *int) int {
	if !timedOut {
		return st.ExitCode()
	}
	return timeoutCode(st.ExitCode(), preserveStatus, statusOverride)
}

func timeoutCode(childCode int, preserveStatus bool, statusOverride *int) int {
	if statusOverride != nil {
		return *statusOverride
	}
	if preserveStatus {
		return childCode
	}
	return constants.ExitTimedOut
}
