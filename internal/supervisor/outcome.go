package supervisor

import "time"

// Outcome is the record accumulated while supervising one command. The
// supervisor is its only writer; once Run returns it is read-only.
type Outcome struct {
	Command  string
	Deadline time.Duration

	// TimedOut is true when the deadline expired before the child exited.
	TimedOut bool

	// ExitCode is the final code tlim itself should exit with.
	ExitCode int

	// SignalSent is the canonical name of the signal ultimately delivered
	// to the child, or empty when none was sent.
	SignalSent string

	// Elapsed is the wall time from launch to the terminal event.
	Elapsed time.Duration

	// KillAfterUsed is true only when the grace-period timer actually
	// elapsed and the escalation kill was sent.
	KillAfterUsed bool

	// StoppedDetected is true when detect-stopped observed a job-control
	// stop transition.
	StoppedDetected bool

	CPULimit *uint64
	MemLimit *uint64
	Platform string
}
