// Package supervisor owns the lifetime of the single supervised command:
// launching it, racing its exit against the deadline and grace-period
// timers and tlim's own incoming signals, and deriving the final exit code.
//
// The concurrency model is one cooperative event loop. A dedicated reaper
// goroutine is the only caller of wait on the child; every other event
// source (timers, forwarded signals) feeds the same select race, and the
// loop runs synchronously between suspension points. Exactly one terminal
// reap happens per run.
package supervisor

import (
	"context"
	"time"

	"tlim/internal/rlimit"
	"tlim/internal/signals"
)

// Config is the immutable supervision configuration, assembled once by the
// CLI before launch.
type Config struct {
	Command string
	Args    []string

	// ExtraEnv holds KEY=VALUE entries appended to the child's environment
	// (from --env-file).
	ExtraEnv []string

	// Deadline is the primary duration after which TermSignal is sent.
	Deadline time.Duration

	// TermSignal is delivered when the deadline expires.
	TermSignal signals.Signal

	// KillAfter, when set, arms the grace period: SIGKILL is sent if the
	// child is still running this long after the deadline.
	KillAfter *time.Duration

	// Foreground disables process-group isolation; signals then target the
	// process only.
	Foreground bool

	// PreserveStatus exits with the child's own status even on timeout.
	PreserveStatus bool

	// Verbose prints a diagnostic line for every signal sent.
	Verbose bool

	// DetectStopped treats a job-control stop as a resumable pause rather
	// than completion.
	DetectStopped bool

	// NoNotify suppresses the initial terminating signal on timeout.
	NoNotify bool

	// StatusOverride replaces the timeout exit code when set.
	StatusOverride *int

	// CPULimit and MemLimit are best-effort child resource limits.
	CPULimit *uint64
	MemLimit *uint64
}

func (c Config) limits() rlimit.Limits {
	return rlimit.Limits{CPUSeconds: c.CPULimit, MemoryBytes: c.MemLimit}
}

// Supervisor drives one supervised invocation. Create with New, use once.
type Supervisor struct {
	cfg Config
}

// New creates a supervisor for the given configuration.
func New(cfg Config) *Supervisor {
	return &Supervisor{cfg: cfg}
}

// Run launches the command and supervises it to its terminal reap. It
// returns the accumulated outcome; a non-nil error means a supervisor-level
// failure (launch setup, signal delivery) for which the caller should exit
// with the canceled status. Cancelling ctx while the child is in its
// initial running phase behaves like receiving SIGTERM: the signal is
// forwarded and the child is still reaped before Run returns.
func (s *Supervisor) Run(ctx context.Context) (Outcome, error) {
	return s.run(ctx)
}
