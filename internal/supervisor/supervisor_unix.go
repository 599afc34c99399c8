//go:build unix

package supervisor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"golang.org/x/sys/unix"

	"tlim/internal/constants"
	"tlim/internal/launch"
	"tlim/internal/platform"
	"tlim/internal/signals"
)

var (
	diagTimeout = color.New(color.FgRed)
	diagKill    = color.New(color.FgHiRed)
	diagInfo    = color.New(color.FgCyan)
)

// waitEvent is one wait-status observation from the reaper. A stop
// transition is an intermediate event; an exit or signal death is terminal
// and is the last event the reaper ever sends.
type waitEvent struct {
	status unix.WaitStatus
	err    error
}

func (s *Supervisor) run(ctx context.Context) (Outcome, error) {
	out := Outcome{
		Command:  s.cfg.Command,
		Deadline: s.cfg.Deadline,
		CPULimit: s.cfg.CPULimit,
		MemLimit: s.cfg.MemLimit,
		Platform: platform.Name(),
	}

	// Subscribe to our own interrupt/terminate signals before the child
	// exists so none can slip through during launch.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	launch.DisableSelfCoreDumps()

	start := time.Now()
	pid, err := s.startChild()
	if err != nil {
		out.ExitCode = constants.ExitCanceled
		return out, err
	}

	waitCh := make(chan waitEvent, 1)
	go s.reap(pid, waitCh)

	deadline := time.NewTimer(s.cfg.Deadline)
	defer deadline.Stop()

	// Initial race: whichever of child termination, deadline expiry, or a
	// foreign signal resolves first decides the phase. Stop transitions
	// keep the race alive.
	for {
		select {
		case ev := <-waitCh:
			if ev.err != nil {
				out.Elapsed = time.Since(start)
				out.ExitCode = constants.ExitCanceled
				return out, ev.err
			}
			if ev.status.Stopped() {
				// Only reachable with detect-stopped (the reaper waits
				// with WUNTRACED only then). Resume the child and wait out
				// its true termination; the stop itself is never terminal.
				out.StoppedDetected = true
				s.diagf(diagInfo, "Info", "process stopped by signal %d", int(ev.status.StopSignal()))
				_ = s.deliver(signals.SIGCONT, pid)
				st, err := s.waitExit(waitCh)
				out.Elapsed = time.Since(start)
				if err != nil {
					out.ExitCode = constants.ExitCanceled
					return out, err
				}
				out.ExitCode = Code(st, false, s.cfg.PreserveStatus, s.cfg.StatusOverride)
				return out, nil
			}
			return s.concludeEvent(&out, ev, start, false)

		case <-deadline.C:
			return s.finishTimedOut(&out, pid, waitCh, start)

		case sig := <-sigCh:
			return s.finishForeign(&out, pid, waitCh, start, foreignSignal(sig))

		case <-ctx.Done():
			return s.finishForeign(&out, pid, waitCh, start, signals.SIGTERM)
		}
	}
}

// finishTimedOut handles deadline expiry: notify (unless suppressed), then
// either wait out the child or run the grace-period race.
func (s *Supervisor) finishTimedOut(out *Outcome, pid int, waitCh chan waitEvent, start time.Time) (Outcome, error) {
	// The reaper may have reaped the child in the same instant the deadline
	// fired; select picks arbitrarily among ready cases. A queued terminal
	// event means termination won the race, and once the child is reaped no
	// signal may target its pid.
	if ev, ok := pendingExit(waitCh); ok {
		return s.concludeEvent(out, ev, start, false)
	}

	out.TimedOut = true

	if !s.cfg.NoNotify {
		out.SignalSent = s.cfg.TermSignal.Name()
		s.diagf(diagTimeout, "Timeout", "sending signal %s to command '%s'", s.cfg.TermSignal, s.cfg.Command)
		// ESRCH surviving the group fallback means the child was reaped in
		// the window between the pending-event check and the send; the
		// terminal event is in flight and the wait below observes it.
		if err := s.deliver(s.cfg.TermSignal, pid); err != nil && !errors.Is(err, unix.ESRCH) {
			out.Elapsed = time.Since(start)
			out.ExitCode = constants.ExitCanceled
			return *out, err
		}
		if !s.cfg.Foreground {
			// A stopped child cannot act on the terminating signal; chase
			// it with SIGCONT so it gets the chance.
			_ = sendGroup(signals.SIGCONT, pid)
		}
	} else {
		s.diagf(diagInfo, "Info", "skipping initial signal (--no-notify), will send %s after grace period", signals.KillSignal())
	}

	if s.cfg.KillAfter == nil {
		st, err := s.waitExit(waitCh)
		out.Elapsed = time.Since(start)
		if err != nil {
			out.ExitCode = constants.ExitCanceled
			return *out, err
		}
		out.ExitCode = Code(st, true, s.cfg.PreserveStatus, s.cfg.StatusOverride)
		return *out, nil
	}

	// Grace-period race: a fresh timer, never the deadline timer
	// reprogrammed, so time spent above is not silently lost.
	grace := time.NewTimer(*s.cfg.KillAfter)
	defer grace.Stop()

	for {
		select {
		case ev := <-waitCh:
			if ev.err != nil {
				out.Elapsed = time.Since(start)
				out.ExitCode = constants.ExitCanceled
				return *out, ev.err
			}
			if ev.status.Stopped() {
				// Stop transitions are ignored once the deadline has
				// fired; the SIGCONT chase above and the coming SIGKILL
				// handle a stopped child.
				continue
			}
			return s.concludeEvent(out, ev, start, true)

		case <-grace.C:
			// Same boundary as the deadline: a terminal event already
			// queued means the child beat the grace timer.
			if ev, ok := pendingExit(waitCh); ok {
				return s.concludeEvent(out, ev, start, true)
			}
			out.KillAfterUsed = true
			kill := signals.KillSignal()
			out.SignalSent = kill.Name()
			s.diagf(diagKill, "Kill", "sending signal %s to command '%s'", kill, s.cfg.Command)
			if err := s.deliver(kill, pid); err != nil && !errors.Is(err, unix.ESRCH) {
				out.Elapsed = time.Since(start)
				out.ExitCode = constants.ExitCanceled
				return *out, err
			}
			// No further timer: SIGKILL cannot be caught or blocked, so
			// the terminal reap is guaranteed. Its outcome always wins
			// over preserve-status and status overrides.
			if _, err := s.waitExit(waitCh); err != nil {
				out.Elapsed = time.Since(start)
				out.ExitCode = constants.ExitCanceled
				return *out, err
			}
			out.Elapsed = time.Since(start)
			out.ExitCode = constants.SignalExitBase + kill.Number()
			return *out, nil
		}
	}
}

// finishForeign forwards an interrupt/terminate aimed at tlim itself to the
// child, reaps it, and exits 128+signal unconditionally: the supervisor is
// being asked to stop, so neither preserve-status nor overrides apply.
func (s *Supervisor) finishForeign(out *Outcome, pid int, waitCh chan waitEvent, start time.Time, sig signals.Signal) (Outcome, error) {
	// A child already reaped when the forwarded signal arrives keeps its own
	// outcome; there is nothing left to stop.
	if ev, ok := pendingExit(waitCh); ok {
		return s.concludeEvent(out, ev, start, false)
	}

	out.SignalSent = sig.Name()
	s.diagf(diagInfo, "Signal", "forwarding signal %s to command '%s'", sig, s.cfg.Command)
	if err := s.deliver(sig, pid); err != nil && !errors.Is(err, unix.ESRCH) {
		out.Elapsed = time.Since(start)
		out.ExitCode = constants.ExitCanceled
		return *out, err
	}

	if _, err := s.waitExit(waitCh); err != nil {
		out.Elapsed = time.Since(start)
		out.ExitCode = constants.ExitCanceled
		return *out, err
	}
	out.Elapsed = time.Since(start)
	out.ExitCode = constants.SignalExitBase + sig.Number()
	return *out, nil
}

// pendingExit reports a terminal wait event that is already queued, without
// blocking. Stop transitions found here are drained and dropped: a timer or
// forwarded signal has fired by now, and stops are not honored past that
// point.
func pendingExit(waitCh chan waitEvent) (waitEvent, bool) {
	for {
		select {
		case ev := <-waitCh:
			if ev.err != nil || !ev.status.Stopped() {
				return ev, true
			}
		default:
			return waitEvent{}, false
		}
	}
}

// concludeEvent turns a terminal wait event into the final outcome.
func (s *Supervisor) concludeEvent(out *Outcome, ev waitEvent, start time.Time, timedOut bool) (Outcome, error) {
	out.Elapsed = time.Since(start)
	if ev.err != nil {
		out.ExitCode = constants.ExitCanceled
		return *out, ev.err
	}
	out.ExitCode = Code(statusFromWait(ev.status), timedOut, s.cfg.PreserveStatus, s.cfg.StatusOverride)
	return *out, nil
}

// reap is the only code that waits on the child. It reports every observed
// transition and returns after the terminal one, so exactly one reap occurs
// and no signal can ever target an already-reaped pid through this loop.
func (s *Supervisor) reap(pid int, waitCh chan<- waitEvent) {
	var opts int
	if s.cfg.DetectStopped {
		opts = unix.WUNTRACED
	}

	for {
		var ws unix.WaitStatus
		_, err := unix.Wait4(pid, &ws, opts, nil)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			waitCh <- waitEvent{err: fmt.Errorf("waiting for child %d: %w", pid, err)}
			return
		}
		waitCh <- waitEvent{status: ws}
		if ws.Exited() || ws.Signaled() {
			return
		}
	}
}

// waitExit blocks until the child truly terminates, skipping any further
// stop transitions.
func (s *Supervisor) waitExit(waitCh chan waitEvent) (Status, error) {
	for {
		ev := <-waitCh
		if ev.err != nil {
			return Status{}, ev.err
		}
		if ev.status.Stopped() {
			continue
		}
		return statusFromWait(ev.status), nil
	}
}

func statusFromWait(ws unix.WaitStatus) Status {
	if ws.Signaled() {
		return Status{Kind: StatusSignaled, Signal: int(ws.Signal())}
	}
	return Status{Kind: StatusExited, Code: ws.ExitStatus()}
}

// foreignSignal maps an os/signal delivery to its directory entry.
func foreignSignal(sig os.Signal) signals.Signal {
	if sig == syscall.SIGINT {
		return signals.SIGINT
	}
	return signals.SIGTERM
}

// diagf prints one verbose diagnostic line to stderr, at the moment the
// described action happens.
func (s *Supervisor) diagf(c *color.Color, label, format string, args ...interface{}) {
	if !s.cfg.Verbose {
		return
	}
	c.Fprint(os.Stderr, label)
	fmt.Fprintf(os.Stderr, ": "+format+"\n", args...)
}
