//go:build windows

package supervisor

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"os/signal"
	"time"

	"github.com/fatih/color"

	"tlim/internal/constants"
	"tlim/internal/platform"
)

var (
	diagTimeout = color.New(color.FgRed)
	diagKill    = color.New(color.FgHiRed)
	diagInfo    = color.New(color.FgCyan)
)

// The spawn-based variant: no process groups, no exec shim, no resource
// limits, and a single kill primitive. It shares the Config/Outcome data
// model and the exit-code policy with the Unix implementation.
func (s *Supervisor) run(ctx context.Context) (Outcome, error) {
	out := Outcome{
		Command:  s.cfg.Command,
		Deadline: s.cfg.Deadline,
		Platform: platform.Name(),
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	defer signal.Stop(sigCh)

	start := time.Now()

	cmd := exec.Command(s.cfg.Command, s.cfg.Args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = append(os.Environ(), s.cfg.ExtraEnv...)

	if err := cmd.Start(); err != nil {
		// Launch failure surfaces as a distinguishing exit status, never
		// as a timeout.
		fmt.Fprintf(os.Stderr, "Error: failed to execute command '%s': %v\n", s.cfg.Command, err)
		out.Elapsed = time.Since(start)
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
			out.ExitCode = constants.ExitNotFound
		} else {
			out.ExitCode = constants.ExitCannotInvoke
		}
		return out, nil
	}

	waitCh := make(chan error, 1)
	go func() { waitCh <- cmd.Wait() }()

	deadline := time.NewTimer(s.cfg.Deadline)
	defer deadline.Stop()

	kill := func(label string) {
		s.diagf(diagKill, label, "terminating command '%s'", s.cfg.Command)
		if err := cmd.Process.Kill(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to terminate child process: %v\n", err)
		}
	}

	finish := func(err error) (Outcome, error) {
		out.Elapsed = time.Since(start)
		out.ExitCode = Code(waitStatus(err), out.TimedOut, s.cfg.PreserveStatus, s.cfg.StatusOverride)
		return out, nil
	}

	for {
		select {
		case err := <-waitCh:
			return finish(err)

		case <-deadline.C:
			out.TimedOut = true
			out.SignalSent = "TERMINATE"
			if s.cfg.KillAfter == nil {
				kill("Timeout")
				return finish(<-waitCh)
			}
			s.diagf(diagTimeout, "Timeout", "deadline expired, grace period %s begins", *s.cfg.KillAfter)
			grace := time.NewTimer(*s.cfg.KillAfter)
			select {
			case err := <-waitCh:
				grace.Stop()
				return finish(err)
			case <-grace.C:
				out.KillAfterUsed = true
				kill("Kill")
				return finish(<-waitCh)
			}

		case <-sigCh:
			s.diagf(diagInfo, "Signal", "interrupt received, terminating command '%s'", s.cfg.Command)
			kill("Signal")
			return finish(<-waitCh)

		case <-ctx.Done():
			kill("Signal")
			return finish(<-waitCh)
		}
	}
}

// waitStatus decodes exec.Cmd.Wait's result into the shared Status model.
func waitStatus(err error) Status {
	if err == nil {
		return Status{Kind: StatusExited, Code: 0}
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return Status{Kind: StatusExited, Code: exitErr.ExitCode()}
	}
	return Status{Kind: StatusExited, Code: constants.ExitCanceled}
}

func (s *Supervisor) diagf(c *color.Color, label, format string, args ...interface{}) {
	if !s.cfg.Verbose {
		return
	}
	c.Fprint(os.Stderr, label)
	fmt.Fprintf(os.Stderr, ": "+format+"\n", args...)
}
