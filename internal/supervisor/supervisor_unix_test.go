//go:build unix

package supervisor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"tlim/internal/launch"
	"tlim/internal/rlimit"
	"tlim/internal/signals"
)

// TestMain lets the test binary stand in for the tlim binary: the
// supervisor launches children by re-executing os.Executable with the shim
// marker set, and here that executable is the test binary itself.
func TestMain(m *testing.M) {
	if launch.IsChild() {
		launch.Main()
	}
	os.Exit(m.Run())
}

func dptr(d time.Duration) *time.Duration { return &d }

// shell builds a config that runs a shell script under the given deadline.
func shell(deadline time.Duration, script string) Config {
	return Config{
		Command:    "sh",
		Args:       []string{"-c", script},
		Deadline:   deadline,
		TermSignal: signals.Default(),
	}
}

func runSupervisor(t *testing.T, cfg Config) Outcome {
	t.Helper()
	out, err := New(cfg).Run(context.Background())
	require.NoError(t, err)
	return out
}

func TestRun_FastExit(t *testing.T) {
	out := runSupervisor(t, shell(5*time.Second, "exit 0"))

	assert.False(t, out.TimedOut)
	assert.Equal(t, 0, out.ExitCode)
	assert.Empty(t, out.SignalSent)
	assert.False(t, out.KillAfterUsed)
	assert.False(t, out.StoppedDetected)
	assert.Less(t, out.Elapsed, 5*time.Second)
}

func TestRun_ChildExitCodePassesThrough(t *testing.T) {
	out := runSupervisor(t, shell(5*time.Second, "sleep 0.2; exit 3"))

	assert.False(t, out.TimedOut)
	assert.Equal(t, 3, out.ExitCode)
}

func TestRun_Timeout(t *testing.T) {
	out := runSupervisor(t, shell(300*time.Millisecond, "sleep 10"))

	assert.True(t, out.TimedOut)
	assert.Equal(t, 124, out.ExitCode)
	assert.Equal(t, "SIGTERM", out.SignalSent)
	assert.False(t, out.KillAfterUsed)
	assert.GreaterOrEqual(t, out.Elapsed, 300*time.Millisecond)
}

func TestRun_TimeoutPreserveStatus(t *testing.T) {
	// The shell exits 0 from its TERM trap; wait (unlike a foreground
	// sleep) is interruptible by the trap.
	script := "trap 'exit 0' TERM; sleep 10 & wait"

	t.Run("preserved", func(t *testing.T) {
		cfg := shell(300*time.Millisecond, script)
		cfg.PreserveStatus = true
		out := runSupervisor(t, cfg)

		assert.True(t, out.TimedOut)
		assert.Equal(t, 0, out.ExitCode)
	})

	t.Run("not preserved", func(t *testing.T) {
		out := runSupervisor(t, shell(300*time.Millisecond, script))

		assert.True(t, out.TimedOut)
		assert.Equal(t, 124, out.ExitCode)
	})
}

func TestRun_StatusOverrideWins(t *testing.T) {
	cfg := shell(300*time.Millisecond, "sleep 10")
	cfg.PreserveStatus = true
	override := 7
	cfg.StatusOverride = &override

	out := runSupervisor(t, cfg)

	assert.True(t, out.TimedOut)
	assert.Equal(t, 7, out.ExitCode)
}

func TestRun_KillAfterEscalation(t *testing.T) {
	// The shell ignores SIGTERM and keeps respawning short sleeps, so only
	// the SIGKILL escalation can end it.
	cfg := shell(300*time.Millisecond, "trap '' TERM; while :; do sleep 0.1; done")
	cfg.KillAfter = dptr(300 * time.Millisecond)

	out := runSupervisor(t, cfg)

	assert.True(t, out.TimedOut)
	assert.True(t, out.KillAfterUsed)
	assert.Equal(t, 137, out.ExitCode)
	assert.Equal(t, "SIGKILL", out.SignalSent)
	assert.GreaterOrEqual(t, out.Elapsed, 600*time.Millisecond)
}

func TestRun_KillAfterUnusedWhenChildYields(t *testing.T) {
	cfg := shell(300*time.Millisecond, "sleep 10")
	cfg.KillAfter = dptr(10 * time.Second)

	out := runSupervisor(t, cfg)

	assert.True(t, out.TimedOut)
	assert.False(t, out.KillAfterUsed, "grace timer never elapsed")
	assert.Equal(t, 124, out.ExitCode)
	assert.Equal(t, "SIGTERM", out.SignalSent)
	assert.Less(t, out.Elapsed, 5*time.Second)
}

func TestRun_KillAfterIgnoresPreserveStatus(t *testing.T) {
	cfg := shell(300*time.Millisecond, "trap '' TERM; while :; do sleep 0.1; done")
	cfg.KillAfter = dptr(300 * time.Millisecond)
	cfg.PreserveStatus = true
	override := 42
	cfg.StatusOverride = &override

	out := runSupervisor(t, cfg)

	// Once the escalation kill has been sent its outcome always wins.
	assert.Equal(t, 137, out.ExitCode)
	assert.True(t, out.KillAfterUsed)
}

func TestRun_NoNotify(t *testing.T) {
	cfg := shell(200*time.Millisecond, "sleep 10")
	cfg.NoNotify = true
	cfg.KillAfter = dptr(300 * time.Millisecond)

	out := runSupervisor(t, cfg)

	assert.True(t, out.TimedOut)
	assert.True(t, out.KillAfterUsed)
	assert.Equal(t, 137, out.ExitCode)
	assert.Equal(t, "SIGKILL", out.SignalSent, "no initial signal should be recorded")
	assert.GreaterOrEqual(t, out.Elapsed, 500*time.Millisecond)
}

func TestRun_CommandNotFound(t *testing.T) {
	cfg := Config{
		Command:    "tlim-no-such-command-exists",
		Deadline:   5 * time.Second,
		TermSignal: signals.Default(),
	}

	out := runSupervisor(t, cfg)

	assert.False(t, out.TimedOut, "a launch failure is never a timeout")
	assert.Equal(t, 127, out.ExitCode)
}

func TestRun_CommandNotExecutable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "noexec")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"), 0o600))

	cfg := Config{
		Command:    path,
		Deadline:   5 * time.Second,
		TermSignal: signals.Default(),
	}

	out := runSupervisor(t, cfg)

	assert.False(t, out.TimedOut)
	assert.Equal(t, 126, out.ExitCode)
}

func TestRun_StoppedChildIsResumed(t *testing.T) {
	cfg := shell(10*time.Second, "kill -STOP $$; exit 5")
	cfg.DetectStopped = true

	out := runSupervisor(t, cfg)

	assert.True(t, out.StoppedDetected)
	assert.False(t, out.TimedOut)
	assert.Equal(t, 5, out.ExitCode, "the stop must never become the terminal outcome")
}

func TestRun_StoppedChildWithoutDetection(t *testing.T) {
	// Without detect-stopped the stop is invisible; the deadline fires and
	// the SIGCONT chase lets the stopped shell receive the pending SIGTERM.
	cfg := shell(500*time.Millisecond, "kill -STOP $$; exit 5")

	out := runSupervisor(t, cfg)

	assert.False(t, out.StoppedDetected)
	assert.True(t, out.TimedOut)
	assert.Equal(t, 124, out.ExitCode)
}

func TestRun_StoppedChildDuringGracePeriod(t *testing.T) {
	// Interplay of detect-stopped and kill-after when the stop happens
	// after the deadline: stop transitions are only honored during the
	// initial race, so the stop is ignored and SIGKILL at grace expiry
	// terminates the stopped shell.
	cfg := shell(200*time.Millisecond, "trap '' TERM; sleep 0.5; kill -STOP $$; sleep 10")
	cfg.DetectStopped = true
	cfg.KillAfter = dptr(600 * time.Millisecond)

	out := runSupervisor(t, cfg)

	assert.True(t, out.TimedOut)
	assert.True(t, out.KillAfterUsed)
	assert.Equal(t, 137, out.ExitCode)
	assert.False(t, out.StoppedDetected, "stops after the deadline are not recorded")
}

func TestRun_ForeignSignalForwarded(t *testing.T) {
	timer := time.AfterFunc(300*time.Millisecond, func() {
		_ = unix.Kill(os.Getpid(), unix.SIGTERM)
	})
	defer timer.Stop()

	out := runSupervisor(t, shell(10*time.Second, "sleep 10"))

	assert.False(t, out.TimedOut)
	assert.Equal(t, "SIGTERM", out.SignalSent)
	assert.Equal(t, 143, out.ExitCode, "128+15 unconditionally")
}

func TestRun_ContextCancelBehavesLikeTerminate(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	timer := time.AfterFunc(300*time.Millisecond, cancel)
	defer timer.Stop()

	out, err := New(shell(10*time.Second, "sleep 10")).Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 143, out.ExitCode)
	assert.Equal(t, "SIGTERM", out.SignalSent)
}

func TestRun_ForegroundMode(t *testing.T) {
	t.Run("fast exit", func(t *testing.T) {
		cfg := shell(5*time.Second, "exit 3")
		cfg.Foreground = true
		out := runSupervisor(t, cfg)
		assert.Equal(t, 3, out.ExitCode)
	})

	t.Run("timeout signals the process only", func(t *testing.T) {
		cfg := Config{
			Command:    "sleep",
			Args:       []string{"10"},
			Deadline:   300 * time.Millisecond,
			TermSignal: signals.Default(),
			Foreground: true,
		}
		out := runSupervisor(t, cfg)
		assert.True(t, out.TimedOut)
		assert.Equal(t, 124, out.ExitCode)
	})
}

func TestRun_ExtraEnvReachesChild(t *testing.T) {
	cfg := shell(5*time.Second, `test "$TLIM_TEST_VALUE" = hello`)
	cfg.ExtraEnv = []string{"TLIM_TEST_VALUE=hello"}

	out := runSupervisor(t, cfg)
	assert.Equal(t, 0, out.ExitCode)
}

func TestRun_ZeroDeadline(t *testing.T) {
	out := runSupervisor(t, shell(0, "sleep 10"))

	assert.True(t, out.TimedOut)
	assert.Equal(t, 124, out.ExitCode)
}

func TestRun_CustomTermSignal(t *testing.T) {
	cfg := shell(300*time.Millisecond, "sleep 10")
	cfg.TermSignal = signals.SIGKILL

	out := runSupervisor(t, cfg)

	assert.True(t, out.TimedOut)
	assert.Equal(t, "SIGKILL", out.SignalSent)
	// SIGKILL death on timeout without preserve-status still reports the
	// timed-out code via the policy.
	assert.Equal(t, 124, out.ExitCode)
}

// exitedStatus fabricates the wait status of a child that exited with code.
func exitedStatus(code int) unix.WaitStatus {
	return unix.WaitStatus(code << 8)
}

func TestFinishTimedOut_ChildAlreadyReaped(t *testing.T) {
	// The reaper can reap the child in the same instant the deadline fires.
	// A terminal event already queued means the child exited first: its own
	// status must win, and nothing may be signaled toward the reaped pid
	// (the bogus pid here would make any send fail).
	s := New(shell(time.Millisecond, "unused"))
	waitCh := make(chan waitEvent, 1)
	waitCh <- waitEvent{status: exitedStatus(7)}

	var out Outcome
	got, err := s.finishTimedOut(&out, 1<<30, waitCh, time.Now().Add(-time.Millisecond))
	require.NoError(t, err)

	assert.False(t, got.TimedOut)
	assert.Equal(t, 7, got.ExitCode)
	assert.Empty(t, got.SignalSent)
	assert.Greater(t, got.Elapsed, time.Duration(0))
}

func TestFinishForeign_ChildAlreadyReaped(t *testing.T) {
	s := New(shell(time.Second, "unused"))
	waitCh := make(chan waitEvent, 1)
	waitCh <- waitEvent{status: exitedStatus(3)}

	var out Outcome
	got, err := s.finishForeign(&out, 1<<30, waitCh, time.Now().Add(-time.Millisecond), signals.SIGTERM)
	require.NoError(t, err)

	assert.Equal(t, 3, got.ExitCode, "a reaped child keeps its own outcome")
	assert.Empty(t, got.SignalSent)
}

func TestFinishTimedOut_ReaperFailureSetsElapsed(t *testing.T) {
	s := New(shell(time.Millisecond, "unused"))
	waitCh := make(chan waitEvent, 1)
	waitCh <- waitEvent{err: errors.New("wait failed")}

	var out Outcome
	got, err := s.finishTimedOut(&out, 1<<30, waitCh, time.Now().Add(-time.Millisecond))
	require.Error(t, err)

	assert.Equal(t, 125, got.ExitCode)
	assert.Greater(t, got.Elapsed, time.Duration(0), "elapsed must be recorded on failure paths too")
}

func TestRun_ExitAtDeadlineBoundary(t *testing.T) {
	// The child's exit and the deadline land in the same instant, jittered
	// across iterations so both orderings occur. Whichever wins, the outcome
	// is the child's own status or the timeout code; a delivery failure
	// against the already-reaped pid is never acceptable.
	for i := 0; i < 40; i++ {
		deadline := 40*time.Millisecond + time.Duration(i%3)*time.Millisecond
		out, err := New(shell(deadline, "sleep 0.04; exit 7")).Run(context.Background())
		require.NoError(t, err)

		if out.TimedOut {
			assert.Equal(t, 124, out.ExitCode)
		} else {
			assert.Equal(t, 7, out.ExitCode)
		}
	}
}

func TestRun_CPULimitEnforced(t *testing.T) {
	if !rlimit.Supported() {
		t.Skip("resource limits not supported on this platform")
	}

	cpu := uint64(1)
	cfg := shell(20*time.Second, "while :; do :; done")
	cfg.CPULimit = &cpu

	out := runSupervisor(t, cfg)

	assert.False(t, out.TimedOut)
	// SIGXCPU (24 on Linux) kills the busy loop once the limit is hit.
	assert.Equal(t, 128+24, out.ExitCode)
}
