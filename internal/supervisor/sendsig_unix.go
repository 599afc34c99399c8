//go:build unix

package supervisor

import (
	"errors"
	"fmt"
	"syscall"

	"golang.org/x/sys/unix"

	"tlim/internal/signals"
)

// sysSignal converts a directory signal to this platform's signal value.
// The directory stores conventional Linux numbers for exit-code purposes;
// actual delivery must use the local constants (SIGUSR1 is 30 on macOS).
func sysSignal(sig signals.Signal) syscall.Signal {
	switch sig.Name() {
	case "SIGHUP":
		return syscall.SIGHUP
	case "SIGINT":
		return syscall.SIGINT
	case "SIGQUIT":
		return syscall.SIGQUIT
	case "SIGKILL":
		return syscall.SIGKILL
	case "SIGUSR1":
		return syscall.SIGUSR1
	case "SIGUSR2":
		return syscall.SIGUSR2
	case "SIGALRM":
		return syscall.SIGALRM
	case "SIGTERM":
		return syscall.SIGTERM
	case "SIGCONT":
		return syscall.SIGCONT
	default:
		return syscall.Signal(sig.Number())
	}
}

// sendProcess delivers sig to the process only.
func sendProcess(sig signals.Signal, pid int) error {
	if err := unix.Kill(pid, sysSignal(sig)); err != nil {
		return fmt.Errorf("sending %s to process %d: %w", sig, pid, err)
	}
	return nil
}

// sendGroup delivers sig to the child's process group. macOS can report
// ESRCH for a group whose leader is still alive, so that result is retried
// once against the process id before counting as a failure.
func sendGroup(sig signals.Signal, pgid int) error {
	err := unix.Kill(-pgid, sysSignal(sig))
	if errors.Is(err, unix.ESRCH) {
		err = unix.Kill(pgid, sysSignal(sig))
	}
	if err != nil {
		return fmt.Errorf("sending %s to process group %d: %w", sig, pgid, err)
	}
	return nil
}

// deliver routes a signal to the process or its group per the foreground
// flag. The child's group id equals its pid because the launcher creates
// the group with the child as leader.
func (s *Supervisor) deliver(sig signals.Signal, pid int) error {
	if s.cfg.Foreground {
		return sendProcess(sig, pid)
	}
	return sendGroup(sig, pid)
}
