//go:build unix

package supervisor

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"

	"tlim/internal/launch"
)

// startChild launches the supervised command via the exec shim: the current
// binary re-invoked with the target as argv and the shim marker in its
// environment. Group isolation is established by the kernel between fork
// and exec, so no child of the command can be created outside the group.
func (s *Supervisor) startChild() (int, error) {
	exe, err := os.Executable()
	if err != nil {
		return 0, fmt.Errorf("locating own executable: %w", err)
	}

	argv := append([]string{s.cfg.Command}, s.cfg.Args...)
	cmd := exec.Command(exe, argv...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	cmd.Env = append(os.Environ(), s.cfg.ExtraEnv...)
	cmd.Env = append(cmd.Env, launch.ChildEnv(s.cfg.limits(), s.cfg.Verbose)...)

	attr := &syscall.SysProcAttr{}
	if !s.cfg.Foreground {
		// New group with the child as leader (pgid == pid).
		attr.Setpgid = true
	}
	setPdeathsig(attr)
	cmd.SysProcAttr = attr

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("starting child process: %w", err)
	}

	// The reaper goroutine is the sole waiter from here on; exec.Cmd.Wait
	// must never be called on this command.
	return cmd.Process.Pid, nil
}
