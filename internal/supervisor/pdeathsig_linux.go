package supervisor

import "syscall"

// setPdeathsig arranges for the kernel to SIGKILL the child if the
// supervisor dies first, so killing tlim cannot orphan the command.
func setPdeathsig(attr *syscall.SysProcAttr) {
	attr.Pdeathsig = syscall.SIGKILL
}
