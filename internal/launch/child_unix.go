//go:build unix

package launch

import (
	"errors"
	"io/fs"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"golang.org/x/sys/unix"

	"tlim/internal/constants"
	"tlim/internal/platform"
	"tlim/internal/rlimit"
)

// Main is the shim entry point. It never returns: it either replaces the
// process image with the target command or exits with a status that tells
// the supervisor why the command never ran (127 not found, 126 cannot
// invoke).
func Main() {
	verbose := os.Getenv(constants.ChildVerboseEnvVar) == "1"
	limits := limitsFromEnv()
	argv := os.Args[1:]
	scrubEnv()

	if len(argv) == 0 {
		color.New(color.FgRed).Fprint(os.Stderr, "Error")
		os.Stderr.WriteString(": exec shim invoked without a command\n")
		os.Exit(constants.ExitCanceled)
	}

	if verbose && !platform.IsLinux() {
		color.New(color.FgCyan).Fprint(os.Stderr, "Note")
		os.Stderr.WriteString(": orphan prevention (parent-death signal) not available on " + platform.Name() + "\n")
	}

	// A child inheriting an ignored SIGTTIN/SIGTTOU can hang silently on
	// terminal arbitration once backgrounded; put them back to default
	// before the target image takes over.
	signal.Reset(syscall.SIGTTIN, syscall.SIGTTOU)

	if rlimit.Supported() {
		for _, err := range rlimit.Apply(limits) {
			warn(err.Error())
		}
	}

	// The supervisor cleared its own dumpable flag before forking; the
	// command should run with normal core-dump eligibility.
	restoreCoreDumps()

	path, err := exec.LookPath(argv[0])
	if err != nil {
		execFailed(argv[0], err)
	}

	err = unix.Exec(path, argv, os.Environ())
	// Exec only returns on failure.
	execFailed(argv[0], err)
}

func execFailed(cmd string, err error) {
	code := constants.ExitCannotInvoke
	switch {
	case errors.Is(err, exec.ErrNotFound),
		errors.Is(err, fs.ErrNotExist),
		errors.Is(err, unix.ENOENT):
		code = constants.ExitNotFound
	}

	color.New(color.FgRed).Fprint(os.Stderr, "Error")
	os.Stderr.WriteString(": failed to run command '" + cmd + "': " + err.Error() + "\n")
	os.Exit(code)
}

func warn(msg string) {
	color.New(color.FgYellow).Fprint(os.Stderr, "Warning")
	os.Stderr.WriteString(": " + msg + "\n")
}
