// Package cli is the command-line surface: flag parsing, config-file
// merging, and the exit-code boundary. Everything that can be rejected is
// rejected here, before any process is launched.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"tlim/internal/constants"
	"tlim/internal/metrics"
	"tlim/internal/rlimit"
	"tlim/internal/supervisor"
)

// Version is set during build.
var Version = "dev"

// options holds the raw flag values; merging with the config file happens
// in buildConfig.
type options struct {
	signal         string
	killAfter      string
	foreground     bool
	preserveStatus bool
	verbose        bool
	detectStopped  bool
	noNotify       bool
	status         int
	cpuLimit       uint64
	memLimit       string
	configPath     string
	envFile        string
}

// app ties one root command to its flag storage so tests can build
// independent instances.
type app struct {
	opts options
	cmd  *cobra.Command

	exitCode int
}

func newApp() *app {
	a := &app{}

	a.cmd = &cobra.Command{
		Use:   "tlim [flags] DURATION COMMAND [ARG...]",
		Short: "Run a command with a time limit",
		Long: `tlim starts COMMAND and kills it if it is still running after DURATION.

DURATION is a number with an optional suffix: 's' (default), 'm', 'h' or 'd'.
On timeout the terminating signal is sent to the command's process group;
--kill-after escalates to SIGKILL if it does not exit within the grace
period. tlim exits 124 when the command timed out, 125 on tlim's own
failures, 126 when the command could not be invoked, 127 when it was not
found, and with the command's status otherwise.`,
		Version:       Version,
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          a.run,
	}

	f := a.cmd.Flags()
	// The wrapped command's own flags must pass through untouched, so flag
	// parsing stops at the first positional argument.
	f.SetInterspersed(false)

	f.StringVarP(&a.opts.signal, "signal", "s", "", "send this signal on timeout instead of SIGTERM")
	f.StringVarP(&a.opts.killAfter, "kill-after", "k", "", "also send SIGKILL if still running this long after the deadline")
	f.BoolVarP(&a.opts.foreground, "foreground", "f", false, "do not create a process group; let COMMAND use the TTY directly")
	f.BoolVar(&a.opts.preserveStatus, "preserve-status", false, "exit with COMMAND's status even on timeout")
	f.BoolVarP(&a.opts.verbose, "verbose", "v", false, "diagnose each signal sent to stderr")
	f.BoolVar(&a.opts.detectStopped, "detect-stopped", false, "detect a stopped COMMAND and resume it instead of treating the stop as completion")
	f.BoolVar(&a.opts.noNotify, "no-notify", false, "skip the initial signal on timeout; only the kill-after escalation is sent")
	f.IntVar(&a.opts.status, "status", 0, "exit with this status on timeout instead of 124")
	f.Uint64Var(&a.opts.cpuLimit, "cpu-limit", 0, "limit COMMAND's CPU time in seconds (best effort)")
	f.StringVar(&a.opts.memLimit, "mem-limit", "", "limit COMMAND's memory, e.g. 512K, 100M, 1G (best effort)")
	f.StringVarP(&a.opts.configPath, "config", "c", constants.DefaultConfigFile, "defaults file")
	f.StringVar(&a.opts.envFile, "env-file", "", "env file whose variables are added to COMMAND's environment")

	a.cmd.SetVersionTemplate("tlim version {{.Version}}\n")

	return a
}

func (a *app) run(cmd *cobra.Command, args []string) error {
	cfg, err := a.buildConfig(args)
	if err != nil {
		return err
	}

	if (cfg.CPULimit != nil || cfg.MemLimit != nil) && !rlimit.Supported() {
		warnf("resource limits (--cpu-limit, --mem-limit) not supported on this platform")
		cfg.CPULimit = nil
		cfg.MemLimit = nil
	}

	emitMetrics := metrics.Enabled()

	out, runErr := supervisor.New(cfg).Run(context.Background())
	if emitMetrics {
		metrics.Emit(os.Stderr, out)
	}
	if runErr != nil {
		return runErr
	}

	a.exitCode = out.ExitCode
	return nil
}

// Execute runs the CLI and returns the process exit code. Configuration
// and supervisor-level failures map to the canceled status; a successful
// supervision run yields whatever the exit-code policy derived.
func Execute() int {
	a := newApp()
	if err := a.cmd.Execute(); err != nil {
		color.New(color.FgRed).Fprint(os.Stderr, "tlim")
		fmt.Fprintf(os.Stderr, ": %v\n", err)
		return constants.ExitCanceled
	}
	return a.exitCode
}

func warnf(format string, args ...interface{}) {
	color.New(color.FgYellow).Fprint(os.Stderr, "Warning")
	fmt.Fprintf(os.Stderr, ": "+format+"\n", args...)
}
