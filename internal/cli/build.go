package cli

import (
	"tlim/internal/config"
	"tlim/internal/constants"
	"tlim/internal/parse"
	"tlim/internal/signals"
	"tlim/internal/supervisor"
)

// buildConfig merges flags, the optional defaults file, and built-in
// defaults into an immutable supervision config. Precedence: explicit flag,
// then config file, then default. Any bad value fails here, before launch.
func (a *app) buildConfig(args []string) (supervisor.Config, error) {
	flags := a.cmd.Flags()

	// The default config file may be absent; an explicitly requested one
	// may not.
	file, err := config.Load(a.opts.configPath, flags.Changed("config"))
	if err != nil {
		return supervisor.Config{}, err
	}

	cfg := supervisor.Config{
		Command: args[1],
		Args:    args[2:],
	}

	cfg.Deadline, err = parse.Duration(args[0])
	if err != nil {
		return supervisor.Config{}, err
	}

	signalName := constants.DefaultSignalName
	if file.Signal != "" {
		signalName = file.Signal
	}
	if flags.Changed("signal") {
		signalName = a.opts.signal
	}
	cfg.TermSignal, err = signals.Resolve(signalName)
	if err != nil {
		return supervisor.Config{}, err
	}

	cfg.KillAfter = file.ResolvedKillAfter()
	if flags.Changed("kill-after") {
		ka, err := parse.Duration(a.opts.killAfter)
		if err != nil {
			return supervisor.Config{}, err
		}
		cfg.KillAfter = &ka
	}

	cfg.PreserveStatus = a.opts.preserveStatus
	if !flags.Changed("preserve-status") && file.PreserveStatus != nil {
		cfg.PreserveStatus = *file.PreserveStatus
	}

	cfg.Verbose = a.opts.verbose
	if !flags.Changed("verbose") && file.Verbose != nil {
		cfg.Verbose = *file.Verbose
	}

	cfg.Foreground = a.opts.foreground
	cfg.DetectStopped = a.opts.detectStopped
	cfg.NoNotify = a.opts.noNotify

	if flags.Changed("status") {
		status := a.opts.status
		cfg.StatusOverride = &status
	}

	if flags.Changed("cpu-limit") {
		cpu := a.opts.cpuLimit
		cfg.CPULimit = &cpu
	}
	if flags.Changed("mem-limit") {
		mem, err := parse.Size(a.opts.memLimit)
		if err != nil {
			return supervisor.Config{}, err
		}
		cfg.MemLimit = &mem
	}

	envFile := file.EnvFile
	if flags.Changed("env-file") {
		envFile = a.opts.envFile
	}
	env, err := config.LoadEnvFile(envFile)
	if err != nil {
		return supervisor.Config{}, err
	}
	cfg.ExtraEnv = config.EnvList(env)

	return cfg, nil
}
