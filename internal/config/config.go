// Package config loads the optional defaults file and env files for the
// supervised command. Everything here resolves before any process is
// launched; a bad value fails fast rather than partially starting
// supervision.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"tlim/internal/parse"
	"tlim/internal/signals"
)

// ErrConfigNotFound is returned when an explicitly requested config file
// does not exist. The default config file is allowed to be absent.
var ErrConfigNotFound = errors.New("config file not found")

// File is the YAML defaults file. Every field is optional and is overridden
// by its command-line flag. Pointer fields distinguish "set in the file"
// from "absent".
type File struct {
	Signal         string `yaml:"signal"`
	KillAfter      string `yaml:"kill_after"`
	PreserveStatus *bool  `yaml:"preserve_status"`
	Verbose        *bool  `yaml:"verbose"`
	EnvFile        string `yaml:"env_file"`
}

// Load reads and validates a defaults file. When required is false (the
// default lookup path) a missing file yields an empty File.
func Load(path string, required bool) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if required {
				return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
			}
			return &File{}, nil
		}
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if err := f.validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	return &f, nil
}

// validate resolves every parseable field so configuration errors surface
// at load time, not mid-supervision.
func (f *File) validate() error {
	if f.Signal != "" {
		if _, err := signals.Resolve(f.Signal); err != nil {
			return err
		}
	}
	if f.KillAfter != "" {
		if _, err := parse.Duration(f.KillAfter); err != nil {
			return err
		}
	}
	return nil
}

// ResolvedKillAfter returns the parsed kill_after value, or nil when unset.
// Only valid after a successful Load.
func (f *File) ResolvedKillAfter() *time.Duration {
	if f.KillAfter == "" {
		return nil
	}
	d, err := parse.Duration(f.KillAfter)
	if err != nil {
		return nil
	}
	return &d
}
