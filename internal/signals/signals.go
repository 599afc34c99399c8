// Package signals maps mnemonic and numeric signal names to the subset of
// signals tlim ever sends or interprets.
//
// The directory is intentionally a closed whitelist rather than the full OS
// signal table: it covers exactly the signals a timeout wrapper needs to
// deliver (termination, interrupt, continue) plus the handful users commonly
// pass with --signal. Signal values are kept as plain numbers so the package
// is portable; only the supervisor converts them to platform signals.
package signals

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownSignal is returned when an input does not resolve to a
// whitelisted signal.
var ErrUnknownSignal = errors.New("unknown signal")

// Signal is a whitelisted signal: a canonical SIG-prefixed name and its
// conventional Unix number.
type Signal struct {
	name string
	num  int
}

// Name returns the canonical mnemonic, e.g. "SIGTERM".
func (s Signal) Name() string { return s.name }

// Number returns the conventional Unix signal number.
func (s Signal) Number() int { return s.num }

func (s Signal) String() string { return s.name }

// The whitelist. Numbers follow the common Linux/x86 assignments, which is
// also what users type after "kill -l".
var (
	SIGHUP  = Signal{"SIGHUP", 1}
	SIGINT  = Signal{"SIGINT", 2}
	SIGQUIT = Signal{"SIGQUIT", 3}
	SIGKILL = Signal{"SIGKILL", 9}
	SIGUSR1 = Signal{"SIGUSR1", 10}
	SIGUSR2 = Signal{"SIGUSR2", 12}
	SIGALRM = Signal{"SIGALRM", 14}
	SIGTERM = Signal{"SIGTERM", 15}
	SIGCONT = Signal{"SIGCONT", 18}
)

var byInput = map[string]Signal{
	"HUP": SIGHUP, "SIGHUP": SIGHUP, "1": SIGHUP,
	"INT": SIGINT, "SIGINT": SIGINT, "2": SIGINT,
	"QUIT": SIGQUIT, "SIGQUIT": SIGQUIT, "3": SIGQUIT,
	"KILL": SIGKILL, "SIGKILL": SIGKILL, "9": SIGKILL,
	"USR1": SIGUSR1, "SIGUSR1": SIGUSR1, "10": SIGUSR1,
	"USR2": SIGUSR2, "SIGUSR2": SIGUSR2, "12": SIGUSR2,
	"ALRM": SIGALRM, "SIGALRM": SIGALRM, "14": SIGALRM,
	"TERM": SIGTERM, "SIGTERM": SIGTERM, "15": SIGTERM,
	"CONT": SIGCONT, "SIGCONT": SIGCONT, "18": SIGCONT,
}

// Resolve maps a mnemonic ("term", "SIGTERM") or whitelisted numeric form
// ("15") to its Signal. Unknown inputs fail with ErrUnknownSignal; nothing
// ever defaults to a signal.
func Resolve(input string) (Signal, error) {
	key := strings.ToUpper(strings.TrimSpace(input))
	sig, ok := byInput[key]
	if !ok {
		return Signal{}, fmt.Errorf("%w: %q", ErrUnknownSignal, input)
	}
	return sig, nil
}

// Default returns the terminating signal sent on timeout when none is
// configured.
func Default() Signal { return SIGTERM }

// KillSignal returns the unconditional escalation signal used when the grace
// period expires. It is not configurable.
func KillSignal() Signal { return SIGKILL }
