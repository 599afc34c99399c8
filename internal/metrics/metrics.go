// Package metrics emits the optional structured outcome line. It is a
// read-only consumer of the supervisor's final state: pure formatting with
// no control-flow effect on the process.
package metrics

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"tlim/internal/constants"
	"tlim/internal/supervisor"
)

// Enabled reports whether the metrics toggle was set in the environment.
// The CLI reads this once at startup into its configuration snapshot.
func Enabled() bool {
	_, ok := os.LookupEnv(constants.MetricsEnvVar)
	return ok
}

// line is the wire shape of one outcome. Pointer fields serialize as null
// when the corresponding limit was never configured.
type line struct {
	Command         string  `json:"command"`
	DurationMS      int64   `json:"duration_ms"`
	TimedOut        bool    `json:"timed_out"`
	ExitCode        int     `json:"exit_code"`
	Signal          string  `json:"signal"`
	ElapsedMS       int64   `json:"elapsed_ms"`
	KillAfterUsed   bool    `json:"kill_after_used"`
	CPULimit        *uint64 `json:"cpu_limit"`
	MemoryLimit     *uint64 `json:"memory_limit"`
	StoppedDetected bool    `json:"stopped_detected"`
	Platform        string  `json:"platform"`
}

// Emit writes one JSON line describing the outcome. It never fails the
// process: if encoding ever breaks it falls back to a placeholder line.
func Emit(w io.Writer, out supervisor.Outcome) {
	sig := out.SignalSent
	if sig == "" {
		sig = "none"
	}

	data, err := json.Marshal(line{
		Command:         out.Command,
		DurationMS:      out.Deadline.Milliseconds(),
		TimedOut:        out.TimedOut,
		ExitCode:        out.ExitCode,
		Signal:          sig,
		ElapsedMS:       out.Elapsed.Milliseconds(),
		KillAfterUsed:   out.KillAfterUsed,
		CPULimit:        out.CPULimit,
		MemoryLimit:     out.MemLimit,
		StoppedDetected: out.StoppedDetected,
		Platform:        out.Platform,
	})
	if err != nil {
		fmt.Fprintf(w, `{"command":null,"exit_code":%d}`+"\n", out.ExitCode)
		return
	}

	w.Write(data)
	io.WriteString(w, "\n")
}
