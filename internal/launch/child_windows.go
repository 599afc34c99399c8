//go:build windows

package launch

import (
	"os"

	"tlim/internal/constants"
)

// Main should be unreachable on Windows: the spawn-based supervisor starts
// the command directly and never sets the shim marker.
func Main() {
	os.Stderr.WriteString("Error: exec shim is not used on Windows\n")
	os.Exit(constants.ExitCanceled)
}
