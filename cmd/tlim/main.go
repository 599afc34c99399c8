package main

import (
	"os"

	"tlim/internal/cli"
	"tlim/internal/launch"
)

func main() {
	// A re-invocation carrying the shim marker is the child half of a
	// launch: it must set itself up and exec the target, never parse flags.
	if launch.IsChild() {
		launch.Main()
	}

	os.Exit(cli.Execute())
}
