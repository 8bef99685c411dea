// Package main is the entry point for the chainflux CLI.
package main

import (
	"os"

	"chainflux/cmd/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(cmd.ExitCode(err))
	}
}
