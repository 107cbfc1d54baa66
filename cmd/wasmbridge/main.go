package main

import (
	"os"

	"github.com/wasmbridge/wasmbridge/cmd/wasmbridge/cmd"
)

// main dispatches to the CLI commands.
func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
