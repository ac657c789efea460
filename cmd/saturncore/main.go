// main.go - saturncore command-line harness: loads a boot ROM image,
// wires a Machine, and drops into the interactive raw-terminal monitor.
//
// Grounded on _examples/IntuitionAmiga-IntuitionEngine/main.go's
// "load argv[1], build the machine, run" shape, trimmed to this core's
// headless scope (no GUI frontend, no sound chip).

package main

import (
	"fmt"
	"os"

	saturn "github.com/saturnsh2/satcore"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <boot-rom>\n", os.Args[0])
		os.Exit(1)
	}

	rom, err := os.ReadFile(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "saturncore: failed to read boot ROM: %v\n", err)
		os.Exit(1)
	}

	m, err := saturn.NewMachine(rom, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "saturncore: failed to start machine: %v\n", err)
		os.Exit(1)
	}
	defer m.Close()

	if err := NewMonitor(m).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "saturncore: monitor exited: %v\n", err)
		os.Exit(1)
	}
}
