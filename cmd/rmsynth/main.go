// rmsynth assembles radio spectral cubes, simulates polarised sourcelists
// and runs RM synthesis on Stokes Q/U data.
package main

import (
	"fmt"
	"os"

	"github.com/cwbudde/algo-rmsynth/cmd/rmsynth/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
