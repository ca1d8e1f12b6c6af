// Command ppmc is the Parallel Program Model compressor CLI.
package main

import (
	"fmt"
	"os"

	"github.com/perf-analysis/ppmc/cmd/ppmc/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
