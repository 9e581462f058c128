// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"

	"github.com/canopyhq/canopy/cmd/canopy/cmd"
	"github.com/canopyhq/canopy/internal/canopy"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(canopy.ExitCode(err))
	}
}
