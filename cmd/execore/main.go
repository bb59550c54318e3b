// Package main provides the CLI entry point for execore.
package main

import (
	"fmt"
	"os"

	"github.com/wavecore/execore/internal/cmd"
)

func main() {
	rootCmd := cmd.NewRootCommand()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
