// Package cmd wires execution-core's subcommands onto a cobra root
// command. Grounded in the teacher's internal/cmd/root.go: a thin
// NewRootCommand that silences usage on error and delegates each verb to
// its own NewXCommand constructor.
package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags.
var Version = "dev"

// NewRootCommand builds the execore root command and attaches its
// subcommands.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "execore",
		Short: "Wave-based multi-agent task execution core",
		Long: `execore schedules dependency-ordered tasks into concurrency-bounded
waves, runs them through pluggable agent backends, and verifies their
output against registered pre/post/invariant contracts.`,
		Version:      Version,
		SilenceUsage: true,
	}

	root.AddCommand(NewVerifyCommand())
	root.AddCommand(NewReproCommand())

	return root
}
