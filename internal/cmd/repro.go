package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wavecore/execore/internal/drift"
	"github.com/wavecore/execore/internal/model"
)

// NewReproCommand builds the "repro" subcommand: it runs a shell command
// N times through drift.RunReproducibilityTest and reports whether the
// output is deterministic.
func NewReproCommand() *cobra.Command {
	var (
		taskID       string
		cwd          string
		runs         int
		perRunTimeout time.Duration
		maxDriftRate float64
		outputFormat string
	)

	cmd := &cobra.Command{
		Use:   "repro -- <command>",
		Short: "Measure a task command's reproducibility across repeated runs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			command := joinArgs(args)
			executor := drift.NewShellTaskExecutor(command, cwd)
			normalizer := drift.NewNormalizer()

			opts := drift.ReproducibilityOptions{Runs: runs, MaxParallel: 1, PerRunTimeout: perRunTimeout}
			report := drift.RunReproducibilityTest(context.Background(), taskID, executor.AsRunFunc(), opts, normalizer)

			detector := drift.NewDetector(model.DriftThresholds{MaxDriftRate: maxDriftRate}, nil, 0)
			measurement := detector.Measure(report)

			return renderRepro(c, outputFormat, measurement)
		},
		SilenceUsage: true,
	}

	cmd.Flags().StringVar(&taskID, "task-id", "repro-task", "identifier recorded in the reproducibility report")
	cmd.Flags().StringVar(&cwd, "cwd", "", "working directory for the command")
	cmd.Flags().IntVar(&runs, "runs", 5, "number of times to run the command")
	cmd.Flags().DurationVar(&perRunTimeout, "per-run-timeout", 30*time.Second, "timeout for each individual run")
	cmd.Flags().Float64Var(&maxDriftRate, "max-drift-rate", 0.1, "drift rate above which the task is flagged non-deterministic")
	cmd.Flags().StringVar(&outputFormat, "output-format", "text", "report format: text or json")

	return cmd
}

func joinArgs(args []string) string {
	out := args[0]
	for _, a := range args[1:] {
		out += " " + a
	}
	return out
}

func renderRepro(cmd *cobra.Command, format string, measurement interface{}) error {
	switch format {
	case "json":
		b, err := json.MarshalIndent(measurement, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(b))
	default:
		fmt.Fprintf(cmd.OutOrStdout(), "%+v\n", measurement)
	}
	return nil
}
