package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wavecore/execore/internal/model"
	"github.com/wavecore/execore/internal/verify"
)

// NewVerifyCommand builds the "verify" subcommand: it loads a set of
// AgentContracts and one ExecutionContext from JSON files, runs them
// through verify.Hook, and renders the resulting VACReport.
//
// Condition predicates are Go closures and cannot round-trip through
// JSON; contracts loaded this way carry conditions with no predicate,
// which EvaluateCondition reports as a graceful failure rather than a
// panic. This command is meant for contracts registered programmatically
// elsewhere and merely described here for reporting/tooling; real
// predicate wiring happens in-process.
func NewVerifyCommand() *cobra.Command {
	var (
		contractsPath string
		contextPath   string
		taskType      string
		mode          string
		detailed      bool
		outputFormat  string
		blockOnFail   bool
	)

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Run contract verification against a task execution context",
		Long: `verify loads AgentContracts and an ExecutionContext from JSON files
and evaluates every enabled contract registered for --task-type, producing
a pass/fail report.

--mode controls failure handling:
  full            evaluate every condition in a contract (default)
  stop-on-first   stop a contract's evaluation at its first failing condition`,
		RunE: func(c *cobra.Command, args []string) error {
			return runVerify(c, verifyOptions{
				contractsPath: contractsPath,
				contextPath:   contextPath,
				taskType:      taskType,
				mode:          mode,
				detailed:      detailed,
				outputFormat:  outputFormat,
				blockOnFail:   blockOnFail,
			})
		},
		SilenceUsage: true,
	}

	cmd.Flags().StringVar(&contractsPath, "contracts", "", "path to a JSON file containing an array of AgentContract")
	cmd.Flags().StringVar(&contextPath, "context", "", "path to a JSON file containing one ExecutionContext")
	cmd.Flags().StringVar(&taskType, "task-type", "", "task type to select contracts for")
	cmd.Flags().StringVar(&mode, "mode", "full", "evaluation mode: full or stop-on-first")
	cmd.Flags().BoolVar(&detailed, "detailed-report", false, "include every passing condition, not just failures")
	cmd.Flags().StringVar(&outputFormat, "output-format", "text", "report format: text, markdown, html, or json")
	cmd.Flags().BoolVar(&blockOnFail, "block-on-failure", false, "exit non-zero when any contract fails")
	cmd.MarkFlagRequired("contracts")
	cmd.MarkFlagRequired("context")
	cmd.MarkFlagRequired("task-type")

	return cmd
}

type verifyOptions struct {
	contractsPath string
	contextPath   string
	taskType      string
	mode          string
	detailed      bool
	outputFormat  string
	blockOnFail   bool
}

func runVerify(cmd *cobra.Command, opts verifyOptions) error {
	contracts, err := loadContracts(opts.contractsPath)
	if err != nil {
		return err
	}

	execCtx, err := loadExecutionContext(opts.contextPath)
	if err != nil {
		return err
	}

	registry := verify.NewRegistry()
	for _, c := range contracts {
		if err := registry.Register(c); err != nil {
			return fmt.Errorf("register contract %q: %w", c.ID, err)
		}
	}

	stopOnFirst := opts.mode == "stop-on-first"
	hook := verify.NewHook(registry, stopOnFirst, opts.blockOnFail)
	report := hook.Run(opts.taskType, execCtx)

	if !opts.detailed {
		report = stripPassingDetail(report)
	}

	rendered, err := report.Render(opts.outputFormat)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), rendered)

	if report.Blocked() {
		return fmt.Errorf("verification blocked: %d failed, %d errored", report.FailedCount, report.ErrorCount)
	}
	return nil
}

// stripPassingDetail drops per-condition Results for passing entries,
// leaving only the outcome, so --detailed-report=false reports stay short.
func stripPassingDetail(report verify.VACReport) verify.VACReport {
	for i, e := range report.Entries {
		if e.Outcome == verify.OutcomePassed {
			report.Entries[i].Result = model.ContractEvaluationResult{}
		}
	}
	return report
}

func loadContracts(path string) ([]model.AgentContract, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read contracts file: %w", err)
	}
	var contracts []model.AgentContract
	if err := json.Unmarshal(data, &contracts); err != nil {
		return nil, fmt.Errorf("parse contracts file: %w", err)
	}
	return contracts, nil
}

func loadExecutionContext(path string) (*model.ExecutionContext, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read context file: %w", err)
	}
	var ctx model.ExecutionContext
	if err := json.Unmarshal(data, &ctx); err != nil {
		return nil, fmt.Errorf("parse context file: %w", err)
	}
	return &ctx, nil
}
