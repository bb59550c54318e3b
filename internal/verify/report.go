package verify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/wavecore/execore/internal/model"
)

// HookOutcome classifies one contract's evaluation for reporting, mirroring
// the teacher's status vocabulary (green/yellow/red) but renamed to the
// verification domain's own terms.
type HookOutcome string

const (
	OutcomePassed  HookOutcome = "PASSED"
	OutcomeFailed  HookOutcome = "FAILED"
	OutcomeSkipped HookOutcome = "SKIPPED"
	OutcomeError   HookOutcome = "ERROR"
)

// HookEntry is one contract's outcome within a VACReport.
type HookEntry struct {
	ContractID string                         `json:"contractId"`
	Outcome    HookOutcome                    `json:"outcome"`
	Result     model.ContractEvaluationResult `json:"result,omitempty"`
	Err        string                         `json:"error,omitempty"`
}

// VACReport aggregates one run of the verify-and-check hook across
// however many contracts applied to a task.
type VACReport struct {
	TaskID        string      `json:"taskId"`
	Entries       []HookEntry `json:"entries"`
	PassedCount   int         `json:"passedCount"`
	FailedCount   int         `json:"failedCount"`
	SkippedCount  int         `json:"skippedCount"`
	ErrorCount    int         `json:"errorCount"`
	BlockOnFailure bool       `json:"blockOnFailure"`
}

// Blocked reports whether this report should halt the calling pipeline,
// per the --block-on-failure CLI flag semantics.
func (r VACReport) Blocked() bool {
	return r.BlockOnFailure && (r.FailedCount > 0 || r.ErrorCount > 0)
}

// Hook runs a set of contracts against one ExecutionContext and assembles
// a VACReport.
type Hook struct {
	Registry           *Registry
	StopOnFirstFailure bool
	BlockOnFailure     bool
}

func NewHook(registry *Registry, stopOnFirstFailure, blockOnFailure bool) *Hook {
	return &Hook{Registry: registry, StopOnFirstFailure: stopOnFirstFailure, BlockOnFailure: blockOnFailure}
}

// Run evaluates every enabled contract registered for taskType against ctx;
// disabled ones are reported as SKIPPED without being evaluated.
func (h *Hook) Run(taskType string, ctx *model.ExecutionContext) VACReport {
	report := VACReport{TaskID: ctx.TaskID, BlockOnFailure: h.BlockOnFailure}

	var contracts []model.AgentContract
	for _, c := range h.Registry.All() {
		if c.TaskType == taskType {
			contracts = append(contracts, c)
		}
	}
	if len(contracts) == 0 {
		return report
	}

	for _, contract := range contracts {
		if !contract.Enabled {
			report.Entries = append(report.Entries, HookEntry{ContractID: contract.ID, Outcome: OutcomeSkipped})
			report.SkippedCount++
			continue
		}

		result := EvaluateContract(contract, ctx, h.StopOnFirstFailure)
		entry := HookEntry{ContractID: contract.ID, Result: result}
		if result.Success {
			entry.Outcome = OutcomePassed
			report.PassedCount++
		} else {
			entry.Outcome = OutcomeFailed
			report.FailedCount++
		}
		report.Entries = append(report.Entries, entry)
	}

	return report
}

// RenderText renders a compact, human-readable multi-line report.
func (r VACReport) RenderText() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Verification report for task %s\n", r.TaskID)
	for _, e := range r.Entries {
		fmt.Fprintf(&b, "  [%s] %s\n", e.Outcome, e.ContractID)
		for _, f := range e.Result.Failures {
			fmt.Fprintf(&b, "      - %s: %s\n", f.ConditionName, f.Message)
		}
	}
	fmt.Fprintf(&b, "passed=%d failed=%d skipped=%d error=%d\n", r.PassedCount, r.FailedCount, r.SkippedCount, r.ErrorCount)
	return b.String()
}

// RenderMarkdown renders the report as a Markdown document.
func (r VACReport) RenderMarkdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Verification report: %s\n\n", r.TaskID)
	fmt.Fprintf(&b, "| Contract | Outcome |\n|---|---|\n")
	for _, e := range r.Entries {
		fmt.Fprintf(&b, "| %s | %s |\n", e.ContractID, e.Outcome)
	}
	b.WriteString("\n")
	for _, e := range r.Entries {
		if len(e.Result.Failures) == 0 {
			continue
		}
		fmt.Fprintf(&b, "## %s failures\n\n", e.ContractID)
		for _, f := range e.Result.Failures {
			fmt.Fprintf(&b, "- **%s**: %s\n", f.ConditionName, f.Message)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "_passed=%d failed=%d skipped=%d error=%d_\n", r.PassedCount, r.FailedCount, r.SkippedCount, r.ErrorCount)
	return b.String()
}

// RenderHTML converts the Markdown rendering to HTML via goldmark, for
// tooling that wants a browsable report instead of a terminal one.
func (r VACReport) RenderHTML() (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(r.RenderMarkdown()), &buf); err != nil {
		return "", fmt.Errorf("render report html: %w", err)
	}
	return buf.String(), nil
}

// RenderJSON renders the report as indented JSON.
func (r VACReport) RenderJSON() (string, error) {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Render dispatches by output format name: "text", "markdown", "html", or
// "json". Unknown formats return an error.
func (r VACReport) Render(format string) (string, error) {
	switch format {
	case "", "text":
		return r.RenderText(), nil
	case "markdown":
		return r.RenderMarkdown(), nil
	case "html":
		return r.RenderHTML()
	case "json":
		return r.RenderJSON()
	default:
		return "", fmt.Errorf("unknown output format %q", format)
	}
}
