// Package agentcli implements the reference AgentRunner (spec.md §6): a
// thin client that shells out to an external agent CLI process.
//
// Grounded in the teacher's internal/claude/invoker.go: a reusable,
// create-once client with a configurable binary path and timeout, a
// per-call request record, and a JSON-envelope-with-fallback response
// parser (ParseResponse here becomes extractContent).
package agentcli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/wavecore/execore/internal/wave"
)

const defaultSystemPrompt = "Respond with a single JSON object matching the requested schema. No markdown, no code fences, no prose."

// Runner invokes an external agent CLI binary (default "claude",
// overridable) once per RunAgent call. Safe for concurrent use; holds no
// mutable state between calls.
type Runner struct {
	// BinaryPath is the executable invoked; defaults to "claude" in PATH.
	BinaryPath string

	// Timeout bounds a single invocation; zero means no additional
	// timeout beyond the caller's context.
	Timeout time.Duration

	// SystemPrompt is prefixed to every invocation via --system-prompt.
	SystemPrompt string

	// ExtraArgs are appended verbatim before the prompt flag, for
	// callers that need to pass through CLI-specific flags.
	ExtraArgs []string
}

func NewRunner() *Runner {
	return &Runner{BinaryPath: "claude", SystemPrompt: defaultSystemPrompt}
}

// RunAgent shells out once and returns a wave.AgentRunResult. Matches
// wave.AgentRunner.
func (r *Runner) RunAgent(ctx context.Context, req wave.AgentRequest) (wave.AgentRunResult, error) {
	if req.Prompt == "" {
		return wave.AgentRunResult{}, fmt.Errorf("agentcli: prompt is required")
	}

	runCtx := ctx
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	binary := r.BinaryPath
	if binary == "" {
		binary = "claude"
	}
	systemPrompt := r.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = defaultSystemPrompt
	}

	args := append([]string{}, r.ExtraArgs...)
	args = append(args, "--system-prompt", systemPrompt, "-p", req.Prompt, "--output-format", "json")

	cmd := exec.CommandContext(runCtx, binary, args...)
	setCleanEnv(cmd)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return wave.AgentRunResult{
			Success:      false,
			ErrorMessage: fmt.Sprintf("%s invocation failed: %v (output: %s)", binary, err, string(output)),
		}, nil
	}

	content, modelUsed := extractContent(output)
	return wave.AgentRunResult{
		Success:       true,
		AgentResponse: content,
		ProviderUsed:  binary,
		ModelUsed:     modelUsed,
	}, nil
}

// extractContent pulls the model's textual reply out of a CLI JSON
// envelope, preferring structured_output, then result, then content,
// and finally falling back to brace-scanning the raw bytes — mirrors
// the teacher's layered ParseResponse precedence.
func extractContent(raw []byte) (content string, model string) {
	var envelope map[string]interface{}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return braceScan(string(raw)), ""
	}

	if m, ok := envelope["model"].(string); ok {
		model = m
	}

	if so, ok := envelope["structured_output"]; ok && so != nil {
		if asMap, ok := so.(map[string]interface{}); ok && len(asMap) > 0 {
			if b, err := json.Marshal(so); err == nil {
				return string(b), model
			}
		}
	}
	if r, ok := envelope["result"].(string); ok {
		return r, model
	}
	if c, ok := envelope["content"].(string); ok {
		return c, model
	}
	return braceScan(string(raw)), model
}

func braceScan(output string) string {
	start := strings.Index(output, "{")
	end := strings.LastIndex(output, "}")
	if start >= 0 && end > start {
		return output[start : end+1]
	}
	return output
}

// setCleanEnv copies the current environment and redirects TMPDIR so the
// child process doesn't inherit an editor's scratch socket directory.
func setCleanEnv(cmd *exec.Cmd) {
	cmd.Env = append([]string{}, os.Environ()...)
	tmp := os.TempDir()
	for i, kv := range cmd.Env {
		if strings.HasPrefix(kv, "TMPDIR=") {
			cmd.Env[i] = "TMPDIR=" + tmp
			return
		}
	}
	cmd.Env = append(cmd.Env, "TMPDIR="+tmp)
}
