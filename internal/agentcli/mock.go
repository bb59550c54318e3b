package agentcli

import (
	"context"
	"fmt"

	"github.com/wavecore/execore/internal/wave"
)

// MockRunner synthesizes deterministic successes without shelling out to
// any binary, for tests and demos that exercise the full AgentRunner
// interface without a real agent process available.
type MockRunner struct {
	// ResponseFn, when set, builds the synthesized response body.
	// Defaults to echoing the prompt in a minimal JSON envelope.
	ResponseFn func(req wave.AgentRequest) string

	// FailPrompts, when non-empty, makes RunAgent fail for any prompt
	// present in the set (used to simulate a flaky agent in tests).
	FailPrompts map[string]bool
}

func NewMockRunner() *MockRunner {
	return &MockRunner{}
}

func (m *MockRunner) RunAgent(ctx context.Context, req wave.AgentRequest) (wave.AgentRunResult, error) {
	if m.FailPrompts[req.Prompt] {
		return wave.AgentRunResult{Success: false, ErrorMessage: "mock runner: simulated failure"}, nil
	}

	body := m.ResponseFn
	var response string
	if body != nil {
		response = body(req)
	} else {
		response = fmt.Sprintf(`{"success": true, "summary": "handled: %s"}`, req.Prompt)
	}

	return wave.AgentRunResult{
		Success:       true,
		AgentResponse: response,
		ProviderUsed:  "mock",
		ModelUsed:     "mock-1",
	}, nil
}
