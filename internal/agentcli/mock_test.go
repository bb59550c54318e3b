package agentcli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wavecore/execore/internal/wave"
)

func TestMockRunner_DefaultResponse(t *testing.T) {
	m := NewMockRunner()
	result, err := m.RunAgent(context.Background(), wave.AgentRequest{Prompt: "do the thing"})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Contains(t, result.AgentResponse, "do the thing")
}

func TestMockRunner_SimulatedFailure(t *testing.T) {
	m := &MockRunner{FailPrompts: map[string]bool{"bad prompt": true}}
	result, err := m.RunAgent(context.Background(), wave.AgentRequest{Prompt: "bad prompt"})
	require.NoError(t, err)
	assert.False(t, result.Success)
}

func TestMockRunner_CustomResponseFn(t *testing.T) {
	m := &MockRunner{ResponseFn: func(req wave.AgentRequest) string {
		return `{"success": true, "summary": "custom"}`
	}}
	result, err := m.RunAgent(context.Background(), wave.AgentRequest{Prompt: "x"})
	require.NoError(t, err)
	assert.Equal(t, `{"success": true, "summary": "custom"}`, result.AgentResponse)
}
