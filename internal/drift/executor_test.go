package drift

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShellTaskExecutor_RunSucceeds(t *testing.T) {
	e := NewShellTaskExecutor("echo hello", "")
	output, err := e.Run(context.Background(), 0)
	require.NoError(t, err)
	assert.Contains(t, output, "hello")
}

func TestShellTaskExecutor_EmptyCommandErrors(t *testing.T) {
	e := NewShellTaskExecutor("", "")
	_, err := e.Run(context.Background(), 0)
	assert.Error(t, err)
}

func TestShellTaskExecutor_AsRunFuncUsableByReproducibilityTest(t *testing.T) {
	e := NewShellTaskExecutor("echo stable-output", "")
	n := NewNormalizer()
	opts := ReproducibilityOptions{Runs: 3, MaxParallel: 1, PerRunTimeout: 0}
	report := RunReproducibilityTest(context.Background(), "shell-task", e.AsRunFunc(), opts, n)
	assert.Equal(t, 3, report.SuccessfulRuns)
}
