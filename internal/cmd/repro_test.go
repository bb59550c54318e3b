package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunRepro_MeasuresStableCommand(t *testing.T) {
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{
		"repro",
		"--runs", "3",
		"--task-id", "stable",
		"--output-format", "json",
		"--", "echo", "stable-output",
	})

	err := root.Execute()
	require.NoError(t, err)
	assert.Contains(t, out.String(), "stable")
}

func TestRunRepro_RequiresAtLeastOneArg(t *testing.T) {
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"repro"})

	err := root.Execute()
	assert.Error(t, err)
}
