package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wavecore/execore/internal/model"
)

func writeJSON(t *testing.T, dir, name string, v interface{}) string {
	t.Helper()
	path := filepath.Join(dir, name)
	data, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestRunVerify_NoPredicateFailsGracefully(t *testing.T) {
	dir := t.TempDir()

	contracts := []model.AgentContract{
		{
			ID:       "c1",
			TaskType: "build",
			Enabled:  true,
			Preconditions: []model.Condition{
				{ID: "p1", Name: "inputs present", Type: model.Precondition, Severity: model.SeverityError},
			},
		},
	}
	contractsPath := writeJSON(t, dir, "contracts.json", contracts)

	ctx := model.ExecutionContext{TaskID: "task-1", State: model.StateExecuting}
	contextPath := writeJSON(t, dir, "context.json", ctx)

	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{
		"verify",
		"--contracts", contractsPath,
		"--context", contextPath,
		"--task-type", "build",
		"--output-format", "json",
	})

	err := root.Execute()
	require.NoError(t, err)
	assert.Contains(t, out.String(), "\"contractId\"")
}

func TestRunVerify_BlockOnFailureReturnsError(t *testing.T) {
	dir := t.TempDir()

	contracts := []model.AgentContract{
		{ID: "c1", TaskType: "build", Enabled: true, Preconditions: []model.Condition{
			{ID: "p1", Name: "always fails", Severity: model.SeverityError},
		}},
	}
	contractsPath := writeJSON(t, dir, "contracts.json", contracts)
	contextPath := writeJSON(t, dir, "context.json", model.ExecutionContext{TaskID: "t1"})

	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{
		"verify",
		"--contracts", contractsPath,
		"--context", contextPath,
		"--task-type", "build",
		"--block-on-failure",
	})

	err := root.Execute()
	assert.Error(t, err)
}

func TestRunVerify_UnknownTaskTypeProducesEmptyReport(t *testing.T) {
	dir := t.TempDir()
	contractsPath := writeJSON(t, dir, "contracts.json", []model.AgentContract{})
	contextPath := writeJSON(t, dir, "context.json", model.ExecutionContext{TaskID: "t1"})

	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{
		"verify",
		"--contracts", contractsPath,
		"--context", contextPath,
		"--task-type", "nonexistent",
	})

	err := root.Execute()
	require.NoError(t, err)
}
