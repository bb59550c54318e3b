// Package model defines the data types shared across the execution core:
// tasks, waves, results, checkpoints, and the collaborator response shapes
// the core consumes.
package model

import "time"

// Task is an opaque unit of work delegated to an agent runner.
type Task struct {
	ID           string   `json:"id"`
	Prompt       string   `json:"prompt"`
	Dependencies []string `json:"dependencies,omitempty"`
}

// AgentResponse is the structured result of parsing an agent's raw output.
type AgentResponse struct {
	Success       bool     `json:"success"`
	FilesModified []string `json:"filesModified,omitempty"`
	TestsWritten  []string `json:"testsWritten,omitempty"`
	Summary       string   `json:"summary,omitempty"`
	Errors        []string `json:"errors,omitempty"`
	NextSteps     []string `json:"nextSteps,omitempty"`
}

// TaskResult is the outcome of attempting one task.
type TaskResult struct {
	ID           string         `json:"id"`
	Success      bool           `json:"success"`
	Error        string         `json:"error,omitempty"`
	Response     *AgentResponse `json:"response,omitempty"`
	ProviderUsed string         `json:"providerUsed,omitempty"`
	ModelUsed    string         `json:"modelUsed,omitempty"`
}

// Wave is a contiguous, ordered slice of tasks scheduled under one
// concurrency budget. WaveNumber is 1-indexed.
type Wave struct {
	Number int
	Tasks  []Task
}

// WaveSummary aggregates the outcome of one wave.
type WaveSummary struct {
	WaveNumber   int `json:"waveNumber"`
	TaskCount    int `json:"taskCount"`
	SuccessCount int `json:"successCount"`
	FailureCount int `json:"failureCount"`
}

// WaveResult is the complete outcome of an executeWave invocation.
type WaveResult struct {
	Tasks        []TaskResult  `json:"tasks"`
	Waves        []WaveSummary `json:"waves"`
	TotalSuccess int           `json:"totalSuccess"`
	TotalFailure int           `json:"totalFailure"`
}

// Totals recomputes TotalSuccess/TotalFailure from Tasks, matching the
// summary-arithmetic invariant.
func (wr *WaveResult) Totals() (success, failure int) {
	for _, t := range wr.Tasks {
		if t.Success {
			success++
		} else {
			failure++
		}
	}
	return success, failure
}

// WaveState is the checkpoint payload persisted by a StateStore between
// runs of a named execution.
type WaveState struct {
	WaveNumber     int       `json:"waveNumber"`
	CompletedTasks []string  `json:"completedTasks"`
	FailedTasks    []string  `json:"failedTasks"`
	Timestamp      time.Time `json:"timestamp"`
}

// HasTask reports whether id appears in either CompletedTasks or FailedTasks.
func (s *WaveState) HasTask(id string) bool {
	for _, t := range s.CompletedTasks {
		if t == id {
			return true
		}
	}
	for _, t := range s.FailedTasks {
		if t == id {
			return true
		}
	}
	return false
}
