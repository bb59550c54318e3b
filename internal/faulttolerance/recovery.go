package faulttolerance

import (
	"context"
	"fmt"
	"time"

	"github.com/wavecore/execore/internal/coreerrors"
	"github.com/wavecore/execore/internal/model"
)

// StateStore is the external collaborator from spec.md §6: named,
// checkpointed WaveState persistence. Concrete implementations (e.g. a
// flock-guarded file store or a SQLite-backed store) live outside this
// package and satisfy this interface structurally.
type StateStore interface {
	Load(ctx context.Context, name string) (*model.WaveState, error)
	Save(ctx context.Context, name string, state model.WaveState) error
}

// RunFunc executes the given remaining tasks and returns their result.
// executeWithRecovery supplies the filtered task list on each retry.
type RunFunc func(ctx context.Context, remaining []model.Task) (model.WaveResult, error)

// RecoveryEngine ties a Retryer to a StateStore to implement checkpoint
// resume: the checkpoint is read once before the first attempt, each retry
// attempt re-runs only the tasks not yet completed, and progress is
// persisted after every attempt regardless of outcome so a crash mid-retry
// loses at most one attempt's work.
type RecoveryEngine struct {
	Retryer *Retryer
	Store   StateStore
}

func NewRecoveryEngine(retryer *Retryer, store StateStore) *RecoveryEngine {
	return &RecoveryEngine{Retryer: retryer, Store: store}
}

// ExecuteWithRecovery runs run against the tasks remaining after excluding
// anything the checkpoint for stateName already recorded, as completed or
// as failed, retrying per opts. On exhaustion it returns a
// *coreerrors.CheckpointRecoveryError wrapping the retry failure.
func (e *RecoveryEngine) ExecuteWithRecovery(ctx context.Context, stateName string, tasks []model.Task, run RunFunc, opts RetryOptions) (model.WaveResult, error) {
	prior, err := e.Store.Load(ctx, stateName)
	if err != nil {
		return model.WaveResult{}, fmt.Errorf("load checkpoint %q: %w", stateName, err)
	}

	remaining := tasks
	if prior != nil {
		remaining = filterCompleted(tasks, prior)
	}

	var aggregate model.WaveResult
	if prior != nil {
		aggregate = resultFromState(*prior)
	}

	if len(remaining) == 0 && prior != nil {
		return aggregate, nil
	}

	retryErr := e.Retryer.Do(ctx, opts, func(ctx context.Context, attempt int) error {
		result, runErr := run(ctx, remaining)
		aggregate = mergeResults(aggregate, result)
		state := stateFromResult(aggregate)

		if saveErr := e.Store.Save(ctx, stateName, state); saveErr != nil {
			return fmt.Errorf("save checkpoint %q: %w", stateName, saveErr)
		}

		if runErr != nil {
			return runErr
		}
		remaining = filterCompleted(remaining, &model.WaveState{CompletedTasks: state.CompletedTasks})
		if len(remaining) > 0 || result.TotalFailure > 0 {
			return fmt.Errorf("%d task(s) still failing after attempt %d", len(remaining), attempt)
		}
		return nil
	})

	if retryErr != nil {
		return aggregate, &coreerrors.CheckpointRecoveryError{StateName: stateName, Last: retryErr}
	}
	return aggregate, nil
}

func filterCompleted(tasks []model.Task, state *model.WaveState) []model.Task {
	if state == nil {
		return tasks
	}
	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if !state.HasTask(t.ID) {
			out = append(out, t)
		}
	}
	return out
}

func mergeResults(a, b model.WaveResult) model.WaveResult {
	merged := model.WaveResult{Waves: append(append([]model.WaveSummary{}, a.Waves...), b.Waves...)}
	seen := make(map[string]bool, len(a.Tasks)+len(b.Tasks))
	for _, t := range a.Tasks {
		if !seen[t.ID] {
			merged.Tasks = append(merged.Tasks, t)
			seen[t.ID] = true
		}
	}
	for _, t := range b.Tasks {
		if seen[t.ID] {
			// a retry superseding an earlier recorded failure for the
			// same task id replaces it in place.
			for i := range merged.Tasks {
				if merged.Tasks[i].ID == t.ID {
					merged.Tasks[i] = t
				}
			}
			continue
		}
		merged.Tasks = append(merged.Tasks, t)
		seen[t.ID] = true
	}
	merged.TotalSuccess, merged.TotalFailure = merged.Totals()
	return merged
}

func stateFromResult(result model.WaveResult) model.WaveState {
	state := model.WaveState{Timestamp: time.Now()}
	for _, t := range result.Tasks {
		if t.Success {
			state.CompletedTasks = append(state.CompletedTasks, t.ID)
		} else {
			state.FailedTasks = append(state.FailedTasks, t.ID)
		}
	}
	if len(result.Waves) > 0 {
		state.WaveNumber = result.Waves[len(result.Waves)-1].WaveNumber
	}
	return state
}

func resultFromState(state model.WaveState) model.WaveResult {
	var wr model.WaveResult
	for _, id := range state.CompletedTasks {
		wr.Tasks = append(wr.Tasks, model.TaskResult{ID: id, Success: true})
	}
	for _, id := range state.FailedTasks {
		wr.Tasks = append(wr.Tasks, model.TaskResult{ID: id, Success: false, Error: "previously failed"})
	}
	wr.TotalSuccess, wr.TotalFailure = wr.Totals()
	return wr
}
