// Package wave implements the WaveOrchestrator component (spec.md §4.2):
// splitting a task list into waves, honoring dependencies and per-wave
// concurrency, driving per-task prompt validation / agent execution /
// response parsing, and threading memory events through a MemoryStore.
//
// Grounded in the teacher's internal/executor/wave.go (semaphore-bounded
// per-wave worker pool, ordered result reassembly) generalized from the
// teacher's git-worktree task runner to the spec's opaque-prompt Task
// model, and internal/executor/orchestrator.go's scope-open/close-on-every-
// path shape.
package wave

import (
	"context"
	"fmt"
	"time"

	"github.com/wavecore/execore/internal/model"
)

// Logger is the subset of corelog.Logger the orchestrator calls directly;
// kept as a local interface so this package doesn't import corelog. A nil
// Logger disables all of these calls.
type Logger interface {
	Info(msg string)
}

// ScopeLevel is the nesting level of a MemoryStore scope.
type ScopeLevel string

const (
	ScopeGlobal ScopeLevel = "GLOBAL"
	ScopeTask   ScopeLevel = "TASK"
	ScopeLocal  ScopeLevel = "LOCAL"
)

// EventKind classifies a memory event for downstream consumers; lifecycle
// events (wave_N_start, task_x_start, ...) use KindLifecycle, while the
// per-task-result event uses KindAgentOutput/KindError per spec.md §4.2f.
type EventKind string

const (
	KindLifecycle   EventKind = "lifecycle"
	KindAgentOutput EventKind = "AGENT_OUTPUT"
	KindError       EventKind = "ERROR"
)

// Event is one record appended to a memory scope.
type Event struct {
	Name string
	Kind EventKind
	Data map[string]interface{}
}

// MemoryStore is the external collaborator from spec.md §6: scoped event
// and artifact storage. The core only opens/closes scopes and writes
// events/artifacts through this interface.
type MemoryStore interface {
	CreateScope(ctx context.Context, goal string, level ScopeLevel) (scopeID string, err error)
	AddEvent(ctx context.Context, scopeID string, ev Event) error
	SetArtifact(ctx context.Context, scopeID, key string, value interface{}) error
	CloseScope(ctx context.Context, scopeID string, summary string) error
}

// ResourceManager is the subset of resource.Manager the orchestrator
// depends on (spec.md §4.1).
type ResourceManager interface {
	CanSpawnAgent() bool
	ComputeWaveSize(useMemoryBudgets bool) int
	Acquire() (release func())
}

// AgentRequest is the payload sent to an AgentRunner.
type AgentRequest struct {
	Version string
	Prompt  string
}

// AgentRunResult is the outcome of one AgentRunner invocation.
type AgentRunResult struct {
	Success       bool
	AgentResponse string
	ProviderUsed  string
	ModelUsed     string
	ErrorMessage  string
}

// AgentRunner is the external collaborator from spec.md §6.
type AgentRunner interface {
	RunAgent(ctx context.Context, req AgentRequest) (AgentRunResult, error)
}

// PromptValidator is the external collaborator from spec.md §6.
type PromptValidator interface {
	Validate(prompt string) (valid bool, errs []string)
}

// ResponseParser is the external collaborator from spec.md §6.
type ResponseParser interface {
	Parse(raw string) (ok bool, data *model.AgentResponse, errMsg string)
}

// Options configures one executeWave call. Every field has a documented
// default applied by DefaultOptions — this replaces the distilled spec's
// dynamic options-bag with an explicit record, per spec.md §9.
type Options struct {
	// WaveSize overrides the computed wave size when > 0.
	WaveSize int
	// ContinueOnError, when false (the default), stops the whole run at
	// the first task failure in a wave.
	ContinueOnError bool
	// UseMemoryBudgets is passed to ResourceManager.ComputeWaveSize.
	UseMemoryBudgets bool
	// MemoryGoal is written into the GLOBAL memory scope.
	MemoryGoal string
}

// DefaultOptions returns the spec.md §4.2 documented defaults.
func DefaultOptions() Options {
	return Options{
		WaveSize:         0,
		ContinueOnError:  false,
		UseMemoryBudgets: true,
		MemoryGoal:       "Wave execution",
	}
}

// Design constants from spec.md §4.2c.
const (
	DefaultSlotPollInterval = 100 * time.Millisecond
	DefaultSlotMaxAttempts  = 10
)

// summaryBoxLogger is implemented by loggers (corelog.Console) that can
// render a boxed end-of-run summary. Checked via type assertion so this
// package's Logger interface stays minimal.
type summaryBoxLogger interface {
	WaveSummaryBox(title string, lines []string)
}

// Orchestrator is the reference WaveOrchestrator.
type Orchestrator struct {
	Resources ResourceManager
	Validator PromptValidator
	Runner    AgentRunner
	Parser    ResponseParser
	Memory    MemoryStore

	// Logger, when set, receives wave start/completion notices and a
	// final boxed summary. Optional; nil disables all logging calls.
	Logger Logger

	// Mock, when true, makes executeTask synthesize a success AgentResponse
	// without calling Runner (spec.md §4.2e).
	Mock bool

	SlotPollInterval time.Duration
	SlotMaxAttempts  int
}

// New constructs an Orchestrator with the spec's default slot-polling
// parameters.
func New(resources ResourceManager, validator PromptValidator, runner AgentRunner, parser ResponseParser, memory MemoryStore) *Orchestrator {
	return &Orchestrator{
		Resources:        resources,
		Validator:        validator,
		Runner:           runner,
		Parser:           parser,
		Memory:           memory,
		SlotPollInterval: DefaultSlotPollInterval,
		SlotMaxAttempts:  DefaultSlotMaxAttempts,
	}
}

// ExecuteWave runs tasks under the given options, splitting them into
// waves and returning a fully-populated WaveResult per spec.md §4.2.
func (o *Orchestrator) ExecuteWave(ctx context.Context, tasks []model.Task, opts Options) (model.WaveResult, error) {
	if opts.MemoryGoal == "" {
		opts.MemoryGoal = "Wave execution"
	}
	pollInterval := o.SlotPollInterval
	if pollInterval <= 0 {
		pollInterval = DefaultSlotPollInterval
	}
	maxAttempts := o.SlotMaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultSlotMaxAttempts
	}

	waveSize := opts.WaveSize
	if waveSize <= 0 {
		waveSize = o.Resources.ComputeWaveSize(opts.UseMemoryBudgets)
	}
	if waveSize <= 0 {
		waveSize = 1
	}

	globalScope, err := o.Memory.CreateScope(ctx, opts.MemoryGoal, ScopeGlobal)
	if err != nil {
		return model.WaveResult{}, fmt.Errorf("open global scope: %w", err)
	}

	startTime := time.Now()
	_ = o.Memory.AddEvent(ctx, globalScope, Event{
		Name: "orchestration_started",
		Kind: KindLifecycle,
		Data: map[string]interface{}{"totalTasks": len(tasks)},
	})
	_ = o.Memory.SetArtifact(ctx, globalScope, "wave_config", map[string]interface{}{
		"totalTasks":       len(tasks),
		"waveSize":         waveSize,
		"useMemoryBudgets": opts.UseMemoryBudgets,
		"startTime":        startTime,
	})

	var result model.WaveResult
	var runErr error

	func() {
		defer func() {
			if r := recover(); r != nil {
				runErr = fmt.Errorf("orchestration panic: %v", r)
			}
		}()
		result, runErr = o.run(ctx, globalScope, tasks, waveSize, opts, pollInterval, maxAttempts)
	}()

	if runErr != nil {
		_ = o.Memory.AddEvent(ctx, globalScope, Event{Name: "orchestration_failed", Kind: KindError, Data: map[string]interface{}{"error": runErr.Error()}})
	} else {
		_ = o.Memory.AddEvent(ctx, globalScope, Event{Name: "orchestration_completed", Kind: KindLifecycle})
	}
	_ = o.Memory.CloseScope(ctx, globalScope, "wave execution finished")

	return result, runErr
}

// splitIntoWaves chunks tasks into contiguous, input-order slices of at
// most waveSize. Per spec.md §9's open question, this never reorders tasks
// to satisfy dependencies — a same-wave dependency is a design trade-off,
// not a bug, and surfaces as a "Dependencies not satisfied" failure.
func splitIntoWaves(tasks []model.Task, waveSize int) []model.Wave {
	var waves []model.Wave
	for start := 0; start < len(tasks); start += waveSize {
		end := start + waveSize
		if end > len(tasks) {
			end = len(tasks)
		}
		waves = append(waves, model.Wave{
			Number: len(waves) + 1,
			Tasks:  tasks[start:end],
		})
	}
	return waves
}

func (o *Orchestrator) run(ctx context.Context, globalScope string, tasks []model.Task, waveSize int, opts Options, pollInterval time.Duration, maxAttempts int) (model.WaveResult, error) {
	waves := splitIntoWaves(tasks, waveSize)

	succeeded := make(map[string]bool, len(tasks))
	var allResults []model.TaskResult
	var summaries []model.WaveSummary
	stop := false

	for _, w := range waves {
		if stop {
			break
		}

		taskScope, err := o.Memory.CreateScope(ctx, fmt.Sprintf("wave %d", w.Number), ScopeTask)
		if err != nil {
			return buildResult(allResults, summaries), fmt.Errorf("open task scope for wave %d: %w", w.Number, err)
		}
		_ = o.Memory.AddEvent(ctx, taskScope, Event{Name: fmt.Sprintf("wave_%d_start", w.Number), Kind: KindLifecycle})
		if o.Logger != nil {
			o.Logger.Info(fmt.Sprintf("wave %d starting: %d tasks", w.Number, len(w.Tasks)))
		}

		waveStart := time.Now()
		waveResults, waveStopped := o.runWave(ctx, taskScope, w, succeeded, opts, pollInterval, maxAttempts)

		successCount, failureCount := 0, 0
		for _, r := range waveResults {
			allResults = append(allResults, r)
			if r.Success {
				successCount++
				succeeded[r.ID] = true
			} else {
				failureCount++
			}
		}

		summary := model.WaveSummary{
			WaveNumber:   w.Number,
			TaskCount:    len(waveResults),
			SuccessCount: successCount,
			FailureCount: failureCount,
		}
		summaries = append(summaries, summary)

		if o.Logger != nil {
			o.Logger.Info(fmt.Sprintf("wave %d complete (%s): %d succeeded, %d failed",
				w.Number, time.Since(waveStart).Round(time.Millisecond), successCount, failureCount))
		}

		_ = o.Memory.SetArtifact(ctx, taskScope, fmt.Sprintf("wave_%d_summary", w.Number), summary)
		_ = o.Memory.AddEvent(ctx, taskScope, Event{Name: fmt.Sprintf("wave_%d_completed", w.Number), Kind: KindLifecycle, Data: map[string]interface{}{"summary": summary}})
		_ = o.Memory.CloseScope(ctx, taskScope, fmt.Sprintf("wave %d complete", w.Number))

		if failureCount > 0 && !opts.ContinueOnError {
			stop = true
		}
		if waveStopped {
			stop = true
		}
	}

	result := buildResult(allResults, summaries)
	if boxer, ok := o.Logger.(summaryBoxLogger); ok {
		lines := make([]string, len(summaries))
		for i, s := range summaries {
			lines[i] = fmt.Sprintf("wave %d: %d/%d succeeded", s.WaveNumber, s.SuccessCount, s.TaskCount)
		}
		boxer.WaveSummaryBox(fmt.Sprintf("run complete: %d succeeded, %d failed", result.TotalSuccess, result.TotalFailure), lines)
	}

	return result, nil
}

func buildResult(results []model.TaskResult, summaries []model.WaveSummary) model.WaveResult {
	wr := model.WaveResult{Tasks: results, Waves: summaries}
	wr.TotalSuccess, wr.TotalFailure = wr.Totals()
	return wr
}

// runWave executes one wave's tasks, preserving input order in the
// returned slice regardless of execution interleaving (spec.md §5).
// waveStopped reports whether continueOnError=false and a failure
// occurred, meaning the caller should not proceed to the next wave.
func (o *Orchestrator) runWave(ctx context.Context, taskScope string, w model.Wave, priorSucceeded map[string]bool, opts Options, pollInterval time.Duration, maxAttempts int) (results []model.TaskResult, waveStopped bool) {
	n := len(w.Tasks)
	results = make([]model.TaskResult, n)
	done := make([]bool, n)

	sameWaveSucceeded := newSafeSet()

	type outcome struct {
		index  int
		result model.TaskResult
	}
	outcomes := make(chan outcome, n)

	launched := 0
	for i, task := range w.Tasks {
		if !opts.ContinueOnError && hasFailedSoFar(done, results, launched) {
			break
		}

		if !satisfiesDependencies(task, priorSucceeded, sameWaveSucceeded) {
			results[i] = model.TaskResult{ID: task.ID, Success: false, Error: "Dependencies not satisfied"}
			done[i] = true
			launched++
			o.recordTaskResult(ctx, taskScope, task.ID, results[i])
			if !opts.ContinueOnError {
				break
			}
			continue
		}

		launched++
		go func(idx int, t model.Task) {
			r := o.executeOneTask(ctx, taskScope, t, pollInterval, maxAttempts)
			if r.Success {
				sameWaveSucceeded.Add(t.ID)
			}
			outcomes <- outcome{index: idx, result: r}
		}(i, task)
	}

	pending := launched
	for idx := range done {
		if done[idx] {
			pending--
		}
	}
	for pending > 0 {
		out := <-outcomes
		results[out.index] = out.result
		done[out.index] = true
		pending--
		o.recordTaskResult(ctx, taskScope, out.result.ID, out.result)
	}

	// Trim to only the tasks actually attempted (preserving order), per
	// the Result-completeness invariant: a task not attempted must not
	// appear at all.
	attempted := make([]model.TaskResult, 0, n)
	for i := range w.Tasks {
		if done[i] {
			attempted = append(attempted, results[i])
		}
	}

	if !opts.ContinueOnError {
		for _, r := range attempted {
			if !r.Success {
				return attempted, true
			}
		}
	}

	return attempted, false
}

func hasFailedSoFar(done []bool, results []model.TaskResult, launched int) bool {
	for i := 0; i < launched; i++ {
		if done[i] && !results[i].Success {
			return true
		}
	}
	return false
}

func satisfiesDependencies(task model.Task, priorSucceeded map[string]bool, sameWave *safeSet) bool {
	for _, dep := range task.Dependencies {
		if priorSucceeded[dep] {
			continue
		}
		if sameWave.Has(dep) {
			continue
		}
		return false
	}
	return true
}

func (o *Orchestrator) recordTaskResult(ctx context.Context, taskScope, taskID string, result model.TaskResult) {
	kind := KindAgentOutput
	if !result.Success {
		kind = KindError
	}
	_ = o.Memory.SetArtifact(ctx, taskScope, fmt.Sprintf("task_%s_result", taskID), result)
	_ = o.Memory.AddEvent(ctx, taskScope, Event{Name: fmt.Sprintf("task_%s_result", taskID), Kind: kind, Data: map[string]interface{}{"success": result.Success}})
}

func (o *Orchestrator) executeOneTask(ctx context.Context, taskScope string, task model.Task, pollInterval time.Duration, maxAttempts int) model.TaskResult {
	localScope, err := o.Memory.CreateScope(ctx, fmt.Sprintf("task %s", task.ID), ScopeLocal)
	if err != nil {
		return model.TaskResult{ID: task.ID, Success: false, Error: fmt.Sprintf("memory scope error: %v", err)}
	}
	_ = o.Memory.AddEvent(ctx, localScope, Event{Name: fmt.Sprintf("task_%s_start", task.ID), Kind: KindLifecycle})
	defer func() { _ = o.Memory.CloseScope(ctx, localScope, "task complete") }()

	release, ok := o.acquireSlot(ctx, pollInterval, maxAttempts)
	if !ok {
		return model.TaskResult{ID: task.ID, Success: false, Error: "Resource limit exceeded - could not acquire slot"}
	}
	defer release()

	if o.Validator != nil {
		valid, errs := o.Validator.Validate(task.Prompt)
		if !valid {
			return model.TaskResult{ID: task.ID, Success: false, Error: fmt.Sprintf("Task validation failed: %s", joinErrors(errs))}
		}
	}

	return o.executeTask(ctx, task)
}

// acquireSlot polls ResourceManager.CanSpawnAgent, sleeping pollInterval
// between attempts up to maxAttempts total polls, then reserves the slot
// via Acquire the moment a check succeeds. The check-then-acquire gap is
// inherent to the interface (spec.md §4.1 does not define an atomic
// check-and-acquire primitive).
func (o *Orchestrator) acquireSlot(ctx context.Context, pollInterval time.Duration, maxAttempts int) (release func(), ok bool) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if o.Resources.CanSpawnAgent() {
			return o.Resources.Acquire(), true
		}
		select {
		case <-ctx.Done():
			return nil, false
		case <-time.After(pollInterval):
		}
	}
	if o.Resources.CanSpawnAgent() {
		return o.Resources.Acquire(), true
	}
	return nil, false
}

func (o *Orchestrator) executeTask(ctx context.Context, task model.Task) model.TaskResult {
	if o.Mock {
		return model.TaskResult{
			ID:      task.ID,
			Success: true,
			Response: &model.AgentResponse{
				Success: true,
				Summary: "mock execution",
			},
			ProviderUsed: "mock",
			ModelUsed:    "mock",
		}
	}

	runResult, err := o.Runner.RunAgent(ctx, AgentRequest{Version: "1.0", Prompt: task.Prompt})
	if err != nil {
		return model.TaskResult{ID: task.ID, Success: false, Error: err.Error()}
	}
	if !runResult.Success {
		msg := runResult.ErrorMessage
		if msg == "" {
			msg = "agent runner reported failure"
		}
		return model.TaskResult{ID: task.ID, Success: false, Error: msg}
	}

	ok, parsed, errMsg := o.Parser.Parse(runResult.AgentResponse)
	if !ok {
		if errMsg == "" {
			errMsg = "response parse failed"
		}
		return model.TaskResult{ID: task.ID, Success: false, Error: errMsg}
	}

	return model.TaskResult{
		ID:           task.ID,
		Success:      true,
		Response:     parsed,
		ProviderUsed: runResult.ProviderUsed,
		ModelUsed:    runResult.ModelUsed,
	}
}

func joinErrors(errs []string) string {
	switch len(errs) {
	case 0:
		return "unknown validation error"
	case 1:
		return errs[0]
	default:
		out := errs[0]
		for _, e := range errs[1:] {
			out += "; " + e
		}
		return out
	}
}
