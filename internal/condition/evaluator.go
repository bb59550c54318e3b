// Package condition implements the ConditionEvaluator component
// (spec.md §4.5): deciding whether a bounded RepeatUntil loop should exit,
// across boolean predicates, shell commands, step-reference comparisons,
// drift percentage thresholds, and AND/OR composites.
//
// The command variant is grounded on lprior-repo-open-swarm's
// internal/temporal/activities_shell.go, which runs commands through
// github.com/bitfield/script instead of raw os/exec for its "clean,
// elegant shell operations" (that file's own phrase).
package condition

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/bitfield/script"

	"github.com/wavecore/execore/internal/coreerrors"
	"github.com/wavecore/execore/internal/model"
)

// MaxCommandOutputBytes caps how much of a command condition's stdout is
// captured, per spec.md §4.5b.
const MaxCommandOutputBytes = 10 * 1024 * 1024

// DefaultCommandTimeout applies when an ExitCondition of type command
// leaves Timeout unset (spec.md §4.5).
const DefaultCommandTimeout = 120 * time.Second

// Evaluator evaluates ExitConditions against a LoopContext.
type Evaluator struct{}

func NewEvaluator() *Evaluator { return &Evaluator{} }

// Evaluate dispatches on cond.Type and always returns a populated
// ConditionEvaluationResult, timing the evaluation itself. An unknown Type
// yields a non-satisfied result wrapping coreerrors.ErrInvalidCondition.
func (e *Evaluator) Evaluate(ctx context.Context, cond model.ExitCondition, loopCtx *model.LoopContext) model.ConditionEvaluationResult {
	start := time.Now()
	result := model.ConditionEvaluationResult{ConditionName: cond.Name, ConditionType: cond.Type}

	switch cond.Type {
	case model.ConditionBoolean:
		e.evalBoolean(ctx, cond, loopCtx, &result)
	case model.ConditionCommand:
		e.evalCommand(ctx, cond, &result)
	case model.ConditionStepReference:
		e.evalStepReference(cond, loopCtx, &result)
	case model.ConditionDrift:
		e.evalDrift(cond, loopCtx, &result)
	case model.ConditionComposite:
		e.evalComposite(ctx, cond, loopCtx, &result)
	default:
		result.Satisfied = false
		result.Message = fmt.Sprintf("%v: unknown condition type %q", coreerrors.ErrInvalidCondition, cond.Type)
	}

	result.DurationMs = time.Since(start).Milliseconds()
	return result
}

func (e *Evaluator) evalBoolean(ctx context.Context, cond model.ExitCondition, loopCtx *model.LoopContext, result *model.ConditionEvaluationResult) {
	if cond.Predicate == nil {
		result.Satisfied = false
		result.Message = "boolean condition has no predicate"
		return
	}
	ok, err := cond.Predicate.Evaluate(loopCtx)
	if err != nil {
		result.Satisfied = false
		result.Message = fmt.Sprintf("predicate error: %v", err)
		return
	}
	result.Satisfied = ok
	result.ActualValue = ok
	if ok {
		result.Message = "predicate satisfied"
	} else {
		result.Message = "predicate not satisfied"
	}
}

// evalCommand runs cond.Command through bitfield/script and considers the
// condition satisfied when the process exit code equals ExpectedExitCode
// (default 0 when unset and Command is non-empty with ExpectedExitCode's
// zero value meaning "expect success").
func (e *Evaluator) evalCommand(ctx context.Context, cond model.ExitCondition, result *model.ConditionEvaluationResult) {
	if strings.TrimSpace(cond.Command) == "" {
		result.Satisfied = false
		result.Message = "command condition has an empty command"
		return
	}

	timeout := cond.Timeout
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type runOutcome struct {
		output   string
		exitCode int
		err      error
	}
	outcomeCh := make(chan runOutcome, 1)

	go func() {
		cmd := cond.Command
		if cond.Cwd != "" {
			cmd = fmt.Sprintf("cd %q && %s", cond.Cwd, cmd)
		}
		pipe := script.Exec(cmd)
		output, err := pipe.String()
		if len(output) > MaxCommandOutputBytes {
			output = output[:MaxCommandOutputBytes]
		}
		outcomeCh <- runOutcome{output: output, exitCode: pipe.ExitStatus(), err: err}
	}()

	select {
	case <-runCtx.Done():
		result.Satisfied = false
		result.Message = fmt.Sprintf("command timed out after %s", timeout)
	case out := <-outcomeCh:
		result.ActualValue = out.exitCode
		result.ExpectedValue = cond.ExpectedExitCode
		result.Satisfied = out.exitCode == cond.ExpectedExitCode
		if out.err != nil && !result.Satisfied {
			result.Message = fmt.Sprintf("command exited %d (want %d): %v", out.exitCode, cond.ExpectedExitCode, out.err)
		} else if result.Satisfied {
			result.Message = "command exit code matched"
		} else {
			result.Message = fmt.Sprintf("command exited %d, want %d", out.exitCode, cond.ExpectedExitCode)
		}
	}
}

// evalStepReference walks loopCtx.UserData via cond.Reference + cond.Path
// (dot-separated map keys) and deep-equals the result against cond.Expected.
func (e *Evaluator) evalStepReference(cond model.ExitCondition, loopCtx *model.LoopContext, result *model.ConditionEvaluationResult) {
	if loopCtx == nil {
		result.Satisfied = false
		result.Message = "step reference condition requires a loop context"
		return
	}

	root, ok := loopCtx.UserData[cond.Reference]
	if !ok {
		result.Satisfied = false
		result.Message = fmt.Sprintf("reference %q not found", cond.Reference)
		return
	}

	actual := root
	if cond.Path != "" {
		var found bool
		actual, found = walkPath(root, strings.Split(cond.Path, "."))
		if !found {
			result.Satisfied = false
			result.Message = fmt.Sprintf("path %q not found under reference %q", cond.Path, cond.Reference)
			return
		}
	}

	result.ActualValue = actual
	result.ExpectedValue = cond.Expected
	result.Satisfied = reflect.DeepEqual(actual, cond.Expected)
	if result.Satisfied {
		result.Message = "step reference matched expected value"
	} else {
		result.Message = "step reference did not match expected value"
	}
}

func walkPath(v interface{}, path []string) (interface{}, bool) {
	cur := v
	for _, key := range path {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}
		cur, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// evalDrift compares loopCtx.MeasuredDriftPct against cond.TargetDriftPercent;
// satisfied when the measured drift is at or below the target.
func (e *Evaluator) evalDrift(cond model.ExitCondition, loopCtx *model.LoopContext, result *model.ConditionEvaluationResult) {
	if loopCtx == nil {
		result.Satisfied = false
		result.Message = "drift condition requires a loop context"
		return
	}
	result.ActualValue = loopCtx.MeasuredDriftPct
	result.ExpectedValue = cond.TargetDriftPercent
	result.Satisfied = loopCtx.MeasuredDriftPct <= cond.TargetDriftPercent
	if result.Satisfied {
		result.Message = "measured drift within target"
	} else {
		result.Message = "measured drift exceeds target"
	}
}

// evalComposite evaluates children left-to-right with short-circuiting:
// AND stops at the first non-satisfied child, OR stops at the first
// satisfied one.
func (e *Evaluator) evalComposite(ctx context.Context, cond model.ExitCondition, loopCtx *model.LoopContext, result *model.ConditionEvaluationResult) {
	if len(cond.Children) == 0 {
		result.Satisfied = false
		result.Message = "composite condition has no children"
		return
	}

	isAND := cond.CompositeOperator == model.CompositeAND
	satisfied := isAND

	for _, child := range cond.Children {
		childResult := e.Evaluate(ctx, child, loopCtx)
		result.ChildResults = append(result.ChildResults, childResult)

		if isAND && !childResult.Satisfied {
			satisfied = false
			break
		}
		if !isAND && childResult.Satisfied {
			satisfied = true
			break
		}
		if !isAND {
			satisfied = false
		}
	}

	result.Satisfied = satisfied
	if isAND {
		result.Message = "composite AND"
	} else {
		result.Message = "composite OR"
	}
}
