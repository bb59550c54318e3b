package condition

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wavecore/execore/internal/model"
)

type predicateFunc func(ctx *model.LoopContext) (bool, error)

func (f predicateFunc) Evaluate(ctx *model.LoopContext) (bool, error) { return f(ctx) }

func TestEvaluate_Boolean(t *testing.T) {
	e := NewEvaluator()
	cond := model.ExitCondition{Name: "done", Type: model.ConditionBoolean, Predicate: predicateFunc(func(*model.LoopContext) (bool, error) {
		return true, nil
	})}
	result := e.Evaluate(context.Background(), cond, &model.LoopContext{})
	assert.True(t, result.Satisfied)
}

func TestEvaluate_BooleanPredicateError(t *testing.T) {
	e := NewEvaluator()
	cond := model.ExitCondition{Type: model.ConditionBoolean, Predicate: predicateFunc(func(*model.LoopContext) (bool, error) {
		return false, errors.New("boom")
	})}
	result := e.Evaluate(context.Background(), cond, &model.LoopContext{})
	assert.False(t, result.Satisfied)
	assert.Contains(t, result.Message, "boom")
}

func TestEvaluate_Command(t *testing.T) {
	e := NewEvaluator()
	cond := model.ExitCondition{Type: model.ConditionCommand, Command: "true", ExpectedExitCode: 0}
	result := e.Evaluate(context.Background(), cond, nil)
	assert.True(t, result.Satisfied)
}

func TestEvaluate_CommandNonzeroExit(t *testing.T) {
	e := NewEvaluator()
	cond := model.ExitCondition{Type: model.ConditionCommand, Command: "false", ExpectedExitCode: 0}
	result := e.Evaluate(context.Background(), cond, nil)
	assert.False(t, result.Satisfied)
}

func TestDefaultCommandTimeout_Is120Seconds(t *testing.T) {
	assert.Equal(t, 120*time.Second, DefaultCommandTimeout)
}

func TestEvaluate_CommandEmpty(t *testing.T) {
	e := NewEvaluator()
	cond := model.ExitCondition{Type: model.ConditionCommand, Command: ""}
	result := e.Evaluate(context.Background(), cond, nil)
	assert.False(t, result.Satisfied)
	assert.Contains(t, result.Message, "empty command")
}

func TestEvaluate_StepReference(t *testing.T) {
	e := NewEvaluator()
	loopCtx := &model.LoopContext{UserData: map[string]interface{}{
		"lastResult": map[string]interface{}{"status": "ok", "nested": map[string]interface{}{"count": 3}},
	}}

	cond := model.ExitCondition{Type: model.ConditionStepReference, Reference: "lastResult", Path: "status", Expected: "ok"}
	result := e.Evaluate(context.Background(), cond, loopCtx)
	assert.True(t, result.Satisfied)

	condNested := model.ExitCondition{Type: model.ConditionStepReference, Reference: "lastResult", Path: "nested.count", Expected: 3}
	resultNested := e.Evaluate(context.Background(), condNested, loopCtx)
	assert.True(t, resultNested.Satisfied)

	condMissing := model.ExitCondition{Type: model.ConditionStepReference, Reference: "missing"}
	resultMissing := e.Evaluate(context.Background(), condMissing, loopCtx)
	assert.False(t, resultMissing.Satisfied)
}

func TestEvaluate_Drift(t *testing.T) {
	e := NewEvaluator()
	loopCtx := &model.LoopContext{MeasuredDriftPct: 4.5}
	cond := model.ExitCondition{Type: model.ConditionDrift, TargetDriftPercent: 5.0}
	result := e.Evaluate(context.Background(), cond, loopCtx)
	assert.True(t, result.Satisfied)

	condFail := model.ExitCondition{Type: model.ConditionDrift, TargetDriftPercent: 1.0}
	resultFail := e.Evaluate(context.Background(), condFail, loopCtx)
	assert.False(t, resultFail.Satisfied)
}

func TestEvaluate_CompositeANDShortCircuits(t *testing.T) {
	e := NewEvaluator()
	calls := 0
	track := func(ok bool) model.BooleanPredicate {
		return predicateFunc(func(*model.LoopContext) (bool, error) {
			calls++
			return ok, nil
		})
	}

	cond := model.ExitCondition{
		Type:              model.ConditionComposite,
		CompositeOperator: model.CompositeAND,
		Children: []model.ExitCondition{
			{Type: model.ConditionBoolean, Predicate: track(false)},
			{Type: model.ConditionBoolean, Predicate: track(true)},
		},
	}
	result := e.Evaluate(context.Background(), cond, &model.LoopContext{})
	assert.False(t, result.Satisfied)
	assert.Equal(t, 1, calls, "AND must short-circuit after first false")
	require.Len(t, result.ChildResults, 1)
}

func TestEvaluate_CompositeORShortCircuits(t *testing.T) {
	e := NewEvaluator()
	calls := 0
	track := func(ok bool) model.BooleanPredicate {
		return predicateFunc(func(*model.LoopContext) (bool, error) {
			calls++
			return ok, nil
		})
	}

	cond := model.ExitCondition{
		Type:              model.ConditionComposite,
		CompositeOperator: model.CompositeOR,
		Children: []model.ExitCondition{
			{Type: model.ConditionBoolean, Predicate: track(true)},
			{Type: model.ConditionBoolean, Predicate: track(false)},
		},
	}
	result := e.Evaluate(context.Background(), cond, &model.LoopContext{})
	assert.True(t, result.Satisfied)
	assert.Equal(t, 1, calls, "OR must short-circuit after first true")
}

func TestEvaluate_UnknownTypeIsInvalid(t *testing.T) {
	e := NewEvaluator()
	result := e.Evaluate(context.Background(), model.ExitCondition{Type: "bogus"}, nil)
	assert.False(t, result.Satisfied)
}
