// Package verify implements the contract-verification engine (spec.md
// §4.6): evaluating pre/post/invariant Conditions against an
// ExecutionContext, aggregating them into an AgentContract result,
// looking contracts up by task type via a ContractRegistry, running
// structural/semantic checks via a ContractValidator, and rendering a
// verify-and-check hook's results as text, Markdown, or JSON.
package verify

import (
	"fmt"
	"time"

	"github.com/wavecore/execore/internal/model"
)

// EvaluateCondition runs one Condition's predicate against ctx, timing the
// call and converting a predicate panic or error into a failed
// ConditionResult (keeping the condition's own severity) rather than
// propagating.
func EvaluateCondition(cond model.Condition, ctx *model.ExecutionContext) (result model.ConditionResult) {
	result = model.ConditionResult{
		ConditionID:   cond.ID,
		ConditionName: cond.Name,
		Type:          cond.Type,
		Severity:      cond.Severity,
	}
	start := time.Now()
	defer func() {
		result.DurationMs = time.Since(start).Milliseconds()
		if r := recover(); r != nil {
			result.Passed = false
			result.Message = fmt.Sprintf("condition panicked: %v", r)
		}
	}()

	if cond.Predicate == nil {
		result.Passed = false
		result.Message = "condition has no predicate"
		return result
	}

	ok, err := cond.Predicate.Evaluate(ctx)
	if err != nil {
		result.Passed = false
		if cond.ErrorMessage != "" {
			result.Message = fmt.Sprintf("%s: %v", cond.ErrorMessage, err)
		} else {
			result.Message = err.Error()
		}
		return result
	}

	result.Passed = ok
	if !ok {
		if cond.ErrorMessage != "" {
			result.Message = cond.ErrorMessage
		} else {
			result.Message = fmt.Sprintf("condition %q not satisfied", cond.Name)
		}
	} else {
		result.Message = "ok"
	}
	return result
}
