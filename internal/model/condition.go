package model

import "time"

// ExitConditionType tags the ExitCondition variant.
type ExitConditionType string

const (
	ConditionBoolean       ExitConditionType = "boolean"
	ConditionCommand       ExitConditionType = "command"
	ConditionStepReference ExitConditionType = "step_reference"
	ConditionDrift         ExitConditionType = "drift"
	ConditionComposite     ExitConditionType = "composite"
)

// CompositeOp is the boolean combinator for a composite exit condition.
type CompositeOp string

const (
	CompositeAND CompositeOp = "AND"
	CompositeOR  CompositeOp = "OR"
)

// BooleanPredicate is evaluated against a LoopContext to decide a boolean
// exit condition. Implementations must not hold onto ctx beyond the call.
type BooleanPredicate interface {
	Evaluate(ctx *LoopContext) (bool, error)
}

// ExitCondition is a tagged variant describing how RepeatUntil decides a
// loop is done. Exactly the fields relevant to Type should be populated.
type ExitCondition struct {
	Name string
	Type ExitConditionType

	// ConditionBoolean
	Predicate BooleanPredicate

	// ConditionCommand
	Command           string
	ExpectedExitCode  int
	Timeout           time.Duration
	Cwd               string

	// ConditionStepReference
	Reference string
	Path      string
	Expected  interface{}

	// ConditionDrift
	TargetDriftPercent float64

	// ConditionComposite
	CompositeOperator CompositeOp
	Children          []ExitCondition
}

// LoopContext carries the state RepeatUntil threads through condition
// evaluation: user-set key/value data (for step_reference lookups) and a
// measured drift percentage (for the drift condition).
type LoopContext struct {
	UserData         map[string]interface{}
	MeasuredDriftPct float64
}

// ConditionEvaluationResult is the outcome of evaluating one ExitCondition.
type ConditionEvaluationResult struct {
	Satisfied     bool                        `json:"satisfied"`
	ConditionName string                      `json:"conditionName"`
	ConditionType ExitConditionType           `json:"conditionType"`
	ActualValue   interface{}                 `json:"actualValue,omitempty"`
	ExpectedValue interface{}                 `json:"expectedValue,omitempty"`
	Message       string                      `json:"message"`
	DurationMs    int64                       `json:"durationMs"`
	ChildResults  []ConditionEvaluationResult `json:"childResults,omitempty"`
}
