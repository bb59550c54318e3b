package verify

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wavecore/execore/internal/model"
)

type predicate func(ctx *model.ExecutionContext) (bool, error)

func (f predicate) Evaluate(ctx *model.ExecutionContext) (bool, error) { return f(ctx) }

func alwaysTrue() model.ConditionPredicate {
	return predicate(func(*model.ExecutionContext) (bool, error) { return true, nil })
}
func alwaysFalse() model.ConditionPredicate {
	return predicate(func(*model.ExecutionContext) (bool, error) { return false, nil })
}
func alwaysPanics() model.ConditionPredicate {
	return predicate(func(*model.ExecutionContext) (bool, error) { panic("kaboom") })
}
func alwaysErrors() model.ConditionPredicate {
	return predicate(func(*model.ExecutionContext) (bool, error) { return false, errors.New("boom") })
}

func TestEvaluateCondition_PanicBecomesFailure(t *testing.T) {
	cond := model.Condition{ID: "c1", Name: "no panic", Predicate: alwaysPanics(), Severity: model.SeverityError}
	result := EvaluateCondition(cond, &model.ExecutionContext{})
	assert.False(t, result.Passed)
	assert.Contains(t, result.Message, "panicked")
}

func TestEvaluateCondition_ErrorUsesCustomMessage(t *testing.T) {
	cond := model.Condition{ID: "c2", Predicate: alwaysErrors(), ErrorMessage: "custom failure", Severity: model.SeverityError}
	result := EvaluateCondition(cond, &model.ExecutionContext{})
	assert.False(t, result.Passed)
	assert.Contains(t, result.Message, "custom failure")
}

func TestEvaluateContract_OrderAndSuccessSemantics(t *testing.T) {
	contract := model.AgentContract{
		ID:                 "contract-1",
		VerificationMethod: model.MethodRuntime,
		Enabled:            true,
		Preconditions:      []model.Condition{{ID: "pre1", Predicate: alwaysTrue(), Severity: model.SeverityError}},
		Postconditions:     []model.Condition{{ID: "post1", Predicate: alwaysTrue(), Severity: model.SeverityError}},
		Invariants:         []model.Condition{{ID: "inv1", Predicate: alwaysTrue(), Severity: model.SeverityError}},
	}

	result := EvaluateContract(contract, &model.ExecutionContext{}, false)
	require.True(t, result.Success)
	require.Len(t, result.Results, 3)
	assert.Equal(t, "pre1", result.Results[0].ConditionID)
	assert.Equal(t, "post1", result.Results[1].ConditionID)
	assert.Equal(t, "inv1", result.Results[2].ConditionID)
}

func TestEvaluateContract_WarningDoesNotFailContract(t *testing.T) {
	contract := model.AgentContract{
		ID:            "contract-2",
		Preconditions: []model.Condition{{ID: "w1", Predicate: alwaysFalse(), Severity: model.SeverityWarning}},
	}
	result := EvaluateContract(contract, &model.ExecutionContext{}, false)
	assert.True(t, result.Success)
	assert.Len(t, result.Warnings, 1)
	assert.Empty(t, result.Failures)
}

func TestEvaluateContract_ErrorFailsContractAndCanStop(t *testing.T) {
	contract := model.AgentContract{
		ID: "contract-3",
		Preconditions: []model.Condition{
			{ID: "e1", Predicate: alwaysFalse(), Severity: model.SeverityError},
		},
		Postconditions: []model.Condition{
			{ID: "e2", Predicate: alwaysFalse(), Severity: model.SeverityError},
		},
	}

	stopped := EvaluateContract(contract, &model.ExecutionContext{}, true)
	assert.False(t, stopped.Success)
	assert.Len(t, stopped.Results, 1, "must stop after first error-severity failure")

	full := EvaluateContract(contract, &model.ExecutionContext{}, false)
	assert.False(t, full.Success)
	assert.Len(t, full.Results, 2)
	assert.Len(t, full.Failures, 2)
}

func TestRegistry_DuplicateIDRejected(t *testing.T) {
	reg := NewRegistry()
	c := model.AgentContract{ID: "dup", TaskType: "build"}
	require.NoError(t, reg.Register(c))
	assert.Error(t, reg.Register(c))
}

func TestRegistry_ByTaskTypeAndTag(t *testing.T) {
	reg := NewRegistry()
	_ = reg.Register(model.AgentContract{ID: "a", TaskType: "build", Enabled: true, Tags: []string{"fast"}})
	_ = reg.Register(model.AgentContract{ID: "b", TaskType: "test", Enabled: true, Tags: []string{"slow"}})
	_ = reg.Register(model.AgentContract{ID: "c", TaskType: "build", Enabled: false})

	byType := reg.ByTaskType("build")
	assert.Len(t, byType, 1)
	assert.Equal(t, "a", byType[0].ID)

	byTag := reg.ByTag("slow")
	assert.Len(t, byTag, 1)
	assert.Equal(t, "b", byTag[0].ID)
}

func TestValidator_FlagsStructuralIssues(t *testing.T) {
	v := NewValidator()
	contract := model.AgentContract{
		ID:                 "",
		VerificationMethod: "nonsense",
		Preconditions: []model.Condition{
			{ID: "dup", Severity: model.SeverityError},
			{ID: "dup", Predicate: alwaysTrue(), Severity: "weird"},
		},
	}

	result := v.Validate(contract)
	assert.False(t, result.Valid)

	codes := make(map[string]bool)
	for _, issue := range result.Issues {
		codes[issue.Code] = true
	}
	assert.True(t, codes["MISSING_ID"])
	assert.True(t, codes["INVALID_VERIFICATION_METHOD"])
	assert.True(t, codes["DUPLICATE_CONDITION_ID"])
	assert.True(t, codes["MISSING_PREDICATE"])
	assert.True(t, codes["INVALID_SEVERITY"])
}

func TestValidator_CustomRulePanicBecomesIssue(t *testing.T) {
	v := NewValidator(func(model.AgentContract) []Issue { panic("rule exploded") })
	contract := model.AgentContract{ID: "ok", VerificationMethod: model.MethodRuntime}
	result := v.Validate(contract)
	assert.False(t, result.Valid)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, "CUSTOM_RULE_ERROR", result.Issues[0].Code)
}

func TestHook_RunAggregatesOutcomes(t *testing.T) {
	reg := NewRegistry()
	_ = reg.Register(model.AgentContract{
		ID: "ok", TaskType: "build", Enabled: true,
		Preconditions: []model.Condition{{ID: "p1", Predicate: alwaysTrue(), Severity: model.SeverityError}},
	})
	_ = reg.Register(model.AgentContract{
		ID: "bad", TaskType: "build", Enabled: true,
		Preconditions: []model.Condition{{ID: "p2", Predicate: alwaysFalse(), Severity: model.SeverityError}},
	})
	_ = reg.Register(model.AgentContract{ID: "off", TaskType: "build", Enabled: false})

	hook := NewHook(reg, false, true)
	report := hook.Run("build", &model.ExecutionContext{TaskID: "task-1"})

	assert.Equal(t, 1, report.PassedCount)
	assert.Equal(t, 1, report.FailedCount)
	assert.Equal(t, 1, report.SkippedCount)
	assert.True(t, report.Blocked())
}

func TestReport_RenderFormats(t *testing.T) {
	report := VACReport{TaskID: "t1", PassedCount: 1, Entries: []HookEntry{{ContractID: "a", Outcome: OutcomePassed}}}

	text, err := report.Render("text")
	require.NoError(t, err)
	assert.Contains(t, text, "t1")

	md, err := report.Render("markdown")
	require.NoError(t, err)
	assert.Contains(t, md, "# Verification report")

	html, err := report.Render("html")
	require.NoError(t, err)
	assert.Contains(t, html, "<h1>")

	js, err := report.Render("json")
	require.NoError(t, err)
	assert.Contains(t, js, "\"taskId\"")

	_, err = report.Render("xml")
	assert.Error(t, err)
}
