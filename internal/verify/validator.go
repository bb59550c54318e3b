package verify

import (
	"fmt"

	"github.com/wavecore/execore/internal/model"
)

// Issue is one structural or semantic defect found in an AgentContract
// definition, independent of any particular execution's outcome.
type Issue struct {
	Code        string
	Message     string
	ConditionID string
}

// ValidationResult is the outcome of validating one AgentContract.
type ValidationResult struct {
	ContractID string
	Valid      bool
	Issues     []Issue
}

// CustomRule is a caller-supplied structural check. A rule that panics is
// caught and reported as a single CUSTOM_RULE_ERROR issue rather than
// crashing validation.
type CustomRule func(model.AgentContract) []Issue

// Validator runs the built-in structural checks plus any registered
// custom rules against an AgentContract definition.
type Validator struct {
	rules []CustomRule
}

func NewValidator(rules ...CustomRule) *Validator {
	return &Validator{rules: rules}
}

// Validate checks that a contract is well-formed: non-empty ID, a known
// VerificationMethod, unique condition IDs, every condition carrying a
// predicate and a recognized severity, then runs the custom rules.
func (v *Validator) Validate(contract model.AgentContract) ValidationResult {
	result := ValidationResult{ContractID: contract.ID, Valid: true}
	add := func(code, msg, condID string) {
		result.Issues = append(result.Issues, Issue{Code: code, Message: msg, ConditionID: condID})
		result.Valid = false
	}

	if contract.ID == "" {
		add("MISSING_ID", "contract has no ID", "")
	}
	if !validVerificationMethod(contract.VerificationMethod) {
		add("INVALID_VERIFICATION_METHOD", fmt.Sprintf("unrecognized verification method %q", contract.VerificationMethod), "")
	}

	seen := make(map[string]bool)
	all := append(append(append([]model.Condition{}, contract.Preconditions...), contract.Postconditions...), contract.Invariants...)
	for _, cond := range all {
		if cond.ID == "" {
			add("MISSING_CONDITION_ID", "condition has no ID", "")
			continue
		}
		if seen[cond.ID] {
			add("DUPLICATE_CONDITION_ID", fmt.Sprintf("condition ID %q used more than once", cond.ID), cond.ID)
		}
		seen[cond.ID] = true

		if cond.Predicate == nil {
			add("MISSING_PREDICATE", "condition has no predicate", cond.ID)
		}
		if cond.Severity != model.SeverityError && cond.Severity != model.SeverityWarning {
			add("INVALID_SEVERITY", fmt.Sprintf("unrecognized severity %q", cond.Severity), cond.ID)
		}
	}

	for _, rule := range v.rules {
		result.Issues = append(result.Issues, runCustomRule(rule, contract)...)
	}
	result.Valid = len(result.Issues) == 0

	return result
}

func runCustomRule(rule CustomRule, contract model.AgentContract) (issues []Issue) {
	defer func() {
		if r := recover(); r != nil {
			issues = []Issue{{Code: "CUSTOM_RULE_ERROR", Message: fmt.Sprintf("custom rule panicked: %v", r)}}
		}
	}()
	return rule(contract)
}

func validVerificationMethod(m model.VerificationMethod) bool {
	switch m {
	case model.MethodRuntime, model.MethodPropertyTest, model.MethodFormal, model.MethodHybrid:
		return true
	default:
		return false
	}
}
