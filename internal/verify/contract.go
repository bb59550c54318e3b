package verify

import "github.com/wavecore/execore/internal/model"

// EvaluateContract runs contract's preconditions, then postconditions,
// then invariants, in that fixed order (spec.md §4.6a). When
// stopOnFirstFailure is true, evaluation stops at the first error-severity
// failure; warnings never stop evaluation. Success means no error-severity
// failure occurred among the conditions that were actually run.
func EvaluateContract(contract model.AgentContract, ctx *model.ExecutionContext, stopOnFirstFailure bool) model.ContractEvaluationResult {
	out := model.ContractEvaluationResult{ContractID: contract.ID, Success: true}

	groups := [][]model.Condition{contract.Preconditions, contract.Postconditions, contract.Invariants}

	for _, group := range groups {
		for _, cond := range group {
			result := EvaluateCondition(cond, ctx)
			out.Results = append(out.Results, result)

			if result.Passed {
				continue
			}

			switch result.Severity {
			case model.SeverityWarning:
				out.Warnings = append(out.Warnings, result)
			default:
				out.Failures = append(out.Failures, result)
				out.Success = false
				if stopOnFirstFailure {
					return out
				}
			}
		}
	}

	return out
}
