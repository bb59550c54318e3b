// Package learningbias adjusts resume-decision confidence using a task's
// historical retry outcomes, so a step that has recovered from similar
// failures before is trusted more, and one that never has is trusted
// less.
//
// Grounded in the teacher's internal/learning/intelligent_swap.go and
// analysis.go: both bias a decision's confidence using a historical
// success rate pulled from the learning store, rather than an LLM call
// replayed on every retry. This package keeps that bias mechanism and
// drops the LLM-driven agent-selection call, which has no equivalent
// concept in this system (there is no agent registry to select from).
package learningbias

import "github.com/wavecore/execore/internal/model"

// Store reports how often a (stepID, action) pair has succeeded
// historically. Implementations may back this with statestore.SQLStore's
// append-only checkpoint history or a dedicated table.
type Store interface {
	SuccessRate(stepID string, action model.ResumeAction) (rate float64, samples int, ok bool)
}

// MinSamples is the minimum number of historical samples required before
// a bias is applied; below this, the decision's own confidence stands.
const MinSamples = 3

// Apply adjusts decision.Confidence and each alternative's confidence
// toward the historical success rate for that (stepID, action) pair,
// weighted by how much history exists. It returns the adjusted decision
// unchanged if store is nil or history is too thin.
func Apply(store Store, stepID string, decision model.ResumeDecision) model.ResumeDecision {
	if store == nil {
		return decision
	}

	decision.Confidence = biasedConfidence(store, stepID, decision.Action, decision.Confidence)
	for i, alt := range decision.Alternatives {
		decision.Alternatives[i].Confidence = biasedConfidence(store, stepID, alt.Action, alt.Confidence)
	}
	return decision
}

func biasedConfidence(store Store, stepID string, action model.ResumeAction, current float64) float64 {
	rate, samples, ok := store.SuccessRate(stepID, action)
	if !ok || samples < MinSamples {
		return current
	}

	// Weight grows with sample count, capped at 0.8 so even a long
	// history never fully overrides the rule-based estimate.
	weight := float64(samples) / float64(samples+10)
	if weight > 0.8 {
		weight = 0.8
	}

	blended := current*(1-weight) + rate*weight
	if blended < 0 {
		blended = 0
	}
	if blended > 1 {
		blended = 1
	}
	return blended
}
