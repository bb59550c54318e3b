package resume

import (
	"sort"

	"github.com/wavecore/execore/internal/model"
)

// Engine classifies checkpointed steps into resume decisions.
type Engine struct{}

func NewEngine() *Engine { return &Engine{} }

// Classify applies the ordered rules from spec.md §4.4 to one step:
//
//  1. Completed steps resume from the next step, confidence 0.95, with a
//     restart alternative at 0.5.
//  2. Pending and executing steps resume, confidence 0.9, with skip (0.6)
//     and restart (0.4) alternatives.
//  3. Failed steps with a detected error pattern (matched against both
//     the error's message and its code) are classified per the pattern's
//     AgentCanFix / RequiresHumanIntervention flags.
//  4. Failed steps with no pattern match fall back to the step's own
//     Error.Recoverable flag.
//
// Confidence starts at a rule-specific base and is reduced when the step
// has exhausted its attempt budget or is marked explicitly unrecoverable.
func (e *Engine) Classify(step model.Step) model.ResumeDecision {
	switch step.Status {
	case model.StepCompleted:
		return model.ResumeDecision{
			Action:     model.ActionResume,
			Reason:     "step already completed; resume from the next step",
			FromStep:   step.ID,
			Confidence: 0.95,
			Alternatives: []model.Alternative{
				{Action: model.ActionRestart, Reason: "re-run this step despite its recorded completion", Confidence: 0.5},
			},
		}

	case model.StepPending, model.StepExecuting:
		reason := "step has not started"
		if step.Status == model.StepExecuting {
			reason = "step was mid-execution; resume from its last recorded state"
		}
		return model.ResumeDecision{
			Action:     model.ActionResume,
			Reason:     reason,
			FromStep:   step.ID,
			Confidence: 0.9,
			Alternatives: []model.Alternative{
				{Action: model.ActionSkip, Reason: "skip and continue with remaining steps", Confidence: 0.6},
				{Action: model.ActionRestart, Reason: "restart the step from scratch", Confidence: 0.4},
			},
		}

	case model.StepFailed:
		return e.classifyFailed(step)

	default:
		return model.ResumeDecision{Action: model.ActionAbort, Reason: "unknown step status", FromStep: step.ID, Confidence: 0.2}
	}
}

func (e *Engine) classifyFailed(step model.Step) model.ResumeDecision {
	exhausted := step.MaxAttempts > 0 && step.Attempt >= step.MaxAttempts

	var msg, code string
	if step.Error != nil {
		msg = step.Error.Message
		code = step.Error.Code
	}

	if pattern := DetectErrorPattern(msg, code); pattern != nil {
		decision := classifyByPattern(step, pattern, exhausted)
		decision.Alternatives = alternativesFor(decision.Action, step)
		return decision
	}

	return classifyByRecoverableFlag(step, exhausted)
}

func classifyByPattern(step model.Step, pattern *ErrorPattern, exhausted bool) model.ResumeDecision {
	base := 0.85
	if exhausted {
		base -= 0.25
	}

	if pattern.RequiresHumanIntervention {
		return model.ResumeDecision{
			Action:     model.ActionAbort,
			Reason:     "error pattern requires human intervention: " + pattern.Suggestion,
			FromStep:   step.ID,
			Confidence: clamp01(base),
		}
	}
	if pattern.AgentCanFix && !exhausted {
		return model.ResumeDecision{
			Action:     model.ActionResume,
			Reason:     "recoverable error pattern matched: " + pattern.Suggestion,
			FromStep:   step.ID,
			Confidence: clamp01(base),
		}
	}
	if pattern.AgentCanFix && exhausted {
		return model.ResumeDecision{
			Action:     model.ActionRestart,
			Reason:     "recoverable error pattern matched but attempts exhausted: " + pattern.Suggestion,
			FromStep:   step.ID,
			Confidence: clamp01(base),
		}
	}
	return model.ResumeDecision{
		Action:     model.ActionAbort,
		Reason:     "error pattern not agent-fixable: " + pattern.Suggestion,
		FromStep:   step.ID,
		Confidence: clamp01(base),
	}
}

func classifyByRecoverableFlag(step model.Step, exhausted bool) model.ResumeDecision {
	recoverable := step.Error == nil || step.Error.Recoverable
	base := 0.55
	if exhausted {
		base -= 0.2
	}

	if recoverable && !exhausted {
		return model.ResumeDecision{Action: model.ActionResume, Reason: "no known pattern; error marked recoverable", FromStep: step.ID, Confidence: clamp01(base)}
	}
	if recoverable && exhausted {
		return model.ResumeDecision{Action: model.ActionRestart, Reason: "no known pattern; error recoverable but attempts exhausted", FromStep: step.ID, Confidence: clamp01(base)}
	}
	return model.ResumeDecision{Action: model.ActionAbort, Reason: "no known pattern; error marked unrecoverable", FromStep: step.ID, Confidence: clamp01(base - 0.1)}
}

func alternativesFor(primary model.ResumeAction, step model.Step) []model.Alternative {
	var alts []model.Alternative
	if primary != model.ActionSkip {
		alts = append(alts, model.Alternative{Action: model.ActionSkip, Reason: "skip and continue with remaining steps", Confidence: 0.3})
	}
	if primary != model.ActionAbort {
		alts = append(alts, model.Alternative{Action: model.ActionAbort, Reason: "abort and surface for manual review", Confidence: 0.2})
	}
	return alts
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// actionWeight orders candidate resume points by how actionable they are:
// resuming is preferable to restarting, which is preferable to aborting.
var actionWeight = map[model.ResumeAction]float64{
	model.ActionResume:  1.0,
	model.ActionRestart: 0.7,
	model.ActionSkip:    0.5,
	model.ActionAbort:   0.1,
}

// ScoredCheckpoint pairs a checkpoint with its decision and composite score.
type ScoredCheckpoint struct {
	Checkpoint model.StepCheckpoint
	Decision   model.ResumeDecision
	Score      float64
}

// FindBestResumePoint classifies every checkpoint and ranks them by
// score = confidence * actionWeight(action) * recencyMultiplier, where
// recencyMultiplier favors the most recently created checkpoint among
// ties. Checkpoints are assumed already ordered oldest-to-newest.
func (e *Engine) FindBestResumePoint(checkpoints []model.StepCheckpoint) *ScoredCheckpoint {
	if len(checkpoints) == 0 {
		return nil
	}

	scored := make([]ScoredCheckpoint, len(checkpoints))
	for i, cp := range checkpoints {
		decision := e.Classify(cp.Step)
		recency := 1.0 + float64(i)/float64(len(checkpoints))*0.1
		weight := actionWeight[decision.Action]
		scored[i] = ScoredCheckpoint{
			Checkpoint: cp,
			Decision:   decision,
			Score:      decision.Confidence * weight * recency,
		}
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	best := scored[0]
	return &best
}
