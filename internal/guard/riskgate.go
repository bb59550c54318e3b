// Package guard implements an optional pre-wave risk gate: before a wave
// launches, each task can be scored for failure probability and the gate
// can block, warn, or adaptively decide whether to let it proceed.
//
// Grounded in the teacher's internal/executor/guard.go (GuardProtocol):
// same three-mode design (block/warn/adaptive) and the same graceful
// degradation rule — a gate with no predictor never blocks anything.
package guard

import "context"

// Mode controls how the gate reacts to a risky prediction.
type Mode string

const (
	// ModeBlock blocks a task whenever its predicted risk reaches the
	// probability threshold.
	ModeBlock Mode = "block"

	// ModeWarn never blocks; it only flags risky tasks for the caller to
	// log or surface.
	ModeWarn Mode = "warn"

	// ModeAdaptive blocks only when both probability and confidence
	// thresholds are met, avoiding low-confidence false positives.
	ModeAdaptive Mode = "adaptive"
)

// Options configures a RiskGate.
type Options struct {
	Enabled              bool
	Mode                 Mode
	ProbabilityThreshold float64
	ConfidenceThreshold  float64
}

// DefaultOptions returns a disabled gate; callers opt in explicitly.
func DefaultOptions() Options {
	return Options{Enabled: false, Mode: ModeAdaptive, ProbabilityThreshold: 0.7, ConfidenceThreshold: 0.6}
}

// Prediction is one task's estimated failure risk.
type Prediction struct {
	Probability float64
	Confidence  float64
	Reasons     []string
}

// Predictor scores a task's prompt for failure risk. Implementations may
// consult historical execution data; RiskGate degrades gracefully to a
// no-op when none is configured.
type Predictor interface {
	Predict(ctx context.Context, taskID, prompt string) (Prediction, error)
}

// Result is one task's gate verdict.
type Result struct {
	TaskID      string
	Prediction  Prediction
	ShouldBlock bool
	BlockReason string
}

// RiskGate evaluates a wave's tasks against a Predictor before launch.
type RiskGate struct {
	opts      Options
	predictor Predictor
}

// New builds a RiskGate. It returns nil when disabled or predictor is
// nil, matching the teacher's graceful-degradation contract: callers can
// unconditionally call CheckWave on a nil *RiskGate.
func New(opts Options, predictor Predictor) *RiskGate {
	if !opts.Enabled || predictor == nil {
		return nil
	}
	return &RiskGate{opts: opts, predictor: predictor}
}

// CheckWave scores every (taskID, prompt) pair and returns one Result
// each; a pair whose prediction fails is left out of the map. A nil
// receiver returns an empty map without error.
func (g *RiskGate) CheckWave(ctx context.Context, prompts map[string]string) (map[string]Result, error) {
	if g == nil {
		return map[string]Result{}, nil
	}

	results := make(map[string]Result, len(prompts))
	for taskID, prompt := range prompts {
		pred, err := g.predictor.Predict(ctx, taskID, prompt)
		if err != nil {
			continue
		}
		results[taskID] = g.evaluate(taskID, pred)
	}
	return results, nil
}

func (g *RiskGate) evaluate(taskID string, pred Prediction) Result {
	r := Result{TaskID: taskID, Prediction: pred}

	switch g.opts.Mode {
	case ModeBlock:
		if pred.Probability >= g.opts.ProbabilityThreshold {
			r.ShouldBlock = true
			r.BlockReason = "predicted failure probability exceeds threshold"
		}
	case ModeAdaptive:
		if pred.Probability >= g.opts.ProbabilityThreshold && pred.Confidence >= g.opts.ConfidenceThreshold {
			r.ShouldBlock = true
			r.BlockReason = "predicted failure probability and confidence both exceed threshold"
		}
	case ModeWarn:
		// Never blocks; caller inspects Prediction directly.
	}

	return r
}
