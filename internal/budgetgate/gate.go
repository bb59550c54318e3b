// Package budgetgate extends resource.Manager's concurrency gate with a
// cost ceiling: once a tracked spend projection crosses a configured
// limit, CanSpawnAgent vetoes new agent spawns even if concurrency slots
// are free, and waves shrink toward zero rather than hold steady.
//
// Grounded in the teacher's internal/budget/tracker.go (burn-rate
// projection against a usage window) and internal/budget/waiter.go (the
// wait-for-reset ticker loop), generalized from 5-hour Claude Code
// billing windows to an arbitrary CostTracker the caller supplies.
package budgetgate

import (
	"context"
	"time"

	"github.com/wavecore/execore/internal/wave"
)

// CostTracker reports current spend against a ceiling. Implementations
// may track token cost, dollar cost, or any other budget unit; the gate
// only needs the ratio.
type CostTracker interface {
	// ProjectedUtilization returns the fraction (0.0-1.0+) of the
	// configured ceiling the current burn rate is projected to consume
	// before the tracking window resets.
	ProjectedUtilization() float64

	// TimeUntilReset returns how long until the tracking window resets
	// and spend accounting restarts.
	TimeUntilReset() time.Duration
}

// Options configures the gate's veto threshold.
type Options struct {
	// VetoThreshold is the projected utilization at or above which new
	// agent spawns are vetoed (default 1.0: don't veto until the
	// projection reaches the ceiling).
	VetoThreshold float64
}

func DefaultOptions() Options {
	return Options{VetoThreshold: 1.0}
}

// Gate wraps a wave.ResourceManager, adding a cost-based veto on top of
// its existing concurrency-based one.
type Gate struct {
	inner   wave.ResourceManager
	tracker CostTracker
	opts    Options
}

// New wraps inner with a cost veto driven by tracker. If tracker is nil
// the gate behaves exactly like inner (no veto).
func New(inner wave.ResourceManager, tracker CostTracker, opts Options) *Gate {
	if opts.VetoThreshold <= 0 {
		opts = DefaultOptions()
	}
	return &Gate{inner: inner, tracker: tracker, opts: opts}
}

// CanSpawnAgent vetoes spawning once projected spend crosses the
// threshold, regardless of what the wrapped manager would allow.
func (g *Gate) CanSpawnAgent() bool {
	if g.tracker != nil && g.tracker.ProjectedUtilization() >= g.opts.VetoThreshold {
		return false
	}
	return g.inner.CanSpawnAgent()
}

// ComputeWaveSize shrinks the wrapped manager's wave size as projected
// spend approaches the ceiling: to 1 task at 80% of the veto threshold,
// and to 0 tasks at or above the threshold itself.
func (g *Gate) ComputeWaveSize(useMemoryBudgets bool) int {
	base := g.inner.ComputeWaveSize(useMemoryBudgets)
	if g.tracker == nil {
		return base
	}

	util := g.tracker.ProjectedUtilization()
	switch {
	case util >= g.opts.VetoThreshold:
		return 0
	case util >= g.opts.VetoThreshold*0.8:
		if base > 1 {
			return 1
		}
	}
	return base
}

// Acquire delegates to the wrapped manager.
func (g *Gate) Acquire() (release func()) {
	return g.inner.Acquire()
}

// WaitForReset blocks until the tracker's window resets or ctx is
// cancelled, for callers that want to pause a run rather than fail it
// outright when the budget is exhausted.
func (g *Gate) WaitForReset(ctx context.Context) error {
	if g.tracker == nil {
		return nil
	}

	wait := g.tracker.TimeUntilReset()
	if wait <= 0 {
		return nil
	}

	select {
	case <-time.After(wait):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
