// Package resource implements the ResourceManager component (spec.md §4.1):
// gating agent slots by a configured max-concurrent budget and, optionally,
// memory-pressure signals reported by a MemoryStore-like collaborator.
//
// Grounded in the teacher's budget package (internal/budget/tracker.go),
// which gates wave execution on a cost threshold the same shape this gates
// on a concurrency threshold.
package resource

import "sync/atomic"

// Design constants from spec.md §4.1.
const (
	highUtilizationThreshold   = 0.80
	moderateUtilizationThreshold = 0.60
	highUtilizationFactor      = 0.5
	moderateUtilizationFactor  = 0.75
)

// MemoryMetricsProvider reports task-scope budget utilization, mirroring
// MemoryStore.getMetrics() from spec.md §6.
type MemoryMetricsProvider interface {
	TaskBudgetUtilization() (percent float64, ok bool)
}

// Manager is the reference ResourceManager. MaxConcurrent may be updated
// concurrently (e.g. by a config hot-reload); InFlight tracks currently
// spawned agents so CanSpawnAgent can answer without blocking.
type Manager struct {
	maxConcurrent int64
	inFlight      int64
	metrics       MemoryMetricsProvider
}

// NewManager constructs a Manager with a fixed max-concurrency budget and
// an optional memory metrics provider (nil disables memory-budget sizing).
func NewManager(maxConcurrent int, metrics MemoryMetricsProvider) *Manager {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Manager{maxConcurrent: int64(maxConcurrent), metrics: metrics}
}

// MaxConcurrent returns the current positive concurrency budget.
func (m *Manager) MaxConcurrent() int {
	return int(atomic.LoadInt64(&m.maxConcurrent))
}

// SetMaxConcurrent updates the budget; values <= 0 are clamped to 1.
func (m *Manager) SetMaxConcurrent(n int) {
	if n <= 0 {
		n = 1
	}
	atomic.StoreInt64(&m.maxConcurrent, int64(n))
}

// Acquire marks one agent slot as in use. Callers must call the returned
// release func exactly once.
func (m *Manager) Acquire() (release func()) {
	atomic.AddInt64(&m.inFlight, 1)
	return func() { atomic.AddInt64(&m.inFlight, -1) }
}

// CanSpawnAgent is a non-blocking check: would spawning one more agent
// right now exceed MaxConcurrent? It has no side effects.
func (m *Manager) CanSpawnAgent() bool {
	return atomic.LoadInt64(&m.inFlight) < atomic.LoadInt64(&m.maxConcurrent)
}

// ComputeWaveSize applies the memory-pressure thresholds from spec.md
// §4.1: base = MaxConcurrent(); above 80% utilization halve it (floor 1),
// above 60% cut it by a quarter (floor 1), otherwise return base.
func (m *Manager) ComputeWaveSize(useMemoryBudgets bool) int {
	base := m.MaxConcurrent()
	if !useMemoryBudgets || m.metrics == nil {
		return base
	}

	utilization, ok := m.metrics.TaskBudgetUtilization()
	if !ok {
		return base
	}

	switch {
	case utilization > highUtilizationThreshold:
		return maxInt(1, int(float64(base)*highUtilizationFactor))
	case utilization > moderateUtilizationThreshold:
		return maxInt(1, int(float64(base)*moderateUtilizationFactor))
	default:
		return base
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
