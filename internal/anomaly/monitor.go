// Package anomaly watches a wave's task results as they land and flags
// consecutive-failure streaks and elevated error rates.
//
// Grounded in the teacher's internal/executor/anomaly_monitor.go, trimmed
// to the two detectors that map onto model.TaskResult (the teacher's
// duration-outlier check depends on a per-task time estimate this system
// doesn't track, so it's dropped rather than faked).
package anomaly

import (
	"fmt"

	"github.com/wavecore/execore/internal/model"
)

// Severity levels for a detected anomaly.
const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// Anomaly describes one detected pattern in a wave's results.
type Anomaly struct {
	Type        string
	Description string
	Severity    string
	TaskID      string
	WaveNumber  int
}

// Config tunes the monitor's thresholds.
type Config struct {
	ConsecutiveFailureThreshold int
	ErrorRateThreshold          float64
}

// DefaultConfig returns the teacher's documented defaults.
func DefaultConfig() Config {
	return Config{ConsecutiveFailureThreshold: 3, ErrorRateThreshold: 0.5}
}

// Monitor accumulates task results for one wave and reports anomalies as
// they emerge.
type Monitor struct {
	config              Config
	waveNumber          int
	consecutiveFailures int
	totalTasks          int
	failedTasks         int
}

// New creates a Monitor for waveNumber using DefaultConfig.
func New(waveNumber int) *Monitor {
	return &Monitor{config: DefaultConfig(), waveNumber: waveNumber}
}

// NewWithConfig creates a Monitor with custom thresholds.
func NewWithConfig(waveNumber int, cfg Config) *Monitor {
	return &Monitor{config: cfg, waveNumber: waveNumber}
}

// RecordResult folds one task's result into the running tallies and
// returns any anomalies it triggers.
func (m *Monitor) RecordResult(result model.TaskResult) []Anomaly {
	m.totalTasks++

	var found []Anomaly

	if !result.Success {
		m.consecutiveFailures++
		m.failedTasks++

		if m.consecutiveFailures >= m.config.ConsecutiveFailureThreshold {
			found = append(found, Anomaly{
				Type:        "consecutive_failures",
				Description: fmt.Sprintf("%d consecutive task failures detected", m.consecutiveFailures),
				Severity:    m.consecutiveFailureSeverity(),
				TaskID:      result.ID,
				WaveNumber:  m.waveNumber,
			})
		}

		errorRate := float64(m.failedTasks) / float64(m.totalTasks)
		if m.totalTasks >= 3 && errorRate >= m.config.ErrorRateThreshold {
			found = append(found, Anomaly{
				Type:        "high_error_rate",
				Description: fmt.Sprintf("%.0f%% error rate in wave (%.0f%% threshold)", errorRate*100, m.config.ErrorRateThreshold*100),
				Severity:    m.errorRateSeverity(errorRate),
				TaskID:      result.ID,
				WaveNumber:  m.waveNumber,
			})
		}
	} else {
		m.consecutiveFailures = 0
	}

	return found
}

func (m *Monitor) consecutiveFailureSeverity() string {
	switch {
	case m.consecutiveFailures >= m.config.ConsecutiveFailureThreshold*2:
		return SeverityHigh
	case m.consecutiveFailures >= m.config.ConsecutiveFailureThreshold:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

func (m *Monitor) errorRateSeverity(rate float64) string {
	switch {
	case rate >= 0.8:
		return SeverityHigh
	case rate >= m.config.ErrorRateThreshold:
		return SeverityMedium
	default:
		return SeverityLow
	}
}
