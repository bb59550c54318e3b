package drift

import (
	"sync"
	"time"

	"github.com/wavecore/execore/internal/clockutil"
	"github.com/wavecore/execore/internal/model"
)

// cacheEntry pairs a measurement with its expiry time.
type cacheEntry struct {
	measurement model.DriftMeasurement
	expiresAt   time.Time
}

// Detector rolls a ReproducibilityReport up into a DriftMeasurement,
// classifying determinism against configurable thresholds and caching
// results per task id for a bounded TTL so repeated queries against the
// same report don't re-derive the verdict.
type Detector struct {
	Thresholds model.DriftThresholds
	Clock      clockutil.Clock
	TTL        time.Duration

	mu    sync.Mutex
	cache map[string]cacheEntry
}

// NewDetector builds a Detector with the given thresholds. TTL defaults
// to 5 minutes when zero.
func NewDetector(thresholds model.DriftThresholds, clock clockutil.Clock, ttl time.Duration) *Detector {
	if clock == nil {
		clock = clockutil.Real{}
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Detector{Thresholds: thresholds, Clock: clock, TTL: ttl, cache: make(map[string]cacheEntry)}
}

// DefaultDriftThresholds returns spec.md §4.7d's documented default: at
// most 5% drift rate is still considered deterministic.
func DefaultDriftThresholds() model.DriftThresholds {
	return model.DriftThresholds{MaxDriftRate: 0.05}
}

// Measure returns the cached DriftMeasurement for report.TaskID if still
// fresh, otherwise computes, caches, and returns a new one.
func (d *Detector) Measure(report model.ReproducibilityReport) model.DriftMeasurement {
	d.mu.Lock()
	if entry, ok := d.cache[report.TaskID]; ok && d.Clock.Now().Before(entry.expiresAt) {
		d.mu.Unlock()
		return entry.measurement
	}
	d.mu.Unlock()

	measurement := d.compute(report)

	d.mu.Lock()
	d.cache[report.TaskID] = cacheEntry{measurement: measurement, expiresAt: d.Clock.Now().Add(d.TTL)}
	d.mu.Unlock()

	return measurement
}

func (d *Detector) compute(report model.ReproducibilityReport) model.DriftMeasurement {
	deterministic, confidence := d.validateDeterminism(report)

	return model.DriftMeasurement{
		TaskID:          report.TaskID,
		Runs:            len(report.Runs),
		DriftRate:       report.DriftRate,
		UniqueVariants:  report.UniqueVariants,
		IsDeterministic: deterministic,
		Confidence:      confidence,
		Analysis: model.DriftAnalysis{
			DriftSources:       driftSources(report),
			Recommendations:    recommendations(report, deterministic),
			ConsensusOutput:    report.ConsensusOutput,
			ConsensusAgreement: report.ConsensusAgreement,
		},
	}
}

// validateDeterminism classifies a report as deterministic when its drift
// rate is at or below the configured threshold AND at least one run
// succeeded; confidence scales with both sample size and how far the
// drift rate sits from the threshold.
func (d *Detector) validateDeterminism(report model.ReproducibilityReport) (deterministic bool, confidence float64) {
	if report.SuccessfulRuns == 0 {
		return false, 0
	}

	deterministic = report.DriftRate <= d.Thresholds.MaxDriftRate

	sampleConfidence := float64(report.SuccessfulRuns) / float64(report.SuccessfulRuns+2)

	var margin float64
	if deterministic {
		margin = d.Thresholds.MaxDriftRate - report.DriftRate
	} else {
		margin = report.DriftRate - d.Thresholds.MaxDriftRate
	}
	marginConfidence := clamp01(0.5 + margin*5)

	confidence = clamp01(sampleConfidence * marginConfidence)
	return deterministic, confidence
}

func driftSources(report model.ReproducibilityReport) []string {
	var sources []string
	for cat, count := range report.Categories {
		if count > 0 {
			sources = append(sources, string(cat))
		}
	}
	return sources
}

func recommendations(report model.ReproducibilityReport, deterministic bool) []string {
	if deterministic {
		return nil
	}
	var recs []string
	if report.Categories[model.DiffTimestamp] > 0 {
		recs = append(recs, "normalize or strip timestamps before comparing outputs")
	}
	if report.Categories[model.DiffUUID] > 0 {
		recs = append(recs, "normalize or strip generated identifiers before comparing outputs")
	}
	if report.Categories[model.DiffWhitespace] > 0 {
		recs = append(recs, "formatting differences only; consider a stricter normalizer pass")
	}
	if len(recs) == 0 {
		recs = append(recs, "content varies across runs; review the underlying generator for nondeterministic choices")
	}
	return recs
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
