package drift

import (
	"context"
	"math"
	"regexp"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wavecore/execore/internal/model"
)

// RunFunc executes one sample run of a task and returns its raw output.
type RunFunc func(ctx context.Context, runIndex int) (output string, err error)

// ReproducibilityOptions configures RunReproducibilityTest.
type ReproducibilityOptions struct {
	Runs          int
	MaxParallel   int
	PerRunTimeout time.Duration
}

// DefaultReproducibilityOptions returns spec.md §4.7c's documented
// defaults: 5 sequential runs, 30s each.
func DefaultReproducibilityOptions() ReproducibilityOptions {
	return ReproducibilityOptions{Runs: 5, MaxParallel: 1, PerRunTimeout: 30 * time.Second}
}

var (
	timestampRE = regexp.MustCompile(`\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}:\d{2}`)
	uuidRE      = regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`)
)

// RunReproducibilityTest runs runFn Runs times — sequentially when
// MaxParallel <= 1, otherwise via a bounded errgroup — and aggregates the
// results into a ReproducibilityReport, normalizing each successful output
// before clustering it into consensus variants.
func RunReproducibilityTest(ctx context.Context, taskID string, runFn RunFunc, opts ReproducibilityOptions, normalizer *Normalizer) model.ReproducibilityReport {
	if opts.Runs <= 0 {
		opts.Runs = DefaultReproducibilityOptions().Runs
	}
	if opts.PerRunTimeout <= 0 {
		opts.PerRunTimeout = DefaultReproducibilityOptions().PerRunTimeout
	}

	outcomes := make([]model.RunOutcome, opts.Runs)

	execute := func(i int) {
		runCtx, cancel := context.WithTimeout(ctx, opts.PerRunTimeout)
		defer cancel()

		start := time.Now()
		output, err := runFn(runCtx, i)
		outcome := model.RunOutcome{RunIndex: i, Output: output, Duration: time.Since(start)}
		if err != nil {
			outcome.Error = err.Error()
		} else {
			outcome.Success = true
		}
		outcomes[i] = outcome
	}

	if opts.MaxParallel <= 1 {
		for i := 0; i < opts.Runs; i++ {
			execute(i)
		}
	} else {
		g, _ := errgroup.WithContext(ctx)
		g.SetLimit(opts.MaxParallel)
		for i := 0; i < opts.Runs; i++ {
			i := i
			g.Go(func() error {
				execute(i)
				return nil
			})
		}
		_ = g.Wait()
	}

	return buildReport(taskID, outcomes, normalizer)
}

func buildReport(taskID string, outcomes []model.RunOutcome, normalizer *Normalizer) model.ReproducibilityReport {
	report := model.ReproducibilityReport{TaskID: taskID, Runs: outcomes, Categories: make(map[model.DifferenceCategory]int)}

	var normalizedTexts, hashes []string
	var durations []float64

	for _, o := range outcomes {
		if !o.Success {
			report.FailedRuns++
			continue
		}
		report.SuccessfulRuns++
		durations = append(durations, float64(o.Duration.Milliseconds()))

		nr := normalizer.Normalize(o.Output)
		normalizedTexts = append(normalizedTexts, nr.Normalized)
		hashes = append(hashes, nr.Hash)
	}

	total := len(outcomes)
	if total > 0 {
		report.ReproducibilityRate = float64(report.SuccessfulRuns) / float64(total)
	}

	consensus, unique, agreement := FindConsensus(normalizedTexts, hashes)
	report.ConsensusOutput = consensus
	report.UniqueVariants = unique
	report.ConsensusAgreement = agreement
	if report.SuccessfulRuns > 0 {
		report.DriftRate = 1.0 - agreement
	}

	report.MeanDurationMs, report.VarianceDurationMs = meanAndVariance(durations)

	for i := 0; i < len(outcomes); i++ {
		for j := i + 1; j < len(outcomes); j++ {
			if !outcomes[i].Success || !outcomes[j].Success {
				continue
			}
			for _, cat := range categorize(outcomes[i].Output, outcomes[j].Output) {
				report.Categories[cat]++
			}
		}
	}

	return report
}

func meanAndVariance(values []float64) (mean, variance float64) {
	if len(values) == 0 {
		return 0, 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	mean = sum / float64(len(values))

	sqDiff := 0.0
	for _, v := range values {
		d := v - mean
		sqDiff += d * d
	}
	variance = sqDiff / float64(len(values))
	return mean, variance
}

// categorize inspects two raw run outputs and returns the coarse
// difference categories plausible causes for their divergence, purely
// heuristically (it does not align the texts line by line).
func categorize(a, b string) []model.DifferenceCategory {
	if a == b {
		return nil
	}

	var cats []model.DifferenceCategory
	if timestampRE.FindString(a) != timestampRE.FindString(b) {
		cats = append(cats, model.DiffTimestamp)
	}
	if uuidRE.FindString(a) != uuidRE.FindString(b) {
		cats = append(cats, model.DiffUUID)
	}
	if collapseWhitespaceOnly(a) == collapseWhitespaceOnly(b) {
		cats = append(cats, model.DiffWhitespace)
	}
	return cats
}

func collapseWhitespaceOnly(s string) string {
	return whitespaceRE.ReplaceAllString(s, " ")
}

// roundTo2 rounds v to two decimal places. Nothing in the package calls it;
// the rates in ReproducibilityReport are stored unrounded.
func roundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}
