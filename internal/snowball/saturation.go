// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package snowball

import (
	"github.com/pdiddy/snowball/pkg/types"
)

// Saturation reasons reported by the Detector.
const (
	ReasonNoNewPapers   = "no new papers"
	ReasonMaxIterations = "max iterations reached"
	ReasonLowGrowth     = "growth below threshold"
	ReasonLowNovelty    = "novelty below threshold"
	ReasonMaxPapers     = "max papers reached"
)

// saturationCondition is one halting check. A condition either fires with a
// confidence or passes.
type saturationCondition struct {
	name string
	hard bool
	eval func(m types.IterationMetrics, cfg types.ProjectConfig) (bool, float64)
}

// conditions are evaluated in order; the first that fires wins. The hard
// conditions are the only ones a fixed-count run respects.
var conditions = []saturationCondition{
	{
		name: ReasonNoNewPapers,
		hard: true,
		eval: func(m types.IterationMetrics, _ types.ProjectConfig) (bool, float64) {
			return m.NewPapers == 0, 1.0
		},
	},
	{
		name: ReasonMaxIterations,
		hard: true,
		eval: func(m types.IterationMetrics, cfg types.ProjectConfig) (bool, float64) {
			return m.IterationNumber >= cfg.MaxIterations, 1.0
		},
	},
	{
		name: ReasonLowGrowth,
		eval: func(m types.IterationMetrics, cfg types.ProjectConfig) (bool, float64) {
			return m.GrowthRate < cfg.GrowthThreshold, m.GrowthRate
		},
	},
	{
		name: ReasonLowNovelty,
		eval: func(m types.IterationMetrics, cfg types.ProjectConfig) (bool, float64) {
			return m.NoveltyRate < cfg.NoveltyThreshold, m.NoveltyRate
		},
	},
	{
		name: ReasonMaxPapers,
		eval: func(m types.IterationMetrics, cfg types.ProjectConfig) (bool, float64) {
			return m.PapersAfter >= cfg.MaxPapers, 1.0
		},
	},
}

// Detector decides whether an expansion run has saturated. Evaluation is
// stateless: the decision follows from one iteration's metrics and the
// project configuration alone.
type Detector struct {
	cfg types.ProjectConfig
}

// NewDetector creates a Detector for cfg.
func NewDetector(cfg types.ProjectConfig) Detector {
	return Detector{cfg: cfg}
}

// Check evaluates every halting condition in order and returns the first
// that fires.
func (d Detector) Check(m types.IterationMetrics) types.SaturationResult {
	return d.check(m, false)
}

// CheckHard evaluates only the unconditional halting conditions. Fixed-count
// runs use it so threshold conditions cannot cut a run short.
func (d Detector) CheckHard(m types.IterationMetrics) types.SaturationResult {
	return d.check(m, true)
}

func (d Detector) check(m types.IterationMetrics, hardOnly bool) types.SaturationResult {
	for _, cond := range conditions {
		if hardOnly && !cond.hard {
			continue
		}
		fired, confidence := cond.eval(m, d.cfg)
		if fired {
			return types.SaturationResult{
				IsSaturated: true,
				Reason:      cond.name,
				Confidence:  confidence,
			}
		}
	}
	return types.SaturationResult{}
}

// Tracker accumulates per-iteration metrics across a run and summarizes the
// trajectory for status reporting.
type Tracker struct {
	history []types.IterationMetrics
}

// NewTracker creates an empty Tracker. Seed it with Record for each
// completed iteration when resuming a project.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Record appends one iteration's metrics to the history.
func (t *Tracker) Record(m types.IterationMetrics) {
	t.history = append(t.history, m)
}

// History returns the recorded metrics in iteration order.
func (t *Tracker) History() []types.IterationMetrics {
	return t.history
}

// GrowthTrend classifies the recent growth trajectory as "increasing",
// "decreasing", or "stable". Fewer than two iterations is "unknown".
func (t *Tracker) GrowthTrend() string {
	n := len(t.history)
	if n < 2 {
		return "unknown"
	}
	prev := t.history[n-2].GrowthRate
	last := t.history[n-1].GrowthRate
	switch {
	case last > prev+0.01:
		return "increasing"
	case last < prev-0.01:
		return "decreasing"
	default:
		return "stable"
	}
}

// Progress estimates how close the run is to its configured ceilings, as a
// value in [0, 1]. It is the larger of the iteration fraction and the
// collection-size fraction.
func (t *Tracker) Progress(cfg types.ProjectConfig) float64 {
	if len(t.history) == 0 {
		return 0
	}
	last := t.history[len(t.history)-1]

	var byIteration, bySize float64
	if cfg.MaxIterations > 0 {
		byIteration = float64(last.IterationNumber) / float64(cfg.MaxIterations)
	}
	if cfg.MaxPapers > 0 {
		bySize = float64(last.PapersAfter) / float64(cfg.MaxPapers)
	}

	p := byIteration
	if bySize > p {
		p = bySize
	}
	if p > 1 {
		return 1
	}
	return p
}
