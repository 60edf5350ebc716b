// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package snowball

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pdiddy/snowball/pkg/types"
)

// healthyMetrics returns metrics that trip no condition under the default
// configuration.
func healthyMetrics() types.IterationMetrics {
	return types.IterationMetrics{
		IterationNumber:      1,
		PapersBefore:         100,
		PapersAfter:          120,
		NewPapers:            20,
		CandidatesConsidered: 100,
		GrowthRate:           0.20,
		NoveltyRate:          0.20,
	}
}

func TestDetectorCheck(t *testing.T) {
	cfg := types.DefaultConfig()

	tests := []struct {
		name           string
		modify         func(m *types.IterationMetrics)
		wantSaturated  bool
		wantReason     string
		wantConfidence float64
	}{
		{
			name:          "healthy iteration",
			modify:        func(m *types.IterationMetrics) {},
			wantSaturated: false,
		},
		{
			name: "no new papers",
			modify: func(m *types.IterationMetrics) {
				m.NewPapers = 0
				m.PapersAfter = m.PapersBefore
			},
			wantSaturated:  true,
			wantReason:     ReasonNoNewPapers,
			wantConfidence: 1.0,
		},
		{
			name: "max iterations reached",
			modify: func(m *types.IterationMetrics) {
				m.IterationNumber = cfg.MaxIterations
			},
			wantSaturated:  true,
			wantReason:     ReasonMaxIterations,
			wantConfidence: 1.0,
		},
		{
			name: "growth below threshold",
			modify: func(m *types.IterationMetrics) {
				m.GrowthRate = 0.01
			},
			wantSaturated:  true,
			wantReason:     ReasonLowGrowth,
			wantConfidence: 0.01,
		},
		{
			name: "novelty below threshold",
			modify: func(m *types.IterationMetrics) {
				m.NoveltyRate = 0.05
			},
			wantSaturated:  true,
			wantReason:     ReasonLowNovelty,
			wantConfidence: 0.05,
		},
		{
			name: "max papers reached",
			modify: func(m *types.IterationMetrics) {
				m.PapersAfter = cfg.MaxPapers
			},
			wantSaturated:  true,
			wantReason:     ReasonMaxPapers,
			wantConfidence: 1.0,
		},
		{
			name: "growth exactly at threshold does not fire",
			modify: func(m *types.IterationMetrics) {
				m.GrowthRate = cfg.GrowthThreshold
			},
			wantSaturated: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := healthyMetrics()
			tt.modify(&m)
			res := NewDetector(cfg).Check(m)

			assert.Equal(t, tt.wantSaturated, res.IsSaturated)
			assert.Equal(t, tt.wantReason, res.Reason)
			if tt.wantSaturated {
				assert.Equal(t, tt.wantConfidence, res.Confidence)
			}
		})
	}
}

// An empty iteration also has zero growth and novelty; the no-new-papers
// condition is checked first and must win.
func TestDetectorConditionOrdering(t *testing.T) {
	m := healthyMetrics()
	m.NewPapers = 0
	m.GrowthRate = 0
	m.NoveltyRate = 0
	m.PapersAfter = 600

	res := NewDetector(types.DefaultConfig()).Check(m)
	assert.True(t, res.IsSaturated)
	assert.Equal(t, ReasonNoNewPapers, res.Reason)
	assert.Equal(t, 1.0, res.Confidence)
}

func TestDetectorCheckHardIgnoresThresholds(t *testing.T) {
	cfg := types.DefaultConfig()
	d := NewDetector(cfg)

	m := healthyMetrics()
	m.GrowthRate = 0.001
	m.NoveltyRate = 0.001
	m.PapersAfter = cfg.MaxPapers + 100

	res := d.CheckHard(m)
	assert.False(t, res.IsSaturated, "threshold conditions must not stop a fixed run")

	m.NewPapers = 0
	res = d.CheckHard(m)
	assert.True(t, res.IsSaturated)
	assert.Equal(t, ReasonNoNewPapers, res.Reason)

	m = healthyMetrics()
	m.IterationNumber = cfg.MaxIterations
	res = d.CheckHard(m)
	assert.True(t, res.IsSaturated)
	assert.Equal(t, ReasonMaxIterations, res.Reason)
}

func TestTrackerGrowthTrend(t *testing.T) {
	tests := []struct {
		name  string
		rates []float64
		want  string
	}{
		{name: "no history", rates: nil, want: "unknown"},
		{name: "single iteration", rates: []float64{0.5}, want: "unknown"},
		{name: "slowing down", rates: []float64{0.5, 0.2}, want: "decreasing"},
		{name: "speeding up", rates: []float64{0.1, 0.3}, want: "increasing"},
		{name: "flat", rates: []float64{0.2, 0.205}, want: "stable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracker := NewTracker()
			for i, r := range tt.rates {
				tracker.Record(types.IterationMetrics{IterationNumber: i + 1, GrowthRate: r})
			}
			assert.Equal(t, tt.want, tracker.GrowthTrend())
		})
	}
}

func TestTrackerProgress(t *testing.T) {
	cfg := types.DefaultConfig() // 5 iterations, 500 papers

	tracker := NewTracker()
	assert.Equal(t, 0.0, tracker.Progress(cfg))

	tracker.Record(types.IterationMetrics{IterationNumber: 1, PapersAfter: 50})
	assert.InDelta(t, 0.2, tracker.Progress(cfg), 1e-9, "iteration fraction dominates")

	tracker.Record(types.IterationMetrics{IterationNumber: 2, PapersAfter: 450})
	assert.InDelta(t, 0.9, tracker.Progress(cfg), 1e-9, "size fraction dominates")

	tracker.Record(types.IterationMetrics{IterationNumber: 3, PapersAfter: 700})
	assert.Equal(t, 1.0, tracker.Progress(cfg), "capped at 1")
}
