// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"strings"
)

// IterationMode controls how the engine decides between iterations.
type IterationMode string

const (
	// ModeAutomatic stops as soon as any saturation condition fires.
	ModeAutomatic IterationMode = "automatic"

	// ModeSemiAutomatic surfaces saturation decisions for confirmation and
	// halts only when the user confirms.
	ModeSemiAutomatic IterationMode = "semi-automatic"

	// ModeManual asks the user after every iteration regardless of saturation.
	ModeManual IterationMode = "manual"

	// ModeFixed runs exactly MaxIterations rounds, ignoring the growth,
	// novelty, and collection-size conditions. An iteration that adds no
	// new papers still halts, since there is nothing left to expand.
	ModeFixed IterationMode = "fixed"
)

// ProjectConfig holds the user-configurable settings consumed by the engine.
type ProjectConfig struct {
	// Weights controls the scoring component weighting.
	Weights ScoringWeights `json:"weights" yaml:"weights" mapstructure:"weights"`

	// MinYear and MaxYear bound accepted publication years. Zero means
	// unbounded on that end.
	MinYear int `json:"min_year,omitempty" yaml:"min_year,omitempty" mapstructure:"min_year"`
	MaxYear int `json:"max_year,omitempty" yaml:"max_year,omitempty" mapstructure:"max_year"`

	// MinCitations is the minimum citation count for inclusion.
	MinCitations int `json:"min_citations" yaml:"min_citations" mapstructure:"min_citations"`

	// IncludePreprints admits preprints and posted content.
	IncludePreprints bool `json:"include_preprints" yaml:"include_preprints" mapstructure:"include_preprints"`

	// Languages is the accepted language allow-list (ISO 639-1 codes).
	// Works with no language tag are always admitted.
	Languages []string `json:"languages" yaml:"languages" mapstructure:"languages"`

	// IterationMode selects how the engine decides to continue or stop.
	IterationMode IterationMode `json:"iteration_mode" yaml:"iteration_mode" mapstructure:"iteration_mode"`

	// MaxIterations caps the number of expansion rounds.
	MaxIterations int `json:"max_iterations" yaml:"max_iterations" mapstructure:"max_iterations"`

	// MaxPapers caps the collection size.
	MaxPapers int `json:"max_papers" yaml:"max_papers" mapstructure:"max_papers"`

	// PapersPerIteration is the number of top-scored candidates accepted
	// each round.
	PapersPerIteration int `json:"papers_per_iteration" yaml:"papers_per_iteration" mapstructure:"papers_per_iteration"`

	// GrowthThreshold stops expansion when new papers divided by the prior
	// collection size falls below it.
	GrowthThreshold float64 `json:"growth_threshold" yaml:"growth_threshold" mapstructure:"growth_threshold"`

	// NoveltyThreshold stops expansion when new papers divided by the
	// candidates considered falls below it.
	NoveltyThreshold float64 `json:"novelty_threshold" yaml:"novelty_threshold" mapstructure:"novelty_threshold"`
}

// DefaultConfig returns a ProjectConfig with the standard defaults.
func DefaultConfig() ProjectConfig {
	return ProjectConfig{
		Weights:            DefaultWeights(),
		MinCitations:       0,
		IncludePreprints:   true,
		Languages:          []string{"en"},
		IterationMode:      ModeSemiAutomatic,
		MaxIterations:      5,
		MaxPapers:          500,
		PapersPerIteration: 50,
		GrowthThreshold:    0.05,
		NoveltyThreshold:   0.10,
	}
}

// Validate checks the configuration before the first iteration. It returns
// an error describing every problem found, so a bad config never surfaces
// mid-run.
func (c ProjectConfig) Validate() error {
	var problems []string

	for name, w := range map[string]float64{
		"citation_velocity": c.Weights.CitationVelocity,
		"recent_citations":  c.Weights.RecentCitations,
		"foundational":      c.Weights.Foundational,
		"author_overlap":    c.Weights.AuthorOverlap,
		"recency":           c.Weights.Recency,
	} {
		if w < 0 || w > 1 {
			problems = append(problems, fmt.Sprintf("weight %s = %g out of range [0, 1]", name, w))
		}
	}

	if c.MinYear != 0 && c.MaxYear != 0 && c.MinYear > c.MaxYear {
		problems = append(problems, fmt.Sprintf("min_year %d > max_year %d", c.MinYear, c.MaxYear))
	}
	if c.MinCitations < 0 {
		problems = append(problems, fmt.Sprintf("min_citations %d is negative", c.MinCitations))
	}

	switch c.IterationMode {
	case ModeAutomatic, ModeSemiAutomatic, ModeManual, ModeFixed:
	default:
		problems = append(problems, fmt.Sprintf("unknown iteration_mode %q", c.IterationMode))
	}

	if c.MaxIterations < 1 {
		problems = append(problems, fmt.Sprintf("max_iterations %d must be at least 1", c.MaxIterations))
	}
	if c.MaxPapers < 1 {
		problems = append(problems, fmt.Sprintf("max_papers %d must be at least 1", c.MaxPapers))
	}
	if c.PapersPerIteration < 1 {
		problems = append(problems, fmt.Sprintf("papers_per_iteration %d must be at least 1", c.PapersPerIteration))
	}
	if c.GrowthThreshold < 0 || c.GrowthThreshold > 1 {
		problems = append(problems, fmt.Sprintf("growth_threshold %g out of range [0, 1]", c.GrowthThreshold))
	}
	if c.NoveltyThreshold < 0 || c.NoveltyThreshold > 1 {
		problems = append(problems, fmt.Sprintf("novelty_threshold %g out of range [0, 1]", c.NoveltyThreshold))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%s", strings.Join(problems, "; "))
	}
	return nil
}
