// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// IterationMetrics summarizes one expansion round. Metrics are computed
// relative to a single prior state, which is why iterations never overlap.
type IterationMetrics struct {
	IterationNumber int `json:"iteration_number" yaml:"iteration_number"`

	// PapersBefore and PapersAfter are the collection sizes at the
	// iteration boundary.
	PapersBefore int `json:"papers_before" yaml:"papers_before"`
	PapersAfter  int `json:"papers_after" yaml:"papers_after"`

	// NewPapers is the number of candidates accepted this round.
	NewPapers int `json:"new_papers" yaml:"new_papers"`

	// CandidatesConsidered is the post-merge, pre-filter candidate count;
	// the novelty-rate denominator.
	CandidatesConsidered int `json:"candidates_considered" yaml:"candidates_considered"`

	// GrowthRate is NewPapers / PapersBefore.
	GrowthRate float64 `json:"growth_rate" yaml:"growth_rate"`

	// NoveltyRate is NewPapers / CandidatesConsidered.
	NoveltyRate float64 `json:"novelty_rate" yaml:"novelty_rate"`

	// Per-method discovery counts for the merged candidate set.
	ForwardFound  int `json:"forward_found" yaml:"forward_found"`
	BackwardFound int `json:"backward_found" yaml:"backward_found"`
	AuthorFound   int `json:"author_found" yaml:"author_found"`

	// Skipped counts candidates dropped because their fetches failed
	// after retries or resolved to nothing.
	Skipped int `json:"skipped,omitempty" yaml:"skipped,omitempty"`
}

// SaturationResult is the outcome of the ordered saturation check.
type SaturationResult struct {
	IsSaturated bool `json:"is_saturated" yaml:"is_saturated"`

	// Reason names the first condition that matched, empty when none did.
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`

	// Confidence is 1.0 for hard conditions and the observed rate for
	// threshold conditions.
	Confidence float64 `json:"confidence" yaml:"confidence"`
}

// IterationRecord is the persisted record of one completed iteration. It
// commits in the same transaction as the papers it accepted.
type IterationRecord struct {
	// ID is an internal row identifier (UUID).
	ID string `json:"id" yaml:"id"`

	// ProjectID scopes the record.
	ProjectID string `json:"project_id" yaml:"project_id"`

	StartedAt   time.Time `json:"started_at" yaml:"started_at"`
	CompletedAt time.Time `json:"completed_at" yaml:"completed_at"`

	Metrics IterationMetrics `json:"metrics" yaml:"metrics"`

	Saturation SaturationResult `json:"saturation" yaml:"saturation"`
}
