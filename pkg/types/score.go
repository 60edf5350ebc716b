// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ScoreBreakdown holds the five normalized scoring components and the
// weighted total. A breakdown is immutable once computed: recomputing with
// identical candidate, context, and weights yields a bit-identical value.
type ScoreBreakdown struct {
	// CitationVelocity is citations per year of age, min-max normalized
	// against the candidate batch.
	CitationVelocity float64 `json:"citation_velocity" yaml:"citation_velocity"`

	// RecentCitations is the citation count over the three most recent
	// years, min-max normalized against the candidate batch.
	RecentCitations float64 `json:"recent_citations" yaml:"recent_citations"`

	// Foundational is the fraction of seed papers whose reference lists
	// contain this work.
	Foundational float64 `json:"foundational" yaml:"foundational"`

	// AuthorOverlap is the fraction of this work's authors that also
	// authored a seed paper.
	AuthorOverlap float64 `json:"author_overlap" yaml:"author_overlap"`

	// Recency decays linearly from 1.0 at age zero to 0.0 at age ten years.
	Recency float64 `json:"recency" yaml:"recency"`

	// Total is the weighted sum of the five components.
	Total float64 `json:"total" yaml:"total"`
}

// ScoringWeights weights the five scoring components. Weights need not sum
// to 1; when they do, totals stay in [0, 1].
type ScoringWeights struct {
	CitationVelocity float64 `json:"citation_velocity" yaml:"citation_velocity" mapstructure:"citation_velocity"`
	RecentCitations  float64 `json:"recent_citations" yaml:"recent_citations" mapstructure:"recent_citations"`
	Foundational     float64 `json:"foundational" yaml:"foundational" mapstructure:"foundational"`
	AuthorOverlap    float64 `json:"author_overlap" yaml:"author_overlap" mapstructure:"author_overlap"`
	Recency          float64 `json:"recency" yaml:"recency" mapstructure:"recency"`
}

// DefaultWeights returns the standard component weighting.
func DefaultWeights() ScoringWeights {
	return ScoringWeights{
		CitationVelocity: 0.25,
		RecentCitations:  0.20,
		Foundational:     0.25,
		AuthorOverlap:    0.15,
		Recency:          0.15,
	}
}
