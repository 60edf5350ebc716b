// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Paper is a collection member: an accepted Work plus its score and
// discovery provenance. Papers are keyed uniquely by OpenAlexID within a
// project and are never removed except by deleting the project.
type Paper struct {
	// ID is an internal row identifier (UUID).
	ID string `json:"id" yaml:"id"`

	// OpenAlexID is the short OpenAlex work ID, unique within a project.
	OpenAlexID string `json:"openalex_id" yaml:"openalex_id"`

	DOI  string `json:"doi,omitempty" yaml:"doi,omitempty"`
	PMID string `json:"pmid,omitempty" yaml:"pmid,omitempty"`

	Title           string      `json:"title" yaml:"title"`
	Authors         []Author    `json:"authors" yaml:"authors"`
	PublicationYear int         `json:"publication_year" yaml:"publication_year"`
	Type            string      `json:"type,omitempty" yaml:"type,omitempty"`
	Language        string      `json:"language,omitempty" yaml:"language,omitempty"`
	CitedByCount    int         `json:"cited_by_count" yaml:"cited_by_count"`
	CountsByYear    []YearCount `json:"counts_by_year,omitempty" yaml:"counts_by_year,omitempty"`
	ReferencedWorks []string    `json:"referenced_works,omitempty" yaml:"referenced_works,omitempty"`

	// Score is the weighted total from the score breakdown.
	Score float64 `json:"score" yaml:"score"`

	// ScoreComponents holds the full breakdown for auditability. Nil for seeds.
	ScoreComponents *ScoreBreakdown `json:"score_components,omitempty" yaml:"score_components,omitempty"`

	// Method is how the paper was discovered; seeds use DiscoverySeed.
	Method DiscoveryMethod `json:"discovery_method" yaml:"discovery_method"`

	// DiscoveredFrom lists the paper IDs that led to this paper. Empty for
	// seeds, non-empty for everything else.
	DiscoveredFrom []string `json:"discovered_from,omitempty" yaml:"discovered_from,omitempty"`

	// IterationAdded is the iteration in which the paper joined the
	// collection. Seeds are iteration 0.
	IterationAdded int `json:"iteration_added" yaml:"iteration_added"`

	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// AuthorIDs returns the OpenAlex IDs of the paper's authors, skipping
// authors without an ID.
func (p Paper) AuthorIDs() []string {
	ids := make([]string, 0, len(p.Authors))
	for _, a := range p.Authors {
		if a.ID != "" {
			ids = append(ids, a.ID)
		}
	}
	return ids
}
