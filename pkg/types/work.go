// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the snowball pipeline:
// works and candidates flowing through expansion, scoring breakdowns,
// iteration records, and the project configuration surface.
package types

// Author identifies a work author by OpenAlex author ID and display name.
type Author struct {
	// ID is the short OpenAlex author ID (e.g. "A5023888391").
	ID string `json:"id" yaml:"id"`

	// Name is the author display name.
	Name string `json:"name" yaml:"name"`
}

// YearCount holds the citation count a work received in a single year.
// OpenAlex returns these sparse and most-recent-first.
type YearCount struct {
	Year         int `json:"year" yaml:"year"`
	CitedByCount int `json:"cited_by_count" yaml:"cited_by_count"`
}

// Work is an immutable external record fetched from the citation graph.
// A Work is created on first successful fetch and never mutated; re-fetches
// produce a new value.
type Work struct {
	// ID is the short OpenAlex work ID (e.g. "W2741809807").
	ID string `json:"id" yaml:"id"`

	// DOI is the bare DOI without the https://doi.org/ prefix, if known.
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// PMID is the PubMed identifier, if known.
	PMID string `json:"pmid,omitempty" yaml:"pmid,omitempty"`

	// Title is the work title.
	Title string `json:"title" yaml:"title"`

	// Authors lists the authors in source order.
	Authors []Author `json:"authors" yaml:"authors"`

	// PublicationYear is the year of publication, 0 if unknown.
	PublicationYear int `json:"publication_year" yaml:"publication_year"`

	// CitedByCount is the total citation count.
	CitedByCount int `json:"cited_by_count" yaml:"cited_by_count"`

	// CountsByYear holds per-year citation counts, sparse and recent-first.
	CountsByYear []YearCount `json:"counts_by_year,omitempty" yaml:"counts_by_year,omitempty"`

	// ReferencedWorks lists the short OpenAlex IDs this work cites.
	ReferencedWorks []string `json:"referenced_works,omitempty" yaml:"referenced_works,omitempty"`

	// Type is the document type (e.g. "journal-article", "preprint").
	Type string `json:"type,omitempty" yaml:"type,omitempty"`

	// Language is the ISO 639-1 language code, empty if unknown.
	Language string `json:"language,omitempty" yaml:"language,omitempty"`

	// IsRetracted marks a retracted work.
	IsRetracted bool `json:"is_retracted,omitempty" yaml:"is_retracted,omitempty"`
}

// AuthorIDs returns the OpenAlex IDs of the work's authors, skipping
// authors without an ID.
func (w Work) AuthorIDs() []string {
	ids := make([]string, 0, len(w.Authors))
	for _, a := range w.Authors {
		if a.ID != "" {
			ids = append(ids, a.ID)
		}
	}
	return ids
}

// DiscoveryMethod records how a paper entered the collection.
type DiscoveryMethod string

const (
	// DiscoverySeed marks an initial paper supplied by the user.
	DiscoverySeed DiscoveryMethod = "seed"

	// DiscoveryForward marks a paper found because it cites a working-set paper.
	DiscoveryForward DiscoveryMethod = "forward"

	// DiscoveryBackward marks a paper found in a working-set paper's reference list.
	DiscoveryBackward DiscoveryMethod = "backward"

	// DiscoveryAuthor marks a paper found through a working-set paper's authors.
	DiscoveryAuthor DiscoveryMethod = "author"
)

// Candidate is a Work plus per-iteration discovery provenance. Candidates
// exist only during an iteration; accepted candidates are converted to
// Papers and persisted, the rest are discarded.
type Candidate struct {
	Work Work

	// Method is how the candidate was discovered. When the same work is
	// found by multiple methods in one iteration, backward wins over
	// forward, which wins over author.
	Method DiscoveryMethod

	// Sources is the sorted union of working-set paper IDs that led to
	// this candidate, across all methods that found it.
	Sources []string

	// Iteration is the iteration number in which the candidate was found.
	Iteration int
}
