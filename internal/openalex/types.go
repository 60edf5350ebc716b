// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package openalex

import (
	"strings"

	"github.com/pdiddy/snowball/pkg/types"
)

// OpenAlex API JSON structures. Payloads are validated into closed structs
// here, at the client boundary; the engine never sees raw maps.

type worksResponse struct {
	Meta    responseMeta `json:"meta"`
	Results []workJSON   `json:"results"`
}

type responseMeta struct {
	Count      int    `json:"count"`
	Page       int    `json:"page"`
	PerPage    int    `json:"per_page"`
	NextCursor string `json:"next_cursor"`
}

type workJSON struct {
	ID              string           `json:"id"`
	DOI             string           `json:"doi"`
	Title           string           `json:"title"`
	DisplayName     string           `json:"display_name"`
	PublicationYear int              `json:"publication_year"`
	Type            string           `json:"type"`
	Language        string           `json:"language"`
	IsRetracted     bool             `json:"is_retracted"`
	CitedByCount    int              `json:"cited_by_count"`
	CountsByYear    []yearCountJSON  `json:"counts_by_year"`
	ReferencedWorks []string         `json:"referenced_works"`
	Authorships     []authorshipJSON `json:"authorships"`
	IDs             workIDsJSON      `json:"ids"`
}

type yearCountJSON struct {
	Year         int `json:"year"`
	CitedByCount int `json:"cited_by_count"`
}

type authorshipJSON struct {
	Author authorJSON `json:"author"`
}

type authorJSON struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type workIDsJSON struct {
	OpenAlex string `json:"openalex"`
	DOI      string `json:"doi"`
	PMID     string `json:"pmid"`
}

// shortID strips the https://openalex.org/ prefix from an OpenAlex URL ID.
func shortID(id string) string {
	return strings.TrimPrefix(id, "https://openalex.org/")
}

// bareDOI strips the doi.org prefix from a DOI URL.
func bareDOI(doi string) string {
	doi = strings.TrimPrefix(doi, "https://doi.org/")
	return strings.TrimPrefix(doi, "http://doi.org/")
}

// toWork converts a raw OpenAlex payload into the closed Work type.
func (w workJSON) toWork() types.Work {
	title := w.Title
	if title == "" {
		title = w.DisplayName
	}

	authors := make([]types.Author, 0, len(w.Authorships))
	for _, a := range w.Authorships {
		if a.Author.ID == "" && a.Author.DisplayName == "" {
			continue
		}
		authors = append(authors, types.Author{
			ID:   shortID(a.Author.ID),
			Name: a.Author.DisplayName,
		})
	}

	refs := make([]string, 0, len(w.ReferencedWorks))
	for _, r := range w.ReferencedWorks {
		refs = append(refs, shortID(r))
	}

	counts := make([]types.YearCount, 0, len(w.CountsByYear))
	for _, c := range w.CountsByYear {
		counts = append(counts, types.YearCount{Year: c.Year, CitedByCount: c.CitedByCount})
	}

	doi := w.DOI
	if doi == "" {
		doi = w.IDs.DOI
	}

	pmid := w.IDs.PMID
	if idx := strings.LastIndex(pmid, "/"); idx >= 0 {
		pmid = pmid[idx+1:]
	}

	return types.Work{
		ID:              shortID(w.ID),
		DOI:             bareDOI(doi),
		PMID:            pmid,
		Title:           title,
		Authors:         authors,
		PublicationYear: w.PublicationYear,
		CitedByCount:    w.CitedByCount,
		CountsByYear:    counts,
		ReferencedWorks: refs,
		Type:            w.Type,
		Language:        w.Language,
		IsRetracted:     w.IsRetracted,
	}
}
