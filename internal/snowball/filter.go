// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package snowball

import (
	"strings"

	"github.com/pdiddy/snowball/pkg/types"
)

// validTypes are the document types eligible for inclusion.
var validTypes = map[string]bool{
	"journal-article": true,
	"article":         true,
	"review":          true,
	"preprint":        true,
	"posted-content":  true,
	"book":            true,
	"book-chapter":    true,
}

// preprintTypes are excluded when the config disallows preprints.
var preprintTypes = map[string]bool{
	"preprint":       true,
	"posted-content": true,
}

// Filter applies the project's inclusion and exclusion criteria to
// candidates. Exclusion runs first because it is cheap; candidates
// rejected here never reach the scorer.
type Filter struct {
	cfg types.ProjectConfig
}

// NewFilter creates a Filter for cfg.
func NewFilter(cfg types.ProjectConfig) *Filter {
	return &Filter{cfg: cfg}
}

// ShouldExclude reports whether the candidate must be dropped regardless of
// its other attributes, with the reason.
func (f *Filter) ShouldExclude(c types.Candidate, collectionIDs map[string]struct{}) (bool, string) {
	if _, ok := collectionIDs[c.Work.ID]; ok {
		return true, "already in collection"
	}
	if c.Work.IsRetracted {
		return true, "retracted"
	}
	return false, ""
}

// ShouldInclude reports whether the candidate meets the inclusion criteria:
// publication year in range, document type allowed, language allowed, and
// citation count at least the minimum.
func (f *Filter) ShouldInclude(c types.Candidate) bool {
	w := c.Work

	if w.PublicationYear != 0 {
		if f.cfg.MinYear != 0 && w.PublicationYear < f.cfg.MinYear {
			return false
		}
		if f.cfg.MaxYear != 0 && w.PublicationYear > f.cfg.MaxYear {
			return false
		}
	}

	if !f.validType(w.Type) {
		return false
	}
	if !f.validLanguage(w.Language) {
		return false
	}

	return w.CitedByCount >= f.cfg.MinCitations
}

func (f *Filter) validType(docType string) bool {
	if docType == "" {
		return false
	}
	t := strings.ToLower(docType)
	if !validTypes[t] {
		return false
	}
	if !f.cfg.IncludePreprints && preprintTypes[t] {
		return false
	}
	return true
}

// validLanguage checks the allow-list. Works without a language tag are
// admitted rather than excluded on missing data.
func (f *Filter) validLanguage(lang string) bool {
	if lang == "" || len(f.cfg.Languages) == 0 {
		return true
	}
	for _, allowed := range f.cfg.Languages {
		if strings.EqualFold(lang, allowed) {
			return true
		}
	}
	return false
}
