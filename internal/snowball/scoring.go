// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package snowball

import (
	"github.com/pdiddy/snowball/pkg/types"
)

// recentWindow is the number of trailing calendar years summed for the
// recent-citations component.
const recentWindow = 3

// recencyHorizon is the age in years at which the recency component
// reaches zero.
const recencyHorizon = 10.0

// ScoringContext carries the seed-derived context a scoring pass needs.
// It is built once per project because the seed set is fixed.
type ScoringContext struct {
	seedCount     int
	seedAuthorIDs map[string]struct{}
	refSeedCount  map[string]int
	currentYear   int
}

// NewScoringContext precomputes the seed author set and, for every work id
// referenced by a seed, how many distinct seeds reference it.
func NewScoringContext(seeds []types.Paper, currentYear int) ScoringContext {
	sc := ScoringContext{
		seedCount:     len(seeds),
		seedAuthorIDs: make(map[string]struct{}),
		refSeedCount:  make(map[string]int),
		currentYear:   currentYear,
	}
	for _, seed := range seeds {
		for _, id := range seed.AuthorIDs() {
			sc.seedAuthorIDs[id] = struct{}{}
		}
		seen := make(map[string]struct{}, len(seed.ReferencedWorks))
		for _, ref := range seed.ReferencedWorks {
			if _, dup := seen[ref]; dup {
				continue
			}
			seen[ref] = struct{}{}
			sc.refSeedCount[ref]++
		}
	}
	return sc
}

// ScoredCandidate pairs a candidate with its component breakdown.
type ScoredCandidate struct {
	Candidate types.Candidate
	Breakdown types.ScoreBreakdown
}

// Scorer computes weighted relevance scores for candidate batches.
type Scorer struct {
	weights types.ScoringWeights
}

// NewScorer creates a Scorer using the given component weights.
func NewScorer(weights types.ScoringWeights) *Scorer {
	return &Scorer{weights: weights}
}

// ScoreBatch scores every candidate against the batch. Citation velocity
// and recent citations are min-max normalized within the batch, so a
// candidate's score depends on which other candidates it is scored with.
// The result preserves input order.
func (s *Scorer) ScoreBatch(cands []types.Candidate, sc ScoringContext) []ScoredCandidate {
	if len(cands) == 0 {
		return nil
	}

	rawVelocity := make([]float64, len(cands))
	rawRecent := make([]float64, len(cands))
	for i, c := range cands {
		rawVelocity[i] = citationVelocity(c.Work, sc.currentYear)
		rawRecent[i] = recentCitations(c.Work, sc.currentYear)
	}
	velocity := normalize(rawVelocity)
	recent := normalize(rawRecent)

	out := make([]ScoredCandidate, len(cands))
	for i, c := range cands {
		b := types.ScoreBreakdown{
			CitationVelocity: velocity[i],
			RecentCitations:  recent[i],
			Foundational:     s.foundational(c.Work, sc),
			AuthorOverlap:    s.authorOverlap(c.Work, sc),
			Recency:          recency(c.Work, sc.currentYear),
		}
		b.Total = s.weights.CitationVelocity*b.CitationVelocity +
			s.weights.RecentCitations*b.RecentCitations +
			s.weights.Foundational*b.Foundational +
			s.weights.AuthorOverlap*b.AuthorOverlap +
			s.weights.Recency*b.Recency
		out[i] = ScoredCandidate{Candidate: c, Breakdown: b}
	}
	return out
}

// citationVelocity is citations per year since publication.
func citationVelocity(w types.Work, currentYear int) float64 {
	age := currentYear - w.PublicationYear + 1
	if age < 1 {
		age = 1
	}
	return float64(w.CitedByCount) / float64(age)
}

// recentCitations sums the citation counts of the trailing window of
// calendar years. Years absent from the counts contribute zero.
func recentCitations(w types.Work, currentYear int) float64 {
	byYear := make(map[int]int, len(w.CountsByYear))
	for _, yc := range w.CountsByYear {
		byYear[yc.Year] = yc.CitedByCount
	}
	sum := 0
	for year := currentYear; year > currentYear-recentWindow; year-- {
		sum += byYear[year]
	}
	return float64(sum)
}

// foundational is the fraction of seed papers whose reference lists
// include this work.
func (s *Scorer) foundational(w types.Work, sc ScoringContext) float64 {
	if sc.seedCount == 0 {
		return 0
	}
	return float64(sc.refSeedCount[w.ID]) / float64(sc.seedCount)
}

// authorOverlap is the fraction of the candidate's authors that also
// appear on a seed paper.
func (s *Scorer) authorOverlap(w types.Work, sc ScoringContext) float64 {
	ids := w.AuthorIDs()
	if len(ids) == 0 {
		return 0
	}
	shared := 0
	for _, id := range ids {
		if _, ok := sc.seedAuthorIDs[id]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(ids))
}

// recency decays linearly from 1 at age zero to 0 at the horizon.
func recency(w types.Work, currentYear int) float64 {
	age := float64(currentYear - w.PublicationYear)
	if age < 0 {
		age = 0
	}
	v := 1 - age/recencyHorizon
	if v < 0 {
		return 0
	}
	return v
}

// normalize rescales values to [0, 1] by batch min and max. A flat batch
// maps to all zeros.
func normalize(values []float64) []float64 {
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	out := make([]float64, len(values))
	if hi <= lo {
		return out
	}
	span := hi - lo
	for i, v := range values {
		out[i] = (v - lo) / span
	}
	return out
}
