// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package snowball

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/snowball/pkg/types"
)

const (
	// maxExpandAuthors caps how many of a paper's authors are expanded.
	maxExpandAuthors = 5

	// maxBackwardRefs caps how many referenced works are resolved per paper.
	maxBackwardRefs = 50

	// authorYearFloor is the earliest publication year author expansion
	// reaches back to; a later project min_year narrows it further.
	authorYearFloor = 2000

	// expandConcurrency bounds the number of papers expanded at once.
	expandConcurrency = 4
)

// CitationGraphClient is the slice of the OpenAlex client the expansion
// step needs.
type CitationGraphClient interface {
	GetCitingWorks(ctx context.Context, workID, cursor string) ([]types.Work, string, error)
	GetAuthorWorks(ctx context.Context, authorID string, fromYear int, cursor string) ([]types.Work, string, error)
	GetWorksBatch(ctx context.Context, ids []string) ([]types.Work, error)
}

// methodRank orders discovery methods for the merge. When the same work is
// found by several methods, the highest rank wins and the lower-ranked
// source ids still join the provenance set.
var methodRank = map[types.DiscoveryMethod]int{
	types.DiscoveryBackward: 3,
	types.DiscoveryForward:  2,
	types.DiscoveryAuthor:   1,
}

// discoverySet merges works found by concurrent expansion goroutines into
// one deduplicated candidate set.
type discoverySet struct {
	mu      sync.Mutex
	found   map[string]*types.Candidate
	skipped int
}

func newDiscoverySet() *discoverySet {
	return &discoverySet{found: make(map[string]*types.Candidate)}
}

func (d *discoverySet) add(w types.Work, method types.DiscoveryMethod, sourceID string, iteration int) {
	if w.ID == "" {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	existing, ok := d.found[w.ID]
	if !ok {
		d.found[w.ID] = &types.Candidate{
			Work:      w,
			Method:    method,
			Sources:   []string{sourceID},
			Iteration: iteration,
		}
		return
	}
	if methodRank[method] > methodRank[existing.Method] {
		existing.Method = method
	}
	for _, s := range existing.Sources {
		if s == sourceID {
			return
		}
	}
	existing.Sources = append(existing.Sources, sourceID)
}

// recordSkip notes a source paper whose expansion in one direction failed
// after retries and was abandoned.
func (d *discoverySet) recordSkip() {
	d.mu.Lock()
	d.skipped++
	d.mu.Unlock()
}

// candidates returns the merged set sorted by work id, with each
// candidate's source list sorted.
func (d *discoverySet) candidates() []types.Candidate {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]types.Candidate, 0, len(d.found))
	for _, c := range d.found {
		sort.Strings(c.Sources)
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Work.ID < out[j].Work.ID })
	return out
}

// Aggregator expands a working set of papers along forward citations,
// backward references, and co-author publications, merging the results
// into one candidate set per iteration.
type Aggregator struct {
	client CitationGraphClient
	cfg    types.ProjectConfig
}

// NewAggregator creates an Aggregator using client for graph traversal.
func NewAggregator(client CitationGraphClient, cfg types.ProjectConfig) *Aggregator {
	return &Aggregator{client: client, cfg: cfg}
}

// Collect expands every paper in the working set in all three directions
// concurrently and returns the deduplicated candidates plus the number of
// source expansions skipped after retry exhaustion. A context cancellation
// aborts the whole collection; per-source fetch failures only skip that
// source.
func (a *Aggregator) Collect(ctx context.Context, workingSet []types.Paper, iteration int) ([]types.Candidate, int, error) {
	set := newDiscoverySet()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(expandConcurrency)

	for _, paper := range workingSet {
		paper := paper
		g.Go(func() error {
			return a.expandOne(gctx, paper, iteration, set)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return set.candidates(), set.skipped, nil
}

// expandOne runs the three expansion directions for a single paper.
func (a *Aggregator) expandOne(ctx context.Context, paper types.Paper, iteration int, set *discoverySet) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := a.expandBackward(ctx, paper, iteration, set); err != nil {
		return err
	}
	if err := a.expandForward(ctx, paper, iteration, set); err != nil {
		return err
	}
	return a.expandAuthors(ctx, paper, iteration, set)
}

func (a *Aggregator) expandForward(ctx context.Context, paper types.Paper, iteration int, set *discoverySet) error {
	works, _, err := a.client.GetCitingWorks(ctx, paper.OpenAlexID, "")
	if err != nil {
		return a.skipOrFail(ctx, err, set)
	}
	for _, w := range works {
		set.add(w, types.DiscoveryForward, paper.OpenAlexID, iteration)
	}
	return nil
}

func (a *Aggregator) expandBackward(ctx context.Context, paper types.Paper, iteration int, set *discoverySet) error {
	refs := paper.ReferencedWorks
	if len(refs) == 0 {
		return nil
	}
	if len(refs) > maxBackwardRefs {
		refs = refs[:maxBackwardRefs]
	}
	works, err := a.client.GetWorksBatch(ctx, refs)
	if err != nil {
		return a.skipOrFail(ctx, err, set)
	}
	for _, w := range works {
		set.add(w, types.DiscoveryBackward, paper.OpenAlexID, iteration)
	}
	return nil
}

func (a *Aggregator) expandAuthors(ctx context.Context, paper types.Paper, iteration int, set *discoverySet) error {
	authorIDs := paper.AuthorIDs()
	if len(authorIDs) > maxExpandAuthors {
		authorIDs = authorIDs[:maxExpandAuthors]
	}

	fromYear := authorYearFloor
	if a.cfg.MinYear > fromYear {
		fromYear = a.cfg.MinYear
	}

	for _, authorID := range authorIDs {
		works, _, err := a.client.GetAuthorWorks(ctx, authorID, fromYear, "")
		if err != nil {
			if serr := a.skipOrFail(ctx, err, set); serr != nil {
				return serr
			}
			continue
		}
		for _, w := range works {
			if w.ID == paper.OpenAlexID {
				continue
			}
			set.add(w, types.DiscoveryAuthor, paper.OpenAlexID, iteration)
		}
	}
	return nil
}

// skipOrFail converts fetch failures into skips so one dead source cannot
// sink an iteration. Cancellation propagates so the errgroup tears the
// collection down.
func (a *Aggregator) skipOrFail(ctx context.Context, err error, set *discoverySet) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	// Missing works and exhausted retries are the common cases; anything
	// else from the API is equally unrecoverable for this source.
	if err != nil {
		set.recordSkip()
	}
	return nil
}
