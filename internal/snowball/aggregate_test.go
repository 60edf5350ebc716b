// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package snowball

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/snowball/pkg/types"
)

// fakeGraph is an in-memory CitationGraphClient.
type fakeGraph struct {
	mu sync.Mutex

	citing      map[string][]types.Work
	authorWorks map[string][]types.Work
	works       map[string]types.Work

	failCiting map[string]error
	failBatch  error

	authorCalls []string
	batchCalls  [][]string
}

func newFakeGraph() *fakeGraph {
	return &fakeGraph{
		citing:      make(map[string][]types.Work),
		authorWorks: make(map[string][]types.Work),
		works:       make(map[string]types.Work),
		failCiting:  make(map[string]error),
	}
}

func (f *fakeGraph) GetCitingWorks(ctx context.Context, workID, cursor string) ([]types.Work, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failCiting[workID]; err != nil {
		return nil, "", err
	}
	return f.citing[workID], "", nil
}

func (f *fakeGraph) GetAuthorWorks(ctx context.Context, authorID string, fromYear int, cursor string) ([]types.Work, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.authorCalls = append(f.authorCalls, authorID)
	return f.authorWorks[authorID], "", nil
}

func (f *fakeGraph) GetWorksBatch(ctx context.Context, ids []string) ([]types.Work, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failBatch != nil {
		return nil, f.failBatch
	}
	f.batchCalls = append(f.batchCalls, ids)
	var out []types.Work
	for _, id := range ids {
		if w, ok := f.works[id]; ok {
			out = append(out, w)
		}
	}
	return out, nil
}

func paperWith(id string, refs []string, authors ...types.Author) types.Paper {
	return types.Paper{OpenAlexID: id, ReferencedWorks: refs, Authors: authors}
}

func TestCollectMergesMethodsByPriority(t *testing.T) {
	graph := newFakeGraph()
	// The same work is reachable forward, backward, and via an author.
	graph.citing["P1"] = []types.Work{{ID: "W1"}}
	graph.works["W1"] = types.Work{ID: "W1"}
	graph.authorWorks["A1"] = []types.Work{{ID: "W1"}}

	agg := NewAggregator(graph, types.DefaultConfig())
	paper := paperWith("P1", []string{"W1"}, types.Author{ID: "A1"})

	cands, skipped, err := agg.Collect(context.Background(), []types.Paper{paper}, 1)
	require.NoError(t, err)
	assert.Zero(t, skipped)
	require.Len(t, cands, 1, "one work found three ways is one candidate")

	assert.Equal(t, types.DiscoveryBackward, cands[0].Method, "backward outranks forward and author")
	assert.Equal(t, []string{"P1"}, cands[0].Sources)
	assert.Equal(t, 1, cands[0].Iteration)
}

func TestCollectUnionsSources(t *testing.T) {
	graph := newFakeGraph()
	graph.citing["P1"] = []types.Work{{ID: "W1"}}
	graph.citing["P2"] = []types.Work{{ID: "W1"}}

	agg := NewAggregator(graph, types.DefaultConfig())
	papers := []types.Paper{paperWith("P2", nil), paperWith("P1", nil)}

	cands, _, err := agg.Collect(context.Background(), papers, 2)
	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.Equal(t, []string{"P1", "P2"}, cands[0].Sources, "sources are a sorted union")
}

func TestCollectCapsBackwardRefs(t *testing.T) {
	refs := make([]string, 80)
	for i := range refs {
		refs[i] = workID(i)
	}
	graph := newFakeGraph()

	agg := NewAggregator(graph, types.DefaultConfig())
	_, _, err := agg.Collect(context.Background(), []types.Paper{paperWith("P1", refs)}, 1)
	require.NoError(t, err)

	require.Len(t, graph.batchCalls, 1)
	assert.Len(t, graph.batchCalls[0], maxBackwardRefs)
}

func TestCollectLimitsAuthorExpansion(t *testing.T) {
	authors := make([]types.Author, 8)
	for i := range authors {
		authors[i] = types.Author{ID: workID(i)}
	}
	graph := newFakeGraph()

	agg := NewAggregator(graph, types.DefaultConfig())
	_, _, err := agg.Collect(context.Background(), []types.Paper{paperWith("P1", nil, authors...)}, 1)
	require.NoError(t, err)

	assert.Len(t, graph.authorCalls, maxExpandAuthors, "only the first authors expand")
}

func TestCollectAuthorExpansionExcludesSourcePaper(t *testing.T) {
	graph := newFakeGraph()
	graph.authorWorks["A1"] = []types.Work{{ID: "P1"}, {ID: "W2"}}

	agg := NewAggregator(graph, types.DefaultConfig())
	cands, _, err := agg.Collect(context.Background(), []types.Paper{paperWith("P1", nil, types.Author{ID: "A1"})}, 1)
	require.NoError(t, err)

	require.Len(t, cands, 1)
	assert.Equal(t, "W2", cands[0].Work.ID)
}

func TestCollectSkipsFailedSources(t *testing.T) {
	graph := newFakeGraph()
	graph.failCiting["P1"] = errors.New("HTTP 503")
	graph.citing["P2"] = []types.Work{{ID: "W1"}}

	agg := NewAggregator(graph, types.DefaultConfig())
	papers := []types.Paper{paperWith("P1", nil), paperWith("P2", nil)}

	cands, skipped, err := agg.Collect(context.Background(), papers, 1)
	require.NoError(t, err, "one dead source must not fail the iteration")
	assert.Equal(t, 1, skipped)
	require.Len(t, cands, 1)
	assert.Equal(t, "W1", cands[0].Work.ID)
}

func TestCollectPropagatesCancellation(t *testing.T) {
	graph := newFakeGraph()
	graph.citing["P1"] = []types.Work{{ID: "W1"}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	agg := NewAggregator(graph, types.DefaultConfig())
	_, _, err := agg.Collect(ctx, []types.Paper{paperWith("P1", nil)}, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCollectDeterministicOrder(t *testing.T) {
	graph := newFakeGraph()
	graph.citing["P1"] = []types.Work{{ID: "W3"}, {ID: "W1"}, {ID: "W2"}}

	agg := NewAggregator(graph, types.DefaultConfig())
	cands, _, err := agg.Collect(context.Background(), []types.Paper{paperWith("P1", nil)}, 1)
	require.NoError(t, err)

	ids := make([]string, len(cands))
	for i, c := range cands {
		ids[i] = c.Work.ID
	}
	assert.Equal(t, []string{"W1", "W2", "W3"}, ids)
}
