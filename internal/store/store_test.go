// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/snowball/internal/cache"
	"github.com/pdiddy/snowball/pkg/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "snowball.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testPaper(openAlexID string, iteration int) types.Paper {
	return types.Paper{
		OpenAlexID:      openAlexID,
		Title:           "paper " + openAlexID,
		Authors:         []types.Author{{ID: "A1", Name: "Ada Lovelace"}},
		PublicationYear: 2021,
		Type:            "journal-article",
		Language:        "en",
		CitedByCount:    42,
		CountsByYear:    []types.YearCount{{Year: 2024, CitedByCount: 7}},
		ReferencedWorks: []string{"W100", "W200"},
		Score:           0.5,
		Method:          types.DiscoveryForward,
		DiscoveredFrom:  []string{"W1"},
		IterationAdded:  iteration,
		CreatedAt:       time.Now().UTC(),
	}
}

func TestProjectLifecycle(t *testing.T) {
	s := openTestStore(t)

	p, err := s.CreateProject("neuro", types.DefaultConfig())
	require.NoError(t, err)
	require.NotEmpty(t, p.ID)

	// Duplicate names are rejected.
	_, err = s.CreateProject("neuro", types.DefaultConfig())
	assert.ErrorIs(t, err, ErrProjectExists)

	got, err := s.GetProject("neuro")
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, types.DefaultConfig(), got.Config)
	assert.WithinDuration(t, p.CreatedAt, got.CreatedAt, time.Second)

	_, err = s.GetProject("missing")
	assert.ErrorIs(t, err, ErrProjectNotFound)

	got.CurrentIteration = 3
	got.IsComplete = true
	got.UpdatedAt = time.Now().UTC()
	require.NoError(t, s.UpdateProject(got))

	got, err = s.GetProjectByID(p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.CurrentIteration)
	assert.True(t, got.IsComplete)

	projects, err := s.ListProjects()
	require.NoError(t, err)
	assert.Len(t, projects, 1)

	require.NoError(t, s.DeleteProject(p.ID))
	_, err = s.GetProject("neuro")
	assert.ErrorIs(t, err, ErrProjectNotFound)
}

func TestCreateProjectRejectsBadConfig(t *testing.T) {
	s := openTestStore(t)

	cfg := types.DefaultConfig()
	cfg.IterationMode = "bogus"

	_, err := s.CreateProject("bad", cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "iteration_mode")
}

func TestSeedAndCollectionRoundtrip(t *testing.T) {
	s := openTestStore(t)
	p, err := s.CreateProject("proj", types.DefaultConfig())
	require.NoError(t, err)

	seed := testPaper("W1", 0)
	seed.Method = types.DiscoverySeed
	seed.DiscoveredFrom = nil

	added, err := s.AddSeed(p.ID, seed)
	require.NoError(t, err)
	assert.NotEmpty(t, added.ID, "row id assigned on insert")
	assert.Equal(t, types.DiscoverySeed, added.Method)

	// The same work cannot be seeded twice.
	_, err = s.AddSeed(p.ID, seed)
	assert.ErrorIs(t, err, ErrDuplicatePaper)

	collection, err := s.LoadCollection(p.ID)
	require.NoError(t, err)
	require.Len(t, collection, 1)

	got := collection[0]
	assert.Equal(t, "W1", got.OpenAlexID)
	assert.Equal(t, seed.Authors, got.Authors)
	assert.Equal(t, seed.CountsByYear, got.CountsByYear)
	assert.Equal(t, seed.ReferencedWorks, got.ReferencedWorks)
	assert.Equal(t, types.DiscoverySeed, got.Method)

	seeds, err := s.Seeds(p.ID)
	require.NoError(t, err)
	assert.Len(t, seeds, 1)

	size, err := s.CollectionSize(p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, size)
}

func TestAppendIteration(t *testing.T) {
	s := openTestStore(t)
	p, err := s.CreateProject("proj", types.DefaultConfig())
	require.NoError(t, err)

	_, ok, err := s.LastIteration(p.ID)
	require.NoError(t, err)
	assert.False(t, ok, "fresh project has no iterations")

	breakdown := &types.ScoreBreakdown{Foundational: 1, Total: 0.25}
	paper := testPaper("W2", 1)
	paper.ID = "row-1"
	paper.ScoreComponents = breakdown

	rec := types.IterationRecord{
		ID:          "rec-1",
		ProjectID:   p.ID,
		StartedAt:   time.Now().UTC(),
		CompletedAt: time.Now().UTC(),
		Metrics: types.IterationMetrics{
			IterationNumber:      1,
			PapersBefore:         0,
			PapersAfter:          1,
			NewPapers:            1,
			CandidatesConsidered: 4,
			GrowthRate:           0,
			NoveltyRate:          0.25,
		},
		Saturation: types.SaturationResult{IsSaturated: true, Reason: "max papers reached", Confidence: 1},
	}

	require.NoError(t, s.AppendIteration(context.Background(), p.ID, []types.Paper{paper}, rec))

	last, ok, err := s.LastIteration(p.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, rec.Metrics, last.Metrics)
	assert.Equal(t, rec.Saturation, last.Saturation)

	papers, err := s.PapersByIteration(p.ID, 1)
	require.NoError(t, err)
	require.Len(t, papers, 1)
	require.NotNil(t, papers[0].ScoreComponents)
	assert.Equal(t, *breakdown, *papers[0].ScoreComponents)

	records, err := s.Iterations(p.ID)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

// A duplicate paper in the batch must roll back the papers and the record
// together.
func TestAppendIterationIsAtomic(t *testing.T) {
	s := openTestStore(t)
	p, err := s.CreateProject("proj", types.DefaultConfig())
	require.NoError(t, err)

	_, err = s.AddSeed(p.ID, testPaper("W1", 0))
	require.NoError(t, err)

	fresh := testPaper("W2", 1)
	fresh.ID = "row-w2"
	dup := testPaper("W1", 1) // already in the collection
	dup.ID = "row-dup"

	rec := types.IterationRecord{
		ID:        "rec-1",
		ProjectID: p.ID,
		Metrics:   types.IterationMetrics{IterationNumber: 1},
	}

	err = s.AppendIteration(context.Background(), p.ID, []types.Paper{fresh, dup}, rec)
	require.ErrorIs(t, err, ErrDuplicatePaper)

	size, err := s.CollectionSize(p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, size, "the fresh paper must not survive the rollback")

	_, ok, err := s.LastIteration(p.ID)
	require.NoError(t, err)
	assert.False(t, ok, "the record must not survive the rollback")
}

func TestDeleteProjectCascades(t *testing.T) {
	s := openTestStore(t)
	p, err := s.CreateProject("proj", types.DefaultConfig())
	require.NoError(t, err)

	_, err = s.AddSeed(p.ID, testPaper("W1", 0))
	require.NoError(t, err)
	rec := types.IterationRecord{ID: "rec-1", ProjectID: p.ID, Metrics: types.IterationMetrics{IterationNumber: 1}}
	require.NoError(t, s.AppendIteration(context.Background(), p.ID, nil, rec))

	require.NoError(t, s.DeleteProject(p.ID))

	size, err := s.CollectionSize(p.ID)
	require.NoError(t, err)
	assert.Zero(t, size)

	records, err := s.Iterations(p.ID)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestCacheEntryRoundtrip(t *testing.T) {
	s := openTestStore(t)

	_, ok, err := s.GetEntry("missing")
	require.NoError(t, err)
	assert.False(t, ok)

	now := time.Now().UTC().Truncate(time.Millisecond)
	entry := cache.Entry{
		Key:       "abc123",
		Payload:   []byte(`{"id":"W1"}`),
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}
	require.NoError(t, s.PutEntry(entry))

	got, ok, err := s.GetEntry("abc123")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, entry.Payload, got.Payload)
	assert.True(t, got.ExpiresAt.Equal(entry.ExpiresAt))

	// Replacement overwrites in place.
	entry.Payload = []byte(`{"id":"W2"}`)
	require.NoError(t, s.PutEntry(entry))
	got, _, err = s.GetEntry("abc123")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"id":"W2"}`), got.Payload)

	pruned, err := s.PruneCache(now.Add(2 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), pruned)
}
