// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package snowball implements iterative citation-graph expansion: starting
// from a seed collection, each iteration discovers candidate papers along
// forward citations, backward references, and co-author publications,
// filters and scores them, admits the best, and checks whether the
// collection has saturated.
package snowball

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/snowball/pkg/types"
)

// State names the engine's position in the iteration cycle.
type State string

const (
	StateIdle       State = "idle"
	StateExpanding  State = "expanding"
	StateFiltering  State = "filtering"
	StateScoring    State = "scoring"
	StateSelecting  State = "selecting"
	StateRecording  State = "recording"
	StateContinuing State = "continuing"
	StateSaturated  State = "saturated"
	StateStopped    State = "stopped"
)

// ErrNoSeeds means the project has no seed papers to expand from.
var ErrNoSeeds = errors.New("project has no seed papers")

// PersistenceGateway is the storage surface the engine drives. Admitted
// papers and the iteration record must land in the same transaction so a
// crash never leaves papers without their provenance record.
type PersistenceGateway interface {
	LoadCollection(projectID string) ([]types.Paper, error)
	PapersByIteration(projectID string, iteration int) ([]types.Paper, error)
	LastIteration(projectID string) (types.IterationRecord, bool, error)
	AppendIteration(ctx context.Context, projectID string, papers []types.Paper, rec types.IterationRecord) error
	UpdateProject(p types.Project) error
}

// UserInteraction collects the continue/stop decision in the interactive
// iteration modes.
type UserInteraction interface {
	// ConfirmContinue reports whether expansion should continue. The
	// zero-value result means the question arose outside a saturation
	// signal, as manual mode asks after every iteration.
	ConfirmContinue(res types.SaturationResult, m types.IterationMetrics) (bool, error)
}

// ProgressSink receives each completed iteration record as it is persisted.
type ProgressSink interface {
	IterationCompleted(rec types.IterationRecord)
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithInteraction supplies the confirmation collaborator required by the
// semi-automatic and manual modes.
func WithInteraction(ui UserInteraction) EngineOption {
	return func(e *Engine) { e.interaction = ui }
}

// WithProgress supplies a sink for per-iteration progress.
func WithProgress(sink ProgressSink) EngineOption {
	return func(e *Engine) { e.progress = sink }
}

// WithClock overrides the engine's time source.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// Engine runs the expansion loop for one project. It is not safe for
// concurrent use; run one engine per project at a time.
type Engine struct {
	project     types.Project
	gateway     PersistenceGateway
	aggregator  *Aggregator
	filter      *Filter
	scorer      *Scorer
	detector    Detector
	tracker     *Tracker
	interaction UserInteraction
	progress    ProgressSink
	now         func() time.Time

	state         State
	collectionIDs map[string]struct{}
	collectionLen int
	workingSet    []types.Paper
	scoringCtx    ScoringContext
}

// NewEngine builds an engine for the project. The configuration is
// validated up front so a bad config fails before any API traffic.
func NewEngine(project types.Project, client CitationGraphClient, gateway PersistenceGateway, opts ...EngineOption) (*Engine, error) {
	if err := project.Config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid project config: %w", err)
	}
	e := &Engine{
		project:    project,
		gateway:    gateway,
		aggregator: NewAggregator(client, project.Config),
		filter:     NewFilter(project.Config),
		scorer:     NewScorer(project.Config.Weights),
		detector:   NewDetector(project.Config),
		tracker:    NewTracker(),
		now:        time.Now,
		state:      StateIdle,
	}
	for _, opt := range opts {
		opt(e)
	}
	mode := e.project.Config.IterationMode
	if (mode == types.ModeSemiAutomatic || mode == types.ModeManual) && e.interaction == nil {
		return nil, fmt.Errorf("iteration mode %q requires an interaction handler", mode)
	}
	return e, nil
}

// State returns the engine's current position in the cycle.
func (e *Engine) State() State {
	return e.state
}

// Run executes iterations until saturation, a stop decision, or an error.
// On a resumed project it picks up after the last recorded iteration. The
// returned result is the final saturation decision; it is the zero value
// when the run stopped for another reason.
func (e *Engine) Run(ctx context.Context) (types.SaturationResult, error) {
	start, err := e.restore(ctx)
	if err != nil {
		return types.SaturationResult{}, err
	}

	for iteration := start; ; iteration++ {
		if err := ctx.Err(); err != nil {
			e.state = StateStopped
			return types.SaturationResult{}, err
		}

		rec, added, err := e.runIteration(ctx, iteration)
		if err != nil {
			e.state = StateStopped
			return types.SaturationResult{}, err
		}

		e.tracker.Record(rec.Metrics)
		if e.progress != nil {
			e.progress.IterationCompleted(rec)
		}

		stop, err := e.decide(rec)
		if err != nil {
			e.state = StateStopped
			return types.SaturationResult{}, err
		}

		e.project.CurrentIteration = iteration
		e.project.UpdatedAt = e.now().UTC()
		e.project.IsComplete = stop && rec.Saturation.IsSaturated
		if err := e.gateway.UpdateProject(e.project); err != nil {
			e.state = StateStopped
			return types.SaturationResult{}, fmt.Errorf("updating project: %w", err)
		}

		if stop {
			if rec.Saturation.IsSaturated {
				e.state = StateSaturated
			} else {
				e.state = StateStopped
			}
			return rec.Saturation, nil
		}

		e.state = StateContinuing
		e.workingSet = added
	}
}

// restore loads the collection, builds the scoring context from the seeds,
// and determines the next iteration number and working set. A fresh project
// starts from iteration 1 with the seeds as the working set; a resumed one
// continues from the papers its last iteration admitted.
func (e *Engine) restore(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	collection, err := e.gateway.LoadCollection(e.project.ID)
	if err != nil {
		return 0, fmt.Errorf("loading collection: %w", err)
	}

	var seeds []types.Paper
	e.collectionIDs = make(map[string]struct{}, len(collection))
	for _, p := range collection {
		e.collectionIDs[p.OpenAlexID] = struct{}{}
		if p.Method == types.DiscoverySeed {
			seeds = append(seeds, p)
		}
	}
	if len(seeds) == 0 {
		return 0, ErrNoSeeds
	}
	e.collectionLen = len(collection)
	e.scoringCtx = NewScoringContext(seeds, e.now().UTC().Year())

	last, ok, err := e.gateway.LastIteration(e.project.ID)
	if err != nil {
		return 0, fmt.Errorf("loading last iteration: %w", err)
	}
	if !ok {
		e.workingSet = seeds
		return 1, nil
	}

	e.workingSet, err = e.gateway.PapersByIteration(e.project.ID, last.Metrics.IterationNumber)
	if err != nil {
		return 0, fmt.Errorf("loading working set: %w", err)
	}
	if len(e.workingSet) == 0 {
		e.workingSet = seeds
	}
	return last.Metrics.IterationNumber + 1, nil
}

// runIteration performs one full expand-filter-score-select-record cycle
// and returns the persisted record alongside the admitted papers.
func (e *Engine) runIteration(ctx context.Context, iteration int) (types.IterationRecord, []types.Paper, error) {
	startedAt := e.now().UTC()
	papersBefore := e.collectionLen

	e.state = StateExpanding
	candidates, skipped, err := e.aggregator.Collect(ctx, e.workingSet, iteration)
	if err != nil {
		return types.IterationRecord{}, nil, err
	}
	considered := len(candidates)

	e.state = StateFiltering
	survivors := e.applyFilter(candidates)

	e.state = StateScoring
	scored := e.scorer.ScoreBatch(survivors, e.scoringCtx)

	e.state = StateSelecting
	selected := selectTop(scored, e.project.Config.PapersPerIteration)
	papers := e.admit(selected, iteration)

	metrics := e.buildMetrics(iteration, papersBefore, len(papers), considered, skipped, candidates)
	saturation := e.checkSaturation(metrics)

	e.state = StateRecording
	rec := types.IterationRecord{
		ID:          uuid.NewString(),
		ProjectID:   e.project.ID,
		StartedAt:   startedAt,
		CompletedAt: e.now().UTC(),
		Metrics:     metrics,
		Saturation:  saturation,
	}
	if err := e.gateway.AppendIteration(ctx, e.project.ID, papers, rec); err != nil {
		return types.IterationRecord{}, nil, fmt.Errorf("recording iteration %d: %w", iteration, err)
	}

	for _, p := range papers {
		e.collectionIDs[p.OpenAlexID] = struct{}{}
	}
	e.collectionLen += len(papers)

	return rec, papers, nil
}

// applyFilter runs the exclusion pass and then the inclusion pass.
func (e *Engine) applyFilter(candidates []types.Candidate) []types.Candidate {
	survivors := make([]types.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if excluded, _ := e.filter.ShouldExclude(c, e.collectionIDs); excluded {
			continue
		}
		if !e.filter.ShouldInclude(c) {
			continue
		}
		survivors = append(survivors, c)
	}
	return survivors
}

// selectTop orders scored candidates by descending score, breaking ties on
// ascending work id, and keeps the first limit entries.
func selectTop(scored []ScoredCandidate, limit int) []ScoredCandidate {
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Breakdown.Total != scored[j].Breakdown.Total {
			return scored[i].Breakdown.Total > scored[j].Breakdown.Total
		}
		return scored[i].Candidate.Work.ID < scored[j].Candidate.Work.ID
	})
	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}

// admit converts the selected candidates into collection papers.
func (e *Engine) admit(selected []ScoredCandidate, iteration int) []types.Paper {
	createdAt := e.now().UTC()
	papers := make([]types.Paper, 0, len(selected))
	for _, s := range selected {
		breakdown := s.Breakdown
		papers = append(papers, types.Paper{
			ID:              uuid.NewString(),
			OpenAlexID:      s.Candidate.Work.ID,
			DOI:             s.Candidate.Work.DOI,
			PMID:            s.Candidate.Work.PMID,
			Title:           s.Candidate.Work.Title,
			Authors:         s.Candidate.Work.Authors,
			PublicationYear: s.Candidate.Work.PublicationYear,
			Type:            s.Candidate.Work.Type,
			Language:        s.Candidate.Work.Language,
			CitedByCount:    s.Candidate.Work.CitedByCount,
			CountsByYear:    s.Candidate.Work.CountsByYear,
			ReferencedWorks: s.Candidate.Work.ReferencedWorks,
			Score:           breakdown.Total,
			ScoreComponents: &breakdown,
			Method:          s.Candidate.Method,
			DiscoveredFrom:  s.Candidate.Sources,
			IterationAdded:  iteration,
			CreatedAt:       createdAt,
		})
	}
	return papers
}

// buildMetrics assembles the iteration's metrics. Growth is relative to the
// collection size before the iteration; novelty is relative to everything
// the expansion surfaced, filtered or not.
func (e *Engine) buildMetrics(iteration, papersBefore, newPapers, considered, skipped int, candidates []types.Candidate) types.IterationMetrics {
	m := types.IterationMetrics{
		IterationNumber:      iteration,
		PapersBefore:         papersBefore,
		PapersAfter:          papersBefore + newPapers,
		NewPapers:            newPapers,
		CandidatesConsidered: considered,
		Skipped:              skipped,
	}
	if papersBefore > 0 {
		m.GrowthRate = float64(newPapers) / float64(papersBefore)
	}
	if considered > 0 {
		m.NoveltyRate = float64(newPapers) / float64(considered)
	}
	for _, c := range candidates {
		switch c.Method {
		case types.DiscoveryForward:
			m.ForwardFound++
		case types.DiscoveryBackward:
			m.BackwardFound++
		case types.DiscoveryAuthor:
			m.AuthorFound++
		}
	}
	return m
}

// checkSaturation applies the halting conditions appropriate to the mode.
// A fixed-count run only honors the unconditional conditions.
func (e *Engine) checkSaturation(m types.IterationMetrics) types.SaturationResult {
	if e.project.Config.IterationMode == types.ModeFixed {
		return e.detector.CheckHard(m)
	}
	return e.detector.Check(m)
}

// decide turns the iteration outcome into a stop-or-continue decision per
// the project's iteration mode. An empty iteration always stops: with no
// new papers there is nothing left to expand.
func (e *Engine) decide(rec types.IterationRecord) (bool, error) {
	if rec.Metrics.NewPapers == 0 {
		return true, nil
	}

	switch e.project.Config.IterationMode {
	case types.ModeAutomatic, types.ModeFixed:
		return rec.Saturation.IsSaturated, nil

	case types.ModeSemiAutomatic:
		if !rec.Saturation.IsSaturated {
			return false, nil
		}
		cont, err := e.interaction.ConfirmContinue(rec.Saturation, rec.Metrics)
		if err != nil {
			return false, fmt.Errorf("collecting continue decision: %w", err)
		}
		return !cont, nil

	case types.ModeManual:
		cont, err := e.interaction.ConfirmContinue(rec.Saturation, rec.Metrics)
		if err != nil {
			return false, fmt.Errorf("collecting continue decision: %w", err)
		}
		return !cont, nil

	default:
		return true, fmt.Errorf("unknown iteration mode %q", e.project.Config.IterationMode)
	}
}
