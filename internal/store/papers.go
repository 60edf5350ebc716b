// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/pdiddy/snowball/pkg/types"
)

// ErrDuplicatePaper means the paper's OpenAlex id is already in the
// project's collection.
var ErrDuplicatePaper = errors.New("paper already in collection")

const paperColumns = `id, openalex_id, doi, pmid, title, authors, publication_year,
	type, language, cited_by_count, counts_by_year, referenced_works,
	score, score_components, discovery_method, discovered_from, iteration_added, created_at`

// execer covers *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// AddSeed inserts a seed paper at iteration 0. The row id is assigned here
// when the caller left it empty.
func (s *Store) AddSeed(projectID string, p types.Paper) (types.Paper, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.Method = types.DiscoverySeed
	p.IterationAdded = 0
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	if err := insertPaper(s.db, projectID, p); err != nil {
		return types.Paper{}, err
	}
	return p, nil
}

// LoadCollection returns every paper in the project, seeds first, then by
// iteration and descending score.
func (s *Store) LoadCollection(projectID string) ([]types.Paper, error) {
	rows, err := s.db.Query(
		`SELECT `+paperColumns+` FROM papers WHERE project_id = ?
		 ORDER BY iteration_added, score DESC, openalex_id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("loading collection: %w", err)
	}
	defer rows.Close()
	return scanPapers(rows)
}

// PapersByIteration returns the papers admitted in a single iteration.
func (s *Store) PapersByIteration(projectID string, iteration int) ([]types.Paper, error) {
	rows, err := s.db.Query(
		`SELECT `+paperColumns+` FROM papers WHERE project_id = ? AND iteration_added = ?
		 ORDER BY score DESC, openalex_id`, projectID, iteration)
	if err != nil {
		return nil, fmt.Errorf("loading iteration papers: %w", err)
	}
	defer rows.Close()
	return scanPapers(rows)
}

// Seeds returns the project's seed papers.
func (s *Store) Seeds(projectID string) ([]types.Paper, error) {
	rows, err := s.db.Query(
		`SELECT `+paperColumns+` FROM papers WHERE project_id = ? AND discovery_method = ?
		 ORDER BY created_at, openalex_id`, projectID, string(types.DiscoverySeed))
	if err != nil {
		return nil, fmt.Errorf("loading seeds: %w", err)
	}
	defer rows.Close()
	return scanPapers(rows)
}

// CollectionSize returns the number of papers in the project.
func (s *Store) CollectionSize(projectID string) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT count(*) FROM papers WHERE project_id = ?`, projectID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting papers: %w", err)
	}
	return n, nil
}

func insertPaper(db execer, projectID string, p types.Paper) error {
	authors, err := json.Marshal(p.Authors)
	if err != nil {
		return fmt.Errorf("encoding authors: %w", err)
	}
	countsYear, err := json.Marshal(p.CountsByYear)
	if err != nil {
		return fmt.Errorf("encoding counts by year: %w", err)
	}
	refs, err := json.Marshal(p.ReferencedWorks)
	if err != nil {
		return fmt.Errorf("encoding referenced works: %w", err)
	}
	discovered, err := json.Marshal(p.DiscoveredFrom)
	if err != nil {
		return fmt.Errorf("encoding provenance: %w", err)
	}
	scoreComps := ""
	if p.ScoreComponents != nil {
		data, err := json.Marshal(p.ScoreComponents)
		if err != nil {
			return fmt.Errorf("encoding score components: %w", err)
		}
		scoreComps = string(data)
	}

	_, err = db.Exec(
		`INSERT INTO papers (id, project_id, openalex_id, doi, pmid, title, authors,
			publication_year, type, language, cited_by_count, counts_by_year,
			referenced_works, score, score_components, discovery_method,
			discovered_from, iteration_added, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, projectID, p.OpenAlexID, p.DOI, p.PMID, p.Title, string(authors),
		p.PublicationYear, p.Type, p.Language, p.CitedByCount, string(countsYear),
		string(refs), p.Score, scoreComps, string(p.Method),
		string(discovered), p.IterationAdded, formatTime(p.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrDuplicatePaper, p.OpenAlexID)
		}
		return fmt.Errorf("inserting paper %s: %w", p.OpenAlexID, err)
	}
	return nil
}

func scanPapers(rows *sql.Rows) ([]types.Paper, error) {
	var papers []types.Paper
	for rows.Next() {
		var (
			p          types.Paper
			authors    string
			countsYear string
			refs       string
			scoreComps string
			method     string
			discovered string
			createdAt  string
		)
		err := rows.Scan(&p.ID, &p.OpenAlexID, &p.DOI, &p.PMID, &p.Title, &authors,
			&p.PublicationYear, &p.Type, &p.Language, &p.CitedByCount,
			&countsYear, &refs, &p.Score, &scoreComps, &method, &discovered,
			&p.IterationAdded, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("scanning paper: %w", err)
		}

		if err := decodeJSON(authors, &p.Authors); err != nil {
			return nil, fmt.Errorf("decoding authors: %w", err)
		}
		if err := decodeJSON(countsYear, &p.CountsByYear); err != nil {
			return nil, fmt.Errorf("decoding counts by year: %w", err)
		}
		if err := decodeJSON(refs, &p.ReferencedWorks); err != nil {
			return nil, fmt.Errorf("decoding referenced works: %w", err)
		}
		if scoreComps != "" {
			var b types.ScoreBreakdown
			if err := json.Unmarshal([]byte(scoreComps), &b); err != nil {
				return nil, fmt.Errorf("decoding score components: %w", err)
			}
			p.ScoreComponents = &b
		}
		if err := decodeJSON(discovered, &p.DiscoveredFrom); err != nil {
			return nil, fmt.Errorf("decoding provenance: %w", err)
		}
		p.Method = types.DiscoveryMethod(method)
		p.CreatedAt = parseTime(createdAt)
		papers = append(papers, p)
	}
	return papers, rows.Err()
}

func decodeJSON(data string, v any) error {
	if data == "" || data == "null" {
		return nil
	}
	return json.Unmarshal([]byte(data), v)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// isUniqueViolation reports whether err is a SQLite unique-constraint
// failure.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrConstraint
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
