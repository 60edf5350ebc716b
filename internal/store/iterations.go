// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pdiddy/snowball/pkg/types"
)

// AppendIteration commits an iteration's admitted papers and its record in
// one transaction. A duplicate paper or iteration number rolls the whole
// batch back, so the collection never holds papers without the record that
// admitted them.
func (s *Store) AppendIteration(ctx context.Context, projectID string, papers []types.Paper, rec types.IterationRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, p := range papers {
		if err := insertPaper(tx, projectID, p); err != nil {
			return err
		}
	}

	metrics, err := json.Marshal(rec.Metrics)
	if err != nil {
		return fmt.Errorf("encoding metrics: %w", err)
	}
	saturation, err := json.Marshal(rec.Saturation)
	if err != nil {
		return fmt.Errorf("encoding saturation: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO iterations (id, project_id, iteration_number, started_at, completed_at, metrics, saturation)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, projectID, rec.Metrics.IterationNumber,
		formatTime(rec.StartedAt), formatTime(rec.CompletedAt),
		string(metrics), string(saturation))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("iteration %d already recorded: %w", rec.Metrics.IterationNumber, err)
		}
		return fmt.Errorf("inserting iteration record: %w", err)
	}

	return tx.Commit()
}

// LastIteration returns the highest-numbered iteration record for the
// project. The second return is false when no iteration has run yet.
func (s *Store) LastIteration(projectID string) (types.IterationRecord, bool, error) {
	row := s.db.QueryRow(
		`SELECT id, project_id, started_at, completed_at, metrics, saturation
		 FROM iterations WHERE project_id = ?
		 ORDER BY iteration_number DESC LIMIT 1`, projectID)

	rec, err := scanIteration(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.IterationRecord{}, false, nil
	}
	if err != nil {
		return types.IterationRecord{}, false, err
	}
	return rec, true, nil
}

// Iterations returns every iteration record for the project in order.
func (s *Store) Iterations(projectID string) ([]types.IterationRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, project_id, started_at, completed_at, metrics, saturation
		 FROM iterations WHERE project_id = ? ORDER BY iteration_number`, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing iterations: %w", err)
	}
	defer rows.Close()

	var recs []types.IterationRecord
	for rows.Next() {
		rec, err := scanIteration(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func scanIteration(row rowScanner) (types.IterationRecord, error) {
	var (
		rec         types.IterationRecord
		startedAt   string
		completedAt string
		metrics     string
		saturation  string
	)
	err := row.Scan(&rec.ID, &rec.ProjectID, &startedAt, &completedAt, &metrics, &saturation)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.IterationRecord{}, err
		}
		return types.IterationRecord{}, fmt.Errorf("scanning iteration: %w", err)
	}

	if err := json.Unmarshal([]byte(metrics), &rec.Metrics); err != nil {
		return types.IterationRecord{}, fmt.Errorf("decoding metrics: %w", err)
	}
	if err := json.Unmarshal([]byte(saturation), &rec.Saturation); err != nil {
		return types.IterationRecord{}, fmt.Errorf("decoding saturation: %w", err)
	}
	rec.StartedAt = parseTime(startedAt)
	rec.CompletedAt = parseTime(completedAt)
	return rec, nil
}
