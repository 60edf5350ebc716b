// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/snowball/pkg/types"
)

// ErrProjectNotFound means no project matched the given name or id.
var ErrProjectNotFound = errors.New("project not found")

// ErrProjectExists means a project with the given name already exists.
var ErrProjectExists = errors.New("project already exists")

// CreateProject inserts a new project with the given configuration. The
// configuration is validated before anything is written.
func (s *Store) CreateProject(name string, cfg types.ProjectConfig) (types.Project, error) {
	if err := cfg.Validate(); err != nil {
		return types.Project{}, fmt.Errorf("invalid project config: %w", err)
	}

	now := time.Now().UTC()
	p := types.Project{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
		Config:    cfg,
	}

	cfgJSON, err := json.Marshal(p.Config)
	if err != nil {
		return types.Project{}, fmt.Errorf("encoding config: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO projects (id, name, created_at, updated_at, config, current_iteration, is_complete)
		 VALUES (?, ?, ?, ?, ?, 0, 0)`,
		p.ID, p.Name, formatTime(p.CreatedAt), formatTime(p.UpdatedAt), string(cfgJSON),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return types.Project{}, fmt.Errorf("%w: %s", ErrProjectExists, name)
		}
		return types.Project{}, fmt.Errorf("inserting project: %w", err)
	}
	return p, nil
}

// GetProject loads a project by name.
func (s *Store) GetProject(name string) (types.Project, error) {
	row := s.db.QueryRow(
		`SELECT id, name, created_at, updated_at, config, current_iteration, is_complete
		 FROM projects WHERE name = ?`, name)
	return scanProject(row)
}

// GetProjectByID loads a project by its internal id.
func (s *Store) GetProjectByID(id string) (types.Project, error) {
	row := s.db.QueryRow(
		`SELECT id, name, created_at, updated_at, config, current_iteration, is_complete
		 FROM projects WHERE id = ?`, id)
	return scanProject(row)
}

// ListProjects returns all projects ordered by creation time.
func (s *Store) ListProjects() ([]types.Project, error) {
	rows, err := s.db.Query(
		`SELECT id, name, created_at, updated_at, config, current_iteration, is_complete
		 FROM projects ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	defer rows.Close()

	var projects []types.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// UpdateProject writes the project's mutable fields.
func (s *Store) UpdateProject(p types.Project) error {
	cfgJSON, err := json.Marshal(p.Config)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	res, err := s.db.Exec(
		`UPDATE projects SET updated_at = ?, config = ?, current_iteration = ?, is_complete = ?
		 WHERE id = ?`,
		formatTime(p.UpdatedAt), string(cfgJSON), p.CurrentIteration, boolToInt(p.IsComplete), p.ID)
	if err != nil {
		return fmt.Errorf("updating project: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrProjectNotFound, p.ID)
	}
	return nil
}

// DeleteProject removes a project and, through cascading foreign keys, its
// papers and iteration records.
func (s *Store) DeleteProject(id string) error {
	res, err := s.db.Exec(`DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting project: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrProjectNotFound, id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (types.Project, error) {
	var (
		p          types.Project
		createdAt  string
		updatedAt  string
		cfgJSON    string
		isComplete int
	)
	err := row.Scan(&p.ID, &p.Name, &createdAt, &updatedAt, &cfgJSON, &p.CurrentIteration, &isComplete)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Project{}, ErrProjectNotFound
	}
	if err != nil {
		return types.Project{}, fmt.Errorf("scanning project: %w", err)
	}

	if err := json.Unmarshal([]byte(cfgJSON), &p.Config); err != nil {
		return types.Project{}, fmt.Errorf("decoding config: %w", err)
	}
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
	p.IsComplete = isComplete != 0
	return p, nil
}
