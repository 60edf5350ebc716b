// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists projects, their paper collections, iteration
// records, and the API response cache in a single SQLite database.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// Store manages the project SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path and ensures the schema
// exists. The parent directory is created if needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS projects (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			config TEXT NOT NULL,
			current_iteration INTEGER NOT NULL DEFAULT 0,
			is_complete INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS papers (
			id TEXT PRIMARY KEY,
			project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
			openalex_id TEXT NOT NULL,
			doi TEXT,
			pmid TEXT,
			title TEXT,
			authors TEXT,
			publication_year INTEGER,
			type TEXT,
			language TEXT,
			cited_by_count INTEGER NOT NULL DEFAULT 0,
			counts_by_year TEXT,
			referenced_works TEXT,
			score REAL NOT NULL DEFAULT 0,
			score_components TEXT,
			discovery_method TEXT NOT NULL,
			discovered_from TEXT,
			iteration_added INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			UNIQUE(project_id, openalex_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_papers_project ON papers(project_id)`,
		`CREATE INDEX IF NOT EXISTS idx_papers_iteration ON papers(project_id, iteration_added)`,
		`CREATE TABLE IF NOT EXISTS iterations (
			id TEXT PRIMARY KEY,
			project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
			iteration_number INTEGER NOT NULL,
			started_at TEXT NOT NULL,
			completed_at TEXT NOT NULL,
			metrics TEXT NOT NULL,
			saturation TEXT NOT NULL,
			UNIQUE(project_id, iteration_number)
		)`,
		`CREATE TABLE IF NOT EXISTS api_cache (
			cache_key TEXT PRIMARY KEY,
			payload BLOB NOT NULL,
			created_at TEXT NOT NULL,
			expires_at TEXT NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}
