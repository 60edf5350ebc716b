// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pdiddy/snowball/internal/cache"
)

// GetEntry returns the cached API response for key. Implements cache.Store.
func (s *Store) GetEntry(key string) (cache.Entry, bool, error) {
	var (
		e         cache.Entry
		createdAt string
		expiresAt string
	)
	err := s.db.QueryRow(
		`SELECT cache_key, payload, created_at, expires_at FROM api_cache WHERE cache_key = ?`,
		key).Scan(&e.Key, &e.Payload, &createdAt, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return cache.Entry{}, false, nil
	}
	if err != nil {
		return cache.Entry{}, false, fmt.Errorf("reading cache entry: %w", err)
	}
	e.CreatedAt = parseTime(createdAt)
	e.ExpiresAt = parseTime(expiresAt)
	return e, true, nil
}

// PutEntry inserts or replaces a cached API response. Implements
// cache.Store.
func (s *Store) PutEntry(e cache.Entry) error {
	_, err := s.db.Exec(
		`INSERT INTO api_cache (cache_key, payload, created_at, expires_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(cache_key) DO UPDATE SET
			payload=excluded.payload, created_at=excluded.created_at, expires_at=excluded.expires_at`,
		e.Key, e.Payload, formatTime(e.CreatedAt), formatTime(e.ExpiresAt))
	if err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	return nil
}

// PruneCache deletes entries that expired before cutoff and returns the
// number removed.
func (s *Store) PruneCache(cutoff time.Time) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM api_cache WHERE expires_at < ?`, formatTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("pruning cache: %w", err)
	}
	return res.RowsAffected()
}
