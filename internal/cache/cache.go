// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache provides a read-through, single-flight response cache for
// citation API calls. Entries are content-addressed by a normalized request
// descriptor and expire lazily after a TTL.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/url"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultTTL is the default entry lifetime.
const DefaultTTL = 7 * 24 * time.Hour

// Entry is a stored cache record.
type Entry struct {
	// Key is the normalized request key.
	Key string

	// Payload is the raw JSON response body.
	Payload []byte

	CreatedAt time.Time
	ExpiresAt time.Time
}

// Store is the persistence contract for cache entries. Implementations do
// not need to evict expired entries; expiry is checked on read.
type Store interface {
	// GetEntry returns the entry for key, reporting false when absent.
	GetEntry(key string) (Entry, bool, error)

	// PutEntry inserts or replaces the entry for e.Key.
	PutEntry(e Entry) error
}

// Key builds the normalized request key: endpoint plus sorted parameters,
// hashed so keys stay short regardless of filter length.
func Key(endpoint string, params url.Values) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(endpoint)
	for _, k := range keys {
		vs := append([]string(nil), params[k]...)
		sort.Strings(vs)
		for _, v := range vs {
			b.WriteString("&")
			b.WriteString(k)
			b.WriteString("=")
			b.WriteString(v)
		}
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// ResponseCache is a read-through cache with single-flight semantics: for
// any key, at most one upstream fetch is in flight at a time, and
// concurrent callers share its result.
type ResponseCache struct {
	store Store
	ttl   time.Duration
	group singleflight.Group

	// now is replaceable in tests.
	now func() time.Time
}

// New creates a ResponseCache over store. A ttl of 0 selects DefaultTTL.
func New(store Store, ttl time.Duration) *ResponseCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ResponseCache{
		store: store,
		ttl:   ttl,
		now:   time.Now,
	}
}

// GetOrFetch returns the cached payload for key, or runs fetch and caches
// its result. Expired or corrupt entries are treated as misses. Concurrent
// calls for the same key block on the first caller's fetch.
func (c *ResponseCache) GetOrFetch(ctx context.Context, key string, fetch func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	if c == nil || c.store == nil {
		return fetch(ctx)
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		if payload, ok := c.lookup(key); ok {
			return payload, nil
		}

		payload, err := fetch(ctx)
		if err != nil {
			return nil, err
		}

		// A write failure must not fail the fetch; the next read simply
		// misses again.
		_ = c.store.PutEntry(Entry{
			Key:       key,
			Payload:   payload,
			CreatedAt: c.now(),
			ExpiresAt: c.now().Add(c.ttl),
		})
		return payload, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// lookup reads the store, demoting expiry, corruption, and store errors to
// misses.
func (c *ResponseCache) lookup(key string) ([]byte, bool) {
	e, ok, err := c.store.GetEntry(key)
	if err != nil || !ok {
		return nil, false
	}
	if !e.ExpiresAt.After(c.now()) {
		return nil, false
	}
	if !json.Valid(e.Payload) {
		return nil, false
	}
	return e.Payload, true
}
