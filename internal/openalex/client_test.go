// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package openalex

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/snowball/internal/httputil"
)

func init() {
	// Keep retry backoff out of test runtime.
	httputil.RetryInitialInterval = time.Millisecond
}

// recordingServer captures requests and serves canned responses per path.
type recordingServer struct {
	mu       sync.Mutex
	requests []*http.Request
	handler  http.HandlerFunc
	server   *httptest.Server
}

func newRecordingServer(t *testing.T, handler http.HandlerFunc) *recordingServer {
	t.Helper()
	rs := &recordingServer{handler: handler}
	rs.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rs.mu.Lock()
		clone := r.Clone(context.Background())
		rs.requests = append(rs.requests, clone)
		rs.mu.Unlock()
		rs.handler(w, r)
	}))
	t.Cleanup(rs.server.Close)
	return rs
}

func (rs *recordingServer) count() int {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return len(rs.requests)
}

func testClient(rs *recordingServer, opts ...ClientOption) *Client {
	base := []ClientOption{
		WithBaseURL(rs.server.URL),
		WithRateLimit(10000),
	}
	return NewClient(append(base, opts...)...)
}

func workPayload(id string) map[string]any {
	return map[string]any{
		"id":               "https://openalex.org/" + id,
		"display_name":     "work " + id,
		"publication_year": 2020,
		"cited_by_count":   10,
		"type":             "journal-article",
		"language":         "en",
		"ids": map[string]any{
			"openalex": "https://openalex.org/" + id,
			"doi":      "https://doi.org/10.1000/" + id,
			"pmid":     "https://pubmed.ncbi.nlm.nih.gov/12345",
		},
		"referenced_works": []string{"https://openalex.org/W900"},
		"authorships": []map[string]any{
			{"author": map[string]any{"id": "https://openalex.org/A1", "display_name": "Ada"}},
		},
		"counts_by_year": []map[string]int{
			{"year": 2024, "cited_by_count": 3},
		},
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func TestGetWorkNormalizes(t *testing.T) {
	rs := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/works/W1", r.URL.Path)
		writeJSON(w, workPayload("W1"))
	})

	client := testClient(rs, WithIdentity("user@example.com"))
	work, err := client.GetWork(context.Background(), "https://openalex.org/W1")
	require.NoError(t, err)

	assert.Equal(t, "W1", work.ID, "URL prefix stripped")
	assert.Equal(t, "10.1000/W1", work.DOI, "doi.org prefix stripped")
	assert.Equal(t, "12345", work.PMID)
	assert.Equal(t, "work W1", work.Title)
	assert.Equal(t, []string{"W900"}, work.ReferencedWorks)
	require.Len(t, work.Authors, 1)
	assert.Equal(t, "A1", work.Authors[0].ID)

	assert.Equal(t, "user@example.com", rs.requests[0].URL.Query().Get("mailto"))
}

func TestGetWorkAPIKeyIdentity(t *testing.T) {
	rs := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, workPayload("W1"))
	})

	_, err := testClient(rs, WithIdentity("sk-secret")).GetWork(context.Background(), "W1")
	require.NoError(t, err)

	q := rs.requests[0].URL.Query()
	assert.Equal(t, "sk-secret", q.Get("api_key"))
	assert.Empty(t, q.Get("mailto"))
}

func TestGetWorkNotFound(t *testing.T) {
	rs := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	})

	_, err := testClient(rs).GetWork(context.Background(), "W404")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.True(t, IsNotFound(err))
	assert.Equal(t, 1, rs.count(), "404 is not retried")
}

func TestGetWorkRetriesTransientFailures(t *testing.T) {
	var calls int
	rs := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, workPayload("W1"))
	})

	work, err := testClient(rs).GetWork(context.Background(), "W1")
	require.NoError(t, err)
	assert.Equal(t, "W1", work.ID)
	assert.Equal(t, 3, rs.count())
}

func TestGetWorkRetriesExhausted(t *testing.T) {
	rs := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	})

	_, err := testClient(rs, WithMaxRetries(2)).GetWork(context.Background(), "W1")
	assert.True(t, IsRetryExhausted(err))
	assert.Equal(t, 3, rs.count(), "initial attempt plus two retries")
}

func TestGetCitingWorksCursor(t *testing.T) {
	rs := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"meta":    map[string]any{"next_cursor": "abc"},
			"results": []any{workPayload("W2")},
		})
	})

	works, next, err := testClient(rs).GetCitingWorks(context.Background(), "W1", "")
	require.NoError(t, err)
	require.Len(t, works, 1)
	assert.Equal(t, "abc", next)

	q := rs.requests[0].URL.Query()
	assert.Equal(t, "cites:W1", q.Get("filter"))
	assert.Equal(t, "*", q.Get("cursor"), "empty cursor starts at the first page")
}

func TestGetAuthorWorksFilter(t *testing.T) {
	rs := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"meta": map[string]any{}, "results": []any{}})
	})

	_, _, err := testClient(rs).GetAuthorWorks(context.Background(), "A7", 2000, "")
	require.NoError(t, err)

	q := rs.requests[0].URL.Query()
	assert.Equal(t, "author.id:A7,from_publication_date:2000-01-01", q.Get("filter"))
	assert.Equal(t, "publication_date:desc", q.Get("sort"))
}

func TestGetWorksBatchChunks(t *testing.T) {
	rs := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		filter := r.URL.Query().Get("filter")
		n := strings.Count(filter, "openalex.org/")
		results := make([]any, 0, n)
		for _, u := range strings.Split(strings.TrimPrefix(filter, "ids.openalex:"), "|") {
			results = append(results, workPayload(strings.TrimPrefix(u, "https://openalex.org/")))
		}
		writeJSON(w, map[string]any{"meta": map[string]any{}, "results": results})
	})

	ids := make([]string, 101)
	for i := range ids {
		ids[i] = fmt.Sprintf("W%d", i)
	}

	works, err := testClient(rs).GetWorksBatch(context.Background(), ids)
	require.NoError(t, err)
	assert.Len(t, works, 101)
	require.Equal(t, 3, rs.count(), "101 ids chunk into 50, 50, 1")

	lastFilter := rs.requests[2].URL.Query().Get("filter")
	assert.Equal(t, 1, strings.Count(lastFilter, "openalex.org/"))
}

func TestGetWorksBatchFallsBackPerID(t *testing.T) {
	rs := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/works/W1"):
			writeJSON(w, workPayload("W1"))
		case strings.HasPrefix(r.URL.Path, "/works/W2"):
			http.Error(w, "gone", http.StatusNotFound)
		default:
			// The batch request itself fails hard.
			http.Error(w, "boom", http.StatusInternalServerError)
		}
	})

	works, err := testClient(rs, WithMaxRetries(1)).GetWorksBatch(context.Background(), []string{"W1", "W2"})
	require.NoError(t, err)
	require.Len(t, works, 1, "resolvable ids recovered, missing ids skipped")
	assert.Equal(t, "W1", works[0].ID)
}

func TestSearchByTitle(t *testing.T) {
	rs := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"meta":    map[string]any{},
			"results": []any{workPayload("W5")},
		})
	})

	works, err := testClient(rs).SearchByTitle(context.Background(), "attention is all you need", 1)
	require.NoError(t, err)
	require.Len(t, works, 1)

	q := rs.requests[0].URL.Query()
	assert.Equal(t, "attention is all you need", q.Get("search"))
	assert.Equal(t, "1", q.Get("per_page"))
}

func TestGetWorkInvalidJSON(t *testing.T) {
	rs := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "not json")
	})

	_, err := testClient(rs).GetWork(context.Background(), "W1")
	assert.ErrorIs(t, err, ErrInvalidResponse)
}
