// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package openalex is a rate-limited, retrying client for the OpenAlex
// works API. All requests pass through one shared token bucket and an
// optional read-through response cache, so concurrent expansion tasks
// never exceed the API rate limit or duplicate in-flight calls.
package openalex

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/pdiddy/snowball/internal/cache"
	"github.com/pdiddy/snowball/internal/httputil"
	"github.com/pdiddy/snowball/pkg/types"
)

const (
	// BaseURL is the OpenAlex API base URL.
	BaseURL = "https://api.openalex.org"

	// DefaultRateLimit is requests per second through the shared token
	// bucket, per OpenAlex polite-pool documentation.
	DefaultRateLimit = 10.0

	// DefaultPerPage is the page size for paginated listings.
	DefaultPerPage = 50

	// MaxBatchSize caps how many IDs one batch filter request may carry.
	MaxBatchSize = 50

	// DefaultTimeout is the HTTP request timeout.
	DefaultTimeout = 60 * time.Second
)

// Client fetches works, citations, and author publications from OpenAlex.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      *cache.ResponseCache
	baseURL    string
	identity   string
	maxRetries uint64
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithIdentity sets the polite-pool identity: an email becomes the mailto
// parameter, anything else is sent as api_key.
func WithIdentity(identity string) ClientOption {
	return func(c *Client) {
		c.identity = identity
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithCache routes requests through a read-through response cache.
func WithCache(rc *cache.ResponseCache) ClientOption {
	return func(c *Client) {
		c.cache = rc
	}
}

// WithRateLimit overrides the requests-per-second limit.
func WithRateLimit(rps float64) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithMaxRetries overrides the transient-failure retry budget.
func WithMaxRetries(n uint64) ClientOption {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// NewClient creates an OpenAlex client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(DefaultRateLimit), 1),
		baseURL:    BaseURL,
		maxRetries: httputil.DefaultMaxRetries,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// fetch performs one cached GET against endpoint and returns the raw JSON
// body. 404 maps to ErrNotFound; other client errors become APIError.
func (c *Client) fetch(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	key := cache.Key(endpoint, params)
	return c.cache.GetOrFetch(ctx, key, func(ctx context.Context) ([]byte, error) {
		return c.doRequest(ctx, endpoint, params)
	})
}

func (c *Client) doRequest(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	merged := url.Values{}
	for k, vs := range params {
		merged[k] = vs
	}
	if c.identity != "" {
		if strings.Contains(c.identity, "@") {
			merged.Set("mailto", c.identity)
		} else {
			merged.Set("api_key", c.identity)
		}
	}

	reqURL := c.baseURL + endpoint
	if len(merged) > 0 {
		reqURL += "?" + merged.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := httputil.DoWithRetry(ctx, c.httpClient, c.limiter, req, c.maxRetries)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, endpoint)
	}
	if resp.StatusCode >= 400 {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("HTTP %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return body, nil
}

// GetWork fetches a single work by short OpenAlex ID.
func (c *Client) GetWork(ctx context.Context, workID string) (types.Work, error) {
	body, err := c.fetch(ctx, "/works/"+shortID(workID), url.Values{})
	if err != nil {
		return types.Work{}, err
	}

	var raw workJSON
	if err := json.Unmarshal(body, &raw); err != nil {
		return types.Work{}, fmt.Errorf("%w: parsing work: %v", ErrInvalidResponse, err)
	}
	if raw.ID == "" {
		return types.Work{}, fmt.Errorf("%w: %s", ErrNotFound, workID)
	}
	return raw.toWork(), nil
}

// GetWorkByDOI resolves a DOI to a work. A nil error with a zero-ID work
// never occurs: unresolvable DOIs return ErrNotFound.
func (c *Client) GetWorkByDOI(ctx context.Context, doi string) (types.Work, error) {
	doiURL := "https://doi.org/" + bareDOI(doi)
	return c.GetWork(ctx, url.PathEscape(doiURL))
}

// SearchByTitle returns up to perPage works matching a title search,
// best match first.
func (c *Client) SearchByTitle(ctx context.Context, title string, perPage int) ([]types.Work, error) {
	if perPage <= 0 {
		perPage = 5
	}
	params := url.Values{
		"search":   {title},
		"per_page": {strconv.Itoa(perPage)},
	}
	works, _, err := c.listWorks(ctx, params)
	return works, err
}

// GetCitingWorks returns one page of works citing workID. An empty cursor
// starts at the first page; the returned cursor is empty on the last page.
func (c *Client) GetCitingWorks(ctx context.Context, workID, cursor string) ([]types.Work, string, error) {
	if cursor == "" {
		cursor = "*"
	}
	params := url.Values{
		"filter":   {"cites:" + shortID(workID)},
		"per_page": {strconv.Itoa(DefaultPerPage)},
		"cursor":   {cursor},
	}
	return c.listWorks(ctx, params)
}

// GetAuthorWorks returns one page of works by authorID, newest first.
// A fromYear of 0 leaves the range unbounded.
func (c *Client) GetAuthorWorks(ctx context.Context, authorID string, fromYear int, cursor string) ([]types.Work, string, error) {
	filter := "author.id:" + shortID(authorID)
	if fromYear > 0 {
		filter += fmt.Sprintf(",from_publication_date:%d-01-01", fromYear)
	}
	if cursor == "" {
		cursor = "*"
	}
	params := url.Values{
		"filter":   {filter},
		"per_page": {strconv.Itoa(DefaultPerPage)},
		"sort":     {"publication_date:desc"},
		"cursor":   {cursor},
	}
	return c.listWorks(ctx, params)
}

// GetWorksBatch fetches many works by ID, issuing one filter request per
// chunk of at most MaxBatchSize. A chunk whose batch request fails after
// retries falls back to per-ID fetches so one bad chunk cannot sink the
// rest; unresolvable IDs are skipped.
func (c *Client) GetWorksBatch(ctx context.Context, workIDs []string) ([]types.Work, error) {
	if len(workIDs) == 0 {
		return nil, nil
	}

	var works []types.Work
	for start := 0; start < len(workIDs); start += MaxBatchSize {
		end := start + MaxBatchSize
		if end > len(workIDs) {
			end = len(workIDs)
		}
		chunk := workIDs[start:end]

		urls := make([]string, len(chunk))
		for i, id := range chunk {
			urls[i] = "https://openalex.org/" + shortID(id)
		}
		params := url.Values{
			"filter":   {"ids.openalex:" + strings.Join(urls, "|")},
			"per_page": {strconv.Itoa(len(chunk))},
		}

		page, _, err := c.listWorks(ctx, params)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			recovered, err := c.fetchChunkIndividually(ctx, chunk)
			if err != nil {
				return nil, err
			}
			works = append(works, recovered...)
			continue
		}
		works = append(works, page...)
	}
	return works, nil
}

func (c *Client) fetchChunkIndividually(ctx context.Context, ids []string) ([]types.Work, error) {
	var works []types.Work
	for _, id := range ids {
		w, err := c.GetWork(ctx, id)
		if err != nil {
			if IsNotFound(err) {
				continue
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("fetching %s: %w", id, err)
		}
		works = append(works, w)
	}
	return works, nil
}

// listWorks performs a paginated /works request and returns the page plus
// the next cursor, empty when pagination is done.
func (c *Client) listWorks(ctx context.Context, params url.Values) ([]types.Work, string, error) {
	body, err := c.fetch(ctx, "/works", params)
	if err != nil {
		return nil, "", err
	}

	var resp worksResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, "", fmt.Errorf("%w: parsing works page: %v", ErrInvalidResponse, err)
	}

	works := make([]types.Work, 0, len(resp.Results))
	for _, raw := range resp.Results {
		if raw.ID == "" {
			continue
		}
		works = append(works, raw.toWork())
	}
	return works, resp.Meta.NextCursor, nil
}
