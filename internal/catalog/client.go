// Package catalog provides a client for the public music catalog search API.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/patrickmn/go-cache"

	"github.com/adriencombes74-alt/SoundBoxd-sub000/internal/metrics"
)

const (
	defaultBaseURL = "https://itunes.apple.com"
	userAgent      = "soundboxd/1.0"
)

// ErrUnavailable is returned when the catalog cannot be reached or its response
// is unusable (non-2xx status or unparsable body).
var ErrUnavailable = errors.New("catalog unavailable")

// Config holds catalog client settings.
type Config struct {
	BaseURL  string
	Country  string
	Timeout  time.Duration
	CacheTTL time.Duration
}

// Client is a catalog search client with an in-memory response cache.
// Each call issues at most one HTTP request; there are no retries.
type Client struct {
	httpClient *http.Client
	baseURL    string
	country    string

	// key = request URL
	cache *cache.Cache
}

// NewClient creates a catalog client from cfg, filling in defaults for zero values.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 30 * time.Minute
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		country:    cfg.Country,
		cache:      cache.New(cfg.CacheTTL, 2*cfg.CacheTTL),
	}
}

// Search runs a free-text search. An empty slice (not nil) means no results.
func (c *Client) Search(ctx context.Context, term string, entity Entity, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = 1
	}
	params := url.Values{
		"term":   {term},
		"media":  {"music"},
		"entity": {entity.param()},
		"limit":  {strconv.Itoa(limit)},
	}
	if c.country != "" {
		params.Set("country", c.country)
	}

	results, err := c.get(ctx, "search", params)
	if err != nil {
		return nil, fmt.Errorf("searching catalog: %w", err)
	}
	return results, nil
}

// Lookup fetches an item by id. With a non-empty entity the response also
// includes related items, e.g. the songs of an album.
func (c *Client) Lookup(ctx context.Context, id string, entity Entity) ([]Result, error) {
	params := url.Values{"id": {id}}
	if entity != "" {
		params.Set("entity", entity.param())
	}
	if c.country != "" {
		params.Set("country", c.country)
	}

	results, err := c.get(ctx, "lookup", params)
	if err != nil {
		return nil, fmt.Errorf("looking up catalog item: %w", err)
	}
	return results, nil
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values) ([]Result, error) {
	reqURL := c.baseURL + "/" + endpoint + "?" + params.Encode()

	if cached, ok := c.cache.Get(reqURL); ok {
		metrics.CatalogCacheHits.Inc()
		return cached.([]Result), nil
	}

	start := time.Now()
	body, status, err := c.doRequest(ctx, reqURL)
	metrics.CatalogRequestDuration.WithLabelValues(endpoint, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: parsing %s response: %w", ErrUnavailable, endpoint, err)
	}

	results := resp.Results
	if results == nil {
		results = []Result{}
	}

	c.cache.SetDefault(reqURL, results)
	return results, nil
}

// doRequest performs a single HTTP GET. The returned status is 0 when no response was received.
func (c *Client) doRequest(ctx context.Context, reqURL string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, resp.StatusCode, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("reading response body: %w", err)
	}
	return body, resp.StatusCode, nil
}
