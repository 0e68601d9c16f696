// Package omdb is a client for the OMDb movie catalog REST API.
package omdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/reelist/reelist/internal/metrics"
	"github.com/reelist/reelist/internal/model"
)

// DefaultBaseURL is the public OMDb endpoint.
const DefaultBaseURL = "https://www.omdbapi.com"

// maxBodySize caps how much of a catalog response is read.
const maxBodySize = 1 << 20

var (
	// ErrNotFound is returned when the catalog has no entry for an ID.
	ErrNotFound = errors.New("movie not found")
	// ErrUpstream is returned for transport failures and catalog-side errors.
	ErrUpstream = errors.New("movie catalog unavailable")
)

// Catalog messages that mean "no results" rather than failure.
var emptyResultMessages = []string{
	"movie not found!",
	"too many results.",
	"series or episode not found!",
}

// Config configures a Client.
type Config struct {
	BaseURL    string
	APIKey     string
	RPS        float64
	Burst      int
	Timeout    time.Duration
	HTTPClient *http.Client
	Recorder   metrics.Recorder
}

// Client talks to the catalog with an outbound rate limit.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	metrics    metrics.Recorder
}

// New creates a Client. Zero values in cfg fall back to defaults.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = newHTTPClient(cfg.Timeout)
	}
	if cfg.Recorder == nil {
		cfg.Recorder = metrics.NewNoop()
	}

	limit := rate.Inf
	if cfg.RPS > 0 {
		limit = rate.Limit(cfg.RPS)
	}
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: cfg.HTTPClient,
		limiter:    rate.NewLimiter(limit, cfg.Burst),
		metrics:    cfg.Recorder,
	}
}

func newHTTPClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   3 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   3 * time.Second,
		ResponseHeaderTimeout: timeout,
		MaxIdleConns:          50,
		MaxIdleConnsPerHost:   16,
		IdleConnTimeout:       90 * time.Second,
	}
	return &http.Client{Transport: transport, Timeout: timeout}
}

// envelope carries the fields every catalog response shares.
type envelope struct {
	Response string `json:"Response"`
	Error    string `json:"Error"`
}

type searchResponse struct {
	envelope
	Search       []model.MovieSummary `json:"Search"`
	TotalResults string               `json:"totalResults"`
}

type movieResponse struct {
	envelope
	model.Movie
}

// Search looks up titles matching query. A catalog "no results" answer
// yields an empty result rather than an error.
func (c *Client) Search(ctx context.Context, query string, page int) (*model.SearchResult, error) {
	if page < 1 {
		page = 1
	}

	params := url.Values{}
	params.Set("s", query)
	params.Set("page", strconv.Itoa(page))

	var resp searchResponse
	if err := c.get(ctx, params, &resp); err != nil {
		return nil, err
	}

	result := &model.SearchResult{
		Query:  query,
		Page:   page,
		Movies: []model.MovieSummary{},
	}

	if !strings.EqualFold(resp.Response, "True") {
		if isEmptyResult(resp.Error) {
			c.metrics.IncCatalogRequest("empty")
			return result, nil
		}
		c.metrics.IncCatalogRequest("error")
		return nil, fmt.Errorf("%w: %s", ErrUpstream, resp.Error)
	}

	total, _ := strconv.Atoi(resp.TotalResults)
	result.TotalResults = total
	if resp.Search != nil {
		result.Movies = resp.Search
	}

	c.metrics.IncCatalogRequest("ok")
	return result, nil
}

// Movie fetches full details for a single external ID.
func (c *Client) Movie(ctx context.Context, id string) (*model.Movie, error) {
	params := url.Values{}
	params.Set("i", id)
	params.Set("plot", "short")

	var resp movieResponse
	if err := c.get(ctx, params, &resp); err != nil {
		return nil, err
	}

	if !strings.EqualFold(resp.Response, "True") {
		if isNotFound(resp.Error) {
			c.metrics.IncCatalogRequest("not_found")
			return nil, ErrNotFound
		}
		c.metrics.IncCatalogRequest("error")
		return nil, fmt.Errorf("%w: %s", ErrUpstream, resp.Error)
	}

	c.metrics.IncCatalogRequest("ok")
	movie := resp.Movie
	return &movie, nil
}

// get performs a rate-limited GET and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: rate limiter: %v", ErrUpstream, err)
	}

	params.Set("apikey", c.apiKey)
	params.Set("r", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.ObserveCatalogDuration(time.Since(start))
	if err != nil {
		c.metrics.IncCatalogRequest("error")
		// The URL carries the API key; report only the underlying cause.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return fmt.Errorf("%w: request failed: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		c.metrics.IncCatalogRequest("error")
		return fmt.Errorf("%w: failed to read response: %v", ErrUpstream, err)
	}

	// OMDb answers 401 with a JSON envelope for a bad key; anything else non-2xx is a failure.
	if resp.StatusCode >= 500 || (resp.StatusCode >= 300 && resp.StatusCode != http.StatusUnauthorized) {
		c.metrics.IncCatalogRequest("error")
		return fmt.Errorf("%w: unexpected status %d", ErrUpstream, resp.StatusCode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		c.metrics.IncCatalogRequest("error")
		return fmt.Errorf("%w: invalid response body: %v", ErrUpstream, err)
	}

	return nil
}

func isEmptyResult(msg string) bool {
	msg = strings.ToLower(strings.TrimSpace(msg))
	for _, m := range emptyResultMessages {
		if msg == m {
			return true
		}
	}
	return false
}

func isNotFound(msg string) bool {
	msg = strings.ToLower(strings.TrimSpace(msg))
	return msg == "incorrect imdb id." || msg == "error getting data." || isEmptyResult(msg)
}
