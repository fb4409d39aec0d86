// Package client fetches pages of items from the Voog admin API with
// response caching and error classification.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/voog-pager/pkg/cache"
	"github.com/Sternrassler/voog-pager/pkg/linkheader"
	"github.com/Sternrassler/voog-pager/pkg/logging"
	"github.com/Sternrassler/voog-pager/pkg/urlcodec"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for Voog client operations.
var (
	voogRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voog_requests_total",
		Help: "Total Voog page requests by endpoint and status",
	}, []string{"endpoint", "status"})

	voogRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "voog_request_duration_seconds",
		Help:    "Voog request duration in seconds by endpoint",
		Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	voogErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voog_errors_total",
		Help: "Total Voog fetch errors by class",
	}, []string{"class"})
)

// TotalPagesHeader carries the page count of a listing.
const TotalPagesHeader = "X-Total-Pages"

// Page is one decoded page of API items plus its pagination metadata.
type Page struct {
	Items []json.RawMessage

	// TotalPages is 0 when the header is missing or malformed;
	// TotalPagesValid tells the two apart.
	TotalPages      int
	TotalPagesValid bool

	Links      linkheader.Links
	StatusCode int
	Header     http.Header
	FromCache  bool
}

// Client is the Voog API client.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	cache      cache.Store
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL resolves relative request URLs, e.g. "https://example.voog.com"
	BaseURL string

	// User-Agent header
	UserAgent string

	// Token is sent as X-API-Token when set
	Token string

	// Timeout of a single request; the core enforces none of its own
	Timeout time.Duration

	// Cache stores pages; nil disables caching
	Cache cache.Store

	// HTTPClient overrides the default client (Timeout is then ignored)
	HTTPClient *http.Client
}

// DefaultConfig returns a default configuration for baseURL without caching.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:   baseURL,
		UserAgent: "voog-pager/1.0",
		Timeout:   30 * time.Second,
	}
}

// New creates a new Voog client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}

	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base url must be http or https (got %q)", cfg.BaseURL)
	}

	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("timeout must be >= 0 (got %s)", cfg.Timeout)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    base,
		cache:      cfg.Cache,
		config:     cfg,
		logger:     logging.NewLogger("voog-client"),
	}, nil
}

// Fetch loads one page of items from requestURL, which may be relative to
// the base URL. With useCache false the store is neither read nor written
// and the request asks intermediaries not to serve a cached copy.
//
// Failures are returned as *FetchError and never retried.
func (c *Client) Fetch(ctx context.Context, requestURL string, useCache bool) (*Page, error) {
	ref, err := url.Parse(requestURL)
	if err != nil {
		return nil, &FetchError{Class: ErrorClassClient, Message: "invalid request url", Err: err}
	}
	target := c.baseURL.ResolveReference(ref)
	endpoint := target.Path

	startTime := time.Now()
	defer func() {
		voogRequestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	store := c.cache
	if !useCache {
		store = nil
	}

	// Step 1: Check Cache
	cacheKey := cache.Key{
		Endpoint:    endpoint,
		QueryParams: target.Query(),
	}

	var cachedEntry *cache.Entry
	if store != nil {
		cachedEntry, err = store.Get(ctx, cacheKey)
		if err != nil && !errors.Is(err, cache.ErrCacheMiss) {
			c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Cache get error")
		}
	}

	if cachedEntry != nil && !cachedEntry.IsExpired() {
		c.logger.Debug().
			Str("endpoint", endpoint).
			Dur("ttl", cachedEntry.TTL()).
			Msg("Serving page from cache")
		voogRequestsTotal.WithLabelValues(endpoint, "cache").Inc()
		return c.pageFromEntry(endpoint, cachedEntry)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, &FetchError{Class: ErrorClassClient, Message: "create request", Err: err}
	}

	// Step 2: Conditional request for a stale entry
	if cache.ShouldMakeConditionalRequest(cachedEntry) {
		cache.AddConditionalHeaders(req, cachedEntry)
		cache.ConditionalRequestsSent.Inc()
		c.logger.Debug().
			Str("endpoint", endpoint).
			Str("etag", cachedEntry.ETag).
			Msg("Making conditional request")
	}

	// Step 3: Headers
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")
	if c.config.Token != "" {
		req.Header.Set("X-API-Token", c.config.Token)
	}
	if !useCache {
		req.Header.Set("Cache-Control", "no-cache")
	}

	// Step 4: Execute
	c.logger.Debug().
		Str("endpoint", endpoint).
		Str("url", target.String()).
		Msg("Executing Voog request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("HTTP request failed")
		voogErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		voogRequestsTotal.WithLabelValues(endpoint, "network_error").Inc()
		return nil, &FetchError{Class: ErrorClassNetwork, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	voogRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	// Step 5: 304 Not Modified
	if resp.StatusCode == http.StatusNotModified {
		if cachedEntry == nil {
			return nil, c.statusError(endpoint, resp)
		}

		c.logger.Debug().Str("endpoint", endpoint).Msg("304 Not Modified - using cache")
		cache.NotModifiedResponses.Inc()

		cachedEntry.Expires = cache.ExpiresAt(resp.Header)
		if err := store.UpdateTTL(ctx, cacheKey, cachedEntry.Expires); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to update cache TTL")
		}
		return c.pageFromEntry(endpoint, cachedEntry)
	}

	// Step 6: HTTP errors
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.statusError(endpoint, resp)
	}

	// Step 7: Update cache on success
	var body []byte
	if store != nil && cache.Cacheable(resp) {
		entry, err := cache.ResponseToEntry(resp)
		if err != nil {
			return nil, c.readError(endpoint, resp, err)
		}
		body = entry.Data

		if err := store.Set(ctx, cacheKey, entry); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to cache response")
		} else {
			c.logger.Debug().
				Str("endpoint", endpoint).
				Dur("ttl", entry.TTL()).
				Msg("Cached response")
		}
	} else {
		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return nil, c.readError(endpoint, resp, err)
		}
	}

	return c.newPage(endpoint, resp.StatusCode, resp.Header, body, false)
}

// statusError logs and builds the error for a non-success response.
func (c *Client) statusError(endpoint string, resp *http.Response) error {
	class := classifyStatus(resp.StatusCode)
	voogErrorsTotal.WithLabelValues(string(class)).Inc()

	c.logger.Warn().
		Str("endpoint", endpoint).
		Int("status", resp.StatusCode).
		Str("error_class", string(class)).
		Msg("Voog request error")

	return &FetchError{
		StatusCode: resp.StatusCode,
		Class:      class,
		Message:    resp.Status,
	}
}

func (c *Client) readError(endpoint string, resp *http.Response, err error) error {
	voogErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
	c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Reading response body failed")
	return &FetchError{
		StatusCode: resp.StatusCode,
		Class:      ErrorClassNetwork,
		Message:    "read response body",
		Err:        err,
	}
}

func (c *Client) pageFromEntry(endpoint string, entry *cache.Entry) (*Page, error) {
	return c.newPage(endpoint, entry.StatusCode, entry.Headers, entry.Data, true)
}

// newPage decodes the item array and the pagination headers.
func (c *Client) newPage(endpoint string, status int, header http.Header, body []byte, fromCache bool) (*Page, error) {
	if header == nil {
		header = http.Header{}
	}

	var items []json.RawMessage
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &items); err != nil {
			voogErrorsTotal.WithLabelValues(string(ErrorClassDecode)).Inc()
			c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Response body is not an item array")
			return nil, &FetchError{
				StatusCode: status,
				Class:      ErrorClassDecode,
				Message:    "decode items",
				Err:        err,
			}
		}
	}

	page := &Page{
		Items:      items,
		Links:      linkheader.Parse(header.Get("Link")),
		StatusCode: status,
		Header:     header,
		FromCache:  fromCache,
	}

	if raw := strings.TrimSpace(header.Get(TotalPagesHeader)); raw != "" {
		page.TotalPages, page.TotalPagesValid = urlcodec.ParseInt(raw)
	}
	if !page.TotalPagesValid {
		page.TotalPages = 0
		c.logger.Warn().
			Str("endpoint", endpoint).
			Str("value", header.Get(TotalPagesHeader)).
			Msg("Missing or malformed total pages header")
	}
	if page.TotalPages < 0 {
		page.TotalPages = 0
		page.TotalPagesValid = false
	}

	return page, nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// Cache returns the configured store, nil when caching is off.
func (c *Client) Cache() cache.Store {
	return c.cache
}
