// Package kustomer is a thin client for the Kustomer REST and search APIs:
// authentication, retry with backoff, rate limiting and pagination. All
// record interpretation happens downstream in the aggregation.
package kustomer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/casper12340/Kustomer-Agent-Performance-Tool-Copy/internal/metrics"
	"github.com/casper12340/Kustomer-Agent-Performance-Tool-Copy/internal/record"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Options configures a Client.
type Options struct {
	BaseURL           string
	APIKey            string
	PageSize          int
	MaxRetries        int
	Timeout           time.Duration
	RequestsPerSecond float64
}

// Client talks to the Kustomer API.
type Client struct {
	baseURL    string
	apiKey     string
	pageSize   int
	maxRetries int
	httpClient *http.Client
	limiter    *rate.Limiter
	metrics    *metrics.Metrics
	logger     zerolog.Logger

	// sleep is swapped out in tests to avoid real backoff waits.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient creates a Kustomer API client.
func NewClient(opts Options, logger zerolog.Logger) *Client {
	if opts.PageSize <= 0 {
		opts.PageSize = 1000
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 40 * time.Second
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 5
	}

	return &Client{
		baseURL:    strings.TrimSuffix(opts.BaseURL, "/"),
		apiKey:     opts.APIKey,
		pageSize:   opts.PageSize,
		maxRetries: opts.MaxRetries,
		httpClient: &http.Client{Timeout: opts.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1),
		metrics:    metrics.Get(),
		logger:     logger.With().Str("component", "kustomer").Logger(),
		sleep:      sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// retryable status codes: rate limiting and transient upstream failures.
func isRetryable(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// doRequest performs one HTTP request with exponential backoff on 429 and
// transient 5xx responses. Any other status >= 400 is a hard error.
func (c *Client) doRequest(ctx context.Context, method, url string, body []byte) ([]byte, error) {
	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return nil, fmt.Errorf("failed to build request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%s %s failed: %w", method, url, err)
		}

		payload, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode < 400 {
			if readErr != nil {
				return nil, fmt.Errorf("failed to read response body: %w", readErr)
			}
			return payload, nil
		}

		if isRetryable(resp.StatusCode) && attempt < c.maxRetries {
			wait := time.Duration(1<<(attempt+1)) * time.Second
			c.metrics.RecordRequestRetry()
			c.logger.Warn().
				Int("status", resp.StatusCode).
				Int("attempt", attempt+1).
				Int("max_retries", c.maxRetries).
				Dur("wait", wait).
				Str("url", url).
				Msg("retrying request")
			if err := c.sleep(ctx, wait); err != nil {
				return nil, err
			}
			continue
		}

		return nil, fmt.Errorf("%s %s returned %d: %s", method, url, resp.StatusCode, truncate(string(payload), 400))
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

type searchResponse struct {
	Data []record.Record `json:"data"`
	Meta struct {
		TotalPages int `json:"totalPages"`
	} `json:"meta"`
}

// search pages through POST /v1/customers/search for one query body.
func (c *Client) search(ctx context.Context, body map[string]any) ([]record.Record, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode search body: %w", err)
	}

	var results []record.Record
	page := 1
	totalPages := 1
	for page <= totalPages {
		url := fmt.Sprintf("%s/v1/customers/search?page=%d&pageSize=%d", c.baseURL, page, c.pageSize)
		payload, err := c.doRequest(ctx, http.MethodPost, url, encoded)
		if err != nil {
			return nil, err
		}

		var resp searchResponse
		if err := json.Unmarshal(payload, &resp); err != nil {
			return nil, fmt.Errorf("failed to decode search response: %w", err)
		}

		results = append(results, resp.Data...)
		c.metrics.RecordPageFetched()
		if resp.Meta.TotalPages > 0 {
			totalPages = resp.Meta.TotalPages
		}
		page++
	}
	return results, nil
}

// SearchRange fetches all events for a stream over the inclusive date
// range, splitting each day into two 12-hour windows to keep page counts
// small on busy days.
func (c *Client) SearchRange(ctx context.Context, stream Stream, start, end time.Time, timeZone string) ([]record.Record, error) {
	var results []record.Record

	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		windows := [2][2]string{
			{day.Format("2006-01-02") + "T00:00:00Z", day.Format("2006-01-02") + "T11:59:59Z"},
			{day.Format("2006-01-02") + "T12:00:00Z", day.Format("2006-01-02") + "T23:59:59Z"},
		}
		for _, w := range windows {
			body := stream.body(w[0], w[1], timeZone)
			events, err := c.search(ctx, body)
			if err != nil {
				return nil, fmt.Errorf("stream %s window %s: %w", stream.Name, w[0], err)
			}
			results = append(results, events...)
		}
	}

	c.logger.Info().
		Str("stream", stream.Name).
		Int("events", len(results)).
		Msg("stream fetched")

	return results, nil
}

type listResponse struct {
	Data []record.Record `json:"data"`
	Next string          `json:"next"`
}

// list walks a GET collection endpoint via its next link.
func (c *Client) list(ctx context.Context, path string) ([]record.Record, error) {
	url := c.baseURL + path
	var results []record.Record

	for url != "" {
		payload, err := c.doRequest(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}

		var resp listResponse
		if err := json.Unmarshal(payload, &resp); err != nil {
			return nil, fmt.Errorf("failed to decode list response: %w", err)
		}

		results = append(results, resp.Data...)
		c.metrics.RecordPageFetched()

		switch {
		case resp.Next == "":
			url = ""
		case strings.HasPrefix(resp.Next, "/"):
			url = c.baseURL + resp.Next
		default:
			url = resp.Next
		}
	}
	return results, nil
}

// Users fetches the full user collection.
func (c *Client) Users(ctx context.Context) ([]record.Record, error) {
	return c.list(ctx, "/v1/users?page=1&size=9000")
}

// Teams fetches the full team collection.
func (c *Client) Teams(ctx context.Context) ([]record.Record, error) {
	return c.list(ctx, "/v1/teams?page=1&size=9000")
}
