// tpcanvas - TP timetable to Canvas calendar synchronization
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
client.go - Resilient REST client

Shared HTTP foundation for the TP and Canvas clients. It provides bounded
retry with linear backoff and transparent Link-header pagination. Both
remote APIs throttle with 403/429 and advertise next pages via
`Link: <url>; rel="next"`.
*/

package rest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"tpcanvas/internal/logging"
	"tpcanvas/internal/metrics"
)

// maxRetries is the number of retries after the initial attempt.
const maxRetries = 5

// defaultRetryDelay is the base backoff unit. The delay before retry k is
// k times this value: linear, not exponential, matching the throttle
// windows of both upstream APIs.
const defaultRetryDelay = 3 * time.Second

// Client is a resilient HTTP client bound to one remote API.
type Client struct {
	baseURL    string
	headers    map[string]string
	httpClient *http.Client
	retryDelay time.Duration
	target     string
}

// Option configures a Client.
type Option func(*Client)

// WithHeader adds a header sent on every request (authentication, typically).
func WithHeader(key, value string) Option {
	return func(c *Client) {
		c.headers[key] = value
	}
}

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithRetryDelay overrides the base backoff unit. Tests use this to avoid
// multi-second sleeps.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) {
		c.retryDelay = d
	}
}

// WithTarget names the remote API for metrics and log fields.
func WithTarget(name string) Option {
	return func(c *Client) {
		c.target = name
	}
}

// New creates a Client for the given base URL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		headers:    make(map[string]string),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		retryDelay: defaultRetryDelay,
		target:     "api",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Response holds a decoded-enough HTTP response: the raw body plus the
// headers needed for pagination.
type Response struct {
	Status int
	Body   []byte
	Header http.Header
}

// Do issues one HTTP request with the retry policy applied and returns the
// response on any 2xx status.
//
// Retried: connection-level failures, status >= 500, and the throttle
// statuses 429 and 403. Any other 4xx propagates immediately as *HTTPError.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body any) (*Response, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			metrics.HTTPRetries.WithLabelValues(c.target).Inc()
			logging.Debug().
				Str("target", c.target).
				Str("path", path).
				Int("retry", attempt).
				Msg("retrying request")
			if err := sleepCtx(ctx, time.Duration(attempt)*c.retryDelay); err != nil {
				return nil, err
			}
		}

		resp, err := c.doOnce(ctx, method, path, query, payload)
		if err != nil {
			// Connection-level failure: retryable.
			lastErr = &TransportError{Err: err}
			continue
		}

		if resp.Status >= 200 && resp.Status < 300 {
			return resp, nil
		}

		httpErr := &HTTPError{Status: resp.Status, Body: resp.Body}
		if !retryableStatus(resp.Status) {
			return nil, httpErr
		}
		lastErr = httpErr
	}
	return nil, lastErr
}

func (c *Client) doOnce(ctx context.Context, method, path string, query url.Values, payload []byte) (*Response, error) {
	fullURL := c.resolve(path)
	if len(query) > 0 {
		sep := "?"
		if strings.Contains(fullURL, "?") {
			sep = "&"
		}
		fullURL += sep + query.Encode()
	}

	var bodyReader io.Reader = http.NoBody
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	return &Response{
		Status: resp.StatusCode,
		Body:   respBody,
		Header: resp.Header,
	}, nil
}

// resolve joins path onto the base URL. Absolute URLs pass through
// untouched so that pagination next-links can be followed directly.
func (c *Client) resolve(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return c.baseURL + "/" + strings.TrimPrefix(path, "/")
}

func retryableStatus(status int) bool {
	return status >= 500 ||
		status == http.StatusTooManyRequests ||
		status == http.StatusForbidden
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

// GetJSON issues a GET and decodes the JSON response into out.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, out any) error {
	resp, err := c.Do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	return decodeBody(resp.Body, out)
}

// PostJSON issues a POST with a JSON body and decodes the response into out.
func (c *Client) PostJSON(ctx context.Context, path string, body, out any) (*Response, error) {
	resp, err := c.Do(ctx, http.MethodPost, path, nil, body)
	if err != nil {
		return nil, err
	}
	if out != nil {
		if err := decodeBody(resp.Body, out); err != nil {
			return nil, err
		}
	}
	return resp, nil
}

// Delete issues a DELETE.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, http.MethodDelete, path, nil, nil)
}

func decodeBody(body []byte, out any) error {
	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response body: %w", err)
	}
	return nil
}

// GetPaginated issues a GET and follows rel="next" links, returning one raw
// JSON document per page, in order. An absent or malformed Link header ends
// the sequence; it is never an error.
func (c *Client) GetPaginated(ctx context.Context, path string, query url.Values) ([][]byte, error) {
	var pages [][]byte

	resp, err := c.Do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return nil, err
	}
	pages = append(pages, resp.Body)

	for next := nextLink(resp.Header); next != ""; next = nextLink(resp.Header) {
		resp, err = c.Do(ctx, http.MethodGet, next, nil, nil)
		if err != nil {
			return nil, err
		}
		pages = append(pages, resp.Body)
	}
	return pages, nil
}

// linkRe matches one entry of an RFC 8288 style Link header, e.g.
// <https://host/api?page=2>; rel="next"
var linkRe = regexp.MustCompile(`<([^>]+)>\s*;\s*rel="([a-zA-Z]+)"`)

// nextLink extracts the rel="next" URL from a Link header, or "" when no
// next page is advertised or the header cannot be parsed.
func nextLink(header http.Header) string {
	link := header.Get("Link")
	if link == "" {
		return ""
	}
	for _, match := range linkRe.FindAllStringSubmatch(link, -1) {
		if strings.EqualFold(match[2], "next") {
			return match[1]
		}
	}
	return ""
}
