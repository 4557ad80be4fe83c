package srdapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// ResourceRef identifies one resource in a kind listing.
type ResourceRef struct {
	Key  string `json:"index"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// ContentSource lists and fetches raw documents from a content API.
type ContentSource interface {
	// ListResources returns the refs available for one entity kind
	// (e.g. "spells", "classes").
	ListResources(ctx context.Context, kind string) ([]ResourceRef, error)
	// FetchByKey returns the raw document for one resource.
	FetchByKey(ctx context.Context, kind, key string) (json.RawMessage, error)
}

// Transient HTTP statuses worth retrying.
func isTransient(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// Client is the HTTP implementation of ContentSource.
type Client struct {
	baseURL     string
	userAgent   string
	maxRetries  int
	backoffBase time.Duration
	minInterval time.Duration
	httpClient  *http.Client
	lastRequest time.Time
}

// NewClient creates an HTTP content source from the configuration.
func NewClient(cfg Config) *Client {
	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 30
	}
	timeoutDuration := time.Duration(timeout) * time.Second

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   timeoutDuration,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:   true,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: timeoutDuration,
	}

	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		userAgent:   cfg.UserAgent,
		maxRetries:  cfg.MaxRetries,
		backoffBase: time.Duration(cfg.BackoffBaseMillis) * time.Millisecond,
		minInterval: time.Duration(cfg.MinIntervalMillis) * time.Millisecond,
		httpClient: &http.Client{
			Timeout:   timeoutDuration,
			Transport: transport,
		},
	}
}

// ListResources implements ContentSource.
func (c *Client) ListResources(ctx context.Context, kind string) ([]ResourceRef, error) {
	body, err := c.getJSON(ctx, "/api/"+kind)
	if err != nil {
		return nil, err
	}
	var listing struct {
		Count   int           `json:"count"`
		Results []ResourceRef `json:"results"`
	}
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, fmt.Errorf("failed to decode %s listing: %w", kind, err)
	}
	return listing.Results, nil
}

// FetchByKey implements ContentSource.
func (c *Client) FetchByKey(ctx context.Context, kind, key string) (json.RawMessage, error) {
	return c.getJSON(ctx, "/api/"+kind+"/"+key)
}

func (c *Client) getJSON(ctx context.Context, path string) (json.RawMessage, error) {
	c.throttle(ctx)

	var lastErr error
	attempts := c.maxRetries + 1
	if attempts < 1 {
		attempts = 1
	}
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			// Exponential backoff: base * 2^(attempt-1).
			delay := c.backoffBase << (attempt - 1)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		body, status, err := c.doRequest(ctx, path)
		if err != nil {
			lastErr = err
			continue
		}
		if status == http.StatusOK {
			return body, nil
		}
		lastErr = fmt.Errorf("unexpected status %d for %s", status, path)
		if !isTransient(status) {
			return nil, lastErr
		}
	}
	return nil, fmt.Errorf("request failed after %d attempts: %w", attempts, lastErr)
}

func (c *Client) doRequest(ctx context.Context, path string) (json.RawMessage, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build request for %s: %w", path, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request for %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response for %s: %w", path, err)
	}
	c.lastRequest = time.Now()
	return body, resp.StatusCode, nil
}

// throttle enforces the minimum spacing between requests.
func (c *Client) throttle(ctx context.Context) {
	if c.minInterval <= 0 || c.lastRequest.IsZero() {
		return
	}
	elapsed := time.Since(c.lastRequest)
	if elapsed >= c.minInterval {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(c.minInterval - elapsed):
	}
}
