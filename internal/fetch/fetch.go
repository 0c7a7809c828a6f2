// Package fetch pulls remote dataset resources into the local data directory
// ahead of time. It is the ETL collaborator: the query core never calls it,
// it only reads the files fetch leaves behind.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

// APIError represents a non-2xx response from the dataset portal.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("api error: status=%d", e.StatusCode)
}

// Client downloads resources from a data.gov.in-style open data API.
type Client struct {
	httpClient       *http.Client
	apiKey           string
	baseURL          string
	retryMaxAttempts int
	retryBaseDelay   time.Duration
	retryMaxDelay    time.Duration
}

// NewClient builds a Client with the given timeout and retry strategy.
// Zero values fall back to sane defaults.
func NewClient(apiKey string, httpTimeout time.Duration, retryMax int, baseDelay, maxDelay time.Duration) *Client {
	if httpTimeout <= 0 {
		httpTimeout = 60 * time.Second
	}
	if retryMax <= 0 {
		retryMax = 3
	}
	if baseDelay <= 0 {
		baseDelay = 500 * time.Millisecond
	}
	if maxDelay <= 0 {
		maxDelay = 4 * time.Second
	}
	return &Client{
		httpClient:       &http.Client{Timeout: httpTimeout},
		apiKey:           apiKey,
		baseURL:          "https://api.data.gov.in",
		retryMaxAttempts: retryMax,
		retryBaseDelay:   baseDelay,
		retryMaxDelay:    maxDelay,
	}
}

// NewClientWithBaseURL allows injecting a custom base URL (used in tests).
func NewClientWithBaseURL(apiKey string, httpTimeout time.Duration, retryMax int, baseDelay, maxDelay time.Duration, baseURL string) *Client {
	c := NewClient(apiKey, httpTimeout, retryMax, baseDelay, maxDelay)
	if baseURL != "" {
		c.baseURL = baseURL
	}
	return c
}

// Meta reports the outcome of one fetch.
type Meta struct {
	ResourceID string
	DestPath   string
	Bytes      int64
}

// FetchResource downloads a resource as CSV into destDir under destName,
// retrying on 429/5xx and transient network errors with exponential backoff.
func (c *Client) FetchResource(ctx context.Context, resourceID, destDir, destName string) (Meta, error) {
	if c.apiKey == "" {
		return Meta{}, errors.New("data.gov API key is missing")
	}
	if resourceID == "" {
		return Meta{}, errors.New("resource id cannot be empty")
	}
	if destName == "" {
		destName = resourceID + ".csv"
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return Meta{}, fmt.Errorf("mkdir data dir: %w", err)
	}

	endpoint := fmt.Sprintf("%s/resource/%s?%s", c.baseURL, url.PathEscape(resourceID), url.Values{
		"api-key": {c.apiKey},
		"format":  {"csv"},
		"limit":   {"100000"},
	}.Encode())

	backoff := c.retryBaseDelay
	var lastErr error
	for attempt := 1; attempt <= c.retryMaxAttempts; attempt++ {
		if ctx.Err() != nil {
			return Meta{}, ctx.Err()
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return Meta{}, fmt.Errorf("build request: %w", err)
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			if attempt < c.retryMaxAttempts {
				time.Sleep(c.sleepFor(backoff))
				backoff *= 2
				continue
			}
			return Meta{}, fmt.Errorf("http request: %w", err)
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
			resp.Body.Close()
			apiErr := &APIError{StatusCode: resp.StatusCode, Body: string(body)}
			lastErr = apiErr
			if (resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500) && attempt < c.retryMaxAttempts {
				time.Sleep(c.sleepFor(backoff))
				backoff *= 2
				continue
			}
			return Meta{}, apiErr
		}

		dest := filepath.Join(destDir, destName)
		n, err := writeAtomic(dest, resp.Body)
		resp.Body.Close()
		if err != nil {
			return Meta{}, err
		}
		return Meta{ResourceID: resourceID, DestPath: dest, Bytes: n}, nil
	}
	return Meta{}, fmt.Errorf("fetch resource %s: %w", resourceID, lastErr)
}

// sleepFor applies jitter and the configured cap to a backoff delay.
func (c *Client) sleepFor(backoff time.Duration) time.Duration {
	jitter := time.Duration(rand.Int63n(int64(backoff)/5 + 1))
	sleep := backoff + jitter
	if c.retryMaxDelay > 0 && sleep > c.retryMaxDelay {
		sleep = c.retryMaxDelay
	}
	return sleep
}

// writeAtomic streams body to a temp file and renames it into place, so a
// failed download never leaves a truncated CSV for the loaders to find.
func writeAtomic(dest string, body io.Reader) (int64, error) {
	tmp := dest + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	n, err := io.Copy(f, body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return 0, fmt.Errorf("write download: %w", err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		_ = os.Remove(tmp)
		return 0, fmt.Errorf("atomic rename: %w", err)
	}
	return n, nil
}
