package loader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// RetryOption controls a loader's retry behavior, the same shape the
// teacher's subgraph SDL fetcher configures per-attempt timeouts with.
type RetryOption struct {
	MaxAttempts int           `yaml:"max_attempts" default:"3"`
	Backoff     time.Duration `yaml:"backoff"       default:"200ms"`
	Timeout     time.Duration `yaml:"timeout"       default:"5s"`
}

// HiveLoader fetches a composed supergraph SDL from a Hive CDN-compatible
// endpoint, using conditional requests (ETag / If-None-Match) to avoid
// re-downloading an unchanged supergraph.
type HiveLoader struct {
	Endpoint       string
	CDNKey         string
	RouterVersion  string
	HTTPClient     *http.Client
	Retry          RetryOption

	etag string
}

// Load issues a GET against Endpoint with the CDN key header and, if a
// previous ETag is known, If-None-Match. It retries failed attempts with
// exponential backoff up to Retry.MaxAttempts, each attempt bounded by
// Retry.Timeout. Every failure is retried alike: a transport error and any
// status other than 200 or 304 (a 4xx included) count as a failed attempt.
func (h *HiveLoader) Load(ctx context.Context) (Result, error) {
	attempts := h.Retry.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	backoff := h.Retry.Backoff
	if backoff <= 0 {
		backoff = 200 * time.Millisecond
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff * time.Duration(1<<uint(attempt-1))):
			}
		}

		result, err := h.doLoad(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("loader: fetch %s after %d attempt(s): %w", h.Endpoint, attempts, lastErr)
}

func (h *HiveLoader) doLoad(ctx context.Context) (Result, error) {
	timeout := h.Retry.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, h.Endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("loader: build request: %w", err)
	}
	req.Header.Set("x-hive-cdn-key", h.CDNKey)
	req.Header.Set("user-agent", fmt.Sprintf("hive-router/%s", h.RouterVersion))
	if h.etag != "" {
		req.Header.Set("If-None-Match", h.etag)
	}

	client := h.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("loader: request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNotModified:
		return Unchanged{}, nil
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("loader: read response body: %w", err)
		}
		if etag := resp.Header.Get("ETag"); etag != "" {
			h.etag = etag
		}
		return Changed{SDL: string(body)}, nil
	default:
		return nil, fmt.Errorf("loader: unexpected status %d from %s", resp.StatusCode, h.Endpoint)
	}
}
