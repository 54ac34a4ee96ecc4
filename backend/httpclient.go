package backend

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"time"
)

// maxRetries bounds per-backend retry attempts on transient failures.
// A backend that stays down after this many tries is simply skipped in
// favor of the next one in the chain.
const maxRetries = 2

// newHTTPClient builds a client honoring an explicit proxy URL, or
// the HTTP_PROXY/HTTPS_PROXY environment when none is given.
func newHTTPClient(proxy string, timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if proxy != "" {
		if parsed, err := url.Parse(proxy); err == nil {
			transport.Proxy = http.ProxyURL(parsed)
		}
	} else {
		transport.Proxy = http.ProxyFromEnvironment
	}
	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

// doWithRetry performs a request with exponential backoff on network
// errors, 429 and 5xx. newReq must build a fresh request each attempt
// since request bodies are single-use.
func doWithRetry(ctx context.Context, client *http.Client, newReq func() (*http.Request, error)) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			wait := time.Duration(math.Pow(2, float64(attempt-1))) * time.Second
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
		}

		req, err := newReq()
		if err != nil {
			return nil, fmt.Errorf("building request: %w", err)
		}
		req = req.WithContext(ctx)

		resp, err := client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
			continue
		}
		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			if readErr != nil {
				lastErr = fmt.Errorf("reading response: %w", readErr)
				continue
			}
			return body, nil
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			lastErr = fmt.Errorf("status %d: %s", resp.StatusCode, truncate(string(body), 200))
			continue
		default:
			// Auth errors and other 4xx will not get better with
			// retries; fail the backend immediately.
			return nil, fmt.Errorf("status %d: %s", resp.StatusCode, truncate(string(body), 200))
		}
	}
	return nil, lastErr
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
