package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultGoogleWebURL is the unofficial web-client endpoint used as a
// last-resort fallback when no API-backed service is configured.
const DefaultGoogleWebURL = "https://translate.googleapis.com"

// GoogleWeb scrapes the public translate web endpoint. No key, no
// SLA; keep it at the end of the chain.
type GoogleWeb struct {
	baseURL string
	client  *http.Client
}

// NewGoogleWeb builds the fallback backend. baseURL may be empty to
// use the public endpoint.
func NewGoogleWeb(baseURL, proxy string, timeout time.Duration) *GoogleWeb {
	if baseURL == "" {
		baseURL = DefaultGoogleWebURL
	}
	return &GoogleWeb{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  newHTTPClient(proxy, timeout),
	}
}

func (g *GoogleWeb) Name() string { return "google-web" }

// Attempt translates via GET /translate_a/single?client=gtx.
func (g *GoogleWeb) Attempt(ctx context.Context, text, source, target string) (string, error) {
	q := url.Values{}
	q.Set("client", "gtx")
	q.Set("sl", source)
	q.Set("tl", target)
	q.Set("dt", "t")
	q.Set("q", text)
	endpoint := g.baseURL + "/translate_a/single?" + q.Encode()

	body, err := doWithRetry(ctx, g.client, func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, endpoint, nil)
	})
	if err != nil {
		return "", err
	}
	return parseGoogleWebResponse(body)
}

// parseGoogleWebResponse unpacks the endpoint's nested-array format:
// [[["translated","original",...],...],...]. Multi-sentence input
// comes back as multiple segments that must be concatenated.
func parseGoogleWebResponse(body []byte) (string, error) {
	var payload []any
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("malformed response: %w", err)
	}
	if len(payload) == 0 {
		return "", errors.New("empty response")
	}
	segments, ok := payload[0].([]any)
	if !ok {
		return "", errors.New("unexpected response shape")
	}

	var b strings.Builder
	for _, seg := range segments {
		parts, ok := seg.([]any)
		if !ok || len(parts) == 0 {
			continue
		}
		if s, ok := parts[0].(string); ok {
			b.WriteString(s)
		}
	}
	if b.Len() == 0 {
		return "", errors.New("response carries no translation")
	}
	return b.String(), nil
}
