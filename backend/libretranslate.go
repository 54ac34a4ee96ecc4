package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// LibreTranslate talks to a (preferably self-hosted) LibreTranslate
// instance. Public instances exist but are heavily rate-limited.
type LibreTranslate struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewLibreTranslate builds the backend for the given instance URL.
func NewLibreTranslate(baseURL, apiKey, proxy string, timeout time.Duration) *LibreTranslate {
	return &LibreTranslate{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  newHTTPClient(proxy, timeout),
	}
}

func (l *LibreTranslate) Name() string { return "libretranslate" }

// Attempt translates via POST /translate.
func (l *LibreTranslate) Attempt(ctx context.Context, text, source, target string) (string, error) {
	if l.baseURL == "" {
		return "", errors.New("no instance URL configured")
	}

	payload := map[string]string{
		"q":      text,
		"source": source,
		"target": target,
		"format": "text",
	}
	if l.apiKey != "" {
		payload["api_key"] = l.apiKey
	}
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	endpoint := l.baseURL + "/translate"

	body, err := doWithRetry(ctx, l.client, func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodPost, endpoint, bytes.NewReader(reqBody))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return "", err
	}

	var resp struct {
		TranslatedText string `json:"translatedText"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("malformed response: %w", err)
	}
	return resp.TranslatedText, nil
}
