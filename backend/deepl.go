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

// DefaultDeepLURL is the free-tier API endpoint; paid keys use
// api.deepl.com via the url override.
const DefaultDeepLURL = "https://api-free.deepl.com"

// DeepL is the preferred translation backend when an API key is
// configured.
type DeepL struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewDeepL builds the DeepL backend. baseURL may be empty to use the
// free-tier endpoint.
func NewDeepL(baseURL, apiKey, proxy string, timeout time.Duration) *DeepL {
	if baseURL == "" {
		baseURL = DefaultDeepLURL
	}
	return &DeepL{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  newHTTPClient(proxy, timeout),
	}
}

func (d *DeepL) Name() string { return "deepl" }

// Attempt translates via POST /v2/translate.
func (d *DeepL) Attempt(ctx context.Context, text, source, target string) (string, error) {
	if d.apiKey == "" {
		return "", errors.New("no API key configured")
	}

	form := url.Values{}
	form.Set("text", text)
	form.Set("source_lang", strings.ToUpper(source))
	form.Set("target_lang", strings.ToUpper(target))
	endpoint := d.baseURL + "/v2/translate"

	body, err := doWithRetry(ctx, d.client, func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodPost, endpoint, strings.NewReader(form.Encode()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Authorization", "DeepL-Auth-Key "+d.apiKey)
		return req, nil
	})
	if err != nil {
		return "", err
	}

	var resp struct {
		Translations []struct {
			Text string `json:"text"`
		} `json:"translations"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("malformed response: %w", err)
	}
	if len(resp.Translations) == 0 {
		return "", errors.New("response carries no translations")
	}
	return resp.Translations[0].Text, nil
}
