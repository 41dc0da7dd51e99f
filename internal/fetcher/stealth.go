package fetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// StealthFetcher delegates to a headless-browser sidecar (anti-bot
// fingerprint evasion lives there, not in this engine). The sidecar
// exposes a single render endpoint:
//
//	POST {endpoint}/render  {"url": "..."}
//	→ {"html": "...", "screenshot_path": "...", "error": "..."}
//
// It is the only fetch path that produces a visual artifact.
type StealthFetcher struct {
	endpoint string
	client   *http.Client
}

// NewStealthFetcher points at the sidecar base URL. Rendering a protected
// page involves a real browser, so the timeout default is generous (90s).
func NewStealthFetcher(endpoint string, timeout time.Duration) *StealthFetcher {
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &StealthFetcher{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

type renderRequest struct {
	URL string `json:"url"`
}

type renderResponse struct {
	HTML           string `json:"html"`
	ScreenshotPath string `json:"screenshot_path"`
	Error          string `json:"error"`
}

// Fetch renders the target through the browser sidecar.
func (f *StealthFetcher) Fetch(ctx context.Context, target string) (FetchResult, error) {
	if f.endpoint == "" {
		return FetchResult{}, fmt.Errorf("stealth fetcher not configured (no browser endpoint)")
	}

	payload, err := json.Marshal(renderRequest{URL: target})
	if err != nil {
		return FetchResult{}, fmt.Errorf("encoding render request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		f.endpoint+"/render", bytes.NewReader(payload))
	if err != nil {
		return FetchResult{}, fmt.Errorf("building render request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return FetchResult{}, fmt.Errorf("stealth fetch failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return FetchResult{}, fmt.Errorf("browser sidecar returned HTTP %d", resp.StatusCode)
	}

	var rendered renderResponse
	if err := json.NewDecoder(resp.Body).Decode(&rendered); err != nil {
		return FetchResult{}, fmt.Errorf("decoding render response: %v", err)
	}
	if rendered.Error != "" {
		return FetchResult{}, fmt.Errorf("browser sidecar error: %s", rendered.Error)
	}

	return FetchResult{
		HTML:           rendered.HTML,
		ScreenshotPath: rendered.ScreenshotPath,
	}, nil
}
