package fetcher

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	maxBodyBytes = 8 << 20 // 8 MiB cap on scraped pages
)

// StandardFetcher is the plain HTTP path for unprotected targets.
// Certificate verification is disabled on purpose: fraud sites routinely
// run with broken or self-signed TLS, and an investigation must still
// collect content from them.
type StandardFetcher struct {
	client *http.Client
}

// NewStandardFetcher wires an HTTP client; timeout defaults to 20s.
func NewStandardFetcher(timeout time.Duration) *StandardFetcher {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &StandardFetcher{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			},
		},
	}
}

// Fetch downloads the page and extracts its title for case notes.
func (f *StandardFetcher) Fetch(ctx context.Context, target string) (FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return FetchResult{}, fmt.Errorf("invalid target url: %v", err)
	}
	req.Header.Set("User-Agent", defaultUserAgent)
	req.Header.Set("Referer", "https://www.google.com/")

	resp, err := f.client.Do(req)
	if err != nil {
		return FetchResult{}, fmt.Errorf("standard fetch failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return FetchResult{}, fmt.Errorf("standard fetch got HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return FetchResult{}, fmt.Errorf("reading body: %v", err)
	}

	result := FetchResult{HTML: string(body)}
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(result.HTML)); err == nil {
		result.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	return result, nil
}
