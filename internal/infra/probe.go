package infra

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ProbeResult carries everything the protection router needs: response
// headers and status of a lightweight request against the target.
type ProbeResult struct {
	StatusCode int
	Headers    http.Header
}

// Prober issues the lightweight reconnaissance request.
type Prober interface {
	Probe(ctx context.Context, target string) (ProbeResult, error)
}

// HTTPProber probes with a plain GET. HEAD would be cheaper but many
// anti-bot frontends answer HEAD differently from GET, which defeats the
// point of the probe.
type HTTPProber struct {
	client *http.Client
}

// NewHTTPProber wires the probe client; timeout defaults to 10s.
func NewHTTPProber(timeout time.Duration) *HTTPProber {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPProber{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			},
			// Challenge pages often live behind redirects; follow them so
			// the headers inspected are the ones a browser would see.
		},
	}
}

// Probe performs the request and returns status plus headers.
func (p *HTTPProber) Probe(ctx context.Context, target string) (ProbeResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return ProbeResult{}, fmt.Errorf("invalid probe target: %v", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36")

	resp, err := p.client.Do(req)
	if err != nil {
		return ProbeResult{}, fmt.Errorf("probe request failed: %v", err)
	}
	resp.Body.Close()

	return ProbeResult{StatusCode: resp.StatusCode, Headers: resp.Header}, nil
}

// IsCloudflare inspects a probe result for the Cloudflare signature:
// either the identifying headers, or a challenge-style status code.
// 403 and 503 are what the JS-challenge and block pages answer with.
func IsCloudflare(res ProbeResult) bool {
	if res.Headers.Get("cf-ray") != "" || res.Headers.Get("cf-cache-status") != "" {
		return true
	}
	if strings.Contains(strings.ToLower(res.Headers.Get("Server")), "cloudflare") {
		return true
	}
	return res.StatusCode == http.StatusForbidden || res.StatusCode == http.StatusServiceUnavailable
}
