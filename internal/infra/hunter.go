package infra

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/spaolacci/murmur3"
)

// Infrastructure Hunter
//
// Passive enrichment of an investigated domain: current IP, favicon
// fingerprint (the classic Shodan pivot for finding the origin server
// behind a CDN), and certificate-transparency subdomain enumeration via
// crt.sh. Everything here is best-effort; a failed lookup degrades to an
// empty field, never to a failed investigation.

const (
	crtShURL       = "https://crt.sh/?q=%%25.%s&output=json"
	maxFaviconSize = 1 << 20 // ignore "favicons" bigger than 1 MiB
)

// HuntResult is the collected infrastructure fingerprint.
type HuntResult struct {
	Domain      string   `json:"domain"`
	IP          string   `json:"ip,omitempty"`
	FaviconHash int32    `json:"faviconHash,omitempty"`
	ShodanPivot string   `json:"shodanPivot,omitempty"`
	Subdomains  []string `json:"subdomains,omitempty"`
}

// Hunter performs passive infrastructure enrichment.
type Hunter struct {
	client *http.Client
}

// NewHunter wires the enrichment client; timeout defaults to 20s.
func NewHunter(timeout time.Duration) *Hunter {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Hunter{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			},
		},
	}
}

// Hunt gathers every fingerprint it can for the target URL or domain.
func (h *Hunter) Hunt(ctx context.Context, target string) HuntResult {
	domain := hostOf(target)
	result := HuntResult{Domain: domain}

	if ip, err := resolveIP(ctx, domain); err == nil {
		result.IP = ip
	}

	if hash, err := h.FaviconHash(ctx, "https://"+domain); err == nil {
		result.FaviconHash = hash
		result.ShodanPivot = fmt.Sprintf(
			"https://www.shodan.io/search?query=http.favicon.hash%%3A%d", hash)
	}

	if subs, err := h.Subdomains(ctx, domain); err == nil {
		result.Subdomains = subs
	}

	return result
}

func hostOf(target string) string {
	if !strings.Contains(target, "://") {
		target = "https://" + target
	}
	if u, err := url.Parse(target); err == nil && u.Hostname() != "" {
		return strings.ToLower(u.Hostname())
	}
	return strings.ToLower(strings.SplitN(target, "/", 2)[0])
}

func resolveIP(ctx context.Context, domain string) (string, error) {
	addrs, err := net.DefaultResolver.LookupHost(ctx, domain)
	if err != nil || len(addrs) == 0 {
		return "", fmt.Errorf("resolve %s: %v", domain, err)
	}
	return addrs[0], nil
}

// FaviconHash downloads the site favicon and computes the Shodan-style
// fingerprint: murmur3 (32-bit, signed) over the MIME base64 encoding of
// the icon bytes. The icon URL is taken from the page's <link rel=icon>
// when present, falling back to /favicon.ico.
func (h *Hunter) FaviconHash(ctx context.Context, siteURL string) (int32, error) {
	iconURL := siteURL + "/favicon.ico"

	if page, err := h.get(ctx, siteURL); err == nil {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(page))); err == nil {
			doc.Find("link[rel*='icon']").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
				href, ok := sel.Attr("href")
				if !ok || href == "" {
					return true
				}
				base, err := url.Parse(siteURL)
				if err != nil {
					return false
				}
				ref, err := url.Parse(href)
				if err != nil {
					return true
				}
				iconURL = base.ResolveReference(ref).String()
				return false
			})
		}
	}

	icon, err := h.get(ctx, iconURL)
	if err != nil {
		return 0, err
	}
	if len(icon) == 0 || len(icon) > maxFaviconSize {
		return 0, fmt.Errorf("favicon at %s has unusable size %d", iconURL, len(icon))
	}

	return FaviconFingerprint(icon), nil
}

// FaviconFingerprint hashes raw favicon bytes the way the Shodan index
// does: base64 with 76-char line wrapping and a trailing newline (MIME
// style), then signed 32-bit murmur3.
func FaviconFingerprint(icon []byte) int32 {
	encoded := base64.StdEncoding.EncodeToString(icon)

	var wrapped strings.Builder
	for len(encoded) > 76 {
		wrapped.WriteString(encoded[:76])
		wrapped.WriteByte('\n')
		encoded = encoded[76:]
	}
	wrapped.WriteString(encoded)
	wrapped.WriteByte('\n')

	return int32(murmur3.Sum32([]byte(wrapped.String())))
}

type crtShEntry struct {
	NameValue string `json:"name_value"`
}

// Subdomains queries crt.sh certificate transparency logs. Wildcard
// entries are skipped; names are lowercased and deduplicated.
func (h *Hunter) Subdomains(ctx context.Context, domain string) ([]string, error) {
	body, err := h.get(ctx, fmt.Sprintf(crtShURL, domain))
	if err != nil {
		return nil, err
	}

	var entries []crtShEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("crt.sh returned non-JSON for %s: %v", domain, err)
	}

	seen := make(map[string]bool)
	var subs []string
	for _, entry := range entries {
		for _, name := range strings.Split(entry.NameValue, "\n") {
			name = strings.ToLower(strings.TrimSpace(name))
			if name == "" || strings.Contains(name, "*") || seen[name] {
				continue
			}
			seen[name] = true
			subs = append(subs, name)
		}
	}
	return subs, nil
}

func (h *Hunter) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: HTTP %d", rawURL, resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 4<<20))
}
