package infra

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHTTPProber_Probe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("Expected GET probe (HEAD is answered differently by anti-bot frontends). Got: %s", r.Method)
		}
		if r.Header.Get("User-Agent") == "" {
			t.Errorf("Expected a browser User-Agent on the probe")
		}
		w.Header().Set("Cf-Ray", "8a1b2c3d4e5f6789-GRU")
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	p := NewHTTPProber(2 * time.Second)
	res, err := p.Probe(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Probe failed: %v", err)
	}

	if res.StatusCode != http.StatusForbidden {
		t.Errorf("Expected 403. Got: %d", res.StatusCode)
	}
	if !IsCloudflare(res) {
		t.Errorf("Expected Cloudflare signature detection")
	}
}

func TestHTTPProber_Unreachable(t *testing.T) {
	p := NewHTTPProber(500 * time.Millisecond)
	if _, err := p.Probe(context.Background(), "http://127.0.0.1:1"); err == nil {
		t.Errorf("Expected error probing a closed port")
	}
}

func TestIsCloudflare(t *testing.T) {
	withHeader := func(k, v string) ProbeResult {
		h := http.Header{}
		h.Set(k, v)
		return ProbeResult{StatusCode: 200, Headers: h}
	}

	if !IsCloudflare(withHeader("Cf-Ray", "x")) {
		t.Errorf("Expected cf-ray header to identify Cloudflare")
	}
	if !IsCloudflare(withHeader("Cf-Cache-Status", "HIT")) {
		t.Errorf("Expected cf-cache-status header to identify Cloudflare")
	}
	if !IsCloudflare(withHeader("Server", "Cloudflare")) {
		t.Errorf("Expected Server header to identify Cloudflare, case-insensitively")
	}
	if !IsCloudflare(ProbeResult{StatusCode: 503, Headers: http.Header{}}) {
		t.Errorf("Expected challenge-style 503 to count as protected")
	}
	if IsCloudflare(withHeader("Server", "nginx")) {
		t.Errorf("Expected plain nginx 200 to count as unprotected")
	}
}
