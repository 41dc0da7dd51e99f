package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestStandardFetcher_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Referer") == "" {
			t.Errorf("Expected a Referer header on scrape requests")
		}
		fmt.Fprint(w, `<html><head><title> Cassino Premiado </title></head><body>conteudo</body></html>`)
	}))
	defer srv.Close()

	f := NewStandardFetcher(2 * time.Second)
	res, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if res.Title != "Cassino Premiado" {
		t.Errorf("Expected trimmed page title. Got: %q", res.Title)
	}
	if res.HTML == "" {
		t.Errorf("Expected page HTML on the result")
	}
	if res.ScreenshotPath != "" {
		t.Errorf("Standard path never produces a screenshot. Got: %q", res.ScreenshotPath)
	}
}

func TestStandardFetcher_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "blocked", http.StatusForbidden)
	}))
	defer srv.Close()

	f := NewStandardFetcher(2 * time.Second)
	if _, err := f.Fetch(context.Background(), srv.URL); err == nil {
		t.Errorf("Expected error on HTTP 403")
	}
}

func TestStealthFetcher_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/render" {
			t.Errorf("Expected POST /render. Got: %s", r.URL.Path)
		}
		var req struct {
			URL string `json:"url"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
			t.Errorf("Expected a url field in the render request")
		}
		json.NewEncoder(w).Encode(map[string]string{
			"html":            "<html>rendered</html>",
			"screenshot_path": "/tmp/evidence/shot.png",
		})
	}))
	defer srv.Close()

	f := NewStealthFetcher(srv.URL, 2*time.Second)
	res, err := f.Fetch(context.Background(), "https://protected.example")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if res.HTML != "<html>rendered</html>" {
		t.Errorf("Unexpected HTML: %q", res.HTML)
	}
	if res.ScreenshotPath != "/tmp/evidence/shot.png" {
		t.Errorf("Expected screenshot path from the sidecar. Got: %q", res.ScreenshotPath)
	}
}

func TestStealthFetcher_SidecarError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"error": "navigation timeout"})
	}))
	defer srv.Close()

	f := NewStealthFetcher(srv.URL, 2*time.Second)
	if _, err := f.Fetch(context.Background(), "https://protected.example"); err == nil {
		t.Errorf("Expected sidecar error to surface")
	}
}

func TestStealthFetcher_Unconfigured(t *testing.T) {
	f := NewStealthFetcher("", 0)
	if _, err := f.Fetch(context.Background(), "https://protected.example"); err == nil {
		t.Errorf("Expected error when no browser endpoint is configured")
	}
}
