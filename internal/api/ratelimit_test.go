package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestRateLimiter_BurstExhaustion(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rl := NewRateLimiter(60, 3)
	r := gin.New()
	r.Use(rl.Middleware())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	// The burst allows 3 immediate requests from one IP.
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("Request %d within burst rejected with %d", i+1, w.Code)
		}
	}

	// The fourth is throttled and told when to come back.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	r.ServeHTTP(w, req)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("Expected 429 after burst exhaustion. Got: %d", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Errorf("Expected a Retry-After header on throttled responses")
	}

	// A different IP has its own bucket.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("Expected a fresh bucket per IP. Got: %d", w.Code)
	}
}
