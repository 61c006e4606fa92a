package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

func TestKeyByUserOrIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = net.JoinHostPort("203.0.113.9", "12345")
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = req

	if key := KeyByUserOrIP()(c); key != "ip:203.0.113.9" {
		t.Fatalf("expected ip-based key; got %q", key)
	}
	c.Set(userIDKey, "u123")
	if key := KeyByUserOrIP()(c); key != "user:u123" {
		t.Fatalf("expected user-based key; got %q", key)
	}
}

func TestNewRateLimiter_DefaultsAndReuse(t *testing.T) {
	rl := NewRateLimiter(2.0, 0, nil)
	if rl.burst != 1 || rl.keyFn == nil {
		t.Fatalf("defaults not applied: burst=%d", rl.burst)
	}
	lim := rl.limiterFor("k1")
	if got := rl.limiterFor("k1"); got != lim {
		t.Fatalf("expected the same limiter to be reused")
	}
}

func TestRateLimiter_SweepsIdleBuckets(t *testing.T) {
	rl := NewRateLimiter(1.0, 1, nil)
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return clock }
	rl.sweepAt = 3

	old := rl.limiterFor("old")
	rl.limiterFor("fresh")

	clock = clock.Add(rl.ttl)
	// third lookup triggers the sweep before "old" is touched
	if got := rl.limiterFor("old"); got == old {
		t.Fatalf("idle bucket should have been evicted and recreated")
	}
	rl.mu.Lock()
	_, freshKept := rl.visitors["fresh"]
	rl.mu.Unlock()
	if freshKept {
		t.Fatalf("fresh bucket idle for ttl should be evicted too")
	}
}

func TestRetryAfter(t *testing.T) {
	cases := map[rate.Limit]int{0: 1, rate.Inf: 1, 10: 1, 1: 1, 0.5: 2, 0.1: 10}
	for rps, want := range cases {
		if got := retryAfter(rps); got != want {
			t.Fatalf("retryAfter(%v) = %d, want %d", rps, got, want)
		}
	}
}

func TestRateLimiter_Handler_AllowDenyAndBypass(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewRateLimiter(0.5, 1, func(*gin.Context) string { return "same" })

	r := gin.New()
	r.Use(RequestID())
	r.Use(func(c *gin.Context) {
		if c.GetHeader("X-Replay") != "" {
			c.Set(ctxKeyRateBypass, true)
		}
		c.Next()
	})
	r.Use(rl.Handler())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("first request should pass, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second request should be limited, got %d", w.Code)
	}
	if w.Header().Get("Retry-After") != "2" {
		t.Fatalf("Retry-After = %q", w.Header().Get("Retry-After"))
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body["code"] != "rate_limited" || body["request_id"] == "" {
		t.Fatalf("unexpected body %q (err=%v)", w.Body.String(), err)
	}

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Replay", "1")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || strings.Contains(w.Body.String(), "rate_limited") {
		t.Fatalf("replays must bypass the limiter, got %d", w.Code)
	}
}
