package httpapi

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiterRefillsOverTime(t *testing.T) {
	limiter := NewRateLimiter(60)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }
	for i := 0; i < 60; i++ {
		if !limiter.Allow("10.0.0.1") {
			t.Fatalf("request %d should pass within the burst", i)
		}
	}
	if limiter.Allow("10.0.0.1") {
		t.Fatalf("burst exhausted, request should be limited")
	}
	if !limiter.Allow("10.0.0.2") {
		t.Fatalf("other clients have their own bucket")
	}
	now = now.Add(2 * time.Second)
	if !limiter.Allow("10.0.0.1") || !limiter.Allow("10.0.0.1") {
		t.Fatalf("two tokens should be back after two seconds")
	}
	if limiter.Allow("10.0.0.1") {
		t.Fatalf("only two tokens were refilled")
	}
}

func TestRateLimiterDropsIdleBuckets(t *testing.T) {
	limiter := NewRateLimiter(1)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }
	limiter.Allow("a")
	now = now.Add(time.Hour)
	limiter.Allow("b")
	if _, ok := limiter.buckets["a"]; ok {
		t.Fatalf("idle bucket should have been swept")
	}
}

func TestDisabledLimiterPassesThrough(t *testing.T) {
	if NewRateLimiter(0) != nil {
		t.Fatalf("zero rate should disable limiting")
	}
	var limiter *RateLimiter
	if limiter.Middleware(nil) != nil {
		t.Fatalf("nil limiter should return the next handler unchanged")
	}
}

func TestClientIP(t *testing.T) {
	cases := []struct {
		name   string
		header map[string]string
		remote string
		want   string
	}{
		{"remote addr", nil, "192.0.2.10:5555", "192.0.2.10"},
		{"forwarded for", map[string]string{"X-Forwarded-For": "203.0.113.5, 10.0.0.1"}, "10.0.0.1:1", "203.0.113.5"},
		{"real ip", map[string]string{"X-Real-IP": "198.51.100.7"}, "10.0.0.1:1", "198.51.100.7"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tc.remote
			for k, v := range tc.header {
				req.Header.Set(k, v)
			}
			if got := clientIP(req); got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}
