package httpapi

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"hostel-backend-go/internal/services"
)

type tokenBucket struct {
	tokens     float64
	lastRefill time.Time
}

// RateLimiter is a per-client token bucket. Buckets idle for longer than
// expiry are dropped on the next sweep.
type RateLimiter struct {
	mu        sync.Mutex
	rate      float64
	capacity  float64
	expiry    time.Duration
	buckets   map[string]*tokenBucket
	lastSweep time.Time
	now       func() time.Time
}

// NewRateLimiter allows perMinute requests per client with a burst of the
// same size. A non-positive perMinute disables limiting.
func NewRateLimiter(perMinute int) *RateLimiter {
	if perMinute <= 0 {
		return nil
	}
	return &RateLimiter{
		rate:     float64(perMinute) / 60,
		capacity: float64(perMinute),
		expiry:   10 * time.Minute,
		buckets:  map[string]*tokenBucket{},
		now:      time.Now,
	}
}

func (l *RateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	if now.Sub(l.lastSweep) > l.expiry {
		for k, b := range l.buckets {
			if now.Sub(b.lastRefill) > l.expiry {
				delete(l.buckets, k)
			}
		}
		l.lastSweep = now
	}
	bucket, ok := l.buckets[key]
	if !ok {
		bucket = &tokenBucket{tokens: l.capacity, lastRefill: now}
		l.buckets[key] = bucket
	}
	bucket.tokens += now.Sub(bucket.lastRefill).Seconds() * l.rate
	if bucket.tokens > l.capacity {
		bucket.tokens = l.capacity
	}
	bucket.lastRefill = now
	if bucket.tokens < 1 {
		return false
	}
	bucket.tokens--
	return true
}

// Middleware limits by client IP. A nil limiter lets everything through.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	if l == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(clientIP(r)) {
			w.Header().Set("Retry-After", "60")
			writeKind(w, services.ErrRateLimited)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return strings.TrimSpace(realIP)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
