package ratelimit

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter hands out one token bucket per client key.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	every   rate.Limit
	burst   int
	maxKeys int
}

// PerMinute allows n requests per minute per key, with a burst of n.
func PerMinute(n int) *Limiter {
	if n < 1 {
		n = 1
	}
	return &Limiter{
		buckets: make(map[string]*rate.Limiter),
		every:   rate.Limit(float64(n) / time.Minute.Seconds()),
		burst:   n,
		maxKeys: 10000,
	}
}

func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	b, ok := l.buckets[key]
	if !ok {
		if len(l.buckets) >= l.maxKeys {
			l.buckets = make(map[string]*rate.Limiter)
		}
		b = rate.NewLimiter(l.every, l.burst)
		l.buckets[key] = b
	}
	l.mu.Unlock()
	return b.Allow()
}

// KeyFunc picks the bucket for a request.
type KeyFunc func(*http.Request) string

// ClientIP keys by the remote host.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Middleware rejects requests over the limit with 429.
func (l *Limiter) Middleware(key KeyFunc) func(http.Handler) http.Handler {
	retry := strconv.Itoa(int(time.Minute.Seconds()) / l.burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow(key(r)) {
				w.Header().Set("Retry-After", retry)
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
