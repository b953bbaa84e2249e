// apps/party-server/internal/ratelimit/ratelimit.go
//
// Keyed request limiter shared by the HTTP API (keyed by client IP) and the
// WebSocket gateway (keyed by connection). A window/max pair such as
// "100 requests per 15 minutes" is turned into a token bucket that refills at
// max/window and allows bursts of max.

package ratelimit

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Config describes the allowance per key.
type Config struct {
	Window          time.Duration
	Max             int
	EntryTTL        time.Duration
	CleanupInterval time.Duration
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter hands out one token bucket per key and forgets idle keys.
type Limiter struct {
	limit rate.Limit
	burst int
	ttl   time.Duration

	mu      sync.Mutex
	entries map[string]*limiterEntry
	now     func() time.Time

	quit     chan struct{}
	stopOnce sync.Once
}

// New builds a Limiter and starts its cleanup loop. Call Stop to release it.
func New(cfg Config) *Limiter {
	if cfg.Max <= 0 {
		cfg.Max = 1
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Second
	}
	if cfg.EntryTTL <= 0 {
		cfg.EntryTTL = cfg.Window
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = time.Minute
	}
	l := &Limiter{
		limit:   rate.Limit(float64(cfg.Max) / cfg.Window.Seconds()),
		burst:   cfg.Max,
		ttl:     cfg.EntryTTL,
		entries: make(map[string]*limiterEntry),
		now:     time.Now,
		quit:    make(chan struct{}),
	}
	go l.cleanupLoop(cfg.CleanupInterval)
	return l
}

// Allow reports whether key may proceed, consuming one token if so.
func (l *Limiter) Allow(key string) bool {
	if key == "" {
		key = "__unknown__"
	}
	now := l.now()

	l.mu.Lock()
	entry, ok := l.entries[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.entries[key] = entry
	}
	entry.lastSeen = now
	lim := entry.limiter
	l.mu.Unlock()

	return lim.AllowN(now, 1)
}

// Forget drops the bucket for key, e.g. when a connection closes.
func (l *Limiter) Forget(key string) {
	l.mu.Lock()
	delete(l.entries, key)
	l.mu.Unlock()
}

// Stop ends the cleanup loop. It is safe to call more than once.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.quit) })
}

// Middleware rejects requests over the per-IP allowance with 429.
// It expects chi's RealIP middleware (or equivalent) to have run first.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow("ip:" + clientIP(r)) {
			w.Header().Set("Retry-After", "60")
			http.Error(w, `{"error":"too_many_requests"}`, http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (l *Limiter) cleanupLoop(every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()

	for {
		select {
		case <-t.C:
			l.cleanup()
		case <-l.quit:
			return
		}
	}
}

func (l *Limiter) cleanup() {
	threshold := l.now().Add(-l.ttl)

	l.mu.Lock()
	for k, v := range l.entries {
		if v.lastSeen.Before(threshold) {
			delete(l.entries, k)
		}
	}
	l.mu.Unlock()
}

func (l *Limiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// clientIP extracts the host part of RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
