// Package ratelimit provides per-client fixed-window admission control.
//
// DESIGN: Each client identifier owns a bucket {count, resetAt}. The first
// request of a window opens a bucket with count=1; later requests are refused
// once count reaches the limit, with a Retry-After derived from resetAt.
// The Limiter is an owned component: it is constructed at server start,
// evicts expired buckets in the background, and is stopped at shutdown.
package ratelimit

import (
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/subdash/assistant-gateway/internal/config"
)

// UnknownClient is the shared identifier for requests without client headers.
const UnknownClient = "unknown"

// Config holds rate limiter configuration.
type Config struct {
	Limit           int
	Window          time.Duration
	CleanupInterval time.Duration
	MaxBuckets      int

	// Now overrides the clock (tests).
	Now func() time.Time
}

// DefaultConfig returns the gateway defaults: 60 requests per 60s.
func DefaultConfig() Config {
	return Config{
		Limit:           config.DefaultRateLimit,
		Window:          config.DefaultRateWindow,
		CleanupInterval: config.DefaultCleanupInterval,
		MaxBuckets:      config.MaxRateLimitBuckets,
	}
}

// FromConfig adapts the gateway config section.
func FromConfig(c config.RateLimitConfig) Config {
	return Config{
		Limit:           c.Limit,
		Window:          c.Window,
		CleanupInterval: c.CleanupInterval,
		MaxBuckets:      c.MaxBuckets,
	}
}

// Decision is the outcome of one admission.
type Decision struct {
	Allowed bool
	// RetryAfter is whole seconds until the window resets; zero when allowed.
	RetryAfter int
}

type bucket struct {
	count   int
	resetAt time.Time
}

// Limiter admits requests per client identifier.
type Limiter struct {
	mu           sync.Mutex
	buckets      map[string]*bucket
	stopCleanup  chan struct{}
	shutdownOnce sync.Once

	limit           int
	window          time.Duration
	cleanupInterval time.Duration
	maxBuckets      int
	now             func() time.Time
}

// New creates a limiter and starts its cleanup goroutine.
func New(cfg Config) *Limiter {
	def := DefaultConfig()
	if cfg.Limit <= 0 {
		cfg.Limit = def.Limit
	}
	if cfg.Window <= 0 {
		cfg.Window = def.Window
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = def.CleanupInterval
	}
	if cfg.MaxBuckets <= 0 {
		cfg.MaxBuckets = def.MaxBuckets
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	l := &Limiter{
		buckets:         make(map[string]*bucket),
		stopCleanup:     make(chan struct{}),
		limit:           cfg.Limit,
		window:          cfg.Window,
		cleanupInterval: cfg.CleanupInterval,
		maxBuckets:      cfg.MaxBuckets,
		now:             cfg.Now,
	}
	go l.startCleanup()
	return l
}

// Admit counts one request for clientID.
func (l *Limiter) Admit(clientID string) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if _, ok := l.buckets[clientID]; !ok && len(l.buckets) >= l.maxBuckets {
		l.evictExpiredLocked(now)
		if len(l.buckets) >= l.maxBuckets {
			// Table is full of live windows: share the sentinel bucket.
			clientID = UnknownClient
		}
	}

	b, ok := l.buckets[clientID]
	if !ok || !now.Before(b.resetAt) {
		l.buckets[clientID] = &bucket{count: 1, resetAt: now.Add(l.window)}
		return Decision{Allowed: true}
	}

	if b.count >= l.limit {
		return Decision{Allowed: false, RetryAfter: retryAfter(b.resetAt.Sub(now))}
	}
	b.count++
	return Decision{Allowed: true}
}

func retryAfter(d time.Duration) int {
	secs := int(math.Ceil(d.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return secs
}

// startCleanup runs periodic cleanup to remove expired buckets.
func (l *Limiter) startCleanup() {
	ticker := time.NewTicker(l.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.Sweep()
		case <-l.stopCleanup:
			return
		}
	}
}

// Sweep removes buckets whose window has elapsed and returns how many were removed.
func (l *Limiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.evictExpiredLocked(l.now())
}

func (l *Limiter) evictExpiredLocked(now time.Time) int {
	removed := 0
	for id, b := range l.buckets {
		if !now.Before(b.resetAt) {
			delete(l.buckets, id)
			removed++
		}
	}
	return removed
}

// Buckets returns the number of tracked client buckets.
func (l *Limiter) Buckets() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// Stop shuts down the cleanup goroutine. Safe to call more than once.
func (l *Limiter) Stop() {
	l.shutdownOnce.Do(func() {
		close(l.stopCleanup)
	})
}

// Middleware refuses requests over the limit through onLimit.
func (l *Limiter) Middleware(onLimit func(http.ResponseWriter, *http.Request, Decision)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if d := l.Admit(ClientID(r)); !d.Allowed {
				onLimit(w, r, d)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
