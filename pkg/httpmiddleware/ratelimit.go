package httpmiddleware

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimitConfig configures the per-client sliding window limiter.
type RateLimitConfig struct {
	// Max requests per Window. Zero disables limiting.
	Max    int
	Window time.Duration
	// KeyFunc identifies the client; defaults to ClientIP.
	KeyFunc func(*http.Request) string
}

// window counts requests in the current fixed window and remembers the
// previous one so the effective count slides between them.
type window struct {
	start time.Time
	curr  float64
	prev  float64
}

type limiter struct {
	max    int
	size   time.Duration
	keyFor func(*http.Request) string

	mu      sync.Mutex
	clients map[string]*window
}

func newLimiter(cfg RateLimitConfig) *limiter {
	keyFor := cfg.KeyFunc
	if keyFor == nil {
		keyFor = ClientIP
	}
	return &limiter{
		max:     cfg.Max,
		size:    cfg.Window,
		keyFor:  keyFor,
		clients: make(map[string]*window),
	}
}

// take consumes one request for key at now. It reports whether the request
// is allowed, how many remain and when the current window ends.
func (l *limiter) take(key string, now time.Time) (ok bool, remaining int, reset time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	start := now.Truncate(l.size)
	w, found := l.clients[key]
	switch {
	case !found:
		w = &window{start: start}
		l.clients[key] = w
	case start.Sub(w.start) >= 2*l.size:
		*w = window{start: start}
	case start.After(w.start):
		*w = window{start: start, prev: w.curr}
	}

	weight := 1 - float64(now.Sub(w.start))/float64(l.size)
	effective := w.prev*weight + w.curr
	reset = w.start.Add(l.size)
	if effective >= float64(l.max) {
		return false, 0, reset
	}
	w.curr++
	remaining = max(0, int(float64(l.max)-effective-1))
	return true, remaining, reset
}

// evict drops clients idle for two full windows.
func (l *limiter) evict(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, w := range l.clients {
		if now.Sub(w.start) >= 2*l.size {
			delete(l.clients, key)
		}
	}
}

func (l *limiter) evictLoop(ctx context.Context) {
	t := time.NewTicker(2 * l.size)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			l.evict(now)
		}
	}
}

// RateLimit limits requests per client and answers 429 with a JSON error
// once the limit is reached. Idle clients are evicted until ctx is done.
func RateLimit(ctx context.Context, cfg RateLimitConfig) Middleware {
	if cfg.Max <= 0 || cfg.Window <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	l := newLimiter(cfg)
	go l.evictLoop(ctx)

	limit := strconv.Itoa(cfg.Max)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			now := time.Now()
			ok, remaining, reset := l.take(l.keyFor(r), now)

			h := w.Header()
			h.Set("X-RateLimit-Limit", limit)
			h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))
			if !ok {
				retry := max(0, reset.Sub(now).Seconds())
				h.Set("Retry-After", strconv.Itoa(int(math.Ceil(retry))))
				WriteError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns the first X-Forwarded-For hop, X-Real-IP, or the host part
// of RemoteAddr.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
