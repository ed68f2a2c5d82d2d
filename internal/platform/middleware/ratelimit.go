package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"pathway/pkg/requestcontext"
)

// Limiter is a sliding-window rate limiter keyed by student ref. The window
// slides over real timestamps, so a burst straddling a window boundary cannot
// double the effective limit.
type Limiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	buckets map[string][]time.Time
}

// NewLimiter builds a limiter allowing limit requests per window per key.
func NewLimiter(limit int, window time.Duration) *Limiter {
	return &Limiter{
		limit:   limit,
		window:  window,
		buckets: make(map[string][]time.Time),
	}
}

// Allow records one request for the key and reports whether it fits the
// window. Returns the remaining budget and when the oldest slot frees up.
func (l *Limiter) Allow(key string, now time.Time) (allowed bool, remaining int, resetAt time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := now.Add(-l.window)
	stamps := l.buckets[key]
	i := 0
	for ; i < len(stamps); i++ {
		if stamps[i].After(cutoff) {
			break
		}
	}
	stamps = stamps[i:]

	if len(stamps) >= l.limit {
		l.buckets[key] = stamps
		return false, 0, stamps[0].Add(l.window)
	}

	stamps = append(stamps, now)
	l.buckets[key] = stamps
	return true, l.limit - len(stamps), stamps[0].Add(l.window)
}

// RateLimit rejects requests over the per-student budget with 429. Runs after
// RequireAuth so the key is the authenticated ref, not a spoofable header.
func RateLimit(limiter *Limiter, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := requestcontext.StudentRef(r.Context()).String()
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			allowed, remaining, resetAt := limiter.Allow(key, time.Now())
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			if !allowed {
				retryAfter := int(time.Until(resetAt).Seconds()) + 1
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				logger.WarnContext(r.Context(), "rate limit exceeded",
					"path", r.URL.Path,
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":"rate_limited","message":"request budget exceeded, retry later"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
