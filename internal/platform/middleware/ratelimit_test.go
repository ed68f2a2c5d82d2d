package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pathway/pkg/testutil"
)

func TestLimiter_AllowsUpToLimit(t *testing.T) {
	limiter := NewLimiter(3, time.Minute)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		allowed, _, _ := limiter.Allow("student-a", now)
		require.True(t, allowed, "request %d should fit the budget", i+1)
	}

	allowed, remaining, resetAt := limiter.Allow("student-a", now)
	assert.False(t, allowed)
	assert.Zero(t, remaining)
	assert.Equal(t, now.Add(time.Minute), resetAt)
}

func TestLimiter_KeysAreIndependent(t *testing.T) {
	limiter := NewLimiter(1, time.Minute)
	now := time.Now()

	allowed, _, _ := limiter.Allow("student-a", now)
	require.True(t, allowed)
	allowed, _, _ = limiter.Allow("student-b", now)
	assert.True(t, allowed)
}

func TestLimiter_WindowSlides(t *testing.T) {
	limiter := NewLimiter(2, time.Minute)
	start := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	allowed, _, _ := limiter.Allow("student-a", start)
	require.True(t, allowed)
	allowed, _, _ = limiter.Allow("student-a", start.Add(30*time.Second))
	require.True(t, allowed)

	allowed, _, _ = limiter.Allow("student-a", start.Add(45*time.Second))
	require.False(t, allowed)

	// The first slot ages out, the second is still inside the window.
	allowed, remaining, _ := limiter.Allow("student-a", start.Add(70*time.Second))
	assert.True(t, allowed)
	assert.Zero(t, remaining)
}

func TestRateLimitMiddleware_Returns429OverBudget(t *testing.T) {
	limiter := NewLimiter(1, time.Minute)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ref := strings.Repeat("ab", 32)

	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := RateLimit(limiter, logger)(next)

	do := func() *httptest.ResponseRecorder {
		req := testutil.WithStudentRef(httptest.NewRequest(http.MethodPost, "/v1/events", nil), ref)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	first := do()
	require.Equal(t, http.StatusOK, first.Code)

	second := do()
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.NotEmpty(t, second.Header().Get("Retry-After"))
	assert.Contains(t, second.Body.String(), "rate_limited")
}

func TestRateLimitMiddleware_SkipsUnauthenticatedRequests(t *testing.T) {
	limiter := NewLimiter(1, time.Minute)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := RateLimit(limiter, logger)(next)

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	}
}
