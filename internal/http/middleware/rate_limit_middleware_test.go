package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func doRequest(handler http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestLocalLimiterEnforcesWindow(t *testing.T) {
	handler := NewRateLimiter(NewLocalFixedWindowLimiter(), 2, time.Minute, FailClosed, "test").
		Middleware()(okHandler())

	for i := 0; i < 2; i++ {
		if rec := doRequest(handler, "10.0.0.1:1234"); rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, rec.Code)
		}
	}

	rec := doRequest(handler, "10.0.0.1:1234")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}
	if code := errorCode(t, rec.Body.Bytes()); code != "RATE_LIMITED" {
		t.Fatalf("expected RATE_LIMITED, got %q", code)
	}
}

func TestLocalLimiterKeysByClientIP(t *testing.T) {
	handler := NewRateLimiter(NewLocalFixedWindowLimiter(), 1, time.Minute, FailClosed, "test").
		Middleware()(okHandler())

	if rec := doRequest(handler, "10.0.0.1:1234"); rec.Code != http.StatusOK {
		t.Fatalf("first client: expected 200, got %d", rec.Code)
	}
	if rec := doRequest(handler, "10.0.0.1:9999"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("same ip different port: expected 429, got %d", rec.Code)
	}
	if rec := doRequest(handler, "10.0.0.2:1234"); rec.Code != http.StatusOK {
		t.Fatalf("other client: expected 200, got %d", rec.Code)
	}
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string, int, time.Duration) (bool, time.Duration, error) {
	return false, 0, errors.New("backend down")
}

func TestRateLimiterFailureModes(t *testing.T) {
	open := NewRateLimiter(failingLimiter{}, 1, time.Minute, FailOpen, "test").
		Middleware()(okHandler())
	if rec := doRequest(open, "10.0.0.1:1234"); rec.Code != http.StatusOK {
		t.Fatalf("fail open: expected 200, got %d", rec.Code)
	}

	closed := NewRateLimiter(failingLimiter{}, 1, time.Minute, FailClosed, "test").
		Middleware()(okHandler())
	if rec := doRequest(closed, "10.0.0.1:1234"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("fail closed: expected 429, got %d", rec.Code)
	}
}

func TestRedisLimiterFixedWindow(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	limiter := NewRedisFixedWindowLimiter(client, "test_rate")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, _, err := limiter.Allow(ctx, "k", 3, time.Minute)
		if err != nil || !allowed {
			t.Fatalf("request %d: expected allowed, got %v %v", i+1, allowed, err)
		}
	}

	allowed, retryAfter, err := limiter.Allow(ctx, "k", 3, time.Minute)
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if allowed {
		t.Fatal("expected limit exceeded")
	}
	if retryAfter <= 0 || retryAfter > time.Minute {
		t.Fatalf("unexpected retry-after: %v", retryAfter)
	}

	// A fresh window admits requests again.
	mr.FastForward(2 * time.Minute)
	allowed, _, err = limiter.Allow(ctx, "k", 3, time.Minute)
	if err != nil || !allowed {
		t.Fatalf("expected new window allowed, got %v %v", allowed, err)
	}
}

func TestRedisLimiterSeparateKeys(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	limiter := NewRedisFixedWindowLimiter(client, "test_rate")
	ctx := context.Background()

	if allowed, _, err := limiter.Allow(ctx, "a", 1, time.Minute); err != nil || !allowed {
		t.Fatalf("key a: %v %v", allowed, err)
	}
	if allowed, _, _ := limiter.Allow(ctx, "a", 1, time.Minute); allowed {
		t.Fatal("key a should be exhausted")
	}
	if allowed, _, err := limiter.Allow(ctx, "b", 1, time.Minute); err != nil || !allowed {
		t.Fatalf("key b must have its own window: %v %v", allowed, err)
	}
}
