package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func newTestLimiter(t *testing.T, limit int) (*FixedWindowLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	limiter, err := NewFixedWindowLimiter(Options{
		Addr:   mr.Addr(),
		Prefix: "test:ratelimit",
		Limit:  limit,
		Window: time.Minute,
	})
	if err != nil {
		t.Fatalf("new redis limiter: %v", err)
	}
	t.Cleanup(func() { limiter.Close() })
	return limiter, mr
}

func TestFixedWindowLimiter(t *testing.T) {
	limiter, _ := newTestLimiter(t, 2)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := limiter.Allow(ctx, "user-1")
		if err != nil || !ok {
			t.Fatalf("request %d should pass: ok=%v err=%v", i+1, ok, err)
		}
	}
	if ok, _ := limiter.Allow(ctx, "user-1"); ok {
		t.Fatalf("third request should be blocked")
	}
	if ok, _ := limiter.Allow(ctx, "user-2"); !ok {
		t.Fatalf("other keys have their own budget")
	}
}

func TestFixedWindowLimiter_SetsExpiry(t *testing.T) {
	limiter, mr := newTestLimiter(t, 5)
	fixed := time.UnixMilli(120_000)
	limiter.now = func() time.Time { return fixed }

	if _, err := limiter.Allow(context.Background(), "user-1"); err != nil {
		t.Fatalf("Allow() error = %v", err)
	}
	if ttl := mr.TTL("test:ratelimit:user-1:2"); ttl != time.Minute {
		t.Fatalf("TTL = %v, want %v", ttl, time.Minute)
	}
}

func TestFixedWindowLimiter_NewWindowResets(t *testing.T) {
	limiter, _ := newTestLimiter(t, 1)
	now := time.UnixMilli(60_000)
	limiter.now = func() time.Time { return now }
	ctx := context.Background()

	if ok, _ := limiter.Allow(ctx, "k"); !ok {
		t.Fatal("first request should pass")
	}
	if ok, _ := limiter.Allow(ctx, "k"); ok {
		t.Fatal("second request should be blocked")
	}
	now = now.Add(time.Minute)
	if ok, _ := limiter.Allow(ctx, "k"); !ok {
		t.Fatal("request in next window should pass")
	}
}

func TestFixedWindowLimiter_FailClosed(t *testing.T) {
	limiter, mr := newTestLimiter(t, 1)
	mr.Close()

	ok, err := limiter.Allow(context.Background(), "user-1")
	if ok {
		t.Fatalf("limiter should fail closed on redis errors")
	}
	if err == nil {
		t.Fatalf("expected the redis error to be reported")
	}
}

func TestFixedWindowLimiter_RequiresAddr(t *testing.T) {
	limiter, err := NewFixedWindowLimiter(Options{Limit: 1, Window: time.Second})
	if err == nil || limiter != nil {
		t.Fatalf("expected constructor error for empty redis addr")
	}
}

func TestRetryAfter(t *testing.T) {
	limiter, _ := newTestLimiter(t, 1)
	limiter.now = func() time.Time { return time.UnixMilli(60_000 + 45_000) }

	if got := limiter.RetryAfter(); got != 15*time.Second {
		t.Fatalf("RetryAfter() = %v, want 15s", got)
	}
}
