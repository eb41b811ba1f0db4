// Package ratelimit limits how often one caller may hit the expensive
// upstream endpoints (favicon, screenshot, generate).
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var fixedWindowScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return count
`)

// FixedWindowLimiter allows limit hits per key per window, counted in Redis
// so that every replica shares the budget.
type FixedWindowLimiter struct {
	limit   int
	window  time.Duration
	timeout time.Duration

	client *redis.Client
	prefix string
	now    func() time.Time
}

type Options struct {
	Addr     string
	Password string
	Prefix   string
	Limit    int
	Window   time.Duration
	Timeout  time.Duration // per Redis round trip; default 2s
}

func NewFixedWindowLimiter(opts Options) (*FixedWindowLimiter, error) {
	if opts.Limit <= 0 || opts.Window <= 0 {
		return nil, errors.New("rate limiter requires positive limit and window")
	}
	addr := strings.TrimSpace(opts.Addr)
	if addr == "" {
		return nil, errors.New("rate limiter redis addr is required")
	}
	prefix := strings.TrimSpace(opts.Prefix)
	if prefix == "" {
		prefix = "altdir:rl"
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &FixedWindowLimiter{
		limit:   opts.Limit,
		window:  opts.Window,
		timeout: timeout,
		client: redis.NewClient(&redis.Options{
			Addr:        addr,
			Password:    opts.Password,
			DialTimeout: timeout,
		}),
		prefix: prefix,
		now:    time.Now,
	}, nil
}

// Allow reports whether key is within quota for the current window.
// On Redis failures it fails closed and returns false with the error.
func (l *FixedWindowLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if l == nil {
		return false, errors.New("rate limiter is nil")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		key = "unknown"
	}

	windowMs := l.window.Milliseconds()
	slot := l.now().UTC().UnixMilli() / windowMs
	redisKey := fmt.Sprintf("%s:%s:%d", l.prefix, key, slot)

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()
	count, err := fixedWindowScript.Run(ctx, l.client, []string{redisKey}, windowMs).Int64()
	if err != nil {
		return false, fmt.Errorf("ratelimit: %w", err)
	}
	return count <= int64(l.limit), nil
}

// RetryAfter is how long until the current window closes.
func (l *FixedWindowLimiter) RetryAfter() time.Duration {
	windowMs := l.window.Milliseconds()
	elapsed := l.now().UTC().UnixMilli() % windowMs
	return time.Duration(windowMs-elapsed) * time.Millisecond
}

func (l *FixedWindowLimiter) Close() error {
	return l.client.Close()
}
