package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Returns {count, pttl}. The key expires with its window.
var windowCounter = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {count, redis.call("PTTL", KEYS[1])}
`)

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed   bool
	Remaining int
	// RetryAfter is how long until the current window resets. Zero when unknown.
	RetryAfter time.Duration
}

// Limiter decides whether a keyed request is within quota.
type Limiter interface {
	Allow(ctx context.Context, key string) Decision
}

// FixedWindowLimiter counts requests per key in Redis so every server
// instance shares the same quota.
type FixedWindowLimiter struct {
	client  *redis.Client
	prefix  string
	limit   int
	window  time.Duration
	timeout time.Duration
}

// NewFixedWindowLimiter builds a limiter on a shared client. Closing the
// client stays with the caller.
func NewFixedWindowLimiter(client *redis.Client, prefix string, limit int, window time.Duration) (*FixedWindowLimiter, error) {
	switch {
	case client == nil:
		return nil, errors.New("rate limiter requires a redis client")
	case limit <= 0:
		return nil, fmt.Errorf("rate limit must be positive, got %d", limit)
	case window < time.Millisecond:
		return nil, fmt.Errorf("rate limit window too short: %s", window)
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "nutritrack:ratelimit"
	}
	return &FixedWindowLimiter{
		client:  client,
		prefix:  prefix,
		limit:   limit,
		window:  window,
		timeout: 2 * time.Second,
	}, nil
}

func (l *FixedWindowLimiter) key(key string, now time.Time) string {
	key = strings.TrimSpace(key)
	if key == "" {
		key = "unknown"
	}
	slot := now.UnixMilli() / l.window.Milliseconds()
	return fmt.Sprintf("%s:%s:%d", l.prefix, key, slot)
}

// Allow counts one request against key. Redis errors deny the request.
func (l *FixedWindowLimiter) Allow(ctx context.Context, key string) Decision {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	res, err := windowCounter.Run(ctx, l.client, []string{l.key(key, time.Now().UTC())}, l.window.Milliseconds()).Int64Slice()
	if err != nil || len(res) != 2 {
		return Decision{}
	}
	count, pttl := res[0], res[1]

	d := Decision{Allowed: count <= int64(l.limit)}
	if remaining := int64(l.limit) - count; remaining > 0 {
		d.Remaining = int(remaining)
	}
	if pttl > 0 {
		d.RetryAfter = time.Duration(pttl) * time.Millisecond
	}
	return d
}

// Unlimited admits everything. Used when no Redis is configured.
type Unlimited struct{}

func (Unlimited) Allow(context.Context, string) Decision {
	return Decision{Allowed: true, Remaining: -1}
}
