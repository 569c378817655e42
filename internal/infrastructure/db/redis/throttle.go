package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultMaxAttempts = 5
	defaultWindow      = 15 * time.Minute
)

// LoginThrottle counts login attempts per username in a fixed window. A
// successful login resets the count, so it tracks consecutive failures.
// Key format: login:failures:<lowercased username>
type LoginThrottle struct {
	client      *redis.Client
	maxAttempts int
	window      time.Duration
}

// NewLoginThrottle wraps client. Non-positive limits fall back to 5 attempts
// per 15 minutes.
func NewLoginThrottle(client *redis.Client, maxAttempts int, window time.Duration) *LoginThrottle {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	if window <= 0 {
		window = defaultWindow
	}
	return &LoginThrottle{client: client, maxAttempts: maxAttempts, window: window}
}

// Attempt counts a login attempt for username and reports whether it is
// within the limit. The counter is incremented before it is compared, in one
// MULTI block. The window starts at the first attempt; INCR keeps the TTL.
func (t *LoginThrottle) Attempt(ctx context.Context, username string) (bool, error) {
	key := t.key(username)
	pipe := t.client.TxPipeline()
	pipe.SetNX(ctx, key, 0, t.window)
	incr := pipe.Incr(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("throttle attempt: %w", err)
	}
	return incr.Val() <= int64(t.maxAttempts), nil
}

// Reset clears the counter after a successful login.
func (t *LoginThrottle) Reset(ctx context.Context, username string) error {
	return t.client.Del(ctx, t.key(username)).Err()
}

func (t *LoginThrottle) key(username string) string {
	return "login:failures:" + strings.ToLower(username)
}
