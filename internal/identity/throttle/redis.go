// Package throttle rejects repeated failed logins for an email before any
// credential comparison happens. The counter is best-effort: when Redis
// is not configured the identity service runs without a throttle, and the
// persistent failed-attempt counter in the credential row still records
// every mismatch.
package throttle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	platformredis "presence/internal/platform/redis"
)

// Redis counts login failures per email with a rolling window TTL.
type Redis struct {
	client *platformredis.Client
	window time.Duration
}

func NewRedis(client *platformredis.Client, window time.Duration) *Redis {
	return &Redis{client: client, window: window}
}

func key(email string) string {
	return "login_failures:" + email
}

// Failures returns the current failure count for the email.
func (t *Redis) Failures(ctx context.Context, email string) (int, error) {
	n, err := t.client.Get(ctx, key(email)).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("get login failures: %w", err)
	}
	return n, nil
}

// RecordFailure increments the counter, starting the window on the first
// failure.
func (t *Redis) RecordFailure(ctx context.Context, email string) error {
	n, err := t.client.Incr(ctx, key(email)).Result()
	if err != nil {
		return fmt.Errorf("record login failure: %w", err)
	}
	if n == 1 {
		if err := t.client.Expire(ctx, key(email), t.window).Err(); err != nil {
			return fmt.Errorf("set login failure window: %w", err)
		}
	}
	return nil
}

// Reset clears the counter after a successful login.
func (t *Redis) Reset(ctx context.Context, email string) error {
	if err := t.client.Del(ctx, key(email)).Err(); err != nil {
		return fmt.Errorf("reset login failures: %w", err)
	}
	return nil
}
