package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter is a Redis-backed fixed-window rate limiter keyed per user, so
// the budget holds across replicas.
type Limiter struct {
	rdb     *redis.Client
	maxReqs int
	window  time.Duration
}

func NewLimiter(rdb *redis.Client, maxRequests int, window time.Duration) *Limiter {
	if maxRequests <= 0 {
		maxRequests = 100
	}
	if window <= 0 {
		window = time.Minute
	}
	return &Limiter{rdb: rdb, maxReqs: maxRequests, window: window}
}

// Allow records one request for the user and reports whether it fits the
// current window. Unidentified callers are not limited here; they are
// rejected by authentication instead.
func (l *Limiter) Allow(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return true, nil
	}

	key := fmt.Sprintf("ratelimit:%s:%d", userID, time.Now().Unix()/int64(l.window.Seconds()))

	count, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to increment rate limit counter: %w", err)
	}
	if count == 1 {
		// First hit in the window owns the expiry.
		if err := l.rdb.Expire(ctx, key, l.window).Err(); err != nil {
			return false, fmt.Errorf("failed to set rate limit expiry: %w", err)
		}
	}

	return count <= int64(l.maxReqs), nil
}
