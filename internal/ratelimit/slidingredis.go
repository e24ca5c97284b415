package ratelimit

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Decision is the outcome of one limiter check.
type Decision struct {
	Allowed   bool
	Remaining int
	// ResetAt is when the oldest counted request leaves the window.
	ResetAt time.Time
}

// Limiter is a sliding window limiter over Redis sorted sets. Each route group
// and client pair owns one set whose members are request timestamps.
type Limiter struct {
	Client redis.UniversalClient
	Prefix string
	// Now defaults to time.Now.
	Now func() time.Time
}

func (l Limiter) now() time.Time {
	if l.Now != nil {
		return l.Now()
	}
	return time.Now()
}

// Allow records a request for key and reports whether it fits in max requests
// per window. Rejected requests are not counted, so a client hammering a closed
// window does not push its reset further out.
func (l Limiter) Allow(ctx context.Context, key string, window time.Duration, max int) (Decision, error) {
	now := l.now()
	if l.Client == nil || max <= 0 || window <= 0 {
		return Decision{Allowed: true, Remaining: max, ResetAt: now.Add(window)}, nil
	}

	redisKey := l.Prefix + key
	member := strconv.FormatInt(now.UnixNano(), 10) + ":" + uuid.NewString()
	cutoff := strconv.FormatInt(now.Add(-window).UnixNano(), 10)

	pipe := l.Client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "-inf", cutoff)
	pipe.ZAdd(ctx, redisKey, redis.Z{Score: float64(now.UnixNano()), Member: member})
	countCmd := pipe.ZCard(ctx, redisKey)
	oldestCmd := pipe.ZRangeWithScores(ctx, redisKey, 0, 0)
	pipe.PExpire(ctx, redisKey, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{ResetAt: now.Add(window)}, err
	}

	count := int(countCmd.Val())
	decision := Decision{Allowed: count <= max, ResetAt: now.Add(window)}
	if oldest := oldestCmd.Val(); len(oldest) > 0 {
		decision.ResetAt = time.Unix(0, int64(oldest[0].Score)).Add(window)
	}
	if !decision.Allowed {
		return decision, l.Client.ZRem(ctx, redisKey, member).Err()
	}
	decision.Remaining = max - count
	return decision, nil
}
