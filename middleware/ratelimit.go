package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimiter enforces fixed-window request limits per client IP and route.
// Counters live in Redis so limits hold across instances; when no Redis client
// is configured an in-process store is used instead.
type RateLimiter struct {
	rdb *redis.Client

	mu      sync.Mutex
	windows map[string]*rateWindow
}

type rateWindow struct {
	count   int
	resetAt time.Time
}

// NewRateLimiter creates a rate limiter. rdb may be nil, in which case
// counters are kept in process memory.
func NewRateLimiter(rdb *redis.Client) *RateLimiter {
	return &RateLimiter{
		rdb:     rdb,
		windows: make(map[string]*rateWindow),
	}
}

// Limit returns a middleware allowing at most max requests per window for
// each client IP on the decorated route. Exceeding the limit yields 429.
func (rl *RateLimiter) Limit(max int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "ratelimit:" + c.ClientIP() + ":" + c.Request.Method + ":" + c.FullPath()

		allowed, err := rl.allow(c.Request.Context(), key, max, window)
		if err != nil {
			// A broken limiter backend must not take the API down
			c.Next()
			return
		}

		if !allowed {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "RATE_LIMITED",
					"message": "Rate limit exceeded, try again later",
				},
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

func (rl *RateLimiter) allow(ctx context.Context, key string, max int, window time.Duration) (bool, error) {
	if rl.rdb != nil {
		count, err := rl.rdb.Incr(ctx, key).Result()
		if err != nil {
			return false, err
		}
		if count == 1 {
			if err := rl.rdb.Expire(ctx, key, window).Err(); err != nil {
				return false, err
			}
		}
		return count <= int64(max), nil
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	w, ok := rl.windows[key]
	if !ok || now.After(w.resetAt) {
		w = &rateWindow{resetAt: now.Add(window)}
		rl.windows[key] = w
	}
	w.count++
	return w.count <= max, nil
}
