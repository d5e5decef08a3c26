package middlewares

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	redis_rate "github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
)

// RateLimiter is a fixed-window counter per key. Buckets whose window has
// passed are swept once the map reaches sweepAt entries. With a shared
// limiter attached the counters live in Redis and the local map is only
// used while Redis is unreachable.
type RateLimiter struct {
	mu      sync.Mutex
	window  time.Duration
	limit   int
	sweepAt int
	clients map[string]*clientBucket
	now     func() time.Time

	shared *redis_rate.Limiter
	name   string
}

type clientBucket struct {
	count     int
	windowEnd time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:   limit,
		window:  window,
		sweepAt: 10_000,
		clients: make(map[string]*clientBucket),
		now:     time.Now,
	}
}

// NewSharedRateLimiter keeps counters in Redis so every API instance
// enforces one budget per key. name keeps separate budgets apart.
func NewSharedRateLimiter(rdb *redis.Client, name string, limit int, window time.Duration) *RateLimiter {
	rl := NewRateLimiter(limit, window)
	rl.shared = redis_rate.NewLimiter(rdb)
	rl.name = name
	return rl
}

func (rl *RateLimiter) check(ctx context.Context, key string) (bool, time.Duration) {
	if rl.shared != nil {
		res, err := rl.shared.Allow(ctx, "ratelimit:"+rl.name+":"+key, redis_rate.Limit{
			Rate:   rl.limit,
			Burst:  rl.limit,
			Period: rl.window,
		})
		if err == nil {
			return res.Allowed > 0, res.RetryAfter
		}
	}
	return rl.allow(key)
}

// allow reports whether key may proceed and, if not, how long until it can.
func (rl *RateLimiter) allow(key string) (bool, time.Duration) {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if len(rl.clients) >= rl.sweepAt {
		for k, b := range rl.clients {
			if now.After(b.windowEnd) {
				delete(rl.clients, k)
			}
		}
	}

	b, ok := rl.clients[key]

	if !ok || now.After(b.windowEnd) {
		rl.clients[key] = &clientBucket{
			count:     1,
			windowEnd: now.Add(rl.window),
		}
		return true, 0
	}

	if b.count >= rl.limit {
		return false, b.windowEnd.Sub(now)
	}

	b.count++
	return true, 0
}

// RateLimiterMiddleware enforces the limit for a key derived by keyFn.
func (rl *RateLimiter) RateLimiterMiddleware(keyFn func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.limit <= 0 {
			c.Next()
			return
		}

		key := keyFn(c)

		if key == "" {
			// fallback to IP if key cannot be derived
			key = clientIP(c)
		}

		ok, retry := rl.check(c.Request.Context(), key)
		if !ok {
			retryAfter := int(retry.Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}

			c.Header("Retry-After", strconv.Itoa(retryAfter))
			abort(c, http.StatusTooManyRequests, "rate_limited", "Too many requests. Please try again shortly.")
			return
		}

		c.Next()
	}
}

// for unauthenticated endpoints: rate limit by IP
func KeyByIP(c *gin.Context) string {
	return "ip:" + clientIP(c)
}

// For authenticated endpoints: rate limit by userID if available

func KeyByUserOrIP(c *gin.Context) string {
	id, ok := UserIDFromContext(c)

	if ok {
		return "user:" + id
	}

	return KeyByIP(c)
}

func clientIP(c *gin.Context) string {
	ip := c.ClientIP()

	host, _, err := net.SplitHostPort(ip)

	if err == nil && host != "" {
		return host
	}

	return ip
}
