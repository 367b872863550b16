package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"todo-api/internal/cache"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// RateLimiter decides whether key may make another request. retryAfter is
// only meaningful when allowed is false.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (allowed bool, retryAfter time.Duration, err error)
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// MemoryRateLimiter is a per-key token bucket. Idle keys are dropped lazily
// on access, no goroutine is started.
type MemoryRateLimiter struct {
	mu          sync.Mutex
	visitors    map[string]*visitor
	limit       rate.Limit
	burst       int
	idleTTL     time.Duration
	lastCleanup time.Time
	now         func() time.Time
}

func NewMemoryRateLimiter(requestsPerMinute, burst int, idleTTL time.Duration) *MemoryRateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &MemoryRateLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Limit(float64(requestsPerMinute) / 60.0),
		burst:    burst,
		idleTTL:  idleTTL,
		now:      time.Now,
	}
}

func (l *MemoryRateLimiter) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.cleanup(now)

	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now

	r := v.limiter.ReserveN(now, 1)
	if !r.OK() {
		return false, time.Minute, nil
	}
	delay := r.DelayFrom(now)
	if delay == 0 {
		return true, 0, nil
	}
	r.CancelAt(now)
	return false, delay, nil
}

func (l *MemoryRateLimiter) cleanup(now time.Time) {
	if l.idleTTL <= 0 || now.Sub(l.lastCleanup) < l.idleTTL {
		return
	}
	for key, v := range l.visitors {
		if now.Sub(v.lastSeen) > l.idleTTL {
			delete(l.visitors, key)
		}
	}
	l.lastCleanup = now
}

func (l *MemoryRateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.visitors)
}

// windowScript increments the counter and sets its expiry in one step. A
// counter found without a TTL gets one, so a window can never outlive
// itself.
var windowScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
	ttl = tonumber(ARGV[1])
end
return {count, ttl}
`)

// RedisRateLimiter is a fixed-window counter shared by every instance.
type RedisRateLimiter struct {
	client      redis.UniversalClient
	guard       *cache.Guard
	maxRequests int64
	window      time.Duration
	prefix      string
}

// NewRedisRateLimiter builds its own guard when guard is nil.
func NewRedisRateLimiter(client redis.UniversalClient, maxRequests int, window time.Duration, guard *cache.Guard) *RedisRateLimiter {
	if guard == nil {
		guard = cache.NewGuard(nil, 0)
	}
	return &RedisRateLimiter{
		client:      client,
		guard:       guard,
		maxRequests: int64(maxRequests),
		window:      window,
		prefix:      "rl:" + strconv.FormatInt(int64(window.Seconds()), 10) + ":",
	}
}

func (l *RedisRateLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	var count, ttlMillis int64
	err := l.guard.Do(ctx, func(ctx context.Context) error {
		res, err := windowScript.Run(ctx, l.client, []string{l.prefix + key}, l.window.Milliseconds()).Int64Slice()
		if err != nil {
			return err
		}
		if len(res) != 2 {
			return fmt.Errorf("unexpected rate limit reply %v", res)
		}
		count, ttlMillis = res[0], res[1]
		return nil
	})
	if err != nil {
		return false, 0, err
	}

	if count > l.maxRequests {
		retry := time.Duration(ttlMillis) * time.Millisecond
		if retry <= 0 {
			retry = l.window
		}
		return false, retry, nil
	}
	return true, 0, nil
}

// RateLimit rejects requests over the limit with 429. Limiter errors let
// the request through.
func RateLimit(limiter RateLimiter, onBlocked func(c *gin.Context)) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, retryAfter, err := limiter.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			slog.Warn("rate limiter unavailable", "error", err)
			c.Next()
			return
		}

		if !allowed {
			if onBlocked != nil {
				onBlocked(c)
			}
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}

		c.Next()
	}
}
