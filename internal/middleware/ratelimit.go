package middleware

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"sync"
	"time"

	apperrors "gemini-pool-go/internal/errors"
	"gemini-pool-go/internal/monitoring"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const MsgRateLimited = "Rate limit exceeded"

// Limiter decides whether one more request for key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Backend() string
}

type limiterEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// ttlLimiterCache is a TTL map for per-key limiters with opportunistic sweeping.
type ttlLimiterCache struct {
	mu        sync.Mutex
	items     map[string]*limiterEntry
	ttl       time.Duration
	lastSweep time.Time
}

func newTTLLimiterCache(ttl time.Duration) *ttlLimiterCache {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &ttlLimiterCache{items: make(map[string]*limiterEntry), ttl: ttl}
}

func (c *ttlLimiterCache) get(key string, makeFn func() *rate.Limiter) *rate.Limiter {
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.items[key]; ok {
		e.lastSeen = now
		return e.lim
	}
	lim := makeFn()
	c.items[key] = &limiterEntry{lim: lim, lastSeen: now}
	if c.lastSweep.IsZero() || now.Sub(c.lastSweep) > 2*time.Minute {
		for k, e := range c.items {
			if now.Sub(e.lastSeen) > c.ttl {
				delete(c.items, k)
			}
		}
		c.lastSweep = now
	}
	return lim
}

func (c *ttlLimiterCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// LocalLimiter is a per-key token bucket plus a global guard at five times the
// per-key rate.
type LocalLimiter struct {
	rps, burst int
	cache      *ttlLimiterCache
	global     *rate.Limiter
}

func NewLocalLimiter(rps, burst int) *LocalLimiter {
	if rps <= 0 {
		rps = 10
	}
	if burst <= 0 {
		burst = 20
	}
	return &LocalLimiter{
		rps:    rps,
		burst:  burst,
		cache:  newTTLLimiterCache(15 * time.Minute),
		global: rate.NewLimiter(rate.Limit(rps*5), burst*5),
	}
}

func (l *LocalLimiter) Backend() string { return "memory" }

// Allow checks the per-key bucket first so rejected requests leave the
// global budget untouched.
func (l *LocalLimiter) Allow(_ context.Context, key string) (bool, error) {
	li := l.cache.get(key, func() *rate.Limiter { return rate.NewLimiter(rate.Limit(l.rps), l.burst) })
	if !li.Allow() {
		return false, nil
	}
	return l.global.Allow(), nil
}

// RedisLimiter is a fixed-window counter shared by every replica. A window
// admits burst requests and lasts burst/rps seconds (at least one), which
// keeps the long-run rate at rps. A global window admits five times the
// per-key limit, matching LocalLimiter.
type RedisLimiter struct {
	client *redis.Client
	prefix string
	limit  int64
	global int64
	window time.Duration
	now    func() time.Time
}

func NewRedisLimiter(client *redis.Client, prefix string, rps, burst int) *RedisLimiter {
	if rps <= 0 {
		rps = 10
	}
	if burst <= 0 {
		burst = 20
	}
	secs := math.Ceil(float64(burst) / float64(rps))
	if secs < 1 {
		secs = 1
	}
	return &RedisLimiter{
		client: client,
		prefix: prefix,
		limit:  int64(burst),
		global: int64(burst) * 5,
		window: time.Duration(secs) * time.Second,
		now:    time.Now,
	}
}

func (l *RedisLimiter) Backend() string { return "redis" }

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	slot := l.now().UnixNano() / int64(l.window)
	n, err := l.incr(ctx, fmt.Sprintf("%srl:%s:%d", l.prefix, key, slot))
	if err != nil || n > l.limit {
		return false, err
	}
	n, err = l.incr(ctx, fmt.Sprintf("%srl:global:%d", l.prefix, slot))
	if err != nil {
		return false, err
	}
	return n <= l.global, nil
}

func (l *RedisLimiter) incr(ctx context.Context, rkey string) (int64, error) {
	n, err := l.client.Incr(ctx, rkey).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 {
		if err := l.client.Expire(ctx, rkey, 2*l.window).Err(); err != nil {
			return 0, err
		}
	}
	return n, nil
}

// RateLimit rejects callers over their budget with 429. It runs ahead of
// credential checks, so callers are keyed by client IP: an unverified bearer
// token must not buy a fresh bucket. A failing backend lets the request through.
func RateLimit(l Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := rateKey(c)
		ok, err := l.Allow(c.Request.Context(), key)
		if err != nil {
			log.WithFields(log.Fields{"backend": l.Backend(), "error": err}).Warn("rate limiter unavailable, allowing request")
			c.Next()
			return
		}
		if !ok {
			monitoring.RateLimitedTotal.WithLabelValues(l.Backend()).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apperrors.Body{Error: MsgRateLimited})
			return
		}
		c.Next()
	}
}

func rateKey(c *gin.Context) string {
	return "ip:" + c.ClientIP()
}
