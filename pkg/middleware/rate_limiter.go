package middleware

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/werewolfcoder/OrderingSystem/pkg/logger"
	pkgredis "github.com/werewolfcoder/OrderingSystem/pkg/redis"
	"github.com/werewolfcoder/OrderingSystem/pkg/response"
	"go.uber.org/zap"
)

// RateLimitConfig holds rate limiting configuration for login and QR routes
type RateLimitConfig struct {
	RequestsPerSecond int
	BurstSize         int
	// RedisClient switches to a limiter shared by all instances
	RedisClient     *pkgredis.Client
	KeyPrefix       string
	CleanupInterval time.Duration
	EntryTTL        time.Duration
}

// DefaultRateLimitConfig returns conservative defaults for credential endpoints
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 5,
		BurstSize:         20,
		KeyPrefix:         "ratelimit:",
		CleanupInterval:   time.Minute,
		EntryTTL:          time.Minute,
	}
}

type bucket struct {
	mu         sync.Mutex
	tokens     float64
	lastUpdate time.Time
}

// LocalRateLimiter is an in-memory token bucket keyed by client
type LocalRateLimiter struct {
	config  RateLimitConfig
	entries sync.Map
	stop    chan struct{}
	once    sync.Once
	now     func() time.Time
}

// NewLocalRateLimiter creates a limiter and starts its cleanup loop
func NewLocalRateLimiter(config RateLimitConfig) *LocalRateLimiter {
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = time.Minute
	}
	if config.EntryTTL <= 0 {
		config.EntryTTL = time.Minute
	}
	rl := &LocalRateLimiter{
		config: config,
		stop:   make(chan struct{}),
		now:    time.Now,
	}
	go rl.cleanup()
	return rl
}

// Allow takes one token from key's bucket
func (rl *LocalRateLimiter) Allow(key string) bool {
	now := rl.now()

	v, _ := rl.entries.LoadOrStore(key, &bucket{
		tokens:     float64(rl.config.BurstSize),
		lastUpdate: now,
	})
	b := v.(*bucket)

	b.mu.Lock()
	defer b.mu.Unlock()

	elapsed := now.Sub(b.lastUpdate).Seconds()
	b.tokens = min(float64(rl.config.BurstSize), b.tokens+elapsed*float64(rl.config.RequestsPerSecond))
	b.lastUpdate = now

	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

func (rl *LocalRateLimiter) cleanup() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cutoff := rl.now().Add(-rl.config.EntryTTL)
			rl.entries.Range(func(key, value any) bool {
				b := value.(*bucket)
				b.mu.Lock()
				if b.lastUpdate.Before(cutoff) {
					rl.entries.Delete(key)
				}
				b.mu.Unlock()
				return true
			})
		case <-rl.stop:
			return
		}
	}
}

// Stop ends the cleanup loop
func (rl *LocalRateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stop) })
}

const tokenBucketScript = `
local key = KEYS[1]
local rate = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local ttl = tonumber(ARGV[4])

local data = redis.call("HMGET", key, "tokens", "last_update")
local tokens = tonumber(data[1]) or burst
local last_update = tonumber(data[2]) or now

tokens = math.min(burst, tokens + (now - last_update) * rate)

local allowed = 0
if tokens >= 1 then
    tokens = tokens - 1
    allowed = 1
end

redis.call("HSET", key, "tokens", tokens, "last_update", now)
redis.call("EXPIRE", key, ttl)
return allowed
`

// RedisRateLimiter runs the token bucket atomically inside Redis
type RedisRateLimiter struct {
	config RateLimitConfig
}

// NewRedisRateLimiter creates a distributed limiter
func NewRedisRateLimiter(config RateLimitConfig) *RedisRateLimiter {
	return &RedisRateLimiter{config: config}
}

// Allow takes one token from key's bucket in Redis
func (rl *RedisRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	now := float64(time.Now().UnixNano()) / 1e9

	allowed, err := rl.config.RedisClient.Eval(ctx, tokenBucketScript,
		[]string{rl.config.KeyPrefix + key},
		rl.config.RequestsPerSecond,
		rl.config.BurstSize,
		now,
		ttlSeconds(rl.config.EntryTTL),
	).Int64()
	if err != nil {
		return false, fmt.Errorf("rate limit script: %w", err)
	}
	return allowed == 1, nil
}

// ttlSeconds rounds d up to whole seconds for EXPIRE, defaulting to a minute
func ttlSeconds(d time.Duration) int64 {
	if d <= 0 {
		return 60
	}
	return int64((d + time.Second - 1) / time.Second)
}

// RateLimiter throttles by client IP. Redis errors fail open.
func RateLimiter(config RateLimitConfig) gin.HandlerFunc {
	var (
		local  *LocalRateLimiter
		shared *RedisRateLimiter
	)
	if config.RedisClient != nil {
		shared = NewRedisRateLimiter(config)
	} else {
		local = NewLocalRateLimiter(config)
	}

	return func(c *gin.Context) {
		key := c.ClientIP() + ":" + c.FullPath()

		var allowed bool
		if shared != nil {
			var err error
			allowed, err = shared.Allow(c.Request.Context(), key)
			if err != nil {
				logger.Get().WithContext(c.Request.Context()).Warn("rate limiter unavailable", zap.Error(err))
				allowed = true
			}
		} else {
			allowed = local.Allow(key)
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(config.RequestsPerSecond))
		if !allowed {
			c.Header("Retry-After", "1")
			response.Abort(c, response.TooManyRequests(""))
			return
		}

		c.Next()
	}
}
