package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/werewolfcoder/OrderingSystem/pkg/logger"
	pkgredis "github.com/werewolfcoder/OrderingSystem/pkg/redis"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestCORS(t *testing.T) {
	cfg := DefaultCORSConfig()
	cfg.AllowOrigins = []string{"https://menu.example.com"}

	router := gin.New()
	router.Use(CORS(cfg))
	router.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	t.Run("allowed origin echoed with credentials", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("Origin", "https://menu.example.com")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, "https://menu.example.com", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
		assert.Equal(t, "86400", w.Header().Get("Access-Control-Max-Age"))
	})

	t.Run("unknown origin gets no headers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("preflight short-circuits", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/x", nil)
		req.Header.Set("Origin", "https://menu.example.com")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
	})
}

func TestLocalRateLimiter_Allow(t *testing.T) {
	rl := NewLocalRateLimiter(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 2})
	defer rl.Stop()

	now := time.Now()
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("ip"))
	assert.True(t, rl.Allow("ip"))
	assert.False(t, rl.Allow("ip"), "burst exhausted")
	assert.True(t, rl.Allow("other"), "buckets are per key")

	now = now.Add(1100 * time.Millisecond)
	assert.True(t, rl.Allow("ip"), "refilled after a second")
}

func TestTTLSeconds(t *testing.T) {
	assert.Equal(t, int64(60), ttlSeconds(0))
	assert.Equal(t, int64(1), ttlSeconds(200*time.Millisecond))
	assert.Equal(t, int64(300), ttlSeconds(5*time.Minute))
	assert.Equal(t, int64(91), ttlSeconds(90*time.Second+time.Millisecond))
}

// Run with: INTEGRATION_TEST=true TEST_REDIS_ADDR=localhost:6379 go test ./pkg/middleware/...
func TestRedisRateLimiter_EntryTTL_Integration(t *testing.T) {
	if os.Getenv("INTEGRATION_TEST") != "true" {
		t.Skip("Skipping integration test. Set INTEGRATION_TEST=true to run")
	}
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	client := pkgredis.Wrap(goredis.NewClient(&goredis.Options{Addr: addr}))
	defer client.Close()

	ctx := context.Background()
	rl := NewRedisRateLimiter(RateLimitConfig{
		RequestsPerSecond: 1,
		BurstSize:         2,
		RedisClient:       client,
		KeyPrefix:         "ratelimit-test:",
		EntryTTL:          5 * time.Minute,
	})
	key := "10.0.0.9:/chef/login"
	t.Cleanup(func() { client.Del(context.Background(), "ratelimit-test:"+key) })

	allowed, err := rl.Allow(ctx, key)
	require.NoError(t, err)
	assert.True(t, allowed)

	ttl, err := client.TTL(ctx, "ratelimit-test:"+key).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Minute)
	assert.LessOrEqual(t, ttl, 5*time.Minute)
}

func TestRateLimiter_Middleware(t *testing.T) {
	router := gin.New()
	router.POST("/chef/login", RateLimiter(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1}), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/chef/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, send().Code)
	w := send()
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
}

func TestRequestIDAndLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	log := logger.FromCore(core, "test")

	router := gin.New()
	router.Use(RequestID(), RequestLogger(log, "/health"))
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "req-42", w.Header().Get(RequestIDHeader))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader), "generated when absent")

	require.Equal(t, 1, logs.Len(), "health checks are skipped")
	entry := logs.All()[0]
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
	assert.Equal(t, "req-42", entry.ContextMap()["request_id"])
	assert.EqualValues(t, http.StatusNotFound, entry.ContextMap()["status"])
}

func TestRecovery(t *testing.T) {
	router := gin.New()
	router.Use(Recovery(logger.NewNop()))
	router.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL_ERROR")
}
