package ratelimit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"boutique/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLimiter(t *testing.T, cfg *Config) (*RateLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRateLimiter(client, cfg), mr
}

func testConfig() *Config {
	return &Config{
		Enabled:         true,
		WindowDuration:  time.Minute,
		DefaultRequests: 5,
		AuthRequests:    3,
		AdminRequests:   10,
		HealthRequests:  100,
	}
}

func TestIsAllowed_SlidingWindow(t *testing.T) {
	limiter, _ := newLimiter(t, testConfig())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res, err := limiter.IsAllowed(ctx, "10.0.0.1", RateLimitTypeAuth)
		require.NoError(t, err)
		assert.True(t, res.Allowed, "request %d", i)
		assert.Equal(t, 2-i, res.Remaining)
	}

	res, err := limiter.IsAllowed(ctx, "10.0.0.1", RateLimitTypeAuth)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)

	// other clients and other buckets are independent
	res, err = limiter.IsAllowed(ctx, "10.0.0.2", RateLimitTypeAuth)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	res, err = limiter.IsAllowed(ctx, "10.0.0.1", RateLimitTypeDefault)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestIsAllowed_WindowSlides(t *testing.T) {
	limiter, _ := newLimiter(t, testConfig())
	ctx := context.Background()

	start := time.Now()
	limiter.now = func() time.Time { return start }
	for i := 0; i < 3; i++ {
		_, err := limiter.IsAllowed(ctx, "10.0.0.1", RateLimitTypeAuth)
		require.NoError(t, err)
	}
	res, err := limiter.IsAllowed(ctx, "10.0.0.1", RateLimitTypeAuth)
	require.NoError(t, err)
	assert.False(t, res.Allowed)

	limiter.now = func() time.Time { return start.Add(61 * time.Second) }
	res, err = limiter.IsAllowed(ctx, "10.0.0.1", RateLimitTypeAuth)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestIsAllowed_DisabledAndWhitelisted(t *testing.T) {
	cfg := testConfig()
	cfg.WhitelistedIPs = []string{"127.0.0.1"}
	limiter, _ := newLimiter(t, cfg)

	for i := 0; i < 10; i++ {
		res, err := limiter.IsAllowed(context.Background(), "127.0.0.1", RateLimitTypeAuth)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	}

	cfg.Enabled = false
	for i := 0; i < 10; i++ {
		res, err := limiter.IsAllowed(context.Background(), "10.9.9.9", RateLimitTypeAuth)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	}
}

func TestGetRateLimitType(t *testing.T) {
	assert.Equal(t, RateLimitTypeHealth, getRateLimitType("/health"))
	assert.Equal(t, RateLimitTypeAuth, getRateLimitType("/api/auth/login"))
	assert.Equal(t, RateLimitTypeAdmin, getRateLimitType("/api/admin/users"))
	assert.Equal(t, RateLimitTypeAdmin, getRateLimitType("/api/superadmin/users/:id/role"))
	assert.Equal(t, RateLimitTypeDefault, getRateLimitType("/"))
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter, mr := newLimiter(t, testConfig())

	engine := gin.New()
	engine.Use(Middleware(limiter, logger.Discard()))
	engine.POST("/api/auth/login", func(c *gin.Context) { c.Status(http.StatusOK) })

	send := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = "192.0.2.10:4321"
		engine.ServeHTTP(w, req)
		return w
	}

	for i := 0; i < 3; i++ {
		w := send()
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "3", w.Header().Get("X-RateLimit-Limit"))
	}

	w := send()
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), `"error"`)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))

	// fail open when Redis is gone
	mr.Close()
	w = send()
	assert.Equal(t, http.StatusOK, w.Code)
}
