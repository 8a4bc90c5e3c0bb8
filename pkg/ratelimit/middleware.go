package ratelimit

import (
	"net/http"
	"strconv"
	"strings"

	"boutique/internal/shared/utils/response"
	"boutique/pkg/logger"

	"github.com/gin-gonic/gin"
)

// rate limiting middleware
func Middleware(rateLimiter *RateLimiter, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		// gin resolves X-Forwarded-For only for trusted proxies
		clientIP := c.ClientIP()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		limitType := getRateLimitType(path)

		result, err := rateLimiter.IsAllowed(c.Request.Context(), clientIP, limitType)
		if err != nil {
			// fail open on Redis errors
			log.WarnContext(c.Request.Context(), "rate limit check failed", logger.Err(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(result.ResetTime, 10))

		if !result.Allowed {
			log.LogRateLimitExceeded(c.Request.Context(), clientIP, path)
			c.Header("Retry-After", strconv.Itoa(int(rateLimiter.config.WindowDuration.Seconds())))
			response.RespondError(c, http.StatusTooManyRequests, response.MsgTooManyRequests)
			return
		}

		c.Next()
	}
}

func getRateLimitType(path string) RateLimitType {
	switch {
	case strings.HasPrefix(path, "/health"),
		strings.HasPrefix(path, "/ping"),
		strings.HasPrefix(path, "/status"):
		return RateLimitTypeHealth

	case strings.Contains(path, "/admin/"),
		strings.Contains(path, "/superadmin/"):
		return RateLimitTypeAdmin

	case strings.Contains(path, "/auth/"):
		return RateLimitTypeAuth

	default:
		return RateLimitTypeDefault
	}
}
