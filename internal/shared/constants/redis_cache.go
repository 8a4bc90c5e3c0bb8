package constants

import "time"

// Redis key layout
// Pattern: boutique:{module}:{operation}:{identifier}

// ================== CACHE TTL DURATIONS ==================

const (
	TTL_STATIC_SHORT = 6 * time.Hour // 6 hours - for user profiles
)

// ================== REDIS KEY PREFIXES ==================

const (
	CACHE_PREFIX = "boutique"
)

// ================== AUTH MODULE ==================

const (
	CACHE_KEY_USER_PROFILE = CACHE_PREFIX + ":auth:user:profile:uuid:" // + user-id
	KEY_REFRESH_TOKEN      = CACHE_PREFIX + ":auth:refresh:uuid:"      // + user-id
	KEY_RATE_LIMIT         = CACHE_PREFIX + ":ratelimit:"              // + ip:bucket
)

const (
	TTL_USER_PROFILE = TTL_STATIC_SHORT // 6 hours
)

// ================== HELPER FUNCTIONS ==================

func BuildUserProfileKey(userID string) string {
	return CACHE_KEY_USER_PROFILE + userID
}

func BuildRefreshTokenKey(userID string) string {
	return KEY_REFRESH_TOKEN + userID
}

func BuildRateLimitKey(clientIP, bucket string) string {
	return KEY_RATE_LIMIT + clientIP + ":" + bucket
}
