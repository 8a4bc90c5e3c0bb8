package middleware

import (
	"net/http"
	"strings"
	"time"

	"boutique/internal/shared/utils/response"
	"boutique/internal/users"
	"boutique/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// context keys set by RequireAuth and PageGate
const (
	ContextUserID   = "user_id"
	ContextUserRole = "user_role"
)

// TokenVerifier checks an access token and returns its subject and role.
type TokenVerifier interface {
	VerifyAccessToken(token string) (subject string, role string, err error)
}

// RequireAuth reads the access token from the cookie, falling back to an
// Authorization: Bearer header for API clients.
func RequireAuth(verifier TokenVerifier, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		subject, role, ok := authenticate(c, verifier, cookieName, true)
		if !ok {
			response.RespondError(c, http.StatusUnauthorized, response.MsgUnauthenticated)
			return
		}

		c.Set(ContextUserID, subject)
		c.Set(ContextUserRole, role)
		c.Next()
	}
}

// RequireRoles middleware checks if user has any of the required roles
func RequireRoles(allowed ...users.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := UserRole(c)
		if !ok {
			response.RespondError(c, http.StatusUnauthorized, response.MsgUnauthenticated)
			return
		}

		for _, r := range allowed {
			if role == r {
				c.Next()
				return
			}
		}
		response.RespondError(c, http.StatusForbidden, response.MsgForbidden)
	}
}

// RequireStaff lets admins and superadmins through
func RequireStaff() gin.HandlerFunc {
	return RequireRoles(users.RoleAdmin, users.RoleSuperAdmin)
}

func RequireSuperAdmin() gin.HandlerFunc {
	return RequireRoles(users.RoleSuperAdmin)
}

// UserID returns the authenticated user's id
func UserID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.GetString(ContextUserID))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func UserRole(c *gin.Context) (users.Role, bool) {
	role := c.GetString(ContextUserRole)
	if !users.IsValidRole(role) {
		return "", false
	}
	return users.Role(role), true
}

func authenticate(c *gin.Context, verifier TokenVerifier, cookieName string, allowBearer bool) (string, string, bool) {
	token, _ := c.Cookie(cookieName)
	if token == "" && allowBearer {
		token = bearerToken(c.GetHeader("Authorization"))
	}
	if token == "" {
		return "", "", false
	}

	subject, role, err := verifier.VerifyAccessToken(token)
	if err != nil || !users.IsValidRole(role) {
		return "", "", false
	}
	return subject, role, true
}

func bearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// RequestLogger logs every request once it has been handled
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.LogHTTPRequest(c, time.Since(start))
	}
}
