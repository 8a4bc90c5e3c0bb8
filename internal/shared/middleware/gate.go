package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"boutique/internal/users"

	"github.com/gin-gonic/gin"
)

const (
	pathHome       = "/"
	pathLogin      = "/login"
	pathAdminLogin = "/admin/login"
	pathAdmin      = "/admin"
	pathSuperAdmin = "/superadmin"
	pathAccount    = "/account"
	redirectParam  = "redirect"
)

// HomeFor is where a signed-in user lands.
func HomeFor(role users.Role) string {
	switch role {
	case users.RoleSuperAdmin:
		return pathSuperAdmin
	case users.RoleAdmin:
		return pathAdmin
	default:
		return pathAccount
	}
}

// GateRedirect decides where a page request must go. An empty result means
// the request passes. role is empty for anonymous visitors.
func GateRedirect(path string, role users.Role) string {
	authenticated := role != ""

	switch {
	case path == pathLogin:
		if authenticated {
			return HomeFor(role)
		}
		return ""

	case path == pathAdminLogin:
		if role.IsStaff() {
			return HomeFor(role)
		}
		return ""

	case underPrefix(path, pathAdmin):
		if !authenticated {
			return withRedirect(pathAdminLogin, path)
		}
		if !role.IsStaff() {
			return pathHome
		}
		return ""

	case underPrefix(path, pathSuperAdmin):
		if !authenticated {
			return withRedirect(pathAdminLogin, path)
		}
		switch role {
		case users.RoleSuperAdmin:
			return ""
		case users.RoleAdmin:
			return pathAdmin
		default:
			return pathHome
		}

	case underPrefix(path, pathAccount):
		if !authenticated {
			return withRedirect(pathLogin, path)
		}
		return ""
	}

	return ""
}

// underPrefix matches the prefix itself or any path below it, so /adminx is
// not under /admin.
func underPrefix(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

func withRedirect(target, from string) string {
	return target + "?" + url.Values{redirectParam: {from}}.Encode()
}

// PageGate guards the HTML pages with the access token cookie only. It never
// touches the refresh store. Authenticated requests that pass carry the user
// in the context like RequireAuth.
func PageGate(verifier TokenVerifier, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var role users.Role
		if subject, r, ok := authenticate(c, verifier, cookieName, false); ok {
			role = users.Role(r)
			c.Set(ContextUserID, subject)
			c.Set(ContextUserRole, r)
		}

		if target := GateRedirect(c.Request.URL.Path, role); target != "" {
			c.Redirect(http.StatusTemporaryRedirect, target)
			c.Abort()
			return
		}
		c.Next()
	}
}
