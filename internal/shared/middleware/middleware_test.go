package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"boutique/internal/users"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cookieName = "accessToken"

type fakeVerifier map[string]users.Role

func (f fakeVerifier) VerifyAccessToken(token string) (string, string, error) {
	role, ok := f[token]
	if !ok {
		return "", "", errors.New("bad token")
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(token)).String(), string(role), nil
}

var verifier = fakeVerifier{
	"client-token": users.RoleClient,
	"admin-token":  users.RoleAdmin,
	"super-token":  users.RoleSuperAdmin,
}

func init() {
	gin.SetMode(gin.TestMode)
}

func apiEngine() *gin.Engine {
	r := gin.New()
	r.GET("/me", RequireAuth(verifier, cookieName), func(c *gin.Context) {
		id, _ := UserID(c)
		role, _ := UserRole(c)
		c.JSON(http.StatusOK, gin.H{"id": id.String(), "role": role})
	})
	r.GET("/staff", RequireAuth(verifier, cookieName), RequireStaff(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	r.GET("/super", RequireAuth(verifier, cookieName), RequireSuperAdmin(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func do(r http.Handler, path string, setup func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if setup != nil {
		setup(req)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func withCookie(token string) func(*http.Request) {
	return func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: cookieName, Value: token})
	}
}

func TestRequireAuth(t *testing.T) {
	r := apiEngine()

	w := do(r, "/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Non authentifié"}`, w.Body.String())

	w = do(r, "/me", withCookie("forged"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, "/me", withCookie("client-token"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"role":"client"`)

	w = do(r, "/me", func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer admin-token")
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"role":"admin"`)

	w = do(r, "/me", func(req *http.Request) {
		req.Header.Set("Authorization", "Basic admin-token")
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRoles(t *testing.T) {
	r := apiEngine()

	tests := []struct {
		path  string
		token string
		want  int
	}{
		{"/staff", "client-token", http.StatusForbidden},
		{"/staff", "admin-token", http.StatusNoContent},
		{"/staff", "super-token", http.StatusNoContent},
		{"/super", "admin-token", http.StatusForbidden},
		{"/super", "super-token", http.StatusNoContent},
		{"/super", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.path+"/"+tt.token, func(t *testing.T) {
			w := do(r, tt.path, withCookie(tt.token))
			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusForbidden {
				assert.JSONEq(t, `{"error":"Accès refusé"}`, w.Body.String())
			}
		})
	}
}

func TestGateRedirect(t *testing.T) {
	const anon = users.Role("")

	tests := []struct {
		name string
		path string
		role users.Role
		want string
	}{
		{"login anonymous", "/login", anon, ""},
		{"login client", "/login", users.RoleClient, "/account"},
		{"login admin", "/login", users.RoleAdmin, "/admin"},
		{"login superadmin", "/login", users.RoleSuperAdmin, "/superadmin"},

		{"admin login anonymous", "/admin/login", anon, ""},
		{"admin login client", "/admin/login", users.RoleClient, ""},
		{"admin login admin", "/admin/login", users.RoleAdmin, "/admin"},
		{"admin login superadmin", "/admin/login", users.RoleSuperAdmin, "/superadmin"},

		{"admin anonymous", "/admin", anon, "/admin/login?redirect=%2Fadmin"},
		{"admin sub anonymous", "/admin/users", anon, "/admin/login?redirect=%2Fadmin%2Fusers"},
		{"admin client", "/admin/users", users.RoleClient, "/"},
		{"admin admin", "/admin/users", users.RoleAdmin, ""},
		{"admin superadmin", "/admin", users.RoleSuperAdmin, ""},

		{"superadmin anonymous", "/superadmin/admins", anon, "/admin/login?redirect=%2Fsuperadmin%2Fadmins"},
		{"superadmin client", "/superadmin", users.RoleClient, "/"},
		{"superadmin admin", "/superadmin/admins", users.RoleAdmin, "/admin"},
		{"superadmin superadmin", "/superadmin/admins", users.RoleSuperAdmin, ""},

		{"account anonymous", "/account/orders", anon, "/login?redirect=%2Faccount%2Forders"},
		{"account client", "/account", users.RoleClient, ""},
		{"account admin", "/account", users.RoleAdmin, ""},

		{"prefix is segment aware", "/administrator", anon, ""},
		{"accounting is public", "/accounting", anon, ""},
		{"home", "/", anon, ""},
		{"api untouched", "/api/auth/me", anon, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GateRedirect(tt.path, tt.role))
		})
	}
}

func TestPageGate(t *testing.T) {
	r := gin.New()
	r.Use(PageGate(verifier, cookieName))
	r.GET("/*path", func(c *gin.Context) {
		role, _ := UserRole(c)
		c.String(http.StatusOK, string(role))
	})

	w := do(r, "/admin/users", nil)
	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.Equal(t, "/admin/login?redirect=%2Fadmin%2Fusers", w.Header().Get("Location"))

	w = do(r, "/login", withCookie("super-token"))
	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.Equal(t, "/superadmin", w.Header().Get("Location"))

	w = do(r, "/admin", withCookie("admin-token"))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "admin", w.Body.String())

	// pages only trust the cookie
	w = do(r, "/account", func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer client-token")
	})
	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)

	w = do(r, "/account", withCookie("expired-or-forged"))
	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.Equal(t, "/login?redirect=%2Faccount", w.Header().Get("Location"))
}

func TestHomeFor(t *testing.T) {
	assert.Equal(t, "/account", HomeFor(users.RoleClient))
	assert.Equal(t, "/admin", HomeFor(users.RoleAdmin))
	assert.Equal(t, "/superadmin", HomeFor(users.RoleSuperAdmin))
}
