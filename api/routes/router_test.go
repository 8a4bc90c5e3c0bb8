package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	_ "boutique/docs"
	"boutique/internal/notifications"
	"boutique/internal/shared/config"
	"boutique/internal/shared/database"
	"boutique/internal/users"
	"boutique/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func testConfig() *config.Config {
	return &config.Config{
		GinMode:    gin.TestMode,
		APIVersion: "v1",
		APIPrefix:  "/api",
		Storage:    config.StorageConfig{Driver: config.DriverMemory, RefreshStore: config.DriverMemory},
		JWT: config.JWTConfig{
			AccessSecret:  "access-secret-for-tests",
			RefreshSecret: "refresh-secret-for-tests",
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    7 * 24 * time.Hour,
			Issuer:        "boutique",
		},
		Cookie: config.CookieConfig{AccessName: "accessToken", RefreshName: "refreshToken"},
	}
}

func newEngine(t *testing.T) (*gin.Engine, *Dependencies) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := testConfig()
	log := logger.Discard()
	db := &database.DB{}

	deps, err := NewDependencies(cfg, db, notifications.NewLogNotifier(log), log)
	require.NoError(t, err)
	assert.Nil(t, deps.Cache)

	engine := gin.New()
	require.NoError(t, NewRouter(cfg, db, deps, log).SetupRoutes(engine))
	return engine, deps
}

func serve(engine *gin.Engine, method, path string, body interface{}, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestNewDependencies_UnknownDriver(t *testing.T) {
	cfg := testConfig()
	cfg.Storage.RefreshStore = "etcd"

	_, err := NewDependencies(cfg, &database.DB{}, nil, logger.Discard())
	assert.Error(t, err)
}

func TestHealthRoutes(t *testing.T) {
	engine, _ := newEngine(t)

	w := serve(engine, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"healthy"`)

	w = serve(engine, http.MethodGet, "/ping", nil)
	assert.JSONEq(t, `{"message":"pong","version":"v1"}`, w.Body.String())

	w = serve(engine, http.MethodGet, "/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"refresh_store":"memory"`)
}

func TestSessionAcrossPagesAndAPI(t *testing.T) {
	engine, deps := newEngine(t)
	ctx := context.Background()

	_, err := users.SeedDemoUsers(ctx, deps.Users, "motdepasse123", bcrypt.MinCost)
	require.NoError(t, err)

	w := serve(engine, http.MethodGet, "/admin/users", nil)
	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.Equal(t, "/admin/login?redirect=%2Fadmin%2Fusers", w.Header().Get("Location"))

	w = serve(engine, http.MethodPost, "/api/auth/login", gin.H{"email": "ADMIN@boutique.fr", "password": "motdepasse123"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 2)

	w = serve(engine, http.MethodGet, "/admin/users", nil, cookies...)
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(engine, http.MethodGet, "/superadmin", nil, cookies...)
	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.Equal(t, "/admin", w.Header().Get("Location"))

	w = serve(engine, http.MethodGet, "/api/admin/users?role=client", nil, cookies...)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":1`)

	w = serve(engine, http.MethodPatch, "/api/superadmin/users/00000000-0000-0000-0000-000000000000/role", gin.H{"role": "admin"}, cookies...)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = serve(engine, http.MethodPost, "/api/auth/logout", nil, cookies...)
	require.Equal(t, http.StatusOK, w.Code)

	w = serve(engine, http.MethodPost, "/api/auth/refresh", nil, cookies...)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSwagger(t *testing.T) {
	engine, _ := newEngine(t)

	w := serve(engine, http.MethodGet, "/swagger/doc.json", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/auth/login")
}
